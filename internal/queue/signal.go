package queue

import "sync"

// Signal однократно взводимый флаг: false -> true, сброса нет
type Signal struct {
	once sync.Once
	done chan struct{}
	mu   sync.Mutex
}

func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

func (s *Signal) channel() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		s.done = make(chan struct{})
	}
	return s.done
}

// Set взводит флаг. Возвращает true только для первого вызова.
func (s *Signal) Set() bool {
	first := false
	ch := s.channel()
	s.once.Do(func() {
		close(ch)
		first = true
	})
	return first
}

func (s *Signal) IsSet() bool {
	select {
	case <-s.channel():
		return true
	default:
		return false
	}
}

// Done закрывается при взведении флага
func (s *Signal) Done() <-chan struct{} {
	return s.channel()
}
