package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind определяет тип задачи
type Kind string

const (
	KindArithmetic Kind = "arithmetic"
	KindReadFile   Kind = "read_file"
)

// Арифметические операции
const (
	OpAdd      = "add"
	OpSubtract = "subtract"
	OpMultiply = "multiply"
	OpDivide   = "divide"
)

// Task представляет собой неизменяемое описание работы для воркера
type Task struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Operation   string    `json:"operation,omitempty"`
	Operands    []float64 `json:"operands,omitempty"`
	Path        string    `json:"path,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewArithmetic создает арифметическую задачу. Операнды копируются.
func NewArithmetic(operation string, operands []float64) Task {
	ops := make([]float64, len(operands))
	copy(ops, operands)
	return Task{
		ID:          uuid.NewString(),
		Kind:        KindArithmetic,
		Operation:   operation,
		Operands:    ops,
		SubmittedAt: time.Now(),
	}
}

// NewReadFile создает задачу чтения файла
func NewReadFile(path string) Task {
	return Task{
		ID:          uuid.NewString(),
		Kind:        KindReadFile,
		Path:        path,
		SubmittedAt: time.Now(),
	}
}

// ShortID возвращает первые 8 символов идентификатора для вывода
func (t Task) ShortID() string {
	if len(t.ID) > 8 {
		return t.ID[:8]
	}
	return t.ID
}

// String возвращает задачу в виде команды оператора
func (t Task) String() string {
	switch t.Kind {
	case KindArithmetic:
		parts := make([]string, 0, len(t.Operands)+1)
		parts = append(parts, t.Operation)
		for _, o := range t.Operands {
			parts = append(parts, strconv.FormatFloat(o, 'g', -1, 64))
		}
		return strings.Join(parts, " ")
	case KindReadFile:
		return "read_file " + t.Path
	default:
		return fmt.Sprintf("%s(?)", t.Kind)
	}
}

// Item элемент очереди задач: либо задача, либо стоп-сигнал
type Item struct {
	Stop bool
	Task Task
}

// StopItem стоп-сигнал для одного воркера
func StopItem() Item {
	return Item{Stop: true}
}

// TaskItem оборачивает задачу в элемент очереди
func TaskItem(t Task) Item {
	return Item{Task: t}
}
