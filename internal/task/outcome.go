package task

import (
	"fmt"
	"strconv"
	"time"
)

// OutcomeKind вариант результата выполнения
type OutcomeKind string

const (
	OutcomeNumber OutcomeKind = "number"
	OutcomeText   OutcomeKind = "text"
	OutcomeError  OutcomeKind = "error"
)

// Outcome результат выполнения задачи. Ошибка здесь обычное значение, а не исключение.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Number float64     `json:"number,omitempty"`
	Text   string      `json:"text,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func NumberOutcome(v float64) Outcome {
	return Outcome{Kind: OutcomeNumber, Number: v}
}

func TextOutcome(s string) Outcome {
	return Outcome{Kind: OutcomeText, Text: s}
}

func ErrorOutcome(format string, args ...any) Outcome {
	return Outcome{Kind: OutcomeError, Error: fmt.Sprintf(format, args...)}
}

func (o Outcome) IsError() bool {
	return o.Kind == OutcomeError
}

// String форматирует результат для оператора
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeNumber:
		return strconv.FormatFloat(o.Number, 'f', -1, 64)
	case OutcomeText:
		return o.Text
	case OutcomeError:
		return "error: " + o.Error
	default:
		return "<empty outcome>"
	}
}

// Result запись о выполненной задаче, создается ровно один раз на каждую задачу
type Result struct {
	WorkerID    int       `json:"worker_id"`
	Task        Task      `json:"task"`
	Outcome     Outcome   `json:"outcome"`
	CompletedAt time.Time `json:"completed_at"`
}

func NewResult(workerID int, t Task, outcome Outcome) Result {
	return Result{
		WorkerID:    workerID,
		Task:        t,
		Outcome:     outcome,
		CompletedAt: time.Now(),
	}
}
