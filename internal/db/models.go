package db

import (
	"time"
)

// ResultRecord сохраненный результат задачи
type ResultRecord struct {
	ID          int64     `json:"id"`
	TaskID      string    `json:"task_id"`
	WorkerID    int       `json:"worker_id"`
	Kind        string    `json:"kind"`
	Command     string    `json:"command"`
	OutcomeKind string    `json:"outcome_kind"`
	Outcome     string    `json:"outcome"`
	NumberValue *float64  `json:"number_value"` // Только для числовых результатов
	SubmittedAt time.Time `json:"submitted_at"`
	CompletedAt time.Time `json:"completed_at"`
}
