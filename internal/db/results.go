package db

import (
	"errors"

	"task-dispatcher/internal/task"
)

var (
	ErrDBNotInitialized = errors.New("database not initialized")
)

// SaveResult записывает результат задачи. Повторная запись той же задачи игнорируется.
func SaveResult(r task.Result) error {
	DbMutex.Lock()
	defer DbMutex.Unlock()
	if DB == nil {
		return ErrDBNotInitialized
	}

	var number *float64
	if r.Outcome.Kind == task.OutcomeNumber {
		v := r.Outcome.Number
		number = &v
	}

	query := `
		INSERT OR IGNORE INTO results
		(task_id, worker_id, kind, command, outcome_kind, outcome, number_value, submitted_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := DB.Exec(
		query,
		r.Task.ID, r.WorkerID, string(r.Task.Kind), r.Task.String(),
		string(r.Outcome.Kind), r.Outcome.String(), number,
		r.Task.SubmittedAt, r.CompletedAt,
	)
	return err
}

// GetResults возвращает последние limit результатов, новые первыми
func GetResults(limit int) ([]*ResultRecord, error) {
	DbMutex.Lock()
	defer DbMutex.Unlock()
	if DB == nil {
		return nil, ErrDBNotInitialized
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := DB.Query(`
		SELECT id, task_id, worker_id, kind, command, outcome_kind, outcome, number_value, submitted_at, completed_at
		FROM results
		ORDER BY completed_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ResultRecord
	for rows.Next() {
		var rec ResultRecord
		if err := rows.Scan(
			&rec.ID, &rec.TaskID, &rec.WorkerID, &rec.Kind, &rec.Command,
			&rec.OutcomeKind, &rec.Outcome, &rec.NumberValue,
			&rec.SubmittedAt, &rec.CompletedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// CountResults количество сохраненных результатов
func CountResults() (int, error) {
	DbMutex.Lock()
	defer DbMutex.Unlock()
	if DB == nil {
		return 0, ErrDBNotInitialized
	}

	var count int
	err := DB.QueryRow("SELECT COUNT(*) FROM results").Scan(&count)
	return count, err
}

// Journal подключает базу к коллектору результатов
type Journal struct{}

func (Journal) SaveResult(r task.Result) error {
	return SaveResult(r)
}
