package executor

import (
	"errors"
	"fmt"
	"math"
	"os"
	"unicode/utf8"

	"task-dispatcher/internal/task"
)

// Errors
var (
	ErrDivisionByZero   = errors.New("division by zero")
	ErrNoOperands       = errors.New("no operands provided")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrFileNotFound     = errors.New("file not found")
	ErrReadFile         = errors.New("failed to read file")
	ErrInvalidEncoding  = errors.New("file is not valid UTF-8 text")
	ErrFileTooLarge     = errors.New("file is too large")
	ErrNotFinite        = errors.New("result is not a finite number")
)

// MaxFileSize предел размера файла для read_file. Содержимое целиком уходит в результат
// и должно пройти через транспорт воркера.
var MaxFileSize int64 = 32 << 20

// Executor выполняет задачу и возвращает результат. Реализации не должны паниковать.
type Executor interface {
	Execute(t task.Task) task.Outcome
}

// ExecutorFunc адаптер обычной функции к интерфейсу Executor
type ExecutorFunc func(t task.Task) task.Outcome

func (f ExecutorFunc) Execute(t task.Task) task.Outcome {
	return f(t)
}

// Default исполнитель задач по умолчанию
var Default Executor = ExecutorFunc(Execute)

// Execute интерпретирует задачу. Любая ошибка возвращается как Outcome с ошибкой.
func Execute(t task.Task) task.Outcome {
	switch t.Kind {
	case task.KindArithmetic:
		value, err := Calculate(t.Operation, t.Operands)
		if err != nil {
			return task.ErrorOutcome("%v", err)
		}
		if math.IsInf(value, 0) || math.IsNaN(value) {
			return task.ErrorOutcome("%v", ErrNotFinite)
		}
		return task.NumberOutcome(value)
	case task.KindReadFile:
		content, err := ReadFile(t.Path)
		if err != nil {
			return task.ErrorOutcome("%v", err)
		}
		return task.TextOutcome(content)
	default:
		return task.ErrorOutcome("unknown task kind: %s", t.Kind)
	}
}

// Calculate выполняет арифметическую операцию левой сверткой по операндам
func Calculate(operation string, operands []float64) (float64, error) {
	if len(operands) == 0 {
		return 0, ErrNoOperands
	}

	switch operation {
	case task.OpAdd:
		result := 0.0
		for _, o := range operands {
			result += o
		}
		return result, nil
	case task.OpSubtract:
		result := operands[0]
		for _, o := range operands[1:] {
			result -= o
		}
		return result, nil
	case task.OpMultiply:
		result := 1.0
		for _, o := range operands {
			result *= o
		}
		return result, nil
	case task.OpDivide:
		result := operands[0]
		for _, o := range operands[1:] {
			if o == 0 {
				return 0, ErrDivisionByZero
			}
			result /= o
		}
		return result, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownOperation, operation)
	}
}

// ReadFile читает обычный файл целиком как текст
func ReadFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("%w: %w (%d bytes, limit %d)", ErrReadFile, ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadFile, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %w", ErrReadFile, ErrInvalidEncoding)
	}
	return string(data), nil
}
