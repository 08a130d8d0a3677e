package dispatcher

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"task-dispatcher/internal/task"
)

var (
	ErrEmptyCommand      = errors.New("empty command")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrNotEnoughOperands = errors.New("not enough operands")
	ErrOperandNotNumber  = errors.New("operands must be numbers")
	ErrReadFileArgs      = errors.New("wrong read_file arguments")
	ErrInvalidPath       = errors.New("invalid file path")
	ErrShuttingDown      = errors.New("dispatcher is shutting down")
	ErrNotStarted        = errors.New("dispatcher is not started")
)

// CommandError ошибка разбора строки: текст для оператора плюс сентинел для errors.Is
type CommandError struct {
	Msg string
	Err error
}

func (e *CommandError) Error() string { return e.Msg }

func (e *CommandError) Unwrap() error { return e.Err }

func commandError(err error, format string, args ...any) error {
	return &CommandError{Msg: fmt.Sprintf(format, args...), Err: err}
}

const cmdReadFile = "read_file"

// IsArithmetic проверяет, является ли команда арифметической операцией
func IsArithmetic(cmd string) bool {
	switch cmd {
	case task.OpAdd, task.OpSubtract, task.OpMultiply, task.OpDivide:
		return true
	}
	return false
}

// ParseCommand разбирает строку оператора в задачу.
// Пустая строка дает ErrEmptyCommand, ее нужно молча пропускать.
func ParseCommand(line string) (task.Task, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return task.Task{}, ErrEmptyCommand
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch {
	case IsArithmetic(cmd):
		if len(args) < 2 {
			return task.Task{}, commandError(ErrNotEnoughOperands, "operation '%s' requires at least two operands", cmd)
		}
		operands := make([]float64, 0, len(args))
		for _, a := range args {
			// inf и nan ParseFloat принимает, но числами для операций они не считаются
			v, err := strconv.ParseFloat(a, 64)
			if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
				return task.Task{}, commandError(ErrOperandNotNumber, "operands must be numbers")
			}
			operands = append(operands, v)
		}
		return task.NewArithmetic(cmd, operands), nil

	case cmd == cmdReadFile:
		if len(args) != 1 {
			return task.Task{}, commandError(ErrReadFileArgs, "command 'read_file' requires exactly one argument (file path)")
		}
		// Путь уходит воркеру строкой protobuf, а она обязана быть UTF-8
		if !utf8.ValidString(args[0]) {
			return task.Task{}, commandError(ErrInvalidPath, "file path must be valid UTF-8")
		}
		return task.NewReadFile(args[0]), nil

	default:
		return task.Task{}, commandError(ErrUnknownCommand, "unknown command '%s'", cmd)
	}
}
