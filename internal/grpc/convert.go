package grpc

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"task-dispatcher/internal/task"
)

// Элементы очереди и результаты передаются как google.protobuf.Struct,
// поэтому сгенерированный код не нужен.

func itemToStruct(item task.Item, empty bool) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"empty": structpb.NewBoolValue(empty),
		"stop":  structpb.NewBoolValue(item.Stop),
	}
	if !empty && !item.Stop {
		fields["task"] = structpb.NewStructValue(taskToStruct(item.Task))
	}
	return &structpb.Struct{Fields: fields}
}

func itemFromStruct(s *structpb.Struct) (item task.Item, empty bool, err error) {
	fields := s.GetFields()
	if fields["empty"].GetBoolValue() {
		return task.Item{}, true, nil
	}
	if fields["stop"].GetBoolValue() {
		return task.StopItem(), false, nil
	}
	ts := fields["task"].GetStructValue()
	if ts == nil {
		return task.Item{}, false, fmt.Errorf("queue item has neither task nor stop flag")
	}
	t, err := taskFromStruct(ts)
	if err != nil {
		return task.Item{}, false, err
	}
	return task.TaskItem(t), false, nil
}

func taskToStruct(t task.Task) *structpb.Struct {
	operands := make([]*structpb.Value, 0, len(t.Operands))
	for _, o := range t.Operands {
		operands = append(operands, structpb.NewNumberValue(o))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":           structpb.NewStringValue(t.ID),
		"kind":         structpb.NewStringValue(string(t.Kind)),
		"operation":    structpb.NewStringValue(t.Operation),
		"operands":     structpb.NewListValue(&structpb.ListValue{Values: operands}),
		"path":         structpb.NewStringValue(t.Path),
		"submitted_at": structpb.NewStringValue(t.SubmittedAt.Format(time.RFC3339Nano)),
	}}
}

func taskFromStruct(s *structpb.Struct) (task.Task, error) {
	fields := s.GetFields()
	t := task.Task{
		ID:        fields["id"].GetStringValue(),
		Kind:      task.Kind(fields["kind"].GetStringValue()),
		Operation: fields["operation"].GetStringValue(),
		Path:      fields["path"].GetStringValue(),
	}
	if t.ID == "" {
		return task.Task{}, fmt.Errorf("task without id")
	}

	if list := fields["operands"].GetListValue(); list != nil && len(list.Values) > 0 {
		t.Operands = make([]float64, 0, len(list.Values))
		for i, v := range list.Values {
			n, ok := v.GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return task.Task{}, fmt.Errorf("task %s: operand %d is not a number", t.ID, i)
			}
			t.Operands = append(t.Operands, n.NumberValue)
		}
	}

	if raw := fields["submitted_at"].GetStringValue(); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return task.Task{}, fmt.Errorf("task %s: bad submitted_at: %w", t.ID, err)
		}
		t.SubmittedAt = at
	}
	return t, nil
}

func resultToStruct(r task.Result) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"worker_id": structpb.NewNumberValue(float64(r.WorkerID)),
		"task":      structpb.NewStructValue(taskToStruct(r.Task)),
		"outcome": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"kind":   structpb.NewStringValue(string(r.Outcome.Kind)),
			"number": structpb.NewNumberValue(r.Outcome.Number),
			"text":   structpb.NewStringValue(r.Outcome.Text),
			"error":  structpb.NewStringValue(r.Outcome.Error),
		}}),
		"completed_at": structpb.NewStringValue(r.CompletedAt.Format(time.RFC3339Nano)),
	}}
}

func resultFromStruct(s *structpb.Struct) (task.Result, error) {
	fields := s.GetFields()

	ts := fields["task"].GetStructValue()
	if ts == nil {
		return task.Result{}, fmt.Errorf("result without task")
	}
	t, err := taskFromStruct(ts)
	if err != nil {
		return task.Result{}, err
	}

	of := fields["outcome"].GetStructValue().GetFields()
	r := task.Result{
		WorkerID: int(fields["worker_id"].GetNumberValue()),
		Task:     t,
		Outcome: task.Outcome{
			Kind:   task.OutcomeKind(of["kind"].GetStringValue()),
			Number: of["number"].GetNumberValue(),
			Text:   of["text"].GetStringValue(),
			Error:  of["error"].GetStringValue(),
		},
	}
	switch r.Outcome.Kind {
	case task.OutcomeNumber, task.OutcomeText, task.OutcomeError:
	default:
		return task.Result{}, fmt.Errorf("task %s: unknown outcome kind %q", t.ID, r.Outcome.Kind)
	}

	if raw := fields["completed_at"].GetStringValue(); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return task.Result{}, fmt.Errorf("task %s: bad completed_at: %w", t.ID, err)
		}
		r.CompletedAt = at
	}
	return r, nil
}
