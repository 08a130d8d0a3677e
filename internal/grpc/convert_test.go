package grpc

import (
	"math"
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"task-dispatcher/internal/task"
)

func TestResultStructPreservesFields(t *testing.T) {
	tk := task.NewArithmetic(task.OpSubtract, []float64{10, 2.5, -1})
	tk.SubmittedAt = time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	want := task.NewResult(7, tk, task.ErrorOutcome("division by zero"))

	got, err := resultFromStruct(resultToStruct(want))
	if err != nil {
		t.Fatalf("resultFromStruct failed: %v", err)
	}

	if got.WorkerID != 7 {
		t.Errorf("Expected worker 7, got %d", got.WorkerID)
	}
	if got.Task.String() != "subtract 10 2.5 -1" {
		t.Errorf("Unexpected task %q", got.Task.String())
	}
	if !got.Task.SubmittedAt.Equal(tk.SubmittedAt) {
		t.Errorf("SubmittedAt changed: %v != %v", got.Task.SubmittedAt, tk.SubmittedAt)
	}
	if !got.CompletedAt.Equal(want.CompletedAt) {
		t.Errorf("CompletedAt changed: %v != %v", got.CompletedAt, want.CompletedAt)
	}
	if got.Outcome != want.Outcome {
		t.Errorf("Outcome changed: %+v != %+v", got.Outcome, want.Outcome)
	}
}

func TestInfiniteOperandSurvivesTransport(t *testing.T) {
	tk := task.NewArithmetic(task.OpAdd, []float64{math.Inf(1), 1})

	item, _, err := itemFromStruct(itemToStruct(task.TaskItem(tk), false))
	if err != nil {
		t.Fatalf("itemFromStruct failed: %v", err)
	}
	if !math.IsInf(item.Task.Operands[0], 1) {
		t.Errorf("Expected +Inf, got %v", item.Task.Operands[0])
	}
}

func TestConvertRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   *structpb.Struct
	}{
		{
			name: "Item without task",
			in:   &structpb.Struct{Fields: map[string]*structpb.Value{"stop": structpb.NewBoolValue(false)}},
		},
		{
			name: "Task without id",
			in: &structpb.Struct{Fields: map[string]*structpb.Value{
				"task": structpb.NewStructValue(&structpb.Struct{}),
			}},
		},
		{
			name: "Operand is a string",
			in: &structpb.Struct{Fields: map[string]*structpb.Value{
				"task": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
					"id":       structpb.NewStringValue("abc"),
					"operands": structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{structpb.NewStringValue("x")}}),
				}}),
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := itemFromStruct(tt.in); err == nil {
				t.Error("Expected error")
			}
		})
	}

	bad := resultToStruct(task.NewResult(1, task.NewReadFile("a"), task.TextOutcome("x")))
	bad.Fields["outcome"] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"kind": structpb.NewStringValue("weird"),
	}})
	if _, err := resultFromStruct(bad); err == nil {
		t.Error("Expected error for unknown outcome kind")
	}
}
