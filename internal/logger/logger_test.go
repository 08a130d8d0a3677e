package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMasterLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatcher.log")
	InitMasterLogger(path, "info")
	defer Discard()

	LogINFO("Master: started worker 0")
	LogERROR("Master: worker 1 exited with error")
	L().Debug("hidden at info level")
	CloseLogger()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	out := string(data)
	for _, want := range []string{"INFO", "master", "started worker 0", "ERROR", "exited with error"} {
		if !strings.Contains(out, want) {
			t.Errorf("log file does not contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden at info level") {
		t.Error("debug entry written at info level")
	}
}

func TestWorkerLoggerUsesOwnFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "dispatcher.log")
	InitWorkerLogger(base, "debug", 3)
	defer Discard()

	LogINFO("Worker 3: started")
	CloseLogger()

	data, err := os.ReadFile(base + ".worker-3")
	if err != nil {
		t.Fatalf("failed to read worker log file: %v", err)
	}
	if !strings.Contains(string(data), "worker-3") {
		t.Errorf("worker log does not carry logger name:\n%s", data)
	}
	if _, err := os.Stat(base); !os.IsNotExist(err) {
		t.Error("worker must not write to the master log file")
	}
}

func TestDiscardSilencesGlobals(t *testing.T) {
	Discard()
	if INFO == nil || ERROR == nil {
		t.Fatal("INFO/ERROR must stay usable after Discard")
	}
	LogINFO("nothing")
	LogERROR("nothing")
}
