package api_test

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"task-dispatcher/internal/api"
	"task-dispatcher/internal/auth"
	"task-dispatcher/internal/config"
	"task-dispatcher/internal/db"
	"task-dispatcher/internal/dispatcher"
	"task-dispatcher/internal/logger"
	"task-dispatcher/internal/task"
)

// fakeDispatcher разбирает команды настоящим парсером, но ничего не выполняет
type fakeDispatcher struct {
	shuttingDown bool
	submitted    []task.Task
}

func (f *fakeDispatcher) Submit(line string) (task.Task, error) {
	if f.shuttingDown {
		return task.Task{}, dispatcher.ErrShuttingDown
	}
	t, err := dispatcher.ParseCommand(line)
	if err != nil {
		return task.Task{}, err
	}
	f.submitted = append(f.submitted, t)
	return t, nil
}

func (f *fakeDispatcher) Stats() dispatcher.Stats {
	return dispatcher.Stats{Workers: 4, Mode: "inproc", Submitted: int64(len(f.submitted)), ShuttingDown: f.shuttingDown}
}

// setupAPI настраивает конфигурацию и возвращает токен оператора
func setupAPI(t *testing.T) string {
	t.Helper()
	logger.Discard()
	config.AppConfig = config.Default()
	config.AppConfig.JWTSecret = "test-secret-key"

	token, err := auth.GenerateToken(config.AppConfig.OperatorLogin)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return token
}

// TestHandleSubmitTask проверяет постановку задач через API
func TestHandleSubmitTask(t *testing.T) {
	token := setupAPI(t)

	tests := []struct {
		name           string
		body           string
		shuttingDown   bool
		withToken      bool
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Valid command",
			body:           `{"command": "add 2 3"}`,
			withToken:      true,
			expectedStatus: http.StatusCreated,
			expectedBody:   `"task":"add 2 3"`,
		},
		{
			name:           "Unknown command",
			body:           `{"command": "foo 1 2"}`,
			withToken:      true,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "unknown command 'foo'",
		},
		{
			name:           "Invalid JSON",
			body:           `{"command": `,
			withToken:      true,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "Shutting down",
			body:           `{"command": "add 2 3"}`,
			shuttingDown:   true,
			withToken:      true,
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "Without token",
			body:           `{"command": "add 2 3"}`,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeDispatcher{shuttingDown: tt.shuttingDown}
			router := api.NewRouter(&api.Handler{Dispatcher: fake})

			req := httptest.NewRequest("POST", "/api/v1/tasks", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.withToken {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Handler returned wrong status code: got %v want %v, body: %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedBody != "" && !strings.Contains(rr.Body.String(), tt.expectedBody) {
				t.Errorf("Expected body to contain %q, got %q", tt.expectedBody, rr.Body.String())
			}
			if tt.expectedStatus != http.StatusCreated && len(fake.submitted) != 0 {
				t.Errorf("Rejected request must not submit tasks")
			}
		})
	}
}

// TestHandleSubmitTaskOperator проверяет, что задачу ставит только оператор из токена
func TestHandleSubmitTaskOperator(t *testing.T) {
	token := setupAPI(t)

	var logged bytes.Buffer
	logger.INFO = log.New(&logged, "INFO: ", 0)
	defer logger.Discard()

	t.Run("Without middleware", func(t *testing.T) {
		fake := &fakeDispatcher{}
		h := &api.Handler{Dispatcher: fake}

		req := httptest.NewRequest("POST", "/api/v1/tasks", bytes.NewBufferString(`{"command": "add 2 3"}`))
		rr := httptest.NewRecorder()
		h.HandleSubmitTask(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rr.Code)
		}
		if len(fake.submitted) != 0 {
			t.Error("Unauthenticated request must not submit tasks")
		}
	})

	t.Run("Operator is logged", func(t *testing.T) {
		fake := &fakeDispatcher{}
		router := api.NewRouter(&api.Handler{Dispatcher: fake})

		req := httptest.NewRequest("POST", "/api/v1/tasks", bytes.NewBufferString(`{"command": "multiply 6 7"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
		if !strings.Contains(logged.String(), "operator operator submitted command: multiply 6 7") {
			t.Errorf("Expected operator in log, got %q", logged.String())
		}
	})
}

// TestHandleStatus проверяет выдачу статистики
func TestHandleStatus(t *testing.T) {
	token := setupAPI(t)
	fake := &fakeDispatcher{}
	fake.Submit("multiply 2 2")
	router := api.NewRouter(&api.Handler{Dispatcher: fake})

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var stats dispatcher.Stats
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.Workers != 4 || stats.Submitted != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

// TestHandleGetResults проверяет чтение журнала результатов
func TestHandleGetResults(t *testing.T) {
	token := setupAPI(t)

	get := func(router http.Handler, url string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", url, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("Journal disabled", func(t *testing.T) {
		router := api.NewRouter(&api.Handler{Dispatcher: &fakeDispatcher{}})
		if rr := get(router, "/api/v1/results"); rr.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rr.Code)
		}
	})

	t.Run("Journal enabled", func(t *testing.T) {
		if err := db.InitDB(":memory:"); err != nil {
			t.Fatalf("Failed to init database: %v", err)
		}
		defer db.CloseDB()

		for i := 0; i < 3; i++ {
			r := task.NewResult(i, task.NewArithmetic(task.OpAdd, []float64{float64(i), 1}), task.NumberOutcome(float64(i+1)))
			if err := db.SaveResult(r); err != nil {
				t.Fatalf("Failed to save result: %v", err)
			}
		}

		router := api.NewRouter(&api.Handler{Dispatcher: &fakeDispatcher{}, JournalEnabled: true})

		rr := get(router, "/api/v1/results?limit=2")
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var records []db.ResultRecord
		if err := json.NewDecoder(rr.Body).Decode(&records); err != nil {
			t.Fatalf("Failed to decode records: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("Expected 2 records, got %d", len(records))
		}

		if rr := get(router, "/api/v1/results?limit=abc"); rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for bad limit, got %d", rr.Code)
		}
	})
}
