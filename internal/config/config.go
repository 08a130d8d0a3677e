package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Режимы размещения воркеров
const (
	WorkerModeProcess = "process"
	WorkerModeInproc  = "inproc"
)

// DefaultWorkerMaxGetFailures сколько ошибок получения задачи подряд воркер терпит по умолчанию
const DefaultWorkerMaxGetFailures = 5

type Config struct {
	WorkerCount          int
	WorkerMode           string
	CollectorPollTimeout time.Duration
	WorkerMaxGetFailures int
	SocketDir            string
	LogFilePath          string
	LogLevel             string
	ResultsDBPath        string
	APIPort              string
	JWTSecret            string
	JWTExpirationMinutes int
	OperatorLogin        string
	OperatorPasswordHash string
}

var AppConfig *Config

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		WorkerCount:          4,
		WorkerMode:           WorkerModeProcess,
		CollectorPollTimeout: time.Second,
		WorkerMaxGetFailures: DefaultWorkerMaxGetFailures,
		SocketDir:            os.TempDir(),
		LogLevel:             "info",
		JWTExpirationMinutes: 60,
		OperatorLogin:        "operator",
	}
}

// InitConfig загружает .env (если он есть) и переменные окружения в AppConfig
func InitConfig(configPath string) error {
	AppConfig = Default()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := godotenv.Load(configPath); err != nil {
				return fmt.Errorf("error loading %s: %w", configPath, err)
			}
		} else {
			log.Printf("%s not found, using environment only", configPath)
		}
	}

	if v := os.Getenv("WORKER_COUNT"); v != "" {
		value, err := strconv.Atoi(v)
		if err != nil || value < 0 {
			return fmt.Errorf("WORKER_COUNT not a non-negative number: %q", v)
		}
		if value == 0 {
			log.Println("WORKER_COUNT is 0. Auto set to 1")
			value = 1
		}
		AppConfig.WorkerCount = value
	}

	if v := os.Getenv("WORKER_MODE"); v != "" {
		if v != WorkerModeProcess && v != WorkerModeInproc {
			return fmt.Errorf("WORKER_MODE must be %q or %q, got %q", WorkerModeProcess, WorkerModeInproc, v)
		}
		AppConfig.WorkerMode = v
	}

	if v := os.Getenv("COLLECTOR_POLL_TIMEOUT_MS"); v != "" {
		value, err := strconv.Atoi(v)
		if err != nil || value <= 0 {
			return fmt.Errorf("COLLECTOR_POLL_TIMEOUT_MS not a positive number: %q", v)
		}
		AppConfig.CollectorPollTimeout = time.Duration(value) * time.Millisecond
	}

	if v := os.Getenv("WORKER_MAX_GET_FAILURES"); v != "" {
		value, err := strconv.Atoi(v)
		if err != nil || value <= 0 {
			return fmt.Errorf("WORKER_MAX_GET_FAILURES not a positive number: %q", v)
		}
		AppConfig.WorkerMaxGetFailures = value
	}

	if v := os.Getenv("SOCKET_DIR"); v != "" {
		AppConfig.SocketDir = v
	}

	AppConfig.LogFilePath = os.Getenv("LOG_FILE_PATH")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		AppConfig.LogLevel = v
	} else if AppConfig.LogFilePath == "" {
		// stderr общий с терминалом оператора, туда идут только предупреждения и ошибки
		AppConfig.LogLevel = "warn"
	}

	AppConfig.ResultsDBPath = os.Getenv("RESULTS_DB_PATH")
	AppConfig.APIPort = os.Getenv("API_PORT")
	AppConfig.JWTSecret = os.Getenv("JWT_SECRET")

	if v := os.Getenv("JWT_EXPIRATION_MINUTES"); v != "" {
		value, err := strconv.Atoi(v)
		if err != nil {
			log.Println("JWT_EXPIRATION_MINUTES not a number. Auto set to 60")
			value = 60
		}
		AppConfig.JWTExpirationMinutes = value
	}

	if v := os.Getenv("OPERATOR_LOGIN"); v != "" {
		AppConfig.OperatorLogin = v
	}
	AppConfig.OperatorPasswordHash = os.Getenv("OPERATOR_PASSWORD_HASH")

	if AppConfig.APIPort != "" && AppConfig.JWTSecret == "" {
		return fmt.Errorf("API_PORT is set but JWT_SECRET is empty")
	}

	return nil
}
