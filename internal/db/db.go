package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

var (
	DB      *sql.DB
	DbMutex sync.Mutex
)

//go:embed schema.sql
var schema string

// InitDB инициализирует соединение с базой данных SQLite
func InitDB(dbPath string) error {
	if dbPath != ":memory:" {
		// Проверка, что директория для базы данных существует
		dbDir := filepath.Dir(dbPath)
		if _, err := os.Stat(dbDir); os.IsNotExist(err) {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// :memory: живет только в рамках одного соединения
	conn.SetMaxOpenConns(1)

	if err = conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DbMutex.Lock()
	DB = conn
	DbMutex.Unlock()

	if err = applySchema(); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	return nil
}

func CloseDB() error {
	DbMutex.Lock()
	defer DbMutex.Unlock()
	if DB != nil {
		err := DB.Close()
		DB = nil
		return err
	}
	return nil
}

// applySchema выполняет встроенный schema.sql
func applySchema() error {
	DbMutex.Lock()
	defer DbMutex.Unlock()

	if _, err := DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}
