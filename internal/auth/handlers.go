package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"task-dispatcher/internal/logger"
)

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse представляет ответ на запрос аутентификации
type AuthResponse struct {
	Token string `json:"token"`
}

// Login обрабатывает запрос на вход оператора (POST /api/v1/login)
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Ошибка при разборе JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Проверяем учетные данные
	if err := CheckCredentials(req.Login, req.Password); err != nil {
		if errors.Is(err, ErrLoginDisabled) {
			logger.ERROR.Println("API: login attempt while OPERATOR_PASSWORD_HASH is empty")
		}
		http.Error(w, "Неверный логин или пароль", http.StatusUnauthorized)
		return
	}

	// Генерируем токен
	token, err := GenerateToken(req.Login)
	if err != nil {
		http.Error(w, "Ошибка при создании токена: "+err.Error(), http.StatusInternalServerError)
		return
	}

	logger.INFO.Printf("API: operator %s logged in", req.Login)

	// Устанавливаем заголовок Content-Type и статус 200 OK
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(AuthResponse{Token: token})
}
