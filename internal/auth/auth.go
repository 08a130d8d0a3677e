package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"task-dispatcher/internal/config"
)

var (
	ErrInvalidToken       = errors.New("недействительный токен")
	ErrExpiredToken       = errors.New("истекший токен")
	ErrMissingAuthHeader  = errors.New("отсутствует заголовок Authorization")
	ErrInvalidAuthHeader  = errors.New("недействительный формат заголовка Authorization")
	ErrInvalidCredentials = errors.New("неверный логин или пароль")
	ErrLoginDisabled      = errors.New("пароль оператора не задан")
)

// Claims представляет собой утверждения JWT
type Claims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

// HashPassword хеширует пароль для OPERATOR_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckCredentials сверяет логин и пароль с настройками оператора
func CheckCredentials(login, password string) error {
	if config.AppConfig.OperatorPasswordHash == "" {
		return ErrLoginDisabled
	}
	if login != config.AppConfig.OperatorLogin {
		return ErrInvalidCredentials
	}
	err := bcrypt.CompareHashAndPassword([]byte(config.AppConfig.OperatorPasswordHash), []byte(password))
	if err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken создает JWT токен для оператора
func GenerateToken(login string) (string, error) {
	// Время истечения токена из конфигурации
	expirationTime := time.Now().Add(time.Duration(config.AppConfig.JWTExpirationMinutes) * time.Minute)

	claims := &Claims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   login,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken проверяет токен и возвращает утверждения, если токен действителен
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	// Извлекаем утверждения
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractTokenFromHeader извлекает токен из заголовка Authorization
func ExtractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidAuthHeader
	}

	return parts[1], nil
}
