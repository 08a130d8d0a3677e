package auth_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"task-dispatcher/internal/auth"
	"task-dispatcher/internal/config"
	"task-dispatcher/internal/logger"
)

const (
	testLogin    = "operator"
	testPassword = "testpassword"
)

func setupTest(t *testing.T) {
	t.Helper()
	logger.Discard()

	// Инициализируем конфигурацию
	config.AppConfig = config.Default()
	config.AppConfig.JWTSecret = "test-secret-key"
	config.AppConfig.JWTExpirationMinutes = 60
	config.AppConfig.OperatorLogin = testLogin

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	config.AppConfig.OperatorPasswordHash = string(hash)
}

// TestGenerateToken проверяет создание JWT токена
func TestGenerateToken(t *testing.T) {
	setupTest(t)

	token, err := auth.GenerateToken(testLogin)
	if err != nil {
		t.Errorf("GenerateToken() error = %v", err)
		return
	}

	if token == "" {
		t.Errorf("GenerateToken() returned empty token")
		return
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Errorf("ValidateToken() error = %v", err)
		return
	}

	if claims.Login != testLogin {
		t.Errorf("Generated token contains wrong login. got = %v, want = %v", claims.Login, testLogin)
	}
}

// TestValidateToken проверяет валидацию JWT токена
func TestValidateToken(t *testing.T) {
	setupTest(t)

	signed := func(secret string, expiresAt time.Time) string {
		claims := &auth.Claims{
			Login: testLogin,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(expiresAt),
				IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, _ := token.SignedString([]byte(secret))
		return tokenString
	}

	tests := []struct {
		name        string
		tokenFunc   func() string
		wantErr     bool
		expectedErr error
	}{
		{
			name: "Valid token",
			tokenFunc: func() string {
				token, _ := auth.GenerateToken(testLogin)
				return token
			},
			wantErr: false,
		},
		{
			name: "Expired token",
			tokenFunc: func() string {
				return signed(config.AppConfig.JWTSecret, time.Now().Add(-time.Minute))
			},
			wantErr:     true,
			expectedErr: auth.ErrExpiredToken,
		},
		{
			name: "Invalid token signature",
			tokenFunc: func() string {
				return signed("wrong-secret", time.Now().Add(time.Hour))
			},
			wantErr:     true,
			expectedErr: auth.ErrInvalidToken,
		},
		{
			name: "Malformed token",
			tokenFunc: func() string {
				return "malformed.token.string"
			},
			wantErr:     true,
			expectedErr: auth.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := auth.ValidateToken(tt.tokenFunc())

			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateToken() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				if err != tt.expectedErr {
					t.Errorf("ValidateToken() expected error = %v, got = %v", tt.expectedErr, err)
				}
				return
			}

			if claims.Login != testLogin {
				t.Errorf("ValidateToken() claims have wrong login. got = %v, want = %v", claims.Login, testLogin)
			}
		})
	}
}

// TestCheckCredentials проверяет сверку логина и пароля оператора
func TestCheckCredentials(t *testing.T) {
	setupTest(t)

	tests := []struct {
		name        string
		login       string
		password    string
		expectedErr error
	}{
		{name: "Valid credentials", login: testLogin, password: testPassword},
		{name: "Wrong password", login: testLogin, password: "nope", expectedErr: auth.ErrInvalidCredentials},
		{name: "Wrong login", login: "admin", password: testPassword, expectedErr: auth.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := auth.CheckCredentials(tt.login, tt.password); err != tt.expectedErr {
				t.Errorf("CheckCredentials() error = %v, want %v", err, tt.expectedErr)
			}
		})
	}

	t.Run("No password hash configured", func(t *testing.T) {
		config.AppConfig.OperatorPasswordHash = ""
		if err := auth.CheckCredentials(testLogin, testPassword); err != auth.ErrLoginDisabled {
			t.Errorf("CheckCredentials() error = %v, want %v", err, auth.ErrLoginDisabled)
		}
	})
}

// TestHashPassword проверяет, что хеш подходит для CheckCredentials
func TestHashPassword(t *testing.T) {
	setupTest(t)

	hash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	config.AppConfig.OperatorPasswordHash = hash

	if err := auth.CheckCredentials(testLogin, "s3cret"); err != nil {
		t.Errorf("CheckCredentials() with fresh hash error = %v", err)
	}
}

// TestExtractTokenFromHeader проверяет извлечение токена из заголовка
func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		name            string
		authHeaderValue string
		wantToken       string
		wantErr         bool
		expectedErr     error
	}{
		{
			name:            "Valid Bearer token",
			authHeaderValue: "Bearer valid-token-123",
			wantToken:       "valid-token-123",
			wantErr:         false,
		},
		{
			name:            "Missing Authorization header",
			authHeaderValue: "",
			wantErr:         true,
			expectedErr:     auth.ErrMissingAuthHeader,
		},
		{
			name:            "Invalid format - no Bearer",
			authHeaderValue: "token-123",
			wantErr:         true,
			expectedErr:     auth.ErrInvalidAuthHeader,
		},
		{
			name:            "Invalid format - wrong prefix",
			authHeaderValue: "Basic token-123",
			wantErr:         true,
			expectedErr:     auth.ErrInvalidAuthHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "/", nil)
			if tt.authHeaderValue != "" {
				req.Header.Set("Authorization", tt.authHeaderValue)
			}

			token, err := auth.ExtractTokenFromHeader(req)

			if (err != nil) != tt.wantErr {
				t.Errorf("ExtractTokenFromHeader() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				if err != tt.expectedErr {
					t.Errorf("ExtractTokenFromHeader() expected error = %v, got = %v", tt.expectedErr, err)
				}
				return
			}

			if token != tt.wantToken {
				t.Errorf("ExtractTokenFromHeader() = %v, want %v", token, tt.wantToken)
			}
		})
	}
}
