package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hg9336099029/survey-be/internal/models"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	Init("test-secret")

	user := models.User{ID: "user-1", Username: "alice"}
	token, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user id", claims.Subject)
	}
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	Init("test-secret")

	if _, err := ValidateJWT("not-a-token"); err == nil {
		t.Error("garbage token accepted")
	}
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	Init("test-secret")

	claims := &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ValidateJWT(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	Init("test-secret")
	user := models.User{ID: "user-1", Username: "alice"}
	token, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	Init("other-secret")
	defer Init("test-secret")
	if _, err := ValidateJWT(token); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}

func TestJWTMiddleware(t *testing.T) {
	Init("test-secret")

	var gotClaims *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := JWTMiddleware()(next)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}

	t.Run("valid token", func(t *testing.T) {
		token, err := GenerateJWT(models.User{ID: "user-1", Username: "alice"})
		if err != nil {
			t.Fatalf("GenerateJWT: %v", err)
		}
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if gotClaims == nil || gotClaims.UserID != "user-1" {
			t.Errorf("claims not passed through context: %+v", gotClaims)
		}
	})
}
