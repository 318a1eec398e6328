package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"driza/globals"
	"driza/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	called := false
	h := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/api/listings/products", strings.NewReader(`{"title":"x"}`)), nil)
	if called {
		t.Fatal("handler reached without a token")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthenticateRejectsUpgradeHeadersWithoutToken(t *testing.T) {
	called := false
	h := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
	})

	// upgrade headers must not open a side door past token validation
	req := httptest.NewRequest(http.MethodPost, "/api/listings/products", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")

	w := httptest.NewRecorder()
	h(w, req, nil)
	if called {
		t.Fatal("handler reached with upgrade headers and no token")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthenticateAttachesSession(t *testing.T) {
	token := signToken(t, &Claims{
		Email:  "ana@udesa.edu.ar",
		UserID: "u1",
		Role:   []string{"user", "moderator"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	var got models.Session
	h := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		got = SessionFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h(w, req, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got.UID != "u1" || got.Email != "ana@udesa.edu.ar" || len(got.Roles) != 2 {
		t.Errorf("session = %+v", got)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	token := signToken(t, &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	h := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler reached with expired token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h(w, req, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
