package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sennacar/sennacar/internal/models"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3nh4-f0rte")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3nh4-f0rte" {
		t.Fatal("hash must not equal plaintext")
	}
	if !CheckPassword(hash, "s3nh4-f0rte") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "errada") {
		t.Error("expected wrong password to fail")
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	svc, err := NewService(WithSecret("test-secret"))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	emp := models.Employee{ID: "emp-1", Name: "Maria", IsAdmin: true}

	token, err := svc.IssueToken(emp)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	claims, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if claims.Subject != "emp-1" || claims.Name != "Maria" || !claims.IsAdmin {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc, err := NewService(WithSecret("test-secret"), WithTokenTTL(-time.Minute))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	token, err := svc.IssueToken(models.Employee{ID: "emp-1"})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := svc.VerifyToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewService(WithSecret("secret-a"))
	verifier, _ := NewService(WithSecret("secret-b"))
	token, err := issuer.IssueToken(models.Employee{ID: "emp-1"})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := verifier.VerifyToken(token); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
}

func TestMiddleware(t *testing.T) {
	svc, _ := NewService(WithSecret("test-secret"))
	var gotClaims *Claims
	handler := svc.Middleware(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// No token.
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/clientes", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	// Valid token.
	token, _ := svc.IssueToken(models.Employee{ID: "emp-1", Name: "Maria"})
	req := httptest.NewRequest(http.MethodGet, "/clientes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rec.Code)
	}
	if gotClaims == nil || gotClaims.Subject != "emp-1" {
		t.Errorf("expected claims in context, got %+v", gotClaims)
	}
}

func TestAdminOnly(t *testing.T) {
	svc, _ := NewService(WithSecret("test-secret"))
	handler := svc.AdminOnly(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	regular, _ := svc.IssueToken(models.Employee{ID: "emp-1"})
	req := httptest.NewRequest(http.MethodGet, "/funcionarios", nil)
	req.Header.Set("Authorization", "Bearer "+regular)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", rec.Code)
	}

	admin, _ := svc.IssueToken(models.Employee{ID: "emp-2", IsAdmin: true})
	req = httptest.NewRequest(http.MethodGet, "/funcionarios", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", rec.Code)
	}
}
