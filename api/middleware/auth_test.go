package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	pkgauth "github.com/harborops/seaprocure-backend/pkg/auth"
	"github.com/harborops/seaprocure-backend/pkg/config"
	"github.com/harborops/seaprocure-backend/pkg/enums"
)

var testJWTConfig = config.JWTConfig{Secret: "test-secret", Issuer: "seaprocure-test"}

func mintToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, role enums.CrewRole, vesselID *uuid.UUID) string {
	t.Helper()
	claims := &pkgauth.AccessTokenClaims{
		UserID:   userID,
		Role:     role,
		VesselID: vesselID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthSeedsContext(t *testing.T) {
	userID := uuid.New()
	vesselID := uuid.New()
	token := mintToken(t, testJWTConfig, userID, enums.CrewRoleChiefEngineer, &vesselID)

	var gotUser uuid.UUID
	var gotRole enums.CrewRole
	var gotVessel uuid.UUID
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		gotVessel, _ = VesselIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requisitions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	Auth(testJWTConfig, nil)(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if gotUser != userID {
		t.Fatalf("user id not seeded")
	}
	if gotRole != enums.CrewRoleChiefEngineer {
		t.Fatalf("role not seeded, got %q", gotRole)
	}
	if gotVessel != vesselID {
		t.Fatalf("vessel id not seeded")
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requisitions", nil)
	resp := httptest.NewRecorder()
	Auth(testJWTConfig, nil)(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	token := mintToken(t, config.JWTConfig{Secret: "other-secret", Issuer: testJWTConfig.Issuer}, uuid.New(), enums.CrewRoleCaptain, nil)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requisitions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	Auth(testJWTConfig, nil)(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequireRoleGate(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	gate := RequireRole(nil, enums.CrewRoleFleetManager, enums.CrewRoleProcurementOfficer)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendors", nil)
	req = req.WithContext(WithRole(req.Context(), enums.CrewRoleProcurementOfficer))
	resp := httptest.NewRecorder()
	gate(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}

	denied := httptest.NewRequest(http.MethodPost, "/api/v1/vendors", nil)
	denied = denied.WithContext(WithRole(denied.Context(), enums.CrewRoleCrew))
	resp = httptest.NewRecorder()
	gate(handler).ServeHTTP(resp, denied)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
