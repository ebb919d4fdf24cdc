package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

func newAuthRouter(claims *models.JWTClaims, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/students/:id/schedule", JWT(validatorStub{claims: claims}), RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func serve(router *gin.Engine, path, authorization string) int {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(recorder, req)
	return recorder.Code
}

func TestJWTRejectsMissingOrMalformedHeader(t *testing.T) {
	router := newAuthRouter(&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, string(models.RoleAdmin))

	cases := map[string]string{
		"missing":   "",
		"no bearer": "Token good",
		"empty":     "Bearer  ",
		"invalid":   "Bearer bad",
	}
	for name, header := range cases {
		if code := serve(router, "/students/s-1/schedule", header); code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, code)
		}
	}
	if code := serve(router, "/students/s-1/schedule", "bearer good"); code != http.StatusNoContent {
		t.Fatalf("expected 204 for a valid token, got %d", code)
	}
}

func TestRBACSelfRule(t *testing.T) {
	student := &models.JWTClaims{UserID: "s-1", Role: models.RoleStudent}
	router := newAuthRouter(student, string(models.RoleAdmin), RuleSelf)

	if code := serve(router, "/students/s-1/schedule", "Bearer good"); code != http.StatusNoContent {
		t.Fatalf("expected student to read own schedule, got %d", code)
	}
	if code := serve(router, "/students/s-2/schedule", "Bearer good"); code != http.StatusForbidden {
		t.Fatalf("expected 403 for another student, got %d", code)
	}
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", JWT(validatorStub{claims: &models.JWTClaims{UserID: "f-1", Role: models.RoleFaculty}}), RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	if code := serve(router, "/admin", "Bearer good"); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}

	unauthenticated := gin.New()
	unauthenticated.GET("/admin", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	if code := serve(unauthenticated, "/admin", ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", code)
	}
}

func TestCanActFor(t *testing.T) {
	student := &models.JWTClaims{UserID: "s-1", Role: models.RoleStudent}
	if !CanActFor(student, "s-1") {
		t.Fatalf("student should act for self")
	}
	if CanActFor(student, "s-2") || CanActFor(student, "") {
		t.Fatalf("student must not act for others")
	}
	if !CanActFor(&models.JWTClaims{UserID: "a-1", Role: models.RoleAdmin}, "s-2") {
		t.Fatalf("admin should act for any student")
	}
	if CanActFor(nil, "s-1") {
		t.Fatalf("missing claims must be rejected")
	}
}
