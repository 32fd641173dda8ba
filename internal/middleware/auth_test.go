package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"giftaihub/internal/auth"
	"giftaihub/internal/config"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	admins map[string]bool
	err    error
}

func (s stubChecker) IsAdmin(_ context.Context, userID string) (bool, error) {
	return s.admins[userID], s.err
}

func newAdminEcho(cfg *config.Admin, checker AdminChecker) *echo.Echo {
	e := echo.New()
	g := e.Group("/admin", AuthRequired(cfg), RequireAdmin(checker))
	g.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, GetUserID(c))
	})
	return e
}

func get(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutes(t *testing.T) {
	cfg := &config.Admin{JWTSecret: "s3cret", Issuer: "giftaihub", TokenTTL: time.Hour}
	e := newAdminEcho(cfg, stubChecker{admins: map[string]bool{"root": true}})

	rootToken, err := auth.IssueToken(cfg, "root")
	require.NoError(t, err)
	userToken, err := auth.IssueToken(cfg, "someone")
	require.NoError(t, err)

	rec := get(e, rootToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "root", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, get(e, userToken).Code)
	assert.Equal(t, http.StatusUnauthorized, get(e, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(e, "garbage").Code)
}

func TestAdminLookupFailure(t *testing.T) {
	cfg := &config.Admin{JWTSecret: "s3cret", Issuer: "giftaihub", TokenTTL: time.Hour}
	e := newAdminEcho(cfg, stubChecker{err: errors.New("db down")})

	token, err := auth.IssueToken(cfg, "root")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, get(e, token).Code)
}
