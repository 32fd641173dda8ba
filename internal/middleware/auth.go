package middleware

import (
	"context"
	"net/http"
	"strings"

	"giftaihub/internal/auth"
	"giftaihub/internal/config"

	"github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

// AdminChecker answers the role lookup behind admin routes.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// AuthRequired validates the bearer token and stores the user id on the context.
func AuthRequired(cfg *config.Admin) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := auth.ParseToken(cfg, parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(userIDKey, claims.UserID)
			return next(c)
		}
	}
}

// RequireAdmin must run after AuthRequired.
func RequireAdmin(checker AdminChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := GetUserID(c)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			ok, err := checker.IsAdmin(c.Request().Context(), userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
			}
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

func GetUserID(c echo.Context) string {
	v, _ := c.Get(userIDKey).(string)
	return v
}
