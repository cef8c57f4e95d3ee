package server

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"newsline/internal/model"
)

const userContextKey = "user"

// requireAuth validates the bearer JWT and loads the authenticated user into
// the request context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.jwtSecret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		user, err := s.users.ByUsername(c.Request().Context(), claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

func currentUser(c echo.Context) model.User {
	user, _ := c.Get(userContextKey).(model.User)
	return user
}
