package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"secondlife/internal/infrastructure/firebase"
	"secondlife/pkg/errors"
	"secondlife/pkg/response"
)

// TokenVerifier checks a Firebase ID token. *firebase.FirebaseAuthClient
// satisfies it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*firebase.Identity, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's uid, email and name on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		identity, err := m.verifier.VerifyToken(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set("uid", identity.UID)
		c.Set("email", identity.Email)
		c.Set("name", identity.Name)
		return next(c)
	}
}

// GetUIDFromToken verifies a raw token, for transports that cannot send
// headers (browser websockets pass it as a query parameter).
func (m *AuthMiddleware) GetUIDFromToken(ctx context.Context, token string) (string, error) {
	identity, err := m.verifier.VerifyToken(ctx, token)
	if err != nil {
		return "", err
	}
	return identity.UID, nil
}
