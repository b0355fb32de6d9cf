package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	werrors "github.com/Vasu1712/sceneitem-widget/internal/errors"
	"github.com/Vasu1712/sceneitem-widget/internal/logging"
)

// Issuer is the iss claim of host tokens.
const Issuer = "sceneitem-widget"

type contextKey string

const subjectKey contextKey = "subject"

// IssueToken signs an HS256 host token for subject.
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", werrors.ConfigInvalid("jwt secret is empty")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a host token and returns its claims.
func ParseToken(secret, token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, werrors.Unauthorized(err.Error())
	}
	if !claims.VerifyIssuer(Issuer, true) {
		return nil, werrors.Unauthorized("unexpected token issuer")
	}
	return claims, nil
}

// RequireToken rejects requests without a valid bearer token. With an empty
// secret every request is let through.
func RequireToken(secret string) func(http.Handler) http.Handler {
	logger := logging.NewLogger("auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "Missing bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := ParseToken(secret, token)
			if err != nil {
				logger.WithError(err).WithField("path", r.URL.Path).Warn("Rejected request")
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey, claims.Subject)))
		})
	}
}

// Subject returns the authenticated token subject, if any.
func Subject(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey).(string)
	return subject
}
