package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"peerprep/interview/internal/utils"
)

const claimsKey contextKey = "session_claims"

var (
	ErrMissingToken = errors.New("missing session token")
	ErrInvalidToken = errors.New("invalid session token")
)

// SessionClaims binds a token to one interview session.
type SessionClaims struct {
	SessionID     string `json:"sessionId"`
	CandidateName string `json:"candidateName,omitempty"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs an HS256 token for sessionID that expires after ttl.
func IssueSessionToken(secret, sessionID, candidate string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID:     sessionID,
		CandidateName: candidate,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseSessionToken(tokenString, secret string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// tokenFromRequest reads a bearer token, falling back to ?token= since
// browsers cannot set headers on a WebSocket handshake.
func tokenFromRequest(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// RequireSessionToken rejects requests without a valid session token. An empty
// secret turns authentication off.
func RequireSessionToken(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				utils.Error(w, http.StatusUnauthorized, "missing_token", ErrMissingToken.Error())
				return
			}
			claims, err := ParseSessionToken(raw, secret)
			if err != nil {
				utils.Error(w, http.StatusUnauthorized, "invalid_token", err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the verified claims, or nil when authentication is off.
func ClaimsFromContext(ctx context.Context) *SessionClaims {
	claims, _ := ctx.Value(claimsKey).(*SessionClaims)
	return claims
}
