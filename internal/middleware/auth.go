package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserIDKey contextKey = "user_id"

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

type JWTAuth struct {
	Secret []byte
}

func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{Secret: []byte(secret)}
}

// GenerateAccessToken creates a JWT for userID valid for ttl
func (j *JWTAuth) GenerateAccessToken(userID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// ParseToken verifies an HS256 token and returns its user_id claim.
func (j *JWTAuth) ParseToken(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", ErrMissingToken
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.Secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// Middleware validates the bearer token and attaches user_id to context
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeUnauthenticated(w, r)
			return
		}

		// Must be Bearer format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeUnauthenticated(w, r)
			return
		}

		userID, err := j.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "Token has expired", r)
			} else {
				writeUnauthenticated(w, r)
			}
			return
		}

		ctx := WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithUserID returns a copy of ctx carrying the authenticated identity.
func WithUserID(ctx context.Context, userID string) context.Context {
	if h, ok := ctx.Value(userHolderKey).(*userHolder); ok {
		h.userID = userID
	}
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts user_id from request context; "" when unauthenticated.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func writeUnauthenticated(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusUnauthorized, "User not authenticated", r)
}

func writeError(w http.ResponseWriter, status int, message string, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    false,
		"message":    message,
		"request_id": r.Header.Get(RequestIDHeader),
	})
}
