package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// PrincipalKey is the context key for the ledger caller
	PrincipalKey contextKey = "principal"
)

// ErrorResponse mirrors the API error envelope.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ClaimsFromContext extracts the JWT claims from the request context
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*Claims); ok {
		return claims
	}
	return nil
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (ledger.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(ledger.Principal)
	return p, ok
}

// WithPrincipal stores the caller in ctx.
func WithPrincipal(ctx context.Context, p ledger.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// Public paths that don't require authentication
var publicPaths = map[string]bool{
	"/health":     true,
	"/dbping":     true,
	"/metrics":    true,
	"/auth/login": true,
}

func isPublicPath(path string) bool {
	return publicPaths[path]
}

func sendErrorResponse(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := ErrorResponse{
		Status:  "error",
		Message: message,
		Code:    code,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// sendTokenExpirationWarning adds headers when the token expires within the hour
func sendTokenExpirationWarning(w http.ResponseWriter, expiresAt time.Time) {
	timeUntilExpiry := time.Until(expiresAt)
	if timeUntilExpiry <= time.Hour && timeUntilExpiry > 0 {
		w.Header().Set("X-Token-Expires-At", expiresAt.Format(time.RFC3339))
		w.Header().Set("X-Token-Expires-In", timeUntilExpiry.Round(time.Second).String())
	}
}

func validateTokenFormat(tokenString string) error {
	if len(tokenString) == 0 {
		return errors.New("token cannot be empty")
	}
	if len(tokenString) > 8192 { // 8KB limit
		return errors.New("token size exceeds maximum allowed")
	}
	if len(strings.Split(tokenString, ".")) != 3 {
		return errors.New("invalid JWT token format")
	}
	return nil
}

// AuthMiddleware validates bearer tokens and stores the caller in the request
// context.
func AuthMiddleware(jwtManager *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				sendErrorResponse(w, "You are not logged in. Please log in to get access.", "MISSING_AUTH_HEADER", http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				sendErrorResponse(w, "Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if err := validateTokenFormat(tokenString); err != nil {
				sendErrorResponse(w, "Invalid token format: "+err.Error(), "INVALID_TOKEN_FORMAT", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.ValidateToken(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					sendErrorResponse(w, "Your token has expired. Please log in again.", "TOKEN_EXPIRED", http.StatusUnauthorized)
				case errors.Is(err, jwt.ErrTokenMalformed):
					sendErrorResponse(w, "Token is malformed", "MALFORMED_TOKEN", http.StatusUnauthorized)
				default:
					sendErrorResponse(w, "Invalid token. Please log in again.", "INVALID_TOKEN", http.StatusUnauthorized)
				}
				return
			}

			if claims.UserID <= 0 {
				sendErrorResponse(w, "Invalid user ID in token", "INVALID_USER_ID", http.StatusUnauthorized)
				return
			}
			if !models.IsValidRole(claims.Role) {
				sendErrorResponse(w, "Invalid role in token", "INVALID_ROLE", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			ctx = WithPrincipal(ctx, claims.Principal())

			if claims.ExpiresAt != nil {
				sendTokenExpirationWarning(w, claims.ExpiresAt.Time)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MustRole rejects callers whose role is not listed.
func MustRole(requiredRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				sendErrorResponse(w, "You are not logged in. Please log in to get access.", "AUTHENTICATION_REQUIRED", http.StatusUnauthorized)
				return
			}
			if len(requiredRoles) == 0 {
				sendErrorResponse(w, "No roles specified for this endpoint", "NO_ROLES_SPECIFIED", http.StatusInternalServerError)
				return
			}
			for _, role := range requiredRoles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			sendErrorResponse(w, "You do not have permission to perform this action", "INSUFFICIENT_PERMISSIONS", http.StatusForbidden)
		})
	}
}
