package auth

import (
	"errors"
	"fmt"
	"time"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims structure
type Claims struct {
	UserID     int64  `json:"sub"`
	Role       string `json:"role"`
	LocationID *int64 `json:"location_id,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the caller handed to ledger operations.
func (c *Claims) Principal() ledger.Principal {
	return ledger.Principal{UserID: c.UserID, Role: c.Role, LocationID: c.LocationID}
}

// HasRole checks if the user holds any of the required roles
func (c *Claims) HasRole(requiredRoles ...string) bool {
	for _, required := range requiredRoles {
		if c.Role == required {
			return true
		}
	}
	return false
}

// IsExpiringSoon reports whether the token expires within d. Expired tokens
// count as expiring soon.
func (c *Claims) IsExpiringSoon(d time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return time.Until(c.ExpiresAt.Time) <= d
}

// JWTManager handles JWT operations
type JWTManager struct {
	secret   string
	issuer   string
	audience string
	expiry   time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret, issuer, audience string, expiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		expiry:   expiry,
	}
}

const minSecretLength = 32

// ValidateConfig checks the manager settings before it is used.
func (j *JWTManager) ValidateConfig() error {
	switch {
	case j.secret == "":
		return errors.New("JWT secret is required")
	case len(j.secret) < minSecretLength:
		return fmt.Errorf("JWT secret must be at least %d characters", minSecretLength)
	case j.issuer == "":
		return errors.New("JWT issuer is required")
	case j.audience == "":
		return errors.New("JWT audience is required")
	case j.expiry <= 0:
		return errors.New("JWT expiry must be positive")
	}
	return nil
}

// GenerateToken creates a new JWT token for a user.
func (j *JWTManager) GenerateToken(userID int64, role string, locationID *int64) (string, error) {
	if userID <= 0 {
		return "", errors.New("user ID must be positive")
	}
	if !models.IsValidRole(role) {
		return "", fmt.Errorf("invalid role %q", role)
	}
	if role != models.RoleAdmin && locationID == nil {
		return "", fmt.Errorf("role %s requires a base", role)
	}

	now := time.Now()
	claims := &Claims{
		UserID:     userID,
		Role:       role,
		LocationID: locationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.issuer,
			Audience:  []string{j.audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secret))
}

// ValidateToken validates and parses a JWT token
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secret), nil
	}, jwt.WithIssuer(j.issuer), jwt.WithAudience(j.audience))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
