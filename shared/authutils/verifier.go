package authutils

import (
	"errors"
	"fmt"

	"chat-server/shared/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// JWTVerifier checks HS256 bearer tokens signed with a shared secret.
type JWTVerifier struct {
	jwtSecret []byte
	parser    *jwt.Parser
	logger    *zap.Logger
}

// NewJWTVerifier creates a verifier. A nil logger is replaced with a no-op one.
func NewJWTVerifier(jwtSecret string, logger *zap.Logger) (*JWTVerifier, error) {
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTVerifier{
		jwtSecret: []byte(jwtSecret),
		parser:    jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		logger:    logger.Named("JWTVerifier"),
	}, nil
}

// VerifyToken validates signature and expiry and returns the claims.
// Errors are models.ErrTokenExpired, models.ErrTokenMalformed or wrap
// models.ErrTokenInvalid.
func (v *JWTVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	log := v.logger.With(zap.String("tokenSnippet", tokenSnippet(tokenString)))
	claims := &models.Claims{}

	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.jwtSecret, nil
	})
	if err != nil {
		log.Warn("Failed to parse or verify token", zap.Error(err))
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, models.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, models.ErrTokenMalformed
		default:
			return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
		}
	}
	if !token.Valid {
		return nil, models.ErrTokenInvalid
	}

	log.Debug("Token verified", zap.String("subject", claims.Subject))
	return claims, nil
}

// tokenSnippet returns a prefix of the token that is safe to log.
func tokenSnippet(tokenString string) string {
	limit := 15
	if len(tokenString) > limit {
		return tokenString[:limit] + "..."
	}
	return tokenString
}
