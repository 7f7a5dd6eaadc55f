// Package auth implements JWT verification and the Gin middleware that
// attaches the authenticated user to the request.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"storyfairy-server/internal/model"
)

// Claims are the JWT claims this service requires. UserID comes from the
// standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// JWTVerifier validates HS256-signed tokens.
type JWTVerifier struct {
	secret []byte
	logger *zap.Logger
}

// NewJWTVerifier creates a verifier with the shared signing secret.
func NewJWTVerifier(secret string, logger *zap.Logger) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTVerifier{
		secret: []byte(secret),
		logger: logger.Named("JWTVerifier"),
	}, nil
}

// VerifyToken checks the token signature and validity and extracts claims.
func (v *JWTVerifier) VerifyToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := v.logger.With(zap.String("tokenSnippet", tokenSnippet(tokenString)))
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.Warn("Unexpected signing method", zap.Any("alg", token.Header["alg"]))
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})

	if err != nil {
		log.Warn("Failed to parse or verify token", zap.Error(err))
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, model.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, model.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, model.ErrTokenInvalid
		default:
			return nil, fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
		}
	}

	if !token.Valid {
		log.Warn("Token is invalid despite no parsing error")
		return nil, model.ErrTokenInvalid
	}
	if claims.Subject == "" {
		log.Warn("Token missing subject claim")
		return nil, fmt.Errorf("%w: subject missing", model.ErrTokenInvalid)
	}

	log.Debug("Token verified successfully", zap.String("userID", claims.UserID()))
	return claims, nil
}

func tokenSnippet(tokenString string) string {
	limit := 15
	if len(tokenString) > limit {
		return tokenString[:limit] + "..."
	}
	return tokenString
}
