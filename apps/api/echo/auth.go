package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core"
)

const (
	contextTokenKey = "userToken"

	// role prefixes allowed to edit lesson content
	roleTeacher = "teacher:"
	roleAdmin   = "admin:"
)

func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are issued by the accounts service; this API only verifies them.
type Claims struct {
	jwt.StandardClaims
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Actor returns the authenticated user described by the claims.
func (c Claims) Actor() core.Actor {
	return core.Actor{ID: c.Subject, Username: c.Username, Email: c.Email, Roles: c.Roles}
}

// GenerateToken signs claims for actor with secretKey, the way the accounts service does.
func GenerateToken(secretKey, issuer string, actor core.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Subject:   actor.ID,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: actor.Username,
		Email:    actor.Email,
		Roles:    actor.Roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextActor(ctx echo.Context) core.Actor {
	claims, _ := getContextClaims(ctx)
	return claims.Actor()
}
