package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const (
	tokenContextKey = "userToken"
	audience        = "Students"
)

// Claims represents the session transmitted via a JWT. A visitor without a token is logged out.
type Claims struct {
	jwt.StandardClaims
	Email string            `json:"email"`
	Name  string            `json:"name,omitempty"`
	Role  string            `json:"role,omitempty"`
	State user.SessionState `json:"state"`
	Known bool              `json:"known,omitempty"` // pending_signup only: an inactive user row exists
}

// Authenticator issues and verifies session tokens.
type Authenticator struct {
	issuer      string
	key         []byte
	expDelta    time.Duration
	signupDelta time.Duration
	nowFunc     func() time.Time
}

func NewAuthenticator(conf *core.Config) *Authenticator {
	return &Authenticator{
		issuer:      conf.AppName,
		key:         []byte(conf.SecretKey),
		expDelta:    conf.Server.JWTExpirationDelta,
		signupDelta: conf.Server.SignupTokenDelta,
		nowFunc:     time.Now,
	}
}

// JWTMiddleware rejects requests without a valid session token.
func (a *Authenticator) JWTMiddleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    a.key,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	})
}

// SessionClaims builds the claims of the state `res` leads to.
// Pending signup sessions are short-lived.
func (a *Authenticator) SessionClaims(res user.LoginResult) *Claims {
	now := a.nowFunc()
	delta := a.expDelta
	if res.State != user.StateLoggedIn {
		delta = a.signupDelta
	}

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    a.issuer,
			Subject:   res.Email,
			Audience:  audience,
			ExpiresAt: now.Add(delta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: res.Email,
		Name:  res.Name,
		State: res.State,
		Known: res.Known,
	}
	if res.State == user.StateLoggedIn {
		claims.Role = res.User.Role
		claims.Known = false
	}
	return claims
}

// GenerateToken generates a signed JWT token string representing the Claims.
func (a *Authenticator) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString(a.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextUser is the user described by the session claims. It is not re-read from the store.
func contextUser(claims Claims) user.User {
	return user.User{Email: claims.Email, Name: claims.Name, Role: claims.Role, IsActive: claims.State == user.StateLoggedIn}
}
