package echoapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
)

const signupClaimPrefix = "signup:"

type userApi struct {
	svc     user.ServiceInterface
	quizSvc quiz.ServiceInterface
	claims  quiz.SubmissionStore
	auth    *Authenticator
	conf    *core.Config
	logger  core.Logger
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *Authenticator, deps ServerDeps) {
	api := userApi{
		svc:     deps.UserSvc,
		quizSvc: deps.QuizSvc,
		claims:  deps.Claims,
		auth:    auth,
		conf:    deps.Conf,
		logger:  deps.Logger,
	}

	// un-authed endpoints
	g.POST("/login", api.login)

	// authed endpoints
	g.POST("/signup", api.signup, jwt, stateMiddleware(user.StatePendingSignup))
	g.GET("/me", api.me, jwt, stateMiddleware(user.StateLoggedIn))
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data user.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	res, err := api.svc.Login(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}

	token, err := api.auth.GenerateToken(api.auth.SessionClaims(res))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{
		Token: token,
		State: res.State,
		Email: res.Email,
		Name:  res.Name,
		Known: res.Known,
	})
}

// signup sends one access request per pending session.
func (api *userApi) signup(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data SignupData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignupData")
	}
	req := user.SignupRequest{
		Name:    data.Name,
		Email:   claims.Email,
		Group:   data.Group,
		Comment: data.Comment,
		Known:   claims.Known,
	}
	if core.CleanString(req.Name) == "" {
		req.Name = claims.Name
	}

	rctx := ctx.Request().Context()
	key := signupClaimPrefix + claims.Id
	ok, err := api.claims.Claim(rctx, key, api.conf.Server.SignupTokenDelta)
	if err != nil {
		return errors.Wrap(err, "claiming signup token")
	}
	if !ok {
		return errSignupAlreadySent
	}

	if _, err = api.svc.RequestSignup(rctx, req); err != nil {
		if rerr := api.claims.Release(context.Background(), key); rerr != nil {
			api.logger.Error(fmt.Sprintf("releasing %s: %v", key, rerr), rerr)
		}
		return errors.Wrap(err, "requesting signup")
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{
		Success: "Your request has been sent. An administrator will activate your account.",
	})
}

func (api *userApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rctx := ctx.Request().Context()
	usr, err := api.svc.GetByEmail(rctx, claims.Email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errAccountDeactivated
		}
		return errors.Wrap(err, "finding user by email")
	}
	if !usr.IsActive {
		return errAccountDeactivated
	}

	n, err := api.quizSvc.CountResults(rctx, usr.Email)
	if err != nil {
		return errors.Wrap(err, "counting results")
	}

	name := claims.Name
	if name == "" {
		name = usr.DisplayName()
	}
	return ctx.JSON(http.StatusOK, MeResponse{Email: usr.Email, Name: name, Role: usr.Role, TestsPassed: n})
}
