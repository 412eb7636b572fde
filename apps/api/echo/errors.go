package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/sheets"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errWrongState           = echo.NewHTTPError(http.StatusForbidden, "not allowed in the current session state")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errSignupAlreadySent    = echo.NewHTTPError(http.StatusConflict, "signup request already sent")
	errStoreUnavailable     = echo.NewHTTPError(http.StatusServiceUnavailable, "record store unavailable, try again later")
	errStoreFailed          = echo.NewHTTPError(http.StatusBadGateway, "record store error")
	errSubmissionDuplicated = echo.NewHTTPError(http.StatusConflict, quiz.ErrDuplicateSubmission.Error())
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.ShutdownError is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		mapped := toHTTPError(err)
		if mapped == errStoreUnavailable || mapped == errStoreFailed {
			logger.Error("record store error", err)
		}

		switch origErr := mapped.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if fldErrs := origErr.FieldMap(); fldErrs != nil {
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var args []interface{}
			args = append(args, errors.Wrap(err, msg))
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				args = append(args, contextUser(claims))
			}
			logger.Error(msg, args...)
		}

		// shutting down...
		if core.IsShutdown(err) {
			logger.Error("shutting down", err)
			signalShutdown()
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// toHTTPError maps domain and record store errors to their HTTP counterpart.
// Anything it does not know is returned unwrapped.
func toHTTPError(err error) error {
	cause := errors.Cause(err)
	switch cause {
	case user.ErrNotFound, quiz.ErrUnknownSubject, quiz.ErrNoQuestions:
		return echo.NewHTTPError(http.StatusNotFound, cause.Error())
	case quiz.ErrDuplicateSubmission:
		return errSubmissionDuplicated
	case quiz.ErrAlreadySubmitted:
		return echo.NewHTTPError(http.StatusConflict, cause.Error())
	}
	switch {
	case sheets.IsTransient(err):
		return errStoreUnavailable
	case sheets.IsPermanent(err), sheets.IsNotFound(err):
		return errStoreFailed
	}
	return cause
}
