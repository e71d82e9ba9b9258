package echoapi

import (
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core"
	"github.com/trezcool/masomo-lessons/core/activity"
	"github.com/trezcool/masomo-lessons/core/lessonplan"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// sentinelStatus maps domain errors to their response status.
var sentinelStatus = []struct {
	err  error
	code int
}{
	{activity.ErrNotFound, http.StatusNotFound},
	{lessonplan.ErrNotFound, http.StatusNotFound},
	{activity.ErrUnknownType, http.StatusBadRequest},
	{activity.ErrTypeMismatch, http.StatusBadRequest},
	{activity.ErrMinimumItems, http.StatusBadRequest},
	{activity.ErrOutOfRange, http.StatusBadRequest},
	{activity.ErrPolicyRequired, http.StatusConflict},
	{core.ErrLocked, http.StatusConflict},
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.ShutdownError is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, message := httpError(err, translator)
		if code == http.StatusInternalServerError {
			logger.Error(http.StatusText(code), errors.Wrap(err, "handling "+ctx.Request().Method+" "+ctx.Path()), getContextActor(ctx))
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if ctx.Response().Committed {
			return
		}
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

// httpError resolves err to a status code and a response message (a string or a field map).
func httpError(err error, translator ut.Translator) (int, interface{}) {
	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, origErr.Message
		}
		if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
			origErr = herr
		}
		return origErr.Code, origErr.Message
	case validator.ValidationErrors:
		fields := make(map[string]string, len(origErr))
		for _, fe := range origErr {
			fields[fieldName(fe)] = fe.Translate(translator)
		}
		return http.StatusBadRequest, fields
	case *core.ValidationError:
		if len(origErr.Fields) == 0 {
			return http.StatusBadRequest, origErr.Error()
		}
		fields := make(map[string]string, len(origErr.Fields))
		for _, fe := range origErr.Fields {
			fields[fe.Field] = fe.Error
		}
		return http.StatusBadRequest, fields
	default:
		for _, s := range sentinelStatus {
			if origErr != s.err {
				continue
			}
			if s.code == http.StatusBadRequest {
				return s.code, err.Error() // keeps the index or type context
			}
			return s.code, origErr.Error()
		}
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

// fieldName returns the JSON path of a field below the payload root, e.g. "items[0].word".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
