package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pfa/internal/errors"
	"pfa/internal/logger"
)

// LoginPath is where the browser is sent once the session is gone.
const LoginPath = "/login"

// ErrorDetail is the error object of an error reply.
type ErrorDetail struct {
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Fields  apperrors.FieldErrors `json:"fields"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error    ErrorDetail `json:"error"`
	Redirect string      `json:"redirect,omitempty"`
}

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into consistent JSON error responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}

// WriteError writes err as {"error": {code, message, fields}}. Errors that
// end the session also carry {"redirect": "/login"} so every screen sends
// the user to the login page the same way.
func WriteError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", RequestID(c),
		)
		appErr = apperrors.ErrInternal
	} else if appErr.Internal != nil {
		logger.Get().Errorw("app error",
			"code", appErr.Code,
			"message", appErr.Message,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
			"request_id", RequestID(c),
		)
	}

	body := ErrorResponse{Error: ErrorDetail{
		Code:    appErr.Code,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	}}
	status := statusOf(appErr)
	if appErr.Kind == apperrors.KindUnauthorized {
		status = http.StatusUnauthorized
		body.Redirect = LoginPath
	}
	c.AbortWithStatusJSON(status, body)
}

func statusOf(e *apperrors.AppError) int {
	switch {
	case e.Kind == apperrors.KindTransport:
		return http.StatusServiceUnavailable
	case e.StatusCode == 0:
		return http.StatusInternalServerError
	}
	return e.StatusCode
}
