package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// RegisterErrorHandler register custom error handler.
func RegisterErrorHandler(e *echo.Echo, logger log.Logger) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(NewErrorCodeToStatusCodeMaps(), logger).Handler
}

// NewErrorCodeToStatusCodeMaps creates an error code to http status mapping.
func NewErrorCodeToStatusCodeMaps() map[string]int {
	return map[string]int{
		ErrBadParameter:        http.StatusBadRequest,
		ErrEntityNotFound:      http.StatusNotFound,
		ErrMethodNotAllowed:    http.StatusMethodNotAllowed,
		ErrStoreUnavailable:    http.StatusServiceUnavailable,
		ErrInternalServerError: http.StatusInternalServerError,
	}
}

// statusToErrorCode classifies echo's own HTTP errors (routing, binding).
var statusToErrorCode = map[int]string{
	http.StatusBadRequest:         ErrBadParameter,
	http.StatusNotFound:           ErrEntityNotFound,
	http.StatusMethodNotAllowed:   ErrMethodNotAllowed,
	http.StatusServiceUnavailable: ErrStoreUnavailable,
}

// HTTPErrorHandler is the only place where failures are formatted for API consumers.
type HTTPErrorHandler struct {
	errorCodeToHTTPStatusCodeMap map[string]int
	logger                       log.Logger
}

// NewHTTPErrorHandler creates a new instance of the HTTPErrorHandler.
func NewHTTPErrorHandler(errorCodeToStatusCodeMaps map[string]int, logger log.Logger) *HTTPErrorHandler {
	return &HTTPErrorHandler{
		errorCodeToHTTPStatusCodeMap: errorCodeToStatusCodeMaps,
		logger:                       log.WithPrefix(logger, "component", "HTTPErrorHandler"),
	}
}

func (h *HTTPErrorHandler) getStatusCode(errorCode string) int {
	status, ok := h.errorCodeToHTTPStatusCodeMap[errorCode]
	if ok {
		return status
	}

	return http.StatusInternalServerError
}

// Handler handles error returned by echo Handlers.
func (h *HTTPErrorHandler) Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp, statusCode := h.translate(err)

	level.Error(h.logger).Log(
		"msg", "HTTP request error",
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"status", statusCode,
		"err", err,
	)

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(statusCode)
		return
	}
	_ = c.JSON(statusCode, resp)
}

// translate converts any error into the external shape and its status code.
// A registry error anywhere in the chain wins; echo's own errors are classified by status.
func (h *HTTPErrorHandler) translate(err error) (ErrResponse, int) {
	myErr := ToMyError(err)

	var he *echo.HTTPError
	if myErr == nil && errors.As(err, &he) {
		code, ok := statusToErrorCode[he.Code]
		if !ok {
			code = ErrInternalServerError
		}
		details := map[string]any{"code": code}

		var requestError *openapi3filter.RequestError
		if errors.As(he.Internal, &requestError) {
			code = ErrBadParameter
			details["code"] = code
			details["cause"] = requestErrorCause(requestError)
		}

		return ErrResponse{
			Name:    MyError{Code: code}.Name(),
			Message: fmt.Sprint(he.Message),
			Details: details,
		}, he.Code
	}

	if myErr == nil {
		myErr = NewMyError(ErrInternalServerError, "an internal server error has occurred", err)
	}

	details := map[string]any{"code": myErr.Code}
	if myErr.Code == ErrBadParameter && myErr.Inner != nil {
		details["cause"] = myErr.Inner.Error()
	}

	return ErrResponse{
		Name:    myErr.Name(),
		Message: myErr.Message,
		Details: details,
	}, h.getStatusCode(myErr.Code)
}

func requestErrorCause(e *openapi3filter.RequestError) string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Reason
}

// ErrResponse is the body of every failed request.
type ErrResponse struct {
	Name    string         `json:"name"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}
