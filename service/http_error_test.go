package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, method string, err error) (*httptest.ResponseRecorder, ErrResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/svc/i1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := NewHTTPErrorHandler(NewErrorCodeToStatusCodeMaps(), log.NewNopLogger())
	handler.Handler(err, c)

	var body ErrResponse
	if method != http.MethodHead {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	}
	return rec, body
}

func TestNewErrorCodeToStatusCodeMaps(t *testing.T) {
	m := NewErrorCodeToStatusCodeMaps()
	require.NotNil(t, m)
	assert.Equal(t, http.StatusBadRequest, m[ErrBadParameter])
	assert.Equal(t, http.StatusNotFound, m[ErrEntityNotFound])
	assert.Equal(t, http.StatusServiceUnavailable, m[ErrStoreUnavailable])
	assert.Equal(t, http.StatusInternalServerError, m[ErrInternalServerError])
}

func TestHTTPErrorHandler_Handler(t *testing.T) {
	reqErr := &openapi3filter.RequestError{Reason: "doesn't match schema", Err: fmt.Errorf("value must be an object")}
	validationFailure := echo.NewHTTPError(http.StatusBadRequest, "request body has an error")
	validationFailure.Internal = reqErr

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantName    string
		wantMessage string
		wantCode    string
		wantCause   string
	}{
		{
			name:        "validation error",
			err:         NewBadParameterError("invalid request body", fmt.Errorf("unexpected EOF")),
			wantStatus:  http.StatusBadRequest,
			wantName:    "ValidationError",
			wantMessage: "invalid request body",
			wantCode:    ErrBadParameter,
			wantCause:   "unexpected EOF",
		},
		{
			name:        "store unavailable wrapped by caller",
			err:         fmt.Errorf("register failed: %w", NewStoreUnavailableError("Redis upsert error", fmt.Errorf("dial tcp: refused"))),
			wantStatus:  http.StatusServiceUnavailable,
			wantName:    "StoreUnavailable",
			wantMessage: "Redis upsert error",
			wantCode:    ErrStoreUnavailable,
		},
		{
			name:        "plain error",
			err:         assert.AnError,
			wantStatus:  http.StatusInternalServerError,
			wantName:    "InternalServerError",
			wantMessage: "an internal server error has occurred",
			wantCode:    ErrInternalServerError,
		},
		{
			name:        "echo not found",
			err:         echo.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantName:    "NotFound",
			wantMessage: "Not Found",
			wantCode:    ErrEntityNotFound,
		},
		{
			name:        "echo method not allowed",
			err:         echo.ErrMethodNotAllowed,
			wantStatus:  http.StatusMethodNotAllowed,
			wantName:    "MethodNotAllowed",
			wantMessage: "Method Not Allowed",
			wantCode:    ErrMethodNotAllowed,
		},
		{
			name:        "openapi request error",
			err:         validationFailure,
			wantStatus:  http.StatusBadRequest,
			wantName:    "ValidationError",
			wantMessage: "request body has an error",
			wantCode:    ErrBadParameter,
			wantCause:   "value must be an object",
		},
		{
			name:        "echo error carrying registry error",
			err:         echo.NewHTTPError(http.StatusInternalServerError).SetInternal(NewStoreUnavailableError("mongo down", nil)),
			wantStatus:  http.StatusServiceUnavailable,
			wantName:    "StoreUnavailable",
			wantMessage: "mongo down",
			wantCode:    ErrStoreUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := handle(t, http.MethodPost, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantName, body.Name)
			assert.Equal(t, tt.wantMessage, body.Message)
			require.NotNil(t, body.Details)
			assert.Equal(t, tt.wantCode, body.Details["code"])
			if tt.wantCause != "" {
				assert.Equal(t, tt.wantCause, body.Details["cause"])
			} else {
				assert.NotContains(t, body.Details, "cause")
			}
		})
	}
}

func TestHTTPErrorHandler_Handler_HeadHasNoBody(t *testing.T) {
	rec, _ := handle(t, http.MethodHead, NewStoreUnavailableError("down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestHTTPErrorHandler_Handler_CommittedResponseUntouched(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, c.String(http.StatusOK, "done"))

	NewHTTPErrorHandler(NewErrorCodeToStatusCodeMaps(), log.NewNopLogger()).Handler(assert.AnError, c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}

func TestRegisterErrorHandler(t *testing.T) {
	e := echo.New()
	RegisterErrorHandler(e, log.NewNopLogger())
	require.NotNil(t, e.HTTPErrorHandler)
}
