package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"myregistry/api"
	"myregistry/domain"
	"myregistry/interfaces/mock"
	"myregistry/service"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newTestEcho(t *testing.T, registry *mock.RegistryMock, validate bool) *echo.Echo {
	t.Helper()
	e := echo.New()
	service.RegisterErrorHandler(e, log.NewNopLogger())
	if validate {
		doc, err := api.Load()
		require.NoError(t, err)
		validator, err := NewRequestValidator(doc)
		require.NoError(t, err)
		e.Use(validator)
	}
	RegisterHandlers(e, NewHTTPServer(registry, log.NewNopLogger()))
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type errBody struct {
	Name    string         `json:"name"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) errBody {
	t.Helper()
	var body errBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestNewHTTPServer_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "handlers.http.go: registry is required", func() {
		NewHTTPServer(nil, log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "handlers.http.go: logger is required", func() {
		NewHTTPServer(&mock.RegistryMock{}, nil)
	})
}

func TestHTTPServer_RegisterClient(t *testing.T) {
	listed := []domain.Instance{
		{ID: "i1", Group: "svc", CreatedAt: testNow, UpdatedAt: testNow.Add(time.Second), Meta: domain.Meta{"port": 8080.0}},
		{ID: "i0", Group: "svc", CreatedAt: testNow, UpdatedAt: testNow, Meta: domain.Meta{}},
	}

	tests := []struct {
		name           string
		validate       bool
		target         string
		body           string
		contentType    string
		registerErr    error
		expectedStatus int
		wantMeta       domain.Meta
		wantErrName    string
	}{
		{
			name:           "ok",
			target:         "/svc/i1",
			body:           `{"meta":{"port":8080}}`,
			expectedStatus: http.StatusOK,
			wantMeta:       domain.Meta{"port": json.Number("8080")},
		},
		{
			name:           "ok with validation",
			validate:       true,
			target:         "/svc/i1",
			body:           `{"meta":{"port":8080}}`,
			expectedStatus: http.StatusOK,
			wantMeta:       domain.Meta{"port": json.Number("8080")},
		},
		{
			name:           "no body stores empty meta",
			validate:       true,
			target:         "/svc/i1",
			expectedStatus: http.StatusOK,
			wantMeta:       domain.Meta{},
		},
		{
			name:           "null meta stores empty meta",
			target:         "/svc/i1",
			body:           `{"meta":null}`,
			expectedStatus: http.StatusOK,
			wantMeta:       domain.Meta{},
		},
		{
			name:           "escaped path segments are decoded",
			target:         "/my%20svc/host%3A8080",
			body:           `{}`,
			expectedStatus: http.StatusOK,
			wantMeta:       domain.Meta{},
		},
		{
			name:           "large integers keep every digit",
			validate:       true,
			target:         "/svc/i1",
			body:           `{"meta":{"port":8080,"nested":{"big":9007199254740993}}}`,
			expectedStatus: http.StatusOK,
			wantMeta:       domain.Meta{"port": json.Number("8080"), "nested": map[string]any{"big": json.Number("9007199254740993")}},
		},
		{
			name:           "400 unsupported content type",
			target:         "/svc/i1",
			body:           `meta=1`,
			contentType:    echo.MIMETextPlain,
			expectedStatus: http.StatusBadRequest,
			wantErrName:    "ValidationError",
		},
		{
			name:           "400 invalid JSON",
			target:         "/svc/i1",
			body:           `{invalid`,
			expectedStatus: http.StatusBadRequest,
			wantErrName:    "ValidationError",
		},
		{
			name:           "400 invalid JSON with validation",
			validate:       true,
			target:         "/svc/i1",
			body:           `{invalid`,
			expectedStatus: http.StatusBadRequest,
			wantErrName:    "ValidationError",
		},
		{
			name:           "400 meta is not an object",
			target:         "/svc/i1",
			body:           `{"meta":5}`,
			expectedStatus: http.StatusBadRequest,
			wantErrName:    "ValidationError",
		},
		{
			name:           "400 meta is not an object with validation",
			validate:       true,
			target:         "/svc/i1",
			body:           `{"meta":[1,2]}`,
			expectedStatus: http.StatusBadRequest,
			wantErrName:    "ValidationError",
		},
		{
			name:           "503 store unavailable",
			target:         "/svc/i1",
			body:           `{"meta":{}}`,
			registerErr:    service.NewStoreUnavailableError("Redis upsert error", assert.AnError),
			expectedStatus: http.StatusServiceUnavailable,
			wantErrName:    "StoreUnavailable",
			wantMeta:       domain.Meta{},
		},
		{
			name:           "500 unexpected error",
			target:         "/svc/i1",
			body:           `{"meta":{}}`,
			registerErr:    assert.AnError,
			expectedStatus: http.StatusInternalServerError,
			wantErrName:    "InternalServerError",
			wantMeta:       domain.Meta{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &mock.RegistryMock{
				RegisterFunc: func(ctx context.Context, group, id string, meta domain.Meta) ([]domain.Instance, error) {
					if tt.registerErr != nil {
						return nil, tt.registerErr
					}
					return listed, nil
				},
			}
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			if tt.body != "" {
				contentType := tt.contentType
				if contentType == "" {
					contentType = echo.MIMEApplicationJSON
				}
				req.Header.Set(echo.HeaderContentType, contentType)
			}
			rec := httptest.NewRecorder()
			newTestEcho(t, registry, tt.validate).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.wantErrName != "" {
				body := decodeErr(t, rec)
				assert.Equal(t, tt.wantErrName, body.Name)
				assert.NotEmpty(t, body.Message)
				assert.NotEmpty(t, body.Details["code"])
			} else {
				var got []InstanceInfo
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				require.Len(t, got, 2)
				assert.Equal(t, "i1", got[0].Id)
				assert.Equal(t, "i0", got[1].Id)
				assert.Equal(t, map[string]any{"port": 8080.0}, got[0].Meta)
				assert.Equal(t, map[string]any{}, got[1].Meta)
			}

			if tt.wantMeta == nil {
				assert.Empty(t, registry.RegisterCalls())
				return
			}
			require.Len(t, registry.RegisterCalls(), 1)
			call := registry.RegisterCalls()[0]
			assert.Equal(t, tt.wantMeta, call.Meta)
			if tt.target == "/my%20svc/host%3A8080" {
				assert.Equal(t, "my svc", call.Group)
				assert.Equal(t, "host:8080", call.ID)
			} else {
				assert.Equal(t, "svc", call.Group)
				assert.Equal(t, "i1", call.ID)
			}
		})
	}
}

func TestHTTPServer_RegisterClient_ResponseShape(t *testing.T) {
	registry := &mock.RegistryMock{
		RegisterFunc: func(ctx context.Context, group, id string, meta domain.Meta) ([]domain.Instance, error) {
			return []domain.Instance{{ID: id, Group: group, CreatedAt: testNow, UpdatedAt: testNow, Meta: meta}}, nil
		},
	}
	rec := doRequest(newTestEcho(t, registry, true), http.MethodPost, "/svc/i1", `{"meta":{"port":8080}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{
		"id": "i1",
		"group": "svc",
		"createdAt": "2026-10-16T12:00:00Z",
		"updatedAt": "2026-10-16T12:00:00Z",
		"meta": {"port": 8080}
	}]`, rec.Body.String())

	rec = doRequest(newTestEcho(t, registry, true), http.MethodPost, "/svc/i1", `{"meta":{"big":9007199254740993,"ratio":0.1}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"big":9007199254740993`)
	assert.Contains(t, rec.Body.String(), `"ratio":0.1`)
}

func TestHTTPServer_UnregisterClient(t *testing.T) {
	tests := []struct {
		name           string
		unregisterErr  error
		expectedStatus int
	}{
		{
			name:           "ok",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "503 store unavailable",
			unregisterErr:  service.NewStoreUnavailableError("Mongo delete error", assert.AnError),
			expectedStatus: http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &mock.RegistryMock{
				UnregisterFunc: func(ctx context.Context, group, id string) error {
					assert.Equal(t, "svc", group)
					assert.Equal(t, "i1", id)
					return tt.unregisterErr
				},
			}
			rec := doRequest(newTestEcho(t, registry, true), http.MethodDelete, "/svc/i1", "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.JSONEq(t, `{"message":"Client unregistered successfully"}`, rec.Body.String())
			}
			assert.Len(t, registry.UnregisterCalls(), 1)
		})
	}
}

func TestHTTPServer_GetSummary(t *testing.T) {
	tests := []struct {
		name           string
		summaries      []domain.GroupSummary
		summaryErr     error
		expectedStatus int
		wantBody       string
	}{
		{
			name:           "ok empty",
			summaries:      nil,
			expectedStatus: http.StatusOK,
			wantBody:       `[]`,
		},
		{
			name: "ok",
			summaries: []domain.GroupSummary{
				{Group: "a", InstanceCount: 2, EarliestCreated: testNow, LatestUpdated: testNow.Add(time.Minute)},
				{Group: "b", InstanceCount: 1, EarliestCreated: testNow, LatestUpdated: testNow},
			},
			expectedStatus: http.StatusOK,
			wantBody: `[
				{"group":"a","instances":2,"createdAt":"2026-10-16T12:00:00Z","lastUpdatedAt":"2026-10-16T12:01:00Z"},
				{"group":"b","instances":1,"createdAt":"2026-10-16T12:00:00Z","lastUpdatedAt":"2026-10-16T12:00:00Z"}
			]`,
		},
		{
			name:           "503 store unavailable",
			summaryErr:     service.NewStoreUnavailableError("Postgres summary error", assert.AnError),
			expectedStatus: http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &mock.RegistryMock{
				SummaryFunc: func(ctx context.Context) ([]domain.GroupSummary, error) {
					return tt.summaries, tt.summaryErr
				},
			}
			rec := doRequest(newTestEcho(t, registry, true), http.MethodGet, "/", "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Equal(t, "StoreUnavailable", decodeErr(t, rec).Name)
			}
		})
	}
}

func TestHTTPServer_GetGroupDetails(t *testing.T) {
	t.Run("unknown group is an empty list", func(t *testing.T) {
		registry := &mock.RegistryMock{
			DetailsFunc: func(ctx context.Context, group string) ([]domain.Instance, error) {
				assert.Equal(t, "nobody", group)
				return []domain.Instance{}, nil
			},
		}
		rec := doRequest(newTestEcho(t, registry, true), http.MethodGet, "/nobody", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("keeps registry order", func(t *testing.T) {
		registry := &mock.RegistryMock{
			DetailsFunc: func(ctx context.Context, group string) ([]domain.Instance, error) {
				return []domain.Instance{
					{ID: "id1", Group: group, UpdatedAt: testNow.Add(time.Minute)},
					{ID: "id2", Group: group, UpdatedAt: testNow},
				}, nil
			},
		}
		rec := doRequest(newTestEcho(t, registry, true), http.MethodGet, "/g", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var got []InstanceInfo
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		require.Len(t, got, 2)
		assert.Equal(t, "id1", got[0].Id)
		assert.Equal(t, "id2", got[1].Id)
		assert.NotNil(t, got[1].Meta)
	})
}

func TestHTTPServer_UnknownRoutes(t *testing.T) {
	e := newTestEcho(t, &mock.RegistryMock{}, true)

	t.Run("404", func(t *testing.T) {
		for _, target := range []string{"/a/b/c", "/svc/i1/extra"} {
			rec := doRequest(e, http.MethodGet, target, "")
			assert.Equal(t, http.StatusNotFound, rec.Code, target)
			assert.Equal(t, "NotFound", decodeErr(t, rec).Name, target)
		}
	})

	t.Run("extra segment never reaches the registry", func(t *testing.T) {
		registry := &mock.RegistryMock{}
		rec := doRequest(newTestEcho(t, registry, true), http.MethodPost, "/svc/i1/extra", `{}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, registry.RegisterCalls())
	})

	t.Run("405", func(t *testing.T) {
		rec := doRequest(e, http.MethodPut, "/svc/i1", `{}`)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "MethodNotAllowed", decodeErr(t, rec).Name)
	})
}
