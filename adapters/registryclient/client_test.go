package registryclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"myregistry/adapters/mybadger"
	"myregistry/adapters/storetest"
	"myregistry/api"
	"myregistry/domain"
	"myregistry/handlers"
	"myregistry/service"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRegistryServer runs the real HTTP surface over an in-memory store.
func newRegistryServer(t *testing.T, clock *storetest.Clock) *httptest.Server {
	t.Helper()
	store, err := mybadger.Open("", clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	doc, err := api.Load()
	require.NoError(t, err)
	validator, err := handlers.NewRequestValidator(doc)
	require.NoError(t, err)

	e := echo.New()
	service.RegisterErrorHandler(e, log.NewNopLogger())
	e.Use(validator)
	handlers.RegisterHandlers(e, handlers.NewHTTPServer(service.NewRegistry(store, clock, log.NewNopLogger()), log.NewNopLogger()))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_Panics(t *testing.T) {
	t.Run("baseURL_empty", func(t *testing.T) {
		assert.PanicsWithValue(t, "registryclient.client.go: baseURL is required", func() {
			New("", &http.Client{})
		})
	})
	t.Run("client_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "registryclient.client.go: http client is required", func() {
			New("http://localhost:8080", nil)
		})
	})
}

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock()
	c := New(newRegistryServer(t, clock).URL+"/", &http.Client{Timeout: 5 * time.Second})

	got, err := c.Register(ctx, "svc", "i1", domain.Meta{"port": 8080})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "i1", got[0].ID)
	assert.Equal(t, "svc", got[0].Group)
	assert.Equal(t, json.Number("8080"), got[0].Meta["port"])
	assert.Equal(t, storetest.Start, got[0].CreatedAt.UTC())

	clock.Advance(time.Second)
	_, err = c.Register(ctx, "svc", "host:9090/a b", nil)
	require.NoError(t, err)

	details, err := c.Details(ctx, "svc")
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "host:9090/a b", details[0].ID)
	assert.Equal(t, domain.Meta{}, details[0].Meta)
	assert.Equal(t, "i1", details[1].ID)

	summary, err := c.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, "svc", summary[0].Group)
	assert.Equal(t, 2, summary[0].InstanceCount)
	assert.Equal(t, storetest.Start, summary[0].EarliestCreated.UTC())
	assert.Equal(t, storetest.Start.Add(time.Second), summary[0].LatestUpdated.UTC())

	require.NoError(t, c.Unregister(ctx, "svc", "i1"))
	require.NoError(t, c.Unregister(ctx, "svc", "i1"))
	require.NoError(t, c.Unregister(ctx, "svc", "host:9090/a b"))

	details, err = c.Details(ctx, "svc")
	require.NoError(t, err)
	assert.Empty(t, details)

	summary, err = c.Summary(ctx)
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"name":"StoreUnavailable","message":"Redis list error","details":{"code":"store_unavailable"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client()).Details(context.Background(), "svc")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "StoreUnavailable", apiErr.Name)
	assert.Equal(t, "store_unavailable", apiErr.Details["code"])
	assert.Contains(t, err.Error(), "503")
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL, srv.Client()).Unregister(context.Background(), "svc", "i1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "registry returned 502", err.Error())
}

type recordingServer struct {
	mu              sync.Mutex
	registrations   int
	unregistrations int
	failRegister    bool
	failUnregister  bool
}

func (s *recordingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Method {
	case http.MethodPost:
		s.registrations++
		if s.failRegister {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	case http.MethodDelete:
		s.unregistrations++
		if s.failUnregister {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"message":"Client unregistered successfully"}`))
	}
}

func (s *recordingServer) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registrations, s.unregistrations
}

func TestClient_Heartbeat(t *testing.T) {
	tests := []struct {
		name           string
		failRegister   bool
		failUnregister bool
		wantErr        bool
	}{
		{name: "registers until cancelled then unregisters"},
		{name: "keeps ticking when registration fails", failRegister: true},
		{name: "reports a failed unregistration", failUnregister: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := &recordingServer{failRegister: tt.failRegister, failUnregister: tt.failUnregister}
			srv := httptest.NewServer(rs)
			defer srv.Close()

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				done <- New(srv.URL, srv.Client()).Heartbeat(ctx, "svc", "i1", domain.Meta{}, 5*time.Millisecond, log.NewNopLogger())
			}()

			require.Eventually(t, func() bool {
				registrations, _ := rs.counts()
				return registrations >= 3
			}, 2*time.Second, time.Millisecond)
			cancel()

			err := <-done
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			_, unregistrations := rs.counts()
			assert.Equal(t, 1, unregistrations)
		})
	}
}

func TestClient_Heartbeat_Panics(t *testing.T) {
	c := New("http://localhost:8080", &http.Client{})
	assert.PanicsWithValue(t, "registryclient.client.go: interval must be positive", func() {
		_ = c.Heartbeat(context.Background(), "svc", "i1", nil, 0, log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "registryclient.client.go: logger is required", func() {
		_ = c.Heartbeat(context.Background(), "svc", "i1", nil, time.Second, nil)
	})
}
