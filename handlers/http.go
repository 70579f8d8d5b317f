// Package handlers contains http handlers for the registry.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"myregistry/helpers"
	"myregistry/interfaces"
	"myregistry/service"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
)

// unregisteredMessage is returned by DELETE /{group}/{id} whether or not the instance existed.
const unregisteredMessage = "Client unregistered successfully"

// HTTPServer implements ServerInterface on top of the registry service.
type HTTPServer struct {
	registry interfaces.Registry
	logger   log.Logger
}

var _ ServerInterface = (*HTTPServer)(nil)

// NewHTTPServer creates a new HTTPServer.
func NewHTTPServer(registry interfaces.Registry, logger log.Logger) *HTTPServer {
	return &HTTPServer{
		registry: helpers.NilPanic(registry, "handlers.http.go: registry is required"),
		logger:   log.WithPrefix(helpers.NilPanic(logger, "handlers.http.go: logger is required"), "component", "HTTPServer"),
	}
}

// GetSummary (GET /) returns one entry per non-empty group.
func (h *HTTPServer) GetSummary(ectx echo.Context) error {
	ctx := ectx.Request().Context()
	summaries, err := h.registry.Summary(ctx)
	if err != nil {
		return fmt.Errorf("getSummary failed to summarize groups, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, toSummaryResponse(summaries))
}

// GetGroupDetails (GET /{group}) returns the group's instances, [] when the group is unknown.
func (h *HTTPServer) GetGroupDetails(ectx echo.Context, group string) error {
	ctx := ectx.Request().Context()
	instances, err := h.registry.Details(ctx, group)
	if err != nil {
		return fmt.Errorf("getGroupDetails failed to list group '%s', err: %w", group, err)
	}

	return ectx.JSON(http.StatusOK, toInstancesResponse(instances))
}

// RegisterClient (POST /{group}/{id}) registers or refreshes an instance and returns its group.
// The body is optional; 400 when it is present but not a JSON object with an object meta.
func (h *HTTPServer) RegisterClient(ectx echo.Context, group string, id string) error {
	var req RegisterRequest
	if err := bindRegisterRequest(ectx.Request(), &req); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}

	ctx := ectx.Request().Context()
	instances, err := h.registry.Register(ctx, group, id, fromRegisterRequest(req))
	if err != nil {
		return fmt.Errorf("registerClient failed to register '%s/%s', err: %w", group, id, err)
	}

	return ectx.JSON(http.StatusOK, toInstancesResponse(instances))
}

// UnregisterClient (DELETE /{group}/{id}) removes an instance; removing an absent one succeeds too.
func (h *HTTPServer) UnregisterClient(ectx echo.Context, group string, id string) error {
	ctx := ectx.Request().Context()
	if err := h.registry.Unregister(ctx, group, id); err != nil {
		return fmt.Errorf("unregisterClient failed to unregister '%s/%s', err: %w", group, id, err)
	}

	return ectx.JSON(http.StatusOK, MessageResponse{Message: unregisteredMessage})
}

// bindRegisterRequest decodes the optional JSON body. Numbers stay json.Number so meta
// is stored with the exact digits the client sent.
func bindRegisterRequest(r *http.Request, req *RegisterRequest) error {
	if r.ContentLength == 0 {
		return nil
	}
	if ctype := r.Header.Get(echo.HeaderContentType); ctype != "" && !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		return fmt.Errorf("unsupported content type %q", ctype)
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
