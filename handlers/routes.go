package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers of api/registry.openapi.yaml.
type ServerInterface interface {
	// (GET /)
	GetSummary(ctx echo.Context) error
	// (GET /{group})
	GetGroupDetails(ctx echo.Context, group string) error
	// (POST /{group}/{id})
	RegisterClient(ctx echo.Context, group string, id string) error
	// (DELETE /{group}/{id})
	UnregisterClient(ctx echo.Context, group string, id string) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// GetSummary converts echo context to params.
func (w *ServerInterfaceWrapper) GetSummary(ctx echo.Context) error {
	return w.Handler.GetSummary(ctx)
}

// GetGroupDetails converts echo context to params.
func (w *ServerInterfaceWrapper) GetGroupDetails(ctx echo.Context) error {
	group, err := bindPathParam(ctx, "group")
	if err != nil {
		return err
	}
	return w.Handler.GetGroupDetails(ctx, group)
}

// RegisterClient converts echo context to params.
func (w *ServerInterfaceWrapper) RegisterClient(ctx echo.Context) error {
	group, err := bindPathParam(ctx, "group")
	if err != nil {
		return err
	}
	id, err := bindPathParam(ctx, "id")
	if err != nil {
		return err
	}
	return w.Handler.RegisterClient(ctx, group, id)
}

// UnregisterClient converts echo context to params.
func (w *ServerInterfaceWrapper) UnregisterClient(ctx echo.Context) error {
	group, err := bindPathParam(ctx, "group")
	if err != nil {
		return err
	}
	id, err := bindPathParam(ctx, "id")
	if err != nil {
		return err
	}
	return w.Handler.UnregisterClient(ctx, group, id)
}

// bindPathParam decodes a percent-encoded path segment.
func bindPathParam(ctx echo.Context, name string) (string, error) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), &value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return value, nil
}

// EchoRouter is implemented by both echo.Echo and echo.Group.
type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers handlers under baseURL.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.GET(baseURL+"/", wrapper.GetSummary)
	router.GET(baseURL+"/:group", wrapper.GetGroupDetails)
	router.POST(baseURL+"/:group/:id", wrapper.RegisterClient)
	router.DELETE(baseURL+"/:group/:id", wrapper.UnregisterClient)
}
