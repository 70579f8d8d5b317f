package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/labstack/echo/v4"
)

// NewRequestValidator validates every request against doc before it reaches a handler.
// A path no route documents is answered with 404 here: echo's router lets a trailing path
// param swallow extra segments, so it would route "/a/b/c" to "/:group/:id" and answer 405.
// A documented path with an undocumented method is passed on for echo to answer with 405.
func NewRequestValidator(doc *openapi3.T) (echo.MiddlewareFunc, error) {
	// match any host
	doc.Servers = nil
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, err
	}
	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route, pathParams, err := router.FindRoute(req)
			if err != nil {
				if errors.Is(err, routers.ErrPathNotFound) {
					return echo.ErrNotFound
				}
				if errors.Is(err, routers.ErrMethodNotAllowed) {
					return next(c)
				}
				return err
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(req.Context(), input); err != nil {
				return &echo.HTTPError{
					Code:     http.StatusBadRequest,
					Message:  firstLine(err.Error()),
					Internal: err,
				}
			}
			return next(c)
		}
	}, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
