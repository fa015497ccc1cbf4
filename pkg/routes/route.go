// Package routes declares HTTP routes as data so they can be registered on a
// mux and described in the OpenAPI document from the same source.
package routes

import (
	"net/http"

	"github.com/JaimeStill/patentbot/pkg/openapi"
)

// Route binds an HTTP method and pattern to a handler.
// OpenAPI is optional; routes without it are served but left undocumented.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}
