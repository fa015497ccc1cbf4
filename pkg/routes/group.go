package routes

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/patentbot/pkg/openapi"
)

// Group organizes routes under a common prefix with shared tags.
type Group struct {
	Prefix   string
	Tags     []string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		walk("", nil, group, func(path string, _ []string, route Route) {
			mux.HandleFunc(route.Method+" "+path, route.Handler)
		})
	}
}

// Describe adds every documented route to spec under basePath.
// Group tags are applied to operations that declare none of their own.
func Describe(spec *openapi.Spec, basePath string, groups ...Group) {
	for _, group := range groups {
		walk(basePath, nil, group, func(path string, tags []string, route Route) {
			if route.OpenAPI == nil {
				return
			}
			op := *route.OpenAPI
			if len(op.Tags) == 0 {
				op.Tags = tags
			}
			spec.AddOperation(strings.TrimSuffix(path, "/"), route.Method, &op)
		})
	}
}

func walk(parentPrefix string, parentTags []string, group Group, visit func(string, []string, Route)) {
	prefix := parentPrefix + group.Prefix
	tags := parentTags
	if len(group.Tags) > 0 {
		tags = group.Tags
	}

	for _, route := range group.Routes {
		visit(prefix+route.Pattern, tags, route)
	}
	for _, child := range group.Children {
		walk(prefix, tags, child, visit)
	}
}
