// Package router mounts the route tables components export onto one chi
// router, so a project's URL space is assembled from its installed
// components.
package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Route is one route of a component's route table
type Route struct {
	Method  string           // GET, POST, etc.
	Pattern string           // /invoices/{id}
	Handler http.HandlerFunc // Handler function
	Name    string           // Named route for lookups
}

// Routes is the route table a component exports
type Routes []Route

// RouteInfo provides metadata about a mounted route for introspection
type RouteInfo struct {
	Method     string           `json:"method" yaml:"method"`
	Pattern    string           `json:"pattern" yaml:"pattern"`
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	Component  string           `json:"component" yaml:"component"`
	Parameters []RouteParameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// RouteParameter describes a path parameter of a route
type RouteParameter struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"` // int, uuid, string
}

// Router assembles component routes under a common root
type Router struct {
	mux      chi.Router
	root     string
	logger   *zap.Logger
	mounted  map[string]string // prefix -> component label
	registry []*RouteInfo
}

// Option configures a Router
type Option func(*Router)

// WithLogger logs every request through logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRootPath mounts every component below root
func WithRootPath(root string) Option {
	return func(r *Router) {
		r.root = "/" + strings.Trim(root, "/")
		if r.root == "/" {
			r.root = ""
		}
	}
}

// New creates a router with request id, panic recovery and request logging
func New(opts ...Option) *Router {
	r := &Router{
		mux:     chi.NewRouter(),
		logger:  zap.NewNop(),
		mounted: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.Recoverer)
	r.mux.Use(requestLogger(r.logger))

	return r
}

// ServeHTTP implements http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Routes returns every mounted route in mount order
func (r *Router) Routes() []*RouteInfo {
	out := make([]*RouteInfo, len(r.registry))
	copy(out, r.registry)
	return out
}

// Route returns a mounted route by name
func (r *Router) Route(name string) (*RouteInfo, error) {
	for _, info := range r.registry {
		if info.Name == name {
			return info, nil
		}
	}
	return nil, fmt.Errorf("route not found: %s", name)
}

// NotFound sets the handler for 404 Not Found
func (r *Router) NotFound(handler http.HandlerFunc) {
	r.mux.NotFound(handler)
}

// mount attaches sub below prefix and records its routes
func (r *Router) mount(label, prefix string, sub chi.Router, names map[string]string) error {
	full := r.root + prefix
	if owner, taken := r.mounted[full]; taken {
		return fmt.Errorf("prefix %s is already mounted by %s", full, owner)
	}

	err := chi.Walk(sub, func(method, pattern string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		path := strings.TrimSuffix(full+pattern, "/")
		if path == "" {
			path = "/"
		}
		r.registry = append(r.registry, &RouteInfo{
			Method:     method,
			Pattern:    path,
			Name:       names[method+" "+pattern],
			Component:  label,
			Parameters: extractParameters(path),
		})
		return nil
	})
	if err != nil {
		return err
	}

	if full == "" {
		full = "/"
	}
	r.mux.Mount(full, sub)
	r.mounted[full] = label
	return nil
}

// extractParameters extracts parameter definitions from a route pattern
func extractParameters(pattern string) []RouteParameter {
	var params []RouteParameter
	for _, part := range strings.Split(pattern, "/") {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := strings.Trim(part, "{}")
			// chi allows {name:regexp}
			if i := strings.IndexByte(name, ':'); i >= 0 {
				name = name[:i]
			}
			params = append(params, RouteParameter{Name: name, Type: inferParameterType(name)})
		}
	}
	return params
}

// inferParameterType infers the type of a parameter from its name
func inferParameterType(name string) string {
	switch {
	case name == "id" || strings.HasSuffix(name, "_id"):
		return "int"
	case name == "uuid" || strings.HasSuffix(name, "_uuid"):
		return "uuid"
	default:
		return "string"
	}
}
