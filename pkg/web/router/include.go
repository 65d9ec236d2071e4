package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	strutil "github.com/conduit-lang/manifold/internal/util/strings"
	"github.com/conduit-lang/manifold/pkg/apps"
	mferrors "github.com/conduit-lang/manifold/pkg/errors"
)

// DefaultExport is the export name Include uses when ref is a bare label
const DefaultExport = "routes"

// Include mounts the route export ref ("label.export", or a bare label for
// its "routes" export) below prefix. An empty prefix mounts at "/label".
//
// The export may be Routes, []Route, a func(chi.Router) that registers
// routes, or any http.Handler. Components must be installed.
func (r *Router) Include(reg *apps.Registry, ref, prefix string) error {
	if err := reg.CheckDescriptorsReady(); err != nil {
		return err
	}

	label, export, ok := strutil.SplitLast(ref)
	if !ok {
		label, export = ref, DefaultExport
	}

	d, err := reg.Descriptor(label)
	if err != nil {
		return err
	}
	value, err := d.Export(export)
	if err != nil {
		return err
	}

	sub, names, err := subrouter(ref, value)
	if err != nil {
		return err
	}

	if prefix == "" {
		prefix = "/" + d.Label()
	}
	if err := r.mount(d.Label(), prefix, sub, names); err != nil {
		return mferrors.Configuration(ref, "%v", err)
	}
	return nil
}

// IncludeAll mounts the export of every installed component that has one,
// each at "/label", in registration order
func (r *Router) IncludeAll(reg *apps.Registry, export string) error {
	descriptors, err := reg.Descriptors()
	if err != nil {
		return err
	}
	if export == "" {
		export = DefaultExport
	}

	for _, d := range descriptors {
		if _, err := d.Export(export); err != nil {
			continue
		}
		if err := r.Include(reg, d.Label()+"."+export, ""); err != nil {
			return err
		}
	}
	return nil
}

// subrouter builds a chi router from an export value. names maps
// "METHOD pattern" to route names.
func subrouter(ref string, value any) (chi.Router, map[string]string, error) {
	sub := chi.NewRouter()
	names := make(map[string]string)

	switch v := value.(type) {
	case Routes:
		if err := addRoutes(ref, sub, v, names); err != nil {
			return nil, nil, err
		}
	case []Route:
		if err := addRoutes(ref, sub, v, names); err != nil {
			return nil, nil, err
		}
	case func(chi.Router):
		v(sub)
	case http.Handler:
		sub.Handle("/*", v)
	default:
		return nil, nil, mferrors.Configuration(ref, "export of type %T is not a route table", value).
			WithHint("export router.Routes, a func(chi.Router) or an http.Handler")
	}

	return sub, names, nil
}

func addRoutes(ref string, sub chi.Router, routes []Route, names map[string]string) error {
	for _, route := range routes {
		if route.Handler == nil {
			return mferrors.Configuration(ref, "route %s %s has no handler", route.Method, route.Pattern)
		}
		method := route.Method
		if method == "" {
			method = http.MethodGet
		}
		sub.MethodFunc(method, route.Pattern, route.Handler)
		if route.Name != "" {
			names[method+" "+route.Pattern] = route.Name
		}
	}
	return nil
}
