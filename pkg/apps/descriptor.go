package apps

import (
	"fmt"
	"sync"

	strutil "github.com/conduit-lang/manifold/internal/util/strings"
	mferrors "github.com/conduit-lang/manifold/pkg/errors"
	"github.com/conduit-lang/manifold/pkg/orm/schema"
)

// Descriptor is the registry's record of one installed component
type Descriptor struct {
	label     string
	name      string
	path      string
	config    Config
	namespace *Namespace

	mu       sync.Mutex
	registry *Registry
}

// NewDescriptor builds a descriptor directly, for embedded or synthetic
// components that have no namespace to resolve. ns may be nil.
func NewDescriptor(label, name, path string, cfg Config, ns *Namespace) (*Descriptor, error) {
	if !strutil.IsIdentifier(label) {
		return nil, mferrors.Configuration(name, "label %q is not a valid identifier", label)
	}
	if name == "" {
		name = label
	}
	if cfg == nil {
		cfg = &BaseConfig{ComponentName: name, ComponentLabel: label, Location: path}
	}
	return &Descriptor{
		label:     label,
		name:      name,
		path:      path,
		config:    cfg,
		namespace: ns,
	}, nil
}

// Label returns the unique short identifier of the component
func (d *Descriptor) Label() string { return d.label }

// Name returns the dotted namespace path of the component
func (d *Descriptor) Name() string { return d.name }

// Path returns the component's filesystem directory
func (d *Descriptor) Path() string { return d.path }

// Config returns the component's configuration value
func (d *Descriptor) Config() Config { return d.config }

// Namespace returns the resolved namespace, nil for synthetic components
func (d *Descriptor) Namespace() *Namespace { return d.namespace }

// Registry returns the registry the descriptor is installed in, or nil
func (d *Descriptor) Registry() *Registry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry
}

// attach sets the registry back reference. It can be set only once.
func (d *Descriptor) attach(r *Registry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.registry != nil && d.registry != r {
		return mferrors.Configuration(d.label, "component is already installed in another registry")
	}
	d.registry = r
	return nil
}

// Entities returns the component's entity table as registered so far. It is
// empty until the models phase reaches this component.
func (d *Descriptor) Entities() map[string]*schema.Metadata {
	r := d.Registry()
	if r == nil {
		return map[string]*schema.Metadata{}
	}
	return r.models.ForLabel(d.label)
}

// GetModels returns the component's entity table once every component's
// entities are loaded
func (d *Descriptor) GetModels() (map[string]*schema.Metadata, error) {
	r := d.Registry()
	if r == nil {
		return nil, mferrors.NotReady("models")
	}
	if err := r.CheckModelsReady(); err != nil {
		return nil, err
	}
	return d.Entities(), nil
}

// GetModel returns the entity called name; "Invoice" and "invoice" are
// equivalent. With requireReady the lookup fails until every component's
// entities are loaded, otherwise only the components must be.
func (d *Descriptor) GetModel(name string, requireReady bool) (*schema.Metadata, error) {
	r := d.Registry()
	if r == nil {
		return nil, mferrors.NotReady("components")
	}

	check := r.CheckDescriptorsReady
	if requireReady {
		check = r.CheckModelsReady
	}
	if err := check(); err != nil {
		return nil, err
	}

	m, ok := r.models.Get(d.label, strutil.ToSnakeCase(name))
	if !ok {
		return nil, mferrors.Lookup(d.label, "component %q doesn't have a %q entity", d.label, name)
	}
	return m, nil
}

// Export returns a named value the component's namespace exports, such as
// its route table
func (d *Descriptor) Export(name string) (any, error) {
	if d.namespace != nil {
		if v, ok := d.namespace.Exports[name]; ok {
			return v, nil
		}
	}
	return nil, mferrors.Lookup(d.label+"."+name, "component %q exports nothing called %q", d.label, name)
}

// String implements fmt.Stringer
func (d *Descriptor) String() string {
	return fmt.Sprintf("<Descriptor: %s>", d.label)
}
