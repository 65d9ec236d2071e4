package apps

import (
	"github.com/conduit-lang/manifold/pkg/orm/schema"
)

// Models is handed to a component's ModelsFunc during the models phase
type Models struct {
	registry   *Registry
	descriptor *Descriptor
}

// Descriptor returns the component whose entities are being declared
func (m *Models) Descriptor() *Descriptor {
	return m.descriptor
}

// Define builds and publishes one entity. A definition without a namespace
// is declared in the component's "models" namespace; synthetic components
// without a namespace own their definitions by label.
func (m *Models) Define(def *schema.Definition) (*schema.Metadata, error) {
	if def.Namespace == "" && def.Label == "" {
		if ns := m.descriptor.Namespace(); ns != nil {
			def.Namespace = ns.Path + ".models"
		} else {
			def.Label = m.descriptor.Label()
		}
	}
	return m.registry.RegisterEntity(def)
}

// DefineAll calls Define for each definition, stopping at the first error
func (m *Models) DefineAll(defs ...*schema.Definition) error {
	for _, def := range defs {
		if _, err := m.Define(def); err != nil {
			return err
		}
	}
	return nil
}

// Model looks up an entity of any component registered so far, by
// "label.Entity" reference. Components declared later are not loaded yet.
func (m *Models) Model(ref string) (*schema.Metadata, error) {
	return m.registry.models.Resolve(ref, m.descriptor.Label())
}
