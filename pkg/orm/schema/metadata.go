package schema

import (
	"reflect"
	"strings"
	"sync"

	mferrors "github.com/conduit-lang/manifold/pkg/errors"
)

// Definition is an entity declaration as handed to the Builder.
//
// Concrete entities name their Go type; abstract field sets may leave Type nil
// and set Name instead. Includes lists abstract field sets in priority order:
// a later set overrides an earlier one, and Fields override them all.
type Definition struct {
	Type      reflect.Type
	Name      string // entity name override; defaults to the snake-cased type name
	Namespace string // declaring namespace, used to find the owning component
	Label     string // owning label override
	Table     string
	Abstract  bool
	Includes  []*Metadata
	Fields    []*Field
}

// Declare starts a Definition for the entity type T
func Declare[T any](fields ...*Field) *Definition {
	return &Definition{
		Type:   reflect.TypeOf((*T)(nil)).Elem(),
		Fields: fields,
	}
}

// FieldSet starts an abstract Definition that other entities include
func FieldSet(name string, fields ...*Field) *Definition {
	return &Definition{
		Name:     name,
		Abstract: true,
		Fields:   fields,
	}
}

// In sets the declaring namespace
func (d *Definition) In(namespace string) *Definition {
	d.Namespace = namespace
	return d
}

// Include appends abstract field sets to compose into the entity
func (d *Definition) Include(sets ...*Metadata) *Definition {
	d.Includes = append(d.Includes, sets...)
	return d
}

// Named overrides the derived entity name
func (d *Definition) Named(name string) *Definition {
	d.Name = name
	return d
}

// typeName returns the bare Go type name, dereferencing pointers
func (d *Definition) typeName() string {
	t := d.Type
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// Metadata is the finalized structure of one entity
type Metadata struct {
	Type        reflect.Type
	TypeName    string
	EntityName  string
	OwningLabel string
	Namespace   string
	Table       string
	Abstract    bool
	PrimaryKey  string // name of the primary key field; empty only for abstract sets without one

	fields    []*Field
	index     map[string]*Field
	relations map[FieldKind][]string
	accessors map[string]*accessor
}

// Key returns "label.entity", the model table key of the metadata
func (m *Metadata) Key() string {
	return m.OwningLabel + "." + m.EntityName
}

// Fields returns the fields in declaration order
func (m *Metadata) Fields() []*Field {
	out := make([]*Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// Field returns the field called name
func (m *Metadata) Field(name string) (*Field, bool) {
	f, ok := m.index[name]
	return f, ok
}

// PrimaryKeyField returns the primary key field, or nil for abstract sets without one
func (m *Metadata) PrimaryKeyField() *Field {
	if m.PrimaryKey == "" {
		return nil
	}
	return m.index[m.PrimaryKey]
}

// Columns returns the fields that are stored in the entity's own table
func (m *Metadata) Columns() []*Field {
	var out []*Field
	for _, f := range m.fields {
		if f.Kind.HasColumn() {
			out = append(out, f)
		}
	}
	return out
}

// RelationFieldNames returns the names of all non-scalar fields in declaration order
func (m *Metadata) RelationFieldNames() []string {
	var names []string
	for _, f := range m.fields {
		if f.IsRelation() {
			names = append(names, f.Name)
		}
	}
	return names
}

// FieldsOfKind returns the names of the fields classified as kind
func (m *Metadata) FieldsOfKind(kind FieldKind) []string {
	names := m.relations[kind]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// ResolveRelation returns the metadata of the entity the relation field name
// points to. The target is looked up on first use and cached once found; a
// failed lookup is retried on the next call.
func (m *Metadata) ResolveRelation(name string) (*Metadata, error) {
	acc, ok := m.accessors[name]
	if !ok {
		return nil, mferrors.Lookup(m.Key()+"."+name, "%s has no relation field %q", m.Key(), name)
	}
	return acc.get()
}

// String returns a compact multi-line description of the entity
func (m *Metadata) String() string {
	var b strings.Builder
	b.WriteString(m.Key())
	if m.Abstract {
		b.WriteString(" (abstract)")
	}
	for _, f := range m.fields {
		b.WriteString("\n  ")
		b.WriteString(f.String())
	}
	return b.String()
}

// sameStructure reports whether two metadata describe the same entity shape
func (m *Metadata) sameStructure(o *Metadata) bool {
	if m.Type != o.Type ||
		m.EntityName != o.EntityName ||
		m.OwningLabel != o.OwningLabel ||
		m.Table != o.Table ||
		m.Abstract != o.Abstract ||
		m.PrimaryKey != o.PrimaryKey ||
		len(m.fields) != len(o.fields) {
		return false
	}
	for i, f := range m.fields {
		if !f.equal(o.fields[i]) {
			return false
		}
	}
	return true
}

// accessor resolves one relation target at most once successfully
type accessor struct {
	field   *Field
	resolve func() (*Metadata, error)

	mu     sync.Mutex
	target *Metadata
}

func (a *accessor) get() (*Metadata, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.target != nil {
		return a.target, nil
	}
	target, err := a.resolve()
	if err != nil {
		return nil, err
	}
	a.target = target
	return target, nil
}
