package schema

import (
	"go.uber.org/zap"

	strutil "github.com/conduit-lang/manifold/internal/util/strings"
	mferrors "github.com/conduit-lang/manifold/pkg/errors"
)

// OwnerFunc returns the label of the component whose namespace contains
// namespace, choosing the longest match. ok is false when none does.
type OwnerFunc func(namespace string) (label string, ok bool)

// Builder turns entity Definitions into finalized Metadata
type Builder struct {
	owner  OwnerFunc
	models *Registry
	logger *zap.Logger
}

// NewBuilder creates a builder that resolves owners through owner and
// publishes into models
func NewBuilder(owner OwnerFunc, models *Registry) *Builder {
	return &Builder{
		owner:  owner,
		models: models,
		logger: models.logger,
	}
}

// Register builds def and publishes the result. Abstract field sets are
// returned without being published. When an identical definition is already
// registered, the existing metadata is returned.
func (b *Builder) Register(def *Definition) (*Metadata, error) {
	m, err := b.Build(def)
	if err != nil {
		return nil, err
	}
	if m.Abstract {
		return m, nil
	}
	return b.models.Publish(m)
}

// Build converts def into Metadata without publishing it
func (b *Builder) Build(def *Definition) (*Metadata, error) {
	if def == nil {
		return nil, mferrors.Configuration("", "nil entity definition")
	}

	typeName := def.typeName()
	subject := typeName
	if subject == "" {
		subject = def.Name
	}

	if def.Type == nil && !def.Abstract {
		return nil, mferrors.Configuration(subject, "concrete entity has no Go type").
			WithHint("declare it with schema.Declare[T]()")
	}
	if typeName == "" && def.Name == "" {
		return nil, mferrors.Configuration("", "entity has neither a type name nor a name")
	}

	if problems := NewDefinitionValidator().Validate(def); len(problems) > 0 {
		return nil, mferrors.Join(mferrors.ErrConfiguration, subject, problems)
	}

	m := &Metadata{
		Type:      def.Type,
		TypeName:  typeName,
		Namespace: def.Namespace,
		Abstract:  def.Abstract,
		index:     make(map[string]*Field),
		relations: make(map[FieldKind][]string),
		accessors: make(map[string]*accessor),
	}

	// Included sets first, in priority order; direct fields last
	for _, inc := range def.Includes {
		for _, f := range inc.fields {
			m.putField(f.clone())
		}
	}
	for _, f := range def.Fields {
		m.putField(f.clone())
	}

	if err := b.assignPrimaryKey(m, subject); err != nil {
		return nil, err
	}

	// Lookups snake-case their query, so overrides are stored the same way
	m.EntityName = strutil.ToSnakeCase(def.Name)
	if m.EntityName == "" {
		m.EntityName = strutil.ToSnakeCase(typeName)
	}

	m.OwningLabel = def.Label
	if m.OwningLabel == "" && def.Namespace != "" && b.owner != nil {
		if label, ok := b.owner(def.Namespace); ok {
			m.OwningLabel = label
		}
	}
	if m.OwningLabel == "" && !m.Abstract {
		return nil, mferrors.Configuration(subject,
			"no installed component contains namespace %q", def.Namespace).
			WithHint("declare the entity inside an installed component or set Definition.Label")
	}

	m.Table = def.Table
	if m.Table == "" && !m.Abstract {
		m.Table = m.OwningLabel + "_" + m.EntityName
	}

	b.classify(m)

	b.logger.Debug("built entity metadata",
		zap.String("entity", m.Key()),
		zap.Int("fields", len(m.fields)),
		zap.Bool("abstract", m.Abstract))

	return m, nil
}

// putField adds f, replacing an earlier field of the same name in place
func (m *Metadata) putField(f *Field) {
	if _, exists := m.index[f.Name]; exists {
		for i, old := range m.fields {
			if old.Name == f.Name {
				m.fields[i] = f
				break
			}
		}
	} else {
		m.fields = append(m.fields, f)
	}
	m.index[f.Name] = f
}

// assignPrimaryKey finds the single primary key or synthesizes "id"
func (b *Builder) assignPrimaryKey(m *Metadata, subject string) error {
	var pks []string
	for _, f := range m.fields {
		if f.PrimaryKey {
			pks = append(pks, f.Name)
		}
	}

	switch {
	case len(pks) > 1:
		return mferrors.Configuration(subject,
			"entity declares %d primary keys %v; at most one field may be a primary key",
			len(pks), pks)
	case len(pks) == 1:
		m.PrimaryKey = pks[0]
		return nil
	case m.Abstract:
		return nil
	}

	if _, exists := m.index["id"]; exists {
		return mferrors.Configuration(subject,
			"field \"id\" is not a primary key but the entity declares no other one").
			WithHint("mark \"id\" with schema.PrimaryKey() or rename the field")
	}

	id := IntField("id", PrimaryKey(), Generated())
	m.fields = append([]*Field{id}, m.fields...)
	m.index["id"] = id
	m.PrimaryKey = "id"
	return nil
}

// classify records relation fields by kind and builds their accessors.
// Targets are only looked up when an accessor is first used.
func (b *Builder) classify(m *Metadata) {
	for _, f := range m.fields {
		if !f.IsRelation() {
			continue
		}
		m.relations[f.Kind] = append(m.relations[f.Kind], f.Name)

		field := f
		models := b.models
		m.accessors[f.Name] = &accessor{
			field: field,
			resolve: func() (*Metadata, error) {
				return models.Resolve(field.Target, m.OwningLabel)
			},
		}
	}
}

// BuildFieldSet builds an abstract field set outside any registry, for
// package-level declarations that entities later Include
func BuildFieldSet(name string, fields ...*Field) (*Metadata, error) {
	return NewBuilder(nil, NewRegistry(nil)).Build(FieldSet(name, fields...))
}

// MustFieldSet is like BuildFieldSet but panics on error
func MustFieldSet(name string, fields ...*Field) *Metadata {
	m, err := BuildFieldSet(name, fields...)
	if err != nil {
		panic(err)
	}
	return m
}
