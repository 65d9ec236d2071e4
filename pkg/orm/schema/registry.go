package schema

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	strutil "github.com/conduit-lang/manifold/internal/util/strings"
	mferrors "github.com/conduit-lang/manifold/pkg/errors"
)

// Registry is the model table: owning label -> entity name -> Metadata
type Registry struct {
	models map[string]map[string]*Metadata
	order  []*Metadata
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewRegistry creates an empty model table. A nil logger discards output.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		models: make(map[string]map[string]*Metadata),
		logger: logger,
	}
}

// Publish stores m under its owning label and entity name and returns the
// registered metadata.
//
// Publishing the same Go type with the same structure again is tolerated:
// a warning is logged and the first registration is kept. Any other
// collision is an ErrConflictingDefinition.
func (r *Registry) Publish(m *Metadata) (*Metadata, error) {
	if m.Abstract {
		return nil, mferrors.Configuration(m.EntityName, "abstract field sets are not published")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byName, ok := r.models[m.OwningLabel]
	if !ok {
		byName = make(map[string]*Metadata)
		r.models[m.OwningLabel] = byName
	}

	if existing, exists := byName[m.EntityName]; exists {
		if existing.Type == m.Type && existing.sameStructure(m) {
			r.logger.Warn("entity registered twice with an identical definition; keeping the first",
				zap.String("entity", m.Key()),
				zap.String("type", m.TypeName))
			return existing, nil
		}
		return nil, mferrors.ConflictingDefinition(m.Key(),
			"conflicting definitions: %s already registered, cannot register %s",
			describeType(existing), describeType(m))
	}

	byName[m.EntityName] = m
	r.order = append(r.order, m)
	r.logger.Debug("registered entity", zap.String("entity", m.Key()), zap.String("table", m.Table))

	return m, nil
}

func describeType(m *Metadata) string {
	if m.Type == nil {
		return m.EntityName
	}
	return m.Type.String()
}

// Get retrieves metadata by owning label and entity name
func (r *Registry) Get(label, entity string) (*Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[label][entity]
	return m, ok
}

// Entity is like Get but returns an ErrLookup error when nothing matches
func (r *Registry) Entity(label, entity string) (*Metadata, error) {
	if m, ok := r.Get(label, entity); ok {
		return m, nil
	}
	return nil, mferrors.Lookup(label+"."+entity, "no entity %q registered for component %q", entity, label)
}

// Resolve looks up a relation target reference. ref is either "label.Entity"
// or a bare "Entity" interpreted within fromLabel; entity names are
// snake-cased before lookup, so "Customer" and "customer" are equivalent.
func (r *Registry) Resolve(ref, fromLabel string) (*Metadata, error) {
	label, name, ok := strutil.SplitLast(ref)
	if !ok {
		label = fromLabel
	}
	if label == "" || name == "" {
		return nil, mferrors.Lookup(ref, "cannot resolve relation target without an owning component")
	}
	return r.Entity(label, strutil.ToSnakeCase(name))
}

// ForLabel returns a copy of the entity table of one component
func (r *Registry) ForLabel(label string) map[string]*Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*Metadata, len(r.models[label]))
	for name, m := range r.models[label] {
		out[name] = m
	}
	return out
}

// All returns every registered entity in registration order
func (r *Registry) All() []*Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Metadata, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered entities
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Graph returns the relationship graph over every registered entity
func (r *Registry) Graph() *RelationshipGraph {
	return NewRelationshipGraph(r.All())
}

// DependencyOrder returns entities with the targets of their foreign keys
// first, the order in which their tables can be created
func (r *Registry) DependencyOrder() ([]*Metadata, error) {
	g := r.Graph()
	keys, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	out := make([]*Metadata, 0, len(keys))
	for _, key := range keys {
		out = append(out, g.nodes[key])
	}
	return out, nil
}

// ValidateRelations checks every relation of every registered entity:
// targets must resolve, and reverse relations must be backed by a forward
// relation on the target that points back.
func (r *Registry) ValidateRelations() error {
	var problems []string

	for _, m := range r.All() {
		for _, name := range m.RelationFieldNames() {
			f := m.index[name]
			target, err := m.ResolveRelation(name)
			if err != nil {
				problems = append(problems,
					fmt.Sprintf("%s.%s: unknown target %q", m.Key(), name, f.Target))
				continue
			}
			if !f.Kind.IsReverse() {
				continue
			}
			if !hasBackReference(target, m, forwardKind(f.Kind)) {
				problems = append(problems,
					fmt.Sprintf("%s.%s: %s declares no %s pointing back to %s",
						m.Key(), name, target.Key(), forwardKind(f.Kind), m.Key()))
			}
		}
	}

	return mferrors.Join(mferrors.ErrConfiguration, "relations", problems)
}

func forwardKind(k FieldKind) FieldKind {
	if k == KindReverseOneToOne {
		return KindOneToOne
	}
	return KindForeignKey
}

func hasBackReference(target, source *Metadata, kind FieldKind) bool {
	for _, name := range target.relations[kind] {
		back, err := target.ResolveRelation(name)
		if err == nil && back == source {
			return true
		}
	}
	return false
}
