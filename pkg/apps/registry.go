package apps

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	strutil "github.com/conduit-lang/manifold/internal/util/strings"
	mferrors "github.com/conduit-lang/manifold/pkg/errors"
	"github.com/conduit-lang/manifold/pkg/orm/schema"
)

// Registry holds the installed components and their entities.
//
// It is populated once by Populate, in three phases: descriptors, models,
// ready. Lookups that depend on a phase fail with an ErrNotReady error until
// that phase has completed. After Populate returns successfully the registry
// is read-only.
type Registry struct {
	importer         Importer
	logger           *zap.Logger
	strictRelations  bool
	frameworkVersion string

	models  *schema.Registry
	builder *schema.Builder

	mu          sync.RWMutex
	descriptors map[string]*Descriptor
	order       []*Descriptor
	runID       string

	// Bootstrap state
	descriptorsReady atomic.Bool
	modelsReady      atomic.Bool
	ready            atomic.Bool
	initMutex        sync.Mutex
	initErr          error
}

// New creates an empty registry that imports components through importer
func New(importer Importer, opts ...Option) *Registry {
	r := &Registry{
		importer:         importer,
		logger:           zap.NewNop(),
		frameworkVersion: Version,
		descriptors:      make(map[string]*Descriptor),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.models = schema.NewRegistry(r.logger)
	r.builder = schema.NewBuilder(r.containingLabel, r.models)
	return r
}

// Populate installs entries, loads their entities and runs their ready
// hooks, in the order given.
//
// Concurrent callers block until the first run completes; once the registry
// is ready further calls return immediately. A failed run is not retried:
// every later call returns the same error.
func (r *Registry) Populate(ctx context.Context, entries []Entry) error {
	if r.ready.Load() {
		return nil
	}

	r.initMutex.Lock()
	defer r.initMutex.Unlock()

	if r.ready.Load() {
		return nil
	}
	if r.initErr != nil {
		return r.initErr
	}

	r.initErr = r.populate(ctx, entries)
	return r.initErr
}

func (r *Registry) populate(ctx context.Context, entries []Entry) error {
	runID := uuid.NewString()
	r.mu.Lock()
	r.runID = runID
	r.mu.Unlock()

	log := r.logger.With(zap.String("run_id", runID))
	resolver := NewResolver(r.importer, r.frameworkVersion, log)

	log.Info("loading components", zap.Int("count", len(entries)))
	for _, entry := range entries {
		d, err := resolver.Resolve(entry)
		if err != nil {
			log.Error("component resolution failed", zap.Stringer("entry", entry), zap.Error(err))
			return err
		}
		if err := r.install(d); err != nil {
			log.Error("component installation failed", zap.String("label", d.Label()), zap.Error(err))
			return err
		}
	}
	r.descriptorsReady.Store(true)
	log.Debug("components loaded")

	for _, d := range r.order {
		ns := d.Namespace()
		if ns == nil || ns.Models == nil {
			continue
		}
		if err := ns.Models(&Models{registry: r, descriptor: d}); err != nil {
			log.Error("loading entities failed", zap.String("label", d.Label()), zap.Error(err))
			return fmt.Errorf("loading entities of %s: %w", d.Label(), err)
		}
	}
	if r.strictRelations {
		if err := r.models.ValidateRelations(); err != nil {
			log.Error("relation check failed", zap.Error(err))
			return err
		}
	}
	r.modelsReady.Store(true)
	log.Debug("entities loaded", zap.Int("count", r.models.Count()))

	for _, d := range r.order {
		hook, ok := d.Config().(ReadyHook)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Error("ready hooks cancelled", zap.String("label", d.Label()), zap.Error(err))
			return fmt.Errorf("ready hook of %s: %w", d.Label(), err)
		}
		if err := hook.Ready(ctx, d); err != nil {
			log.Error("ready hook failed", zap.String("label", d.Label()), zap.Error(err))
			return fmt.Errorf("ready hook of %s: %w", d.Label(), err)
		}
	}
	r.ready.Store(true)
	log.Info("registry ready",
		zap.Int("components", len(r.order)),
		zap.Int("entities", r.models.Count()))

	return nil
}

// install stores d under its label and attaches the registry to it
func (r *Registry) install(d *Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[d.Label()]; exists {
		return mferrors.DuplicateLabel(d.Label())
	}
	if err := d.attach(r); err != nil {
		return err
	}
	r.descriptors[d.Label()] = d
	r.order = append(r.order, d)
	return nil
}

// RegisterEntity builds def and publishes it into the model table. Its
// owning component is the installed component with the longest namespace
// containing def.Namespace. Registration is closed once the registry is ready.
func (r *Registry) RegisterEntity(def *schema.Definition) (*schema.Metadata, error) {
	if r.ready.Load() {
		return nil, mferrors.Configuration(entitySubject(def),
			"registry is ready; entities can no longer be registered")
	}
	if def != nil && !def.Abstract && !r.descriptorsReady.Load() {
		return nil, mferrors.NotReady("components")
	}
	return r.builder.Register(def)
}

func entitySubject(def *schema.Definition) string {
	if def == nil {
		return ""
	}
	if def.Type != nil {
		return def.Type.String()
	}
	return def.Name
}

// CheckDescriptorsReady returns an ErrNotReady error until every component is installed
func (r *Registry) CheckDescriptorsReady() error {
	if !r.descriptorsReady.Load() {
		return mferrors.NotReady("components")
	}
	return nil
}

// CheckModelsReady returns an ErrNotReady error until every entity is loaded
func (r *Registry) CheckModelsReady() error {
	if !r.modelsReady.Load() {
		return mferrors.NotReady("models")
	}
	return nil
}

// DescriptorsReady reports whether the descriptors phase has completed
func (r *Registry) DescriptorsReady() bool { return r.descriptorsReady.Load() }

// ModelsReady reports whether the models phase has completed
func (r *Registry) ModelsReady() bool { return r.modelsReady.Load() }

// IsReady reports whether Populate has completed successfully
func (r *Registry) IsReady() bool { return r.ready.Load() }

// RunID identifies the Populate run in logs; empty before the first run
func (r *Registry) RunID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runID
}

// Descriptors returns the installed components in registration order
func (r *Registry) Descriptors() ([]*Descriptor, error) {
	if err := r.CheckDescriptorsReady(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, len(r.order))
	copy(out, r.order)
	return out, nil
}

// Descriptor returns the component with the given label
func (r *Registry) Descriptor(label string) (*Descriptor, error) {
	if err := r.CheckDescriptorsReady(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.descriptors[label]; ok {
		return d, nil
	}

	err := mferrors.Lookup(label, "no installed component with label %q", label)
	for _, d := range r.order {
		if d.Name() == label {
			return nil, err.WithHint("did you mean %q?", d.Label())
		}
	}
	return nil, err
}

// IsInstalled reports whether a component with the given namespace path is installed
func (r *Registry) IsInstalled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.order {
		if d.Name() == name {
			return true
		}
	}
	return false
}

// ContainingDescriptor returns the installed component whose namespace is
// the longest one equal to or enclosing namespace, or nil when none does
func (r *Registry) ContainingDescriptor(namespace string) (*Descriptor, error) {
	if err := r.CheckDescriptorsReady(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Descriptor
	for _, d := range r.order {
		if strutil.HasDottedPrefix(namespace, d.Name()) &&
			(best == nil || len(d.Name()) > len(best.Name())) {
			best = d
		}
	}
	return best, nil
}

// containingLabel adapts ContainingDescriptor for the entity builder
func (r *Registry) containingLabel(namespace string) (string, bool) {
	d, err := r.ContainingDescriptor(namespace)
	if err != nil || d == nil {
		return "", false
	}
	return d.Label(), true
}

// Model returns the entity for a "label.Entity" reference once every
// entity is loaded
func (r *Registry) Model(ref string) (*schema.Metadata, error) {
	if err := r.CheckModelsReady(); err != nil {
		return nil, err
	}

	label, name, ok := strutil.SplitLast(ref)
	if !ok {
		return nil, mferrors.Lookup(ref, "entity reference must look like \"label.Entity\"")
	}
	d, err := r.Descriptor(label)
	if err != nil {
		return nil, err
	}
	return d.GetModel(name, true)
}

// Models returns every registered entity in registration order
func (r *Registry) Models() ([]*schema.Metadata, error) {
	if err := r.CheckModelsReady(); err != nil {
		return nil, err
	}
	return r.models.All(), nil
}

// Schema returns the underlying model table
func (r *Registry) Schema() *schema.Registry {
	return r.models
}
