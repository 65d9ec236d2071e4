package apps

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	strutil "github.com/conduit-lang/manifold/internal/util/strings"
	mferrors "github.com/conduit-lang/manifold/pkg/errors"
)

// Resolver turns Entries into Descriptors
type Resolver struct {
	importer Importer
	version  string
	logger   *zap.Logger
}

// NewResolver creates a resolver importing through importer and checking
// component version constraints against frameworkVersion
func NewResolver(importer Importer, frameworkVersion string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		importer: importer,
		version:  frameworkVersion,
		logger:   logger,
	}
}

// Resolve produces exactly one Descriptor for e.
//
// A namespace path is imported first; its first component-specific config
// is used, or a BaseConfig bound to it when it has none. When the path does
// not import, it is tried as a dotted reference to a config symbol. The
// label comes from the config or the last segment of its name, and the
// location must be exactly one directory.
func (r *Resolver) Resolve(e Entry) (*Descriptor, error) {
	if e.descriptor != nil {
		return e.descriptor, nil
	}

	var (
		ns  *Namespace
		cfg Config
	)

	if e.config != nil {
		cfg = e.config
	} else {
		id := e.name
		if id == "" {
			return nil, mferrors.Configuration("", "empty component identifier")
		}

		var importErr, symbolErr error
		ns, importErr = r.importer.Import(id)
		if importErr == nil {
			cfg = firstConfig(ns)
			if cfg == nil {
				cfg = &BaseConfig{ComponentName: ns.Path}
			}
		} else {
			ns = nil
			var sym any
			sym, symbolErr = r.importer.ImportSymbol(id)
			if symbolErr == nil {
				c, ok := sym.(Config)
				if !ok {
					return nil, mferrors.Resolution(id, "symbol of type %T is not a component config", sym)
				}
				cfg = c
			}
		}

		if cfg == nil {
			return nil, mferrors.Resolution(id, "cannot import %q as a namespace or a config", id).
				WithCause(errors.Join(importErr, symbolErr))
		}
	}

	name := cfg.Name()
	if name == "" && ns != nil {
		name = ns.Path
	}
	if name == "" {
		return nil, mferrors.Configuration(fmt.Sprintf("%T", cfg), "component config has no name").
			WithHint("return the component's dotted namespace path from Name()")
	}

	label := ""
	if l, ok := cfg.(Labeler); ok {
		label = l.Label()
	}
	if label == "" {
		label = strutil.LastSegment(name)
	}
	if !strutil.IsIdentifier(label) {
		return nil, mferrors.Configuration(name, "label %q is not a valid identifier", label).
			WithHint("return an identifier from Label()")
	}

	if ns == nil {
		imported, err := r.importer.Import(name)
		if err != nil {
			return nil, mferrors.Resolution(name, "cannot import namespace %q named by %T", name, cfg).
				WithCause(err).
				WithHint("Name() must return the dotted path of a registered component namespace")
		}
		ns = imported
	}

	if err := r.checkVersion(label, cfg); err != nil {
		return nil, err
	}

	path, err := location(label, cfg, ns)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("resolved component",
		zap.String("label", label),
		zap.String("name", name),
		zap.String("path", path),
		zap.String("config", fmt.Sprintf("%T", cfg)))

	return &Descriptor{
		label:     label,
		name:      name,
		path:      path,
		config:    cfg,
		namespace: ns,
	}, nil
}

// firstConfig returns the first component-specific config of ns, or nil
func firstConfig(ns *Namespace) Config {
	for _, cfg := range ns.Configs {
		if cfg != nil && !isBaseConfig(cfg) {
			return cfg
		}
	}
	return nil
}

// location returns the single directory of a component
func location(label string, cfg Config, ns *Namespace) (string, error) {
	if l, ok := cfg.(Locator); ok {
		if p := l.Path(); p != "" {
			return p, nil
		}
	}

	dirs := dedupe(ns.Dirs)
	if len(dirs) == 0 && ns.File != "" {
		dirs = []string{filepath.Dir(ns.File)}
	}

	switch len(dirs) {
	case 1:
		return dirs[0], nil
	case 0:
		return "", mferrors.Resolution(label,
			"namespace %q has no filesystem location", ns.Path).
			WithHint("give the component config a Path() returning its directory")
	default:
		return "", mferrors.Resolution(label,
			"namespace %q has multiple filesystem locations %v", ns.Path, dirs).
			WithHint("give the component config a Path() returning its directory")
	}
}

func dedupe(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	var out []string
	for _, d := range dirs {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// checkVersion checks a component's framework version constraint
func (r *Resolver) checkVersion(label string, cfg Config) error {
	vc, ok := cfg.(VersionConstrained)
	if !ok || vc.Requires() == "" {
		return nil
	}

	running, err := semver.NewVersion(r.version)
	if err != nil {
		return mferrors.Configuration(label, "invalid framework version %s", r.version).WithCause(err)
	}

	constraint, err := semver.NewConstraint(vc.Requires())
	if err != nil {
		return mferrors.Configuration(label, "invalid version constraint %s", vc.Requires()).WithCause(err)
	}

	if !constraint.Check(running) {
		return mferrors.Configuration(label,
			"component requires framework %s, but running %s", vc.Requires(), r.version)
	}

	return nil
}
