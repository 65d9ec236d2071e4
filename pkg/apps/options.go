package apps

import "go.uber.org/zap"

// Version is the framework version component configs are checked against
const Version = "0.3.0"

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the registry's logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRelationCheck makes the models phase fail when a relation target does
// not resolve or a reverse relation has no forward side
func WithRelationCheck(strict bool) Option {
	return func(r *Registry) {
		r.strictRelations = strict
	}
}

// WithFrameworkVersion overrides Version for component version constraints
func WithFrameworkVersion(version string) Option {
	return func(r *Registry) {
		r.frameworkVersion = version
	}
}
