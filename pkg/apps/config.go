package apps

import "context"

// Config is the contract every component configuration satisfies. Name is
// the dotted path of the component's namespace.
type Config interface {
	Name() string
}

// Labeler overrides the label derived from the last segment of Name
type Labeler interface {
	Label() string
}

// Locator overrides the filesystem location derived from the namespace
type Locator interface {
	Path() string
}

// ReadyHook runs once the whole registry is populated. Hooks run one at a
// time in registration order.
type ReadyHook interface {
	Ready(ctx context.Context, d *Descriptor) error
}

// VersionConstrained declares the framework versions a component supports,
// as a semver constraint such as ">= 0.3, < 1.0"
type VersionConstrained interface {
	Requires() string
}

// BaseConfig is the default configuration. Embed it in a component's own
// config type to inherit the optional overrides.
type BaseConfig struct {
	ComponentName  string
	ComponentLabel string
	Location       string
}

// Name implements Config
func (c *BaseConfig) Name() string { return c.ComponentName }

// Label implements Labeler
func (c *BaseConfig) Label() string { return c.ComponentLabel }

// Path implements Locator
func (c *BaseConfig) Path() string { return c.Location }

// isBaseConfig reports whether cfg is the bare base type rather than a
// component-specific config
func isBaseConfig(cfg Config) bool {
	_, ok := cfg.(*BaseConfig)
	return ok
}
