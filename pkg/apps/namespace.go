package apps

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	strutil "github.com/conduit-lang/manifold/internal/util/strings"
)

// ErrNamespaceNotFound is returned by Catalog when nothing is registered at a path
var ErrNamespaceNotFound = errors.New("namespace not found")

// ModelsFunc declares a component's entities during the models phase
type ModelsFunc func(m *Models) error

// Namespace is what a component package publishes about itself: its dotted
// path, where it lives on disk, its config values, its entity declarations
// and any named exports (route tables, handlers) other subsystems look up.
type Namespace struct {
	Path string

	// Dirs are the directories the namespace was loaded from. Exactly one
	// distinct entry is expected; File is used when Dirs is empty.
	Dirs []string
	File string

	// Configs is the config sub-namespace. nil means there is none.
	Configs []Config

	Models  ModelsFunc
	Symbols map[string]any
	Exports map[string]any
}

// Importer loads namespaces and dotted symbol references
type Importer interface {
	Import(path string) (*Namespace, error)
	ImportSymbol(dotted string) (any, error)
}

// Catalog is an in-process Importer. Component packages register their
// Namespace from init so that importing the Go package makes it available.
type Catalog struct {
	mu         sync.RWMutex
	namespaces map[string]*Namespace
}

// Default is the catalog component packages register into
var Default = NewCatalog()

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{namespaces: make(map[string]*Namespace)}
}

// Register adds ns to the catalog
func (c *Catalog) Register(ns *Namespace) error {
	if ns == nil || ns.Path == "" {
		return fmt.Errorf("namespace must have a path")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.namespaces[ns.Path]; exists {
		return fmt.Errorf("namespace %s is already registered", ns.Path)
	}
	c.namespaces[ns.Path] = ns
	return nil
}

// MustRegister is like Register but panics on error. It is meant for init functions.
func (c *Catalog) MustRegister(ns *Namespace) *Namespace {
	if err := c.Register(ns); err != nil {
		panic(err)
	}
	return ns
}

// Import returns the namespace registered at path
func (c *Catalog) Import(path string) (*Namespace, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ns, ok := c.namespaces[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNamespaceNotFound, path)
	}
	return ns, nil
}

// ImportSymbol resolves "namespace.Symbol". The symbol is looked up in the
// namespace's Symbols, then among its Configs by type name. A path of the
// form "namespace.config.TypeName" searches the Configs of "namespace".
func (c *Catalog) ImportSymbol(dotted string) (any, error) {
	head, name, ok := strutil.SplitLast(dotted)
	if !ok {
		return nil, fmt.Errorf("%q is not a dotted symbol reference", dotted)
	}

	ns, err := c.Import(head)
	if err != nil {
		parent, isConfig := strings.CutSuffix(head, ".config")
		if !isConfig {
			return nil, err
		}
		if ns, err = c.Import(parent); err != nil {
			return nil, err
		}
		if cfg := configByTypeName(ns.Configs, name); cfg != nil {
			return cfg, nil
		}
		return nil, fmt.Errorf("namespace %s has no config %s", parent, name)
	}

	if sym, ok := ns.Symbols[name]; ok {
		return sym, nil
	}
	if cfg := configByTypeName(ns.Configs, name); cfg != nil {
		return cfg, nil
	}
	return nil, fmt.Errorf("namespace %s has no symbol %s", head, name)
}

// Paths returns every registered namespace path, sorted
func (c *Catalog) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	paths := make([]string, 0, len(c.namespaces))
	for p := range c.namespaces {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func configByTypeName(configs []Config, name string) Config {
	for _, cfg := range configs {
		if cfg != nil && typeName(cfg) == name {
			return cfg
		}
	}
	return nil
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}
