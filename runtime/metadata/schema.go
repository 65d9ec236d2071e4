// Package metadata captures an introspection snapshot of a populated
// registry: its components, entities, routes and entity dependencies.
package metadata

import "time"

// SchemaVersion is the version of the manifest layout
const SchemaVersion = "1"

// Manifest is the top-level container for introspection metadata.
type Manifest struct {
	Version      string              `json:"version" yaml:"version"`                   // Manifest layout version
	Framework    string              `json:"framework" yaml:"framework"`               // Framework version that built it
	Generated    time.Time           `json:"generated" yaml:"generated"`               // Timestamp of generation
	RunID        string              `json:"run_id" yaml:"run_id"`                     // Populate run that produced the registry
	Components   []ComponentMetadata `json:"components" yaml:"components"`             // Installed components, registration order
	Entities     []EntityMetadata    `json:"entities" yaml:"entities"`                 // Registered entities, registration order
	Routes       []RouteMetadata     `json:"routes,omitempty" yaml:"routes,omitempty"` // Mounted routes
	Dependencies DependencyGraph     `json:"dependencies" yaml:"dependencies"`         // Entity dependency graph
}

// ComponentMetadata describes one installed component.
type ComponentMetadata struct {
	Label    string   `json:"label" yaml:"label"`                           // Unique short label
	Name     string   `json:"name" yaml:"name"`                             // Dotted namespace path
	Path     string   `json:"path" yaml:"path"`                             // Filesystem location
	Config   string   `json:"config" yaml:"config"`                         // Config type
	Entities []string `json:"entities,omitempty" yaml:"entities,omitempty"` // Entity keys owned by the component
	Exports  []string `json:"exports,omitempty" yaml:"exports,omitempty"`   // Export names
}

// EntityMetadata describes one registered entity.
type EntityMetadata struct {
	Key        string          `json:"key" yaml:"key"`                 // label.entity
	Type       string          `json:"type" yaml:"type"`               // Go type
	Component  string          `json:"component" yaml:"component"`     // Owning label
	Namespace  string          `json:"namespace" yaml:"namespace"`     // Declaring namespace
	Table      string          `json:"table" yaml:"table"`             // Table name
	PrimaryKey string          `json:"primary_key" yaml:"primary_key"` // Primary key field
	Fields     []FieldMetadata `json:"fields" yaml:"fields"`           // Fields in declaration order
}

// FieldMetadata describes a single field of an entity.
type FieldMetadata struct {
	Name       string   `json:"name" yaml:"name"`                                 // Field name
	Kind       string   `json:"kind" yaml:"kind"`                                 // scalar, foreign_key, ...
	Type       string   `json:"type,omitempty" yaml:"type,omitempty"`             // Primitive type of scalars
	Column     string   `json:"column,omitempty" yaml:"column,omitempty"`         // Storage column, if any
	Nullable   bool     `json:"nullable" yaml:"nullable"`                         // Whether the field accepts null
	Target     string   `json:"target,omitempty" yaml:"target,omitempty"`         // Resolved relation target key
	Unresolved bool     `json:"unresolved,omitempty" yaml:"unresolved,omitempty"` // Relation target is not registered
	OnDelete   string   `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`   // Delete behavior of references
	Tags       []string `json:"tags,omitempty" yaml:"tags,omitempty"`             // primary, generated, unique
}

// RouteMetadata describes a mounted route.
type RouteMetadata struct {
	Method     string   `json:"method" yaml:"method"`                             // HTTP method
	Path       string   `json:"path" yaml:"path"`                                 // URL path pattern
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`             // Route name
	Component  string   `json:"component" yaml:"component"`                       // Component that exported it
	Parameters []string `json:"parameters,omitempty" yaml:"parameters,omitempty"` // name:type path parameters
}

// DependencyGraph captures which entities reference which.
type DependencyGraph struct {
	Nodes []string         `json:"nodes" yaml:"nodes"`                     // Entity keys
	Edges []DependencyEdge `json:"edges" yaml:"edges"`                     // References between them
	Order []string         `json:"order,omitempty" yaml:"order,omitempty"` // Creation order, empty when cyclic
}

// DependencyEdge is a reference from one entity to another.
type DependencyEdge struct {
	From         string `json:"from" yaml:"from"`                 // Referencing entity
	To           string `json:"to" yaml:"to"`                     // Referenced entity
	Relationship string `json:"relationship" yaml:"relationship"` // Field kind
	Field        string `json:"field" yaml:"field"`               // Field name
}
