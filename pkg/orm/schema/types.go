// Package schema builds and holds the structural metadata of entity
// declarations: field inventories, relation classification, primary keys and
// the owning component of each entity.
package schema

import (
	"fmt"
)

// PrimitiveType represents the storage type of a scalar field
type PrimitiveType int

const (
	// Text types
	TypeString PrimitiveType = iota
	TypeText

	// Numeric types
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDecimal

	// Boolean
	TypeBool

	// Time types
	TypeTimestamp
	TypeDate

	// Unique identifiers
	TypeUUID

	// JSON
	TypeJSON
)

// String returns the string representation of the primitive type
func (p PrimitiveType) String() string {
	switch p {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	case TypeDate:
		return "date"
	case TypeUUID:
		return "uuid"
	case TypeJSON:
		return "json"
	default:
		return "unknown"
	}
}

// FieldKind classifies a field as scalar or as one relation variant
type FieldKind int

const (
	KindScalar FieldKind = iota
	KindForeignKey
	KindReverseForeignKey
	KindManyToMany
	KindOneToOne
	KindReverseOneToOne
)

// String returns the string representation of the field kind
func (k FieldKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindForeignKey:
		return "foreign_key"
	case KindReverseForeignKey:
		return "reverse_foreign_key"
	case KindManyToMany:
		return "many_to_many"
	case KindOneToOne:
		return "one_to_one"
	case KindReverseOneToOne:
		return "reverse_one_to_one"
	default:
		return "unknown"
	}
}

// IsRelation returns true for every non-scalar kind
func (k FieldKind) IsRelation() bool {
	return k != KindScalar
}

// IsReverse returns true for the reverse relation variants
func (k FieldKind) IsReverse() bool {
	return k == KindReverseForeignKey || k == KindReverseOneToOne
}

// HasColumn returns true when fields of this kind are stored in the entity's
// own table. Reverse relations live on the other side and many-to-many in a
// join table.
func (k FieldKind) HasColumn() bool {
	return k == KindScalar || k == KindForeignKey || k == KindOneToOne
}

// CascadeAction represents cascade actions for foreign keys
type CascadeAction int

const (
	CascadeRestrict CascadeAction = iota
	CascadeCascade
	CascadeSetNull
	CascadeNoAction
)

// String returns the string representation of the cascade action
func (c CascadeAction) String() string {
	switch c {
	case CascadeRestrict:
		return "restrict"
	case CascadeCascade:
		return "cascade"
	case CascadeSetNull:
		return "set_null"
	case CascadeNoAction:
		return "no_action"
	default:
		return "unknown"
	}
}

// Field describes one declared attribute of an entity
type Field struct {
	Name       string
	Kind       FieldKind
	Type       PrimitiveType // storage type for scalar fields
	SourceName string        // physical column name, defaults to Name
	Nullable   bool
	Generated  bool
	PrimaryKey bool
	Unique     bool
	MaxLength  int // for TypeString; 0 means the dialect default

	// Relation configuration
	Target      string // "label.Entity" or "Entity" within the same component
	RelatedName string // accessor name on the target side
	OnDelete    CascadeAction
}

// IsRelation returns true if the field is one of the relation variants
func (f *Field) IsRelation() bool {
	return f.Kind.IsRelation()
}

// Column returns the physical storage name of the field
func (f *Field) Column() string {
	if f.SourceName != "" {
		return f.SourceName
	}
	if f.Kind == KindForeignKey || f.Kind == KindOneToOne {
		return f.Name + "_id"
	}
	return f.Name
}

// String returns a compact description such as "customer foreign_key(customers.Customer)?"
func (f *Field) String() string {
	s := f.Name + " "
	if f.IsRelation() {
		s += fmt.Sprintf("%s(%s)", f.Kind, f.Target)
	} else {
		s += f.Type.String()
	}
	if f.Nullable {
		s += "?"
	} else {
		s += "!"
	}
	if f.PrimaryKey {
		s += " @primary"
	}
	if f.Generated {
		s += " @generated"
	}
	return s
}

func (f *Field) clone() *Field {
	c := *f
	return &c
}

// equal compares the structural attributes of two fields
func (f *Field) equal(o *Field) bool {
	return *f == *o
}
