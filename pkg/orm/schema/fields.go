package schema

// FieldOption configures a Field at declaration time
type FieldOption func(*Field)

// PrimaryKey marks the field as the entity's primary key
func PrimaryKey() FieldOption {
	return func(f *Field) { f.PrimaryKey = true }
}

// Null marks the field as nullable
func Null() FieldOption {
	return func(f *Field) { f.Nullable = true }
}

// Generated marks the field as generated by the storage layer
func Generated() FieldOption {
	return func(f *Field) { f.Generated = true }
}

// Unique adds a uniqueness constraint to the field
func Unique() FieldOption {
	return func(f *Field) { f.Unique = true }
}

// Source overrides the physical storage name of the field
func Source(name string) FieldOption {
	return func(f *Field) { f.SourceName = name }
}

// RelatedName sets the accessor name exposed on the relation's target
func RelatedName(name string) FieldOption {
	return func(f *Field) { f.RelatedName = name }
}

// OnDelete sets the cascade action for a foreign key
func OnDelete(action CascadeAction) FieldOption {
	return func(f *Field) { f.OnDelete = action }
}

func newField(name string, kind FieldKind, typ PrimitiveType, opts []FieldOption) *Field {
	f := &Field{Name: name, Kind: kind, Type: typ}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func newRelation(name string, kind FieldKind, target string, opts []FieldOption) *Field {
	f := newField(name, kind, TypeInt, opts)
	f.Target = target
	return f
}

// IntField declares an integer scalar
func IntField(name string, opts ...FieldOption) *Field {
	return newField(name, KindScalar, TypeInt, opts)
}

// BigIntField declares a 64-bit integer scalar
func BigIntField(name string, opts ...FieldOption) *Field {
	return newField(name, KindScalar, TypeBigInt, opts)
}

// CharField declares a bounded string scalar
func CharField(name string, maxLength int, opts ...FieldOption) *Field {
	f := newField(name, KindScalar, TypeString, opts)
	f.MaxLength = maxLength
	return f
}

// TextField declares an unbounded text scalar
func TextField(name string, opts ...FieldOption) *Field {
	return newField(name, KindScalar, TypeText, opts)
}

// BoolField declares a boolean scalar
func BoolField(name string, opts ...FieldOption) *Field {
	return newField(name, KindScalar, TypeBool, opts)
}

// DecimalField declares a fixed precision numeric scalar
func DecimalField(name string, opts ...FieldOption) *Field {
	return newField(name, KindScalar, TypeDecimal, opts)
}

// TimestampField declares a timestamp scalar
func TimestampField(name string, opts ...FieldOption) *Field {
	return newField(name, KindScalar, TypeTimestamp, opts)
}

// UUIDField declares a UUID scalar
func UUIDField(name string, opts ...FieldOption) *Field {
	return newField(name, KindScalar, TypeUUID, opts)
}

// ForeignKey declares a many-to-one relation to target
func ForeignKey(name, target string, opts ...FieldOption) *Field {
	return newRelation(name, KindForeignKey, target, opts)
}

// ReverseForeignKey declares the one-to-many side of a ForeignKey living on target
func ReverseForeignKey(name, target string, opts ...FieldOption) *Field {
	return newRelation(name, KindReverseForeignKey, target, opts)
}

// ManyToMany declares a many-to-many relation through a join table
func ManyToMany(name, target string, opts ...FieldOption) *Field {
	return newRelation(name, KindManyToMany, target, opts)
}

// OneToOne declares a one-to-one relation to target
func OneToOne(name, target string, opts ...FieldOption) *Field {
	f := newRelation(name, KindOneToOne, target, opts)
	f.Unique = true
	return f
}

// ReverseOneToOne declares the back side of a OneToOne living on target
func ReverseOneToOne(name, target string, opts ...FieldOption) *Field {
	return newRelation(name, KindReverseOneToOne, target, opts)
}
