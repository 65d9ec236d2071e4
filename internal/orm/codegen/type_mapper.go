// Package codegen provides code generation for database schema DDL.
// It transforms entity metadata into CREATE TABLE statements for the
// supported SQL dialects.
package codegen

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/manifold/pkg/orm/schema"
)

// Dialect selects the SQL flavour DDL is generated for
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// String returns the string representation of the dialect
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// ParseDialect converts an engine or dialect name to a Dialect
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unknown SQL dialect: %s", s)
	}
}

// TypeMapper maps field types to column types of one dialect
type TypeMapper struct {
	dialect Dialect
}

// NewTypeMapper creates a new TypeMapper
func NewTypeMapper(dialect Dialect) *TypeMapper {
	return &TypeMapper{dialect: dialect}
}

// MapType converts a scalar field's storage type to a column type
func (tm *TypeMapper) MapType(field *schema.Field) (string, error) {
	if field == nil {
		return "", fmt.Errorf("field cannot be nil")
	}
	if field.IsRelation() {
		return "", fmt.Errorf("relation field %s has no storage type of its own", field.Name)
	}

	if tm.dialect == SQLite {
		return tm.mapSQLiteType(field)
	}
	return tm.mapPostgresType(field)
}

// mapPostgresType maps a primitive type to PostgreSQL
func (tm *TypeMapper) mapPostgresType(field *schema.Field) (string, error) {
	switch field.Type {
	case schema.TypeString:
		if field.MaxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", field.MaxLength), nil
		}
		return "VARCHAR(255)", nil // Default length

	case schema.TypeText:
		return "TEXT", nil

	case schema.TypeInt:
		return "INTEGER", nil

	case schema.TypeBigInt:
		return "BIGINT", nil

	case schema.TypeFloat:
		return "DOUBLE PRECISION", nil

	case schema.TypeDecimal:
		return "NUMERIC", nil

	case schema.TypeBool:
		return "BOOLEAN", nil

	case schema.TypeTimestamp:
		return "TIMESTAMP WITH TIME ZONE", nil

	case schema.TypeDate:
		return "DATE", nil

	case schema.TypeUUID:
		return "UUID", nil

	case schema.TypeJSON:
		return "JSONB", nil

	default:
		return "", fmt.Errorf("unsupported type: %s", field.Type)
	}
}

// mapSQLiteType maps a primitive type to a SQLite column type. SQLite only
// cares about type affinity, so the declared names stay close to the
// PostgreSQL ones where the affinity matches.
func (tm *TypeMapper) mapSQLiteType(field *schema.Field) (string, error) {
	switch field.Type {
	case schema.TypeString:
		if field.MaxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", field.MaxLength), nil
		}
		return "VARCHAR(255)", nil
	case schema.TypeText, schema.TypeUUID, schema.TypeJSON:
		return "TEXT", nil
	case schema.TypeInt, schema.TypeBigInt:
		return "INTEGER", nil
	case schema.TypeFloat:
		return "REAL", nil
	case schema.TypeDecimal:
		return "NUMERIC", nil
	case schema.TypeBool:
		return "BOOLEAN", nil
	case schema.TypeTimestamp:
		return "DATETIME", nil
	case schema.TypeDate:
		return "DATE", nil
	default:
		return "", fmt.Errorf("unsupported type: %s", field.Type)
	}
}

// MapNullability returns the NULL/NOT NULL constraint for a field
func (tm *TypeMapper) MapNullability(field *schema.Field) string {
	if field.Nullable {
		return "NULL"
	}
	return "NOT NULL"
}

// MapGeneratedKey returns the column type and trailing clause for a
// generated primary key. ok is false when the dialect cannot generate
// values of the field's type.
func (tm *TypeMapper) MapGeneratedKey(field *schema.Field) (columnType, clause string, ok bool) {
	switch tm.dialect {
	case SQLite:
		if field.Type == schema.TypeInt || field.Type == schema.TypeBigInt {
			return "INTEGER", "PRIMARY KEY AUTOINCREMENT", true
		}
	default:
		switch field.Type {
		case schema.TypeInt:
			return "SERIAL", "PRIMARY KEY", true
		case schema.TypeBigInt:
			return "BIGSERIAL", "PRIMARY KEY", true
		case schema.TypeUUID:
			return "UUID", "DEFAULT gen_random_uuid() PRIMARY KEY", true
		}
	}
	return "", "", false
}

// MapCascade converts a cascade action to its ON DELETE clause value
func (tm *TypeMapper) MapCascade(action schema.CascadeAction) string {
	switch action {
	case schema.CascadeCascade:
		return "CASCADE"
	case schema.CascadeSetNull:
		return "SET NULL"
	case schema.CascadeNoAction:
		return "NO ACTION"
	default:
		return "RESTRICT"
	}
}

// QuoteIdentifier quotes a SQL identifier (table name, column name, etc.)
// to prevent SQL injection and handle reserved words
func QuoteIdentifier(identifier string) string {
	// Escape internal double quotes by doubling them
	escaped := strings.ReplaceAll(identifier, `"`, `""`)
	return fmt.Sprintf(`"%s"`, escaped)
}
