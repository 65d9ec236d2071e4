package codegen

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/manifold/pkg/orm/schema"
)

// DDLGenerator generates DDL statements from entity metadata
type DDLGenerator struct {
	typeMapper *TypeMapper
}

// NewDDLGenerator creates a new DDL generator
func NewDDLGenerator(dialect Dialect) *DDLGenerator {
	return &DDLGenerator{
		typeMapper: NewTypeMapper(dialect),
	}
}

// Dialect returns the dialect statements are generated for
func (g *DDLGenerator) Dialect() Dialect {
	return g.typeMapper.dialect
}

// GenerateCreateTable generates a CREATE TABLE statement for an entity.
// Foreign key columns take the type of the target's primary key, so every
// target must be registered.
func (g *DDLGenerator) GenerateCreateTable(m *schema.Metadata) (string, error) {
	if m == nil {
		return "", fmt.Errorf("entity cannot be nil")
	}
	if m.Abstract {
		return "", fmt.Errorf("%s is an abstract field set and has no table", m.EntityName)
	}

	columns := g.orderColumns(m)

	columnDefs := make([]string, 0, len(columns))
	for _, field := range columns {
		def, err := g.generateColumnDefinition(m, field)
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", m.Key(), field.Name, err)
		}
		columnDefs = append(columnDefs, def)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", QuoteIdentifier(m.Table))
	for i, def := range columnDefs {
		b.WriteString("  ")
		b.WriteString(def)
		if i < len(columnDefs)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")

	return b.String(), nil
}

// orderColumns puts the primary key first and keeps declaration order otherwise
func (g *DDLGenerator) orderColumns(m *schema.Metadata) []*schema.Field {
	columns := m.Columns()
	ordered := make([]*schema.Field, 0, len(columns))
	for _, f := range columns {
		if f.PrimaryKey {
			ordered = append(ordered, f)
		}
	}
	for _, f := range columns {
		if !f.PrimaryKey {
			ordered = append(ordered, f)
		}
	}
	return ordered
}

// generateColumnDefinition generates a column definition for a field
func (g *DDLGenerator) generateColumnDefinition(m *schema.Metadata, field *schema.Field) (string, error) {
	parts := []string{QuoteIdentifier(field.Column())}

	if field.IsRelation() {
		return g.generateReferenceColumn(m, field, parts)
	}

	if field.PrimaryKey && field.Generated {
		columnType, clause, ok := g.typeMapper.MapGeneratedKey(field)
		if !ok {
			return "", fmt.Errorf("%s cannot generate %s primary keys", g.typeMapper.dialect, field.Type)
		}
		parts = append(parts, columnType, "NOT NULL", clause)
		return strings.Join(parts, " "), nil
	}

	columnType, err := g.typeMapper.MapType(field)
	if err != nil {
		return "", fmt.Errorf("mapping type: %w", err)
	}
	parts = append(parts, columnType, g.typeMapper.MapNullability(field))

	if field.Generated && field.Type == schema.TypeTimestamp {
		parts = append(parts, "DEFAULT CURRENT_TIMESTAMP")
	}
	if field.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	} else if field.Unique {
		parts = append(parts, "UNIQUE")
	}

	return strings.Join(parts, " "), nil
}

// generateReferenceColumn generates the column of a foreign key or one-to-one field
func (g *DDLGenerator) generateReferenceColumn(m *schema.Metadata, field *schema.Field, parts []string) (string, error) {
	target, err := m.ResolveRelation(field.Name)
	if err != nil {
		return "", err
	}
	pk := target.PrimaryKeyField()
	if pk == nil {
		return "", fmt.Errorf("target %s has no primary key", target.Key())
	}

	columnType, err := g.typeMapper.MapType(pk)
	if err != nil {
		return "", fmt.Errorf("mapping target key type: %w", err)
	}
	parts = append(parts, columnType, g.typeMapper.MapNullability(field))

	if field.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	} else if field.Unique {
		parts = append(parts, "UNIQUE")
	}

	onDelete := field.OnDelete
	if field.Nullable && onDelete == schema.CascadeRestrict {
		onDelete = schema.CascadeSetNull
	}
	parts = append(parts, fmt.Sprintf("REFERENCES %s (%s) ON DELETE %s",
		QuoteIdentifier(target.Table),
		QuoteIdentifier(pk.Column()),
		g.typeMapper.MapCascade(onDelete)))

	return strings.Join(parts, " "), nil
}

// GenerateJoinTables generates the join tables of an entity's many-to-many fields
func (g *DDLGenerator) GenerateJoinTables(m *schema.Metadata) ([]string, error) {
	var tables []string

	for _, name := range m.FieldsOfKind(schema.KindManyToMany) {
		target, err := m.ResolveRelation(name)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", m.Key(), name, err)
		}

		source := m.PrimaryKeyField()
		targetPK := target.PrimaryKeyField()
		if source == nil || targetPK == nil {
			return nil, fmt.Errorf("%s.%s: both sides of a many-to-many need a primary key", m.Key(), name)
		}

		sourceType, err := g.typeMapper.MapType(source)
		if err != nil {
			return nil, err
		}
		targetType, err := g.typeMapper.MapType(targetPK)
		if err != nil {
			return nil, err
		}

		sourceCol := m.EntityName + "_id"
		targetCol := target.EntityName + "_id"
		if sourceCol == targetCol {
			targetCol = name + "_id"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", QuoteIdentifier(m.Table+"_"+name))
		fmt.Fprintf(&b, "  %s %s NOT NULL REFERENCES %s (%s) ON DELETE CASCADE,\n",
			QuoteIdentifier(sourceCol), sourceType, QuoteIdentifier(m.Table), QuoteIdentifier(source.Column()))
		fmt.Fprintf(&b, "  %s %s NOT NULL REFERENCES %s (%s) ON DELETE CASCADE,\n",
			QuoteIdentifier(targetCol), targetType, QuoteIdentifier(target.Table), QuoteIdentifier(targetPK.Column()))
		fmt.Fprintf(&b, "  PRIMARY KEY (%s, %s)\n", QuoteIdentifier(sourceCol), QuoteIdentifier(targetCol))
		b.WriteString(");")

		tables = append(tables, b.String())
	}

	return tables, nil
}

// GenerateSchema generates the complete DDL for models, which must already be
// in dependency order: every table first, then the join tables
func (g *DDLGenerator) GenerateSchema(models []*schema.Metadata) ([]string, error) {
	var statements []string
	var joins []string

	for _, m := range models {
		createTable, err := g.GenerateCreateTable(m)
		if err != nil {
			return nil, err
		}
		statements = append(statements, createTable)

		tables, err := g.GenerateJoinTables(m)
		if err != nil {
			return nil, err
		}
		joins = append(joins, tables...)
	}

	return append(statements, joins...), nil
}

// GenerateDropTable generates a DROP TABLE statement
func (g *DDLGenerator) GenerateDropTable(m *schema.Metadata) string {
	return g.dropTable(m.Table)
}

// GenerateDropSchema drops everything GenerateSchema creates for models,
// given in dependency order: join tables first, then the tables in reverse
func (g *DDLGenerator) GenerateDropSchema(models []*schema.Metadata) []string {
	var statements []string
	for _, m := range models {
		for _, name := range m.FieldsOfKind(schema.KindManyToMany) {
			statements = append(statements, g.dropTable(m.Table+"_"+name))
		}
	}
	for i := len(models) - 1; i >= 0; i-- {
		if !models[i].Abstract {
			statements = append(statements, g.GenerateDropTable(models[i]))
		}
	}
	return statements
}

func (g *DDLGenerator) dropTable(table string) string {
	if g.typeMapper.dialect == SQLite {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s;", QuoteIdentifier(table))
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", QuoteIdentifier(table))
}
