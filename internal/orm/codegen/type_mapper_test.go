package codegen

import (
	"testing"

	"github.com/conduit-lang/manifold/pkg/orm/schema"
)

func TestTypeMapper_MapType(t *testing.T) {
	tests := []struct {
		name     string
		field    *schema.Field
		postgres string
		sqlite   string
	}{
		{"bounded string", schema.CharField("code", 10), "VARCHAR(10)", "VARCHAR(10)"},
		{"default string", schema.CharField("code", 0), "VARCHAR(255)", "VARCHAR(255)"},
		{"text", schema.TextField("body"), "TEXT", "TEXT"},
		{"int", schema.IntField("n"), "INTEGER", "INTEGER"},
		{"bigint", schema.BigIntField("n"), "BIGINT", "INTEGER"},
		{"decimal", schema.DecimalField("total"), "NUMERIC", "NUMERIC"},
		{"bool", schema.BoolField("paid"), "BOOLEAN", "BOOLEAN"},
		{"timestamp", schema.TimestampField("at"), "TIMESTAMP WITH TIME ZONE", "DATETIME"},
		{"uuid", schema.UUIDField("ref"), "UUID", "TEXT"},
	}

	pg := NewTypeMapper(Postgres)
	lite := NewTypeMapper(SQLite)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pg.MapType(tt.field)
			if err != nil {
				t.Fatalf("MapType() error = %v", err)
			}
			if got != tt.postgres {
				t.Errorf("postgres: expected %s, got %s", tt.postgres, got)
			}

			got, err = lite.MapType(tt.field)
			if err != nil {
				t.Fatalf("MapType() error = %v", err)
			}
			if got != tt.sqlite {
				t.Errorf("sqlite: expected %s, got %s", tt.sqlite, got)
			}
		})
	}
}

func TestTypeMapper_MapTypeRejectsRelations(t *testing.T) {
	if _, err := NewTypeMapper(Postgres).MapType(schema.ForeignKey("customer", "Customer")); err == nil {
		t.Error("expected error for relation field")
	}
	if _, err := NewTypeMapper(Postgres).MapType(nil); err == nil {
		t.Error("expected error for nil field")
	}
}

func TestTypeMapper_MapGeneratedKey(t *testing.T) {
	typ, clause, ok := NewTypeMapper(Postgres).MapGeneratedKey(schema.IntField("id"))
	if !ok || typ != "SERIAL" || clause != "PRIMARY KEY" {
		t.Errorf("unexpected postgres key: %s %s %v", typ, clause, ok)
	}

	typ, clause, ok = NewTypeMapper(SQLite).MapGeneratedKey(schema.IntField("id"))
	if !ok || typ != "INTEGER" || clause != "PRIMARY KEY AUTOINCREMENT" {
		t.Errorf("unexpected sqlite key: %s %s %v", typ, clause, ok)
	}

	if _, _, ok := NewTypeMapper(SQLite).MapGeneratedKey(schema.UUIDField("id")); ok {
		t.Error("sqlite cannot generate uuid keys")
	}
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{
		"postgres":   Postgres,
		"postgresql": Postgres,
		"pgx":        Postgres,
		"sqlite":     SQLite,
		"SQLite3":    SQLite,
	} {
		got, err := ParseDialect(in)
		if err != nil || got != want {
			t.Errorf("ParseDialect(%q) = %v, %v", in, got, err)
		}
	}

	if _, err := ParseDialect("oracle"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

func TestQuoteIdentifier(t *testing.T) {
	if got := QuoteIdentifier(`weird"name`); got != `"weird""name"` {
		t.Errorf("unexpected quoting: %s", got)
	}
}
