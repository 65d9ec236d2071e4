package codegen

import (
	"strings"
	"testing"

	"github.com/conduit-lang/manifold/pkg/orm/schema"
)

type Customer struct{}
type Invoice struct{}
type Tag struct{}

// shopModels registers customers.customer, billing.invoice and billing.tag
func shopModels(t *testing.T) *schema.Registry {
	t.Helper()

	models := schema.NewRegistry(nil)
	b := schema.NewBuilder(nil, models)

	register := func(label string, def *schema.Definition) {
		def.Label = label
		if _, err := b.Register(def); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	register("billing", schema.Declare[Invoice](
		schema.ForeignKey("customer", "customers.Customer", schema.OnDelete(schema.CascadeCascade)),
		schema.ForeignKey("referrer", "customers.Customer", schema.Null()),
		schema.DecimalField("total"),
		schema.ManyToMany("tags", "Tag"),
	))
	register("customers", schema.Declare[Customer](
		schema.CharField("email", 200, schema.Unique()),
		schema.TimestampField("created_at", schema.Generated()),
	))
	register("billing", schema.Declare[Tag](
		schema.CharField("name", 50, schema.PrimaryKey()),
	))

	return models
}

func TestDDLGenerator_GenerateCreateTable(t *testing.T) {
	models := shopModels(t)
	customer, _ := models.Get("customers", "customer")
	invoice, _ := models.Get("billing", "invoice")

	t.Run("postgres", func(t *testing.T) {
		gen := NewDDLGenerator(Postgres)

		result, err := gen.GenerateCreateTable(customer)
		if err != nil {
			t.Fatalf("GenerateCreateTable() error = %v", err)
		}

		expected := []string{
			`CREATE TABLE IF NOT EXISTS "customers_customer"`,
			`"id" SERIAL NOT NULL PRIMARY KEY`,
			`"email" VARCHAR(200) NOT NULL UNIQUE`,
			`"created_at" TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP`,
		}
		for _, exp := range expected {
			if !strings.Contains(result, exp) {
				t.Errorf("GenerateCreateTable() missing %q\nGot:\n%s", exp, result)
			}
		}

		result, err = gen.GenerateCreateTable(invoice)
		if err != nil {
			t.Fatalf("GenerateCreateTable() error = %v", err)
		}
		expected = []string{
			`"customer_id" INTEGER NOT NULL REFERENCES "customers_customer" ("id") ON DELETE CASCADE`,
			`"referrer_id" INTEGER NULL REFERENCES "customers_customer" ("id") ON DELETE SET NULL`,
			`"total" NUMERIC NOT NULL`,
		}
		for _, exp := range expected {
			if !strings.Contains(result, exp) {
				t.Errorf("GenerateCreateTable() missing %q\nGot:\n%s", exp, result)
			}
		}
		if strings.Contains(result, "tags") {
			t.Errorf("many-to-many fields have no column\nGot:\n%s", result)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		result, err := NewDDLGenerator(SQLite).GenerateCreateTable(customer)
		if err != nil {
			t.Fatalf("GenerateCreateTable() error = %v", err)
		}
		if !strings.Contains(result, `"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT`) {
			t.Errorf("unexpected sqlite key\nGot:\n%s", result)
		}
	})

	t.Run("abstract field sets have no table", func(t *testing.T) {
		set := schema.MustFieldSet("timestamped", schema.TimestampField("created_at"))
		if _, err := NewDDLGenerator(Postgres).GenerateCreateTable(set); err == nil {
			t.Error("expected error")
		}
	})
}

func TestDDLGenerator_UnresolvedTarget(t *testing.T) {
	models := schema.NewRegistry(nil)
	def := schema.Declare[Invoice](schema.ForeignKey("customer", "customers.Customer"))
	def.Label = "billing"
	invoice, err := schema.NewBuilder(nil, models).Register(def)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = NewDDLGenerator(Postgres).GenerateCreateTable(invoice)
	if err == nil || !strings.Contains(err.Error(), "billing.invoice.customer") {
		t.Errorf("expected unresolved target error, got %v", err)
	}
}

func TestDDLGenerator_GenerateJoinTables(t *testing.T) {
	models := shopModels(t)
	invoice, _ := models.Get("billing", "invoice")

	tables, err := NewDDLGenerator(Postgres).GenerateJoinTables(invoice)
	if err != nil {
		t.Fatalf("GenerateJoinTables() error = %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("expected 1 join table, got %d", len(tables))
	}

	expected := []string{
		`CREATE TABLE IF NOT EXISTS "billing_invoice_tags"`,
		`"invoice_id" INTEGER NOT NULL REFERENCES "billing_invoice" ("id") ON DELETE CASCADE`,
		`"tag_id" VARCHAR(50) NOT NULL REFERENCES "billing_tag" ("name") ON DELETE CASCADE`,
		`PRIMARY KEY ("invoice_id", "tag_id")`,
	}
	for _, exp := range expected {
		if !strings.Contains(tables[0], exp) {
			t.Errorf("GenerateJoinTables() missing %q\nGot:\n%s", exp, tables[0])
		}
	}
}

func TestDDLGenerator_GenerateSchema(t *testing.T) {
	models := shopModels(t)
	ordered, err := models.DependencyOrder()
	if err != nil {
		t.Fatalf("DependencyOrder() error = %v", err)
	}

	statements, err := NewDDLGenerator(SQLite).GenerateSchema(ordered)
	if err != nil {
		t.Fatalf("GenerateSchema() error = %v", err)
	}
	if len(statements) != 4 {
		t.Fatalf("expected 3 tables and 1 join table, got %d", len(statements))
	}

	customerAt, invoiceAt := -1, -1
	for i, stmt := range statements {
		switch {
		case strings.Contains(stmt, `"customers_customer" (`+"\n"):
			customerAt = i
		case strings.Contains(stmt, `"billing_invoice" (`+"\n"):
			invoiceAt = i
		}
	}
	if customerAt < 0 || invoiceAt < 0 || customerAt > invoiceAt {
		t.Errorf("customer table must precede invoice table: %d, %d", customerAt, invoiceAt)
	}
	if !strings.Contains(statements[3], "billing_invoice_tags") {
		t.Errorf("join tables come last, got %s", statements[3])
	}
}

func TestDDLGenerator_GenerateDropTable(t *testing.T) {
	models := shopModels(t)
	customer, _ := models.Get("customers", "customer")

	if got := NewDDLGenerator(Postgres).GenerateDropTable(customer); got != `DROP TABLE IF EXISTS "customers_customer" CASCADE;` {
		t.Errorf("unexpected: %s", got)
	}
	if got := NewDDLGenerator(SQLite).GenerateDropTable(customer); got != `DROP TABLE IF EXISTS "customers_customer";` {
		t.Errorf("unexpected: %s", got)
	}
}

func TestDDLGenerator_GenerateDropSchema(t *testing.T) {
	models := shopModels(t)
	ordered, err := models.DependencyOrder()
	if err != nil {
		t.Fatalf("DependencyOrder() error = %v", err)
	}

	gen := NewDDLGenerator(SQLite)
	if gen.Dialect() != SQLite {
		t.Errorf("expected sqlite dialect, got %s", gen.Dialect())
	}

	statements := gen.GenerateDropSchema(ordered)
	if len(statements) != 4 {
		t.Fatalf("expected 4 statements, got %d: %v", len(statements), statements)
	}
	if statements[0] != `DROP TABLE IF EXISTS "billing_invoice_tags";` {
		t.Errorf("join tables are dropped first, got %s", statements[0])
	}

	invoiceAt, customerAt := -1, -1
	for i, stmt := range statements {
		switch stmt {
		case `DROP TABLE IF EXISTS "billing_invoice";`:
			invoiceAt = i
		case `DROP TABLE IF EXISTS "customers_customer";`:
			customerAt = i
		}
	}
	if invoiceAt < 0 || customerAt < 0 || invoiceAt > customerAt {
		t.Errorf("invoice table must be dropped before customer table: %d, %d", invoiceAt, customerAt)
	}
}
