package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/manifold/pkg/apps"
	mferrors "github.com/conduit-lang/manifold/pkg/errors"
	"github.com/conduit-lang/manifold/pkg/orm/schema"
	"github.com/conduit-lang/manifold/pkg/web/router"
	"github.com/conduit-lang/manifold/runtime/metadata"
)

type Invoice struct{}
type Customer struct{}

const shopConfig = `
project_name: shop
installed_components:
  - shop.billing
  - shop.billing.invoices
  - shop.customers
server:
  root_path: /api
databases:
  default:
    url: "sqlite::memory:"
`

func shopCatalog() *apps.Catalog {
	c := apps.NewCatalog()
	c.MustRegister(&apps.Namespace{
		Path: "shop.billing",
		Dirs: []string{"/src/shop/billing"},
		Exports: map[string]any{
			"routes": router.Routes{{
				Method:  http.MethodGet,
				Pattern: "/invoices",
				Name:    "invoice-list",
				Handler: func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, "[]") },
			}},
		},
	})
	c.MustRegister(&apps.Namespace{
		Path: "shop.billing.invoices",
		Dirs: []string{"/src/shop/billing/invoices"},
		Models: func(m *apps.Models) error {
			_, err := m.Define(schema.Declare[Invoice](
				schema.DecimalField("total"),
				schema.ForeignKey("customer", "customers.Customer"),
			))
			return err
		},
	})
	c.MustRegister(&apps.Namespace{
		Path: "shop.customers",
		Dirs: []string{"/src/shop/customers"},
		Models: func(m *apps.Models) error {
			_, err := m.Define(schema.Declare[Customer](schema.CharField("name", 100)))
			return err
		},
	})
	return c
}

// newTestCommand builds the root command against a temporary config file
func newTestCommand(t *testing.T, importer apps.Importer, config string, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")

	path := filepath.Join(t.TempDir(), "manifold.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0644))

	cmd := NewRootCommand(importer)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", path, "--no-color"}, args...))
	return cmd, &out
}

func execute(t *testing.T, importer apps.Importer, config string, args ...string) (string, error) {
	t.Helper()
	cmd, out := newTestCommand(t, importer, config, args...)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand(shopCatalog())
	assert.Equal(t, "manifold", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"version", "check", "inspect", "schema", "routes", "run", "completion"} {
		assert.Contains(t, names, expected)
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GoVersion = "go1.23"

	out, err := execute(t, shopCatalog(), shopConfig, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "manifold version: 1.0.0-test")
	assert.Contains(t, out, "Framework version: "+apps.Version)
	assert.Contains(t, out, "Go version: go1.23")
}

func TestCheckCommand(t *testing.T) {
	out, err := execute(t, shopCatalog(), shopConfig, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 3 components, 2 entities ready")
}

func TestCheckCommandReportsRelations(t *testing.T) {
	c := apps.NewCatalog()
	c.MustRegister(&apps.Namespace{
		Path: "shop.invoices",
		Dirs: []string{"/src/shop/invoices"},
		Models: func(m *apps.Models) error {
			_, err := m.Define(schema.Declare[Invoice](schema.ForeignKey("customer", "customers.Customer")))
			return err
		},
	})

	_, err := execute(t, c, "installed_components: [shop.invoices]\n", "check")
	require.Error(t, err)
	assert.True(t, errors.Is(err, mferrors.ErrConfiguration))
	assert.Contains(t, err.Error(), "unknown target")
}

func TestCheckCommandResolutionFailure(t *testing.T) {
	_, err := execute(t, shopCatalog(), "installed_components: [shop.shipping]\n", "check")
	assert.True(t, errors.Is(err, mferrors.ErrResolution))
}

func TestInspectCommand(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		out, err := execute(t, shopCatalog(), shopConfig, "inspect")
		require.NoError(t, err)
		assert.Contains(t, out, "Components")
		assert.Contains(t, out, "shop.billing.invoices")
		assert.Contains(t, out, "invoices.invoice")
		assert.Contains(t, out, "customers.customer")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, shopCatalog(), shopConfig, "inspect", "--format", "json")
		require.NoError(t, err)

		var m metadata.Manifest
		require.NoError(t, json.Unmarshal([]byte(out), &m))
		assert.Len(t, m.Components, 3)
		assert.Len(t, m.Entities, 2)
		require.Len(t, m.Routes, 1)
		assert.Equal(t, "/api/billing/invoices", m.Routes[0].Path)
	})

	t.Run("component", func(t *testing.T) {
		out, err := execute(t, shopCatalog(), shopConfig, "inspect", "billing", "--format", "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "label: billing")
		assert.Contains(t, out, "- routes")
	})

	t.Run("entity", func(t *testing.T) {
		out, err := execute(t, shopCatalog(), shopConfig, "inspect", "invoices.Invoice")
		require.NoError(t, err)
		assert.Contains(t, out, "invoices_invoice")
		assert.Contains(t, out, "customer_id")
		assert.Contains(t, out, "customers.customer")
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, err := execute(t, shopCatalog(), shopConfig, "inspect", "invoices.Invoce")
		require.Error(t, err)
		assert.True(t, errors.Is(err, mferrors.ErrLookup))

		var le lookupError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, []string{"invoices.invoice"}, le.suggestions)
	})

	t.Run("unknown component", func(t *testing.T) {
		_, err := execute(t, shopCatalog(), shopConfig, "inspect", "biling")
		var le lookupError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, []string{"billing"}, le.suggestions)
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := execute(t, shopCatalog(), shopConfig, "inspect", "--format", "xml")
		assert.Error(t, err)
	})
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, shopCatalog(), shopConfig, "schema")
	require.NoError(t, err)

	customers := strings.Index(out, `CREATE TABLE IF NOT EXISTS "customers_customer"`)
	invoices := strings.Index(out, `CREATE TABLE IF NOT EXISTS "invoices_invoice"`)
	require.True(t, customers >= 0 && invoices >= 0, out)
	assert.Less(t, customers, invoices)
	assert.Contains(t, out, "AUTOINCREMENT")

	out, err = execute(t, shopCatalog(), shopConfig, "schema", "--dialect", "postgres")
	require.NoError(t, err)
	assert.Contains(t, out, `"id" SERIAL NOT NULL PRIMARY KEY`)

	_, err = execute(t, shopCatalog(), shopConfig, "schema", "--dialect", "oracle")
	assert.Error(t, err)
}

func TestSchemaCommandDrop(t *testing.T) {
	out, err := execute(t, shopCatalog(), shopConfig, "schema", "--drop", "--dialect", "postgres")
	require.NoError(t, err)
	assert.Equal(t, `DROP TABLE IF EXISTS "invoices_invoice" CASCADE;`+"\n\n"+
		`DROP TABLE IF EXISTS "customers_customer" CASCADE;`+"\n", out)
}

func TestSchemaCommandApply(t *testing.T) {
	out, err := execute(t, shopCatalog(), shopConfig, "schema", "--apply")
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "cgo") {
		t.Skip("sqlite3 driver needs cgo")
	}
	require.NoError(t, err)
	assert.Contains(t, out, "✓ tables created")

	out, err = execute(t, shopCatalog(), shopConfig, "schema", "--drop", "--apply")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ tables dropped")
}

func TestRoutesCommand(t *testing.T) {
	out, err := execute(t, shopCatalog(), shopConfig, "routes")
	require.NoError(t, err)
	assert.Contains(t, out, "METHOD")
	assert.Contains(t, out, "/api/billing/invoices")
	assert.Contains(t, out, "invoice-list")

	out, err = execute(t, shopCatalog(), shopConfig, "routes", "--method", "post")
	require.NoError(t, err)
	assert.Contains(t, out, "No routes found")

	out, err = execute(t, shopCatalog(), shopConfig, "routes", "--format", "json")
	require.NoError(t, err)
	var routes []metadata.RouteMetadata
	require.NoError(t, json.Unmarshal([]byte(out), &routes))
	require.Len(t, routes, 1)
	assert.Equal(t, "billing", routes[0].Component)
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, shopCatalog(), shopConfig, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "manifold")
}

func TestConfigErrors(t *testing.T) {
	_, err := execute(t, shopCatalog(), "log:\n  level: loud\n", "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}
