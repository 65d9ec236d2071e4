package apps

import (
	"context"
	"sync"

	"github.com/conduit-lang/manifold/pkg/orm/schema"
)

type BillingConfig struct {
	BaseConfig
}

type Invoice struct{}
type Customer struct{}

// hookConfig records its ready hook calls into a shared recorder
type hookConfig struct {
	BaseConfig
	rec    *recorder
	err    error
	cancel context.CancelFunc // called after recording, when set
}

func (c *hookConfig) Ready(_ context.Context, d *Descriptor) error {
	c.rec.add(d.Label())
	if c.cancel != nil {
		c.cancel()
	}
	return c.err
}

type versionedConfig struct {
	BaseConfig
	requires string
}

func (c *versionedConfig) Requires() string { return c.requires }

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// shopCatalog builds three components: billing, billing.invoices nested
// inside it, and customers. Invoices refer forward to customers.
func shopCatalog(rec *recorder) *Catalog {
	c := NewCatalog()

	c.MustRegister(&Namespace{
		Path:    "shop.billing",
		Dirs:    []string{"/src/shop/billing"},
		Configs: []Config{&hookConfig{BaseConfig: BaseConfig{ComponentName: "shop.billing"}, rec: rec}},
		Exports: map[string]any{"router": "billing routes"},
	})

	c.MustRegister(&Namespace{
		Path: "shop.billing.invoices",
		Dirs: []string{"/src/shop/billing/invoices", "/src/shop/billing/invoices"},
		Configs: []Config{&hookConfig{
			BaseConfig: BaseConfig{ComponentName: "shop.billing.invoices"},
			rec:        rec,
		}},
		Models: func(m *Models) error {
			return m.DefineAll(
				schema.Declare[Invoice](
					schema.DecimalField("total"),
					schema.ForeignKey("customer", "customers.Customer", schema.RelatedName("invoices")),
				),
			)
		},
	})

	c.MustRegister(&Namespace{
		Path:    "shop.customers",
		File:    "/src/shop/customers/customers.go",
		Configs: []Config{&hookConfig{BaseConfig: BaseConfig{ComponentName: "shop.customers"}, rec: rec}},
		Models: func(m *Models) error {
			_, err := m.Define(schema.Declare[Customer](
				schema.CharField("name", 100),
				schema.ReverseForeignKey("invoices", "invoices.Invoice"),
			))
			return err
		},
	})

	return c
}

var shopEntries = Modules("shop.billing", "shop.billing.invoices", "shop.customers")
