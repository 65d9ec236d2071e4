package strings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Invoice", "invoice"},
		{"InvoiceLine", "invoice_line"},
		{"HTTPRequest", "http_request"},
		{"APIKey", "api_key"},
		{"ID", "id"},
		{"already_snake", "already_snake"},
		{"Item2Name", "item2name"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSnakeCase(tt.in))
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("billing"))
	assert.True(t, IsIdentifier("_private"))
	assert.True(t, IsIdentifier("v2"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier("2fa"))
	assert.False(t, IsIdentifier("invalid-label"))
	assert.False(t, IsIdentifier("has space"))
}

func TestLastSegmentAndSplitLast(t *testing.T) {
	assert.Equal(t, "invoices", LastSegment("shop.billing.invoices"))
	assert.Equal(t, "billing", LastSegment("billing"))

	head, tail, ok := SplitLast("shop.billing.config.BillingConfig")
	assert.True(t, ok)
	assert.Equal(t, "shop.billing.config", head)
	assert.Equal(t, "BillingConfig", tail)

	_, tail, ok = SplitLast("billing")
	assert.False(t, ok)
	assert.Equal(t, "billing", tail)
}

func TestHasDottedPrefix(t *testing.T) {
	assert.True(t, HasDottedPrefix("shop.billing", "shop.billing"))
	assert.True(t, HasDottedPrefix("shop.billing.models", "shop.billing"))
	assert.False(t, HasDottedPrefix("shop.billingx.models", "shop.billing"))
	assert.False(t, HasDottedPrefix("shop", "shop.billing"))
	assert.False(t, HasDottedPrefix("shop.billing", ""))
}

func TestProperty_SnakeCaseIsLowerAndIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[A-Z][A-Za-z0-9]{0,20}`).Draw(rt, "name")

		snake := ToSnakeCase(name)
		if snake != strings.ToLower(snake) {
			rt.Fatalf("ToSnakeCase(%q) = %q contains uppercase", name, snake)
		}
		if again := ToSnakeCase(snake); again != snake {
			rt.Fatalf("ToSnakeCase not idempotent: %q -> %q", snake, again)
		}
		if strings.ReplaceAll(snake, "_", "") != strings.ToLower(name) {
			rt.Fatalf("ToSnakeCase(%q) = %q changed letters", name, snake)
		}
	})
}
