package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKind(t *testing.T) {
	err := Resolution("shop.billing", "cannot import namespace")
	wrapped := fmt.Errorf("bootstrap: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrResolution))
	assert.False(t, stderrors.Is(wrapped, ErrConfiguration))

	var target *Error
	assert.True(t, stderrors.As(wrapped, &target))
	assert.Equal(t, "shop.billing", target.Subject)
}

func TestErrorMatchesCause(t *testing.T) {
	cause := stderrors.New("file not found")
	err := Configuration("billing", "bad settings").WithCause(cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, stderrors.Is(err, ErrConfiguration))
	assert.Contains(t, err.Error(), "file not found")
}

func TestErrorFormatting(t *testing.T) {
	err := Resolution("shop", "has no filesystem location").
		WithHint("set Path() on the component config")

	assert.Equal(t,
		"resolution error: shop: has no filesystem location\n  hint: set Path() on the component config",
		err.Error())

	assert.Equal(t, "not ready: components aren't loaded yet", NotReady("components").Error())
}

func TestDuplicateLabel(t *testing.T) {
	err := DuplicateLabel("billing")
	assert.True(t, stderrors.Is(err, ErrDuplicateLabel))
	assert.Contains(t, err.Error(), `"billing"`)
	assert.NotEmpty(t, err.Hint)
}

func TestJoin(t *testing.T) {
	assert.NoError(t, Join(ErrConfiguration, "x", nil))

	err := Join(ErrConfiguration, "shop.Invoice", []string{"a", "b"})
	assert.True(t, stderrors.Is(err, ErrConfiguration))
	assert.Contains(t, err.Error(), "2 problem(s):\n- a\n- b")
}
