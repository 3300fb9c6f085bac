package duckduckgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariants_Order(t *testing.T) {
	t.Parallel()

	got := Variants("Acme")
	assert.Equal(t, []string{"Acme", "Acme company", "Acme corporation"}, got)
}

func TestVariants_TrimsWhitespace(t *testing.T) {
	t.Parallel()

	got := Variants("  Acme  ")
	assert.Equal(t, []string{"Acme", "Acme company", "Acme corporation"}, got)
}
