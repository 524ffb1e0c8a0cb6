package bell

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestBadgeLabel(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{-1, ""},
		{0, ""},
		{1, "1"},
		{42, "42"},
		{99, "99"},
		{100, "99+"},
		{5000, "99+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BadgeLabel(tt.n), "count %d", tt.n)
	}
}

func TestModel_ToggleAndView(t *testing.T) {
	m := New()
	assert.False(t, m.IsOpen())
	assert.NotContains(t, ansi.Strip(m.View()), "0")

	m.SetCount(120)
	assert.True(t, m.Toggle())
	assert.Contains(t, ansi.Strip(m.View()), "99+")
	assert.Contains(t, ansi.Strip(m.View()), "▾")

	m.Close()
	assert.False(t, m.IsOpen())
	assert.True(t, m.Toggle())
}
