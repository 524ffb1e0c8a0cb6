package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		wantErr bool
	}{
		{in: "refresh", want: Command{Name: Refresh, Args: []string{}}},
		{in: "  Category  prescription ", want: Command{Name: Category, Args: []string{"prescription"}}},
		{in: "q", want: Command{Name: Quit, Args: []string{}}},
		{in: "settings", want: Command{Name: Prefs, Args: []string{}}},
		{in: "frobnicate", wantErr: true},
		{in: "   ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArg(t *testing.T) {
	c := Command{Name: Priority, Args: []string{"urgent"}}
	assert.Equal(t, "urgent", c.Arg(0))
	assert.Equal(t, "", c.Arg(1))
}

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestEnterEmitsCommand(t *testing.T) {
	m := typeText(New(80, 20), "priority high")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Name: Priority, Args: []string{"high"}}, cmd())
	assert.Empty(t, m.input.Value())
}

func TestUnknownCommandShownInline(t *testing.T) {
	m := typeText(New(80, 20), "nope")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, ansi.Strip(m.View()), `unknown command "nope"`)
	assert.Equal(t, "nope", m.input.Value(), "input kept for correction")
}
