// Package prefs is the notification-preferences editor. Changes are kept
// locally until the user submits the form.
package prefs

import (
	"context"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/api"
	"github.com/nhle/notification-center/internal/classify"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/theme"
)

// Store loads and saves preferences.
type Store interface {
	GetPreferences(ctx context.Context) (model.Preferences, error)
	UpdatePreferences(ctx context.Context, prefs model.Preferences) error
}

// ClosedMsg is dispatched when the user leaves the editor.
type ClosedMsg struct{}

type loadedMsg struct {
	prefs model.Preferences
	err   error
}

type savedMsg struct {
	prefs model.Preferences
	err   error
}

type dismissMsg struct {
	seq int
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email      bool
	push       bool
	categories []string
}

// Model is the Bubble Tea model for the preferences editor.
type Model struct {
	store   Store
	form    *huh.Form
	fb      *formBindings
	dismiss time.Duration

	saved   model.Preferences
	loading bool
	saving  bool
	loadErr error

	message    string
	isError    bool
	fieldErrs  map[string]string
	messageSeq int

	width  int
	height int
}

// New creates the editor. A success message is cleared after dismiss.
func New(s Store, dismiss time.Duration, width, height int) Model {
	return Model{
		store:   s,
		fb:      &formBindings{},
		dismiss: dismiss,
		width:   width,
		height:  height,
	}
}

// Start loads the current preferences from the server.
func (m *Model) Start() tea.Cmd {
	m.loading = true
	m.loadErr = nil
	m.message = ""
	m.fieldErrs = nil
	m.form = nil
	s := m.store
	return func() tea.Msg {
		p, err := s.GetPreferences(context.Background())
		return loadedMsg{prefs: p, err: err}
	}
}

// Preferences returns the preferences as currently edited.
func (m Model) Preferences() model.Preferences {
	out := m.saved
	out.Categories = make(map[string]bool, len(model.KnownCategories))
	out.EmailEnabled = m.fb.email
	out.PushEnabled = m.fb.push
	for _, c := range model.KnownCategories {
		out.Categories[string(c)] = false
	}
	for _, c := range m.fb.categories {
		out.Categories[c] = true
	}
	return out
}

// Save persists the edited preferences.
func (m *Model) Save() tea.Cmd {
	if m.saving || m.loading {
		return nil
	}
	m.saving = true
	m.message = ""
	m.fieldErrs = nil
	prefs := m.Preferences()
	s := m.store
	return func() tea.Msg {
		return savedMsg{prefs: prefs, err: s.UpdatePreferences(context.Background(), prefs)}
	}
}

// Update handles messages for the editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.saved = msg.prefs.Clone()
		m.saved.Categories = classify.CanonicalCategories(m.saved.Categories)
		m.bind(m.saved)
		return m, m.resetForm()

	case savedMsg:
		m.saving = false
		m.messageSeq++
		if msg.err != nil {
			m.isError = true
			if verr, ok := api.AsValidationError(msg.err); ok {
				m.fieldErrs = verr.Fields
				m.message = "Some preferences are invalid."
			} else {
				m.message = "Couldn't save preferences. Try again."
			}
			return m, m.resetForm()
		}
		m.saved = msg.prefs.Clone()
		m.isError = false
		m.message = "Preferences saved."
		seq := m.messageSeq
		return m, tea.Batch(m.resetForm(), tea.Tick(m.dismiss, func(time.Time) tea.Msg {
			return dismissMsg{seq: seq}
		}))

	case dismissMsg:
		if msg.seq == m.messageSeq && !m.isError {
			m.message = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return m, func() tea.Msg { return ClosedMsg{} }
		}
		if m.loadErr != nil && msg.String() == "r" {
			return m, m.Start()
		}
	}

	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.Save()
	case huh.StateAborted:
		return m, func() tea.Msg { return ClosedMsg{} }
	}
	return m, cmd
}

// View renders the editor.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Notification Preferences"))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(theme.DimmedStyle.Render("Loading…"))
	case m.loadErr != nil:
		b.WriteString(theme.ErrorStyle.Render("Couldn't load preferences. Press r to try again."))
	case m.form != nil:
		b.WriteString(m.form.View())
	}

	if m.saving {
		b.WriteString("\n" + theme.DimmedStyle.Render("Saving…"))
	}
	if m.message != "" {
		style := theme.SuccessStyle
		if m.isError {
			style = theme.ErrorStyle
		}
		b.WriteString("\n" + style.Render(m.message))
	}
	for _, k := range sortedKeys(m.fieldErrs) {
		b.WriteString("\n" + theme.ErrorStyle.Render("  "+k+": "+m.fieldErrs[k]))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(b.String())
}

// SetSize updates the editor dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) bind(p model.Preferences) {
	m.fb.email = p.EmailEnabled
	m.fb.push = p.PushEnabled
	m.fb.categories = nil
	for _, c := range model.KnownCategories {
		if p.Categories[string(c)] {
			m.fb.categories = append(m.fb.categories, string(c))
		}
	}
}

// resetForm rebuilds the form from the current bindings so edits survive
// a failed save.
func (m *Model) resetForm() tea.Cmd {
	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	opts := make([]huh.Option[string], len(model.KnownCategories))
	for i, c := range model.KnownCategories {
		opts[i] = huh.NewOption(categoryLabel(c), string(c))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Email notifications").
				Affirmative("On").
				Negative("Off").
				Value(&m.fb.email),
			huh.NewConfirm().
				Title("Push notifications").
				Affirmative("On").
				Negative("Off").
				Value(&m.fb.push),
			huh.NewMultiSelect[string]().
				Title("Categories").
				Description("Which kinds of notification you receive").
				Options(opts...).
				Value(&m.fb.categories),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func categoryLabel(c model.Category) string {
	label := strings.ReplaceAll(string(c), "_", " ")
	if classify.IsHighSalience(c) {
		label += " (important)"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-8, 10)
}
