package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/torosent/loanlens/internal/carousel"
)

type keyMap struct {
	Next key.Binding
	Prev key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Quit}}
}

var keys = keyMap{
	Next: key.NewBinding(
		key.WithKeys("right", "l", "n", "1"),
		key.WithHelp("→/l/1", "next"),
	),
	Prev: key.NewBinding(
		key.WithKeys("left", "h", "p", "2"),
		key.WithHelp("←/h/2", "prev"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "0", "esc", "ctrl+c"),
		key.WithHelp("q/0", "quit"),
	),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(21)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
	rejectStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	acceptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Model is the bubbletea model browsing a navigator.
type Model struct {
	nav      Navigator
	help     help.Model
	quitting bool
	err      error
}

// NewModel returns a TUI model positioned wherever nav currently is.
func NewModel(nav Navigator) Model {
	return Model{nav: nav, help: help.New()}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.nav.Len() == 0 || key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		switch {
		case key.Matches(msg, keys.Next):
			m.err = m.nav.Next()
		case key.Matches(msg, keys.Prev):
			m.err = m.nav.Previous()
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return MsgExiting + "\n"
	}

	current, err := m.nav.Current()
	if errors.Is(err, carousel.ErrEmpty) {
		return MsgEmpty + "\n" + m.help.View(keys) + "\n"
	}
	if err != nil {
		return errStyle.Render("ERROR: "+err.Error()) + "\n"
	}

	pos, _ := m.nav.Position()
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Loan request %d / %d", pos+1, m.nav.Len())))
	b.WriteString("\n")

	lines := make([]string, 0, 16)
	for _, line := range Card(current) {
		lines = append(lines, labelStyle.Render(line.Label)+line.Value)
	}
	lines = append(lines, "")
	outcome := acceptStyle
	if current.WillDefault() {
		outcome = rejectStyle
	}
	lines = append(lines,
		outcome.Render(PredictionLine(current)),
		outcome.Render(RecommendLine(current)),
	)
	b.WriteString(cardStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errStyle.Render("ERROR: "+m.err.Error()) + "\n")
	}
	b.WriteString(m.help.View(keys))
	b.WriteString("\n")
	return b.String()
}

// RunTUI browses nav in a full-screen bubbletea program.
func RunTUI(ctx context.Context, nav Navigator, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(NewModel(nav),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}
