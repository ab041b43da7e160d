package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/imartinezt/logistica-front/pkg/graph"
	"github.com/imartinezt/logistica-front/pkg/render/terminal"
	"github.com/imartinezt/logistica-front/pkg/session"
)

// Tab styles
var (
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(colorGray)
	listDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// Tabs of the view browser, in display order.
var browserTabs = []string{"Resumen", "Grafo", "Tiendas", "Factores", "Detalles"}

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var schema string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "browse <file|->",
		Short: "Explore a saved prediction result interactively",
		Example: `  logistica browse result.json
  logistica predict --cp 05050 --browse`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hint, err := parseSchema(schema)
			if err != nil {
				return err
			}
			raw, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()
			return runBrowser(cmd.Context(), runner.BuildView(cmd.Context(), raw, hint))
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "", "result schema (default detect)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

// runBrowser shows view full screen until the user quits or ctx ends.
func runBrowser(ctx context.Context, view *session.View) error {
	p := tea.NewProgram(NewViewModel(view), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}

// =============================================================================
// ViewModel - Tabbed decision view
// =============================================================================

// ViewModel is the bubbletea model for browsing one decision view.
type ViewModel struct {
	Data   *session.View
	Tab    int
	Offset int
	Height int
	Width  int

	pages []string
}

// NewViewModel creates a browser model with every tab pre-rendered.
func NewViewModel(v *session.View) ViewModel {
	return ViewModel{
		Data:   v,
		Height: 20,
		pages:  renderPages(v),
	}
}

// renderPages renders the content of each tab. Tabs without data say so
// instead of disappearing, so key bindings stay stable.
func renderPages(v *session.View) []string {
	pages := make([]string, len(browserTabs))
	if v == nil {
		for i := range pages {
			pages[i] = terminal.Panel(nil)
		}
		return pages
	}

	empty := listDimStyle.Render("Sin datos para esta vista") + "\n"
	summary := terminal.Request(v.Request) + "\n"
	if v.Result == nil {
		summary += terminal.Degraded(v)
	} else {
		summary += terminal.Metrics(v) + "\n" + terminal.Insights(v.Insights)
		if v.Fallback {
			summary += "\n" + terminal.Degraded(v)
		}
	}
	pages[0] = summary
	pages[1] = terminal.Edges(v.Graph) + "\n" + terminal.Legend(graph.Legend())

	pages[2], pages[3], pages[4] = empty, empty, empty
	if v.Result != nil {
		pages[2] = terminal.Stores(v.Result)
		pages[3] = terminal.Factors(v.Result.Factors)
		if v.Result.IsSplit() {
			pages[3] += "\n" + terminal.Options(v.Result)
		}
		pages[4] = terminal.Technical(v.Result)
	}
	if len(v.Warnings) > 0 {
		var b strings.Builder
		for _, w := range v.Warnings {
			b.WriteString(StyleWarning.Render(iconWarning+" "+w) + "\n")
		}
		pages[4] += "\n" + b.String()
	}
	return pages
}

func (m ViewModel) Init() tea.Cmd {
	return nil
}

func (m ViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.setTab((m.Tab + 1) % len(browserTabs))
		case "shift+tab", "left", "h":
			m.setTab((m.Tab + len(browserTabs) - 1) % len(browserTabs))
		case "1", "2", "3", "4", "5":
			m.setTab(int(key[0] - '1'))
		case "up", "k":
			if m.Offset > 0 {
				m.Offset--
			}
		case "down", "j":
			if m.Offset < m.maxOffset() {
				m.Offset++
			}
		case "pgdown", " ":
			m.Offset = min(m.Offset+m.Height, m.maxOffset())
		case "pgup":
			m.Offset = max(m.Offset-m.Height, 0)
		case "home", "g":
			m.Offset = 0
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
		m.Offset = min(m.Offset, m.maxOffset())
	}
	return m, nil
}

func (m *ViewModel) setTab(i int) {
	if i < 0 || i >= len(browserTabs) {
		return
	}
	m.Tab = i
	m.Offset = 0
}

func (m ViewModel) lines() []string {
	return strings.Split(strings.TrimRight(m.pages[m.Tab], "\n"), "\n")
}

func (m ViewModel) maxOffset() int {
	return max(len(m.lines())-m.Height, 0)
}

func (m ViewModel) View() string {
	var b strings.Builder

	tabs := make([]string, len(browserTabs))
	for i, name := range browserTabs {
		label := fmt.Sprintf("%d %s", i+1, name)
		if i == m.Tab {
			tabs[i] = tabActiveStyle.Render(label)
		} else {
			tabs[i] = tabInactiveStyle.Render(label)
		}
	}
	b.WriteString(StyleTitle.Render("Logistica") + "  " + strings.Join(tabs, "  "))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("tab/←/→ cambiar  ↑/↓ desplazar  q salir"))
	b.WriteString("\n\n")

	lines := m.lines()
	end := min(m.Offset+m.Height, len(lines))
	b.WriteString(strings.Join(lines[m.Offset:end], "\n"))
	b.WriteString("\n\n")

	status := ""
	if m.Data != nil {
		status = fmt.Sprintf("  %s · %s", m.Data.Topology, m.Data.RelativeDate)
	}
	if len(lines) > m.Height {
		status += fmt.Sprintf("  [%d-%d/%d]", m.Offset+1, end, len(lines))
	}
	b.WriteString(listDimStyle.Render(status))

	return b.String()
}
