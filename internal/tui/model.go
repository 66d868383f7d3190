// Package tui is the interactive terminal front end: type a query, read the
// synthesized answer with its per-document answers and themes.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/docthemes/internal/pipeline"
)

// Querier answers queries.
type Querier interface {
	Run(ctx context.Context, query string) (*pipeline.Result, error)
}

type resultMsg struct {
	query   string
	res     *pipeline.Result
	err     error
	elapsed time.Duration
}

// Model is the Bubble Tea model for the query UI.
type Model struct {
	ctx      context.Context
	querier  Querier
	input    textinput.Model
	viewport viewport.Model
	summary  string
	status   string
	busy     bool
	ready    bool
	last     *pipeline.Result
}

// New creates the model. summary is shown under the header, typically the
// ingestion report.
func New(ctx context.Context, q Querier, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		querier:  q,
		input:    ti,
		viewport: viewport.New(0, 0),
		summary:  summary,
		status:   "Ready.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.content())
		return m, nil

	case resultMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.last = nil
		} else {
			m.last = msg.res
			m.status = statusLine(msg)
		}
		m.viewport.SetContent(m.content())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = fmt.Sprintf("Answering %q…", q)
			return m, m.run(q)
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// run answers q off the UI goroutine.
func (m Model) run(q string) tea.Cmd {
	ctx, querier := m.ctx, m.querier
	return func() tea.Msg {
		start := time.Now()
		res, err := querier.Run(ctx, q)
		return resultMsg{query: q, res: res, err: err, elapsed: time.Since(start)}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("docthemes")
	summary := dimStyle.Render(m.summary)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) content() string {
	if m.last == nil {
		return dimStyle.Render("No answer yet. PgUp/PgDn scroll, Esc quits.")
	}
	return Render(m.last)
}

func statusLine(msg resultMsg) string {
	s := fmt.Sprintf("%s: %d documents, %d themes in %s",
		msg.res.Status, len(msg.res.DocumentAnswers), len(msg.res.Themes), msg.elapsed.Round(time.Millisecond))
	if msg.res.Cached {
		s += " (cached)"
	}
	return s
}

// Render lays out a result: synthesized answer, themes, then per-document
// answers and any warnings.
func Render(res *pipeline.Result) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Answer"))
	b.WriteString("\n")
	b.WriteString(res.SynthesizedAnswer)
	b.WriteString("\n")

	if len(res.Themes) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Themes"))
		b.WriteString("\n")
		for _, t := range res.Themes {
			fmt.Fprintf(&b, "%s %s\n", themeStyle.Render(t.ThemeName), dimStyle.Render(fmt.Sprintf("(confidence %d)", t.Confidence)))
			if t.ThemeDescription != "" {
				fmt.Fprintf(&b, "  %s\n", t.ThemeDescription)
			}
			if len(t.SupportingDocuments) > 0 {
				fmt.Fprintf(&b, "  %s\n", dimStyle.Render("documents: "+strings.Join(t.SupportingDocuments, ", ")))
			}
		}
	}

	if len(res.DocumentAnswers) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Documents"))
		b.WriteString("\n")
		for _, a := range res.DocumentAnswers {
			fmt.Fprintf(&b, "%s %s\n", docStyle.Render(a.Filename), dimStyle.Render(fmt.Sprintf("[%s] relevance %d", a.Citation, a.Relevance)))
			fmt.Fprintf(&b, "  %s\n", a.ExtractedAnswer)
		}
	}

	if len(res.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range res.Warnings {
			b.WriteString(warnStyle.Render("! " + w))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	sectionStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	themeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	docStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
