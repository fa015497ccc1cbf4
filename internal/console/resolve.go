package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/resolution"
)

var errNothingStaged = errors.New("select a disposition before confirming")

// SessionAPI is the part of the API the resolution view drives.
type SessionAPI interface {
	Present(ctx context.Context, sessionID uuid.UUID) (*resolution.Presentation, error)
	Select(ctx context.Context, sessionID uuid.UUID, cmd resolution.SelectCommand) (*resolution.Presentation, error)
	Confirm(ctx context.Context, sessionID uuid.UUID, cmd resolution.ConfirmCommand) (*resolution.Presentation, error)
	Finalize(ctx context.Context, sessionID uuid.UUID) (*resolution.Presentation, error)
}

type presentedMsg struct {
	p *resolution.Presentation
}

type failedMsg struct {
	err error
}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Stage    key.Binding
	Confirm  key.Binding
	Note     key.Binding
	Finalize key.Binding
	Reload   key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Stage, k.Confirm, k.Note, k.Finalize, k.Reload, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
	Stage:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
	Confirm:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "confirm")),
	Note:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "note")),
	Finalize: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "draft")),
	Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ResolveModel walks an operator through the claims of one resolution
// session: stage a disposition, confirm it, and read the generated draft.
type ResolveModel struct {
	ctx       context.Context
	api       SessionAPI
	sessionID uuid.UUID

	p       *resolution.Presentation
	claimID string
	cursor  int

	note    textinput.Model
	editing bool

	busy    bool
	spinner spinner.Model
	draft   viewport.Model
	help    help.Model
	err     error
	carried error
}

// NewResolveModel creates the view for a session.
func NewResolveModel(ctx context.Context, api SessionAPI, sessionID uuid.UUID) *ResolveModel {
	note := textinput.New()
	note.Placeholder = "response text used when no candidate exists"
	note.CharLimit = 4000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &ResolveModel{
		ctx:       ctx,
		api:       api,
		sessionID: sessionID,
		note:      note,
		spinner:   sp,
		draft:     viewport.New(80, 20),
		help:      help.New(),
	}
}

// Presentation returns the last state received from the API.
func (m *ResolveModel) Presentation() *resolution.Presentation {
	return m.p
}

// Init loads the current state of the session.
func (m *ResolveModel) Init() tea.Cmd {
	m.busy = true
	return tea.Batch(m.spinner.Tick, m.present())
}

// Update handles API results and key presses.
func (m *ResolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.draft.Width = max(msg.Width-4, 20)
		m.draft.Height = max(msg.Height-8, 5)
		m.help.Width = msg.Width
		m.note.Width = max(msg.Width-8, 20)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case presentedMsg:
		m.busy = false
		m.err = m.carried
		m.carried = nil
		m.show(msg.p)
		return m, nil

	case failedMsg:
		m.busy = false
		m.err = msg.err
		switch {
		// a stale cursor means another client moved the session on
		case IsStatus(msg.err, http.StatusConflict):
			m.busy = true
			return m, m.present()
		// the confirmation was stored but the draft failed; show the
		// resolved session with the error so the draft can be retried
		case IsStatus(msg.err, http.StatusBadGateway):
			m.busy = true
			m.carried = msg.err
			return m, m.present()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *ResolveModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.editing = false
			m.note.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.note, cmd = m.note.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}
	if key.Matches(msg, keys.Reload) {
		m.busy = true
		return m, m.present()
	}
	if m.p == nil {
		return m, nil
	}

	switch m.p.State {
	case resolution.StateAwaitingChoice:
		return m.handleChoiceKey(msg)

	case resolution.StateAllResolved:
		if key.Matches(msg, keys.Finalize) {
			m.busy = true
			return m, m.call(func(ctx context.Context) (*resolution.Presentation, error) {
				return m.api.Finalize(ctx, m.sessionID)
			})
		}

	case resolution.StateDraftGenerated:
		var cmd tea.Cmd
		m.draft, cmd = m.draft.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *ResolveModel) handleChoiceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.p
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(p.Dispositions)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Note):
		m.editing = true
		return m, m.note.Focus()

	case key.Matches(msg, keys.Stage):
		if len(p.Dispositions) == 0 {
			return m, nil
		}
		cmd := resolution.SelectCommand{
			Cursor: p.ClaimIteration,
			Choice: p.Dispositions[m.cursor],
		}
		m.busy = true
		return m, m.call(func(ctx context.Context) (*resolution.Presentation, error) {
			return m.api.Select(ctx, m.sessionID, cmd)
		})

	case key.Matches(msg, keys.Confirm):
		if p.Staged == nil {
			m.err = errNothingStaged
			return m, nil
		}
		cmd := resolution.ConfirmCommand{
			Cursor: p.ClaimIteration,
			Choice: *p.Staged,
			Note:   strings.TrimSpace(m.note.Value()),
		}
		m.busy = true
		return m, m.call(func(ctx context.Context) (*resolution.Presentation, error) {
			return m.api.Confirm(ctx, m.sessionID, cmd)
		})
	}

	return m, nil
}

func (m *ResolveModel) show(p *resolution.Presentation) {
	m.p = p

	if p.ClaimID != m.claimID {
		m.claimID = p.ClaimID
		m.cursor = 0
		m.note.Reset()
	}
	if p.Staged != nil {
		if i := slices.Index(p.Dispositions, *p.Staged); i >= 0 {
			m.cursor = i
		}
	}

	if p.State == resolution.StateDraftGenerated {
		m.draft.SetContent(p.Draft)
		m.draft.GotoTop()
	}
}

func (m *ResolveModel) present() tea.Cmd {
	return m.call(func(ctx context.Context) (*resolution.Presentation, error) {
		return m.api.Present(ctx, m.sessionID)
	})
}

func (m *ResolveModel) call(fn func(context.Context) (*resolution.Presentation, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		p, err := fn(ctx)
		if err != nil {
			return failedMsg{err: err}
		}
		return presentedMsg{p: p}
	}
}

// View renders the session.
func (m *ResolveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("⬡ CLAIM RESOLUTION"))
	b.WriteString("\n\n")

	switch {
	case m.p == nil:
		b.WriteString(m.spinner.View() + " loading session")
	case m.p.State == resolution.StateAwaitingChoice:
		b.WriteString(m.viewClaim())
	case m.p.State == resolution.StateAllResolved:
		b.WriteString(okStyle.Render("All claims resolved."))
		b.WriteString(" Press f to generate the draft.")
	case m.p.State == resolution.StateDraftGenerated:
		b.WriteString(m.draft.View())
	}

	if m.err != nil {
		b.WriteString("\n\n" + FormatError(m.err))
	}

	b.WriteString("\n\n")
	if m.busy {
		b.WriteString(m.spinner.View() + " ")
	}
	b.WriteString(mutedStyle.Render(m.help.View(keys)))

	return b.String()
}

func (m *ResolveModel) viewClaim() string {
	p := m.p
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n",
		stageStyle.Render(fmt.Sprintf("Claim %d of %d", p.ClaimIteration+1, p.TotalClaims)),
		p.ClaimID,
	)
	if p.OriginalClaim != "" {
		b.WriteString(mutedStyle.Render(p.OriginalClaim) + "\n")
	}
	if p.RejectedFor != "" {
		fmt.Fprintf(&b, "%s %s\n", warnStyle.Render("rejected for:"), p.RejectedFor)
	}
	b.WriteString("\n")

	for i, d := range p.Dispositions {
		marker := "  "
		if i == m.cursor {
			marker = "› "
		}
		label := string(d)
		if p.Staged != nil && *p.Staged == d {
			label += " ●"
		}
		if i == m.cursor {
			label = selectedStyle.Render(label)
		}
		b.WriteString(marker + label + "\n")
	}

	if len(p.Dispositions) > 0 {
		highlighted := p.Dispositions[m.cursor]
		text := candidateText(p, highlighted)
		if text == "" {
			text = mutedStyle.Render("no candidate text; press n to write the response")
		}
		b.WriteString("\n" + candidateBox.Render(text) + "\n")
	}

	if m.editing || m.note.Value() != "" {
		b.WriteString("\n" + lipgloss.JoinHorizontal(lipgloss.Top, mutedStyle.Render("note: "), m.note.View()) + "\n")
	}

	if len(p.YourChoices) > 0 {
		ids := make([]string, 0, len(p.YourChoices))
		for id := range p.YourChoices {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = fmt.Sprintf("%s=%s", id, p.YourChoices[id])
		}
		b.WriteString("\n" + mutedStyle.Render("resolved: "+strings.Join(parts, ", ")))
	}

	return b.String()
}

func candidateText(p *resolution.Presentation, d resolution.Disposition) string {
	for _, c := range p.Candidates {
		if c.Disposition == string(d) {
			return c.Text
		}
	}
	return ""
}
