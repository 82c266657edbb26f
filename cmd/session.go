package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nudgekit/internal/gates"
	"github.com/abhisek/nudgekit/internal/nudge"
	"github.com/abhisek/nudgekit/internal/ui/theme"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Run an interactive nudge session",
	Long: `Run an interactive session against a live scheduler. Type "help" for the
list of commands. The active nudge card is drawn above the prompt; press Esc to
dismiss it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, args)
	},
}

func init() {
	sessionCmd.Flags().String("tier", "base", "Subscription tier: base, mid or top")
}

// runSession opens the configured storage and drives a scheduler from an
// interactive terminal program.
func runSession(cmd *cobra.Command, _ []string) error {
	tier, err := tierFlag(cmd)
	if err != nil {
		return err
	}
	d, err := openDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmdContext(cmd)
	sched, err := d.newScheduler(ctx, tier)
	if err != nil {
		return err
	}
	defer sched.Close()

	m := newSessionModel(sched)
	defer m.unsubscribe()

	p := tea.NewProgram(m,
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	return runProgram(ctx, p)
}

// runProgram runs p until it exits, asking it to quit when ctx is cancelled
// so the scheduler is closed through the normal path.
func runProgram(ctx context.Context, p *tea.Program) error {
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		p.Quit()
		return nil
	})
	return g.Wait()
}

// stateMsg carries a state published by the scheduler.
type stateMsg nudge.State

// subscriptionClosedMsg is sent once the scheduler stops publishing.
type subscriptionClosedMsg struct{}

// waitForState returns a command that blocks until the scheduler publishes
// the next state.
func waitForState(states <-chan nudge.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-states
		if !ok {
			return subscriptionClosedMsg{}
		}
		return stateMsg(st)
	}
}

// maxLogEntries bounds the command output kept above the prompt.
const maxLogEntries = 40

// sessionModel is the Bubble Tea model for the interactive session.
type sessionModel struct {
	sess        *session
	buf         *bytes.Buffer
	input       textinput.Model
	states      <-chan nudge.State
	unsubscribe func()
	state       nudge.State
	log         []string
	width       int
	quitting    bool
}

func newSessionModel(sched *nudge.Scheduler) sessionModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = `trigger streak-nudge streakDays=7, or "help"`
	ti.Focus()

	states, unsubscribe := sched.Subscribe(8)
	buf := &bytes.Buffer{}
	return sessionModel{
		sess:        &session{sched: sched, out: buf},
		buf:         buf,
		input:       ti,
		states:      states,
		unsubscribe: unsubscribe,
		state:       sched.State(),
		log: []string{
			fmt.Sprintf("nudgekit session (%s plan). Type \"help\" for commands.", sched.Tier().PlanName()),
		},
	}
}

func (m sessionModel) Init() tea.Cmd {
	return waitForState(m.states)
}

func (m sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case stateMsg:
		m.state = nudge.State(msg)
		return m, waitForState(m.states)

	case subscriptionClosedMsg:
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "esc":
			m.sess.sched.Dismiss()
			return m, nil
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit runs the typed command and appends its output to the log.
func (m sessionModel) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if line == "" {
		return m, nil
	}

	quit, err := m.sess.exec(line)
	out := strings.TrimRight(m.buf.String(), "\n")
	m.buf.Reset()

	entry := []string{theme.Hint.Render("> " + line)}
	if out != "" {
		entry = append(entry, out)
	}
	if err != nil {
		entry = append(entry, theme.ErrorText.Render("error: "+err.Error()))
	}
	m.log = append(m.log, entry...)
	if len(m.log) > maxLogEntries {
		m.log = m.log[len(m.log)-maxLogEntries:]
	}

	if quit {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m sessionModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	return tea.NewView(m.render())
}

// render lays out the command log, the active card and the prompt.
func (m sessionModel) render() string {
	width := theme.CardWidth
	if m.width > 0 && m.width < width {
		width = m.width
	}

	sections := []string{strings.Join(m.log, "\n"), ""}
	if card := theme.RenderCard(m.state, width); card != "" {
		sections = append(sections, card, "")
	}
	sections = append(sections,
		m.input.View(),
		theme.Hint.Render("enter run • esc dismiss • ctrl+c quit"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderState(out io.Writer, st nudge.State) {
	switch {
	case st.Active == nil:
		fmt.Fprintln(out, "(no nudge)")
	case !st.Visible:
		fmt.Fprintf(out, "(hiding %s)\n", st.Active.Config.Type)
	default:
		fmt.Fprintln(out, theme.RenderCard(st, theme.CardWidth))
	}
}

// session executes REPL commands against a scheduler.
type session struct {
	sched *nudge.Scheduler
	out   io.Writer
}

const sessionHelp = `Commands:
  trigger <type> [key=value ...]  request a nudge
  check <type>                    explain whether a nudge could show now
  dismiss                         dismiss the visible nudge
  convert                         accept the visible nudge
  add-account <count>             try to add an account while holding <count>
  export <csv|sheets|pdf> [name]  try to export
  streak <days>                   report a streak length
  tier <base|mid|top>             change the subscription tier
  state                           print the active slot
  history                         print the retained history
  stats                           print history statistics
  quit                            leave the session`

// exec runs one command line. quit reports whether the session should end.
func (s *session) exec(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(s.out, sessionHelp)
	case "trigger":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: trigger <type> [key=value ...]")
		}
		t := nudge.TriggerType(args[0])
		if !s.sched.Catalog().Has(t) {
			return false, fmt.Errorf("%w: %q", nudge.ErrUnknownTrigger, t)
		}
		payload, err := parseContext(args[1:])
		if err != nil {
			return false, err
		}
		s.sched.Trigger(t, payload)
	case "check":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: check <type>")
		}
		d, err := s.sched.Check(nudge.TriggerType(args[0]))
		if err != nil {
			return false, err
		}
		printDecision(s.out, d)
	case "dismiss":
		s.sched.Dismiss()
	case "convert":
		s.sched.Convert()
	case "add-account":
		n, err := intArg(args, "add-account <count>")
		if err != nil {
			return false, err
		}
		req, blocked := gates.CheckAddAccount(s.sched.Tier(), n)
		if !blocked {
			fmt.Fprintf(s.out, "Account %d added.\n", n+1)
			return false, nil
		}
		req.Fire(s.sched)
	case "export":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: export <csv|sheets|pdf> [name]")
		}
		format, err := gates.ParseExportFormat(args[0])
		if err != nil {
			return false, err
		}
		req, blocked := gates.CheckExport(s.sched.Tier(), format, strings.Join(args[1:], " "))
		if !blocked {
			fmt.Fprintf(s.out, "Exported %s.\n", format)
			return false, nil
		}
		req.Fire(s.sched)
	case "streak":
		n, err := intArg(args, "streak <days>")
		if err != nil {
			return false, err
		}
		req, ok := gates.StreakTrigger(n)
		if !ok {
			fmt.Fprintf(s.out, "%d-day streak. Next milestone at %d days.\n", n, gates.NextStreakMilestone(n))
			return false, nil
		}
		req.Fire(s.sched)
	case "tier":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: tier <base|mid|top>")
		}
		t, err := nudge.ParseTier(args[0])
		if err != nil {
			return false, err
		}
		s.sched.SetTier(t)
		fmt.Fprintf(s.out, "Now on the %s plan.\n", t.PlanName())
	case "state":
		renderState(s.out, s.sched.State())
	case "history":
		printHistory(s.out, s.sched.History(), 0)
	case "stats":
		printStats(s.out, s.sched.Stats())
	default:
		return false, fmt.Errorf("unknown command %q (try \"help\")", name)
	}
	return false, nil
}

func intArg(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count %q", args[0])
	}
	return n, nil
}

// parseContext turns key=value arguments into a trigger payload. Integers,
// floats and booleans are converted; anything else stays a string.
func parseContext(args []string) (nudge.Context, error) {
	if len(args) == 0 {
		return nil, nil
	}
	ctx := make(nudge.Context, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid context argument %q: want key=value", a)
		}
		ctx[k] = parseValue(v)
	}
	return ctx, nil
}

func parseValue(v string) any {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

func printDecision(out io.Writer, d nudge.Decision) {
	if d.Eligible() {
		fmt.Fprintf(out, "%s: eligible (%d shown today)\n", d.Type, d.ShownToday)
		return
	}
	fmt.Fprintf(out, "%s: blocked by %s", d.Type, d.Reason)
	if !d.RetryAt.IsZero() {
		fmt.Fprintf(out, ", retry after %s", d.RetryAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(out, " (%d shown today)\n", d.ShownToday)
}

func sortedTypes(byType map[nudge.TriggerType]nudge.TypeStats) []nudge.TriggerType {
	types := make([]nudge.TriggerType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
