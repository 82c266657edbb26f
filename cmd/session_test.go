package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/nudgekit/internal/nudge"
	"github.com/abhisek/nudgekit/internal/ui/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, tier nudge.Tier) (*session, *nudge.FakeClock, *bytes.Buffer) {
	t.Helper()
	clock := nudge.NewFakeClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	s := nudge.New(context.Background(), nudge.Options{Clock: clock, Tier: tier, Location: time.UTC})
	t.Cleanup(s.Close)
	var out bytes.Buffer
	return &session{sched: s, out: &out}, clock, &out
}

func TestParseContext(t *testing.T) {
	ctx, err := parseContext([]string{"streakDays=14", "ratio=0.5", "pro=true", "exportType=csv", "empty="})
	require.NoError(t, err)
	assert.Equal(t, nudge.Context{
		"streakDays": 14,
		"ratio":      0.5,
		"pro":        true,
		"exportType": "csv",
		"empty":      "",
	}, ctx)

	ctx, err = parseContext(nil)
	require.NoError(t, err)
	assert.Nil(t, ctx)

	_, err = parseContext([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseContext([]string{"=x"})
	assert.Error(t, err)
}

func TestSessionTriggerAndDismiss(t *testing.T) {
	sess, clock, out := newTestSession(t, nudge.TierBase)

	quit, err := sess.exec("trigger streak-nudge streakDays=30")
	require.NoError(t, err)
	assert.False(t, quit)
	clock.Advance(nudge.DefaultDebounce)

	_, err = sess.exec("state")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Incredible 30-Day Streak!")

	_, err = sess.exec("dismiss")
	require.NoError(t, err)
	clock.Advance(nudge.DefaultExitDelay)

	out.Reset()
	_, err = sess.exec("history")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "streak-nudge")
	assert.Contains(t, out.String(), "dismissed")

	out.Reset()
	_, err = sess.exec("stats")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Dismissed:   1 (100.0%)")
}

func TestSessionGates(t *testing.T) {
	sess, clock, out := newTestSession(t, nudge.TierBase)

	_, err := sess.exec("add-account 0")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Account 1 added.")

	_, err = sess.exec("add-account 1")
	require.NoError(t, err)
	clock.Advance(nudge.DefaultDebounce)
	assert.Equal(t, nudge.TriggerSecondAccount, sess.sched.State().Active.Config.Type)

	_, err = sess.exec("export pdf Annual Summary")
	require.NoError(t, err)
	clock.Advance(nudge.DefaultDebounce)
	st := sess.sched.State()
	assert.Equal(t, nudge.TriggerPDFExport, st.Active.Config.Type)
	assert.Contains(t, st.Active.Config.Description, "Annual Summary")

	out.Reset()
	_, err = sess.exec("streak 10")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Next milestone at 14 days.")

	_, err = sess.exec("tier pro")
	require.NoError(t, err)
	assert.Equal(t, nudge.TierTop, sess.sched.Tier())

	out.Reset()
	_, err = sess.exec("export pdf")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Exported pdf.")
}

func TestSessionCheck(t *testing.T) {
	sess, _, out := newTestSession(t, nudge.TierMid)

	_, err := sess.exec("check export-attempt")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "blocked by tier-owned")

	out.Reset()
	_, err = sess.exec("check pdf-attempt")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "pdf-attempt: eligible")
}

func TestSessionErrors(t *testing.T) {
	sess, clock, _ := newTestSession(t, nudge.TierBase)

	for _, line := range []string{
		"trigger",
		"trigger no-such-nudge",
		"trigger streak-nudge bad",
		"check",
		"add-account many",
		"export xlsx",
		"streak",
		"tier gold",
		"frobnicate",
	} {
		_, err := sess.exec(line)
		assert.Error(t, err, line)
	}
	assert.Equal(t, 0, clock.Pending(), "failed commands must not schedule anything")

	quit, err := sess.exec("   ")
	assert.NoError(t, err)
	assert.False(t, quit)

	quit, err = sess.exec("quit")
	assert.NoError(t, err)
	assert.True(t, quit)
}

func newTestModel(t *testing.T) (sessionModel, *nudge.Scheduler, *nudge.FakeClock) {
	t.Helper()
	clock := nudge.NewFakeClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	s := nudge.New(context.Background(), nudge.Options{Clock: clock, Location: time.UTC})
	t.Cleanup(s.Close)
	m := newSessionModel(s)
	t.Cleanup(m.unsubscribe)
	return m, s, clock
}

// enterLine types line into the prompt and presses Enter.
func enterLine(m sessionModel, line string) (sessionModel, tea.Cmd) {
	next, _ := m.Update(tea.PasteMsg{Content: line})
	next, cmd := next.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	return next.(sessionModel), cmd
}

// nextState runs the model's subscription command and feeds the result back.
func nextState(t *testing.T, m sessionModel) sessionModel {
	t.Helper()
	msg := waitForState(m.states)()
	require.IsType(t, stateMsg{}, msg)
	next, cmd := m.Update(msg)
	require.NotNil(t, cmd, "model keeps listening after a state")
	return next.(sessionModel)
}

func TestSessionModelCommands(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Contains(t, m.render(), "Free plan")

	m, cmd := enterLine(m, "help")
	assert.Nil(t, cmd)
	assert.Contains(t, m.render(), "Commands:")
	assert.Equal(t, "", m.input.Value(), "prompt is cleared after Enter")

	m, _ = enterLine(m, "bogus")
	assert.Contains(t, m.render(), `error: unknown command "bogus"`)

	m, cmd = enterLine(m, "   ")
	assert.Nil(t, cmd)
	assert.Len(t, m.log, 5, "blank lines are not logged")
}

func TestSessionModelRendersCard(t *testing.T) {
	m, s, clock := newTestModel(t)

	m, _ = enterLine(m, "trigger streak-nudge streakDays=30")
	assert.NotContains(t, m.render(), "Incredible 30-Day Streak!", "card waits for the debounce")

	clock.Advance(nudge.DefaultDebounce)
	m = nextState(t, m)
	assert.Contains(t, m.render(), "Incredible 30-Day Streak!")

	next, _ := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	m = next.(sessionModel)
	st := s.State()
	require.NotNil(t, st.Active)
	assert.True(t, st.Active.Resolved())
	assert.False(t, st.Visible)

	m = nextState(t, m)
	clock.Advance(nudge.DefaultExitDelay)
	m = nextState(t, m)
	assert.NotContains(t, m.render(), "Incredible 30-Day Streak!")
	assert.Len(t, s.History(), 1)
	assert.True(t, s.History()[0].Dismissed)
}

func TestSessionModelQuit(t *testing.T) {
	m, s, _ := newTestModel(t)

	_, cmd := enterLine(m, "quit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	s.Close()
	assert.IsType(t, subscriptionClosedMsg{}, waitForState(m.states)())
}

func TestSessionModelWindowSize(t *testing.T) {
	m, _, clock := newTestModel(t)
	m, _ = enterLine(m, "trigger export-attempt")
	clock.Advance(nudge.DefaultDebounce)
	m = nextState(t, m)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	m = next.(sessionModel)
	assert.Equal(t, 40, m.width)
	card := theme.RenderCard(m.state, 40)
	assert.NotEqual(t, theme.RenderCard(m.state, theme.CardWidth), card)
	top, _, _ := strings.Cut(card, "\n")
	assert.Contains(t, m.render(), top, "card follows the window width")
}

func executeCommand(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("NUDGEKIT_CONFIG", "")
	t.Setenv("NUDGEKIT_STORAGE", "")
	t.Setenv("NUDGEKIT_LOG_LEVEL", "")
	db := filepath.Join(dir, "nudgekit.db")

	assert.Contains(t, executeCommand(t, "version"), "nudgekit")

	out := executeCommand(t, "catalog")
	assert.Contains(t, out, "streak-nudge")
	assert.Contains(t, out, "4 nudges")

	assert.Contains(t, executeCommand(t, "history", "--db", db), "No nudges shown yet.")
	assert.Contains(t, executeCommand(t, "check", "streak-nudge", "--db", db, "--tier", "base"), "streak-nudge: eligible")
	assert.Contains(t, executeCommand(t, "check", "streak-nudge", "--db", db, "--tier", "top"), "tier-owned")
	assert.Contains(t, executeCommand(t, "events", "list", "--db", db), "No nudge events found.")
	assert.Contains(t, executeCommand(t, "stats", "--db", db), "Shown:       0")
	assert.Contains(t, executeCommand(t, "reset", "--db", db), "Cleared 0 history entries.")
}

func TestCommandsFallBackWhenLogFileUnwritable(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("NUDGEKIT_CONFIG", "")
	t.Setenv("NUDGEKIT_STORAGE", "")
	t.Setenv("NUDGEKIT_LOG_LEVEL", "")

	cfg := "logging:\n  output: " + filepath.Join(dir, "missing", "nudgekit.log") + "\n"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nudgekit"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nudgekit", "config.yaml"), []byte(cfg), 0o644))

	db := filepath.Join(dir, "nudgekit.db")
	assert.Contains(t, executeCommand(t, "history", "--db", db), "No nudges shown yet.")
}
