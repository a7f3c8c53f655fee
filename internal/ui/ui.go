package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/dhunjam/internal/console"
	"github.com/desertthunder/dhunjam/internal/models"
	"github.com/desertthunder/dhunjam/internal/services"
	"github.com/desertthunder/dhunjam/internal/session"
	"github.com/desertthunder/dhunjam/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	SettingsView
)

const (
	DefaultToastDuration = 3 * time.Second
	SessionExpiredNotice = "Session expired, please sign in again"
	chargeQuestion       = "Do you want to charge your customers for requesting songs?"
)

// Focus positions. Login: username, password, button. Settings: toggle, five amounts, save.
const (
	focusUsername = 0
	focusPassword = 1
	focusSignIn   = 2

	focusCharge = 0
	focusSave   = models.NumCategories + 1
)

// Options holds the dependencies and settings of a [Model].
type Options struct {
	API           services.AdminAPI
	Sessions      *session.Manager
	Logger        *log.Logger
	ToastDuration time.Duration
	BarWidth      int
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	screen context.Context    // cancelled when the current screen is left
	cancel context.CancelFunc // cancels screen
	view   ViewState
	opts   Options
	logger *log.Logger

	login    *console.Login
	settings *console.Settings

	username textinput.Model
	password textinput.Model
	amounts  [models.NumCategories]textinput.Model
	focus    int

	toast    *console.Notice
	toastSeq int

	width    int
	quitting bool
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = DefaultToastDuration
	}
	if opts.BarWidth <= 0 {
		opts.BarWidth = DefaultBarWidth
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	m := &Model{
		ctx:      ctx,
		opts:     opts,
		logger:   shared.WithLogger(logger, "component", "tui"),
		login:    console.NewLogin(opts.API, opts.Sessions),
		settings: console.NewSettings(opts.API, opts.Sessions),
		username: textinput.New(),
		password: textinput.New(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:     help.New(),
		keys:     newKeyMap(),
	}

	m.username.Placeholder = "Username"
	m.password.Placeholder = "Password"
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '•'
	for i := range m.amounts {
		m.amounts[i] = textinput.New()
		m.amounts[i].CharLimit = 9
		m.amounts[i].Width = 10
	}
	return m
}

// Init opens the settings screen, which falls through to login when no session is stored.
func (m *Model) Init() tea.Cmd {
	return m.enterSettings()
}

// View returns the screen currently shown.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.view {
	case LoginView:
		body = m.renderLogin()
	case SettingsView:
		body = m.renderSettings()
	}

	return fmt.Sprintf("%s\n%s\n%s", body, m.renderToast(), m.help.ShortHelpView(m.helpKeys()))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.leave()
			m.quitting = true
			return m, tea.Quit
		}
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case SettingsView:
			return m.handleSettingsKeys(msg)
		}

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgTaskDone:
			return m, m.apply(msg.data.(console.Result))
		case MsgToastExpired:
			if msg.data.(int) == m.toastSeq {
				m.toast = nil
			}
			return m, nil
		}
	}

	return m, m.updateFocused(msg)
}

// Screen reports which screen is active.
func (m *Model) Screen() ViewState { return m.view }

// Toast returns the notification currently shown, if any.
func (m *Model) Toast() *console.Notice { return m.toast }

// Settings exposes the settings controller backing the settings screen.
func (m *Model) Settings() *console.Settings { return m.settings }

func (m *Model) busy() bool {
	return m.login.SigningIn() || m.settings.Busy()
}

// leave cancels in-flight work of the current screen; late results become stale.
func (m *Model) leave() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.login.Unmount()
	m.settings.Unmount()
}

func (m *Model) mount() {
	m.leave()
	m.screen, m.cancel = context.WithCancel(m.ctx)
}

func (m *Model) enterLogin() tea.Cmd {
	m.mount()
	m.view = LoginView
	m.login = console.NewLogin(m.opts.API, m.opts.Sessions)
	m.settings = console.NewSettings(m.opts.API, m.opts.Sessions)
	m.username.SetValue("")
	m.password.SetValue("")
	m.password.EchoMode = textinput.EchoPassword
	m.focus = focusUsername
	return m.focusLogin()
}

func (m *Model) enterSettings() tea.Cmd {
	m.mount()
	m.view = SettingsView
	m.focus = focusCharge
	m.focusSettings()

	task, err := m.settings.Load(m.screen)
	if err != nil {
		m.logger.Debug("no usable session", "error", err)
		var cmd tea.Cmd
		if errors.Is(err, shared.ErrTokenExpired) {
			cmd = m.notify(&console.Notice{Level: console.Info, Text: SessionExpiredNotice})
		}
		return tea.Batch(cmd, m.enterLogin())
	}
	return tea.Batch(m.run(task), m.spinner.Tick)
}

// reload re-reads settings without resetting the screen.
func (m *Model) reload() tea.Cmd {
	task, err := m.settings.Load(m.screen)
	if err != nil {
		return m.enterLogin()
	}
	return tea.Batch(m.run(task), m.spinner.Tick)
}

func (m *Model) signOut() tea.Cmd {
	m.leave()
	if err := m.opts.Sessions.Clear(m.ctx); err != nil {
		m.logger.Warn("failed to clear session", "error", err)
	}
	return m.enterLogin()
}

// run executes task off the update loop, bound to the current screen's context.
func (m *Model) run(task console.Task) tea.Cmd {
	ctx := m.screen
	return func() tea.Msg {
		return taskDoneMsg(task(ctx))
	}
}

func (m *Model) notify(n *console.Notice) tea.Cmd {
	if n == nil {
		return nil
	}
	m.toast = n
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(m.opts.ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg(seq)
	})
}

func (m *Model) apply(r console.Result) tea.Cmd {
	if r.Kind == console.OpLogin {
		out := m.login.Apply(r)
		if out.Stale {
			return nil
		}
		cmd := m.notify(out.Notice)
		if out.Navigate {
			m.logger.Info("signed in", "username", m.login.Username())
			m.password.SetValue("")
			return tea.Batch(cmd, m.enterSettings())
		}
		return cmd
	}

	out := m.settings.Apply(r)
	if out.Stale {
		m.logger.Debug("dropped stale result", "op", r.Kind)
		return nil
	}
	if r.Err != nil {
		m.logger.Error("request failed", "op", r.Kind, "error", r.Err)
	}

	cmds := []tea.Cmd{m.notify(out.Notice)}
	switch {
	case out.Unauthorized:
		cmds = append(cmds, m.signOut())
	case out.Reload:
		cmds = append(cmds, m.reload())
	case r.Kind == console.OpLoad && m.settings.State() == console.Ready:
		m.syncAmounts()
		if _, ok := m.focusedAmount(); ok && !m.settings.AmountsEnabled() {
			m.focus = focusCharge
			cmds = append(cmds, m.focusSettings())
		}
	}
	return tea.Batch(cmds...)
}

// syncAmounts copies the draft into the amount inputs.
func (m *Model) syncAmounts() {
	d := m.settings.Draft()
	for i := range m.amounts {
		m.amounts[i].SetValue(d.Amounts[i].Raw)
	}
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.next):
		m.focus = (m.focus + 1) % 3
		return m, m.focusLogin()
	case key.Matches(msg, m.keys.prev):
		m.focus = (m.focus + 2) % 3
		return m, m.focusLogin()
	case key.Matches(msg, m.keys.reveal):
		m.login.ToggleReveal()
		m.password.EchoMode = textinput.EchoPassword
		if m.login.Revealed() {
			m.password.EchoMode = textinput.EchoNormal
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.focus == focusUsername {
			m.focus = focusPassword
			return m, m.focusLogin()
		}
		return m, m.signIn()
	}

	if m.login.SigningIn() {
		return m, nil
	}
	return m, m.updateFocused(msg)
}

func (m *Model) signIn() tea.Cmd {
	task, notice, err := m.login.Submit()
	if err != nil {
		m.logger.Debug("login not sent", "error", err)
		return m.notify(notice)
	}
	return tea.Batch(m.run(task), m.spinner.Tick)
}

func (m *Model) handleSettingsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.settings.State()

	switch {
	case key.Matches(msg, m.keys.logout):
		return m, m.signOut()
	case state == console.LoadError && key.Matches(msg, m.keys.retry):
		return m, m.reload()
	case key.Matches(msg, m.keys.next):
		m.moveFocus(1)
		return m, m.focusSettings()
	case key.Matches(msg, m.keys.prev):
		m.moveFocus(-1)
		return m, m.focusSettings()
	case key.Matches(msg, m.keys.save):
		return m, m.save()
	}

	switch m.focus {
	case focusCharge:
		switch {
		case key.Matches(msg, m.keys.toggle, m.keys.enter):
			m.settings.ToggleCharge()
		case key.Matches(msg, m.keys.yes):
			m.settings.SetCharge(true)
		case key.Matches(msg, m.keys.no):
			m.settings.SetCharge(false)
		}
		return m, nil
	case focusSave:
		if key.Matches(msg, m.keys.enter) {
			return m, m.save()
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.enter) {
		m.moveFocus(1)
		return m, m.focusSettings()
	}
	return m, m.updateFocused(msg)
}

func (m *Model) save() tea.Cmd {
	task, err := m.settings.Submit()
	if err != nil {
		m.logger.Debug("save not sent", "error", err)
		return nil
	}
	return tea.Batch(m.run(task), m.spinner.Tick)
}

// updateFocused forwards msg to the focused text input and feeds its value to the controller.
func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.view {
	case LoginView:
		switch m.focus {
		case focusUsername:
			m.username, cmd = m.username.Update(msg)
			m.login.SetUsername(m.username.Value())
		case focusPassword:
			m.password, cmd = m.password.Update(msg)
			m.login.SetPassword(m.password.Value())
		}
	case SettingsView:
		c, ok := m.focusedAmount()
		if !ok || !m.settings.AmountsEnabled() || m.settings.State() != console.Ready {
			return nil
		}
		before := m.amounts[c].Value()
		m.amounts[c], cmd = m.amounts[c].Update(msg)
		if v := m.amounts[c].Value(); v != before {
			m.settings.SetAmount(c, v)
		}
	}
	return cmd
}

func (m *Model) focusedAmount() (models.Category, bool) {
	if m.focus <= focusCharge || m.focus >= focusSave {
		return 0, false
	}
	return models.Category(m.focus - 1), true
}

// moveFocus steps through the settings controls, skipping disabled amount inputs.
func (m *Model) moveFocus(step int) {
	order := []int{focusCharge}
	if m.settings.AmountsEnabled() {
		for i := range models.NumCategories {
			order = append(order, i+1)
		}
	}
	order = append(order, focusSave)

	at := 0
	for i, f := range order {
		if f == m.focus {
			at = i
		}
	}
	m.focus = order[(at+step+len(order))%len(order)]
}

func (m *Model) focusLogin() tea.Cmd {
	m.username.Blur()
	m.password.Blur()
	switch m.focus {
	case focusUsername:
		return m.username.Focus()
	case focusPassword:
		return m.password.Focus()
	}
	return nil
}

func (m *Model) focusSettings() tea.Cmd {
	for i := range m.amounts {
		m.amounts[i].Blur()
	}
	if c, ok := m.focusedAmount(); ok {
		return m.amounts[c].Focus()
	}
	return nil
}

func (m *Model) helpKeys() []key.Binding {
	if m.view == LoginView {
		return []key.Binding{m.keys.next, m.keys.enter, m.keys.reveal, m.keys.quit}
	}
	if m.settings.State() == console.LoadError {
		return []key.Binding{m.keys.retry, m.keys.logout, m.keys.quit}
	}
	return []key.Binding{m.keys.next, m.keys.toggle, m.keys.save, m.keys.logout, m.keys.quit}
}

func (m *Model) renderToast() string {
	if m.toast == nil {
		return ""
	}
	switch m.toast.Level {
	case console.Success:
		return styles.ok.Render("✓ " + m.toast.Text)
	case console.Error:
		return styles.err.Render("✗ " + m.toast.Text)
	default:
		return styles.warn.Render(m.toast.Text)
	}
}

// cursor marks the focused row.
func (m *Model) cursor(pos int) string {
	if m.focus == pos {
		return styles.focus.Render("> ")
	}
	return "  "
}

func (m *Model) renderButton(label string, pos int, enabled bool) string {
	switch {
	case !enabled:
		return m.cursor(pos) + styles.disabled.Render("[ "+label+" ]")
	case m.focus == pos:
		return m.cursor(pos) + styles.button.Render(label)
	default:
		return m.cursor(pos) + "[ " + label + " ]"
	}
}

func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Venue Admin Login"))
	b.WriteString("\n")

	fields := []struct {
		pos   int
		input textinput.Model
		field console.LoginField
	}{
		{focusUsername, m.username, console.UsernameField},
		{focusPassword, m.password, console.PasswordField},
	}
	for _, f := range fields {
		b.WriteString(m.cursor(f.pos) + f.input.View() + "\n")
		if msg := m.login.FieldError(f.field); msg != "" {
			b.WriteString("  " + styles.err.Render(msg) + "\n")
		}
	}

	b.WriteString("\n")
	label := m.login.ButtonLabel()
	if m.login.SigningIn() {
		label = m.spinner.View() + label
	}
	b.WriteString(m.renderButton(label, focusSignIn, !m.login.SigningIn()))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderSettings() string {
	remote := m.settings.Remote()
	state := m.settings.State()

	switch {
	case state == console.Unauthenticated:
		return ""
	case remote == nil && state == console.Loading:
		return m.spinner.View() + " Loading ...\n"
	case remote == nil:
		return styles.err.Render("Could not load admin settings.") + "\n" + styles.help.Render("Press r to retry") + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(remote.Heading()))
	b.WriteString("\n")
	b.WriteString(m.renderCharge())
	b.WriteString("\n\n")
	b.WriteString(m.renderAmounts())
	b.WriteString("\n")

	if m.settings.ChartVisible() {
		b.WriteString(BarChart(labels(), m.settings.ChartSeries(), m.opts.BarWidth))
		b.WriteString("\n\n")
	}

	label := m.settings.SaveLabel()
	if m.settings.Busy() {
		label = m.spinner.View() + label
	}
	b.WriteString(m.renderButton(label, focusSave, m.settings.CanSubmit()))
	b.WriteString("\n")

	if state == console.LoadError {
		b.WriteString(styles.help.Render("Could not refresh settings. Press r to retry") + "\n")
	}
	return b.String()
}

func (m *Model) renderCharge() string {
	yes, no := "( ) Yes", "(•) No"
	if m.settings.ChargeChoice() {
		yes, no = "(•) Yes", "( ) No"
	}
	return fmt.Sprintf("%s%s  %s  %s", m.cursor(focusCharge), chargeQuestion, yes, no)
}

func (m *Model) renderAmounts() string {
	specs := models.Categories()
	width := 0
	for _, spec := range specs {
		width = max(width, lipgloss.Width(spec.Label))
	}
	labelStyle := lipgloss.NewStyle().Width(width)
	enabled := m.settings.AmountsEnabled()
	draft := m.settings.Draft()

	var b strings.Builder
	for _, spec := range specs {
		pos := int(spec.Category) + 1
		row := m.cursor(pos) + labelStyle.Render(spec.Label) + "  "
		if enabled {
			row += m.amounts[spec.Category].View()
		} else {
			row += styles.disabled.Render(draft.Amounts[spec.Category].Raw)
		}
		if err := m.settings.FieldError(spec.Category); err != nil {
			row += "  " + styles.err.Render(err.Error())
		}
		b.WriteString(row + "\n")
	}
	return b.String()
}

func labels() []string {
	specs := models.Categories()
	out := make([]string, len(specs))
	for i, spec := range specs {
		out[i] = spec.Label
	}
	return out
}
