package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/TahaNaqv/counter-tui/internal/client"
	"github.com/TahaNaqv/counter-tui/internal/counter"
	"github.com/TahaNaqv/counter-tui/internal/runner"
	"github.com/TahaNaqv/counter-tui/internal/theme"
	"github.com/TahaNaqv/counter-tui/internal/viewstate"
	"github.com/TahaNaqv/counter-tui/internal/views/debug"
	"github.com/TahaNaqv/counter-tui/internal/views/help"
	"github.com/TahaNaqv/counter-tui/internal/views/panel"
	"github.com/TahaNaqv/counter-tui/internal/views/status"
	"github.com/TahaNaqv/counter-tui/internal/wallet"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gagliardetto/solana-go"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDebug
	OverlayHelp
)

// Options wires the model to the ledger and the user's wallets.
type Options struct {
	Wallets   wallet.Source
	Transport counter.Transport
	ProgramID solana.PublicKey
	Endpoint  string
	WatchURL  string // empty disables the account watcher
	Runner    *runner.Runner
	Logger    *slog.Logger
	HelpStyle string
}

// Model is the root Bubble Tea model.
type Model struct {
	opts   Options
	runner *runner.Runner
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	keys    KeyMap
	width   int
	height  int
	overlay Overlay

	// Wallet state. openSeq invalidates wallet opens that were overtaken
	// by a later switch or disconnect.
	walletIdx int
	openSeq   int
	account   *wallet.Account
	notice    string

	watcher     *client.AccountWatcher
	watchCtx    context.Context
	watchCancel context.CancelFunc

	// Sub-views.
	statusBar status.Model
	panel     panel.Model
	debugLog  debug.Model
	help      help.Model
}

// --- internal messages ---

type walletOpenedMsg struct {
	seq     int
	account wallet.Account
	err     error
}

type loadDoneMsg struct {
	ticket runner.Ticket
	snap   counter.Snapshot
	err    error
}

type submitDoneMsg struct {
	job runner.Job
	sig solana.Signature
	err error
}

type fetchDoneMsg struct {
	ticket runner.Ticket
	snap   counter.Snapshot
	err    error
}

// New creates the root model.
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Runner == nil {
		opts.Runner = runner.New(opts.Logger)
	}
	ctx, cancel := context.WithCancel(context.Background())
	keys := DefaultKeyMap()
	return Model{
		opts:      opts,
		runner:    opts.Runner,
		logger:    opts.Logger,
		ctx:       ctx,
		cancel:    cancel,
		keys:      keys,
		openSeq:   1,
		statusBar: status.New(opts.Endpoint),
		panel:     panel.New(),
		debugLog:  debug.New(),
		help:      help.New(opts.HelpStyle, helpSections(keys)...),
	}
}

func helpSections(k KeyMap) []help.Section {
	return []help.Section{
		{Title: "Counter", Bindings: []key.Binding{k.Initialize, k.Increment, k.Decrement, k.Reset, k.Close, k.Refresh}},
		{Title: "Wallet", Bindings: []key.Binding{k.Wallet, k.Connect, k.Disconnect}},
		{Title: "Screen", Bindings: []key.Binding{k.Debug, k.Help, k.Escape, k.Quit}},
	}
}

// Init connects the first wallet.
func (m Model) Init() tea.Cmd {
	if m.opts.Wallets.Len() == 0 {
		return m.panel.Init()
	}
	return tea.Batch(m.panel.Init(), m.openWallet(m.openSeq, m.walletIdx))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.panel.Width = msg.Width
		if m.overlay == OverlayHelp {
			m.help.View(m.width)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case walletOpenedMsg:
		if msg.seq != m.openSeq {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("open wallet failed", "index", m.walletIdx, "err", msg.err)
			m.debugLog.Add("err", "open wallet: %v", msg.err)
			m.notice = viewstate.Message(msg.err)
			return m, m.refresh()
		}
		return m, m.connect(msg.account)

	case loadDoneMsg:
		m.runner.LoadDone(msg.ticket, msg.snap, msg.err)
		if msg.err != nil {
			m.debugLog.Add("err", "read: %v", msg.err)
		} else {
			m.debugLog.Add("read", "counter %s", msg.snap)
		}
		return m, tea.Batch(m.reloadIfDue(), m.refresh())

	case submitDoneMsg:
		ticket, ok := m.runner.SubmitDone(msg.job, msg.sig, msg.err)
		switch {
		case msg.err != nil:
			m.debugLog.Add("err", "%s: %v", msg.job.Op, msg.err)
		default:
			m.debugLog.Add("tx", "%s confirmed %s", msg.job.Op, msg.sig)
		}
		if !ok {
			return m, tea.Batch(m.reloadIfDue(), m.refresh())
		}
		return m, tea.Batch(m.fetch(ticket), m.refresh())

	case fetchDoneMsg:
		m.runner.FetchDone(msg.ticket, msg.snap, msg.err)
		if msg.err != nil {
			m.debugLog.Add("err", "refetch: %v", msg.err)
		} else {
			m.debugLog.Add("read", "counter %s", msg.snap)
		}
		return m, tea.Batch(m.reloadIfDue(), m.refresh())

	case client.WatchConnectedMsg:
		if !m.watching(msg.Address) || !m.watcher.Connected() {
			return m, nil
		}
		m.statusBar.Watch = status.WatchLive
		m.debugLog.Add("ws", "watching %s", msg.Address)
		return m, m.watcher.ReadLoop(m.watchCtx)

	case client.AccountChangedMsg:
		if !m.watching(msg.Address) {
			return m, nil
		}
		m.debugLog.Add("ws", "account changed at slot %d", msg.Slot)
		// A change seen mid-operation or mid-read is read once things settle.
		m.runner.RequestReload()
		return m, tea.Batch(m.watcher.ReadLoop(m.watchCtx), m.reloadIfDue(), m.refresh())

	case client.WatchDisconnectedMsg:
		if !m.watching(msg.Address) {
			return m, nil
		}
		m.statusBar.Watch = status.WatchConnecting
		m.debugLog.Add("ws", "watch dropped: %v", msg.Err)
		return m, m.watcher.Listen(m.watchCtx)

	case panel.FrameMsg, spinner.TickMsg:
		var cmd tea.Cmd
		m.panel, cmd = m.panel.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.stopWatch()
		m.cancel()
		return m, tea.Quit
	}

	if m.overlay != OverlayNone {
		switch {
		case key.Matches(msg, m.keys.Escape),
			m.overlay == OverlayDebug && key.Matches(msg, m.keys.Debug),
			m.overlay == OverlayHelp && key.Matches(msg, m.keys.Help):
			m.overlay = OverlayNone
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Up):
			m.debugLog.ScrollUp(1)
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Down):
			m.debugLog.ScrollDown(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		m.help.View(m.width)
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if st := m.runner.Status(); st.State != runner.Idle || st.Loading {
			return m, nil
		}
		return m, tea.Batch(m.load(), m.refresh())

	case key.Matches(msg, m.keys.Wallet):
		n := m.opts.Wallets.Len()
		if n == 0 || (n == 1 && m.account != nil) {
			return m, nil
		}
		if m.account != nil {
			m.walletIdx = (m.walletIdx + 1) % n
		}
		m.openSeq++
		return m, m.openWallet(m.openSeq, m.walletIdx)

	case key.Matches(msg, m.keys.Connect):
		if m.account != nil || m.opts.Wallets.Len() == 0 {
			return m, nil
		}
		m.openSeq++
		return m, m.openWallet(m.openSeq, m.walletIdx)

	case key.Matches(msg, m.keys.Disconnect):
		if m.account == nil {
			return m, nil
		}
		return m, m.disconnect()
	}

	for _, op := range counter.Operations {
		if key.Matches(msg, m.keys.Operation(op)) {
			return m, m.run(op)
		}
	}
	return m, nil
}

func (m Model) openWallet(seq, idx int) tea.Cmd {
	src := m.opts.Wallets
	return func() tea.Msg {
		acct, err := src.Open(idx)
		return walletOpenedMsg{seq: seq, account: acct, err: err}
	}
}

// connect makes acct the active identity. The previous session's results
// are discarded by the runner from here on.
func (m *Model) connect(acct wallet.Account) tea.Cmd {
	m.stopWatch()
	m.account = &acct
	m.notice = ""

	var s *runner.Session
	if acct.SignerReady() {
		s = runner.NewSession(counter.NewClient(m.opts.Transport, acct.Signer, m.opts.ProgramID))
	} else {
		s = runner.ReadOnlySession(acct.Identity, m.opts.ProgramID)
	}
	m.runner.SetSession(s)

	m.statusBar.Identity = acct.Identity.String()
	m.statusBar.Address = s.Address.String()
	m.statusBar.Label = acct.Label
	m.statusBar.ReadOnly = !acct.SignerReady()
	m.debugLog.Add("wal", "connected %s, counter at %s", acct.Identity, s.Address)
	m.logger.Info("wallet connected", "identity", acct.Identity, "address", s.Address, "label", acct.Label)

	cmds := []tea.Cmd{m.load()}
	if acct.SignerReady() && m.opts.WatchURL != "" {
		cmds = append(cmds, m.startWatch(s.Address))
	}
	cmds = append(cmds, m.refresh())
	return tea.Batch(cmds...)
}

func (m *Model) disconnect() tea.Cmd {
	m.openSeq++
	m.stopWatch()
	m.account = nil
	m.notice = ""
	m.runner.SetSession(nil)

	m.statusBar.Identity = ""
	m.statusBar.Address = ""
	m.statusBar.Label = ""
	m.statusBar.ReadOnly = false
	m.debugLog.Add("wal", "disconnected")
	m.logger.Info("wallet disconnected")
	return m.refresh()
}

func (m *Model) startWatch(addr solana.PublicKey) tea.Cmd {
	m.watchCtx, m.watchCancel = context.WithCancel(m.ctx)
	m.watcher = client.NewAccountWatcher(m.opts.WatchURL, addr, m.logger)
	m.statusBar.Watch = status.WatchConnecting
	return m.watcher.Listen(m.watchCtx)
}

func (m *Model) stopWatch() {
	if m.watchCancel != nil {
		m.watchCancel()
	}
	m.watcher = nil
	m.watchCtx = nil
	m.watchCancel = nil
	m.statusBar.Watch = status.WatchOff
}

// watching reports whether msgs for addr come from the live watcher.
func (m Model) watching(addr solana.PublicKey) bool {
	return m.watcher != nil && m.watcher.Address() == addr && m.watchCtx.Err() == nil
}

// load starts a read for the current session.
func (m *Model) load() tea.Cmd {
	ticket, ok := m.runner.BeginLoad()
	if !ok {
		return nil
	}
	c := ticket.Client()
	ctx := m.ctx
	return func() tea.Msg {
		snap, err := c.Fetch(ctx)
		return loadDoneMsg{ticket: ticket, snap: snap, err: err}
	}
}

// reloadIfDue starts a read if the runner has a deferred reload pending.
func (m *Model) reloadIfDue() tea.Cmd {
	if !m.runner.TakeReload() {
		return nil
	}
	m.debugLog.Add("read", "reloading after outside change")
	return m.load()
}

// run starts op if its control is enabled. Anything else is a no-op.
func (m *Model) run(op counter.Operation) tea.Cmd {
	if !viewstate.Allowed(op, m.panel.View) {
		return nil
	}
	job, err := m.runner.Begin(op)
	if err != nil {
		m.logger.Debug("operation rejected", "op", op, "err", err)
		return nil
	}
	c := job.Client()
	m.debugLog.Add("tx", "%s sent (job %s)", op, job.ID)
	ctx := m.ctx
	submit := func() tea.Msg {
		sig, err := c.Execute(ctx, op)
		return submitDoneMsg{job: job, sig: sig, err: err}
	}
	return tea.Batch(submit, m.refresh())
}

func (m *Model) fetch(ticket runner.Ticket) tea.Cmd {
	c := ticket.Client()
	ctx := m.ctx
	return func() tea.Msg {
		snap, err := c.Fetch(ctx)
		return fetchDoneMsg{ticket: ticket, snap: snap, err: err}
	}
}

// refresh recomputes the panel from the runner and returns the panel's
// animation command, if any.
func (m *Model) refresh() tea.Cmd {
	v := viewstate.Project(viewstate.FromStatus(m.runner.Status()))
	if v.Error == "" {
		v.Error = m.notice
	}
	controls := make([]panel.Control, 0, len(counter.Operations))
	for _, op := range counter.Operations {
		h := m.keys.Operation(op).Help()
		controls = append(controls, panel.Control{Key: h.Key, Label: h.Desc, Enabled: viewstate.Allowed(op, v)})
	}
	m.panel.Controls = controls
	return m.panel.SetView(v)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	header := theme.StyleHeader.Render(" COUNTER ") +
		theme.StyleDimmed.Render("program "+m.opts.ProgramID.String())

	var body string
	switch m.overlay {
	case OverlayDebug:
		body = m.debugLog.View(m.width, m.height-4)
	case OverlayHelp:
		body = m.help.View(m.width)
	default:
		body = m.panel.Render()
	}

	footer := theme.StyleDimmed.Render("  r:refresh  w:wallet  c/d:connect  `:log  ?:help  q:quit")
	return lipgloss.JoinVertical(lipgloss.Left, m.statusBar.View(), header, body, footer)
}
