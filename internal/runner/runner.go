// Package runner coordinates mutating counter operations for the active
// wallet: at most one operation is in flight, every successful write is
// followed by a read, and results that arrive after the wallet changed are
// dropped.
//
// The Runner is a state machine driven by explicit events (Begin,
// SubmitDone, FetchDone, BeginLoad, LoadDone) so that callers can perform
// the network I/O wherever suits them, e.g. inside Bubble Tea commands.
// Run chains the events for callers that simply want to block.
package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/TahaNaqv/counter-tui/internal/counter"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// State is the runner's position in the submit/refetch cycle.
type State int

const (
	Idle State = iota
	Submitting
	Refetching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Refetching:
		return "refetching"
	default:
		return "unknown"
	}
}

var (
	ErrNoSession      = errors.New("no wallet connected")
	ErrSignerNotReady = errors.New("wallet cannot sign yet")
	ErrBusy           = errors.New("another operation is in progress")
	ErrNotAllowed     = errors.New("operation not allowed in the current state")
	ErrSessionChanged = errors.New("wallet changed while the operation was in flight")
)

// Session binds the active identity to its derived address and client.
// Client is nil while the wallet has no signer.
type Session struct {
	Identity solana.PublicKey
	Address  solana.PublicKey
	Client   *counter.Client
}

// NewSession returns a signing session for c's wallet.
func NewSession(c *counter.Client) *Session {
	return &Session{Identity: c.Owner(), Address: c.Address(), Client: c}
}

// ReadOnlySession returns a session for an identity without a signer.
func ReadOnlySession(identity, programID solana.PublicKey) *Session {
	addr, _ := counter.DeriveAddress(identity, programID)
	return &Session{Identity: identity, Address: addr}
}

// SignerReady reports whether the session can submit operations.
func (s *Session) SignerReady() bool { return s != nil && s.Client != nil }

// Job identifies one accepted operation.
type Job struct {
	ID     string
	Op     counter.Operation
	gen    uint64
	owner  solana.PublicKey
	client *counter.Client
}

// Client returns the client the operation must be submitted with.
func (j Job) Client() *counter.Client { return j.client }

// Ticket identifies one account read.
type Ticket struct {
	gen    uint64
	client *counter.Client
}

// Client returns the client the read must go through.
func (t Ticket) Client() *counter.Client { return t.client }

// Status is a consistent copy of the runner's state.
type Status struct {
	State    State
	Session  *Session
	Snapshot counter.Snapshot
	Known    bool // Snapshot holds a successful read for this session
	Loading  bool // an identity-triggered read is in flight
	Job      *Job
	Err      error
}

// Runner is safe for concurrent use.
type Runner struct {
	mu      sync.Mutex
	logger  *slog.Logger
	state   State
	gen     uint64
	session *Session
	snap    counter.Snapshot
	known   bool
	loads   int // in-flight loads for the current generation
	job     *Job
	err     error
	reload  bool // the account may have changed since the last read
}

// New creates an idle runner with no session.
func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{logger: logger}
}

// SetSession switches the active identity; nil disconnects. The snapshot and
// last error are cleared. An operation already in flight keeps the runner
// busy until its result arrives, and that result is then discarded.
func (r *Runner) SetSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.session = s
	r.snap = counter.Snapshot{}
	r.known = false
	r.loads = 0
	r.err = nil
	r.reload = false
	if s != nil {
		r.logger.Info("session changed", "identity", s.Identity, "address", s.Address, "signer_ready", s.SignerReady())
	} else {
		r.logger.Info("session cleared")
	}
}

// Status returns a copy of the current state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{
		State:    r.state,
		Session:  r.session,
		Snapshot: r.snap,
		Known:    r.known,
		Loading:  r.loads > 0,
		Err:      r.err,
	}
	if r.job != nil {
		job := *r.job
		st.Job = &job
	}
	return st
}

// Begin accepts op if the runner is idle, the session can sign and op is
// allowed on the last known snapshot. A rejected call changes nothing.
func (r *Runner) Begin(op counter.Operation) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.session == nil:
		return Job{}, ErrNoSession
	case !r.session.SignerReady():
		return Job{}, ErrSignerNotReady
	case r.state != Idle:
		return Job{}, ErrBusy
	case !r.known || !op.AllowedOn(r.snap):
		return Job{}, ErrNotAllowed
	}
	job := Job{
		ID:     uuid.NewString(),
		Op:     op,
		gen:    r.gen,
		owner:  r.session.Identity,
		client: r.session.Client,
	}
	r.job = &job
	r.state = Submitting
	r.logger.Info("operation started", "job", job.ID, "op", op, "address", r.session.Address)
	return job, nil
}

// SubmitDone records the outcome of job's submission. On success the runner
// moves to Refetching and the returned ticket must be passed to FetchDone
// once the follow-up read completes. If ok is false no read is needed.
//
// A submission that outlived its session is discarded. If the wallet that
// sent it is active again, a reload is marked due (see TakeReload) because
// the write may have landed after the new session's first read.
func (r *Runner) SubmitDone(job Job, sig solana.Signature, err error) (t Ticket, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.job == nil || r.job.ID != job.ID || r.state != Submitting {
		return Ticket{}, false
	}
	if job.gen != r.gen {
		r.logger.Info("discarding stale submission", "job", job.ID, "op", job.Op, "err", err)
		r.releaseStale()
		return Ticket{}, false
	}
	if err != nil {
		r.logger.Warn("operation failed", "job", job.ID, "op", job.Op, "err", err)
		r.err = err
		r.finish()
		return Ticket{}, false
	}
	r.logger.Info("operation confirmed", "job", job.ID, "op", job.Op, "signature", sig)
	r.err = nil
	r.state = Refetching
	return Ticket{gen: job.gen, client: job.client}, true
}

// FetchDone completes the read that followed a successful submission. A
// failed read keeps the previous snapshot.
func (r *Runner) FetchDone(t Ticket, snap counter.Snapshot, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Refetching {
		return
	}
	if t.gen != r.gen {
		r.logger.Debug("discarding stale refetch", "err", err)
		r.releaseStale()
		return
	}
	r.apply(t, snap, err)
	r.finish()
}

// BeginLoad starts a read that is not tied to an operation, e.g. after the
// wallet connects or the account watcher reports a change.
func (r *Runner) BeginLoad() (Ticket, bool) {
	t, err := r.beginLoad()
	return t, err == nil
}

func (r *Runner) beginLoad() (Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.session == nil:
		return Ticket{}, ErrNoSession
	case !r.session.SignerReady():
		return Ticket{}, ErrSignerNotReady
	}
	r.loads++
	r.reload = false
	return Ticket{gen: r.gen, client: r.session.Client}, nil
}

// RequestReload records that the account changed outside this runner, e.g.
// a watcher notification. The read is deferred until TakeReload reports it
// due, so it never races an operation in flight.
func (r *Runner) RequestReload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session.SignerReady() {
		r.reload = true
	}
}

// TakeReload reports whether a reload is due now: one was requested and the
// runner is idle with no reads in flight. A true result clears the request;
// the caller is expected to follow with BeginLoad.
func (r *Runner) TakeReload() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.reload || r.state != Idle || r.loads > 0 {
		return false
	}
	r.reload = false
	return true
}

// LoadDone completes a read started with BeginLoad.
func (r *Runner) LoadDone(t Ticket, snap counter.Snapshot, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.gen == r.gen && r.loads > 0 {
		r.loads--
	}
	r.apply(t, snap, err)
}

// apply stores a read result if it belongs to the current session. Within a
// session the result that arrives last wins.
func (r *Runner) apply(t Ticket, snap counter.Snapshot, err error) {
	if t.gen != r.gen {
		r.logger.Debug("discarding stale read", "err", err)
		return
	}
	if err != nil {
		r.logger.Warn("read failed", "err", err)
		r.err = err
		return
	}
	r.snap = snap
	r.known = true
	r.err = nil
}

func (r *Runner) finish() {
	r.state = Idle
	r.job = nil
}

// releaseStale frees the slot held by a job from an earlier session.
func (r *Runner) releaseStale() {
	if r.job != nil && r.session.SignerReady() && r.session.Identity == r.job.owner {
		r.reload = true
	}
	r.finish()
}

// Run performs op end to end for the current session: submit, wait for
// confirmation, read back. It returns the snapshot after the operation.
func (r *Runner) Run(ctx context.Context, op counter.Operation) (counter.Snapshot, error) {
	job, err := r.Begin(op)
	if err != nil {
		return counter.Snapshot{}, err
	}

	sig, err := job.Client().Execute(ctx, op)
	t, ok := r.SubmitDone(job, sig, err)
	if err != nil {
		return counter.Snapshot{}, err
	}
	if !ok {
		return counter.Snapshot{}, ErrSessionChanged
	}

	snap, err := t.Client().Fetch(ctx)
	r.FetchDone(t, snap, err)
	if err != nil {
		return counter.Snapshot{}, err
	}
	return snap, nil
}

// Load reads the account for the current session and records the result.
func (r *Runner) Load(ctx context.Context) (counter.Snapshot, error) {
	t, err := r.beginLoad()
	if err != nil {
		return counter.Snapshot{}, err
	}
	snap, err := t.Client().Fetch(ctx)
	r.LoadDone(t, snap, err)
	return snap, err
}
