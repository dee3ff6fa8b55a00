// Package viewstate projects wallet, runner and snapshot state onto the
// single thing the counter screen shows. Project is a pure function of its
// inputs; it keeps no history.
package viewstate

import (
	"errors"
	"strings"

	"github.com/TahaNaqv/counter-tui/internal/counter"
	"github.com/TahaNaqv/counter-tui/internal/runner"
)

// Kind is what the main panel displays.
type Kind int

const (
	KindPrompt Kind = iota
	KindAdapterNotReady
	KindLoading
	KindValue
	KindNotInitialized
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindPrompt:
		return "prompt"
	case KindAdapterNotReady:
		return "adapter-not-ready"
	case KindLoading:
		return "loading"
	case KindValue:
		return "value"
	case KindNotInitialized:
		return "not-initialized"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Inputs are the facts a view is derived from.
type Inputs struct {
	HasIdentity bool
	SignerReady bool
	Known       bool // Snapshot came from a successful read
	Snapshot    counter.Snapshot
	Busy        bool // an operation is submitting or refetching
	Loading     bool // a plain read is in flight
	Err         error
}

// View is the projected screen state.
type View struct {
	Kind    Kind
	Count   int64 // valid for KindValue
	Pending bool  // an operation is in flight
	Error   string
}

// Project derives the view from in.
func Project(in Inputs) View {
	v := View{Error: Message(in.Err)}
	switch {
	case !in.HasIdentity:
		v.Kind = KindPrompt
	case !in.SignerReady:
		v.Kind = KindAdapterNotReady
	case in.Busy || in.Loading:
		v.Kind = KindLoading
		v.Pending = in.Busy
	case !in.Known:
		v.Kind = KindUnavailable
	case in.Snapshot.Present:
		v.Kind = KindValue
		v.Count = in.Snapshot.Count
	default:
		v.Kind = KindNotInitialized
	}
	return v
}

// FromStatus builds Inputs from a runner status.
func FromStatus(st runner.Status) Inputs {
	return Inputs{
		HasIdentity: st.Session != nil,
		SignerReady: st.Session.SignerReady(),
		Known:       st.Known,
		Snapshot:    st.Snapshot,
		Busy:        st.State != runner.Idle,
		Loading:     st.Loading,
		Err:         st.Err,
	}
}

// Allowed reports whether op's control is enabled in v.
func Allowed(op counter.Operation, v View) bool {
	switch v.Kind {
	case KindValue:
		return op != counter.OpInitialize
	case KindNotInitialized:
		return op == counter.OpInitialize
	default:
		return false
	}
}

const maxMessageLen = 72

// Message turns err into one short line for the status area. It returns ""
// for a nil error.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		subErr  *counter.SubmissionError
		readErr *counter.ReadError
		msg     string
	)
	switch {
	case errors.Is(err, runner.ErrBusy):
		msg = "Another operation is still in progress"
	case errors.Is(err, runner.ErrNotAllowed):
		msg = "Not available for the current counter state"
	case errors.Is(err, runner.ErrNoSession):
		msg = "Connect a wallet first"
	case errors.Is(err, runner.ErrSignerNotReady):
		msg = "Wallet is not ready to sign"
	case errors.As(err, &subErr):
		msg = capitalize(string(subErr.Op)) + " failed: " + reason(subErr.Err)
	case errors.Is(err, counter.ErrDecode):
		msg = "Counter account has an unexpected format"
	case errors.As(err, &readErr):
		msg = "Could not load counter: " + reason(readErr.Err)
	default:
		msg = reason(err)
	}
	return truncate(msg, maxMessageLen)
}

// reason keeps the first line of err's text.
func reason(err error) string {
	s := err.Error()
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
