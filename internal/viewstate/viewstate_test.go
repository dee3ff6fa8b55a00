package viewstate

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/TahaNaqv/counter-tui/internal/counter"
	"github.com/TahaNaqv/counter-tui/internal/runner"
	"github.com/gagliardetto/solana-go"
	"github.com/google/go-cmp/cmp"
)

func TestProject(t *testing.T) {
	readErr := &counter.ReadError{Err: errors.New("timeout")}

	tests := []struct {
		name string
		in   Inputs
		want View
	}{
		{
			name: "no identity",
			in:   Inputs{},
			want: View{Kind: KindPrompt},
		},
		{
			name: "signer not ready",
			in:   Inputs{HasIdentity: true},
			want: View{Kind: KindAdapterNotReady},
		},
		{
			name: "first load",
			in:   Inputs{HasIdentity: true, SignerReady: true, Loading: true},
			want: View{Kind: KindLoading},
		},
		{
			name: "operation in flight",
			in:   Inputs{HasIdentity: true, SignerReady: true, Known: true, Snapshot: counter.Value(3), Busy: true},
			want: View{Kind: KindLoading, Pending: true},
		},
		{
			name: "value",
			in:   Inputs{HasIdentity: true, SignerReady: true, Known: true, Snapshot: counter.Value(3)},
			want: View{Kind: KindValue, Count: 3},
		},
		{
			name: "negative value",
			in:   Inputs{HasIdentity: true, SignerReady: true, Known: true, Snapshot: counter.Value(-1)},
			want: View{Kind: KindValue, Count: -1},
		},
		{
			name: "absent",
			in:   Inputs{HasIdentity: true, SignerReady: true, Known: true, Snapshot: counter.Absent},
			want: View{Kind: KindNotInitialized},
		},
		{
			name: "error overlays value",
			in:   Inputs{HasIdentity: true, SignerReady: true, Known: true, Snapshot: counter.Value(2), Err: readErr},
			want: View{Kind: KindValue, Count: 2, Error: "Could not load counter: timeout"},
		},
		{
			name: "never loaded",
			in:   Inputs{HasIdentity: true, SignerReady: true, Err: readErr},
			want: View{Kind: KindUnavailable, Error: "Could not load counter: timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Project(tt.in)); diff != "" {
				t.Errorf("Project() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAllowed(t *testing.T) {
	views := map[string]View{
		"prompt":          {Kind: KindPrompt},
		"not ready":       {Kind: KindAdapterNotReady},
		"loading":         {Kind: KindLoading, Pending: true},
		"unavailable":     {Kind: KindUnavailable},
		"value":           {Kind: KindValue, Count: 1},
		"not initialized": {Kind: KindNotInitialized},
	}
	want := map[string]map[counter.Operation]bool{
		"value":           {counter.OpIncrement: true, counter.OpDecrement: true, counter.OpReset: true, counter.OpClose: true},
		"not initialized": {counter.OpInitialize: true},
	}

	for name, v := range views {
		for _, op := range counter.Operations {
			if got := Allowed(op, v); got != want[name][op] {
				t.Errorf("Allowed(%s, %s) = %v, want %v", op, name, got, want[name][op])
			}
		}
	}
}

func TestFromStatus(t *testing.T) {
	id := solana.NewWallet().PublicKey()
	programID := solana.MustPublicKeyFromBase58("42auxsnfr5yGL6kj1jWD7dWuwYU1CHYkfNgtW2yPuX3A")

	if got := Project(FromStatus(runner.Status{})); got.Kind != KindPrompt {
		t.Errorf("no session: Kind = %s, want prompt", got.Kind)
	}

	st := runner.Status{Session: runner.ReadOnlySession(id, programID)}
	if got := Project(FromStatus(st)); got.Kind != KindAdapterNotReady {
		t.Errorf("read-only session: Kind = %s, want adapter-not-ready", got.Kind)
	}
}

func TestMessage(t *testing.T) {
	long := errors.New(strings.Repeat("x", 200))

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"busy", runner.ErrBusy, "Another operation is still in progress"},
		{
			"submission",
			&counter.SubmissionError{Op: counter.OpDecrement, Err: errors.New("custom program error: 0x1770\nlogs: ...")},
			"Decrement failed: custom program error: 0x1770",
		},
		{
			"decode",
			&counter.ReadError{Err: fmt.Errorf("count: %w", counter.ErrDecode)},
			"Counter account has an unexpected format",
		},
		{"read", &counter.ReadError{Err: errors.New("connection refused")}, "Could not load counter: connection refused"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.err); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := []rune(Message(long)); len(got) != maxMessageLen {
		t.Errorf("Message(long) has %d runes, want %d", len(got), maxMessageLen)
	}
}
