package counter

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func counterData(count uint64, extra ...byte) []byte {
	data := append([]byte{}, CounterDiscriminator()...)
	data = binary.LittleEndian.AppendUint64(data, count)
	return append(data, extra...)
}

func TestDecodeCounter(t *testing.T) {
	disc := CounterDiscriminator()
	tests := []struct {
		name    string
		data    []byte
		want    Snapshot
		wantErr bool
	}{
		{name: "zero", data: counterData(0), want: Value(0)},
		{name: "small", data: counterData(42), want: Value(42)},
		{name: "max int64", data: counterData(math.MaxInt64), want: Value(math.MaxInt64)},
		{name: "trailing bytes tolerated", data: counterData(7, 1, 2, 3), want: Value(7)},
		{name: "overflow", data: counterData(math.MaxInt64 + 1), wantErr: true},
		{name: "max uint64", data: counterData(math.MaxUint64), wantErr: true},
		{name: "empty", data: nil, wantErr: true},
		{name: "discriminator only", data: disc, wantErr: true},
		{name: "short count", data: append(append([]byte{}, disc...), 1, 2, 3), wantErr: true},
		{name: "wrong discriminator", data: append(make([]byte, 8), counterData(1)[8:]...), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCounter(tt.data, disc)
			if tt.wantErr {
				if !errors.Is(err, ErrDecode) {
					t.Fatalf("DecodeCounter() error = %v, want ErrDecode", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeCounter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeCounter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodeCounterRejectsNegative(t *testing.T) {
	if _, err := EncodeCounter(-1, CounterDiscriminator()); !errors.Is(err, ErrDecode) {
		t.Errorf("EncodeCounter(-1) error = %v, want ErrDecode", err)
	}
	data, err := EncodeCounter(5, CounterDiscriminator())
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 16 {
		t.Errorf("len(EncodeCounter(5)) = %d, want 16", len(data))
	}
}
