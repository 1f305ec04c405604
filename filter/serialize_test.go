package filter

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"
)

func TestSerializeRoundtripEmpty(t *testing.T) {
	original, err := New(10, 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	data, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	restored, err := UnmarshalBinary(data)
	if err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}

	if restored.Bits() != original.Bits() {
		t.Errorf("Bits mismatch: got %d, want %d", restored.Bits(), original.Bits())
	}
	if restored.K() != original.K() {
		t.Errorf("K mismatch: got %d, want %d", restored.K(), original.K())
	}
	if restored.Cap() != original.Cap() {
		t.Errorf("Cap mismatch: got %d, want %d", restored.Cap(), original.Cap())
	}
	if restored.PopCount() != 0 {
		t.Errorf("expected empty filter, got %d set bits", restored.PopCount())
	}
}

func TestSerializeRoundtripWithData(t *testing.T) {
	original, err := New(18, 4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	r := rand.New(rand.NewPCG(11, 12))
	set := make([]uint64, 5000)
	for i := range set {
		set[i] = r.Uint64N(original.Cap())
		original.SetBit(set[i])
	}

	data, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	restored, err := UnmarshalBinary(data)
	if err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}

	for _, idx := range set {
		if !restored.GetBit(idx) {
			t.Fatalf("bit %d lost in roundtrip", idx)
		}
	}
	if restored.PopCount() != original.PopCount() {
		t.Errorf("PopCount mismatch: got %d, want %d", restored.PopCount(), original.PopCount())
	}

	// Re-marshal must produce identical bytes.
	again, err := restored.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("re-marshaled data differs from original")
	}
}

func TestSerializeRestoredFilterIsWritable(t *testing.T) {
	original, err := New(8, 2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	original.SetBit(5)

	data, _ := original.MarshalBinary()
	restored, err := UnmarshalBinary(data)
	if err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	restored.SetBit(200)
	if !restored.GetBit(5) || !restored.GetBit(200) {
		t.Error("expected both bits set on restored filter")
	}
	if original.GetBit(200) {
		t.Error("restored filter must not share storage with the original")
	}
}

func TestSerializeHeader(t *testing.T) {
	f, err := New(7, 9)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	data, _ := f.MarshalBinary()

	if data[0] != serializeVersion {
		t.Errorf("version byte: got %d, want %d", data[0], serializeVersion)
	}
	if data[1] != 7 {
		t.Errorf("bits byte: got %d, want 7", data[1])
	}
	if want := headerSize + 2*8; len(data) != want {
		t.Errorf("length: got %d, want %d", len(data), want)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	valid, err := New(9, 2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	good, _ := valid.MarshalBinary()

	corrupt := func(mut func([]byte) []byte) []byte {
		c := append([]byte{}, good...)
		return mut(c)
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrInvalidData},
		{"short header", good[:3], ErrInvalidData},
		{"bad version", corrupt(func(b []byte) []byte { b[0] = 2; return b }), ErrUnsupportedVersion},
		{"zero bits", corrupt(func(b []byte) []byte { b[1] = 0; return b }), ErrInvalidData},
		{"huge bits", corrupt(func(b []byte) []byte { b[1] = MaxBits + 1; return b }), ErrInvalidData},
		{"zero k", corrupt(func(b []byte) []byte { b[2], b[3], b[4], b[5] = 0, 0, 0, 0; return b }), ErrInvalidData},
		{"truncated body", good[:len(good)-1], ErrInvalidData},
		{"trailing bytes", append(append([]byte{}, good...), 0), ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalBinary(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
