package latency

import (
	"errors"
	"math"
	"testing"
)

func TestSequenceRoundTrip(t *testing.T) {
	sizes := []int{SequenceSize, 12, SequenceSize + checksumSize, DefaultPacketSize, 1400}
	seqs := []uint64{0, 1, 255, 1 << 32, math.MaxUint64}

	for _, size := range sizes {
		for _, seq := range seqs {
			buf := newPayload(size)
			if err := EncodeSequence(buf, seq); err != nil {
				t.Fatalf("EncodeSequence(size=%d) error = %v", size, err)
			}
			got, err := DecodeSequence(buf)
			if err != nil || got != seq {
				t.Errorf("DecodeSequence(size=%d) = (%d, %v), want %d", size, got, err, seq)
			}
		}
	}
}

func TestDecodeSequence_Anomalies(t *testing.T) {
	if _, err := DecodeSequence(make([]byte, SequenceSize-1)); !errors.Is(err, ErrShortPacket) {
		t.Errorf("short datagram error = %v, want ErrShortPacket", err)
	}
	if err := EncodeSequence(make([]byte, 3), 1); !errors.Is(err, ErrShortPacket) {
		t.Errorf("EncodeSequence into short buffer error = %v, want ErrShortPacket", err)
	}

	buf := newPayload(DefaultPacketSize)
	if err := EncodeSequence(buf, 42); err != nil {
		t.Fatal(err)
	}
	buf[0] ^= 0xff
	if _, err := DecodeSequence(buf); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("corrupted prefix error = %v, want ErrChecksumMismatch", err)
	}

	// Without room for the checksum only the prefix is checked
	small := make([]byte, SequenceSize)
	if err := EncodeSequence(small, 42); err != nil {
		t.Fatal(err)
	}
	small[0] ^= 0xff
	if _, err := DecodeSequence(small); err != nil {
		t.Errorf("prefix-only datagram error = %v, want nil", err)
	}
}

func TestNewPayload(t *testing.T) {
	buf := newPayload(20)
	if len(buf) != 20 {
		t.Fatalf("len = %d, want 20", len(buf))
	}
	for i := 16; i < 20; i++ {
		if buf[i] != byte(i) {
			t.Errorf("buf[%d] = %d, want %d", i, buf[i], i)
		}
	}
}
