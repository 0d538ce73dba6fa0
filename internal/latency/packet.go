package latency

import (
	"encoding/binary"
	"errors"

	"github.com/cespare/xxhash"
)

const (
	// SequenceSize is the width of the sequence number prefix in every probe.
	SequenceSize = 8
	// checksumSize is the width of the optional integrity field following the prefix.
	checksumSize = 8
	// MaxDatagramSize bounds receive buffers.
	MaxDatagramSize = 65535
)

var (
	ErrShortPacket      = errors.New("datagram shorter than sequence prefix")
	ErrChecksumMismatch = errors.New("sequence checksum mismatch")
)

// byteOrder must match on both ends of the measurement; the echo responder
// never interprets the payload.
var byteOrder = binary.NativeEndian

// EncodeSequence writes seq into the leading bytes of buf. When buf has room
// for it, an xxhash of the prefix is written right after it.
func EncodeSequence(buf []byte, seq uint64) error {
	if len(buf) < SequenceSize {
		return ErrShortPacket
	}
	byteOrder.PutUint64(buf[:SequenceSize], seq)
	if len(buf) >= SequenceSize+checksumSize {
		byteOrder.PutUint64(buf[SequenceSize:SequenceSize+checksumSize], xxhash.Sum64(buf[:SequenceSize]))
	}
	return nil
}

// DecodeSequence reads the sequence number written by EncodeSequence.
func DecodeSequence(buf []byte) (uint64, error) {
	if len(buf) < SequenceSize {
		return 0, ErrShortPacket
	}
	seq := byteOrder.Uint64(buf[:SequenceSize])
	if len(buf) >= SequenceSize+checksumSize {
		if byteOrder.Uint64(buf[SequenceSize:SequenceSize+checksumSize]) != xxhash.Sum64(buf[:SequenceSize]) {
			return 0, ErrChecksumMismatch
		}
	}
	return seq, nil
}

// newPayload allocates a probe buffer of the given size with a recognisable
// filler after the header.
func newPayload(size int) []byte {
	buf := make([]byte, size)
	for i := SequenceSize + checksumSize; i < size; i++ {
		buf[i] = byte(i)
	}
	return buf
}
