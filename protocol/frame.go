// Package protocol implements the device wire protocol: frame codec,
// command/response encoding, and the per-device dialect used to interpret
// addresses and sample values.
package protocol

import (
	"fmt"

	"github.com/ardnew/dspctl/pkg"
)

// Frame is a raw, length-delimited span of the wire protocol exactly as
// extracted from the byte stream: it still carries its leading length byte
// and, for a RoleServer decode, its trailing checksum byte. Call Unframe to
// recover the payload.
type Frame []byte

// checksum returns the sum, mod 256, of all the given bytes.
func checksum(b []byte) byte {
	var sum byte
	for _, x := range b {
		sum += x
	}
	return sum
}

// Role distinguishes which side of a connection a Decoder is decoding for,
// since length-prefix semantics differ by direction/peer (§4.1).
type Role int

const (
	// RoleClient decodes frames the way an app reads responses from a real
	// device or network bridge: the length prefix includes the length byte
	// itself, excludes any trailing checksum, and is eligible for the
	// fixed-chunk quirk (below).
	RoleClient Role = iota

	// RoleServer decodes frames the way this process reads commands sent
	// by a well-behaved peer using the canonical frame format: the length
	// prefix excludes itself, and a trailing checksum byte follows.
	RoleServer
)

// Decoder holds the framing state for one direction of one connection. It
// is not safe for concurrent use; callers serialize access (the TCP
// transport's read goroutine owns the only instance for its connection).
type Decoder struct {
	role Role

	// fixedChunkSize, once latched, is the width of the HID-like padded
	// chunks this peer is replying in (§4.1's fixed-chunk quirk). Zero
	// means not yet latched.
	fixedChunkSize int

	// chunkEscaped records that a chunk smaller than 64 bytes was observed
	// and fixed-chunk mode has been permanently abandoned for this
	// connection, reverting to pure length-prefixed decoding.
	chunkEscaped bool
}

// NewDecoder constructs a Decoder for the given role.
func NewDecoder(role Role) *Decoder {
	return &Decoder{role: role}
}

// Decode extracts zero or more complete raw Frames from buf, returning the
// frames found and the number of leading bytes of buf that were consumed.
// Callers re-feed a shrinking prefix on a stream transport (TCP); on a
// message transport (HID report, WebSocket frame) the entire message is
// passed in one call. Decode mirrors the upstream device's own decoder
// call-by-call: each loop iteration below corresponds to one such call,
// re-examining however much of buf remains.
func (d *Decoder) Decode(buf []byte) (frames []Frame, consumed int) {
	for len(buf) > 0 {
		if d.role == RoleClient && !d.chunkEscaped {
			if len(buf) >= 64 {
				if d.fixedChunkSize == 0 {
					size := len(buf)
					for size > 100 && size%2 == 0 {
						size /= 2
					}
					d.fixedChunkSize = size
				}
				n := d.fixedChunkSize
				if len(buf) < n {
					return frames, consumed
				}
				chunk := buf[:n]
				length := int(chunk[0])
				if length > len(chunk) {
					// Malformed latch; wait for more data rather than
					// misparse.
					return frames, consumed
				}
				frames = append(frames, rawFrame(chunk[:length]))
				buf = buf[n:]
				consumed += n
				continue
			}
			// A single chunk under 64 bytes permanently abandons
			// fixed-chunk mode, even mid-stream: the source accepts this
			// and so do we (§9, preserved rather than "fixed").
			d.chunkEscaped = true
		}

		// Skip zero padding appearing before a length prefix; this is
		// cheap recovery from the tail of a previous padded chunk.
		skip := 0
		for skip < len(buf) && buf[skip] == 0 {
			skip++
		}
		buf = buf[skip:]
		consumed += skip
		if len(buf) == 0 {
			return frames, consumed
		}

		length := int(buf[0])
		additional := 0
		if d.role == RoleServer {
			additional = 1
		}
		n := length + additional
		if len(buf) < n {
			return frames, consumed
		}
		frames = append(frames, rawFrame(buf[:n]))
		buf = buf[n:]
		consumed += n
	}
	return frames, consumed
}

func rawFrame(b []byte) Frame {
	return Frame(append([]byte(nil), b...))
}

// Unframe recovers the payload carried by a raw Frame: the leading length
// byte is dropped, and so is a trailing checksum byte if the frame is
// longer than its declared length (true for RoleServer frames, never true
// for RoleClient frames). Checksum mismatches are logged, not rejected:
// inbound verification is advisory because quirky peers do not always
// supply a correct one.
func (f Frame) Unframe() ([]byte, error) {
	if len(f) == 0 {
		return nil, pkg.ErrEmptyFrame
	}
	length := int(f[0])
	if len(f) < length {
		return nil, fmt.Errorf("%w: expected %d, got %d", pkg.ErrShortFrame, length, len(f))
	}
	if len(f) > length {
		want := checksum(f[:length])
		if got := f[length]; got != want {
			pkg.LogWarn(pkg.ComponentCodec, "checksum mismatch", "want", want, "got", got)
		}
	}
	payload := make([]byte, length-1)
	copy(payload, f[1:length])
	return payload, nil
}

// Encode assembles a frame for transmission: length prefix (payload length
// plus one, per the canonical on-wire format) followed by the payload and
// a trailing checksum byte.
func Encode(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+2)
	out = append(out, byte(len(payload)+1))
	out = append(out, payload...)
	out = append(out, checksum(out))
	return out
}
