package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Framing selects how inbound payload boundaries are found.
type Framing string

const (
	// FramingLength reads exactly the header length of payload bytes.
	FramingLength Framing = "length"
	// FramingLine reads text payloads up to the line terminator and treats
	// the header length as advisory. Image payloads are still read by exact
	// byte count. This matches backends that count characters rather than
	// encoded bytes.
	FramingLine Framing = "line"
)

// ParseFraming validates a framing name. Empty selects FramingLength.
func ParseFraming(raw string) (Framing, error) {
	switch Framing(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FramingLength:
		return FramingLength, nil
	case FramingLine:
		return FramingLine, nil
	default:
		return "", fmt.Errorf("unknown framing %q", raw)
	}
}

// DefaultMaxPayload bounds a single inbound payload unless overridden.
const DefaultMaxPayload = 16 << 20

// ErrPayloadTooLarge indicates a payload over the decoder limit or the header
// capacity. The stream cannot be resynchronised after it.
var ErrPayloadTooLarge = errors.New("protocol: payload too large")

// Decoder reads frames from a stream.
type Decoder struct {
	r       *bufio.Reader
	framing Framing
	max     int
	header  [HeaderLength]byte
}

// NewDecoder wraps r. An unknown framing falls back to FramingLength.
func NewDecoder(r io.Reader, framing Framing) *Decoder {
	if framing != FramingLine {
		framing = FramingLength
	}
	return &Decoder{r: bufio.NewReader(r), framing: framing, max: DefaultMaxPayload}
}

// LimitPayload sets the largest payload Next accepts. Non-positive values
// restore DefaultMaxPayload.
func (d *Decoder) LimitPayload(n int) *Decoder {
	if n <= 0 {
		n = DefaultMaxPayload
	}
	d.max = n
	return d
}

// Next blocks until a complete frame is read. It returns io.EOF when the
// stream ends cleanly between frames, io.ErrUnexpectedEOF when it ends
// mid-frame, ErrMalformedHeader for undecodable headers and
// ErrPayloadTooLarge before buffering anything past the limit.
func (d *Decoder) Next() (Frame, error) {
	if err := d.skipTerminators(); err != nil {
		return Frame{}, err
	}
	if _, err := io.ReadFull(d.r, d.header[:]); err != nil {
		return Frame{}, unexpected(err)
	}
	role, n, err := DecodeHeader(d.header[:])
	if err != nil {
		return Frame{}, err
	}
	if n == 0 {
		return Frame{Role: role}, nil
	}
	if d.framing == FramingLine && role != RoleImage {
		return d.readLine(role)
	}
	if n > d.max {
		return Frame{}, fmt.Errorf("%w: %s frame of %d bytes, limit %d", ErrPayloadTooLarge, role, n, d.max)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return Frame{}, unexpected(err)
	}
	return Frame{Role: role, Payload: payload}, nil
}

func (d *Decoder) readLine(role Role) (Frame, error) {
	var line []byte
	for {
		chunk, err := d.r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(bytes.TrimRight(line, "\r\n")) > d.max {
			return Frame{}, fmt.Errorf("%w: %s line over %d bytes", ErrPayloadTooLarge, role, d.max)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return Frame{}, unexpected(err)
		}
		break
	}
	return Frame{Role: role, Payload: bytes.TrimRight(line, "\r\n")}, nil
}

// skipTerminators discards CR and LF bytes left between frames.
func (d *Decoder) skipTerminators() error {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return err
		}
		if b == '\r' || b == '\n' {
			continue
		}
		return d.r.UnreadByte()
	}
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
