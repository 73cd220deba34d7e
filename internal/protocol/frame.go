// Package protocol frames turns exchanged with the reasoning backend over a
// persistent byte stream.
//
// Every frame starts with a fixed 10 byte header: one role digit followed by
// the payload length as nine decimal digits. Outbound headers are zero
// padded; inbound headers may be space padded. Text payloads may be followed
// by a CRLF terminator, image payloads are raw bytes.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HeaderLength is the fixed size of a frame header in bytes.
const HeaderLength = 10

// MaxPayloadLength is the largest length the header can carry.
const MaxPayloadLength = 999_999_999

// Role is the header digit identifying the frame kind.
type Role uint8

// Roles sent to the backend.
const (
	RoleUser      Role = 0
	RoleAssistant Role = 1
	RoleSystem    Role = 2
	RoleUserInit  Role = 3
	RoleImage     Role = 4
	RoleEndOfTurn Role = 9
)

// Kinds received from the backend share the digit space with outbound roles.
const (
	KindCommand Role = 0
	KindPrefab  Role = 1
	KindText    Role = 2
	KindAction  Role = 3
	KindEnd     Role = 9
)

var (
	// ErrMalformedHeader indicates a header that is not a digit plus a
	// decimal length.
	ErrMalformedHeader = errors.New("protocol: malformed header")
)

// Frame is one decoded unit of the wire stream.
type Frame struct {
	Role    Role
	Payload []byte
}

// Text returns the payload as a string.
func (f Frame) Text() string {
	return string(f.Payload)
}

// String returns the outbound role name.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	case RoleSystem:
		return "system"
	case RoleUserInit:
		return "user_init"
	case RoleImage:
		return "image"
	case RoleEndOfTurn:
		return "end_of_turn"
	default:
		return "role_" + strconv.Itoa(int(r))
	}
}

// KindName returns the inbound kind name.
func (r Role) KindName() string {
	switch r {
	case KindCommand:
		return "command"
	case KindPrefab:
		return "prefab"
	case KindText:
		return "text"
	case KindAction:
		return "action"
	case KindEnd:
		return "end"
	default:
		return "kind_" + strconv.Itoa(int(r))
	}
}

// Valid reports whether the role fits a single header digit.
func (r Role) Valid() bool {
	return r <= 9
}

// EncodeHeader renders the header for a payload of n bytes.
func EncodeHeader(role Role, n int) ([]byte, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %d", ErrMalformedHeader, role)
	}
	if n < 0 || n > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, n)
	}
	return []byte(fmt.Sprintf("%d%09d", role, n)), nil
}

// Encode renders a complete frame. End-of-turn frames never carry a payload.
func Encode(role Role, payload []byte) ([]byte, error) {
	if role == RoleEndOfTurn {
		payload = nil
	}
	header, err := EncodeHeader(role, len(payload))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, HeaderLength+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out, nil
}

// DecodeHeader parses a 10 byte header.
func DecodeHeader(header []byte) (Role, int, error) {
	if len(header) != HeaderLength {
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrMalformedHeader, len(header))
	}
	digit := header[0]
	if digit < '0' || digit > '9' {
		return 0, 0, fmt.Errorf("%w: role %q", ErrMalformedHeader, digit)
	}
	raw := strings.TrimSpace(string(header[1:]))
	if raw == "" {
		return 0, 0, fmt.Errorf("%w: empty length", ErrMalformedHeader)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, 0, fmt.Errorf("%w: length %q", ErrMalformedHeader, raw)
	}
	return Role(digit - '0'), n, nil
}
