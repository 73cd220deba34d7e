package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payloads := map[Role][]byte{
		RoleUser:      []byte("add a cube"),
		RoleAssistant: []byte(`{"commandType": "environment"}`),
		RoleSystem:    []byte("You are a helpful assistant.\nLine two."),
		RoleUserInit:  []byte("héllo 世界"),
		RoleImage:     {0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00, 0xff},
	}
	for role, payload := range payloads {
		encoded, err := Encode(role, payload)
		if err != nil {
			t.Fatalf("encode %s: %v", role, err)
		}
		if len(encoded) != HeaderLength+len(payload) {
			t.Fatalf("expected %d encoded bytes for %s, got %d", HeaderLength+len(payload), role, len(encoded))
		}
		frame, err := NewDecoder(bytes.NewReader(encoded), FramingLength).Next()
		if err != nil {
			t.Fatalf("decode %s: %v", role, err)
		}
		if frame.Role != role {
			t.Fatalf("expected role %s, got %s", role, frame.Role)
		}
		if role == RoleImage {
			if len(frame.Payload) != len(payload) {
				t.Fatalf("expected image length %d, got %d", len(payload), len(frame.Payload))
			}
			continue
		}
		if !bytes.Equal(frame.Payload, payload) {
			t.Fatalf("expected payload %q, got %q", payload, frame.Payload)
		}
	}
}

func TestEncodeEndOfTurnDropsPayload(t *testing.T) {
	encoded, err := Encode(RoleEndOfTurn, []byte("ignored"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(encoded) != "9000000000" {
		t.Fatalf("unexpected end-of-turn encoding %q", encoded)
	}
}

func TestEncodeHeaderZeroPads(t *testing.T) {
	header, err := EncodeHeader(RoleSystem, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(header) != "2000000042" {
		t.Fatalf("unexpected header %q", header)
	}
	if _, err := EncodeHeader(Role(10), 1); !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("expected malformed header for role 10, got %v", err)
	}
	if _, err := EncodeHeader(RoleUser, MaxPayloadLength+1); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected payload too large, got %v", err)
	}
}

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		role    Role
		length  int
		wantErr bool
	}{
		{name: "zero padded", header: "3000000012", role: KindAction, length: 12},
		{name: "space padded", header: "0       17", role: KindCommand, length: 17},
		{name: "end", header: "9        0", role: KindEnd, length: 0},
		{name: "bad digit", header: "x000000001", wantErr: true},
		{name: "bad length", header: "1abc      ", wantErr: true},
		{name: "blank length", header: "2         ", wantErr: true},
		{name: "short", header: "20001", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, n, err := DecodeHeader([]byte(tt.header))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedHeader) {
					t.Fatalf("expected malformed header, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if role != tt.role || n != tt.length {
				t.Fatalf("expected (%d, %d), got (%d, %d)", tt.role, tt.length, role, n)
			}
		})
	}
}

func TestDecoderSkipsTerminatorsBetweenFrames(t *testing.T) {
	stream := "1       10{\"a\": \"b\"}\r\n" + "2        5hello\r\n" + "9        0\r\n"
	dec := NewDecoder(strings.NewReader(stream), FramingLength)

	first, err := dec.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Role != KindPrefab || first.Text() != `{"a": "b"}` {
		t.Fatalf("unexpected first frame %+v", first)
	}
	second, err := dec.Next()
	if err != nil || second.Text() != "hello" {
		t.Fatalf("unexpected second frame %+v, %v", second, err)
	}
	third, err := dec.Next()
	if err != nil || third.Role != KindEnd || len(third.Payload) != 0 {
		t.Fatalf("unexpected end frame %+v, %v", third, err)
	}
	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestDecoderLineFramingIgnoresLength(t *testing.T) {
	// Length counts characters rather than bytes.
	stream := "2        2世界\r\n" + "4        3\x01\x02\n" + "9        0\r\n"
	dec := NewDecoder(strings.NewReader(stream), FramingLine)

	text, err := dec.Next()
	if err != nil || text.Text() != "世界" {
		t.Fatalf("unexpected text frame %q, %v", text.Payload, err)
	}
	img, err := dec.Next()
	if err != nil || img.Role != RoleImage || !bytes.Equal(img.Payload, []byte{0x01, 0x02, '\n'}) {
		t.Fatalf("unexpected image frame %v, %v", img.Payload, err)
	}
	end, err := dec.Next()
	if err != nil || end.Role != KindEnd {
		t.Fatalf("unexpected end frame %+v, %v", end, err)
	}
}

func TestDecoderTruncatedFrame(t *testing.T) {
	dec := NewDecoder(strings.NewReader("2000000010short"), FramingLength)
	if _, err := dec.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
	dec = NewDecoder(strings.NewReader("20000"), FramingLength)
	if _, err := dec.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF for short header, got %v", err)
	}
}

func TestDecoderRejectsOversizedLength(t *testing.T) {
	dec := NewDecoder(strings.NewReader("1900000000short"), FramingLength)
	if _, err := dec.Next(); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}

	dec = NewDecoder(strings.NewReader("1000000005hello"), FramingLength).LimitPayload(5)
	frame, err := dec.Next()
	if err != nil || frame.Text() != "hello" {
		t.Fatalf("expected payload at the limit to decode, got %q %v", frame.Text(), err)
	}
}

func TestDecoderRejectsOversizedLine(t *testing.T) {
	stream := "1000000004" + strings.Repeat("x", 64) + "\n"
	dec := NewDecoder(strings.NewReader(stream), FramingLine).LimitPayload(16)
	if _, err := dec.Next(); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}

	dec = NewDecoder(strings.NewReader("1000000004four\r\n"), FramingLine).LimitPayload(4)
	frame, err := dec.Next()
	if err != nil || frame.Text() != "four" {
		t.Fatalf("expected line at the limit to decode, got %q %v", frame.Text(), err)
	}
}

func TestParseFraming(t *testing.T) {
	if f, err := ParseFraming(""); err != nil || f != FramingLength {
		t.Fatalf("expected default length framing, got %q %v", f, err)
	}
	if f, err := ParseFraming(" Line "); err != nil || f != FramingLine {
		t.Fatalf("expected line framing, got %q %v", f, err)
	}
	if _, err := ParseFraming("chunked"); err == nil {
		t.Fatalf("expected error for unknown framing")
	}
}
