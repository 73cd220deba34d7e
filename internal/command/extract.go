// Package command turns backend responses into typed commands. Responses
// embed one or more object literals in free text; literals may be strict
// JSON or the looser single-quoted form the backend tends to emit.
package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoStructuredBlock indicates a response without a balanced object
	// literal.
	ErrNoStructuredBlock = errors.New("command: no structured block")
	// ErrMalformedObject indicates an object literal that neither JSON nor
	// YAML flow syntax accepts.
	ErrMalformedObject = errors.New("command: malformed object")
)

// ExtractBlock returns the first balanced {...} literal in text.
func ExtractBlock(text string) (string, error) {
	blocks := ExtractBlocks(text)
	if len(blocks) == 0 {
		return "", ErrNoStructuredBlock
	}
	return blocks[0], nil
}

// ExtractBlocks returns every top-level balanced {...} literal in text in
// order of appearance. Braces inside quoted strings are ignored. An
// unterminated trailing literal is dropped. A single quote only opens a
// string after a delimiter and only closes one before a delimiter, so
// apostrophes inside loose strings do not swallow later literals.
func ExtractBlocks(text string) []string {
	var blocks []string
	depth := 0
	start := -1
	var quote byte
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote && (quote == '"' || closesLoose(text[i+1:])):
				quote = 0
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				quote = c
			}
		case '\'':
			if depth > 0 && opensLoose(text[:i]) {
				quote = c
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				blocks = append(blocks, text[start:i+1])
				start = -1
			}
		}
	}
	return blocks
}

func opensLoose(before string) bool {
	before = strings.TrimRight(before, " \t\r\n")
	return before != "" && strings.IndexByte("{[,:", before[len(before)-1]) >= 0
}

func closesLoose(after string) bool {
	after = strings.TrimLeft(after, " \t\r\n")
	return after == "" || strings.IndexByte(",:}]", after[0]) >= 0
}

// DecodeObject parses an object literal into a generic map.
func DecodeObject(block string) (map[string]any, error) {
	block = strings.TrimSpace(block)
	var out map[string]any
	if err := json.Unmarshal([]byte(block), &out); err == nil && out != nil {
		return out, nil
	}
	out = nil
	if err := yaml.Unmarshal([]byte(block), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedObject)
	}
	return out, nil
}

// ExtractObject combines ExtractBlock and DecodeObject.
func ExtractObject(text string) (map[string]any, error) {
	block, err := ExtractBlock(text)
	if err != nil {
		return nil, err
	}
	return DecodeObject(block)
}
