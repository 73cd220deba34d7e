package main

import (
	"strings"
	"testing"
)

func TestCheckReportsForbiddenEdges(t *testing.T) {
	stream := `{"ImportPath":"github.com/SNeC-Lab-PSU/LLMER/internal/resolver","Imports":["github.com/SNeC-Lab-PSU/LLMER/internal/scene","strings"]}
{"ImportPath":"github.com/SNeC-Lab-PSU/LLMER/internal/prompt","Imports":["github.com/SNeC-Lab-PSU/LLMER/internal/scene/memscene"]}
{"ImportPath":"github.com/SNeC-Lab-PSU/LLMER/internal/dispatch","Imports":["github.com/gorilla/websocket","github.com/SNeC-Lab-PSU/LLMER/internal/application"]}`

	violations, err := check(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("expected clean decode, got %v", err)
	}
	want := []string{
		"github.com/SNeC-Lab-PSU/LLMER/internal/dispatch -> github.com/gorilla/websocket",
		"github.com/SNeC-Lab-PSU/LLMER/internal/prompt -> github.com/SNeC-Lab-PSU/LLMER/internal/scene/memscene",
	}
	if len(violations) != len(want) {
		t.Fatalf("expected %d violations, got %v", len(want), violations)
	}
	for i := range want {
		if violations[i] != want[i] {
			t.Fatalf("expected %q, got %q", want[i], violations[i])
		}
	}
}

func TestCheckRejectsMalformedInput(t *testing.T) {
	if _, err := check(strings.NewReader("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}
