// Command depscheck fails when a runtime core package imports a concrete
// scene backend, the process wiring, or a transport library. The core talks
// to the engine only through internal/scene interfaces.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const modulePath = "github.com/SNeC-Lab-PSU/LLMER"

var corePackages = []string{
	"./internal/anim/...",
	"./internal/command/...",
	"./internal/construct/...",
	"./internal/dispatch/...",
	"./internal/gate/...",
	"./internal/prompt/...",
	"./internal/resolver/...",
	"./internal/sim/...",
}

var forbidden = []string{
	modulePath + "/internal/app",
	modulePath + "/internal/scene/memscene",
	modulePath + "/internal/observability",
	"github.com/gorilla/websocket",
}

type packageInfo struct {
	ImportPath string
	Imports    []string
}

func main() {
	args := append([]string{"list", "-json"}, corePackages...)
	cmd := exec.Command("go", args...)
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	violations, err := check(bytes.NewReader(output))
	if err != nil {
		fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
		os.Exit(1)
	}
	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

// check decodes a stream of `go list -json` objects and returns the sorted
// forbidden edges.
func check(r io.Reader) ([]string, error) {
	decoder := json.NewDecoder(r)
	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		for _, imp := range pkg.Imports {
			if isForbidden(imp) {
				violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
			}
		}
	}
	sort.Strings(violations)
	return violations, nil
}

func isForbidden(imp string) bool {
	for _, prefix := range forbidden {
		if imp == prefix || strings.HasPrefix(imp, prefix+"/") {
			return true
		}
	}
	return false
}
