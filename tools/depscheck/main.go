// Command depscheck enforces the package layering: the HTTP and
// websocket boundary talks to the game engine only, never straight to
// the storage layer, and the connection registry stays free of both
// storage and dungeon internals.
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

type packageInfo struct {
	ImportPath string
	Imports    []string
}

type rule struct {
	scope     string
	forbidden string
}

var rules = []rule{
	{scope: "umbral-nexus/server/internal/net", forbidden: "umbral-nexus/server/internal/storage"},
	{scope: "umbral-nexus/server/internal/net", forbidden: "umbral-nexus/server/internal/dungeon"},
	{scope: "umbral-nexus/server/internal/connect", forbidden: "umbral-nexus/server/internal/storage"},
	{scope: "umbral-nexus/server/internal/connect", forbidden: "umbral-nexus/server/internal/dungeon"},
}

func main() {
	cmd := exec.Command("go", "list", "-json", "./internal/...")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	decoder := json.NewDecoder(bytes.NewReader(output))

	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
			os.Exit(1)
		}

		for _, r := range rules {
			if !strings.HasPrefix(pkg.ImportPath, r.scope) {
				continue
			}
			for _, imp := range pkg.Imports {
				if strings.HasPrefix(imp, r.forbidden) {
					violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
				}
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}
