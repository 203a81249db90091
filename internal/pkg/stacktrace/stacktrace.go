// Package stacktrace trims raw goroutine stacks down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns the "internal/...file.go:line" locations found in a
// raw stack trace as produced by runtime/debug.Stack.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		_, after, found := strings.Cut(line, "/internal/")
		if !found || !strings.Contains(after, ".go:") {
			continue
		}

		// drop the " +0x1f" pc offset suffix
		loc, _, _ := strings.Cut(after, " ")
		paths = append(paths, "internal/"+loc)
	}
	return paths
}
