// Package universe manages the symbol list the screener operates on:
// a plain text file, one symbol per line, optionally refreshed from an
// exchange constituents page.
package universe

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Load reads a universe file. Blank lines and `#` comment lines are
// skipped; inline `# ...` trailers are stripped. Duplicates collapse.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("universe: read %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// Parse extracts symbols from universe file content
func Parse(content string) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, line := range strings.Split(content, "\n") {
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		symbol := strings.TrimSpace(line)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}
	return symbols
}

// WriteFile persists a universe list, sorted, one symbol per line
func WriteFile(path string, symbols []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("universe: %w", err)
	}

	sorted := append([]string(nil), symbols...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("# symbols, one per line\n")
	for _, symbol := range sorted {
		b.WriteString(symbol)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("universe: write %s: %w", path, err)
	}
	return nil
}
