package corpus

import (
	"fmt"
	"os"
	"strings"
)

// LoadPassages reads the corpus file and splits it into passages on blank
// lines. A missing or empty file is an error; the caller treats it as
// startup-fatal.
func LoadPassages(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file %s: %w", path, err)
	}

	blocks := strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n\n")
	passages := make([]string, 0, len(blocks))
	for _, block := range blocks {
		passage := strings.TrimSpace(block)
		if passage == "" {
			continue
		}
		passages = append(passages, passage)
	}

	if len(passages) == 0 {
		return nil, fmt.Errorf("corpus file %s contains no passages", path)
	}

	return passages, nil
}
