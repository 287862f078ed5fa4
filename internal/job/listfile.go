package job

import (
	"fmt"
	"os"
	"strings"
)

// ReadList reads a list file (one input path per line) into an ordered
// slice of paths. Only the trailing newline is stripped; lines are
// otherwise kept verbatim.
func ReadList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read list file: %w", err)
	}

	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}

	return strings.Split(text, "\n"), nil
}
