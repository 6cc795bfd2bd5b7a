package fileutil

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// PageNumber extracts the zero-padded page ordinal from a filename.
// A trailing qualifier beginning with "_se" or "_m" (in that order) is
// stripped, then the final underscore-delimited token is normalized to
// four digits.
func PageNumber(name string) (string, error) {
	stem := filepath.Base(name)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))

	if idx := strings.LastIndex(stem, "_"); idx >= 0 {
		tail := stem[idx:]
		if strings.HasPrefix(tail, "_se") || strings.HasPrefix(tail, "_m") {
			stem = stem[:idx]
		}
	}

	token := stem
	if idx := strings.LastIndex(stem, "_"); idx >= 0 {
		token = stem[idx+1:]
	}

	page, err := strconv.Atoi(token)
	if err != nil {
		return "", fmt.Errorf("no page number in %q", name)
	}
	if page < 0 {
		return "", fmt.Errorf("negative page number in %q", name)
	}
	return fmt.Sprintf("%04d", page), nil
}
