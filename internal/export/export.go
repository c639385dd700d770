// Package export builds downloadable report files: the emissions list as an
// XLSX workbook and the aggregation report as a PDF printed by headless
// Chrome.
package export

import "errors"

// Result contains a finished export download.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates no chromium binary is installed.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")

// sanitizeFilename reduces a title to a safe attachment filename.
func sanitizeFilename(title string) string {
	result := ""
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			result += string(r)
		case r == ' ':
			result += "-"
		case r == '-', r == '_':
			result += string(r)
		}
	}

	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "report"
	}
	return result
}
