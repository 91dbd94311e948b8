// Package export compiles document trees into Word (DOCX) and PDF output.
package export

import (
	"errors"
	"fmt"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case FormatPDF, FormatDOCX, FormatHTML:
		return Format(raw), nil
	default:
		return "", fmt.Errorf("unsupported format: %q", raw)
	}
}

// MimeType returns the content type served for the format.
func (f Format) MimeType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/html; charset=utf-8"
	}
}

// Request contains parameters for an export operation
type Request struct {
	Title   string
	Preset  string
	Format  Format
	Content []byte // editor JSON
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrRenderingUnavailable indicates the headless browser used for PDF
	// output is not installed or could not be started.
	ErrRenderingUnavailable = errors.New("pdf rendering unavailable")
)

// RenderingHint is shown to operators when ErrRenderingUnavailable is returned.
const RenderingHint = "install chromium (or set CHROME_PATH) to enable PDF export; DOCX export is unaffected"
