package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"lexdraft/api/internal/doctree"
)

var browserCandidates = []string{
	"chromium-browser",
	"chromium",
	"google-chrome",
	"google-chrome-stable",
	"headless-shell",
}

// PDFOption customizes RenderPDF.
type PDFOption func(*pdfConfig)

type pdfConfig struct {
	chromePath string
}

// WithChromePath pins the browser binary instead of searching PATH.
func WithChromePath(path string) PDFOption {
	return func(c *pdfConfig) { c.chromePath = path }
}

// percentEncodeForDataURL encodes a string for use in a data URL
// Unlike url.QueryEscape, this properly encodes spaces as %20 for data URLs
func percentEncodeForDataURL(s string) string {
	var result strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_', r == '.', r == '~':
			// Unreserved characters per RFC 3986
			result.WriteRune(r)
		case r == ' ':
			result.WriteString("%20")
		default:
			for _, b := range []byte(string(r)) {
				result.WriteString(fmt.Sprintf("%%%02X", b))
			}
		}
	}
	return result.String()
}

// RenderPDF renders the tree to HTML and prints it with headless Chrome at
// US Letter size using the preset margins. A missing browser yields an error
// wrapping ErrRenderingUnavailable. No bytes are returned on failure.
func RenderPDF(ctx context.Context, root *doctree.Node, title, presetName string, opts ...PDFOption) ([]byte, error) {
	cfg := pdfConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	markup, err := RenderHTML(root, title, presetName)
	if err != nil {
		return nil, err
	}

	browser, err := findBrowser(cfg.chromePath)
	if err != nil {
		return nil, err
	}
	return printPDF(ctx, browser, markup, ResolvePreset(presetName))
}

func findBrowser(pinned string) (string, error) {
	if pinned != "" {
		if _, err := os.Stat(pinned); err == nil {
			return pinned, nil
		}
		if path, err := exec.LookPath(pinned); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s not found", ErrRenderingUnavailable, pinned)
	}
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: chromium not installed", ErrRenderingUnavailable)
}

func printPDF(ctx context.Context, browser, markup string, preset Preset) ([]byte, error) {
	// Chrome options for headless mode in container
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browser),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	dataURL := "data:text/html;charset=utf-8," + percentEncodeForDataURL(markup)
	margin := preset.MarginInches

	var pdfData []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfData, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.5). // Letter size
				WithPaperHeight(11.0).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrRenderingUnavailable, err)
		}
		return nil, fmt.Errorf("chrome pdf generation failed: %w", err)
	}
	return pdfData, nil
}

// sanitizeFilename creates a safe filename from a title
func sanitizeFilename(title string) string {
	var result strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			result.WriteRune(r)
		case r == ' ':
			result.WriteByte('_')
		case r == '-', r == '_':
			result.WriteRune(r)
		default:
			// Skip other characters
		}
	}

	name := result.String()
	if len(name) > 50 {
		name = name[:50]
	}
	if name == "" {
		name = "document"
	}
	return name
}
