package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"lexdraft/api/internal/cache"
	"lexdraft/api/internal/doctree"
	"lexdraft/api/internal/metrics"
)

// Cache stores rendered output keyed by content hash.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures a Service. Every field is optional.
type Options struct {
	Cache      Cache
	CacheTTL   time.Duration
	ChromePath string
	PDFTimeout time.Duration
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

// Service renders documents and caches the results
type Service struct {
	cache      Cache
	cacheTTL   time.Duration
	chromePath string
	pdfTimeout time.Duration
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewService creates a new export service
func NewService(opts Options) *Service {
	if opts.PDFTimeout <= 0 {
		opts.PDFTimeout = 30 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	return &Service{
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		chromePath: opts.ChromePath,
		pdfTimeout: opts.PDFTimeout,
		metrics:    opts.Metrics,
		log:        opts.Logger,
	}
}

// Export renders the request in its format, serving a cached copy when the
// same (format, preset, title, content) was rendered before.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	key := cacheKey(req)
	result := &Result{
		Filename: Filename(req.Title, req.Format),
		MimeType: req.Format.MimeType(),
	}

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		if err == nil {
			result.Data = data
			return result, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn().Err(err).Str("key", key).Msg("export cache read failed")
		}
	}

	start := time.Now()
	data, err := s.render(ctx, req)
	s.metrics.RecordRender(string(req.Format), err, time.Since(start))
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("export cache write failed")
		}
	}
	result.Data = data
	return result, nil
}

func (s *Service) render(ctx context.Context, req Request) ([]byte, error) {
	root, err := doctree.Parse(req.Content)
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	switch req.Format {
	case FormatDOCX:
		return RenderDOCX(root, req.Title, req.Preset)
	case FormatPDF:
		ctx, cancel := context.WithTimeout(ctx, s.pdfTimeout)
		defer cancel()
		return RenderPDF(ctx, root, req.Title, req.Preset, WithChromePath(s.chromePath))
	case FormatHTML:
		out, err := RenderHTML(root, req.Title, req.Preset)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

// Filename derives the download name from a document title.
func Filename(title string, format Format) string {
	return sanitizeFilename(title) + "." + string(format)
}

func cacheKey(req Request) string {
	h := sha256.New()
	for _, part := range []string{string(req.Format), ResolvePreset(req.Preset).Name, req.Title} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(req.Content)
	return "export:" + hex.EncodeToString(h.Sum(nil))
}
