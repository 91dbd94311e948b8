package embed

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const cacheTTL = 24 * time.Hour

// Cache stores encoded vectors. A miss is any error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Config struct {
	URL     string // full endpoint, e.g. https://api.openai.com/v1/embeddings
	APIKey  string
	Model   string
	Timeout time.Duration
	Cache   Cache
	Logger  zerolog.Logger
}

// Client talks to an OpenAI-compatible embeddings endpoint. Without an API
// key it is disabled and every call yields an empty vector.
type Client struct {
	url    string
	apiKey string
	model  string
	http   *http.Client
	cache  Cache
	log    zerolog.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		url:    strings.TrimSpace(cfg.URL),
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  cfg.Model,
		http:   &http.Client{Timeout: cfg.Timeout},
		cache:  cfg.Cache,
		log:    cfg.Logger,
	}
}

// Enabled reports whether calls reach the remote endpoint.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != "" && c.url != ""
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// Embed returns the vector for text. Disabled clients and blank text yield an
// empty vector and no error.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.Enabled() || strings.TrimSpace(text) == "" {
		return []float32{}, nil
	}

	key := c.cacheKey(text)
	if c.cache != nil {
		if raw, err := c.cache.Get(ctx, key); err == nil {
			var vec []float32
			if err := json.Unmarshal(raw, &vec); err == nil {
				return vec, nil
			}
		}
	}

	vec, err := c.call(ctx, text)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if raw, err := json.Marshal(vec); err == nil {
			if err := c.cache.Set(ctx, key, raw, cacheTTL); err != nil {
				c.log.Warn().Err(err).Msg("embedding cache write failed")
			}
		}
	}
	return vec, nil
}

func (c *Client) call(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embeddings HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}
	for _, d := range result.Data {
		if d.Index == 0 && len(d.Embedding) > 0 {
			return d.Embedding, nil
		}
	}
	return nil, fmt.Errorf("no embedding returned")
}

func (c *Client) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return "embed:" + hex.EncodeToString(sum[:])
}
