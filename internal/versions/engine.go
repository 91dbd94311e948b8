package versions

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"lexdraft/api/internal/metrics"
	"lexdraft/api/internal/util"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

const (
	DefaultInterval     = 10 * time.Minute
	DefaultMaxSnapshots = 100
	MaxLabelLength      = 100

	labelTimeLayout = "2006-01-02 15:04:05"
)

// Snapshot reasons reported to metrics.
const (
	ReasonAutosave = "autosave"
	ReasonManual   = "manual"
	ReasonRestore  = "restore"
)

// Version is an immutable copy of a document's content. Only Label changes.
type Version struct {
	ID         string
	DocumentID string
	Content    json.RawMessage
	Label      string
	CreatedAt  time.Time
}

// VersionStore persists document content and its versions. Lookups that
// find nothing return sql.ErrNoRows.
type VersionStore interface {
	GetDocumentContent(ctx context.Context, documentID string) (json.RawMessage, error)
	UpdateDocumentContent(ctx context.Context, documentID string, content json.RawMessage) error
	LatestVersion(ctx context.Context, documentID string) (Version, error)
	GetVersion(ctx context.Context, documentID, versionID string) (Version, error)
	ListVersions(ctx context.Context, documentID string) ([]Version, error)
	InsertVersion(ctx context.Context, version Version) error
	RenameVersion(ctx context.Context, documentID, versionID, label string) (Version, error)
	DeleteVersions(ctx context.Context, documentID string, versionIDs []string) (int, error)
}

type Config struct {
	Interval     time.Duration
	MaxSnapshots int
	Now          func() time.Time
	NewID        func() string
	Metrics      *metrics.Metrics
}

// Engine decides when to snapshot a document and enforces the retention cap.
type Engine struct {
	store        VersionStore
	interval     time.Duration
	maxSnapshots int
	now          func() time.Time
	newID        func() string
	metrics      *metrics.Metrics
}

func NewEngine(store VersionStore, cfg Config) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxSnapshots <= 0 {
		cfg.MaxSnapshots = DefaultMaxSnapshots
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return util.NewID("ver") }
	}
	return &Engine{
		store:        store,
		interval:     cfg.Interval,
		maxSnapshots: cfg.MaxSnapshots,
		now:          cfg.Now,
		newID:        cfg.NewID,
		metrics:      cfg.Metrics,
	}
}

// MaybeSnapshot records content as a new version when one is due. It returns
// nil without writing when the content matches the newest version (unless
// forced) or when the newest version is younger than the interval.
func (e *Engine) MaybeSnapshot(ctx context.Context, documentID string, content json.RawMessage, force bool, label string) (*Version, error) {
	last, err := e.store.LatestVersion(ctx, documentID)
	hasLast := true
	if errors.Is(err, sql.ErrNoRows) {
		hasLast = false
	} else if err != nil {
		return nil, fmt.Errorf("latest version: %w", err)
	}

	if hasLast && !force && SameContent(last.Content, content) {
		return nil, nil
	}

	now := e.now().UTC()
	due := force || !hasLast || now.Sub(last.CreatedAt) >= e.interval
	if !due {
		return nil, nil
	}

	reason := ReasonAutosave
	if force {
		reason = ReasonManual
	}
	if strings.TrimSpace(label) == "" {
		label = "Autosave " + now.Format(labelTimeLayout)
	}
	return e.snapshot(ctx, documentID, content, label, reason, now)
}

// CreateManual snapshots the document's current content unconditionally.
func (e *Engine) CreateManual(ctx context.Context, documentID, label string) (*Version, error) {
	content, err := e.documentContent(ctx, documentID)
	if err != nil {
		return nil, err
	}
	now := e.now().UTC()
	if strings.TrimSpace(label) == "" {
		label = "Snapshot " + now.Format(labelTimeLayout)
	}
	return e.snapshot(ctx, documentID, content, label, ReasonManual, now)
}

// Restore replaces the document content with a stored version. The content
// being replaced is kept as a "Before restore" version first.
func (e *Engine) Restore(ctx context.Context, documentID, versionID string) (json.RawMessage, error) {
	current, err := e.documentContent(ctx, documentID)
	if err != nil {
		return nil, err
	}
	target, err := e.store.GetVersion(ctx, documentID, versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}

	now := e.now().UTC()
	if _, err := e.snapshot(ctx, documentID, current, "Before restore "+now.Format(labelTimeLayout), ReasonRestore, now); err != nil {
		return nil, err
	}
	if err := e.store.UpdateDocumentContent(ctx, documentID, target.Content); err != nil {
		return nil, fmt.Errorf("restore content: %w", err)
	}
	return target.Content, nil
}

// Prune deletes every version beyond the newest maxSnapshots.
func (e *Engine) Prune(ctx context.Context, documentID string) (int, error) {
	items, err := e.store.ListVersions(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("list versions: %w", err)
	}
	if len(items) <= e.maxSnapshots {
		return 0, nil
	}
	ids := make([]string, 0, len(items)-e.maxSnapshots)
	for _, item := range items[e.maxSnapshots:] {
		ids = append(ids, item.ID)
	}
	deleted, err := e.store.DeleteVersions(ctx, documentID, ids)
	if err != nil {
		return 0, fmt.Errorf("prune versions: %w", err)
	}
	e.metrics.RecordPruned(deleted)
	return deleted, nil
}

func (e *Engine) Rename(ctx context.Context, documentID, versionID, label string) (Version, error) {
	label = strings.TrimSpace(label)
	if len([]rune(label)) > MaxLabelLength {
		label = string([]rune(label)[:MaxLabelLength])
	}
	item, err := e.store.RenameVersion(ctx, documentID, versionID, label)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Version{}, fmt.Errorf("rename version: %w", err)
	}
	return item, nil
}

func (e *Engine) Delete(ctx context.Context, documentID, versionID string) error {
	deleted, err := e.store.DeleteVersions(ctx, documentID, []string{versionID})
	if err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	if deleted == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

// List returns the document's versions, newest first.
func (e *Engine) List(ctx context.Context, documentID string) ([]Version, error) {
	if _, err := e.documentContent(ctx, documentID); err != nil {
		return nil, err
	}
	items, err := e.store.ListVersions(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return items, nil
}

func (e *Engine) snapshot(ctx context.Context, documentID string, content json.RawMessage, label, reason string, now time.Time) (*Version, error) {
	if len([]rune(label)) > MaxLabelLength {
		label = string([]rune(label)[:MaxLabelLength])
	}
	item := Version{
		ID:         e.newID(),
		DocumentID: documentID,
		Content:    append(json.RawMessage(nil), content...),
		Label:      label,
		CreatedAt:  now,
	}
	if err := e.store.InsertVersion(ctx, item); err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}
	e.metrics.RecordSnapshot(reason)
	if _, err := e.Prune(ctx, documentID); err != nil {
		return nil, err
	}
	return &item, nil
}

func (e *Engine) documentContent(ctx context.Context, documentID string) (json.RawMessage, error) {
	content, err := e.store.GetDocumentContent(ctx, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return content, nil
}

// SameContent reports whether two JSON documents are structurally equal,
// ignoring key order and whitespace. Undecodable input falls back to a byte
// comparison.
func SameContent(a, b json.RawMessage) bool {
	na, errA := normalize(a)
	nb, errB := normalize(b)
	if errA != nil || errB != nil {
		return bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b))
	}
	return bytes.Equal(na, nb)
}

func normalize(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return json.Marshal(value)
}
