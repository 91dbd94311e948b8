package versions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"
)

type memoryStore struct {
	documents map[string]json.RawMessage
	versions  []storedVersion
	seq       int
	insertErr error
}

type storedVersion struct {
	Version
	seq int
}

func newMemoryStore(docs ...string) *memoryStore {
	s := &memoryStore{documents: map[string]json.RawMessage{}}
	for _, id := range docs {
		s.documents[id] = json.RawMessage(`{"type":"doc","content":[]}`)
	}
	return s
}

func (s *memoryStore) GetDocumentContent(_ context.Context, documentID string) (json.RawMessage, error) {
	content, ok := s.documents[documentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return content, nil
}

func (s *memoryStore) UpdateDocumentContent(_ context.Context, documentID string, content json.RawMessage) error {
	if _, ok := s.documents[documentID]; !ok {
		return sql.ErrNoRows
	}
	s.documents[documentID] = content
	return nil
}

func (s *memoryStore) LatestVersion(ctx context.Context, documentID string) (Version, error) {
	items, _ := s.ListVersions(ctx, documentID)
	if len(items) == 0 {
		return Version{}, sql.ErrNoRows
	}
	return items[0], nil
}

func (s *memoryStore) GetVersion(_ context.Context, documentID, versionID string) (Version, error) {
	for _, item := range s.versions {
		if item.ID == versionID && item.DocumentID == documentID {
			return item.Version, nil
		}
	}
	return Version{}, sql.ErrNoRows
}

func (s *memoryStore) ListVersions(_ context.Context, documentID string) ([]Version, error) {
	matched := make([]storedVersion, 0)
	for _, item := range s.versions {
		if item.DocumentID == documentID {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})
	items := make([]Version, 0, len(matched))
	for _, item := range matched {
		items = append(items, item.Version)
	}
	return items, nil
}

func (s *memoryStore) InsertVersion(_ context.Context, version Version) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.seq++
	s.versions = append(s.versions, storedVersion{Version: version, seq: s.seq})
	return nil
}

func (s *memoryStore) RenameVersion(_ context.Context, documentID, versionID, label string) (Version, error) {
	for i := range s.versions {
		if s.versions[i].ID == versionID && s.versions[i].DocumentID == documentID {
			s.versions[i].Label = label
			return s.versions[i].Version, nil
		}
	}
	return Version{}, sql.ErrNoRows
}

func (s *memoryStore) DeleteVersions(_ context.Context, documentID string, versionIDs []string) (int, error) {
	drop := map[string]bool{}
	for _, id := range versionIDs {
		drop[id] = true
	}
	kept := s.versions[:0]
	deleted := 0
	for _, item := range s.versions {
		if item.DocumentID == documentID && drop[item.ID] {
			deleted++
			continue
		}
		kept = append(kept, item)
	}
	s.versions = kept
	return deleted, nil
}

func (s *memoryStore) count(documentID string) int {
	items, _ := s.ListVersions(context.Background(), documentID)
	return len(items)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(store *memoryStore, max int) (*Engine, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)}
	n := 0
	engine := NewEngine(store, Config{
		Interval:     10 * time.Minute,
		MaxSnapshots: max,
		Now:          clock.Now,
		NewID: func() string {
			n++
			return fmt.Sprintf("ver_%03d", n)
		},
	})
	return engine, clock
}

func content(text string) json.RawMessage {
	return json.RawMessage(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"` + text + `"}]}]}`)
}

func TestMaybeSnapshotFirstVersion(t *testing.T) {
	store := newMemoryStore("doc_1")
	engine, _ := newTestEngine(store, 100)

	version, err := engine.MaybeSnapshot(context.Background(), "doc_1", content("a"), false, "")
	if err != nil {
		t.Fatalf("MaybeSnapshot() error = %v", err)
	}
	if version == nil {
		t.Fatal("expected first save to create a version")
	}
	if version.Label != "Autosave 2024-03-01 09:30:00" {
		t.Errorf("Label = %q", version.Label)
	}
}

func TestMaybeSnapshotSkipsEqualContent(t *testing.T) {
	store := newMemoryStore("doc_1")
	engine, clock := newTestEngine(store, 100)
	ctx := context.Background()

	if _, err := engine.MaybeSnapshot(ctx, "doc_1", content("a"), false, ""); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Hour)

	reordered := json.RawMessage(`{ "content":[{"content":[{"text":"a","type":"text"}],"type":"paragraph"}], "type":"doc" }`)
	version, err := engine.MaybeSnapshot(ctx, "doc_1", reordered, false, "")
	if err != nil {
		t.Fatalf("MaybeSnapshot() error = %v", err)
	}
	if version != nil {
		t.Fatal("equal content should not create a version")
	}
	if got := store.count("doc_1"); got != 1 {
		t.Fatalf("version count = %d, want 1", got)
	}
}

func TestMaybeSnapshotRespectsInterval(t *testing.T) {
	store := newMemoryStore("doc_1")
	engine, clock := newTestEngine(store, 100)
	ctx := context.Background()

	if _, err := engine.MaybeSnapshot(ctx, "doc_1", content("a"), false, ""); err != nil {
		t.Fatal(err)
	}

	clock.Advance(9 * time.Minute)
	version, err := engine.MaybeSnapshot(ctx, "doc_1", content("b"), false, "")
	if err != nil {
		t.Fatal(err)
	}
	if version != nil {
		t.Fatal("snapshot inside the interval should be skipped")
	}

	clock.Advance(time.Minute)
	version, err = engine.MaybeSnapshot(ctx, "doc_1", content("c"), false, "")
	if err != nil {
		t.Fatal(err)
	}
	if version == nil {
		t.Fatal("snapshot at the interval boundary should be created")
	}
}

func TestMaybeSnapshotForceBypassesGate(t *testing.T) {
	store := newMemoryStore("doc_1")
	engine, _ := newTestEngine(store, 100)
	ctx := context.Background()

	if _, err := engine.MaybeSnapshot(ctx, "doc_1", content("a"), false, ""); err != nil {
		t.Fatal(err)
	}
	version, err := engine.MaybeSnapshot(ctx, "doc_1", content("a"), true, "Filed copy")
	if err != nil {
		t.Fatal(err)
	}
	if version == nil || version.Label != "Filed copy" {
		t.Fatalf("forced snapshot = %+v, want label Filed copy", version)
	}
}

func TestMaybeSnapshotStorageFailurePropagates(t *testing.T) {
	store := newMemoryStore("doc_1")
	store.insertErr = errors.New("disk full")
	engine, _ := newTestEngine(store, 100)

	_, err := engine.MaybeSnapshot(context.Background(), "doc_1", content("a"), false, "")
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	store := newMemoryStore("doc_1", "doc_2")
	engine, clock := newTestEngine(store, 3)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		clock.Advance(time.Minute)
		if _, err := engine.MaybeSnapshot(ctx, "doc_1", content(fmt.Sprint(i)), true, fmt.Sprintf("keep %d", i)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := engine.MaybeSnapshot(ctx, "doc_2", content("other"), true, ""); err != nil {
		t.Fatal(err)
	}

	items, err := engine.List(ctx, "doc_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("version count = %d, want 3", len(items))
	}
	for i, want := range []string{"keep 5", "keep 4", "keep 3"} {
		if items[i].Label != want {
			t.Errorf("items[%d].Label = %q, want %q", i, items[i].Label, want)
		}
	}
	if got := store.count("doc_2"); got != 1 {
		t.Errorf("other document count = %d, want 1", got)
	}
}

func TestRestore(t *testing.T) {
	store := newMemoryStore("doc_1")
	engine, clock := newTestEngine(store, 100)
	ctx := context.Background()

	first, err := engine.MaybeSnapshot(ctx, "doc_1", content("v1"), false, "")
	if err != nil {
		t.Fatal(err)
	}
	store.documents["doc_1"] = content("v2")
	clock.Advance(time.Minute)

	restored, err := engine.Restore(ctx, "doc_1", first.ID)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if !SameContent(restored, content("v1")) || !SameContent(store.documents["doc_1"], content("v1")) {
		t.Fatalf("document content = %s, want v1", store.documents["doc_1"])
	}

	items, _ := engine.List(ctx, "doc_1")
	if len(items) != 2 {
		t.Fatalf("version count = %d, want 2", len(items))
	}
	if items[0].Label != "Before restore 2024-03-01 09:31:00" {
		t.Errorf("newest label = %q", items[0].Label)
	}
	if !SameContent(items[0].Content, content("v2")) {
		t.Errorf("pre-restore snapshot content = %s, want v2", items[0].Content)
	}
}

func TestRestoreNotFound(t *testing.T) {
	store := newMemoryStore("doc_1", "doc_2")
	engine, _ := newTestEngine(store, 100)
	ctx := context.Background()

	other, err := engine.MaybeSnapshot(ctx, "doc_2", content("x"), false, "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := engine.Restore(ctx, "missing", other.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("missing document err = %v, want ErrDocumentNotFound", err)
	}
	if _, err := engine.Restore(ctx, "doc_1", other.ID); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("foreign version err = %v, want ErrSnapshotNotFound", err)
	}
	if got := store.count("doc_1"); got != 0 {
		t.Errorf("failed restore created %d versions", got)
	}
}

func TestVersionCountNeverExceedsCap(t *testing.T) {
	store := newMemoryStore("doc_1")
	engine, clock := newTestEngine(store, 4)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		clock.Advance(7 * time.Minute)
		store.documents["doc_1"] = content(fmt.Sprint("edit ", i))
		switch i % 3 {
		case 0:
			if _, err := engine.MaybeSnapshot(ctx, "doc_1", store.documents["doc_1"], false, ""); err != nil {
				t.Fatal(err)
			}
		case 1:
			if _, err := engine.CreateManual(ctx, "doc_1", ""); err != nil {
				t.Fatal(err)
			}
		default:
			items, _ := engine.List(ctx, "doc_1")
			if len(items) > 0 {
				if _, err := engine.Restore(ctx, "doc_1", items[len(items)-1].ID); err != nil {
					t.Fatal(err)
				}
			}
		}
		if got := store.count("doc_1"); got > 4 {
			t.Fatalf("after step %d version count = %d, want <= 4", i, got)
		}
	}
}

func TestCreateManualDefaultLabel(t *testing.T) {
	store := newMemoryStore("doc_1")
	engine, _ := newTestEngine(store, 100)

	version, err := engine.CreateManual(context.Background(), "doc_1", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if version.Label != "Snapshot 2024-03-01 09:30:00" {
		t.Errorf("Label = %q", version.Label)
	}
	if _, err := engine.CreateManual(context.Background(), "missing", ""); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestRenameAndDelete(t *testing.T) {
	store := newMemoryStore("doc_1")
	engine, _ := newTestEngine(store, 100)
	ctx := context.Background()

	version, err := engine.CreateManual(ctx, "doc_1", "draft")
	if err != nil {
		t.Fatal(err)
	}

	renamed, err := engine.Rename(ctx, "doc_1", version.ID, "  "+strings.Repeat("x", 150))
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if len(renamed.Label) != MaxLabelLength {
		t.Errorf("label length = %d, want %d", len(renamed.Label), MaxLabelLength)
	}
	if _, err := engine.Rename(ctx, "doc_1", "ver_missing", "x"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("rename missing err = %v", err)
	}

	if err := engine.Delete(ctx, "doc_1", version.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := engine.Delete(ctx, "doc_1", version.ID); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("second delete err = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSameContent(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", `{"a":1}`, `{"a":1}`, true},
		{"key order", `{"a":1,"b":2}`, `{"b":2, "a":1}`, true},
		{"different value", `{"a":1}`, `{"a":2}`, false},
		{"array order matters", `[1,2]`, `[2,1]`, false},
		{"invalid equal bytes", `{oops`, ` {oops `, true},
		{"invalid vs valid", `{oops`, `{}`, false},
		{"empty is null", ``, `null`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameContent(json.RawMessage(tt.a), json.RawMessage(tt.b)); got != tt.want {
				t.Errorf("SameContent(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
