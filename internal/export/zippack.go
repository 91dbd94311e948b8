package export

import (
	"bytes"
	"fmt"
	"sort"

	fixzip "github.com/hidez8891/zip"
)

const contentTypesEntry = "[Content_Types].xml"

// repackSorted rewrites a zip archive with its entries in a stable order:
// the content-types part first, then everything else by name. The DOCX
// writer emits parts in map iteration order.
func repackSorted(data []byte) ([]byte, error) {
	r, err := fixzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("unable to read archive: %w", err)
	}

	files := make([]*fixzip.File, len(r.File))
	copy(files, r.File)
	sort.Slice(files, func(i, j int) bool {
		if files[i].Name == contentTypesEntry {
			return files[j].Name != contentTypesEntry
		}
		if files[j].Name == contentTypesEntry {
			return false
		}
		return files[i].Name < files[j].Name
	})

	var out bytes.Buffer
	w := fixzip.NewWriter(&out)
	for _, file := range files {
		file.Flags &= ^fixzip.FlagDataDescriptor
		if err := w.CopyFile(file); err != nil {
			return nil, fmt.Errorf("unable to copy %s: %w", file.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("unable to finish archive: %w", err)
	}
	return out.Bytes(), nil
}
