// internal/adapters/out/localfs/result_file_fs.go
package localfs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
)

// ResultFileFS writes the aggregate [{"tier": ..., "mint": ...}] file.
// Each write replaces the file atomically (temp file + rename), except that an
// empty result never replaces an existing file: a run where every tier failed
// (e.g. re-run in the same directory) keeps the previous aggregate.
type ResultFileFS struct {
	Path string
}

func NewResultFileFS(path string) *ResultFileFS {
	p := strings.TrimSpace(path)
	if p == "" {
		p = filepath.Join("reference", "deployed-mints.json")
	}
	return &ResultFileFS{Path: p}
}

func (w *ResultFileFS) WriteResults(ctx context.Context, mints []mintdom.ProvisionedMint) (string, error) {
	_ = ctx

	abs, err := filepath.Abs(w.Path)
	if err != nil {
		abs = w.Path
	}
	if len(mints) == 0 {
		if _, err := os.Stat(abs); err == nil {
			log.Printf("[localfs] no new mints; keeping existing result file: %s", abs)
			return abs, nil
		}
	}

	data, err := json.MarshalIndent(mintdom.ToAggregate(mints), "", "  ")
	if err != nil {
		return "", fmt.Errorf("localfs: marshal results: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("localfs: create result dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".deployed-mints-*.json")
	if err != nil {
		return "", fmt.Errorf("localfs: create temp result file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("localfs: write result file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("localfs: close result file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("localfs: chmod result file: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", fmt.Errorf("localfs: replace result file: %w", err)
	}
	return abs, nil
}

// ReadResults loads an aggregate file written by WriteResults.
func ReadResults(path string) ([]mintdom.AggregateRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("localfs: read results %s: %w", path, err)
	}
	var out []mintdom.AggregateRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("localfs: decode results %s: %w", path, err)
	}
	return out, nil
}
