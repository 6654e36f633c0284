package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleilsonalvino/lotespdf/internal/batch"
)

// FileManifest persists the batch set as a single JSON manifest in the
// data directory. Writes go through a temp file and a rename so a crash
// mid-write never leaves a torn manifest behind.
type FileManifest struct {
	path string
}

// NewFileManifest creates the data directory if needed.
func NewFileManifest(dataDir string) (*FileManifest, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileManifest{path: filepath.Join(dataDir, "lotes.json")}, nil
}

func (m *FileManifest) Save(ctx context.Context, batches []batch.Batch) error {
	data, err := json.MarshalIndent(toWire(batches), "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

func (m *FileManifest) Load(ctx context.Context) ([]batch.Batch, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var persisted []persistedBatch
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return fromWire(persisted), nil
}
