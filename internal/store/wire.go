package store

import (
	"github.com/cleilsonalvino/lotespdf/internal/batch"
)

// persistedBatch is the durable shape of one batch. The seen list is
// written for compatibility with older manifests but the loader always
// rebuilds the dedup index from the items.
type persistedBatch struct {
	ID    string              `json:"id"`
	Name  string              `json:"name"`
	Items []batch.ImageRecord `json:"items"`
	Seen  []string            `json:"seen"`
}

func toWire(batches []batch.Batch) []persistedBatch {
	out := make([]persistedBatch, len(batches))
	for i, b := range batches {
		seen := make([]string, 0, len(b.Seen))
		for name := range b.Seen {
			seen = append(seen, name)
		}
		out[i] = persistedBatch{ID: b.ID, Name: b.Name, Items: b.Items, Seen: seen}
	}
	return out
}

func fromWire(persisted []persistedBatch) []batch.Batch {
	out := make([]batch.Batch, len(persisted))
	for i, p := range persisted {
		b := batch.Batch{ID: p.ID, Name: p.Name, Items: p.Items}
		b.RebuildSeen()
		out[i] = b
	}
	return out
}
