package batch

import "errors"

var (
	// ErrDuplicateName rejects an image whose original filename is already
	// present in the batch.
	ErrDuplicateName = errors.New("duplicate original name")
	// ErrIndexOutOfRange rejects an item index outside [0, len(items)).
	ErrIndexOutOfRange = errors.New("item index out of range")
	// ErrBatchNotFound is returned for an unknown batch id.
	ErrBatchNotFound = errors.New("batch not found")
	// ErrEmptyName rejects a rename to the empty string.
	ErrEmptyName = errors.New("batch name must not be empty")
)

// ImageRecord describes one normalized image inside a batch. Width and
// Height are the dimensions of the normalized raster, not the upload.
// Records are immutable once appended.
type ImageRecord struct {
	OriginalName string `json:"name"`
	MediaType    string `json:"type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	PayloadRef   string `json:"payload_ref"`
}

// Batch is a named, ordered, deduplicated collection of images destined
// for one composed document. Items order is insertion order and is the
// authoritative render order. Seen always holds exactly the set of
// original names currently in Items.
type Batch struct {
	ID    string
	Name  string
	Items []ImageRecord
	Seen  map[string]struct{}
}

// HasName reports whether an image with this original name was already
// accepted into the batch.
func (b *Batch) HasName(name string) bool {
	_, ok := b.Seen[name]
	return ok
}

func (b *Batch) register(name string)   { b.Seen[name] = struct{}{} }
func (b *Batch) unregister(name string) { delete(b.Seen, name) }

// RebuildSeen resets the dedup index from the item list. Used when
// loading persisted batches so the index can never drift from the items.
func (b *Batch) RebuildSeen() {
	b.Seen = make(map[string]struct{}, len(b.Items))
	for _, it := range b.Items {
		b.Seen[it.OriginalName] = struct{}{}
	}
}

// Clone returns a deep copy safe to use outside the store lock.
func (b *Batch) Clone() Batch {
	out := Batch{
		ID:    b.ID,
		Name:  b.Name,
		Items: make([]ImageRecord, len(b.Items)),
		Seen:  make(map[string]struct{}, len(b.Seen)),
	}
	copy(out.Items, b.Items)
	for k := range b.Seen {
		out.Seen[k] = struct{}{}
	}
	return out
}
