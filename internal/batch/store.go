package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cleilsonalvino/lotespdf/internal/blob"
	"github.com/cleilsonalvino/lotespdf/internal/metrics"
)

// Persister writes the full batch set to durable storage and reads it
// back. Save is called write-through after every mutation.
type Persister interface {
	Save(ctx context.Context, batches []Batch) error
	Load(ctx context.Context) ([]Batch, error)
}

// Store owns the in-memory batch set and the session's active selection.
// Every mutation runs under one lock so the dedup check, the append and
// the persist form a single atomic step; concurrent uploads of files
// sharing a name can never both pass the gate.
type Store struct {
	mu       sync.Mutex
	batches  []*Batch
	byID     map[string]*Batch
	activeID string
	persist  Persister
	blobs    blob.Store
}

// NewStore wires a store over a persister and a payload store.
func NewStore(p Persister, blobs blob.Store) *Store {
	return &Store{
		byID:    make(map[string]*Batch),
		persist: p,
		blobs:   blobs,
	}
}

// Load replaces the in-memory set with the persisted one. The dedup
// index is rebuilt from the items, so a manifest whose seen list drifted
// from its items is migrated instead of trusted. The first batch becomes
// the active selection.
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.persist.Load(ctx)
	if err != nil {
		return fmt.Errorf("load batches: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = s.batches[:0]
	s.byID = make(map[string]*Batch, len(loaded))
	for i := range loaded {
		b := loaded[i]
		b.RebuildSeen()
		s.batches = append(s.batches, &b)
		s.byID[b.ID] = &b
	}
	if len(s.batches) > 0 {
		s.activeID = s.batches[0].ID
	} else {
		s.activeID = ""
	}
	log.Info().Int("batches", len(s.batches)).Msg("batch set loaded")
	return nil
}

// saveLocked persists the current set. Callers hold the lock. A persist
// failure is surfaced but the in-memory state stays authoritative for
// the session.
func (s *Store) saveLocked(ctx context.Context) error {
	snapshot := make([]Batch, len(s.batches))
	for i, b := range s.batches {
		snapshot[i] = b.Clone()
	}
	if err := s.persist.Save(ctx, snapshot); err != nil {
		metrics.IncPersistError()
		log.Error().Err(err).Msg("persist failed; in-memory state kept")
		return fmt.Errorf("persist batches: %w", err)
	}
	return nil
}

// Create allocates a new empty batch and makes it active. An empty name
// gets the default "Lote N".
func (s *Store) Create(ctx context.Context, name string) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		name = fmt.Sprintf("Lote %d", len(s.batches)+1)
	}
	b := &Batch{
		ID:   uuid.NewString(),
		Name: name,
		Seen: make(map[string]struct{}),
	}
	s.batches = append(s.batches, b)
	s.byID[b.ID] = b
	s.activeID = b.ID
	log.Info().Str("batch_id", b.ID).Str("name", b.Name).Msg("batch created")
	return b.Clone(), s.saveLocked(ctx)
}

// Rename changes the batch name. The new name must be non-empty; no
// other validation applies.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	if name == "" {
		return ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return ErrBatchNotFound
	}
	b.Name = name
	return s.saveLocked(ctx)
}

// Delete removes the batch and its payloads. If it was the active
// selection the first remaining batch is selected, else none.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrBatchNotFound
	}
	delete(s.byID, id)
	for i, b := range s.batches {
		if b.ID == id {
			s.batches = append(s.batches[:i], s.batches[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		if len(s.batches) > 0 {
			s.activeID = s.batches[0].ID
		} else {
			s.activeID = ""
		}
	}
	if err := s.blobs.DeletePrefix(ctx, id); err != nil {
		log.Warn().Err(err).Str("batch_id", id).Msg("payload cleanup failed")
	}
	log.Info().Str("batch_id", id).Msg("batch deleted")
	return s.saveLocked(ctx)
}

// Append stores the normalized payload and appends the record, gated by
// the dedup index. On ErrDuplicateName nothing changes. The payload is
// written before the record becomes visible, so a blob failure leaves
// the batch untouched.
func (s *Store) Append(ctx context.Context, id string, rec ImageRecord, payload []byte) (ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return ImageRecord{}, ErrBatchNotFound
	}
	if b.HasName(rec.OriginalName) {
		return ImageRecord{}, fmt.Errorf("%w: %s", ErrDuplicateName, rec.OriginalName)
	}
	rec.PayloadRef = id + "/" + uuid.NewString() + ".jpg"
	if err := s.blobs.Put(ctx, rec.PayloadRef, payload); err != nil {
		return ImageRecord{}, fmt.Errorf("store payload: %w", err)
	}
	b.Items = append(b.Items, rec)
	b.register(rec.OriginalName)
	log.Debug().Str("batch_id", id).Str("name", rec.OriginalName).
		Int("width", rec.Width).Int("height", rec.Height).Msg("image appended")
	return rec, s.saveLocked(ctx)
}

// Remove deletes the item at index, unregisters its name and preserves
// the order of the remaining items.
func (s *Store) Remove(ctx context.Context, id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return ErrBatchNotFound
	}
	if index < 0 || index >= len(b.Items) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(b.Items))
	}
	it := b.Items[index]
	b.Items = append(b.Items[:index], b.Items[index+1:]...)
	b.unregister(it.OriginalName)
	if err := s.blobs.Delete(ctx, it.PayloadRef); err != nil {
		log.Warn().Err(err).Str("payload_ref", it.PayloadRef).Msg("payload delete failed")
	}
	return s.saveLocked(ctx)
}

// Clear empties the batch items and the dedup index.
func (s *Store) Clear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return ErrBatchNotFound
	}
	b.Items = nil
	b.Seen = make(map[string]struct{})
	if err := s.blobs.DeletePrefix(ctx, id); err != nil {
		log.Warn().Err(err).Str("batch_id", id).Msg("payload cleanup failed")
	}
	return s.saveLocked(ctx)
}

// Get returns a snapshot of one batch.
func (s *Store) Get(id string) (Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return Batch{}, false
	}
	return b.Clone(), true
}

// List returns snapshots of all batches in creation order.
func (s *Store) List() []Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Batch, len(s.batches))
	for i, b := range s.batches {
		out[i] = b.Clone()
	}
	return out
}

// SetActive selects the session's active batch.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrBatchNotFound
	}
	s.activeID = id
	return nil
}

// Active returns the active batch snapshot, if any.
func (s *Store) Active() (Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == "" {
		return Batch{}, false
	}
	b, ok := s.byID[s.activeID]
	if !ok {
		return Batch{}, false
	}
	return b.Clone(), true
}
