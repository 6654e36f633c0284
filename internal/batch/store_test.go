package batch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/cleilsonalvino/lotespdf/internal/batch"
	"github.com/cleilsonalvino/lotespdf/internal/blob"
	"github.com/cleilsonalvino/lotespdf/internal/store"
)

func newTestStore(t *testing.T) (*batch.Store, string) {
	t.Helper()
	dir := t.TempDir()
	manifest, err := store.NewFileManifest(dir)
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	blobs, err := blob.NewFileStore(dir + "/blobs")
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	return batch.NewStore(manifest, blobs), dir
}

func record(name string) batch.ImageRecord {
	return batch.ImageRecord{OriginalName: name, MediaType: "image/jpeg", Width: 640, Height: 480}
}

func checkInvariant(t *testing.T, b batch.Batch) {
	t.Helper()
	if len(b.Seen) != len(b.Items) {
		t.Fatalf("seen has %d names, items has %d", len(b.Seen), len(b.Items))
	}
	for _, it := range b.Items {
		if !b.HasName(it.OriginalName) {
			t.Fatalf("item %q missing from seen set", it.OriginalName)
		}
	}
}

func TestAppendAndDedup(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	b, err := s.Create(ctx, "Lote 1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Append(ctx, b.ID, record("a.jpg"), []byte("raster-a")); err != nil {
		t.Fatalf("append a: %v", err)
	}
	if _, err := s.Append(ctx, b.ID, record("b.jpg"), []byte("raster-b")); err != nil {
		t.Fatalf("append b: %v", err)
	}

	// duplicate name leaves items and seen unchanged
	if _, err := s.Append(ctx, b.ID, record("a.jpg"), []byte("raster-a2")); !errors.Is(err, batch.ErrDuplicateName) {
		t.Fatalf("duplicate append: err = %v, want ErrDuplicateName", err)
	}

	got, _ := s.Get(b.ID)
	if len(got.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(got.Items))
	}
	if got.Items[0].OriginalName != "a.jpg" || got.Items[1].OriginalName != "b.jpg" {
		t.Fatalf("order broken: %v %v", got.Items[0].OriginalName, got.Items[1].OriginalName)
	}
	checkInvariant(t, got)
}

func TestRemoveShiftsAndUnregisters(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	b, _ := s.Create(ctx, "")
	for _, n := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if _, err := s.Append(ctx, b.ID, record(n), []byte(n)); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Remove(ctx, b.ID, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, _ := s.Get(b.ID)
	if len(got.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(got.Items))
	}
	if got.Items[0].OriginalName != "a.jpg" || got.Items[1].OriginalName != "c.jpg" {
		t.Fatalf("unexpected order after remove: %+v", got.Items)
	}
	if got.HasName("b.jpg") {
		t.Fatal("removed name still registered")
	}
	checkInvariant(t, got)

	// removed name can be ingested again
	if _, err := s.Append(ctx, b.ID, record("b.jpg"), []byte("again")); err != nil {
		t.Fatalf("re-append after remove: %v", err)
	}

	for _, idx := range []int{-1, 3, 100} {
		if err := s.Remove(ctx, b.ID, idx); !errors.Is(err, batch.ErrIndexOutOfRange) {
			t.Errorf("remove(%d): err = %v, want ErrIndexOutOfRange", idx, err)
		}
	}
}

func TestClear(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	b, _ := s.Create(ctx, "")
	if _, err := s.Append(ctx, b.ID, record("a.jpg"), []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(b.ID)
	if len(got.Items) != 0 || len(got.Seen) != 0 {
		t.Fatalf("clear left %d items, %d names", len(got.Items), len(got.Seen))
	}
}

func TestRenameValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	b, _ := s.Create(ctx, "old")
	if err := s.Rename(ctx, b.ID, ""); !errors.Is(err, batch.ErrEmptyName) {
		t.Fatalf("rename to empty: err = %v, want ErrEmptyName", err)
	}
	if err := s.Rename(ctx, b.ID, "new"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(b.ID)
	if got.Name != "new" {
		t.Fatalf("name = %q, want new", got.Name)
	}
	if err := s.Rename(ctx, "nope", "x"); !errors.Is(err, batch.ErrBatchNotFound) {
		t.Fatalf("rename unknown: err = %v, want ErrBatchNotFound", err)
	}
}

func TestDeleteReselectsActive(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	b1, _ := s.Create(ctx, "one")
	b2, _ := s.Create(ctx, "two")

	// creation makes the newest batch active
	active, ok := s.Active()
	if !ok || active.ID != b2.ID {
		t.Fatalf("active = %v, want %s", active.ID, b2.ID)
	}

	if err := s.Delete(ctx, b2.ID); err != nil {
		t.Fatal(err)
	}
	active, ok = s.Active()
	if !ok || active.ID != b1.ID {
		t.Fatalf("after delete active = %v, want first remaining %s", active.ID, b1.ID)
	}

	if err := s.Delete(ctx, b1.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Active(); ok {
		t.Fatal("active selection should be empty after deleting last batch")
	}
}

func TestDefaultNaming(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	b1, _ := s.Create(ctx, "")
	b2, _ := s.Create(ctx, "")
	if b1.Name != "Lote 1" || b2.Name != "Lote 2" {
		t.Fatalf("default names = %q, %q", b1.Name, b2.Name)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	manifest, err := store.NewFileManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	blobs, err := blob.NewFileStore(dir + "/blobs")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	s := batch.NewStore(manifest, blobs)
	b, _ := s.Create(ctx, "viagem")
	recs := []batch.ImageRecord{
		{OriginalName: "a.jpg", MediaType: "image/jpeg", Width: 800, Height: 600},
		{OriginalName: "b.png", MediaType: "image/png", Width: 640, Height: 640},
		{OriginalName: "c.jpg", MediaType: "image/jpeg", Width: 300, Height: 500},
	}
	for _, r := range recs {
		if _, err := s.Append(ctx, b.ID, r, []byte(r.OriginalName)); err != nil {
			t.Fatal(err)
		}
	}

	// a fresh store over the same manifest sees the identical logical state
	s2 := batch.NewStore(manifest, blobs)
	if err := s2.Load(ctx); err != nil {
		t.Fatal(err)
	}
	got, ok := s2.Get(b.ID)
	if !ok {
		t.Fatal("batch missing after reload")
	}
	if got.Name != "viagem" || len(got.Items) != 3 {
		t.Fatalf("reloaded batch = %q with %d items", got.Name, len(got.Items))
	}
	for i, r := range recs {
		it := got.Items[i]
		if it.OriginalName != r.OriginalName || it.MediaType != r.MediaType ||
			it.Width != r.Width || it.Height != r.Height {
			t.Fatalf("item %d = %+v, want %+v", i, it, r)
		}
		if it.PayloadRef == "" {
			t.Fatalf("item %d lost payload ref", i)
		}
		data, err := blobs.Get(ctx, it.PayloadRef)
		if err != nil || string(data) != r.OriginalName {
			t.Fatalf("payload %d = %q (%v)", i, data, err)
		}
	}
	checkInvariant(t, got)

	// reload selects the first batch as active
	active, ok := s2.Active()
	if !ok || active.ID != b.ID {
		t.Fatalf("active after reload = %v", active.ID)
	}
}

func TestConcurrentAppendsSharingNamePassGateOnce(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	b, err := s.Create(ctx, "Lote 1")
	if err != nil {
		t.Fatal(err)
	}

	const workers = 16
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Append(ctx, b.ID, record("shared.jpg"), []byte(fmt.Sprintf("raster-%d", i)))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	accepted, duplicates := 0, 0
	for err := range results {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, batch.ErrDuplicateName):
			duplicates++
		default:
			t.Fatalf("unexpected append error: %v", err)
		}
	}
	if accepted != 1 {
		t.Fatalf("accepted = %d, want exactly 1", accepted)
	}
	if duplicates != workers-1 {
		t.Fatalf("duplicates = %d, want %d", duplicates, workers-1)
	}

	got, ok := s.Get(b.ID)
	if !ok {
		t.Fatal("batch disappeared")
	}
	if len(got.Items) != 1 || got.Items[0].OriginalName != "shared.jpg" {
		t.Fatalf("items = %+v, want the one shared record", got.Items)
	}
	checkInvariant(t, got)
}
