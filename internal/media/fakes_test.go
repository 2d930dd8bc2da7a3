package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/citybites/site/internal/storage"
)

var errInjected = errors.New("injected failure")

// fakeBlobs wraps the in-memory store with per-call failure injection.
type fakeBlobs struct {
	*storage.MemoryStorage
	uploads     int
	failUploadN int // fail the n-th upload (1-based); 0 disables
	failDelete  bool
	deleteCalls [][]string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{MemoryStorage: storage.NewMemoryStorage("http://cdn.test/media")}
}

func (b *fakeBlobs) Upload(ctx context.Context, key string, r io.Reader, size int64, ct string, overwrite bool) error {
	b.uploads++
	if b.failUploadN > 0 && b.uploads == b.failUploadN {
		return errInjected
	}
	return b.MemoryStorage.Upload(ctx, key, r, size, ct, overwrite)
}

func (b *fakeBlobs) Delete(ctx context.Context, keys []string) error {
	b.deleteCalls = append(b.deleteCalls, append([]string(nil), keys...))
	if b.failDelete {
		return errInjected
	}
	return b.MemoryStorage.Delete(ctx, keys)
}

func (b *fakeBlobs) seed(keys ...string) {
	for _, k := range keys {
		_ = b.MemoryStorage.Upload(context.Background(), k, nopReader{}, 0, "", true)
	}
}

type nopReader struct{}

func (nopReader) Read([]byte) (int, error) { return 0, io.EOF }

type fakeRow struct {
	single   map[string]string
	lists    map[string][]string
	children []string
}

// fakeOwner is an in-memory reference store for one kind.
type fakeOwner struct {
	mu         sync.Mutex
	rows       map[string]*fakeRow
	failUpdate bool
	failDelete bool
}

func newFakeOwner() *fakeOwner {
	return &fakeOwner{rows: map[string]*fakeRow{}}
}

func (o *fakeOwner) add(id string, single map[string]string, lists map[string][]string, children ...string) {
	if single == nil {
		single = map[string]string{}
	}
	if lists == nil {
		lists = map[string][]string{}
	}
	o.rows[id] = &fakeRow{single: single, lists: lists, children: children}
}

func (o *fakeOwner) row(id string) (*fakeRow, error) {
	r, ok := o.rows[id]
	if !ok {
		return nil, fmt.Errorf("row %s: %w", id, ErrNotFound)
	}
	return r, nil
}

func (o *fakeOwner) Single(_ context.Context, id, slot string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	r, err := o.row(id)
	if err != nil {
		return "", err
	}
	return r.single[slot], nil
}

func (o *fakeOwner) SetSingle(_ context.Context, id, slot, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failUpdate {
		return errInjected
	}
	r, err := o.row(id)
	if err != nil {
		return err
	}
	r.single[slot] = path
	return nil
}

func (o *fakeOwner) ListPaths(_ context.Context, id, slot string) ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	r, err := o.row(id)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), r.lists[slot]...), nil
}

func (o *fakeOwner) SetList(_ context.Context, id, slot string, paths []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failUpdate {
		return errInjected
	}
	r, err := o.row(id)
	if err != nil {
		return err
	}
	r.lists[slot] = append([]string(nil), paths...)
	return nil
}

// Cascade resolves children against the same fake; children are rows too.
func (o *fakeOwner) Cascade(_ context.Context, id string) (*Cascade, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	r, err := o.row(id)
	if err != nil {
		return nil, err
	}
	c := &Cascade{}
	collect := func(r *fakeRow) {
		for _, p := range r.single {
			c.Paths = append(c.Paths, p)
		}
		for _, l := range r.lists {
			c.Paths = append(c.Paths, l...)
		}
	}
	collect(r)
	for _, childID := range r.children {
		child, err := o.row(childID)
		if err != nil {
			return nil, err
		}
		collect(child)
		c.ChildIDs = append(c.ChildIDs, childID)
	}
	return c, nil
}

func (o *fakeOwner) DeleteCascade(_ context.Context, id string, c *Cascade) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failDelete {
		return errInjected
	}
	for _, childID := range c.ChildIDs {
		delete(o.rows, childID)
	}
	delete(o.rows, id)
	return nil
}
