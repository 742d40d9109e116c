package documents_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/regwatch/internal/documents"
	"github.com/JaimeStill/regwatch/internal/workflow"
	"github.com/JaimeStill/regwatch/pkg/lifecycle"
	"github.com/JaimeStill/regwatch/pkg/pagination"
	"github.com/JaimeStill/regwatch/pkg/storage"
	"github.com/JaimeStill/regwatch/pkg/vectorindex"
)

type fakeProcessor struct {
	result   workflow.Result
	requests []workflow.Request
}

func (p *fakeProcessor) ProcessDocument(_ context.Context, req workflow.Request) workflow.Result {
	p.requests = append(p.requests, req)
	return p.result
}

type fakeBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	deleteErr error
	deleted   []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (b *fakeBlobs) Start(*lifecycle.Coordinator) error { return nil }

func (b *fakeBlobs) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *fakeBlobs) Download(_ context.Context, key string) (*storage.Blob, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Blob{Body: io.NopCloser(bytes.NewReader(data)), ContentLength: int64(len(data))}, nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, key)
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.objects, key)
	return nil
}

func (b *fakeBlobs) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok, nil
}

type indexCall struct {
	collection string
	text       string
	meta       vectorindex.Metadata
}

type fakeIndex struct {
	indexed   []indexCall
	deleted   []uuid.UUID
	indexErr  error
	deleteErr error
	matches   []vectorindex.Match
	searched  []string
}

func (x *fakeIndex) IndexChunks(_ context.Context, collection, text string, meta vectorindex.Metadata) (int, error) {
	x.indexed = append(x.indexed, indexCall{collection, text, meta})
	if x.indexErr != nil {
		return 0, x.indexErr
	}
	return 3, nil
}

func (x *fakeIndex) DeleteFromIndex(_ context.Context, _ string, docID uuid.UUID) (int64, error) {
	x.deleted = append(x.deleted, docID)
	return 1, x.deleteErr
}

func (x *fakeIndex) Search(_ context.Context, collection, _ string, _ int) ([]vectorindex.Match, error) {
	x.searched = append(x.searched, collection)
	return x.matches, nil
}

// fakeStore keeps rows in memory and applies a transaction's writes only
// when its function returns nil.
type fakeStore struct {
	primaries   map[uuid.UUID]documents.Primary
	secondaries map[uuid.UUID]documents.Secondary
	insertErr   error
	commits     int
	rollbacks   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		primaries:   map[uuid.UUID]documents.Primary{},
		secondaries: map[uuid.UUID]documents.Secondary{},
	}
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(documents.Tx) error) error {
	tx := &fakeTx{store: s}
	if err := fn(tx); err != nil {
		s.rollbacks++
		return err
	}
	for _, op := range tx.ops {
		op()
	}
	s.commits++
	return nil
}

func (s *fakeStore) ListPrimaries(context.Context, pagination.PageRequest, documents.Filters) (*pagination.PageResult[documents.Primary], error) {
	items := make([]documents.Primary, 0, len(s.primaries))
	for _, p := range s.primaries {
		items = append(items, p)
	}
	r := pagination.NewPageResult(items, len(items), 1, 20)
	return &r, nil
}

func (s *fakeStore) FindPrimary(_ context.Context, id uuid.UUID) (*documents.Primary, error) {
	p, ok := s.primaries[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	return &p, nil
}

func (s *fakeStore) FindSecondary(_ context.Context, id uuid.UUID) (*documents.Secondary, error) {
	sec, ok := s.secondaries[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	return &sec, nil
}

func (s *fakeStore) SecondariesOf(_ context.Context, primaryID uuid.UUID) ([]documents.Secondary, error) {
	out := []documents.Secondary{}
	for _, sec := range s.secondaries {
		if sec.PrimaryID == primaryID {
			out = append(out, sec)
		}
	}
	return out, nil
}

func (s *fakeStore) ParentSummary(_ context.Context, id uuid.UUID) (string, error) {
	p, ok := s.primaries[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", workflow.ErrParentNotFound, id)
	}
	return p.Summary, nil
}

type fakeTx struct {
	store *fakeStore
	ops   []func()
}

func (t *fakeTx) InsertPrimary(_ context.Context, p *documents.Primary) error {
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	for _, existing := range t.store.primaries {
		if existing.CollectionName == p.CollectionName {
			return documents.ErrDuplicate
		}
	}
	row := *p
	t.ops = append(t.ops, func() { t.store.primaries[row.ID] = row })
	return nil
}

func (t *fakeTx) InsertSecondary(_ context.Context, s *documents.Secondary) error {
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	for _, existing := range t.store.secondaries {
		if existing.StorageKey == s.StorageKey {
			return documents.ErrDuplicate
		}
	}
	row := *s
	t.ops = append(t.ops, func() { t.store.secondaries[row.ID] = row })
	return nil
}

func (t *fakeTx) DeletePrimary(_ context.Context, id uuid.UUID) error {
	if _, ok := t.store.primaries[id]; !ok {
		return documents.ErrNotFound
	}
	t.ops = append(t.ops, func() { delete(t.store.primaries, id) })
	return nil
}

func (t *fakeTx) DeleteSecondary(_ context.Context, id uuid.UUID) error {
	if _, ok := t.store.secondaries[id]; !ok {
		return documents.ErrNotFound
	}
	t.ops = append(t.ops, func() { delete(t.store.secondaries, id) })
	return nil
}

func (t *fakeTx) DeleteSecondariesOf(_ context.Context, primaryID uuid.UUID) error {
	t.ops = append(t.ops, func() {
		for id, s := range t.store.secondaries {
			if s.PrimaryID == primaryID {
				delete(t.store.secondaries, id)
			}
		}
	})
	return nil
}

var errBoom = errors.New("boom")
