package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/regwatch/internal/workflow"
	"github.com/JaimeStill/regwatch/pkg/pagination"
	"github.com/JaimeStill/regwatch/pkg/storage"
	"github.com/JaimeStill/regwatch/pkg/vectorindex"
)

const (
	storagePrefixPrimary   = "primary"
	storagePrefixSecondary = "secondary"

	irrelevantMessage = "document processed but marked as irrelevant"
)

type repo struct {
	store      Store
	engine     Processor
	storage    storage.System
	index      vectorindex.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the document system. The engine's ParentLookup is expected to
// read from the same store.
func New(
	store Store,
	engine Processor,
	blobs storage.System,
	index vectorindex.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		store:      store,
		engine:     engine,
		storage:    blobs,
		index:      index,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) CreatePrimary(ctx context.Context, cmd PrimaryCommand) (*Outcome, error) {
	res := r.engine.ProcessDocument(ctx, workflow.Request{
		Data:        cmd.Data,
		Filename:    cmd.Filename,
		ContentType: cmd.ContentType,
		Kind:        workflow.KindPrimary,
	})

	if out, err := r.screen(res, cmd.DocumentName); out != nil || err != nil {
		return out, err
	}

	id := uuid.New()
	p := &Primary{
		ID:             id,
		Filename:       cmd.Filename,
		ContentType:    cmd.ContentType,
		SizeBytes:      int64(len(cmd.Data)),
		PageCount:      cmd.PageCount,
		StorageKey:     storage.Key(storagePrefixPrimary, id, cmd.Filename),
		CollectionName: CollectionName(cmd.DocumentType, cmd.DocumentName),
		Details:        cmd.Details,
		Analysis:       analysisOf(res),
	}

	meta := vectorindex.Metadata{
		Source:         cmd.Filename,
		DocID:          id,
		DocumentType:   cmd.DocumentType,
		HierarchyLevel: 0,
		Subjects:       res.Subjects,
	}

	chunks, err := r.persist(ctx, p.StorageKey, cmd.File, p.CollectionName, res.Summary, meta,
		func(ctx context.Context, tx Tx) error { return tx.InsertPrimary(ctx, p) },
	)
	if err != nil {
		return nil, err
	}

	r.logger.Info("primary document created",
		"id", id,
		"document_name", cmd.DocumentName,
		"collection", p.CollectionName,
		"chunks", chunks,
	)

	return &Outcome{
		DocumentID:     &id,
		DocumentName:   cmd.DocumentName,
		Status:         res.Status,
		Subjects:       res.Subjects,
		CentralTheme:   res.Theme,
		KeyPoints:      res.KeyPoints,
		RelevanceScore: res.RelevanceScore,
		ChunksIndexed:  chunks,
		Message:        fmt.Sprintf("%d chunks indexed in collection %q", chunks, p.CollectionName),
	}, nil
}

func (r *repo) CreateSecondary(ctx context.Context, cmd SecondaryCommand) (*Outcome, error) {
	primary, err := r.store.FindPrimary(ctx, cmd.PrimaryID)
	if err != nil {
		return nil, err
	}

	parentID := primary.ID
	res := r.engine.ProcessDocument(ctx, workflow.Request{
		Data:        cmd.Data,
		Filename:    cmd.Filename,
		ContentType: cmd.ContentType,
		Kind:        workflow.KindSecondary,
		ParentID:    &parentID,
	})

	if out, err := r.screen(res, cmd.DocumentName); out != nil || err != nil {
		if out != nil {
			out.PrimaryDocument = primary.DocumentName
		}
		return out, err
	}

	id := uuid.New()
	s := &Secondary{
		ID:               id,
		PrimaryID:        primary.ID,
		Filename:         cmd.Filename,
		ContentType:      cmd.ContentType,
		SizeBytes:        int64(len(cmd.Data)),
		PageCount:        cmd.PageCount,
		StorageKey:       storage.Key(storagePrefixSecondary, id, cmd.Filename),
		CollectionName:   primary.CollectionName,
		Role:             cmd.Role,
		PartyAffiliation: cmd.PartyAffiliation,
		Details:          cmd.Details,
		Analysis:         analysisOf(res),
	}

	meta := vectorindex.Metadata{
		Source:         cmd.Filename,
		DocID:          id,
		DocumentType:   cmd.DocumentType,
		ParentID:       &parentID,
		HierarchyLevel: 1,
		Subjects:       res.Subjects,
	}

	chunks, err := r.persist(ctx, s.StorageKey, cmd.File, s.CollectionName, res.Summary, meta,
		func(ctx context.Context, tx Tx) error { return tx.InsertSecondary(ctx, s) },
	)
	if err != nil {
		return nil, err
	}

	r.logger.Info("secondary document created",
		"id", id,
		"primary_id", primary.ID,
		"document_name", cmd.DocumentName,
		"chunks", chunks,
	)

	return &Outcome{
		DocumentID:      &id,
		DocumentName:    cmd.DocumentName,
		PrimaryDocument: primary.DocumentName,
		Status:          res.Status,
		Subjects:        res.Subjects,
		CentralTheme:    res.Theme,
		KeyPoints:       res.KeyPoints,
		RelevanceScore:  res.RelevanceScore,
		ChunksIndexed:   chunks,
		Message:         fmt.Sprintf("%d chunks indexed in collection %q", chunks, s.CollectionName),
	}, nil
}

// screen turns a non-success workflow result into the caller's response.
// It returns (nil, nil) when the document should be persisted.
func (r *repo) screen(res workflow.Result, name string) (*Outcome, error) {
	switch res.Status {
	case workflow.StatusSuccess:
		return nil, nil
	case workflow.StatusIrrelevant:
		reason := workflow.DefaultIrrelevantReason
		if len(res.Reasons) > 0 && res.Reasons[0] != "" {
			reason = res.Reasons[0]
		}
		r.logger.Warn("document marked irrelevant", "document_name", name, "reason", reason)
		return &Outcome{
			DocumentName:   name,
			Status:         workflow.StatusIrrelevant,
			RelevanceScore: res.RelevanceScore,
			Reason:         reason,
			Message:        irrelevantMessage,
		}, nil
	default:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProcessing, res.Err)
		}
		return nil, fmt.Errorf("%w: %s", ErrProcessing, res.ErrorMessage)
	}
}

// persist writes one analyzed document across blob storage, the record
// store, and the vector index. Index writes happen inside the record
// transaction so a failed index rolls the rows back; any failure removes
// the blob and whatever reached the index.
func (r *repo) persist(
	ctx context.Context,
	key string,
	file File,
	collection, text string,
	meta vectorindex.Metadata,
	insert func(context.Context, Tx) error,
) (int, error) {
	if err := r.storage.Upload(ctx, key, bytes.NewReader(file.Data), file.ContentType); err != nil {
		return 0, fmt.Errorf("%w: upload blob: %w", ErrPersistence, err)
	}

	var chunks int
	err := r.store.WithTx(ctx, func(tx Tx) error {
		if err := insert(ctx, tx); err != nil {
			return err
		}

		n, err := r.index.IndexChunks(ctx, collection, text, meta)
		if err != nil {
			return err
		}
		chunks = n
		return nil
	})

	if err != nil {
		r.compensate(ctx, key, collection, meta.DocID)
		return 0, classifyPersistError(err)
	}

	return chunks, nil
}

func (r *repo) compensate(ctx context.Context, key, collection string, docID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)

	if _, err := r.index.DeleteFromIndex(ctx, collection, docID); err != nil {
		r.logger.Warn("compensating index delete failed",
			"collection", collection,
			"doc_id", docID,
			"error", err,
		)
	}

	if err := r.storage.Delete(ctx, key); err != nil {
		r.logger.Warn("compensating blob delete failed", "key", key, "error", err)
	}
}

func classifyPersistError(err error) error {
	switch {
	case errors.Is(err, vectorindex.ErrIndex),
		errors.Is(err, ErrPersistence),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrNotFound):
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func analysisOf(res workflow.Result) Analysis {
	refs := make([]SubjectRef, len(res.Subjects))
	for i, name := range res.Subjects {
		refs[i] = SubjectRef{Name: name}
	}
	return Analysis{
		Summary:        res.Summary,
		CentralTheme:   res.Theme,
		KeyPoints:      res.KeyPoints,
		RelevanceScore: res.RelevanceScore,
		Subjects:       refs,
	}
}

func (r *repo) DeletePrimary(ctx context.Context, id uuid.UUID) error {
	p, err := r.store.FindPrimary(ctx, id)
	if err != nil {
		return err
	}

	secondaries, err := r.store.SecondariesOf(ctx, id)
	if err != nil {
		return err
	}

	r.clearIndex(ctx, p.CollectionName, p.ID)
	for _, s := range secondaries {
		r.clearIndex(ctx, s.CollectionName, s.ID)
	}

	err = r.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.DeleteSecondariesOf(ctx, id); err != nil {
			return err
		}
		return tx.DeletePrimary(ctx, id)
	})
	if err != nil {
		return err
	}

	r.deleteBlob(ctx, p.StorageKey)
	for _, s := range secondaries {
		r.deleteBlob(ctx, s.StorageKey)
	}

	r.logger.Info("primary document deleted", "id", id, "secondaries", len(secondaries))
	return nil
}

func (r *repo) DeleteSecondary(ctx context.Context, id uuid.UUID) error {
	s, err := r.store.FindSecondary(ctx, id)
	if err != nil {
		return err
	}

	r.clearIndex(ctx, s.CollectionName, s.ID)

	err = r.store.WithTx(ctx, func(tx Tx) error {
		return tx.DeleteSecondary(ctx, id)
	})
	if err != nil {
		return err
	}

	r.deleteBlob(ctx, s.StorageKey)

	r.logger.Info("secondary document deleted", "id", id, "primary_id", s.PrimaryID)
	return nil
}

func (r *repo) clearIndex(ctx context.Context, collection string, id uuid.UUID) {
	if _, err := r.index.DeleteFromIndex(ctx, collection, id); err != nil {
		r.logger.Error("index delete failed", "collection", collection, "doc_id", id, "error", err)
	}
}

func (r *repo) deleteBlob(ctx context.Context, key string) {
	if err := r.storage.Delete(ctx, key); err != nil {
		r.logger.Warn("blob delete failed after DB delete", "key", key, "error", err)
	}
}

func (r *repo) ListPrimaries(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Primary], error) {
	return r.store.ListPrimaries(ctx, page, filters)
}

func (r *repo) FindPrimary(ctx context.Context, id uuid.UUID) (*PrimaryDetail, error) {
	p, err := r.store.FindPrimary(ctx, id)
	if err != nil {
		return nil, err
	}

	secondaries, err := r.store.SecondariesOf(ctx, id)
	if err != nil {
		return nil, err
	}

	return &PrimaryDetail{Primary: *p, Secondaries: secondaries}, nil
}

func (r *repo) FindSecondary(ctx context.Context, id uuid.UUID) (*Secondary, error) {
	return r.store.FindSecondary(ctx, id)
}

func (r *repo) ParentSummary(ctx context.Context, id uuid.UUID) (string, error) {
	return r.store.ParentSummary(ctx, id)
}

func (r *repo) Search(ctx context.Context, id uuid.UUID, q string, k int) ([]vectorindex.Match, error) {
	p, err := r.store.FindPrimary(ctx, id)
	if err != nil {
		return nil, err
	}

	matches, err := r.index.Search(ctx, p.CollectionName, q, k)
	if err != nil {
		return nil, err
	}
	return matches, nil
}
