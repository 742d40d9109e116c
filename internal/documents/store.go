package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/regwatch/internal/workflow"
	"github.com/JaimeStill/regwatch/pkg/pagination"
	"github.com/JaimeStill/regwatch/pkg/query"
	"github.com/JaimeStill/regwatch/pkg/repository"
)

// Store is the relational record store for documents.
type Store interface {
	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(Tx) error) error

	ListPrimaries(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Primary], error)
	FindPrimary(ctx context.Context, id uuid.UUID) (*Primary, error)
	FindSecondary(ctx context.Context, id uuid.UUID) (*Secondary, error)
	SecondariesOf(ctx context.Context, primaryID uuid.UUID) ([]Secondary, error)

	// ParentSummary satisfies workflow.ParentLookup.
	ParentSummary(ctx context.Context, id uuid.UUID) (string, error)
}

// Tx is the write side of Store, scoped to one transaction.
type Tx interface {
	InsertPrimary(ctx context.Context, p *Primary) error
	InsertSecondary(ctx context.Context, s *Secondary) error
	DeletePrimary(ctx context.Context, id uuid.UUID) error
	DeleteSecondary(ctx context.Context, id uuid.UUID) error
	DeleteSecondariesOf(ctx context.Context, primaryID uuid.UUID) error
}

type sqlStore struct {
	db         *sql.DB
	pagination pagination.Config
}

// NewStore creates a Store backed by PostgreSQL.
func NewStore(db *sql.DB, pagination pagination.Config) Store {
	return &sqlStore{db: db, pagination: pagination}
}

var _ workflow.ParentLookup = (*sqlStore)(nil)

func (s *sqlStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	_, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, fn(&sqlTx{tx: tx})
	})
	return err
}

func (s *sqlStore) ListPrimaries(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Primary], error) {
	page.Normalize(s.pagination)

	qb := query.
		NewBuilder(primaryProjection, defaultSort).
		WhereSearch(page.Search, "DocumentName", "Summary", "CentralTheme")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	result, err := repository.QueryPage(ctx, s.db, qb, page, scanPrimary)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	ids := make([]uuid.UUID, len(result.Data))
	for i, p := range result.Data {
		ids[i] = p.ID
	}
	subjects, err := s.subjectsFor(ctx, primarySubjectsSQL, ids)
	if err != nil {
		return nil, err
	}
	for i := range result.Data {
		result.Data[i].Subjects = refsOrEmpty(subjects[result.Data[i].ID])
	}
	return result, nil
}

func (s *sqlStore) FindPrimary(ctx context.Context, id uuid.UUID) (*Primary, error) {
	q, args := query.NewBuilder(primaryProjection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, s.db, q, args, scanPrimary)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	subjects, err := s.subjectsFor(ctx, primarySubjectsSQL, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	p.Subjects = refsOrEmpty(subjects[id])
	return &p, nil
}

func (s *sqlStore) FindSecondary(ctx context.Context, id uuid.UUID) (*Secondary, error) {
	q, args := query.NewBuilder(secondaryProjection).BuildSingle("ID", id)

	sec, err := repository.QueryOne(ctx, s.db, q, args, scanSecondary)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	subjects, err := s.subjectsFor(ctx, secondarySubjectsSQL, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	sec.Subjects = refsOrEmpty(subjects[id])
	return &sec, nil
}

func (s *sqlStore) SecondariesOf(ctx context.Context, primaryID uuid.UUID) ([]Secondary, error) {
	q, args := query.
		NewBuilder(secondaryProjection, query.SortField{Field: "CreatedAt"}).
		WhereEquals("PrimaryID", primaryID).
		Build()

	items, err := repository.QueryMany(ctx, s.db, q, args, scanSecondary)
	if err != nil {
		return nil, fmt.Errorf("query secondaries: %w", err)
	}

	ids := make([]uuid.UUID, len(items))
	for i, sec := range items {
		ids[i] = sec.ID
	}
	subjects, err := s.subjectsFor(ctx, secondarySubjectsSQL, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Subjects = refsOrEmpty(subjects[items[i].ID])
	}
	return items, nil
}

func (s *sqlStore) ParentSummary(ctx context.Context, id uuid.UUID) (string, error) {
	var summary string
	err := s.db.QueryRowContext(ctx, "SELECT summary FROM primary_documents WHERE id = $1", id).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", workflow.ErrParentNotFound, id)
	}
	if err != nil {
		return "", err
	}
	return summary, nil
}

const (
	primarySubjectsSQL = `
		SELECT ps.primary_id, s.id, s.name
		FROM primary_subjects ps
		JOIN subjects s ON s.id = ps.subject_id
		WHERE ps.primary_id = ANY($1::uuid[])
		ORDER BY s.name`

	secondarySubjectsSQL = `
		SELECT ss.secondary_id, s.id, s.name
		FROM secondary_subjects ss
		JOIN subjects s ON s.id = ss.subject_id
		WHERE ss.secondary_id = ANY($1::uuid[])
		ORDER BY s.name`
)

func (s *sqlStore) subjectsFor(ctx context.Context, q string, ids []uuid.UUID) (map[uuid.UUID][]SubjectRef, error) {
	out := make(map[uuid.UUID][]SubjectRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, q, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("query document subjects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner uuid.UUID
		var ref SubjectRef
		if err := rows.Scan(&owner, &ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan document subject: %w", err)
		}
		out[owner] = append(out[owner], ref)
	}
	return out, rows.Err()
}

type sqlTx struct {
	tx *sql.Tx
}

const (
	insertPrimarySQL = `
		INSERT INTO primary_documents (
			id, filename, content_type, size_bytes, page_count, storage_key, collection_name,
			document_type, document_name, document_number, document_year, presented_by, presented_at, link,
			summary, central_theme, key_points, relevance_score
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at`

	insertSecondarySQL = `
		INSERT INTO secondary_documents (
			id, primary_id, filename, content_type, size_bytes, page_count, storage_key, collection_name,
			role, party_affiliation,
			document_type, document_name, document_number, document_year, presented_by, presented_at, link,
			summary, central_theme, key_points, relevance_score
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING created_at, updated_at`

	linkPrimarySubjectsSQL = `
		WITH linked AS (
			INSERT INTO primary_subjects (primary_id, subject_id)
			SELECT $1, id FROM subjects WHERE name = ANY($2::text[])
			RETURNING subject_id
		)
		SELECT s.id, s.name FROM linked JOIN subjects s ON s.id = linked.subject_id`

	linkSecondarySubjectsSQL = `
		WITH linked AS (
			INSERT INTO secondary_subjects (secondary_id, subject_id)
			SELECT $1, id FROM subjects WHERE name = ANY($2::text[])
			RETURNING subject_id
		)
		SELECT s.id, s.name FROM linked JOIN subjects s ON s.id = linked.subject_id`
)

func (t *sqlTx) InsertPrimary(ctx context.Context, p *Primary) error {
	keyPoints, err := json.Marshal(p.KeyPoints)
	if err != nil {
		return fmt.Errorf("marshal key points: %w", err)
	}

	err = t.tx.QueryRowContext(ctx, insertPrimarySQL,
		p.ID, p.Filename, p.ContentType, p.SizeBytes, p.PageCount, p.StorageKey, p.CollectionName,
		p.DocumentType, p.DocumentName, p.DocumentNumber, p.DocumentYear, p.PresentedBy, p.PresentedAt, p.Link,
		p.Summary, p.CentralTheme, keyPoints, p.RelevanceScore,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	p.Subjects, err = t.linkSubjects(ctx, linkPrimarySubjectsSQL, p.ID, p.Subjects)
	return err
}

func (t *sqlTx) InsertSecondary(ctx context.Context, s *Secondary) error {
	keyPoints, err := json.Marshal(s.KeyPoints)
	if err != nil {
		return fmt.Errorf("marshal key points: %w", err)
	}

	err = t.tx.QueryRowContext(ctx, insertSecondarySQL,
		s.ID, s.PrimaryID, s.Filename, s.ContentType, s.SizeBytes, s.PageCount, s.StorageKey, s.CollectionName,
		s.Role, s.PartyAffiliation,
		s.DocumentType, s.DocumentName, s.DocumentNumber, s.DocumentYear, s.PresentedBy, s.PresentedAt, s.Link,
		s.Summary, s.CentralTheme, keyPoints, s.RelevanceScore,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	s.Subjects, err = t.linkSubjects(ctx, linkSecondarySubjectsSQL, s.ID, s.Subjects)
	return err
}

// linkSubjects associates the named subjects with a document, keeping the
// classifier's order. Names no longer in the vocabulary are skipped.
func (t *sqlTx) linkSubjects(ctx context.Context, q string, id uuid.UUID, refs []SubjectRef) ([]SubjectRef, error) {
	if len(refs) == 0 {
		return []SubjectRef{}, nil
	}

	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}

	rows, err := t.tx.QueryContext(ctx, q, id, names)
	if err != nil {
		return nil, fmt.Errorf("link subjects: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]SubjectRef, len(names))
	for rows.Next() {
		var ref SubjectRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("link subjects: %w", err)
		}
		byName[ref.Name] = ref
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("link subjects: %w", err)
	}

	out := make([]SubjectRef, 0, len(byName))
	for _, n := range names {
		if ref, ok := byName[n]; ok {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (t *sqlTx) DeletePrimary(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, t.tx, "DELETE FROM primary_documents WHERE id = $1", id)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (t *sqlTx) DeleteSecondary(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, t.tx, "DELETE FROM secondary_documents WHERE id = $1", id)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (t *sqlTx) DeleteSecondariesOf(ctx context.Context, primaryID uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM secondary_documents WHERE primary_id = $1", primaryID)
	return err
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func refsOrEmpty(refs []SubjectRef) []SubjectRef {
	if refs == nil {
		return []SubjectRef{}
	}
	return refs
}
