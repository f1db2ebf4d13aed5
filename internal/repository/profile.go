package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// ProfileFilter narrows List and ListAll. Empty Statuses means all statuses.
type ProfileFilter struct {
	Statuses []constants.OCRStatus
}

func (f ProfileFilter) matches(p *entity.Profile) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if p.OCRStatus == s {
			return true
		}
	}
	return false
}

// ProfileRepository is the Profile Store.
//
// Update is a compare-and-swap on Version: it fails with common.ErrConflict when the
// stored version differs from p.Version, and on success bumps p.Version.
type ProfileRepository interface {
	Create(ctx context.Context, p *entity.Profile) error
	Get(ctx context.Context, id string) (*entity.Profile, error)
	Update(ctx context.Context, p *entity.Profile) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ProfileFilter, page, pageSize int) (entity.ProfilePage, error)
	ListAll(ctx context.Context, filter ProfileFilter) ([]*entity.Profile, error)
	// ApproveByConfidence moves every profile in one of from with confidence >= min
	// to approved in a single statement and returns how many changed.
	ApproveByConfidence(ctx context.Context, from []constants.OCRStatus, min float64, now time.Time) (int, error)
	Ping(ctx context.Context) error
}

// prepareCreate fills identity, version and timestamps for a new record.
func prepareCreate(p *entity.Profile, now time.Time) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.OCRStatus == "" {
		p.OCRStatus = constants.OCRStatusPending
	}
	p.Version = 1
	p.CreatedAt = now
	p.UpdatedAt = now
}

var profileColumns = []string{
	"id", "ocr_status", "ocr_confidence", "source_file", "original_filename",
	"raw_ocr_text", "fields", "version", "created_at", "updated_at",
}

type sqlProfileRepository struct {
	db     *DB
	b      *entsql.DialectBuilder
	logger *slog.Logger
	now    func() time.Time
}

func NewProfileRepository(db *DB, logger *slog.Logger) ProfileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &sqlProfileRepository{
		db:     db,
		b:      entsql.Dialect(db.Dialect),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *sqlProfileRepository) Create(ctx context.Context, p *entity.Profile) error {
	prepareCreate(p, r.now())
	fields, err := json.Marshal(p.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	q, args := r.b.Insert(profilesTable).
		Columns(profileColumns...).
		Values(p.ID, string(p.OCRStatus), nullFloat(p.OCRConfidence), p.SourceFile, p.OriginalFilename,
			p.RawOCRText, string(fields), p.Version, p.CreatedAt.UnixNano(), p.UpdatedAt.UnixNano()).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, q, args...); err != nil {
		r.logger.Error("failed to create profile", "profile_id", p.ID, "error", err)
		return fmt.Errorf("%w: insert profile: %v", common.ErrDatabase, err)
	}
	return nil
}

func (r *sqlProfileRepository) Get(ctx context.Context, id string) (*entity.Profile, error) {
	q, args := r.b.Select(profileColumns...).
		From(entsql.Table(profilesTable)).
		Where(entsql.EQ("id", id)).
		Query()
	p, err := scanProfile(r.db.SQL.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("profile %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get profile: %v", common.ErrDatabase, err)
	}
	return p, nil
}

func (r *sqlProfileRepository) Update(ctx context.Context, p *entity.Profile) error {
	fields, err := json.Marshal(p.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	now := r.now()
	q, args := r.b.Update(profilesTable).
		Set("ocr_status", string(p.OCRStatus)).
		Set("ocr_confidence", nullFloat(p.OCRConfidence)).
		Set("source_file", p.SourceFile).
		Set("original_filename", p.OriginalFilename).
		Set("raw_ocr_text", p.RawOCRText).
		Set("fields", string(fields)).
		Set("version", p.Version+1).
		Set("updated_at", now.UnixNano()).
		Where(entsql.And(entsql.EQ("id", p.ID), entsql.EQ("version", p.Version))).
		Query()
	res, err := r.db.SQL.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%w: update profile: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update profile: %v", common.ErrDatabase, err)
	}
	if n == 0 {
		if _, err := r.Get(ctx, p.ID); err != nil {
			return err
		}
		return common.Conflictf("profile %s changed since version %d", p.ID, p.Version)
	}
	p.Version++
	p.UpdatedAt = now
	return nil
}

func (r *sqlProfileRepository) Delete(ctx context.Context, id string) error {
	q, args := r.b.Delete(profilesTable).Where(entsql.EQ("id", id)).Query()
	res, err := r.db.SQL.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%w: delete profile: %v", common.ErrDatabase, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundf("profile %s", id)
	}
	return nil
}

func (r *sqlProfileRepository) statusPredicate(f ProfileFilter) *entsql.Predicate {
	if len(f.Statuses) == 0 {
		return nil
	}
	vals := make([]any, len(f.Statuses))
	for i, s := range f.Statuses {
		vals[i] = string(s)
	}
	return entsql.In("ocr_status", vals...)
}

func (r *sqlProfileRepository) List(ctx context.Context, filter ProfileFilter, page, pageSize int) (entity.ProfilePage, error) {
	page, pageSize = NormalizePage(page, pageSize)

	count := r.b.Select().Count().From(entsql.Table(profilesTable))
	if p := r.statusPredicate(filter); p != nil {
		count.Where(p)
	}
	q, args := count.Query()
	var total int
	if err := r.db.SQL.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return entity.ProfilePage{}, fmt.Errorf("%w: count profiles: %v", common.ErrDatabase, err)
	}

	sel := r.b.Select(profileColumns...).From(entsql.Table(profilesTable))
	if p := r.statusPredicate(filter); p != nil {
		sel.Where(p)
	}
	sel.OrderExpr(entsql.Expr("created_at DESC, id ASC")).
		Limit(pageSize).
		Offset((page - 1) * pageSize)
	items, err := r.query(ctx, sel)
	if err != nil {
		return entity.ProfilePage{}, err
	}
	return entity.ProfilePage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (r *sqlProfileRepository) ListAll(ctx context.Context, filter ProfileFilter) ([]*entity.Profile, error) {
	sel := r.b.Select(profileColumns...).From(entsql.Table(profilesTable))
	if p := r.statusPredicate(filter); p != nil {
		sel.Where(p)
	}
	sel.OrderExpr(entsql.Expr("created_at DESC, id ASC"))
	return r.query(ctx, sel)
}

func (r *sqlProfileRepository) query(ctx context.Context, sel *entsql.Selector) ([]*entity.Profile, error) {
	q, args := sel.Query()
	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list profiles: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*entity.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan profile: %v", common.ErrDatabase, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list profiles: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *sqlProfileRepository) ApproveByConfidence(ctx context.Context, from []constants.OCRStatus, min float64, now time.Time) (int, error) {
	if len(from) == 0 {
		return 0, nil
	}
	q, args := r.b.Update(profilesTable).
		Set("ocr_status", string(constants.OCRStatusApproved)).
		Set("updated_at", now.UnixNano()).
		Add("version", 1).
		Where(entsql.And(
			r.statusPredicate(ProfileFilter{Statuses: from}),
			entsql.NotNull("ocr_confidence"),
			entsql.GTE("ocr_confidence", min),
		)).
		Query()
	res, err := r.db.SQL.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: bulk approve: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: bulk approve: %v", common.ErrDatabase, err)
	}
	return int(n), nil
}

func (r *sqlProfileRepository) Ping(ctx context.Context) error {
	return r.db.SQL.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(s rowScanner) (*entity.Profile, error) {
	var (
		p          entity.Profile
		status     string
		confidence sql.NullFloat64
		fields     string
		created    int64
		updated    int64
	)
	if err := s.Scan(&p.ID, &status, &confidence, &p.SourceFile, &p.OriginalFilename,
		&p.RawOCRText, &fields, &p.Version, &created, &updated); err != nil {
		return nil, err
	}
	st, ok := constants.ParseOCRStatus(status)
	if !ok {
		return nil, fmt.Errorf("profile %s has unknown status %q", p.ID, status)
	}
	p.OCRStatus = st
	if confidence.Valid {
		c := confidence.Float64
		p.OCRConfidence = &c
	}
	if err := json.Unmarshal([]byte(fields), &p.Fields); err != nil {
		return nil, fmt.Errorf("decode fields of %s: %w", p.ID, err)
	}
	p.CreatedAt = time.Unix(0, created).UTC()
	p.UpdatedAt = time.Unix(0, updated).UTC()
	return &p, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// Page size bounds for profile listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps page to >= 1 and pageSize to 1..MaxPageSize.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
