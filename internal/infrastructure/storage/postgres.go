package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/ports"
)

// PostgresStore is the durable Storage implementation. The updates table
// carries a unique index on fingerprint; concurrent duplicate creates
// resolve via ON CONFLICT DO NOTHING.
type PostgresStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.Storage = (*PostgresStore)(nil)

// Open connects to Postgres and wires the store.
func Open(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wires an existing sql.DB.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetActiveSources returns the active roster.
func (s *PostgresStore) GetActiveSources(ctx context.Context) ([]domain.Source, error) {
	query := s.sb.
		Select("id", "competitor_id", "competitor_name", "url", "type", "cadence", "active",
			"last_checked", "last_status", "last_error").
		From("sources").
		Where(sq.Eq{"active": true}).
		OrderBy("id")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query active sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return sources, nil
}

// GetSource returns one source by identifier.
func (s *PostgresStore) GetSource(ctx context.Context, id string) (domain.Source, error) {
	row := s.sb.
		Select("id", "competitor_id", "competitor_name", "url", "type", "cadence", "active",
			"last_checked", "last_status", "last_error").
		From("sources").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).QueryRowContext(ctx)

	src, err := scanSource(row)
	if err != nil {
		return domain.Source{}, fmt.Errorf("get source %s: %w", id, err)
	}
	return src, nil
}

// UpdateSourceStatus records the outcome of a fetch attempt.
func (s *PostgresStore) UpdateSourceStatus(ctx context.Context, id string, status domain.SourceStatus, lastError string) error {
	_, err := s.sb.
		Update("sources").
		Set("last_checked", time.Now().UTC()).
		Set("last_status", string(status)).
		Set("last_error", lastError).
		Where(sq.Eq{"id": id}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update source status: %w", err)
	}
	return nil
}

// GetUpdateByFingerprint returns the stored update or nil when absent.
func (s *PostgresStore) GetUpdateByFingerprint(ctx context.Context, fingerprint string) (*domain.Update, error) {
	row := s.sb.
		Select("id", "source_id", "competitor_id", "competitor_name", "title", "content", "url",
			"published_at", "scraped_at", "fingerprint", "raw_markup").
		From("updates").
		Where(sq.Eq{"fingerprint": fingerprint}).
		RunWith(s.db).QueryRowContext(ctx)

	update, err := scanUpdate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get update by fingerprint: %w", err)
	}
	return &update, nil
}

// CreateUpdate persists a deduplicated content item.
func (s *PostgresStore) CreateUpdate(ctx context.Context, update domain.Update) (domain.Update, error) {
	if update.ID == "" {
		update.ID = uuid.New().String()
	}
	if update.ScrapedAt.IsZero() {
		update.ScrapedAt = time.Now().UTC()
	}

	res, err := s.sb.
		Insert("updates").
		Columns("id", "source_id", "competitor_id", "competitor_name", "title", "content", "url",
			"published_at", "scraped_at", "fingerprint", "raw_markup").
		Values(update.ID, update.SourceID, update.CompetitorID, update.CompetitorName,
			update.Title, update.Content, update.URL,
			update.PublishedAt, update.ScrapedAt, update.Fingerprint, update.RawMarkup).
		Suffix("ON CONFLICT (fingerprint) DO NOTHING").
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return domain.Update{}, fmt.Errorf("insert update: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Update{}, fmt.Errorf("insert update result: %w", err)
	}
	if affected == 0 {
		return domain.Update{}, ports.ErrDuplicateFingerprint
	}
	return update, nil
}

// CreateClassification persists the verdict for one update.
func (s *PostgresStore) CreateClassification(ctx context.Context, c domain.Classification) (domain.Classification, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.sb.
		Insert("classifications").
		Columns("id", "update_id", "category", "impact", "confidence", "summary", "raw_response", "created_at").
		Values(c.ID, c.UpdateID, string(c.Category), string(c.Impact), c.Confidence, c.Summary, c.RawResponse, c.CreatedAt).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("insert classification: %w", err)
	}
	return c, nil
}

// GetUpdatesInRange returns classified updates scraped within the window.
func (s *PostgresStore) GetUpdatesInRange(ctx context.Context, start, end time.Time) ([]domain.ClassifiedUpdate, error) {
	query := s.sb.
		Select("u.id", "u.source_id", "u.competitor_id", "u.competitor_name", "u.title", "u.content", "u.url",
			"u.published_at", "u.scraped_at", "u.fingerprint", "u.raw_markup",
			"c.id", "c.category", "c.impact", "c.confidence", "c.summary", "c.raw_response", "c.created_at").
		From("updates u").
		Join("classifications c ON c.update_id = u.id").
		Where(sq.And{
			sq.GtOrEq{"u.scraped_at": start},
			sq.LtOrEq{"u.scraped_at": end},
		}).
		OrderBy("u.scraped_at")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query updates in range: %w", err)
	}
	defer rows.Close()

	var results []domain.ClassifiedUpdate
	for rows.Next() {
		var (
			u           domain.Update
			c           domain.Classification
			publishedAt sql.NullTime
		)
		err := rows.Scan(&u.ID, &u.SourceID, &u.CompetitorID, &u.CompetitorName, &u.Title, &u.Content, &u.URL,
			&publishedAt, &u.ScrapedAt, &u.Fingerprint, &u.RawMarkup,
			&c.ID, &c.Category, &c.Impact, &c.Confidence, &c.Summary, &c.RawResponse, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan classified update: %w", err)
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			u.PublishedAt = &t
		}
		c.UpdateID = u.ID
		results = append(results, domain.ClassifiedUpdate{Update: u, Classification: c})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return results, nil
}

// CreateDigest persists a periodic rollup.
func (s *PostgresStore) CreateDigest(ctx context.Context, d domain.Digest) (domain.Digest, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := s.sb.
		Insert("digests").
		Columns("id", "title", "content", "window_start", "window_end",
			"total_updates", "high_impact_count", "delivered", "delivery_ref", "created_at").
		Values(d.ID, d.Title, d.Content, d.WindowStart, d.WindowEnd,
			d.TotalUpdates, d.HighImpactCount, d.Delivered, d.DeliveryRef, d.CreatedAt).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return domain.Digest{}, fmt.Errorf("insert digest: %w", err)
	}
	return d, nil
}

// MarkDigestDelivered records the confirmed delivery reference.
func (s *PostgresStore) MarkDigestDelivered(ctx context.Context, id, deliveryRef string) error {
	_, err := s.sb.
		Update("digests").
		Set("delivered", true).
		Set("delivery_ref", deliveryRef).
		Where(sq.Eq{"id": id}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("mark digest delivered: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (domain.Source, error) {
	var (
		src         domain.Source
		lastChecked sql.NullTime
		lastError   sql.NullString
	)
	err := row.Scan(&src.ID, &src.CompetitorID, &src.CompetitorName, &src.URL, &src.Type, &src.Cadence,
		&src.Active, &lastChecked, &src.LastStatus, &lastError)
	if err != nil {
		return domain.Source{}, err
	}
	if lastChecked.Valid {
		t := lastChecked.Time
		src.LastChecked = &t
	}
	src.LastError = lastError.String
	return src, nil
}

func scanUpdate(row rowScanner) (domain.Update, error) {
	var (
		u           domain.Update
		publishedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.SourceID, &u.CompetitorID, &u.CompetitorName, &u.Title, &u.Content, &u.URL,
		&publishedAt, &u.ScrapedAt, &u.Fingerprint, &u.RawMarkup)
	if err != nil {
		return domain.Update{}, err
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		u.PublishedAt = &t
	}
	return u, nil
}
