package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"MentionsScanner/internal/domain"
	"MentionsScanner/internal/ports"
)

// Supported database drivers, named as in the storage config.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const resultsTable = "episode_results"

const createResultsTable = `CREATE TABLE IF NOT EXISTS episode_results (
    episode_id TEXT PRIMARY KEY,
    products   TEXT NOT NULL,
    media      TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

// SQLRepository persists episode results into Postgres or SQLite.
type SQLRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.ResultRepository = (*SQLRepository)(nil)

// OpenSQL opens the database for driver, checks the connection and creates the table.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLRepository, error) {
	var sqlDriver string
	switch driver {
	case DriverPostgres:
		sqlDriver = "pgx"
	case DriverSQLite:
		sqlDriver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	repo := NewSQLRepository(db, driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLRepository wires an existing sql.DB. driver selects the placeholder style.
func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &SQLRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
		now:     time.Now,
	}
}

// EnsureSchema creates the results table when missing.
func (r *SQLRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createResultsTable); err != nil {
		return fmt.Errorf("create %s: %w", resultsTable, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// Save upserts the result; a second save for the same episode replaces the first.
func (r *SQLRepository) Save(ctx context.Context, result domain.EpisodeResult) error {
	if err := domain.ValidateEpisodeID(result.EpisodeID); err != nil {
		return err
	}
	result.Normalize()

	products, err := json.Marshal(result.Products)
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	media, err := json.Marshal(result.Media)
	if err != nil {
		return fmt.Errorf("encode media: %w", err)
	}

	query, args, err := r.builder.
		Insert(resultsTable).
		Columns("episode_id", "products", "media", "updated_at").
		Values(result.EpisodeID, string(products), string(media), r.now().UTC().Format(time.RFC3339)).
		Suffix(`ON CONFLICT (episode_id) DO UPDATE
              SET products = EXCLUDED.products,
                  media = EXCLUDED.media,
                  updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

// Load returns the stored result or domain.ErrResultNotFound.
func (r *SQLRepository) Load(ctx context.Context, episodeID string) (domain.EpisodeResult, error) {
	if err := domain.ValidateEpisodeID(episodeID); err != nil {
		return domain.EpisodeResult{}, err
	}

	query, args, err := r.builder.
		Select("products", "media").
		From(resultsTable).
		Where(sq.Eq{"episode_id": episodeID}).
		ToSql()
	if err != nil {
		return domain.EpisodeResult{}, fmt.Errorf("build select: %w", err)
	}

	var products, media string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&products, &media)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EpisodeResult{}, fmt.Errorf("%w: %s", domain.ErrResultNotFound, episodeID)
	}
	if err != nil {
		return domain.EpisodeResult{}, fmt.Errorf("query result: %w", err)
	}

	return decodeRow(episodeID, products, media)
}

// List returns every stored result ordered by episode id.
func (r *SQLRepository) List(ctx context.Context) ([]domain.EpisodeResult, error) {
	query, args, err := r.builder.
		Select("episode_id", "products", "media").
		From(resultsTable).
		OrderBy("episode_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}

	results := make([]domain.EpisodeResult, 0)
	for rows.Next() {
		var id, products, media string
		if err := rows.Scan(&id, &products, &media); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan result: %w", err)
		}
		result, err := decodeRow(id, products, media)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		results = append(results, result)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return results, nil
}

func decodeRow(id, products, media string) (domain.EpisodeResult, error) {
	result := domain.EpisodeResult{EpisodeID: id}
	if err := json.Unmarshal([]byte(products), &result.Products); err != nil {
		return domain.EpisodeResult{}, fmt.Errorf("decode products of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(media), &result.Media); err != nil {
		return domain.EpisodeResult{}, fmt.Errorf("decode media of %s: %w", id, err)
	}
	result.Normalize()
	return result, nil
}
