package bags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pictor/internal/config"
)

// Store manages bag persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the bag database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "bags.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add inserts a bag record. An empty status defaults to created.
func (s *Store) Add(ctx context.Context, bag *Bag) (*Bag, error) {
	if bag == nil {
		return nil, errors.New("bag is nil")
	}
	if bag.Identifier == "" {
		return nil, errors.New("bag identifier is required")
	}
	if bag.Status == "" {
		bag.Status = StatusCreated
	}
	if _, ok := statusIndex[bag.Status]; !ok {
		return nil, fmt.Errorf("unknown status %q", bag.Status)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO bags (
            identifier, origin, local_path, derived_identifier, title,
            display_date, pdf_path, status, error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bag.Identifier,
		bag.Origin,
		nullableString(bag.LocalPath),
		nullableString(bag.DerivedIdentifier),
		nullableString(bag.Title),
		nullableString(bag.DisplayDate),
		nullableString(bag.PDFPath),
		bag.Status,
		nullableString(bag.ErrorMessage),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert bag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a bag by database identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Bag, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bagColumns+` FROM bags WHERE id = ?`, id)
	return scanOne(row, "get bag")
}

// GetByIdentifier fetches a bag by its external identifier.
func (s *Store) GetByIdentifier(ctx context.Context, identifier string) (*Bag, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bagColumns+` FROM bags WHERE identifier = ?`, identifier)
	return scanOne(row, "get bag by identifier")
}

// GetByDerivedIdentifier fetches a bag by its derived identifier.
func (s *Store) GetByDerivedIdentifier(ctx context.Context, derived string) (*Bag, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+bagColumns+` FROM bags WHERE derived_identifier = ? ORDER BY id LIMIT 1`,
		derived,
	)
	return scanOne(row, "get bag by derived identifier")
}

// Update persists changes to an existing bag.
func (s *Store) Update(ctx context.Context, bag *Bag) error {
	if bag == nil {
		return errors.New("bag is nil")
	}
	bag.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE bags
         SET identifier = ?, origin = ?, local_path = ?, derived_identifier = ?,
             title = ?, display_date = ?, pdf_path = ?, status = ?,
             error_message = ?, updated_at = ?
         WHERE id = ?`,
		bag.Identifier,
		bag.Origin,
		nullableString(bag.LocalPath),
		nullableString(bag.DerivedIdentifier),
		nullableString(bag.Title),
		nullableString(bag.DisplayDate),
		nullableString(bag.PDFPath),
		bag.Status,
		nullableString(bag.ErrorMessage),
		bag.UpdatedAt.Format(time.RFC3339Nano),
		bag.ID,
	)
	if err != nil {
		return fmt.Errorf("update bag: %w", err)
	}
	return nil
}

// NextForStatus returns the oldest bag holding the given status.
func (s *Store) NextForStatus(ctx context.Context, status Status) (*Bag, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+bagColumns+` FROM bags WHERE status = ? ORDER BY created_at, id LIMIT 1`,
		status,
	)
	return scanOne(row, "next for status")
}

// AnyWithStatus reports whether any bag currently holds the status.
func (s *Store) AnyWithStatus(ctx context.Context, status Status) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM bags WHERE status = ?`, status)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("count by status: %w", err)
	}
	return count > 0, nil
}

// List returns bags filtered by status set, or all bags when no status is
// provided, ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Bag, error) {
	query := `SELECT ` + bagColumns + ` FROM bags`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bags: %w", err)
	}
	defer rows.Close()

	var out []*Bag
	for rows.Next() {
		bag, err := scanBag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bag)
	}
	return out, rows.Err()
}

// Stats returns a count of bags grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM bags GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("bag stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// ReclaimStale rolls bags stuck in an in-progress marker longer than the
// cutoff back to the claiming stage's start status.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for marker, target := range rollbackTargets {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE bags SET status = ?, updated_at = ? WHERE status = ? AND updated_at < ?`,
			target,
			now,
			marker,
			cutoff.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return total, fmt.Errorf("reclaim stale bags: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// Remove deletes a bag by database identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bags WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete bag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const bagColumns = "id, identifier, origin, local_path, derived_identifier, title, display_date, pdf_path, status, error_message, created_at, updated_at"

func scanOne(row *sql.Row, op string) (*Bag, error) {
	bag, err := scanBag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return bag, nil
}

func scanBag(scanner interface{ Scan(dest ...any) error }) (*Bag, error) {
	var (
		id           int64
		identifier   string
		origin       string
		localPath    sql.NullString
		derived      sql.NullString
		title        sql.NullString
		displayDate  sql.NullString
		pdfPath      sql.NullString
		statusStr    string
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&id,
		&identifier,
		&origin,
		&localPath,
		&derived,
		&title,
		&displayDate,
		&pdfPath,
		&statusStr,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	bag := &Bag{
		ID:                id,
		Identifier:        identifier,
		Origin:            origin,
		LocalPath:         localPath.String,
		DerivedIdentifier: derived.String,
		Title:             title.String,
		DisplayDate:       displayDate.String,
		PDFPath:           pdfPath.String,
		Status:            Status(statusStr),
		ErrorMessage:      errorMessage.String,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		bag.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		bag.UpdatedAt = updated
	}
	return bag, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
