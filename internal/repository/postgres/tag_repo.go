package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rfidtags/internal/domain"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

const tagColumns = `id, epc, status, parent_tag_id, current_location_id, rssi, count, device_id, session_id, location, reader_id, "timestamp", created_at, updated_at`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type tagRepository struct {
	q querier
}

type tagStore struct {
	*tagRepository
	DB *sql.DB
}

// NewTagStore returns a domain.TagStore implemented with Postgres.
func NewTagStore(db *sql.DB) domain.TagStore {
	return &tagStore{
		tagRepository: &tagRepository{q: db},
		DB:            db,
	}
}

func (s *tagStore) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *tagStore) WithTx(ctx context.Context, fn func(tx domain.TagTx) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", domain.ErrStoreUnavailable, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(&tagTx{tagRepository: &tagRepository{q: tx}}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

type tagTx struct {
	*tagRepository
}

func (t *tagTx) Savepoint(ctx context.Context, fn func() error) error {
	if _, err := t.q.ExecContext(ctx, `SAVEPOINT tag_item`); err != nil {
		return fmt.Errorf("%w: savepoint: %w", domain.ErrStoreUnavailable, err)
	}
	if err := fn(); err != nil {
		if _, rbErr := t.q.ExecContext(ctx, `ROLLBACK TO SAVEPOINT tag_item`); rbErr != nil {
			return fmt.Errorf("%w: rollback to savepoint: %w", domain.ErrStoreUnavailable, rbErr)
		}
		return err
	}
	if _, err := t.q.ExecContext(ctx, `RELEASE SAVEPOINT tag_item`); err != nil {
		return fmt.Errorf("%w: release savepoint: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTag(s scanner) (*domain.Tag, error) {
	t := &domain.Tag{}
	var status string
	var parentNull, locationIDNull sql.NullInt64
	var rssiNull, deviceNull, sessionNull, locationNull, readerNull sql.NullString
	err := s.Scan(
		&t.ID, &t.EPC, &status, &parentNull, &locationIDNull, &rssiNull, &t.Count,
		&deviceNull, &sessionNull, &locationNull, &readerNull, &t.Timestamp, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.Status(status)
	if parentNull.Valid {
		t.ParentTagID = &parentNull.Int64
	}
	if locationIDNull.Valid {
		t.CurrentLocationID = &locationIDNull.Int64
	}
	if rssiNull.Valid {
		t.RSSI = &rssiNull.String
	}
	if deviceNull.Valid {
		t.DeviceID = &deviceNull.String
	}
	if sessionNull.Valid {
		t.SessionID = &sessionNull.String
	}
	if locationNull.Valid {
		t.Location = &locationNull.String
	}
	if readerNull.Valid {
		t.ReaderID = &readerNull.String
	}
	return t, nil
}

// scanOne maps sql.ErrNoRows to domain.ErrNotFound.
func scanOne(row *sql.Row) (*domain.Tag, error) {
	t, err := scanTag(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *tagRepository) FindByKey(ctx context.Context, epc string) (*domain.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM rfid_tags WHERE epc = $1`
	return scanOne(r.q.QueryRowContext(ctx, query, epc))
}

func (r *tagRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM rfid_tags WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *tagRepository) LocationExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM locations WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *tagRepository) Insert(ctx context.Context, d *domain.TagDraft) (*domain.Tag, error) {
	query := `
		INSERT INTO rfid_tags (epc, status, parent_tag_id, current_location_id, rssi, count, device_id, session_id, location, reader_id, "timestamp")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (epc) DO NOTHING
		RETURNING ` + tagColumns
	row := r.q.QueryRowContext(ctx, query,
		d.EPC, string(d.Status), d.ParentTagID, d.CurrentLocationID, d.RSSI, d.Count,
		d.DeviceID, d.SessionID, d.Location, d.ReaderID, d.Timestamp,
	)
	t, err := scanTag(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// ON CONFLICT DO NOTHING returns no row when the epc already exists.
			return nil, domain.ErrDuplicateKey
		}
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == uniqueViolation {
			return nil, domain.ErrDuplicateKey
		}
		return nil, err
	}
	return t, nil
}

func (r *tagRepository) UpdateByKey(ctx context.Context, epc string, u domain.TagUpdate) (*domain.Tag, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	add := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if u.Status.Set && !u.Status.Null {
		add("status", string(u.Status.Value))
	}
	if u.Location.Set {
		add("location", nullable(u.Location))
	}
	if u.ReaderID.Set {
		add("reader_id", nullable(u.ReaderID))
	}
	if u.RSSI.Set {
		add("rssi", nullable(u.RSSI))
	}
	if u.Count.Set && !u.Count.Null {
		add("count", u.Count.Value)
	}
	if u.DeviceID.Set {
		add("device_id", nullable(u.DeviceID))
	}
	if u.SessionID.Set {
		add("session_id", nullable(u.SessionID))
	}
	if u.ParentTagID.Set {
		add("parent_tag_id", nullable(u.ParentTagID))
	}
	if u.CurrentLocationID.Set {
		add("current_location_id", nullable(u.CurrentLocationID))
	}
	args = append(args, epc)
	query := fmt.Sprintf(`
		UPDATE rfid_tags SET %s
		WHERE epc = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, tagColumns)
	return scanOne(r.q.QueryRowContext(ctx, query, args...))
}

// nullable returns nil for a null Optional so the column is cleared.
func nullable[T any](o domain.Optional[T]) any {
	if o.Null {
		return nil
	}
	return o.Value
}

func (r *tagRepository) DeleteByKey(ctx context.Context, epc string) (*domain.Tag, error) {
	query := `DELETE FROM rfid_tags WHERE epc = $1 RETURNING ` + tagColumns
	return scanOne(r.q.QueryRowContext(ctx, query, epc))
}

func (r *tagRepository) DeleteByID(ctx context.Context, id int64) (*domain.Tag, error) {
	query := `DELETE FROM rfid_tags WHERE id = $1 RETURNING ` + tagColumns
	return scanOne(r.q.QueryRowContext(ctx, query, id))
}

func (r *tagRepository) Count(ctx context.Context, status domain.Status) (int, error) {
	var total int
	var err error
	if status == "" {
		err = r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM rfid_tags`).Scan(&total)
	} else {
		err = r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM rfid_tags WHERE status = $1`, string(status)).Scan(&total)
	}
	return total, err
}

func (r *tagRepository) List(ctx context.Context, f domain.TagFilter) ([]*domain.Tag, error) {
	f = f.Normalized()
	query := `SELECT ` + tagColumns + ` FROM rfid_tags`
	args := []any{}
	if f.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(f.Status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tags := make([]*domain.Tag, 0)
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
