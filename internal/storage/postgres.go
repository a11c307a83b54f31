package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/clientdesk/internal/model"
)

// PostgresStore implements ClientStore on top of sqlx.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ ClientStore = (*PostgresStore)(nil)

// Create inserts the client and its dependent rows in one transaction.
func (s *PostgresStore) Create(ctx context.Context, phones []string, comment string, photoURLs []string, encodings [][]float64) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("create client: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if strings.TrimSpace(comment) == "" {
		comment = model.CommentPlaceholder
	}

	var id int64
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO clients (comment) VALUES ($1) RETURNING id`, comment,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("create client: insert: %w", err)
	}

	for _, p := range phones {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO phones (client_id, phone) VALUES ($1, $2)`, id, p,
		); err != nil {
			return 0, fmt.Errorf("create client: insert phone: %w", err)
		}
	}
	for _, u := range photoURLs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO photos (client_id, url) VALUES ($1, $2)`, id, u,
		); err != nil {
			return 0, fmt.Errorf("create client: insert photo: %w", err)
		}
	}
	for i, enc := range encodings {
		photoURL := sql.NullString{}
		if i < len(photoURLs) {
			photoURL = sql.NullString{String: photoURLs[i], Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO faces (client_id, encoding, photo_url) VALUES ($1, $2, $3)`,
			id, pq.Array(enc), photoURL,
		); err != nil {
			return 0, fmt.Errorf("create client: insert encoding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("create client: commit: %w", err)
	}
	return id, nil
}

// GetByID assembles the full client record.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*model.Client, error) {
	c := &model.Client{ID: id}
	if err := s.db.GetContext(ctx, &c.Comment,
		`SELECT comment FROM clients WHERE id = $1`, id,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get client %d: %w", id, err)
	}
	if err := s.db.SelectContext(ctx, &c.Phones,
		`SELECT phone FROM phones WHERE client_id = $1 ORDER BY id`, id,
	); err != nil {
		return nil, fmt.Errorf("get client %d phones: %w", id, err)
	}
	if err := s.db.SelectContext(ctx, &c.Photos,
		`SELECT url FROM photos WHERE client_id = $1 ORDER BY id`, id,
	); err != nil {
		return nil, fmt.Errorf("get client %d photos: %w", id, err)
	}
	return c, nil
}

// IDByPhone looks up the exact normalized phone.
func (s *PostgresStore) IDByPhone(ctx context.Context, normalized string) (int64, bool, error) {
	var id int64
	err := s.db.GetContext(ctx, &id,
		`SELECT client_id FROM phones WHERE phone = $1 ORDER BY id LIMIT 1`, normalized,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup phone: %w", err)
	}
	return id, true, nil
}

// AddPhone appends a phone row.
func (s *PostgresStore) AddPhone(ctx context.Context, id int64, normalized string) error {
	if err := s.requireClient(ctx, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO phones (client_id, phone) VALUES ($1, $2)`, id, normalized,
	); err != nil {
		return fmt.Errorf("add phone to client %d: %w", id, err)
	}
	return nil
}

// AddPhoto appends a photo reference.
func (s *PostgresStore) AddPhoto(ctx context.Context, id int64, url string) error {
	if err := s.requireClient(ctx, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO photos (client_id, url) VALUES ($1, $2)`, id, url,
	); err != nil {
		return fmt.Errorf("add photo to client %d: %w", id, err)
	}
	return nil
}

// AddEncoding appends a face encoding row.
func (s *PostgresStore) AddEncoding(ctx context.Context, enc model.FaceEncoding) error {
	if err := s.requireClient(ctx, enc.ClientID); err != nil {
		return err
	}
	photoURL := sql.NullString{}
	if enc.PhotoURL != "" {
		photoURL = sql.NullString{String: enc.PhotoURL, Valid: true}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO faces (client_id, encoding, photo_url) VALUES ($1, $2, $3)`,
		enc.ClientID, pq.Array(enc.Vector), photoURL,
	); err != nil {
		return fmt.Errorf("add encoding to client %d: %w", enc.ClientID, err)
	}
	return nil
}

// UpdateComment replaces the comment.
func (s *PostgresStore) UpdateComment(ctx context.Context, id int64, comment string) error {
	if strings.TrimSpace(comment) == "" {
		comment = model.CommentPlaceholder
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE clients SET comment = $1 WHERE id = $2`, comment, id,
	)
	if err != nil {
		return fmt.Errorf("update comment of client %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update comment of client %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the client; dependent rows go via ON DELETE CASCADE.
func (s *PostgresStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete client %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete client %d: %w", id, err)
	}
	return affected > 0, nil
}

// Search applies the three OR-ed predicates in SQL and loads full records in
// id order. Phone predicates are skipped for queries whose digit form is
// degenerate (see QueryTerms).
func (s *PostgresStore) Search(ctx context.Context, query string) ([]*model.Client, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	conditions := []string{`c.comment ILIKE '%' || $1 || '%'`}
	args := []any{query}

	digits, suffix := QueryTerms(query)
	if digits != "" {
		args = append(args, digits)
		conditions = append(conditions, fmt.Sprintf(`replace(p.phone, '+', '') LIKE '%%' || $%d || '%%'`, len(args)))
	}
	if suffix != "" {
		args = append(args, suffix)
		conditions = append(conditions, fmt.Sprintf(`replace(p.phone, '+', '') LIKE '%%' || $%d`, len(args)))
	}

	sqlText := fmt.Sprintf(`
		SELECT DISTINCT c.id
		FROM clients c
		LEFT JOIN phones p ON p.client_id = c.id
		WHERE %s
		ORDER BY c.id`, strings.Join(conditions, " OR "))

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, sqlText, args...); err != nil {
		return nil, fmt.Errorf("search clients: %w", err)
	}

	out := make([]*model.Client, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// AllEncodings loads every stored face encoding in storage order.
func (s *PostgresStore) AllEncodings(ctx context.Context) ([]model.FaceEncoding, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT client_id, encoding, COALESCE(photo_url, '') FROM faces ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("load encodings: %w", err)
	}
	defer rows.Close()

	var out []model.FaceEncoding
	for rows.Next() {
		var enc model.FaceEncoding
		var vec pq.Float64Array
		if err := rows.Scan(&enc.ClientID, &vec, &enc.PhotoURL); err != nil {
			return nil, fmt.Errorf("scan encoding: %w", err)
		}
		enc.Vector = []float64(vec)
		out = append(out, enc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load encodings: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) requireClient(ctx context.Context, id int64) error {
	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, id,
	); err != nil {
		return fmt.Errorf("check client %d: %w", id, err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}
