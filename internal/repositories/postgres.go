package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/diasporalink/backend/internal/db"
	"github.com/diasporalink/backend/internal/models"
)

const registrationColumns = `id, name, email, whatsapp, country_of_origin, country_of_residence,
        latitude, longitude, client_ip, client_country, status, submitted_at, updated_at`

// PostgresRegistrationRepository provides PostgreSQL-backed persistence for registrations.
type PostgresRegistrationRepository struct {
	pool db.Pool
	now  func() time.Time
}

// NewPostgresRegistrationRepository constructs a registration repository backed by PostgreSQL.
func NewPostgresRegistrationRepository(pool db.Pool) *PostgresRegistrationRepository {
	return &PostgresRegistrationRepository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Create persists a new registration record.
func (r *PostgresRegistrationRepository) Create(ctx context.Context, reg models.Registration) (models.Registration, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Registration{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var lat, lng *float64
	if reg.Location != nil {
		lat, lng = &reg.Location.Latitude, &reg.Location.Longitude
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO registrations (`+registrationColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11, $12, $13)
    `, reg.ID, reg.Name, reg.Email, reg.WhatsApp, reg.CountryOfOrigin, reg.CountryOfResidence,
		lat, lng, reg.ClientIP, reg.ClientCountry, string(reg.Status), reg.SubmittedAt, reg.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return models.Registration{}, ErrConflict
		}
		return models.Registration{}, fmt.Errorf("insert registration: %w", err)
	}

	return reg, nil
}

// List returns registrations newest first, optionally filtered by status.
func (r *PostgresRegistrationRepository) List(ctx context.Context, status models.RegistrationStatus) ([]models.Registration, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+registrationColumns+`
        FROM registrations
        WHERE $1 = '' OR status = $1
        ORDER BY submitted_at DESC
    `, string(status))
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	registrations := []models.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		registrations = append(registrations, reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}

	return registrations, nil
}

// FindByID fetches a registration by its identifier.
func (r *PostgresRegistrationRepository) FindByID(ctx context.Context, id string) (models.Registration, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Registration{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+registrationColumns+`
        FROM registrations
        WHERE id = $1
    `, id)

	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Registration{}, ErrNotFound
		}
		return models.Registration{}, fmt.Errorf("select registration: %w", err)
	}
	return reg, nil
}

// UpdateStatus records an admin decision on a registration.
func (r *PostgresRegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (models.Registration, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Registration{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE registrations
        SET status = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+registrationColumns,
		id, string(status), r.now())

	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Registration{}, ErrNotFound
		}
		return models.Registration{}, fmt.Errorf("update registration status: %w", err)
	}
	return reg, nil
}

// Delete removes a registration.
func (r *PostgresRegistrationRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanRegistration(row pgx.Row) (models.Registration, error) {
	var (
		reg           models.Registration
		lat, lng      *float64
		clientIP      *string
		clientCountry *string
	)
	if err := row.Scan(&reg.ID, &reg.Name, &reg.Email, &reg.WhatsApp, &reg.CountryOfOrigin, &reg.CountryOfResidence,
		&lat, &lng, &clientIP, &clientCountry, &reg.Status, &reg.SubmittedAt, &reg.UpdatedAt); err != nil {
		return models.Registration{}, err
	}
	if lat != nil && lng != nil {
		reg.Location = &models.GeoLocation{Latitude: *lat, Longitude: *lng}
	}
	if clientIP != nil {
		reg.ClientIP = *clientIP
	}
	if clientCountry != nil {
		reg.ClientCountry = *clientCountry
	}
	reg.SubmittedAt = reg.SubmittedAt.UTC()
	reg.UpdatedAt = reg.UpdatedAt.UTC()
	return reg, nil
}

// PostgresDocumentRepository stores one content kind as JSONB documents.
type PostgresDocumentRepository[T any, P documentPtr[T]] struct {
	pool  db.Pool
	table string
}

// NewPostgresDocumentRepository constructs a document repository over table.
// The table must have the shape created by the content migration.
func NewPostgresDocumentRepository[T any, P documentPtr[T]](pool db.Pool, table string) *PostgresDocumentRepository[T, P] {
	return &PostgresDocumentRepository[T, P]{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

// List returns every document, newest first.
func (r *PostgresDocumentRepository[T, P]) List(ctx context.Context) ([]T, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT body FROM `+r.table+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.table, err)
	}
	defer rows.Close()

	docs := []T{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		var doc T
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.table, err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", r.table, err)
	}

	return docs, nil
}

// Get fetches a document by id.
func (r *PostgresDocumentRepository[T, P]) Get(ctx context.Context, id string) (T, error) {
	var doc T
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return doc, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var body []byte
	if err := conn.QueryRow(ctx, `SELECT body FROM `+r.table+` WHERE id = $1`, id).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return doc, ErrNotFound
		}
		return doc, fmt.Errorf("select %s: %w", r.table, err)
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", r.table, err)
	}
	return doc, nil
}

// Insert stores a new document.
func (r *PostgresDocumentRepository[T, P]) Insert(ctx context.Context, doc T) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.table, err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	p := P(&doc)
	_, err = conn.Exec(ctx, `INSERT INTO `+r.table+` (id, body, created_at) VALUES ($1, $2, $3)`,
		p.DocumentID(), body, p.CreatedTime())
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert %s: %w", r.table, err)
	}
	return nil
}

// Replace overwrites an existing document.
func (r *PostgresDocumentRepository[T, P]) Replace(ctx context.Context, doc T) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.table, err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE `+r.table+` SET body = $2 WHERE id = $1`, P(&doc).DocumentID(), body)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document.
func (r *PostgresDocumentRepository[T, P]) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ RegistrationRepository = (*PostgresRegistrationRepository)(nil)
