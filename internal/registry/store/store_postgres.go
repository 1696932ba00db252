package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"sealedreg/internal/registry/models"
	"sealedreg/pkg/platform/sentinel"
)

// Schema creates the participants table. Applied by EnsureSchema; kept as a
// single statement so integration tests and deploy tooling share it.
const Schema = `
CREATE TABLE IF NOT EXISTS participants (
	position           BIGSERIAL,
	owner              TEXT PRIMARY KEY,
	encrypted_name     BYTEA NOT NULL,
	encrypted_age      BYTEA NOT NULL,
	encrypted_contact  BYTEA NOT NULL,
	encrypted_category BYTEA NOT NULL,
	category           TEXT NOT NULL,
	submitted_at       TIMESTAMPTZ NOT NULL,
	state              TEXT NOT NULL DEFAULT 'submitted',
	decrypted_at       TIMESTAMPTZ,
	plain_name         TEXT NOT NULL DEFAULT '',
	plain_age          INT NOT NULL DEFAULT 0,
	plain_contact      TEXT NOT NULL DEFAULT ''
)`

// Postgres persists records in PostgreSQL. Insertion order is preserved by the
// position sequence.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema applies the participants schema.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure participants schema: %w", err)
	}
	return nil
}

// Exists reports whether a record for owner was ever admitted.
func (s *Postgres) Exists(ctx context.Context, owner string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE owner = $1)`, owner).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check owner exists: %w", err)
	}
	return exists, nil
}

const insertQuery = `
	INSERT INTO participants (
		owner, encrypted_name, encrypted_age, encrypted_contact, encrypted_category,
		category, submitted_at, state
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (owner) DO NOTHING
`

// Insert stores a new record, returning sentinel.ErrConflict on a duplicate owner.
func (s *Postgres) Insert(ctx context.Context, record *models.Record) error {
	res, err := s.db.ExecContext(ctx, insertQuery,
		record.Owner,
		[]byte(record.EncryptedName),
		[]byte(record.EncryptedAge),
		[]byte(record.EncryptedContact),
		[]byte(record.EncryptedCategory),
		string(record.Category),
		record.SubmittedAt,
		string(record.State),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

// InsertBatch stores all records inside one transaction; a duplicate anywhere
// rolls the whole batch back.
func (s *Postgres) InsertBatch(ctx context.Context, records []*models.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	for _, record := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO participants (
				owner, encrypted_name, encrypted_age, encrypted_contact, encrypted_category,
				category, submitted_at, state
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			record.Owner,
			[]byte(record.EncryptedName),
			[]byte(record.EncryptedAge),
			[]byte(record.EncryptedContact),
			[]byte(record.EncryptedCategory),
			string(record.Category),
			record.SubmittedAt,
			string(record.State),
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("batch insert record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}
	return nil
}

// Get returns the record for owner, or sentinel.ErrNotFound.
func (s *Postgres) Get(ctx context.Context, owner string) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT owner, encrypted_name, encrypted_age, encrypted_contact, encrypted_category,
		       category, submitted_at, state, decrypted_at, plain_name, plain_age, plain_contact
		FROM participants WHERE owner = $1`, owner)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// MarkDecrypted applies the disclosed plaintext with a conditional update so
// the Submitted→Decrypted transition happens at most once.
func (s *Postgres) MarkDecrypted(ctx context.Context, owner, plainName string, plainAge int, plainContact string, now time.Time) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE participants
		SET plain_name = $2, plain_age = $3, plain_contact = $4,
		    decrypted_at = $5, state = 'decrypted'
		WHERE owner = $1 AND state = 'submitted'
		RETURNING owner, encrypted_name, encrypted_age, encrypted_contact, encrypted_category,
		          category, submitted_at, state, decrypted_at, plain_name, plain_age, plain_contact`,
		owner, plainName, plainAge, plainContact, now)
	record, err := scanRecord(row)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mark decrypted: %w", err)
	}
	// Distinguish missing from already-decrypted.
	exists, existsErr := s.Exists(ctx, owner)
	if existsErr != nil {
		return nil, existsErr
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrInvalidState
}

// ListOwners returns registered owners in admission order.
func (s *Postgres) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT owner FROM participants ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	owners := []string{}
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	return owners, nil
}

// Count returns the number of admitted records.
func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		record      models.Record
		state       string
		category    string
		decryptedAt sql.NullTime
		encName     []byte
		encAge      []byte
		encContact  []byte
		encCategory []byte
	)
	err := row.Scan(&record.Owner, &encName, &encAge, &encContact, &encCategory,
		&category, &record.SubmittedAt, &state, &decryptedAt,
		&record.PlainName, &record.PlainAge, &record.PlainContact)
	if err != nil {
		return nil, err
	}
	record.EncryptedName = encName
	record.EncryptedAge = encAge
	record.EncryptedContact = encContact
	record.EncryptedCategory = encCategory
	record.Category = models.Category(category)
	record.State = models.State(state)
	if decryptedAt.Valid {
		t := decryptedAt.Time
		record.DecryptedAt = &t
	}
	return &record, nil
}
