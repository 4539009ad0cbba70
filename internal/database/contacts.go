package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"identity-service/internal/models"
	"identity-service/internal/repository"
)

// ErrNotFound is returned when a write targets a missing or deleted contact.
var ErrNotFound = errors.New("contact not found")

const contactColumns = `id, phone_number, email, linked_id, link_precedence, created_at, updated_at, deleted_at`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// contactStore implements repository.ContactRepository over a querier.
type contactStore struct {
	q   querier
	now func() time.Time
}

var (
	_ repository.ContactRepository = (*contactStore)(nil)
	_ repository.Store             = (*DB)(nil)
)

func (db *DB) contacts() *contactStore {
	return &contactStore{q: db.Conn, now: db.now}
}

func (db *DB) FindByEmailOrPhone(ctx context.Context, email, phoneNumber *string) ([]*models.Contact, error) {
	return db.contacts().FindByEmailOrPhone(ctx, email, phoneNumber)
}

func (db *DB) FindClusterByPrimaryIDs(ctx context.Context, ids []int64) ([]*models.Contact, error) {
	return db.contacts().FindClusterByPrimaryIDs(ctx, ids)
}

func (db *DB) FindByID(ctx context.Context, id int64) (*models.Contact, error) {
	return db.contacts().FindByID(ctx, id)
}

func (db *DB) Create(ctx context.Context, c models.NewContact) (*models.Contact, error) {
	return db.contacts().Create(ctx, c)
}

func (db *DB) Update(ctx context.Context, id int64, u models.ContactUpdate) (*models.Contact, error) {
	return db.contacts().Update(ctx, id, u)
}

// FindByEmailOrPhone queries live contacts by email or phone number
func (s *contactStore) FindByEmailOrPhone(ctx context.Context, email, phoneNumber *string) ([]*models.Contact, error) {
	var conds []string
	var args []any
	if email != nil {
		args = append(args, *email)
		conds = append(conds, fmt.Sprintf("email = $%d", len(args)))
	}
	if phoneNumber != nil {
		args = append(args, *phoneNumber)
		conds = append(conds, fmt.Sprintf("phone_number = $%d", len(args)))
	}
	if len(conds) == 0 {
		return nil, repository.ErrNoEmailOrPhone
	}

	query := `SELECT ` + contactColumns + ` FROM contacts
			  WHERE deleted_at IS NULL AND (` + strings.Join(conds, " OR ") + `)
			  ORDER BY id`
	return s.queryContacts(ctx, query, args...)
}

// FindClusterByPrimaryIDs queries the primaries in ids and everything linked to them
func (s *contactStore) FindClusterByPrimaryIDs(ctx context.Context, ids []int64) ([]*models.Contact, error) {
	if len(ids) == 0 {
		return []*models.Contact{}, nil
	}

	args := make([]any, 0, 2*len(ids))
	idList := placeholders(len(ids), 1)
	linkedList := placeholders(len(ids), len(ids)+1)
	for range 2 {
		for _, id := range ids {
			args = append(args, id)
		}
	}

	query := `SELECT ` + contactColumns + ` FROM contacts
			  WHERE deleted_at IS NULL AND (id IN (` + idList + `) OR linked_id IN (` + linkedList + `))
			  ORDER BY id`
	return s.queryContacts(ctx, query, args...)
}

// FindByID returns a live contact or nil
func (s *contactStore) FindByID(ctx context.Context, id int64) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND deleted_at IS NULL`
	contacts, err := s.queryContacts(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return contacts[0], nil
}

// Create inserts a contact and reads it back
func (s *contactStore) Create(ctx context.Context, c models.NewContact) (*models.Contact, error) {
	if c.Email == nil && c.PhoneNumber == nil {
		return nil, repository.ErrNoEmailOrPhone
	}

	query := `INSERT INTO contacts (phone_number, email, linked_id, link_precedence, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	now := s.now()
	var id int64
	err := s.q.QueryRowContext(ctx, query,
		nullString(c.PhoneNumber), nullString(c.Email), nullInt64(c.LinkedID),
		string(c.LinkPrecedence), now, now,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert contact: %w", err)
	}

	return s.mustFind(ctx, id)
}

// Update changes a contact's link fields and bumps updated_at
func (s *contactStore) Update(ctx context.Context, id int64, u models.ContactUpdate) (*models.Contact, error) {
	sets := []string{}
	args := []any{}
	if u.LinkedID != nil {
		args = append(args, *u.LinkedID)
		sets = append(sets, fmt.Sprintf("linked_id = $%d", len(args)))
	}
	if u.LinkPrecedence != nil {
		args = append(args, string(*u.LinkPrecedence))
		sets = append(sets, fmt.Sprintf("link_precedence = $%d", len(args)))
	}
	args = append(args, s.now())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE contacts SET %s WHERE id = $%d AND deleted_at IS NULL`,
		strings.Join(sets, ", "), len(args))
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("contact %d: %w", id, ErrNotFound)
	}

	return s.mustFind(ctx, id)
}

func (s *contactStore) mustFind(ctx context.Context, id int64) (*models.Contact, error) {
	c, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("contact %d after write: %w", id, ErrNotFound)
	}
	return c, nil
}

// queryContacts executes a query and returns contacts
func (s *contactStore) queryContacts(ctx context.Context, query string, args ...any) ([]*models.Contact, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []*models.Contact{}
	for rows.Next() {
		c := &models.Contact{}
		var phone, email, precedence sql.NullString
		var linkedID sql.NullInt64
		var deletedAt sql.NullTime

		err := rows.Scan(&c.ID, &phone, &email, &linkedID, &precedence, &c.CreatedAt, &c.UpdatedAt, &deletedAt)
		if err != nil {
			return nil, err
		}

		if phone.Valid {
			c.PhoneNumber = &phone.String
		}
		if email.Valid {
			c.Email = &email.String
		}
		if linkedID.Valid {
			c.LinkedID = &linkedID.Int64
		}
		if deletedAt.Valid {
			c.DeletedAt = &deletedAt.Time
		}
		c.LinkPrecedence = models.LinkPrecedence(precedence.String)

		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

// placeholders renders n positional parameters starting at $start.
func placeholders(n, start int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
