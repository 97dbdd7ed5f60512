// Package store persists clients and their extracted certificate data
// in sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"csf.practicafiscal.mx/internal/extractor"
)

// ErrNotFound is returned when a client id does not exist.
var ErrNotFound = errors.New("client not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS clients (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	taxpayer_id TEXT NOT NULL DEFAULT '',
	personal_id TEXT NOT NULL DEFAULT '',
	validation_id TEXT NOT NULL DEFAULT '',
	given_names TEXT NOT NULL DEFAULT '',
	first_surname TEXT NOT NULL DEFAULT '',
	second_surname TEXT NOT NULL DEFAULT '',
	registration_status TEXT NOT NULL DEFAULT '',
	operations_start_date TEXT NOT NULL DEFAULT '',
	last_status_change_date TEXT NOT NULL DEFAULT '',
	postal_code TEXT NOT NULL DEFAULT '',
	street_type TEXT NOT NULL DEFAULT '',
	street_name TEXT NOT NULL DEFAULT '',
	exterior_number TEXT NOT NULL DEFAULT '',
	interior_number TEXT NOT NULL DEFAULT '',
	neighborhood TEXT NOT NULL DEFAULT '',
	locality TEXT NOT NULL DEFAULT '',
	municipality TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT '',
	cross_streets TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_taxpayer_id
	ON clients(taxpayer_id) WHERE taxpayer_id <> '';

CREATE TABLE IF NOT EXISTS client_activities (
	client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	ord INTEGER NOT NULL,
	description TEXT NOT NULL,
	percentage INTEGER NOT NULL,
	start_date TEXT NOT NULL DEFAULT '',
	end_date TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (client_id, position)
);

CREATE TABLE IF NOT EXISTS client_regimes (
	client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	start_date TEXT NOT NULL DEFAULT '',
	end_date TEXT NOT NULL DEFAULT '',
	is_default INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (client_id, position)
);

CREATE TABLE IF NOT EXISTS client_obligations (
	client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	description TEXT NOT NULL,
	due_description TEXT NOT NULL DEFAULT '',
	start_date TEXT NOT NULL DEFAULT '',
	end_date TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (client_id, position)
);
`

// Client represents a stored client with the certificate data merged so
// far. Sequence fields keep document order.
type Client struct {
	ID        string           `json:"id"`
	Name      string           `json:"name,omitempty"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
	Data      extractor.Result `json:"data"`
}

// Store handles client persistence.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at path. Foreign
// keys are enabled per connection; sqlite ships with them off.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Store{db: db}, nil
}

// Init creates the schema when it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for maintenance commands.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateClient creates a new client record. The taxpayer id may be
// empty; a later merge fills it in from the first certificate. The name
// is the practice's own label for the client, independent of the
// certificate's name fields.
func (s *Store) CreateClient(ctx context.Context, name, taxpayerID string) (Client, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, taxpayer_id) VALUES (?, ?, ?)`,
		id, name, taxpayerID)
	if err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	return s.GetClient(ctx, id)
}

// GetClient returns one client with its activity, regime and obligation
// sequences in document order.
func (s *Store) GetClient(ctx context.Context, id string) (Client, error) {
	var (
		c    Client
		addr extractor.Address
	)
	c.ID = id
	err := s.db.QueryRowContext(ctx, `
		SELECT name, taxpayer_id, personal_id, validation_id,
			given_names, first_surname, second_surname,
			registration_status, operations_start_date, last_status_change_date,
			postal_code, street_type, street_name, exterior_number, interior_number,
			neighborhood, locality, municipality, state, cross_streets,
			created_at, updated_at
		FROM clients WHERE id = ?`, id).Scan(
		&c.Name, &c.Data.TaxpayerID, &c.Data.PersonalID, &c.Data.ValidationID,
		&c.Data.GivenNames, &c.Data.FirstSurname, &c.Data.SecondSurname,
		&c.Data.RegistrationStatus, &c.Data.OperationsStartDate, &c.Data.LastStatusChangeDate,
		&addr.PostalCode, &addr.StreetType, &addr.StreetName, &addr.ExteriorNumber, &addr.InteriorNumber,
		&addr.Neighborhood, &addr.Locality, &addr.Municipality, &addr.State, &addr.CrossStreets,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	if err != nil {
		return Client{}, fmt.Errorf("get client: %w", err)
	}
	if addr != (extractor.Address{}) {
		c.Data.Address = &addr
	}

	if err := s.loadSequences(ctx, &c); err != nil {
		return Client{}, err
	}
	return c, nil
}

// GetClientByTaxpayerID looks a client up by its taxpayer id.
func (s *Store) GetClientByTaxpayerID(ctx context.Context, taxpayerID string) (Client, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM clients WHERE taxpayer_id = ?`, taxpayerID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	if err != nil {
		return Client{}, fmt.Errorf("get client by taxpayer id: %w", err)
	}
	return s.GetClient(ctx, id)
}

// ListClients returns all clients without their sequences, newest
// first.
func (s *Store) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, taxpayer_id, given_names, first_surname, second_surname,
			registration_status, created_at, updated_at
		FROM clients ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Data.TaxpayerID,
			&c.Data.GivenNames, &c.Data.FirstSurname, &c.Data.SecondSurname,
			&c.Data.RegistrationStatus, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list clients: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteClient removes a client and (by cascade) its sequences.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MergeExtraction merges one certificate's extraction into a client.
// Present extracted values overwrite the stored ones, absent values
// leave them alone, except the taxpayer id: once set it is never
// changed (the consistency gate runs before this is called). The three
// sequences are wholesale-replaced in document order whenever the
// certificate yielded a non-empty one. defaultRegime marks the regime
// at that index as the client's default; pass a negative index to mark
// none.
func (s *Store) MergeExtraction(ctx context.Context, id string, data extractor.Result, defaultRegime int) (Client, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Client{}, fmt.Errorf("merge: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clients WHERE id = ?`, id).Scan(&exists); err != nil {
		return Client{}, fmt.Errorf("merge: %w", err)
	}
	if exists == 0 {
		return Client{}, ErrNotFound
	}

	scalars := []struct {
		column string
		value  string
	}{
		{"personal_id", data.PersonalID},
		{"validation_id", data.ValidationID},
		{"given_names", data.GivenNames},
		{"first_surname", data.FirstSurname},
		{"second_surname", data.SecondSurname},
		{"registration_status", data.RegistrationStatus},
		{"operations_start_date", data.OperationsStartDate},
		{"last_status_change_date", data.LastStatusChangeDate},
	}
	if addr := data.Address; addr != nil {
		scalars = append(scalars, []struct {
			column string
			value  string
		}{
			{"postal_code", addr.PostalCode},
			{"street_type", addr.StreetType},
			{"street_name", addr.StreetName},
			{"exterior_number", addr.ExteriorNumber},
			{"interior_number", addr.InteriorNumber},
			{"neighborhood", addr.Neighborhood},
			{"locality", addr.Locality},
			{"municipality", addr.Municipality},
			{"state", addr.State},
			{"cross_streets", addr.CrossStreets},
		}...)
	}
	for _, f := range scalars {
		if f.value == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE clients SET %s = ? WHERE id = ?`, f.column),
			f.value, id); err != nil {
			return Client{}, fmt.Errorf("merge %s: %w", f.column, err)
		}
	}

	// The taxpayer id only fills a blank, never replaces.
	if data.TaxpayerID != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE clients SET taxpayer_id = ? WHERE id = ? AND taxpayer_id = ''`,
			data.TaxpayerID, id); err != nil {
			return Client{}, fmt.Errorf("merge taxpayer_id: %w", err)
		}
	}

	if len(data.Activities) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM client_activities WHERE client_id = ?`, id); err != nil {
			return Client{}, fmt.Errorf("merge activities: %w", err)
		}
		for i, a := range data.Activities {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO client_activities
					(client_id, position, ord, description, percentage, start_date, end_date)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				id, i, a.Order, a.Description, a.Percentage, a.StartDate, a.EndDate); err != nil {
				return Client{}, fmt.Errorf("merge activities: %w", err)
			}
		}
	}

	if len(data.Regimes) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM client_regimes WHERE client_id = ?`, id); err != nil {
			return Client{}, fmt.Errorf("merge regimes: %w", err)
		}
		for i, r := range data.Regimes {
			isDefault := 0
			if i == defaultRegime {
				isDefault = 1
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO client_regimes
					(client_id, position, name, start_date, end_date, is_default)
				VALUES (?, ?, ?, ?, ?, ?)`,
				id, i, r.Name, r.StartDate, r.EndDate, isDefault); err != nil {
				return Client{}, fmt.Errorf("merge regimes: %w", err)
			}
		}
	}

	if len(data.Obligations) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM client_obligations WHERE client_id = ?`, id); err != nil {
			return Client{}, fmt.Errorf("merge obligations: %w", err)
		}
		for i, o := range data.Obligations {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO client_obligations
					(client_id, position, description, due_description, start_date, end_date)
				VALUES (?, ?, ?, ?, ?, ?)`,
				id, i, o.Description, o.DueDescription, o.StartDate, o.EndDate); err != nil {
				return Client{}, fmt.Errorf("merge obligations: %w", err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE clients SET updated_at = datetime('now') WHERE id = ?`, id); err != nil {
		return Client{}, fmt.Errorf("merge timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Client{}, fmt.Errorf("merge commit: %w", err)
	}
	return s.GetClient(ctx, id)
}

func (s *Store) loadSequences(ctx context.Context, c *Client) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ord, description, percentage, start_date, end_date
		FROM client_activities WHERE client_id = ? ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("load activities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a extractor.Activity
		if err := rows.Scan(&a.Order, &a.Description, &a.Percentage, &a.StartDate, &a.EndDate); err != nil {
			return fmt.Errorf("load activities: %w", err)
		}
		c.Data.Activities = append(c.Data.Activities, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load activities: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT name, start_date, end_date, is_default
		FROM client_regimes WHERE client_id = ? ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("load regimes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r extractor.Regime
		if err := rows.Scan(&r.Name, &r.StartDate, &r.EndDate, &r.IsDefault); err != nil {
			return fmt.Errorf("load regimes: %w", err)
		}
		c.Data.Regimes = append(c.Data.Regimes, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load regimes: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT description, due_description, start_date, end_date
		FROM client_obligations WHERE client_id = ? ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("load obligations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var o extractor.Obligation
		if err := rows.Scan(&o.Description, &o.DueDescription, &o.StartDate, &o.EndDate); err != nil {
			return fmt.Errorf("load obligations: %w", err)
		}
		c.Data.Obligations = append(c.Data.Obligations, o)
	}
	return rows.Err()
}
