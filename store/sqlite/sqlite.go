/*
Package sqlite provides the SQLite-backed implementation of store.Store.

PURPOSE:
  Persists the franchise network's administrative data (users, franchises,
  monthly goal documents, activity events, client portfolios). In production
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  users:      Identity + profile records (superadmin/franqueado/agente)
  franchises: Network units
  goals:      One row per franchise+month; params and the per-agent
              distribution stored as JSON snapshots
  activities: Append-only event log (no UPDATE, no DELETE)
  clients:    Agent portfolios with operational activation/TPV fields

APPEND-ONLY ENFORCEMENT:
  The activities table takes inserts only. A duplicate ID maps to
  store.ErrDuplicateID so retried submissions stay idempotent.

DECIMAL STORAGE:
  All monetary and metric values are stored as decimal strings and
  re-parsed on read. No floats touch the database.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  st, err := sqlite.New("./data/rv.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - store/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/vendaforte/rv-engine/engine"
	"github.com/vendaforte/rv-engine/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.Store = (*Store)(nil)

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Users (superadmin / franqueado / agente)
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT NOT NULL,
		franchise_id TEXT NOT NULL DEFAULT '',
		hire_date TEXT,
		status TEXT NOT NULL DEFAULT 'ativo',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_franchise_role
		ON users(franchise_id, role);

	-- Franchises
	CREATE TABLE IF NOT EXISTS franchises (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Goal documents: one per franchise+month. Params and the per-agent
	-- distribution are JSON snapshots; the month key is 'YYYY-MM'.
	CREATE TABLE IF NOT EXISTS goals (
		franchise_id TEXT NOT NULL,
		month TEXT NOT NULL,
		params_json TEXT NOT NULL,
		distribution_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (franchise_id, month)
	);

	-- Activities (append-only event log)
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		type TEXT NOT NULL,
		value TEXT NOT NULL,
		note TEXT,
		timestamp TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Hot path: monthly activity range per agent
	CREATE INDEX IF NOT EXISTS idx_activities_agent_timestamp
		ON activities(agent_id, timestamp);

	-- Clients
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		franchise_id TEXT NOT NULL,
		name TEXT NOT NULL,
		priced_tpv TEXT NOT NULL,
		transacted_tpv TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		activated_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_clients_agent
		ON clients(agent_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_clients_franchise
		ON clients(franchise_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USER STORE
// =============================================================================

// SaveUser inserts or updates a user record.
func (s *Store) SaveUser(ctx context.Context, u store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (id, name, email, role, franchise_id, hire_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			role = excluded.role,
			franchise_id = excluded.franchise_id,
			hire_date = excluded.hire_date,
			status = excluded.status
	`

	createdAt := u.CreatedAt.UTC()
	if u.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, string(u.Role), string(u.FranchiseID),
		nullTime(u.HireDate),
		u.Status,
		createdAt.Format(time.RFC3339),
	)
	return err
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		u         store.User
		role      string
		frID      string
		hireDate  sql.NullString
		createdAt string
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, role, franchise_id, hire_date, status, created_at FROM users WHERE id = ?",
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &role, &frID, &hireDate, &u.Status, &createdAt)

	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u.Role = store.Role(role)
	u.FranchiseID = engine.FranchiseID(frID)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if hireDate.Valid {
		t, _ := time.Parse(time.RFC3339, hireDate.String)
		u.HireDate = &t
	}
	return &u, nil
}

// ListAgents returns the active agents of a franchise, ordered by ID.
func (s *Store) ListAgents(ctx context.Context, franchiseID engine.FranchiseID) ([]store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, email, role, franchise_id, hire_date, status, created_at
		FROM users
		WHERE franchise_id = ? AND role = ? AND status != 'inativo'
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(franchiseID), string(store.RoleAgent))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []store.User
	for rows.Next() {
		var (
			u         store.User
			role      string
			frID      string
			hireDate  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &frID, &hireDate, &u.Status, &createdAt); err != nil {
			return nil, err
		}
		u.Role = store.Role(role)
		u.FranchiseID = engine.FranchiseID(frID)
		u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if hireDate.Valid {
			t, _ := time.Parse(time.RFC3339, hireDate.String)
			u.HireDate = &t
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// =============================================================================
// FRANCHISE STORE
// =============================================================================

// SaveFranchise inserts or updates a franchise.
func (s *Store) SaveFranchise(ctx context.Context, f store.Franchise) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO franchises (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name
	`

	createdAt := f.CreatedAt.UTC()
	if f.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		string(f.ID), f.Name, createdAt.Format(time.RFC3339))
	return err
}

// GetFranchise retrieves a franchise by ID.
func (s *Store) GetFranchise(ctx context.Context, id engine.FranchiseID) (*store.Franchise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		f         store.Franchise
		frID      string
		createdAt string
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM franchises WHERE id = ?",
		string(id),
	).Scan(&frID, &f.Name, &createdAt)

	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	f.ID = engine.FranchiseID(frID)
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &f, nil
}

// ListFranchises returns all franchises ordered by ID.
func (s *Store) ListFranchises(ctx context.Context) ([]store.Franchise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM franchises ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var franchises []store.Franchise
	for rows.Next() {
		var (
			f         store.Franchise
			frID      string
			createdAt string
		)
		if err := rows.Scan(&frID, &f.Name, &createdAt); err != nil {
			return nil, err
		}
		f.ID = engine.FranchiseID(frID)
		f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		franchises = append(franchises, f)
	}
	return franchises, rows.Err()
}

// =============================================================================
// GOAL STORE
// =============================================================================

// goalParamsRow is the JSON shape of engine.GoalParameters at rest.
// Decimals serialize as strings so nothing loses precision in transit.
type goalParamsRow struct {
	TargetActivations   string    `json:"target_activations"`
	TargetMigrationRate string    `json:"target_migration_rate"`
	TargetTPV           string    `json:"target_tpv"`
	Weights             [3]string `json:"weights"`
	Gates               [3]string `json:"gates"`
	ReferenceValue      string    `json:"reference_value"`
	FloorMonth1         string    `json:"floor_month_1"`
	FloorMonth2         string    `json:"floor_month_2"`
	FloorMonth3         string    `json:"floor_month_3"`
}

type targetsRow struct {
	Activations   string `json:"activations"`
	MigrationRate string `json:"migration_rate"`
	TransactedTPV string `json:"transacted_tpv"`
}

func encodeParams(p engine.GoalParameters) ([]byte, error) {
	row := goalParamsRow{
		TargetActivations:   p.ActivationTarget.String(),
		TargetMigrationRate: p.MigrationTarget.String(),
		TargetTPV:           p.TPVTarget.String(),
		Weights: [3]string{
			p.Weights.Activation.String(), p.Weights.Migration.String(), p.Weights.TPV.String(),
		},
		Gates: [3]string{
			p.Gates.Activation.String(), p.Gates.Migration.String(), p.Gates.TPV.String(),
		},
		ReferenceValue: p.ReferenceValue.String(),
		FloorMonth1:    p.FloorMonth1.String(),
		FloorMonth2:    p.FloorMonth2.String(),
		FloorMonth3:    p.FloorMonth3.String(),
	}
	return json.Marshal(row)
}

func decodeParams(data []byte, m engine.Month) (engine.GoalParameters, error) {
	var row goalParamsRow
	if err := json.Unmarshal(data, &row); err != nil {
		return engine.GoalParameters{}, fmt.Errorf("failed to decode goal params: %w", err)
	}

	dec := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	}

	return engine.GoalParameters{
		Month:               m,
		ActivationTarget: dec(row.TargetActivations),
		MigrationTarget:  dec(row.TargetMigrationRate),
		TPVTarget:        dec(row.TargetTPV),
		Weights: engine.PillarValues{
			Activation: dec(row.Weights[0]), Migration: dec(row.Weights[1]), TPV: dec(row.Weights[2]),
		},
		Gates: engine.PillarValues{
			Activation: dec(row.Gates[0]), Migration: dec(row.Gates[1]), TPV: dec(row.Gates[2]),
		},
		ReferenceValue: dec(row.ReferenceValue),
		FloorMonth1:    dec(row.FloorMonth1),
		FloorMonth2:    dec(row.FloorMonth2),
		FloorMonth3:    dec(row.FloorMonth3),
	}, nil
}

func encodeDistribution(dist map[engine.AgentID]engine.IndividualTargets) ([]byte, error) {
	rows := make(map[string]targetsRow, len(dist))
	for agentID, t := range dist {
		rows[string(agentID)] = targetsRow{
			Activations:   t.Activation.String(),
			MigrationRate: t.Migration.String(),
			TransactedTPV: t.TPV.String(),
		}
	}
	return json.Marshal(rows)
}

func decodeDistribution(data []byte) (map[engine.AgentID]engine.IndividualTargets, error) {
	var rows map[string]targetsRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode distribution: %w", err)
	}

	dec := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	}

	dist := make(map[engine.AgentID]engine.IndividualTargets, len(rows))
	for agentID, row := range rows {
		dist[engine.AgentID(agentID)] = engine.IndividualTargets{
			Activation: dec(row.Activations),
			Migration:  dec(row.MigrationRate),
			TPV:        dec(row.TransactedTPV),
		}
	}
	return dist, nil
}

// SaveGoalDocument inserts or replaces the month's goal document.
func (s *Store) SaveGoalDocument(ctx context.Context, doc store.GoalDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paramsJSON, err := encodeParams(doc.Params)
	if err != nil {
		return err
	}
	distJSON, err := encodeDistribution(doc.Distribution)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO goals (franchise_id, month, params_json, distribution_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(franchise_id, month) DO UPDATE SET
			params_json = excluded.params_json,
			distribution_json = excluded.distribution_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query,
		string(doc.FranchiseID), doc.Month.String(),
		string(paramsJSON), string(distJSON),
		now, now,
	)
	return err
}

// GetGoalDocument returns the month's goal document, or store.ErrNotFound.
func (s *Store) GetGoalDocument(ctx context.Context, franchiseID engine.FranchiseID, m engine.Month) (*store.GoalDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		paramsJSON string
		distJSON   string
		createdAt  string
		updatedAt  string
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT params_json, distribution_json, created_at, updated_at FROM goals WHERE franchise_id = ? AND month = ?",
		string(franchiseID), m.String(),
	).Scan(&paramsJSON, &distJSON, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	params, err := decodeParams([]byte(paramsJSON), m)
	if err != nil {
		return nil, err
	}
	dist, err := decodeDistribution([]byte(distJSON))
	if err != nil {
		return nil, err
	}

	doc := store.GoalDocument{
		FranchiseID:  franchiseID,
		Month:        m,
		Params:       params,
		Distribution: dist,
	}
	doc.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	doc.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &doc, nil
}

// =============================================================================
// ACTIVITY STORE (append-only)
// =============================================================================

// AppendActivity records an immutable event. Duplicate IDs are rejected.
func (s *Store) AppendActivity(ctx context.Context, a store.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO activities (id, agent_id, type, value, note, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	// Stored timestamps are normalized to UTC: RFC3339 strings only
	// compare chronologically when every row carries the same offset,
	// and the range bounds in ListActivities are UTC.
	_, err := s.db.ExecContext(ctx, query,
		a.ID, string(a.AgentID), string(a.Type),
		a.Value.String(), a.Note,
		a.Timestamp.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return store.ErrDuplicateID
		}
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// ListActivities returns an agent's activities with Timestamp in [from, to).
func (s *Store) ListActivities(ctx context.Context, agentID engine.AgentID, from, to time.Time) ([]store.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, agent_id, type, value, note, timestamp
		FROM activities
		WHERE agent_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(agentID),
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []store.Activity
	for rows.Next() {
		var (
			a       store.Activity
			agent   string
			atype   string
			value   string
			note    sql.NullString
			tsField string
		)
		if err := rows.Scan(&a.ID, &agent, &atype, &value, &note, &tsField); err != nil {
			return nil, err
		}
		a.AgentID = engine.AgentID(agent)
		a.Type = engine.ActivityType(atype)
		a.Value, _ = decimal.NewFromString(value)
		a.Note = note.String
		a.Timestamp, _ = time.Parse(time.RFC3339, tsField)
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// =============================================================================
// CLIENT STORE
// =============================================================================

// SaveClient inserts or updates a client record.
func (s *Store) SaveClient(ctx context.Context, c store.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO clients (id, agent_id, franchise_id, name, priced_tpv, transacted_tpv, active, created_at, activated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			priced_tpv = excluded.priced_tpv,
			transacted_tpv = excluded.transacted_tpv,
			active = excluded.active,
			activated_at = excluded.activated_at
	`

	createdAt := c.CreatedAt.UTC()
	if c.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		c.ID, string(c.AgentID), string(c.FranchiseID), c.Name,
		c.PricedTPV.String(), c.TransactedTPV.String(),
		c.Active,
		createdAt.Format(time.RFC3339),
		nullTime(c.ActivatedAt),
	)
	return err
}

// GetClient retrieves a client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (*store.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, agent_id, franchise_id, name, priced_tpv, transacted_tpv, active, created_at, activated_at
		FROM clients WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	c, err := scanClient(row.Scan)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListClientsByAgent returns an agent's whole portfolio, ordered by creation time.
func (s *Store) ListClientsByAgent(ctx context.Context, agentID engine.AgentID) ([]store.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, agent_id, franchise_id, name, priced_tpv, transacted_tpv, active, created_at, activated_at
		FROM clients
		WHERE agent_id = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(agentID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []store.Client
	for rows.Next() {
		c, err := scanClient(rows.Scan)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// ActivateClient marks a client active at the given instant.
func (s *Store) ActivateClient(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE clients SET active = TRUE, activated_at = ? WHERE id = ?",
		at.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateClientTPV records the transacted TPV collected for a client.
func (s *Store) UpdateClientTPV(ctx context.Context, id string, tpv decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE clients SET transacted_tpv = ? WHERE id = ?",
		tpv.String(), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanClient(scan func(dest ...any) error) (*store.Client, error) {
	var (
		c           store.Client
		agentID     string
		frID        string
		pricedTPV   string
		transacted  string
		createdAt   string
		activatedAt sql.NullString
	)

	err := scan(&c.ID, &agentID, &frID, &c.Name, &pricedTPV, &transacted,
		&c.Active, &createdAt, &activatedAt)
	if err != nil {
		return nil, err
	}

	c.AgentID = engine.AgentID(agentID)
	c.FranchiseID = engine.FranchiseID(frID)
	c.PricedTPV, _ = decimal.NewFromString(pricedTPV)
	c.TransactedTPV, _ = decimal.NewFromString(transacted)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if activatedAt.Valid {
		t, _ := time.Parse(time.RFC3339, activatedAt.String)
		c.ActivatedAt = &t
	}
	return &c, nil
}

// Helper functions

func nullTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
