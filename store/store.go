/*
Package store defines the persistence interfaces for the franchise
network's administrative data.

PURPOSE:
  The compensation engine is pure; everything it consumes is loaded
  here first. This package defines the records the engine does not own
  (users, franchises, goal documents, activities, clients) and the
  interface the API layer reads point-in-time snapshots through.

SNAPSHOT CONTRACT:
  A computation reads the goal document, the activity range, and the
  client portfolio, then hands copies to the engine. The engine never
  writes. If a caller needs read consistency across those collections,
  it assembles the snapshot before invoking the engine - the engine
  itself takes no locks and retries nothing.

APPEND-ONLY ACTIVITIES:
  Activity records are immutable events: AppendActivity is the only
  write, there is no update or delete, and a duplicate ID is rejected.
  Client records are the exception - Active, ActivatedAt, and
  TransactedTPV are operational fields the agent workflows keep
  current.

IMPLEMENTATIONS:
  - store/sqlite: production persistence
  - store/memory: in-memory, for tests
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendaforte/rv-engine/engine"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateID is returned when an insert collides with an
	// existing primary key. For activities this is the append-only
	// idempotency guard.
	ErrDuplicateID = errors.New("duplicate id")
)

// =============================================================================
// RECORDS
// =============================================================================

// Role is a user's profile in the network.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleFranchisee Role = "franqueado"
	RoleAgent      Role = "agente"
)

// User is an identity + profile record. Agents carry a hire date;
// owners and superadmins don't.
type User struct {
	ID          string
	Name        string
	Email       string
	Role        Role
	FranchiseID engine.FranchiseID // empty for superadmins
	HireDate    *time.Time         // agents only
	Status      string             // "ativo" / "inativo"
	CreatedAt   time.Time
}

// Franchise is one unit of the network.
type Franchise struct {
	ID        engine.FranchiseID
	Name      string
	CreatedAt time.Time
}

// GoalDocument is a franchise's goal configuration for one calendar
// month: the engine parameters plus the per-agent target distribution.
// Treated as an immutable snapshot once a computation runs against it.
type GoalDocument struct {
	FranchiseID  engine.FranchiseID
	Month        engine.Month
	Params       engine.GoalParameters
	Distribution map[engine.AgentID]engine.IndividualTargets
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TargetsFor returns the distributed targets for an agent, or nil when
// the agent has no share of this month's goal.
func (g *GoalDocument) TargetsFor(agentID engine.AgentID) *engine.IndividualTargets {
	t, ok := g.Distribution[agentID]
	if !ok {
		return nil
	}
	return &t
}

// Activity wraps an engine.ActivityRecord with its storage identity.
type Activity struct {
	ID string
	engine.ActivityRecord
}

// Client wraps an engine.ClientRecord with its storage identity.
type Client struct {
	ID string
	engine.ClientRecord
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the full persistence surface. sqlite and memory implement it.
type Store interface {
	UserStore
	FranchiseStore
	GoalStore
	ActivityStore
	ClientStore
}

type UserStore interface {
	SaveUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (*User, error)
	// ListAgents returns the active agents of a franchise, ordered by ID.
	ListAgents(ctx context.Context, franchiseID engine.FranchiseID) ([]User, error)
}

type FranchiseStore interface {
	SaveFranchise(ctx context.Context, f Franchise) error
	GetFranchise(ctx context.Context, id engine.FranchiseID) (*Franchise, error)
	ListFranchises(ctx context.Context) ([]Franchise, error)
}

type GoalStore interface {
	// SaveGoalDocument inserts or replaces the month's document.
	SaveGoalDocument(ctx context.Context, doc GoalDocument) error
	// GetGoalDocument returns nil, ErrNotFound when the month has no goals.
	GetGoalDocument(ctx context.Context, franchiseID engine.FranchiseID, m engine.Month) (*GoalDocument, error)
}

type ActivityStore interface {
	// AppendActivity records an immutable event. Duplicate IDs are
	// rejected with ErrDuplicateID. The ONLY write for activities.
	AppendActivity(ctx context.Context, a Activity) error
	// ListActivities returns an agent's activities with Timestamp in
	// [from, to), chronological.
	ListActivities(ctx context.Context, agentID engine.AgentID, from, to time.Time) ([]Activity, error)
}

type ClientStore interface {
	SaveClient(ctx context.Context, c Client) error
	GetClient(ctx context.Context, id string) (*Client, error)
	// ListClientsByAgent returns an agent's whole portfolio, ordered by
	// creation time.
	ListClientsByAgent(ctx context.Context, agentID engine.AgentID) ([]Client, error)
	// ActivateClient marks a client active at the given instant.
	ActivateClient(ctx context.Context, id string, at time.Time) error
	// UpdateClientTPV records the transacted TPV collected for a client.
	UpdateClientTPV(ctx context.Context, id string, tpv decimal.Decimal) error
}
