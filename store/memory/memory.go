// Package memory provides an in-memory Store implementation (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendaforte/rv-engine/engine"
	"github.com/vendaforte/rv-engine/store"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	users      map[string]store.User
	franchises map[engine.FranchiseID]store.Franchise
	goals      map[goalKey]store.GoalDocument
	activities map[string]store.Activity
	clients    map[string]store.Client
}

type goalKey struct {
	FranchiseID engine.FranchiseID
	Month       engine.Month
}

func New() *Memory {
	return &Memory{
		users:      make(map[string]store.User),
		franchises: make(map[engine.FranchiseID]store.Franchise),
		goals:      make(map[goalKey]store.GoalDocument),
		activities: make(map[string]store.Activity),
		clients:    make(map[string]store.Client),
	}
}

var _ store.Store = (*Memory)(nil)

// =============================================================================
// USERS
// =============================================================================

func (m *Memory) SaveUser(_ context.Context, u store.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*store.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) ListAgents(_ context.Context, franchiseID engine.FranchiseID) ([]store.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.User
	for _, u := range m.users {
		if u.Role == store.RoleAgent && u.FranchiseID == franchiseID && u.Status != "inativo" {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// FRANCHISES
// =============================================================================

func (m *Memory) SaveFranchise(_ context.Context, f store.Franchise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.franchises[f.ID] = f
	return nil
}

func (m *Memory) GetFranchise(_ context.Context, id engine.FranchiseID) (*store.Franchise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.franchises[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &f, nil
}

func (m *Memory) ListFranchises(_ context.Context) ([]store.Franchise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]store.Franchise, 0, len(m.franchises))
	for _, f := range m.franchises {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// GOALS
// =============================================================================

func (m *Memory) SaveGoalDocument(_ context.Context, doc store.GoalDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Deep-copy the distribution so later caller mutations don't leak
	// into the stored snapshot.
	dist := make(map[engine.AgentID]engine.IndividualTargets, len(doc.Distribution))
	for k, v := range doc.Distribution {
		dist[k] = v
	}
	doc.Distribution = dist

	m.goals[goalKey{doc.FranchiseID, doc.Month}] = doc
	return nil
}

func (m *Memory) GetGoalDocument(_ context.Context, franchiseID engine.FranchiseID, mo engine.Month) (*store.GoalDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.goals[goalKey{franchiseID, mo}]
	if !ok {
		return nil, store.ErrNotFound
	}
	dist := make(map[engine.AgentID]engine.IndividualTargets, len(doc.Distribution))
	for k, v := range doc.Distribution {
		dist[k] = v
	}
	doc.Distribution = dist
	return &doc, nil
}

// =============================================================================
// ACTIVITIES (append-only)
// =============================================================================

func (m *Memory) AppendActivity(_ context.Context, a store.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.activities[a.ID]; exists {
		return store.ErrDuplicateID
	}
	m.activities[a.ID] = a
	return nil
}

func (m *Memory) ListActivities(_ context.Context, agentID engine.AgentID, from, to time.Time) ([]store.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.Activity
	for _, a := range m.activities {
		if a.AgentID != agentID {
			continue
		}
		if a.Timestamp.Before(from) || !a.Timestamp.Before(to) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// =============================================================================
// CLIENTS
// =============================================================================

func (m *Memory) SaveClient(_ context.Context, c store.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
	return nil
}

func (m *Memory) GetClient(_ context.Context, id string) (*store.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (m *Memory) ListClientsByAgent(_ context.Context, agentID engine.AgentID) ([]store.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.Client
	for _, c := range m.clients {
		if c.AgentID == agentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ActivateClient(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Active = true
	c.ActivatedAt = &at
	m.clients[id] = c
	return nil
}

func (m *Memory) UpdateClientTPV(_ context.Context, id string, tpv decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[id]
	if !ok {
		return store.ErrNotFound
	}
	c.TransactedTPV = tpv
	m.clients[id] = c
	return nil
}
