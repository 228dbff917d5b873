/*
handlers.go - HTTP API handlers for the variable compensation system

PURPOSE:
  Exposes the compensation engine and the franchise admin workflows via
  REST API. Handles HTTP request/response, JSON serialization, and
  delegates to domain logic.

ENDPOINTS:
  Franchises:
    GET    /api/franchises                        List franchises
    POST   /api/franchises                        Create franchise (superadmin)
    PUT    /api/franchises/{id}/goals/{month}     Set the month's goal document
    GET    /api/franchises/{id}/goals/{month}     Read the month's goal document
    GET    /api/franchises/{id}/ranking?month=    Team rollup and ranking

  Users:
    POST   /api/users/franchisees                 Create franchise owner (superadmin)
    POST   /api/users/agents                      Create agent (franchise owner)

  Activities:
    POST   /api/activities                        Log an immutable activity event

  Clients:
    POST   /api/clients                           Credential a client
    POST   /api/clients/{id}/activate             Mark active
    PUT    /api/clients/{id}/tpv                  Record transacted TPV
    GET    /api/agents/{id}/clients               Agent portfolio

  Compensation:
    GET    /api/agents/{id}/compensation?month=   Monthly statement

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: persistence (sqlite in production, memory in tests)
  - Loc: the organization's time zone for month boundaries
  - Opts: engine options (achievement cap)

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve the acting user where a role precondition applies
  3. Assemble the point-in-time snapshot from the store
  4. Call the pure engine
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with a machine code and HTTP status:
  - 400 invalid_input:                validation failures
  - 403 forbidden:                    role precondition failed
  - 404 not_found:                    unknown record
  - 404 missing_goal_parameters:      month has no goal document
  - 404 missing_individual_targets:   agent has no distributed targets
  - 409 duplicate_id:                 activity replay
  A missing goal never degrades to a silent zero statement.

IDENTITY:
  The acting user is taken from the X-Actor-ID header and looked up in
  the user store. Deliberately simple; real authentication sits in front
  of this service.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - engine/compensation.go: The computation itself
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vendaforte/rv-engine/engine"
	"github.com/vendaforte/rv-engine/factory"
	"github.com/vendaforte/rv-engine/money"
	"github.com/vendaforte/rv-engine/store"
)

const actorHeader = "X-Actor-ID"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store store.Store
	Loc   *time.Location
	Opts  engine.Options

	goals *factory.GoalFactory
}

// NewHandler creates a new handler. loc is the organization's time zone
// convention for month boundaries.
func NewHandler(st store.Store, loc *time.Location, opts engine.Options) *Handler {
	return &Handler{
		Store: st,
		Loc:   loc,
		Opts:  opts,
		goals: factory.NewGoalFactory(),
	}
}

// actor resolves the acting user from the request header. Role checks
// happen at the call sites.
func (h *Handler) actor(r *http.Request) (*store.User, error) {
	id := r.Header.Get(actorHeader)
	if id == "" {
		return nil, errors.New("missing " + actorHeader + " header")
	}
	return h.Store.GetUser(r.Context(), id)
}

// =============================================================================
// FRANCHISE HANDLERS
// =============================================================================

// ListFranchises returns all franchises.
func (h *Handler) ListFranchises(w http.ResponseWriter, r *http.Request) {
	franchises, err := h.Store.ListFranchises(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list franchises", "", err)
		return
	}

	dtos := make([]FranchiseDTO, len(franchises))
	for i, f := range franchises {
		dtos[i] = FranchiseDTO{
			ID:        string(f.ID),
			Name:      f.Name,
			CreatedAt: f.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateFranchise creates a franchise. Superadmin only.
func (h *Handler) CreateFranchise(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, store.RoleSuperadmin) {
		return
	}

	var req CreateFranchiseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", "invalid_input", nil)
		return
	}

	f := store.Franchise{
		ID:        engine.FranchiseID(req.ID),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveFranchise(r.Context(), f); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save franchise", "", err)
		return
	}
	writeJSON(w, http.StatusCreated, FranchiseDTO{ID: req.ID, Name: req.Name})
}

// =============================================================================
// USER PROVISIONING
// =============================================================================

// CreateFranchisee provisions a franchise owner. Superadmin only.
func (h *Handler) CreateFranchisee(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, store.RoleSuperadmin) {
		return
	}

	var req CreateFranchiseeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", err)
		return
	}
	if req.ID == "" || req.Name == "" || req.FranchiseID == "" {
		writeError(w, http.StatusBadRequest, "id, name, and franchise_id are required", "invalid_input", nil)
		return
	}
	if _, err := h.Store.GetFranchise(r.Context(), engine.FranchiseID(req.FranchiseID)); err != nil {
		writeError(w, http.StatusNotFound, "Franchise not found", "not_found", err)
		return
	}

	u := store.User{
		ID:          req.ID,
		Name:        req.Name,
		Email:       req.Email,
		Role:        store.RoleFranchisee,
		FranchiseID: engine.FranchiseID(req.FranchiseID),
		Status:      "ativo",
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.SaveUser(r.Context(), u); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save user", "", err)
		return
	}
	writeJSON(w, http.StatusCreated, userDTO(u))
}

// CreateAgent provisions an agent into the caller's franchise. Franchise
// owner only; the hire date is mandatory because the floor guarantee
// ramps on it.
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireRoleUser(w, r, store.RoleFranchisee)
	if !ok {
		return
	}

	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", "invalid_input", nil)
		return
	}
	hireDate, err := time.ParseInLocation("2006-01-02", req.HireDate, h.Loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "hire_date must be YYYY-MM-DD", "invalid_input", err)
		return
	}

	u := store.User{
		ID:          req.ID,
		Name:        req.Name,
		Email:       req.Email,
		Role:        store.RoleAgent,
		FranchiseID: owner.FranchiseID,
		HireDate:    &hireDate,
		Status:      "ativo",
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.SaveUser(r.Context(), u); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save user", "", err)
		return
	}
	writeJSON(w, http.StatusCreated, userDTO(u))
}

// =============================================================================
// GOAL HANDLERS
// =============================================================================

// PutGoals stores the month's goal document for a franchise. Franchise
// owner of that franchise or superadmin.
func (h *Handler) PutGoals(w http.ResponseWriter, r *http.Request) {
	franchiseID := engine.FranchiseID(chi.URLParam(r, "id"))
	monthStr := chi.URLParam(r, "month")

	actor, err := h.actor(r)
	if err != nil {
		writeError(w, http.StatusForbidden, "Unknown acting user", "forbidden", err)
		return
	}
	if actor.Role != store.RoleSuperadmin &&
		!(actor.Role == store.RoleFranchisee && actor.FranchiseID == franchiseID) {
		writeError(w, http.StatusForbidden, "Only the franchise owner can set goals", "forbidden", nil)
		return
	}

	var gj factory.GoalJSON
	if err := json.NewDecoder(r.Body).Decode(&gj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", err)
		return
	}
	// URL wins over body for the addressing fields.
	gj.FranchiseID = string(franchiseID)
	gj.Month = monthStr

	doc, err := h.goals.FromJSON(gj)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := h.Store.SaveGoalDocument(r.Context(), *doc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save goals", "", err)
		return
	}
	writeJSON(w, http.StatusOK, h.goals.ToJSON(doc))
}

// GetGoals returns the month's goal document.
func (h *Handler) GetGoals(w http.ResponseWriter, r *http.Request) {
	franchiseID := engine.FranchiseID(chi.URLParam(r, "id"))
	m, err := engine.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM", "invalid_input", err)
		return
	}

	doc, err := h.Store.GetGoalDocument(r.Context(), franchiseID, m)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No goals defined for this month", "missing_goal_parameters", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load goals", "", err)
		return
	}
	writeJSON(w, http.StatusOK, h.goals.ToJSON(doc))
}

// =============================================================================
// ACTIVITY HANDLERS
// =============================================================================

// LogActivity appends an immutable activity event.
func (h *Handler) LogActivity(w http.ResponseWriter, r *http.Request) {
	var req LogActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", err)
		return
	}
	if req.ID == "" || req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "id and agent_id are required", "invalid_input", nil)
		return
	}

	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "timestamp must be RFC3339", "invalid_input", err)
		return
	}

	value := decimal.Zero
	if req.Value != "" {
		value, err = decimal.NewFromString(req.Value)
		if err != nil {
			writeError(w, http.StatusBadRequest, "value must be a decimal", "invalid_input", err)
			return
		}
	}

	a := store.Activity{
		ID: req.ID,
		ActivityRecord: engine.ActivityRecord{
			AgentID:   engine.AgentID(req.AgentID),
			Type:      engine.ActivityType(req.Type),
			Value:     value,
			Note:      req.Note,
			Timestamp: ts,
		},
	}
	if err := h.Store.AppendActivity(r.Context(), a); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "Activity already recorded", "duplicate_id", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to record activity", "", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": req.ID, "status": "recorded"})
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// CreateClient credentials a merchant into an agent's portfolio.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", err)
		return
	}
	if req.ID == "" || req.AgentID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id, agent_id, and name are required", "invalid_input", nil)
		return
	}

	agent, err := h.Store.GetUser(r.Context(), req.AgentID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Agent not found", "not_found", err)
		return
	}

	c := store.Client{
		ID: req.ID,
		ClientRecord: engine.ClientRecord{
			AgentID:     engine.AgentID(req.AgentID),
			FranchiseID: agent.FranchiseID,
			Name:        req.Name,
			PricedTPV:   money.Parse(req.PricedTPV),
			CreatedAt:   time.Now().UTC(),
		},
	}
	if err := h.Store.SaveClient(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save client", "", err)
		return
	}
	writeJSON(w, http.StatusCreated, clientDTO(c))
}

// ActivateClient marks a client active now.
func (h *Handler) ActivateClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.ActivateClient(r.Context(), id, time.Now().UTC()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Client not found", "not_found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to activate client", "", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": true})
}

// UpdateClientTPV records the transacted TPV collected for a client.
// Accepts pt-BR formatted amounts.
func (h *Handler) UpdateClientTPV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateClientTPVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", err)
		return
	}

	tpv := money.Parse(req.TransactedTPV)
	if err := h.Store.UpdateClientTPV(r.Context(), id, tpv); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Client not found", "not_found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update client", "", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "transacted_tpv": tpv.String()})
}

// ListAgentClients returns an agent's portfolio.
func (h *Handler) ListAgentClients(w http.ResponseWriter, r *http.Request) {
	agentID := engine.AgentID(chi.URLParam(r, "id"))
	clients, err := h.Store.ListClientsByAgent(r.Context(), agentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", "", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = clientDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// COMPENSATION HANDLERS
// =============================================================================

// GetCompensation assembles the agent's monthly snapshot and runs the
// engine. "Goals not defined" and "earned zero" come back as different
// answers: the former is a typed 404, never a zeroed statement.
func (h *Handler) GetCompensation(w http.ResponseWriter, r *http.Request) {
	agentID := engine.AgentID(chi.URLParam(r, "id"))
	m, err := engine.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM", "invalid_input", err)
		return
	}

	res, err := h.computeAgent(r, agentID, m)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, compensationDTO(agentID, res))
}

// computeAgent loads one agent's snapshot and computes the statement.
func (h *Handler) computeAgent(r *http.Request, agentID engine.AgentID, m engine.Month) (*engine.CompensationResult, error) {
	ctx := r.Context()

	agent, err := h.Store.GetUser(ctx, string(agentID))
	if err != nil {
		return nil, err
	}

	var goal *engine.GoalParameters
	var targets *engine.IndividualTargets
	doc, err := h.Store.GetGoalDocument(ctx, agent.FranchiseID, m)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Leave goal nil; the engine reports the typed error.
	case err != nil:
		return nil, err
	default:
		goal = &doc.Params
		targets = doc.TargetsFor(agentID)
	}

	activities, err := h.Store.ListActivities(ctx, agentID, m.Start(h.Loc), m.End(h.Loc))
	if err != nil {
		return nil, err
	}
	clients, err := h.Store.ListClientsByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	records := make([]engine.ActivityRecord, len(activities))
	for i, a := range activities {
		records[i] = a.ActivityRecord
	}
	portfolio := make([]engine.ClientRecord, len(clients))
	for i, c := range clients {
		portfolio[i] = c.ClientRecord
	}

	realized := engine.DeriveRealized(records, portfolio, m, h.Loc)
	return engine.ComputeCompensation(goal, agentID, targets, realized,
		agent.HireDate, m, h.Loc, h.Opts)
}

// GetRanking computes every agent's statement and folds the team rollup.
func (h *Handler) GetRanking(w http.ResponseWriter, r *http.Request) {
	franchiseID := engine.FranchiseID(chi.URLParam(r, "id"))
	m, err := engine.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM", "invalid_input", err)
		return
	}

	agents, err := h.Store.ListAgents(r.Context(), franchiseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list agents", "", err)
		return
	}

	results := make([]engine.AgentResult, 0, len(agents))
	for _, agent := range agents {
		agentID := engine.AgentID(agent.ID)
		res, err := h.computeAgent(r, agentID, m)
		if err != nil {
			if errors.Is(err, engine.ErrMissingGoalParameters) {
				// No goals for the whole month: the ranking itself is undefined.
				writeEngineError(w, err)
				return
			}
			// Agents without distributed targets rank as absent, the
			// rest of the team still resolves.
			if errors.Is(err, engine.ErrMissingIndividualTargets) {
				continue
			}
			writeError(w, http.StatusInternalServerError, "Failed to compute agent", "", err)
			return
		}
		results = append(results, engine.AgentResult{AgentID: agentID, Result: res})
	}

	summary := engine.RankAgents(results)
	writeJSON(w, http.StatusOK, rankingDTO(franchiseID, m, summary))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, role store.Role) bool {
	_, ok := h.requireRoleUser(w, r, role)
	return ok
}

func (h *Handler) requireRoleUser(w http.ResponseWriter, r *http.Request, role store.Role) (*store.User, bool) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, http.StatusForbidden, "Unknown acting user", "forbidden", err)
		return nil, false
	}
	if actor.Role != role {
		writeError(w, http.StatusForbidden, "Operation requires role "+string(role), "forbidden", nil)
		return nil, false
	}
	return actor, true
}

func userDTO(u store.User) UserDTO {
	dto := UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		FranchiseID: string(u.FranchiseID),
		Status:      u.Status,
	}
	if u.HireDate != nil {
		dto.HireDate = u.HireDate.Format("2006-01-02")
	}
	return dto
}

func clientDTO(c store.Client) ClientDTO {
	dto := ClientDTO{
		ID:            c.ID,
		AgentID:       string(c.AgentID),
		FranchiseID:   string(c.FranchiseID),
		Name:          c.Name,
		PricedTPV:     c.PricedTPV.String(),
		TransactedTPV: c.TransactedTPV.String(),
		Active:        c.Active,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
	}
	if c.ActivatedAt != nil {
		dto.ActivatedAt = c.ActivatedAt.Format(time.RFC3339)
	}
	return dto
}

// writeEngineError maps the engine's error taxonomy onto HTTP.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrMissingGoalParameters):
		writeError(w, http.StatusNotFound, "Awaiting goal definition for this month", "missing_goal_parameters", err)
	case errors.Is(err, engine.ErrMissingIndividualTargets):
		writeError(w, http.StatusNotFound, "Agent has no distributed targets this month", "missing_individual_targets", err)
	case errors.Is(err, engine.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input", "invalid_input", err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Record not found", "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "Computation failed", "", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
