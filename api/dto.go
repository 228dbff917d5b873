/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY FIELDS:
  Payout amounts go out twice: a raw decimal string ("1128.6") for
  clients that compute, and a pt-BR display string ("R$ 1.128,60") for
  clients that render. Inbound currency fields accept pt-BR text and go
  through the money codec.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/goal.go: GoalJSON type (goal documents reuse it directly)
*/
package api

import (
	"github.com/vendaforte/rv-engine/engine"
	"github.com/vendaforte/rv-engine/money"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// FranchiseDTO represents a franchise in API responses.
type FranchiseDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateFranchiseRequest is the request to create a franchise.
type CreateFranchiseRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	FranchiseID string `json:"franchise_id,omitempty"`
	HireDate    string `json:"hire_date,omitempty"`
	Status      string `json:"status"`
}

// CreateFranchiseeRequest provisions a franchise owner (superadmin only).
type CreateFranchiseeRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	FranchiseID string `json:"franchise_id"`
}

// CreateAgentRequest provisions an agent (franchise owner only).
type CreateAgentRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	HireDate string `json:"hire_date"` // "2006-01-02"
}

// LogActivityRequest records an immutable activity event.
type LogActivityRequest struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	Type      string `json:"type"` // account_activation, visit, other
	Value     string `json:"value,omitempty"`
	Note      string `json:"note,omitempty"`
	Timestamp string `json:"timestamp"` // RFC3339
}

// CreateClientRequest credentials a merchant into an agent's portfolio.
type CreateClientRequest struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	Name      string `json:"name"`
	PricedTPV string `json:"priced_tpv"` // pt-BR currency accepted
}

// UpdateClientTPVRequest records collected transacted TPV.
type UpdateClientTPVRequest struct {
	TransactedTPV string `json:"transacted_tpv"` // pt-BR currency accepted
}

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID            string `json:"id"`
	AgentID       string `json:"agent_id"`
	FranchiseID   string `json:"franchise_id"`
	Name          string `json:"name"`
	PricedTPV     string `json:"priced_tpv"`
	TransactedTPV string `json:"transacted_tpv"`
	Active        bool   `json:"active"`
	CreatedAt     string `json:"created_at"`
	ActivatedAt   string `json:"activated_at,omitempty"`
}

// =============================================================================
// COMPENSATION AND RANKING
// =============================================================================

// PillarDTO is one pillar's slice of a compensation statement.
type PillarDTO struct {
	Pillar           string `json:"pillar"`
	Target           string `json:"target"`
	Realized         string `json:"realized"`
	AchievementRatio string `json:"achievement_ratio"`
	GatePassed       bool   `json:"gate_passed"`
	Payout           string `json:"payout"`
	PayoutDisplay    string `json:"payout_display"`
}

// CompensationDTO is a full monthly compensation statement.
type CompensationDTO struct {
	AgentID            string      `json:"agent_id"`
	Month              string      `json:"month"`
	Pillars            []PillarDTO `json:"pillars"`
	ComputedPayout     string      `json:"computed_payout"`
	TenureMonth        int         `json:"tenure_month,omitempty"`
	FloorGuarantee     string      `json:"floor_guarantee"`
	TopUp              string      `json:"top_up"`
	FinalPayout        string      `json:"final_payout"`
	FinalPayoutDisplay string      `json:"final_payout_display"`
}

// RankedAgentDTO is one row of the franchise ranking.
type RankedAgentDTO struct {
	Rank               int    `json:"rank"`
	AgentID            string `json:"agent_id"`
	Score              string `json:"score"`
	ActivationRatio    string `json:"activation_ratio"`
	MigrationRatio     string `json:"migration_ratio"`
	TPVRatio           string `json:"tpv_ratio"`
	FinalPayout        string `json:"final_payout"`
	FinalPayoutDisplay string `json:"final_payout_display"`
}

// RankingDTO is the franchise-level rollup for a month.
type RankingDTO struct {
	FranchiseID         string           `json:"franchise_id"`
	Month               string           `json:"month"`
	Agents              []RankedAgentDTO `json:"agents"`
	TotalComputedPayout string           `json:"total_computed_payout"`
	TotalTopUp          string           `json:"total_top_up"`
	TotalFinalPayout    string           `json:"total_final_payout"`
	TotalDisplay        string           `json:"total_display"`
}

// =============================================================================
// DOMAIN -> DTO MAPPING
// =============================================================================

func compensationDTO(agentID engine.AgentID, res *engine.CompensationResult) CompensationDTO {
	dto := CompensationDTO{
		AgentID:            string(agentID),
		Month:              res.Month.String(),
		ComputedPayout:     res.ComputedPayout.String(),
		TenureMonth:        res.TenureMonth,
		FloorGuarantee:     res.FloorGuarantee.String(),
		TopUp:              res.TopUp.String(),
		FinalPayout:        res.FinalPayout.String(),
		FinalPayoutDisplay: money.FormatBRL(res.FinalPayout),
	}
	for _, p := range res.Pillars {
		dto.Pillars = append(dto.Pillars, PillarDTO{
			Pillar:           string(p.Pillar),
			Target:           p.Target.String(),
			Realized:         p.Realized.String(),
			AchievementRatio: p.AchievementRatio.String(),
			GatePassed:       p.GatePassed,
			Payout:           p.Payout.String(),
			PayoutDisplay:    money.FormatBRL(p.Payout),
		})
	}
	return dto
}

func rankingDTO(franchiseID engine.FranchiseID, m engine.Month, summary engine.TeamSummary) RankingDTO {
	dto := RankingDTO{
		FranchiseID:         string(franchiseID),
		Month:               m.String(),
		Agents:              []RankedAgentDTO{},
		TotalComputedPayout: summary.TotalComputedPayout.String(),
		TotalTopUp:          summary.TotalTopUp.String(),
		TotalFinalPayout:    summary.TotalFinalPayout.String(),
		TotalDisplay:        money.FormatBRL(summary.TotalFinalPayout),
	}
	for _, row := range summary.Agents {
		dto.Agents = append(dto.Agents, RankedAgentDTO{
			Rank:               row.Rank,
			AgentID:            string(row.AgentID),
			Score:              row.Score.String(),
			ActivationRatio:    row.DisplayRatios.Activation.String(),
			MigrationRatio:     row.DisplayRatios.Migration.String(),
			TPVRatio:           row.DisplayRatios.TPV.String(),
			FinalPayout:        row.FinalPayout.String(),
			FinalPayoutDisplay: money.FormatBRL(row.FinalPayout),
		})
	}
	return dto
}
