package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nozze/internal/core"
)

type profileRequest struct {
	PartnerOne    string      `json:"partner_one"`
	PartnerTwo    string      `json:"partner_two"`
	WeddingDate   string      `json:"wedding_date"` // YYYY-MM-DD, empty to unset
	Phone         string      `json:"phone"`
	City          string      `json:"city"`
	GuestEstimate int64       `json:"guest_estimate"`
	Budget        json.Number `json:"budget"`
}

type profileResponse struct {
	PartnerOne    string `json:"partner_one"`
	PartnerTwo    string `json:"partner_two"`
	WeddingDate   string `json:"wedding_date"`
	Phone         string `json:"phone"`
	City          string `json:"city"`
	GuestEstimate int64  `json:"guest_estimate"`
	BudgetCents   int64  `json:"budget_cents"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toProfileResponse(p core.Profile) profileResponse {
	weddingDate := ""
	if !p.WeddingDate.IsZero() {
		weddingDate = p.WeddingDate.String()
	}
	return profileResponse{
		PartnerOne:    p.PartnerOne,
		PartnerTwo:    p.PartnerTwo,
		WeddingDate:   weddingDate,
		Phone:         p.Phone,
		City:          p.City,
		GuestEstimate: p.GuestEstimate,
		BudgetCents:   p.Budget.Cents,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, owner string) {
	p, err := s.repo.GetProfile(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request, owner string) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := core.Profile{
		PartnerOne:    sanitizeInput(req.PartnerOne),
		PartnerTwo:    sanitizeInput(req.PartnerTwo),
		Phone:         sanitizeInput(req.Phone),
		City:          sanitizeInput(req.City),
		GuestEstimate: req.GuestEstimate,
	}
	if req.WeddingDate != "" {
		date, err := core.ParseDate(req.WeddingDate)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		p.WeddingDate = date
	}
	if req.Budget != "" {
		cents, err := core.ParseCents(req.Budget.String())
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("budget: %v", err))
			return
		}
		p.Budget = core.Money{Cents: cents}
	}

	saved, err := s.repo.UpsertProfile(r.Context(), owner, p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	// The wedding date feeds the dashboard countdown.
	s.invalidateSnapshots(owner)
	writeJSON(w, http.StatusOK, toProfileResponse(saved))
}
