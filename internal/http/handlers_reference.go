package http

import (
	"context"
	"net/http"

	"nozze/internal/core"
)

type referenceResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toReferenceResponses(refs []core.Reference) []referenceResponse {
	out := make([]referenceResponse, len(refs))
	for i, ref := range refs {
		out[i] = referenceResponse{ID: ref.ID, Name: ref.Name}
	}
	return out
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, owner string) {
	refs, err := s.repo.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReferenceResponses(refs))
}

func (s *Server) handleListPaymentModes(w http.ResponseWriter, r *http.Request, owner string) {
	refs, err := s.repo.ListPaymentModes(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReferenceResponses(refs))
}

func (s *Server) handleListPaidBy(w http.ResponseWriter, r *http.Request, owner string) {
	refs, err := s.repo.ListPaidBy(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReferenceResponses(refs))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request, owner string) {
	refs, err := s.repo.ListEvents(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReferenceResponses(refs))
}

type createReferenceRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreatePaidBy(w http.ResponseWriter, r *http.Request, owner string) {
	s.createReference(w, r, owner, s.repo.CreatePaidBy)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request, owner string) {
	s.createReference(w, r, owner, s.repo.CreateEvent)
}

func (s *Server) createReference(w http.ResponseWriter, r *http.Request, owner string,
	create func(ctx context.Context, owner, name string) (core.Reference, error)) {
	var req createReferenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := sanitizeInput(req.Name)
	if err := core.ValidateReferenceName(name); err != nil {
		writeDomainError(w, r, err)
		return
	}

	ref, err := create(r.Context(), owner, name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, referenceResponse{ID: ref.ID, Name: ref.Name})
}

type setupStatusResponse struct {
	Seeded bool `json:"seeded"`
}

type setupRequest struct {
	PaidBy []string `json:"paid_by"`
	Events []string `json:"events"`
}

func (s *Server) handleSetupStatus(w http.ResponseWriter, r *http.Request, owner string) {
	seeded, err := s.repo.OwnerSeeded(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setupStatusResponse{Seeded: seeded})
}

// handleSetup seeds the owner's paid-by and event lists. Re-running with
// names that already exist is harmless.
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request, owner string) {
	var req setupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.PaidBy) == 0 || len(req.Events) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "at least one paid-by name and one event are required")
		return
	}

	paidBy := make([]string, 0, len(req.PaidBy))
	for _, name := range req.PaidBy {
		name = sanitizeInput(name)
		if err := core.ValidateReferenceName(name); err != nil {
			writeDomainError(w, r, err)
			return
		}
		paidBy = append(paidBy, name)
	}
	events := make([]string, 0, len(req.Events))
	for _, name := range req.Events {
		name = sanitizeInput(name)
		if err := core.ValidateReferenceName(name); err != nil {
			writeDomainError(w, r, err)
			return
		}
		events = append(events, name)
	}

	if err := s.repo.SeedOwner(r.Context(), owner, paidBy, events); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setupStatusResponse{Seeded: true})
}
