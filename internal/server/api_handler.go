package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	"github.com/go-chi/chi/v5"
)

// handleRegisterApplication stores a new application and pushes it to all
// subscribers.
func (s *server) handleRegisterApplication(w http.ResponseWriter, r *http.Request) {
	input := domain.Application{}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(input.ApplicationID) == 0 {
		http.Error(w, domain.ErrMissingApplicationID.Error(), http.StatusBadRequest)
		return
	}
	if len(input.ChainID) == 0 {
		http.Error(w, "empty chain id", http.StatusBadRequest)
		return
	}

	err = s.appRepository.Create(r.Context(), &input)
	if errors.Is(err, domain.ErrConflict) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		s.logger.Error("error creating application", "error", err, "applicationId", input.ApplicationID)
		http.Error(w, "error creating application", http.StatusInternalServerError)
		return
	}

	s.broker.Publish([]domain.Application{input})
	jsonResponse(w, http.StatusCreated, input)
}

func (s *server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "application-id")
	app, err := s.appRepository.GetByID(r.Context(), applicationID)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("error getting application", "error", err, "applicationId", applicationID)
		http.Error(w, "error getting application", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, http.StatusOK, app)
}
