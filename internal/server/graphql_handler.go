package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
)

const applicationsOperation = "applications"

type graphqlInput struct {
	OperationName string `json:"operationName"`
	Query         string `json:"query"`
	Variables     struct {
		CreatedAfter *int64  `json:"createdAfter"`
		AfterID      *string `json:"afterId"`
		Limit        int     `json:"limit"`
		Endpoint     string  `json:"endpoint"`
	} `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors []graphqlError `json:"errors,omitempty"`
}

func applicationsResponse(applications []domain.Application) graphqlResponse {
	return graphqlResponse{Data: map[string]any{applicationsOperation: applications}}
}

func errorResponse(err error) graphqlResponse {
	return graphqlResponse{Errors: []graphqlError{{Message: err.Error()}}}
}

// applicationsRequest validates a decoded query and turns it into a request.
// Only the applications operation is served.
func applicationsRequest(input graphqlInput) (domain.GetApplicationsRequest, error) {
	operation := input.OperationName
	if operation == "" && strings.Contains(input.Query, applicationsOperation) {
		operation = applicationsOperation
	}
	if operation != applicationsOperation {
		return domain.GetApplicationsRequest{}, fmt.Errorf("unknown operation %q", input.OperationName)
	}
	req := domain.GetApplicationsRequest{
		CreatedAfter: input.Variables.CreatedAfter,
		AfterID:      input.Variables.AfterID,
		Limit:        input.Variables.Limit,
	}
	return req, req.Validate()
}

func (s *server) handleGraphql(w http.ResponseWriter, r *http.Request) {
	input := graphqlInput{}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to decode input: %v", err.Error()), http.StatusBadRequest)
		return
	}
	req, err := applicationsRequest(input)
	if err != nil {
		queriesTotal.WithLabelValues("http", "invalid").Inc()
		jsonResponse(w, http.StatusOK, errorResponse(err))
		return
	}

	applications, err := s.appRepository.ListPage(r.Context(), req)
	if err != nil {
		queriesTotal.WithLabelValues("http", "failure").Inc()
		s.logger.Error("error listing applications", "error", err, "limit", req.Limit)
		jsonResponse(w, http.StatusInternalServerError, errorResponse(errors.New("error listing applications")))
		return
	}
	queriesTotal.WithLabelValues("http", "success").Inc()
	jsonResponse(w, http.StatusOK, applicationsResponse(applications))
}
