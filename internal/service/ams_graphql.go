package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

const (
	AmsEndpoint = "ams"

	applicationsOperation = "applications"
	applicationsQuery     = `query applications($createdAfter: Int, $afterId: String, $limit: Int!) {
  applications(createdAfter: $createdAfter, afterId: $afterId, limit: $limit)
}`
)

var ErrInvalidResponse = errors.New("invalid graphql response")

// GraphqlError carries the messages of a non-empty errors array.
type GraphqlError struct {
	Messages []string
}

func (e *GraphqlError) Error() string {
	return fmt.Sprintf("graphql returned errors: %v", strings.Join(e.Messages, "; "))
}

// GraphqlRequest is the body of a query POST and the payload of a subscribe message.
type GraphqlRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

// ApplicationsRequest builds the applications query. Absent cursor parts are
// left out of the variables.
func ApplicationsRequest(page domain.GetApplicationsRequest) GraphqlRequest {
	variables := map[string]any{
		"limit":    page.Limit,
		"endpoint": AmsEndpoint,
	}
	if page.CreatedAfter != nil {
		variables["createdAfter"] = *page.CreatedAfter
	}
	if page.AfterID != nil {
		variables["afterId"] = *page.AfterID
	}
	return GraphqlRequest{
		OperationName: applicationsOperation,
		Query:         applicationsQuery,
		Variables:     variables,
	}
}

type AmsGraphqlClient struct {
	endpoints  map[string]string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAmsGraphqlClient creates a query client. endpoints maps an endpoint name
// such as "ams" to the url queries for it are posted to.
func NewAmsGraphqlClient(logger *slog.Logger, endpoints map[string]string) *AmsGraphqlClient {
	return &AmsGraphqlClient{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
		logger: logger,
	}
}

// FetchApplications issues a single applications query. The request always
// bypasses http caches and is never retried.
func (c *AmsGraphqlClient) FetchApplications(ctx context.Context, page domain.GetApplicationsRequest) ([]domain.Application, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	url, ok := c.endpoints[AmsEndpoint]
	if !ok {
		return nil, fmt.Errorf("no url configured for endpoint %v", AmsEndpoint)
	}
	bodyJson, err := json.Marshal(ApplicationsRequest(page))
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyJson))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()
	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBytes)))
	}

	applications, err := graphqlApplications(respBytes)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched applications", "count", len(applications), "limit", page.Limit)
	return applications, nil
}

// graphqlApplications reads data.applications from a graphql result document.
func graphqlApplications(payload []byte) ([]domain.Application, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: body is not json", ErrInvalidResponse)
	}
	result := gjson.ParseBytes(payload)
	if errs := result.Get("errors").Array(); len(errs) > 0 {
		return nil, &GraphqlError{
			Messages: lo.Map(errs, func(e gjson.Result, _ int) string { return e.Get("message").String() }),
		}
	}
	data := result.Get("data." + applicationsOperation)
	if !data.Exists() {
		return nil, fmt.Errorf("%w: missing data.%v", ErrInvalidResponse, applicationsOperation)
	}
	applications := make([]domain.Application, 0)
	if data.Type == gjson.Null {
		return applications, nil
	}
	if err := json.Unmarshal([]byte(data.Raw), &applications); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return applications, nil
}
