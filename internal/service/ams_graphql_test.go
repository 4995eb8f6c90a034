package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *AmsGraphqlClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAmsGraphqlClient(testLogger(), map[string]string{AmsEndpoint: srv.URL})
}

func TestFetchApplications(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		assert.Equal(t, "no-cache", r.Header.Get("Pragma"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data":{"applications":[
			{"applicationId":"a1","chainId":"c1","owner":"c1:o1","spec":"{}","createdAt":10},
			{"applicationId":"a2","chainId":"c2","spec":"","createdAt":11}
		]}}`))
	})
	createdAfter := int64(9)

	applications, err := client.FetchApplications(context.Background(), domain.GetApplicationsRequest{CreatedAfter: &createdAfter, Limit: 2})

	require.NoError(t, err)
	require.Len(t, applications, 2)
	assert.Equal(t, "a1", applications[0].ApplicationID)
	require.NotNil(t, applications[0].Owner)
	assert.Equal(t, "c1:o1", *applications[0].Owner)
	assert.Nil(t, applications[1].Owner)
	assert.Equal(t, int64(11), applications[1].CreatedAt)

	assert.Equal(t, "applications", gotBody["operationName"])
	variables := gotBody["variables"].(map[string]any)
	assert.Equal(t, float64(9), variables["createdAfter"])
	assert.Equal(t, float64(2), variables["limit"])
	assert.Equal(t, "ams", variables["endpoint"])
}

func TestFetchApplications_OmitsAbsentCursor(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data":{"applications":[]}}`))
	})

	applications, err := client.FetchApplications(context.Background(), domain.GetApplicationsRequest{Limit: 5})

	require.NoError(t, err)
	assert.Empty(t, applications)
	assert.NotContains(t, gotBody["variables"].(map[string]any), "createdAfter")
	assert.NotContains(t, gotBody["variables"].(map[string]any), "afterId")
}

func TestFetchApplications_SendsTiebreak(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data":{"applications":[]}}`))
	})

	_, err := client.FetchApplications(context.Background(), domain.PageAfter(domain.Application{ApplicationID: "a7", CreatedAt: 70}, 4))

	require.NoError(t, err)
	variables := gotBody["variables"].(map[string]any)
	assert.Equal(t, float64(70), variables["createdAfter"])
	assert.Equal(t, "a7", variables["afterId"])
}

func TestFetchApplications_TiebreakWithoutCursor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	afterID := "a7"

	_, err := client.FetchApplications(context.Background(), domain.GetApplicationsRequest{AfterID: &afterID, Limit: 1})

	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
}

func TestFetchApplications_NullData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"applications":null}}`))
	})

	applications, err := client.FetchApplications(context.Background(), domain.GetApplicationsRequest{Limit: 5})

	require.NoError(t, err)
	assert.NotNil(t, applications)
	assert.Empty(t, applications)
}

func TestFetchApplications_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   "boom",
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "500")
			},
		},
		{
			name:   "graphql errors",
			status: http.StatusOK,
			body:   `{"errors":[{"message":"bad limit"},{"message":"bad cursor"}]}`,
			check: func(t *testing.T, err error) {
				var gqlErr *GraphqlError
				require.ErrorAs(t, err, &gqlErr)
				assert.Equal(t, []string{"bad limit", "bad cursor"}, gqlErr.Messages)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   "<html>",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidResponse)
			},
		},
		{
			name:   "missing field",
			status: http.StatusOK,
			body:   `{"data":{}}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidResponse)
			},
		},
		{
			name:   "wrong row shape",
			status: http.StatusOK,
			body:   `{"data":{"applications":[{"applicationId":1}]}}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidResponse)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			applications, err := client.FetchApplications(context.Background(), domain.GetApplicationsRequest{Limit: 1})

			require.Error(t, err)
			assert.Nil(t, applications)
			assert.Equal(t, 1, calls, "failures are not retried")
			tt.check(t, err)
		})
	}
}

func TestFetchApplications_InvalidLimit(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	_, err := client.FetchApplications(context.Background(), domain.GetApplicationsRequest{Limit: 0})

	assert.ErrorIs(t, err, domain.ErrInvalidLimit)
	assert.Equal(t, 0, calls)
}

func TestFetchApplications_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewAmsGraphqlClient(testLogger(), map[string]string{AmsEndpoint: srv.URL})

	_, err := client.FetchApplications(context.Background(), domain.GetApplicationsRequest{Limit: 1})

	assert.Error(t, err)
}

func TestFetchApplications_NoEndpoint(t *testing.T) {
	client := NewAmsGraphqlClient(testLogger(), map[string]string{})

	_, err := client.FetchApplications(context.Background(), domain.GetApplicationsRequest{Limit: 1})

	assert.Error(t, err)
}
