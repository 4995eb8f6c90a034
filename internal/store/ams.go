// Package store keeps the client side list of registry applications.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	"github.com/samber/lo"
)

type Gateway interface {
	FetchApplications(ctx context.Context, page domain.GetApplicationsRequest) ([]domain.Application, error)
}

// StreamingGateway is implemented by gateways that can push result batches.
type StreamingGateway interface {
	SubscribeApplications(ctx context.Context, page domain.GetApplicationsRequest) (<-chan domain.ApplicationBatch, error)
}

type ImageResolver interface {
	ImagePath(storeType *string, ref *string) string
}

// DoneFunc receives the outcome of a fetch. rows is the fetched batch, not the
// accumulated list, and is nil when failed is true.
type DoneFunc func(failed bool, rows []domain.Application)

// AmsStore holds applications unique by id. Unseen applications are put in
// front, known ones are replaced where they are.
type AmsStore struct {
	logger  *slog.Logger
	gateway Gateway
	images  ImageResolver

	mu           sync.RWMutex
	applications []domain.Application
}

func NewAmsStore(logger *slog.Logger, gateway Gateway, images ImageResolver) *AmsStore {
	return &AmsStore{
		logger:       logger,
		gateway:      gateway,
		images:       images,
		applications: make([]domain.Application, 0),
	}
}

// GetApplications fetches one page and merges it. onDone is called exactly once.
func (s *AmsStore) GetApplications(ctx context.Context, req domain.GetApplicationsRequest, onDone DoneFunc) {
	rows, err := s.Fetch(ctx, req)
	if err != nil {
		s.logger.Error("failed to get applications", "error", err, "limit", req.Limit)
		if onDone != nil {
			onDone(true, nil)
		}
		return
	}
	if onDone != nil {
		onDone(false, rows)
	}
}

func (s *AmsStore) Fetch(ctx context.Context, req domain.GetApplicationsRequest) ([]domain.Application, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.gateway.FetchApplications(ctx, req)
	if err != nil {
		fetchesTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("fetch applications: %w", err)
	}
	fetchesTotal.WithLabelValues("success").Inc()
	s.MergeApplications(rows)
	return rows, nil
}

// MergeApplications applies the batch element by element, in order, so later
// elements see the effect of earlier ones.
func (s *AmsStore) MergeApplications(batch []domain.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted, replaced := 0, 0
	for _, application := range batch {
		_, index, found := lo.FindIndexOf(s.applications, func(el domain.Application) bool {
			return el.ApplicationID == application.ApplicationID
		})
		if found {
			s.applications[index] = application
			replaced++
			continue
		}
		s.applications = slices.Insert(s.applications, 0, application)
		inserted++
	}
	mergedTotal.WithLabelValues("inserted").Add(float64(inserted))
	mergedTotal.WithLabelValues("replaced").Add(float64(replaced))
	applicationsGauge.Set(float64(len(s.applications)))
}

// Applications returns a copy of the current list.
func (s *AmsStore) Applications() []domain.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.applications)
}

func (s *AmsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.applications)
}

func (s *AmsStore) ApplicationLogo(application domain.Application) string {
	return s.images.ImagePath(application.LogoStoreType, application.Logo)
}

// ExistMeme reports whether any application spec matches every non-empty
// filter. Applications with a malformed spec never match.
func (s *AmsStore) ExistMeme(name string, ticker string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.ContainsBy(s.applications, func(el domain.Application) bool {
		meme, err := domain.DecodeMeme(el.Spec)
		if err != nil {
			s.logger.Debug("skipping application with malformed spec", "applicationId", el.ApplicationID, "error", err)
			return false
		}
		return meme.Matches(name, ticker)
	})
}

func (s *AmsStore) Application(applicationID string) (domain.Application, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.applications, func(el domain.Application) bool {
		return el.ApplicationID == applicationID
	})
}

// NextPage returns the request for the page after the newest application
// held, or the first page for an empty store.
func (s *AmsStore) NextPage(limit int) domain.GetApplicationsRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.applications) == 0 {
		return domain.GetApplicationsRequest{Limit: limit}
	}
	return domain.PageAfter(slices.MaxFunc(s.applications, domain.CompareRegistryOrder), limit)
}
