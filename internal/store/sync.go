package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
)

// ErrCursorStalled is returned when a full page does not move past the
// cursor it was requested with.
var ErrCursorStalled = errors.New("page cursor did not advance")

// Sync pages through the registry starting at start until a short page and
// returns the number of rows fetched. Every page after the first is requested
// after the last row of the previous one, ties on CreatedAt broken by id.
func (s *AmsStore) Sync(ctx context.Context, start domain.GetApplicationsRequest) (int, error) {
	req := start
	total := 0
	for {
		rows, err := s.Fetch(ctx, req)
		if err != nil {
			return total, err
		}
		total += len(rows)
		if len(rows) < req.Limit {
			return total, nil
		}
		last := slices.MaxFunc(rows, domain.CompareRegistryOrder)
		if !req.Includes(last) {
			return total, fmt.Errorf("%w: last row %v at %d", ErrCursorStalled, last.ApplicationID, last.CreatedAt)
		}
		req = domain.PageAfter(last, req.Limit)
	}
}

// Watch subscribes to the registry and merges every streamed batch until the
// stream ends or ctx is done. onBatch is called once per batch. A full first
// page means more rows are waiting behind it; they are paged in with Sync
// while the stream keeps running.
func (s *AmsStore) Watch(ctx context.Context, req domain.GetApplicationsRequest, onBatch DoneFunc) error {
	streaming, ok := s.gateway.(StreamingGateway)
	if !ok {
		return domain.ErrStreamingUnsupported
	}
	if err := req.Validate(); err != nil {
		return err
	}
	batches, err := streaming.SubscribeApplications(ctx, req)
	if err != nil {
		return fmt.Errorf("subscribe applications: %w", err)
	}

	var catchUp chan error
	firstPage := true
	for batch := range batches {
		if batch.Err != nil {
			fetchesTotal.WithLabelValues("failure").Inc()
			s.logger.Error("application stream failed", "error", batch.Err)
			if onBatch != nil {
				onBatch(true, nil)
			}
			continue
		}
		fetchesTotal.WithLabelValues("success").Inc()
		s.MergeApplications(batch.Applications)
		if onBatch != nil {
			onBatch(false, batch.Applications)
		}
		if firstPage && len(batch.Applications) >= req.Limit {
			next := domain.PageAfter(slices.MaxFunc(batch.Applications, domain.CompareRegistryOrder), req.Limit)
			catchUp = make(chan error, 1)
			go func() {
				synced, err := s.Sync(ctx, next)
				s.logger.Info("caught up on applications", "fetched", synced)
				catchUp <- err
			}()
		}
		firstPage = false
	}

	if catchUp != nil {
		if err := <-catchUp; err != nil && ctx.Err() == nil {
			return fmt.Errorf("catch up: %w", err)
		}
	}
	return ctx.Err()
}
