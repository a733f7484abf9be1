package catalog

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/coursehub/wishlist/internal/domain"
)

// FetchAll fetches every id concurrently and returns the records in id
// order. It is all-or-nothing: the first failure cancels the remaining
// requests and no partial result is returned. limit caps in-flight requests;
// 0 fires them all at once.
func FetchAll(ctx context.Context, f Fetcher, baseURL string, ids domain.WishlistIDs, limit int) ([]domain.CourseRecord, error) {
	if len(ids) == 0 {
		return []domain.CourseRecord{}, nil
	}

	ctx, span := tracer.Start(ctx, "catalog.FetchAll")
	span.SetAttributes(attribute.Int("course.count", len(ids)))
	defer span.End()

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	out := make([]domain.CourseRecord, len(ids))
	for i, id := range ids {
		g.Go(func() error {
			rec, err := f.Fetch(gctx, baseURL, id)
			if err != nil {
				return fmt.Errorf("fetch course %s: %w", id, err)
			}
			out[i] = rec
			return nil
		})
	}

	err := g.Wait()
	batchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		batchesTotal.WithLabelValues(resultFailure).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch fetch failed")
		return nil, err
	}

	batchesTotal.WithLabelValues(resultSuccess).Inc()
	coursesFetched.Add(float64(len(out)))
	return out, nil
}
