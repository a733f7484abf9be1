package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/coursehub/wishlist/internal/domain"
	apperrors "github.com/coursehub/wishlist/pkg/errors"
	"github.com/coursehub/wishlist/pkg/httpclient"
	"github.com/coursehub/wishlist/pkg/tracing"
)

const upstreamName = "course-api"

var tracer = tracing.Tracer("github.com/coursehub/wishlist/internal/catalog")

// HTTPGetter performs GET requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type HTTPGetter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Fetcher retrieves a single course record.
type Fetcher interface {
	Fetch(ctx context.Context, baseURL string, id domain.CourseID) (domain.CourseRecord, error)
}

// CircuitOpenFallback replaces gobreaker's open-state error with a
// ServiceUnavailable AppError.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("course catalog is temporarily unavailable")
}

// Client fetches course records from GET {baseURL}/{id}.
type Client struct {
	http HTTPGetter
}

// NewClient creates a course API client.
func NewClient(getter HTTPGetter) *Client {
	return &Client{http: getter}
}

// CourseURL joins the base URL and an escaped course id.
func CourseURL(baseURL string, id domain.CourseID) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(id.String())
}

// Fetch loads one course. Non-2xx answers are mapped through
// httpclient.ParseResponseError. A record without an id gets the requested one.
func (c *Client) Fetch(ctx context.Context, baseURL string, id domain.CourseID) (domain.CourseRecord, error) {
	ctx, span := tracer.Start(ctx, "catalog.Fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("course.id", id.String())),
	)
	defer span.End()

	rec, err := c.fetch(ctx, baseURL, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.CourseRecord{}, err
	}
	return rec, nil
}

func (c *Client) fetch(ctx context.Context, baseURL string, id domain.CourseID) (domain.CourseRecord, error) {
	resp, err := c.http.Get(ctx, CourseURL(baseURL, id))
	if err != nil {
		return domain.CourseRecord{}, fmt.Errorf("get course %s: %w", id, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.CourseRecord{}, httpclient.ParseResponseError(resp, upstreamName)
	}
	defer func() { _ = resp.Body.Close() }()

	var rec domain.CourseRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return domain.CourseRecord{}, fmt.Errorf("decode course %s: %w", id, err)
	}
	if rec.ID == "" {
		rec.ID = id
	}

	return rec, nil
}
