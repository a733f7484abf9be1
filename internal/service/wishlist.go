package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/coursehub/wishlist/internal/catalog"
	"github.com/coursehub/wishlist/internal/domain"
	"github.com/coursehub/wishlist/internal/repository"
	apperrors "github.com/coursehub/wishlist/pkg/errors"
)

// ExportSheet is the worksheet name of the wishlist export.
const ExportSheet = "Wishlist"

// MaxCourseIDLength bounds ids accepted from clients.
const MaxCourseIDLength = 64

var exportHeader = []any{"Course ID", "Title", "Instructor", "Image"}

// WishlistService implements the wishlist operations used outside the view:
// adding courses, reading the list and the badge, and exporting.
type WishlistService struct {
	repo        repository.WishlistRepository
	counter     *CounterPublisher
	fetcher     catalog.Fetcher
	locales     *catalog.Locales
	concurrency int
	logger      *slog.Logger
}

// NewWishlistService creates a wishlist service. concurrency caps the batch
// fetch used by Export; 0 means unlimited.
func NewWishlistService(
	repo repository.WishlistRepository,
	counter *CounterPublisher,
	fetcher catalog.Fetcher,
	locales *catalog.Locales,
	concurrency int,
	logger *slog.Logger,
) *WishlistService {
	return &WishlistService{
		repo:        repo,
		counter:     counter,
		fetcher:     fetcher,
		locales:     locales,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Add appends id to the user's wishlist unless it is already there and
// publishes the new count. It returns the stored list.
func (s *WishlistService) Add(ctx context.Context, userID string, id domain.CourseID) (domain.WishlistIDs, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if err := ValidateCourseID(id); err != nil {
		return nil, err
	}

	ids, err := s.repo.IDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	if ids.Contains(id) {
		return ids, nil
	}

	ids = append(ids, id)
	if err := s.repo.Save(ctx, userID, ids); err != nil {
		return nil, fmt.Errorf("save wishlist: %w", err)
	}

	if err := s.counter.PublishCount(ctx, userID, len(ids)); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "course added to wishlist",
		slog.String("user_id", userID),
		slog.String("course_id", id.String()),
		slog.Int("count", len(ids)),
	)

	return ids, nil
}

// IDs returns the stored list.
func (s *WishlistService) IDs(ctx context.Context, userID string) (domain.WishlistIDs, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	ids, err := s.repo.IDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	return ids, nil
}

// Count returns the shared badge count.
func (s *WishlistService) Count(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, apperrors.InvalidInput("user id is required")
	}
	return s.counter.Count(ctx, userID)
}

// Export fetches every course of the wishlist and writes an XLSX workbook
// to w. Like the view, the fetch is all-or-nothing.
func (s *WishlistService) Export(ctx context.Context, userID, locale string, w io.Writer) error {
	ids, err := s.IDs(ctx, userID)
	if err != nil {
		return err
	}

	courses, err := catalog.FetchAll(ctx, s.fetcher, s.locales.BaseURL(locale), ids, s.concurrency)
	if err != nil {
		return fmt.Errorf("fetch courses for export: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.WarnContext(ctx, "close export workbook", slog.String("error", err.Error()))
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return fmt.Errorf("name export sheet: %w", err)
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	for i, c := range courses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export cell: %w", err)
		}
		row := []any{c.ID.String(), c.Title, c.PrimaryInstructor().DisplayName, c.Image}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("write export row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write export workbook: %w", err)
	}
	return nil
}

// ValidateCourseID rejects ids that cannot be a single URL path segment of
// reasonable size.
func ValidateCourseID(id domain.CourseID) error {
	s := strings.TrimSpace(id.String())
	switch {
	case s == "":
		return apperrors.InvalidInput("course id is required")
	case len(s) > MaxCourseIDLength:
		return apperrors.InvalidInput(fmt.Sprintf("course id must not exceed %d characters", MaxCourseIDLength))
	case s != id.String():
		return apperrors.InvalidInput("course id must not have surrounding whitespace")
	}
	return nil
}
