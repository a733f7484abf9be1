package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coursehub/wishlist/internal/catalog"
	"github.com/coursehub/wishlist/internal/domain"
	"github.com/coursehub/wishlist/internal/repository"
)

// Counter publishes the wishlist badge count.
type Counter interface {
	PublishCount(ctx context.Context, userID string, n int) error
}

// Deps are the collaborators shared by every view.
type Deps struct {
	Store   repository.WishlistRepository
	Fetcher catalog.Fetcher
	Counter Counter
	// Concurrency caps in-flight course requests per load; 0 is unlimited.
	Concurrency int
	Logger      *slog.Logger
}

// View is one user's wishlist screen: the loaded courses, the loading flag
// and the removal dialog.
//
// opMu serializes operations, so user events wait for an in-flight load the
// way they would queue behind it on a UI thread. stateMu guards the fields
// and is never held across I/O, which lets Render observe loading=true.
type View struct {
	userID string
	deps   Deps

	opMu sync.Mutex

	stateMu        sync.RWMutex
	courses        []domain.CourseRecord
	loading        bool
	dialogOpen     bool
	courseToDelete *domain.CourseID
	baseURL        string

	lastUsed atomic.Int64
}

// New creates a view in its initial state: dialog closed, loading, no courses.
func New(userID string, deps Deps) *View {
	v := &View{
		userID:  userID,
		deps:    deps,
		courses: []domain.CourseRecord{},
		loading: true,
	}
	v.touch()
	return v
}

// UserID returns the owner of the view.
func (v *View) UserID() string { return v.userID }

// BaseURL returns the course API base URL of the last load.
func (v *View) BaseURL() string {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	return v.baseURL
}

// Load reads the stored ids and fetches their courses from baseURL. A failed
// batch is logged and leaves the previous courses in place; only a store
// read error is returned. loading is cleared in every case.
func (v *View) Load(ctx context.Context, baseURL string) error {
	v.opMu.Lock()
	defer v.opMu.Unlock()
	v.touch()

	return v.load(ctx, baseURL)
}

// SetBaseURL reloads when baseURL differs from the one last loaded.
func (v *View) SetBaseURL(ctx context.Context, baseURL string) error {
	v.opMu.Lock()
	defer v.opMu.Unlock()
	v.touch()

	if v.BaseURL() == baseURL {
		return nil
	}
	return v.load(ctx, baseURL)
}

func (v *View) load(ctx context.Context, baseURL string) error {
	v.stateMu.Lock()
	v.loading = true
	v.baseURL = baseURL
	v.stateMu.Unlock()

	defer func() {
		v.stateMu.Lock()
		v.loading = false
		v.stateMu.Unlock()
	}()

	ids, err := v.deps.Store.IDs(ctx, v.userID)
	if err != nil {
		return fmt.Errorf("read wishlist: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	courses, err := catalog.FetchAll(ctx, v.deps.Fetcher, baseURL, ids, v.deps.Concurrency)
	if err != nil {
		loadFailures.Inc()
		v.deps.Logger.ErrorContext(ctx, "error fetching courses",
			slog.String("user_id", v.userID),
			slog.Int("course_count", len(ids)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	v.stateMu.Lock()
	v.courses = courses
	v.stateMu.Unlock()
	return nil
}

// OpenDialog marks id for removal and opens the confirmation dialog.
func (v *View) OpenDialog(id domain.CourseID) {
	v.opMu.Lock()
	defer v.opMu.Unlock()
	v.touch()

	v.stateMu.Lock()
	v.courseToDelete = &id
	v.dialogOpen = true
	v.stateMu.Unlock()
}

// CloseDialog closes the dialog and forgets the pending target.
func (v *View) CloseDialog() {
	v.opMu.Lock()
	defer v.opMu.Unlock()
	v.touch()

	v.closeDialog()
}

func (v *View) closeDialog() {
	v.stateMu.Lock()
	v.dialogOpen = false
	v.courseToDelete = nil
	v.stateMu.Unlock()
}

// ConfirmDelete removes the pending course from the store and from the
// loaded courses, publishes the remaining stored count and closes the
// dialog. Without a pending course it only closes the dialog.
//
// A store error is returned before anything in memory changes and leaves
// the dialog open. A counter error is logged; the stored list stays the
// source of truth.
func (v *View) ConfirmDelete(ctx context.Context) error {
	v.opMu.Lock()
	defer v.opMu.Unlock()
	v.touch()

	v.stateMu.RLock()
	pending := v.courseToDelete
	v.stateMu.RUnlock()

	if pending == nil {
		v.closeDialog()
		return nil
	}
	target := *pending

	ids, err := v.deps.Store.IDs(ctx, v.userID)
	if err != nil {
		return fmt.Errorf("read wishlist: %w", err)
	}
	updated := ids.Without(target)
	if err := v.deps.Store.Save(ctx, v.userID, updated); err != nil {
		return fmt.Errorf("save wishlist: %w", err)
	}

	v.stateMu.Lock()
	v.courses = domain.FilterCourses(v.courses, target)
	v.stateMu.Unlock()

	removals.Inc()
	if err := v.deps.Counter.PublishCount(ctx, v.userID, len(updated)); err != nil {
		v.deps.Logger.WarnContext(ctx, "failed to publish wishlist count",
			slog.String("user_id", v.userID),
			slog.Int("count", len(updated)),
			slog.String("error", err.Error()),
		)
	}

	v.deps.Logger.InfoContext(ctx, "course removed from wishlist",
		slog.String("user_id", v.userID),
		slog.String("course_id", target.String()),
		slog.Int("count", len(updated)),
	)

	v.closeDialog()
	return nil
}

// Render returns the page for the current state.
func (v *View) Render() Page {
	v.touch()

	v.stateMu.RLock()
	defer v.stateMu.RUnlock()

	return renderPage(v.loading, v.courses, v.dialogOpen, v.courseToDelete)
}

func (v *View) touch() {
	v.lastUsed.Store(time.Now().UnixNano())
}

// idleSince reports whether the view has not been used since t.
func (v *View) idleSince(t time.Time) bool {
	return v.lastUsed.Load() < t.UnixNano()
}
