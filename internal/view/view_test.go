package view

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/wishlist/internal/catalog"
	"github.com/coursehub/wishlist/internal/domain"
	redisrepo "github.com/coursehub/wishlist/internal/repository/redis"
	apperrors "github.com/coursehub/wishlist/pkg/errors"
	"github.com/coursehub/wishlist/pkg/logger"
)

const (
	testUser    = "user-1"
	testBaseURL = "http://courses.test/en"
)

// ============================================================================
// Test doubles
// ============================================================================

type fakeFetcher struct {
	mu      sync.Mutex
	records map[domain.CourseID]domain.CourseRecord
	fail    map[domain.CourseID]bool
	calls   []string
	block   chan struct{}
}

func newFakeFetcher(records ...domain.CourseRecord) *fakeFetcher {
	f := &fakeFetcher{records: map[domain.CourseID]domain.CourseRecord{}, fail: map[domain.CourseID]bool{}}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, baseURL string, id domain.CourseID) (domain.CourseRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, baseURL+"/"+id.String())
	block := f.block
	failing := f.fail[id]
	rec, ok := f.records[id]
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.CourseRecord{}, ctx.Err()
		}
	}
	if failing {
		return domain.CourseRecord{}, errors.New("connection reset")
	}
	if !ok {
		return domain.CourseRecord{}, apperrors.NotFound("course-api", id.String())
	}
	return rec, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeCounter struct {
	mu        sync.Mutex
	published []int
	err       error
}

func (c *fakeCounter) PublishCount(_ context.Context, _ string, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, n)
	return c.err
}

func (c *fakeCounter) last() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.published) == 0 {
		return 0, false
	}
	return c.published[len(c.published)-1], true
}

type harness struct {
	mr      *miniredis.Miniredis
	store   *redisrepo.WishlistRepository
	fetcher *fakeFetcher
	counter *fakeCounter
	logs    *bytes.Buffer
	deps    Deps
}

func newHarness(t *testing.T, stored string, records ...domain.CourseRecord) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	if stored != "" {
		require.NoError(t, mr.Set("wishlist:ids:"+testUser, stored))
	}

	logs := &bytes.Buffer{}
	h := &harness{
		mr:      mr,
		store:   redisrepo.NewWishlistRepository(client),
		fetcher: newFakeFetcher(records...),
		counter: &fakeCounter{},
		logs:    logs,
	}
	h.deps = Deps{
		Store:   h.store,
		Fetcher: h.fetcher,
		Counter: h.counter,
		Logger:  logger.NewWithWriter("wishlist-service", "debug", logs),
	}
	return h
}

func (h *harness) storedIDs(t *testing.T) domain.WishlistIDs {
	t.Helper()
	ids, err := h.store.IDs(context.Background(), testUser)
	require.NoError(t, err)
	return ids
}

func course(id, title string) domain.CourseRecord {
	return domain.CourseRecord{
		ID:    domain.CourseID(id),
		Title: title,
		Image: "https://img.test/" + id + ".jpg",
		VisibleInstructors: []domain.Instructor{
			{DisplayName: "Instructor " + id, Image: "https://img.test/i" + id + ".jpg"},
		},
	}
}

func titles(p Page) []string {
	out := make([]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		out = append(out, r.Title)
	}
	return out
}

func loadedView(t *testing.T, h *harness) *View {
	t.Helper()
	v := New(testUser, h.deps)
	require.NoError(t, v.Load(context.Background(), testBaseURL))
	return v
}

// ============================================================================
// Load / Render
// ============================================================================

func TestNew_InitialStateIsLoading(t *testing.T) {
	h := newHarness(t, "")

	p := New(testUser, h.deps).Render()

	assert.Equal(t, Page{Loading: true}, p)
}

func TestLoad_EmptyStoreMakesNoRequests(t *testing.T) {
	h := newHarness(t, "")

	p := loadedView(t, h).Render()

	assert.False(t, p.Loading)
	assert.True(t, p.Empty)
	assert.Equal(t, EmptyMessage, p.EmptyMessage)
	assert.Equal(t, PageTitle, p.Title)
	assert.Empty(t, p.Rows)
	assert.Zero(t, h.fetcher.callCount())
}

func TestLoad_RowsFollowStoredOrder(t *testing.T) {
	h := newHarness(t, `["303","101","202"]`, course("101", "A"), course("202", "B"), course("303", "C"))

	p := loadedView(t, h).Render()

	assert.Equal(t, []string{"C", "A", "B"}, titles(p))
	assert.Equal(t, 3, h.fetcher.callCount())
	assert.Contains(t, h.fetcher.calls, testBaseURL+"/101")
}

func TestRender_RowDetails(t *testing.T) {
	noInstructor := domain.CourseRecord{ID: "202", Title: "B", Image: "https://img.test/202.jpg"}
	h := newHarness(t, `["101","202"]`, course("101", "A"), noInstructor)

	p := loadedView(t, h).Render()

	require.Len(t, p.Rows, 2)
	assert.Equal(t, Row{
		Index:            0,
		CourseID:         "101",
		Title:            "A",
		Image:            "https://img.test/101.jpg",
		ImageAlt:         "Course: A",
		InstructorName:   "Instructor 101",
		InstructorAvatar: "https://img.test/i101.jpg",
		Background:       EvenRowBackground,
	}, p.Rows[0])
	assert.Equal(t, OddRowBackground, p.Rows[1].Background)
	assert.Equal(t, domain.UnknownInstructorName, p.Rows[1].InstructorName)
	assert.Empty(t, p.Rows[1].InstructorAvatar)
	require.NotNil(t, p.Dialog)
	assert.False(t, p.Dialog.Open)
}

func TestLoad_AnyFailureKeepsEmptyList(t *testing.T) {
	h := newHarness(t, `["101","202"]`, course("101", "A"))

	v := New(testUser, h.deps)
	err := v.Load(context.Background(), testBaseURL)

	require.NoError(t, err)
	p := v.Render()
	assert.False(t, p.Loading)
	assert.True(t, p.Empty)
	assert.Contains(t, h.logs.String(), "error fetching courses")
}

func TestLoad_FailureKeepsPreviousCourses(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	v := loadedView(t, h)

	h.fetcher.mu.Lock()
	h.fetcher.fail["101"] = true
	h.fetcher.mu.Unlock()
	require.NoError(t, v.Load(context.Background(), "http://courses.test/tr"))

	assert.Equal(t, []string{"A"}, titles(v.Render()))
}

func TestLoad_StoreErrorIsReturned(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	h.mr.Close()

	v := New(testUser, h.deps)
	err := v.Load(context.Background(), testBaseURL)

	require.Error(t, err)
	assert.False(t, v.Render().Loading)
	assert.Zero(t, h.fetcher.callCount())
}

func TestRender_LoadingWhileBatchInFlight(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	h.fetcher.block = make(chan struct{})
	v := New(testUser, h.deps)

	done := make(chan error, 1)
	go func() { done <- v.Load(context.Background(), testBaseURL) }()

	require.Eventually(t, func() bool { return h.fetcher.callCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Page{Loading: true}, v.Render())

	close(h.fetcher.block)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"A"}, titles(v.Render()))
}

func TestSetBaseURL_ReloadsOnlyOnChange(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	v := loadedView(t, h)
	ctx := context.Background()

	require.NoError(t, v.SetBaseURL(ctx, testBaseURL))
	assert.Equal(t, 1, h.fetcher.callCount())

	require.NoError(t, v.SetBaseURL(ctx, "http://courses.test/tr"))
	assert.Equal(t, 2, h.fetcher.callCount())
	assert.Equal(t, "http://courses.test/tr", v.BaseURL())
}

// ============================================================================
// Dialog and removal
// ============================================================================

func TestConfirmDelete_RemovesFirstOfTwo(t *testing.T) {
	h := newHarness(t, `["101","202"]`, course("101", "A"), course("202", "B"))
	v := loadedView(t, h)
	assert.Equal(t, []string{"A", "B"}, titles(v.Render()))

	v.OpenDialog("101")
	require.NoError(t, v.ConfirmDelete(context.Background()))

	assert.Equal(t, domain.WishlistIDs{"202"}, h.storedIDs(t))
	assert.Equal(t, []string{"B"}, titles(v.Render()))
	n, ok := h.counter.last()
	require.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestOpenDialog_SetsPendingCourse(t *testing.T) {
	h := newHarness(t, `["101","202"]`, course("101", "A"), course("202", "B"))
	v := loadedView(t, h)

	v.OpenDialog("202")

	p := v.Render()
	require.NotNil(t, p.Dialog)
	assert.True(t, p.Dialog.Open)
	assert.Equal(t, "B", p.Dialog.CourseName)
	require.NotNil(t, p.Dialog.CourseID)
	assert.Equal(t, domain.CourseID("202"), *p.Dialog.CourseID)
}

func TestDialog_UnknownCourseName(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	v := loadedView(t, h)

	v.OpenDialog("999")

	assert.Equal(t, UnknownCourseName, v.Render().Dialog.CourseName)
}

func TestCloseDialog_LeavesEverythingUnchanged(t *testing.T) {
	h := newHarness(t, `["101","202"]`, course("101", "A"), course("202", "B"))
	v := loadedView(t, h)
	before := v.Render()

	v.OpenDialog("101")
	v.CloseDialog()
	v.CloseDialog()

	assert.Equal(t, before, v.Render())
	assert.Equal(t, domain.WishlistIDs{"101", "202"}, h.storedIDs(t))
	_, published := h.counter.last()
	assert.False(t, published)
}

func TestConfirmDelete_WithoutTargetOnlyCloses(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	v := loadedView(t, h)

	require.NoError(t, v.ConfirmDelete(context.Background()))

	assert.False(t, v.Render().Dialog.Open)
	assert.Equal(t, domain.WishlistIDs{"101"}, h.storedIDs(t))
	_, published := h.counter.last()
	assert.False(t, published)
}

func TestOpenCancelOpenConfirm_EqualsOpenConfirm(t *testing.T) {
	run := func(t *testing.T, cancelFirst bool) (Page, domain.WishlistIDs, []int) {
		h := newHarness(t, `["101","202"]`, course("101", "A"), course("202", "B"))
		v := loadedView(t, h)
		if cancelFirst {
			v.OpenDialog("101")
			v.CloseDialog()
		}
		v.OpenDialog("101")
		require.NoError(t, v.ConfirmDelete(context.Background()))
		return v.Render(), h.storedIDs(t), h.counter.published
	}

	p1, ids1, pub1 := run(t, false)
	p2, ids2, pub2 := run(t, true)

	assert.Equal(t, p1, p2)
	assert.Equal(t, ids1, ids2)
	assert.Equal(t, pub1, pub2)
}

func TestConfirmDelete_RemovesDuplicatesAndCountsStore(t *testing.T) {
	h := newHarness(t, `["101","202","101","303"]`, course("101", "A"), course("202", "B"), course("303", "C"))
	v := loadedView(t, h)

	v.OpenDialog("101")
	require.NoError(t, v.ConfirmDelete(context.Background()))

	assert.Equal(t, domain.WishlistIDs{"202", "303"}, h.storedIDs(t))
	assert.Equal(t, []string{"B", "C"}, titles(v.Render()))
	n, _ := h.counter.last()
	assert.Equal(t, 2, n)
}

func TestConfirmDelete_UsesCurrentStore(t *testing.T) {
	h := newHarness(t, `["101","202"]`, course("101", "A"), course("202", "B"))
	v := loadedView(t, h)

	// Another surface added a course after the view loaded.
	require.NoError(t, h.mr.Set("wishlist:ids:"+testUser, `["101","202","404"]`))
	v.OpenDialog("101")
	require.NoError(t, v.ConfirmDelete(context.Background()))

	assert.Equal(t, domain.WishlistIDs{"202", "404"}, h.storedIDs(t))
	n, _ := h.counter.last()
	assert.Equal(t, 2, n)
}

func TestConfirmDelete_CountsFailedBatchStore(t *testing.T) {
	h := newHarness(t, `["101","202"]`, course("101", "A"))
	v := loadedView(t, h)
	require.True(t, v.Render().Empty)

	v.OpenDialog("202")
	require.NoError(t, v.ConfirmDelete(context.Background()))

	assert.Equal(t, domain.WishlistIDs{"101"}, h.storedIDs(t))
	n, _ := h.counter.last()
	assert.Equal(t, 1, n)
}

func TestConfirmDelete_StoreFailureKeepsState(t *testing.T) {
	h := newHarness(t, `["101","202"]`, course("101", "A"), course("202", "B"))
	v := loadedView(t, h)
	v.OpenDialog("101")
	h.mr.Close()

	err := v.ConfirmDelete(context.Background())

	require.Error(t, err)
	p := v.Render()
	assert.Equal(t, []string{"A", "B"}, titles(p))
	assert.True(t, p.Dialog.Open)
	assert.Equal(t, "A", p.Dialog.CourseName)
	_, published := h.counter.last()
	assert.False(t, published)
}

func TestConfirmDelete_CounterFailureIsLogged(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	h.counter.err = errors.New("redis down")
	v := loadedView(t, h)

	v.OpenDialog("101")
	err := v.ConfirmDelete(context.Background())

	require.NoError(t, err)
	assert.Empty(t, h.storedIDs(t))
	assert.True(t, v.Render().Empty)
	assert.False(t, v.Render().Dialog.Open)
	assert.Contains(t, h.logs.String(), "failed to publish wishlist count")
}

// ============================================================================
// Registry
// ============================================================================

func newTestRegistry(h *harness) *Registry {
	return NewRegistry(h.deps, catalog.NewLocales(map[string]string{
		"en": testBaseURL,
		"tr": "http://courses.test/tr",
	}, "en"))
}

func TestRegistry_MountLoadsAndGetReturnsView(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	r := newTestRegistry(h)

	v, err := r.Mount(context.Background(), testUser, "en")
	require.NoError(t, err)

	got, err := r.Get(testUser)
	require.NoError(t, err)
	assert.Same(t, v, got)
	assert.Equal(t, []string{"A"}, titles(got.Render()))
}

func TestRegistry_MountReplacesExistingView(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	r := newTestRegistry(h)
	ctx := context.Background()

	first, err := r.Mount(ctx, testUser, "en")
	require.NoError(t, err)
	first.OpenDialog("101")

	second, err := r.Mount(ctx, testUser, "en")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.False(t, second.Render().Dialog.Open)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, h.fetcher.callCount())
}

func TestRegistry_AttachReusesView(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	r := newTestRegistry(h)
	ctx := context.Background()

	v, err := r.Attach(ctx, testUser, "en")
	require.NoError(t, err)
	v.OpenDialog("101")

	again, err := r.Attach(ctx, testUser, "en")
	require.NoError(t, err)
	assert.Same(t, v, again)
	assert.True(t, again.Render().Dialog.Open)
	assert.Equal(t, 1, h.fetcher.callCount())

	_, err = r.Attach(ctx, testUser, "tr")
	require.NoError(t, err)
	assert.Equal(t, 2, h.fetcher.callCount())
	assert.Equal(t, "http://courses.test/tr", v.BaseURL())
}

func TestRegistry_MountStoreFailureLeavesNothingMounted(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	r := newTestRegistry(h)
	h.mr.Close()

	_, err := r.Mount(context.Background(), testUser, "en")

	require.Error(t, err)
	assert.Zero(t, r.Len())
}

func TestRegistry_GetUnknownUser(t *testing.T) {
	h := newHarness(t, "")
	r := newTestRegistry(h)

	_, err := r.Get("nobody")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRegistry_RequiresUser(t *testing.T) {
	h := newHarness(t, "")
	r := newTestRegistry(h)

	_, err := r.Mount(context.Background(), "", "en")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = r.Attach(context.Background(), "", "en")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestRegistry_Unmount(t *testing.T) {
	h := newHarness(t, "")
	r := newTestRegistry(h)
	_, err := r.Mount(context.Background(), testUser, "en")
	require.NoError(t, err)

	r.Unmount(testUser)
	r.Unmount(testUser)

	assert.Zero(t, r.Len())
}

func TestRegistry_SweepDropsIdleViews(t *testing.T) {
	h := newHarness(t, "")
	r := newTestRegistry(h)
	ctx := context.Background()

	idle, err := r.Mount(ctx, "idle-user", "en")
	require.NoError(t, err)
	_, err = r.Mount(ctx, testUser, "en")
	require.NoError(t, err)

	idle.lastUsed.Store(time.Now().Add(-time.Hour).UnixNano())

	assert.Equal(t, 1, r.Sweep(30*time.Minute))
	_, err = r.Get("idle-user")
	assert.Error(t, err)
	_, err = r.Get(testUser)
	assert.NoError(t, err)
}

func TestRegistry_AttachKeepsViewAliveAcrossSweep(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	r := newTestRegistry(h)
	ctx := context.Background()

	v, err := r.Mount(ctx, testUser, "en")
	require.NoError(t, err)
	v.lastUsed.Store(time.Now().Add(-time.Hour).UnixNano())

	attached, err := r.Attach(ctx, testUser, "en")
	require.NoError(t, err)
	assert.Same(t, v, attached)

	assert.Zero(t, r.Sweep(30*time.Minute))
	got, err := r.Get(testUser)
	require.NoError(t, err)
	assert.Same(t, v, got)
}

func TestRegistry_GetKeepsViewAliveAcrossSweep(t *testing.T) {
	h := newHarness(t, "")
	r := newTestRegistry(h)

	v, err := r.Mount(context.Background(), testUser, "en")
	require.NoError(t, err)
	v.lastUsed.Store(time.Now().Add(-time.Hour).UnixNano())

	_, err = r.Get(testUser)
	require.NoError(t, err)

	assert.Zero(t, r.Sweep(30*time.Minute))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ConcurrentAttachAndSweep(t *testing.T) {
	h := newHarness(t, `["101"]`, course("101", "A"))
	r := newTestRegistry(h)
	ctx := context.Background()

	_, err := r.Mount(ctx, testUser, "en")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				v, err := r.Attach(ctx, testUser, "en")
				if assert.NoError(t, err) {
					assert.False(t, v.idleSince(time.Now().Add(-time.Minute)))
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Sweep(time.Minute)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RunSweeperStopsWithContext(t *testing.T) {
	h := newHarness(t, "")
	r := newTestRegistry(h)
	v, err := r.Mount(context.Background(), testUser, "en")
	require.NoError(t, err)
	v.lastUsed.Store(time.Now().Add(-time.Hour).UnixNano())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunSweeper(ctx, 5*time.Millisecond, time.Minute)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
