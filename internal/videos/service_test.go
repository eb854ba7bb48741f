package videos

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vidshare/backend/internal/history"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/pkg/apperr"
	"github.com/vidshare/backend/pkg/queue"
	"github.com/vidshare/backend/pkg/storage"
)

type fakeStore struct {
	mu     sync.Mutex
	videos []*models.VideoWithOwner
	err    error
}

func (f *fakeStore) add(owner models.OwnerProfile, title string, views int64, published bool) *models.VideoWithOwner {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := &models.VideoWithOwner{Owner: owner}
	v.ID = uuid.New()
	v.OwnerID = owner.ID
	v.Title = title
	v.Views = views
	v.IsPublished = published
	v.VideoKey = "videos/" + v.ID.String() + ".mp4"
	v.ThumbnailKey = "thumbnails/" + v.ID.String() + ".jpg"
	v.CreatedAt = time.Unix(int64(len(f.videos)), 0)
	f.videos = append(f.videos, v)
	return v
}

func (f *fakeStore) find(id uuid.UUID) (*models.VideoWithOwner, int) {
	for i, v := range f.videos {
		if v.ID == id {
			return v, i
		}
	}
	return nil, -1
}

func (f *fakeStore) Create(_ context.Context, p CreateParams) (*models.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	v := f.add(models.OwnerProfile{ID: p.OwnerID}, p.Title, 0, true)
	v.VideoURL, v.VideoKey = p.VideoURL, p.VideoKey
	v.ThumbnailURL, v.ThumbnailKey = p.ThumbnailURL, p.ThumbnailKey
	v.Duration = p.Duration
	out := v.Video
	return &out, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	d, err := f.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return &d.Video, nil
}

func (f *fakeStore) GetDetail(_ context.Context, id uuid.UUID) (*models.VideoWithOwner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, _ := f.find(id)
	if v == nil {
		return nil, fmt.Errorf("get video: %w", pgxNoRows)
	}
	out := *v
	return &out, nil
}

func (f *fakeStore) List(_ context.Context, lf ListFilter) ([]models.VideoWithOwner, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var matched []models.VideoWithOwner
	for _, v := range f.videos {
		if lf.OwnerID != nil && v.OwnerID != *lf.OwnerID {
			continue
		}
		if lf.Username != "" && v.Owner.Username != strings.ToLower(lf.Username) {
			continue
		}
		if lf.Query != "" && !strings.Contains(strings.ToLower(v.Title), strings.ToLower(lf.Query)) {
			continue
		}
		if lf.PublishedOnly && !v.IsPublished {
			continue
		}
		matched = append(matched, *v)
	}
	if lf.Sort.Column == "views" {
		sort.SliceStable(matched, func(i, j int) bool {
			if lf.Sort.Desc {
				return matched[i].Views > matched[j].Views
			}
			return matched[i].Views < matched[j].Views
		})
	}
	total := len(matched)
	if lf.Offset >= total {
		return nil, total, nil
	}
	end := lf.Offset + lf.Limit
	if end > total {
		end = total
	}
	return matched[lf.Offset:end], total, nil
}

func (f *fakeStore) Update(_ context.Context, id uuid.UUID, p UpdateParams) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, _ := f.find(id)
	if v == nil {
		return nil, pgxNoRows
	}
	if p.Title != nil {
		v.Title = *p.Title
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.ThumbnailKey != nil {
		v.ThumbnailURL, v.ThumbnailKey = *p.ThumbnailURL, *p.ThumbnailKey
	}
	out := v.Video
	return &out, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, i := f.find(id)
	if v == nil {
		return nil, pgxNoRows
	}
	f.videos = append(f.videos[:i], f.videos[i+1:]...)
	out := v.Video
	return &out, nil
}

func (f *fakeStore) TogglePublished(_ context.Context, id uuid.UUID) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, _ := f.find(id)
	if v == nil {
		return nil, pgxNoRows
	}
	v.IsPublished = !v.IsPublished
	out := v.Video
	return &out, nil
}

type fakeMedia struct {
	calls []storage.MediaKind
	fail  storage.MediaKind
	err   error
}

func (m *fakeMedia) Store(_ context.Context, path string, kind storage.MediaKind) (*storage.MediaObject, error) {
	m.calls = append(m.calls, kind)
	if kind == m.fail {
		return nil, m.err
	}
	key := storage.ObjectKey(kind, path)
	obj := &storage.MediaObject{Key: key, URL: "https://media.example.com/" + key}
	if kind == storage.KindVideo {
		obj.DurationSeconds = 12.5
	}
	return obj, nil
}

type fakeViews struct {
	seen map[[2]uuid.UUID]bool
}

func (v *fakeViews) RecordView(_ context.Context, userID, videoID uuid.UUID) (history.ViewResult, error) {
	if v.seen == nil {
		v.seen = map[[2]uuid.UUID]bool{}
	}
	k := [2]uuid.UUID{userID, videoID}
	added := !v.seen[k]
	v.seen[k] = true
	var n int64
	for key := range v.seen {
		if key[1] == videoID {
			n++
		}
	}
	return history.ViewResult{Added: added, Views: n}, nil
}

type fakeCleanup struct {
	payloads []queue.MediaCleanupPayload
}

func (c *fakeCleanup) EnqueueMediaCleanup(_ context.Context, p queue.MediaCleanupPayload) error {
	c.payloads = append(c.payloads, p)
	return nil
}

var pgxNoRows = pgx.ErrNoRows

type fixture struct {
	store   *fakeStore
	media   *fakeMedia
	views   *fakeViews
	cleanup *fakeCleanup
	svc     *Service
}

func newFixture() *fixture {
	f := &fixture{store: &fakeStore{}, media: &fakeMedia{}, views: &fakeViews{}, cleanup: &fakeCleanup{}}
	f.svc = NewService(f.store, f.media, f.views, f.cleanup, nil)
	return f
}

func TestListPagination(t *testing.T) {
	f := newFixture()
	owner := models.OwnerProfile{ID: uuid.New(), Username: "alice"}
	for i := 0; i < 25; i++ {
		f.store.add(owner, fmt.Sprintf("video %d", i), int64(i), true)
	}

	page, err := f.svc.List(context.Background(), ListParams{Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Videos) != 10 || page.TotalVideos != 25 || page.TotalPages != 3 || page.CurrentPage != 2 {
		t.Fatalf("page = %d videos, total %d, pages %d, current %d",
			len(page.Videos), page.TotalVideos, page.TotalPages, page.CurrentPage)
	}

	last, err := f.svc.List(context.Background(), ListParams{Page: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(last.Videos) != 5 {
		t.Fatalf("last page has %d videos, want 5", len(last.Videos))
	}
}

func TestListNoMatchesIsEmptySuccess(t *testing.T) {
	f := newFixture()
	f.store.add(models.OwnerProfile{ID: uuid.New()}, "cooking basics", 0, true)

	page, err := f.svc.List(context.Background(), ListParams{Page: 1, PageSize: 10, Query: "astronomy"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Videos == nil || len(page.Videos) != 0 || page.TotalVideos != 0 || page.TotalPages != 0 {
		t.Fatalf("page = %+v, want empty", page)
	}
}

func TestListFilters(t *testing.T) {
	f := newFixture()
	alice := models.OwnerProfile{ID: uuid.New(), Username: "alice"}
	bob := models.OwnerProfile{ID: uuid.New(), Username: "bob"}
	f.store.add(alice, "Go Tutorial", 3, true)
	f.store.add(alice, "go concurrency", 9, true)
	f.store.add(alice, "draft", 0, false)
	f.store.add(bob, "GO generics", 1, true)

	page, err := f.svc.List(context.Background(), ListParams{
		Page: 1, PageSize: 10, Query: "go", Username: "ALICE", SortBy: "views", SortType: "desc", PublishedOnly: true,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalVideos != 2 || page.Videos[0].Title != "go concurrency" || page.Videos[1].Title != "Go Tutorial" {
		t.Fatalf("unexpected page: %+v", page.Videos)
	}

	page, err = f.svc.List(context.Background(), ListParams{Page: 1, PageSize: 10, OwnerID: &alice.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalVideos != 3 {
		t.Fatalf("owner listing total = %d, want 3", page.TotalVideos)
	}
}

func TestListRejectsInvalidInput(t *testing.T) {
	f := newFixture()
	tests := []ListParams{
		{Page: 0, PageSize: 10},
		{Page: -1, PageSize: 10},
		{Page: 1, PageSize: 0},
		{Page: 1, PageSize: -5},
		{Page: 1, PageSize: MaxPageSize + 1},
		{Page: 1, PageSize: 10, SortBy: "email"},
		{Page: math.MaxInt/10 + 2, PageSize: 10},
		{Page: math.MaxInt, PageSize: MaxPageSize},
	}
	for _, p := range tests {
		if _, err := f.svc.List(context.Background(), p); !apperr.Is(err, apperr.KindInvalidInput) {
			t.Errorf("List(%+v) err = %v, want invalid input", p, err)
		}
	}
}

func TestListLastAddressablePage(t *testing.T) {
	f := newFixture()
	f.store.add(models.OwnerProfile{ID: uuid.New()}, "only", 0, true)

	page := (math.MaxInt-1)/10 + 1
	got, err := f.svc.List(context.Background(), ListParams{Page: page, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got.Videos) != 0 || got.TotalVideos != 1 || got.CurrentPage != page {
		t.Fatalf("page = %+v, want empty page past the end", got)
	}
}

func TestListStoreFailure(t *testing.T) {
	f := newFixture()
	f.store.err = errors.New("connection refused")
	if _, err := f.svc.List(context.Background(), ListParams{Page: 1, PageSize: 10}); !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("err = %v, want upstream failure", err)
	}
}

func TestPublishRequiresFieldsBeforeUpload(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	tests := []PublishInput{
		{Title: "", VideoPath: "a.mp4", ThumbnailPath: "a.jpg"},
		{Title: "   ", VideoPath: "a.mp4", ThumbnailPath: "a.jpg"},
		{Title: "t", VideoPath: "", ThumbnailPath: "a.jpg"},
		{Title: "t", VideoPath: "a.mp4", ThumbnailPath: ""},
	}
	for _, in := range tests {
		if _, err := f.svc.Publish(context.Background(), owner, in); !apperr.Is(err, apperr.KindInvalidInput) {
			t.Errorf("Publish(%+v) err = %v, want invalid input", in, err)
		}
	}
	if len(f.media.calls) != 0 {
		t.Fatalf("media store called %d times, want 0", len(f.media.calls))
	}
}

func TestPublishStoresMediaAndDuration(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	v, err := f.svc.Publish(context.Background(), owner, PublishInput{
		Title: " My video ", Description: "desc", VideoPath: "/tmp/a.mp4", ThumbnailPath: "/tmp/a.png",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if v.Title != "My video" || v.OwnerID != owner || v.Duration != 12.5 || !v.IsPublished || v.Views != 0 {
		t.Fatalf("unexpected video: %+v", v)
	}
	if !strings.HasPrefix(v.VideoKey, "videos/") || !strings.HasPrefix(v.ThumbnailKey, "thumbnails/") {
		t.Fatalf("keys = %q, %q", v.VideoKey, v.ThumbnailKey)
	}
}

func TestPublishMediaFailure(t *testing.T) {
	f := newFixture()
	f.media.fail = storage.KindThumbnail
	f.media.err = errors.New("s3 unavailable")

	_, err := f.svc.Publish(context.Background(), uuid.New(), PublishInput{
		Title: "t", VideoPath: "/tmp/a.mp4", ThumbnailPath: "/tmp/a.jpg",
	})
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("err = %v, want upstream failure", err)
	}
	if len(f.media.calls) != 2 {
		t.Fatalf("media calls = %v, want one attempt per file", f.media.calls)
	}
	if len(f.store.videos) != 0 {
		t.Fatal("video must not be created when media storage fails")
	}
	if len(f.cleanup.payloads) != 1 || len(f.cleanup.payloads[0].Keys) != 1 {
		t.Fatalf("cleanup payloads = %+v, want the stored video object", f.cleanup.payloads)
	}
}

func TestPublishUnsupportedMedia(t *testing.T) {
	tests := []struct {
		name string
		in   PublishInput
	}{
		{"video", PublishInput{Title: "t", VideoPath: "/tmp/a.txt", ThumbnailPath: "/tmp/a.jpg"}},
		{"thumbnail", PublishInput{Title: "t", VideoPath: "/tmp/a.mp4", ThumbnailPath: "/tmp/a.bmp"}},
		{"no extension", PublishInput{Title: "t", VideoPath: "/tmp/a.mp4", ThumbnailPath: "/tmp/thumb"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Publish(context.Background(), uuid.New(), tc.in)
			if !apperr.Is(err, apperr.KindInvalidInput) {
				t.Fatalf("err = %v, want invalid input", err)
			}
			if len(f.media.calls) != 0 || len(f.cleanup.payloads) != 0 {
				t.Fatalf("media calls = %v, cleanup = %+v; want nothing uploaded", f.media.calls, f.cleanup.payloads)
			}
		})
	}
}

func TestPublishMediaStoreRejectsType(t *testing.T) {
	f := newFixture()
	f.media.fail = storage.KindVideo
	f.media.err = fmt.Errorf("%w: video \".mp4\"", storage.ErrUnsupportedMedia)

	_, err := f.svc.Publish(context.Background(), uuid.New(), PublishInput{
		Title: "t", VideoPath: "/tmp/a.mp4", ThumbnailPath: "/tmp/a.jpg",
	})
	if !apperr.Is(err, apperr.KindInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestUpdateRejectsUnsupportedThumbnail(t *testing.T) {
	f := newFixture()
	owner := models.OwnerProfile{ID: uuid.New()}
	v := f.store.add(owner, "clip", 0, true)

	_, err := f.svc.Update(context.Background(), owner.ID, v.ID, UpdateInput{ThumbnailPath: "/tmp/new.tiff"})
	if !apperr.Is(err, apperr.KindInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
	if len(f.media.calls) != 0 {
		t.Fatalf("media calls = %v, want none", f.media.calls)
	}
}

func TestGetRecordsViewOnce(t *testing.T) {
	f := newFixture()
	owner := models.OwnerProfile{ID: uuid.New(), Username: "alice"}
	v := f.store.add(owner, "clip", 0, true)
	viewer := uuid.New()

	for i := 0; i < 2; i++ {
		got, err := f.svc.Get(context.Background(), viewer, v.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Views != 1 {
			t.Fatalf("views after call %d = %d, want 1", i+1, got.Views)
		}
		if got.Owner.Username != "alice" {
			t.Fatalf("owner = %+v", got.Owner)
		}
	}
}

func TestGetUnknownAndUnpublished(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Get(context.Background(), uuid.New(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown id err = %v, want not found", err)
	}

	owner := models.OwnerProfile{ID: uuid.New()}
	draft := f.store.add(owner, "draft", 0, false)
	if _, err := f.svc.Get(context.Background(), uuid.New(), draft.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unpublished err = %v, want not found", err)
	}
	if _, err := f.svc.Get(context.Background(), owner.ID, draft.ID); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
}

func TestDeleteUnknownIsNotFound(t *testing.T) {
	f := newFixture()
	err := f.svc.Delete(context.Background(), uuid.New(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if len(f.cleanup.payloads) != 0 {
		t.Fatal("nothing should be scheduled for cleanup")
	}
}

func TestDeleteOwnerOnlyAndSchedulesCleanup(t *testing.T) {
	f := newFixture()
	owner := models.OwnerProfile{ID: uuid.New()}
	v := f.store.add(owner, "clip", 0, true)

	if err := f.svc.Delete(context.Background(), uuid.New(), v.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("non-owner err = %v, want forbidden", err)
	}
	if err := f.svc.Delete(context.Background(), owner.ID, v.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(f.store.videos) != 0 {
		t.Fatal("video still stored")
	}
	if len(f.cleanup.payloads) != 1 || f.cleanup.payloads[0].VideoID != v.ID || len(f.cleanup.payloads[0].Keys) != 2 {
		t.Fatalf("cleanup payloads = %+v", f.cleanup.payloads)
	}
	if err := f.svc.Delete(context.Background(), owner.ID, v.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second delete err = %v, want not found", err)
	}
}

func TestTogglePublish(t *testing.T) {
	f := newFixture()
	owner := models.OwnerProfile{ID: uuid.New()}
	v := f.store.add(owner, "clip", 0, true)

	got, err := f.svc.TogglePublish(context.Background(), owner.ID, v.ID)
	if err != nil || got.IsPublished {
		t.Fatalf("first toggle = %+v, %v", got, err)
	}
	got, err = f.svc.TogglePublish(context.Background(), owner.ID, v.ID)
	if err != nil || !got.IsPublished {
		t.Fatalf("second toggle = %+v, %v", got, err)
	}
	if _, err := f.svc.TogglePublish(context.Background(), uuid.New(), v.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("non-owner err = %v, want forbidden", err)
	}
}

func TestUpdateReplacesThumbnail(t *testing.T) {
	f := newFixture()
	owner := models.OwnerProfile{ID: uuid.New()}
	v := f.store.add(owner, "clip", 0, true)
	oldThumb := v.ThumbnailKey
	title := "renamed"

	got, err := f.svc.Update(context.Background(), owner.ID, v.ID, UpdateInput{Title: &title, ThumbnailPath: "/tmp/new.webp"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "renamed" || got.ThumbnailKey == oldThumb {
		t.Fatalf("unexpected video: %+v", got)
	}
	if len(f.cleanup.payloads) != 1 || f.cleanup.payloads[0].Keys[0] != oldThumb {
		t.Fatalf("cleanup payloads = %+v, want old thumbnail", f.cleanup.payloads)
	}

	if _, err := f.svc.Update(context.Background(), owner.ID, v.ID, UpdateInput{}); !apperr.Is(err, apperr.KindInvalidInput) {
		t.Fatalf("empty update err = %v, want invalid input", err)
	}
	if _, err := f.svc.Update(context.Background(), uuid.New(), v.ID, UpdateInput{Title: &title}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("non-owner err = %v, want forbidden", err)
	}
}
