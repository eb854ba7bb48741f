package videos

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/vidshare/backend/pkg/database/dbtest"
)

func seedVideos(t *testing.T, repo *Repository, owner uuid.UUID, titles ...string) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(titles))
	for _, title := range titles {
		v, err := repo.Create(context.Background(), CreateParams{
			OwnerID: owner, Title: title, VideoURL: "https://media.example.com/v", ThumbnailURL: "https://media.example.com/t",
		})
		if err != nil {
			t.Fatalf("Create(%q): %v", title, err)
		}
		ids = append(ids, v.ID)
	}
	return ids
}

func TestRepositoryListPagesThroughOwnerVideos(t *testing.T) {
	pool := dbtest.Open(t)
	owner := dbtest.CreateUser(t, pool)
	repo := NewRepository(pool)
	titles := make([]string, 25)
	for i := range titles {
		titles[i] = fmt.Sprintf("clip %02d", i)
	}
	seedVideos(t, repo, owner, titles...)
	svc := NewService(repo, nil, nil, nil, nil)

	seen := map[uuid.UUID]bool{}
	for page, want := range map[int]int{1: 10, 2: 10, 3: 5, 4: 0} {
		got, err := svc.List(context.Background(), ListParams{Page: page, PageSize: 10, OwnerID: &owner})
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if len(got.Videos) != want || got.TotalVideos != 25 || got.TotalPages != 3 {
			t.Fatalf("page %d = %d videos, total %d, pages %d", page, len(got.Videos), got.TotalVideos, got.TotalPages)
		}
		for _, v := range got.Videos {
			if seen[v.ID] {
				t.Fatalf("video %s returned twice", v.ID)
			}
			seen[v.ID] = true
		}
	}
	if len(seen) != 25 {
		t.Fatalf("saw %d distinct videos, want 25", len(seen))
	}
}

func TestRepositoryListSortAndLiteralQuery(t *testing.T) {
	pool := dbtest.Open(t)
	owner := dbtest.CreateUser(t, pool)
	repo := NewRepository(pool)
	ids := seedVideos(t, repo, owner, "100% done", "100 percent", "plain")
	ctx := context.Background()
	for i, views := range []int{5, 9, 5} {
		if _, err := pool.Exec(ctx, `UPDATE videos SET views = $2 WHERE id = $1`, ids[i], views); err != nil {
			t.Fatalf("set views: %v", err)
		}
	}

	list, total, err := repo.List(ctx, ListFilter{OwnerID: &owner, Sort: Sort{Column: "views", Desc: true}, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(list) != 3 {
		t.Fatalf("List = %d videos, total %d; want 3", len(list), total)
	}
	if list[0].ID != ids[1] || list[1].ID != ids[0] || list[2].ID != ids[2] {
		t.Fatalf("order = %v, want views desc with insertion order tie-break", []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})
	}

	list, total, err = repo.List(ctx, ListFilter{OwnerID: &owner, Query: "0%", Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != ids[0] {
		t.Fatalf("query %q matched %d videos", "0%", total)
	}
}
