package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"campusnet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterEncode(t *testing.T) {
	q := url.Values{}
	Where().
		Eq("follower_id", "u1").
		Eq("following_id", "u2").
		SearchAny("smith", "name", "major").
		Encode(q)

	assert.Equal(t, "eq.u1", q.Get("follower_id"))
	assert.Equal(t, "eq.u2", q.Get("following_id"))
	assert.Equal(t, "(name.ilike.*smith*,major.ilike.*smith*)", q.Get("or"))
}

func TestSelectDecodesRowsAndSendsAuth(t *testing.T) {
	var gotPath, gotAuth, gotOrder string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotOrder = r.URL.Query().Get("order")
		_ = json.NewEncoder(w).Encode([]models.Post{{ID: "p1"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key", func() string { return "tok" })

	var posts []models.Post
	err := c.Select(context.Background(), "posts", SelectOptions{
		Columns: "*, author:profiles(*)",
		OrderBy: "created_at",
		Desc:    true,
	}, &posts)
	require.NoError(t, err)

	assert.Equal(t, "/rest/posts", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "created_at.desc", gotOrder)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
}

func TestSelectWrapsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "relation does not exist"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", func() string { return "" })
	err := c.Select(context.Background(), "posts", SelectOptions{}, nil)

	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "REMOTE_ERROR", appErr.Code)
	assert.Contains(t, appErr.Err.Error(), "relation does not exist")
}

func TestCountParsesContentRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
		w.Header().Set("Content-Range", "0-0/42")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", func() string { return "" })
	n, err := c.Count(context.Background(), "user_follows", Where().Eq("following_id", "u2"))
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestInsertRequestsRepresentation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.NotEmpty(t, r.URL.Query().Get("select"))

		var row map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		assert.Equal(t, "hello", row["content"])

		_ = json.NewEncoder(w).Encode(models.Comment{ID: 7, Content: "hello"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", func() string { return "" })

	var created models.Comment
	err := c.Insert(context.Background(), "comments",
		map[string]any{"post_id": "p1", "content": "hello"},
		"*, author:profiles(*)", &created)
	require.NoError(t, err)
	assert.Equal(t, uint(7), created.ID)
}

func TestParallelFirstCallsAcrossTables(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", func() string { return "" })

	// The initial load fires profile, posts and clubs fetches in parallel over
	// one client, so the first call for each table races with the others.
	tables := []string{"profiles", "user_follows", "posts", "clubs", "comments", "club_members"}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		for _, table := range tables {
			wg.Add(1)
			go func(table string) {
				defer wg.Done()
				var rows []map[string]any
				assert.NoError(t, c.Select(context.Background(), table, SelectOptions{}, &rows))
			}(table)
		}
	}
	wg.Wait()
}

func TestDeleteEncodesMatchFilter(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		got = r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", func() string { return "" })
	err := c.Delete(context.Background(), "club_members",
		Where().Match([2]string{"club_id", "c1"}, [2]string{"user_id", "u1"}))
	require.NoError(t, err)
	assert.Equal(t, "eq.c1", got.Get("club_id"))
	assert.Equal(t, "eq.u1", got.Get("user_id"))
}
