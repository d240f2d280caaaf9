package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"campusnet/internal/models"
	"campusnet/internal/remote"
	"campusnet/internal/session"
	"campusnet/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dataStub struct {
	SelectFunc func(ctx context.Context, table string, opts remote.SelectOptions, dest any) error
	CountFunc  func(ctx context.Context, table string, filter remote.Filter) (int, error)
	InsertFunc func(ctx context.Context, table string, row any, returning string, dest any) error
	UpdateFunc func(ctx context.Context, table string, filter remote.Filter, patch any, returning string, dest any) error
	DeleteFunc func(ctx context.Context, table string, filter remote.Filter) error
}

func (d *dataStub) Select(ctx context.Context, table string, opts remote.SelectOptions, dest any) error {
	if d.SelectFunc == nil {
		return nil
	}
	return d.SelectFunc(ctx, table, opts, dest)
}

func (d *dataStub) Count(ctx context.Context, table string, filter remote.Filter) (int, error) {
	if d.CountFunc == nil {
		return 0, nil
	}
	return d.CountFunc(ctx, table, filter)
}

func (d *dataStub) Insert(ctx context.Context, table string, row any, returning string, dest any) error {
	if d.InsertFunc == nil {
		return nil
	}
	return d.InsertFunc(ctx, table, row, returning, dest)
}

func (d *dataStub) Update(ctx context.Context, table string, filter remote.Filter, patch any, returning string, dest any) error {
	if d.UpdateFunc == nil {
		return nil
	}
	return d.UpdateFunc(ctx, table, filter, patch, returning, dest)
}

func (d *dataStub) Delete(ctx context.Context, table string, filter remote.Filter) error {
	if d.DeleteFunc == nil {
		return nil
	}
	return d.DeleteFunc(ctx, table, filter)
}

type storageStub struct {
	UploadFunc func(ctx context.Context, bucket, key string, data []byte, contentType string) error
}

func (s *storageStub) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if s.UploadFunc == nil {
		return nil
	}
	return s.UploadFunc(ctx, bucket, key, data, contentType)
}

func (s *storageStub) PublicURL(bucket, key string) string {
	return "https://cdn.example.edu/" + bucket + "/" + key
}

// decodeInto copies seed data into the fetcher's destination the same way the
// wire codec would.
func decodeInto(t *testing.T, dest, src any) {
	t.Helper()
	b, err := json.Marshal(src)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, dest))
}

// seed loads collections through the store's normal fetch path by swapping
// the stub's Select for the duration of the load.
func seed(t *testing.T, c *Controller, data *dataStub, serve func(table string, dest any) bool, load func(context.Context) error) {
	t.Helper()
	prev := data.SelectFunc
	data.SelectFunc = func(_ context.Context, table string, _ remote.SelectOptions, dest any) error {
		if !serve(table, dest) {
			t.Fatalf("unexpected seed fetch of table %q", table)
		}
		return nil
	}
	require.NoError(t, load(context.Background()))
	data.SelectFunc = prev
}

func seedPosts(t *testing.T, c *Controller, data *dataStub, posts []models.Post) {
	seed(t, c, data, func(table string, dest any) bool {
		if table != "posts" {
			return false
		}
		decodeInto(t, dest, posts)
		return true
	}, c.Store().LoadPosts)
}

func seedClubs(t *testing.T, c *Controller, data *dataStub, clubs []models.Club) {
	seed(t, c, data, func(table string, dest any) bool {
		if table != "clubs" {
			return false
		}
		rows := make([]map[string]any, 0, len(clubs))
		for _, club := range clubs {
			members := make([]map[string]string, 0, len(club.Members))
			for _, m := range club.Members {
				members = append(members, map[string]string{"user_id": m})
			}
			rows = append(rows, map[string]any{
				"id":           club.ID,
				"name":         club.Name,
				"description":  club.Description,
				"banner_url":   club.BannerURL,
				"club_members": members,
			})
		}
		decodeInto(t, dest, rows)
		return true
	}, c.Store().LoadClubs)
}

func signedInController(t *testing.T, data *dataStub, storage *storageStub) *Controller {
	t.Helper()
	if storage == nil {
		storage = &storageStub{}
	}
	gate := session.NewGate()
	gate.Set(&session.Session{
		AccessToken: "token",
		UserID:      "me",
		ExpiresAt:   time.Now().Add(time.Hour),
	})

	c := NewController(data, storage, gate, Options{})
	seed(t, c, data, func(table string, dest any) bool {
		switch table {
		case "profiles":
			decodeInto(t, dest, models.Identity{ID: "me", Name: "Me"})
		case "user_follows":
			decodeInto(t, dest, []map[string]string{})
		default:
			return false
		}
		return true
	}, func(ctx context.Context) error {
		return c.Store().LoadProfile(ctx, "me")
	})
	return c
}

func pngFile(t *testing.T) *MediaFile {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return &MediaFile{Filename: "photo.png", Data: buf.Bytes()}
}

func TestCreatePostUploadsMediaBeforeInsert(t *testing.T) {
	var order []string
	data := &dataStub{
		InsertFunc: func(_ context.Context, table string, row any, _ string, dest any) error {
			order = append(order, "insert:"+table)
			fields := row.(map[string]any)
			assert.Contains(t, fields["media_url"], "https://cdn.example.edu/media/")
			assert.Equal(t, models.MediaImage, fields["media_type"])
			*dest.(*models.Post) = models.Post{ID: "p1", Title: "Hi"}
			return nil
		},
	}
	storage := &storageStub{
		UploadFunc: func(_ context.Context, bucket, key string, data []byte, contentType string) error {
			order = append(order, "upload")
			assert.Equal(t, "media", bucket)
			assert.Equal(t, "image/webp", contentType)
			assert.NotEmpty(t, data)
			return nil
		},
	}
	c := signedInController(t, data, storage)

	in := validation.NewPostInput{Title: "Hi", Content: "there", Category: models.CategorySocial}
	post, err := c.CreatePost(context.Background(), in, "", pngFile(t))
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, []string{"upload", "insert:posts"}, order)

	posts := c.Store().Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
}

func TestCreatePostSkipsInsertWhenUploadFails(t *testing.T) {
	inserted := false
	data := &dataStub{
		InsertFunc: func(context.Context, string, any, string, any) error {
			inserted = true
			return nil
		},
	}
	storage := &storageStub{
		UploadFunc: func(context.Context, string, string, []byte, string) error {
			return errors.New("bucket unavailable")
		},
	}
	c := signedInController(t, data, storage)

	in := validation.NewPostInput{Title: "Hi", Content: "there", Category: models.CategorySocial}
	_, err := c.CreatePost(context.Background(), in, "", pngFile(t))
	require.Error(t, err)
	assert.False(t, inserted, "post insert must not run after a failed upload")
	assert.Empty(t, c.Store().Posts())
}

func TestCreatePostValidationFailureIssuesNoCalls(t *testing.T) {
	data := &dataStub{
		InsertFunc: func(context.Context, string, any, string, any) error {
			t.Fatal("no insert expected")
			return nil
		},
	}
	c := signedInController(t, data, nil)

	in := validation.NewPostInput{Title: "  ", Content: "there", Category: models.CategorySocial}
	_, err := c.CreatePost(context.Background(), in, "", nil)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestFollowIsOptimisticWithRollback(t *testing.T) {
	var duringInsert bool
	fail := false
	data := &dataStub{}
	c := signedInController(t, data, nil)
	data.InsertFunc = func(_ context.Context, table string, row any, _ string, _ any) error {
		assert.Equal(t, "user_follows", table)
		fields := row.(map[string]any)
		assert.Equal(t, "me", fields["follower_id"])
		duringInsert = c.Store().Current().Follows(fields["following_id"].(string))
		if fail {
			return errors.New("network down")
		}
		return nil
	}

	require.NoError(t, c.Follow(context.Background(), "alice"))
	assert.True(t, duringInsert, "follow must apply before the remote call")
	assert.True(t, c.Store().Current().Follows("alice"))

	fail = true
	err := c.Follow(context.Background(), "bob")
	require.Error(t, err)
	assert.False(t, c.Store().Current().Follows("bob"), "failed follow must roll back")
	assert.True(t, c.Store().Current().Follows("alice"), "rollback must not touch other follows")
}

func TestUnfollowRollsBackOnFailure(t *testing.T) {
	data := &dataStub{
		DeleteFunc: func(context.Context, string, remote.Filter) error {
			return errors.New("network down")
		},
	}
	c := signedInController(t, data, nil)
	c.Store().UpdateCurrent(func(cur *models.CurrentIdentity) { cur.AddFollowing("alice") })

	err := c.Unfollow(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, c.Store().Current().Follows("alice"))
}

func TestFollowUpdatesOpenProfileView(t *testing.T) {
	data := &dataStub{}
	c := signedInController(t, data, nil)
	c.Nav().SelectUser(models.ProfileView{
		Identity:      models.Identity{ID: "alice"},
		FollowerCount: 3,
	})

	require.NoError(t, c.Follow(context.Background(), "alice"))

	sel := c.Nav().Selection()
	require.NotNil(t, sel.User)
	assert.True(t, sel.User.IsFollowedByCurrentUser)
	assert.Equal(t, 4, sel.User.FollowerCount)
}

func TestCreateClubJoinsCreatorAndRefetches(t *testing.T) {
	var tables []string
	data := &dataStub{
		InsertFunc: func(_ context.Context, table string, row any, _ string, dest any) error {
			tables = append(tables, "insert:"+table)
			if table == "clubs" {
				*dest.(*models.Club) = models.Club{ID: "c1", Name: "Chess"}
				fields := row.(map[string]any)
				assert.Equal(t, DefaultClubBanner, fields["banner_url"])
			}
			if table == "club_members" {
				fields := row.(map[string]any)
				assert.Equal(t, "c1", fields["club_id"])
				assert.Equal(t, "me", fields["user_id"])
			}
			return nil
		},
		SelectFunc: func(_ context.Context, table string, _ remote.SelectOptions, dest any) error {
			tables = append(tables, "select:"+table)
			return nil
		},
	}
	c := signedInController(t, data, nil)

	club, err := c.CreateClub(context.Background(), "Chess", "We play chess", "")
	require.NoError(t, err)
	assert.Equal(t, "c1", club.ID)
	assert.Equal(t, []string{"insert:clubs", "insert:club_members", "select:clubs"}, tables)
}

func TestSaveClubRequiresAdmin(t *testing.T) {
	data := &dataStub{
		UpdateFunc: func(context.Context, string, remote.Filter, any, string, any) error {
			t.Fatal("no update expected for non-admin")
			return nil
		},
	}
	c := signedInController(t, data, nil)
	seedClubs(t, c, data, []models.Club{{ID: "c1", Name: "Chess", Members: []string{"alice", "me"}}})

	err := c.SaveClub(context.Background(), "c1", "Chess", "new description", "")
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestToggleReactionWritesWholeMap(t *testing.T) {
	var patched models.ReactionMap
	data := &dataStub{
		UpdateFunc: func(_ context.Context, table string, filter remote.Filter, patch any, _ string, _ any) error {
			assert.Equal(t, "posts", table)
			patched = patch.(map[string]any)["reactions"].(models.ReactionMap)
			return nil
		},
	}
	c := signedInController(t, data, nil)
	seedPosts(t, c, data, []models.Post{{
		ID:        "p1",
		Reactions: models.ReactionMap{models.ReactionLike: {"alice"}},
	}})

	require.NoError(t, c.ToggleReaction(context.Background(), "p1", models.ReactionLove))
	assert.ElementsMatch(t, []string{"me"}, patched[models.ReactionLove])
	assert.ElementsMatch(t, []string{"alice"}, patched[models.ReactionLike])

	post, ok := c.Store().Post("p1")
	require.True(t, ok)
	assert.Equal(t, models.ReactionLove, post.Reactions.KindOf("me"))
}

func TestViewProfileCountsAndFlags(t *testing.T) {
	data := &dataStub{
		CountFunc: func(_ context.Context, table string, filter remote.Filter) (int, error) {
			require.Equal(t, "user_follows", table)
			require.Len(t, filter.Conds, 1)
			switch filter.Conds[0].Column {
			case "following_id":
				return 12, nil
			case "follower_id":
				return 7, nil
			}
			t.Fatalf("unexpected filter column %q", filter.Conds[0].Column)
			return 0, nil
		},
	}
	c := signedInController(t, data, nil)
	c.Store().UpdateCurrent(func(cur *models.CurrentIdentity) { cur.AddFollowing("alice") })

	pv, err := c.ViewProfile(context.Background(), models.Identity{ID: "alice", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, 12, pv.FollowerCount)
	assert.Equal(t, 7, pv.FollowingCount)
	assert.True(t, pv.IsFollowedByCurrentUser)

	sel := c.Nav().Selection()
	require.NotNil(t, sel.User)
	assert.Equal(t, "alice", sel.User.ID)
}

func TestSearchUsersExcludesCurrentIdentity(t *testing.T) {
	data := &dataStub{
		SelectFunc: func(_ context.Context, table string, opts remote.SelectOptions, dest any) error {
			require.Equal(t, "profiles", table)
			require.Len(t, opts.Filter.OrIlikes, 1)
			assert.Equal(t, []string{"name", "major"}, opts.Filter.OrIlikes[0].Columns)
			*dest.(*[]models.Identity) = []models.Identity{
				{ID: "me", Name: "Me"},
				{ID: "alice", Name: "Alice"},
			}
			return nil
		},
	}
	c := signedInController(t, data, nil)

	results, err := c.SearchUsers(context.Background(), "ali")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alice", results[0].ID)
}

func TestSearchUsersEmptyQuerySkipsRemote(t *testing.T) {
	data := &dataStub{
		SelectFunc: func(context.Context, string, remote.SelectOptions, any) error {
			t.Fatal("no remote call expected")
			return nil
		},
	}
	c := signedInController(t, data, nil)

	results, err := c.SearchUsers(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAddCommentMergesServiceRecord(t *testing.T) {
	data := &dataStub{
		InsertFunc: func(_ context.Context, table string, _ any, returning string, dest any) error {
			require.Equal(t, "comments", table)
			assert.Equal(t, "*, author:profiles(*)", returning)
			*dest.(*models.Comment) = models.Comment{
				ID:      42,
				Author:  models.Identity{ID: "me", Name: "Me"},
				Content: "nice",
			}
			return nil
		},
	}
	c := signedInController(t, data, nil)
	seedPosts(t, c, data, []models.Post{{ID: "p1", Title: "Hi"}})
	post, _ := c.Store().Post("p1")
	c.Nav().SelectPost(post)

	require.NoError(t, c.AddComment(context.Background(), "p1", "nice"))

	updated, ok := c.Store().Post("p1")
	require.True(t, ok)
	require.Len(t, updated.Comments, 1)
	assert.Equal(t, uint(42), updated.Comments[0].ID)

	sel := c.Nav().Selection()
	require.NotNil(t, sel.Post)
	assert.Len(t, sel.Post.Comments, 1)
}

func TestSaveProfileRefetchesPosts(t *testing.T) {
	var postsFetched bool
	data := &dataStub{
		UpdateFunc: func(_ context.Context, table string, filter remote.Filter, patch any, _ string, _ any) error {
			require.Equal(t, "profiles", table)
			fields := patch.(map[string]any)
			assert.Equal(t, "New Name", fields["name"])
			return nil
		},
		SelectFunc: func(_ context.Context, table string, _ remote.SelectOptions, _ any) error {
			if table == "posts" {
				postsFetched = true
			}
			return nil
		},
	}
	c := signedInController(t, data, nil)

	err := c.SaveProfile(context.Background(), models.Identity{Name: "New Name", GraduationYear: 2027})
	require.NoError(t, err)
	assert.True(t, postsFetched)
	assert.Equal(t, "New Name", c.Store().Current().Name)
	assert.Equal(t, "me", c.Store().Current().ID, "profile save must not change the identity ID")
}

func TestSignOutClearsCachedState(t *testing.T) {
	data := &dataStub{}
	c := signedInController(t, data, nil)
	seedPosts(t, c, data, []models.Post{{ID: "p1"}})

	require.NoError(t, c.SignOut(context.Background()))
	assert.Empty(t, c.Store().Posts())
	assert.Nil(t, c.Store().Current())
}

func TestHandleChangeRefreshesAffectedCollection(t *testing.T) {
	var tables []string
	data := &dataStub{
		SelectFunc: func(_ context.Context, table string, _ remote.SelectOptions, _ any) error {
			tables = append(tables, table)
			return nil
		},
	}
	c := signedInController(t, data, nil)

	c.HandleChange(context.Background(), remote.ChangeEvent{Table: "comments"})
	c.HandleChange(context.Background(), remote.ChangeEvent{Table: "club_members"})
	c.HandleChange(context.Background(), remote.ChangeEvent{Table: "unrelated"})

	assert.Equal(t, []string{"posts", "clubs"}, tables)
}
