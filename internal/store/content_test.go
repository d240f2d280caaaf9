package store

import (
	"context"
	"errors"
	"testing"

	"campusnet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherStub struct {
	fetchPostsFn   func(context.Context) ([]models.Post, error)
	fetchClubsFn   func(context.Context) ([]models.Club, error)
	fetchProfileFn func(context.Context, string) (*models.CurrentIdentity, error)
}

func (s *fetcherStub) FetchPosts(ctx context.Context) ([]models.Post, error) {
	return s.fetchPostsFn(ctx)
}
func (s *fetcherStub) FetchClubs(ctx context.Context) ([]models.Club, error) {
	return s.fetchClubsFn(ctx)
}
func (s *fetcherStub) FetchCurrentProfile(ctx context.Context, id string) (*models.CurrentIdentity, error) {
	return s.fetchProfileFn(ctx, id)
}

func noopFetcher() *fetcherStub {
	return &fetcherStub{
		fetchPostsFn: func(context.Context) ([]models.Post, error) { return nil, nil },
		fetchClubsFn: func(context.Context) ([]models.Club, error) { return nil, nil },
		fetchProfileFn: func(context.Context, string) (*models.CurrentIdentity, error) {
			return &models.CurrentIdentity{}, nil
		},
	}
}

func TestLoadPostsReplacesWholesale(t *testing.T) {
	f := noopFetcher()
	f.fetchPostsFn = func(context.Context) ([]models.Post, error) {
		return []models.Post{{ID: "p2"}, {ID: "p1"}}, nil
	}
	c := NewContent(f)
	require.NoError(t, c.LoadPosts(context.Background()))

	posts := c.Posts()
	require.Len(t, posts, 2)
	assert.Equal(t, "p2", posts[0].ID)

	f.fetchPostsFn = func(context.Context) ([]models.Post, error) {
		return []models.Post{{ID: "p3"}}, nil
	}
	require.NoError(t, c.LoadPosts(context.Background()))
	posts = c.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "p3", posts[0].ID)
}

func TestLoadFailureLeavesStateUntouched(t *testing.T) {
	f := noopFetcher()
	f.fetchPostsFn = func(context.Context) ([]models.Post, error) {
		return []models.Post{{ID: "p1"}}, nil
	}
	c := NewContent(f)
	require.NoError(t, c.LoadPosts(context.Background()))

	f.fetchPostsFn = func(context.Context) ([]models.Post, error) {
		return nil, errors.New("service unavailable")
	}
	err := c.LoadPosts(context.Background())
	assert.Error(t, err)

	posts := c.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
}

func TestApplyNewPostPrepends(t *testing.T) {
	c := NewContent(noopFetcher())
	c.ApplyNewPost(models.Post{ID: "old"})
	c.ApplyNewPost(models.Post{ID: "new"})

	posts := c.Posts()
	require.Len(t, posts, 2)
	assert.Equal(t, "new", posts[0].ID)
}

func TestApplyCommentAddedAppendsInArrivalOrder(t *testing.T) {
	c := NewContent(noopFetcher())
	c.ApplyNewPost(models.Post{ID: "p1"})

	c.ApplyCommentAdded("p1", models.Comment{ID: 1, Content: "first"})
	c.ApplyCommentAdded("p1", models.Comment{ID: 2, Content: "second"})
	c.ApplyCommentAdded("missing", models.Comment{ID: 3})

	p, ok := c.Post("p1")
	require.True(t, ok)
	require.Len(t, p.Comments, 2)
	assert.Equal(t, "first", p.Comments[0].Content)
	assert.Equal(t, "second", p.Comments[1].Content)
}

func TestApplyPostEditedReplacesRecord(t *testing.T) {
	c := NewContent(noopFetcher())
	c.ApplyNewPost(models.Post{ID: "p1", Title: "before"})

	c.ApplyPostEdited(models.Post{ID: "p1", Title: "after", Edited: true})

	p, _ := c.Post("p1")
	assert.Equal(t, "after", p.Title)
	assert.True(t, p.Edited)
}

func TestApplyReactionChangeReplacesMap(t *testing.T) {
	c := NewContent(noopFetcher())
	c.ApplyNewPost(models.Post{ID: "p1", Reactions: models.ReactionMap{models.ReactionLike: {"u1"}}})

	c.ApplyReactionChange("p1", models.ReactionMap{models.ReactionLove: {"u2"}})

	p, _ := c.Post("p1")
	assert.Empty(t, p.Reactions[models.ReactionLike])
	assert.Equal(t, []string{"u2"}, p.Reactions[models.ReactionLove])
}

func TestLastMergeWinsAcrossConcurrentCompletions(t *testing.T) {
	// Two reaction toggles race; whichever merge lands last determines the
	// cached map, independent of click order. Accepted weak consistency.
	c := NewContent(noopFetcher())
	c.ApplyNewPost(models.Post{ID: "p1"})

	first := models.ReactionMap{models.ReactionLike: {"u1"}}
	second := models.ReactionMap{}

	c.ApplyReactionChange("p1", first)
	c.ApplyReactionChange("p1", second)

	p, _ := c.Post("p1")
	assert.Equal(t, 0, p.Reactions.Count())
}

func TestCurrentReturnsCopy(t *testing.T) {
	f := noopFetcher()
	f.fetchProfileFn = func(context.Context, string) (*models.CurrentIdentity, error) {
		return &models.CurrentIdentity{
			Identity:  models.Identity{ID: "u1"},
			Following: []string{"u2"},
		}, nil
	}
	c := NewContent(f)
	require.NoError(t, c.LoadProfile(context.Background(), "u1"))

	cp := c.Current()
	cp.Following[0] = "mutated"
	cp.Name = "mutated"

	fresh := c.Current()
	assert.Equal(t, "u2", fresh.Following[0])
	assert.Equal(t, "", fresh.Name)
}

func TestClearDropsEverything(t *testing.T) {
	f := noopFetcher()
	f.fetchPostsFn = func(context.Context) ([]models.Post, error) {
		return []models.Post{{ID: "p1"}}, nil
	}
	c := NewContent(f)
	require.NoError(t, c.LoadPosts(context.Background()))

	c.Clear()
	assert.Empty(t, c.Posts())
	assert.Nil(t, c.Current())
}
