// Package store is the client-side cache of posts, clubs, and the current
// profile, kept in sync with the remote data service.
//
// The store has no authority of its own: loads replace collections wholesale
// with whatever the service returned, and mutation hooks merge a single
// authoritative response. On any failure the in-memory state is left
// untouched. There is no locking across handlers beyond the store mutex;
// concurrent completions merge in arrival order and the last response wins.
package store

import (
	"context"
	"sync"

	"campusnet/internal/models"
	"campusnet/internal/observability"
)

// Fetcher retrieves collections from the remote data service.
type Fetcher interface {
	FetchPosts(ctx context.Context) ([]models.Post, error)
	FetchClubs(ctx context.Context) ([]models.Club, error)
	FetchCurrentProfile(ctx context.Context, identityID string) (*models.CurrentIdentity, error)
}

// Content caches posts, clubs, and the current identity's profile.
type Content struct {
	mu      sync.RWMutex
	fetcher Fetcher

	posts   []models.Post
	clubs   []models.Club
	current *models.CurrentIdentity
}

// NewContent returns an empty store backed by the given fetcher.
func NewContent(fetcher Fetcher) *Content {
	return &Content{fetcher: fetcher}
}

// LoadPosts re-fetches all posts and replaces the cached collection. On
// failure the cache is unchanged.
func (c *Content) LoadPosts(ctx context.Context) error {
	posts, err := c.fetcher.FetchPosts(ctx)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "failed to load posts", "error", err.Error())
		return err
	}
	c.mu.Lock()
	c.posts = posts
	c.mu.Unlock()
	return nil
}

// LoadClubs re-fetches all clubs and replaces the cached collection. Clubs
// are always fully re-fetched after membership or metadata mutations.
func (c *Content) LoadClubs(ctx context.Context) error {
	clubs, err := c.fetcher.FetchClubs(ctx)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "failed to load clubs", "error", err.Error())
		return err
	}
	c.mu.Lock()
	c.clubs = clubs
	c.mu.Unlock()
	return nil
}

// LoadProfile fetches the authenticated identity's profile and following set.
func (c *Content) LoadProfile(ctx context.Context, identityID string) error {
	profile, err := c.fetcher.FetchCurrentProfile(ctx, identityID)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "failed to load profile", "error", err.Error())
		return err
	}
	c.mu.Lock()
	c.current = profile
	c.mu.Unlock()
	return nil
}

// Posts returns a copy of the cached post list in load order.
func (c *Content) Posts() []models.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Post(nil), c.posts...)
}

// Clubs returns a copy of the cached club list.
func (c *Content) Clubs() []models.Club {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Club(nil), c.clubs...)
}

// Club returns the cached club with the given ID.
func (c *Content) Club(id string) (models.Club, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, club := range c.clubs {
		if club.ID == id {
			return club, true
		}
	}
	return models.Club{}, false
}

// Post returns the cached post with the given ID.
func (c *Content) Post(id string) (models.Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

// Current returns a copy of the current identity, or nil when not loaded.
func (c *Content) Current() *models.CurrentIdentity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	cp := *c.current
	cp.Following = append([]string(nil), c.current.Following...)
	return &cp
}

// UpdateCurrent applies fn to the current identity under the lock. Used by
// the optimistic follow handlers and profile save merge.
func (c *Content) UpdateCurrent(fn func(*models.CurrentIdentity)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		fn(c.current)
	}
}

// Clear drops all cached state. Called on sign-out.
func (c *Content) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = nil
	c.clubs = nil
	c.current = nil
}

// ApplyNewPost prepends a newly created post to the collection.
func (c *Content) ApplyNewPost(p models.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = append([]models.Post{p}, c.posts...)
}

// ApplyCommentAdded appends a comment to the identified post.
func (c *Content) ApplyCommentAdded(postID string, comment models.Comment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.posts {
		if c.posts[i].ID == postID {
			c.posts[i].Comments = append(c.posts[i].Comments, comment)
			return
		}
	}
}

// ApplyPostEdited replaces the identified post's record wholesale.
func (c *Content) ApplyPostEdited(p models.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.posts {
		if c.posts[i].ID == p.ID {
			c.posts[i] = p
			return
		}
	}
}

// ApplyReactionChange replaces the identified post's reaction map.
func (c *Content) ApplyReactionChange(postID string, reactions models.ReactionMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.posts {
		if c.posts[i].ID == postID {
			c.posts[i].Reactions = reactions
			return
		}
	}
}
