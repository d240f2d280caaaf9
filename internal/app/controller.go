// Package app wires the state-synchronization layer together: it owns the
// content store, navigation state, and the mutation handlers that write
// through to the remote collaborators and reconcile local state with their
// responses.
package app

import (
	"context"
	"sync"

	"campusnet/internal/drafts"
	"campusnet/internal/feed"
	"campusnet/internal/gen"
	"campusnet/internal/models"
	"campusnet/internal/nav"
	"campusnet/internal/observability"
	"campusnet/internal/remote"
	"campusnet/internal/session"
	"campusnet/internal/store"

	"github.com/google/uuid"
)

// postColumns is the projection used everywhere a full post is fetched: the
// post row with its author and its comments (each with their author).
const postColumns = "*, author:profiles(*), comments(*, author:profiles(*))"

// Controller coordinates the session gate, content store, and mutation
// handlers. Methods are safe for concurrent use; completions merge into the
// store in arrival order.
type Controller struct {
	data    remote.DataService
	storage remote.ObjectStorage
	auth    remote.AuthAPI // nil when the caller manages sessions itself
	bucket  string

	gate    *session.Gate
	content *store.Content
	nav     *nav.State

	gen    *gen.Service  // nil disables suggestion/summarization
	drafts *drafts.Store // nil disables local drafts

	mu      sync.Mutex
	filters feed.Filters
}

// Options carries the optional collaborators.
type Options struct {
	Auth   remote.AuthAPI
	Gen    *gen.Service
	Drafts *drafts.Store
	Bucket string
}

// NewController builds a Controller over the given collaborators.
func NewController(data remote.DataService, storage remote.ObjectStorage, gate *session.Gate, opts Options) *Controller {
	c := &Controller{
		data:    data,
		storage: storage,
		auth:    opts.Auth,
		bucket:  opts.Bucket,
		gate:    gate,
		nav:     nav.NewState(),
		gen:     opts.Gen,
		drafts:  opts.Drafts,
		filters: feed.Filters{Mode: feed.ModeFollowing, Category: feed.CategoryAll},
	}
	if c.bucket == "" {
		c.bucket = "media"
	}
	c.content = store.NewContent(&remoteFetcher{data: data})

	// Sign-out clears all cached content; sign-in triggers a fresh bootstrap
	// from the caller.
	gate.OnChange(func(s *session.Session) {
		if s == nil {
			c.content.Clear()
			c.nav.Navigate(nav.ViewFeed)
		}
	})
	return c
}

// Store exposes the content store for read-side consumers.
func (c *Controller) Store() *store.Content { return c.content }

// Nav exposes the navigation/selection state.
func (c *Controller) Nav() *nav.State { return c.nav }

// Bootstrap loads the profile, posts, and clubs in parallel after sign-in.
// Partial failures leave the corresponding collection empty and are logged;
// the first error is returned.
func (c *Controller) Bootstrap(ctx context.Context) error {
	sess := c.gate.Current()
	if sess == nil {
		return models.NewUnauthorizedError("Not signed in")
	}

	var wg sync.WaitGroup
	errs := make([]error, 3)

	wg.Add(3)
	go func() { defer wg.Done(); errs[0] = c.content.LoadProfile(ctx, sess.UserID) }()
	go func() { defer wg.Done(); errs[1] = c.content.LoadPosts(ctx) }()
	go func() { defer wg.Done(); errs[2] = c.content.LoadClubs(ctx) }()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// run wraps a mutation handler with correlation, tracing, and outcome
// metrics. Handlers are narrow state machines: idle, in-flight, then back to
// idle whether the merge happened or not.
func (c *Controller) run(ctx context.Context, handler string, fn func(context.Context) error) error {
	ctx = observability.WithCorrelationID(ctx, uuid.NewString())
	ctx, span := observability.TraceHandler(ctx, handler)
	observability.LogHandlerStart(ctx, handler, nil)

	err := fn(ctx)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	observability.MutationOutcomes.WithLabelValues(handler, outcome).Inc()
	observability.LogHandlerEnd(ctx, handler, err)
	observability.EndSpan(span, err)
	return err
}

// where is shorthand for a single-column equality filter.
func where(column, value string) remote.Filter {
	return remote.Where().Eq(column, value)
}

// currentIdentity returns the loaded profile or an unauthorized error.
func (c *Controller) currentIdentity() (*models.CurrentIdentity, error) {
	cur := c.content.Current()
	if cur == nil {
		return nil, models.NewUnauthorizedError("Profile not loaded")
	}
	return cur, nil
}

// SetFeedMode switches between the following and global feeds.
func (c *Controller) SetFeedMode(mode feed.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Mode = mode
}

// SetCategory sets the category filter; feed.CategoryAll disables it.
func (c *Controller) SetCategory(cat models.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Category = cat
}

// SetSearch sets the free-text search filter.
func (c *Controller) SetSearch(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Search = query
}

// Filters returns the current filter state.
func (c *Controller) Filters() feed.Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// VisibleFeed projects the cached posts through the current filters.
func (c *Controller) VisibleFeed() []models.Post {
	return feed.Project(c.content.Posts(), c.Filters(), c.content.Current())
}

// ClubFeed groups the cached posts by the clubs the current identity has
// joined.
func (c *Controller) ClubFeed() []feed.ClubGroup {
	cur := c.content.Current()
	if cur == nil {
		return nil
	}
	return feed.ByJoinedClubs(c.content.Posts(), c.content.Clubs(), cur.ID)
}

// ClubPosts returns the cached posts belonging to one club.
func (c *Controller) ClubPosts(clubID string) []models.Post {
	return feed.ByClub(c.content.Posts(), clubID)
}

// PostsByAuthor returns the cached posts authored by the given identity.
func (c *Controller) PostsByAuthor(identityID string) []models.Post {
	return feed.ByAuthor(c.content.Posts(), identityID)
}

// HandleChange refreshes the collection affected by a realtime event. Errors
// are already logged by the loads; a failed refresh keeps the stale cache.
func (c *Controller) HandleChange(ctx context.Context, ev remote.ChangeEvent) {
	switch ev.Table {
	case "posts", "comments":
		_ = c.content.LoadPosts(ctx)
	case "clubs", "club_members":
		_ = c.content.LoadClubs(ctx)
	}
}

// remoteFetcher adapts the data service to the content store's Fetcher.
type remoteFetcher struct {
	data remote.DataService
}

func (f *remoteFetcher) FetchPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := f.data.Select(ctx, "posts", remote.SelectOptions{
		Columns: postColumns,
		OrderBy: "created_at",
		Desc:    true,
	}, &posts)
	return posts, err
}

// clubRow is the wire shape of a club with its membership embedded.
type clubRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BannerURL   string `json:"banner_url"`
	ClubMembers []struct {
		UserID string `json:"user_id"`
	} `json:"club_members"`
}

func (r clubRow) toClub() models.Club {
	members := make([]string, 0, len(r.ClubMembers))
	for _, m := range r.ClubMembers {
		members = append(members, m.UserID)
	}
	return models.Club{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		BannerURL:   r.BannerURL,
		Members:     members,
		MemberCount: len(members),
	}
}

func (f *remoteFetcher) FetchClubs(ctx context.Context) ([]models.Club, error) {
	var rows []clubRow
	err := f.data.Select(ctx, "clubs", remote.SelectOptions{
		Columns: "*, club_members(user_id)",
	}, &rows)
	if err != nil {
		return nil, err
	}
	clubs := make([]models.Club, 0, len(rows))
	for _, r := range rows {
		clubs = append(clubs, r.toClub())
	}
	return clubs, nil
}

func (f *remoteFetcher) FetchCurrentProfile(ctx context.Context, identityID string) (*models.CurrentIdentity, error) {
	var profile models.Identity
	err := f.data.Select(ctx, "profiles", remote.SelectOptions{
		Filter: remote.Where().Eq("id", identityID),
		Single: true,
	}, &profile)
	if err != nil {
		return nil, err
	}

	var follows []struct {
		FollowingID string `json:"following_id"`
	}
	err = f.data.Select(ctx, "user_follows", remote.SelectOptions{
		Columns: "following_id",
		Filter:  remote.Where().Eq("follower_id", identityID),
	}, &follows)
	if err != nil {
		return nil, err
	}

	following := make([]string, 0, len(follows))
	for _, fr := range follows {
		following = append(following, fr.FollowingID)
	}
	return &models.CurrentIdentity{Identity: profile, Following: following}, nil
}
