// Package feed derives visible post lists from the content store and the
// current filter state.
package feed

import (
	"strings"

	"campusnet/internal/models"
)

// Mode selects between the following feed and the global feed.
type Mode string

const (
	// ModeFollowing shows posts authored by the current identity or by
	// identities it follows.
	ModeFollowing Mode = "following"
	// ModeGlobal shows all posts.
	ModeGlobal Mode = "global"
)

// CategoryAll disables category filtering.
const CategoryAll models.Category = "All"

// Filters is the current filter state applied to the feed.
type Filters struct {
	Mode     Mode
	Category models.Category
	Search   string
}

// Project returns the posts visible under the given filters. All three
// filters are conjunctive. Ordering is inherited from the input slice; the
// projector never re-sorts. A nil current carries no follow graph, so
// ModeFollowing falls back to the global feed until a profile is loaded.
func Project(posts []models.Post, f Filters, current *models.CurrentIdentity) []models.Post {
	search := strings.ToLower(f.Search)

	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if f.Mode == ModeFollowing && current != nil {
			// Self-authored posts always pass the following filter.
			if p.Author.ID != current.ID && !current.Follows(p.Author.ID) {
				continue
			}
		}
		if f.Category != "" && f.Category != CategoryAll && p.Category != f.Category {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesSearch(p models.Post, lowered string) bool {
	return strings.Contains(strings.ToLower(p.Title), lowered) ||
		strings.Contains(strings.ToLower(p.Content), lowered) ||
		strings.Contains(strings.ToLower(p.Author.Name), lowered)
}

// ByAuthor returns the posts authored by the given identity, in feed order.
func ByAuthor(posts []models.Post, identityID string) []models.Post {
	out := make([]models.Post, 0)
	for _, p := range posts {
		if p.Author.ID == identityID {
			out = append(out, p)
		}
	}
	return out
}

// ByClub returns the posts belonging to the given club, in feed order.
func ByClub(posts []models.Post, clubID string) []models.Post {
	out := make([]models.Post, 0)
	for _, p := range posts {
		if p.ClubID == clubID {
			out = append(out, p)
		}
	}
	return out
}

// ClubGroup is the posts of one joined club, used by the club-feed view.
type ClubGroup struct {
	Club  models.Club
	Posts []models.Post
}

// ByJoinedClubs groups posts by the clubs the identity belongs to, preserving
// club order. Clubs with no posts are omitted.
func ByJoinedClubs(posts []models.Post, clubs []models.Club, identityID string) []ClubGroup {
	groups := make([]ClubGroup, 0)
	for _, c := range clubs {
		if !c.IsMember(identityID) {
			continue
		}
		clubPosts := ByClub(posts, c.ID)
		if len(clubPosts) == 0 {
			continue
		}
		groups = append(groups, ClubGroup{Club: c, Posts: clubPosts})
	}
	return groups
}
