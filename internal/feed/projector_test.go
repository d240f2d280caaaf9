package feed

import (
	"testing"

	"campusnet/internal/models"

	"github.com/stretchr/testify/assert"
)

func fixturePosts() []models.Post {
	return []models.Post{
		{
			ID:       "p1",
			Author:   models.Identity{ID: "a", Name: "Alice"},
			Title:    "Study group",
			Content:  "exam tips",
			Category: models.CategorySocial,
		},
		{
			ID:       "p2",
			Author:   models.Identity{ID: "b", Name: "Bob"},
			Title:    "Friday",
			Content:  "party",
			Category: models.CategoryEvents,
		},
	}
}

func currentA(following ...string) *models.CurrentIdentity {
	return &models.CurrentIdentity{
		Identity:  models.Identity{ID: "a", Name: "Alice"},
		Following: following,
	}
}

func ids(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestFollowingFeedIncludesSelfAndFollowees(t *testing.T) {
	got := Project(fixturePosts(), Filters{Mode: ModeFollowing, Category: CategoryAll}, currentA("b"))
	assert.Equal(t, []string{"p1", "p2"}, ids(got))
}

func TestCategoryFilter(t *testing.T) {
	got := Project(fixturePosts(), Filters{Mode: ModeFollowing, Category: models.CategorySocial}, currentA("b"))
	assert.Equal(t, []string{"p1"}, ids(got))
}

func TestSearchFilter(t *testing.T) {
	got := Project(fixturePosts(), Filters{Mode: ModeFollowing, Category: CategoryAll, Search: "party"}, currentA("b"))
	assert.Equal(t, []string{"p2"}, ids(got))
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	got := Project(fixturePosts(), Filters{Mode: ModeGlobal, Category: CategoryAll, Search: "BOB"}, currentA())
	assert.Equal(t, []string{"p2"}, ids(got))
}

func TestGlobalFeedIgnoresFollowing(t *testing.T) {
	got := Project(fixturePosts(), Filters{Mode: ModeGlobal, Category: CategoryAll}, currentA())
	assert.Equal(t, []string{"p1", "p2"}, ids(got))
}

func TestEmptyFollowingStillShowsOwnPosts(t *testing.T) {
	got := Project(fixturePosts(), Filters{Mode: ModeFollowing, Category: CategoryAll}, currentA())
	assert.Equal(t, []string{"p1"}, ids(got))
}

func TestFollowingModeWithoutIdentityFallsBackToGlobal(t *testing.T) {
	got := Project(fixturePosts(), Filters{Mode: ModeFollowing, Category: CategoryAll}, nil)
	assert.Equal(t, []string{"p1", "p2"}, ids(got))
}

func TestFiltersAreConjunctive(t *testing.T) {
	// Search matches p2, category matches p1: conjunction yields nothing.
	got := Project(fixturePosts(), Filters{Mode: ModeGlobal, Category: models.CategorySocial, Search: "party"}, currentA())
	assert.Empty(t, got)
}

func TestOrderingInheritedFromInput(t *testing.T) {
	posts := fixturePosts()
	posts[0], posts[1] = posts[1], posts[0]
	got := Project(posts, Filters{Mode: ModeGlobal, Category: CategoryAll}, currentA())
	assert.Equal(t, []string{"p2", "p1"}, ids(got))
}

func TestByJoinedClubsGroupsAndSkipsEmpty(t *testing.T) {
	posts := []models.Post{
		{ID: "p1", Author: models.Identity{ID: "a"}, ClubID: "c1"},
		{ID: "p2", Author: models.Identity{ID: "b"}, ClubID: "c2"},
		{ID: "p3", Author: models.Identity{ID: "b"}},
	}
	clubs := []models.Club{
		{ID: "c1", Name: "Chess", Members: []string{"a"}},
		{ID: "c2", Name: "Film", Members: []string{"b"}},
		{ID: "c3", Name: "Empty", Members: []string{"a"}},
	}

	groups := ByJoinedClubs(posts, clubs, "a")
	assert.Len(t, groups, 1)
	assert.Equal(t, "c1", groups[0].Club.ID)
	assert.Equal(t, []string{"p1"}, ids(groups[0].Posts))
}
