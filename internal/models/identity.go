// Package models contains data structures for the application's domain models.
package models

// Identity represents a user profile record in the campus network.
type Identity struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AvatarURL      string `json:"avatar_url"`
	Major          string `json:"major"`
	GraduationYear int    `json:"graduation_year"`
	Bio            string `json:"bio"`
}

// CurrentIdentity is the authenticated identity. It additionally carries the
// set of identity IDs the user follows.
type CurrentIdentity struct {
	Identity
	Following []string `json:"following"`
}

// Follows reports whether the identity follows the given user ID.
func (c *CurrentIdentity) Follows(id string) bool {
	for _, f := range c.Following {
		if f == id {
			return true
		}
	}
	return false
}

// AddFollowing records a followed user ID. It is a no-op when the ID is
// already present.
func (c *CurrentIdentity) AddFollowing(id string) {
	if c.Follows(id) {
		return
	}
	c.Following = append(c.Following, id)
}

// RemoveFollowing removes a followed user ID if present.
func (c *CurrentIdentity) RemoveFollowing(id string) {
	out := c.Following[:0]
	for _, f := range c.Following {
		if f != id {
			out = append(out, f)
		}
	}
	c.Following = out
}

// ProfileView is a read-only projection of another identity's profile.
// Follower counts and the follow flag are computed at view time from the
// follow relation, never stored.
type ProfileView struct {
	Identity
	FollowerCount           int  `json:"follower_count"`
	FollowingCount          int  `json:"following_count"`
	IsFollowedByCurrentUser bool `json:"is_followed_by_current_user"`
}
