package app

import (
	"context"

	"campusnet/internal/models"
	"campusnet/internal/remote"
	"campusnet/internal/validation"
)

// Follow records the current identity following another user. The local state
// is updated before the remote call; if the insert fails the prior state is
// restored and the error surfaced.
func (c *Controller) Follow(ctx context.Context, userID string) error {
	return c.run(ctx, "follow_user", func(ctx context.Context) error {
		cur, err := c.currentIdentity()
		if err != nil {
			return err
		}
		if cur.ID == userID || cur.Follows(userID) {
			return nil
		}

		c.applyFollow(userID, true)

		row := map[string]any{"follower_id": cur.ID, "following_id": userID}
		if err := c.data.Insert(ctx, "user_follows", row, "", nil); err != nil {
			c.applyFollow(userID, false)
			return err
		}
		return nil
	})
}

// Unfollow removes the follow edge, with the same optimistic apply and
// rollback shape as Follow.
func (c *Controller) Unfollow(ctx context.Context, userID string) error {
	return c.run(ctx, "unfollow_user", func(ctx context.Context) error {
		cur, err := c.currentIdentity()
		if err != nil {
			return err
		}
		if !cur.Follows(userID) {
			return nil
		}

		c.applyFollow(userID, false)

		filter := where("follower_id", cur.ID).Eq("following_id", userID)
		if err := c.data.Delete(ctx, "user_follows", filter); err != nil {
			c.applyFollow(userID, true)
			return err
		}
		return nil
	})
}

// applyFollow adjusts the following set and any open profile view in one
// direction. Called twice on failure, once forward and once to roll back.
func (c *Controller) applyFollow(userID string, followed bool) {
	c.content.UpdateCurrent(func(cur *models.CurrentIdentity) {
		if followed {
			cur.AddFollowing(userID)
		} else {
			cur.RemoveFollowing(userID)
		}
	})
	c.nav.UpdateSelectedUser(func(pv *models.ProfileView) {
		if pv.ID != userID || pv.IsFollowedByCurrentUser == followed {
			return
		}
		pv.IsFollowedByCurrentUser = followed
		if followed {
			pv.FollowerCount++
		} else if pv.FollowerCount > 0 {
			pv.FollowerCount--
		}
	})
}

// SearchUsers matches the query case-insensitively against profile names and
// majors. The current identity is excluded from results. An empty query
// returns no results without a remote call.
func (c *Controller) SearchUsers(ctx context.Context, query string) ([]models.Identity, error) {
	if query == "" {
		return nil, nil
	}
	cur, err := c.currentIdentity()
	if err != nil {
		return nil, err
	}

	var profiles []models.Identity
	opts := remote.SelectOptions{Filter: remote.Where().SearchAny(query, "name", "major")}
	if err := c.data.Select(ctx, "profiles", opts, &profiles); err != nil {
		return nil, err
	}

	out := profiles[:0]
	for _, p := range profiles {
		if p.ID != cur.ID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ViewProfile builds the read-only projection of another identity's profile.
// Follower and following counts are two count queries over the follow
// relation; the follow flag comes from the cached following set.
func (c *Controller) ViewProfile(ctx context.Context, user models.Identity) (*models.ProfileView, error) {
	cur, err := c.currentIdentity()
	if err != nil {
		return nil, err
	}

	followers, err := c.data.Count(ctx, "user_follows", where("following_id", user.ID))
	if err != nil {
		return nil, err
	}
	following, err := c.data.Count(ctx, "user_follows", where("follower_id", user.ID))
	if err != nil {
		return nil, err
	}

	pv := models.ProfileView{
		Identity:                user,
		FollowerCount:           followers,
		FollowingCount:          following,
		IsFollowedByCurrentUser: cur.Follows(user.ID),
	}
	c.nav.SelectUser(pv)
	return &pv, nil
}

// SaveProfile updates the current identity's profile and re-fetches posts so
// cached author records reflect the change.
func (c *Controller) SaveProfile(ctx context.Context, updated models.Identity) error {
	return c.run(ctx, "save_profile", func(ctx context.Context) error {
		if err := validation.ValidateProfile(updated.Name, updated.GraduationYear); err != nil {
			return err
		}
		cur, err := c.currentIdentity()
		if err != nil {
			return err
		}

		patch := map[string]any{
			"name":            updated.Name,
			"avatar_url":      updated.AvatarURL,
			"major":           updated.Major,
			"graduation_year": updated.GraduationYear,
			"bio":             updated.Bio,
		}
		if err := c.data.Update(ctx, "profiles", where("id", cur.ID), patch, "", nil); err != nil {
			return err
		}

		c.content.UpdateCurrent(func(me *models.CurrentIdentity) {
			updated.ID = me.ID
			me.Identity = updated
		})
		return c.content.LoadPosts(ctx)
	})
}
