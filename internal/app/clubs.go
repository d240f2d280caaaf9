package app

import (
	"context"

	"campusnet/internal/models"
	"campusnet/internal/validation"
)

// DefaultClubBanner is used when a club is created without a banner image.
const DefaultClubBanner = "https://picsum.photos/seed/newclub/800/300"

// CreateClub inserts the club, joins the creator as its first member, and
// re-fetches the club list. The creator's membership row landing first is
// what makes them the admin.
func (c *Controller) CreateClub(ctx context.Context, name, description, bannerURL string) (*models.Club, error) {
	var created models.Club
	err := c.run(ctx, "create_club", func(ctx context.Context) error {
		if err := validation.ValidateClub(name, description); err != nil {
			return err
		}
		cur, err := c.currentIdentity()
		if err != nil {
			return err
		}

		if bannerURL == "" {
			bannerURL = DefaultClubBanner
		}
		row := map[string]any{
			"name":        name,
			"description": description,
			"banner_url":  bannerURL,
		}
		if err := c.data.Insert(ctx, "clubs", row, "*", &created); err != nil {
			return err
		}

		member := map[string]any{"club_id": created.ID, "user_id": cur.ID}
		if err := c.data.Insert(ctx, "club_members", member, "", nil); err != nil {
			return err
		}

		return c.content.LoadClubs(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// SaveClub updates a club's metadata. Only the club admin may edit.
func (c *Controller) SaveClub(ctx context.Context, clubID, name, description, bannerURL string) error {
	return c.run(ctx, "save_club", func(ctx context.Context) error {
		if err := validation.ValidateClub(name, description); err != nil {
			return err
		}
		cur, err := c.currentIdentity()
		if err != nil {
			return err
		}
		club, ok := c.content.Club(clubID)
		if !ok {
			return models.NewNotFoundError("Club", clubID)
		}
		if club.AdminID() != cur.ID {
			return models.NewUnauthorizedError("Only the club admin can edit the club")
		}

		patch := map[string]any{
			"name":        name,
			"description": description,
			"banner_url":  bannerURL,
		}
		if err := c.data.Update(ctx, "clubs", where("id", clubID), patch, "", nil); err != nil {
			return err
		}

		if err := c.content.LoadClubs(ctx); err != nil {
			return err
		}
		c.syncSelectedClub(clubID)
		return nil
	})
}

// JoinClub adds the current identity to the club's membership and re-fetches
// the club list.
func (c *Controller) JoinClub(ctx context.Context, clubID string) error {
	return c.run(ctx, "join_club", func(ctx context.Context) error {
		cur, err := c.currentIdentity()
		if err != nil {
			return err
		}

		row := map[string]any{"club_id": clubID, "user_id": cur.ID}
		if err := c.data.Insert(ctx, "club_members", row, "", nil); err != nil {
			return err
		}

		if err := c.content.LoadClubs(ctx); err != nil {
			return err
		}
		c.syncSelectedClub(clubID)
		return nil
	})
}

// LeaveClub removes the current identity's membership row and re-fetches the
// club list.
func (c *Controller) LeaveClub(ctx context.Context, clubID string) error {
	return c.run(ctx, "leave_club", func(ctx context.Context) error {
		cur, err := c.currentIdentity()
		if err != nil {
			return err
		}

		filter := where("club_id", clubID).Eq("user_id", cur.ID)
		if err := c.data.Delete(ctx, "club_members", filter); err != nil {
			return err
		}

		if err := c.content.LoadClubs(ctx); err != nil {
			return err
		}
		c.syncSelectedClub(clubID)
		return nil
	})
}

// syncSelectedClub pushes the cached club record into the selection overlay.
func (c *Controller) syncSelectedClub(clubID string) {
	if club, ok := c.content.Club(clubID); ok {
		c.nav.UpdateSelectedClub(club)
	}
}
