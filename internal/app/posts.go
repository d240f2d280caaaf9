package app

import (
	"context"
	"errors"

	"campusnet/internal/media"
	"campusnet/internal/models"
	"campusnet/internal/reactions"
	"campusnet/internal/validation"
)

// MediaFile is an attached file to upload with a post.
type MediaFile struct {
	Filename string
	Data     []byte
}

// CreatePost validates the input, uploads attached media, inserts the post,
// and prepends the returned record to the feed. When the media upload fails
// the insert is never issued.
func (c *Controller) CreatePost(ctx context.Context, in validation.NewPostInput, clubID string, attachment *MediaFile) (*models.Post, error) {
	var created models.Post
	err := c.run(ctx, "create_post", func(ctx context.Context) error {
		if err := validation.ValidateNewPost(in); err != nil {
			return err
		}
		cur, err := c.currentIdentity()
		if err != nil {
			return err
		}

		row := map[string]any{
			"author_id": cur.ID,
			"title":     in.Title,
			"content":   in.Content,
			"category":  in.Category,
			"reactions": models.ReactionMap{},
		}
		if clubID != "" {
			row["club_id"] = clubID
		}
		switch in.Category {
		case models.CategoryLostFound:
			row["item_type"] = in.ItemType
			row["location"] = in.Location
		case models.CategoryEvents:
			row["event_date"] = in.EventDate
			row["event_time"] = in.EventTime
			row["event_location"] = in.EventLocation
		}

		if attachment != nil {
			upload, err := media.Prepare(attachment.Filename, attachment.Data)
			if err != nil {
				return err
			}
			if err := c.storage.Upload(ctx, c.bucket, upload.Key, upload.Data, upload.ContentType); err != nil {
				return err
			}
			row["media_url"] = c.storage.PublicURL(c.bucket, upload.Key)
			row["media_type"] = upload.Kind
		}

		if err := c.data.Insert(ctx, "posts", row, postColumns, &created); err != nil {
			return err
		}
		c.content.ApplyNewPost(created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// AddComment appends a comment to a post. The merged comment is the record
// the service returned, author expanded.
func (c *Controller) AddComment(ctx context.Context, postID, content string) error {
	return c.run(ctx, "add_comment", func(ctx context.Context) error {
		if err := validation.ValidateComment(content); err != nil {
			return err
		}
		cur, err := c.currentIdentity()
		if err != nil {
			return err
		}

		var comment models.Comment
		row := map[string]any{
			"post_id":   postID,
			"author_id": cur.ID,
			"content":   content,
		}
		if err := c.data.Insert(ctx, "comments", row, "*, author:profiles(*)", &comment); err != nil {
			return err
		}

		c.content.ApplyCommentAdded(postID, comment)
		c.syncSelectedPost(postID)
		return nil
	})
}

// EditPost updates a post's title and content and marks it edited. The cached
// record is replaced with the service's response.
func (c *Controller) EditPost(ctx context.Context, postID, title, content string) error {
	return c.run(ctx, "edit_post", func(ctx context.Context) error {
		if err := validation.ValidatePostEdit(title, content); err != nil {
			return err
		}

		var updated models.Post
		patch := map[string]any{
			"title":   title,
			"content": content,
			"edited":  true,
		}
		err := c.data.Update(ctx, "posts", where("id", postID), patch, postColumns, &updated)
		if err != nil {
			return err
		}

		c.content.ApplyPostEdited(updated)
		c.nav.UpdateSelectedPost(updated)
		return nil
	})
}

// ToggleReaction applies the exclusive reaction transition for the current
// identity and writes the whole reaction map back. Concurrent togglers on the
// same post resolve last write wins at the service.
func (c *Controller) ToggleReaction(ctx context.Context, postID string, kind models.ReactionKind) error {
	return c.run(ctx, "toggle_reaction", func(ctx context.Context) error {
		cur, err := c.currentIdentity()
		if err != nil {
			return err
		}
		post, ok := c.content.Post(postID)
		if !ok {
			return models.NewNotFoundError("Post", postID)
		}

		next := reactions.Toggle(post.Reactions, cur.ID, kind)
		patch := map[string]any{"reactions": next}
		if err := c.data.Update(ctx, "posts", where("id", postID), patch, "", nil); err != nil {
			return err
		}

		c.content.ApplyReactionChange(postID, next)
		c.syncSelectedPost(postID)
		return nil
	})
}

// SuggestTitle asks the generation service for a title for the given content.
// Without a configured generator the fixed fallback is returned.
func (c *Controller) SuggestTitle(ctx context.Context, content string) string {
	if c.gen == nil {
		return ""
	}
	return c.gen.SuggestTitle(ctx, content)
}

// Summarize asks the generation service for a one-sentence summary of a post.
func (c *Controller) Summarize(ctx context.Context, postID string) string {
	if c.gen == nil {
		return ""
	}
	post, ok := c.content.Post(postID)
	if !ok {
		return ""
	}
	return c.gen.Summarize(ctx, post)
}

// SaveDraft stores a post draft locally.
func (c *Controller) SaveDraft(ctx context.Context, draft *models.Draft) error {
	if c.drafts == nil {
		return models.NewInternalError(errors.New("draft store not configured"))
	}
	return c.drafts.Save(ctx, draft)
}

// ListDrafts returns the locally stored drafts, most recent first.
func (c *Controller) ListDrafts(ctx context.Context) ([]models.Draft, error) {
	if c.drafts == nil {
		return nil, nil
	}
	return c.drafts.List(ctx)
}

// DeleteDraft removes a local draft, typically after it is published.
func (c *Controller) DeleteDraft(ctx context.Context, draftID string) error {
	if c.drafts == nil {
		return nil
	}
	return c.drafts.Delete(ctx, draftID)
}

// syncSelectedPost pushes the cached post record into the selection overlay.
func (c *Controller) syncSelectedPost(postID string) {
	if post, ok := c.content.Post(postID); ok {
		c.nav.UpdateSelectedPost(post)
	}
}
