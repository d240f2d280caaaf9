package devserver

import (
	"github.com/gofiber/fiber/v2"
)

// postDocument builds the post response shape the client selects: the post
// row with its author and comments embedded, comment authors expanded.
func (s *Server) postDocument(c *fiber.Ctx, row PostRow) (fiber.Map, error) {
	author, err := s.profileByID(c, row.AuthorID)
	if err != nil {
		return nil, err
	}

	var commentRows []CommentRow
	err = s.db.WithContext(c.Context()).
		Where("post_id = ?", row.ID).
		Order("created_at ASC").
		Find(&commentRows).Error
	if err != nil {
		return nil, err
	}

	comments := make([]fiber.Map, 0, len(commentRows))
	for _, cr := range commentRows {
		doc, err := s.commentDocument(c, cr)
		if err != nil {
			return nil, err
		}
		comments = append(comments, doc)
	}

	return fiber.Map{
		"id":             row.ID,
		"author":         author,
		"title":          row.Title,
		"content":        row.Content,
		"category":       row.Category,
		"created_at":     row.CreatedAt,
		"reactions":      row.ReactionMap(),
		"comments":       comments,
		"edited":         row.Edited,
		"club_id":        row.ClubID,
		"media_url":      row.MediaURL,
		"media_type":     row.MediaType,
		"item_type":      row.ItemType,
		"location":       row.Location,
		"event_date":     row.EventDate,
		"event_time":     row.EventTime,
		"event_location": row.EventLocation,
	}, nil
}

func (s *Server) commentDocument(c *fiber.Ctx, row CommentRow) (fiber.Map, error) {
	author, err := s.profileByID(c, row.AuthorID)
	if err != nil {
		return nil, err
	}
	return fiber.Map{
		"id":         row.ID,
		"author":     author,
		"content":    row.Content,
		"created_at": row.CreatedAt,
	}, nil
}

// clubDocument embeds the membership as club_members(user_id), ordered by
// join time so the first entry is the admin.
func (s *Server) clubDocument(c *fiber.Ctx, row ClubRow) (fiber.Map, error) {
	var members []ClubMemberRow
	err := s.db.WithContext(c.Context()).
		Where("club_id = ?", row.ID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	embedded := make([]fiber.Map, 0, len(members))
	for _, m := range members {
		embedded = append(embedded, fiber.Map{"user_id": m.UserID})
	}
	return fiber.Map{
		"id":           row.ID,
		"name":         row.Name,
		"description":  row.Description,
		"banner_url":   row.BannerURL,
		"club_members": embedded,
	}, nil
}

// profileByID returns the profile row, or an empty placeholder for a dangling
// author reference.
func (s *Server) profileByID(c *fiber.Ctx, id string) (ProfileRow, error) {
	var row ProfileRow
	err := s.db.WithContext(c.Context()).First(&row, "id = ?", id).Error
	if err != nil {
		return ProfileRow{ID: id}, nil
	}
	return row, nil
}
