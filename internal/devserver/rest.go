package devserver

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// restQuery is the parsed shape of a data-service request: equality filters,
// OR-of-contains groups, ordering, and the response preferences carried in
// headers.
type restQuery struct {
	eq             map[string]string
	or             []orGroup
	orderBy        string
	desc           bool
	single         bool
	countExact     bool
	representation bool
}

type orGroup struct {
	columns []string
	query   string
}

func parseRestQuery(c *fiber.Ctx) restQuery {
	q := restQuery{eq: map[string]string{}}

	for key, vals := range c.Queries() {
		switch key {
		case "select":
			// The dev backend always returns full rows with their embeds;
			// projections are accepted and ignored.
		case "order":
			col, dir, _ := strings.Cut(vals, ".")
			q.orderBy = col
			q.desc = dir == "desc"
		case "or":
			q.or = append(q.or, parseOrGroup(vals))
		default:
			if op, val, ok := strings.Cut(vals, "."); ok && op == "eq" {
				q.eq[key] = val
			}
		}
	}

	q.single = strings.Contains(c.Get("Accept"), "vnd.pgrst.object")
	prefer := c.Get("Prefer")
	q.countExact = strings.Contains(prefer, "count=exact")
	q.representation = strings.Contains(prefer, "return=representation")
	return q
}

// parseOrGroup decodes "(name.ilike.*q*,major.ilike.*q*)".
func parseOrGroup(raw string) orGroup {
	raw = strings.TrimPrefix(raw, "(")
	raw = strings.TrimSuffix(raw, ")")

	var g orGroup
	for _, part := range strings.Split(raw, ",") {
		fields := strings.SplitN(part, ".", 3)
		if len(fields) != 3 || fields[1] != "ilike" {
			continue
		}
		g.columns = append(g.columns, fields[0])
		g.query = strings.Trim(fields[2], "*")
	}
	return g
}

// applyFilters narrows a query to the parsed filters, restricted to the
// table's filterable columns.
func applyFilters(db *gorm.DB, q restQuery, allowed map[string]bool) *gorm.DB {
	for col, val := range q.eq {
		if allowed[col] {
			db = db.Where(fmt.Sprintf("%s = ?", col), val)
		}
	}
	for _, g := range q.or {
		var clauses []string
		var args []any
		for _, col := range g.columns {
			if !allowed[col] {
				continue
			}
			clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE ?", col))
			args = append(args, "%"+strings.ToLower(g.query)+"%")
		}
		if len(clauses) > 0 {
			db = db.Where(strings.Join(clauses, " OR "), args...)
		}
	}
	return db
}

var filterableColumns = map[string]map[string]bool{
	"profiles":     {"id": true, "name": true, "major": true},
	"posts":        {"id": true, "author_id": true, "club_id": true, "category": true},
	"comments":     {"id": true, "post_id": true, "author_id": true},
	"clubs":        {"id": true, "name": true},
	"club_members": {"club_id": true, "user_id": true},
	"user_follows": {"follower_id": true, "following_id": true},
}

var tableModels = map[string]func() any{
	"profiles":     func() any { return &[]ProfileRow{} },
	"posts":        func() any { return &[]PostRow{} },
	"comments":     func() any { return &[]CommentRow{} },
	"clubs":        func() any { return &[]ClubRow{} },
	"club_members": func() any { return &[]ClubMemberRow{} },
	"user_follows": func() any { return &[]FollowRow{} },
}

// RestSelect handles GET and HEAD on /rest/:table. A HEAD with
// "Prefer: count=exact" answers only the Content-Range total.
func (s *Server) RestSelect(c *fiber.Ctx) error {
	table := c.Params("table")
	allowed, ok := filterableColumns[table]
	if !ok {
		return respondStatus(c, fiber.StatusNotFound, "Unknown table "+table)
	}
	q := parseRestQuery(c)

	if c.Method() == fiber.MethodHead && q.countExact {
		var count int64
		db := applyFilters(s.db.WithContext(c.Context()).Table(table), q, allowed)
		if err := db.Count(&count).Error; err != nil {
			return respondStatus(c, fiber.StatusInternalServerError, "Count failed")
		}
		c.Set("Content-Range", fmt.Sprintf("0-0/%d", count))
		return c.SendStatus(fiber.StatusOK)
	}

	switch table {
	case "posts":
		return s.selectPosts(c, q)
	case "clubs":
		return s.selectClubs(c, q)
	default:
		return s.selectRows(c, table, q, allowed)
	}
}

// selectRows serves the tables whose rows need no embedding.
func (s *Server) selectRows(c *fiber.Ctx, table string, q restQuery, allowed map[string]bool) error {
	dest := tableModels[table]()
	db := applyFilters(s.db.WithContext(c.Context()).Table(table), q, allowed)
	if q.orderBy == "created_at" {
		db = db.Order(orderClause("created_at", q.desc))
	}
	if err := db.Find(dest).Error; err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Query failed")
	}
	if q.single {
		return respondSingle(c, dest)
	}
	return c.JSON(dest)
}

func (s *Server) selectPosts(c *fiber.Ctx, q restQuery) error {
	var rows []PostRow
	db := applyFilters(s.db.WithContext(c.Context()), q, filterableColumns["posts"])
	if q.orderBy == "created_at" {
		db = db.Order(orderClause("created_at", q.desc))
	}
	if err := db.Find(&rows).Error; err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Query failed")
	}

	out := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		doc, err := s.postDocument(c, row)
		if err != nil {
			return respondStatus(c, fiber.StatusInternalServerError, "Serialization failed")
		}
		out = append(out, doc)
	}
	if q.single {
		return respondSingle(c, &out)
	}
	return c.JSON(out)
}

func (s *Server) selectClubs(c *fiber.Ctx, q restQuery) error {
	var rows []ClubRow
	db := applyFilters(s.db.WithContext(c.Context()), q, filterableColumns["clubs"])
	if err := db.Find(&rows).Error; err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Query failed")
	}

	out := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		doc, err := s.clubDocument(c, row)
		if err != nil {
			return respondStatus(c, fiber.StatusInternalServerError, "Serialization failed")
		}
		out = append(out, doc)
	}
	if q.single {
		return respondSingle(c, &out)
	}
	return c.JSON(out)
}

// RestInsert handles POST /rest/:table.
func (s *Server) RestInsert(c *fiber.Ctx) error {
	table := c.Params("table")
	q := parseRestQuery(c)

	var body map[string]any
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return respondStatus(c, fiber.StatusBadRequest, "Invalid request body")
	}

	switch table {
	case "posts":
		return s.insertPost(c, q, body)
	case "comments":
		return s.insertComment(c, q, body)
	case "clubs":
		return s.insertClub(c, q, body)
	case "club_members":
		row := ClubMemberRow{
			ClubID:   str(body, "club_id"),
			UserID:   str(body, "user_id"),
			JoinedAt: time.Now(),
		}
		if row.ClubID == "" || row.UserID == "" {
			return respondStatus(c, fiber.StatusBadRequest, "club_id and user_id are required")
		}
		if err := s.db.WithContext(c.Context()).Create(&row).Error; err != nil {
			return respondStatus(c, fiber.StatusConflict, "Already a member")
		}
		s.hub.BroadcastChange("club_members", "insert")
		return c.SendStatus(fiber.StatusCreated)
	case "user_follows":
		row := FollowRow{
			FollowerID:  str(body, "follower_id"),
			FollowingID: str(body, "following_id"),
		}
		if row.FollowerID == "" || row.FollowingID == "" {
			return respondStatus(c, fiber.StatusBadRequest, "follower_id and following_id are required")
		}
		if err := s.db.WithContext(c.Context()).Create(&row).Error; err != nil {
			return respondStatus(c, fiber.StatusConflict, "Already following")
		}
		s.hub.BroadcastChange("user_follows", "insert")
		return c.SendStatus(fiber.StatusCreated)
	default:
		return respondStatus(c, fiber.StatusNotFound, "Unknown table "+table)
	}
}

func (s *Server) insertPost(c *fiber.Ctx, q restQuery, body map[string]any) error {
	reactions := "{}"
	if raw, ok := body["reactions"]; ok {
		if encoded, err := json.Marshal(raw); err == nil {
			reactions = string(encoded)
		}
	}

	row := PostRow{
		ID:            uuid.NewString(),
		AuthorID:      str(body, "author_id"),
		Title:         str(body, "title"),
		Content:       str(body, "content"),
		Category:      str(body, "category"),
		Reactions:     reactions,
		ClubID:        str(body, "club_id"),
		MediaURL:      str(body, "media_url"),
		MediaType:     str(body, "media_type"),
		ItemType:      str(body, "item_type"),
		Location:      str(body, "location"),
		EventDate:     str(body, "event_date"),
		EventTime:     str(body, "event_time"),
		EventLocation: str(body, "event_location"),
		CreatedAt:     time.Now(),
	}
	if row.AuthorID == "" {
		row.AuthorID, _ = c.Locals("userID").(string)
	}
	if err := s.db.WithContext(c.Context()).Create(&row).Error; err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Insert failed")
	}
	s.hub.BroadcastChange("posts", "insert")

	if !q.representation {
		return c.SendStatus(fiber.StatusCreated)
	}
	doc, err := s.postDocument(c, row)
	if err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Serialization failed")
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (s *Server) insertComment(c *fiber.Ctx, q restQuery, body map[string]any) error {
	row := CommentRow{
		PostID:    str(body, "post_id"),
		AuthorID:  str(body, "author_id"),
		Content:   str(body, "content"),
		CreatedAt: time.Now(),
	}
	if row.AuthorID == "" {
		row.AuthorID, _ = c.Locals("userID").(string)
	}
	if row.PostID == "" || row.Content == "" {
		return respondStatus(c, fiber.StatusBadRequest, "post_id and content are required")
	}
	if err := s.db.WithContext(c.Context()).Create(&row).Error; err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Insert failed")
	}
	s.hub.BroadcastChange("comments", "insert")

	if !q.representation {
		return c.SendStatus(fiber.StatusCreated)
	}
	doc, err := s.commentDocument(c, row)
	if err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Serialization failed")
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (s *Server) insertClub(c *fiber.Ctx, q restQuery, body map[string]any) error {
	row := ClubRow{
		ID:          uuid.NewString(),
		Name:        str(body, "name"),
		Description: str(body, "description"),
		BannerURL:   str(body, "banner_url"),
	}
	if row.Name == "" {
		return respondStatus(c, fiber.StatusBadRequest, "name is required")
	}
	if err := s.db.WithContext(c.Context()).Create(&row).Error; err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Insert failed")
	}
	s.hub.BroadcastChange("clubs", "insert")

	if !q.representation {
		return c.SendStatus(fiber.StatusCreated)
	}
	doc, err := s.clubDocument(c, row)
	if err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Serialization failed")
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// RestUpdate handles PATCH /rest/:table. Updates require an id filter; the
// patch is restricted to the table's writable columns.
func (s *Server) RestUpdate(c *fiber.Ctx) error {
	table := c.Params("table")
	q := parseRestQuery(c)
	id := q.eq["id"]
	if id == "" {
		return respondStatus(c, fiber.StatusBadRequest, "An id filter is required")
	}

	var body map[string]any
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return respondStatus(c, fiber.StatusBadRequest, "Invalid request body")
	}

	var patch map[string]any
	switch table {
	case "posts":
		patch = pick(body, "title", "content", "edited", "item_type", "location",
			"event_date", "event_time", "event_location")
		if raw, ok := body["reactions"]; ok {
			if encoded, err := json.Marshal(raw); err == nil {
				patch["reactions"] = string(encoded)
			}
		}
	case "profiles":
		patch = pick(body, "name", "avatar_url", "major", "graduation_year", "bio")
	case "clubs":
		patch = pick(body, "name", "description", "banner_url")
	default:
		return respondStatus(c, fiber.StatusNotFound, "Unknown table "+table)
	}
	if len(patch) == 0 {
		return respondStatus(c, fiber.StatusBadRequest, "Nothing to update")
	}

	res := s.db.WithContext(c.Context()).Table(table).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Update failed")
	}
	if res.RowsAffected == 0 {
		return respondStatus(c, fiber.StatusNotFound, "No matching row")
	}
	s.hub.BroadcastChange(table, "update")

	if !q.representation {
		return c.SendStatus(fiber.StatusNoContent)
	}
	switch table {
	case "posts":
		var row PostRow
		if err := s.db.WithContext(c.Context()).First(&row, "id = ?", id).Error; err != nil {
			return respondStatus(c, fiber.StatusInternalServerError, "Query failed")
		}
		doc, err := s.postDocument(c, row)
		if err != nil {
			return respondStatus(c, fiber.StatusInternalServerError, "Serialization failed")
		}
		return c.JSON(doc)
	case "profiles":
		var row ProfileRow
		if err := s.db.WithContext(c.Context()).First(&row, "id = ?", id).Error; err != nil {
			return respondStatus(c, fiber.StatusInternalServerError, "Query failed")
		}
		return c.JSON(row)
	default:
		var row ClubRow
		if err := s.db.WithContext(c.Context()).First(&row, "id = ?", id).Error; err != nil {
			return respondStatus(c, fiber.StatusInternalServerError, "Query failed")
		}
		doc, err := s.clubDocument(c, row)
		if err != nil {
			return respondStatus(c, fiber.StatusInternalServerError, "Serialization failed")
		}
		return c.JSON(doc)
	}
}

// RestDelete handles DELETE /rest/:table for the relation tables.
func (s *Server) RestDelete(c *fiber.Ctx) error {
	table := c.Params("table")
	allowed, ok := filterableColumns[table]
	if !ok {
		return respondStatus(c, fiber.StatusNotFound, "Unknown table "+table)
	}
	q := parseRestQuery(c)
	if len(q.eq) == 0 {
		return respondStatus(c, fiber.StatusBadRequest, "A filter is required")
	}

	var model any
	switch table {
	case "club_members":
		model = &ClubMemberRow{}
	case "user_follows":
		model = &FollowRow{}
	case "posts":
		model = &PostRow{}
	case "comments":
		model = &CommentRow{}
	default:
		return respondStatus(c, fiber.StatusMethodNotAllowed, "Table does not support delete")
	}

	db := applyFilters(s.db.WithContext(c.Context()), q, allowed)
	if err := db.Delete(model).Error; err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Delete failed")
	}
	s.hub.BroadcastChange(table, "delete")
	return c.SendStatus(fiber.StatusNoContent)
}

func orderClause(col string, desc bool) string {
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// respondSingle unwraps a one-element slice into an object response, matching
// the data service's single-object accept mode.
func respondSingle(c *fiber.Ctx, dest any) error {
	encoded, err := json.Marshal(dest)
	if err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Serialization failed")
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(encoded, &rows); err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Serialization failed")
	}
	if len(rows) != 1 {
		return respondStatus(c, fiber.StatusNotAcceptable,
			fmt.Sprintf("Expected a single row, got %d", len(rows)))
	}
	c.Set("Content-Type", "application/vnd.pgrst.object+json")
	return c.Send(rows[0])
}

func str(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// pick copies the listed keys that are present in src.
func pick(src map[string]any, keys ...string) map[string]any {
	out := map[string]any{}
	for _, k := range keys {
		if v, ok := src[k]; ok {
			out[k] = v
		}
	}
	return out
}
