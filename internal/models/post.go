package models

import "time"

// Category classifies a post on the campus feed.
type Category string

const (
	CategorySocial    Category = "Social"
	CategoryAcademics Category = "Academics"
	CategoryEvents    Category = "Events"
	CategoryLostFound Category = "Lost & Found"
	CategoryJobs      Category = "Jobs & Internships"
)

// Categories lists every post category in display order.
var Categories = []Category{
	CategorySocial,
	CategoryAcademics,
	CategoryEvents,
	CategoryLostFound,
	CategoryJobs,
}

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ItemType distinguishes lost from found items on Lost & Found posts.
type ItemType string

const (
	ItemLost  ItemType = "Lost"
	ItemFound ItemType = "Found"
)

// MediaKind identifies attached media as image or video.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// ReactionKind is one of the fixed reaction types. A given identity holds at
// most one kind per post.
type ReactionKind string

const (
	ReactionLike       ReactionKind = "like"
	ReactionLove       ReactionKind = "love"
	ReactionFunny      ReactionKind = "funny"
	ReactionInsightful ReactionKind = "insightful"
)

// ReactionKinds lists every reaction kind.
var ReactionKinds = []ReactionKind{ReactionLike, ReactionLove, ReactionFunny, ReactionInsightful}

// ReactionMap maps a reaction kind to the IDs of identities holding it.
type ReactionMap map[ReactionKind][]string

// Clone returns a deep copy of the map. A nil map clones to an empty one.
func (m ReactionMap) Clone() ReactionMap {
	out := make(ReactionMap, len(m))
	for kind, ids := range m {
		out[kind] = append([]string(nil), ids...)
	}
	return out
}

// KindOf returns the reaction kind the identity currently holds, or "" when
// it holds none.
func (m ReactionMap) KindOf(identityID string) ReactionKind {
	for kind, ids := range m {
		for _, id := range ids {
			if id == identityID {
				return kind
			}
		}
	}
	return ""
}

// Count returns the total number of reactions across all kinds.
func (m ReactionMap) Count() int {
	n := 0
	for _, ids := range m {
		n += len(ids)
	}
	return n
}

// Post represents a post on the campus feed, with its author and comments
// expanded the way the data service returns them.
type Post struct {
	ID        string       `json:"id"`
	Author    Identity     `json:"author"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Category  Category     `json:"category"`
	CreatedAt time.Time    `json:"created_at"`
	Reactions ReactionMap  `json:"reactions"`
	Comments  []Comment    `json:"comments"`
	Edited    bool         `json:"edited"`
	ClubID    string       `json:"club_id,omitempty"`
	MediaURL  string       `json:"media_url,omitempty"`
	MediaKind MediaKind    `json:"media_type,omitempty"`

	// Lost & Found
	ItemType ItemType `json:"item_type,omitempty"`
	Location string   `json:"location,omitempty"`

	// Events
	EventDate     string `json:"event_date,omitempty"`
	EventTime     string `json:"event_time,omitempty"`
	EventLocation string `json:"event_location,omitempty"`
}

// Comment represents a comment on a post. Comments are append-only and owned
// by exactly one post.
type Comment struct {
	ID        uint      `json:"id"`
	Author    Identity  `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
