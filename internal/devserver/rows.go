package devserver

import (
	"encoding/json"
	"time"

	"campusnet/internal/models"
)

// ProfileRow is a profile record plus the credentials the identity provider
// checks at sign-in. The credential columns are never serialized.
type ProfileRow struct {
	ID             string `gorm:"primaryKey" json:"id"`
	Name           string `json:"name"`
	AvatarURL      string `json:"avatar_url"`
	Major          string `json:"major"`
	GraduationYear int    `json:"graduation_year"`
	Bio            string `json:"bio"`

	Email        string `gorm:"uniqueIndex" json:"-"`
	PasswordHash string `json:"-"`
}

func (ProfileRow) TableName() string { return "profiles" }

// PostRow stores a post. Reactions are kept as a JSON document, matching how
// the hosted service stores them.
type PostRow struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	AuthorID      string    `gorm:"index" json:"author_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Category      string    `json:"category"`
	Reactions     string    `json:"-"`
	Edited        bool      `json:"edited"`
	ClubID        string    `gorm:"index" json:"club_id"`
	MediaURL      string    `json:"media_url"`
	MediaType     string    `json:"media_type"`
	ItemType      string    `json:"item_type"`
	Location      string    `json:"location"`
	EventDate     string    `json:"event_date"`
	EventTime     string    `json:"event_time"`
	EventLocation string    `json:"event_location"`
	CreatedAt     time.Time `json:"created_at"`
}

func (PostRow) TableName() string { return "posts" }

// ReactionMap decodes the stored reaction document. A missing or corrupt
// document decodes to an empty map.
func (p *PostRow) ReactionMap() models.ReactionMap {
	out := models.ReactionMap{}
	if p.Reactions != "" {
		_ = json.Unmarshal([]byte(p.Reactions), &out)
	}
	return out
}

// CommentRow stores a comment. IDs are service-assigned and sequential.
type CommentRow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    string    `gorm:"index" json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (CommentRow) TableName() string { return "comments" }

// ClubRow stores a club's metadata. Membership lives in club_members.
type ClubRow struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BannerURL   string `json:"banner_url"`
}

func (ClubRow) TableName() string { return "clubs" }

// ClubMemberRow is one membership edge. Join time orders the membership list;
// the earliest member is the club admin.
type ClubMemberRow struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	ClubID   string    `gorm:"index:idx_membership,unique" json:"club_id"`
	UserID   string    `gorm:"index:idx_membership,unique" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

func (ClubMemberRow) TableName() string { return "club_members" }

// FollowRow is one follow edge.
type FollowRow struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	FollowerID  string `gorm:"index:idx_follow,unique" json:"follower_id"`
	FollowingID string `gorm:"index:idx_follow,unique" json:"following_id"`
}

func (FollowRow) TableName() string { return "user_follows" }

// ObjectRow stores an uploaded media object.
type ObjectRow struct {
	ID          uint   `gorm:"primaryKey"`
	Bucket      string `gorm:"index:idx_object,unique"`
	Key         string `gorm:"index:idx_object,unique"`
	ContentType string
	Data        []byte
}

func (ObjectRow) TableName() string { return "objects" }
