package models

// Club represents a campus club or organization. Members are ordered by join
// time; the creating identity joins first.
type Club struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	BannerURL   string   `json:"banner_url"`
	Members     []string `json:"members"`
	MemberCount int      `json:"member_count"`
}

// AdminID returns the ID of the club admin: the first member by position.
// Membership is re-fetched ordered by join time, so the position is stable.
func (c *Club) AdminID() string {
	if len(c.Members) == 0 {
		return ""
	}
	return c.Members[0]
}

// IsMember reports whether the given identity belongs to the club.
func (c *Club) IsMember(identityID string) bool {
	for _, m := range c.Members {
		if m == identityID {
			return true
		}
	}
	return false
}
