// Package seed populates the dev backend's database with plausible campus
// data so the client has something to show on first run.
package seed

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"campusnet/internal/devserver"
	"campusnet/internal/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account signs in with.
const DefaultPassword = "password123"

var majors = []string{
	"Computer Science", "Mechanical Engineering", "Biology", "Economics",
	"Psychology", "English Literature", "Chemistry", "Political Science",
	"Mathematics", "Art History",
}

var clubPresets = []Club{
	{Name: "Chess Club", Description: "Casual and competitive chess, all levels welcome."},
	{Name: "Hiking Society", Description: "Weekend trails and the occasional overnight trip."},
	{Name: "Robotics Team", Description: "We build robots and enter them in regional competitions."},
	{Name: "Film Appreciation", Description: "Weekly screenings followed by heated arguments."},
}

// Preset is the optional YAML override for seeded profiles and clubs.
type Preset struct {
	Profiles []Profile `yaml:"profiles"`
	Clubs    []Club    `yaml:"clubs"`
}

// Profile is one preset account.
type Profile struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Major string `yaml:"major"`
}

// Club is one preset club.
type Club struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Seed wipes and repopulates the database. When presetPath is non-empty the
// profiles and clubs come from the YAML file instead of generated data.
func Seed(db *gorm.DB, presetPath string) error {
	log.Println("Seeding dev backend database...")

	preset, err := loadPreset(presetPath)
	if err != nil {
		return fmt.Errorf("failed to load seed preset: %w", err)
	}

	if err := clearData(db); err != nil {
		return fmt.Errorf("failed to clear data: %w", err)
	}

	profiles, err := createProfiles(db, preset.Profiles)
	if err != nil {
		return fmt.Errorf("failed to create profiles: %w", err)
	}
	log.Printf("Created %d profiles", len(profiles))

	clubs, err := createClubs(db, preset.Clubs, profiles)
	if err != nil {
		return fmt.Errorf("failed to create clubs: %w", err)
	}
	log.Printf("Created %d clubs", len(clubs))

	posts, err := createPosts(db, profiles, clubs)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("Created %d posts", len(posts))

	commentCount, err := createComments(db, profiles, posts)
	if err != nil {
		return fmt.Errorf("failed to create comments: %w", err)
	}
	log.Printf("Created %d comments", commentCount)

	followCount, err := createFollows(db, profiles)
	if err != nil {
		return fmt.Errorf("failed to create follows: %w", err)
	}
	log.Printf("Created %d follow edges", followCount)

	log.Println("Seeding completed")
	return nil
}

func loadPreset(path string) (Preset, error) {
	if path == "" {
		return Preset{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, err
	}
	var preset Preset
	if err := yaml.Unmarshal(raw, &preset); err != nil {
		return Preset{}, err
	}
	return preset, nil
}

func clearData(db *gorm.DB) error {
	for _, table := range []string{
		"comments", "posts", "club_members", "clubs", "user_follows", "objects", "profiles",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createProfiles(db *gorm.DB, presets []Profile) ([]devserver.ProfileRow, error) {
	if len(presets) == 0 {
		for i := 0; i < 12; i++ {
			presets = append(presets, Profile{
				Name:  gofakeit.Name(),
				Major: majors[i%len(majors)],
			})
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	rows := make([]devserver.ProfileRow, 0, len(presets))
	for i, p := range presets {
		email := p.Email
		if email == "" {
			email = fmt.Sprintf("student%d@campus.edu", i+1)
		}
		row := devserver.ProfileRow{
			ID:             uuid.NewString(),
			Name:           p.Name,
			AvatarURL:      fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", email),
			Major:          p.Major,
			GraduationYear: 2025 + rand.Intn(4),
			Bio:            gofakeit.Sentence(10),
			Email:          email,
			PasswordHash:   string(hashed),
		}
		if err := db.Create(&row).Error; err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func createClubs(db *gorm.DB, presets []Club, profiles []devserver.ProfileRow) ([]devserver.ClubRow, error) {
	if len(presets) == 0 {
		presets = clubPresets
	}

	rows := make([]devserver.ClubRow, 0, len(presets))
	for i, preset := range presets {
		club := devserver.ClubRow{
			ID:          uuid.NewString(),
			Name:        preset.Name,
			Description: preset.Description,
			BannerURL:   fmt.Sprintf("https://picsum.photos/seed/club%d/800/300", i),
		}
		if err := db.Create(&club).Error; err != nil {
			return nil, err
		}

		// The first membership row created is the admin; join times increase
		// so the ordering is unambiguous.
		memberCount := 2 + rand.Intn(4)
		if memberCount > len(profiles) {
			memberCount = len(profiles)
		}
		joined := time.Now().Add(-30 * 24 * time.Hour)
		for _, p := range pickProfiles(profiles, memberCount) {
			member := devserver.ClubMemberRow{
				ClubID:   club.ID,
				UserID:   p.ID,
				JoinedAt: joined,
			}
			if err := db.Create(&member).Error; err != nil {
				return nil, err
			}
			joined = joined.Add(time.Hour)
		}
		rows = append(rows, club)
	}
	return rows, nil
}

func createPosts(db *gorm.DB, profiles []devserver.ProfileRow, clubs []devserver.ClubRow) ([]devserver.PostRow, error) {
	posts := make([]devserver.PostRow, 0)
	createdAt := time.Now().Add(-14 * 24 * time.Hour)

	for _, author := range profiles {
		numPosts := 1 + rand.Intn(3)
		for i := 0; i < numPosts; i++ {
			post := buildPost(author, clubs)
			post.CreatedAt = createdAt
			createdAt = createdAt.Add(time.Duration(1+rand.Intn(8)) * time.Hour)

			if err := db.Create(&post).Error; err != nil {
				return nil, err
			}
			posts = append(posts, post)
		}
	}

	// Sprinkle reactions over the feed.
	for i := range posts {
		reactions := models.ReactionMap{}
		for _, kind := range models.ReactionKinds {
			for _, p := range pickProfiles(profiles, rand.Intn(3)) {
				if reactions.KindOf(p.ID) == "" {
					reactions[kind] = append(reactions[kind], p.ID)
				}
			}
		}
		if reactions.Count() == 0 {
			continue
		}
		encoded, err := json.Marshal(reactions)
		if err != nil {
			return nil, err
		}
		err = db.Model(&devserver.PostRow{}).
			Where("id = ?", posts[i].ID).
			Update("reactions", string(encoded)).Error
		if err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func buildPost(author devserver.ProfileRow, clubs []devserver.ClubRow) devserver.PostRow {
	category := models.Categories[rand.Intn(len(models.Categories))]
	post := devserver.PostRow{
		ID:        uuid.NewString(),
		AuthorID:  author.ID,
		Title:     gofakeit.Sentence(5),
		Content:   gofakeit.Paragraph(1, 3, 12, " "),
		Category:  string(category),
		Reactions: "{}",
	}

	switch category {
	case models.CategoryLostFound:
		kinds := []models.ItemType{models.ItemLost, models.ItemFound}
		post.ItemType = string(kinds[rand.Intn(2)])
		post.Location = gofakeit.StreetName() + " Hall"
	case models.CategoryEvents:
		when := time.Now().Add(time.Duration(1+rand.Intn(21)) * 24 * time.Hour)
		post.EventDate = when.Format("2006-01-02")
		post.EventTime = fmt.Sprintf("%02d:00", 10+rand.Intn(10))
		post.EventLocation = "Student Center Room " + fmt.Sprint(100+rand.Intn(300))
	}

	if len(clubs) > 0 && rand.Float32() < 0.25 {
		post.ClubID = clubs[rand.Intn(len(clubs))].ID
	}
	if rand.Float32() < 0.3 {
		post.MediaURL = fmt.Sprintf("https://picsum.photos/seed/%d/800/600", rand.Intn(1000))
		post.MediaType = string(models.MediaImage)
	}
	return post
}

func createComments(db *gorm.DB, profiles []devserver.ProfileRow, posts []devserver.PostRow) (int, error) {
	count := 0
	for _, post := range posts {
		for _, commenter := range pickProfiles(profiles, rand.Intn(4)) {
			comment := devserver.CommentRow{
				PostID:    post.ID,
				AuthorID:  commenter.ID,
				Content:   gofakeit.Sentence(8),
				CreatedAt: post.CreatedAt.Add(time.Duration(1+rand.Intn(120)) * time.Minute),
			}
			if err := db.Create(&comment).Error; err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func createFollows(db *gorm.DB, profiles []devserver.ProfileRow) (int, error) {
	count := 0
	for _, follower := range profiles {
		for _, followed := range pickProfiles(profiles, 2+rand.Intn(4)) {
			if followed.ID == follower.ID {
				continue
			}
			edge := devserver.FollowRow{
				FollowerID:  follower.ID,
				FollowingID: followed.ID,
			}
			if err := db.Create(&edge).Error; err != nil {
				// Duplicate edges from overlapping picks are fine to skip.
				continue
			}
			count++
		}
	}
	return count, nil
}

// pickProfiles returns n distinct random profiles.
func pickProfiles(profiles []devserver.ProfileRow, n int) []devserver.ProfileRow {
	if n >= len(profiles) {
		n = len(profiles)
	}
	idx := rand.Perm(len(profiles))[:n]
	out := make([]devserver.ProfileRow, 0, n)
	for _, i := range idx {
		out = append(out, profiles[i])
	}
	return out
}
