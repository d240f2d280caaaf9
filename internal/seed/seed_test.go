package seed

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"campusnet/internal/devserver"
	"campusnet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&devserver.ProfileRow{}, &devserver.PostRow{}, &devserver.CommentRow{},
		&devserver.ClubRow{}, &devserver.ClubMemberRow{}, &devserver.FollowRow{},
		&devserver.ObjectRow{},
	))
	return db
}

func TestSeedPopulatesAllTables(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Seed(db, ""))

	var profiles, posts, clubs, memberships int64
	require.NoError(t, db.Model(&devserver.ProfileRow{}).Count(&profiles).Error)
	require.NoError(t, db.Model(&devserver.PostRow{}).Count(&posts).Error)
	require.NoError(t, db.Model(&devserver.ClubRow{}).Count(&clubs).Error)
	require.NoError(t, db.Model(&devserver.ClubMemberRow{}).Count(&memberships).Error)

	assert.EqualValues(t, 12, profiles)
	assert.NotZero(t, posts)
	assert.EqualValues(t, 4, clubs)
	assert.GreaterOrEqual(t, memberships, clubs, "every club has at least one member")
}

func TestSeededAccountsCanAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Seed(db, ""))

	var profile devserver.ProfileRow
	require.NoError(t, db.First(&profile).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(profile.PasswordHash), []byte(DefaultPassword)))
	assert.NotEmpty(t, profile.Email)
}

func TestSeededReactionsAreWellFormed(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Seed(db, ""))

	var rows []devserver.PostRow
	require.NoError(t, db.Find(&rows).Error)
	for _, row := range rows {
		var reactions models.ReactionMap
		require.NoError(t, json.Unmarshal([]byte(row.Reactions), &reactions),
			"post %s has malformed reactions %q", row.ID, row.Reactions)
		for _, ids := range reactions {
			for _, id := range ids {
				// Every reacting identity holds exactly one kind.
				assert.NotEmpty(t, reactions.KindOf(id))
			}
		}
	}
}

func TestSeedHonorsPresetFile(t *testing.T) {
	db := setupTestDB(t)

	preset := `
profiles:
  - name: Alice Zhang
    email: alice@campus.edu
    major: Computer Science
  - name: Bob Iwu
    email: bob@campus.edu
    major: Biology
clubs:
  - name: Debate Society
    description: Weekly debates on campus issues.
`
	path := filepath.Join(t.TempDir(), "preset.yml")
	require.NoError(t, os.WriteFile(path, []byte(preset), 0o644))

	require.NoError(t, Seed(db, path))

	var profiles []devserver.ProfileRow
	require.NoError(t, db.Order("email ASC").Find(&profiles).Error)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Alice Zhang", profiles[0].Name)
	assert.Equal(t, "Biology", profiles[1].Major)

	var club devserver.ClubRow
	require.NoError(t, db.First(&club).Error)
	assert.Equal(t, "Debate Society", club.Name)
}

func TestSeedIsRerunnable(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Seed(db, ""))
	require.NoError(t, Seed(db, ""))

	var profiles int64
	require.NoError(t, db.Model(&devserver.ProfileRow{}).Count(&profiles).Error)
	assert.EqualValues(t, 12, profiles, "reseeding replaces rather than duplicates")
}
