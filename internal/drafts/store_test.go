package drafts

import (
	"context"
	"regexp"
	"testing"

	"campusnet/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestSaveAssignsDraftID(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "drafts"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	draft := &models.Draft{Title: "Lost scarf", Category: models.CategoryLostFound}
	require.NoError(t, store.Save(context.Background(), draft))

	assert.NotEmpty(t, draft.DraftID)
	assert.False(t, draft.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersByRecency(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	rows := sqlmock.NewRows([]string{"draft_id", "title"}).
		AddRow("d2", "newer").
		AddRow("d1", "older")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "drafts" ORDER BY updated_at DESC`)).
		WillReturnRows(rows)

	out, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "newer", out[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingDraftIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "drafts" WHERE draft_id = $1`)).
		WithArgs("nope", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := store.Get(context.Background(), "nope")
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestDelete(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "drafts" WHERE draft_id = $1`)).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Delete(context.Background(), "d1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
