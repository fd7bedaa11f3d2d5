package sql

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/Brawl345/imagequery/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return sqlx.NewDb(db, "mysql"), mock
}

func TestCredentialService(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, value FROM credentials`)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "value"}).
			AddRow("google_api_key", "db-key").
			AddRow("google_search_engine_id", "db-cx"))

	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("WIKIPEDIA_LANG", "")

	s := NewCredentialService(db)
	assert.Equal(t, "db-key", s.GetKey("google_api_key"))

	t.Setenv("GOOGLE_SEARCH_ENGINE_ID", "env-cx")
	assert.Equal(t, "env-cx", s.GetKey("google_search_engine_id"), "environment takes precedence")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO credentials`)).
		WithArgs("wikipedia_lang", "de", "de").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.SetKey("wikipedia_lang", "de"))
	assert.Equal(t, "de", s.GetKey("wikipedia_lang"))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM credentials`)).
		WithArgs("wikipedia_lang").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.DeleteKey("wikipedia_lang"))
	assert.NotContains(t, s.GetAllCredentials(), "wikipedia_lang")

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM credentials`)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.DeleteKey("missing"), model.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialServiceLoadFailure(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, value FROM credentials`)).
		WillReturnError(errors.New("table missing"))

	s := NewCredentialService(db)
	assert.Empty(t, s.GetAllCredentials())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImageSearchServiceGetImages(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM image_search_images`)).
		WithArgs("cat").
		WillReturnRows(sqlmock.NewRows([]string{"query_id", "image_url", "context_url", "is_gif"}).
			AddRow(int64(3), "https://img/a.jpg", "https://page/x", false).
			AddRow(int64(3), "https://img/b.gif", "https://page/y", true))

	s := NewImageSearchService(db)
	wrapper, err := s.GetImages("Cat")
	require.NoError(t, err)

	assert.Equal(t, int64(3), wrapper.QueryID)
	require.Len(t, wrapper.Images, 2)
	assert.Equal(t, "https://img/a.jpg", wrapper.Images[0].ImageLink())
	assert.Equal(t, "https://page/x", wrapper.Images[0].ContextLink())
	assert.False(t, wrapper.Images[0].IsGIF())
	assert.True(t, wrapper.Images[1].IsGIF())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImageSearchServiceSaveImages(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO image_search_queries (query) VALUES (?)`)).
		WithArgs("cat").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO image_search_images (query_id, position, image_url, context_url, is_gif) VALUES (?, ?, ?, ?, ?),(?, ?, ?, ?, ?)`)).
		WithArgs(7, 0, "A", "X", false, 7, 1, "B", "Y", true).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	s := NewImageSearchService(db)
	wrapper := &model.ImageSearchImages{
		Images: []model.ImageSearchImage{
			Image{ImageURL: "A", ContextURL: "X"},
			Image{ImageURL: "B", ContextURL: "Y", GIF: true},
		},
	}
	id, err := s.SaveImages("CAT", wrapper)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, int64(7), wrapper.QueryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImageSearchServiceSaveImagesRollsBack(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO image_search_queries`)).
		WillReturnError(errors.New("duplicate"))
	mock.ExpectRollback()

	s := NewImageSearchService(db)
	_, err := s.SaveImages("cat", &model.ImageSearchImages{})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImageSearchCleanup(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM image_search_queries WHERE created_at < ?`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := NewImageSearchCleanupService(db).Cleanup(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
