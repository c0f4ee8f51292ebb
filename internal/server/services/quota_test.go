package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/skydrive/skydrive/internal/common"
	"github.com/skydrive/skydrive/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuotaService(t *testing.T, limit int64) (*QuotaService, *fakeRepoManager, *sql.DB) {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := newFakeRepoManager()
	return NewQuotaService(db, repos, limit), repos, db
}

func TestAuthorize_WithinLimit(t *testing.T) {
	svc, repos, _ := newQuotaService(t, 100)

	repos.fileRepo.rows = []*models.File{
		{ID: "f1", UserID: "u1", Size: 40},
	}

	assert.NoError(t, svc.Authorize(context.Background(), "u1", 60))
}

func TestAuthorize_ExceedsLimit(t *testing.T) {
	svc, repos, _ := newQuotaService(t, 100)

	repos.fileRepo.rows = []*models.File{
		{ID: "f1", UserID: "u1", Size: 40},
	}

	err := svc.Authorize(context.Background(), "u1", 61)
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
}

func TestAuthorize_NegativeSize(t *testing.T) {
	svc, _, _ := newQuotaService(t, 100)

	err := svc.Authorize(context.Background(), "u1", -1)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAuthorize_OtherOwnersDoNotCount(t *testing.T) {
	svc, repos, _ := newQuotaService(t, 100)

	repos.fileRepo.rows = []*models.File{
		{ID: "f1", UserID: "u2", Size: 90},
	}

	assert.NoError(t, svc.Authorize(context.Background(), "u1", 100))
}

func TestBreakdown_Categorizes(t *testing.T) {
	svc, repos, _ := newQuotaService(t, 1000)

	png := "image/png"
	mp4 := "video/mp4"
	pdf := "application/pdf"
	sheet := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	bin := "application/octet-stream"

	repos.fileRepo.rows = []*models.File{
		{ID: "f1", UserID: "u1", Size: 10, MimeType: &png},
		{ID: "f2", UserID: "u1", Size: 20, MimeType: &png},
		{ID: "f3", UserID: "u1", Size: 30, MimeType: &mp4},
		{ID: "f4", UserID: "u1", Size: 40, MimeType: &pdf},
		{ID: "f5", UserID: "u1", Size: 50, MimeType: &sheet},
		{ID: "f6", UserID: "u1", Size: 60, MimeType: &bin},
		{ID: "f7", UserID: "u1", Size: 70, MimeType: nil},
	}

	got, err := svc.Breakdown(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, int64(280), got.Used)
	assert.Equal(t, int64(1000), got.Limit)
	assert.Equal(t, models.CategoryUsage{Size: 30, Count: 2}, got.Image)
	assert.Equal(t, models.CategoryUsage{Size: 30, Count: 1}, got.Video)
	assert.Equal(t, models.CategoryUsage{Size: 90, Count: 2}, got.Document)
	assert.Equal(t, models.CategoryUsage{Size: 130, Count: 2}, got.Other)
}

func TestCategoryOf(t *testing.T) {
	word := "application/msword"
	text := "text/plain"
	jpeg := "image/jpeg"

	tests := []struct {
		mime *string
		want string
	}{
		{nil, "other"},
		{&jpeg, "image"},
		{&word, "document"},
		{&text, "document"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, categoryOf(tt.mime))
	}
}
