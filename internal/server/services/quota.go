package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/skydrive/skydrive/internal/common"
	"github.com/skydrive/skydrive/internal/server/models"
	"github.com/skydrive/skydrive/internal/server/repositories/repomanager"
)

// documentHints are MIME substrings classified into the document category.
var documentHints = []string{"pdf", "text", "document", "msword", "sheet", "presentation"}

// QuotaService meters aggregate storage per owner against a fixed byte
// ceiling and classifies usage into broad categories for reporting.
type QuotaService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	limit int64
}

// NewQuotaService constructs the accountant with the configured limit.
func NewQuotaService(db *sql.DB, repos repomanager.RepositoryManager, limit int64) *QuotaService {
	return &QuotaService{db: db, repos: repos, limit: limit}
}

// Limit returns the configured per-owner byte ceiling.
func (s *QuotaService) Limit() int64 {
	return s.limit
}

// UsedBytes returns the sum of sizes over all of userID's files.
func (s *QuotaService) UsedBytes(ctx context.Context, userID string) (int64, error) {
	return s.repos.Files(s.db).SumSize(ctx, userID)
}

// Authorize admits a prospective write of incoming bytes, or returns
// common.ErrQuotaExceeded. The check runs at credential-issuance time only
// and is not repeated at commit, so two concurrent uploads can both pass and
// overshoot the limit; the overshoot is bounded and accepted.
func (s *QuotaService) Authorize(ctx context.Context, userID string, incoming int64) error {
	if incoming < 0 {
		return fmt.Errorf("%w: negative size", common.ErrValidation)
	}
	used, err := s.UsedBytes(ctx, userID)
	if err != nil {
		return err
	}
	if used+incoming > s.limit {
		return common.ErrQuotaExceeded
	}
	return nil
}

// Breakdown reports used bytes against the limit, split into
// image/video/document/other categories by MIME type.
func (s *QuotaService) Breakdown(ctx context.Context, userID string) (*models.UsageBreakdown, error) {
	rows, err := s.repos.Files(s.db).UsageByMime(ctx, userID)
	if err != nil {
		return nil, err
	}

	breakdown := &models.UsageBreakdown{Limit: s.limit}
	for _, row := range rows {
		breakdown.Used += row.Size

		var bucket *models.CategoryUsage
		switch categoryOf(row.MimeType) {
		case "image":
			bucket = &breakdown.Image
		case "video":
			bucket = &breakdown.Video
		case "document":
			bucket = &breakdown.Document
		default:
			bucket = &breakdown.Other
		}
		bucket.Size += row.Size
		bucket.Count += row.Count
	}
	return breakdown, nil
}

// categoryOf buckets a MIME type into image, video, document or other.
func categoryOf(mimeType *string) string {
	if mimeType == nil {
		return "other"
	}
	mt := strings.ToLower(*mimeType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return "image"
	case strings.HasPrefix(mt, "video/"):
		return "video"
	}
	for _, hint := range documentHints {
		if strings.Contains(mt, hint) {
			return "document"
		}
	}
	return "other"
}
