package services

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/skydrive/skydrive/internal/common"
	"github.com/skydrive/skydrive/internal/logging"
	"github.com/skydrive/skydrive/internal/server/models"
	"github.com/skydrive/skydrive/internal/server/objstore"
	"github.com/skydrive/skydrive/internal/server/repositories/repomanager"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	disallowedRe = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
)

// nowMillis is a seam for storage-key tests.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// UploadService runs the server half of the two-phase upload protocol:
// issue a quota-gated write credential, then commit metadata only after the
// object's presence has been verified independently of the client's word.
type UploadService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	store  objstore.Store
	quota  *QuotaService
	logger logging.Logger
}

// NewUploadService constructs the upload service.
func NewUploadService(db *sql.DB, repos repomanager.RepositoryManager, store objstore.Store, quota *QuotaService, logger logging.Logger) *UploadService {
	return &UploadService{
		db:     db,
		repos:  repos,
		store:  store,
		quota:  quota,
		logger: logger.With("module", "upload"),
	}
}

// SanitizeFilename collapses whitespace to hyphens and strips every
// character outside [A-Za-z0-9.-].
func SanitizeFilename(name string) string {
	return disallowedRe.ReplaceAllString(whitespaceRe.ReplaceAllString(name, "-"), "")
}

// BuildStorageKey derives the object key for a new upload:
// {ownerID}/{unixMillis}-{sanitizedFilename}. Keys are never reused.
func BuildStorageKey(userID, filename string) string {
	return fmt.Sprintf("%s/%d-%s", userID, nowMillis(), SanitizeFilename(filename))
}

// RequestUpload authorizes the declared size against the quota and returns a
// presigned PUT credential bound to a fresh storage key and the declared
// content type. No metadata row is created yet.
func (s *UploadService) RequestUpload(ctx context.Context, userID, filename, contentType string, size int64, folderID *string) (*models.UploadCredential, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: empty filename", common.ErrValidation)
	}
	if folderID != nil {
		if _, err := s.repos.Folders(s.db).GetByID(ctx, userID, *folderID); err != nil {
			return nil, err
		}
	}
	if err := s.quota.Authorize(ctx, userID, size); err != nil {
		return nil, err
	}

	key := BuildStorageKey(userID, filename)
	url, err := s.store.PresignPut(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrTransientStore, err)
	}

	return &models.UploadCredential{URL: url, Key: key}, nil
}

// CommitUpload verifies the object exists at key and only then inserts the
// File row. A failed verification creates nothing; bytes already at the key
// are left behind as a benign orphan. Commits are not deduplicated by key.
func (s *UploadService) CommitUpload(ctx context.Context, userID, key, filename string, size int64, contentType string, folderID *string) (*models.File, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size", common.ErrValidation)
	}
	if folderID != nil {
		if _, err := s.repos.Folders(s.db).GetByID(ctx, userID, *folderID); err != nil {
			return nil, err
		}
	}

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrTransientStore, err)
	}
	if !exists {
		s.logger.Warn(ctx, "commit rejected, object missing", "key", key)
		return nil, common.ErrUploadVerificationFailed
	}

	var mimeType *string
	if contentType != "" {
		mimeType = &contentType
	}

	file := &models.File{
		ID:           uuid.NewString(),
		Name:         SanitizeFilename(filename),
		OriginalName: filename,
		Size:         size,
		MimeType:     mimeType,
		StorageKey:   key,
		UserID:       userID,
		FolderID:     folderID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repos.Files(s.db).Create(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// RequestDownload returns a presigned GET URL for the file, with the
// content disposition set to the original filename.
func (s *UploadService) RequestDownload(ctx context.Context, userID, fileID string) (string, error) {
	file, err := s.repos.Files(s.db).GetByID(ctx, userID, fileID)
	if err != nil {
		return "", err
	}

	downloadName := file.OriginalName
	if downloadName == "" {
		downloadName = file.Name
	}

	url, err := s.store.PresignGet(ctx, file.StorageKey, downloadName)
	if err != nil {
		return "", fmt.Errorf("%w: %s", common.ErrTransientStore, err)
	}
	return url, nil
}
