package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/skydrive/skydrive/internal/common"
	"github.com/skydrive/skydrive/internal/dbx"
	"github.com/skydrive/skydrive/internal/logging"
	"github.com/skydrive/skydrive/internal/server/models"
	"github.com/skydrive/skydrive/internal/server/repositories/files"
	"github.com/skydrive/skydrive/internal/server/repositories/folders"
	"github.com/skydrive/skydrive/internal/server/repositories/refreshtokens"
	"github.com/skydrive/skydrive/internal/server/repositories/users"
)

// ---- in-memory folder repository ----

type fakeFolderRepo struct {
	rows []*models.Folder
}

func (r *fakeFolderRepo) Create(_ context.Context, folder *models.Folder) error {
	clone := *folder
	r.rows = append(r.rows, &clone)
	return nil
}

func (r *fakeFolderRepo) GetByID(_ context.Context, userID, id string) (*models.Folder, error) {
	for _, f := range r.rows {
		if f.UserID == userID && f.ID == id {
			clone := *f
			return &clone, nil
		}
	}
	return nil, common.ErrorNotFound
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *fakeFolderRepo) ListByParent(_ context.Context, userID string, parentID *string) ([]*models.Folder, error) {
	var out []*models.Folder
	for _, f := range r.rows {
		if f.UserID == userID && sameParent(f.ParentID, parentID) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFolderRepo) ListByParents(_ context.Context, userID string, parentIDs []string) ([]*models.Folder, error) {
	set := toSet(parentIDs)
	var out []*models.Folder
	for _, f := range r.rows {
		if f.UserID == userID && f.ParentID != nil && set[*f.ParentID] {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFolderRepo) ListByIDs(_ context.Context, userID string, ids []string) ([]*models.Folder, error) {
	set := toSet(ids)
	var out []*models.Folder
	for _, f := range r.rows {
		if f.UserID == userID && set[f.ID] {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFolderRepo) SetParent(_ context.Context, userID string, ids []string, parentID *string) error {
	set := toSet(ids)
	for _, f := range r.rows {
		if f.UserID == userID && set[f.ID] {
			f.ParentID = parentID
		}
	}
	return nil
}

func (r *fakeFolderRepo) Rename(_ context.Context, userID, id, name string) error {
	for _, f := range r.rows {
		if f.UserID == userID && f.ID == id {
			f.Name = name
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *fakeFolderRepo) DeleteByIDs(_ context.Context, userID string, ids []string) error {
	set := toSet(ids)
	kept := r.rows[:0]
	for _, f := range r.rows {
		if f.UserID == userID && set[f.ID] {
			continue
		}
		kept = append(kept, f)
	}
	r.rows = kept
	return nil
}

func (r *fakeFolderRepo) SearchByName(_ context.Context, userID, query string) ([]*models.Folder, error) {
	var out []*models.Folder
	for _, f := range r.rows {
		if f.UserID == userID && strings.Contains(strings.ToLower(f.Name), strings.ToLower(query)) {
			out = append(out, f)
		}
	}
	return out, nil
}

// ---- in-memory file repository ----

type fakeFileRepo struct {
	rows []*models.File
}

func (r *fakeFileRepo) Create(_ context.Context, file *models.File) error {
	clone := *file
	r.rows = append(r.rows, &clone)
	return nil
}

func (r *fakeFileRepo) GetByID(_ context.Context, userID, id string) (*models.File, error) {
	for _, f := range r.rows {
		if f.UserID == userID && f.ID == id {
			clone := *f
			return &clone, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeFileRepo) ListByFolder(_ context.Context, userID string, folderID *string) ([]*models.File, error) {
	var out []*models.File
	for _, f := range r.rows {
		if f.UserID == userID && sameParent(f.FolderID, folderID) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) ListByFolders(_ context.Context, userID string, folderIDs []string) ([]*models.File, error) {
	set := toSet(folderIDs)
	var out []*models.File
	for _, f := range r.rows {
		if f.UserID == userID && f.FolderID != nil && set[*f.FolderID] {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) ListByIDs(_ context.Context, userID string, ids []string) ([]*models.File, error) {
	set := toSet(ids)
	var out []*models.File
	for _, f := range r.rows {
		if f.UserID == userID && set[f.ID] {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) SetFolder(_ context.Context, userID string, ids []string, folderID *string) error {
	set := toSet(ids)
	for _, f := range r.rows {
		if f.UserID == userID && set[f.ID] {
			f.FolderID = folderID
		}
	}
	return nil
}

func (r *fakeFileRepo) Rename(_ context.Context, userID, id, name string) error {
	for _, f := range r.rows {
		if f.UserID == userID && f.ID == id {
			f.Name = name
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *fakeFileRepo) DeleteByIDs(_ context.Context, userID string, ids []string) error {
	set := toSet(ids)
	kept := r.rows[:0]
	for _, f := range r.rows {
		if f.UserID == userID && set[f.ID] {
			continue
		}
		kept = append(kept, f)
	}
	r.rows = kept
	return nil
}

func (r *fakeFileRepo) SumSize(_ context.Context, userID string) (int64, error) {
	var total int64
	for _, f := range r.rows {
		if f.UserID == userID {
			total += f.Size
		}
	}
	return total, nil
}

func (r *fakeFileRepo) UsageByMime(_ context.Context, userID string) ([]models.MimeUsage, error) {
	byMime := map[string]*models.MimeUsage{}
	var order []string
	for _, f := range r.rows {
		if f.UserID != userID {
			continue
		}
		key := ""
		if f.MimeType != nil {
			key = *f.MimeType
		}
		row, ok := byMime[key]
		if !ok {
			row = &models.MimeUsage{MimeType: f.MimeType}
			byMime[key] = row
			order = append(order, key)
		}
		row.Size += f.Size
		row.Count++
	}
	out := make([]models.MimeUsage, 0, len(order))
	for _, key := range order {
		out = append(out, *byMime[key])
	}
	return out, nil
}

func (r *fakeFileRepo) SearchByName(_ context.Context, userID, query string) ([]*models.File, error) {
	var out []*models.File
	q := strings.ToLower(query)
	for _, f := range r.rows {
		if f.UserID != userID {
			continue
		}
		if strings.Contains(strings.ToLower(f.Name), q) || strings.Contains(strings.ToLower(f.OriginalName), q) {
			out = append(out, f)
		}
	}
	return out, nil
}

// ---- in-memory user / token repositories ----

type fakeUserRepo struct {
	rows []*models.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range r.rows {
		if u.UserName == user.UserName {
			return common.ErrAlreadyExists
		}
	}
	clone := *user
	r.rows = append(r.rows, &clone)
	return nil
}

func (r *fakeUserRepo) GetUserByLogin(_ context.Context, userName string) (*models.User, error) {
	for _, u := range r.rows {
		if u.UserName == userName {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUserRepo) Delete(_ context.Context, userID string) error {
	kept := r.rows[:0]
	for _, u := range r.rows {
		if u.ID != userID {
			kept = append(kept, u)
		}
	}
	r.rows = kept
	return nil
}

type fakeTokenRepo struct {
	rows map[string]*models.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{rows: map[string]*models.RefreshToken{}}
}

func (r *fakeTokenRepo) Create(_ context.Context, userID, token string, validity time.Duration) error {
	r.rows[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (r *fakeTokenRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	row, ok := r.rows[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	clone := *row
	return &clone, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, token string) error {
	delete(r.rows, token)
	return nil
}

func (r *fakeTokenRepo) DeleteByUser(_ context.Context, userID string) error {
	for token, row := range r.rows {
		if row.UserID == userID {
			delete(r.rows, token)
		}
	}
	return nil
}

// ---- repository manager over the fakes ----

type fakeRepoManager struct {
	folderRepo *fakeFolderRepo
	fileRepo   *fakeFileRepo
	userRepo   *fakeUserRepo
	tokenRepo  *fakeTokenRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		folderRepo: &fakeFolderRepo{},
		fileRepo:   &fakeFileRepo{},
		userRepo:   &fakeUserRepo{},
		tokenRepo:  newFakeTokenRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.userRepo }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.tokenRepo }
func (m *fakeRepoManager) Folders(dbx.DBTX) folders.Repository             { return m.folderRepo }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository                 { return m.fileRepo }

// ---- object store fake ----

type fakeStore struct {
	putURLs     map[string]string
	existing    map[string]bool
	existsErr   error
	deleteErr   error
	deletedKeys [][]string
	purgedOwner []string
	presignErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{putURLs: map[string]string{}, existing: map[string]bool{}}
}

func (s *fakeStore) PresignPut(_ context.Context, key, _ string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	url := "https://store.test/put/" + key
	s.putURLs[key] = url
	return url, nil
}

func (s *fakeStore) PresignGet(_ context.Context, key, downloadName string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://store.test/get/" + key + "?name=" + downloadName, nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.existing[key], nil
}

func (s *fakeStore) DeleteBatch(_ context.Context, keys []string) error {
	s.deletedKeys = append(s.deletedKeys, keys)
	return s.deleteErr
}

func (s *fakeStore) PurgeOwner(_ context.Context, ownerID string) error {
	s.purgedOwner = append(s.purgedOwner, ownerID)
	return nil
}

// ---- logger fake ----

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) With(...any) logging.Logger            { return nopLogger{} }

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
