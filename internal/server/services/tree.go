// Package services implements the core behavior of the drive: tree
// management, quota accounting, the two-phase upload protocol and account
// handling. Services coordinate repositories and the object storage gateway;
// repositories stay dumb.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/skydrive/skydrive/internal/common"
	"github.com/skydrive/skydrive/internal/dbx"
	"github.com/skydrive/skydrive/internal/logging"
	"github.com/skydrive/skydrive/internal/server/models"
	"github.com/skydrive/skydrive/internal/server/objstore"
	"github.com/skydrive/skydrive/internal/server/repositories/repomanager"
)

// CopySuffix is appended to the name of every top-level copied item.
const CopySuffix = " (Copy)"

// minSearchLength is the minimum query length for Search; shorter queries
// return an empty result.
const minSearchLength = 2

// TreeService is the single place tree invariants are enforced: parent
// chains stay acyclic, every query is owner-scoped and move/copy/delete
// validate their targets before touching a row.
type TreeService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	store  objstore.Store
	logger logging.Logger
}

// NewTreeService constructs the tree manager.
func NewTreeService(db *sql.DB, repos repomanager.RepositoryManager, store objstore.Store, logger logging.Logger) *TreeService {
	return &TreeService{
		db:     db,
		repos:  repos,
		store:  store,
		logger: logger.With("module", "tree"),
	}
}

// ListChildren returns the folders and files directly under parentID
// (nil = root), sorted by name ascending; folders sort before files on ties.
// An empty result is not an error.
func (s *TreeService) ListChildren(ctx context.Context, userID string, parentID *string) ([]models.Entity, error) {
	folderRepo := s.repos.Folders(s.db)
	fileRepo := s.repos.Files(s.db)

	folderRows, err := folderRepo.ListByParent(ctx, userID, parentID)
	if err != nil {
		return nil, err
	}
	fileRows, err := fileRepo.ListByFolder(ctx, userID, parentID)
	if err != nil {
		return nil, err
	}

	return mergeEntities(folderRows, fileRows), nil
}

// CreateFolder creates a folder under parentID (nil = root). The parent must
// resolve to a folder owned by userID.
func (s *TreeService) CreateFolder(ctx context.Context, userID, name string, parentID *string) (*models.Folder, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty folder name", common.ErrValidation)
	}

	folderRepo := s.repos.Folders(s.db)

	if parentID != nil {
		if _, err := folderRepo.GetByID(ctx, userID, *parentID); err != nil {
			return nil, err
		}
	}

	folder := &models.Folder{
		ID:        uuid.NewString(),
		Name:      name,
		UserID:    userID,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
	if err := folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// Rename changes the display name of a folder or a file.
func (s *TreeService) Rename(ctx context.Context, userID, id, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", common.ErrValidation)
	}

	err := s.repos.Folders(s.db).Rename(ctx, userID, id, name)
	if errors.Is(err, common.ErrorNotFound) {
		return s.repos.Files(s.db).Rename(ctx, userID, id, name)
	}
	return err
}

// Ancestors returns the chain of folders from the root down to (and
// including) folderID. The walk is bounded by a visited set so corrupt data
// cannot loop it.
func (s *TreeService) Ancestors(ctx context.Context, userID, folderID string) ([]*models.Folder, error) {
	folderRepo := s.repos.Folders(s.db)

	chain := []*models.Folder{}
	visited := map[string]bool{}

	id := folderID
	for {
		if visited[id] {
			return nil, fmt.Errorf("%w: parent cycle at %s", common.ErrInvalidOperation, id)
		}
		visited[id] = true

		folder, err := folderRepo.GetByID(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		chain = append([]*models.Folder{folder}, chain...)

		if folder.ParentID == nil {
			return chain, nil
		}
		id = *folder.ParentID
	}
}

// Move re-parents the given files and folders under targetID (nil = root).
// It rejects a target that is among the moved ids or a descendant of any
// moved folder; either would let a folder contain itself. Validation happens
// before any row is touched.
func (s *TreeService) Move(ctx context.Context, userID string, ids []string, targetID *string) error {
	if len(ids) == 0 {
		return nil
	}

	moved := make(map[string]bool, len(ids))
	for _, id := range ids {
		moved[id] = true
	}

	if targetID != nil {
		if moved[*targetID] {
			return fmt.Errorf("%w: cannot move a folder into itself", common.ErrInvalidOperation)
		}

		folderRepo := s.repos.Folders(s.db)
		target, err := folderRepo.GetByID(ctx, userID, *targetID)
		if err != nil {
			return err
		}

		// Walk up from the target; hitting a moved folder means the target
		// lives inside a subtree that is about to move.
		visited := map[string]bool{target.ID: true}
		for target.ParentID != nil {
			parentID := *target.ParentID
			if moved[parentID] {
				return fmt.Errorf("%w: target is a descendant of a moved folder", common.ErrInvalidOperation)
			}
			if visited[parentID] {
				return fmt.Errorf("%w: parent cycle at %s", common.ErrInvalidOperation, parentID)
			}
			visited[parentID] = true

			target, err = folderRepo.GetByID(ctx, userID, parentID)
			if err != nil {
				return err
			}
		}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Files(tx).SetFolder(ctx, userID, ids, targetID); err != nil {
			return err
		}
		return s.repos.Folders(tx).SetParent(ctx, userID, ids, targetID)
	})
}

// Copy duplicates the given files and folders under targetID (nil = root).
// Files are duplicated as new rows sharing the original storage key; folders
// are cloned with their whole subtree. Only the top-level items get the
// " (Copy)" suffix. Subtrees not owned by userID are skipped silently.
// A target inside a copied subtree is allowed: the traversal covers the rows
// that existed when the copy started, so the result is a single snapshot
// clone, not clones of clones.
func (s *TreeService) Copy(ctx context.Context, userID string, ids []string, targetID *string) error {
	if len(ids) == 0 {
		return nil
	}

	if targetID != nil {
		if _, err := s.repos.Folders(s.db).GetByID(ctx, userID, *targetID); err != nil {
			return err
		}
	}

	type cloneTask struct {
		src    *models.Folder
		parent *string
		suffix bool
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		folderRepo := s.repos.Folders(tx)
		fileRepo := s.repos.Files(tx)

		// Rows inserted by this copy are visible to the listings below when
		// the target sits inside the copied subtree; the walk must skip them
		// or it would clone its own clones without end.
		created := map[string]bool{}

		srcFiles, err := fileRepo.ListByIDs(ctx, userID, ids)
		if err != nil {
			return err
		}
		for _, f := range srcFiles {
			dup := duplicateFile(f, targetID, CopySuffix)
			if err := fileRepo.Create(ctx, dup); err != nil {
				return err
			}
			created[dup.ID] = true
		}

		srcFolders, err := folderRepo.ListByIDs(ctx, userID, ids)
		if err != nil {
			return err
		}

		// Explicit work stack instead of native recursion: folder chains can
		// be arbitrarily deep.
		stack := make([]cloneTask, 0, len(srcFolders))
		for _, f := range srcFolders {
			stack = append(stack, cloneTask{src: f, parent: targetID, suffix: true})
		}

		for len(stack) > 0 {
			task := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			name := task.src.Name
			if task.suffix {
				name += CopySuffix
			}
			clone := &models.Folder{
				ID:        uuid.NewString(),
				Name:      name,
				UserID:    userID,
				ParentID:  task.parent,
				CreatedAt: time.Now().UTC(),
			}
			if err := folderRepo.Create(ctx, clone); err != nil {
				return err
			}
			created[clone.ID] = true

			childFiles, err := fileRepo.ListByFolder(ctx, userID, &task.src.ID)
			if err != nil {
				return err
			}
			for _, f := range childFiles {
				if created[f.ID] {
					continue
				}
				dup := duplicateFile(f, &clone.ID, "")
				if err := fileRepo.Create(ctx, dup); err != nil {
					return err
				}
				created[dup.ID] = true
			}

			childFolders, err := folderRepo.ListByParent(ctx, userID, &task.src.ID)
			if err != nil {
				return err
			}
			for _, child := range childFolders {
				if created[child.ID] {
					continue
				}
				stack = append(stack, cloneTask{src: child, parent: &clone.ID})
			}
		}
		return nil
	})
}

// Delete removes the given files and folders together with every descendant.
// Object-store bytes are deleted best-effort first; a partial failure is
// logged and row deletion proceeds so the user is never blocked by leaked
// storage.
func (s *TreeService) Delete(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	folderRepo := s.repos.Folders(s.db)
	fileRepo := s.repos.Files(s.db)

	directFiles, err := fileRepo.ListByIDs(ctx, userID, ids)
	if err != nil {
		return err
	}
	directFolders, err := folderRepo.ListByIDs(ctx, userID, ids)
	if err != nil {
		return err
	}

	fileIDs := make([]string, 0, len(directFiles))
	keys := make([]string, 0, len(directFiles))
	for _, f := range directFiles {
		fileIDs = append(fileIDs, f.ID)
		keys = append(keys, f.StorageKey)
	}

	// Resolve the full descendant set level by level; an explicit frontier
	// bounds memory per query and avoids recursion depth limits. The visited
	// set keeps a corrupt parent cycle from looping the walk.
	folderIDs := make([]string, 0, len(directFolders))
	frontier := make([]string, 0, len(directFolders))
	visited := make(map[string]bool, len(directFolders))
	for _, f := range directFolders {
		visited[f.ID] = true
		folderIDs = append(folderIDs, f.ID)
		frontier = append(frontier, f.ID)
	}

	for len(frontier) > 0 {
		nestedFiles, err := fileRepo.ListByFolders(ctx, userID, frontier)
		if err != nil {
			return err
		}
		for _, f := range nestedFiles {
			fileIDs = append(fileIDs, f.ID)
			keys = append(keys, f.StorageKey)
		}

		children, err := folderRepo.ListByParents(ctx, userID, frontier)
		if err != nil {
			return err
		}
		frontier = frontier[:0]
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			folderIDs = append(folderIDs, child.ID)
			frontier = append(frontier, child.ID)
		}
	}

	if len(keys) > 0 {
		if err := s.store.DeleteBatch(ctx, keys); err != nil {
			s.logger.Warn(ctx, "object cleanup failed, proceeding with metadata deletion",
				"keys", len(keys), "error", err.Error())
		}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Files(tx).DeleteByIDs(ctx, userID, fileIDs); err != nil {
			return err
		}
		return s.repos.Folders(tx).DeleteByIDs(ctx, userID, folderIDs)
	})
}

// Search returns the owner's folders and files whose name contains query,
// case-insensitively; files also match on their original name. Queries
// shorter than two characters return an empty result.
func (s *TreeService) Search(ctx context.Context, userID, query string) ([]models.Entity, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchLength {
		return []models.Entity{}, nil
	}

	folderRows, err := s.repos.Folders(s.db).SearchByName(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	fileRows, err := s.repos.Files(s.db).SearchByName(ctx, userID, query)
	if err != nil {
		return nil, err
	}

	return mergeEntities(folderRows, fileRows), nil
}

func duplicateFile(src *models.File, folderID *string, suffix string) *models.File {
	return &models.File{
		ID:           uuid.NewString(),
		Name:         src.Name + suffix,
		OriginalName: src.OriginalName,
		Size:         src.Size,
		MimeType:     src.MimeType,
		StorageKey:   src.StorageKey,
		UserID:       src.UserID,
		FolderID:     folderID,
		CreatedAt:    time.Now().UTC(),
	}
}

func mergeEntities(folderRows []*models.Folder, fileRows []*models.File) []models.Entity {
	result := make([]models.Entity, 0, len(folderRows)+len(fileRows))
	for _, f := range folderRows {
		result = append(result, models.FolderEntity(f))
	}
	for _, f := range fileRows {
		result = append(result, models.FileEntity(f))
	}
	sort.SliceStable(result, func(i, j int) bool {
		ni, nj := strings.ToLower(result[i].Name()), strings.ToLower(result[j].Name())
		if ni != nj {
			return ni < nj
		}
		return result[i].Kind == models.KindFolder && result[j].Kind == models.KindFile
	})
	return result
}
