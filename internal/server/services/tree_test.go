package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/skydrive/skydrive/internal/common"
	"github.com/skydrive/skydrive/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTreeService(t *testing.T) (*TreeService, *fakeRepoManager, *fakeStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := newFakeRepoManager()
	store := newFakeStore()
	return NewTreeService(db, repos, store, nopLogger{}), repos, store, mock, db
}

func folder(id, name, userID string, parentID *string) *models.Folder {
	return &models.Folder{ID: id, Name: name, UserID: userID, ParentID: parentID, CreatedAt: time.Now()}
}

func file(id, name, userID, key string, folderID *string) *models.File {
	return &models.File{ID: id, Name: name, OriginalName: name, Size: 10, StorageKey: key, UserID: userID, FolderID: folderID, CreatedAt: time.Now()}
}

func strptr(s string) *string { return &s }

func TestListChildren_MergesAndSorts(t *testing.T) {
	svc, repos, _, _, _ := newTreeService(t)
	ctx := context.Background()

	repos.folderRepo.rows = []*models.Folder{
		folder("d1", "Zeta", "u1", nil),
		folder("d2", "alpha", "u1", nil),
	}
	repos.fileRepo.rows = []*models.File{
		file("f1", "beta.txt", "u1", "u1/1-beta.txt", nil),
		file("f2", "alpha", "u1", "u1/2-alpha", nil),
	}

	got, err := svc.ListChildren(ctx, "u1", nil)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Case-insensitive by name; on a tie the folder comes first.
	assert.Equal(t, "d2", got[0].ID())
	assert.Equal(t, "f2", got[1].ID())
	assert.Equal(t, "f1", got[2].ID())
	assert.Equal(t, "d1", got[3].ID())
}

func TestCreateFolder_EmptyName(t *testing.T) {
	svc, _, _, _, _ := newTreeService(t)

	_, err := svc.CreateFolder(context.Background(), "u1", "   ", nil)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCreateFolder_UnknownParent(t *testing.T) {
	svc, _, _, _, _ := newTreeService(t)

	_, err := svc.CreateFolder(context.Background(), "u1", "docs", strptr("ghost"))
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCreateFolder_Success(t *testing.T) {
	svc, repos, _, _, _ := newTreeService(t)
	ctx := context.Background()

	repos.folderRepo.rows = []*models.Folder{folder("p1", "parent", "u1", nil)}

	got, err := svc.CreateFolder(ctx, "u1", "docs", strptr("p1"))
	require.NoError(t, err)
	assert.Equal(t, "docs", got.Name)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, "p1", *got.ParentID)
	assert.Len(t, repos.folderRepo.rows, 2)
}

func TestRename_FallsBackToFile(t *testing.T) {
	svc, repos, _, _, _ := newTreeService(t)
	ctx := context.Background()

	repos.fileRepo.rows = []*models.File{file("f1", "old.txt", "u1", "u1/1-old.txt", nil)}

	require.NoError(t, svc.Rename(ctx, "u1", "f1", "new.txt"))
	assert.Equal(t, "new.txt", repos.fileRepo.rows[0].Name)
}

func TestRename_NotFoundAnywhere(t *testing.T) {
	svc, _, _, _, _ := newTreeService(t)

	err := svc.Rename(context.Background(), "u1", "ghost", "x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAncestors_WalksToRoot(t *testing.T) {
	svc, repos, _, _, _ := newTreeService(t)
	ctx := context.Background()

	repos.folderRepo.rows = []*models.Folder{
		folder("a", "top", "u1", nil),
		folder("b", "mid", "u1", strptr("a")),
		folder("c", "leaf", "u1", strptr("b")),
	}

	chain, err := svc.Ancestors(ctx, "u1", "c")
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, "a", chain[0].ID)
	assert.Equal(t, "b", chain[1].ID)
	assert.Equal(t, "c", chain[2].ID)
}

func TestMove_RejectsTargetInMovedSet(t *testing.T) {
	svc, repos, _, _, _ := newTreeService(t)

	repos.folderRepo.rows = []*models.Folder{folder("a", "a", "u1", nil)}

	err := svc.Move(context.Background(), "u1", []string{"a"}, strptr("a"))
	assert.ErrorIs(t, err, common.ErrInvalidOperation)
}

func TestMove_RejectsDescendantTarget(t *testing.T) {
	svc, repos, _, _, _ := newTreeService(t)

	// target c sits two levels below the moved folder a
	repos.folderRepo.rows = []*models.Folder{
		folder("a", "a", "u1", nil),
		folder("b", "b", "u1", strptr("a")),
		folder("c", "c", "u1", strptr("b")),
	}

	err := svc.Move(context.Background(), "u1", []string{"a"}, strptr("c"))
	assert.ErrorIs(t, err, common.ErrInvalidOperation)
}

func TestMove_Success(t *testing.T) {
	svc, repos, _, mock, _ := newTreeService(t)
	ctx := context.Background()

	repos.folderRepo.rows = []*models.Folder{
		folder("a", "a", "u1", nil),
		folder("t", "target", "u1", nil),
	}
	repos.fileRepo.rows = []*models.File{file("f1", "x.txt", "u1", "u1/1-x.txt", nil)}

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, svc.Move(ctx, "u1", []string{"a", "f1"}, strptr("t")))

	assert.Equal(t, "t", *repos.folderRepo.rows[0].ParentID)
	assert.Equal(t, "t", *repos.fileRepo.rows[0].FolderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMove_EmptyIDsIsNoop(t *testing.T) {
	svc, _, _, mock, _ := newTreeService(t)

	require.NoError(t, svc.Move(context.Background(), "u1", nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopy_SuffixOnTopLevelOnly(t *testing.T) {
	svc, repos, _, mock, _ := newTreeService(t)
	ctx := context.Background()

	repos.folderRepo.rows = []*models.Folder{
		folder("a", "photos", "u1", nil),
		folder("b", "raw", "u1", strptr("a")),
	}
	repos.fileRepo.rows = []*models.File{
		file("f1", "cat.png", "u1", "u1/1-cat.png", strptr("a")),
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, svc.Copy(ctx, "u1", []string{"a"}, nil))

	var clone *models.Folder
	for _, f := range repos.folderRepo.rows {
		if f.Name == "photos"+CopySuffix {
			clone = f
		}
	}
	require.NotNil(t, clone, "top-level clone should carry the suffix")
	assert.Nil(t, clone.ParentID)

	// nested folder cloned without suffix, under the clone
	var nested *models.Folder
	for _, f := range repos.folderRepo.rows {
		if f.Name == "raw" && f.ParentID != nil && *f.ParentID == clone.ID {
			nested = f
		}
	}
	require.NotNil(t, nested, "nested folder should be cloned without suffix")

	// nested file duplicated into the clone, sharing the storage key
	var copied *models.File
	for _, f := range repos.fileRepo.rows {
		if f.FolderID != nil && *f.FolderID == clone.ID {
			copied = f
		}
	}
	require.NotNil(t, copied)
	assert.Equal(t, "cat.png", copied.Name)
	assert.Equal(t, "u1/1-cat.png", copied.StorageKey)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopy_FileGetsSuffix(t *testing.T) {
	svc, repos, _, mock, _ := newTreeService(t)
	ctx := context.Background()

	repos.fileRepo.rows = []*models.File{file("f1", "notes.txt", "u1", "u1/1-notes.txt", nil)}

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, svc.Copy(ctx, "u1", []string{"f1"}, nil))

	require.Len(t, repos.fileRepo.rows, 2)
	assert.Equal(t, "notes.txt"+CopySuffix, repos.fileRepo.rows[1].Name)
	assert.Equal(t, "u1/1-notes.txt", repos.fileRepo.rows[1].StorageKey)
}

func TestCopy_IntoItself(t *testing.T) {
	svc, repos, _, mock, _ := newTreeService(t)
	ctx := context.Background()

	repos.folderRepo.rows = []*models.Folder{folder("a", "photos", "u1", nil)}
	repos.fileRepo.rows = []*models.File{
		file("f1", "cat.png", "u1", "u1/1-cat.png", strptr("a")),
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, svc.Copy(ctx, "u1", []string{"a"}, strptr("a")))

	// exactly one clone, nested inside the original, nothing beyond it
	require.Len(t, repos.folderRepo.rows, 2)
	clone := repos.folderRepo.rows[1]
	assert.Equal(t, "photos"+CopySuffix, clone.Name)
	require.NotNil(t, clone.ParentID)
	assert.Equal(t, "a", *clone.ParentID)

	require.Len(t, repos.fileRepo.rows, 2)
	copied := repos.fileRepo.rows[1]
	assert.Equal(t, "cat.png", copied.Name)
	require.NotNil(t, copied.FolderID)
	assert.Equal(t, clone.ID, *copied.FolderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopy_IntoOwnSubtree(t *testing.T) {
	svc, repos, _, mock, _ := newTreeService(t)
	ctx := context.Background()

	repos.folderRepo.rows = []*models.Folder{
		folder("a", "photos", "u1", nil),
		folder("b", "raw", "u1", strptr("a")),
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, svc.Copy(ctx, "u1", []string{"a"}, strptr("b")))

	// one snapshot clone of the subtree lands under b; the clone of b does
	// not recursively contain the fresh clone of a
	require.Len(t, repos.folderRepo.rows, 4)

	var clone, nested *models.Folder
	for _, f := range repos.folderRepo.rows[2:] {
		switch f.Name {
		case "photos" + CopySuffix:
			clone = f
		case "raw":
			nested = f
		}
	}
	require.NotNil(t, clone)
	require.NotNil(t, clone.ParentID)
	assert.Equal(t, "b", *clone.ParentID)

	require.NotNil(t, nested)
	require.NotNil(t, nested.ParentID)
	assert.Equal(t, clone.ID, *nested.ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopy_SkipsForeignItems(t *testing.T) {
	svc, repos, _, mock, _ := newTreeService(t)
	ctx := context.Background()

	repos.folderRepo.rows = []*models.Folder{folder("x", "theirs", "u2", nil)}

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, svc.Copy(ctx, "u1", []string{"x"}, nil))
	assert.Len(t, repos.folderRepo.rows, 1, "foreign folder must not be cloned")
}

func TestDelete_CollectsDescendantsAndObjectKeys(t *testing.T) {
	svc, repos, store, mock, _ := newTreeService(t)
	ctx := context.Background()

	repos.folderRepo.rows = []*models.Folder{
		folder("a", "docs", "u1", nil),
		folder("b", "nested", "u1", strptr("a")),
	}
	repos.fileRepo.rows = []*models.File{
		file("f1", "direct.txt", "u1", "u1/1-direct.txt", nil),
		file("f2", "deep.txt", "u1", "u1/2-deep.txt", strptr("b")),
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(ctx, "u1", []string{"a", "f1"}))

	require.Len(t, store.deletedKeys, 1)
	assert.ElementsMatch(t, []string{"u1/1-direct.txt", "u1/2-deep.txt"}, store.deletedKeys[0])
	assert.Empty(t, repos.fileRepo.rows)
	assert.Empty(t, repos.folderRepo.rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_ObjectCleanupFailureDoesNotBlockRows(t *testing.T) {
	svc, repos, store, mock, _ := newTreeService(t)
	ctx := context.Background()

	store.deleteErr = errors.New("s3 down")
	repos.fileRepo.rows = []*models.File{file("f1", "x.txt", "u1", "u1/1-x.txt", nil)}

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(ctx, "u1", []string{"f1"}))
	assert.Empty(t, repos.fileRepo.rows)
}

func TestDelete_TerminatesOnParentCycle(t *testing.T) {
	svc, repos, _, mock, _ := newTreeService(t)
	ctx := context.Background()

	// corrupt data: b and c point at each other
	repos.folderRepo.rows = []*models.Folder{
		folder("b", "b", "u1", strptr("c")),
		folder("c", "c", "u1", strptr("b")),
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(ctx, "u1", []string{"b"}))
	assert.Empty(t, repos.folderRepo.rows)
}

func TestSearch_ShortQueryReturnsEmpty(t *testing.T) {
	svc, repos, _, _, _ := newTreeService(t)

	repos.fileRepo.rows = []*models.File{file("f1", "a.txt", "u1", "u1/1-a.txt", nil)}

	got, err := svc.Search(context.Background(), "u1", " a ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_MergesFoldersAndFiles(t *testing.T) {
	svc, repos, _, _, _ := newTreeService(t)

	repos.folderRepo.rows = []*models.Folder{folder("d1", "reports", "u1", nil)}
	repos.fileRepo.rows = []*models.File{file("f1", "report-q1.pdf", "u1", "u1/1-report-q1.pdf", nil)}

	got, err := svc.Search(context.Background(), "u1", "repo")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.KindFile, got[0].Kind)
	assert.Equal(t, models.KindFolder, got[1].Kind)
}
