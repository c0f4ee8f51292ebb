// Package httpapi exposes the drive over a JSON HTTP API. Handlers translate
// between wire DTOs and the services layer; every error surfaces as a status
// code derived from the service's sentinel error.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skydrive/skydrive/internal/common"
	"github.com/skydrive/skydrive/internal/server/models"
	"github.com/skydrive/skydrive/internal/server/services"
)

// UserAPI is the account surface the handlers need.
type UserAPI interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// TreeAPI is the tree surface the handlers need.
type TreeAPI interface {
	ListChildren(ctx context.Context, userID string, parentID *string) ([]models.Entity, error)
	CreateFolder(ctx context.Context, userID, name string, parentID *string) (*models.Folder, error)
	Rename(ctx context.Context, userID, id, name string) error
	Move(ctx context.Context, userID string, ids []string, targetID *string) error
	Copy(ctx context.Context, userID string, ids []string, targetID *string) error
	Delete(ctx context.Context, userID string, ids []string) error
	Search(ctx context.Context, userID, query string) ([]models.Entity, error)
}

// UploadAPI is the transfer surface the handlers need.
type UploadAPI interface {
	RequestUpload(ctx context.Context, userID, filename, contentType string, size int64, folderID *string) (*models.UploadCredential, error)
	CommitUpload(ctx context.Context, userID, key, filename string, size int64, contentType string, folderID *string) (*models.File, error)
	RequestDownload(ctx context.Context, userID, fileID string) (string, error)
}

// QuotaAPI is the usage-reporting surface the handlers need.
type QuotaAPI interface {
	Breakdown(ctx context.Context, userID string) (*models.UsageBreakdown, error)
}

// Handlers carries the service dependencies of every route.
type Handlers struct {
	users   UserAPI
	tree    TreeAPI
	uploads UploadAPI
	quota   QuotaAPI
}

// NewHandlers constructs the handler set.
func NewHandlers(users UserAPI, tree TreeAPI, uploads UploadAPI, quota QuotaAPI) *Handlers {
	return &Handlers{users: users, tree: tree, uploads: uploads, quota: quota}
}

// itemJSON is the wire shape of a file or folder.
type itemJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	MimeType  *string   `json:"mimeType"`
	IsFolder  bool      `json:"isFolder"`
	ParentID  *string   `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
}

func entityJSON(e models.Entity) itemJSON {
	item := itemJSON{
		ID:        e.ID(),
		Name:      e.Name(),
		IsFolder:  e.Kind == models.KindFolder,
		ParentID:  e.ParentID(),
		CreatedAt: e.CreatedAt(),
	}
	if e.Kind == models.KindFile {
		item.Size = e.File.Size
		item.MimeType = e.File.MimeType
	}
	return item
}

func entitiesJSON(entities []models.Entity) []itemJSON {
	items := make([]itemJSON, 0, len(entities))
	for _, e := range entities {
		items = append(items, entityJSON(e))
	}
	return items
}

// writeError maps service sentinel errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidOperation), errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrAlreadyExists):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrQuotaExceeded):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrRefreshTokenExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrUploadVerificationFailed):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type credentialsPayload struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) Register(c *gin.Context) {
	var payload credentialsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	user, err := h.users.Register(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.UserName})
}

func (h *Handlers) Login(c *gin.Context) {
	var payload credentialsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	pair, err := h.users.Login(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": pair.AccessToken, "refreshToken": pair.RefreshToken})
}

func (h *Handlers) Refresh(c *gin.Context) {
	var payload struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	pair, err := h.users.Refresh(c.Request.Context(), payload.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": pair.AccessToken, "refreshToken": pair.RefreshToken})
}

func (h *Handlers) DeleteAccount(c *gin.Context) {
	userID := ForContext(c.Request.Context())
	if err := h.users.DeleteAccount(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListItems returns the children of ?parent= (omitted = root).
func (h *Handlers) ListItems(c *gin.Context) {
	userID := ForContext(c.Request.Context())

	var parentID *string
	if parent := c.Query("parent"); parent != "" {
		parentID = &parent
	}

	entities, err := h.tree.ListChildren(c.Request.Context(), userID, parentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entitiesJSON(entities)})
}

type createFolderPayload struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parentId"`
}

func (h *Handlers) CreateFolder(c *gin.Context) {
	var payload createFolderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	userID := ForContext(c.Request.Context())

	folder, err := h.tree.CreateFolder(c.Request.Context(), userID, payload.Name, payload.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entityJSON(models.FolderEntity(folder)))
}

func (h *Handlers) RenameItem(c *gin.Context) {
	var payload struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	userID := ForContext(c.Request.Context())

	if err := h.tree.Rename(c.Request.Context(), userID, c.Param("id"), payload.Name); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type batchPayload struct {
	IDs      []string `json:"ids" binding:"required"`
	TargetID *string  `json:"targetId"`
}

func (h *Handlers) MoveItems(c *gin.Context) {
	h.batchOp(c, h.tree.Move)
}

func (h *Handlers) CopyItems(c *gin.Context) {
	h.batchOp(c, h.tree.Copy)
}

func (h *Handlers) DeleteItems(c *gin.Context) {
	var payload struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	userID := ForContext(c.Request.Context())

	if err := h.tree.Delete(c.Request.Context(), userID, payload.IDs); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) batchOp(c *gin.Context, op func(ctx context.Context, userID string, ids []string, targetID *string) error) {
	var payload batchPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	userID := ForContext(c.Request.Context())

	if err := op(c.Request.Context(), userID, payload.IDs, payload.TargetID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) SearchItems(c *gin.Context) {
	userID := ForContext(c.Request.Context())

	entities, err := h.tree.Search(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entitiesJSON(entities)})
}

type categoryJSON struct {
	Size  int64 `json:"size"`
	Count int64 `json:"count"`
}

func (h *Handlers) Usage(c *gin.Context) {
	userID := ForContext(c.Request.Context())

	breakdown, err := h.quota.Breakdown(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"used":  breakdown.Used,
		"limit": breakdown.Limit,
		"categories": gin.H{
			"image":    categoryJSON(breakdown.Image),
			"video":    categoryJSON(breakdown.Video),
			"document": categoryJSON(breakdown.Document),
			"other":    categoryJSON(breakdown.Other),
		},
	})
}

type requestUploadPayload struct {
	Filename    string  `json:"filename" binding:"required"`
	ContentType string  `json:"contentType"`
	Size        int64   `json:"size"`
	FolderID    *string `json:"folderId"`
}

func (h *Handlers) RequestUpload(c *gin.Context) {
	var payload requestUploadPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	userID := ForContext(c.Request.Context())

	cred, err := h.uploads.RequestUpload(c.Request.Context(), userID, payload.Filename, payload.ContentType, payload.Size, payload.FolderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": cred.URL, "key": cred.Key})
}

type commitUploadPayload struct {
	Key         string  `json:"key" binding:"required"`
	Filename    string  `json:"filename" binding:"required"`
	ContentType string  `json:"contentType"`
	Size        int64   `json:"size"`
	FolderID    *string `json:"folderId"`
}

func (h *Handlers) CommitUpload(c *gin.Context) {
	var payload commitUploadPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	userID := ForContext(c.Request.Context())

	file, err := h.uploads.CommitUpload(c.Request.Context(), userID, payload.Key, payload.Filename, payload.Size, payload.ContentType, payload.FolderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entityJSON(models.FileEntity(file)))
}

func (h *Handlers) DownloadFile(c *gin.Context) {
	userID := ForContext(c.Request.Context())

	url, err := h.uploads.RequestDownload(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
