package api

import "time"

// Item is a file or folder as returned by the server.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	MimeType  *string   `json:"mimeType"`
	IsFolder  bool      `json:"isFolder"`
	ParentID  *string   `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CategoryUsage aggregates size and count for one storage category.
type CategoryUsage struct {
	Size  int64 `json:"size"`
	Count int64 `json:"count"`
}

// Usage is the storage consumption report.
type Usage struct {
	Used       int64                    `json:"used"`
	Limit      int64                    `json:"limit"`
	Categories map[string]CategoryUsage `json:"categories"`
}

// UploadGrant is a presigned write credential bound to a storage key.
type UploadGrant struct {
	URL string `json:"url"`
	Key string `json:"key"`
}
