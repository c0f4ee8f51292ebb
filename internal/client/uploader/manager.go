// Package uploader orchestrates concurrent uploads on the client: each
// added source runs the request-grant / PUT / commit sequence independently,
// with live progress, per-item cancellation and a bounded number of
// simultaneous transfers.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/skydrive/skydrive/internal/client/api"
)

// Status is the lifecycle state of one upload item.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusUploading Status = "uploading"
	StatusDone      Status = "done"
	StatusError     Status = "error"
	StatusCanceled  Status = "canceled"
)

// terminal reports whether a status can no longer change.
func (s Status) terminal() bool {
	return s == StatusDone || s == StatusError || s == StatusCanceled
}

// Source describes one payload to upload. Open is called once per transfer
// attempt so the manager never holds file handles for queued items.
type Source struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// API is the server surface the manager needs.
type API interface {
	RequestUpload(ctx context.Context, filename, contentType string, size int64, folderID *string) (*api.UploadGrant, error)
	CommitUpload(ctx context.Context, key, filename string, size int64, contentType string, folderID *string) (*api.Item, error)
}

// ItemState is a point-in-time snapshot of one upload.
type ItemState struct {
	ID     string
	Name   string
	Status Status
	Sent   int64
	Size   int64
	Err    error
}

type item struct {
	id       string
	source   Source
	folderID *string
	status   Status
	sent     int64
	err      error
	cancel   context.CancelFunc
}

// Manager owns the upload registry. Safe for concurrent use.
type Manager struct {
	api  API
	http *http.Client

	mu    sync.Mutex
	items map[string]*item
	order []string

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewManager constructs a manager running at most concurrency transfers at
// once; values below 1 are clamped to 1.
func NewManager(apiClient API, httpClient *http.Client, concurrency int) *Manager {
	if concurrency < 1 {
		concurrency = 1
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Manager{
		api:   apiClient,
		http:  httpClient,
		items: make(map[string]*item),
		sem:   make(chan struct{}, concurrency),
	}
}

// Add enqueues one source for upload into folderID (nil = root) and returns
// the item id. The transfer starts as soon as a worker slot is free.
func (m *Manager) Add(ctx context.Context, src Source, folderID *string) string {
	itemCtx, cancel := context.WithCancel(ctx)

	it := &item{
		id:       uuid.NewString(),
		source:   src,
		folderID: folderID,
		status:   StatusQueued,
		cancel:   cancel,
	}

	m.mu.Lock()
	m.items[it.id] = it
	m.order = append(m.order, it.id)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()

		m.sem <- struct{}{}
		defer func() { <-m.sem }()

		m.run(itemCtx, it)
	}()

	return it.id
}

// Cancel aborts the item if it is still running; a finished item is left
// untouched. Cancellation always wins over an in-flight transfer.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	it, ok := m.items[id]
	if !ok || it.status.terminal() {
		m.mu.Unlock()
		return false
	}
	it.status = StatusCanceled
	cancel := it.cancel
	m.mu.Unlock()

	cancel()
	return true
}

// CancelAll aborts every non-terminal item.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.order))
	ids = append(ids, m.order...)
	m.mu.Unlock()

	for _, id := range ids {
		m.Cancel(id)
	}
}

// Wait blocks until every enqueued item reaches a terminal state.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Snapshot returns the state of all items in insertion order.
func (m *Manager) Snapshot() []ItemState {
	m.mu.Lock()
	defer m.mu.Unlock()

	states := make([]ItemState, 0, len(m.order))
	for _, id := range m.order {
		it := m.items[id]
		states = append(states, ItemState{
			ID:     it.id,
			Name:   it.source.Name,
			Status: it.status,
			Sent:   it.sent,
			Size:   it.source.Size,
			Err:    it.err,
		})
	}
	return states
}

// Progress returns the mean completion fraction over all items, in [0, 1].
// Terminal items count as complete; an empty registry reports 1.
func (m *Manager) Progress() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.order) == 0 {
		return 1
	}

	var sum float64
	for _, id := range m.order {
		it := m.items[id]
		switch {
		case it.status.terminal():
			sum += 1
		case it.source.Size > 0:
			sum += float64(it.sent) / float64(it.source.Size)
		}
	}
	return sum / float64(len(m.order))
}

// ClearCompleted drops every terminal item from the registry and returns how
// many were removed.
func (m *Manager) ClearCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.order[:0]
	removed := 0
	for _, id := range m.order {
		if m.items[id].status.terminal() {
			delete(m.items, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed
}

// setStatus transitions the item unless it already reached a terminal state,
// so a cancellation can never be overwritten by a late completion.
func (m *Manager) setStatus(it *item, status Status, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it.status.terminal() {
		return
	}
	it.status = status
	it.err = err
}

// noteProgress records transferred bytes; the counter never decreases.
func (m *Manager) noteProgress(it *item, total int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if total > it.sent {
		it.sent = total
	}
}

func (m *Manager) isCanceled(it *item) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return it.status == StatusCanceled
}

func (m *Manager) run(ctx context.Context, it *item) {
	if m.isCanceled(it) {
		return
	}
	m.setStatus(it, StatusUploading, nil)

	grant, err := m.api.RequestUpload(ctx, it.source.Name, it.source.ContentType, it.source.Size, it.folderID)
	if err != nil {
		m.fail(it, ctx, err)
		return
	}

	if err := m.put(ctx, it, grant.URL); err != nil {
		m.fail(it, ctx, err)
		return
	}

	// The bytes are stored, but a cancellation issued during the transfer
	// still wins: no commit, no metadata row.
	if m.isCanceled(it) {
		return
	}

	if _, err := m.api.CommitUpload(ctx, grant.Key, it.source.Name, it.source.Size, it.source.ContentType, it.folderID); err != nil {
		m.fail(it, ctx, err)
		return
	}

	m.noteProgress(it, it.source.Size)
	m.setStatus(it, StatusDone, nil)
}

// put streams the payload to the presigned URL.
func (m *Manager) put(ctx context.Context, it *item, url string) error {
	rc, err := it.source.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	body := &progressReader{r: rc, report: func(total int64) { m.noteProgress(it, total) }}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	req.ContentLength = it.source.Size
	if it.source.ContentType != "" {
		req.Header.Set("Content-Type", it.source.ContentType)
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("upload target returned %s", resp.Status)
	}
	return nil
}

// fail marks the item failed, or canceled when the failure was caused by the
// item's own cancellation.
func (m *Manager) fail(it *item, ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		m.setStatus(it, StatusCanceled, nil)
		return
	}
	m.setStatus(it, StatusError, err)
}
