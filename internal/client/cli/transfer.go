package cli

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/skydrive/skydrive/internal/client/uploader"
	"github.com/skydrive/skydrive/internal/filex"
)

const progressInterval = 300 * time.Millisecond

func (a *App) put(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: put <localfile>...")
		return
	}

	folderID := a.currentFolder()
	batch := make(map[string]bool, len(args))

	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		if info.IsDir() {
			fmt.Println("Skipping directory:", path)
			continue
		}

		localPath := path
		src := uploader.Source{
			Name:        filepath.Base(localPath),
			ContentType: mime.TypeByExtension(filepath.Ext(localPath)),
			Size:        info.Size(),
			Open:        func() (io.ReadCloser, error) { return os.Open(localPath) },
		}
		batch[a.uploads.Add(ctx, src, folderID)] = true
	}

	if len(batch) == 0 {
		return
	}
	a.watchUploads(batch)
}

// watchUploads prints progress lines until every item of the batch reaches a
// terminal state.
func (a *App) watchUploads(batch map[string]bool) {
	for {
		pending := 0
		for _, state := range a.uploads.Snapshot() {
			if !batch[state.ID] {
				continue
			}
			fmt.Println(formatUpload(state))
			switch state.Status {
			case uploader.StatusQueued, uploader.StatusUploading:
				pending++
			}
		}
		if pending == 0 {
			break
		}
		fmt.Println("---")
		time.Sleep(progressInterval)
	}
	a.uploads.ClearCompleted()
}

func formatUpload(state uploader.ItemState) string {
	switch state.Status {
	case uploader.StatusError:
		return fmt.Sprintf("%-30s error: %v", state.Name, state.Err)
	case uploader.StatusUploading:
		percent := 0.0
		if state.Size > 0 {
			percent = 100 * float64(state.Sent) / float64(state.Size)
		}
		return fmt.Sprintf("%-30s %s %.0f%%", state.Name, state.Status, percent)
	default:
		return fmt.Sprintf("%-30s %s", state.Name, state.Status)
	}
}

func (a *App) get(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: get <name>")
		return
	}

	item, err := a.resolveChild(ctx, args[0])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if item.IsFolder {
		fmt.Println("Cannot download a folder:", args[0])
		return
	}

	url, err := a.api.DownloadURL(ctx, item.ID)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	dir, err := filex.EnsureSubdDir(a.config.DownloadsDir)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	dest := filepath.Join(dir, item.Name)
	if err := a.download(ctx, url, dest); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Saved to", dest)
}

func (a *App) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(dest)
		return err
	}
	return f.Close()
}
