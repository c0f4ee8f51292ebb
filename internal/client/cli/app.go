// Package cli is the interactive terminal client for the drive: a small
// REPL over the HTTP API with folder navigation, batch uploads through the
// transfer orchestrator and presigned downloads.
package cli

import (
	"bufio"
	"context"
	"net/http"
	"os"

	"github.com/skydrive/skydrive/internal/client/api"
	"github.com/skydrive/skydrive/internal/client/config"
	"github.com/skydrive/skydrive/internal/client/uploader"
)

// crumb is one step of the navigation path.
type crumb struct {
	id   string
	name string
}

type App struct {
	config   *config.Config
	api      *api.Client
	uploads  *uploader.Manager
	reader   *bufio.Reader
	userName string

	// path holds the folders from the root down to the current directory;
	// empty means the user is at the root.
	path []crumb
}

func NewApp(c *config.Config) (*App, error) {

	httpClient := &http.Client{Timeout: c.RequestTimeout}
	apiClient := api.New(c.ServerEndpointAddr, httpClient)

	// Uploads stream large payloads; they get a client without a deadline.
	uploads := uploader.NewManager(apiClient, &http.Client{}, c.UploadConcurrency)

	return &App{
		config:  c,
		api:     apiClient,
		uploads: uploads,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.api.IsAuthenticated()
}

// currentFolder returns the id of the current directory, nil at root.
func (a *App) currentFolder() *string {
	if len(a.path) == 0 {
		return nil
	}
	return &a.path[len(a.path)-1].id
}
