package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/skydrive/skydrive/internal/client/api"
	"github.com/skydrive/skydrive/internal/client/uploader"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.in); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatItem(t *testing.T) {
	dir := api.Item{Name: "docs", IsFolder: true}
	if got := formatItem(dir); !strings.Contains(got, "<dir>") || !strings.Contains(got, "docs/") {
		t.Errorf("unexpected folder line: %q", got)
	}

	file := api.Item{Name: "cat.png", Size: 2048}
	got := formatItem(file)
	if !strings.Contains(got, "2.0 KiB") || !strings.Contains(got, "cat.png") {
		t.Errorf("unexpected file line: %q", got)
	}
}

func TestFormatUpload(t *testing.T) {
	uploading := uploader.ItemState{Name: "a.bin", Status: uploader.StatusUploading, Sent: 50, Size: 200}
	if got := formatUpload(uploading); !strings.Contains(got, "25%") {
		t.Errorf("want percentage in %q", got)
	}

	failed := uploader.ItemState{Name: "b.bin", Status: uploader.StatusError, Err: errors.New("boom")}
	if got := formatUpload(failed); !strings.Contains(got, "boom") {
		t.Errorf("want error message in %q", got)
	}

	done := uploader.ItemState{Name: "c.bin", Status: uploader.StatusDone}
	if got := formatUpload(done); !strings.Contains(got, "done") {
		t.Errorf("want status in %q", got)
	}
}

func TestPwdString(t *testing.T) {
	a := &App{}
	if got := a.pwdString(); got != "/" {
		t.Errorf("root pwd = %q", got)
	}

	a.path = []crumb{{id: "1", name: "docs"}, {id: "2", name: "work"}}
	if got := a.pwdString(); got != "/docs/work/" {
		t.Errorf("nested pwd = %q", got)
	}
}
