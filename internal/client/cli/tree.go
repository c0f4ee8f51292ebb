package cli

import (
	"context"
	"fmt"

	"github.com/skydrive/skydrive/internal/client/api"
)

func (a *App) pwdString() string {
	s := "/"
	for _, c := range a.path {
		s += c.name + "/"
	}
	return s
}

// resolveChild finds an item by name in the current directory.
func (a *App) resolveChild(ctx context.Context, name string) (*api.Item, error) {
	items, err := a.api.ListChildren(ctx, a.currentFolder())
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Name == name {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("no such item: %s", name)
}

// resolveTargetFolder maps a destination argument to a folder id:
// "/" means the root (nil), anything else must name a folder in the current
// directory.
func (a *App) resolveTargetFolder(ctx context.Context, arg string) (*string, error) {
	if arg == "/" {
		return nil, nil
	}
	item, err := a.resolveChild(ctx, arg)
	if err != nil {
		return nil, err
	}
	if !item.IsFolder {
		return nil, fmt.Errorf("not a folder: %s", arg)
	}
	return &item.ID, nil
}

func (a *App) list(ctx context.Context) {
	items, err := a.api.ListChildren(ctx, a.currentFolder())
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if len(items) == 0 {
		fmt.Println("(empty)")
		return
	}
	for _, item := range items {
		fmt.Println(formatItem(item))
	}
}

func (a *App) cd(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: cd <folder> | cd .. | cd /")
		return
	}

	switch args[0] {
	case "/":
		a.path = nil
	case "..":
		if len(a.path) > 0 {
			a.path = a.path[:len(a.path)-1]
		}
	default:
		item, err := a.resolveChild(ctx, args[0])
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		if !item.IsFolder {
			fmt.Println("Not a folder:", args[0])
			return
		}
		a.path = append(a.path, crumb{id: item.ID, name: item.Name})
	}
}

func (a *App) mkdir(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: mkdir <name>")
		return
	}

	folder, err := a.api.CreateFolder(ctx, args[0], a.currentFolder())
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Created folder", folder.Name)
}

func formatItem(item api.Item) string {
	if item.IsFolder {
		return fmt.Sprintf("%-10s %s/", "<dir>", item.Name)
	}
	return fmt.Sprintf("%-10s %s", formatSize(item.Size), item.Name)
}

// formatSize renders a byte count with a binary unit suffix.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
