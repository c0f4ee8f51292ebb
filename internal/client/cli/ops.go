package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) move(ctx context.Context, args []string) {
	a.relocate(ctx, args, "mv", a.api.Move)
}

func (a *App) copy(ctx context.Context, args []string) {
	a.relocate(ctx, args, "cp", a.api.Copy)
}

func (a *App) relocate(ctx context.Context, args []string, verb string, op func(ctx context.Context, ids []string, targetID *string) error) {
	if len(args) < 2 {
		fmt.Printf("Usage: %s <name>... <folder|/>\n", verb)
		return
	}

	target, err := a.resolveTargetFolder(ctx, args[len(args)-1])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	ids := make([]string, 0, len(args)-1)
	for _, name := range args[:len(args)-1] {
		item, err := a.resolveChild(ctx, name)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		ids = append(ids, item.ID)
	}

	if err := op(ctx, ids, target); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Done.")
}

func (a *App) remove(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: rm <name>...")
		return
	}

	ids := make([]string, 0, len(args))
	for _, name := range args {
		item, err := a.resolveChild(ctx, name)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		ids = append(ids, item.ID)
	}

	if err := a.api.Delete(ctx, ids); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Deleted.")
}

func (a *App) rename(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: rename <name> <newname>")
		return
	}

	item, err := a.resolveChild(ctx, args[0])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if err := a.api.Rename(ctx, item.ID, args[1]); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Renamed.")
}

func (a *App) search(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: search <query>")
		return
	}

	items, err := a.api.Search(ctx, strings.Join(args, " "))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if len(items) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, item := range items {
		fmt.Println(formatItem(item))
	}
}

func (a *App) usage(ctx context.Context) {
	u, err := a.api.Usage(ctx)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Printf("Used %s of %s\n", formatSize(u.Used), formatSize(u.Limit))
	for _, category := range []string{"image", "video", "document", "other"} {
		c := u.Categories[category]
		if c.Count == 0 {
			continue
		}
		fmt.Printf("  %-10s %s (%d files)\n", category, formatSize(c.Size), c.Count)
	}
}
