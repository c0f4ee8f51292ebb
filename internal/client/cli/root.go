package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	s = s + a.pwdString()
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to SkyDrive CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("sky %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: ls, cd, pwd, mkdir, put, get, mv, cp, rm, rename, search, usage, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, exit")
			}

		case "register":
			a.Register(ctx)
		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "ls":
			a.list(ctx)
		case "cd":
			a.cd(ctx, args)
		case "pwd":
			fmt.Println(a.pwdString())
		case "mkdir":
			a.mkdir(ctx, args)
		case "put":
			a.put(ctx, args)
		case "get":
			a.get(ctx, args)
		case "mv":
			a.move(ctx, args)
		case "cp":
			a.copy(ctx, args)
		case "rm":
			a.remove(ctx, args)
		case "rename":
			a.rename(ctx, args)
		case "search":
			a.search(ctx, args)
		case "usage":
			a.usage(ctx)
		case "exit", "quit":
			a.uploads.CancelAll()
			a.uploads.Wait()
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}
