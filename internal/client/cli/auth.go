package cli

import (
	"context"
	"fmt"
	"os"
)

func (a *App) Register(ctx context.Context) {
	userName, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	if err := a.api.Register(ctx, userName, string(password)); err != nil {
		fmt.Println("Registration failed:", err)
		return
	}
	fmt.Println("Registered. You can now log in.")
}

func (a *App) Login(ctx context.Context) {
	userName, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		fmt.Println("Login failed:", err)
		return
	}

	a.userName = userName
	a.path = nil
	fmt.Println("Logged in.")
}

func (a *App) Logout(_ context.Context) {
	a.api.Logout()
	a.userName = ""
	a.path = nil
	fmt.Println("Logged out.")
}
