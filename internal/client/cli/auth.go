package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vidhub/internal/client/client"
	"github.com/dmitrijs2005/vidhub/internal/client/services"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) prompt(text string) (string, error) {
	return getSimpleText(a.reader, text, a.out)
}

// Register asks for the account fields and the image paths, then creates
// the account. It does not log in.
func (a *App) Register(ctx context.Context) error {
	var req client.RegisterRequest
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Enter full name", &req.FullName},
		{"Enter email", &req.Email},
		{"Enter username", &req.UserName},
		{"Path to avatar image", &req.AvatarPath},
		{"Path to cover image (optional)", &req.CoverPath},
	}
	for _, f := range fields {
		v, err := a.prompt(f.prompt)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	req.Password = password

	user, err := a.auth.Register(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s. You can log in now.\n", user.UserName)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	login, err := a.prompt("Enter username or email")
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, login, password)
	if err != nil {
		return err
	}

	a.userName = user.UserName
	fmt.Fprintf(a.out, "Logged in as %s\n", user.UserName)
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	user, err := a.auth.WhoAmI(ctx)
	if err != nil {
		a.forgetIfLoggedOut(err)
		return err
	}

	fmt.Fprintf(a.out, "%s (%s) <%s>\n", user.UserName, user.FullName, user.Email)
	if user.Avatar != "" {
		fmt.Fprintf(a.out, "avatar: %s\n", user.Avatar)
	}
	if user.CoverImage != "" {
		fmt.Fprintf(a.out, "cover:  %s\n", user.CoverImage)
	}
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.auth.Refresh(ctx); err != nil {
		a.forgetIfLoggedOut(err)
		return err
	}
	fmt.Fprintln(a.out, "Session refreshed")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.auth.Logout(ctx)
	a.userName = ""
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// ChangePassword ends the local session on success: the server revokes the
// refresh token with the old password.
func (a *App) ChangePassword(ctx context.Context) error {
	oldPassword, err := getPassword("Enter current password", a.out)
	if err != nil {
		return err
	}
	newPassword, err := getPassword("Enter new password", a.out)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Repeat new password", a.out)
	if err != nil {
		return err
	}

	if err := a.auth.ChangePassword(ctx, oldPassword, newPassword, confirm); err != nil {
		a.forgetIfLoggedOut(err)
		return err
	}

	a.userName = ""
	fmt.Fprintln(a.out, "Password changed. Please log in again.")
	return nil
}

func (a *App) forgetIfLoggedOut(err error) {
	if errors.Is(err, services.ErrNotLoggedIn) {
		a.userName = ""
	}
}
