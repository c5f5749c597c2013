package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/user"
)

type newUserArgs struct {
	username  string
	email     string
	firstName string
	lastName  string
	password  string
	role      string
	isAdmin   bool // every role
}

// addUser updates or creates an active user.User. Blank names keep the current ones.
func (cli *commandLine) addUser(args newUserArgs) error {
	ctx := context.Background()
	uname := core.CleanString(args.username, true /* lower */)
	email := core.CleanString(args.email, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: uname})
	if errors.Cause(err) == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: email})
	}
	isNew := errors.Cause(err) == user.ErrNotFound
	if err != nil && !isNew {
		return err
	}

	if err = cli.usrRepo.CheckUniqueness(ctx, uname, email, usr.ID); err != nil {
		return err
	}
	usr.Username = uname
	usr.Email = email
	if name := core.CleanString(args.firstName); name != "" {
		usr.FirstName = name
	}
	if name := core.CleanString(args.lastName); name != "" {
		usr.LastName = name
	}
	usr.IsActive = true
	usr.Roles = []string{args.role}
	if args.isAdmin {
		usr.Roles = user.AllRoles
	}
	if err = usr.SetPassword(args.password); err != nil {
		return err
	}

	usr.UpdatedAt = time.Now().UTC()
	if isNew {
		usr.CreatedAt = usr.UpdatedAt
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
