package main

import (
	"context"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/user"
)

// addProfessor creates the professor profile of the user known by uname.
func (cli *commandLine) addProfessor(uname, employeeID, department string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
	if err != nil {
		return err
	}

	np := professor.NewProfessor{
		UserID:     usr.ID,
		EmployeeID: core.CleanString(employeeID),
		Department: core.CleanString(department),
	}
	if err = cli.profSvc.CheckUniqueness(ctx, np); err != nil {
		return err
	}
	_, err = cli.profSvc.Create(ctx, np)
	return err
}
