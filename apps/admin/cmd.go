package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrRepo user.Repository
	profSvc professor.ServiceInterface
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-first-name NAME] [-last-name NAME] [-role ROLE] [-admin] - create or update a user")
	fmt.Println("  addprofessor -username USERNAME|EMAIL -employee-id ID -department NAME - give a user a professor profile")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserFirstName := addUserCmd.String("first-name", "", "The user's first name.")
	addUserLastName := addUserCmd.String("last-name", "", "The user's last name.")
	addUserRole := addUserCmd.String("role", strings.TrimSuffix(user.RoleStudent, ":"), "One of student, teacher or admin.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant every role to the user.")

	addProfCmd := flag.NewFlagSet("addprofessor", flag.ContinueOnError)
	addProfUname := addProfCmd.String("username", "", "The user's username or email.")
	addProfEmployee := addProfCmd.String("employee-id", "", "The professor's employee id.")
	addProfDept := addProfCmd.String("department", "", "The professor's department.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		role := *addUserRole + ":"
		if user.RolePriority(role) == 0 {
			return fmt.Errorf("%q: no such role", *addUserRole)
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(newUserArgs{
			username:  *addUserUname,
			email:     *addUserEmail,
			firstName: *addUserFirstName,
			lastName:  *addUserLastName,
			password:  pwd,
			role:      role,
			isAdmin:   *addUserAdmin,
		})

	case "addprofessor":
		if err := addProfCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addProfUname == "" || *addProfEmployee == "" || *addProfDept == "" {
			addProfCmd.Usage()
			return errHelp
		}
		return cli.addProfessor(*addProfUname, *addProfEmployee, *addProfDept)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}
