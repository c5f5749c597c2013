package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/user"
	sqlxrepos "github.com/evaldocente/backend/storage/database/sqlx"
	"github.com/evaldocente/backend/testutil"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	usrRepo = sqlxrepos.NewUserRepository(db)

	// start CLI
	return &commandLine{
		db:      db.DB,
		usrRepo: usrRepo,
		profSvc: professor.NewService(sqlxrepos.NewProfessorRepository(db), user.NewService(usrRepo)),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type extra struct {
	pwd string
}

func mockPassword(tt cliTest) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if extra, ok := tt.extra.(extra); ok {
			return []byte(extra.pwd), nil
		}
		return nil, nil
	}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if errors.Cause(err) != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := &commandLine{}

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		if dir != migrationsDir {
			return fmt.Errorf("unexpected dir %q", dir)
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_periods", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	existing := testutil.CreateUser(t, usrRepo, "ana", "ana@example.com", "", []string{user.RoleStudent}, false)
	testutil.CreateUser(t, usrRepo, "admin", "admin@example.com", "", []string{user.RoleAdmin}, true)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-username", "luis"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "luis", "-email", "luis@example.com"}, wantErr: errHelp},
		{
			name: "unknown role", args: []string{"adduser", "-username", "luis", "-email", "luis@example.com", "-role", "dean"},
			extra: extra{pwd: "lol"}, wantErrStr: "\"dean\": no such role",
		},
		{
			name: "email taken", args: []string{"adduser", "-username", "ana", "-email", "admin@example.com"},
			extra: extra{pwd: "lol"}, wantErr: user.ErrEmailExists,
		},
		{
			name: "create teacher",
			args: []string{"adduser", "-username", "Luis", "-email", "LUIS@example.com", "-role", "teacher", "-first-name", " Luis ", "-last-name", "Pérez"},
			extra: extra{pwd: "lol"},
		},
		{
			name: "promote existing", args: []string{"adduser", "-username", "ana", "-email", "ana@example.com", "-admin"},
			extra: extra{pwd: "lmao"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	ctx := context.Background()
	luis, err := usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "luis"})
	if err != nil {
		t.Fatalf("GetUser() failed, %v", err)
	}
	if luis.Email != "luis@example.com" || luis.FullName() != "Luis Pérez" || !luis.IsTeacher() || !luis.IsActive {
		t.Errorf("adduser created %+v", luis)
	}

	ana, err := usrRepo.GetUser(ctx, user.GetFilter{ID: existing.ID})
	if err != nil {
		t.Fatalf("GetUser() failed, %v", err)
	}
	if !ana.IsAdmin() || !ana.IsActive || ana.FirstName != "Ana" {
		t.Errorf("adduser did not promote %+v", ana)
	}
	if err = ana.CheckPassword("lmao"); err != nil {
		t.Errorf("adduser did not set the password: %v", err)
	}
}

func Test_commandLine_addProfessor(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "ana", "ana@example.com", "", []string{user.RoleTeacher}, true)

	tests := []cliTest{
		{name: "no args", args: []string{"addprofessor"}, wantErr: errHelp},
		{name: "no department", args: []string{"addprofessor", "-username", "ana", "-employee-id", "E-001"}, wantErr: errHelp},
		{
			name: "user not found", args: []string{"addprofessor", "-username", "lol", "-employee-id", "E-001", "-department", "Física"},
			wantErr: user.ErrNotFound,
		},
		{name: "create", args: []string{"addprofessor", "-username", "Ana@Example.com", "-employee-id", " E-001 ", "-department", "Física"}},
		{
			name: "second profile", args: []string{"addprofessor", "-username", "ana", "-employee-id", "E-002", "-department", "Física"},
			wantErrStr: professor.ErrUserHasProfile.Error(),
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	profs, err := cli.profSvc.Query(context.Background(), &professor.QueryFilter{})
	if err != nil {
		t.Fatalf("Query() failed, %v", err)
	}
	if len(profs) != 1 || profs[0].User.ID != usr.ID || profs[0].EmployeeID != "E-001" {
		t.Errorf("addprofessor created %+v", profs)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "mdr", nil, true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if errors.Cause(err) != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
