package main

import (
	"github.com/pressly/goose/v3"

	"github.com/evaldocente/backend/storage/database"
)

const migrationsDir = "migrations"

var gooseRunFunc = goose.Run // mockable

// migrate runs the goose command args[0] against the embedded migrations.
func (cli *commandLine) migrate(args []string) error {
	if err := database.InitMigrations(); err != nil {
		return err
	}
	return gooseRunFunc(args[0], cli.db, migrationsDir, args[1:]...)
}
