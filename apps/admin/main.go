package main

import (
	"fmt"
	"log"
	"os"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/user"
	logsvc "github.com/evaldocente/backend/services/logger"
	"github.com/evaldocente/backend/storage/database"
	sqlxrepos "github.com/evaldocente/backend/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	usrRepo := sqlxrepos.NewUserRepository(db)
	cli := commandLine{
		db:      db.DB,
		usrRepo: usrRepo,
		profSvc: professor.NewService(sqlxrepos.NewProfessorRepository(db), user.NewService(usrRepo)),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}
