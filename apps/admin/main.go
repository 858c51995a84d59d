package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/mwalimu/somo/core"
	logsvc "github.com/mwalimu/somo/services/logger"
	"github.com/mwalimu/somo/storage/database"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	svcLogger := logsvc.NewRollbarLogger(logger, conf)
	svcLogger.Enable(!conf.Debug)

	cli := commandLine{
		conf:   conf,
		logger: svcLogger,
		openDB: func() (*sql.DB, error) { return database.Open(conf) },
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
