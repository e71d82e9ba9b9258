package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/trezcool/masomo-lessons/core"
	"github.com/trezcool/masomo-lessons/core/activity"
	"github.com/trezcool/masomo-lessons/core/lessonplan"
	locksvc "github.com/trezcool/masomo-lessons/services/lock"
	logsvc "github.com/trezcool/masomo-lessons/services/logger"
	"github.com/trezcool/masomo-lessons/storage/database"
	dummydb "github.com/trezcool/masomo-lessons/storage/database/dummy"
	sqlxstore "github.com/trezcool/masomo-lessons/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	ctx := context.Background()

	// set up storage
	var (
		db    *sql.DB
		store core.RecordStore
	)
	switch conf.Storage.Engine {
	case core.StorageEngineMemory:
		store, _ = dummydb.Open()
	default:
		errAndDie(logger, database.CreateIfNotExist(ctx, conf))
		xdb, err := database.Open(ctx, conf)
		errAndDie(logger, err)
		defer func() { _ = xdb.Close() }()
		db = xdb.DB
		store = sqlxstore.NewStore(xdb)
	}

	var locker core.Locker = locksvc.NewLocalLocker(conf.Lock.Wait)
	if conf.Redis.URL != "" {
		client, err := locksvc.NewRedisClient(ctx, conf.Redis.URL)
		errAndDie(logger, err)
		defer func() { _ = client.Close() }()
		locker = locksvc.NewRedisLocker(client, logger, conf)
	}

	directions := lessonplan.NewRepository(store)

	// start CLI
	cli := commandLine{
		db:          db,
		activitySvc: activity.NewService(store, directions, locker, logger),
		directions:  directions,
		in:          os.Stdin,
		out:         os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
