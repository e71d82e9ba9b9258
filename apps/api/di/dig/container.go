package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/masomo-lessons/apps/api/echo"
	"github.com/trezcool/masomo-lessons/core"
	"github.com/trezcool/masomo-lessons/core/activity"
	"github.com/trezcool/masomo-lessons/core/lessonplan"
	locksvc "github.com/trezcool/masomo-lessons/services/lock"
	logsvc "github.com/trezcool/masomo-lessons/services/logger"
	"github.com/trezcool/masomo-lessons/storage/database"
	dummydb "github.com/trezcool/masomo-lessons/storage/database/dummy"
	sqlxstore "github.com/trezcool/masomo-lessons/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Closers holds the connections to release on shutdown.
type Closers struct {
	fns []func() error
}

func (c *Closers) add(fn func() error) { c.fns = append(c.fns, fn) }

// Close releases everything in reverse order and returns the first error.
func (c *Closers) Close() error {
	var first error
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newCloser() *Closers { return new(Closers) }

// newRecordStore opens the storage engine selected by the configuration.
func newRecordStore(conf *core.Config, loggerParam DBLoggerParam, closers *Closers) core.RecordStore {
	logger := loggerParam.Logger
	switch conf.Storage.Engine {
	case core.StorageEngineMemory:
		db, _ := dummydb.Open()
		logger.Warn("using the in-memory storage engine: data will not survive a restart")
		return db
	case core.StorageEnginePostgres:
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		if err = database.Migrate(ctx, db.DB); err != nil {
			logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
		}
		closers.add(db.Close)
		return sqlxstore.NewStore(db)
	}
	logger.Fatal(fmt.Sprintf("unknown storage engine %q", conf.Storage.Engine))
	return nil
}

// newLocker shares locks through redis when it is configured.
func newLocker(conf *core.Config, logger core.Logger, closers *Closers) core.Locker {
	if conf.Redis.URL == "" {
		return locksvc.NewLocalLocker(conf.Lock.Wait)
	}
	client, err := locksvc.NewRedisClient(context.Background(), conf.Redis.URL)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	closers.add(client.Close)
	return locksvc.NewRedisLocker(client, logger, conf)
}

func newValidator() *validator.Validate {
	return validator.New()
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newCloser))
	must(c.Provide(newRecordStore))
	must(c.Provide(newLocker))
	must(c.Provide(lessonplan.NewRepository))
	must(c.Provide(func(repo *lessonplan.Repository) activity.DirectionStore { return repo }))
	must(c.Provide(activity.NewService))
	must(c.Provide(newValidator))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
