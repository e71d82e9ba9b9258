package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	if cli.db == nil {
		return errors.New("migrations need the postgres storage engine")
	}
	return gooseRunFunc(ctx, cli.db, args[0], args[1:]...)
}
