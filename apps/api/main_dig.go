package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	dig_container "github.com/trezcool/masomo-lessons/apps/api/di/dig"
	echoapi "github.com/trezcool/masomo-lessons/apps/api/echo"
	"github.com/trezcool/masomo-lessons/core"
	"github.com/trezcool/masomo-lessons/core/activity"
)

// apiDeps is everything the API process needs from the container.
type apiDeps struct {
	conf       *core.Config
	logger     core.Logger
	closers    *dig_container.Closers
	validate   *validator.Validate
	translator ut.Translator
	server     *echoapi.Server
}

func startWithDig() error {
	var deps apiDeps
	err := dig_container.New().Invoke(func(
		conf *core.Config,
		logger core.Logger,
		closers *dig_container.Closers,
		validate *validator.Validate,
		translator ut.Translator,
		server *echoapi.Server,
	) {
		deps = apiDeps{conf, logger, closers, validate, translator, server}
	})
	if err != nil {
		return errors.Wrap(err, "building the API")
	}
	return deps.serve()
}

func (deps apiDeps) serve() error {
	conf, logger := deps.conf, deps.logger
	logger.Info(fmt.Sprintf("lesson activities API starting: version %q, storage %q", conf.Build, conf.Storage.Engine))
	defer logger.Info("lesson activities API stopped")
	defer func() {
		if err := deps.closers.Close(); err != nil {
			logger.Error("closing connections", err)
		}
	}()

	core.InitValidators(deps.validate, deps.translator)
	activity.InitValidators(deps.validate, deps.translator)

	deps.startDebugServer()
	go deps.server.Start()

	select {
	case err := <-deps.server.Errors():
		return errors.Wrap(err, "serving API")
	case sig := <-deps.server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: shutting down", sig))
		return deps.shutdown()
	}
}

// startDebugServer serves /debug/pprof and /debug/vars on the debug address.
func (deps apiDeps) startDebugServer() {
	conf := deps.conf
	types := make([]string, 0)
	for _, k := range activity.Kinds() {
		types = append(types, string(k.Type))
	}
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage.Engine)
	expvar.NewString("activity_types").Set(strings.Join(types, ","))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			deps.logger.Error("debug server closed", err)
		}
	}()
}

// shutdown lets in-flight requests finish before the deadline, then forces the listener closed.
func (deps apiDeps) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), deps.conf.Server.ShutdownTimeout)
	defer cancel()

	err := deps.server.Shutdown(ctx)
	if err == nil {
		return nil
	}
	deps.logger.Warn("graceful shutdown failed", err)
	if cerr := deps.server.Close(); cerr != nil {
		return errors.Wrap(cerr, "forcing the server closed")
	}
	return nil
}
