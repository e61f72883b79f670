// Command kvd-server runs the kvd TCP server: it binds an engine backend
// (the log-structured store or the sqlite alt engine) to a thread pool and
// serves framed JSON requests until terminated. Logging setup is grounded
// on the zap.NewDevelopmentConfig() pattern used by the pack's
// zmux-server binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kvd/internal/config"
	"kvd/internal/engine"
	"kvd/internal/engine/logengine"
	"kvd/internal/engine/sqliteengine"
	"kvd/internal/server"
	"kvd/pkg/fs"
	"kvd/pkg/pool"
)

func main() {
	os.Exit(run())
}

func run() int {
	flagSet := flag.NewFlagSet("kvd-server", flag.ContinueOnError)
	addr := flagSet.String("addr", "", "server address (HOST:PORT)")
	engineName := flagSet.String("engine", "", "engine backend: primary or alt")
	threadPool := flagSet.String("thread-pool", "", "thread pool: shared, naive, or rayon")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}

		fmt.Fprintln(os.Stderr, "error:", err)

		return 1
	}

	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: getwd:", err)

		return 1
	}

	cfg, err := config.Load(workDir, config.Config{
		Addr:       *addr,
		Engine:     *engineName,
		ThreadPool: *threadPool,
	}, flagSet.Changed("addr"), flagSet.Changed("engine"), flagSet.Changed("thread-pool"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)

		return 1
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	if err := config.CheckAndPersistEngine(workDir, cfg.Engine); err != nil {
		logger.Error("engine check failed", zap.Error(err))

		return 1
	}

	eng, err := openEngine(workDir, cfg.Engine)
	if err != nil {
		logger.Error("failed to open engine", zap.Error(err))

		return 1
	}
	defer func() { _ = eng.Close() }()

	p, err := openPool(cfg.ThreadPool, logger)
	if err != nil {
		logger.Error("failed to start thread pool", zap.Error(err))

		return 1
	}
	defer func() { _ = p.Close() }()

	ln, err := server.Listen(cfg.Addr)
	if err != nil {
		logger.Error("failed to listen", zap.String("addr", cfg.Addr), zap.Error(err))

		return 1
	}

	logger.Info("kvd-server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("engine", cfg.Engine),
		zap.String("thread_pool", cfg.ThreadPool),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	srv := server.New(eng, p, logger)
	if err := srv.Serve(ctx, ln); err != nil {
		logger.Error("server stopped with error", zap.Error(err))

		return 1
	}

	return 0
}

func newLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true

	return zap.Must(logConfig.Build()).Named("kvd-server")
}

func openEngine(workDir, engineName string) (engine.Engine, error) {
	switch engineName {
	case "primary":
		return logengine.Open(fs.NewReal(), workDir)
	case "alt":
		return sqliteengine.Open(workDir)
	default:
		return nil, fmt.Errorf("unknown engine %q: expected primary or alt", engineName)
	}
}

func openPool(name string, logger *zap.Logger) (pool.Pool, error) {
	panicLogger := func(recovered any) {
		logger.Error("recovered panic in pool job", zap.Any("panic", recovered))
	}

	const defaultWorkerCount = 4

	switch name {
	case "shared":
		return pool.NewSharedWithLogger(defaultWorkerCount, panicLogger), nil
	case "naive":
		return pool.NewNaiveWithLogger(defaultWorkerCount, panicLogger), nil
	case "rayon":
		return pool.NewGroupWithLogger(defaultWorkerCount, panicLogger), nil
	default:
		return nil, fmt.Errorf("unknown thread pool %q: expected shared, naive, or rayon", name)
	}
}
