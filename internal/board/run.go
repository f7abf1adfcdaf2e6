package board

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	boardhttp "urban-bites/internal/board/api/http"
	"urban-bites/internal/xpkg/config"
	xerrors "urban-bites/internal/xpkg/errors"
	"urban-bites/internal/xpkg/logger"
)

// Execute starts one kitchen display service.
func Execute(ctx context.Context, mylog logger.Logger, args []string) error {
	newCtx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := parseParams(args)
	if err != nil {
		if !errors.Is(err, xerrors.ErrHelp) {
			mylog.Action("command_parse_failed").Error("Invalid command received", err)
		}
		return err
	}

	server := boardhttp.NewServer(newCtx, cfg, mylog)

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- server.Run()
	}()

	select {
	case <-newCtx.Done():
		mylog.Action("shutdown_signal_received").Info("Shutdown signal received")
		return server.Stop(context.Background())
	case err := <-runErrCh:
		if err != nil && !errors.Is(err, boardhttp.ErrServerClosed) {
			mylog.Action("kitchen_board_failed").Error("Server failed unexpectedly", err)
			return err
		}
		mylog.Action("server_stopped").Info("Server exited normally")
		return nil
	}
}

func parseParams(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("kitchen-board", flag.ContinueOnError)
	showHelp := fs.Bool("help", false, "Show help")
	port := fs.Int("port", 0, "Port to run the board service (overrides PORT)")
	dataDir := fs.String("data-dir", "", "Local store directory (overrides DATA_DIR)")
	pollSeconds := fs.Int("poll-interval", 0, "Board poll interval in seconds (overrides POLL_INTERVAL_SECONDS)")

	if err := fs.Parse(args); err != nil {
		return nil, errors.New("cannot parse arguments")
	}
	if *showHelp {
		fs.Usage()
		return nil, xerrors.ErrHelp
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *pollSeconds != 0 {
		cfg.PollInterval = time.Duration(*pollSeconds) * time.Second
	}

	if cfg.Port <= 0 || cfg.Port >= 65536 {
		return nil, fmt.Errorf("port must be in [1, 65535]: %d", cfg.Port)
	}
	if cfg.PollInterval < time.Second {
		return nil, fmt.Errorf("poll interval must be at least 1s: %s", cfg.PollInterval)
	}
	return cfg, nil
}
