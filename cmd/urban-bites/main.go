package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"urban-bites/internal/board"
	"urban-bites/internal/order"
	xerrors "urban-bites/internal/xpkg/errors"
	"urban-bites/internal/xpkg/logger"
)

func main() {
	mylogger, err := logger.New(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		log.Fatalf("log error: %v", err)
	}

	fs := flag.NewFlagSet("main", flag.ExitOnError)
	mode := fs.String("mode", "", "service to run: order-service | kitchen-board")

	// Only parse up to --mode, the rest of the args go to the service.
	args := os.Args[1:]
	modeArgs := []string{}
	for i, arg := range args {
		if strings.HasPrefix(arg, "--mode") || strings.HasPrefix(arg, "-mode") {
			modeArgs = args[:i+1]
			break
		}
	}
	if err := fs.Parse(modeArgs); err != nil {
		mylogger.Action("startup_failed").Error("Failed to parse flags", err)
		help(fs)
		return
	}
	if *mode == "" {
		mylogger.Action("startup_failed").Error("Failed to start urban-bites", xerrors.ErrModeFlag)
		help(fs)
		return
	}
	remainingArgs := args[len(modeArgs):]

	ctx := context.Background()
	switch *mode {
	case "order-service", "os":
		l := mylogger.With("service", "order-service")
		l.Action("order_service_started").Info("Successfully started")
		if err := order.Execute(ctx, l, remainingArgs); err != nil {
			if !errors.Is(err, xerrors.ErrHelp) {
				l.Action("order_service_failed").Error("Error in order-service", err)
				os.Exit(1)
			}
			return
		}
		l.Action("order_service_completed").Info("Successfully completed")

	case "kitchen-board", "kb":
		l := mylogger.With("service", "kitchen-board")
		l.Action("kitchen_board_started").Info("Successfully started")
		if err := board.Execute(ctx, l, remainingArgs); err != nil {
			if !errors.Is(err, xerrors.ErrHelp) {
				l.Action("kitchen_board_failed").Error("Error in kitchen-board", err)
				os.Exit(1)
			}
			return
		}
		l.Action("kitchen_board_completed").Info("Successfully completed")

	default:
		mylogger.Action("startup_failed").Error("Failed to start urban-bites", xerrors.ErrUnknownService)
		help(fs)
	}
}

func help(fs *flag.FlagSet) {
	fmt.Println("\nUsage:")
	fs.PrintDefaults()
	fmt.Println("\nExamples:")
	fmt.Println("  ./urban-bites --mode=order-service --port=3000")
	fmt.Println("  ./urban-bites --mode=kitchen-board --port=3001 --poll-interval=5")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
