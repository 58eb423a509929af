package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/jfuruness/mrt-collector/internal/config"
	"github.com/jfuruness/mrt-collector/internal/logging"
	"github.com/jfuruness/mrt-collector/internal/metrics"
	"github.com/jfuruness/mrt-collector/internal/pipeline"
	"github.com/jfuruness/mrt-collector/internal/status"
)

func usage() {
	println("\nUsage of mrt-collector:\n")
	println("mrt-collector has the following modes:")
	println("  - run: run the full S1-S7 pipeline for a snapshot timestamp.")
	println("  - status: show sentinel completion state for a working directory.\n")
	println("Type")
	println("  ./mrt-collector [mode] -h")
	println("for further information on each mode.\n")
}

func main() {
	logging.Init(os.Getenv("VERBOSE") != "")

	if len(os.Args) == 1 {
		usage()
		return
	}
	switch command := os.Args[1]; command {

	/* --------------------------- *\
	          RUN
	\* --------------------------- */
	case "run":
		launch_run(os.Args[1:])

	/* --------------------------- *\
	          STATUS
	\* --------------------------- */
	case "status":
		workdir, blockSize := handle_args_status(os.Args[1:])
		status.Print(os.Stdout, workdir, blockSize)

	case "-h", "--help":
		usage()
	default:
		log.Error().Str("command", command).Msg("unknown command")
		usage()
	}
}

func launch_run(args []string) {
	cfg, err := config.HandleArgsRun(args)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid arguments")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn().Msg("received interrupt, finishing in-flight work")
		cancel()
	}()

	if cfg.MetricsAddr != "" {
		go metrics.Serve(ctx, cfg.MetricsAddr)
	}

	if err := pipeline.Run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}
