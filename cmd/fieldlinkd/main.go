// Command fieldlinkd bridges a bonded Bluetooth printer and barcode scanner
// to local WebSocket clients.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/judwhite/go-svc"
	"github.com/rs/zerolog/log"

	"fieldlink/internal/config"
	"fieldlink/internal/daemon"
)

const AppName = "fieldlinkd"

func main() {
	consoleMode := flag.Bool("console", false, "Run in console mode (not as service)")
	configPath := flag.String("config", os.Getenv("FIELDLINK_CONFIG"), "Path to JSON configuration file")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("%s %s (%s %s)\n", AppName, config.BuildEnvironment, config.BuildDate, config.BuildTime)
		return
	}

	prg := &daemon.Program{ConfigPath: *configPath}

	if *consoleMode || isInteractive() {
		runConsole(prg)
		return
	}

	if err := svc.Run(prg, syscall.SIGINT, syscall.SIGTERM); err != nil {
		log.Fatal().Err(err).Msg("Service failed")
	}
}

func runConsole(prg *daemon.Program) {
	if err := prg.Init(nil); err != nil {
		log.Fatal().Err(err).Msg("Init failed")
	}

	if err := prg.Start(); err != nil {
		log.Fatal().Err(err).Msg("Start failed")
	}

	log.Info().Msg("Console mode, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	if err := prg.Stop(); err != nil {
		log.Error().Err(err).Msg("Stop failed")
		os.Exit(1)
	}
}

// isInteractive reports whether stdin is a terminal
func isInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
