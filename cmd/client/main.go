package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dmitrijs2005/giftdesk/internal/buildinfo"
	"github.com/dmitrijs2005/giftdesk/internal/client/cli"
	"github.com/dmitrijs2005/giftdesk/internal/client/config"
	"github.com/dmitrijs2005/giftdesk/internal/filex"
	"github.com/dmitrijs2005/giftdesk/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.New(os.Stderr, "text", cfg.LogLevel)

	var historyPath string
	if dir, err := filex.EnsureSubdDir(".giftdesk"); err == nil {
		historyPath = filepath.Join(dir, "history")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := cli.NewTerminalInput(os.Stdin, os.Stdout, historyPath)
	app, err := cli.NewApp(ctx, cfg, input, os.Stdout, logger)
	if err != nil {
		_ = input.Close()
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
