package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/dmitrijs2005/giftdesk/internal/buildinfo"
	"github.com/dmitrijs2005/giftdesk/internal/server/command"
	"github.com/joho/godotenv"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	// a .env file is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	if err := command.App(os.Stdout).RunContext(context.Background(), os.Args); err != nil {
		log.Fatalf("%v", err)
	}

}
