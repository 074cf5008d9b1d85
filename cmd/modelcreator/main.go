package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/modelcreator/internal/buildinfo"
	"github.com/dmitrijs2005/modelcreator/internal/cli"
	"github.com/dmitrijs2005/modelcreator/internal/config"
	"github.com/dmitrijs2005/modelcreator/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := logging.New(os.Stderr, cfg.LogFormat, level)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
