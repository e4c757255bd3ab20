package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/mkarpovs/crewtally/internal/buildinfo"
	"github.com/mkarpovs/crewtally/internal/cli"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	dataDir := flag.String("f", "data", "data directory")
	flag.Parse()

	ctx := context.Background()
	app, err := cli.NewApp(*dataDir)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
