package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/bjarke-xyz/ams-gateway/internal/cmd"
)

// usage: server [migrate up|down]
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	var err error
	if len(os.Args) > 2 && os.Args[1] == "migrate" {
		err = cmd.MigrateCmd(ctx, os.Args[2])
	} else {
		err = cmd.ServerCmd(ctx)
	}
	if err != nil {
		log.Fatal(err)
	}
}
