package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/searchktools/minihttp/api"
	"github.com/searchktools/minihttp/app"
	"github.com/searchktools/minihttp/config"
)

func main() {
	// Flags, then config file, then MINIHTTP_* environment
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "minihttp: %v\n", err)
		os.Exit(2)
	}

	application := app.New(cfg)

	// Application routes
	api.Register(application.Engine(),
		api.NewUserStore(api.SeedUsers()...),
		api.NewProductStore(api.SeedProducts()...),
	)

	if err := application.Run(); err != nil {
		application.Logger().Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
