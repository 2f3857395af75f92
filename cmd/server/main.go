// Command trip-server serves the trip engine over HTTP. When started with
// -config, edits to the settings file change the log level and engine
// defaults without a restart.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/cxd309/trip-engine/internal/api"
	"github.com/cxd309/trip-engine/internal/config"
	"github.com/cxd309/trip-engine/internal/log"
)

func main() {
	configFile := flag.String("config", "", "Path to a JSON or YAML settings file")
	flag.Parse()

	var handler *api.Handler
	reload := func(c *config.Config, err error) {
		if err != nil {
			log.Warnw("settings reload failed", "error", err)
			return
		}
		if err := log.SetLevel(c.Log.Level); err != nil {
			log.Warnw("settings reload failed", "error", err)
		}
		if handler != nil {
			handler.SetEngineConfig(c.Engine)
		}
		log.Infow("settings reloaded", "level", c.Log.Level, "default_step", c.Engine.DefaultStep)
	}

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.Watch(*configFile, reload)
	} else {
		cfg, err = config.Load("")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading settings: %v\n", err)
		os.Exit(1)
	}
	if err := log.Init(log.Options(cfg.Log)); err != nil {
		fmt.Fprintf(os.Stderr, "error initialising logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if !cfg.Log.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	handler = api.NewHandler(cfg.Engine, log.Named("api"))
	r := api.NewRouter(handler, cfg.Server.AllowOrigins)

	log.Infow("listening", "addr", cfg.Server.Addr)
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
