/*
Example application driving the engine package: imports a glTF scene's
material textures and runs the window loop.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/ember/engine"
	"github.com/spaghettifunk/ember/engine/core"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	scenePath := flag.String("scene", "", "glTF scene to import on startup")
	flag.Parse()

	cfg := engine.DefaultConfig()
	if *configPath != "" {
		c, err := engine.LoadConfig(*configPath)
		if err != nil {
			panic(err)
		}
		cfg = c
	}

	app, err := engine.New(cfg)
	if err != nil {
		panic(err)
	}

	if err := app.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		<-sigCh
		_ = app.Shutdown()
	}()

	if *scenePath != "" {
		cache, err := app.ImportScene(*scenePath)
		if err != nil {
			core.LogError("scene import failed: %s", err.Error())
		} else {
			core.LogInfo("imported '%s': %d materials, %d textures",
				*scenePath, cache.MaterialCount(), cache.TextureCount())
		}
	}

	// run engine
	if err := app.Run(); err != nil {
		panic(err)
	}

	if err := app.Shutdown(); err != nil {
		panic(err)
	}
}
