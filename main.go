/*
meshsync replays scene edits through the mesh synchronization layer and
prints the events every frame commits to the render scene.
*/
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/spaghettifunk/meshsync/engine"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/testbed"
	"github.com/urfave/cli/v2"
)

func main() {
	configFlag := &cli.PathFlag{
		Name:  "config",
		Usage: "path to the TOML configuration file",
		Value: "meshsync.toml",
	}

	app := &cli.App{
		Name:        "meshsync",
		Usage:       "mesh sync replay tool",
		Description: "replays HCL scene scripts through the mesh sync layer",
		Commands: []*cli.Command{
			{
				Name:   "replay",
				Usage:  "play a scene script and print the committed events",
				Action: commandReplay,
				Flags: []cli.Flag{
					configFlag,
					&cli.PathFlag{
						Name:     "script",
						Usage:    "path to the HCL scene script",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "var",
						Usage: "script variable as name=value, repeatable",
					},
					&cli.StringFlag{
						Name:  "log-level",
						Usage: "override the configured log level",
					},
					&cli.BoolFlag{
						Name:  "color",
						Usage: "style the event journal",
						Value: false,
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "keep running after the script and reload parts when they change",
						Value: false,
					},
				},
			},
			{
				Name:   "config",
				Usage:  "print the effective configuration",
				Action: commandConfig,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		core.LogFatal("%s", err)
	}
}

// loadConfig reads --config. A missing file is only an error when the flag
// was given explicitly.
func loadConfig(ctx *cli.Context) (*engine.ApplicationConfig, error) {
	path := ctx.Path("config")
	cfg, err := engine.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) && !ctx.IsSet("config") {
		return engine.DefaultConfig(), nil
	}
	return nil, err
}

func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q, want name=value", p)
		}
		vars[name] = value
	}
	return vars, nil
}

func commandReplay(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.IsSet("log-level") {
		cfg.Log.Level = ctx.String("log-level")
	}
	script := ctx.Path("script")
	watch := ctx.Bool("watch")
	if watch {
		cfg.Watch.Enabled = true
		if len(cfg.Watch.Paths) == 0 {
			cfg.Watch.Paths = []string{filepath.Dir(script)}
		}
	}
	vars, err := parseVars(ctx.StringSlice("var"))
	if err != nil {
		return err
	}

	replay, err := testbed.NewReplay(cfg, script, vars, os.Stdout)
	if err != nil {
		return err
	}
	replay.SetColor(ctx.Bool("color"))

	e, err := engine.New(replay.Game)
	if err != nil {
		return err
	}
	if err := e.Initialize(); err != nil {
		return errors.Join(err, e.Shutdown())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)
	var interrupted atomic.Bool
	go func() {
		if _, ok := <-sigCh; ok {
			interrupted.Store(true)
			e.Stop()
		}
	}()

	runErr := e.Run(replay.Frames())
	if runErr == nil && watch && !interrupted.Load() {
		core.LogInfo("script done, watching %v", cfg.Watch.Paths)
		runErr = e.Run(0)
	}
	return errors.Join(runErr, e.Shutdown())
}

func commandConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	return cfg.Encode(os.Stdout)
}
