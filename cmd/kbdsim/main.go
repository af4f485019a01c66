// Command kbdsim runs the PS/2 keyboard driver on a simulated PC, or on the
// host's own keyboard controller, and shows what it decodes.
package main

import (
	"os"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"

	"example.com/x86-hal/internal/cmd"
	"example.com/x86-hal/internal/config"
	"example.com/x86-hal/internal/log"
)

func main() {
	userCfg := config.FindUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := config.CandidatePaths(userCfg)

	var cli cmd.CLI
	ctx := kong.Parse(&cli,
		kong.Name("kbdsim"),
		kong.Description("PS/2 keyboard driver on a simulated x86 PC"),
		kong.UsageOnError(),
		// Files in priority order; flags and env override them.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	ctx.Bind(logger, &cli.Platform)
	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}
