// Command runnerctl drives the provider orchestration runner (spec §1)
// from the command line: one request in, one strategy-dispatched response
// out. Grounded on the teacher's kong-based CLI shape (cmd/main_simple.go,
// cmd/cli.go) and the original adapter's cli/{args,io}.py for the flag
// surface and request/response framing.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/willabides/kongplete"
)

// CLI is the root command set.
type CLI struct {
	Config string `kong:"type='path',short='c',help='Config file (YAML) naming providers'"`

	Run                RunCmd                       `kong:"cmd,help='Execute a single orchestrated request'"`
	Doctor             DoctorCmd                    `kong:"cmd,help='Validate a config file and report configured providers'"`
	InstallCompletions kongplete.InstallCompletions `kong:"cmd,help='Install shell completions'"`
}

func main() {
	var cli CLI
	parser := kong.Must(&cli,
		kong.Name("runnerctl"),
		kong.Description("Orchestrate one request across configured LLM providers"),
		kong.UsageOnError(),
	)

	kongplete.Complete(parser,
		kongplete.WithPredictor("path", kongplete.FilesPredictor(true)),
	)

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	fileCfg, err := loadFileConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runnerctl: loading config: %v\n", err)
		os.Exit(1)
	}

	err = kctx.Run(&appContext{ctx: context.Background(), fileCfg: fileCfg})
	kctx.FatalIfErrorf(err)
}

// appContext is the kong run-context every subcommand receives.
type appContext struct {
	ctx     context.Context
	fileCfg FileConfig
}
