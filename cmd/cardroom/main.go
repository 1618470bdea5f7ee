package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Init     InitCmd          `cmd:"" help:"Create the shared session record for a room"`
	Run      RunCmd           `cmd:"" help:"Join a room as a coordinating client"`
	Simulate SimulateCmd      `cmd:"" help:"Play hands locally against an in-memory store"`
	Eval     EvalCmd          `cmd:"" help:"Rank a poker hand from card codes"`
	Log      LogCmd           `cmd:"" help:"Dump a room's action log"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("cardroom"),
		kong.Description("Serverless multiplayer poker coordinated through a shared record store"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
