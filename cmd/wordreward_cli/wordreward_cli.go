package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "wordreward-cli"
	app.Usage = "interact with a local wordreward node"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "http",
			Usage: "local http port",
			Value: "8080",
		},
		cli.StringFlag{
			Name:  "host",
			Usage: "host for the wordreward node",
			Value: "localhost",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "status",
			Usage:  "show the wallet, game and bank status",
			Action: withClient(status),
		},
		{
			Name:   "connect",
			Usage:  "ask the player's wallet for an account",
			Action: withClient(connect),
		},
		{
			Name:   "disconnect",
			Usage:  "forget the connected wallet",
			Action: withClient(disconnect),
		},
		{
			Name:   "balance",
			Usage:  "show the connected wallet's token balance",
			Action: withClient(balance),
		},
		{
			Name:   "reserve",
			Usage:  "show the reward contract's reserve",
			Action: withClient(reserve),
		},
		{
			Name:      "guess",
			Usage:     "guess a letter",
			ArgsUsage: "<letter>",
			Action:    withClient(guess),
		},
		{
			Name:      "unguess",
			Usage:     "take back a guessed letter",
			ArgsUsage: "<letter>",
			Action:    withClient(unguess),
		},
		{
			Name:   "reset",
			Usage:  "start a new game",
			Action: withClient(reset),
		},
		{
			Name:   "tickets",
			Usage:  "list reward tickets",
			Action: withClient(tickets),
		},
		{
			Name:      "retry",
			Usage:     "retry a failed reward",
			ArgsUsage: "<gameID>",
			Action:    withClient(retry),
		},
	}
	return app
}

func withClient(f func(c *cli.Context, client *client) error) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		client := newClient(fmt.Sprintf("http://%v:%v", c.GlobalString("host"), c.GlobalString("http")), c.App.Writer)
		return f(c, client)
	}
}
