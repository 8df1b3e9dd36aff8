/*
Wordreward runs the word-guessing game node: it serves the game page and API,
follows the player's wallet and pays solved words out of the reward contract.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/golang/glog"
	"github.com/peterbourgon/ff/v3"
	"github.com/wordchain/wordreward/cmd/wordreward/starter"
)

var version = "undefined"

func main() {
	// Override the default flag set since there are dependencies that
	// incorrectly add their own flags (specifically, due to the 'testing'
	// package being linked)
	flag.Set("logtostderr", "true")
	vFlag := flag.Lookup("v")
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	cfg := parseWordRewardConfig()

	if *versionFlag {
		fmt.Printf("wordreward version: %s\n", version)
		fmt.Printf("golang runtime version: %s %s\n", runtime.Compiler, runtime.Version())
		fmt.Printf("architecture: %s\n", runtime.GOARCH)
		fmt.Printf("operating system: %s\n", runtime.GOOS)
		return
	}

	vFlag.Value.Set(*verbosity)

	glog.Infof("***wordreward is running***")
	cfg.PrintConfig(os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	starter.StartWordReward(ctx, cfg, version)
}

var (
	versionFlag *bool
	verbosity   *string
)

func parseWordRewardConfig() starter.WordRewardConfig {
	cfg := starter.NewWordRewardConfig(flag.CommandLine)

	versionFlag = flag.Bool("version", false, "Print out the version")
	verbosity = flag.String("v", "3", "Log verbosity.  {4|5|6}")
	flag.String("config", "", "Config file in the format 'key value', flags and env vars take precedence over the config file")

	err := ff.Parse(flag.CommandLine, os.Args[1:],
		ff.WithConfigFileFlag("config"),
		ff.WithEnvVarPrefix("WORDREWARD"),
		ff.WithConfigFileParser(ff.PlainParser),
	)
	if err != nil {
		glog.Exit("Error parsing config: ", err)
	}

	return cfg
}
