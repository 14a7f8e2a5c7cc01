// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

// Package bakecli implements the "bake" command-line tool described in
// spec §6, shared by cmd/bake and every compiled Bakefile's own main
// package (such as examples/demo/cmd/bake).
package bakecli

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	bakery "github.com/lainproliant/bakery"
)

// Register is implemented by a compiled Bakefile package to add its
// resources to a Build before the CLI runs it.
type Register func(b *bakery.Build)

// Command builds the bake *cli.Command against register and log
// without running it, split out of Main so a test can drive
// cmd.Run directly and inspect the returned error instead of exiting
// the test binary (spec §6's exit-code contract).
func Command(register Register, log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:  "bake",
		Usage: "Build targets declared by the bound Bakefile",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "bakefile",
				Aliases: []string{"b"},
				Value:   "Bakefile.go",
				Usage:   "Name of the Bakefile expected in the current directory",
			},
			&cli.BoolFlag{
				Name:    "clean",
				Aliases: []string{"c"},
				Usage:   "Remove declared outputs instead of building them",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			bakefile := cmd.String("bakefile")
			if _, err := os.Stat(bakefile); err != nil {
				log.Errorf("No %q in the current directory.", bakefile)
				return fmt.Errorf("no %q in the current directory", bakefile)
			}

			b := bakery.NewBuild()
			b.Cleaning = cmd.Bool("clean")
			register(b)

			targets := cmd.Args().Slice()
			built, err := b.Build(targets...)
			if err != nil {
				log.Error(err)
				log.Info("\x1b[31mBUILD FAILED\x1b[0m")
				return err
			}
			if len(built) == 0 {
				log.Warn("Nothing was built — did you forget to register a module?")
			}
			log.Info("\x1b[32mBUILD SUCCEEDED\x1b[0m")
			return nil
		},
	}
}

// Main runs the bake CLI against register, the Go stand-in for a
// project's compiled Bakefile. A Bakefile in this rewrite is not
// parsed source text but a compiled Go package — the Design Notes
// favor a compiled entry point over an embedded interpreter — so
// -b/--bakefile here only names the file bake expects to find in the
// working directory and checks its presence, the way the original's
// configure() did before exec()-ing it as Python. Exit code is 1 if
// the bakefile is missing or the build failed, 0 otherwise (spec §6).
func Main(register Register) {
	log := bakery.NewRootLogger()
	if err := Command(register, log).Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}
