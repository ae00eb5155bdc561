// Command weaverctl is operator tooling around the weaver core: it
// validates a YAML AopConfig document, prints the weave order a boot
// of that document would produce, and reports process resource usage
// for the weaverctl process itself.
//
// None of these subcommands are part of the core (§1 lists the config
// loader and schema validation as external collaborators); weaverctl
// is the ambient CLI that exercises config, config/schema, and weaver
// from the outside, the way the teacher's own cmd/orchestrion wraps
// its core library.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/aspectrt/aspectrt/internal/log"
)

func main() {
	app := &cli.App{
		Name:  "weaverctl",
		Usage: "inspect and validate aspectrt weaver configurations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "NONE, ERROR, WARN, INFO, DEBUG, or TRACE",
				Value: "NONE",
			},
		},
		Before: func(c *cli.Context) error {
			lvl, ok := log.LevelNamed(c.String("log-level"))
			if !ok {
				return fmt.Errorf("unknown log level %q", c.String("log-level"))
			}
			log.SetLevel(lvl)
			return nil
		},
		Commands: []*cli.Command{
			validateCommand,
			graphCommand,
			doctorCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
