package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

const version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "bk7231tools"
	app.Usage = "Analyze flash dumps of BK7231 chips"
	app.Version = version
	app.Flags = getFlags()
	app.Commands = []cli.Command{
		{
			Name:      "dissect_dump",
			Usage:     "Dissect and extract RBL containers from flash dump files",
			ArgsUsage: "FILE",
			Flags:     getDissectFlags(),
			Action:    dissectDump,
		},
		{
			Name:   "layouts",
			Usage:  "List known flash layouts",
			Action: listLayouts,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "level",
			Usage: "logging level [debug|info|warn|error]",
			Value: "warn",
		},
		cli.StringFlag{
			Name:  "layouts, c",
			Usage: "load additional flash layouts from YAML `FILE`",
		},
	}
}

func getDissectFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "layout, l",
			Usage: "flash layout used to generate the dump file",
			Value: "ota_1",
		},
		cli.StringFlag{
			Name:  "output-dir, O",
			Usage: "output directory for extracted files (default: current working directory)",
		},
		cli.BoolFlag{
			Name:  "extract, e",
			Usage: "extract identified payloads instead of outputting information only",
		},
		cli.BoolFlag{
			Name:  "rbl",
			Usage: "extract the RBL container instead of just its payload",
		},
	}
}
