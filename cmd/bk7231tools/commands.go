package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/moffa90/go-bk7231/artifact"
	"github.com/moffa90/go-bk7231/dissect"
	"github.com/moffa90/go-bk7231/dump"
	"github.com/moffa90/go-bk7231/layout"
	"github.com/moffa90/go-bk7231/logger"
)

func dissectDump(c *cli.Context) (err error) {
	path := c.Args().First()
	if path == "" {
		return cli.NewExitError("missing dump FILE", 2)
	}

	level, err := logger.ParseLevel(c.GlobalString("level"))
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, level)

	registry, err := loadRegistry(c.GlobalString("layouts"))
	if err != nil {
		return err
	}
	l, err := registry.Get(c.String("layout"))
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "failed to get working directory")
	}
	out := resolveOutput(c.String("output-dir"), cwd, c.Bool("extract"))
	if out.implied {
		fmt.Println("Output directory is different from default: assuming -e (extract) is desired")
	}

	img, err := dump.Open(path)
	if err != nil {
		return err
	}
	defer closeInto(img, &err)

	opts := []dissect.Option{
		dissect.WithEventCallback(dissect.NewReporter(os.Stdout)),
		dissect.WithLogger(log),
		dissect.WithContainerHeader(c.Bool("rbl")),
	}
	if out.extract {
		opts = append(opts, dissect.WithWriter(artifact.NewDirWriter(out.dir)))
	}

	if _, err := dissect.New(l, opts...).Run(img); err != nil {
		return errors.Wrapf(err, "dissect %s (%s)", path, dissect.KindOf(err))
	}
	return nil
}

// closeInto closes c and stores its error in err unless err is already set.
func closeInto(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = errors.Wrap(cerr, "close dump")
	}
}

func listLayouts(c *cli.Context) error {
	registry, err := loadRegistry(c.GlobalString("layouts"))
	if err != nil {
		return err
	}
	return printLayouts(os.Stdout, registry)
}

func loadRegistry(path string) (*layout.Registry, error) {
	registry := layout.NewRegistry()
	if path == "" {
		return registry, nil
	}
	if err := registry.Load(path); err != nil {
		return nil, err
	}
	return registry, nil
}

// output is the resolved artifact destination of a dissect_dump run.
type output struct {
	dir     string
	extract bool

	// implied is set when extract was switched on by a non-default directory
	implied bool
}

// resolveOutput applies the output directory rules: an empty dir means the
// working directory, and any other directory implies extraction.
func resolveOutput(dir, cwd string, extract bool) output {
	if dir == "" {
		return output{dir: cwd, extract: extract}
	}

	out := output{dir: dir, extract: extract}
	if filepath.Clean(dir) != filepath.Clean(cwd) && !extract {
		out.extract = true
		out.implied = true
	}
	return out
}

func printLayouts(w io.Writer, registry *layout.Registry) error {
	for _, name := range registry.Names() {
		l, err := registry.Get(name)
		if err != nil {
			return err
		}
		if name == layout.DefaultLayout {
			fmt.Fprintf(w, "%s (default)\n", name)
		} else {
			fmt.Fprintln(w, name)
		}
		for _, p := range l.Partitions() {
			kind := "data"
			if p.Code {
				kind = "code"
			}
			fmt.Fprintf(w, "\t%-12s 0x%06x-0x%06x  %-9s mapped 0x%06x  %s\n",
				p.Name, p.StartAddress, p.End(), humanize.IBytes(uint64(p.Size)), p.MappedAddress, kind)
		}
	}
	return nil
}
