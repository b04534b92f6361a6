package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
)

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func defaultStreams() streams {
	return streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

// Run parses args, executes the selected sub-command and returns the process
// exit code.
func Run(args []string, s streams) int {
	return run(args, s, openClient)
}

func run(args []string, s streams, newClient clientFactory) int {
	a := newApp(s, newClient)
	defer a.close()

	opts := &Options{}
	opts.Init(a)

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "anco"
	if _, err := parser.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(s.out, ferr.Message)
			return 0
		}
		fmt.Fprintf(s.err, "anco: %v\n", err)
		return 1
	}
	return 0
}
