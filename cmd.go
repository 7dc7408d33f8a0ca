package oncodrivefm

import (
	"flag"
	"fmt"
	"io"
	"os"

	"git.arvados.org/arvados.git/lib/cmd"
	"github.com/bbglab/oncodrivefm/signif"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	handler = cmd.Multi(map[string]cmd.Handler{
		"version":   cmd.Version,
		"-version":  cmd.Version,
		"--version": cmd.Version,

		"compute": &computer{},
		"combine": &combiner{},
		"methods": &listMethods{},
	})
)

func Main() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		logrus.StandardLogger().Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	}
	os.Exit(handler.RunCommand(os.Args[0], os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type listMethods struct{}

func (cmd *listMethods) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	err := flags.Parse(args)
	if err == flag.ErrHelp {
		return 0
	} else if err != nil {
		return 2
	}
	for _, name := range signif.MethodNames() {
		fmt.Fprintln(stdout, name)
	}
	return 0
}
