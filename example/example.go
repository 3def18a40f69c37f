// Command example lists the BUFR messages of a file.
//
//	example [--sections] [--keep-going] [--trace] <file>...
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/sdifrance/gobufr/bufrio"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	sections  bool
	keepGoing bool
	trace     bool

	rootCmd = &cobra.Command{
		Use:   "example <file>...",
		Short: "List BUFR messages",
		Long:  "example scans files for BUFR messages and prints their heading, offset and size.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := run(cmd.Context(), cmd.OutOrStdout(), path); err != nil {
					return err
				}
			}
			return nil
		},
	}
)

func init() {
	rootCmd.Flags().BoolVar(&sections, "sections", false, "split every message and print its section summary")
	rootCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "skip messages with a bad end marker instead of stopping")
	rootCmd.Flags().BoolVar(&trace, "trace", false, "print scanner traces to stderr")
	// glog registers its flags (-v, -logtostderr, ...) on the standard flag set.
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
}

func main() {
	defer glog.Flush()
	// Values reach glog through pflag; mark the go flag set parsed so glog
	// doesn't complain about logging before flag.Parse.
	if err := flag.CommandLine.Parse(nil); err != nil {
		glog.Exitf("error parsing flags: %v", err)
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		glog.Exitf("got fatal error: %v", err)
	}
}

func run(_ context.Context, out io.Writer, path string) error {
	var opts []bufrio.Option
	if trace {
		l := logrus.New()
		l.SetOutput(os.Stderr)
		l.SetLevel(logrus.DebugLevel)
		opts = append(opts, bufrio.WithLogger(l.WithField("file", path)))
	}
	s, err := bufrio.Open(path, opts...)
	if err != nil {
		return err
	}
	glog.Infof("scanning %s", path)

	count := 0
	for m, err := range s.All() {
		if err != nil {
			if !keepGoing {
				return errors.Wrapf(err, "error scanning %s", path)
			}
			glog.Warningf("skipping corrupt message in %s: %v", path, err)
			continue
		}
		count++
		fmt.Fprintf(out, "%s\t%s\n", path, m)
		if !sections {
			continue
		}
		sec, err := m.Sections()
		if err != nil {
			glog.Warningf("message @ byte offset %d: %v", m.Offset, err)
			continue
		}
		fmt.Fprintf(out, "\t%s\n\tdescriptors %v\n", sec, sec.DataDescription().Descriptors())
	}
	glog.Infof("%s: %d messages", path, count)
	return nil
}
