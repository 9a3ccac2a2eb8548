// Command min12xxw is a filter that turns a raw PBM raster on stdin
// into the Minolta PagePro 1200W/1250W/1300W/1350W/1400W command
// stream on stdout, or (with -s) queries a device's status directly.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/schillm/min12xxw/min12xxwerr"
	"github.com/schillm/min12xxw/page"
	"github.com/schillm/min12xxw/spool"
)

func main() {
	fs := flag.NewFlagSet("min12xxw", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	o, err := parseArgs(fs, os.Args[1:], os.Args[0])
	if err != nil {
		// flag.ContinueOnError already printed its own message.
		os.Exit(1)
	}

	if o.help {
		printUsage(os.Stdout)
		return
	}
	if o.showVersion {
		fmt.Println(version)
		return
	}

	cfg := resolve(o)
	for _, w := range cfg.warnings {
		if cfgErr, ok := w.(*configLookupError); ok {
			fmt.Fprintf(os.Stderr, "min12xxw: %v\n", &min12xxwerr.ConfigError{Option: cfgErr.option, Value: cfgErr.value})
		}
	}

	if o.status {
		if err := runStatus(cfg.device, cfg.pageCfg.Model); err != nil {
			fmt.Fprintf(os.Stderr, "min12xxw: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := spool.Run(os.Stdout, func(w io.Writer) error {
		return page.RunJob(w, os.Stdin, cfg.pageCfg)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "min12xxw: %v\n", err)
		os.Exit(1)
	}
}
