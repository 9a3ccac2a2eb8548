package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schillm/min12xxw/catalog"
	"github.com/schillm/min12xxw/page"
)

const version = "min12xxw 1.0"

const defaultDevice = "/dev/lp0"

// options collects everything the flag set can set, before any of it
// has been resolved against the catalog tables.
type options struct {
	help        bool
	showVersion bool
	status      bool
	ecomode     bool
	nomargins   bool
	device      string
	model       string
	res         string
	tray        string
	paperType   string
	paperFormat string
}

// config is the fully resolved result of parsing argv: a device path
// plus a page.Config ready to hand to page.RunJob. Unknown option
// values are never fatal (§6): resolve substitutes that option's
// built-in default and records a *configLookupError in warnings for
// the caller to print as a *min12xxwerr.ConfigError.
type config struct {
	device   string
	pageCfg  page.Config
	warnings []error
}

// parseArgs parses argv (normally os.Args[1:]) against fs and applies
// the basename-based model preselection from §6. The option names are
// left unresolved; resolve looks them up in the catalog tables.
func parseArgs(fs *flag.FlagSet, argv []string, progName string) (*options, error) {
	o := &options{}
	fs.BoolVar(&o.help, "h", false, "print usage and exit")
	fs.BoolVar(&o.help, "help", false, "print usage and exit")
	fs.BoolVar(&o.showVersion, "v", false, "print version and exit")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	fs.BoolVar(&o.status, "s", false, "query device status and exit")
	fs.BoolVar(&o.status, "status", false, "query device status and exit")
	fs.BoolVar(&o.ecomode, "e", false, "toner-saving ecomode")
	fs.BoolVar(&o.ecomode, "ecomode", false, "toner-saving ecomode")
	fs.BoolVar(&o.nomargins, "n", false, "disable margin enforcement")
	fs.BoolVar(&o.nomargins, "nomargins", false, "disable margin enforcement")
	fs.StringVar(&o.device, "d", defaultDevice, "device path for queries")
	fs.StringVar(&o.device, "device", defaultDevice, "device path for queries")
	fs.StringVar(&o.model, "m", "1200W", "printer model")
	fs.StringVar(&o.model, "model", "1200W", "printer model")
	fs.StringVar(&o.res, "r", "600x600", "resolution")
	fs.StringVar(&o.res, "res", "600x600", "resolution")
	fs.StringVar(&o.tray, "t", "auto", "paper tray")
	fs.StringVar(&o.tray, "tray", "auto", "paper tray")
	fs.StringVar(&o.paperType, "p", "normal", "paper type")
	fs.StringVar(&o.paperType, "papertype", "normal", "paper type")
	fs.StringVar(&o.paperFormat, "f", "a4", "paper format")
	fs.StringVar(&o.paperFormat, "paperformat", "a4", "paper format")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	modelSetExplicitly := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "m" || f.Name == "model" {
			modelSetExplicitly = true
		}
	})
	if !modelSetExplicitly {
		if id, ok := catalog.ModelByBasename(filepath.Base(progName)); ok {
			for _, e := range catalog.Models {
				if e.ID == id {
					o.model = e.Name
					break
				}
			}
		}
	}

	return o, nil
}

// resolve turns o into a config, substituting catalog defaults (and
// recording a warning) for any name that fails Lookup.
func resolve(o *options) *config {
	c := &config{device: o.device}

	model, warn := lookupOrDefault("model", o.model, catalog.Models, 0x81)
	res, warn2 := lookupOrDefault("res", o.res, catalog.Resolutions, 0x0001)
	tray, warn3 := lookupOrDefault("tray", o.tray, catalog.Trays, 0xff)
	ptype, warn4 := lookupOrDefault("papertype", o.paperType, catalog.PaperTypes, 0x00)
	pformat, warn5 := lookupOrDefault("paperformat", o.paperFormat, catalog.PaperFormats, 0x04)

	for _, w := range []error{warn, warn2, warn3, warn4, warn5} {
		if w != nil {
			c.warnings = append(c.warnings, w)
		}
	}

	c.pageCfg = page.Config{
		Model:         byte(model),
		ResCode:       res,
		PaperType:     byte(ptype),
		PaperFormat:   byte(pformat),
		Tray:          byte(tray),
		MarginsEnable: !o.nomargins,
		EcoMode:       o.ecomode,
	}
	return c
}

func lookupOrDefault(option, name string, table []catalog.Entry, def uint16) (uint16, error) {
	if id, ok := catalog.Lookup(table, name); ok {
		return id, nil
	}
	return def, &configLookupError{option: option, value: name}
}

// configLookupError adapts a failed catalog.Lookup into the
// min12xxwerr.ConfigError shape without importing min12xxwerr twice
// for a trivial wrapper; see main.go where it is reported.
type configLookupError struct {
	option string
	value  string
}

func (e *configLookupError) Error() string {
	return fmt.Sprintf("unknown %s %q, using the default", e.option, e.value)
}

func printUsage(w *os.File) {
	fmt.Fprintf(w, `min12xxw: raster filter and status tool for the Minolta PagePro
1200W/1250W/1300W/1350W/1400W family

Usage:
  min12xxw [options] < input.pbm > output
  min12xxw -s [-d device]

Options:
  -h, --help                print this message and exit
  -v, --version             print the version and exit
  -s, --status              query the device and print its status
  -e, --ecomode             toner-saving mode (blank every second scanline)
  -n, --nomargins           disable margin enforcement
  -d, --device PATH         device path for -s (default %s)
  -m, --model NAME          %s
  -r, --res NAME            %s
  -t, --tray NAME           %s
  -p, --papertype NAME      %s
  -f, --paperformat NAME    %s
`,
		defaultDevice,
		catalog.Describe(catalog.Models, 0x81),
		catalog.Describe(catalog.Resolutions, 0x0001),
		catalog.Describe(catalog.Trays, 0xff),
		catalog.Describe(catalog.PaperTypes, 0x00),
		catalog.Describe(catalog.PaperFormats, 0x04),
	)
}
