package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/vidhub/internal/flagx"
)

// parseFlags populates cfg from -a, -s and -t. Other flags in os.Args are
// ignored.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the vidhub server")
	fs.StringVar(&cfg.SessionDB, "s", cfg.SessionDB, "path to the local session database")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
