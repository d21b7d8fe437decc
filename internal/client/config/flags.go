package config

import (
	"flag"
	"os"
	"time"

	"inkpad/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server (default from Config)
//	-i int      online check interval in seconds (default from Config)
//	-q int      save quiet period in milliseconds (default from Config)
//	-d string   sqlite DSN of the local cache
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-q", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	quietPeriod := fs.Int("q", int(cfg.QuietPeriod.Milliseconds()), "save quiet period (in milliseconds)")
	fs.StringVar(&cfg.CacheDSN, "d", cfg.CacheDSN, "local cache sqlite DSN")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.QuietPeriod = time.Duration(*quietPeriod) * time.Millisecond
}
