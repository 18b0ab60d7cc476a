package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

// GlobalOptions hold all global options for pagecache.
type GlobalOptions struct {
	ConfigFile string
	CacheDir   string
	Verbose    bool
}

var globalOptions GlobalOptions

// cmdRoot is the base command when no other command has been specified.
var cmdRoot = &cobra.Command{
	Use:   "pagecache",
	Short: "Compute and maintain page indexes of books",
	Long: `
pagecache computes the page index of text books in the background engine and
maintains the page index files it stores in the cache directory.

Format parameters are read from a YAML config file (--config, ./pagecache.yaml
or $HOME/.pagecache/pagecache.yaml) and PAGECACHE_* environment variables.
`,
	Version:           version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if globalOptions.Verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		os.Exit(0)
	},
}

func init() {
	f := cmdRoot.PersistentFlags()
	f.StringVar(&globalOptions.ConfigFile, "config", "", "read format parameters from config `file`")
	f.StringVar(&globalOptions.CacheDir, "cache-dir", "", "set the cache `directory` (default: $PAGECACHE_DIR or the user cache directory)")
	f.BoolVarP(&globalOptions.Verbose, "verbose", "v", false, "log debug messages")
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmdRoot.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
