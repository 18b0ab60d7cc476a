package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skyline93/pagemap/internal/cache"
	"github.com/skyline93/pagemap/internal/page"
	"github.com/skyline93/pagemap/internal/textbook"
)

var cmdClear = &cobra.Command{
	Use:   "clear [flags] --keep DIR ...",
	Short: "Remove page index files of other books",
	Long: `
The "clear" command removes the page index files of all books from the cache
directory, except for the books given with --keep. Use --all to remove all
files.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := newConfigManager(globalOptions.ConfigFile, cmd.Flags())
		if err != nil {
			return err
		}
		return runClear(cm.Get(), clearOptions, cmd.OutOrStdout())
	},
}

// ClearOptions bundles all options for the clear command.
type ClearOptions struct {
	Keep []string
	All  bool
}

var clearOptions ClearOptions

func init() {
	cmdRoot.AddCommand(cmdClear)

	f := cmdClear.Flags()
	f.StringArrayVar(&clearOptions.Keep, "keep", nil, "keep the index of the book in `directory` (can be specified multiple times)")
	f.BoolVar(&clearOptions.All, "all", false, "remove all page index files")
}

func runClear(cfg Config, opts ClearOptions, out io.Writer) error {
	if len(opts.Keep) == 0 && !opts.All {
		return errors.New("refusing to remove all files without --all")
	}
	if len(opts.Keep) > 0 && opts.All {
		return errors.New("--keep and --all are mutually exclusive")
	}

	keep := page.NewBookIDSet()
	for _, dir := range opts.Keep {
		b, err := textbook.Open(dir, page.Params{})
		if err != nil {
			return err
		}
		keep.Insert(page.NewBookID(b.ID()))
		log.WithField("book", b.ID()).Debug("keeping page index")
	}

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		return err
	}

	removed, err := c.Clear(keep)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "removed %d page index files from %v\n", removed, cfg.CacheDir)
	return nil
}
