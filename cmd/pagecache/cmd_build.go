package main

import (
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skyline93/pagemap/internal/cache"
	"github.com/skyline93/pagemap/internal/page"
	"github.com/skyline93/pagemap/internal/pagination"
	"github.com/skyline93/pagemap/internal/textbook"
)

var cmdBuild = &cobra.Command{
	Use:   "build [flags] --book DIR",
	Short: "Compute the page index of a book",
	Long: `
The "build" command computes the page index of a book, a directory of text
files with one file per section. An index stored in the cache directory for
the same format parameters is reused.

With --watch the command keeps running and computes the index again whenever
the format parameters in the config file change.

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
		return runBuild(cmd.Context(), buildOptions, cm, cmd.OutOrStdout())
	},
}

// BuildOptions bundles all options for the build command.
type BuildOptions struct {
	Book  string
	First int
	Pages bool
	Watch bool
}

var buildOptions BuildOptions

func init() {
	cmdRoot.AddCommand(cmdBuild)

	f := cmdBuild.Flags()
	f.StringVar(&buildOptions.Book, "book", "", "book `directory`")
	f.IntVar(&buildOptions.First, "first", 0, "retrieve `section` first")
	f.BoolVar(&buildOptions.Pages, "pages", false, "list all displayable pages")
	f.BoolVar(&buildOptions.Watch, "watch", false, "recompute when the config file changes")
}

func runBuild(ctx context.Context, opts BuildOptions, cm *configManager, out io.Writer) error {
	if opts.Book == "" {
		return fmt.Errorf("no book directory given, use --book")
	}

	cfg := cm.Get()
	params, err := cfg.Format.Params()
	if err != nil {
		return err
	}

	b, err := textbook.Open(opts.Book, params)
	if err != nil {
		return err
	}

	store, err := cache.New(cfg.CacheDir)
	if err != nil {
		return err
	}

	popts := pagination.NewOptions()
	popts.Store = store
	popts.RequestTimeout = cfg.RequestTimeout
	popts.Logger = log.StandardLogger()

	svc, err := pagination.New(textbook.NewPaginator(b, log.WithField("book", b.ID())), popts)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.WithError(err).Warn("closing pagination service failed")
		}
	}()

	if err := build(ctx, svc, b, opts, out); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	if cm.ConfigFile() == "" {
		return fmt.Errorf("--watch needs a config file")
	}

	changes := make(chan Config, 1)
	cm.OnChange(func(cfg Config) {
		// only the latest configuration matters
		select {
		case <-changes:
		default:
		}
		changes <- cfg
	})
	cm.Watch()
	log.WithField("file", cm.ConfigFile()).Info("watching config file")

	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-changes:
			params, err := cfg.Format.Params()
			if err != nil {
				log.WithError(err).Warn("ignoring invalid format parameters")
				continue
			}
			if params == b.FormatParams() {
				continue
			}

			b = b.WithParams(params)
			if err := build(ctx, svc, b, opts, out); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func build(ctx context.Context, svc *pagination.Service, b *textbook.Book, opts BuildOptions, out io.Writer) error {
	start := time.Now()

	if err := svc.StartDocument(ctx, b, opts.First); err != nil {
		return err
	}
	if err := svc.Wait(ctx); err != nil {
		return err
	}

	st, err := svc.Status(ctx)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "%v: %d pages, %d sections (%d failed), %v\n",
		b.ID(), st.Pages, st.Sections, st.Failed, time.Since(start).Round(time.Millisecond))

	if opts.Pages {
		return listPages(ctx, svc, out)
	}
	return nil
}

// listPages walks the pages forward from the first one until it wraps around.
func listPages(ctx context.Context, svc *pagination.Service, out io.Writer) error {
	info, ok, err := svc.Lookup(ctx, page.First)
	if err != nil {
		return err
	}
	if ok && info.Displayable() {
		_, _ = fmt.Fprintf(out, "%6d  %-12v %6d\n", info.Number+1, page.First, info.Size)
	}

	id := page.First
	for {
		next, ok, err := svc.NextPageID(ctx, id, 1)
		if err != nil {
			return err
		}
		if !ok || next == page.First {
			return nil
		}

		info, _, err := svc.Lookup(ctx, next)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%6d  %-12v %6d\n", info.Number+1, next, info.Size)
		id = next
	}
}

