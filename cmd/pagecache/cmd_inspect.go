package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skyline93/pagemap/internal/cache"
	"github.com/skyline93/pagemap/internal/fs"
	"github.com/skyline93/pagemap/internal/index"
	"github.com/skyline93/pagemap/internal/page"
	"github.com/skyline93/pagemap/internal/textbook"
)

var cmdInspect = &cobra.Command{
	Use:   "inspect [flags] [FILE] ...",
	Short: "Print the contents of page index files",
	Long: `
The "inspect" command decodes page index files and prints the format
parameters they were computed with. With --book the file stored in the cache
directory for that book is inspected.

EXIT STATUS
===========

Exit status is 0 if all files could be decoded, and non-zero otherwise.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		files := args
		if inspectOptions.Book != "" {
			cm, err := newConfigManager(globalOptions.ConfigFile, cmd.Flags())
			if err != nil {
				return err
			}
			name, err := cacheFilename(cm.Get(), inspectOptions.Book)
			if err != nil {
				return err
			}
			files = append(files, name)
		}
		if len(files) == 0 {
			return errors.New("no files given")
		}
		return runInspect(files, inspectOptions, cmd.OutOrStdout())
	},
}

// InspectOptions bundles all options for the inspect command.
type InspectOptions struct {
	Book    string
	Entries bool
}

var inspectOptions InspectOptions

func init() {
	cmdRoot.AddCommand(cmdInspect)

	f := cmdInspect.Flags()
	f.StringVar(&inspectOptions.Book, "book", "", "inspect the cached index of the book in `directory`")
	f.BoolVar(&inspectOptions.Entries, "entries", false, "print all entries")
}

func cacheFilename(cfg Config, dir string) (string, error) {
	b, err := textbook.Open(dir, page.Params{})
	if err != nil {
		return "", err
	}
	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		return "", err
	}
	return c.Filename(page.NewBookID(b.ID())), nil
}

func runInspect(files []string, opts InspectOptions, out io.Writer) error {
	var failed int
	for _, name := range files {
		if err := inspectFile(name, opts, out); err != nil {
			_, _ = fmt.Fprintf(out, "%v: %v\n", name, err)
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d files could not be decoded", failed, len(files))
	}
	return nil
}

func inspectFile(name string, opts InspectOptions, out io.Writer) error {
	f, err := fs.Open(name)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	idx, sig, err := index.Read(f)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "%v\n", name)
	_, _ = fmt.Fprintf(out, "  version      %d\n", index.Version)
	_, _ = fmt.Fprintf(out, "  device       %d\n", sig.DeviceID)
	_, _ = fmt.Fprintf(out, "  orientation  %v\n", sig.Orientation)
	_, _ = fmt.Fprintf(out, "  font         size %d, id %016x, custom %v\n", sig.FontSize, sig.FontID, sig.CustomFonts)
	_, _ = fmt.Fprintf(out, "  title        %v\n", sig.ShowTitle)
	_, _ = fmt.Fprintf(out, "  images       %v\n", sig.ShowImages)
	_, _ = fmt.Fprintf(out, "  sections     %d\n", len(idx.Sections()))
	_, _ = fmt.Fprintf(out, "  entries      %d\n", idx.Len())
	_, _ = fmt.Fprintf(out, "  pages        %d\n", idx.PageCount())

	if !opts.Entries {
		return nil
	}

	idx.Each(func(id page.ID, info page.Info) bool {
		number := "-"
		if info.Displayable() {
			number = fmt.Sprint(info.Number + 1)
		}
		_, _ = fmt.Fprintf(out, "  %6s  %-12v %6d\n", number, id, info.Size)
		return true
	})
	return nil
}
