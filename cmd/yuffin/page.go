package main

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/zbirow/yuffin/images"
	"github.com/zbirow/yuffin/view"
	"github.com/zbirow/yuffin/viewer"
)

var (
	pageNested   int
	pageDir      int
	pageNumber   int
	pageChapters bool
	pageChapter  int
)

var pageCmd = &cobra.Command{
	Use:   "page <file|url>",
	Short: "Render one grid page or chapter of an image archive",
	Long: `page loads the images of one grid page, or of one whole chapter with
--chapters, and prints their decoded format and dimensions.

Images are loaded concurrently, bounded by --concurrency.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, closer, err := openContainer(ctx, args[0])
		if err != nil {
			return err
		}
		defer closer.Close()

		idx, err := archiveFor(ctx, c, pageNested)
		if err != nil {
			return err
		}

		g := viewer.NewGallery(idx,
			viewer.WithPageSize(cfg.PageSize),
			viewer.WithConcurrency(cfg.Concurrency),
			viewer.WithLogger(slog.Default()))
		defer g.Close()

		st := g.State()
		if err := st.SetFilter(pageDir); err != nil {
			return fmt.Errorf("--dir %d: %w", pageDir, err)
		}
		if pageChapters || pageChapter > 0 {
			st.SetMode(view.ModeChapter)
		}
		if pageChapter > 0 {
			chapters := st.Chapters()
			if pageChapter > len(chapters) {
				return fmt.Errorf("--chapter %d: archive has %d chapters", pageChapter, len(chapters))
			}
			if err := st.SetFilter(int(chapters[pageChapter-1].ID)); err != nil {
				return err
			}
		}
		st.SetPage(pageNumber)

		tiles, err := g.Render(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if ch, ok := st.CurrentChapter(); ok && st.Mode() == view.ModeChapter {
			fmt.Fprintf(out, "Chapter %d/%d: %s\n", ch.Position+1, len(st.Chapters()), ch.Label())
		} else {
			fmt.Fprintf(out, "Page %d/%d\n", st.Page(), st.PageCount())
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "POS\tINDEX\tDIRECTORY\tFORMAT\tSIZE\tHANDLE")
		failed := 0
		for _, t := range tiles {
			dir := idx.DirectoryLabel(t.DirectoryID)
			if t.Err != nil {
				failed++
				fmt.Fprintf(w, "%d\t%d\t%s\t-\t-\t%s\n", t.Position, t.GlobalIndex, dir, tileStatus(t.Err))
				continue
			}
			fmt.Fprintf(w, "%d\t%d\t%s\t%s %dx%d\t%s\t%s\n",
				t.Position, t.GlobalIndex, dir,
				t.Info.Format, t.Info.Width, t.Info.Height,
				humanize.IBytes(uint64(t.Handle.Content().Size)), //nolint:gosec // sizes are non-negative
				t.Handle.URL())
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if failed > 0 {
			slog.Warn("some images could not be displayed", "failed", failed, "tiles", len(tiles))
		}
		return nil
	},
}

func tileStatus(err error) string {
	switch {
	case errors.Is(err, images.ErrTruncatedAsset):
		return "truncated"
	case errors.Is(err, images.ErrUnsupportedAsset):
		return "unsupported"
	case errors.Is(err, images.ErrSizeOverflow):
		return "too large"
	default:
		return err.Error()
	}
}

func init() {
	pageCmd.Flags().IntVar(&pageNested, "nested", -1, "asset id of a nested image archive")
	pageCmd.Flags().IntVar(&pageDir, "dir", view.AllDirectories, "directory id filter (-1 for all)")
	pageCmd.Flags().IntVar(&pageNumber, "page", 1, "grid page number")
	pageCmd.Flags().BoolVar(&pageChapters, "chapters", false, "show the whole current chapter")
	pageCmd.Flags().IntVar(&pageChapter, "chapter", 0, "chapter number in natural order (implies --chapters)")
}
