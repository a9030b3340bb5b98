package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/zbirow/yuffin/images"
	"github.com/zbirow/yuffin/media"
)

var (
	lsNested int
	lsImages bool
)

var lsCmd = &cobra.Command{
	Use:   "ls <file|url>",
	Short: "List media assets or image archive directories",
	Long: `ls lists the assets of a media container, or the directories of an
image archive in natural order with their chapter positions.

Use --nested to list an image archive embedded in a media container and
--images to list individual images instead of directories.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, closer, err := openContainer(ctx, args[0])
		if err != nil {
			return err
		}
		defer closer.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()

		if c.Media != nil && lsNested < 0 {
			listAssets(w, c.Media)
			return nil
		}
		idx, err := archiveFor(ctx, c, lsNested)
		if err != nil {
			return err
		}
		if lsImages {
			listImages(w, idx)
		} else {
			listDirectories(w, idx)
		}
		return nil
	},
}

func listAssets(w io.Writer, idx *media.Index) {
	fmt.Fprintln(w, "ID\tKIND\tMIME\tSIZE\tNAME")
	for _, a := range idx.Assets() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.Kind, a.MIME, humanize.IBytes(a.Size), a.Name)
	}
}

func listDirectories(w io.Writer, idx *images.Index) {
	fmt.Fprintln(w, "ID\tCHAPTER\tIMAGES\tNAME")
	for _, d := range idx.SortedDirectories() {
		chapter := "-"
		if ch, ok := idx.ChapterFor(d.ID); ok {
			chapter = fmt.Sprint(ch.Position + 1)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", d.ID, chapter, idx.Count(d.ID), d.Label())
	}
}

func listImages(w io.Writer, idx *images.Index) {
	fmt.Fprintln(w, "INDEX\tOFFSET\tDIRECTORY")
	for _, img := range idx.Images() {
		fmt.Fprintf(w, "%d\t%d\t%s\n", img.GlobalIndex, img.Offset, idx.DirectoryLabel(img.DirectoryID))
	}
}

func init() {
	lsCmd.Flags().IntVar(&lsNested, "nested", -1, "asset id of a nested image archive")
	lsCmd.Flags().BoolVar(&lsImages, "images", false, "list images instead of directories")
}
