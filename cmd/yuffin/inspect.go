package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
)

var inspectDigest bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file|url>",
	Short: "Show the format and index summary of a container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, closer, err := openContainer(ctx, args[0])
		if err != nil {
			return err
		}
		defer closer.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Format:  %s\n", c.Format)

		var src io.ReaderAt
		var size int64
		switch {
		case c.Media != nil:
			src, size = c.Media.Source(), c.Media.Source().Size()
			counts := make(map[string]int)
			var total uint64
			for _, a := range c.Media.Assets() {
				counts[a.Kind.String()]++
				total += a.Size
			}
			fmt.Fprintf(out, "Size:    %s\n", humanize.IBytes(uint64(size)))
			fmt.Fprintf(out, "Assets:  %d (%s)\n", c.Media.Len(), humanize.IBytes(total))
			for _, k := range []string{"video", "audio", "archive", "unsupported"} {
				if counts[k] > 0 {
					fmt.Fprintf(out, "  %-12s %d\n", k, counts[k])
				}
			}
		case c.Images != nil:
			src, size = c.Images.Source(), c.Images.Source().Size()
			h := c.Images.Header()
			fmt.Fprintf(out, "Size:        %s\n", humanize.IBytes(uint64(size)))
			fmt.Fprintf(out, "Images:      %d\n", h.ImageCount)
			fmt.Fprintf(out, "Directories: %d\n", h.DirectoryCount)
			fmt.Fprintf(out, "Chapters:    %d\n", len(c.Images.Chapters()))
		}

		if inspectDigest {
			d, err := digest.FromReader(io.NewSectionReader(src, 0, size))
			if err != nil {
				return fmt.Errorf("digest: %w", err)
			}
			fmt.Fprintf(out, "Digest:  %s\n", d)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectDigest, "digest", false, "compute the sha256 digest of the whole source")
}
