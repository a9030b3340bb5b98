package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	catAsset  int
	catImage  int
	catNested int
)

var catCmd = &cobra.Command{
	Use:   "cat <file|url>",
	Short: "Write one asset or image to stdout",
	Long: `cat copies the bytes of one media asset (--asset) or one image
(--image, by global index) to stdout. Use --nested to pick an image from an
image archive embedded in a media container.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (catAsset < 0) == (catImage < 0) {
			return errors.New("exactly one of --asset or --image is required")
		}
		ctx := cmd.Context()
		c, closer, err := openContainer(ctx, args[0])
		if err != nil {
			return err
		}
		defer closer.Close()

		var r io.Reader
		if catAsset >= 0 {
			if c.Media == nil {
				return errors.New("--asset applies to media containers only")
			}
			asset, err := lookupAsset(c.Media, catAsset)
			if err != nil {
				return err
			}
			sr, err := c.Media.Section(asset)
			if err != nil {
				return err
			}
			r = sr
		} else {
			idx, err := archiveFor(ctx, c, catNested)
			if err != nil {
				return err
			}
			img, ok := idx.Image(catImage)
			if !ok {
				return fmt.Errorf("image %d: not found", catImage)
			}
			sr, _, err := idx.Section(ctx, img)
			if err != nil {
				return err
			}
			r = sr
		}

		_, err = io.Copy(cmd.OutOrStdout(), r)
		return err
	},
}

func init() {
	catCmd.Flags().IntVar(&catAsset, "asset", -1, "media asset id")
	catCmd.Flags().IntVar(&catImage, "image", -1, "image global index")
	catCmd.Flags().IntVar(&catNested, "nested", -1, "asset id of a nested image archive")
}
