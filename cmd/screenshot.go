// File: cmd/screenshot.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// newScreenshotCmd captures the current page to an image file.
func newScreenshotCmd() *cobra.Command {
	var (
		output  string
		format  string
		quality int
	)

	shotCmd := &cobra.Command{
		Use:   "screenshot",
		Short: "Captures a screenshot of the current page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var imgFormat devtools.ImageFormat
			switch format {
			case "png":
				imgFormat = devtools.FormatPNG
			case "jpeg", "jpg":
				imgFormat = devtools.FormatJPEG
			default:
				return fmt.Errorf("unknown image format %q (want png or jpeg)", format)
			}

			return runSession(cmd, sessionOptions{}, func(ctx context.Context, client devtools.Client) error {
				shot, err := client.CaptureScreenshot(ctx, imgFormat, quality)
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, shot.Data, 0o644); err != nil {
					return fmt.Errorf("writing screenshot: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %d bytes)\n", output, shot.MIMEType, len(shot.Data))
				return nil
			})
		},
	}

	shotCmd.Flags().StringVarP(&output, "output", "o", "screenshot.png", "output file path")
	shotCmd.Flags().StringVarP(&format, "format", "f", "png", "image format: png or jpeg")
	shotCmd.Flags().IntVarP(&quality, "quality", "q", 80, "compression quality, jpeg only")
	return shotCmd
}
