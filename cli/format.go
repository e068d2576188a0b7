package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"docchat/web/format"

	"github.com/spf13/cobra"
)

func newFormatCmd() *cobra.Command {
	var (
		renderer string
		sanitize bool
	)

	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Render answer-style markdown from a file or stdin as HTML",
		Args:  cobra.MaximumNArgs(1),
		// Formatting is local and needs no server connection.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			render, err := format.Lookup(renderer)
			if err != nil {
				return err
			}

			var src io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}

			data, err := io.ReadAll(src)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			html := render(strings.ReplaceAll(string(data), "\r\n", "\n"))
			if sanitize {
				html = format.Sanitize(html)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), html)
			return err
		},
	}

	cmd.Flags().StringVar(&renderer, "renderer", format.RendererDialect,
		"renderer: "+strings.Join(format.RendererNames(), ", "))
	cmd.Flags().BoolVar(&sanitize, "sanitize", false, "strip unsafe HTML from the output")
	return cmd
}
