package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docchat/ui"
	"docchat/web/format"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const replHelp = `Commands:
  /search <query>  search the model list
  /model <id>      select a model
  /refresh         reload the model list
  /close           close the document and exit
  /quit            exit, keeping the document on the server
Anything else is sent as a question.
`

func newChatCmd() *cobra.Command {
	var (
		model      string
		html       bool
		renderer   string
		fuzzyMatch bool
	)

	cmd := &cobra.Command{
		Use:   "chat <file>",
		Short: "Upload a document and ask questions about it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)

			render, err := format.Lookup(renderer)
			if err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			view := NewTerminalView(cmd.OutOrStdout(), in, html, app.Logger)
			c := ui.NewController(app.Client, view,
				ui.WithRenderer(render),
				ui.WithLogger(app.Logger),
				ui.WithFuzzySearch(fuzzyMatch))
			defer c.Close()

			bus := ui.NewBus()
			c.Register(bus)
			ctx := cmd.Context()

			// A failed model load is shown as a notice; chatting can still
			// proceed with --model.
			_ = bus.Dispatch(ctx, ui.Event{Kind: ui.EventRefreshModels})
			if model != "" {
				if err := bus.Dispatch(ctx, ui.Event{Kind: ui.EventSelectModel, Text: model}); err != nil {
					return err
				}
			}

			if err := uploadFile(ctx, bus, args[0]); err != nil {
				return err
			}

			return runREPL(ctx, cmd.OutOrStdout(), in, bus, c, app.Logger)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model id to use (default: "+ui.DefaultModelID+")")
	cmd.Flags().BoolVar(&html, "html", false, "print answers as HTML instead of rendering them")
	cmd.Flags().StringVar(&renderer, "renderer", format.RendererDialect,
		"answer renderer for --html: "+strings.Join(format.RendererNames(), ", "))
	cmd.Flags().BoolVar(&fuzzyMatch, "fuzzy", false, "rank model search results by fuzzy score")
	return cmd
}

func uploadFile(ctx context.Context, bus *ui.Bus, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return bus.Dispatch(ctx, ui.Event{
		Kind: ui.EventFileSelected,
		Name: filepath.Base(path),
		File: f,
	})
}

func runREPL(ctx context.Context, out io.Writer, in *bufio.Reader, bus *ui.Bus, c *ui.Controller, logger *zap.Logger) error {
	for {
		fmt.Fprint(out, "> ")
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		var ev ui.Event
		switch cmd {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprint(out, replHelp)
			continue
		case "/search":
			ev = ui.Event{Kind: ui.EventSearchInput, Text: arg}
		case "/model":
			ev = ui.Event{Kind: ui.EventSelectModel, Text: arg}
		case "/refresh":
			ev = ui.Event{Kind: ui.EventRefreshModels}
		case "/close":
			_ = bus.Dispatch(ctx, ui.Event{Kind: ui.EventCloseDocument})
			if !c.Session().HasDocument() {
				return nil
			}
			continue
		default:
			ev = ui.Event{Kind: ui.EventSendMessage, Text: line}
		}

		// Failures were already shown by the view.
		if err := bus.Dispatch(ctx, ev); err != nil {
			logger.Debug("Event failed", zap.Stringer("event", ev.Kind), zap.Error(err))
		}
	}
}
