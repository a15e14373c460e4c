package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/board/logging"
	"github.com/grovetools/board/pkg/board"
	"github.com/grovetools/board/pkg/models"
	"github.com/grovetools/board/tui/boardview"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewWatchCmd returns the live board command.
func NewWatchCmd() *cobra.Command {
	var (
		plain          bool
		reconnectDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the live listings board",
		Long: "Open the listings board and keep it current as new listings are created. " +
			"Falls back to line output when stdout is not a terminal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, logger, err := storeClient(cmd, "board-watch")
			if err != nil {
				return err
			}
			defer client.Close()

			delay := cfg.ReconnectDelay()
			if cmd.Flags().Changed("reconnect-delay") {
				delay = reconnectDelay
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if plain || !isatty.IsTerminal(os.Stdout.Fd()) {
				b := board.New(client, logger)
				defer b.Deactivate()
				return watchPlain(ctx, b, cmd.OutOrStdout(), delay, logger)
			}

			// Log lines would tear the alternate screen; the file sink stays.
			restore := logging.RedirectTerminal(io.Discard)
			defer restore()
			b := board.New(client, logger)
			defer b.Deactivate()

			p := tea.NewProgram(boardview.New(ctx, b, delay), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil && ctx.Err() == nil {
				return fmt.Errorf("error running board: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print changes as lines instead of the interactive board")
	cmd.Flags().DurationVar(&reconnectDelay, "reconnect-delay", 0, "Delay before reopening a dropped channel (0 disables)")

	return cmd
}

// watchPlain prints the snapshot and then every pushed listing until ctx ends.
func watchPlain(ctx context.Context, b *board.Board, out io.Writer, delay time.Duration, logger *logrus.Entry) error {
	changes := b.View().Subscribe()
	defer b.View().Unsubscribe(changes)

	if err := b.Activate(ctx); err != nil {
		logger.WithError(err).Warn("Board activated with errors")
	}

	p := newChangePrinter(out, b.View())
	for {
		var closed <-chan struct{}
		if s := b.Synchronizer(); s != nil {
			closed = s.Done()
		}

		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			p.print(change)
		case <-closed:
			if delay <= 0 {
				fmt.Fprintln(out, "channel closed")
				return b.Synchronizer().Err()
			}
			fmt.Fprintf(out, "channel closed, reconnecting in %s\n", delay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			if err := b.Reconnect(ctx); err != nil {
				logger.WithError(err).Warn("Reconnect failed")
			}
		}
	}
}

// changePrinter turns view changes into lines. Inserts are printed from the
// view itself, so listings whose change was dropped still show up.
type changePrinter struct {
	out     io.Writer
	view    *board.View
	printed map[int64]struct{}
}

func newChangePrinter(out io.Writer, view *board.View) *changePrinter {
	return &changePrinter{out: out, view: view, printed: make(map[int64]struct{})}
}

func (p *changePrinter) print(change board.Change) {
	switch change.Type {
	case board.ChangeSnapshot:
		items := p.view.Items()
		fmt.Fprintf(p.out, "%d listings\n", len(items))
		for _, item := range items {
			p.printed[item.ID] = struct{}{}
			fmt.Fprintln(p.out, formatItem(item))
		}
	case board.ChangeInsert:
		var fresh []models.Item
		for _, item := range p.view.Items() {
			if _, done := p.printed[item.ID]; !done {
				fresh = append(fresh, item)
			}
		}
		// Items are newest first; print in arrival order.
		for i := len(fresh) - 1; i >= 0; i-- {
			p.printed[fresh[i].ID] = struct{}{}
			fmt.Fprintf(p.out, "+ %s\n", formatItem(fresh[i]))
		}
	}
}

func formatItem(item models.Item) string {
	return fmt.Sprintf("#%d  %s  %s  %s", item.ID, item.Title, item.FormatPrice(), item.Description)
}
