package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/vartexter/vartexter/internal/app"
	"github.com/vartexter/vartexter/internal/shortcut"
)

func newKeysCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "keys [files...]",
		Short: "Open a terminal session that triggers shortcuts",
		Long: `keys opens the given files in a terminal screen. Every key press is
translated to a shortcut and dispatched to the command bound to it. Press
Escape to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, w, closeFn, err := flags.openWindow()
			if err != nil {
				return err
			}
			defer closeFn()

			for _, path := range args {
				if _, err := w.Editor().OpenFile(path); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runKeys(ctx, application, w)
		},
	}
}

// runKeys drives a tcell screen. Key events and loop tasks are handled on
// the calling goroutine.
func runKeys(ctx context.Context, application *app.Application, w *app.Window) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()

	// PollEvent returns nil once the screen is finalized.
	events := make(chan tcell.Event, 16)
	go func() {
		defer close(events)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	status := "Press a shortcut, Escape quits"
	for {
		application.Loop().Drain()
		drawKeys(screen, w, status)

		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape {
					return nil
				}
				combo := shortcut.FromKeyEvent(ev)
				if w.HandleKey(ev) {
					status = fmt.Sprintf("%s triggered", combo)
				} else {
					status = fmt.Sprintf("%s is not bound", combo)
				}
			}
		}
	}
}

func drawKeys(screen tcell.Screen, w *app.Window, status string) {
	screen.Clear()
	width, height := screen.Size()
	style := tcell.StyleDefault

	row := 0
	if v := w.Editor().ActiveView(); v != nil {
		line := []rune(v.Text())
		col := 0
		for _, r := range line {
			if row >= height-2 {
				break
			}
			if r == '\n' || col >= width {
				row++
				col = 0
				if r == '\n' {
					continue
				}
			}
			screen.SetContent(col, row, r, nil, style)
			col++
		}
	}

	drawLine(screen, height-2, w.Editor().String(), style.Reverse(true))
	drawLine(screen, height-1, status, style)
	screen.Show()
}

func drawLine(screen tcell.Screen, row int, text string, style tcell.Style) {
	if row < 0 {
		return
	}
	width, _ := screen.Size()
	col := 0
	for _, r := range text {
		if col >= width {
			break
		}
		screen.SetContent(col, row, r, nil, style)
		col++
	}
}
