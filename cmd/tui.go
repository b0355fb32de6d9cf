package main

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Vasu1712/sceneitem-widget/internal/logging"
	"github.com/Vasu1712/sceneitem-widget/internal/obs"
	"github.com/Vasu1712/sceneitem-widget/internal/props"
	"github.com/Vasu1712/sceneitem-widget/internal/tui"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Show the widget as a terminal tile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts, logFile)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs here instead of discarding them")
	return cmd
}

func runTUI(ctx context.Context, opts *rootOptions, logFile string) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	// Log lines would tear the tile.
	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := tea.LogToFile(logFile, "sceneitem")
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	logging.SetOutput(out)
	defer logging.SetOutput(nil)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, closeStore, err := openProps(ctx, cfg.Props)
	if err != nil {
		return err
	}
	defer closeStore()

	session, err := dialOBS(ctx, cfg.OBS, true)
	if err != nil {
		return err
	}
	go session.Run(ctx)

	var (
		program *tea.Program
		actions tui.Actions
	)
	sink := tui.NewSink(programSender{&program})
	w, err := newWidget(cfg, obs.NewClient(session), store, sink)
	if err != nil {
		return err
	}

	logger := logging.NewLogger("tui")
	actions.Refresh = w.Refresh
	actions.Cycle = func(step int) {
		go func() {
			current, err := store.Get(ctx, w.InstanceID(), props.SceneItem)
			if err != nil {
				logger.WithError(err).Warn("Failed to read selection")
				return
			}
			next := tui.Next(w.Directory().Keys(), current, step)
			if err := store.Set(ctx, w.InstanceID(), props.SceneItem, next); err != nil {
				logger.WithError(err).Warn("Failed to store selection")
			}
		}()
	}

	program = tea.NewProgram(tui.NewModel(actions), tea.WithContext(ctx))
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.WithError(err).Error("Widget stopped")
			program.Quit()
		}
	}()

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// programSender lets the sink be built before the program it feeds.
type programSender struct {
	program **tea.Program
}

func (s programSender) Send(msg tea.Msg) {
	if p := *s.program; p != nil {
		p.Send(msg)
	}
}
