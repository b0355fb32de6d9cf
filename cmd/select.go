package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Vasu1712/sceneitem-widget/internal/config"
	"github.com/Vasu1712/sceneitem-widget/internal/itemkey"
	"github.com/Vasu1712/sceneitem-widget/internal/props"
)

func newSelectCmd(opts *rootOptions) *cobra.Command {
	var clearSelection bool

	cmd := &cobra.Command{
		Use:   "select [key]",
		Short: "Set the scene item the widget shows",
		Long: `Writes the sceneItem prop of the configured instance. Running widgets that
share the props store pick the change up immediately.

Examples:
  sceneitem select 'Scene1|CamA'
  sceneitem select --clear
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if clearSelection {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if !clearSelection {
				key = args[0]
			}
			return runSelect(cmd.Context(), opts, key)
		},
	}
	cmd.Flags().BoolVar(&clearSelection, "clear", false, "Clear the selection")
	return cmd
}

func runSelect(ctx context.Context, opts *rootOptions, key string) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if cfg.Props.Backend == config.PropsBackendMemory {
		return fmt.Errorf("props backend %q is private to one process; use %q or %q",
			cfg.Props.Backend, config.PropsBackendFile, config.PropsBackendValkey)
	}

	if key != "" {
		record, err := itemkey.Decode(key)
		if err != nil {
			return err
		}
		fmt.Printf("Selecting %s\n", record.Label())
	}

	store, closeStore, err := openProps(ctx, cfg.Props)
	if err != nil {
		return err
	}
	defer closeStore()

	return store.Set(ctx, cfg.Widget.InstanceID, props.SceneItem, key)
}
