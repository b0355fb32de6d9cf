package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Vasu1712/sceneitem-widget/internal/obs"
	"github.com/Vasu1712/sceneitem-widget/internal/storage/memory"
	"github.com/Vasu1712/sceneitem-widget/internal/widget"
)

func newItemsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List the scene items the widget can show",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItems(cmd.Context(), opts, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the props form as JSON")
	return cmd
}

func runItems(ctx context.Context, opts *rootOptions, asJSON bool) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	session, err := dialOBS(ctx, cfg.OBS, false)
	if err != nil {
		return err
	}
	defer session.Close()

	dir := memory.NewDirectory()
	if err := dir.Rebuild(ctx, obs.NewClient(session)); err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(widget.PrepareProps(dir))
	}

	snapshot := dir.Snapshot()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tLABEL")
	for _, key := range dir.Keys() {
		fmt.Fprintf(tw, "%s\t%s\n", key, snapshot[key].Label())
	}
	return tw.Flush()
}
