package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Vasu1712/sceneitem-widget/internal/config"
	"github.com/Vasu1712/sceneitem-widget/internal/logging"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "sceneitem",
		Short:         "Scene item visibility widget for OBS",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML config file (default: "+config.DefaultConfigFile+")")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newTUICmd(opts))
	root.AddCommand(newSelectCmd(opts))
	root.AddCommand(newItemsCmd(opts))
	root.AddCommand(newTokenCmd(opts))
	return root
}

// load reads the configuration and applies its logging settings.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	logging.Configure(cfg.Logging)
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
