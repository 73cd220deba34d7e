package main

import (
	"github.com/spf13/cobra"

	"github.com/SNeC-Lab-PSU/LLMER/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "llmer",
		Short:         "llmer drives a 3D scene from language-model commands",
		Long:          `llmer forwards user requests with scene context to a backend and applies the commands it streams back: construction, animation, recognition and speech.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// Persistent flags (available to all commands)
	root.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	root.PersistentFlags().String("backend", "", "Backend address, overrides the configuration")

	root.AddCommand(newRunCmd(), newConfigCmd(), newVersionCmd())
	return root
}

// loadConfig resolves the effective configuration for cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Backend.Address = backend
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}
