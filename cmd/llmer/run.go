package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SNeC-Lab-PSU/LLMER/internal/app"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the backend and run the scene loop",
		Long:  `Starts the tick loop, keeps a backend connection open and reads one user request per line from stdin until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if listen, _ := cmd.Flags().GetString("listen"); cmd.Flags().Changed("listen") {
				cfg.Observability.ListenAddr = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, app.Config{
				Runtime: cfg,
				Input:   cmd.InOrStdin(),
				Output:  cmd.OutOrStdout(),
			})
		},
	}
	cmd.Flags().String("listen", "", "Status server address; empty disables it")
	return cmd
}
