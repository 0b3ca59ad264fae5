package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vintageshock/bridge/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return app.Run(ctx, app.Config{Viper: viper.GetViper()})
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (overrides listen_addr)")
	viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("listen"))
}
