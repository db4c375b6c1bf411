package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/talentrank/internal/api"
	"github.com/naka-gawa/talentrank/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the analysis API over HTTP",
	Long:  `Starts the HTTP API. The server drains in-flight requests and exits on SIGINT or SIGTERM.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.Addr
		if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
			addr = flagAddr
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		a.metrics.SetQuotaRemaining(a.limiter.Remaining())
		server := api.NewServer(a.analyzer, a.logger,
			api.WithMetrics(a.metrics),
			api.WithQuotaReset(a.limiter.ResetAt),
		)
		a.logger.Info(ctx, "starting talentrank",
			logger.String("store", a.cfg.StoreDriver),
			logger.Bool("authenticated", a.cfg.Authenticated()),
			logger.Duration("cache_ttl", a.cfg.CacheTTL))
		return server.ListenAndServe(ctx, addr, 15*time.Second)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides the addr setting)")
}
