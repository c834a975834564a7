package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	v1 "github.com/qaharness/api-test-framework/api/v1"
	"github.com/qaharness/api-test-framework/internal/handlers"
	"github.com/qaharness/api-test-framework/internal/server"
	"github.com/qaharness/api-test-framework/internal/services"
	"github.com/qaharness/api-test-framework/internal/store"
	"github.com/qaharness/api-test-framework/pkg/secret"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web utility",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "override web.host")
	serveCmd.Flags().Int("port", 0, "override web.port")
	serveCmd.Flags().String("store", "", "override web.store_path")
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := zap.S().Named("cmd")

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Web.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Web.Port = port
	}
	if path, _ := cmd.Flags().GetString("store"); path != "" {
		cfg.Web.StorePath = path
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cipher, err := secret.New(cfg.Web.AESKey, cfg.Web.AESIV)
	if err != nil {
		return err
	}

	db, err := store.NewDB(cfg.Web.StorePath)
	if err != nil {
		return err
	}

	st := store.NewStore(db, cipher)
	defer func() {
		if err := st.Close(); err != nil {
			log.Warnw("failed to close store", "error", err)
		}
	}()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	sqlSrv := services.NewSQLService(cfg, nil)
	h := handlers.New(
		services.NewEnvService(cfg),
		services.NewSSHService(cfg),
		sqlSrv,
		services.NewSavedQueryService(st, sqlSrv),
	)

	srv, err := server.NewServer(cfg.Web, func(router *gin.RouterGroup) {
		v1.RegisterHandlers(router, h)
	})
	if err != nil {
		return err
	}

	log.Infow("starting web utility", "addr", srv.Addr(), "store", cfg.Web.StorePath, "aliases", cfg.DatabaseAliases())

	return srv.Start(ctx)
}
