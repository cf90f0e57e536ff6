package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/covault/covault/client"
	"github.com/covault/covault/internal/config"
	"github.com/covault/covault/internal/domain"
	"github.com/covault/covault/internal/infra/database"
	"github.com/covault/covault/internal/infra/gateway"
	"github.com/covault/covault/internal/infra/repository"
	"github.com/covault/covault/internal/logging"
	"github.com/covault/covault/internal/present/rest"
	"github.com/covault/covault/internal/present/rest/middleware"
	"github.com/covault/covault/internal/retry"
	"github.com/covault/covault/internal/service"
	"github.com/covault/covault/internal/telemetry"
	"github.com/covault/covault/internal/usecase"
)

func main() {
	configPath := flag.String("config", "/etc/covault/config.yaml", "path to the configuration file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load the configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.SetDefault(logging.New(conf.Logging))

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("Failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = database.MigratePostgres(db)
	if err != nil {
		slog.Error("Failed to migrate the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	if conf.Server.EnableTrace {
		shutdown, err := telemetry.Setup(conf.Server.TraceEndpoint, "covaultd")
		if err != nil {
			slog.Error("Failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer shutdown()
	}

	domainConf := domain.Config{
		FQDN:       conf.Service.FQDN,
		ServiceID:  conf.Service.ServiceID,
		PrivateKey: conf.Service.PrivateKey,
		Directory:  conf.Service.Directory,
	}

	walletRepo := repository.NewWalletRepository(db)
	vaultRepo := repository.NewVaultRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	directoryClient := client.New(conf.Service.Directory)
	directoryGateway := gateway.NewDirectoryGateway(directoryClient)
	notifier := gateway.NewNotificationGateway(rdb)

	signalService := service.NewSignalService(rdb)
	snapshotService := service.NewSnapshotService(mc)
	authService := service.NewAuthService(&domainConf)

	var retryOpts []retry.Option
	if conf.Custody.RetryAttempts > 0 {
		retryOpts = append(retryOpts, retry.WithAttempts(conf.Custody.RetryAttempts))
	}

	walletUC := usecase.NewWalletUsecase(
		walletRepo, vaultRepo, activityRepo, directoryGateway,
		signalService, snapshotService, conf.Custody.DefaultMaxMembers,
	)
	membershipUC := usecase.NewMembershipUsecase(
		walletRepo, directoryGateway, notifier, signalService, snapshotService, retryOpts...,
	)
	settingsUC := usecase.NewSettingsUsecase(walletRepo, signalService, snapshotService, retryOpts...)
	transferUC := usecase.NewTransferUsecase(walletRepo, signalService, snapshotService, retryOpts...)

	handler := rest.NewHandler(domainConf, walletUC, membershipUC, settingsUC, transferUC, signalService)
	auth := middleware.NewAuthMiddleware(authService, domainConf)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(conf.Service.FQDN))
	}
	e.Use(auth.IdentifyIdentity)

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.ListenAddr))
}
