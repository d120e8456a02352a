package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cuaderno/database"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/cache"
	"cuaderno/pkg/clerk"
	"cuaderno/pkg/middleware"
	"cuaderno/pkg/ocr"
	"cuaderno/pkg/sigpac"
	"cuaderno/pkg/subscription"
	"cuaderno/pkg/weather"
	"cuaderno/router"

	actividadCtrlImp "cuaderno/pkg/actividad/controllerImp"
	actividadRepoImp "cuaderno/pkg/actividad/repositoryImp"
	actividadSvcImp "cuaderno/pkg/actividad/serviceImp"

	exportCtrlImp "cuaderno/pkg/export/controllerImp"
	exportRepoImp "cuaderno/pkg/export/repositoryImp"
	exportSvcImp "cuaderno/pkg/export/serviceImp"

	healthCtrlImp "cuaderno/pkg/health/controllerImp"

	ocrCtrlImp "cuaderno/pkg/ocr/controllerImp"
	ocrRepoImp "cuaderno/pkg/ocr/repositoryImp"
	ocrSvcImp "cuaderno/pkg/ocr/serviceImp"

	parcelaCtrlImp "cuaderno/pkg/parcela/controllerImp"
	parcelaRepoImp "cuaderno/pkg/parcela/repositoryImp"
	parcelaSvcImp "cuaderno/pkg/parcela/serviceImp"

	sigpacCtrlImp "cuaderno/pkg/sigpac/controllerImp"

	subCtrlImp "cuaderno/pkg/subscription/controllerImp"
	subRepoImp "cuaderno/pkg/subscription/repositoryImp"
	subSvcImp "cuaderno/pkg/subscription/serviceImp"

	syncCtrlImp "cuaderno/pkg/sync/controllerImp"
	syncRepoImp "cuaderno/pkg/sync/repositoryImp"
	syncSvcImp "cuaderno/pkg/sync/serviceImp"

	userCtrlImp "cuaderno/pkg/user/controllerImp"

	weatherCtrlImp "cuaderno/pkg/weather/controllerImp"
	weatherRepoImp "cuaderno/pkg/weather/repositoryImp"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run AutoMigrate on start")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1) config + logger
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Info("starting", zap.String("version", version), zap.Any("config", cfg.Redacted()))

	// 2) database
	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	if !skipMigrate {
		if err := database.Migrate(db, log); err != nil {
			return err
		}
	}
	postgis := database.HasPostGIS(db)

	// 3) cache (redis is optional)
	c, err := cache.New(cfg.RedisURL, log)
	if err != nil {
		return err
	}

	// 4) identity
	var tokens middleware.TokenVerifier
	if cfg.ClerkJWTKey != "" || cfg.ClerkSecretKey != "" {
		v, err := clerk.NewVerifier(clerk.VerifierConfig{
			PEMKey:            cfg.ClerkJWTKey,
			JWKSURL:           cfg.ClerkJWKSURL,
			SecretKey:         cfg.ClerkSecretKey,
			Issuer:            cfg.ClerkIssuer,
			AuthorizedParties: cfg.ClerkAuthorizedParties,
		}, log)
		if err != nil {
			return err
		}
		tokens = v
	} else {
		log.Warn("clerk not configured; only dev auth can authenticate requests")
	}
	if cfg.EnableDevAuth && cfg.IsProduction() {
		log.Warn("dev auth enabled in production")
	}
	clerkAPI := clerk.NewClient("", cfg.ClerkSecretKey)

	// 5) subscription (limits used by every other service)
	subSvc := subSvcImp.NewSubscriptionService(subscription.Default(), subRepoImp.New(db), clerkAPI, log)

	// 6) weather
	rules := weather.DefaultThresholds()
	if cfg.WeatherRulesCSV != "" || cfg.WeatherRulesXLSX != "" {
		if rules, err = weather.LoadThresholds(cfg.WeatherRulesCSV, cfg.WeatherRulesXLSX); err != nil {
			log.Warn("weather rules not loaded, using defaults", zap.Error(err))
			rules = weather.DefaultThresholds()
		}
	}
	providers := weather.Providers(cfg.AEMETBaseURL, cfg.AEMETAPIKey, cfg.OpenWeatherBaseURL, cfg.OpenWeatherAPIKey)
	meteo := weather.NewService(providers, c, cfg.WeatherCacheTTL, rules, log)
	alertRepo := weatherRepoImp.New(db)
	refresher := weather.NewRefresher(meteo, alertRepo, subSvc, log)
	if err := refresher.Start(cfg.WeatherRefreshCron); err != nil {
		return err
	}
	defer refresher.Stop()

	// 7) OCR
	var extractor ocr.Extractor = ocr.NewMock()
	if cfg.OCREndpoint != "" {
		extractor = ocr.NewOCRSpace(cfg.OCREndpoint, cfg.OCRAPIKey)
	} else {
		log.Info("OCR endpoint not configured, using mock extractor")
	}
	var registry ocr.Registry
	if cfg.ProductRegistryURL != "" {
		registry = ocr.NewRegistry(cfg.ProductRegistryURL)
	}

	// 8) domain services + controllers
	parcelaRepo := parcelaRepoImp.New(db, postgis)
	ctl := router.Controllers{
		Health:  healthCtrlImp.New(db, c, version),
		Parcela: parcelaCtrlImp.New(parcelaSvcImp.NewParcelaService(parcelaRepo, subSvc, log)),
		Actividad: actividadCtrlImp.New(actividadSvcImp.NewActividadService(
			actividadRepoImp.New(db), parcelaRepo, subSvc, meteo, log)),
		Sigpac:       sigpacCtrlImp.New(sigpac.NewService(sigpac.NewHTTPClient(cfg.SIGPACBaseURL), c, cfg.SIGPACCacheTTL, log), log),
		Weather:      weatherCtrlImp.New(meteo, alertRepo, parcelaRepo, subSvc, log),
		OCR:          ocrCtrlImp.New(ocrSvcImp.NewOCRService(ocrRepoImp.New(db), extractor, registry, subSvc, log)),
		Subscription: subCtrlImp.New(subSvc),
		User:         userCtrlImp.New(subSvc, clerkAPI, log),
		Export:       exportCtrlImp.New(exportSvcImp.NewExportService(exportRepoImp.New(db), subSvc, log)),
		Sync:         syncCtrlImp.New(syncSvcImp.NewSyncService(syncRepoImp.New(db), subSvc, log)),
	}

	// 9) echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.Handler(log)
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.DevUserHeader},
	}))
	e.Use(echoMiddleware.BodyLimit("12M"))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	stop := make(chan struct{})
	defer close(stop)
	limiter.StartCleanup(5*time.Minute, stop)

	router.New(e, log, ctl, router.Auth{
		Dev:   middleware.DevAuth(cfg.EnableDevAuth, log),
		Clerk: middleware.ClerkAuth(tokens, log),
		Rate:  limiter.Middleware(),
	})

	// 10) start + graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("port", cfg.Port), zap.Bool("postgis", postgis), zap.Bool("cache", c.Enabled()))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	return e.Shutdown(sctx)
}
