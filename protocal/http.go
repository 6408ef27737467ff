package protocal

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"playlist-bot/configs"
	httpAdapter "playlist-bot/internal/adapters/input/http"
	lineAdapter "playlist-bot/internal/adapters/output/line"
	"playlist-bot/internal/adapters/output/spotify"
	"playlist-bot/internal/application"
	"playlist-bot/internal/domain"
	"playlist-bot/internal/telemetry"
	"playlist-bot/pkg/statetoken"

	swagger "github.com/arsmn/fiber-swagger/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// ErrMissingStateSecret is returned when OAuth state tokens cannot be signed
var ErrMissingStateSecret = errors.New("auth.state_secret is required")

type config struct {
	ENV string `mapstructure:"env"`
}

// ServeHTTP func
func ServeHTTP() error {
	var cfg config
	flag.StringVar(&cfg.ENV, "env", "", "the environment to use")
	flag.Parse()
	configs.InitViper("./configs", cfg.ENV)
	conf := configs.GetViper()
	if conf.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.Info(conf.App.Env)

	if conf.Auth.StateSecret == "" {
		return ErrMissingStateSecret
	}
	telemetry.Init()

	store, err := openStorage(conf)
	if err != nil {
		return err
	}

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept,Authorization",
	}))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range c {
			logrus.Println("Gracefull shut down ...")
			if err := app.Shutdown(); err != nil {
				logrus.Println("Error when shutdown server: ", err)
			}
		}
	}()
	defer store.close()

	// Wire up the hexagonal architecture layers
	// Output adapters (LINE messaging and content)
	lineClient, err := lineAdapter.NewLineClientAdapter(conf.Line.ChannelToken)
	if err != nil {
		return err
	}
	mediaFetcher, err := lineAdapter.NewMediaFetcher(conf.Line.ChannelToken, domain.MaxCoverImageRawSize+1)
	if err != nil {
		return err
	}
	// Output adapter (music service OAuth + API)
	authorizer := spotify.NewAuthorizer(conf.Spotify.ClientID, conf.Spotify.ClientSecret, conf.Spotify.RedirectURL)

	// Application services (use cases)
	signer := statetoken.NewSigner(conf.Auth.StateSecret, conf.Auth.StateTTL)
	playlistSrv := application.NewPlaylistService(store.storage, authorizer, mediaFetcher, signer, conf.Bot.UploadTimeout)
	lineWebhookSrv, err := application.NewLineWebhookService(lineClient, playlistSrv)
	if err != nil {
		return err
	}

	// Input adapters (HTTP handlers)
	hdl := httpAdapter.New(store.pinger)
	lineWebhookHdl := httpAdapter.NewLineWebhookHandler(lineWebhookSrv, conf.Line.ChannelSecret)
	oauthHdl := httpAdapter.NewOAuthHandler(lineWebhookSrv)

	app.Get("/swagger/*", swagger.HandlerDefault) // default
	app.Get("/health", hdl.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/spotifyauth", oauthHdl.Callback)

	// LINE webhook endpoint
	webhook := app.Group("/webhook")
	{
		webhook.Post("/line", lineWebhookHdl.HandleWebhook)
	}

	logrus.Println("Listening on port: ", conf.App.Port)
	return app.Listen(":" + conf.App.Port)
}
