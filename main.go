package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-backend/internal/config"
	"storefront-backend/internal/events"
	"storefront-backend/internal/identity"
	"storefront-backend/internal/metrics"
	"storefront-backend/internal/model"
	"storefront-backend/internal/mongostore"
	"storefront-backend/internal/service"
	"storefront-backend/internal/transport"
)

const appID = "storefront"

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	app := &cli.App{
		Name:  appID,
		Usage: "storefront REST backend",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serve,
			},
			{
				Name:  "seed",
				Usage: "replace catalog collections with generated products",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "category", Usage: "category to seed, repeatable"},
					&cli.BoolFlag{Name: "all", Usage: "seed every browsable category"},
				},
				Action: seed,
			},
			{
				Name:   "ensure-indexes",
				Usage:  "create the indexes the service relies on",
				Action: ensureIndexes,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup() (*config.Config, *mongo.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parse LOG_LEVEL %q", cfg.LogLevel)
	}
	log.SetLevel(level)

	log.WithField("database", cfg.DatabaseName()).Info("connecting to mongodb")
	client, err := mongostore.Connect(context.Background(), cfg.MongoURL(), cfg.MongoConnectTimeout)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

func serve(c *cli.Context) error {
	cfg, client, err := setup()
	if err != nil {
		return err
	}
	defer disconnect(client)
	db := client.Database(cfg.DatabaseName())

	if err := mongostore.EnsureIndexes(c.Context, db); err != nil {
		return err
	}

	verifier, err := newVerifier(c.Context, cfg)
	if err != nil {
		return err
	}

	var dispatcher interface {
		service.EventDispatcher
		Close() error
	} = events.NopDispatcher{}
	if cfg.KafkaEnabled() {
		dispatcher = events.NewKafkaDispatcher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	}
	defer func() {
		if err := dispatcher.Close(); err != nil {
			log.WithError(err).Error("close event dispatcher")
		}
	}()

	users := mongostore.NewUserRepository(db)
	orders := mongostore.NewOrderRepository(db)
	products := mongostore.NewProductRepository(db)
	tx := mongostore.NewTransactor(client, cfg.MongoTransactions)

	carts := service.NewCartService(users, cfg.CartMaxRetries)
	services := transport.Services{
		Carts:     carts,
		Orders:    service.NewOrderService(orders, users, carts, tx, dispatcher, service.TotalPolicy(cfg.OrderTotalPolicy)),
		Accounts:  service.NewAccountService(users, identity.NewJWTIssuer(cfg.JWTSecret, identity.DefaultTokenTTL), 0),
		Addresses: service.NewAddressService(mongostore.NewAddressRepository(db)),
		Catalog:   service.NewCatalogService(products),
		Admin:     service.NewAdminService(products, mongostore.NewDeletedProductRepository(db), orders, users, tx, dispatcher),
	}

	gin.SetMode(gin.ReleaseMode)
	router := transport.NewRouter(services, transport.Options{
		Prefix:       cfg.APIPrefix,
		CORSOrigins:  cfg.CORSOrigins,
		AuthHeader:   cfg.AuthHeader,
		AdminEnforce: cfg.AdminEnforce,
		Verifier:     verifier,
		Metrics:      metrics.NewServerMetrics("api"),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	killSignalChan := getKillSignalChan()
	go func() {
		log.WithFields(log.Fields{"port": cfg.Port, "authMode": cfg.AuthMode}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	sig := <-killSignalChan
	log.WithField("signal", sig.String()).Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func newVerifier(ctx context.Context, cfg *config.Config) (identity.Verifier, error) {
	if cfg.AuthMode == config.AuthModeFirebase {
		return identity.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
	}
	log.WithField("header", cfg.AuthHeader).Warn("trusting caller supplied identity header")
	return identity.NewHeaderVerifier(cfg.AuthHeader), nil
}

func seed(c *cli.Context) error {
	var categories []model.Category
	if c.Bool("all") {
		for _, category := range model.Categories {
			if category.Browsable() {
				categories = append(categories, category)
			}
		}
	}
	for _, raw := range c.StringSlice("category") {
		category, err := model.ParseCategory(raw)
		if err != nil {
			return err
		}
		categories = append(categories, category)
	}
	if len(categories) == 0 {
		return errors.New("pass --category or --all")
	}

	cfg, client, err := setup()
	if err != nil {
		return err
	}
	defer disconnect(client)

	catalog := service.NewCatalogService(mongostore.NewProductRepository(client.Database(cfg.DatabaseName())))
	for _, category := range categories {
		if _, err := catalog.Seed(c.Context, category); err != nil {
			return err
		}
	}
	return nil
}

func ensureIndexes(c *cli.Context) error {
	cfg, client, err := setup()
	if err != nil {
		return err
	}
	defer disconnect(client)
	return mongostore.EnsureIndexes(c.Context, client.Database(cfg.DatabaseName()))
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.WithError(err).Error("disconnect mongodb")
	}
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}
