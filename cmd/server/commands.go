package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/jrozner/roomboard/web/auth"
	"github.com/jrozner/roomboard/web/handlers"
	"github.com/jrozner/roomboard/web/messaging"
	mw "github.com/jrozner/roomboard/web/middleware"
	"github.com/jrozner/roomboard/web/store"
)

func openDatabase(ctx context.Context, config *Config) (*gorm.DB, error) {
	logger := newLogger(config)

	return store.Open(ctx, store.Options{
		Driver:          config.Database.Driver,
		DSN:             config.Database.DSN,
		Debug:           config.Database.Debug,
		MaxOpenConns:    config.Database.MaxOpenConns,
		MaxIdleConns:    config.Database.MaxIdleConns,
		ConnMaxLifetime: config.Database.ConnMaxLifetime,
	}, logger.With().Str("component", "gorm").Logger())
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "apply schema migrations before serving",
			},
		},
		Action: func(c *cli.Context) error {
			config, err := readConfig(c.String("config"))
			if err != nil {
				return err
			}

			err = validateServeConfig(config)
			if err != nil {
				return err
			}

			logger := newLogger(config)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := openDatabase(ctx, config)
			if err != nil {
				return err
			}
			defer store.Close(db)

			if c.Bool("migrate") {
				err = store.Migrate(db)
				if err != nil {
					return err
				}
			}

			users := store.NewUserStore(db)
			tokens := auth.NewTokens(config.Auth.JWTSecret, config.Auth.TokenTTL)
			accounts := auth.NewAccounts(users, tokens, logger)
			messages := messaging.NewService(store.NewMessageStore(db), users, store.NewListingStore(db), logger)
			limiter := mw.NewSendLimiter(config.Messages.SendRate, config.Messages.SendBurst)

			router := handlers.NewMux(handlers.New(messages, accounts), handlers.Options{
				Logger:       logger,
				Authenticate: mw.Authenticate(tokens),
				SendLimiter:  limiter.Handler,
				MaxBodyBytes: config.HTTP.MaxBodyBytes,
			})

			server := &http.Server{
				Addr:         config.HTTP.Addr,
				Handler:      router,
				ReadTimeout:  config.HTTP.ReadTimeout,
				WriteTimeout: config.HTTP.WriteTimeout,
			}

			errs := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", server.Addr).Msg("listening")
				errs <- server.ListenAndServe()
			}()

			select {
			case err = <-errs:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info().Msg("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			return server.Shutdown(shutdownCtx)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create or update the database schema",
		Action: func(c *cli.Context) error {
			config, err := readConfig(c.String("config"))
			if err != nil {
				return err
			}

			err = validateConfig(config)
			if err != nil {
				return err
			}

			db, err := openDatabase(c.Context, config)
			if err != nil {
				return err
			}
			defer store.Close(db)

			err = store.Migrate(db)
			if err != nil {
				return err
			}

			logger := newLogger(config)
			logger.Info().Msg("schema applied")
			return nil
		},
	}
}

func createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "create an administrator or promote an existing account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ROOMBOARD_ADMIN_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			config, err := readConfig(c.String("config"))
			if err != nil {
				return err
			}

			err = validateConfig(config)
			if err != nil {
				return err
			}

			db, err := openDatabase(c.Context, config)
			if err != nil {
				return err
			}
			defer store.Close(db)

			logger := newLogger(config)
			tokens := auth.NewTokens(config.Auth.JWTSecret, config.Auth.TokenTTL)
			accounts := auth.NewAccounts(store.NewUserStore(db), tokens, logger)

			user, err := accounts.CreateAdmin(c.Context, auth.Registration{
				Username: c.String("username"),
				Email:    c.String("email"),
				Password: c.String("password"),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "admin %s (id %d) ready\n", user.Username, user.ID)
			return nil
		},
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "write a sample configuration file",
		ArgsUsage: "[path]",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				path = "roomboard.toml"
			}

			return initConfig(path)
		},
	}
}
