package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"sideout/internal/database"
	"sideout/internal/favorites"
	"sideout/internal/feed"
	"sideout/internal/league"
	"sideout/internal/scorebook"
	"sideout/internal/userauth"
	"sideout/internal/util/slogx"
	"sideout/internal/version"
	"sideout/internal/webui"
)

var serverCmd = &cobra.Command{
	Use:     "sideout-server",
	Args:    cobra.ExactArgs(0),
	Version: version.Version,
	Short:   "Start Sideout server",
	Long: `Sideout is a live volleyball score tracker.

This command runs the Sideout web server.
`,
}

func main() {
	p := serverCmd.Flags()
	optsPath := p.StringP(
		"options", "o", "",
		"options file",
	)
	secretsPath := p.StringP(
		"secrets", "s", "",
		"secrets file",
	)
	if err := serverCmd.MarkFlagRequired("options"); err != nil {
		panic(err)
	}
	if err := serverCmd.MarkFlagRequired("secrets"); err != nil {
		panic(err)
	}
	verbose := p.BoolP("verbose", "v", false, "verbose logging")

	serverCmd.RunE = func(cmd *cobra.Command, _args []string) error {
		rawSecrets, err := os.ReadFile(*secretsPath)
		if err != nil {
			rawSecrets = nil
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("read secrets: %w", err)
			}
		}
		var secrets Secrets
		if err := toml.Unmarshal(rawSecrets, &secrets); err != nil {
			return fmt.Errorf("unmarshal secrets: %w", err)
		}
		secretsChanged, err := secrets.GenerateMissing()
		if err != nil {
			return fmt.Errorf("generate secrets: %w", err)
		}
		if secretsChanged {
			newRawSecrets, err := toml.Marshal(&secrets)
			if err != nil {
				return fmt.Errorf("marshal secrets: %w", err)
			}
			if err := os.WriteFile(*secretsPath, newRawSecrets, 0600); err != nil {
				return fmt.Errorf("write secrets: %w", err)
			}
		}

		rawOpts, err := os.ReadFile(*optsPath)
		if err != nil {
			return fmt.Errorf("read options: %w", err)
		}
		var opts Options
		if err := toml.Unmarshal(rawOpts, &opts); err != nil {
			return fmt.Errorf("unmarshal options: %w", err)
		}
		if err := opts.MixSecrets(&secrets); err != nil {
			return fmt.Errorf("mix secrets into options: %w", err)
		}
		opts.FillDefaults()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		level := slog.LevelInfo
		if *verbose {
			level = slog.LevelDebug
		}
		log := slogx.Default(level)

		db, err := database.New(log, opts.DB)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		userMgr := userauth.NewManager(log, db, opts.Users)
		leagueMgr := league.NewManager(db)
		f := feed.New()
		defer f.Close()
		book, err := scorebook.NewKeeper(log, db, f, opts.Book)
		if err != nil {
			return fmt.Errorf("create scorebook keeper: %w", err)
		}
		favReg := favorites.NewRegistry(log, db)

		mux := http.NewServeMux()
		webui.Handle(ctx, log, mux, "", webui.Config{
			Book:                book,
			League:              leagueMgr,
			UserManager:         userMgr,
			Favorites:           favReg,
			Feed:                f,
			SessionStoreFactory: db,
		}, opts.WebUI)

		servFin := make(chan struct{})
		servCtx, servCancel := context.WithCancel(ctx)
		server := &http.Server{
			Addr:        opts.Addr,
			Handler:     mux,
			BaseContext: func(net.Listener) context.Context { return servCtx },
		}
		go func() {
			defer close(servFin)
			log.Info("starting http server", slog.String("addr", opts.Addr))
			if err := server.ListenAndServe(); err != nil {
				select {
				case <-servCtx.Done():
				default:
					log.Warn("listen http server failed", slogx.Err(err))
				}
			}
		}()
		defer func() { <-servFin }()
		defer func() {
			log.Info("stopping server")
			servCancel()
			_ = server.Shutdown(servCtx)
		}()

		<-ctx.Done()
		return nil
	}

	if err := serverCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
