// Command server runs the practice REST backend. All state is in memory and
// resets on restart; the bundled seed data is loaded on every start.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/lostpaws/pawserver/internal/auth"
	"github.com/lostpaws/pawserver/internal/config"
	"github.com/lostpaws/pawserver/internal/handler"
	"github.com/lostpaws/pawserver/internal/router"
	"github.com/lostpaws/pawserver/internal/rules"
	"github.com/lostpaws/pawserver/internal/seed"
	"github.com/lostpaws/pawserver/internal/service"
	"github.com/lostpaws/pawserver/internal/store"
)

func main() {
	dev := flag.Bool("dev", false, "serve the admin panel from the client directory on disk")
	flag.Parse()

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.Kitchen}))
	slog.SetDefault(log)

	cfg := config.Load()
	cfg.Dev = *dev

	protectedSeed, err := seed.Protected()
	if err != nil {
		log.Error("loading account seed", slog.Any("error", err))
		os.Exit(1)
	}
	dataSeed, err := seed.Data()
	if err != nil {
		log.Error("loading collection seed", slog.Any("error", err))
		os.Exit(1)
	}
	protected := store.NewFromSeed(protectedSeed)
	data := store.NewFromSeed(dataSeed)

	// The JSON tree is seeded from loose files so course authors can drop in
	// their own data without touching the binary.
	jsonSeed, err := store.LoadDir(cfg.DataDir)
	if err != nil {
		log.Warn("reading data directory", slog.String("dir", cfg.DataDir), slog.Any("error", err))
		jsonSeed = store.Seed{}
	}

	authSvc := auth.New(protected, cfg.Identity, cfg.Secret)
	engine := rules.NewEngine(data, rules.Bundled())
	dataSvc := service.NewData(data, protected, engine)
	flags := service.NewFlags()

	devDir := ""
	if cfg.Dev {
		devDir = cfg.ClientDir
		log.Info("dev mode: serving admin panel from disk", slog.String("dir", devDir))
	}

	e := router.New(log, authSvc, flags, router.Handlers{
		Home:      handler.NewHome(data),
		Auth:      handler.NewAuth(authSvc),
		Data:      handler.NewData(dataSvc),
		JSONStore: handler.NewJSONStore(service.JSONStoreFromSeed(jsonSeed)),
		Util:      handler.NewUtil(flags),
		Admin:     handler.NewAdmin(devDir),
	})

	log.Info("Server started on port " + cfg.Port + ". You can make requests to http://localhost:" + cfg.Port + "/")
	log.Info("Admin panel located at http://localhost:" + cfg.Port + "/admin")

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
