package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/config"
	"github.com/gridbase/gridbase/internal/counter"
	"github.com/gridbase/gridbase/internal/database"
	"github.com/gridbase/gridbase/internal/handler"
	"github.com/gridbase/gridbase/internal/quota"
	"github.com/gridbase/gridbase/internal/queue"
	"github.com/gridbase/gridbase/internal/repository"
	"github.com/gridbase/gridbase/internal/router"
)

func main() {
	// Load .env if present; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Counter store. Redis is required in prod: both gates delegate their
	// atomicity to it, and the quota guard must fail closed rather than
	// count blindly. Dev runs fall back to an in-process store.
	var counters counter.Store
	if rdb := config.NewRedisClient(); rdb != nil {
		counters = counter.NewRedisStore(rdb)
	} else if cfg.Env == "dev" {
		log.Printf("redis unavailable, using in-process counters (dev only)")
		counters = counter.NewMemStore()
	} else {
		log.Fatalf("redis unavailable and APP_ENV=%s; refusing to run without shared counters", cfg.Env)
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	workspaces := repository.NewWorkspaceRepo(db)
	bases := repository.NewBaseRepo(db)
	tables := repository.NewTableRepo(db)
	records := repository.NewRecordRepo(db)
	memberships := repository.NewMembershipRepo(db)

	tracker := quota.NewTracker(counters, config.LoadQuotaConfig().Limits)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(cfg.Env == "dev")

	router.Register(e, router.Deps{
		Cfg:        cfg,
		GlobalRL:   config.LoadGlobalRateLimit(),
		AuthRL:     config.LoadAuthRateLimit(),
		Counters:   counters,
		Tracker:    tracker,
		Sessions:   sessions,
		Auth:       handler.NewAuthHandler(cfg, users, sessions),
		Workspaces: handler.NewWorkspaceHandler(workspaces, bases, tables, records, memberships, users, tracker),
		Admin:      handler.NewAdminHandler(users, tracker),
	})

	// Audit trail consumer runs for the life of the process and survives
	// broker outages on its own.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
