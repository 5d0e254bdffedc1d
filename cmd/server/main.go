package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/YahSeh/Nexus-terminal/internal/api"
	"github.com/YahSeh/Nexus-terminal/internal/auth"
	"github.com/YahSeh/Nexus-terminal/internal/config"
	"github.com/YahSeh/Nexus-terminal/internal/database"
	"github.com/YahSeh/Nexus-terminal/internal/message"
	"github.com/YahSeh/Nexus-terminal/internal/server"
	"github.com/YahSeh/Nexus-terminal/internal/session"
	"github.com/YahSeh/Nexus-terminal/internal/stats"
	"github.com/YahSeh/Nexus-terminal/internal/trust"
)

type stringSliceFlag []string

func (f *stringSliceFlag) String() string {
	return strings.Join(*f, ",")
}

func (f *stringSliceFlag) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*f = append(*f, v)
		}
	}
	return nil
}

var (
	addr              = flag.String("addr", "localhost:8000", "server address")
	dsn               = flag.String("dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "postgres connection string")
	signingSecret     = flag.String("signing-secret", os.Getenv("NEXUS_SIGNING_SECRET"), "base64-encoded jwt signing secret")
	inactivityTimeout = flag.Duration("inactivity-timeout", 15*time.Minute, "idle time before a session is invalidated")
	allowedOrigins    stringSliceFlag
)

func main() {
	flag.Var(&allowedOrigins, "allowed-origin", "allowed CORS origin, may be repeated")
	flag.Parse()

	logger := log.New(os.Stderr, "[nexus] ", log.LstdFlags)

	cfg, err := config.NewConfig(*addr, *dsn, *signingSecret, allowedOrigins, *inactivityTimeout)
	if err != nil {
		logger.Fatalln("config:", err)
	}

	db, err := database.NewPgNexusRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalln("db open:", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatalln("migrate:", err)
	}

	// memberships left behind by a previous crash would show ghosts in
	// the online list
	if err := db.ClearStaleMemberships(time.Now()); err != nil {
		logger.Println("clear stale memberships:", err)
	}

	mux := http.NewServeMux()
	su := stats.NewStatsUpdater(mux)
	su.Run()
	defer su.Stop()

	guard := session.NewGuard(cfg.InactivityTimeout)
	verifier := auth.NewCredentialVerifier(logger, db)
	trustStore := trust.NewStore(logger, db)
	msgStore := message.NewStore(logger, db)

	chatServer, err := server.NewChatServer(logger, db, trustStore, msgStore, guard, su)
	if err != nil {
		logger.Fatalln("chat server:", err)
	}

	app := api.NewNexusApp(mux, logger, chatServer, db, verifier, guard, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer cancel()

	if err := app.Shutdown(shutDownCtx); err != nil {
		logger.Println("shutdown:", err)
	}

	if err := chatServer.Shutdown(shutDownCtx); err != nil {
		logger.Println("chat server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
