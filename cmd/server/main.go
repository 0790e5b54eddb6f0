// Command server runs an insurechain node: the authoritative policy/claim
// ledger, the organization-local mirror, and the sync bridge between them.
// main wires dependencies and keeps the lifecycle small; business logic lives
// in the internal services packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"insurechain/internal/audit"
	"insurechain/internal/ledger"
	"insurechain/internal/ledger/journal"
	ledgerstore "insurechain/internal/ledger/store"
	"insurechain/internal/mirror"
	"insurechain/internal/party"
	"insurechain/internal/platform/config"
	"insurechain/internal/platform/httpserver"
	"insurechain/internal/platform/logger"
	"insurechain/internal/platform/metrics"
	platformredis "insurechain/internal/platform/redis"
	"insurechain/internal/syncbridge"
	httptransport "insurechain/internal/transport/http"
)

const (
	tokenIssuer = "insurechain"
	tokenTTL    = 24 * time.Hour
)

// allPartyNames exposes every registered organization to the mirror's health
// descriptor.
type allPartyNames struct {
	svc *party.Service
}

func (n allPartyNames) Names(ctx context.Context) ([]string, error) {
	insurers, err := n.svc.Names(ctx, party.RoleInsurer)
	if err != nil {
		return nil, err
	}
	hospitals, err := n.svc.Names(ctx, party.RoleHospital)
	if err != nil {
		return nil, err
	}
	return append(insurers, hospitals...), nil
}

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Audit trail: durable in postgres when configured, in-memory otherwise.
	var auditStore audit.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		auditStore = audit.NewPostgresStore(db)
	} else {
		auditStore = audit.NewInMemoryStore()
	}
	auditInbox := make(chan audit.Event, 256)
	auditPublisher := audit.NewAsyncPublisher(auditInbox)
	auditWorker := audit.NewWorker(auditStore, auditInbox)

	// Event journal: durable on disk when a path is configured.
	var (
		jnl    ledger.Journal
		closeJ func() error
	)
	if cfg.JournalPath != "" {
		ldb, err := journal.OpenLevelDB(cfg.JournalPath)
		if err != nil {
			log.Error("failed to open journal", "path", cfg.JournalPath, "error", err)
			os.Exit(1)
		}
		jnl, closeJ = ldb, ldb.Close
	} else {
		jnl = journal.NewInMemoryJournal()
	}
	if closeJ != nil {
		defer func() { _ = closeJ() }()
	}

	feed := make(chan ledger.Event, 256)
	emitter := ledger.NewEmitter(jnl, feed)

	tokens := party.NewTokenService(cfg.JWTSigningKey, tokenIssuer, tokenTTL)
	partySvc := party.New(party.NewInMemoryStore(), tokens,
		party.WithLogger(log),
		party.WithAuditPublisher(auditPublisher),
	)

	ledgerSvc := ledger.New(ledgerstore.NewInMemoryStore(), emitter,
		ledger.WithLogger(log),
		ledger.WithAuditPublisher(auditPublisher),
		ledger.WithMetrics(m),
	)

	// Mirror backend: redis for multi-instance deployments.
	var mirrorStore mirror.Store
	if cfg.MirrorBackend == "redis" {
		client, err := platformredis.New(cfg.Redis)
		if err != nil || client == nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		mirrorStore = mirror.NewRedisStore(client.Client)
	} else {
		mirrorStore = mirror.NewInMemoryStore()
	}
	mirrorSvc := mirror.New(mirrorStore, cfg.Organization,
		mirror.WithNameSource(allPartyNames{svc: partySvc}),
		mirror.WithLogger(log),
		mirror.WithMetrics(m),
	)

	bridge := syncbridge.NewBridge(mirrorSvc,
		syncbridge.WithLogger(log),
		syncbridge.WithMetrics(m),
	)

	// The event feed either drains straight into the local bridge or goes
	// through the broker for split-process deployments.
	var (
		syncWorker *syncbridge.Worker
		consumer   *syncbridge.Consumer
	)
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := syncbridge.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("failed to create kafka publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		syncWorker = syncbridge.NewWorker(feed, publisher, log)

		consumer, err = syncbridge.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup, bridge, log)
		if err != nil {
			log.Error("failed to create kafka consumer", "error", err)
			os.Exit(1)
		}
	} else {
		syncWorker = syncbridge.NewWorker(feed, bridge, log)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Ledger:    ledgerSvc,
		Mirror:    mirrorSvc,
		Bridge:    bridge,
		Party:     partySvc,
		Validator: tokens,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(auditWorker.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(syncWorker.Run(ctx)) })
	if consumer != nil {
		g.Go(func() error { return ignoreCanceled(consumer.Run(ctx)) })
	}
	g.Go(func() error {
		log.Info("starting insurechain node", "addr", cfg.Addr, "organization", cfg.Organization)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("node stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("node stopped")
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
