package mirror

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"

	"insurechain/internal/platform/metrics"
)

// Store is the mirror persistence contract. Put reports whether the write
// created a new record.
type Store interface {
	Put(ctx context.Context, kind RecordKind, id string, payload map[string]any, ref uuid.UUID) (bool, error)
	Get(ctx context.Context, kind RecordKind, id string) (*Record, error)
	QueryByField(ctx context.Context, kind RecordKind, field, value string) ([]Record, error)
	Stats(ctx context.Context) (map[RecordKind]int, error)
}

// NameSource lists the organization names known to the deployment; the party
// registry provides it in production.
type NameSource interface {
	Names(ctx context.Context) ([]string, error)
}

// Service fronts the mirror store: it tracks the record gauge and serves the
// health descriptor.
type Service struct {
	store        Store
	organization string
	names        NameSource
	logger       *slog.Logger
	metrics      *metrics.Metrics
	startedAt    time.Time
}

type Option func(s *Service)

func WithNameSource(names NameSource) Option {
	return func(s *Service) {
		s.names = names
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a mirror service for the named organization.
func New(store Store, organization string, opts ...Option) *Service {
	s := &Service{
		store:        store,
		organization: organization,
		startedAt:    time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put writes a record through to the store and keeps the record gauge in
// step.
func (s *Service) Put(ctx context.Context, kind RecordKind, id string, payload map[string]any, ref uuid.UUID) error {
	created, err := s.store.Put(ctx, kind, id, payload, ref)
	if err != nil {
		return err
	}
	if created && s.metrics != nil {
		s.metrics.MirrorRecords.Inc()
	}
	if s.logger != nil {
		s.logger.Debug("mirror record written", "kind", kind, "id", id, "created", created)
	}
	return nil
}

// Get returns the record stored under kind/id.
func (s *Service) Get(ctx context.Context, kind RecordKind, id string) (*Record, error) {
	return s.store.Get(ctx, kind, id)
}

// QueryByField filters a kind partition on a payload field.
func (s *Service) QueryByField(ctx context.Context, kind RecordKind, field, value string) ([]Record, error) {
	return s.store.QueryByField(ctx, kind, field, value)
}

// HostStats is a point-in-time snapshot of the serving host.
type HostStats struct {
	UptimeSeconds  int64   `json:"uptime_seconds"`
	CPULoadPercent float64 `json:"cpu_load_percent"`
	MemoryMB       float64 `json:"memory_mb"`
	Goroutines     int     `json:"goroutines"`
}

// Status is the mirror health descriptor.
type Status struct {
	Organization  string             `json:"organization"`
	Records       map[RecordKind]int `json:"records"`
	Organizations []string           `json:"organizations,omitempty"`
	Host          HostStats          `json:"host"`
}

// Status reports record counts per kind, the known organization names, and
// host statistics.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	counts, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	status := &Status{
		Organization: s.organization,
		Records:      counts,
		Host:         s.hostStats(),
	}
	if s.names != nil {
		names, err := s.names.Names(ctx)
		if err != nil && s.logger != nil {
			s.logger.Warn("failed to list organization names", "error", err)
		}
		status.Organizations = names
	}
	return status, nil
}

func (s *Service) hostStats() HostStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := HostStats{
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		MemoryMB:      float64(m.Alloc) / (1024 * 1024),
		Goroutines:    runtime.NumGoroutine(),
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPULoadPercent = percents[0]
	}
	return stats
}
