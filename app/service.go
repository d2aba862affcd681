// Package app wires the scheduling engine together: stores, sinks, the
// notifier and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	apiassign "github.com/lucasmnd/hkroster/api/assign"
	apiroster "github.com/lucasmnd/hkroster/api/roster"
	"github.com/lucasmnd/hkroster/config"
	"github.com/lucasmnd/hkroster/core/dispatch"
	"github.com/lucasmnd/hkroster/core/dispatch/logging"
	"github.com/lucasmnd/hkroster/core/effort"
	"github.com/lucasmnd/hkroster/core/forecast"
	coremetrics "github.com/lucasmnd/hkroster/core/metrics"
	"github.com/lucasmnd/hkroster/core/notify"
	"github.com/lucasmnd/hkroster/core/roster"
	"github.com/lucasmnd/hkroster/core/store"
	"github.com/lucasmnd/hkroster/infra/logger"
	"github.com/lucasmnd/hkroster/infra/metrics"
	"github.com/lucasmnd/hkroster/infra/mqtt"
	"github.com/lucasmnd/hkroster/internal/eventbus"
)

// Service orchestrates the dispatcher, roster generator and forecaster.
// Mutating operations are serialized through a single mutex so two runs can
// never interleave sticky-assignment decisions on the same data.
type Service struct {
	cfg *config.Config

	// Stores are exported so the surrounding record system (or seed
	// scripts) can load data.
	Rooms        *store.MemoryRooms
	StaffStore   *store.MemoryStaff
	Shifts       *store.MemoryShifts
	Availability *store.MemoryAvailability
	Effort       *effort.Table

	Dispatcher *dispatch.Dispatcher
	Generator  *roster.Generator
	Forecaster *forecast.Forecaster

	runs     logging.RunStore
	bus      *eventbus.Bus
	notifier notify.Sender
	log      logger.Logger

	mu sync.Mutex
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	svc := &Service{
		cfg:          cfg,
		Rooms:        store.NewMemoryRooms(),
		StaffStore:   store.NewMemoryStaff(),
		Shifts:       store.NewMemoryShifts(),
		Availability: store.NewMemoryAvailability(),
		Effort:       effort.NewTable(cfg.Effort.Minutes),
		bus:          eventbus.New(),
		log:          logg,
	}

	sink, err := buildSink(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	svc.notifier = notify.NopSender{}
	if cfg.MQTT.Enabled {
		n, err := mqtt.NewPahoNotifier(cfg.MQTT.Config)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		svc.notifier = n
	}

	switch cfg.Logging.Backend {
	case "sqlite":
		svc.runs, err = logging.NewSQLiteStore(cfg.Logging.Path)
	case "jsonl-rotating":
		svc.runs, err = logging.NewRotatingJSONLStore(cfg.Logging.Path,
			cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups, cfg.Logging.MaxAgeDays)
	default:
		svc.runs, err = logging.NewJSONLStore(cfg.Logging.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("run store: %w", err)
	}

	svc.Dispatcher = dispatch.New(svc.Rooms, svc.StaffStore, svc.Shifts, svc.Effort,
		svc.notifier, sink, svc.bus, logger.New("dispatch"), svc.runs, nil)
	svc.Generator = roster.New(svc.Rooms, svc.StaffStore, svc.Shifts, svc.Availability,
		svc.Effort, logger.New("roster"), sink)
	svc.Forecaster = forecast.New(svc.Rooms, svc.StaffStore, svc.Shifts, svc.Effort, nil)
	return svc, nil
}

func buildSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	var sinks []coremetrics.MetricsSink
	if cfg.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return metrics.NewMultiSink(sinks...), nil
	}
}

// AssignDaily runs the dispatcher under the service lock.
func (s *Service) AssignDaily(ctx context.Context) (dispatch.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Dispatcher.AssignDaily(ctx)
}

// RepairTeams runs the team repair pass under the service lock.
func (s *Service) RepairTeams(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Dispatcher.RepairTeams(ctx)
}

// Generate regenerates the roster under the service lock.
func (s *Service) Generate(ctx context.Context, start time.Time) (roster.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Generator.Generate(ctx, start)
}

// Handler returns the API mux.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/roster/forecast", apiroster.NewForecastHandler(s.Forecaster))
	mux.Handle("/api/roster/week", apiroster.NewWeekHandler(s.Shifts))
	mux.Handle("/api/roster/generate", apiroster.NewGenerateHandler(s))
	mux.Handle("/api/assign/daily", apiassign.NewAssignHandler(s))
	mux.Handle("/api/assign/repair-teams", apiassign.NewRepairHandler(s))
	mux.Handle("/api/assign/runs", apiassign.NewRunsHandler(s.runs, s.cfg.API.Token))
	return mux
}

// Run starts the API (and metrics) servers and blocks until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, ":"+s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Infof("listening on %s", s.cfg.API.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if c, ok := s.notifier.(*mqtt.PahoNotifier); ok {
		c.Close()
	}
	return s.runs.Close()
}
