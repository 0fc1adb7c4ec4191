package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"transit-mapper/internal/config"
	"transit-mapper/internal/metrics"
	"transit-mapper/internal/mylogger"
	"transit-mapper/internal/survey-service/adapters/driven/bm"
	"transit-mapper/internal/survey-service/adapters/driven/db"
	"transit-mapper/internal/survey-service/adapters/driver/myhttp/handle"
	"transit-mapper/internal/survey-service/adapters/driver/myhttp/middleware"
	"transit-mapper/internal/survey-service/adapters/driver/myhttp/ws"
	"transit-mapper/internal/survey-service/core/ports"
	"transit-mapper/internal/survey-service/core/services"
)

var ErrServerClosed = errors.New("Server closed")

const WaitTime = 10

type Server struct {
	mux    *http.ServeMux
	cfg    *config.Config
	srv    *http.Server
	mylog  mylogger.Logger
	db     *db.DB
	mb     ports.ITripEventsBroker
	ctx    context.Context
	appCtx context.Context
	mu     sync.Mutex
	wg     sync.WaitGroup
}

func NewServer(ctx, appCtx context.Context, mylog mylogger.Logger, cfg *config.Config) *Server {
	s := &Server{
		ctx:    ctx,
		appCtx: appCtx,
		cfg:    cfg,
		mylog:  mylog,
		mux:    http.NewServeMux(),
	}

	return s
}

// Run initializes routes and starts listening. It returns when the server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	// Initialize database connection
	db, err := db.New(s.ctx, s.cfg.DB, mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	mylog.Info("Successful database connection")

	// Initialize RabbitMQ connection
	mb, err := bm.New(s.appCtx, *s.cfg.RabbitMq, s.mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	s.mb = mb
	mylog.Info("Successful message broker connection")

	// Configure routes and handlers
	s.Configure()

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%v", s.cfg.Srv.SurveyServicePort),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog = mylog.WithGroup("details").With("port", s.cfg.Srv.SurveyServicePort)

	mylog.Info("server is running")
	return s.startHTTPServer()
}

// Stop provides a programmatic shutdown. Accepts a context for timeout control.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Info("Shutting down HTTP server...")

	s.wg.Wait()

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Error("Failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Error("Failed to close message broker", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.mylog.Error("Failed to close database", err)
			return fmt.Errorf("db close: %w", err)
		}
		s.mylog.Info("Database closed")
	}

	s.mylog.Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Configure sets up the HTTP handlers for the trip, stop ledger and lifecycle APIs.
func (s *Server) Configure() {
	// Repositories
	tripsRepo := db.NewTripsRepo(s.db)
	routesRepo := db.NewRoutesRepo(s.db)
	countersRepo := db.NewCountersRepo(s.db)

	mtr := metrics.NewCollector(s.cfg.App.AssumedSpeedKmh)
	speed := services.NewFixedSpeedModel(s.cfg.App.AssumedSpeedKmh)
	dispatcher := ws.NewDispathcer(s.mylog)

	// services
	tripService := services.NewTripService(s.mylog, tripsRepo, routesRepo, countersRepo, s.mb, dispatcher, mtr)
	ledgerService := services.NewLedgerService(s.mylog, tripsRepo, countersRepo, speed, dispatcher, mtr)
	splitService := services.NewSplitService(s.mylog, tripsRepo, countersRepo, speed, s.mb, mtr)

	// handlers
	tripsHandler := handle.NewTripsHandler(tripService, splitService, s.mylog)
	stopsHandler := handle.NewStopsHandler(ledgerService, s.mylog)

	authMiddleware := middleware.NewAuthMiddleware(s.cfg.App.JwtSecret)

	// Register routes
	s.mux.Handle("POST /trips", authMiddleware.Wrap(tripsHandler.CreateTrip()))
	s.mux.Handle("GET /trips", authMiddleware.Wrap(tripsHandler.ListTrips()))
	s.mux.Handle("GET /trips/{trip_id}", authMiddleware.Wrap(tripsHandler.GetTrip()))

	s.mux.Handle("POST /trips/{trip_id}/start", authMiddleware.Wrap(tripsHandler.StartTrip()))
	s.mux.Handle("POST /trips/{trip_id}/complete", authMiddleware.Wrap(tripsHandler.CompleteTrip()))
	s.mux.Handle("POST /trips/{trip_id}/cancel", authMiddleware.Wrap(tripsHandler.CancelTrip()))
	s.mux.Handle("POST /trips/{trip_id}/duplicate", authMiddleware.Wrap(tripsHandler.DuplicateTrip()))
	s.mux.Handle("POST /trips/{trip_id}/split", authMiddleware.Wrap(tripsHandler.SplitTrip()))

	s.mux.Handle("POST /trips/{trip_id}/stops", authMiddleware.Wrap(stopsHandler.AddStops()))
	s.mux.Handle("PATCH /trips/{trip_id}/stops/{stop_id}", authMiddleware.Wrap(stopsHandler.UpdateStop()))
	s.mux.Handle("DELETE /trips/{trip_id}/stops/{stop_id}", authMiddleware.Wrap(stopsHandler.DeleteStop()))

	// websocket routes
	s.mux.Handle("/ws/trips/{trip_id}", dispatcher.WsHandler())

	s.mux.Handle("GET /metrics", mtr.Handler())
}
