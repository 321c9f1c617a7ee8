// Package receiver consumes position reports from a NATS subject and feeds
// them into the ingestion service. It plays the role of the radio-signal
// receiver: each message is one JSON report for one flight.
package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/skyward/flighttrack/internal/config"
	"github.com/skyward/flighttrack/internal/flight"
	"github.com/skyward/flighttrack/pkg/logger"
)

const ingestTimeout = 10 * time.Second

// Service subscribes to the configured subject and applies each report
// through the flight service. Reports that fail validation or reference an
// unknown flight are logged and dropped; there is no retry or dead-letter
// handling at this layer.
type Service struct {
	cfg     config.ReceiverConfig
	flights *flight.Service
	logger  *logger.Logger
	conn    *nats.Conn
	sub     *nats.Subscription
}

// NewService creates a new position-report receiver.
func NewService(cfg config.ReceiverConfig, flights *flight.Service, log *logger.Logger) *Service {
	return &Service{
		cfg:     cfg,
		flights: flights,
		logger:  log.Named("receiver"),
	}
}

// Start connects to NATS and subscribes to the report subject. When a queue
// group is configured, multiple server instances share the feed.
func (s *Service) Start(ctx context.Context) error {
	conn, err := nats.Connect(s.cfg.NATSURL,
		nats.Name("flighttrack-receiver"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			s.logger.Warn("NATS connection lost", logger.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			s.logger.Info("NATS reconnected", logger.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", s.cfg.NATSURL, err)
	}
	s.conn = conn

	handler := func(msg *nats.Msg) {
		s.handleReport(msg.Data)
	}

	if s.cfg.QueueGroup != "" {
		s.sub, err = conn.QueueSubscribe(s.cfg.Subject, s.cfg.QueueGroup, handler)
	} else {
		s.sub, err = conn.Subscribe(s.cfg.Subject, handler)
	}
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", s.cfg.Subject, err)
	}

	s.logger.Info("Receiver started",
		logger.String("url", s.cfg.NATSURL),
		logger.String("subject", s.cfg.Subject),
		logger.String("queue_group", s.cfg.QueueGroup))

	return nil
}

// handleReport decodes and ingests a single position report.
func (s *Service) handleReport(data []byte) {
	var req flight.IngestRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Warn("Dropping malformed position report",
			logger.Error(err),
			logger.Int("size", len(data)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	updated, err := s.flights.Ingest(ctx, &req)
	if err != nil {
		var vErr *flight.ValidationError
		switch {
		case errors.As(err, &vErr):
			s.logger.Warn("Dropping invalid position report",
				logger.String("flight_id", req.FlightID),
				logger.Error(err))
		case errors.Is(err, flight.ErrNotFound):
			s.logger.Warn("Position report for unknown or archived flight",
				logger.String("flight_id", req.FlightID))
		default:
			s.logger.Error("Failed to ingest position report",
				logger.String("flight_id", req.FlightID),
				logger.Error(err))
		}
		return
	}

	s.logger.Debug("Position report ingested",
		logger.String("flight_id", updated.FlightID),
		logger.Int("track_len", len(updated.Track)))
}

// Stop drains the subscription and closes the connection.
func (s *Service) Stop() {
	if s.sub != nil {
		if err := s.sub.Drain(); err != nil {
			s.logger.Error("Failed to drain subscription", logger.Error(err))
		}
	}
	if s.conn != nil {
		s.conn.Close()
	}
	s.logger.Info("Receiver stopped")
}
