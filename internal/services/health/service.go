package health

import (
	"context"
	"database/sql"
	"time"
)

const defaultPingTimeout = 2 * time.Second

// Status is the health payload.
type Status struct {
	OK bool   `json:"ok"`
	DB string `json:"db"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB          *sql.DB // nil when running on in-memory repositories
	PingTimeout time.Duration
}

// NewService constructs a new health service.
func NewService(database *sql.DB) *Service {
	return &Service{DB: database, PingTimeout: defaultPingTimeout}
}

// Check pings the database when one is configured.
func (s *Service) Check(ctx context.Context) (Status, error) {
	if s == nil || s.DB == nil {
		return Status{OK: true, DB: "memory"}, nil
	}
	timeout := s.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		return Status{OK: false, DB: "down"}, err
	}
	return Status{OK: true, DB: "up"}, nil
}
