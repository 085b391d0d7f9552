package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jask/productdesk/internal/backend"
	"github.com/jask/productdesk/internal/journal"
)

// ErrNameRequired is returned by Save when the product has a blank name.
var ErrNameRequired = errors.New("service: product name is required")

// Backend is the subset of backend.Client the service drives.
type Backend interface {
	List(ctx context.Context) ([]backend.Product, error)
	Create(ctx context.Context, p backend.Product) (backend.Product, error)
	Update(ctx context.Context, p backend.Product) (backend.Product, error)
	Delete(ctx context.Context, p backend.Product) error
}

// Journal records operator activity.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

// MetricsRecorder observes operation outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, action string, success bool, d time.Duration)
}

// Logger interface for structured logging. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Products wraps the backend with journaling, metrics and logging.
// Journal, Metrics and Logger are optional.
type Products struct {
	Backend Backend
	Journal Journal
	Metrics MetricsRecorder
	Logger  Logger
}

// Fetch returns the full product collection.
func (s *Products) Fetch(ctx context.Context) ([]backend.Product, error) {
	start := time.Now()
	list, err := s.Backend.List(ctx)
	s.observe(ctx, journal.ActionFetch, err, time.Since(start))
	if err != nil {
		s.logger().Error("fetch products", "err", err)
		s.record(ctx, journal.ActionFetch, backend.Product{}, err)
		return nil, err
	}
	s.logger().Debug("fetched products", "count", len(list))
	return list, nil
}

// Save creates p when it has no id yet and updates it otherwise.
func (s *Products) Save(ctx context.Context, p backend.Product) (backend.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	action := journal.ActionUpdate
	if p.IsNew() {
		action = journal.ActionCreate
	}
	if p.Name == "" {
		return backend.Product{}, ErrNameRequired
	}

	start := time.Now()
	var (
		out backend.Product
		err error
	)
	if action == journal.ActionCreate {
		out, err = s.Backend.Create(ctx, p)
	} else {
		out, err = s.Backend.Update(ctx, p)
	}
	s.observe(ctx, action, err, time.Since(start))
	s.record(ctx, action, p, err)
	if err != nil {
		s.logger().Error("save product", "action", action, "id", p.ID.String(), "err", err)
		return backend.Product{}, err
	}
	s.logger().Info("saved product", "action", action, "id", p.ID.String(), "name", p.Name)
	return out, nil
}

// Delete removes p from the backend.
func (s *Products) Delete(ctx context.Context, p backend.Product) error {
	start := time.Now()
	err := s.Backend.Delete(ctx, p)
	s.observe(ctx, journal.ActionDelete, err, time.Since(start))
	s.record(ctx, journal.ActionDelete, p, err)
	if err != nil {
		s.logger().Error("delete product", "id", p.ID.String(), "err", err)
		return err
	}
	s.logger().Info("deleted product", "id", p.ID.String(), "name", p.Name)
	return nil
}

func (s *Products) record(ctx context.Context, action journal.Action, p backend.Product, opErr error) {
	if s.Journal == nil {
		return
	}
	e := journal.Entry{
		Action:      action,
		ProductID:   p.ID.String(),
		ProductName: p.Name,
		Outcome:     journal.OutcomeOK,
	}
	if opErr != nil {
		e.Outcome = journal.OutcomeError
		e.Message = ErrorText(opErr)
	}
	if _, err := s.Journal.Record(ctx, e); err != nil {
		s.logger().Warn("journal write failed", "action", action, "err", err)
	}
}

func (s *Products) observe(ctx context.Context, action journal.Action, err error, d time.Duration) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.Observe(ctx, string(action), err == nil, d)
}

func (s *Products) logger() Logger {
	if s.Logger == nil {
		return nopLogger{}
	}
	return s.Logger
}

// ErrorText is the message shown to operators for err. Application errors
// carry the backend's own wording.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
