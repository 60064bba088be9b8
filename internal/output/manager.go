package output

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kvolkov/leadharvest/internal/config"
	"github.com/kvolkov/leadharvest/internal/scraper"
)

// Sink persists a finished run's result somewhere.
type Sink interface {
	Name() string
	Write(ctx context.Context, result *scraper.RunResult) error
	Close() error
}

// Manager fans one result out to every configured sink. Sinks are
// independent: one failing does not stop the others.
type Manager struct {
	sinks  []Sink
	logger zerolog.Logger
}

// NewManager builds sinks from the output configuration. An empty
// configuration yields a manager that writes nowhere.
func NewManager(ctx context.Context, cfg config.OutputConfig, logger zerolog.Logger) (*Manager, error) {
	m := &Manager{logger: logger.With().Str("component", "output").Logger()}

	if cfg.JSONFile != "" {
		m.sinks = append(m.sinks, NewJSONSink(cfg.JSONFile))
	}
	if cfg.ExcelFile != "" {
		m.sinks = append(m.sinks, NewExcelSink(cfg.ExcelFile))
	}
	if cfg.MongoDB.URI != "" {
		sink, err := NewMongoSink(ctx, cfg.MongoDB)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.sinks = append(m.sinks, sink)
	}
	if cfg.Database.DSN != "" {
		sink, err := NewDatabaseSink(ctx, cfg.Database)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.sinks = append(m.sinks, sink)
	}
	return m, nil
}

// Write sends the result to every sink and returns the first error after
// trying all of them.
func (m *Manager) Write(ctx context.Context, result *scraper.RunResult) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Write(ctx, result); err != nil {
			m.logger.Error().Str("sink", s.Name()).Err(err).Msg("sink write failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		m.logger.Info().Str("sink", s.Name()).Int("records", len(result.Successes)).Msg("results written")
	}
	return firstErr
}

// Close releases all sink resources.
func (m *Manager) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Sinks reports how many sinks are active.
func (m *Manager) Sinks() int { return len(m.sinks) }
