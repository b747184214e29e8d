// Package pdfpool owns the PDFium runtime and hands out instances.
//
// PDFium instances are not safe for concurrent use, so every request takes its
// own instance and closes it when done, which returns it to the pool.
package pdfpool

import (
	"fmt"
	"time"

	"github.com/klippa-app/go-pdfium"
	"go.uber.org/zap"
)

type Config struct {
	MinIdle  int
	MaxIdle  int
	MaxTotal int
	// InstanceTimeout bounds the wait for a free instance.
	InstanceTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinIdle:         1,
		MaxIdle:         1,
		MaxTotal:        2,
		InstanceTimeout: 30 * time.Second,
	}
}

type Pool struct {
	pool    pdfium.Pool
	timeout time.Duration
	logger  *zap.SugaredLogger
}

func New(cfg Config, logger *zap.SugaredLogger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.MaxTotal < 1 {
		return nil, fmt.Errorf("pdfium max_total must be at least 1, got %d", cfg.MaxTotal)
	}
	if cfg.InstanceTimeout <= 0 {
		cfg.InstanceTimeout = DefaultConfig().InstanceTimeout
	}

	start := time.Now()
	pool, err := initPool(cfg)
	if err != nil {
		return nil, fmt.Errorf("init pdfium %s runtime: %w", runtimeName, err)
	}
	logger.Infow("pdfium ready", "runtime", runtimeName, "max_total", cfg.MaxTotal, "took", time.Since(start))

	return &Pool{pool: pool, timeout: cfg.InstanceTimeout, logger: logger}, nil
}

// Instance borrows an instance. Close it to give it back.
func (p *Pool) Instance() (pdfium.Pdfium, error) {
	instance, err := p.pool.GetInstance(p.timeout)
	if err != nil {
		return nil, fmt.Errorf("get pdfium instance: %w", err)
	}
	return instance, nil
}

func (p *Pool) Close() error {
	return p.pool.Close()
}
