package report

import (
	"sync"
	"time"

	"neupages/internal/ports"
)

// Options carries the process-wide settings the page service needs beyond
// its collaborators.
type Options struct {
	OutputDir    string
	Dataset      string
	CacheTTL     time.Duration
	PollInterval time.Duration
}

// Service wires the page-generation usecases: filling the queue, running
// workers, recovering orphaned claims, and operator stats. All durable state
// lives on the shared filesystem behind the injected ports; the service
// itself holds no state worth persisting.
type Service struct {
	cache    ports.Cache
	queue    ports.Queue
	claims   ports.Claims
	manifest ports.Manifest
	source   ports.NeuronSource
	watcher  ports.QueueWatcher
	opts     Options

	roiWarmOnce sync.Once
}

func NewService(
	cache ports.Cache,
	queue ports.Queue,
	claims ports.Claims,
	manifest ports.Manifest,
	source ports.NeuronSource,
	opts Options,
) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}

	return &Service{
		cache:    cache,
		queue:    queue,
		claims:   claims,
		manifest: manifest,
		source:   source,
		opts:     opts,
	}
}

// SetWatcher installs an optional queue watcher used by waiting workers.
// Without one, idle workers fall back to sleeping for the poll interval.
func (s *Service) SetWatcher(watcher ports.QueueWatcher) {
	s.watcher = watcher
}
