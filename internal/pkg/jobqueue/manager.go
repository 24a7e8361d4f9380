package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// CounterFlusher drains buffered counters to the database.
type CounterFlusher interface {
	FlushAll(ctx context.Context) error
}

// ManagerConfig holds the housekeeping intervals.
type ManagerConfig struct {
	StaleOrderAge      time.Duration
	StaleOrderInterval time.Duration
	CounterFlush       time.Duration
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.StaleOrderAge <= 0 {
		c.StaleOrderAge = 24 * time.Hour
	}
	if c.StaleOrderInterval <= 0 {
		c.StaleOrderInterval = 15 * time.Minute
	}
	if c.CounterFlush <= 0 {
		c.CounterFlush = 5 * time.Second
	}
	return c
}

// Manager manages the job queue and periodic background tasks
type Manager struct {
	queue              *Queue
	counters           CounterFlusher
	cfg                ManagerConfig
	staleOrderTicker   *time.Ticker
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

func NewManager(queue *Queue, counters CounterFlusher, cfg ManagerConfig) *Manager {
	return &Manager{
		queue:    queue,
		counters: counters,
		cfg:      cfg.withDefaults(),
		stopCh:   make(chan struct{}),
	}
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	m.staleOrderTicker = time.NewTicker(m.cfg.StaleOrderInterval)
	m.wg.Add(1)
	go m.staleOrderWorker(m.staleOrderTicker, m.stopCh)

	if m.counters != nil {
		m.counterFlushTicker = time.NewTicker(m.cfg.CounterFlush)
		m.wg.Add(1)
		go m.counterFlushWorker(m.counterFlushTicker, m.stopCh)
	}

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")
	if m.staleOrderTicker != nil {
		m.staleOrderTicker.Stop()
	}
	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}

	close(m.stopCh)
	m.running = false
	m.wg.Wait()

	// Final flush so buffered counters survive a clean shutdown.
	if m.counters != nil {
		if err := m.counters.FlushAll(context.Background()); err != nil {
			log.Errorf("[JobQueue Manager] Final counter flush error: %v", err)
		}
	}

	m.queue.Stop()
	log.Info("[JobQueue Manager] Stopped successfully")
}

// staleOrderWorker periodically enqueues the stale order expiry job
func (m *Manager) staleOrderWorker(ticker *time.Ticker, stopCh <-chan struct{}) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started stale order worker (interval: %s, max age: %s)", m.cfg.StaleOrderInterval, m.cfg.StaleOrderAge)

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if err := m.EnqueueStaleOrderExpiry(context.Background()); err != nil {
				log.Errorf("[JobQueue Manager] Error enqueuing stale order expiry: %v", err)
			}
		}
	}
}

// counterFlushWorker periodically flushes counters from Redis to DB
func (m *Manager) counterFlushWorker(ticker *time.Ticker, stopCh <-chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if err := m.counters.FlushAll(context.Background()); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

// EnqueueStaleOrderExpiry queues one expiry run with the configured max age.
func (m *Manager) EnqueueStaleOrderExpiry(ctx context.Context) error {
	_, err := m.queue.EnqueueJob(ctx, JobTypeExpireStaleOrders, ExpireStaleOrdersPayload{
		MaxAgeMinutes: int(m.cfg.StaleOrderAge / time.Minute),
	}.ToMap())
	return err
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
