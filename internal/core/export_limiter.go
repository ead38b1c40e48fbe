package core

// export_limiter.go bounds the number of CSV exports streaming at once.
//
// An export holds a database connection until its last row is written, so
// the server hands out a fixed number of export slots. A request waits up to
// maxWait for a slot and then fails with ErrTooManyExports, which the API
// maps to 503 with Retry-After. Running exports are tracked per table so
// health checks and shutdown logs can say what is still streaming.

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrTooManyExports is returned when every export slot stays busy for the
// whole wait. Clients should retry after a short delay.
var ErrTooManyExports = errors.New("too many exports in progress, please try again later")

const (
	// DefaultMaxConcurrentExports is used when the configured limit is not positive.
	DefaultMaxConcurrentExports = 3

	// DefaultMaxWaitTime is used when the configured wait is not positive.
	DefaultMaxWaitTime = 30 * time.Second
)

// ExportLimiter hands out export slots and tracks the exports holding them.
type ExportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	now     func() time.Time

	mu      sync.Mutex
	nextID  uint64
	running map[uint64]runningExport
	idle    chan struct{} // closed while no export runs
}

type runningExport struct {
	table   string
	started time.Time
}

// NewExportLimiter creates a limiter with maxConcurrent slots.
func NewExportLimiter(maxConcurrent int, maxWait time.Duration) *ExportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentExports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	idle := make(chan struct{})
	close(idle)

	return &ExportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		now:     time.Now,
		running: make(map[uint64]runningExport),
		idle:    idle,
	}
}

// Acquire waits for a slot to export table. The returned release frees the
// slot and may be called more than once. When ctx ends first its error is
// returned; when maxWait passes first, ErrTooManyExports.
func (l *ExportLimiter) Acquire(ctx context.Context, table string) (release func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return l.start(table), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTooManyExports
	}
}

// TryAcquire takes a slot for table only if one is free right now.
func (l *ExportLimiter) TryAcquire(table string) (release func(), ok bool) {
	select {
	case l.slots <- struct{}{}:
		return l.start(table), true
	default:
		return nil, false
	}
}

func (l *ExportLimiter) start(table string) func() {
	l.mu.Lock()
	if len(l.running) == 0 {
		l.idle = make(chan struct{})
	}
	l.nextID++
	id := l.nextID
	l.running[id] = runningExport{table: table, started: l.now()}
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.finish(id) })
	}
}

func (l *ExportLimiter) finish(id uint64) {
	l.mu.Lock()
	delete(l.running, id)
	if len(l.running) == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

// Active returns the number of exports holding a slot.
func (l *ExportLimiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.running)
}

// MaxConcurrent returns the number of slots.
func (l *ExportLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no export runs or ctx ends.
func (l *ExportLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExportLimiterStatus is a snapshot of the running exports.
type ExportLimiterStatus struct {
	Active        int            `json:"active"`
	Available     int            `json:"available"`
	MaxConcurrent int            `json:"max_concurrent"`
	Tables        []string       `json:"tables,omitempty"`
	ByTable       map[string]int `json:"by_table,omitempty"`
	OldestStarted time.Time      `json:"oldest_started,omitzero"`
}

// Status reports what is exporting right now. Tables lists each exporting
// table once, sorted.
func (l *ExportLimiter) Status() ExportLimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := ExportLimiterStatus{
		Active:        len(l.running),
		Available:     cap(l.slots) - len(l.running),
		MaxConcurrent: cap(l.slots),
	}
	if len(l.running) == 0 {
		return st
	}

	st.ByTable = make(map[string]int)
	for _, run := range l.running {
		if st.ByTable[run.table] == 0 {
			st.Tables = append(st.Tables, run.table)
		}
		st.ByTable[run.table]++
		if st.OldestStarted.IsZero() || run.started.Before(st.OldestStarted) {
			st.OldestStarted = run.started
		}
	}
	sort.Strings(st.Tables)
	return st
}
