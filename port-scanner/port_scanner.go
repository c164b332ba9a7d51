package port_scanner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

var ErrIncompleteScan = errors.New("scan finished with unreported ports")

// newPool builds the worker pool for a scan.
var newPool = func(size int, opts ...ants.Option) (*ants.Pool, error) {
	return ants.NewPool(size, opts...)
}

// PortScanner probes every port of a single IPv4 target once, using a
// fixed-size worker pool and one TCP connect attempt per port.
type PortScanner struct {
	Concurrency int           // Maximum connect attempts in flight.
	Timeout     time.Duration // Timeout per connect attempt.
	Deadline    time.Duration // Overall scan deadline, zero disables it.

	// Dialer performs the connect attempts. Defaults to a net.Dialer.
	Dialer Dialer
}

// New returns a *PortScanner with default settings.
func New() *PortScanner {
	return &PortScanner{
		Concurrency: DefaultConcurrency,
		Timeout:     time.Millisecond * DefaultTimeout,
	}
}

// Configure configures the scanner.
func (ps *PortScanner) Configure(cfg Config) {
	ps.Concurrency = cfg.Concurrency
	if ps.Concurrency == 0 {
		ps.Concurrency = DefaultConcurrency
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ps.Timeout = time.Millisecond * time.Duration(timeout)

	ps.Deadline = 0
	if cfg.Deadline > 0 {
		ps.Deadline = time.Millisecond * time.Duration(cfg.Deadline)
	}
}

// Config returns the current settings in their user-facing form.
func (ps *PortScanner) Config() Config {
	return Config{
		Concurrency: ps.Concurrency,
		Timeout:     int(ps.Timeout / time.Millisecond),
		Deadline:    int(ps.Deadline / time.Millisecond),
	}
}

func (ps *PortScanner) dialer() Dialer {
	if ps.Dialer != nil {
		return ps.Dialer
	}
	return &net.Dialer{KeepAlive: -1}
}

func (ps *PortScanner) timeout() time.Duration {
	if ps.Timeout <= 0 {
		return time.Millisecond * DefaultTimeout
	}
	return ps.Timeout
}

// probe performs a single connect attempt and releases the connection at once.
func (ps *PortScanner) probe(ctx context.Context, dialer Dialer, target netip.Addr, port uint16) Outcome {
	address := netip.AddrPortFrom(target, port).String()

	dialCtx, cancelDial := context.WithTimeout(ctx, ps.timeout())
	defer cancelDial()

	startTime := time.Now()
	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	duration := time.Since(startTime)

	if err != nil {
		logrus.Tracef("Port %d non-open (error: %v, in %v)", port, err, duration)
		return NonOpen
	}
	_ = conn.Close()
	logrus.Debugf("Port %d open (in %v)", port, duration)
	return Open
}

// worker pulls ports from the queue until it is drained and reports exactly
// one outcome per port. Once ctx is done, remaining ports are reported
// non-open without a connect attempt.
func (ps *PortScanner) worker(ctx context.Context, dialer Dialer, target netip.Addr, queue <-chan uint16, open, nonOpen chan<- uint16, wg *sync.WaitGroup) {
	defer wg.Done()
	for port := range queue {
		if ctx.Err() != nil {
			nonOpen <- port
			continue
		}
		switch ps.probe(ctx, dialer, target, port) {
		case Open:
			open <- port
		default:
			nonOpen <- port
		}
	}
}

// Scan attempts a TCP connect to every port of target exactly once. Per-port
// failures are classified as NonOpen; an error is returned only for invalid
// arguments or when the worker pool cannot be established.
func (ps *PortScanner) Scan(ctx context.Context, target netip.Addr, ports []uint16) (*ScanResult, error) {
	if !target.Is4() {
		return nil, ErrInvalidTarget
	}
	if ps.Concurrency < 1 {
		return nil, ErrInvalidConcurrency
	}
	if len(ports) == 0 {
		return &ScanResult{OpenPorts: []uint16{}, NonOpenPorts: []uint16{}}, nil
	}

	if ps.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ps.Deadline)
		defer cancel()
	}

	workers := min(ps.Concurrency, len(ports))
	pool, err := newPool(workers,
		ants.WithLogger(logrus.StandardLogger()),
		ants.WithPanicHandler(func(p any) {
			logrus.Errorf("Port scan worker panicked: %v", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPoolUnavailable, err)
	}
	defer pool.Release()

	logrus.Infof("Starting TCP connect scan on %s (%d ports, %d workers)", target, len(ports), workers)

	// Pre-load the work queue so every port is delivered exactly once.
	queue := make(chan uint16, len(ports))
	for _, port := range ports {
		queue <- port
	}
	close(queue)

	// Buffered to the input size, workers never block on reporting.
	open := make(chan uint16, len(ports))
	nonOpen := make(chan uint16, len(ports))
	dialer := ps.dialer()

	var wg sync.WaitGroup
	started := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		task := func() {
			ps.worker(ctx, dialer, target, queue, open, nonOpen, &wg)
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			logrus.Warnf("Couldn't start worker %d: %v", i, err)
			continue
		}
		started++
	}
	if started == 0 {
		return nil, fmt.Errorf("%w: no worker could be started", ErrPoolUnavailable)
	}

	// Join barrier: no outcome can arrive after this point.
	wg.Wait()
	close(open)
	close(nonOpen)

	if ctx.Err() != nil {
		logrus.Warnf("Scan of %s stopped early (%v), unscanned ports classified non-open", target, ctx.Err())
	}

	result := Aggregate(open, nonOpen)
	if result.Total() != len(ports) {
		return nil, fmt.Errorf("%w: %d of %d ports classified", ErrIncompleteScan, result.Total(), len(ports))
	}
	logrus.Infof("Open ports on %s: %v", target, result.OpenPorts)

	return result, nil
}
