package logging

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/metrics"
)

// Reasons reported on auth_api_log_entries_dropped_total.
const (
	dropBufferFull  = "buffer_full"
	dropUnreachable = "unreachable"
	dropWriteFailed = "write_failed"
	dropClosed      = "closed"
)

var _ zapcore.WriteSyncer = (*LogstashSink)(nil)

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// sinkItem is either an encoded entry or, when ack is set, a flush marker.
type sinkItem struct {
	data []byte
	ack  chan struct{}
}

// LogstashSink queues zap JSON entries in a bounded buffer and ships them to
// a Logstash TCP input from a single goroutine. Write never touches the
// network: a full buffer or an unreachable Logstash costs a dropped entry and
// a metric increment, never request latency.
type LogstashSink struct {
	addr          string
	bufferSize    int
	dialTimeout   time.Duration
	writeTimeout  time.Duration
	retryInterval time.Duration
	flushTimeout  time.Duration
	dial          dialFunc

	mu      sync.RWMutex
	closed  bool
	entries chan sinkItem
	done    chan struct{}

	// Owned by run.
	conn      net.Conn
	nextRetry time.Time
}

// Option configures a LogstashSink.
type Option func(*LogstashSink)

// WithBufferSize bounds the number of queued entries. Defaults to 1024.
func WithBufferSize(n int) Option {
	return func(s *LogstashSink) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithDialTimeout overrides the TCP dial timeout. Defaults to 2 seconds.
func WithDialTimeout(d time.Duration) Option {
	return func(s *LogstashSink) {
		s.dialTimeout = d
	}
}

// WithWriteTimeout overrides the per-entry TCP write deadline. Defaults to 1 second.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *LogstashSink) {
		s.writeTimeout = d
	}
}

// WithRetryInterval sets how long the sink waits after a failed connect or
// write before dialing again. Defaults to 5 seconds.
func WithRetryInterval(d time.Duration) Option {
	return func(s *LogstashSink) {
		s.retryInterval = d
	}
}

// WithFlushTimeout bounds how long Sync and Close wait for the queue to drain.
// Defaults to 3 seconds.
func WithFlushTimeout(d time.Duration) Option {
	return func(s *LogstashSink) {
		s.flushTimeout = d
	}
}

func withDialer(dial dialFunc) Option {
	return func(s *LogstashSink) {
		s.dial = dial
	}
}

// NewLogstashSink starts the shipping goroutine. Close stops it.
func NewLogstashSink(addr string, opts ...Option) (*LogstashSink, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("logstash: empty address")
	}

	s := &LogstashSink{
		addr:          addr,
		bufferSize:    1024,
		dialTimeout:   2 * time.Second,
		writeTimeout:  time.Second,
		retryInterval: 5 * time.Second,
		flushTimeout:  3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dial == nil {
		dialer := &net.Dialer{Timeout: s.dialTimeout}
		s.dial = dialer.DialContext
	}

	s.entries = make(chan sinkItem, s.bufferSize)
	s.done = make(chan struct{})
	go s.run()
	return s, nil
}

// Write queues one encoded entry. zap reuses p after Write returns, so the
// entry is copied first.
func (s *LogstashSink) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data := make([]byte, len(p), len(p)+1)
	copy(data, p)
	if data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		metrics.LogEntriesDroppedTotal.WithLabelValues(dropClosed).Inc()
		return 0, io.ErrClosedPipe
	}

	select {
	case s.entries <- sinkItem{data: data}:
	default:
		metrics.LogEntriesDroppedTotal.WithLabelValues(dropBufferFull).Inc()
	}
	return len(p), nil
}

// Sync waits until every entry queued before the call has been sent or
// dropped, or until the flush timeout passes.
func (s *LogstashSink) Sync() error {
	ack := make(chan struct{})
	timer := time.NewTimer(s.flushTimeout)
	defer timer.Stop()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil
	}
	select {
	case s.entries <- sinkItem{ack: ack}:
		s.mu.RUnlock()
	case <-timer.C:
		s.mu.RUnlock()
		return errors.New("logstash: flush timed out")
	}

	select {
	case <-ack:
		return nil
	case <-timer.C:
		return errors.New("logstash: flush timed out")
	}
}

// Close drains what is already queued, within the flush timeout, and closes
// the connection. Later writes fail with io.ErrClosedPipe.
func (s *LogstashSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.entries)
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-time.After(s.flushTimeout):
		return errors.New("logstash: close timed out")
	}
}

func (s *LogstashSink) run() {
	defer close(s.done)
	for item := range s.entries {
		if item.ack != nil {
			close(item.ack)
			continue
		}
		s.send(item.data)
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *LogstashSink) send(data []byte) {
	if err := s.connect(); err != nil {
		metrics.LogEntriesDroppedTotal.WithLabelValues(dropUnreachable).Inc()
		return
	}
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if _, err := s.conn.Write(data); err != nil {
		_ = s.conn.Close()
		s.conn = nil
		s.backoff()
		metrics.LogEntriesDroppedTotal.WithLabelValues(dropWriteFailed).Inc()
	}
}

func (s *LogstashSink) connect() error {
	if s.conn != nil {
		return nil
	}
	if !s.nextRetry.IsZero() && time.Now().Before(s.nextRetry) {
		return errRetryCooldown
	}

	ctx := context.Background()
	if s.dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.dialTimeout)
		defer cancel()
	}
	conn, err := s.dial(ctx, "tcp", s.addr)
	if err != nil {
		s.backoff()
		return err
	}
	s.conn = conn
	s.nextRetry = time.Time{}
	return nil
}

func (s *LogstashSink) backoff() {
	if s.retryInterval <= 0 {
		s.nextRetry = time.Time{}
		return
	}
	s.nextRetry = time.Now().Add(s.retryInterval)
}

var errRetryCooldown = errors.New("logstash: retry cooldown in effect")
