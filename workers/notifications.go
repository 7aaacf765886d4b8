package workers

import (
	"context"
	"strings"
	"sync"
	"time"

	"pregador/mailer"
	"pregador/metrics"

	"go.uber.org/zap"
)

// Dispatcher entrega emails fora do ciclo do request.
// A fila é limitada: Enqueue nunca bloqueia e descarta quando cheia (no máximo uma entrega por email).
type Dispatcher struct {
	mailer      mailer.Mailer
	queue       chan mailer.Email
	workers     int
	maxAttempts int
	timeout     time.Duration
	backoff     time.Duration

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	started bool
}

type DispatcherOptions struct {
	QueueSize   int
	Workers     int
	MaxAttempts int
	Timeout     time.Duration
	Backoff     time.Duration
}

func NewDispatcher(m mailer.Mailer, opts DispatcherOptions) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	return &Dispatcher{
		mailer:      m,
		queue:       make(chan mailer.Email, opts.QueueSize),
		workers:     opts.Workers,
		maxAttempts: opts.MaxAttempts,
		timeout:     opts.Timeout,
		backoff:     opts.Backoff,
	}
}

// Start sobe os workers. Chamadas repetidas são ignoradas.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(ctx)
	}
}

// Enqueue agenda o envio. Retorna false se a fila estiver cheia ou o dispatcher parado.
func (d *Dispatcher) Enqueue(e mailer.Email) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- e:
		return true
	default:
		metrics.NotificationsTotal.WithLabelValues(d.mailer.Provider(), "dropped").Inc()
		return false
	}
}

// Stop fecha a fila e espera os workers drenarem o que já foi aceito.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if started {
		d.wg.Wait()
		d.cancel()
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for e := range d.queue {
		d.deliver(ctx, e)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e mailer.Email) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("notification worker panic recovered", zap.Any("panic", r))
		}
	}()

	provider := d.mailer.Provider()
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := d.mailer.Send(sendCtx, e)
		cancel()
		if err == nil {
			metrics.NotificationsTotal.WithLabelValues(provider, "sent").Inc()
			return
		}

		zap.L().Warn("falha ao enviar notificação",
			zap.String("provider", provider),
			zap.String("to", strings.Join(e.To, ",")),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < d.maxAttempts {
			select {
			case <-time.After(d.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				attempt = d.maxAttempts
			}
		}
	}
	metrics.NotificationsTotal.WithLabelValues(provider, "failed").Inc()
}
