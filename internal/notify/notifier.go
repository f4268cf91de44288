// Package notify отправляет транзакционные письма в фоне.
// Ошибки доставки логируются и никогда не доходят до HTTP-обработчиков.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultQueueSize   = 256
	defaultMaxAttempts = 3
	defaultBackoff     = 2 * time.Second
	sendTimeout        = 30 * time.Second
)

type Message struct {
	To      string
	Name    string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Options struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
}

// Notifier очередь писем с фиксированным числом воркеров.
// Переполненная очередь отбрасывает письмо, а не блокирует запрос.
type Notifier struct {
	mailer      Mailer
	queue       chan Message
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewNotifier(mailer Mailer, logger *slog.Logger, opts Options) *Notifier {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if logger == nil {
		logger = slog.Default()
	}

	n := &Notifier{
		mailer:      mailer,
		queue:       make(chan Message, opts.QueueSize),
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		logger:      logger.With("component", "notify"),
	}
	for i := 0; i < opts.Workers; i++ {
		n.wg.Add(1)
		go n.worker()
	}
	return n
}

// Enqueue возвращает false, если письмо отброшено
func (n *Notifier) Enqueue(msg Message) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.logger.Warn("notifier closed, dropping email", "to", msg.To, "subject", msg.Subject)
		return false
	}

	select {
	case n.queue <- msg:
		return true
	default:
		n.logger.Warn("email queue full, dropping email", "to", msg.To, "subject", msg.Subject)
		return false
	}
}

func (n *Notifier) Welcome(email, name string) {
	n.Enqueue(Message{
		To:      email,
		Name:    name,
		Subject: "Welcome to the Task App",
		Text:    fmt.Sprintf("Welcome %s. Let us know what you feel about the app", name),
	})
}

func (n *Notifier) Goodbye(email, name string) {
	n.Enqueue(Message{
		To:      email,
		Name:    name,
		Subject: "GoodBye",
		Text:    fmt.Sprintf("Thank you %s for using the App. We hope to have you back soon", name),
	})
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for msg := range n.queue {
		n.deliver(msg)
	}
}

func (n *Notifier) deliver(msg Message) {
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := n.mailer.Send(ctx, msg)
		cancel()
		if err == nil {
			return
		}

		n.logger.Warn("email send failed",
			"to", msg.To, "subject", msg.Subject, "attempt", attempt, "error", err)
		if attempt < n.maxAttempts {
			time.Sleep(time.Duration(attempt) * n.backoff)
		}
	}
	n.logger.Error("email dropped after retries", "to", msg.To, "subject", msg.Subject)
}

// Close перестаёт принимать письма и ждёт, пока очередь разойдётся
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("notifier drain interrupted"), ctx.Err())
	}
}
