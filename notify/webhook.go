package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/logging"
)

const (
	defaultWebhookTimeout = 5 * time.Second
	defaultWebhookQueue   = 64
)

var (
	// ErrQueueFull is returned when a delivery is dropped because the queue is full.
	ErrQueueFull = errors.New("webhook queue full")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("webhook notifier closed")
)

var _ core.Notifier = (*WebhookNotifier)(nil)

// WebhookOptions configures a WebhookNotifier.
type WebhookOptions struct {
	URL    string
	Secret string
	// Events limits deliveries to these event types; empty delivers all.
	Events     []string
	Timeout    time.Duration
	QueueSize  int
	HTTPClient *http.Client
	Logger     logging.Logger
}

// WebhookNotifier posts notifications as JSON to a URL from a background
// goroutine. Notify calls never block; deliveries are dropped when the
// queue is full.
type WebhookNotifier struct {
	opts   WebhookOptions
	filter eventFilter
	queue  chan webhookEvent
	quit   chan struct{}
	done   chan struct{}

	// mu orders queue sends before close(quit); senders hold it shared.
	mu     sync.RWMutex
	closed bool
}

type webhookEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	ProjectID string          `json:"project_id"`
	TS        string          `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

// NewWebhookNotifier creates a WebhookNotifier and starts its dispatcher.
// Call Close to flush queued deliveries and stop it.
func NewWebhookNotifier(url string, optFns ...func(o *WebhookOptions)) *WebhookNotifier {
	opts := WebhookOptions{
		URL:       url,
		Timeout:   defaultWebhookTimeout,
		QueueSize: defaultWebhookQueue,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultWebhookQueue
	}
	w := &WebhookNotifier{
		opts:   opts,
		filter: newEventFilter(opts.Events),
		queue:  make(chan webhookEvent, opts.QueueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// NotifyOutlineReady implements core.Notifier.
func (w *WebhookNotifier) NotifyOutlineReady(_ context.Context, projectID string, outline *core.Outline) error {
	return w.enqueue(EventOutlineReady, projectID, outline)
}

// NotifySectionReady implements core.Notifier.
func (w *WebhookNotifier) NotifySectionReady(_ context.Context, projectID string, section core.Section) error {
	return w.enqueue(EventSectionReady, projectID, section)
}

// GetFeedback implements core.Notifier; webhooks are outbound only.
func (w *WebhookNotifier) GetFeedback(context.Context, string) (string, error) { return "", nil }

// Close stops accepting notifications, delivers what is queued and waits
// for the dispatcher to exit or ctx to end.
func (w *WebhookNotifier) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.quit)
	}
	w.mu.Unlock()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *WebhookNotifier) enqueue(eventType, projectID string, payload any) error {
	if !w.filter.match(eventType) {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	evt := webhookEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		ProjectID: projectID,
		TS:        time.Now().UTC().Format(time.RFC3339),
		Payload:   data,
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case w.queue <- evt:
		return nil
	default:
		w.opts.Logger.Warn("webhook: queue full, dropping event", "type", eventType, "project_id", projectID)
		return ErrQueueFull
	}
}

func (w *WebhookNotifier) run() {
	defer close(w.done)
	for {
		select {
		case evt := <-w.queue:
			w.deliver(evt)
		case <-w.quit:
			for {
				select {
				case evt := <-w.queue:
					w.deliver(evt)
				default:
					return
				}
			}
		}
	}
}

func (w *WebhookNotifier) deliver(evt webhookEvent) {
	if err := w.post(context.Background(), evt); err != nil {
		w.opts.Logger.Error("webhook: delivery failed", "url", w.opts.URL, "type", evt.Type, "error", err)
		return
	}
	w.opts.Logger.Debug("webhook: delivered", "type", evt.Type, "project_id", evt.ProjectID)
}

func (w *WebhookNotifier) post(ctx context.Context, evt webhookEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.opts.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tendermesh-Event", evt.Type)
	req.Header.Set("X-Tendermesh-Delivery", evt.ID)
	req.Header.Set("X-Tendermesh-Project", evt.ProjectID)
	if strings.TrimSpace(w.opts.Secret) != "" {
		req.Header.Set("X-Tendermesh-Secret", w.opts.Secret)
	}
	res, err := w.opts.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

type eventFilter struct {
	all bool
	set map[string]struct{}
}

func newEventFilter(events []string) eventFilter {
	set := make(map[string]struct{}, len(events))
	for _, evt := range events {
		if key := strings.TrimSpace(evt); key != "" {
			set[key] = struct{}{}
		}
	}
	if len(set) == 0 {
		return eventFilter{all: true}
	}
	return eventFilter{set: set}
}

func (f eventFilter) match(evt string) bool {
	if f.all {
		return true
	}
	_, ok := f.set[evt]
	return ok
}
