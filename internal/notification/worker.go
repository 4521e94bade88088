package notification

import (
	"context"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"farmtrack-backend/internal/store"
)

// Alert is a push message addressed to every endpoint a user has
// registered.
type Alert struct {
	UserID  uint
	Message string
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool delivers maintenance-due and low-stock alerts in the
// background so request handlers never wait on a push service.
type WorkerPool struct {
	size    int
	jobs    chan Alert
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Alert, size*4),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("alert worker %d started", id)
	for {
		select {
		case alert := <-wp.jobs:
			wp.deliver(ctx, alert)
		case <-ctx.Done():
			log.Printf("alert worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an alert. It never blocks the caller: if the queue
// is full the alert is dropped with a log line.
func (wp *WorkerPool) Dispatch(alert Alert) {
	select {
	case wp.jobs <- alert:
	default:
		log.Printf("alert queue full, dropping alert for user %d", alert.UserID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Alert {
	return wp.jobs
}

// deliver fans the alert out to every subscription the user owns.
func (wp *WorkerPool) deliver(ctx context.Context, alert Alert) {
	subs, err := wp.store.SubscriptionsForUser(ctx, alert.UserID)
	if err != nil {
		log.Printf("error fetching subscriptions for user %d: %v", alert.UserID, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	for _, sub := range subs {
		wpSub := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256DH,
				Auth:   sub.Auth,
			},
		}

		resp, err := wp.sender.Send([]byte(alert.Message), wpSub, wp.webpush)
		if err != nil {
			log.Printf("error sending alert to %s: %v", sub.Endpoint, err)
			continue
		}
		resp.Body.Close()

		// Push services answer 410 for subscriptions that no longer exist.
		if resp.StatusCode == http.StatusGone {
			log.Printf("subscription %s is expired, deleting", sub.Endpoint)
			if err := wp.store.DropEndpoint(ctx, sub.Endpoint); err != nil {
				log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
			}
		}
	}
}
