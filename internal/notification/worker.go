package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/store"
)

// queuePerWorker sizes the notice buffer relative to the pool size.
const queuePerWorker = 64

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Notice is one message for every push subscription of a user.
type Notice struct {
	UserID  string
	Message string
}

type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// WorkerPool delivers notices to users' push subscriptions in the background.
type WorkerPool struct {
	size    int
	jobs    chan Notice
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, st store.Store, webpushOptions *webpush.Options) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Notice, size*queuePerWorker),
		store:   st,
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
	log.Printf("Worker %d started", id)
	for {
		select {
		case n := <-wp.jobs:
			wp.sendNotificationsForUser(ctx, n)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a notice, waiting for room in the queue.
func (wp *WorkerPool) Dispatch(n Notice) {
	wp.jobs <- n
}

// Notify queues a notice without blocking. When the queue is full the notice is dropped.
func (wp *WorkerPool) Notify(userID, message string) {
	select {
	case wp.jobs <- Notice{UserID: userID, Message: message}:
	default:
		log.Printf("Notification queue full, dropping notice for user %s", userID)
	}
}

func (wp *WorkerPool) sendNotificationsForUser(ctx context.Context, n Notice) {
	subscriptions, err := wp.store.ListSubscriptionsByUser(ctx, n.UserID)
	if err != nil {
		log.Printf("Error fetching subscriptions for user %s: %v", n.UserID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	body, err := json.Marshal(payload{Title: "Laundry booking", Body: n.Message})
	if err != nil {
		log.Printf("Error encoding notice for user %s: %v", n.UserID, err)
		return
	}

	log.Printf("Sending %d notifications to user %s", len(subscriptions), n.UserID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, body)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, body []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(body, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if _, err := wp.store.DeleteSubscription(ctx, sub.Endpoint, ""); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
