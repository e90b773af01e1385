package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"laundry-booking-backend/internal/booking"
	"laundry-booking-backend/internal/store"
)

var _ booking.Notifier = (*WorkerPool)(nil)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestStore(t *testing.T) (store.Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return store.NewGormStore(gormDB), mock
}

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	st, _ := newTestStore(t)
	wp := NewWorkerPool(1, st, &webpush.Options{})

	wp.Dispatch(Notice{UserID: "u1", Message: "hello"})

	select {
	case job := <-wp.jobs:
		assert.Equal(t, "u1", job.UserID)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_NotifyDoesNotBlock(t *testing.T) {
	st, _ := newTestStore(t)
	wp := NewWorkerPool(1, st, &webpush.Options{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 2*queuePerWorker; i++ {
			wp.Notify("u1", "hello")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	assert.Len(t, wp.jobs, queuePerWorker)
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	st, mock := newTestStore(t)
	wp := NewWorkerPool(1, st, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("sends notification to each subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(2)

		var mu sync.Mutex
		var endpoints []string
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				defer wg.Done()
				assert.JSONEq(t, `{"title":"Laundry booking","body":"Your booking was canceled."}`, string(payload))
				mu.Lock()
				endpoints = append(endpoints, sub.Endpoint)
				mu.Unlock()
				return response(http.StatusCreated), nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "user_id", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/a", "u1", "k1", "a1", time.Now()).
				AddRow("https://example.com/b", "u1", "k2", "a2", time.Now()))

		wp.sendNotificationsForUser(ctx, Notice{UserID: "u1", Message: "Your booking was canceled."})
		wg.Wait()
		assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, endpoints)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return response(http.StatusGone), nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs("u2").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "user_id", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/expired", "u2", "k", "a", time.Now()))
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE endpoint = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		wp.sendNotificationsForUser(ctx, Notice{UserID: "u2", Message: "bye"})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user without subscriptions sends nothing", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Error("unexpected send")
				return response(http.StatusCreated), nil
			},
		}
		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs("u3").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "user_id", "p256dh", "auth", "created_at"}))

		wp.sendNotificationsForUser(ctx, Notice{UserID: "u3", Message: "x"})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWorkerPool_StartDeliversQueuedNotices(t *testing.T) {
	st, mock := newTestStore(t)
	wp := NewWorkerPool(1, st, &webpush.Options{})

	delivered := make(chan string, 1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			delivered <- sub.Endpoint
			return response(http.StatusCreated), nil
		},
	}
	mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "user_id", "p256dh", "auth", "created_at"}).
			AddRow("https://example.com/a", "u1", "k1", "a1", time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)
	wp.Notify("u1", "hello")

	select {
	case endpoint := <-delivered:
		assert.Equal(t, "https://example.com/a", endpoint)
	case <-time.After(2 * time.Second):
		t.Fatal("notice was never delivered")
	}
}
