// Package notify implements services.Notifier delivery channels. Channels
// are composed: the engine is handed one notifier that may fan out.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/livefire2015/ez-credit/src/logger"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/livefire2015/ez-credit/src/services"
)

// Log writes notifications to the structured log
type Log struct{}

func (Log) Send(ctx context.Context, n models.Notification) error {
	logger.Info(logger.WithCustomer(ctx, n.CustomerID), "notification sent",
		"type", n.Type,
		"priority", n.Priority,
		"title", n.Title)
	return nil
}

// Saver stores notifications in a customer's inbox
type Saver interface {
	SaveNotification(ctx context.Context, n models.Notification) (*models.NotificationRecord, error)
}

// Inbox persists notifications through a Saver
type Inbox struct {
	saver Saver
}

// NewInbox creates an inbox notifier
func NewInbox(saver Saver) *Inbox {
	return &Inbox{saver: saver}
}

func (i *Inbox) Send(ctx context.Context, n models.Notification) error {
	if _, err := i.saver.SaveNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

// Multi sends to every channel in order. All channels are tried; the
// errors of the failing ones are joined.
type Multi []services.Notifier

func (m Multi) Send(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
