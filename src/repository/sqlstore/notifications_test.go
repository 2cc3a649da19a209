package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/livefire2015/ez-credit/src/notify"
)

var _ notify.Saver = (*Store)(nil)

func TestNotificationInbox(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	customer := createCustomer(t, store, "Binh Minh Builders", models.CustomerTypeContractor)

	reminder := models.Notification{
		Type:       models.NotificationTypeDebtReminder,
		Priority:   models.PriorityMedium,
		CustomerID: customer.ID,
		Title:      "Payment reminder",
		Message:    "Invoice INV-001 is 7 days overdue",
		Data:       map[string]interface{}{"invoiceNumber": "INV-001", "daysOverdue": 7},
	}
	first, err := store.SaveNotification(ctx, reminder)
	if err != nil {
		t.Fatalf("SaveNotification() error = %v", err)
	}

	store.now = func() time.Time { return now.Add(time.Hour) }
	hold := models.Notification{
		Type:       models.NotificationTypeCreditHold,
		Priority:   models.PriorityHigh,
		CustomerID: customer.ID,
		Title:      "Account locked",
		Message:    "Overdue 45 days",
	}
	if _, err := store.SaveNotification(ctx, hold); err != nil {
		t.Fatalf("SaveNotification() error = %v", err)
	}

	records, err := store.ListNotifications(ctx, customer.ID, 0)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(records) != 2 || records[0].Type != models.NotificationTypeCreditHold {
		t.Fatalf("Expected the hold notice first, got %+v", records)
	}
	if records[0].Data != nil {
		t.Errorf("Expected no data on the hold notice, got %v", records[0].Data)
	}
	got := records[1]
	if got.ID != first.ID || got.IsRead || !got.CreatedAt.Equal(now) {
		t.Errorf("Unexpected reminder record: %+v", got)
	}
	// JSON numbers decode as float64
	if got.Data["invoiceNumber"] != "INV-001" || got.Data["daysOverdue"] != float64(7) {
		t.Errorf("Data not preserved: %v", got.Data)
	}

	limited, _ := store.ListNotifications(ctx, customer.ID, 1)
	if len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %d", len(limited))
	}
	if none, _ := store.ListNotifications(ctx, uuid.New(), 0); len(none) != 0 {
		t.Errorf("Expected no notifications for another customer, got %d", len(none))
	}

	if err := store.MarkNotificationRead(ctx, first.ID); err != nil {
		t.Fatalf("MarkNotificationRead() error = %v", err)
	}
	records, _ = store.ListNotifications(ctx, customer.ID, 0)
	if !records[1].IsRead || records[0].IsRead {
		t.Errorf("Expected only the reminder to be read: %+v", records)
	}
	if err := store.MarkNotificationRead(ctx, uuid.New()); !errors.Is(err, models.ErrRecordNotFound) {
		t.Errorf("Expected record not found, got %v", err)
	}
}
