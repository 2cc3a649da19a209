package services

import (
	"context"
	"fmt"
	"time"

	"github.com/livefire2015/ez-credit/src/logger"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/shopspring/decimal"
)

// DebtReminderService sends overdue reminders and then enforces credit holds
type DebtReminderService struct {
	invoices     InvoiceRepository
	notifier     Notifier
	holds        *CreditHoldService
	reminderDays map[int]struct{}
	now          func() time.Time
}

// NewDebtReminderService creates a reminder service. An empty reminderDays
// falls back to models.DefaultReminderDays.
func NewDebtReminderService(invoices InvoiceRepository, notifier Notifier, holds *CreditHoldService, reminderDays []int) *DebtReminderService {
	if len(reminderDays) == 0 {
		reminderDays = models.DefaultReminderDays
	}
	days := make(map[int]struct{}, len(reminderDays))
	for _, d := range reminderDays {
		days[d] = struct{}{}
	}
	return &DebtReminderService{
		invoices:     invoices,
		notifier:     notifier,
		holds:        holds,
		reminderDays: days,
		now:          time.Now,
	}
}

// ProcessReminders is the daily reminder job. Reminders go out only on the
// configured overdue days; a failed delivery counts as not sent.
func (s *DebtReminderService) ProcessReminders(ctx context.Context) (*models.ReminderRunResult, error) {
	ctx = logger.WithJob(ctx, "debt-reminders")
	now := s.now()

	invoices, err := s.invoices.ListInvoices(ctx, models.InvoiceFilter{
		Types:    []models.InvoiceType{models.InvoiceTypeSales},
		Statuses: models.DebtInvoiceStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue invoices: %w", err)
	}

	result := &models.ReminderRunResult{}
	for i := range invoices {
		inv := &invoices[i]
		if !inv.IsOverdue(now) || inv.BalanceAmount.LessThanOrEqual(decimal.Zero) {
			continue
		}

		days := models.OverdueDays(*inv.DueDate, now)
		if _, due := s.reminderDays[days]; !due {
			continue
		}

		result.RemindersProcessed++
		if s.sendReminder(logger.WithCustomer(ctx, inv.CustomerID), inv, days) {
			result.RemindersSent++
		}
	}

	if s.holds != nil {
		holds, err := s.holds.AutoUpdateCreditHolds(ctx)
		if err != nil {
			return result, err
		}
		result.Holds = holds
	}

	logger.Info(ctx, "debt reminders processed",
		"processed", result.RemindersProcessed,
		"sent", result.RemindersSent)

	return result, nil
}

func (s *DebtReminderService) sendReminder(ctx context.Context, inv *models.Invoice, daysOverdue int) bool {
	if s.notifier == nil {
		return false
	}

	level := models.ReminderLevelFor(daysOverdue)
	err := s.notifier.Send(ctx, models.Notification{
		Type:       models.NotificationTypeDebtReminder,
		Priority:   level.Priority(),
		CustomerID: inv.CustomerID,
		Title:      fmt.Sprintf("Debt reminder #%d", level.Sequence()),
		Message: fmt.Sprintf("Invoice %s is %d days overdue. Amount due: %s",
			inv.InvoiceNumber, daysOverdue, FormatVND(inv.BalanceAmount)),
		Data: map[string]interface{}{
			"invoiceId":   inv.ID.String(),
			"customerId":  inv.CustomerID.String(),
			"daysOverdue": daysOverdue,
			"level":       string(level),
		},
	})
	if err != nil {
		logger.Warn(ctx, "debt reminder not delivered",
			"invoice", inv.InvoiceNumber,
			"error", err)
		return false
	}
	return true
}
