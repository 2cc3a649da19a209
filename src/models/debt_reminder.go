package models

// ReminderLevel escalates with the number of days an invoice is overdue
type ReminderLevel string

const (
	ReminderLevelFirst  ReminderLevel = "FIRST"
	ReminderLevelSecond ReminderLevel = "SECOND"
	ReminderLevelFinal  ReminderLevel = "FINAL"
)

// DefaultReminderDays are the overdue day counts on which reminders go out
var DefaultReminderDays = []int{1, 7, 15, 30}

// ReminderLevelFor returns the level for a given overdue day count
func ReminderLevelFor(daysOverdue int) ReminderLevel {
	switch {
	case daysOverdue >= 30:
		return ReminderLevelFinal
	case daysOverdue >= 15:
		return ReminderLevelSecond
	default:
		return ReminderLevelFirst
	}
}

// Sequence returns the 1-based ordinal of the reminder
func (l ReminderLevel) Sequence() int {
	switch l {
	case ReminderLevelSecond:
		return 2
	case ReminderLevelFinal:
		return 3
	default:
		return 1
	}
}

// Priority maps the level to a notification priority
func (l ReminderLevel) Priority() NotificationPriority {
	if l == ReminderLevelFinal {
		return PriorityHigh
	}
	return PriorityMedium
}

// ReminderRunResult summarises a reminder run
type ReminderRunResult struct {
	RemindersProcessed int                  `json:"reminders_processed"`
	RemindersSent      int                  `json:"reminders_sent"`
	Holds              *CreditHoldRunResult `json:"holds,omitempty"`
}
