// Package memory keeps every engine table in process memory. It applies the
// same optimistic locking rules as the SQL store and is meant for demos,
// tests and single-process tooling.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
)

// Store is a concurrency-safe in-memory repository
type Store struct {
	mu             sync.RWMutex
	customers      map[uuid.UUID]models.Customer
	invoices       map[uuid.UUID]models.Invoice
	orders         map[uuid.UUID]models.Order
	configurations map[string]models.DebtConfiguration // keyed by name
	approvals      map[uuid.UUID]models.CreditApproval

	now func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		customers:      make(map[uuid.UUID]models.Customer),
		invoices:       make(map[uuid.UUID]models.Invoice),
		orders:         make(map[uuid.UUID]models.Order),
		configurations: make(map[string]models.DebtConfiguration),
		approvals:      make(map[uuid.UUID]models.CreditApproval),
		now:            time.Now,
	}
}

// AddCustomer inserts or replaces a customer as-is, including its version
func (s *Store) AddCustomer(c models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.customers[c.ID] = c
}

// AddInvoice inserts or replaces an invoice
func (s *Store) AddInvoice(inv models.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	s.invoices[inv.ID] = inv
}

// AddOrder inserts or replaces an order
func (s *Store) AddOrder(o models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	s.orders[o.ID] = o
}

// GetCustomer returns a copy of the stored customer
func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &c, nil
}

// ListCustomers returns customers ordered by creation time
func (s *Store) ListCustomers(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if c.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		if filter.CustomerType != nil && c.CustomerType != *filter.CustomerType {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

// UpdateCreditSnapshot writes the cached credit check figures
func (s *Store) UpdateCreditSnapshot(ctx context.Context, update models.CreditSnapshotUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.lockedCustomer(update.CustomerID, update.ExpectedVersion)
	if err != nil {
		return err
	}
	checkedAt := update.CheckedAt
	c.OverdueAmount = update.OverdueAmount
	c.MaxOverdueDays = update.MaxOverdueDays
	c.LastCreditCheck = &checkedAt
	s.bump(&c)
	return nil
}

// SetCreditHold sets or clears the credit hold flag
func (s *Store) SetCreditHold(ctx context.Context, id uuid.UUID, expectedVersion int64, hold bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.lockedCustomer(id, expectedVersion)
	if err != nil {
		return err
	}
	c.CreditHold = hold
	s.bump(&c)
	return nil
}

// lockedCustomer must be called with the write lock held
func (s *Store) lockedCustomer(id uuid.UUID, expectedVersion int64) (models.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return models.Customer{}, models.ErrRecordNotFound
	}
	if c.Version != expectedVersion {
		return models.Customer{}, models.ErrVersionConflict
	}
	return c, nil
}

func (s *Store) bump(c *models.Customer) {
	c.Version++
	c.UpdatedAt = s.now()
	s.customers[c.ID] = *c
}

// ListInvoices returns matching invoices ordered by creation time
func (s *Store) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Invoice
	for _, inv := range s.invoices {
		if filter.Matches(&inv) {
			result = append(result, inv)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

// ListOrders returns matching orders newest first
func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Order
	for _, o := range s.orders {
		if filter.Matches(&o) {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// GetActiveDebtConfiguration returns the active row with the given name, or
// the first active row by name when name is empty
func (s *Store) GetActiveDebtConfiguration(ctx context.Context, name string) (*models.DebtConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name != "" {
		cfg, ok := s.configurations[name]
		if !ok || !cfg.IsActive {
			return nil, models.ErrRecordNotFound
		}
		return &cfg, nil
	}

	for _, cfg := range s.sortedConfigurations() {
		if cfg.IsActive {
			return &cfg, nil
		}
	}
	return nil, models.ErrRecordNotFound
}

// ListDebtConfigurations returns all rows ordered by name
func (s *Store) ListDebtConfigurations(ctx context.Context) ([]models.DebtConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedConfigurations(), nil
}

// SaveDebtConfiguration upserts a row by name
func (s *Store) SaveDebtConfiguration(ctx context.Context, cfg *models.DebtConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.configurations[cfg.Name]; ok {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
	} else {
		if cfg.ID == uuid.Nil {
			cfg.ID = uuid.New()
		}
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	s.configurations[cfg.Name] = *cfg
	return nil
}

func (s *Store) sortedConfigurations() []models.DebtConfiguration {
	result := make([]models.DebtConfiguration, 0, len(s.configurations))
	for _, cfg := range s.configurations {
		result = append(result, cfg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// CreateApproval stores a new approval request
func (s *Store) CreateApproval(ctx context.Context, approval *models.CreditApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if approval.ID == uuid.Nil {
		approval.ID = uuid.New()
	}
	s.approvals[approval.ID] = *approval
	return nil
}

// GetApproval returns a copy of the stored approval
func (s *Store) GetApproval(ctx context.Context, id uuid.UUID) (*models.CreditApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.approvals[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &a, nil
}

// UpdateApprovalDecision records a decision on a still pending approval
func (s *Store) UpdateApprovalDecision(ctx context.Context, approval *models.CreditApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.approvals[approval.ID]
	if !ok {
		return models.ErrRecordNotFound
	}
	if stored.Status != models.ApprovalStatusPending {
		return models.ErrVersionConflict
	}
	stored.Status = approval.Status
	stored.ApprovedBy = approval.ApprovedBy
	stored.ApprovedAt = approval.ApprovedAt
	stored.RejectedReason = approval.RejectedReason
	stored.UpdatedAt = approval.UpdatedAt
	s.approvals[approval.ID] = stored
	return nil
}

// FindActiveApproval returns the approved grant that expires last, if any
// is still in force at now
func (s *Store) FindActiveApproval(ctx context.Context, customerID uuid.UUID, now time.Time) (*models.CreditApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *models.CreditApproval
	for _, a := range s.approvals {
		if a.CustomerID != customerID || !a.IsActiveGrant(now) {
			continue
		}
		if best == nil || a.ExpiresAt.After(best.ExpiresAt) {
			candidate := a
			best = &candidate
		}
	}
	if best == nil {
		return nil, models.ErrRecordNotFound
	}
	return best, nil
}

// ListApprovals returns matching approvals newest first
func (s *Store) ListApprovals(ctx context.Context, filter models.ApprovalFilter) ([]models.CreditApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.CreditApproval
	for _, a := range s.approvals {
		if filter.Matches(&a) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
