package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// schema uses {{uuid}}, {{money}} and {{time}} for the column types that
// differ between dialects. SQLite keeps amounts as TEXT so decimals are
// never routed through floating point.
const schema = `
CREATE TABLE IF NOT EXISTS customers (
	id                {{uuid}} PRIMARY KEY,
	name              TEXT NOT NULL,
	company_name      TEXT,
	customer_type     TEXT NOT NULL,
	credit_limit      {{money}} NOT NULL DEFAULT 0,
	credit_hold       BOOLEAN NOT NULL DEFAULT FALSE,
	current_balance   {{money}} NOT NULL DEFAULT 0,
	overdue_amount    {{money}} NOT NULL DEFAULT 0,
	max_overdue_days  INTEGER NOT NULL DEFAULT 0,
	last_credit_check {{time}},
	is_deleted        BOOLEAN NOT NULL DEFAULT FALSE,
	version           BIGINT NOT NULL DEFAULT 0,
	created_at        {{time}} NOT NULL,
	updated_at        {{time}} NOT NULL
);

CREATE TABLE IF NOT EXISTS invoices (
	id             {{uuid}} PRIMARY KEY,
	invoice_number TEXT NOT NULL,
	customer_id    {{uuid}} NOT NULL REFERENCES customers(id),
	order_id       {{uuid}},
	invoice_type   TEXT NOT NULL,
	status         TEXT NOT NULL,
	total_amount   {{money}} NOT NULL DEFAULT 0,
	balance_amount {{money}} NOT NULL DEFAULT 0,
	due_date       {{time}},
	paid_at        {{time}},
	created_at     {{time}} NOT NULL,
	updated_at     {{time}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invoices_customer ON invoices(customer_id, status);

CREATE TABLE IF NOT EXISTS orders (
	id               {{uuid}} PRIMARY KEY,
	order_number     TEXT NOT NULL,
	customer_id      {{uuid}} NOT NULL REFERENCES customers(id),
	status           TEXT NOT NULL,
	payment_status   TEXT NOT NULL,
	net_amount       {{money}} NOT NULL DEFAULT 0,
	deposit_amount   {{money}} NOT NULL DEFAULT 0,
	remaining_amount {{money}},
	confirmed_at     {{time}},
	created_at       {{time}} NOT NULL,
	updated_at       {{time}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id, created_at);

CREATE TABLE IF NOT EXISTS debt_configurations (
	id                   {{uuid}} PRIMARY KEY,
	name                 TEXT NOT NULL UNIQUE,
	description          TEXT,
	max_overdue_days     INTEGER NOT NULL,
	credit_limit_percent {{money}} NOT NULL,
	warning_days         INTEGER NOT NULL DEFAULT 0,
	auto_hold_on_overdue BOOLEAN NOT NULL DEFAULT FALSE,
	is_active            BOOLEAN NOT NULL DEFAULT TRUE,
	created_at           {{time}} NOT NULL,
	updated_at           {{time}} NOT NULL
);

CREATE TABLE IF NOT EXISTS credit_approvals (
	id               {{uuid}} PRIMARY KEY,
	customer_id      {{uuid}} NOT NULL REFERENCES customers(id),
	order_id         {{uuid}},
	requested_amount {{money}} NOT NULL,
	current_debt     {{money}} NOT NULL,
	credit_limit     {{money}} NOT NULL,
	reason           TEXT NOT NULL,
	status           TEXT NOT NULL,
	approved_by      TEXT,
	approved_at      {{time}},
	rejected_reason  TEXT,
	expires_at       {{time}} NOT NULL,
	created_at       {{time}} NOT NULL,
	updated_at       {{time}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_credit_approvals_customer ON credit_approvals(customer_id, status, expires_at);

CREATE TABLE IF NOT EXISTS notifications (
	id          {{uuid}} PRIMARY KEY,
	customer_id {{uuid}} NOT NULL REFERENCES customers(id),
	type        TEXT NOT NULL,
	priority    TEXT NOT NULL,
	title       TEXT NOT NULL,
	message     TEXT NOT NULL,
	data        TEXT,
	is_read     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  {{time}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_customer ON notifications(customer_id, created_at);
`

var dialects = map[string]*strings.Replacer{
	DriverPostgres: strings.NewReplacer("{{uuid}}", "UUID", "{{money}}", "NUMERIC(20,2)", "{{time}}", "TIMESTAMPTZ"),
	DriverSQLite:   strings.NewReplacer("{{uuid}}", "TEXT", "{{money}}", "TEXT", "{{time}}", "TIMESTAMP"),
}

// Migrate creates the engine tables when they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	ddl := dialects[s.driver].Replace(schema)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to migrate %s schema: %w", s.driver, err)
	}
	return nil
}
