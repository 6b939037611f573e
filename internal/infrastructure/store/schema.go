package store

// Money columns hold decimal text. Dates are YYYY-MM-DD, timestamps RFC 3339.
const schema = `
CREATE TABLE IF NOT EXISTS named_units (
	id TEXT PRIMARY KEY,
	unit_group TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	code TEXT NOT NULL UNIQUE,
	capacity INTEGER NOT NULL CHECK (capacity > 0),
	status TEXT NOT NULL CHECK (status IN ('available', 'unavailable', 'maintenance'))
);

CREATE TABLE IF NOT EXISTS fungible_units (
	id TEXT PRIMARY KEY,
	product_id TEXT NOT NULL,
	code TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL CHECK (status IN ('available', 'unavailable', 'maintenance'))
);

CREATE INDEX IF NOT EXISTS idx_fungible_units_product ON fungible_units(product_id, code);

CREATE TABLE IF NOT EXISTS reservations (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	customer_id TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	customer_phone TEXT NOT NULL DEFAULT '',
	customer_email TEXT NOT NULL DEFAULT '',
	checkin TEXT NOT NULL,
	checkout TEXT NOT NULL,
	status TEXT NOT NULL,
	gross_amount TEXT NOT NULL,
	discount_amount TEXT NOT NULL,
	net_amount TEXT NOT NULL,
	dp_required INTEGER NOT NULL DEFAULT 0,
	dp_fixed_amount TEXT NOT NULL DEFAULT '0',
	dp_percentage TEXT NOT NULL DEFAULT '0',
	payment_status TEXT NOT NULL DEFAULT 'unpaid',
	notes TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	CHECK (checkout > checkin)
);

CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status);

CREATE TABLE IF NOT EXISTS reservation_lines (
	id TEXT PRIMARY KEY,
	reservation_id TEXT NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
	named_unit_id TEXT REFERENCES named_units(id),
	fungible_unit_id TEXT REFERENCES fungible_units(id),
	product_id TEXT NOT NULL DEFAULT '',
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	unit_price TEXT NOT NULL,
	discount_percent TEXT NOT NULL,
	subtotal TEXT NOT NULL,
	discount TEXT NOT NULL,
	CHECK ((named_unit_id IS NULL) <> (fungible_unit_id IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_reservation_lines_reservation ON reservation_lines(reservation_id);
CREATE INDEX IF NOT EXISTS idx_reservation_lines_named ON reservation_lines(named_unit_id);
CREATE INDEX IF NOT EXISTS idx_reservation_lines_fungible ON reservation_lines(fungible_unit_id);

CREATE TABLE IF NOT EXISTS sales (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	customer_id TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	customer_phone TEXT NOT NULL DEFAULT '',
	customer_email TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	gross_amount TEXT NOT NULL,
	discount_amount TEXT NOT NULL,
	net_amount TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	cancelled_at TEXT
);

CREATE TABLE IF NOT EXISTS sale_lines (
	id TEXT PRIMARY KEY,
	sale_id TEXT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
	sku TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	unit_price TEXT NOT NULL,
	discount_percent TEXT NOT NULL,
	subtotal TEXT NOT NULL,
	discount TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sale_lines_sale ON sale_lines(sale_id);

CREATE TABLE IF NOT EXISTS payment_events (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	target_type TEXT NOT NULL CHECK (target_type IN ('reservation', 'sale')),
	target_id TEXT NOT NULL,
	kind TEXT NOT NULL CHECK (kind IN ('payment', 'refund')),
	amount TEXT NOT NULL,
	method TEXT NOT NULL DEFAULT '',
	reference TEXT NOT NULL DEFAULT '',
	idempotency_key TEXT UNIQUE,
	actor TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_payment_events_target ON payment_events(target_type, target_id, seq);

CREATE TABLE IF NOT EXISTS code_sequences (
	prefix TEXT NOT NULL,
	scope_date TEXT NOT NULL,
	last_value INTEGER NOT NULL,
	PRIMARY KEY (prefix, scope_date)
);

CREATE TRIGGER IF NOT EXISTS payment_events_no_update
BEFORE UPDATE ON payment_events
BEGIN
	SELECT RAISE(ABORT, 'payment events are append-only');
END;

CREATE TRIGGER IF NOT EXISTS payment_events_no_delete
BEFORE DELETE ON payment_events
BEGIN
	SELECT RAISE(ABORT, 'payment events are append-only');
END;

CREATE TRIGGER IF NOT EXISTS reservations_keep_paid
BEFORE DELETE ON reservations
WHEN EXISTS (SELECT 1 FROM payment_events WHERE target_type = 'reservation' AND target_id = OLD.id)
BEGIN
	SELECT RAISE(ABORT, 'reservation is referenced by payment events');
END;

CREATE TRIGGER IF NOT EXISTS sales_keep_paid
BEFORE DELETE ON sales
WHEN EXISTS (SELECT 1 FROM payment_events WHERE target_type = 'sale' AND target_id = OLD.id)
BEGIN
	SELECT RAISE(ABORT, 'sale is referenced by payment events');
END;
`
