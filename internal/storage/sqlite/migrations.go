package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Amounts are stored as TEXT so decimals round-trip without float error.
const schema = `
CREATE TABLE IF NOT EXISTS split_bills (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    receipt_image_url TEXT NOT NULL DEFAULT '',
    subtotal TEXT NOT NULL,
    tax_amount TEXT NOT NULL,
    service_charge TEXT NOT NULL,
    tip_amount TEXT NOT NULL,
    total_amount TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bill_items (
    id TEXT PRIMARY KEY,
    split_bill_id TEXT NOT NULL,
    name TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    unit_price TEXT NOT NULL,
    total_price TEXT NOT NULL,
    confidence TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL,
    FOREIGN KEY (split_bill_id) REFERENCES split_bills(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bill_participants (
    id TEXT PRIMARY KEY,
    split_bill_id TEXT NOT NULL,
    name TEXT NOT NULL,
    subtotal TEXT NOT NULL,
    tax_share TEXT NOT NULL,
    service_share TEXT NOT NULL,
    tip_share TEXT NOT NULL,
    total_amount TEXT NOT NULL,
    is_settled INTEGER NOT NULL DEFAULT 0,
    settled_at INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL,
    FOREIGN KEY (split_bill_id) REFERENCES split_bills(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bill_item_assignments (
    id TEXT PRIMARY KEY,
    item_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    share_percentage TEXT NOT NULL,
    share_amount TEXT NOT NULL,
    UNIQUE (item_id, participant_id),
    FOREIGN KEY (item_id) REFERENCES bill_items(id) ON DELETE CASCADE,
    FOREIGN KEY (participant_id) REFERENCES bill_participants(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_split_bills_user_id ON split_bills(user_id);
CREATE INDEX IF NOT EXISTS idx_bill_items_split_bill_id ON bill_items(split_bill_id);
CREATE INDEX IF NOT EXISTS idx_bill_participants_split_bill_id ON bill_participants(split_bill_id);
CREATE INDEX IF NOT EXISTS idx_bill_item_assignments_item_id ON bill_item_assignments(item_id);
CREATE INDEX IF NOT EXISTS idx_bill_item_assignments_participant_id ON bill_item_assignments(participant_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
