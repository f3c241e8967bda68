package database

import (
	"fmt"

	"gorm.io/gorm"
)

type constraint struct {
	table string
	name  string
	check string
}

var checkConstraints = []constraint{
	{"showtimes", "chk_showtimes_available_seats", "available_seats >= 0 AND available_seats <= total_seats"},
	{"bookings", "chk_bookings_final_amount", "final_amount >= 0 AND final_amount = total_amount - discount_amount"},
	{"bookings", "chk_bookings_discount_amount", "discount_amount >= 0 AND discount_amount <= total_amount"},
	{"promotions", "chk_promotions_used_count", "used_count >= 0 AND (usage_limit IS NULL OR used_count <= usage_limit)"},
}

// MigrateConstraints adds the invariants AutoMigrate cannot express. A seat
// can be held by at most one active booking per showtime, and inventory
// never leaves [0, total].
func MigrateConstraints(db *gorm.DB) error {
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booked_seats_active
		ON booked_seats (showtime_id, seat_row, seat_number)
		WHERE active;
	`).Error
	if err != nil {
		return fmt.Errorf("failed to create active seat index: %w", err)
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_pending_hold
		ON bookings (hold_expires_at)
		WHERE payment_status = 'pending' AND status = 'confirmed';
	`).Error
	if err != nil {
		return fmt.Errorf("failed to create pending hold index: %w", err)
	}

	for _, c := range checkConstraints {
		// Postgres has no ADD CONSTRAINT IF NOT EXISTS
		err := db.Exec(fmt.Sprintf(`
			DO $$
			BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
				END IF;
			END $$;
		`, c.name, c.table, c.name, c.check)).Error
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}

	return nil
}
