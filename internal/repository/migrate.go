package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

const createOverlapConstraint = `
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_no_overlap') THEN
		ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
			EXCLUDE USING gist (room_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&);
	END IF;
END
$$`

// Migrate creates the reservations schema. On PostgreSQL it also installs an
// exclusion constraint that rejects overlapping rows for the same room.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&reservationModel{}); err != nil {
		return fmt.Errorf("automigrate reservations: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("create btree_gist extension: %w", err)
	}
	if err := db.Exec(createOverlapConstraint).Error; err != nil {
		return fmt.Errorf("create %s: %w", overlapConstraintName, err)
	}
	return nil
}
