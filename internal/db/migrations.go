package db

import (
	"fmt"

	"gorm.io/gorm"

	"fieldhealth-service/internal/model"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
}

var constraintStatements = []string{
	// Field delete cascades down to samples and advisories; sample delete
	// only detaches advisories.
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_metric_samples_field') THEN
			ALTER TABLE metric_samples
				ADD CONSTRAINT fk_metric_samples_field
				FOREIGN KEY (field_id) REFERENCES fields(id)
				ON DELETE CASCADE ON UPDATE CASCADE;
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_advisories_field') THEN
			ALTER TABLE advisories
				ADD CONSTRAINT fk_advisories_field
				FOREIGN KEY (field_id) REFERENCES fields(id)
				ON DELETE CASCADE ON UPDATE CASCADE;
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_advisories_metric') THEN
			ALTER TABLE advisories
				ADD CONSTRAINT fk_advisories_metric
				FOREIGN KEY (metric_id) REFERENCES metric_samples(id)
				ON DELETE SET NULL ON UPDATE CASCADE;
		END IF;
	END
	$$;`,
}

// RunMigrations prepares extensions, creates the tables and wires the
// cascade constraints.
func RunMigrations(database *gorm.DB) error {
	for _, stmt := range migrationStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	if err := AutoMigrate(database); err != nil {
		return err
	}

	for _, stmt := range constraintStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("constraint migration failed: %w", err)
		}
	}

	return nil
}

// AutoMigrate creates the schema without postgres-specific DDL. Tests run it
// directly against sqlite.
func AutoMigrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&model.Field{},
		&model.MetricSample{},
		&model.Advisory{},
	)
}
