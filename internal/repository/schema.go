package repository

import (
	"context"
	"fmt"
	"strings"
)

// schemaTemplate 两种方言共用；{{PK}} {{FLOAT}} {{DATE}} 按方言替换
var schemaTemplate = []string{
	`CREATE TABLE IF NOT EXISTS partner_groups (
		id {{PK}},
		name TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS partners (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		county TEXT NOT NULL DEFAULT '',
		group_id BIGINT REFERENCES partner_groups(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS partner_locations (
		id {{PK}},
		partner_id BIGINT NOT NULL REFERENCES partners(id) ON DELETE CASCADE,
		city TEXT NOT NULL,
		county TEXT NOT NULL DEFAULT '',
		UNIQUE (partner_id, city)
	)`,
	`CREATE TABLE IF NOT EXISTS growers (
		id {{PK}},
		name TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		UNIQUE (name, city)
	)`,
	`CREATE TABLE IF NOT EXISTS partner_growers (
		partner_id BIGINT NOT NULL REFERENCES partners(id) ON DELETE CASCADE,
		grower_id BIGINT NOT NULL REFERENCES growers(id) ON DELETE CASCADE,
		PRIMARY KEY (partner_id, grower_id)
	)`,
	`CREATE TABLE IF NOT EXISTS shipments (
		id {{PK}},
		location_id BIGINT NOT NULL REFERENCES partner_locations(id) ON DELETE CASCADE,
		grower_id BIGINT REFERENCES growers(id),
		delivery_code TEXT NOT NULL DEFAULT '',
		delivery_date {{DATE}},
		processing_date {{DATE}},
		processing_week INTEGER NOT NULL DEFAULT 0,
		quantity INTEGER NOT NULL DEFAULT 0,
		total_weight {{FLOAT}} NOT NULL DEFAULT 0,
		net_quantity INTEGER NOT NULL DEFAULT 0,
		net_weight {{FLOAT}} NOT NULL DEFAULT 0,
		transport_mortality INTEGER NOT NULL DEFAULT 0,
		transport_mortality_kg {{FLOAT}} NOT NULL DEFAULT 0,
		liver_weight {{FLOAT}},
		kosher_percent {{FLOAT}},
		fattening_rate {{FLOAT}},
		mortality_rate {{FLOAT}},
		mortality_count INTEGER NOT NULL DEFAULT 0,
		fattening_days INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shipments_location_code ON shipments (location_id, delivery_code)`,
	`CREATE INDEX IF NOT EXISTS idx_shipments_grower ON shipments (grower_id)`,
}

// Migrate 创建表结构（幂等）
func (s *SQLStore) Migrate(ctx context.Context) error {
	r := strings.NewReplacer(
		"{{PK}}", s.dialect.primaryKey,
		"{{FLOAT}}", s.dialect.floatType,
		"{{DATE}}", s.dialect.dateType,
	)
	for _, stmt := range schemaTemplate {
		if _, err := s.q.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
