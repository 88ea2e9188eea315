// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package connectors

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/expertdial/pkg/commons"
)

// PostgresConnector hands out request-scoped gorm handles. Connection
// pooling lives inside gorm; callers never close the handle.
type PostgresConnector interface {
	DB(ctx context.Context) *gorm.DB
	Ping(ctx context.Context) error
}

type postgresConnector struct {
	db     *gorm.DB
	logger commons.Logger
}

// NewPostgresConnector opens a gorm connection against dsn and verifies it
// with a ping before returning.
func NewPostgresConnector(dsn string, logger commons.Logger) (PostgresConnector, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	connector := &postgresConnector{db: db, logger: logger}
	if err := connector.Ping(context.Background()); err != nil {
		return nil, err
	}
	return connector, nil
}

func (c *postgresConnector) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}

func (c *postgresConnector) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to resolve sql.DB from gorm: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
