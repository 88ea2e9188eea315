// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_summary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/expertdial/pkg/commons"
	"github.com/expertdial/pkg/connectors"
)

// CallSummary is the persisted form of a Record. Rows are never updated
// after the call ends except by a re-run of the same call's teardown,
// which overwrites transcript and summary for the same stream sid.
type CallSummary struct {
	ID          string `gorm:"primaryKey;type:uuid"`
	StreamSid   string `gorm:"uniqueIndex;not null"`
	Transcript  string `gorm:"type:text"`
	Summary     string `gorm:"type:text"`
	CreatedDate time.Time
}

type postgresStore struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
}

// NewPostgresStore creates the archiving store. Used when summaries must
// outlive the process; the memory store remains the default.
func NewPostgresStore(postgres connectors.PostgresConnector, logger commons.Logger) (Store, error) {
	if err := postgres.DB(context.Background()).AutoMigrate(&CallSummary{}); err != nil {
		return nil, fmt.Errorf("failed to migrate call summary schema: %w", err)
	}
	return &postgresStore{postgres: postgres, logger: logger}, nil
}

func (s *postgresStore) Save(ctx context.Context, record Record) error {
	row := CallSummary{
		ID:          uuid.New().String(),
		StreamSid:   record.StreamSid,
		Transcript:  record.Transcript,
		Summary:     record.Summary,
		CreatedDate: time.Now(),
	}

	db := s.postgres.DB(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stream_sid"}},
		DoUpdates: clause.AssignmentColumns([]string{"transcript", "summary"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save call summary %s: %w", record.StreamSid, err)
	}

	s.logger.Infof("saved call summary: streamSid=%s, transcriptLen=%d", record.StreamSid, len(record.Transcript))
	return nil
}

func (s *postgresStore) Get(ctx context.Context, streamSid string) (*Record, error) {
	db := s.postgres.DB(ctx)
	var row CallSummary
	if err := db.Where("stream_sid = ?", streamSid).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load call summary %s: %w", streamSid, err)
	}
	return &Record{
		StreamSid:  row.StreamSid,
		Transcript: row.Transcript,
		Summary:    row.Summary,
	}, nil
}
