package database

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/backstage/services/telematics/internal/models"
)

// SummaryArchive stores every exported summary as a row of summary_runs
type SummaryArchive struct {
	db *gorm.DB
}

// NewSummaryArchive creates an archive on top of db
func NewSummaryArchive(db DB) (*SummaryArchive, error) {
	gormDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &SummaryArchive{db: gormDB}, nil
}

// Name identifies the sink in logs
func (a *SummaryArchive) Name() string {
	return "database"
}

// Publish inserts the summary
func (a *SummaryArchive) Publish(ctx context.Context, s *models.Summary) error {
	if err := a.db.WithContext(ctx).Create(s).Error; err != nil {
		return errors.Wrap(err, "failed to archive summary")
	}
	log.Debug().Str("run_id", s.RunID.String()).Msg("summary archived")
	return nil
}

// Latest returns the most recently generated summary
func (a *SummaryArchive) Latest(ctx context.Context) (*models.Summary, error) {
	var s models.Summary
	err := a.db.WithContext(ctx).Order("generated_at DESC").Take(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(err, "no archived summary")
		}
		return nil, errors.Wrap(err, "failed to load latest summary")
	}
	return &s, nil
}
