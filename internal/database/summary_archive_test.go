package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/backstage/services/telematics/internal/models"
)

func newMockArchive(t *testing.T) (*SummaryArchive, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	archive, err := NewSummaryArchive(New(gormDB))
	require.NoError(t, err)
	return archive, mock
}

func TestSummaryArchivePublish(t *testing.T) {
	archive, mock := newMockArchive(t)

	s := &models.Summary{
		RunID:          uuid.New(),
		GeneratedAt:    time.Now().UTC(),
		TotalVehicles:  3,
		TotalAnomalies: 2,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "summary_runs"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, archive.Publish(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "database", archive.Name())
}

func TestSummaryArchivePublishError(t *testing.T) {
	archive, mock := newMockArchive(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "summary_runs"`)).
		WillReturnError(assert.AnError)

	err := archive.Publish(context.Background(), &models.Summary{RunID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to archive summary")
}

func TestSummaryArchiveLatest(t *testing.T) {
	archive, mock := newMockArchive(t)

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"run_id", "generated_at", "total_vehicles", "average_fleet_speed"}).
		AddRow(id.String(), time.Date(2024, 1, 30, 10, 0, 0, 0, time.UTC), 12, 52.3)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "summary_runs" ORDER BY generated_at DESC`)).
		WillReturnRows(rows)

	s, err := archive.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, s.RunID)
	assert.Equal(t, 12, s.TotalVehicles)
	assert.Equal(t, 52.3, s.AverageFleetSpeed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryArchiveLatestEmpty(t *testing.T) {
	archive, mock := newMockArchive(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "summary_runs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"run_id"}))

	_, err := archive.Latest(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDBNotConnected(t *testing.T) {
	_, err := NewSummaryArchive(&GormDatabase{})
	assert.Error(t, err)
}
