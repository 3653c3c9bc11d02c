package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/mercadolito/strategia/pkg/db/pagination"

	validatordomain "github.com/mercadolito/strategia/internal/validator/domain"
)

var ErrPersistenceDisabled = errors.New("persistence_disabled")

// StrategyRun is the stored header of one engine run.
type StrategyRun struct {
	ID                  snowflake.ID      `gorm:"primaryKey"`
	StartedAt           time.Time         `gorm:"not null"`
	CompletedAt         time.Time         `gorm:"not null"`
	TicketCount         int               `gorm:"not null"`
	StrategiesCompleted int               `gorm:"not null"`
	StrategiesFailed    int               `gorm:"not null"`
	Errors              datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt           time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (StrategyRun) TableName() string { return "strategy_runs" }

// StrategyResultRecord is one stored strategy outcome within a run.
type StrategyResultRecord struct {
	ID                        snowflake.ID `gorm:"primaryKey"`
	RunID                     snowflake.ID `gorm:"not null;index"`
	Strategy                  string       `gorm:"type:text;not null"`
	Investment                float64      `gorm:"not null"`
	IncrementalRevenueMonthly float64      `gorm:"not null"`
	IncrementalMarginMonthly  float64      `gorm:"not null"`
	ROIPercentage             float64      `gorm:"column:roi_percentage;not null"`
	// PaybackMonths is null when the investment is never recovered.
	PaybackMonths   *float64
	ConfidenceScore float64           `gorm:"not null"`
	Figures         datatypes.JSONMap `gorm:"type:jsonb"`
	Breakdown       datatypes.JSON    `gorm:"type:jsonb"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (StrategyResultRecord) TableName() string { return "strategy_results" }

// Service persists completed runs for later comparison across data drops.
type Service interface {
	// SaveRun stores the run header and every strategy result in one
	// transaction.
	SaveRun(ctx context.Context, report *validatordomain.RunReport, ticketCount int) (*StrategyRun, error)

	// LatestRun returns the most recent run and its results.
	LatestRun(ctx context.Context) (*StrategyRun, []*StrategyResultRecord, error)

	// ListRuns pages run headers newest first.
	ListRuns(ctx context.Context, p pagination.Pagination) ([]*StrategyRun, *pagination.PageInfo, error)
}
