package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kreaker/cnc-backend/internal/logger"
	"github.com/kreaker/cnc-backend/internal/types"
)

// LegacyCatalogRepo is the passive store over RV_CATALOGOS. Absent filter
// criteria match all rows.
type LegacyCatalogRepo interface {
	FindActive(ctx context.Context, tx *gorm.DB, modulo *string, campo *string, sbsNo *int) ([]*types.LegacyCatalog, error)
	FindAll(ctx context.Context, tx *gorm.DB) ([]*types.LegacyCatalog, error)
	FindByID(ctx context.Context, tx *gorm.DB, id int64) (*types.LegacyCatalog, error)
	Save(ctx context.Context, tx *gorm.DB, record *types.LegacyCatalog) (*types.LegacyCatalog, error)
	Delete(ctx context.Context, tx *gorm.DB, record *types.LegacyCatalog) error
}

type legacyCatalogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLegacyCatalogRepo(db *gorm.DB, baseLog *logger.Logger) LegacyCatalogRepo {
	repoLog := baseLog.With("repo", "LegacyCatalogRepo")
	return &legacyCatalogRepo{db: db, log: repoLog}
}

func (lr *legacyCatalogRepo) FindActive(ctx context.Context, tx *gorm.DB, modulo *string, campo *string, sbsNo *int) ([]*types.LegacyCatalog, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	query := transaction.WithContext(ctx).Where("activo = ?", 1)
	if modulo != nil {
		query = query.Where("modulo = ?", *modulo)
	}
	if campo != nil {
		query = query.Where("campo = ?", *campo)
	}
	if sbsNo != nil {
		query = query.Where("sbs_no = ?", *sbsNo)
	}

	var results []*types.LegacyCatalog
	if err := query.Order("orden").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *legacyCatalogRepo) FindAll(ctx context.Context, tx *gorm.DB) ([]*types.LegacyCatalog, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var results []*types.LegacyCatalog
	if err := transaction.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *legacyCatalogRepo) FindByID(ctx context.Context, tx *gorm.DB, id int64) (*types.LegacyCatalog, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var result types.LegacyCatalog
	err := transaction.WithContext(ctx).Where("p_id = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (lr *legacyCatalogRepo) Save(ctx context.Context, tx *gorm.DB, record *types.LegacyCatalog) (*types.LegacyCatalog, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	// Ids are application-assigned, so Save must behave as an upsert.
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (lr *legacyCatalogRepo) Delete(ctx context.Context, tx *gorm.DB, record *types.LegacyCatalog) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	return transaction.WithContext(ctx).Delete(record).Error
}
