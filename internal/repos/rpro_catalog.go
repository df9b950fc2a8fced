package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kreaker/cnc-backend/internal/logger"
	"github.com/kreaker/cnc-backend/internal/types"
)

// RproCatalogRepo is the passive store over RV_RPRO_CATALOGO. The table
// belongs to the external RPRO feed; this application never writes it.
type RproCatalogRepo interface {
	FindActive(ctx context.Context, tx *gorm.DB, modulo *string, campo *string, sbsNo *int) ([]*types.RproCatalog, error)
	FindAll(ctx context.Context, tx *gorm.DB) ([]*types.RproCatalog, error)
	FindByID(ctx context.Context, tx *gorm.DB, id int64) (*types.RproCatalog, error)
}

type rproCatalogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRproCatalogRepo(db *gorm.DB, baseLog *logger.Logger) RproCatalogRepo {
	repoLog := baseLog.With("repo", "RproCatalogRepo")
	return &rproCatalogRepo{db: db, log: repoLog}
}

func (rr *rproCatalogRepo) FindActive(ctx context.Context, tx *gorm.DB, modulo *string, campo *string, sbsNo *int) ([]*types.RproCatalog, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
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

	var results []*types.RproCatalog
	if err := query.Order("orden").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *rproCatalogRepo) FindAll(ctx context.Context, tx *gorm.DB) ([]*types.RproCatalog, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.RproCatalog
	if err := transaction.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *rproCatalogRepo) FindByID(ctx context.Context, tx *gorm.DB, id int64) (*types.RproCatalog, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var result types.RproCatalog
	err := transaction.WithContext(ctx).Where("rpro_sid = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
