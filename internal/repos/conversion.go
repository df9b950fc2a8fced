package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kreaker/cnc-backend/internal/logger"
	"github.com/kreaker/cnc-backend/internal/types"
)

// ConversionRepo is the passive store over AL_CATALOG_TWOSTEP, keyed by
// the composite (modulo, campo, valor, cadena).
type ConversionRepo interface {
	FindAll(ctx context.Context, tx *gorm.DB) ([]*types.Conversion, error)
	FindByKey(ctx context.Context, tx *gorm.DB, key types.ConversionKey) (*types.Conversion, error)
	ExistsByKey(ctx context.Context, tx *gorm.DB, key types.ConversionKey) (bool, error)
	Save(ctx context.Context, tx *gorm.DB, record *types.Conversion) (*types.Conversion, error)
	DeleteByKey(ctx context.Context, tx *gorm.DB, key types.ConversionKey) error
}

type conversionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversionRepo(db *gorm.DB, baseLog *logger.Logger) ConversionRepo {
	repoLog := baseLog.With("repo", "ConversionRepo")
	return &conversionRepo{db: db, log: repoLog}
}

func keyWhere(query *gorm.DB, key types.ConversionKey) *gorm.DB {
	return query.Where("modulo = ? AND campo = ? AND valor = ? AND cadena = ?",
		key.Modulo, key.Campo, key.Valor, key.Cadena)
}

func (cr *conversionRepo) FindAll(ctx context.Context, tx *gorm.DB) ([]*types.Conversion, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Conversion
	if err := transaction.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *conversionRepo) FindByKey(ctx context.Context, tx *gorm.DB, key types.ConversionKey) (*types.Conversion, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Conversion
	err := keyWhere(transaction.WithContext(ctx), key).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *conversionRepo) ExistsByKey(ctx context.Context, tx *gorm.DB, key types.ConversionKey) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var count int64
	if err := keyWhere(transaction.WithContext(ctx).Model(&types.Conversion{}), key).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (cr *conversionRepo) Save(ctx context.Context, tx *gorm.DB, record *types.Conversion) (*types.Conversion, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (cr *conversionRepo) DeleteByKey(ctx context.Context, tx *gorm.DB, key types.ConversionKey) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	return keyWhere(transaction.WithContext(ctx), key).Delete(&types.Conversion{}).Error
}
