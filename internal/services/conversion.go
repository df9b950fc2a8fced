package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kreaker/cnc-backend/internal/apierr"
	"github.com/kreaker/cnc-backend/internal/logger"
	"github.com/kreaker/cnc-backend/internal/repos"
	"github.com/kreaker/cnc-backend/internal/types"
)

// Catalog source labels shown to operators on a conversion detail view.
const (
	catalogSourceLegacyLabel  = "RV_CATALOGOS (Legacy)"
	catalogSourceRproLabel    = "RV_RPRO_CATALOGO (RPRO)"
	catalogSourceUnknownLabel = "Unknown"
)

// ConversionService manages the conversion mapping table. A conversion
// may only be created for a catalog business key that exists in one of
// the two sources; it is never cascaded when that catalog row changes.
type ConversionService interface {
	GetAllConversions(ctx context.Context) ([]*types.Conversion, error)
	GetConversion(ctx context.Context, key types.ConversionKey) (*types.Conversion, error)
	CreateConversion(ctx context.Context, conv *types.Conversion) (*types.Conversion, error)
	UpdateConversion(ctx context.Context, key types.ConversionKey, domain *string, status *int) (*types.Conversion, error)
	DeleteConversion(ctx context.Context, key types.ConversionKey) error
	ConversionExists(ctx context.Context, key types.ConversionKey) (bool, error)
	CatalogItemExists(ctx context.Context, key types.ConversionKey) (bool, error)
	DetermineCatalogSource(ctx context.Context, key types.ConversionKey) (string, error)
}

type conversionService struct {
	db             *gorm.DB
	log            *logger.Logger
	conversionRepo repos.ConversionRepo
	legacyRepo     repos.LegacyCatalogRepo
	rproRepo       repos.RproCatalogRepo
	actor          ActorProvider
}

func NewConversionService(
	db *gorm.DB,
	log *logger.Logger,
	conversionRepo repos.ConversionRepo,
	legacyRepo repos.LegacyCatalogRepo,
	rproRepo repos.RproCatalogRepo,
	actor ActorProvider,
) ConversionService {
	serviceLog := log.With("service", "ConversionService")
	return &conversionService{
		db:             db,
		log:            serviceLog,
		conversionRepo: conversionRepo,
		legacyRepo:     legacyRepo,
		rproRepo:       rproRepo,
		actor:          actor,
	}
}

func (vs *conversionService) GetAllConversions(ctx context.Context) ([]*types.Conversion, error) {
	return vs.conversionRepo.FindAll(ctx, nil)
}

func (vs *conversionService) GetConversion(ctx context.Context, key types.ConversionKey) (*types.Conversion, error) {
	conv, err := vs.conversionRepo.FindByKey(ctx, nil, key)
	if err != nil {
		return nil, fmt.Errorf("find conversion: %w", err)
	}
	if conv == nil {
		return nil, apierr.NotFound("conversion_not_found", "conversion not found: %s", key)
	}

	source, err := vs.DetermineCatalogSource(ctx, key)
	if err != nil {
		return nil, err
	}
	conv.CatalogSource = source
	return conv, nil
}

func (vs *conversionService) CreateConversion(ctx context.Context, conv *types.Conversion) (*types.Conversion, error) {
	if conv == nil {
		return nil, apierr.Invalid("invalid_conversion", "conversion is required")
	}
	if err := validateConversionKey(conv.ConversionKey); err != nil {
		return nil, err
	}
	if err := vs.validateCatalogItemExists(ctx, conv.ConversionKey); err != nil {
		return nil, err
	}

	exists, err := vs.conversionRepo.ExistsByKey(ctx, nil, conv.ConversionKey)
	if err != nil {
		return nil, fmt.Errorf("check conversion existence: %w", err)
	}
	if exists {
		return nil, apierr.Conflict("conversion_exists", "conversion already exists for this catalog item")
	}

	now := time.Now()
	actor := vs.actor.Actor(ctx)
	conv.CreatedAt = &now
	conv.CreatedBy = &actor

	saved, err := vs.conversionRepo.Save(ctx, nil, conv)
	if err != nil {
		return nil, fmt.Errorf("save conversion: %w", err)
	}
	vs.log.Info("Created conversion", "key", saved.ConversionKey.String())
	return saved, nil
}

func (vs *conversionService) UpdateConversion(ctx context.Context, key types.ConversionKey, domain *string, status *int) (*types.Conversion, error) {
	existing, err := vs.conversionRepo.FindByKey(ctx, nil, key)
	if err != nil {
		return nil, fmt.Errorf("find conversion: %w", err)
	}
	if existing == nil {
		return nil, apierr.NotFound("conversion_not_found", "conversion not found: %s", key)
	}

	// Key fields and creation audit metadata are immutable here.
	existing.Domain = domain
	existing.Status = status
	now := time.Now()
	actor := vs.actor.Actor(ctx)
	existing.ModifiedAt = &now
	existing.ModifiedBy = &actor

	saved, err := vs.conversionRepo.Save(ctx, nil, existing)
	if err != nil {
		return nil, fmt.Errorf("save conversion: %w", err)
	}
	vs.log.Info("Updated conversion", "key", saved.ConversionKey.String())
	return saved, nil
}

func (vs *conversionService) DeleteConversion(ctx context.Context, key types.ConversionKey) error {
	exists, err := vs.conversionRepo.ExistsByKey(ctx, nil, key)
	if err != nil {
		return fmt.Errorf("check conversion existence: %w", err)
	}
	if !exists {
		return apierr.NotFound("conversion_not_found", "conversion not found: %s", key)
	}

	if err := vs.conversionRepo.DeleteByKey(ctx, nil, key); err != nil {
		return fmt.Errorf("delete conversion: %w", err)
	}
	vs.log.Info("Deleted conversion", "key", key.String())
	return nil
}

func (vs *conversionService) ConversionExists(ctx context.Context, key types.ConversionKey) (bool, error) {
	return vs.conversionRepo.ExistsByKey(ctx, nil, key)
}

// CatalogItemExists reports whether the business key behind a conversion
// key is present in either source. Full scan of both stores.
func (vs *conversionService) CatalogItemExists(ctx context.Context, key types.ConversionKey) (bool, error) {
	inLegacy, err := vs.existsInLegacy(ctx, key)
	if err != nil {
		return false, err
	}
	if inLegacy {
		return true, nil
	}
	return vs.existsInRpro(ctx, key)
}

func (vs *conversionService) DetermineCatalogSource(ctx context.Context, key types.ConversionKey) (string, error) {
	inLegacy, err := vs.existsInLegacy(ctx, key)
	if err != nil {
		return "", err
	}
	if inLegacy {
		return catalogSourceLegacyLabel, nil
	}

	inRpro, err := vs.existsInRpro(ctx, key)
	if err != nil {
		return "", err
	}
	if inRpro {
		return catalogSourceRproLabel, nil
	}
	return catalogSourceUnknownLabel, nil
}

func (vs *conversionService) validateCatalogItemExists(ctx context.Context, key types.ConversionKey) error {
	exists, err := vs.CatalogItemExists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return apierr.NotFound("catalog_item_not_found", "catalog item not found: %s", key)
	}
	return nil
}

func (vs *conversionService) existsInLegacy(ctx context.Context, key types.ConversionKey) (bool, error) {
	rows, err := vs.legacyRepo.FindAll(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("scan legacy catalog: %w", err)
	}
	for _, row := range rows {
		if row.Modulo == key.Modulo && row.Campo == key.Campo && row.Valor == key.Valor && row.SbsNo == key.Cadena {
			return true, nil
		}
	}
	return false, nil
}

func (vs *conversionService) existsInRpro(ctx context.Context, key types.ConversionKey) (bool, error) {
	rows, err := vs.rproRepo.FindAll(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("scan rpro catalog: %w", err)
	}
	for _, row := range rows {
		if row.Modulo != nil && *row.Modulo == key.Modulo &&
			row.Campo != nil && *row.Campo == key.Campo &&
			row.Valor != nil && *row.Valor == key.Valor &&
			row.SbsNo != nil && *row.SbsNo == key.Cadena {
			return true, nil
		}
	}
	return false, nil
}

func validateConversionKey(key types.ConversionKey) error {
	if strings.TrimSpace(key.Modulo) == "" {
		return apierr.Invalid("invalid_conversion", "modulo is required")
	}
	if strings.TrimSpace(key.Campo) == "" {
		return apierr.Invalid("invalid_conversion", "campo is required")
	}
	if strings.TrimSpace(key.Valor) == "" {
		return apierr.Invalid("invalid_conversion", "valor is required")
	}
	return nil
}
