package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kreaker/cnc-backend/internal/apierr"
	"github.com/kreaker/cnc-backend/internal/logger"
	"github.com/kreaker/cnc-backend/internal/repos"
	"github.com/kreaker/cnc-backend/internal/types"
)

// estadoPendiente is the workflow marker every mutation through this
// application leaves on a legacy row.
const estadoPendiente = "PENDIENTE"

// CatalogService unifies the two catalog tables into one logical view.
// The tables cannot be joined in SQL, so both sources are read in full
// and merged, enriched and filtered in memory; data volumes are small
// enough that full scans are the accepted cost.
type CatalogService interface {
	GetUnifiedCatalog(ctx context.Context, filter *types.CatalogFilter) ([]*types.CatalogItem, error)
	GetUnifiedCatalogPage(ctx context.Context, filter *types.CatalogFilter, page, size int) ([]*types.CatalogItem, int, error)
	GetCatalogItem(ctx context.Context, source types.CatalogSource, id int64) (*types.CatalogItem, error)
	CreateLegacyCatalog(ctx context.Context, item *types.CatalogItem) (*types.CatalogItem, error)
	UpdateLegacyCatalog(ctx context.Context, id int64, item *types.CatalogItem) (*types.CatalogItem, error)
	DeleteLegacyCatalog(ctx context.Context, id int64) error
	DistinctModulos(ctx context.Context) ([]string, error)
	DistinctCampos(ctx context.Context) ([]string, error)
	DistinctSbsNos(ctx context.Context) ([]int, error)
	CamposByModulo(ctx context.Context) (map[string][]string, error)
}

type catalogService struct {
	db             *gorm.DB
	log            *logger.Logger
	legacyRepo     repos.LegacyCatalogRepo
	rproRepo       repos.RproCatalogRepo
	conversionRepo repos.ConversionRepo
	actor          ActorProvider
}

func NewCatalogService(
	db *gorm.DB,
	log *logger.Logger,
	legacyRepo repos.LegacyCatalogRepo,
	rproRepo repos.RproCatalogRepo,
	conversionRepo repos.ConversionRepo,
	actor ActorProvider,
) CatalogService {
	serviceLog := log.With("service", "CatalogService")
	return &catalogService{
		db:             db,
		log:            serviceLog,
		legacyRepo:     legacyRepo,
		rproRepo:       rproRepo,
		conversionRepo: conversionRepo,
		actor:          actor,
	}
}

func (cs *catalogService) GetUnifiedCatalog(ctx context.Context, filter *types.CatalogFilter) ([]*types.CatalogItem, error) {
	if filter == nil {
		filter = &types.CatalogFilter{}
	}

	result := make([]*types.CatalogItem, 0)

	if filter.Source == nil || *filter.Source == types.SourceLegacy {
		legacyRows, err := cs.legacyRepo.FindActive(ctx, nil, filter.Modulo, filter.Campo, filter.SbsNo)
		if err != nil {
			return nil, fmt.Errorf("query legacy catalog: %w", err)
		}
		for _, row := range legacyRows {
			result = append(result, mapLegacyToItem(row))
		}
	}

	if filter.Source == nil || *filter.Source == types.SourceRpro {
		rproRows, err := cs.rproRepo.FindActive(ctx, nil, filter.Modulo, filter.Campo, filter.SbsNo)
		if err != nil {
			return nil, fmt.Errorf("query rpro catalog: %w", err)
		}
		for _, row := range rproRows {
			result = append(result, mapRproToItem(row))
		}
	}

	if err := cs.enrichWithConversions(ctx, result); err != nil {
		return nil, err
	}

	if filter.HasConversion != nil {
		filtered := make([]*types.CatalogItem, 0, len(result))
		for _, item := range result {
			if item.HasConversion == *filter.HasConversion {
				filtered = append(filtered, item)
			}
		}
		result = filtered
	}

	if term := filter.SearchTermNormalized(); term != "" {
		filtered := make([]*types.CatalogItem, 0, len(result))
		for _, item := range result {
			if matchesSearchTerm(item, term) {
				filtered = append(filtered, item)
			}
		}
		result = filtered
	}

	sortCatalogItems(result)
	return result, nil
}

func (cs *catalogService) GetUnifiedCatalogPage(ctx context.Context, filter *types.CatalogFilter, page, size int) ([]*types.CatalogItem, int, error) {
	if page < 0 || size < 1 {
		return nil, 0, apierr.Invalid("invalid_page", "page must be >= 0 and size >= 1 (got page=%d, size=%d)", page, size)
	}

	allItems, err := cs.GetUnifiedCatalog(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total := len(allItems)
	start := page * size
	if start >= total {
		return []*types.CatalogItem{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return allItems[start:end], total, nil
}

func (cs *catalogService) GetCatalogItem(ctx context.Context, source types.CatalogSource, id int64) (*types.CatalogItem, error) {
	switch source {
	case types.SourceLegacy:
		row, err := cs.legacyRepo.FindByID(ctx, nil, id)
		if err != nil {
			return nil, fmt.Errorf("find legacy catalog %d: %w", id, err)
		}
		if row == nil {
			return nil, apierr.NotFound("catalog_not_found", "catalog item not found: source=%s, id=%d", source, id)
		}
		return mapLegacyToItem(row), nil
	case types.SourceRpro:
		row, err := cs.rproRepo.FindByID(ctx, nil, id)
		if err != nil {
			return nil, fmt.Errorf("find rpro catalog %d: %w", id, err)
		}
		if row == nil {
			return nil, apierr.NotFound("catalog_not_found", "catalog item not found: source=%s, id=%d", source, id)
		}
		return mapRproToItem(row), nil
	default:
		return nil, apierr.Invalid("invalid_source", "unknown catalog source: %q", source)
	}
}

func (cs *catalogService) CreateLegacyCatalog(ctx context.Context, item *types.CatalogItem) (*types.CatalogItem, error) {
	if err := validateRequiredKeyFields(item); err != nil {
		return nil, err
	}
	if err := cs.validateNotInRpro(ctx, item.Modulo, item.Campo, item.Valor, item.SbsNo); err != nil {
		return nil, err
	}

	nextID, err := cs.nextLegacyID(ctx)
	if err != nil {
		return nil, err
	}

	entity := &types.LegacyCatalog{
		ID:            nextID,
		SbsNo:         intOr(item.SbsNo, 1),
		Modulo:        *item.Modulo,
		Campo:         *item.Campo,
		Valor:         *item.Valor,
		Descripcion:   item.Descripcion,
		Orden:         item.Orden,
		Activo:        intOr(item.Activo, 1),
		CreadoPor:     cs.actor.Actor(ctx),
		FechaCreacion: time.Now(),
		Estado:        strPtr(estadoPendiente),
	}

	saved, err := cs.legacyRepo.Save(ctx, nil, entity)
	if err != nil {
		return nil, fmt.Errorf("save legacy catalog: %w", err)
	}
	cs.log.Info("Created legacy catalog item", "id", saved.ID, "modulo", saved.Modulo, "campo", saved.Campo, "valor", saved.Valor)
	return mapLegacyToItem(saved), nil
}

func (cs *catalogService) UpdateLegacyCatalog(ctx context.Context, id int64, item *types.CatalogItem) (*types.CatalogItem, error) {
	existing, err := cs.legacyRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("find legacy catalog %d: %w", id, err)
	}
	if existing == nil {
		return nil, apierr.NotFound("catalog_not_found", "legacy catalog not found with id %d", id)
	}

	// The guard runs on the stored values: a row whose key is owned by
	// RPRO must not be touched even to move it out of the collision.
	existingSbsNo := existing.SbsNo
	if err := cs.validateNotInRpro(ctx, strPtr(existing.Modulo), strPtr(existing.Campo), strPtr(existing.Valor), &existingSbsNo); err != nil {
		return nil, err
	}

	if err := validateRequiredKeyFields(item); err != nil {
		return nil, err
	}

	existing.SbsNo = intOr(item.SbsNo, existing.SbsNo)
	existing.Modulo = *item.Modulo
	existing.Campo = *item.Campo
	existing.Valor = *item.Valor
	existing.Descripcion = item.Descripcion
	existing.Orden = item.Orden
	existing.Activo = intOr(item.Activo, existing.Activo)
	existing.ModificadoPor = strPtr(cs.actor.Actor(ctx))
	modifiedAt := time.Now().Truncate(time.Second)
	existing.FechaModificacion = &modifiedAt
	existing.Estado = strPtr(estadoPendiente)

	saved, err := cs.legacyRepo.Save(ctx, nil, existing)
	if err != nil {
		return nil, fmt.Errorf("save legacy catalog %d: %w", id, err)
	}
	cs.log.Info("Updated legacy catalog item", "id", saved.ID)
	return mapLegacyToItem(saved), nil
}

func (cs *catalogService) DeleteLegacyCatalog(ctx context.Context, id int64) error {
	existing, err := cs.legacyRepo.FindByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("find legacy catalog %d: %w", id, err)
	}
	if existing == nil {
		return apierr.NotFound("catalog_not_found", "legacy catalog not found with id %d", id)
	}

	existingSbsNo := existing.SbsNo
	if err := cs.validateNotInRpro(ctx, strPtr(existing.Modulo), strPtr(existing.Campo), strPtr(existing.Valor), &existingSbsNo); err != nil {
		return err
	}

	if err := cs.legacyRepo.Delete(ctx, nil, existing); err != nil {
		return fmt.Errorf("delete legacy catalog %d: %w", id, err)
	}
	cs.log.Info("Deleted legacy catalog item", "id", id)
	return nil
}

func (cs *catalogService) DistinctModulos(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}

	legacyRows, err := cs.legacyRepo.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range legacyRows {
		seen[row.Modulo] = struct{}{}
	}

	rproRows, err := cs.rproRepo.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range rproRows {
		if row.Modulo != nil {
			seen[*row.Modulo] = struct{}{}
		}
	}

	return sortedKeys(seen), nil
}

func (cs *catalogService) DistinctCampos(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}

	legacyRows, err := cs.legacyRepo.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range legacyRows {
		seen[row.Campo] = struct{}{}
	}

	rproRows, err := cs.rproRepo.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range rproRows {
		if row.Campo != nil {
			seen[*row.Campo] = struct{}{}
		}
	}

	return sortedKeys(seen), nil
}

func (cs *catalogService) DistinctSbsNos(ctx context.Context) ([]int, error) {
	seen := map[int]struct{}{}

	legacyRows, err := cs.legacyRepo.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range legacyRows {
		seen[row.SbsNo] = struct{}{}
	}

	rproRows, err := cs.rproRepo.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range rproRows {
		if row.SbsNo != nil {
			seen[*row.SbsNo] = struct{}{}
		}
	}

	result := make([]int, 0, len(seen))
	for sbsNo := range seen {
		result = append(result, sbsNo)
	}
	sort.Ints(result)
	return result, nil
}

func (cs *catalogService) CamposByModulo(ctx context.Context) (map[string][]string, error) {
	grouped := map[string]map[string]struct{}{}

	add := func(modulo, campo string) {
		if grouped[modulo] == nil {
			grouped[modulo] = map[string]struct{}{}
		}
		grouped[modulo][campo] = struct{}{}
	}

	legacyRows, err := cs.legacyRepo.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range legacyRows {
		add(row.Modulo, row.Campo)
	}

	rproRows, err := cs.rproRepo.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range rproRows {
		if row.Modulo != nil && row.Campo != nil {
			add(*row.Modulo, *row.Campo)
		}
	}

	result := make(map[string][]string, len(grouped))
	for modulo, campos := range grouped {
		result[modulo] = sortedKeys(campos)
	}
	return result, nil
}

// enrichWithConversions joins the merged items with the conversion table
// in memory: one full read, one hash map on the composite key. Duplicate
// keys are an upstream integrity violation; the first-encountered row
// wins and the conflict is logged, never raised.
func (cs *catalogService) enrichWithConversions(ctx context.Context, items []*types.CatalogItem) error {
	conversions, err := cs.conversionRepo.FindAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("load conversion table: %w", err)
	}

	conversionMap := make(map[types.ConversionKey]*types.Conversion, len(conversions))
	for _, conv := range conversions {
		if _, ok := conversionMap[conv.ConversionKey]; ok {
			cs.log.Warn("Duplicate conversion found, keeping the first one", "key", conv.ConversionKey.String())
			continue
		}
		conversionMap[conv.ConversionKey] = conv
	}

	for _, item := range items {
		conv, ok := conversionMap[item.ConversionKey()]
		if !ok {
			item.HasConversion = false
			continue
		}
		item.HasConversion = true
		item.ConversionDomain = conv.Domain
		item.ConversionStatus = conv.Status
	}
	return nil
}

// validateNotInRpro enforces the mutual-exclusivity invariant: a business
// key present in RPRO may never be created, updated or deleted on the
// legacy side.
func (cs *catalogService) validateNotInRpro(ctx context.Context, modulo, campo, valor *string, sbsNo *int) error {
	rproRows, err := cs.rproRepo.FindAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("scan rpro catalog: %w", err)
	}
	for _, row := range rproRows {
		if strPtrEqual(row.Modulo, modulo) &&
			strPtrEqual(row.Campo, campo) &&
			strPtrEqual(row.Valor, valor) &&
			intPtrEqual(row.SbsNo, sbsNo) {
			return apierr.Conflict("catalog_in_rpro", "catalog item exists in RV_RPRO_CATALOGO and cannot be modified in RV_CATALOGOS")
		}
	}
	return nil
}

func (cs *catalogService) nextLegacyID(ctx context.Context) (int64, error) {
	rows, err := cs.legacyRepo.FindAll(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("scan legacy catalog for id assignment: %w", err)
	}
	var maxID int64
	for _, row := range rows {
		if row.ID > maxID {
			maxID = row.ID
		}
	}
	return maxID + 1, nil
}

func validateRequiredKeyFields(item *types.CatalogItem) error {
	if item == nil {
		return apierr.Invalid("invalid_catalog", "catalog item is required")
	}
	if item.Modulo == nil || strings.TrimSpace(*item.Modulo) == "" {
		return apierr.Invalid("invalid_catalog", "modulo is required")
	}
	if item.Campo == nil || strings.TrimSpace(*item.Campo) == "" {
		return apierr.Invalid("invalid_catalog", "campo is required")
	}
	if item.Valor == nil || strings.TrimSpace(*item.Valor) == "" {
		return apierr.Invalid("invalid_catalog", "valor is required")
	}
	return nil
}

func mapLegacyToItem(entity *types.LegacyCatalog) *types.CatalogItem {
	sbsNo := entity.SbsNo
	modulo := entity.Modulo
	campo := entity.Campo
	valor := entity.Valor
	activo := entity.Activo
	return &types.CatalogItem{
		Source:        types.SourceLegacy,
		SourceID:      entity.ID,
		SbsNo:         &sbsNo,
		Modulo:        &modulo,
		Campo:         &campo,
		Valor:         &valor,
		Descripcion:   entity.Descripcion,
		Orden:         entity.Orden,
		Activo:        &activo,
		SourceDisplay: types.SourceLegacy.Display(),
	}
}

func mapRproToItem(entity *types.RproCatalog) *types.CatalogItem {
	activo := entity.Activo
	return &types.CatalogItem{
		Source:        types.SourceRpro,
		SourceID:      entity.RproSid,
		SbsNo:         entity.SbsNo,
		Modulo:        entity.Modulo,
		Campo:         entity.Campo,
		Valor:         entity.Valor,
		Descripcion:   entity.Descripcion,
		Orden:         entity.Orden,
		Activo:        &activo,
		PadreSid:      entity.PadreSid,
		SourceDisplay: types.SourceRpro.Display(),
	}
}

func matchesSearchTerm(item *types.CatalogItem, term string) bool {
	return containsIgnoreCase(item.Modulo, term) ||
		containsIgnoreCase(item.Campo, term) ||
		containsIgnoreCase(item.Valor, term) ||
		containsIgnoreCase(item.Descripcion, term)
}

func containsIgnoreCase(text *string, term string) bool {
	if text == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*text), term)
}

func sortCatalogItems(items []*types.CatalogItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if c := compareStrPtrNullsLast(items[i].Modulo, items[j].Modulo); c != 0 {
			return c < 0
		}
		if c := compareStrPtrNullsLast(items[i].Campo, items[j].Campo); c != 0 {
			return c < 0
		}
		return compareStrPtrNullsLast(items[i].Valor, items[j].Valor) < 0
	})
}

func compareStrPtrNullsLast(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return strings.Compare(*a, *b)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	result := make([]string, 0, len(set))
	for key := range set {
		result = append(result, key)
	}
	sort.Strings(result)
	return result
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
