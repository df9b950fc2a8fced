package services

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kreaker/cnc-backend/internal/logger"
	"github.com/kreaker/cnc-backend/internal/types"
)

func newTestLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// fakeLegacyRepo is an in-memory stand-in for the RV_CATALOGOS store.
type fakeLegacyRepo struct {
	rows map[int64]*types.LegacyCatalog
}

func newFakeLegacyRepo(rows ...*types.LegacyCatalog) *fakeLegacyRepo {
	repo := &fakeLegacyRepo{rows: map[int64]*types.LegacyCatalog{}}
	for _, row := range rows {
		copied := *row
		repo.rows[row.ID] = &copied
	}
	return repo
}

func (f *fakeLegacyRepo) FindActive(ctx context.Context, tx *gorm.DB, modulo *string, campo *string, sbsNo *int) ([]*types.LegacyCatalog, error) {
	var results []*types.LegacyCatalog
	for _, row := range f.rows {
		if row.Activo != 1 {
			continue
		}
		if modulo != nil && row.Modulo != *modulo {
			continue
		}
		if campo != nil && row.Campo != *campo {
			continue
		}
		if sbsNo != nil && row.SbsNo != *sbsNo {
			continue
		}
		results = append(results, row)
	}
	sort.Slice(results, func(i, j int) bool {
		oi, oj := results[i].Orden, results[j].Orden
		if oi == nil || oj == nil {
			return oj == nil && oi != nil
		}
		return *oi < *oj
	})
	return results, nil
}

func (f *fakeLegacyRepo) FindAll(ctx context.Context, tx *gorm.DB) ([]*types.LegacyCatalog, error) {
	results := make([]*types.LegacyCatalog, 0, len(f.rows))
	for _, row := range f.rows {
		results = append(results, row)
	}
	return results, nil
}

func (f *fakeLegacyRepo) FindByID(ctx context.Context, tx *gorm.DB, id int64) (*types.LegacyCatalog, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return row, nil
}

func (f *fakeLegacyRepo) Save(ctx context.Context, tx *gorm.DB, record *types.LegacyCatalog) (*types.LegacyCatalog, error) {
	copied := *record
	f.rows[record.ID] = &copied
	return record, nil
}

func (f *fakeLegacyRepo) Delete(ctx context.Context, tx *gorm.DB, record *types.LegacyCatalog) error {
	delete(f.rows, record.ID)
	return nil
}

// fakeRproRepo is an in-memory stand-in for the read-only RPRO feed table.
type fakeRproRepo struct {
	rows map[int64]*types.RproCatalog
}

func newFakeRproRepo(rows ...*types.RproCatalog) *fakeRproRepo {
	repo := &fakeRproRepo{rows: map[int64]*types.RproCatalog{}}
	for _, row := range rows {
		copied := *row
		repo.rows[row.RproSid] = &copied
	}
	return repo
}

func (f *fakeRproRepo) FindActive(ctx context.Context, tx *gorm.DB, modulo *string, campo *string, sbsNo *int) ([]*types.RproCatalog, error) {
	var results []*types.RproCatalog
	for _, row := range f.rows {
		if row.Activo != 1 {
			continue
		}
		if modulo != nil && (row.Modulo == nil || *row.Modulo != *modulo) {
			continue
		}
		if campo != nil && (row.Campo == nil || *row.Campo != *campo) {
			continue
		}
		if sbsNo != nil && (row.SbsNo == nil || *row.SbsNo != *sbsNo) {
			continue
		}
		results = append(results, row)
	}
	sort.Slice(results, func(i, j int) bool {
		oi, oj := results[i].Orden, results[j].Orden
		if oi == nil || oj == nil {
			return oj == nil && oi != nil
		}
		return *oi < *oj
	})
	return results, nil
}

func (f *fakeRproRepo) FindAll(ctx context.Context, tx *gorm.DB) ([]*types.RproCatalog, error) {
	results := make([]*types.RproCatalog, 0, len(f.rows))
	for _, row := range f.rows {
		results = append(results, row)
	}
	return results, nil
}

func (f *fakeRproRepo) FindByID(ctx context.Context, tx *gorm.DB, id int64) (*types.RproCatalog, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return row, nil
}

// fakeConversionRepo is an in-memory stand-in for AL_CATALOG_TWOSTEP. It
// can hold duplicate keys, which the real table technically allows.
type fakeConversionRepo struct {
	rows []*types.Conversion
}

func newFakeConversionRepo(rows ...*types.Conversion) *fakeConversionRepo {
	repo := &fakeConversionRepo{}
	for _, row := range rows {
		copied := *row
		repo.rows = append(repo.rows, &copied)
	}
	return repo
}

func (f *fakeConversionRepo) FindAll(ctx context.Context, tx *gorm.DB) ([]*types.Conversion, error) {
	return append([]*types.Conversion{}, f.rows...), nil
}

func (f *fakeConversionRepo) FindByKey(ctx context.Context, tx *gorm.DB, key types.ConversionKey) (*types.Conversion, error) {
	for _, row := range f.rows {
		if row.ConversionKey == key {
			return row, nil
		}
	}
	return nil, nil
}

func (f *fakeConversionRepo) ExistsByKey(ctx context.Context, tx *gorm.DB, key types.ConversionKey) (bool, error) {
	row, _ := f.FindByKey(ctx, tx, key)
	return row != nil, nil
}

func (f *fakeConversionRepo) Save(ctx context.Context, tx *gorm.DB, record *types.Conversion) (*types.Conversion, error) {
	copied := *record
	for i, row := range f.rows {
		if row.ConversionKey == record.ConversionKey {
			f.rows[i] = &copied
			return record, nil
		}
	}
	f.rows = append(f.rows, &copied)
	return record, nil
}

func (f *fakeConversionRepo) DeleteByKey(ctx context.Context, tx *gorm.DB, key types.ConversionKey) error {
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.ConversionKey != key {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

// Shared row builders.

func legacyRow(id int64, sbsNo int, modulo, campo, valor string) *types.LegacyCatalog {
	return &types.LegacyCatalog{
		ID:        id,
		SbsNo:     sbsNo,
		Modulo:    modulo,
		Campo:     campo,
		Valor:     valor,
		Activo:    1,
		CreadoPor: "SEED",
	}
}

func rproRow(sid int64, sbsNo int, modulo, campo, valor string) *types.RproCatalog {
	return &types.RproCatalog{
		RproSid: sid,
		SbsNo:   &sbsNo,
		Modulo:  &modulo,
		Campo:   &campo,
		Valor:   &valor,
		Activo:  1,
	}
}

func conversionRowFor(modulo, campo, valor string, cadena int, domain string) *types.Conversion {
	return &types.Conversion{
		ConversionKey: types.ConversionKey{Modulo: modulo, Campo: campo, Valor: valor, Cadena: cadena},
		Domain:        &domain,
	}
}
