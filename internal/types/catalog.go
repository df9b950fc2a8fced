package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CatalogSource identifies which physical table a catalog row lives in.
// The two tables are independently keyed; the tag disambiguates ids that
// collide numerically.
type CatalogSource string

const (
	SourceLegacy CatalogSource = "LEGACY"
	SourceRpro   CatalogSource = "RPRO"
)

func ParseCatalogSource(s string) (CatalogSource, error) {
	switch CatalogSource(strings.ToUpper(strings.TrimSpace(s))) {
	case SourceLegacy:
		return SourceLegacy, nil
	case SourceRpro:
		return SourceRpro, nil
	default:
		return "", fmt.Errorf("unknown catalog source: %q", s)
	}
}

func (s CatalogSource) Display() string {
	switch s {
	case SourceLegacy:
		return "Legacy"
	case SourceRpro:
		return "RPRO"
	default:
		return string(s)
	}
}

// LegacyCatalog maps the RV_CATALOGOS table. Ids are assigned by the
// application (max+1), not by a sequence.
type LegacyCatalog struct {
	ID                int64      `gorm:"column:p_id;primaryKey" json:"id"`
	SbsNo             int        `gorm:"column:sbs_no;not null" json:"sbs_no"`
	Modulo            string     `gorm:"column:modulo;size:50;not null" json:"modulo"`
	Campo             string     `gorm:"column:campo;size:50;not null" json:"campo"`
	Valor             string     `gorm:"column:valor;size:100;not null" json:"valor"`
	Descripcion       *string    `gorm:"column:descripcion;size:200" json:"descripcion"`
	Activo            int        `gorm:"column:activo;not null" json:"activo"`
	Orden             *int       `gorm:"column:orden" json:"orden"`
	CreadoPor         string     `gorm:"column:creado_por;size:30;not null" json:"creado_por"`
	FechaCreacion     time.Time  `gorm:"column:fecha_creacion;not null" json:"fecha_creacion"`
	ModificadoPor     *string    `gorm:"column:modificado_por;size:30" json:"modificado_por"`
	FechaModificacion *time.Time `gorm:"column:fecha_modificacion" json:"fecha_modificacion"`
	Estado            *string    `gorm:"column:estado;size:100" json:"estado"`
}

func (LegacyCatalog) TableName() string { return "rv_catalogos" }

// RproCatalog maps the RV_RPRO_CATALOGO table. The table is fed by an
// external system and is read-only here; key fields are nullable because
// the feed does not enforce them.
type RproCatalog struct {
	RproSid     int64   `gorm:"column:rpro_sid;primaryKey" json:"rpro_sid"`
	SbsNo       *int    `gorm:"column:sbs_no" json:"sbs_no"`
	Modulo      *string `gorm:"column:modulo;size:50" json:"modulo"`
	Campo       *string `gorm:"column:campo;size:50" json:"campo"`
	Valor       *string `gorm:"column:valor;size:100" json:"valor"`
	Descripcion *string `gorm:"column:descripcion;size:200" json:"descripcion"`
	Activo      int     `gorm:"column:activo" json:"activo"`
	Orden       *int    `gorm:"column:orden" json:"orden"`
	PadreSid    *int64  `gorm:"column:padre_sid" json:"padre_sid"`
}

func (RproCatalog) TableName() string { return "rv_rpro_catalogo" }

// CatalogItem is the unified projection of a row from either source plus
// its conversion enrichment. It is recomputed on every query and never
// persisted.
type CatalogItem struct {
	Source   CatalogSource `json:"source"`
	SourceID int64         `json:"source_id"`

	SbsNo       *int    `json:"sbs_no"`
	Modulo      *string `json:"modulo"`
	Campo       *string `json:"campo"`
	Valor       *string `json:"valor"`
	Descripcion *string `json:"descripcion"`
	Orden       *int    `json:"orden"`
	Activo      *int    `json:"activo"`

	PadreSid *int64 `json:"padre_sid,omitempty"`

	HasConversion    bool    `json:"has_conversion"`
	ConversionDomain *string `json:"conversion_domain"`
	ConversionStatus *int    `json:"conversion_status"`

	SourceDisplay string `json:"source_display"`
}

// ConversionKey builds the composite key this item would be associated
// under; nil fields collapse to their zero value and simply never match.
func (ci *CatalogItem) ConversionKey() ConversionKey {
	key := ConversionKey{}
	if ci.Modulo != nil {
		key.Modulo = *ci.Modulo
	}
	if ci.Campo != nil {
		key.Campo = *ci.Campo
	}
	if ci.Valor != nil {
		key.Valor = *ci.Valor
	}
	if ci.SbsNo != nil {
		key.Cadena = *ci.SbsNo
	}
	return key
}

// CadenaDisplay renders the sbs_no as the operator-facing chain name.
func (ci *CatalogItem) CadenaDisplay() string {
	if ci.SbsNo == nil {
		return ""
	}
	return cadenaDisplay(*ci.SbsNo)
}

func cadenaDisplay(cadena int) string {
	switch cadena {
	case 1:
		return "GNC"
	case 2:
		return "Arca"
	default:
		return strconv.Itoa(cadena)
	}
}

// CatalogFilter narrows the unified view. Absent criteria match all rows.
type CatalogFilter struct {
	Modulo        *string        `json:"modulo"`
	Campo         *string        `json:"campo"`
	SbsNo         *int           `json:"sbs_no"`
	Source        *CatalogSource `json:"source"`
	HasConversion *bool          `json:"has_conversion"`
	SearchTerm    string         `json:"search_term"`
}

// SearchTermNormalized returns the trimmed, lower-cased free-text term,
// empty when no search was requested.
func (f *CatalogFilter) SearchTermNormalized() string {
	return strings.ToLower(strings.TrimSpace(f.SearchTerm))
}
