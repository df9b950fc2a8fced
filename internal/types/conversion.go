package types

import (
	"fmt"
	"time"
)

// ConversionKey is the composite identity of a conversion row. It is a
// comparable value type so it can key the enrichment map directly;
// cadena aliases the catalog business key's sbs_no.
type ConversionKey struct {
	Modulo string `gorm:"column:modulo;size:50;primaryKey" json:"modulo"`
	Campo  string `gorm:"column:campo;size:50;primaryKey" json:"campo"`
	Valor  string `gorm:"column:valor;size:50;primaryKey" json:"valor"`
	Cadena int    `gorm:"column:cadena;primaryKey" json:"cadena"`
}

func (k ConversionKey) String() string {
	return fmt.Sprintf("modulo=%s, campo=%s, valor=%s, cadena=%d", k.Modulo, k.Campo, k.Valor, k.Cadena)
}

func (k ConversionKey) CadenaDisplay() string {
	return cadenaDisplay(k.Cadena)
}

// Conversion maps the AL_CATALOG_TWOSTEP table: an association from a
// catalog business key to an external domain/status code.
type Conversion struct {
	ConversionKey `gorm:"embedded"`

	Domain *string `gorm:"column:domain;size:20" json:"domain"`
	Status *int    `gorm:"column:status" json:"status"`

	CreatedAt  *time.Time `gorm:"column:created_at" json:"created_at"`
	CreatedBy  *string    `gorm:"column:created_by;size:50" json:"created_by"`
	ModifiedAt *time.Time `gorm:"column:modified_at" json:"modified_at"`
	ModifiedBy *string    `gorm:"column:modified_by;size:50" json:"modified_by"`

	// CatalogSource is a display label resolved on read ("RV_CATALOGOS
	// (Legacy)", "RV_RPRO_CATALOGO (RPRO)" or "Unknown"); never stored.
	CatalogSource string `gorm:"-" json:"catalog_source,omitempty"`
}

func (Conversion) TableName() string { return "al_catalog_twostep" }
