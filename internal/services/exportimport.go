package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/kreaker/cnc-backend/internal/apierr"
	"github.com/kreaker/cnc-backend/internal/logger"
	"github.com/kreaker/cnc-backend/internal/types"
)

var catalogHeaders = []string{
	"Modulo", "Campo", "Valor", "Cadena", "Descripcion", "Orden", "Source",
	"Has_Conversion", "Conversion_Domain", "Conversion_Status",
}

var conversionHeaders = []string{
	"Modulo", "Campo", "Valor", "Cadena", "Domain", "Status",
}

// ExportImportService moves the unified catalog view in and out of flat
// tabular files. Export walks the unified view; import is header-driven,
// so the catalog export, the conversion template and the plain
// eight-column layout all round-trip through the same parser.
type ExportImportService interface {
	ExportCatalogCSV(ctx context.Context, filter *types.CatalogFilter) ([]byte, error)
	ExportCatalogExcel(ctx context.Context, filter *types.CatalogFilter) ([]byte, error)
	ExportConversionsCSV(ctx context.Context, filter *types.CatalogFilter) ([]byte, error)
	ExportConversionsExcel(ctx context.Context, filter *types.CatalogFilter) ([]byte, error)
	ImportCSV(ctx context.Context, r io.Reader) (*types.ImportResult, error)
	ImportExcel(ctx context.Context, r io.Reader) (*types.ImportResult, error)
}

type exportImportService struct {
	log               *logger.Logger
	catalogService    CatalogService
	conversionService ConversionService
}

func NewExportImportService(
	log *logger.Logger,
	catalogService CatalogService,
	conversionService ConversionService,
) ExportImportService {
	serviceLog := log.With("service", "ExportImportService")
	return &exportImportService{
		log:               serviceLog,
		catalogService:    catalogService,
		conversionService: conversionService,
	}
}

func (es *exportImportService) ExportCatalogCSV(ctx context.Context, filter *types.CatalogFilter) ([]byte, error) {
	items, err := es.catalogService.GetUnifiedCatalog(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(catalogHeaders); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, item := range items {
		if err := writer.Write(catalogRow(item)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	es.log.Info("Exported catalog items to CSV", "count", len(items))
	return buf.Bytes(), nil
}

func (es *exportImportService) ExportCatalogExcel(ctx context.Context, filter *types.CatalogFilter) ([]byte, error) {
	items, err := es.catalogService.GetUnifiedCatalog(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, catalogRow(item))
	}

	data, err := writeWorkbook("Catalog", catalogHeaders, rows)
	if err != nil {
		return nil, err
	}
	es.log.Info("Exported catalog items to Excel", "count", len(items))
	return data, nil
}

func (es *exportImportService) ExportConversionsCSV(ctx context.Context, filter *types.CatalogFilter) ([]byte, error) {
	items, err := es.catalogService.GetUnifiedCatalog(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(conversionHeaders); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, item := range items {
		if err := writer.Write(conversionRow(item)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	es.log.Info("Exported conversion template to CSV", "count", len(items))
	return buf.Bytes(), nil
}

func (es *exportImportService) ExportConversionsExcel(ctx context.Context, filter *types.CatalogFilter) ([]byte, error) {
	items, err := es.catalogService.GetUnifiedCatalog(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, conversionRow(item))
	}

	data, err := writeWorkbook("Conversions", conversionHeaders, rows)
	if err != nil {
		return nil, err
	}
	es.log.Info("Exported conversion template to Excel", "count", len(items))
	return data, nil
}

func (es *exportImportService) ImportCSV(ctx context.Context, r io.Reader) (*types.ImportResult, error) {
	reader := csv.NewReader(r)
	// Real-world exports are sloppy about quoting and column counts.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apierr.Invalid("invalid_csv", "malformed CSV: %v", err)
		}
		records = append(records, record)
	}

	return es.importRecords(ctx, records)
}

func (es *exportImportService) ImportExcel(ctx context.Context, r io.Reader) (*types.ImportResult, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierr.Invalid("invalid_excel", "malformed Excel file: %v", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return &types.ImportResult{Success: false, Message: "Empty file"}, nil
	}
	records, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, apierr.Invalid("invalid_excel", "read Excel sheet: %v", err)
	}

	return es.importRecords(ctx, records)
}

// importRow is one parsed, validated tabular record.
type importRow struct {
	Modulo      string
	Campo       string
	Valor       string
	Cadena      int
	Descripcion *string
	Orden       *int
	Domain      *string
	Status      *int
}

func (es *exportImportService) importRecords(ctx context.Context, records [][]string) (*types.ImportResult, error) {
	result := &types.ImportResult{Errors: []string{}}

	if len(records) == 0 {
		result.Success = false
		result.Message = "Empty file"
		return result, nil
	}

	columns, err := headerIndex(records[0])
	if err != nil {
		return nil, err
	}

	batchID := uuid.New()
	log := es.log.With("import_batch", batchID.String())
	log.Info("Starting import", "rows", len(records)-1)

	for i, record := range records[1:] {
		// 1-based row numbers counting the header as row 1.
		rowNum := i + 2

		row, err := parseImportRow(columns, record)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		if err := es.processRow(ctx, row, result); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	result.Success = result.Failed == 0
	result.Message = fmt.Sprintf(
		"Import completed: %d catalog created, %d catalog updated, %d conversions created, %d conversions updated, %d conversions skipped, %d failed",
		result.CatalogCreated, result.CatalogUpdated,
		result.ConversionCreated, result.ConversionUpdated, result.ConversionSkipped,
		result.Failed,
	)
	log.Info("Import finished", "message", result.Message)
	return result, nil
}

// processRow applies the per-row import policy: existing business keys
// are never overwritten (counted as updated), new keys become LEGACY
// rows, and the conversion is created or updated only when the row
// carries a domain value.
func (es *exportImportService) processRow(ctx context.Context, row *importRow, result *types.ImportResult) error {
	key := types.ConversionKey{Modulo: row.Modulo, Campo: row.Campo, Valor: row.Valor, Cadena: row.Cadena}

	catalogExists, err := es.conversionService.CatalogItemExists(ctx, key)
	if err != nil {
		return err
	}

	if catalogExists {
		result.CatalogUpdated++
	} else {
		sbsNo := row.Cadena
		_, err := es.catalogService.CreateLegacyCatalog(ctx, &types.CatalogItem{
			Source:      types.SourceLegacy,
			SbsNo:       &sbsNo,
			Modulo:      &row.Modulo,
			Campo:       &row.Campo,
			Valor:       &row.Valor,
			Descripcion: row.Descripcion,
			Orden:       row.Orden,
		})
		switch {
		case err == nil:
			result.CatalogCreated++
		case apierr.CodeOf(err) == "catalog_in_rpro":
			// The key appeared in RPRO between the existence check and
			// the create; treat it like any other already-present key.
			result.CatalogUpdated++
		default:
			return err
		}
	}

	if row.Domain == nil || strings.TrimSpace(*row.Domain) == "" {
		result.ConversionSkipped++
		return nil
	}

	exists, err := es.conversionService.ConversionExists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		if _, err := es.conversionService.UpdateConversion(ctx, key, row.Domain, row.Status); err != nil {
			return err
		}
		result.ConversionUpdated++
		return nil
	}

	conv := &types.Conversion{ConversionKey: key, Domain: row.Domain, Status: row.Status}
	if _, err := es.conversionService.CreateConversion(ctx, conv); err != nil {
		return err
	}
	result.ConversionCreated++
	return nil
}

// headerIndex maps normalized column names to their positions. Aliases
// accept both the plain tabular layout and the catalog export's column
// names, so an export re-imports as-is.
func headerIndex(header []string) (map[string]int, error) {
	columns := map[string]int{}
	for i, name := range header {
		normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
		switch normalized {
		case "conversion_domain":
			normalized = "domain"
		case "conversion_status":
			normalized = "status"
		case "sbs_no":
			normalized = "cadena"
		}
		if _, ok := columns[normalized]; !ok {
			columns[normalized] = i
		}
	}

	for _, required := range []string{"modulo", "campo", "valor", "cadena"} {
		if _, ok := columns[required]; !ok {
			return nil, apierr.Invalid("invalid_header", "missing required column %q", required)
		}
	}
	return columns, nil
}

func parseImportRow(columns map[string]int, record []string) (*importRow, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	row := &importRow{
		Modulo: cell("modulo"),
		Campo:  cell("campo"),
		Valor:  cell("valor"),
	}
	if row.Modulo == "" {
		return nil, fmt.Errorf("modulo is required")
	}
	if row.Campo == "" {
		return nil, fmt.Errorf("campo is required")
	}
	if row.Valor == "" {
		return nil, fmt.Errorf("valor is required")
	}

	cadenaRaw := cell("cadena")
	if cadenaRaw == "" {
		return nil, fmt.Errorf("cadena is required")
	}
	cadena, err := strconv.Atoi(cadenaRaw)
	if err != nil {
		return nil, fmt.Errorf("cadena must be a valid integer: %q", cadenaRaw)
	}
	row.Cadena = cadena

	if descripcion := cell("descripcion"); descripcion != "" {
		row.Descripcion = &descripcion
	}
	if ordenRaw := cell("orden"); ordenRaw != "" {
		orden, err := strconv.Atoi(ordenRaw)
		if err != nil {
			return nil, fmt.Errorf("orden must be a valid integer: %q", ordenRaw)
		}
		row.Orden = &orden
	}
	if domain := cell("domain"); domain != "" {
		row.Domain = &domain
		status := 1
		if statusRaw := cell("status"); statusRaw != "" {
			status, err = strconv.Atoi(statusRaw)
			if err != nil {
				return nil, fmt.Errorf("status must be a valid integer: %q", statusRaw)
			}
		}
		row.Status = &status
	}

	return row, nil
}

func catalogRow(item *types.CatalogItem) []string {
	hasConversion := "No"
	if item.HasConversion {
		hasConversion = "Yes"
	}
	return []string{
		strOrEmpty(item.Modulo),
		strOrEmpty(item.Campo),
		strOrEmpty(item.Valor),
		intOrEmpty(item.SbsNo),
		strOrEmpty(item.Descripcion),
		intOrEmpty(item.Orden),
		item.SourceDisplay,
		hasConversion,
		strOrEmpty(item.ConversionDomain),
		intOrEmpty(item.ConversionStatus),
	}
}

func conversionRow(item *types.CatalogItem) []string {
	status := "1"
	if item.ConversionStatus != nil {
		status = strconv.Itoa(*item.ConversionStatus)
	}
	return []string{
		strOrEmpty(item.Modulo),
		strOrEmpty(item.Campo),
		strOrEmpty(item.Valor),
		intOrEmpty(item.SbsNo),
		strOrEmpty(item.ConversionDomain),
		status,
	}
}

func writeWorkbook(sheet string, headers []string, rows [][]string) ([]byte, error) {
	workbook := excelize.NewFile()
	defer workbook.Close()

	if err := workbook.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := workbook.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, name := range headers {
		cellRef, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := workbook.SetCellValue(sheet, cellRef, name); err != nil {
			return nil, fmt.Errorf("write header cell: %w", err)
		}
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return nil, err
	}
	if err := workbook.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for rowIdx, row := range rows {
		for col, value := range row {
			cellRef, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := workbook.SetCellValue(sheet, cellRef, value); err != nil {
				return nil, fmt.Errorf("write cell: %w", err)
			}
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrEmpty(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
