package usecase

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/store"
)

const exportSheet = "Wardrobe"

var exportColumns = []string{
	"ID", "Category", "Subcategory", "Brand", "Colors", "Seasons",
	"Occasions", "Tags", "Purchased", "Price", "Added",
}

// ExportUseCase serializes the wardrobe inventory to a spreadsheet, one
// row per item, newest first.
type ExportUseCase struct {
	items *store.Store[domain.ClothingItem]
}

func NewExportUseCase(items *store.Store[domain.ClothingItem]) *ExportUseCase {
	return &ExportUseCase{items: items}
}

// ExportXLSX renders the current inventory as an xlsx workbook and returns
// its bytes. Filters narrow the exported rows the same way they narrow the
// wardrobe listing.
func (uc *ExportUseCase) ExportXLSX(_ context.Context, filters store.Filters) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, col); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	rows := store.ApplyFilters(uc.items.List(), filters)
	for rowIdx, item := range rows {
		values := []any{
			item.ID,
			item.Category,
			item.Subcategory,
			item.Brand,
			strings.Join(item.Colors, ", "),
			strings.Join(item.Seasons, ", "),
			strings.Join(item.Occasions, ", "),
			strings.Join(item.Tags, ", "),
			item.PurchaseYearMonth,
			item.Price,
			item.CreatedAt.Format(time.DateOnly),
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", rowIdx+1, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
