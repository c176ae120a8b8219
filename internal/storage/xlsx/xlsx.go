// Package xlsx exports leads as a single-sheet Excel workbook. Rows are held
// in memory and the workbook is written when the backend is closed.
package xlsx

import (
	"context"
	"fmt"
	"sync"

	"github.com/FranksOps/leadscout/internal/lead"
	"github.com/FranksOps/leadscout/internal/storage"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the worksheet holding the leads.
const SheetName = "Leads"

const columnWidth = 32

// ensure xlsxBackend implements storage.Backend
var _ storage.Backend = (*xlsxBackend)(nil)

type xlsxBackend struct {
	mu     sync.Mutex
	path   string
	leads  []lead.Lead
	closed bool
}

// New returns a backend that writes filePath on Close, replacing any
// existing file.
func New(filePath string) (storage.Backend, error) {
	if filePath == "" {
		return nil, fmt.Errorf("xlsx: empty output path")
	}
	return &xlsxBackend{path: filePath}, nil
}

func (b *xlsxBackend) Save(ctx context.Context, l lead.Lead) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("xlsx %s: save after close", b.path)
	}
	b.leads = append(b.leads, l)
	return nil
}

func (b *xlsxBackend) Query(ctx context.Context, filter storage.Filter) ([]lead.Lead, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var matched []lead.Lead
	for _, l := range b.leads {
		if filter.Match(l) {
			matched = append(matched, l)
		}
	}
	return filter.Page(matched), nil
}

func (b *xlsxBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return write(b.path, b.leads)
}

func write(path string, leads []lead.Lead) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := setRow(f, 1, storage.Columns); err != nil {
		return err
	}
	for i, l := range leads {
		if err := setRow(f, i+2, storage.Row(l)); err != nil {
			return err
		}
	}

	for i := 1; i <= len(storage.Columns); i++ {
		col, err := excelize.ColumnNumberToName(i)
		if err != nil {
			return fmt.Errorf("column name %d: %w", i, err)
		}
		_ = f.SetColWidth(SheetName, col, col, columnWidth)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []string) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return fmt.Errorf("cell name %d,%d: %w", c+1, row, err)
		}
		if err := f.SetCellStr(SheetName, cell, v); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}
