package store

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/outreach-cli/internal/model"
)

// SheetSink appends rows to a worksheet in an XLSX workbook, creating the
// workbook, the sheet and its header row on first use.
type SheetSink struct {
	path  string
	sheet string
	mu    sync.Mutex
}

// NewSheetSink creates a SheetSink writing to sheet in the workbook at path.
func NewSheetSink(path, sheet string) *SheetSink {
	if sheet == "" {
		sheet = "Leads"
	}
	return &SheetSink{path: path, sheet: sheet}
}

// AppendRows adds one spreadsheet row per output row in model.RowHeader order.
func (s *SheetSink) AppendRows(ctx context.Context, rows []model.OutputRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "sheet: append")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}

	sh, ok := f.Sheet[s.sheet]
	if !ok {
		sh, err = f.AddSheet(s.sheet)
		if err != nil {
			return eris.Wrapf(err, "sheet: add sheet %q", s.sheet)
		}
	}
	if len(sh.Rows) == 0 {
		header := sh.AddRow()
		for _, h := range model.RowHeader {
			header.AddCell().SetString(h)
		}
	}

	for _, r := range rows {
		row := sh.AddRow()
		for _, v := range r.Values() {
			setCell(row.AddCell(), v)
		}
	}

	return eris.Wrapf(f.Save(s.path), "sheet: save %s", s.path)
}

func (s *SheetSink) open() (*xlsx.File, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return xlsx.NewFile(), nil
	}
	f, err := xlsx.OpenFile(s.path)
	if err != nil {
		return nil, eris.Wrapf(err, "sheet: open %s", s.path)
	}
	return f, nil
}

func setCell(c *xlsx.Cell, v any) {
	switch x := v.(type) {
	case float64:
		c.SetFloat(x)
	case int:
		c.SetInt(x)
	case string:
		c.SetString(x)
	default:
		c.SetValue(x)
	}
}
