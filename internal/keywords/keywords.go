// Package keywords loads batch keyword lists from text, CSV and XLSX files.
package keywords

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Options selects where keywords live in tabular files. Plain text files
// ignore them.
type Options struct {
	// Column is the header name of the keyword column. When empty the first
	// column is used and no header row is assumed.
	Column string
	// SheetName picks an XLSX sheet. Default: the first sheet.
	SheetName string
}

// Load reads keywords from path, choosing the parser by extension (.csv,
// .xlsx, anything else is one keyword per line). Values are trimmed, blanks
// and "#" comments are dropped, and duplicates keep their first position.
func Load(ctx context.Context, path string, opts Options) ([]string, error) {
	var (
		raw []string
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "keywords: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		raw, err = readCSV(ctx, f, opts)
	case ".xlsx":
		raw, err = readXLSX(path, opts)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "keywords: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		raw, err = readLines(ctx, f)
	}
	if err != nil {
		return nil, err
	}
	return Clean(raw), nil
}

// Clean trims values, normalizes them to NFC, drops blanks and comments, and
// removes case-insensitive duplicates.
func Clean(raw []string) []string {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		k = norm.NFC.String(strings.TrimSpace(k))
		if k == "" || strings.HasPrefix(k, "#") {
			continue
		}
		key := fold.String(k)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	return out
}

func readLines(ctx context.Context, r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "keywords: context cancelled")
		}
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "keywords: read lines")
	}
	return out, nil
}

// column returns the index of the keyword column in header, or 0 when name
// is empty.
func column(header []string, name string) (int, error) {
	if name == "" {
		return 0, nil
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, nil
		}
	}
	return 0, eris.Errorf("keywords: column %q not found", name)
}

// pick extracts the keyword column from rows, honouring the header when a
// column name is configured.
func pick(rows [][]string, name string) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	idx := 0
	if name != "" {
		var err error
		idx, err = column(rows[0], name)
		if err != nil {
			return nil, err
		}
		rows = rows[1:]
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out, nil
}
