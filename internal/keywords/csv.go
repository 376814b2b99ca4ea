package keywords

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
)

func readCSV(ctx context.Context, r io.Reader, opts Options) ([]string, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields

	var rows [][]string
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "keywords: context cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "keywords: read csv row")
		}
		rows = append(rows, record)
	}
	return pick(rows, opts.Column)
}
