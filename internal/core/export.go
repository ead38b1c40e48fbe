package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// ExportCSV writes the header row and every matching row to w as CSV and
// returns the number of data rows written. The CSV is flushed every
// exportFlushRows rows so large exports stream to the client.
func (s *Service) ExportCSV(ctx context.Context, tableKey string, q TableQuery, w io.Writer) (int, error) {
	def, err := Lookup(tableKey)
	if err != nil {
		return 0, err
	}

	columns := def.Info.Columns
	types := make([]FieldType, len(columns))
	for i, col := range columns {
		if spec, ok := def.Spec(col); ok {
			types[i] = spec.Type
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	written := 0
	record := make([]string, len(columns))
	err = s.StreamTableData(ctx, tableKey, q, func(row TableRow) error {
		for i, col := range columns {
			record[i] = FormatCell(types[i], row[col])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		written++
		if written%exportFlushRows == 0 {
			cw.Flush()
			return cw.Error()
		}
		return nil
	})
	if err != nil {
		return written, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("flush csv: %w", err)
	}

	s.logger.Info("table exported", "table", tableKey, "rows", written)
	return written, nil
}

const exportFlushRows = 500
