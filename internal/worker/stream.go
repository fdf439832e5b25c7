package worker

import (
	"context"
	"fmt"
	"time"

	"sheetstream/internal/driver"
	"sheetstream/internal/sheet"
	"sheetstream/internal/writer"
)

// ExportResult contains stats about the export.
type ExportResult struct {
	RowsProcessed int64
	Flushes       int
	Duration      time.Duration
}

// headerStyle is applied to the column-name row.
var headerStyle = sheet.Style{FontBold: true}

// StreamRows copies every row of rows into w, which must be opened. Memory
// use stays constant: one scan buffer is reused for the whole result set.
// The header row, when requested, is not counted in RowsProcessed.
func StreamRows(ctx context.Context, rows driver.RowStreamer, w *writer.Writer, includeHeader bool) (*ExportResult, error) {
	start := time.Now()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	if includeHeader {
		if err := w.AddRow(sheet.NewRowFromStrings(columns).WithStyle(headerStyle)); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	values := make([]interface{}, len(columns))
	scanArgs := make([]interface{}, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	var rowCount int64
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("row scan failed: %w", err)
		}
		// NewRow copies []byte values, so the scan buffer can be reused.
		if err := w.AddRow(sheet.NewRow(values...)); err != nil {
			return nil, fmt.Errorf("row %d: %w", rowCount, err)
		}
		rowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return &ExportResult{
		RowsProcessed: rowCount,
		Duration:      time.Since(start),
	}, nil
}
