package allocation

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/warp/allocation-engine/calendar"
)

// TotalColumn is the header of the last export column.
const TotalColumn = "Total (%)"

// Table is export-ready tabular data: a header and one row per consultant.
type Table struct {
	Header []string
	Rows   [][]string
}

// ExportTable renders one row per consultant: name, each project's average
// and the total, all with exactly two decimals. Totals above 100 are
// reported as is.
func ExportTable(ds *Dataset, sel Selection) Table {
	header := make([]string, 0, len(ds.Projects)+2)
	header = append(header, "Consultant")
	header = append(header, ds.Projects...)
	header = append(header, TotalColumn)

	table := Table{Header: header, Rows: make([][]string, 0, len(ds.Consultants))}
	for _, s := range SummarizeAll(ds, sel) {
		row := make([]string, 0, len(header))
		row = append(row, s.Consultant)
		for _, ps := range s.Projects {
			row = append(row, ps.Average.StringFixed(2))
		}
		row = append(row, s.Total.StringFixed(2))
		table.Rows = append(table.Rows, row)
	}
	return table
}

// WriteCSV writes the header and rows as comma-delimited text. Fields
// containing commas or quotes are quoted.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// ExportFilename names an export by its date range.
func ExportFilename(start, end calendar.Date) string {
	return fmt.Sprintf("allocation_%s_to_%s.csv", start, end)
}
