package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spektr-org/cardbuffet/engine"
)

// ============================================================================
// OUTPUT WRITERS
// ============================================================================

// openOutput returns stdout or the named file.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func writeJSON(w io.Writer, v any, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeCSV writes each card's table as a block: title row, headers, rows,
// then a blank separator line.
func writeCSV(w io.Writer, result *engine.Result) error {
	cw := csv.NewWriter(w)

	for i, card := range result.Cards {
		if i > 0 {
			cw.Write(nil)
		}
		cw.Write([]string{card.Title})
		cw.Write(card.TableSpec.Headers)
		for _, row := range card.TableSpec.Rows {
			cells := make([]string, len(row))
			for j, cell := range row {
				cells[j] = fmtCell(cell)
			}
			cw.Write(cells)
		}
	}

	cw.Flush()
	return cw.Error()
}

func fmtCell(v any) string {
	switch n := v.(type) {
	case float64:
		return fmtNum(n)
	case int:
		return fmt.Sprintf("%d", n)
	case nil:
		return ""
	default:
		return fmt.Sprint(n)
	}
}

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
