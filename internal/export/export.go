// Package export renders ranked Leads for presentation.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/score"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Leads"

// Columns returns the export header in column order.
func Columns() []string {
	cols := []string{"rank", "propensity_score", "priority_level"}
	cols = append(cols, model.StringFields...)
	cols = append(cols, "author_position", "source", "enrichment_status")
	cols = append(cols, score.Criteria...)
	return append(cols, "field_sources", "secondary_publications")
}

// Rows renders each Lead as strings in Columns order.
func Rows(leads []model.Lead) [][]string {
	cols := Columns()
	rows := make([][]string, 0, len(leads))
	for i := range leads {
		flat := leads[i].Flatten()
		breakdown, _ := flat["score_breakdown"].(map[string]int)
		sources, _ := flat["field_sources"].(map[string]string)

		row := make([]string, len(cols))
		for j, c := range cols {
			if v, ok := breakdown[c]; ok {
				row[j] = strconv.Itoa(v)
				continue
			}
			switch c {
			case "field_sources":
				row[j] = formatSources(sources)
			default:
				if v, ok := flat[c]; ok {
					row[j] = fmt.Sprint(v)
				}
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteJSON writes leads as an indented JSON array.
func WriteJSON(w io.Writer, leads []model.Lead) error {
	if leads == nil {
		leads = []model.Lead{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(leads); err != nil {
		return eris.Wrap(err, "export: encode json")
	}
	return nil
}

// ReadJSON reads a Lead array written by WriteJSON.
func ReadJSON(r io.Reader) ([]model.Lead, error) {
	var leads []model.Lead
	if err := json.NewDecoder(r).Decode(&leads); err != nil {
		return nil, eris.Wrap(err, "export: decode json")
	}
	return leads, nil
}

// WriteXLSX writes leads to a single-sheet workbook at path.
func WriteXLSX(path string, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	addRow(sheet, Columns())
	for _, row := range Rows(leads) {
		addRow(sheet, row)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}

func formatSources(sources map[string]string) string {
	if len(sources) == 0 {
		return ""
	}
	keys := make([]string, 0, len(sources))
	for k := range sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + sources[k]
	}
	return strings.Join(parts, "; ")
}
