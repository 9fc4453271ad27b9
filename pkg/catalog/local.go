package catalog

import (
	"encoding/csv"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadLocal reads a file-backed catalog: a CSV table with at least
// name/ra/dec columns and an optional diameter column (arcminutes).
//
// Loading is deliberately forgiving. A missing file or a table without the
// required columns yields an empty result, logged but never an error; a
// malformed source must cost that one catalog, not the run. Non-numeric
// ra/dec values drop the row, a non-numeric diameter becomes "size unknown".
func LoadLocal(path, code string) []Row {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("Catalog file not found: %s", path)
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		log.Printf("Error loading catalog %s: %v", path, err)
		return nil
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameIdx, okName := col["name"]
	raIdx, okRA := col["ra"]
	decIdx, okDec := col["dec"]
	if !okName || !okRA || !okDec {
		log.Printf("Missing required columns in: %s", path)
		return nil
	}
	diamIdx, hasDiam := col["diameter"]

	var rows []Row
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		if nameIdx >= len(rec) || raIdx >= len(rec) || decIdx >= len(rec) {
			continue
		}
		ra, okA := parseFloat(rec[raIdx])
		dec, okB := parseFloat(rec[decIdx])
		if !okA || !okB {
			continue
		}
		diam := math.NaN()
		if hasDiam && diamIdx < len(rec) {
			if v, ok := parseFloat(rec[diamIdx]); ok {
				diam = v
			}
		}
		rows = append(rows, Row{
			MainID:           strings.TrimSpace(rec[nameIdx]),
			RA:               ra,
			Dec:              dec,
			Type:             code,
			AngularMajorAxis: diam,
		})
	}
	return rows
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
