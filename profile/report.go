package profile

import (
	"fmt"
	"io"
	"sort"

	"github.com/360EntSecGroup-Skylar/excelize"
)

// WriteReport renders the profiling Result as an XLSX workbook with a
// summary sheet and, when validity failures were found, an issue sheet.
func WriteReport(w io.Writer, res *Result) error {
	f := excelize.NewFile()

	row := 0
	put := func(name string, value interface{}) {
		row++
		f.SetCellValue("Sheet1", fmt.Sprintf("A%d", row), name)
		f.SetCellValue("Sheet1", fmt.Sprintf("B%d", row), value)
	}

	put("Input file", res.InputFilename)
	put("Format", res.Format)
	put("Records", res.Records)
	put("Total bases", res.Bases)
	put("Min length", res.MinLength)
	put("Max length", res.MaxLength)
	put("Mean length", res.MeanLength)
	put("GC fraction", res.GC)
	put("Has quality", res.HasQuality)
	put("Invalid records", res.InvalidRecords)
	put("Duplicate estimate", res.DuplicateEstimate)
	if res.ParseError != "" {
		put("Parse error", res.ParseError)
	}

	put("", "")
	put("Base", "Count")
	bases := make([]string, 0, len(res.BaseCounts))
	for b := range res.BaseCounts {
		bases = append(bases, b)
	}
	sort.Strings(bases)
	for _, b := range bases {
		put(b, res.BaseCounts[b])
	}

	if len(res.Issues) > 0 {
		f.NewSheet("Issues")
		f.SetCellValue("Issues", "A1", "Record")
		f.SetCellValue("Issues", "B1", "Ordinal")
		f.SetCellValue("Issues", "C1", "Reason")
		for i, iss := range res.Issues {
			f.SetCellValue("Issues", fmt.Sprintf("A%d", i+2), iss.RecordID)
			f.SetCellValue("Issues", fmt.Sprintf("B%d", i+2), iss.Ordinal)
			f.SetCellValue("Issues", fmt.Sprintf("C%d", i+2), iss.Reason)
		}
	}

	return f.Write(w)
}
