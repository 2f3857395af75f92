package survey

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// ReadStationsFile loads survey stations from the first sheet of an xlsx workbook.
func ReadStationsFile(path string) ([]Station, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("survey: open %s: %w", path, err)
	}
	defer f.Close()
	return readStations(f)
}

// ReadStations loads survey stations from an xlsx workbook. The first sheet
// holds one station per row with MD, inclination and azimuth in the first
// three columns. Blank rows are skipped and the first non-blank row is
// treated as a header when its MD cell is not numeric.
func ReadStations(r io.Reader) ([]Station, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("survey: open workbook: %w", err)
	}
	defer f.Close()
	return readStations(f)
}

func readStations(f *excelize.File) ([]Station, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoStations
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("survey: read sheet %s: %w", sheets[0], err)
	}

	var stations []Station
	header := false
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: row %d has %d cells", ErrBadStation, i+1, len(row))
		}
		md, err := cast.ToFloat64E(strings.TrimSpace(row[0]))
		if err != nil {
			if len(stations) == 0 && !header {
				header = true
				continue
			}
			return nil, fmt.Errorf("%w: row %d md: %v", ErrBadStation, i+1, err)
		}
		inc, err := cast.ToFloat64E(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d inclination: %v", ErrBadStation, i+1, err)
		}
		var azi float64
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			if azi, err = cast.ToFloat64E(strings.TrimSpace(row[2])); err != nil {
				return nil, fmt.Errorf("%w: row %d azimuth: %v", ErrBadStation, i+1, err)
			}
		}
		stations = append(stations, Station{MD: md, Inc: inc, Azi: azi})
	}
	if len(stations) == 0 {
		return nil, ErrNoStations
	}
	return stations, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
