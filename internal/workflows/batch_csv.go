package workflows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/astrochart/internal/core/domain"
)

// ParseBatchCSV reads chart requests from CSV with a header row. Columns:
// label, date (YYYY-MM-DD), time (HH:MM, blank when unknown), utc_offset,
// latitude, longitude. Only date is required; latitude and longitude go
// together. Range checks are left to the chart service so that one bad
// birth date shows up as a batch failure instead of rejecting the file.
func ParseBatchCSV(r io.Reader) ([]ChartBatchRequest, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	if _, ok := cols["date"]; !ok {
		return nil, errors.New("missing date column")
	}

	var reqs []ChartBatchRequest
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		req, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func parseRow(record []string, cols map[string]int) (ChartBatchRequest, error) {
	req := ChartBatchRequest{Label: getField(record, cols, "label")}

	date, err := time.Parse("2006-01-02", getField(record, cols, "date"))
	if err != nil {
		return req, fmt.Errorf("date: %w", err)
	}
	req.Birth = domain.BirthMoment{Year: date.Year(), Month: int(date.Month()), Day: date.Day(), Hour: 12}

	if raw := getField(record, cols, "time"); raw != "" {
		clock, err := time.Parse("15:04", raw)
		if err != nil {
			return req, fmt.Errorf("time: %w", err)
		}
		req.Birth.Hour, req.Birth.Minute = clock.Hour(), clock.Minute()
		req.Birth.TimeKnown = true
	}

	if raw := getField(record, cols, "utc_offset"); raw != "" {
		off, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("utc_offset: %w", err)
		}
		req.Birth.UTCOffsetHours = off
	}

	lat, lon := getField(record, cols, "latitude"), getField(record, cols, "longitude")
	if (lat == "") != (lon == "") {
		return req, errors.New("latitude and longitude must be given together")
	}
	if lat != "" {
		var geo domain.GeoCoordinate
		if geo.Latitude, err = strconv.ParseFloat(lat, 64); err != nil {
			return req, fmt.Errorf("latitude: %w", err)
		}
		if geo.Longitude, err = strconv.ParseFloat(lon, 64); err != nil {
			return req, fmt.Errorf("longitude: %w", err)
		}
		req.Geo = &geo
	}
	return req, nil
}

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		// Strip BOM from first column
		col = strings.TrimPrefix(col, "\xef\xbb\xbf")
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

func getField(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
