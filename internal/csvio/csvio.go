// Package csvio reads and writes the tabular check-in and edge datasets.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vanshika/geosocial/backend/internal/domain"
)

// Column names expected in the input headers.
var (
	CheckInColumns = []string{"user", "check_in_time", "latitude", "longitude", "location_id"}
	EdgeColumns    = []string{"user_source", "user_target"}
)

// ErrMissingColumn indicates the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// RowError describes a value that could not be parsed.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ReadCheckIns parses check-in rows. Extra columns are ignored.
func ReadCheckIns(r io.Reader) ([]domain.CheckInRow, error) {
	var rows []domain.CheckInRow
	err := readRows(r, CheckInColumns, func(line int, get func(string) string) error {
		user, err := parseInt(line, "user", get("user"))
		if err != nil {
			return err
		}
		lat, err := parseFloat(line, "latitude", get("latitude"))
		if err != nil {
			return err
		}
		lng, err := parseFloat(line, "longitude", get("longitude"))
		if err != nil {
			return err
		}
		locationID, err := parseInt(line, "location_id", get("location_id"))
		if err != nil {
			return err
		}
		rows = append(rows, domain.CheckInRow{
			User:        user,
			CheckInTime: get("check_in_time"),
			Latitude:    lat,
			Longitude:   lng,
			LocationID:  locationID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadEdges parses directed edge rows.
func ReadEdges(r io.Reader) ([]domain.EdgeRow, error) {
	var rows []domain.EdgeRow
	err := readRows(r, EdgeColumns, func(line int, get func(string) string) error {
		source, err := parseInt(line, "user_source", get("user_source"))
		if err != nil {
			return err
		}
		target, err := parseInt(line, "user_target", get("user_target"))
		if err != nil {
			return err
		}
		rows = append(rows, domain.EdgeRow{UserSource: source, UserTarget: target})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// OpenCheckIns reads check-ins from the file at path.
func OpenCheckIns(path string) ([]domain.CheckInRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	rows, err := ReadCheckIns(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// OpenEdges reads edges from the file at path.
func OpenEdges(path string) ([]domain.EdgeRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	rows, err := ReadEdges(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// WriteCheckIns writes rows with a header line.
func WriteCheckIns(w io.Writer, rows []domain.CheckInRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CheckInColumns); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.User, 10),
			row.CheckInTime,
			strconv.FormatFloat(row.Latitude, 'f', -1, 64),
			strconv.FormatFloat(row.Longitude, 'f', -1, 64),
			strconv.FormatInt(row.LocationID, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEdges writes rows with a header line.
func WriteEdges(w io.Writer, rows []domain.EdgeRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EdgeColumns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write([]string{
			strconv.FormatInt(row.UserSource, 10),
			strconv.FormatInt(row.UserTarget, 10),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readRows(r io.Reader, required []string, fn func(line int, get func(string) string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line, _ := cr.FieldPos(0)
		get := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		if err := fn(line, get); err != nil {
			return err
		}
	}
}

func parseInt(line int, column, value string) (int64, error) {
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &RowError{Line: line, Column: column, Err: err}
	}
	return v, nil
}

func parseFloat(line int, column, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &RowError{Line: line, Column: column, Err: err}
	}
	return v, nil
}
