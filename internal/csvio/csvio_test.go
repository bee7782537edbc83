package csvio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/geosocial/backend/internal/domain"
)

func TestReadCheckIns(t *testing.T) {
	input := "user,check_in_time,latitude,longitude,location_id\n" +
		"0,2010-10-19T23:55:27Z,30.2359091167,-97.7951395833,22847\n" +
		"1,2010-10-18T22:17:43Z,30.2691029532,-97.7493953705,420315\n"

	rows, err := ReadCheckIns(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.CheckInRow{
		User:        1,
		CheckInTime: "2010-10-18T22:17:43Z",
		Latitude:    30.2691029532,
		Longitude:   -97.7493953705,
		LocationID:  420315,
	}, rows[1])
}

func TestReadCheckIns_ColumnOrderFromHeader(t *testing.T) {
	input := "location_id,user,latitude,longitude,check_in_time,extra\n" +
		"5,3,1.5,2.5,2011-01-01T00:00:00Z,ignored\n"

	rows, err := ReadCheckIns(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].User)
	assert.Equal(t, int64(5), rows[0].LocationID)
	assert.Equal(t, "2011-01-01T00:00:00Z", rows[0].CheckInTime)
}

func TestReadCheckIns_MissingColumn(t *testing.T) {
	_, err := ReadCheckIns(strings.NewReader("user,latitude\n1,2\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestReadEdges_BadValueReportsLine(t *testing.T) {
	input := "user_source,user_target\n1,2\n3,abc\n"

	_, err := ReadEdges(strings.NewReader(input))
	require.Error(t, err)

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 3, rowErr.Line)
	assert.Equal(t, "user_target", rowErr.Column)
}

func TestReadEdges_EmptyInput(t *testing.T) {
	rows, err := ReadEdges(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteThenReadKeepsRows(t *testing.T) {
	checkIns := []domain.CheckInRow{
		{User: 4, CheckInTime: "2010-10-17T23:42:03Z", Latitude: 30.2557309927, Longitude: -97.7633857727, LocationID: 316637},
	}
	edges := []domain.EdgeRow{{UserSource: 4, UserTarget: 1}, {UserSource: 1, UserTarget: 4}}

	var buf bytes.Buffer
	require.NoError(t, WriteCheckIns(&buf, checkIns))
	gotCheckIns, err := ReadCheckIns(&buf)
	require.NoError(t, err)
	assert.Equal(t, checkIns, gotCheckIns)

	buf.Reset()
	require.NoError(t, WriteEdges(&buf, edges))
	gotEdges, err := ReadEdges(&buf)
	require.NoError(t, err)
	assert.Equal(t, edges, gotEdges)
}
