package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/scheduling-api/internal/models"
)

func fullWeekWindows(ownerID string, start, end int) []models.AvailabilityWindow {
	var windows []models.AvailabilityWindow
	for day := models.Monday; day <= models.Friday; day++ {
		windows = append(windows, models.AvailabilityWindow{
			OwnerID: ownerID,
			Day:     day,
			Range:   models.TimeRange{Start: start, End: end},
		})
	}
	return windows
}

func TestBuildMatrixMergesAndSubtracts(t *testing.T) {
	instructor := models.Instructor{
		ID: "inst-1",
		Windows: []models.AvailabilityWindow{
			{OwnerID: "inst-1", Day: models.Monday, Range: models.TimeRange{Start: 8 * 60, End: 12 * 60}},
			{OwnerID: "inst-1", Day: models.Monday, Range: models.TimeRange{Start: 11 * 60, End: 16 * 60}},
		},
		Unavailable: []models.UnavailableOverride{
			{OwnerID: "inst-1", Day: models.Monday, Range: models.TimeRange{Start: 13 * 60, End: 14 * 60}, Reason: "faculty meeting"},
		},
	}

	m, err := BuildMatrix([]models.Instructor{instructor}, nil,
		models.TimeRange{Start: 8 * 60, End: 18 * 60}, nil)
	require.NoError(t, err)

	assert.True(t, m.Available("inst-1", models.Monday, models.TimeRange{Start: 9 * 60, End: 10 * 60}))
	// Overlapping windows merged: 11:30-12:30 spans the old seam.
	assert.True(t, m.Available("inst-1", models.Monday, models.TimeRange{Start: 11*60 + 30, End: 12*60 + 30}))
	// Override always subtracts.
	assert.False(t, m.Available("inst-1", models.Monday, models.TimeRange{Start: 13 * 60, End: 14 * 60}))
	assert.False(t, m.Available("inst-1", models.Monday, models.TimeRange{Start: 12*60 + 30, End: 13*60 + 30}))
	// Other days were never declared.
	assert.False(t, m.Available("inst-1", models.Tuesday, models.TimeRange{Start: 9 * 60, End: 10 * 60}))
}

func TestBuildMatrixHalfOpenBreakBoundary(t *testing.T) {
	room := models.Room{
		ID:      "room-1",
		Windows: fullWeekWindows("room-1", 8*60, 18*60),
	}
	breaks := []models.BreakTime{
		{Day: models.Monday, Range: models.TimeRange{Start: 12 * 60, End: 13 * 60}},
	}

	m, err := BuildMatrix(nil, []models.Room{room}, models.TimeRange{Start: 8 * 60, End: 18 * 60}, breaks)
	require.NoError(t, err)

	// A session ending exactly at the break start never touches it.
	assert.True(t, m.Available("room-1", models.Monday, models.TimeRange{Start: 11 * 60, End: 12 * 60}))
	assert.True(t, m.Available("room-1", models.Monday, models.TimeRange{Start: 13 * 60, End: 14 * 60}))
	assert.False(t, m.Available("room-1", models.Monday, models.TimeRange{Start: 11*60 + 30, End: 12*60 + 30}))
}

func TestBuildMatrixRejectsInvalidWindow(t *testing.T) {
	instructor := models.Instructor{
		ID: "inst-1",
		Windows: []models.AvailabilityWindow{
			{OwnerID: "inst-1", Day: models.Monday, Range: models.TimeRange{Start: 10 * 60, End: 9 * 60}},
		},
	}
	_, err := BuildMatrix([]models.Instructor{instructor}, nil, models.TimeRange{Start: 8 * 60, End: 18 * 60}, nil)
	require.ErrorIs(t, err, ErrInvalidWindow)
}

func TestMatrixUnknownOwnerNeverAvailable(t *testing.T) {
	m, err := BuildMatrix(nil, nil, models.TimeRange{Start: 8 * 60, End: 18 * 60}, nil)
	require.NoError(t, err)
	assert.False(t, m.Available("ghost", models.Monday, models.TimeRange{Start: 9 * 60, End: 10 * 60}))
	assert.False(t, m.Knows("ghost"))
}
