package volist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetListValidate(t *testing.T) {
	tests := []struct {
		name string
		test func(t *testing.T)
	}{
		{"EmptyList", testValidateEmptyList},
		{"AfterInsertSequence", testValidateAfterInsertSequence},
		{"AfterSpotReservation", testValidateAfterSpotReservation},
		{"DetectsMissingOffsetEntry", testValidateDetectsMissingOffsetEntry},
		{"DetectsStalePixelEntry", testValidateDetectsStalePixelEntry},
		{"DetectsUnmergedRuns", testValidateDetectsUnmergedRuns},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.test)
	}
}

func testValidateEmptyList(t *testing.T) {
	assert.Empty(t, New().Validate())
}

func testValidateAfterInsertSequence(t *testing.T) {
	list := New()
	require.NoError(t, list.Insert(0, 0, 1))
	require.NoError(t, list.Insert(9, 10, 2))
	require.NoError(t, list.Insert(3, 7, 3))
	require.NoError(t, list.Insert(2, 9, 3))

	assert.Empty(t, list.Validate())
}

func testValidateAfterSpotReservation(t *testing.T) {
	list := New()
	require.NoError(t, list.InsertSpots([]uint32{0, 10, 20}, 5))

	assert.Empty(t, list.Validate())
}

func testValidateDetectsMissingOffsetEntry(t *testing.T) {
	list := New()
	require.NoError(t, list.Insert(0, 0, 1))
	require.NoError(t, list.Insert(2, 4, 2))

	list.offsets.delete(2)

	errs := list.Validate()
	require.NotEmpty(t, errs)

	found := false
	for _, err := range errs {
		if err.Error() == "offset_key_missing: run 2 has no offset entry" {
			found = true
		}
	}
	assert.True(t, found, "expected an offset_key_missing error, got %v", errs)
}

func testValidateDetectsStalePixelEntry(t *testing.T) {
	list := New()
	require.NoError(t, list.Insert(0, 0, 1))

	list.pixels.put(999, 0)

	assert.NotEmpty(t, list.Validate())
}

func testValidateDetectsUnmergedRuns(t *testing.T) {
	list := New()
	require.NoError(t, list.Insert(0, 0, 5))

	// Hand-craft an unmerged neighbour the insert path must never produce.
	list.sizes.put(3, 5)
	list.offsets.put(3, 15)
	list.pixels.put(15, 3)

	errs := list.Validate()
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "unmerged_runs")
}
