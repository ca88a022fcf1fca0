//go:build !release

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShiftTimePastPendingEventPanics(t *testing.T) {
	q := queueFrom(4, squares()...)
	assert.PanicsWithValue(t, "event: shifting time to 5 past pending event at 4", func() {
		q.ShiftTime(5)
	})
}
