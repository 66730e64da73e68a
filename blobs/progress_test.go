package blobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressFunc(t *testing.T) {
	type report struct {
		percent int
		status  string
	}
	var reports []report
	var handler ProgressHandler = ProgressFunc(func(percent int, status string) {
		reports = append(reports, report{percent, status})
	})
	handler.SetStatus("Finding blobs...")
	handler.SetProgress(40)
	assert.Equal(t, []report{{-1, "Finding blobs..."}, {40, ""}}, reports)
}
