package csvfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bordercross/internal/core"
)

var testRows = []core.Row{
	{Border: "US-Mexico Border", Month: core.MonthKey{Year: 2019, Month: time.March}, Measure: "Pedestrians", Total: 346158, Average: 114487, Date: "03/01/2019 12:00:00 AM"},
	{Border: "US-Canada Border", Month: core.MonthKey{Year: 2019, Month: time.March}, Measure: "Truck Containers Full", Total: 6483, Average: 0, Date: "03/01/2019 12:00:00 AM"},
}

func TestWriter_WriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteReport(context.Background(), slices.Values(testRows)))

	want := "Border,Date,Measure,Value,Average\n" +
		"US-Mexico Border,03/01/2019 12:00:00 AM,Pedestrians,346158,114487\n" +
		"US-Canada Border,03/01/2019 12:00:00 AM,Truck Containers Full,6483,0\n"
	assert.Equal(t, want, buf.String())
}

func TestWriter_HeaderOnlyWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteReport(context.Background(), slices.Values([]core.Row(nil))))
	assert.Equal(t, "Border,Date,Measure,Value,Average\n", buf.String())
}

func TestWriter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewWriter(&buf).WriteReport(ctx, slices.Values(testRows))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFile_WriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "report.csv")
	f := NewFile(path)

	require.NoError(t, f.WriteReport(context.Background(), slices.Values(testRows)))
	// second write replaces the first
	require.NoError(t, f.WriteReport(context.Background(), slices.Values(testRows[:1])))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Border,Date,Measure,Value,Average\nUS-Mexico Border,03/01/2019 12:00:00 AM,Pedestrians,346158,114487\n", string(data))
}
