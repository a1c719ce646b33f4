package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soa-illustrations/lmi/internal/logging"
)

func TestNewWritesStructuredJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New(&buf)

	l.Info("projection started", "cell_id", "C001")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "projection started", line["msg"])
	assert.Equal(t, "C001", line["cell_id"])
}

func TestCellAnnotatesLoggerWithCellAndBasis(t *testing.T) {
	var buf bytes.Buffer
	base := logging.New(&buf)
	l := logging.Cell(base, "C001", "current")

	l.Info("year finalized")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "C001", line["cell_id"])
	assert.Equal(t, "current", line["basis"])
}

func TestSolveAnnotatesLoggerWithSolveTypeAndTargetYear(t *testing.T) {
	var buf bytes.Buffer
	base := logging.New(&buf)
	l := logging.Solve(base, "ee_prem", 5)

	l.Info("objective evaluated")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "ee_prem", line["solve_type"])
	assert.Equal(t, float64(5), line["target_year"])
}

func TestNewDefaultsToStderrWithoutPanicking(t *testing.T) {
	l := logging.New(nil)
	assert.NotNil(t, l)
}
