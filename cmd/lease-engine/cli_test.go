package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/api"
	"github.com/warp/lease-engine/lease"
)

const unitsJSON = `[
  {"id": "101", "number": "101", "stored_status": "occupied", "required_rent": "1500",
   "current_tenant": "Alice", "current_lease_start": "2024-01-01", "current_lease_end": "2024-06-30"},
  {"id": "102", "number": "102", "required_rent": 1200,
   "incoming_tenant": "Bob", "incoming_lease_start": "2024-07-01"},
  {"id": "103", "number": "103", "stored_status": "repairs", "status_until": "2024-07-15"},
  {"id": "104", "number": "104", "required_rent": "900", "has_active_maintenance": true,
   "current_tenant": "Dana", "current_lease_start": "2024-01-01", "current_lease_end": "garbage"}
]`

func TestEvaluateUnits_LeaseHandoverAtLocalMidnight(t *testing.T) {
	// GIVEN: 02:00 UTC on July 1, still June 30 in New York
	at := time.Date(2024, 7, 1, 2, 0, 0, 0, time.UTC)

	ny, err := evaluateUnits(strings.NewReader(unitsJSON), "America/New_York", at)
	require.NoError(t, err)
	utc, err := evaluateUnits(strings.NewReader(unitsJSON), "UTC", at)
	require.NoError(t, err)

	// THEN: New York is still on Alice's last day; UTC has moved to Bob
	assert.Equal(t, "2024-06-30", ny.Today)
	assert.Equal(t, lease.StatusOccupied, ny.Units[0].EffectiveStatus)
	assert.Equal(t, lease.StatusVacant, ny.Units[1].EffectiveStatus)
	assert.Equal(t, "1500", ny.Revenue.MonthlyRevenue.String())

	assert.Equal(t, "2024-07-01", utc.Today)
	assert.Equal(t, lease.StatusVacant, utc.Units[0].EffectiveStatus)
	assert.Equal(t, lease.StatusOccupied, utc.Units[1].EffectiveStatus)
	assert.Equal(t, lease.RuleIncomingStarted, utc.Units[1].Rule)
	assert.Equal(t, "1200", utc.Revenue.MonthlyRevenue.String())

	// Both: override still running, maintenance wins, bad end date means no lease.
	for _, out := range []evaluateOutput{ny, utc} {
		assert.Equal(t, lease.RuleRepairsOverride, out.Units[2].Rule)
		assert.Equal(t, lease.RuleMaintenance, out.Units[3].Rule)
		assert.Equal(t, "0", out.Units[3].Revenue.MonthlyRevenue.String())
		assert.Equal(t, "0", out.Units[3].Revenue.ExpectedRevenue.String())
		assert.Equal(t, 4, out.TotalUnits)
		assert.Equal(t, "25.00", out.OccupancyRate)
	}
}

func TestEvaluateUnits_Errors(t *testing.T) {
	_, err := evaluateUnits(strings.NewReader(unitsJSON), "Mars/Base", time.Now())
	assert.Error(t, err)

	_, err = evaluateUnits(strings.NewReader(`{"not": "an array"}`), "UTC", time.Now())
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	res, err := classify(classifyArgs{start: "2024-01-01", end: "2024-09-12", window: 90}, now)
	require.NoError(t, err)
	assert.Equal(t, api.LeaseEvaluationDTO{Today: "2024-06-15", Status: lease.LeaseExpiring, Badge: lease.BadgeOutline, DaysRemaining: 89}, res)

	res, err = classify(classifyArgs{start: "2024-01-01", end: "2024-09-12", window: 30}, now)
	require.NoError(t, err)
	assert.Equal(t, lease.LeaseActive, res.Status)

	res, err = classify(classifyArgs{start: "2024-07-01", end: "2025-06-30", asOf: "2024-06-30", window: 90}, now)
	require.NoError(t, err)
	assert.Equal(t, lease.LeaseUpcoming, res.Status)
	assert.Equal(t, lease.BadgeSecondary, res.Badge)

	_, err = classify(classifyArgs{start: "soon", end: "2025-06-30"}, now)
	assert.Error(t, err)
	_, err = classify(classifyArgs{start: "2024-01-01", end: "2025-06-30", window: -1}, now)
	assert.Error(t, err)
}

func TestRootCmd_EvaluateFromFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "units.json")
	require.NoError(t, os.WriteFile(input, []byte(unitsJSON), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--config", filepath.Join(dir, "missing.toml"),
		"--log-level", "error",
		"evaluate", "--input", input, "--tz", "UTC", "--as-of", "2024-07-01",
	})
	require.NoError(t, cmd.Execute())

	var res evaluateOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "2024-07-01", res.Today)
	assert.Equal(t, 1, res.StatusCounts[string(lease.StatusOccupied)])
}

func TestRootCmd_ClassifyRequiresDates(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"classify", "--start", "2024-01-01"})

	assert.Error(t, cmd.Execute())
}
