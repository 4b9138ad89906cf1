package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionStartsPending(t *testing.T) {
	s := NewSession("https://api.example.com/mcp", ScanTypeURL)

	assert.NotEmpty(t, s.ScanID)
	assert.Equal(t, StatusPending, s.Status)
	assert.False(t, s.Terminal())
	assert.Nil(t, s.CompletedAt)
	assert.Nil(t, s.Summary)
	assert.Empty(t, s.Vulnerabilities)
}

func TestSessionIDsAreUnique(t *testing.T) {
	// A fast double submit must not collide; that rules out timestamp IDs.
	a := NewSession("t", ScanTypeURL)
	b := NewSession("t", ScanTypeURL)
	assert.NotEqual(t, a.ScanID, b.ScanID)
}

func TestCompleteSetsVulnsAndSummaryTogether(t *testing.T) {
	s := NewSession("target", ScanTypeStdio)
	require.NoError(t, s.Begin())

	vulns := []Vulnerability{
		{ID: "v1", RiskLevel: RiskCritical},
		{ID: "v2", RiskLevel: RiskLow},
	}
	require.NoError(t, s.Complete(vulns))

	assert.Equal(t, StatusCompleted, s.Status)
	assert.True(t, s.Terminal())
	require.NotNil(t, s.Summary)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, 2, s.Summary.Total)
	assert.Equal(t, 1, s.Summary.Counts[RiskCritical])
	assert.Equal(t, 1, s.Summary.Counts[RiskLow])
	assert.Empty(t, s.ErrorMessage)
}

func TestFailKeepsFindingsAbsent(t *testing.T) {
	s := NewSession("target", ScanTypeURL)
	require.NoError(t, s.Begin())
	require.NoError(t, s.Fail("connection refused"))

	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, "connection refused", s.ErrorMessage)
	assert.Nil(t, s.Summary)
	assert.Empty(t, s.Vulnerabilities)
	require.NotNil(t, s.CompletedAt)
}

func TestTerminalTransitionsHappenAtMostOnce(t *testing.T) {
	s := NewSession("target", ScanTypeURL)

	// Terminal transitions before Begin are rejected.
	assert.ErrorIs(t, s.Complete(nil), ErrNotRunning)
	assert.ErrorIs(t, s.Fail("x"), ErrNotRunning)

	require.NoError(t, s.Begin())
	assert.ErrorIs(t, s.Begin(), ErrNotPending)

	require.NoError(t, s.Complete(nil))
	assert.ErrorIs(t, s.Complete(nil), ErrNotRunning)
	assert.ErrorIs(t, s.Fail("late failure"), ErrNotRunning)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Empty(t, s.ErrorMessage)
}

func TestCompleteWithNilFindings(t *testing.T) {
	s := NewSession("target", ScanTypeConfig)
	require.NoError(t, s.Begin())
	require.NoError(t, s.Complete(nil))

	require.NotNil(t, s.Vulnerabilities)
	assert.Len(t, s.Vulnerabilities, 0)
	assert.Equal(t, 0, s.Summary.Total)
}
