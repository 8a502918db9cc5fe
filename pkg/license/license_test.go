package license

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)}
}

func TestTrialLifecycle(t *testing.T) {
	c := newClock()
	path := filepath.Join(t.TempDir(), "state", "license.yaml")

	m, err := Load(path, WithClock(c.now))
	require.NoError(t, err)
	assert.FileExists(t, path)

	assert.True(t, m.IsTrial())
	assert.True(t, m.IsValid())
	assert.False(t, m.IsLicensed())
	assert.Equal(t, 30, m.TrialDaysLeft())
	assert.Equal(t, "Trial Version - 30 days remaining", m.Status())

	c.advance(10*24*time.Hour + time.Hour)
	m, err = Load(path, WithClock(c.now))
	require.NoError(t, err)
	assert.Equal(t, 20, m.TrialDaysLeft())

	c.advance(20 * 24 * time.Hour)
	assert.Equal(t, 0, m.TrialDaysLeft())
	assert.False(t, m.IsTrial())
	assert.False(t, m.IsValid())
	assert.Equal(t, "License Expired - Please Purchase", m.Status())
}

func TestActivate(t *testing.T) {
	c := newClock()
	path := filepath.Join(t.TempDir(), "license.yaml")
	m, err := Load(path, WithClock(c.now), WithTrialDays(7))
	require.NoError(t, err)

	assert.ErrorIs(t, m.Activate("not-a-key"), ErrInvalidKey)
	// version 1 style UUIDs are not license keys
	assert.ErrorIs(t, m.Activate("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), ErrInvalidKey)
	assert.False(t, m.IsLicensed())

	key := uuid.NewString()
	require.NoError(t, m.Activate(key))
	assert.True(t, m.IsLicensed())
	assert.False(t, m.IsTrial())
	assert.Equal(t, "Licensed Version", m.Status())

	c.advance(365 * 24 * time.Hour)
	reloaded, err := Load(path, WithClock(c.now), WithTrialDays(7))
	require.NoError(t, err)
	assert.True(t, reloaded.IsValid())
	assert.Equal(t, key, reloaded.State().LicenseKey)
}

func TestTamperedState(t *testing.T) {
	c := newClock()
	path := filepath.Join(t.TempDir(), "license.yaml")
	_, err := Load(path, WithClock(c.now))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	edited := strings.Replace(string(data), "2025-03-01", "2099-03-01", 1)
	require.NotEqual(t, string(data), edited)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	m, err := Load(path, WithClock(c.now))
	require.NoError(t, err)
	assert.False(t, m.IsValid())
	assert.Equal(t, 0, m.TrialDaysLeft())

	require.NoError(t, m.Activate(uuid.NewString()))
	assert.True(t, m.IsLicensed())
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "license.yaml")
	require.NoError(t, os.WriteFile(path, []byte("installed_at: [oops"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
