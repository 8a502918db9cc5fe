// Package license implements the trial period and license key gate.
//
// State is kept in a small YAML file with the install date and the
// activated key, sealed with a keyed BLAKE2b checksum so that hand edits
// are detected. This is tamper evidence, not copy protection.
package license

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/logger"
)

// DefaultTrialDays is the length of the trial period
const DefaultTrialDays = 30

const stateFileName = "license.yaml"

var sealKey = []byte("pdfannotator license state v1")

// ErrInvalidKey is returned by Activate for malformed license keys
var ErrInvalidKey = errors.New("invalid license key")

// State is the persisted license state
type State struct {
	InstalledAt time.Time `yaml:"installed_at"`
	LicenseKey  string    `yaml:"license_key,omitempty"`
	Checksum    string    `yaml:"checksum"`
}

func (s State) seal() string {
	h, err := blake2b.New256(sealKey)
	if err != nil {
		panic(err) // key length is constant and valid
	}
	fmt.Fprintf(h, "%s\n%s", s.InstalledAt.UTC().Format(time.RFC3339), s.LicenseKey)
	return hex.EncodeToString(h.Sum(nil))
}

// Manager answers license questions for one state file
type Manager struct {
	path      string
	trialDays int
	now       func() time.Time
	state     State
	tampered  bool
}

// Option configures a Manager
type Option func(*Manager)

// WithTrialDays sets the trial length
func WithTrialDays(days int) Option {
	return func(m *Manager) {
		if days >= 0 {
			m.trialDays = days
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// DefaultPath returns the state file location in the user config directory
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "pdfannotator", stateFileName), nil
}

// Load reads the state file at path. A missing file starts the trial now
// and is created.
func Load(path string, opts ...Option) (*Manager, error) {
	m := &Manager{path: path, trialDays: DefaultTrialDays, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m.state = State{InstalledAt: m.now().UTC().Truncate(time.Second)}
		if err := m.save(); err != nil {
			return nil, err
		}
		logger.Logger().Info("trial started", "path", path, "days", m.trialDays)
		return m, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read license state: %w", err)
	}

	if err := yaml.Unmarshal(data, &m.state); err != nil {
		return nil, fmt.Errorf("failed to parse license state: %w", err)
	}
	if m.state.Checksum != m.state.seal() {
		logger.Logger().Warn("license state checksum mismatch", "path", path)
		m.tampered = true
	}
	return m, nil
}

// State returns the loaded state
func (m *Manager) State() State {
	return m.state
}

// IsLicensed reports whether a valid key has been activated
func (m *Manager) IsLicensed() bool {
	return !m.tampered && ValidKey(m.state.LicenseKey)
}

// TrialDaysLeft returns the whole days left in the trial, never negative
func (m *Manager) TrialDaysLeft() int {
	if m.tampered {
		return 0
	}
	elapsed := m.now().Sub(m.state.InstalledAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return max(m.trialDays-int(elapsed/(24*time.Hour)), 0)
}

// IsTrial reports whether the product runs on an unexpired trial
func (m *Manager) IsTrial() bool {
	return !m.IsLicensed() && m.TrialDaysLeft() > 0
}

// IsValid reports whether the product may be used
func (m *Manager) IsValid() bool {
	return m.IsLicensed() || m.IsTrial()
}

// Status returns the status bar text
func (m *Manager) Status() string {
	switch {
	case m.IsTrial():
		return fmt.Sprintf("Trial Version - %d days remaining", m.TrialDaysLeft())
	case m.IsLicensed():
		return "Licensed Version"
	default:
		return "License Expired - Please Purchase"
	}
}

// ValidKey reports whether key is a well-formed license key (a version 4
// UUID)
func ValidKey(key string) bool {
	id, err := uuid.Parse(key)
	return err == nil && id.Version() == 4
}

// Activate stores a license key
func (m *Manager) Activate(key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	prev := m.state
	prevTampered := m.tampered
	m.state.LicenseKey = key
	m.tampered = false
	if err := m.save(); err != nil {
		m.state, m.tampered = prev, prevTampered
		return err
	}
	logger.Logger().Info("license activated", "path", m.path)
	return nil
}

func (m *Manager) save() error {
	m.state.Checksum = m.state.seal()
	data, err := yaml.Marshal(m.state)
	if err != nil {
		return fmt.Errorf("failed to encode license state: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create license directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".license-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write license state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write license state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write license state: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("failed to write license state: %w", err)
	}
	return nil
}
