package buildstep

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/specialistvlad/shadergrid/internal/builderr"
	"github.com/specialistvlad/shadergrid/internal/fsutil"
)

// Reasons reported by Check.
const (
	ReasonOutputMissing   = "output missing"
	ReasonInputNewer      = "input newer"
	ReasonManifestChanged = "manifest changed"
	ReasonUpToDate        = "up to date"
)

// Staleness is the verdict of Check.
type Staleness struct {
	Stale  bool
	Reason string
	// Path is the file that decided the verdict, if any.
	Path string
}

func (s Staleness) String() string {
	if s.Path == "" {
		return s.Reason
	}
	return fmt.Sprintf("%s (%s)", s.Reason, s.Path)
}

// Check decides whether the step must run. A step is stale when any output
// is missing, when the oldest output is not strictly newer than the newest
// input, or when its fingerprint differs from the recorded stamp.
func (s *Step) Check(st fsutil.Stater) (Staleness, error) {
	var oldestOut time.Time
	for i, out := range s.Outputs {
		info, err := st.Stat(out.Path)
		if errors.Is(err, fs.ErrNotExist) {
			return Staleness{Stale: true, Reason: ReasonOutputMissing, Path: out.Path}, nil
		}
		if err != nil {
			return Staleness{}, builderr.Staleness(s.ID, err)
		}
		if i == 0 || info.ModTime().Before(oldestOut) {
			oldestOut = info.ModTime()
		}
	}

	var newestIn time.Time
	var newestPath string
	for _, in := range s.Inputs() {
		info, err := st.Stat(in)
		if err != nil {
			return Staleness{}, builderr.Staleness(s.ID, err)
		}
		if newestPath == "" || info.ModTime().After(newestIn) {
			newestIn = info.ModTime()
			newestPath = in
		}
	}

	if !oldestOut.After(newestIn) {
		return Staleness{Stale: true, Reason: ReasonInputNewer, Path: newestPath}, nil
	}

	if s.Fingerprint != "" {
		recorded, ok, err := ReadStamp(s.StampPath)
		if err != nil {
			return Staleness{}, builderr.Staleness(s.ID, err)
		}
		if !ok || recorded != s.Fingerprint {
			return Staleness{Stale: true, Reason: ReasonManifestChanged, Path: s.StampPath}, nil
		}
	}

	return Staleness{Reason: ReasonUpToDate}, nil
}

// MissingOutputs returns the declared outputs that do not exist. It is used
// after an invocation that reported success.
func (s *Step) MissingOutputs(st fsutil.Stater) ([]string, error) {
	var missing []string
	for _, out := range s.Outputs {
		_, err := st.Stat(out.Path)
		if errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, out.Path)
			continue
		}
		if err != nil {
			return nil, builderr.Staleness(s.ID, err)
		}
	}
	return missing, nil
}

// ReadStamp returns the fingerprint recorded at path. ok is false when no
// stamp exists.
func ReadStamp(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(string(data)), true, nil
}

// WriteStamp records the step's fingerprint. It is a no-op for steps
// without one.
func (s *Step) WriteStamp() error {
	if s.Fingerprint == "" || s.StampPath == "" {
		return nil
	}
	tmp := s.StampPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(s.Fingerprint+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write stamp for %s: %w", s.ID, err)
	}
	if err := os.Rename(tmp, s.StampPath); err != nil {
		return fmt.Errorf("failed to write stamp for %s: %w", s.ID, err)
	}
	return nil
}
