package archive

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// ErrMissingSanitizeTarget is returned under MissingFail when a rule's file
// does not exist.
var ErrMissingSanitizeTarget = errors.New("file to sanitize does not exist")

// MissingPolicy decides what happens when a rule's file is absent.
type MissingPolicy int

const (
	// MissingIgnore skips absent files.
	MissingIgnore MissingPolicy = iota
	// MissingFail returns ErrMissingSanitizeTarget for absent files.
	MissingFail
)

// Rule drops every line of Path (relative to the unpacked archive) that
// matches Pattern.
type Rule struct {
	Path    string
	Pattern *regexp.Regexp
}

var (
	exportDatePattern = regexp.MustCompile(constants.ExportDatePattern)
	commentPattern    = regexp.MustCompile(constants.CommentPattern)
)

// DefaultRules returns the rules for an unpacked export of project: the
// manifest's export date and the comment header of project.properties, both
// of which change on every export.
func DefaultRules(project string) []Rule {
	return []Rule{
		{Path: constants.ManifestPath, Pattern: exportDatePattern},
		{Path: fmt.Sprintf(constants.ProjectPropertiesPathFormat, project), Pattern: commentPattern},
	}
}

// Sanitizer rewrites files of an unpacked archive in place.
type Sanitizer struct {
	fs     afero.Fs
	policy MissingPolicy
	logger rundeck.Logger
}

// NewSanitizer creates a sanitizer on fs with the given missing-file policy.
func NewSanitizer(fs afero.Fs, policy MissingPolicy, logger rundeck.Logger) *Sanitizer {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if logger == nil {
		logger = rundeck.NoopLogger{}
	}

	return &Sanitizer{fs: fs, policy: policy, logger: logger}
}

// Sanitize applies DefaultRules to dir, taking the project name from the
// directory's base name.
func (s *Sanitizer) Sanitize(dir string) error {
	return s.Apply(dir, DefaultRules(filepath.Base(dir)))
}

// Apply runs rules against files under dir.
func (s *Sanitizer) Apply(dir string, rules []Rule) error {
	for _, rule := range rules {
		path := filepath.Join(dir, filepath.FromSlash(rule.Path))

		data, err := afero.ReadFile(s.fs, path)
		if errors.Is(err, os.ErrNotExist) {
			if s.policy == MissingFail {
				return fmt.Errorf("%w: %s", ErrMissingSanitizeTarget, path)
			}

			s.logger.Debug("nothing to sanitize", map[string]interface{}{"file": path})

			continue
		}

		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		filtered, dropped := FilterLines(data, rule.Pattern)
		if dropped == 0 {
			continue
		}

		info, err := s.fs.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		err = afero.WriteFile(s.fs, path, filtered, info.Mode().Perm())
		if err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		s.logger.Debug("sanitized", map[string]interface{}{"file": path, "dropped": dropped})
	}

	return nil
}

// FilterLines removes lines matching pattern and returns the remaining bytes
// and the number of lines dropped. Kept lines are copied byte for byte,
// terminators included; a final line without a newline stays without one.
func FilterLines(data []byte, pattern *regexp.Regexp) ([]byte, int) {
	out := make([]byte, 0, len(data))
	dropped := 0

	for len(data) > 0 {
		end := bytes.IndexByte(data, '\n')
		if end < 0 {
			end = len(data)
		} else {
			end++
		}

		line := data[:end]
		data = data[end:]

		if pattern.Match(bytes.TrimRight(line, "\r\n")) {
			dropped++

			continue
		}

		out = append(out, line...)
	}

	return out, dropped
}
