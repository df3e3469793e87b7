package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/autoflow/autoflow/pkg/engine"
	"github.com/autoflow/autoflow/pkg/rules"
)

// FileMoveSettings configures a file move rule.
type FileMoveSettings struct {
	// Source is the directory files are moved out of.
	Source string `yaml:"source" validate:"required"`

	// Target is the directory files are moved into. Created if missing.
	Target string `yaml:"target" validate:"required"`

	// Extensions filters which files are moved (e.g. ".csv", "pdf").
	// Empty means all files. Matching is case-insensitive.
	Extensions []string `yaml:"extensions"`

	// Recursive walks subdirectories of Source, preserving the relative
	// layout under Target.
	Recursive bool `yaml:"recursive"`
}

// FileMoveRule moves matching files from a source to a target directory.
type FileMoveRule struct {
	*rules.Base
	settings FileMoveSettings
}

// NewFileMoveRule constructs a file move rule from a settings bag.
func NewFileMoveRule(name string, settings map[string]any) (engine.Rule, error) {
	var s FileMoveSettings
	if err := rules.DecodeSettings(settings, &s); err != nil {
		return nil, err
	}

	// Normalize extensions to lowercase with a leading dot.
	for i, ext := range s.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.Extensions[i] = ext
	}

	return &FileMoveRule{Base: rules.NewBase(name), settings: s}, nil
}

// Execute moves all matching files. Files that cannot be moved are reported
// together; the remaining files are still attempted.
func (r *FileMoveRule) Execute(ctx context.Context) error {
	paths, err := r.collect()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.settings.Target, 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	var errs []error
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		src := filepath.Join(r.settings.Source, rel)
		dst := filepath.Join(r.settings.Target, rel)
		if dir := filepath.Dir(dst); dir != r.settings.Target {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", rel, err))
				continue
			}
		}
		if err := moveFile(src, dst); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rel, err))
		}
	}

	return errors.Join(errs...)
}

// collect returns source-relative paths of files matching the filter.
func (r *FileMoveRule) collect() ([]string, error) {
	var paths []string

	if r.settings.Recursive {
		err := filepath.WalkDir(r.settings.Source, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !r.matches(d.Name()) {
				return nil
			}
			rel, err := filepath.Rel(r.settings.Source, path)
			if err != nil {
				return err
			}
			paths = append(paths, rel)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk source directory: %w", err)
		}
		return paths, nil
	}

	entries, err := os.ReadDir(r.settings.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !r.matches(entry.Name()) {
			continue
		}
		paths = append(paths, entry.Name())
	}
	return paths, nil
}

// matches reports whether a filename passes the extension filter.
func (r *FileMoveRule) matches(name string) bool {
	if len(r.settings.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range r.settings.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// moveFile renames src to dst, falling back to copy-and-remove when the
// rename crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// copyFile copies src to dst, preserving the source's permission bits.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
