package vfs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/marmos91/dittovfs/internal/logger"
	"github.com/spf13/afero"
)

// ============================================================================
// Directory Import
// ============================================================================

// BuildFromDirectory replaces the device's root with a fresh one and mirrors
// the directory tree found at path on src into it.
//
// Import Rules:
//   - path must exist and be a directory, otherwise ErrInvalidPath is
//     returned and the current root is kept
//   - within each directory, subdirectories are mirrored before files
//   - permission bits are copied from the source for every entry
//   - file contents are copied only when includeContents is true; otherwise
//     files are created empty
//   - entries that are neither directories nor regular files are skipped
//
// Entries that fail (unreadable, over quota, invalid name) do not stop the
// import. Their errors are collected and returned together as a
// *multierror.Error once the walk is complete.
//
// Use afero.NewOsFs() to import from the real filesystem.
func (d *Device) BuildFromDirectory(src afero.Fs, path string, includeContents bool) error {
	info, err := src.Stat(path)
	if err != nil {
		return &Error{Code: ErrInvalidPath, Message: "import source does not exist", Name: path}
	}
	if !info.IsDir() {
		return &Error{Code: ErrInvalidPath, Message: "import source is not a directory", Name: path}
	}

	root := d.replaceRoot()

	imp := importer{
		src:             src,
		includeContents: includeContents,
		opts:            d.rootOpts,
	}
	imp.mirror(path, root)

	d.ReportUsage()
	logger.Info("vfs: imported %s (contents=%t): %d bytes used", path, includeContents, d.Used())

	return imp.errs.ErrorOrNil()
}

type importer struct {
	src             afero.Fs
	includeContents bool
	opts            []Option
	errs            *multierror.Error
}

func (imp *importer) fail(err error) {
	imp.errs = multierror.Append(imp.errs, err)
}

func (imp *importer) options(info os.FileInfo) []Option {
	opts := make([]Option, 0, len(imp.opts)+1)
	opts = append(opts, imp.opts...)
	return append(opts, WithMode(uint32(info.Mode().Perm())))
}

func (imp *importer) mirror(path string, dir *Directory) {
	entries, err := afero.ReadDir(imp.src, path)
	if err != nil {
		imp.fail(fmt.Errorf("failed to read directory %s: %w", path, err))
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sub, err := NewDirectory(entry.Name(), imp.options(entry)...)
		if err != nil {
			imp.fail(err)
			continue
		}
		if err := dir.AddChild(sub); err != nil {
			imp.fail(err)
			continue
		}
		imp.mirror(filepath.Join(path, entry.Name()), sub)
	}

	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}

		var content []byte
		if imp.includeContents {
			content, err = afero.ReadFile(imp.src, filepath.Join(path, entry.Name()))
			if err != nil {
				imp.fail(fmt.Errorf("failed to read file %s: %w", entry.Name(), err))
				continue
			}
		}

		f, err := NewFile(entry.Name(), content, imp.options(entry)...)
		if err != nil {
			imp.fail(err)
			continue
		}
		if err := dir.AddChild(f); err != nil {
			imp.fail(err)
		}
	}
}
