package fixture

import (
	"fmt"
	"os"
	"sort"

	"github.com/marmos91/dittovfs/pkg/vfs"
)

// Build creates the entries of s below dir. Directories that already exist
// are merged into; any other name collision fails. opts apply to every asset
// Build creates.
func Build(dir *vfs.Directory, s *Structure, opts ...vfs.Option) error {
	return buildEntries(dir, s.Entries, opts)
}

func buildEntries(dir *vfs.Directory, entries []*Entry, opts []vfs.Option) error {
	for _, e := range entries {
		if e.Dir {
			sub := dir.GetDirectory(e.Name)
			if sub == nil {
				var err error
				sub, err = vfs.NewDirectory(e.Name, opts...)
				if err != nil {
					return err
				}
				if err := dir.AddChild(sub); err != nil {
					return err
				}
			}
			if err := buildEntries(sub, e.Children, opts); err != nil {
				return err
			}
			continue
		}

		f, err := vfs.NewFile(e.Name, e.Content, opts...)
		if err != nil {
			return err
		}
		if err := dir.AddChild(f); err != nil {
			return err
		}
	}
	return nil
}

// BuildFile parses the YAML structure stored at path and builds it below dir.
func BuildFile(dir *vfs.Directory, path string, opts ...vfs.Option) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open structure %s: %w", path, err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return Build(dir, s, opts...)
}

// Snapshot captures the tree below dir as a Structure, siblings sorted by
// name. Files are captured with their full contents.
func Snapshot(dir *vfs.Directory) *Structure {
	return &Structure{Entries: snapshotEntries(dir)}
}

func snapshotEntries(dir *vfs.Directory) []*Entry {
	var entries []*Entry
	for _, child := range sortedByName(dir.Children()) {
		switch c := child.(type) {
		case *vfs.Directory:
			entries = append(entries, &Entry{Name: c.Name(), Dir: true, Children: snapshotEntries(c)})
		case *vfs.File:
			entries = append(entries, &Entry{Name: c.Name(), Content: c.Contents()})
		}
	}
	return entries
}

func sortedByName(assets []vfs.Asset) []vfs.Asset {
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Name() < assets[j].Name()
	})
	return assets
}
