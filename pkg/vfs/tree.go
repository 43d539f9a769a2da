package vfs

import (
	"fmt"
	"strings"
)

const (
	treeBranch   = "├── "
	treeLast     = "└── "
	treeVertical = "│   "
	treeBlank    = "    "
)

// Tree renders d the way the unix tree utility does:
//
//	parent
//	├── child dir
//	│   └── child file of child dir
//	└── child file
//
//	1 directory, 2 files
//
// Each level is sorted by name with files and directories interleaved. The
// summary counts descendants only, never d itself. The result ends with a
// newline.
func (d *Directory) Tree() string {
	var b strings.Builder
	b.WriteString(d.Name())
	b.WriteByte('\n')

	var dirs, files int
	d.renderTree(&b, "", &dirs, &files)

	fmt.Fprintf(&b, "\n%d %s, %d %s\n",
		dirs, plural(dirs, "directory", "directories"),
		files, plural(files, "file", "files"))
	return b.String()
}

func (d *Directory) renderTree(b *strings.Builder, indent string, dirs, files *int) {
	children := d.sortedChildren()
	for i, child := range children {
		last := i == len(children)-1

		connector, continuation := treeBranch, treeVertical
		if last {
			connector, continuation = treeLast, treeBlank
		}

		b.WriteString(indent)
		b.WriteString(connector)
		b.WriteString(child.Name())
		b.WriteByte('\n')

		switch c := child.(type) {
		case *Directory:
			*dirs++
			c.renderTree(b, indent+continuation, dirs, files)
		case *File:
			*files++
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
