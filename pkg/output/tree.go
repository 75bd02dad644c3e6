package output

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sonemaro/traverser/pkg/logger"
)

type treeNode struct {
	name     string
	entry    *Entry
	children map[string]*treeNode
}

func (n *treeNode) child(name string) *treeNode {
	if n.children == nil {
		n.children = make(map[string]*treeNode)
	}
	c, ok := n.children[name]
	if !ok {
		c = &treeNode{name: name}
		n.children[name] = c
	}
	return c
}

func (n *treeNode) sortedChildren() []*treeNode {
	out := make([]*treeNode, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// formatTree rebuilds the directory structure of the emitted files below
// their deepest common directory.
func (f *formatter) formatTree(report *Report) (string, error) {
	f.log.Debug("Formatting tree output")

	root := buildTree(report.Entries)

	var builder strings.Builder
	f.formatTreeNode(&builder, root, "", true, true)

	if f.config.WithStats {
		f.writeStats(&builder, report)
	}

	return builder.String(), nil
}

func buildTree(entries []Entry) *treeNode {
	base := commonDir(entries)
	root := &treeNode{name: base}

	for i := range entries {
		rel, err := filepath.Rel(base, entries[i].Path)
		if err != nil {
			rel = entries[i].Path
		}

		node := root
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if part == "" || part == "." {
				continue
			}
			node = node.child(part)
		}
		node.entry = &entries[i]
	}

	return root
}

func commonDir(entries []Entry) string {
	if len(entries) == 0 {
		return "."
	}

	common := filepath.Dir(entries[0].Path)
	for _, e := range entries[1:] {
		dir := filepath.Dir(e.Path)
		for common != dir && !strings.HasPrefix(dir, strings.TrimSuffix(common, string(filepath.Separator))+string(filepath.Separator)) {
			parent := filepath.Dir(common)
			if parent == common {
				break
			}
			common = parent
		}
	}
	return common
}

func (f *formatter) formatTreeNode(builder *strings.Builder, node *treeNode, prefix string, isLast, isRoot bool) {
	f.log.WithFields(logger.Fields{
		"node":   node.name,
		"prefix": prefix,
		"isLast": isLast,
	}).Trace("Formatting tree node")

	if !isRoot {
		if isLast {
			builder.WriteString(prefix + "└── ")
		} else {
			builder.WriteString(prefix + "├── ")
		}
	}

	isDir := node.entry == nil
	name := node.name
	if f.config.WithColors {
		switch {
		case isDir:
			name = paint(color.FgBlue, color.Bold).Sprint(name)
		case node.entry.Error != "":
			name = paint(color.FgRed).Sprint(name)
		}
	}

	builder.WriteString(name)
	if isDir && !strings.HasSuffix(node.name, string(filepath.Separator)) {
		builder.WriteString("/")
	}
	if !isDir && node.entry.Digest != "" {
		builder.WriteString("  " + node.entry.Digest)
	}
	builder.WriteString("\n")

	newPrefix := prefix
	if !isRoot {
		if isLast {
			newPrefix += "    "
		} else {
			newPrefix += "│   "
		}
	}

	children := node.sortedChildren()
	for i, child := range children {
		f.formatTreeNode(builder, child, newPrefix, i == len(children)-1, false)
	}
}
