// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

package memfs

import "strings"

// SplitPath splits path on '/' and drops empty components, which
// collapses repeated slashes, a leading slash, and a trailing slash.
// There is no special handling of "." or ".." — they are treated as
// literal, generally-unresolvable names.
func SplitPath(path string) []string {
	raw := strings.Split(path, "/")
	components := make([]string, 0, len(raw))
	for _, c := range raw {
		if c != "" {
			components = append(components, c)
		}
	}
	return components
}

// resolve walks components from root, descending through directory
// entries by exact name match. op is used only for error messages.
func resolve(root *Entry, components []string, op string) (*Entry, error) {
	current := root
	for _, name := range components {
		if !current.IsDir() {
			return nil, newError(KindNotDir, op, name)
		}
		next := current.inode.child(name)
		if next == nil {
			return nil, newError(KindNotExist, op, name)
		}
		current = next
	}
	return current, nil
}

// resolveParent splits path into its last component and the entry
// of its containing directory. Fails with EINVAL if path has no last
// component (the root itself), and with ENOTDIR if the prefix does
// not resolve to a directory.
func resolveParent(root *Entry, path string, op string) (parent *Entry, name string, err error) {
	components := SplitPath(path)
	if len(components) == 0 {
		return nil, "", newError(KindInvalid, op, path)
	}

	name = components[len(components)-1]
	parent, err = resolve(root, components[:len(components)-1], op)
	if err != nil {
		return nil, "", err
	}
	if !parent.IsDir() {
		return nil, "", newError(KindNotDir, op, name)
	}
	return parent, name, nil
}
