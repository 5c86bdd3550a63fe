// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"path/filepath"
	"strings"
)

// MinimalUniquePaths returns, for each path, the shortest suffix of its path components that no other path
// shares. Identical paths can't be told apart and are returned cleaned but otherwise whole.
func MinimalUniquePaths(paths ...string) []string {
	split := make([][]string, len(paths))
	for ii, p := range paths {
		split[ii] = strings.Split(filepath.Clean(p), string(filepath.Separator))
	}
	suffix := func(parts []string, n int) string {
		if n > len(parts) {
			n = len(parts)
		}
		return strings.Join(parts[len(parts)-n:], string(filepath.Separator))
	}

	names := make([]string, len(paths))
	for ii, parts := range split {
		names[ii] = suffix(parts, len(parts))
		for n := 1; n <= len(parts); n++ {
			candidate := suffix(parts, n)
			unique := true
			for jj, other := range split {
				if jj != ii && suffix(other, n) == candidate {
					unique = false
					break
				}
			}
			if unique {
				names[ii] = candidate
				break
			}
		}
	}
	return names
}
