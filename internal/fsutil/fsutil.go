// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fsutil resolves model paths given on the command line.
package fsutil

import (
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// ModelExtensions are the file extensions accepted for model files, unless the check is disabled.
var ModelExtensions = []string{".pth", ".pt", ".ckpt", ".bin", ".safetensors"}

// ErrNotAModelFile is returned (wrapped) by ResolveModelPath for paths that are not regular files or don't
// have one of the ModelExtensions.
var ErrNotAModelFile = errors.New("not a model file")

// ReplaceTilde replaces a leading "~" or "~user" by the user's home directory. Other paths are returned unchanged.
func ReplaceTilde(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	userName, rest, _ := strings.Cut(path[1:], "/")
	var usr *user.User
	var err error
	if userName == "" {
		usr, err = user.Current()
	} else {
		usr, err = user.Lookup(userName)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to lookup home directory for user in path %q", path)
	}
	return filepath.Join(usr.HomeDir, rest), nil
}

// ResolveModelPath expands a leading tilde, and checks that path is an existing regular file. If checkExtension
// is true, the file must also have one of the ModelExtensions.
//
// A missing file returns an error for which errors.Is(err, os.ErrNotExist) holds.
func ResolveModelPath(path string, checkExtension bool) (string, error) {
	resolved, err := ReplaceTilde(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", errors.Wrapf(err, "model file %q", path)
	}
	if !info.Mode().IsRegular() {
		return "", errors.Wrapf(ErrNotAModelFile, "%q is not a regular file", path)
	}
	if checkExtension {
		ext := strings.ToLower(filepath.Ext(resolved))
		if !slices.Contains(ModelExtensions, ext) {
			return "", errors.Wrapf(ErrNotAModelFile, "%q doesn't have one of the extensions %v (use -force to skip this check)",
				path, ModelExtensions)
		}
	}
	return resolved, nil
}
