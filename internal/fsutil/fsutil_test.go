// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceTilde(t *testing.T) {
	usr, err := user.Current()
	require.NoError(t, err)

	got, err := ReplaceTilde("~/models/x4.pth")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(usr.HomeDir, "models/x4.pth"), got)

	got, err = ReplaceTilde("~")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(usr.HomeDir), got)

	got, err = ReplaceTilde("models/~x4.pth")
	require.NoError(t, err)
	assert.Equal(t, "models/~x4.pth", got)

	_, err = ReplaceTilde("~no_such_user_hopefully/x4.pth")
	require.Error(t, err)
}

func TestResolveModelPath(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "4x_model.PTH")
	require.NoError(t, os.WriteFile(model, []byte{0x80, 0x02}, 0o644))
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("hello"), 0o644))

	got, err := ResolveModelPath(model, true)
	require.NoError(t, err)
	assert.Equal(t, model, got)

	_, err = ResolveModelPath(other, true)
	require.ErrorIs(t, err, ErrNotAModelFile)
	_, err = ResolveModelPath(other, false)
	require.NoError(t, err)

	_, err = ResolveModelPath(dir, false)
	require.ErrorIs(t, err, ErrNotAModelFile)

	_, err = ResolveModelPath(filepath.Join(dir, "missing.pth"), true)
	require.ErrorIs(t, err, os.ErrNotExist)
}
