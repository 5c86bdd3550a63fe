// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package checkpoint

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/pkg/errors"
)

// maxValueLen is the maximum length of printed non-tensor values kept in an Entry.
const maxValueLen = 80

// loadTorch decodes a file saved with torch.save (either the legacy or the zip format) and fills ckpt.Root
// and ckpt.RootType.
func loadTorch(path string, ckpt *Checkpoint) (err error) {
	// gopickle panics on some malformed inputs (e.g. unexpected opcodes arguments), convert those to errors.
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrUnparseable, "failed to decode %q: %v", path, r)
		}
	}()
	value, err := pytorch.Load(path)
	if err != nil {
		return errors.Wrapf(ErrUnparseable, "failed to decode %q: %v", path, err)
	}
	ckpt.Root, ckpt.RootType = convertRoot(value)
	return nil
}

// convertRoot converts the top-level decoded value.
func convertRoot(value any) (*Dict, string) {
	switch v := value.(type) {
	case *types.OrderedDict:
		d := convertOrderedDict(v)
		return d, d.Type.String()
	case *types.Dict:
		d := convertDict(v)
		return d, d.Type.String()
	default:
		return nil, fmt.Sprintf("%T", value)
	}
}

func convertOrderedDict(od *types.OrderedDict) *Dict {
	d := NewDict(ContainerOrderedDict)
	for elem := od.List.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*types.OrderedDictEntry)
		d.Add(convertEntry(entry.Key, entry.Value))
	}
	return d
}

func convertDict(pd *types.Dict) *Dict {
	d := NewDict(ContainerDict)
	for _, key := range pd.Keys() {
		value, _ := pd.Get(key)
		d.Add(convertEntry(key, value))
	}
	return d
}

func convertEntry(key, value any) *Entry {
	e := &Entry{Key: keyString(key)}
	switch v := value.(type) {
	case *pytorch.Tensor:
		e.Shape = make([]int, len(v.Size))
		copy(e.Shape, v.Size)
	case *types.OrderedDict:
		e.Dict = convertOrderedDict(v)
	case *types.Dict:
		e.Dict = convertDict(v)
	default:
		e.ValueType = fmt.Sprintf("%T", value)
		e.Value = truncate(fmt.Sprintf("%v", value), maxValueLen)
	}
	return e
}

func keyString(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", key)
}

// truncate limits s to maxLen runes, never splitting a multi-byte character.
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
