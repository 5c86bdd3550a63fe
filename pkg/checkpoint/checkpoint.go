// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package checkpoint loads serialized model checkpoints (PyTorch ".pth"/".pt" files and ".safetensors")
// into an ordered tree of tensor names and shapes.
//
// Only the structure is loaded: names, nesting and tensor shapes. Tensor values are never needed to
// classify a checkpoint, and for ".safetensors" files they are not even read.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrUnparseable is returned (wrapped) by Load when the file exists but could not be decoded as a checkpoint.
var ErrUnparseable = errors.New("not a valid model checkpoint")

// ContainerType is the type of mapping holding the entries of a Dict.
type ContainerType int

const (
	ContainerUnknown ContainerType = iota
	ContainerOrderedDict
	ContainerDict
)

// String implements fmt.Stringer, using the Python names of the containers.
func (c ContainerType) String() string {
	switch c {
	case ContainerOrderedDict:
		return "OrderedDict"
	case ContainerDict:
		return "dict"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c ContainerType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Entry is one key/value pair of a Dict.
//
// Exactly one of Shape (for tensors), Dict (for nested mappings) or Value (anything else) is meaningful.
type Entry struct {
	Key string `json:"key" yaml:"key"`

	// Shape of the tensor, if the value is a tensor. Scalars tensors have an empty (non-nil) shape.
	Shape []int `json:"shape,omitempty" yaml:"shape,omitempty"`

	// Dict holds the nested mapping, if the value is a mapping.
	Dict *Dict `json:"dict,omitempty" yaml:"dict,omitempty"`

	// Value is the printed value ("%v") and ValueType the Go type ("%T") for values that are neither
	// tensors nor mappings.
	Value     string `json:"value,omitempty" yaml:"value,omitempty"`
	ValueType string `json:"value_type,omitempty" yaml:"value_type,omitempty"`
}

// IsTensor returns whether the entry holds a tensor.
func (e *Entry) IsTensor() bool {
	return e.Shape != nil
}

// Size is the number of elements of the tensor, or 0 if the entry is not a tensor.
func (e *Entry) Size() int64 {
	if !e.IsTensor() {
		return 0
	}
	size := int64(1)
	for _, dim := range e.Shape {
		size *= int64(dim)
	}
	return size
}

// HasShape returns whether the entry is a tensor with exactly the given dimensions.
func (e *Entry) HasShape(dims ...int) bool {
	return e.IsTensor() && slices.Equal(e.Shape, dims)
}

// String implements fmt.Stringer.
func (e *Entry) String() string {
	switch {
	case e.IsTensor():
		return fmt.Sprintf("%s%v", e.Key, e.Shape)
	case e.Dict != nil:
		return fmt.Sprintf("%s{%d entries}", e.Key, e.Dict.Len())
	default:
		return fmt.Sprintf("%s=%s", e.Key, e.Value)
	}
}

// entryView is the serialized form of an Entry: Shape is a pointer so that scalar tensors keep their
// empty shape ("[]") while non-tensors omit it.
type entryView struct {
	Key       string `json:"key" yaml:"key"`
	Shape     *[]int `json:"shape,omitempty" yaml:"shape,omitempty,flow"`
	Dict      *Dict  `json:"dict,omitempty" yaml:"dict,omitempty"`
	Value     string `json:"value,omitempty" yaml:"value,omitempty"`
	ValueType string `json:"value_type,omitempty" yaml:"value_type,omitempty"`
}

func (e *Entry) view() entryView {
	v := entryView{Key: e.Key, Dict: e.Dict, Value: e.Value, ValueType: e.ValueType}
	if e.IsTensor() {
		shape := e.Shape
		v.Shape = &shape
	}
	return v
}

// MarshalJSON implements json.Marshaler.
func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.view())
}

// MarshalYAML implements yaml.Marshaler.
func (e *Entry) MarshalYAML() (any, error) {
	return e.view(), nil
}

// Dict is an ordered mapping of keys to entries. It preserves the order of the original file.
type Dict struct {
	Type    ContainerType `json:"type" yaml:"type"`
	Entries []*Entry      `json:"entries" yaml:"entries"`

	index map[string]int
}

// NewDict creates an empty Dict of the given container type.
func NewDict(containerType ContainerType) *Dict {
	return &Dict{Type: containerType, index: make(map[string]int)}
}

// Add appends an entry. If the key is already present, its entry is replaced in place.
func (d *Dict) Add(e *Entry) {
	if d.index == nil {
		d.reindex()
	}
	if idx, found := d.index[e.Key]; found {
		d.Entries[idx] = e
		return
	}
	d.index[e.Key] = len(d.Entries)
	d.Entries = append(d.Entries, e)
}

// AddTensor is a shortcut to add a tensor entry with the given shape.
func (d *Dict) AddTensor(key string, dims ...int) {
	shape := make([]int, len(dims))
	copy(shape, dims)
	d.Add(&Entry{Key: key, Shape: shape})
}

func (d *Dict) reindex() {
	d.index = make(map[string]int, len(d.Entries))
	for ii, e := range d.Entries {
		d.index[e.Key] = ii
	}
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Entries)
}

// Keys returns the keys in order.
func (d *Dict) Keys() []string {
	keys := make([]string, 0, d.Len())
	if d == nil {
		return keys
	}
	for _, e := range d.Entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Get returns the entry for the key, if present.
func (d *Dict) Get(key string) (*Entry, bool) {
	if d == nil {
		return nil, false
	}
	if d.index == nil {
		d.reindex()
	}
	idx, found := d.index[key]
	if !found {
		return nil, false
	}
	return d.Entries[idx], true
}

// First returns the first entry, or nil if the Dict is empty.
func (d *Dict) First() *Entry {
	if d.Len() == 0 {
		return nil
	}
	return d.Entries[0]
}

// AllTensors returns whether the Dict is not empty and all its values are tensors: that is, whether it
// looks like a flat state dict.
func (d *Dict) AllTensors() bool {
	if d.Len() == 0 {
		return false
	}
	for _, e := range d.Entries {
		if !e.IsTensor() {
			return false
		}
	}
	return true
}

// NumParameters returns the total number of tensor elements, including nested mappings.
func (d *Dict) NumParameters() int64 {
	var total int64
	if d == nil {
		return total
	}
	for _, e := range d.Entries {
		if e.Dict != nil {
			total += e.Dict.NumParameters()
		} else {
			total += e.Size()
		}
	}
	return total
}

// Checkpoint is the structure of a loaded checkpoint file.
type Checkpoint struct {
	Path     string   `json:"path" yaml:"path"`
	FileType FileType `json:"file_type" yaml:"file_type"`
	FileSize int64    `json:"file_size" yaml:"file_size"`

	// Root mapping of the checkpoint, or nil if the top-level object is not a mapping.
	Root *Dict `json:"root,omitempty" yaml:"root,omitempty"`

	// RootType describes the top-level object: "OrderedDict", "dict" or the Go type of the decoded value.
	RootType string `json:"root_type" yaml:"root_type"`
}

// Load the structure of the checkpoint at path.
//
// A missing file returns an error for which errors.Is(err, os.ErrNotExist) holds. A file that exists but can't
// be decoded returns an error wrapping ErrUnparseable.
func Load(path string) (*Checkpoint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load checkpoint %q", path)
	}
	if info.IsDir() {
		return nil, errors.Wrapf(ErrUnparseable, "checkpoint %q is a directory", path)
	}
	fileType, err := DetectFileTypeOfPath(path)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("checkpoint %q: file type %s, %d bytes", path, fileType, info.Size())

	ckpt := &Checkpoint{
		Path:     path,
		FileType: fileType,
		FileSize: info.Size(),
	}
	switch fileType {
	case FileTypeSafetensors:
		ckpt.Root, err = loadSafetensors(path)
		if err != nil {
			return nil, err
		}
		ckpt.RootType = ckpt.Root.Type.String()
	case FileTypePickle, FileTypeZip:
		if err = loadTorch(path, ckpt); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(ErrUnparseable, "%q: unknown file type, not a PyTorch or safetensors file", path)
	}
	if ckpt.Root != nil {
		klog.V(1).Infof("checkpoint %q: root %s with %d entries", path, ckpt.RootType, ckpt.Root.Len())
	} else {
		klog.V(1).Infof("checkpoint %q: root is not a mapping but %s", path, ckpt.RootType)
	}
	return ckpt, nil
}
