// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/esrgancheck/pkg/esrgan"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// outputFormat of the reports.
type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	}
	return "", errors.Errorf("unknown output format %q, valid values are %q, %q or %q", s, formatText, formatJSON, formatYAML)
}

// result of inspecting one checkpoint: either a report or the error that prevented loading it.
type result struct {
	Name   string         `json:"name" yaml:"name"`
	Path   string         `json:"path" yaml:"path"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
	Report *esrgan.Report `json:"report,omitempty" yaml:"report,omitempty"`

	err error
}

// textOptions selects the sections of the text report.
type textOptions struct {
	Keys   bool
	Checks bool
}

// checkLabels are the names used in the text report for each check: the "ok" message and the message for a
// partial mismatch.
var checkLabels = map[string]struct{ ok, partial string }{
	esrgan.CheckNameKeys:    {"Key check ok. Nothing to print out!", "Mismatch in number of keys!"},
	esrgan.CheckNameTensors: {"Tensor check ok. Nothing to print out!", "Mismatch in number of body lines!"},
	esrgan.CheckNamePrePost: {"Pre/Post key check ok. Nothing to print out!", "Mismatch in number of pre/post keys!"},
}

func section(w io.Writer, title string) {
	_, _ = fmt.Fprintf(w, "\n%s\n\n", sectionStyle.Render(fmt.Sprintf("***  %s  ***", title)))
}

func banner(w io.Writer, style lipgloss.Style, msg string) {
	_, _ = fmt.Fprintf(w, "\n%s\n", style.Render(msg))
}

func field(w io.Writer, label string, value any) {
	_, _ = fmt.Fprintf(w, "%s %v\n", labelStyle.Render(label+":"), value)
}

// renderLoadError reports a checkpoint that could not be loaded.
func renderLoadError(w io.Writer, res *result) {
	_, _ = fmt.Fprintln(w, titleStyle.Render(res.Name))
	banner(w, errorBanner, "Could not load model data from file! Maybe not a valid model!")
	_, _ = fmt.Fprintf(w, "%s\n", italicStyle.Render(res.Error))
}

// renderText writes the human-readable report of one checkpoint.
func renderText(w io.Writer, name string, r *esrgan.Report, opts textOptions) {
	_, _ = fmt.Fprintln(w, titleStyle.Render(name))

	section(w, "file type")
	field(w, "File type", r.FileType)
	field(w, "File size", humanize.Bytes(uint64(r.FileSize)))

	section(w, "data type")
	field(w, "Data type", r.DataType)

	renderStructure(w, r)
	if r.Structure == esrgan.StructureUnknown || r.Structure == esrgan.StructureUnknownESRGAN {
		return
	}

	if opts.Keys {
		renderKeys(w, r)
	}
	if opts.Checks && r.Checked() {
		renderChecks(w, r)
	}
	if r.StemChecked {
		renderStem(w, r.Stem)
	}
	renderArchitecture(w, r)

	section(w, "classification")
	field(w, "Model family", r.Family.DisplayName())
	field(w, "Parameters", humanize.Comma(r.NumParameters))
}

func renderStructure(w io.Writer, r *esrgan.Report) {
	switch r.Structure {
	case esrgan.StructureUnknown:
		banner(w, errorBanner, "Could not find the correct data structure (dict/OrderedDict)! Not a valid model!")
		return
	case esrgan.StructureRealESRGAN, esrgan.StructureUnknownESRGAN:
		if r.KnownKeyWord {
			section(w, "known key word")
		} else {
			section(w, "new key word")
		}
		field(w, "Key word", r.KeyWord)
	}

	if r.Prediction.Family != esrgan.FamilyUnknown {
		section(w, "model type prediction")
		field(w, "Possible model type", r.Prediction.Family.DisplayName())
		_, _ = fmt.Fprintln(w, italicStyle.Render(
			fmt.Sprintf("keyword %q found in key %q", r.Prediction.Keyword, r.Prediction.Key)))
	}

	switch r.Structure {
	case esrgan.StructureRealESRGAN:
		banner(w, noticeBanner, "Take a look at the data structure. Maybe it is a RealESRGAN model!")
	case esrgan.StructureUnknownESRGAN:
		banner(w, noticeBanner, "Unknown model type. Take a look at the data structure!")
	}
}

func renderKeys(w io.Writer, r *esrgan.Report) {
	section(w, "keys and tensor shapes")
	mismatched := make(map[string]bool)
	for _, check := range r.Checks {
		for _, key := range check.Mismatches {
			mismatched[key] = true
		}
	}
	table := newTable([]string{"#", "Key", "Shape", "Size"}, lipgloss.Right, lipgloss.Left, lipgloss.Left, lipgloss.Right)
	for ii, e := range r.Tensors {
		shape, size := "-", ""
		if e.IsTensor() {
			shape = fmt.Sprintf("%v", e.Shape)
			size = humanize.Comma(e.Size())
		} else if e.Dict != nil {
			shape = fmt.Sprintf("{%d entries}", e.Dict.Len())
		} else if e.ValueType != "" {
			shape = e.ValueType
		}
		table.Row(mismatched[e.Key], fmt.Sprintf("%d", ii), e.Key, shape, size)
	}
	_, _ = fmt.Fprintln(w, table.Render())
}

func renderChecks(w io.Writer, r *esrgan.Report) {
	section(w, "key and tensor checks")
	for _, check := range r.Checks {
		if check.Passed() {
			_, _ = fmt.Fprintf(w, "\n%s\n", checkLabels[check.Name].ok)
			continue
		}
		_, _ = fmt.Fprintf(w, "\n%s\n", labelStyle.Render(fmt.Sprintf("Mismatching %s (%d):", check.Name, len(check.Mismatches))))
		for _, key := range check.Mismatches {
			_, _ = fmt.Fprintf(w, "   ◦ %s\n", key)
		}
	}
	for _, check := range r.Checks {
		if check.Partial() {
			_, _ = fmt.Fprintf(w, "\n%s\n%d wrong of %d\n", checkLabels[check.Name].partial, len(check.Mismatches), check.Count)
		}
	}

	switch r.Verdict {
	case esrgan.VerdictPerfect:
		banner(w, okBanner, "Old ESRGAN RRDB model. Perfect match in the data structure.")
	case esrgan.VerdictMaybe:
		banner(w, warnBanner, "Maybe an Old ESRGAN RRDB model. Check the data!")
	default:
		banner(w, errorBanner, "NOT an Old ESRGAN RRDB model. No match in the data structure.")
	}
	if r.RealESRGANHint {
		banner(w, noticeBanner, "Take a look at the data structure. Maybe it is a RealESRGAN model!")
	}
}

func renderStem(w io.Writer, stem esrgan.Stem) {
	switch stem {
	case esrgan.StemOld:
		banner(w, infoBanner, "Found old ESRGAN RRDB model data")
	case esrgan.StemNew:
		banner(w, infoBanner, "Found new ESRGAN RRDB model data")
	case esrgan.StemUnknownOld:
		banner(w, noticeBanner, "Found UNKNOWN (OLD) ESRGAN RRDB model. Check the data!")
	case esrgan.StemUnknownNew:
		banner(w, noticeBanner, "Found UNKNOWN (NEW) ESRGAN RRDB model. Check the data!")
	default:
		banner(w, errorBanner, "ERROR: Check the data structure!")
	}
}

func renderArchitecture(w io.Writer, r *esrgan.Report) {
	section(w, "architecture")
	field(w, "Reference", r.Architecture)
	if r.Inferred != nil {
		field(w, "Inferred", *r.Inferred)
		if *r.Inferred != r.Architecture {
			_, _ = fmt.Fprintln(w, italicStyle.Render("inferred architecture differs from the reference, try -infer"))
		}
	} else if r.InferError != "" {
		field(w, "Inferred", italicStyle.Render(r.InferError))
	}
}

// renderSummary writes one row per checkpoint.
func renderSummary(w io.Writer, results []*result) {
	_, _ = fmt.Fprintln(w, titleStyle.Render("Summary"))
	table := newTable([]string{"Checkpoint", "File type", "Data type", "Family", "Verdict", "Parameters", "Size"},
		lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Right)
	for _, res := range results {
		if res.Report == nil {
			table.Row(true, res.Name, "-", "-", "error", "-", "-", "-")
			continue
		}
		r := res.Report
		verdict := "-"
		if r.Checked() {
			verdict = r.Verdict.String()
		}
		table.Row(r.Family == esrgan.FamilyUnknown,
			res.Name, r.FileType.String(), r.DataType, r.Family.DisplayName(), verdict,
			humanize.Comma(r.NumParameters), humanize.Bytes(uint64(r.FileSize)))
	}
	_, _ = fmt.Fprintln(w, table.Render())
}

// renderMachine writes the results in JSON or YAML.
func renderMachine(w io.Writer, format outputFormat, results []*result) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(results), "failed to encode JSON report")
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return errors.Wrap(err, "failed to encode YAML report")
		}
		return errors.Wrap(enc.Close(), "failed to encode YAML report")
	}
	return errors.Errorf("format %q is not a machine readable format", format)
}
