// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// esrgan_check inspects ESRGAN super-resolution checkpoints (".pth", ".pt" or ".safetensors"), classifies them
// as old ESRGAN, new ESRGAN or RealESRGAN, and reports key names and tensor shapes that don't match the RRDB
// network layout.
//
// Usage:
//
//	esrgan_check [flags] <model.pth> [more models...]
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gomlx/esrgancheck/internal/fsutil"
	"github.com/gomlx/esrgancheck/pkg/checkpoint"
	"github.com/gomlx/esrgancheck/pkg/esrgan"
	"github.com/janpfeifer/must"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagKeys    = flag.Bool("keys", true, "List the keys and tensor shapes of the state dict.")
	flagChecks  = flag.Bool("checks", true, "Run the key and tensor checks against the old ESRGAN layout.")
	flagSummary = flag.Bool("summary", false, "Display a summary table of the checkpoints. Always on when more than one checkpoint is given.")
	flagArch    = flag.String("arch", "", "YAML file with the reference architecture: nf, gc, nb, in_nc, out_nc and scale. "+
		"Fields not given default to the original 4x ESRGAN (nf=64, gc=32, nb=23, in_nc=3, out_nc=3, scale=4).")
	flagInfer = flag.Bool("infer", false, "Validate against the architecture inferred from the checkpoint's tensor shapes, "+
		"instead of the reference architecture.")
	flagFormat = flag.String("format", "text", "Output format: text, json or yaml.")
	flagClear  = flag.Bool("clear", false, "Clear the terminal before printing the text report.")
	flagForce  = flag.Bool("force", false, "Inspect files regardless of their extension.")
)

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = fmt.Fprintf(out, "Usage: %s [flags] <model.pth> [more models...]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(out, "Classifies ESRGAN checkpoints and checks their keys and tensor shapes.\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		klog.Errorf("No model on the command line given. See 'esrgan_check -help'.")
		os.Exit(1)
	}
	format := must.M1(parseFormat(*flagFormat))
	opts := esrgan.Options{Infer: *flagInfer}
	if *flagArch != "" {
		opts.Architecture = must.M1(esrgan.LoadArchitecture(*flagArch))
		klog.V(1).Infof("reference architecture: %s", opts.Architecture)
	}

	results := inspectAll(args, opts, !*flagForce)
	if format == formatText && *flagClear {
		termenv.NewOutput(os.Stdout).ClearScreen()
	}
	if err := report(os.Stdout, format, results); err != nil {
		klog.Errorf("%+v", err)
		os.Exit(1)
	}
	for _, res := range results {
		if res.err != nil {
			os.Exit(1)
		}
	}
}

// inspectAll loads and analyzes each checkpoint. Failures are recorded in the result, they don't stop the
// inspection of the other checkpoints.
func inspectAll(paths []string, opts esrgan.Options, checkExtension bool) []*result {
	names := MinimalUniquePaths(paths...)
	results := make([]*result, len(paths))
	for ii, path := range paths {
		res := &result{Name: names[ii], Path: path}
		results[ii] = res
		ckpt, err := load(path, checkExtension)
		if err != nil {
			res.err = err
			res.Error = err.Error()
			klog.Errorf("Failed to inspect %q: %v", path, err)
			continue
		}
		res.Report = esrgan.Analyze(ckpt, opts)
	}
	return results
}

func load(path string, checkExtension bool) (*checkpoint.Checkpoint, error) {
	resolved, err := fsutil.ResolveModelPath(path, checkExtension)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Errorf("file %q not found", path)
		}
		return nil, err
	}
	return checkpoint.Load(resolved)
}

// report writes the results in the given format.
func report(w io.Writer, format outputFormat, results []*result) error {
	if format != formatText {
		return renderMachine(w, format, results)
	}
	opts := textOptions{Keys: *flagKeys, Checks: *flagChecks}
	for _, res := range results {
		if res.Report == nil {
			renderLoadError(w, res)
			continue
		}
		renderText(w, res.Name, res.Report, opts)
	}
	if *flagSummary || len(results) > 1 {
		renderSummary(w, results)
	}
	return nil
}
