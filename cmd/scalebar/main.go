// Command scalebar adds a scale bar to SEM images without running the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-sem-scalebar/internal/batch"
	"go-sem-scalebar/internal/config"
	"go-sem-scalebar/internal/container"
	"go-sem-scalebar/internal/service"
	"go-sem-scalebar/internal/storage"
	"go-sem-scalebar/pkg/validation"
)

func main() {
	mode := flag.String("mode", "add", "add | auto | detect | fonts | magnifications")
	in := flag.String("i", "", "Input image path or URL; further inputs may follow as arguments")
	mag := flag.String("m", "", "Magnification label for -mode add (e.g. 7k)")
	label := flag.String("l", "", "Label text for -mode auto; read from the image when empty")
	outDir := flag.String("o", "", "Output directory (default: next to the input)")
	timeout := flag.Duration("t", time.Minute, "Overall timeout")
	workers := flag.Int("w", 0, "Parallel workers for multiple inputs (default: number of CPUs)")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fail("Failed to load config: %v", err)
	}
	// Local files are a CLI input; the server only reads them under LOCAL_IMAGE_ROOT.
	if cfg.LocalImageRoot == "" {
		cfg.LocalImageRoot = string(filepath.Separator)
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		fail("Failed to initialize: %v", err)
	}
	svc := c.Service()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "fonts":
		printJSON(svc.ListFonts(ctx))
		return
	case "magnifications":
		printJSON(svc.Magnifications())
		return
	}

	inputs := flag.Args()
	if *in != "" {
		inputs = append([]string{*in}, inputs...)
	}
	if len(inputs) == 0 {
		fmt.Println("Usage: scalebar -mode add|auto|detect [-m 7k] [-l \"3 µm\"] [-o dir] [-w n] -i <image> [image...]")
		os.Exit(1)
	}

	outputs, err := outputPaths(inputs, *outDir)
	if err != nil && *mode != "detect" {
		fail("%v", err)
	}

	pool := batch.NewWorkerPool(*workers)
	defer pool.Close()

	results := batch.Run(pool, inputs, func(in string) (string, error) {
		return process(ctx, svc, *mode, in, outputs[in], *mag, *label)
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Input, r.Err)
			continue
		}
		fmt.Println(r.Value)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// process runs one input and returns the line to print.
func process(ctx context.Context, svc service.ScaleBarService, mode, in, path, mag, label string) (string, error) {
	input, err := readInput(in)
	if err != nil {
		return "", err
	}

	var out *service.RenderedImage
	switch mode {
	case "add":
		out, err = svc.AddScaleBar(ctx, service.ScaleBarInput{ImageInput: input, Magnification: mag})
	case "auto":
		out, err = svc.AddDetectedScaleBar(ctx, service.ScaleBarInput{ImageInput: input, Label: label})
	case "detect":
		resp, err := svc.DetectLabel(ctx, input)
		if err != nil {
			return "", err
		}
		data, err := json.Marshal(resp)
		return string(data), err
	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, out.PNG, 0o644); err != nil {
		return "", err
	}

	if !out.Applied {
		return fmt.Sprintf("%s: magnification %q is not in the table, image written unchanged", path, mag), nil
	}
	return fmt.Sprintf("%s: bar %dpx at %d,%d, label %q",
		path, out.Geometry.LengthPx, out.Geometry.StartX, out.Geometry.StartY, out.Label), nil
}

// outputPaths maps each input to <dir>/<base>_edited.png and refuses inputs
// that would write the same file.
func outputPaths(inputs []string, outDir string) (map[string]string, error) {
	paths := make(map[string]string, len(inputs))
	owner := make(map[string]string, len(inputs))
	var clashes []string

	for _, in := range inputs {
		dir := outDir
		if dir == "" {
			dir = "."
			if !validation.IsURL(in) {
				dir = filepath.Dir(strings.TrimPrefix(in, "file://"))
			}
		}
		path := filepath.Clean(filepath.Join(dir, storage.EditedFilename(in)))
		if prev, ok := owner[path]; ok {
			clashes = append(clashes, fmt.Sprintf("%s and %s both write %s", prev, in, path))
			continue
		}
		owner[path] = in
		paths[in] = path
	}

	if len(clashes) > 0 {
		return paths, fmt.Errorf("duplicate output files:\n  %s", strings.Join(clashes, "\n  "))
	}
	return paths, nil
}

// readInput passes URLs through and turns local files into absolute paths
// for the repository's file source.
func readInput(in string) (service.ImageInput, error) {
	if validation.IsURL(in) {
		return service.ImageInput{Source: in}, nil
	}
	path, err := filepath.Abs(strings.TrimPrefix(in, "file://"))
	if err != nil {
		return service.ImageInput{}, err
	}
	return service.ImageInput{Source: path}, nil
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("Failed to encode output: %v", err)
	}
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
