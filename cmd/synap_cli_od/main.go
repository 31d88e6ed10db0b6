// Command synap_cli_od detects objects in an image with a synap model.
//
//	synap_cli_od -m yolov8s-640x384.synap -labels coco.json street.jpg
package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-synap/cmd/internal/cli"
	"github.com/nvr-ai/go-synap/inference"
	"github.com/nvr-ai/go-synap/postprocess"
	"github.com/nvr-ai/go-synap/preprocess"
)

func main() {
	log := logrus.New()
	if err := run(log, os.Args[1:]); err != nil {
		log.WithError(err).Fatal("detection failed")
	}
}

func run(log *logrus.Logger, args []string) error {
	opts, err := cli.Parse("synap_cli_od", args, os.Stderr)
	if err != nil {
		return err
	}
	cfg := opts.Config

	labels, err := cli.LoadLabels(cfg.Labels)
	if err != nil {
		return err
	}
	builder, err := cli.Builder(cfg, log)
	if err != nil {
		return err
	}
	engine, err := builder.WithDetector(cfg.Detector).Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	var last *postprocess.DetectorResult
	run := func(in *preprocess.InputData) (inference.Timings, int, error) {
		result, timings, err := engine.Detect(in)
		if err != nil {
			return timings, 0, err
		}
		last = result
		return timings, len(result.Items), nil
	}
	return cli.Process(os.Stdout, opts, run, func(w io.Writer) {
		cli.Detection(w, labels, last)
	})
}
