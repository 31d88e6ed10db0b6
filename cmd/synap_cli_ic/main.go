// Command synap_cli_ic classifies an image with a synap model.
//
//	synap_cli_ic -m model.synap -labels info.json cat.jpg
//	synap_cli_ic -m model.synap -r 100 -w 5 images/
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
		log.WithError(err).Fatal("classification failed")
	}
}

func run(log *logrus.Logger, args []string) error {
	opts, err := cli.Parse("synap_cli_ic", args, os.Stderr)
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
	engine, err := builder.WithClassifier(cfg.Classifier.TopCount).Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	var last *postprocess.ClassifierResult
	run := func(in *preprocess.InputData) (inference.Timings, int, error) {
		result, timings, err := engine.Classify(in)
		if err != nil {
			return timings, 0, err
		}
		last = result
		return timings, len(result.Items), nil
	}
	return cli.Process(os.Stdout, opts, run, func(w io.Writer) {
		cli.Classification(w, labels, last)
	})
}
