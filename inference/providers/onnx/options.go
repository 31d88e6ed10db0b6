package onnx

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-synap/inference/providers"
)

// sessionOptions builds native session options from cfg. The caller destroys the result.
func sessionOptions(cfg providers.Config, log logrus.FieldLogger) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	if err := applySettings(options, cfg); err != nil {
		options.Destroy()
		return nil, err
	}
	if err := applyExecutionProvider(options, cfg, log); err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}

func applySettings(options *ort.SessionOptions, cfg providers.Config) error {
	if err := options.SetGraphOptimizationLevel(graphOptimizationLevel(cfg.OptimizationLevel)); err != nil {
		return errors.Wrap(err, "set graph optimization level")
	}
	var mode ort.ExecutionMode = ort.ExecutionModeSequential
	if cfg.Parallel {
		mode = ort.ExecutionModeParallel
	}
	if err := options.SetExecutionMode(mode); err != nil {
		return errors.Wrap(err, "set execution mode")
	}
	if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
		return errors.Wrap(err, "set intra-op threads")
	}
	if err := options.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
		return errors.Wrap(err, "set inter-op threads")
	}
	return nil
}

func graphOptimizationLevel(l providers.OptimizationLevel) ort.GraphOptimizationLevel {
	switch l {
	case providers.OptimizationDisabled:
		return ort.GraphOptimizationLevelDisableAll
	case providers.OptimizationBasic:
		return ort.GraphOptimizationLevelEnableBasic
	case providers.OptimizationAll:
		return ort.GraphOptimizationLevelEnableAll
	default:
		return ort.GraphOptimizationLevelEnableExtended
	}
}

// applyExecutionProvider appends the configured hardware path. CPU needs no setup.
func applyExecutionProvider(options *ort.SessionOptions, cfg providers.Config, log logrus.FieldLogger) error {
	switch cfg.ExecutionProvider {
	case providers.CoreMLExecutionProvider:
		if err := options.AppendExecutionProviderCoreML(cfg.CoreML.Flags); err != nil {
			return errors.Wrap(err, "error enabling CoreML")
		}
	case providers.OpenVINOExecutionProvider:
		if err := options.AppendExecutionProviderOpenVINO(cfg.OpenVINO.Map()); err != nil {
			return errors.Wrap(err, "error enabling OpenVINO")
		}
	case providers.CUDAExecutionProvider:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return errors.Wrap(err, "error creating CUDA options")
		}
		defer cuda.Destroy()
		if err := cuda.Update(cfg.CUDA.Map()); err != nil {
			return errors.Wrap(err, "error converting CUDA options")
		}
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return errors.Wrap(err, "error enabling CUDA")
		}
	case providers.CPUExecutionProvider:
	}
	log.WithField("provider", cfg.ExecutionProvider).Debug("execution provider configured")
	return nil
}
