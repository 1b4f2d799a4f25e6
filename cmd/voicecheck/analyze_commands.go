package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Vovarama1992/voicecheck/internal/audio"
	"github.com/Vovarama1992/voicecheck/internal/classifier"
	"github.com/Vovarama1992/voicecheck/internal/config"
	"github.com/Vovarama1992/voicecheck/internal/features"
)

func newFeaturesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "features <file>",
		Short: "Print the feature vector of an audio file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			clip, err := decodeFile(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			vec, err := features.NewExtractor(features.DefaultConfig()).Compute(clip)
			if err != nil {
				return fmt.Errorf("extract features: %w", err)
			}
			return writeJSONOut(cmd, vec)
		},
	}
}

type classifyOutput struct {
	File          string    `json:"file"`
	Prediction    string    `json:"prediction"`
	Confidence    float64   `json:"confidence"`
	Probabilities []float64 `json:"probabilities"`
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>",
		Short: "Classify an audio file as Real or Fake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			clf, err := classifier.Load(cfg.Model.Path, cfg.Model.ScalerPath)
			if err != nil {
				return err
			}
			clip, err := decodeFile(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			vec, err := features.NewExtractor(features.DefaultConfig()).Extract(clip)
			if err != nil {
				return fmt.Errorf("extract features: %w", err)
			}
			pred, err := clf.Predict(vec)
			if err != nil {
				return err
			}
			return writeJSONOut(cmd, classifyOutput{
				File:          filepath.Base(args[0]),
				Prediction:    classifier.Label(pred.Class),
				Confidence:    pred.Confidence(),
				Probabilities: pred.Probabilities,
			})
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file> <out.wav>",
		Short: "Decode an audio file and write it as mono 16-bit WAV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			clip, err := decodeFile(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], clip.WAV(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d samples at %d Hz)\n", args[1], len(clip.Samples), clip.SampleRate)
			return nil
		},
	}
}

func decodeFile(cmd *cobra.Command, cfg *config.Config, path string) (*audio.Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	decoder := audio.NewDecoder(cfg.Audio.FFmpegBinary, cfg.Audio.FFprobeBinary, cfg.Audio.FFmpegFallback)
	clip, err := decoder.Decode(cmd.Context(), filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return clip, nil
}

func writeJSONOut(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
