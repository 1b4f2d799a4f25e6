package audio

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

type probeResult struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// probeSampleRate asks ffprobe for the first audio stream's native rate.
func probeSampleRate(ctx context.Context, binary, path string) (int, error) {
	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_streams", "-of", "json", "--", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(out)))
	}

	var res probeResult
	if err := json.Unmarshal(out, &res); err != nil {
		return 0, fmt.Errorf("ffprobe parse: %w", err)
	}
	for _, s := range res.Streams {
		if s.CodecType != "audio" {
			continue
		}
		rate, err := strconv.Atoi(strings.TrimSpace(s.SampleRate))
		if err != nil || rate <= 0 {
			return 0, fmt.Errorf("ffprobe: bad sample rate %q", s.SampleRate)
		}
		return rate, nil
	}
	return 0, errors.New("ffprobe: no audio stream")
}

// decodeFFmpeg spills data to disk, probes the native rate and reads mono
// float32 PCM from ffmpeg's stdout.
func decodeFFmpeg(ctx context.Context, ffmpegBin, ffprobeBin string, data []byte) (*Clip, error) {
	tmp, err := os.CreateTemp("", "voicecheck-*.audio")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("ffmpeg temp write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("ffmpeg temp close: %w", err)
	}

	rate, err := probeSampleRate(ctx, ffprobeBin, tmp.Name())
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(
		ctx,
		ffmpegBin,
		"-loglevel", "error",
		"-i", tmp.Name(),
		"-vn",
		"-ac", "1",
		"-f", "f32le",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}

	raw, err := io.ReadAll(stdout)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("ffmpeg read pcm: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	n := len(raw) / 4
	if n == 0 {
		return nil, ErrEmptyAudio
	}
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		samples[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
	}

	return &Clip{Samples: samples, SampleRate: rate}, nil
}
