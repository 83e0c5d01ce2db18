package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// ArtifactInfo summarizes the probed result of a finished recording
// artifact, used by Finalize to decide COMPLETED vs FAILED (§4.5).
type ArtifactInfo struct {
	HasAudio bool
	HasVideo bool
	Duration float64 // seconds
	Size     int64   // bytes
}

// probeArtifact inspects path with ffprobe to determine stream presence
// and duration. A missing or unreadable file yields an error rather than
// a zero-value ArtifactInfo, since Finalize must distinguish "no file" from
// "file with no streams".
func probeArtifact(ctx context.Context, ffprobeBin, path string) (ArtifactInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ArtifactInfo{}, fmt.Errorf("stat artifact: %w", err)
	}

	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, ffprobeBin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_entries", "stream=codec_type:format=duration",
		"-show_streams",
		"-show_format",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return ArtifactInfo{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probeData struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probeData); err != nil {
		return ArtifactInfo{}, fmt.Errorf("ffprobe JSON parse: %w", err)
	}

	result := ArtifactInfo{Size: info.Size()}
	for _, s := range probeData.Streams {
		switch s.CodecType {
		case "video":
			result.HasVideo = true
		case "audio":
			result.HasAudio = true
		}
	}
	if probeData.Format.Duration != "" {
		fmt.Sscanf(probeData.Format.Duration, "%g", &result.Duration)
	}
	return result, nil
}
