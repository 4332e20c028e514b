package encoder

import (
	"fmt"
	"strconv"

	"github.com/SoniCord-Development/sonicord/internal/audio"
)

// DefaultTool is the external encoder used by the transcoding
// capabilities unless overridden.
const DefaultTool = "ffmpeg"

// ffmpegArgs builds the fixed invocation for one conversion: raw s16le
// 48kHz stereo on stdin, the target muxer on stdout, log output limited
// to genuine errors.
func ffmpegArgs(muxer string, extra ...string) []string {
	args := []string{
		"-f", "s16le",
		"-ar", strconv.Itoa(audio.SampleRate),
		"-ac", strconv.Itoa(audio.Channels),
		"-loglevel", "error",
		"-i", "-",
		"-f", muxer,
	}
	args = append(args, extra...)
	return append(args, "pipe:1")
}

// MKV returns the Matroska video-container capability.
func MKV() ExternalTranscode {
	return ExternalTranscode{Tool: DefaultTool, Args: ffmpegArgs("matroska"), Tag: "mkv"}
}

// MKA returns the Matroska audio-container capability.
func MKA() ExternalTranscode {
	return ExternalTranscode{Tool: DefaultTool, Args: ffmpegArgs("matroska"), Tag: "mka"}
}

// MP3 returns the MP3 capability.
func MP3() ExternalTranscode {
	return ExternalTranscode{Tool: DefaultTool, Args: ffmpegArgs("mp3"), Tag: "mp3"}
}

// OGG returns the Ogg container capability.
func OGG() ExternalTranscode {
	return ExternalTranscode{Tool: DefaultTool, Args: ffmpegArgs("ogg"), Tag: "ogg"}
}

// M4A returns the M4A capability. The fragmented layout lets the muxer
// write to a non-seekable pipe.
func M4A() ExternalTranscode {
	return ExternalTranscode{
		Tool: DefaultTool,
		Args: ffmpegArgs("ipod", "-movflags", "frag_keyframe+empty_moov"),
		Tag:  "m4a",
	}
}

// MP4 returns the MP4 capability. The fragmented layout lets the muxer
// write to a non-seekable pipe.
func MP4() ExternalTranscode {
	return ExternalTranscode{
		Tool: DefaultTool,
		Args: ffmpegArgs("mp4", "-movflags", "frag_keyframe+empty_moov"),
		Tag:  "mp4",
	}
}

// ForEncoding returns the capability registered for the given output
// tag. The tool argument overrides the external encoder executable for
// transcoding capabilities; an empty tool keeps the default.
func ForEncoding(tag, tool string) (Capability, error) {
	var ext ExternalTranscode
	switch tag {
	case "pcm":
		return Passthrough{}, nil
	case "wav":
		return ContainerWrap{}, nil
	case "mkv":
		ext = MKV()
	case "mka":
		ext = MKA()
	case "mp3":
		ext = MP3()
	case "ogg":
		ext = OGG()
	case "m4a":
		ext = M4A()
	case "mp4":
		ext = MP4()
	default:
		return nil, fmt.Errorf("unknown encoding %q", tag)
	}

	if tool != "" {
		ext.Tool = tool
	}

	return ext, nil
}

// Encodings lists the output tags ForEncoding accepts.
func Encodings() []string {
	return []string{"pcm", "wav", "mkv", "mka", "mp3", "ogg", "m4a", "mp4"}
}
