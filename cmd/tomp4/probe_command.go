package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tomp4/internal/deps"
	"tomp4/internal/logging"
	"tomp4/internal/media/probe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Inspect a source file's streams and audio compatibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := args[0]
			out := cmd.OutOrStdout()

			tools := deps.Locate(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
			if tools.FFmpeg == "" && tools.FFprobe == "" {
				return fmt.Errorf("neither ffprobe nor ffmpeg is available")
			}

			if tools.FFprobe != "" {
				result, err := probe.Inspect(cmd.Context(), tools.FFprobe, path)
				if err != nil {
					return fmt.Errorf("inspect %s: %w", path, err)
				}
				rows := make([][]string, 0, len(result.Streams))
				for _, stream := range result.Streams {
					detail := ""
					switch stream.CodecType {
					case "video":
						if stream.Width > 0 {
							detail = fmt.Sprintf("%dx%d", stream.Width, stream.Height)
						}
					case "audio":
						var parts []string
						if stream.SampleRate != "" {
							parts = append(parts, stream.SampleRate+" Hz")
						}
						if stream.Channels > 0 {
							parts = append(parts, strconv.Itoa(stream.Channels)+" ch")
						}
						detail = strings.Join(parts, ", ")
					}
					rows = append(rows, []string{
						strconv.Itoa(stream.Index),
						stream.CodecType,
						stream.CodecName,
						detail,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Type", "Codec", "Detail"}, rows, nil))
			}

			inspector := probe.NewInspector(tools.FFmpeg, tools.FFprobe, logging.NewNop())
			codecs := inspector.AudioCodecs(cmd.Context(), path)
			switch {
			case len(codecs) == 0:
				fmt.Fprintln(out, "No audio streams detected.")
			case probe.NeedsAudioTranscode(codecs, cfg.AudioCompatible):
				fmt.Fprintf(out, "Audio (%s) needs transcoding to AAC for MP4.\n", strings.Join(codecs, ", "))
			default:
				fmt.Fprintf(out, "Audio (%s) can be stream-copied into MP4.\n", strings.Join(codecs, ", "))
			}
			return nil
		},
	}
	return cmd
}
