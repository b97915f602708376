// Command timerctl generates countdown sticker clips from the command
// line, without running the HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"timer-stickers/internal/encoder"
	"timer-stickers/internal/framecache"
	"timer-stickers/internal/generator"
	"timer-stickers/internal/render"
	"timer-stickers/internal/trimmer"
)

func main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "timerctl",
		Short:        "Generate countdown timer sticker clips",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.AddCommand(newGenerateCmd(), newProbeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render and encode one sticker clip to a file",
		RunE:  runGenerate,
	}

	cmd.Flags().Int("duration", 0, "Countdown duration in seconds")
	cmd.Flags().StringP("output", "o", "sticker.webm", "Output file")
	cmd.Flags().Int("fps", 1, "Frames per second")
	cmd.Flags().String("encoder", "", "Preferred encoder (vp9, vp8, qtrle)")
	cmd.Flags().String("master-url", "", "Master clip URL for the trim fast path")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	duration, _ := cmd.Flags().GetInt("duration")
	output, _ := cmd.Flags().GetString("output")
	fps, _ := cmd.Flags().GetInt("fps")
	preferred, _ := cmd.Flags().GetString("encoder")
	masterURL, _ := cmd.Flags().GetString("master-url")

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Hour)
	defer cancel()

	caps := encoder.Probe(ctx)
	if caps.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg not found in PATH")
	}

	var trim generator.Trimmer
	if masterURL != "" {
		trim = trimmer.New(masterURL, caps, fps)
	}

	orchestrator := generator.New(generator.Config{
		FPS:               fps,
		PreferredStrategy: preferred,
		TrimEnabled:       masterURL != "",
	}, generator.Deps{
		Cache:    framecache.NewManager(),
		Chain:    encoder.NewChain(caps),
		Renderer: render.NewBitmapRenderer(),
		Trimmer:  trim,
	})

	start := time.Now()
	result, err := orchestrator.Generate(ctx, duration, func(percent float64) {
		fmt.Fprintf(cmd.OutOrStdout(), "\rprogress: %3.0f%%", percent)
	})
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, result.Blob.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d bytes (%s, via %s) in %v\n",
		output, result.Blob.Size(), result.Blob.MIME, result.Source,
		time.Since(start).Round(time.Millisecond))
	return nil
}

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Report the local ffmpeg encoder capabilities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			caps := encoder.Probe(cmd.Context())
			if caps.FFmpegPath == "" {
				return fmt.Errorf("ffmpeg not found in PATH")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ffmpeg: %s\n", caps.FFmpegPath)
			for _, name := range []string{"libvpx-vp9", "libvpx", "qtrle"} {
				state := "unavailable"
				if caps.Has(name) {
					state = "supported"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %s\n", name, state)
			}
			return nil
		},
	}
}
