package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurosense/assessment-service/internal/audio"
	"github.com/neurosense/assessment-service/internal/config"
	"github.com/neurosense/assessment-service/internal/extractor"
	"github.com/neurosense/assessment-service/internal/questionnaire"
	"github.com/neurosense/assessment-service/internal/utils"
)

var (
	transcribeMIME    string
	transcribeField   string
	transcribeTimeout time.Duration
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe FILE",
	Short: "Transcribe an audio file",
	Long: `Send a recorded clip through the speech-to-text relay and print the text.

Providers are tried in order (Sarvam, then Whisper) using the configured keys.
With --field the transcription is also matched against a questionnaire field.

Examples:
  neurosense transcribe answer.webm
  neurosense transcribe --field age answer.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().StringVarP(&transcribeMIME, "mime", "m", "", "MIME type (default: guessed from extension)")
	transcribeCmd.Flags().StringVarP(&transcribeField, "field", "f", "", "Extract an answer for this questionnaire field")
	transcribeCmd.Flags().DurationVarP(&transcribeTimeout, "timeout", "t", 60*time.Second, "Request timeout")
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		printError("failed to load configuration", err)
		return err
	}
	logger := utils.ToSlogLogger(newLogger(cfg, os.Stderr))

	data, err := os.ReadFile(args[0])
	if err != nil {
		printError("failed to read audio", err)
		return err
	}
	clip := audio.Payload{Data: data, MIMEType: transcribeMIME}
	if clip.MIMEType == "" {
		clip.MIMEType = mimeFromExtension(args[0])
	}

	relay := newTranscriber(cfg, logger)
	ctx, cancel := context.WithTimeout(cmd.Context(), transcribeTimeout)
	defer cancel()

	result, err := relay.Transcribe(ctx, clip)
	if err != nil {
		printError("transcription failed", err)
		return err
	}
	fmt.Printf("Text:     %s\n", result.Text)
	fmt.Printf("Provider: %s\n", result.Provider)

	if transcribeField == "" {
		return nil
	}
	answer, ok := extractor.New(questionnaire.Default()).Extract(result.Text, transcribeField)
	if !ok {
		fmt.Printf("Answer:   (no match for %s)\n", transcribeField)
		return nil
	}
	fmt.Printf("Answer:   %s = %v\n", answer.Field, answer.Value)
	return nil
}

func mimeFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return audio.MIMEWAV
	case ".mp3":
		return audio.MIMEMP3
	case ".ogg", ".oga":
		return "audio/ogg"
	default:
		return audio.MIMEWebM
	}
}
