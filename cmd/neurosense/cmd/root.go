package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "neurosense",
	Short: "NeuroSense neuro-risk assessment service",
	Long: `NeuroSense runs the voice-driven neurological risk assessment.

Commands:
  serve       - HTTP API and WebSocket voice sessions
  transcribe  - send an audio file through the speech-to-text relay
  voice       - answer the questionnaire by voice in the terminal

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
