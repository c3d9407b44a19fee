// Command probe streams WAV audio to the analysis service and prints the
// vowel feedback it receives.
//
// Usage:
//
//	probe stream <file.wav> [--url ws://localhost:8001/ws/audio]
//	probe tone <out.wav> --f1 800 --f2 1500
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test client for the vowel feedback service",
	Long: `Probe feeds recorded or synthesised audio into the vowel feedback
service over its WebSocket endpoint and renders each analysis result.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(toneCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
