package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/audio"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/protocol"
)

var streamOpts struct {
	url         string
	rate        int
	chunk       time.Duration
	leadSilence time.Duration
	recalibrate time.Duration
	fast        bool
	quiet       bool
	drain       time.Duration
}

var streamCmd = &cobra.Command{
	Use:   "stream <file.wav>",
	Short: "Stream a WAV file to the service",
	Long: `Stream a 16-bit WAV file to the service in real time.

The file is resampled to the service rate and prefixed with silence so the
noise floor calibrates on quiet audio. Every status and analysis result is
printed as it arrives, followed by a summary.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return streamFile(ctx, args[0])
	},
}

func init() {
	f := streamCmd.Flags()
	f.StringVar(&streamOpts.url, "url", "ws://localhost:8001/ws/audio", "Service WebSocket URL")
	f.IntVar(&streamOpts.rate, "rate", 16000, "Service sample rate (Hz)")
	f.DurationVar(&streamOpts.chunk, "chunk", 20*time.Millisecond, "Audio per binary frame")
	f.DurationVar(&streamOpts.leadSilence, "lead-silence", 1200*time.Millisecond, "Silence sent before the file for calibration")
	f.DurationVar(&streamOpts.recalibrate, "recalibrate-at", 0, "Send a recalibrate request at this offset (0 disables)")
	f.BoolVar(&streamOpts.fast, "fast", false, "Send frames as fast as possible instead of in real time")
	f.BoolVar(&streamOpts.quiet, "quiet", false, "Only print statuses and the summary")
	f.DurationVar(&streamOpts.drain, "drain", 500*time.Millisecond, "Time to wait for trailing results before closing")
}

func streamFile(ctx context.Context, path string) error {
	samples, fileRate, err := audio.ReadWAV(path)
	if err != nil {
		return err
	}

	rs, err := audio.NewResampler(fileRate, streamOpts.rate)
	if err != nil {
		return err
	}
	samples, err = rs.Convert(samples)
	if err != nil {
		return err
	}

	lead := make([]float64, int(streamOpts.leadSilence.Seconds()*float64(streamOpts.rate)))
	samples = append(lead, samples...)

	chunkSamples := max(1, int(streamOpts.chunk.Seconds()*float64(streamOpts.rate)))

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, streamOpts.url, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", streamOpts.url, err)
	}
	defer conn.CloseNow()

	r := newRenderer(os.Stdout, streamOpts.quiet)
	r.header(path, fileRate, streamOpts.rate, len(samples), rs.Passthrough())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return receive(gctx, conn, r)
	})

	g.Go(func() error {
		if err := send(gctx, conn, samples, chunkSamples); err != nil {
			return err
		}

		select {
		case <-time.After(streamOpts.drain):
		case <-gctx.Done():
			return nil
		}
		return conn.Close(websocket.StatusNormalClosure, "stream finished")
	})

	err = g.Wait()
	r.summary()
	return err
}

// send writes the samples as fixed-size binary frames, paced to real time unless --fast is set
func send(ctx context.Context, conn *websocket.Conn, samples []float64, chunkSamples int) error {
	var ticker *time.Ticker
	if !streamOpts.fast {
		ticker = time.NewTicker(time.Duration(chunkSamples) * time.Second / time.Duration(streamOpts.rate))
		defer ticker.Stop()
	}

	recalibrateAt := -1
	if streamOpts.recalibrate > 0 {
		recalibrateAt = int(streamOpts.recalibrate.Seconds() * float64(streamOpts.rate))
	}

	for offset := 0; offset < len(samples); offset += chunkSamples {
		if recalibrateAt >= 0 && offset >= recalibrateAt {
			recalibrateAt = -1
			if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"recalibrate"}`)); err != nil {
				return fmt.Errorf("failed to send recalibrate: %w", err)
			}
		}

		end := min(offset+chunkSamples, len(samples))
		if err := conn.Write(ctx, websocket.MessageBinary, audio.EncodePCM16(samples[offset:end])); err != nil {
			return fmt.Errorf("failed to send audio: %w", err)
		}

		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}

// receive renders every message until the connection closes
func receive(ctx context.Context, conn *websocket.Conn, r *renderer) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}

		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return fmt.Errorf("invalid message from server: %w", err)
		}

		if envelope.Type != "" {
			var status protocol.Status
			if err := json.Unmarshal(data, &status); err != nil {
				return fmt.Errorf("invalid status from server: %w", err)
			}
			r.status(status)
			continue
		}

		var result protocol.Result
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("invalid result from server: %w", err)
		}
		r.result(result)
	}
}
