// clipstream-live is a terminal client for live voice chat: microphone
// audio streams to the backend and assistant audio plays back through
// the speaker, with transcripts printed as they commit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/clipstream-go/clipstream/pkg/core/backend/gemini"
	"github.com/clipstream-go/clipstream/pkg/core/live"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "clipstream-live: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	model := flag.String("model", live.DefaultModel, "backend live model")
	voice := flag.String("voice", live.DefaultVoice, "assistant voice")
	system := flag.String("system", "", "system instruction")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	apiKey, err := resolveAPIKey()
	if err != nil {
		return err
	}

	cfg := live.Config{
		Model:             *model,
		Voice:             *voice,
		SystemInstruction: *system,
	}
	session, err := live.NewSession(cfg, live.Deps{
		Connector: &gemini.Connector{APIKey: apiKey},
		NewCaptureDevice: func() (live.CaptureDevice, error) {
			return newMicCapture(live.DefaultInputSampleRateHz)
		},
		NewOutputDevice: func(sampleRateHz int) (live.OutputDevice, error) {
			return newSpeakerOutput(sampleRateHz)
		},
	})
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	fmt.Println("connecting...")
	if err := session.Start(context.Background()); err != nil {
		return err
	}
	defer session.Stop()

	fmt.Println("connected: speak into the microphone, ctrl-c to quit")

	for {
		select {
		case <-sigCh:
			fmt.Println("\nstopping...")
			session.Stop()
			return nil
		case ev := <-session.Events():
			switch e := ev.(type) {
			case live.StateChangedEvent:
				switch e.State {
				case live.StateDisconnected:
					fmt.Println("disconnected")
					return nil
				case live.StateError:
					return fmt.Errorf("session entered error state")
				}
			case live.TurnCommittedEvent:
				for _, turn := range e.Turns {
					fmt.Printf("[%s] %s\n", turn.Author, turn.Text)
				}
			case live.SessionErrorEvent:
				fmt.Fprintf(os.Stderr, "error: %s\n", e.Err.Message)
			}
		}
	}
}

// resolveAPIKey reads GEMINI_API_KEY, prompting interactively when the
// terminal allows it.
func resolveAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		return key, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("GEMINI_API_KEY is not set")
	}
	fmt.Fprint(os.Stderr, "GEMINI_API_KEY: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", fmt.Errorf("GEMINI_API_KEY is not set")
	}
	return key, nil
}
