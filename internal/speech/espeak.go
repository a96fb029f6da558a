package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// espeak-ng speaks about 175 words per minute at rate 1.0.
const espeakBaseWPM = 175

// EspeakEngine speaks directly through the espeak-ng binary.
type EspeakEngine struct {
	binary string
}

func NewEspeakEngine() *EspeakEngine {
	return &EspeakEngine{binary: "espeak-ng"}
}

func (e *EspeakEngine) IsAvailable() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// Voices parses the output of `espeak-ng --voices`.
func (e *EspeakEngine) Voices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, e.binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("listing espeak voices: %w", err)
	}
	return parseEspeakVoices(out), nil
}

func (e *EspeakEngine) Say(ctx context.Context, text string, u Utterance) error {
	args := []string{}
	if u.Voice != "" {
		args = append(args, "-v", u.Voice)
	}
	if u.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(int(u.Rate*espeakBaseWPM)))
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	return cmd.Run()
}

// Output format:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  kn              --/M      Kannada            dra/kn
func parseEspeakVoices(out []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{
			Name: fields[1],
			Lang: fields[1],
		})
	}
	for i := range voices {
		if strings.HasPrefix(voices[i].Lang, "en") {
			voices[i].Default = true
			break
		}
	}
	return voices
}
