package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/neurosense/assessment-service/internal/audio"
	"github.com/neurosense/assessment-service/internal/capture"
	"github.com/neurosense/assessment-service/internal/config"
	"github.com/neurosense/assessment-service/internal/services"
	"github.com/neurosense/assessment-service/internal/speech"
	"github.com/neurosense/assessment-service/internal/utils"
	"github.com/neurosense/assessment-service/internal/voice"
)

var (
	voiceUser    string
	voicePatient string
	voiceLang    string
	voiceSpeaker string
	voiceLog     string
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Answer the questionnaire by voice in the terminal",
	Long: `Run a voice-guided assessment with the local microphone and speaker.

Each question is read aloud. Press Enter to start recording your answer and
Enter again to stop; the answer is transcribed and filled in.

Commands:
  <Enter>   start or stop recording
  r         replay the current question
  p N       go to page N
  s         submit the collected answers
  q         quit

The microphone and the remote speaker need a build with -tags portaudio.
The espeak speaker needs espeak-ng on PATH.`,
	RunE: runVoice,
}

func init() {
	voiceCmd.Flags().StringVarP(&voiceUser, "user", "u", "patient-1", "Signed-in user ID")
	voiceCmd.Flags().StringVar(&voicePatient, "patient", "", "Patient to assess (doctors only)")
	voiceCmd.Flags().StringVarP(&voiceLang, "lang", "l", "", "Prompt language (default: from STT_LANGUAGE)")
	voiceCmd.Flags().StringVarP(&voiceSpeaker, "speaker", "s", "", "espeak or remote (default: from TTS_MODE)")
	voiceCmd.Flags().StringVar(&voiceLog, "log-file", "", "Write logs here instead of discarding them")
	rootCmd.AddCommand(voiceCmd)
}

func runVoice(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var logWriter io.Writer = io.Discard
	if voiceLog != "" {
		f, err := os.OpenFile(voiceLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			printError("failed to open log file", err)
			return err
		}
		defer f.Close()
		logWriter = f
	}

	a, err := loadApp(ctx, logWriter)
	if err != nil {
		printError("startup failed", err)
		return err
	}
	defer a.Close()
	slogger := utils.ToSlogLogger(a.logger)

	caller, err := a.services.Auth().CurrentUser(ctx, voiceUser)
	if err != nil {
		printError("unknown user "+voiceUser, err)
		return err
	}

	speaker, err := newTerminalSpeaker(a)
	if err != nil {
		printError("no speaker available", err)
		return err
	}

	out := &terminalObserver{w: os.Stdout}
	session, err := a.services.Voice().NewSession(ctx, caller, &services.VoiceSessionRequest{
		PatientID: voicePatient,
		Lang:      voiceLang,
		Speaker:   speaker,
		Recorder:  capture.NewRecorder(capture.NewMicrophone(slogger), audio.DefaultConstraints(), slogger),
		Observer:  out,
	})
	if err != nil {
		printError("failed to start voice session", err)
		return err
	}
	defer session.Close()

	fmt.Printf("Voice assessment for %s (%s). Press Enter to answer, q to quit.\n", caller.FullName(), session.PatientID())
	session.EnableVoiceMode()

	t := &terminal{session: session, out: out, lang: voiceLang}
	if t.lang == "" {
		t.lang = promptLang(a.cfg.STTLanguage)
	}
	return t.loop(ctx, os.Stdin)
}

func newTerminalSpeaker(a *app) (speech.Speaker, error) {
	mode := voiceSpeaker
	if mode == "" {
		mode = "espeak"
		if a.cfg.TTSMode == config.TTSModeRemote {
			mode = "remote"
		}
	}
	logger := utils.ToSlogLogger(a.logger)

	switch mode {
	case "remote":
		if a.synth == nil {
			return nil, services.ErrSynthesisNotConfigured
		}
		return speech.NewRemoteSpeaker(a.synth, speech.NewPortAudioSink(), logger), nil
	case "espeak":
		engine := speech.NewEspeakEngine()
		if !engine.IsAvailable() {
			return nil, errors.New("espeak-ng not found on PATH")
		}
		return speech.NewLocalSpeaker(engine, a.cfg.STTLanguage, logger), nil
	default:
		return nil, fmt.Errorf("unknown speaker %q", mode)
	}
}

type terminal struct {
	session *services.VoiceSession
	out     *terminalObserver
	lang    string
}

func (t *terminal) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		switch cmd {
		case "":
			t.toggleRecording(ctx)
		case "r":
			t.report(t.session.ReplayQuestion(ctx))
		case "p":
			n, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil {
				t.out.printf("usage: p N\n")
				continue
			}
			t.report(t.session.ChangePage(n - 1))
		case "s":
			assessment, err := t.session.Submit(ctx)
			if err != nil {
				t.report(err)
				continue
			}
			t.out.printf("Submitted assessment %s (risk %s)\n", assessment.ID, assessment.OverallRisk())
		case "q":
			return nil
		default:
			t.out.printf("unknown command %q\n", cmd)
		}
	}
	return scanner.Err()
}

func (t *terminal) toggleRecording(ctx context.Context) {
	if !t.session.Snapshot().IsRecording {
		if q, err := t.session.CurrentQuestion(); err == nil {
			t.out.printf("Listening: %s\n", q.Prompt(t.lang))
		}
		t.report(t.session.StartAnswer(ctx))
		return
	}

	outcome, err := t.session.StopAnswer(ctx)
	if err != nil {
		t.report(err)
		return
	}
	if outcome.Answer == nil {
		t.out.printf("Heard %q (no match for %s)\n", outcome.Transcription.Text, outcome.Field)
	} else {
		t.out.printf("Heard %q: %s = %v\n", outcome.Transcription.Text, outcome.Field, outcome.Answer.Value)
	}
	if outcome.SectionComplete {
		t.out.printf("Page %d complete. Use p N to continue or s to submit.\n", outcome.Page)
	}
}

func (t *terminal) report(err error) {
	if err != nil {
		t.out.printf("Error: %v\n", err)
	}
}

// terminalObserver prints notices and recording transitions.
type terminalObserver struct {
	mu        sync.Mutex
	w         io.Writer
	recording bool
}

func (o *terminalObserver) Notice(n voice.Notice) {
	o.printf("[%s] %s: %s\n", n.Level, n.Title, n.Description)
}

func (o *terminalObserver) State(s voice.Session) {
	o.mu.Lock()
	changed := o.recording != s.IsRecording
	o.recording = s.IsRecording
	o.mu.Unlock()

	if changed && !s.IsRecording {
		o.printf("Page %d, question %d of %d\n", s.PageIndex+1, s.QuestionIndex+1, s.QuestionCount)
	}
}

func (o *terminalObserver) printf(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.w, format, args...)
}
