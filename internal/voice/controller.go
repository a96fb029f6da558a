// Package voice sequences spoken questions and recorded answers for one
// assessment page at a time.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/neurosense/assessment-service/internal/audio"
	"github.com/neurosense/assessment-service/internal/extractor"
	"github.com/neurosense/assessment-service/internal/questionnaire"
	"github.com/neurosense/assessment-service/internal/speech"
)

var (
	ErrBusy              = errors.New("another audio operation is in progress")
	ErrAlreadyRecording  = errors.New("recording already in progress")
	ErrNotRecording      = errors.New("no recording in progress")
	ErrVoiceModeDisabled = errors.New("voice mode is not enabled")
	ErrSessionReset      = errors.New("voice session was reset")
)

// Recorder is the microphone side of a session.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (audio.Payload, error)
}

type Options struct {
	Questionnaire *questionnaire.Questionnaire
	Speaker       speech.Speaker
	Recorder      Recorder
	Transcriber   speech.Transcriber
	Observer      Observer
	Scheduler     Scheduler
	Logger        *slog.Logger

	Lang          string
	AutoPlayDelay time.Duration
	AdvanceDelay  time.Duration

	// Form seeds the answers; questionnaire defaults are used when nil.
	Form map[string]any
}

type Controller struct {
	q         *questionnaire.Questionnaire
	extractor *extractor.Extractor
	speaker   speech.Speaker
	recorder  Recorder
	stt       speech.Transcriber
	observer  Observer
	scheduler Scheduler
	logger    *slog.Logger

	lang          string
	autoPlayDelay time.Duration
	advanceDelay  time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	session      Session
	gen          uint64
	timer        Timer
	promptSeq    uint64 // bumped whenever a scheduled prompt is superseded
	pendingPlay  bool
	acquiring    bool
	stopPlayback context.CancelFunc
	form         map[string]any
}

func NewController(opts Options) (*Controller, error) {
	if opts.Speaker == nil || opts.Recorder == nil || opts.Transcriber == nil {
		return nil, errors.New("voice controller requires a speaker, recorder and transcriber")
	}
	if opts.Questionnaire == nil {
		opts.Questionnaire = questionnaire.Default()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Lang == "" {
		opts.Lang = questionnaire.LangKannada
	}
	if opts.AutoPlayDelay <= 0 {
		opts.AutoPlayDelay = DefaultAutoPlayDelay
	}
	if opts.AdvanceDelay <= 0 {
		opts.AdvanceDelay = DefaultAdvanceDelay
	}

	form := opts.Form
	if form == nil {
		form = opts.Questionnaire.Defaults()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		q:             opts.Questionnaire,
		extractor:     extractor.New(opts.Questionnaire),
		speaker:       opts.Speaker,
		recorder:      opts.Recorder,
		stt:           opts.Transcriber,
		observer:      opts.Observer,
		scheduler:     opts.Scheduler,
		logger:        opts.Logger,
		lang:          opts.Lang,
		autoPlayDelay: opts.AutoPlayDelay,
		advanceDelay:  opts.AdvanceDelay,
		ctx:           ctx,
		cancel:        cancel,
		form:          form,
	}
	c.session.QuestionCount = len(c.q.Pages[0].Questions)
	return c, nil
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Form returns a copy of the answers collected so far.
func (c *Controller) Form() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.form))
	for k, v := range c.form {
		out[k] = v
	}
	return out
}

// CurrentQuestion returns the question the session is positioned on.
func (c *Controller) CurrentQuestion() (*questionnaire.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *Controller) currentLocked() (*questionnaire.Question, error) {
	return c.q.Question(c.session.PageIndex+1, c.session.QuestionIndex)
}

// EnableVoiceMode starts the session at the first question of the active
// page and schedules its prompt.
func (c *Controller) EnableVoiceMode() {
	c.mu.Lock()
	if c.session.VoiceModeEnabled {
		c.mu.Unlock()
		return
	}
	wasRecording := c.resetLocked()
	c.session.VoiceModeEnabled = true
	c.scheduleLocked(c.autoPlayDelay)
	s := c.session
	c.mu.Unlock()

	c.logger.Info("voice mode enabled", "page", s.PageIndex+1)
	c.afterReset(wasRecording)
	c.observer.State(s)
}

// DisableVoiceMode discards the session and cancels scheduled playback.
func (c *Controller) DisableVoiceMode() {
	c.mu.Lock()
	if !c.session.VoiceModeEnabled {
		c.mu.Unlock()
		return
	}
	wasRecording := c.resetLocked()
	c.session.VoiceModeEnabled = false
	s := c.session
	c.mu.Unlock()

	c.logger.Info("voice mode disabled", "page", s.PageIndex+1)
	c.afterReset(wasRecording)
	c.observer.State(s)
}

// ChangePage moves to pageIndex (0-based). When voice mode is on the session
// restarts at the page's first question.
func (c *Controller) ChangePage(pageIndex int) error {
	page, err := c.q.Page(pageIndex + 1)
	if err != nil {
		return err
	}

	c.mu.Lock()
	wasRecording := c.resetLocked()
	c.session.PageIndex = pageIndex
	c.session.QuestionCount = len(page.Questions)
	if c.session.VoiceModeEnabled {
		c.scheduleLocked(c.autoPlayDelay)
	}
	s := c.session
	c.mu.Unlock()

	c.afterReset(wasRecording)
	c.observer.State(s)
	return nil
}

// resetLocked invalidates everything scheduled or in flight for the current
// session and rewinds to question 0. It reports whether a recording has to
// be discarded.
func (c *Controller) resetLocked() bool {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pendingPlay = false
	if c.stopPlayback != nil {
		c.stopPlayback()
	}
	c.session.QuestionIndex = 0

	discard := c.session.IsRecording && !c.acquiring
	if !c.acquiring {
		c.session.IsRecording = false
	}
	return discard
}

func (c *Controller) afterReset(wasRecording bool) {
	if !wasRecording {
		return
	}
	if _, err := c.recorder.Stop(c.ctx); err != nil && !errors.Is(err, ErrNotRecording) {
		c.logger.Debug("discarded recording", "error", err)
	}
}

func (c *Controller) scheduleLocked(delay time.Duration) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.promptSeq++
	gen, seq := c.gen, c.promptSeq
	c.timer = c.scheduler.AfterFunc(delay, func() {
		if err := c.play(c.ctx, gen, seq, true); err != nil && !isQuiet(err) {
			c.logger.Warn("scheduled prompt not played", "error", err)
		}
	})
}

func isQuiet(err error) bool {
	return errors.Is(err, ErrSessionReset) || errors.Is(err, ErrBusy) || errors.Is(err, context.Canceled)
}

// ReplayQuestion plays the current prompt again and waits for it to finish.
func (c *Controller) ReplayQuestion(ctx context.Context) error {
	c.mu.Lock()
	if !c.session.VoiceModeEnabled {
		c.mu.Unlock()
		return ErrVoiceModeDisabled
	}
	if c.session.IsPlaying || c.session.IsRecording || c.session.IsTranscribing {
		c.mu.Unlock()
		return ErrBusy
	}
	// The replay stands in for any prompt that is scheduled or waiting.
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pendingPlay = false
	c.promptSeq++
	gen := c.gen
	c.mu.Unlock()

	return c.play(ctx, gen, 0, false)
}

// play speaks the current prompt. Automatic plays carry the promptSeq they
// were scheduled under and are dropped once it is superseded.
func (c *Controller) play(ctx context.Context, gen, seq uint64, auto bool) error {
	c.mu.Lock()
	if gen != c.gen || !c.session.VoiceModeEnabled || (auto && seq != c.promptSeq) {
		c.mu.Unlock()
		return ErrSessionReset
	}
	if auto {
		c.timer = nil
	}
	if c.session.IsPlaying || c.session.IsRecording || c.session.IsTranscribing {
		// The prompt starts as soon as the session is idle again.
		if auto {
			c.pendingPlay = true
		}
		c.mu.Unlock()
		return ErrBusy
	}

	question, err := c.currentLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	prompt := question.Prompt(c.lang)
	if strings.TrimSpace(prompt) == "" {
		c.mu.Unlock()
		c.observer.Notice(Notice{Title: "Error", Description: "No question available to read.", Level: NoticeError})
		return speech.ErrEmptyPrompt
	}

	playCtx, cancel := context.WithCancel(ctx)
	c.session.IsPlaying = true
	c.stopPlayback = cancel
	s := c.session
	c.mu.Unlock()
	c.observer.State(s)

	c.logger.Debug("playing prompt", "field", question.FieldKey, "page", s.PageIndex+1, "index", s.QuestionIndex)
	err = c.speaker.Speak(playCtx, prompt)
	cancel()

	c.mu.Lock()
	c.session.IsPlaying = false
	c.stopPlayback = nil
	s = c.session
	c.mu.Unlock()
	c.observer.State(s)

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("prompt playback failed", "field", question.FieldKey, "error", err)
		c.observer.Notice(Notice{Title: "Error", Description: "Failed to play question", Level: NoticeError})
	}
	c.resumePending()
	return err
}

// resumePending starts a prompt that was due while the session was busy.
func (c *Controller) resumePending() {
	c.mu.Lock()
	s := c.session
	if !c.pendingPlay || !s.VoiceModeEnabled || s.IsPlaying || s.IsRecording || s.IsTranscribing || c.acquiring {
		c.mu.Unlock()
		return
	}
	c.pendingPlay = false
	gen, seq := c.gen, c.promptSeq
	c.mu.Unlock()

	go func() {
		if err := c.play(c.ctx, gen, seq, true); err != nil && !isQuiet(err) {
			c.logger.Warn("deferred prompt not played", "error", err)
		}
	}()
}

// StartAnswer begins recording the answer to the current question.
func (c *Controller) StartAnswer(ctx context.Context) error {
	c.mu.Lock()
	if !c.session.VoiceModeEnabled {
		c.mu.Unlock()
		return ErrVoiceModeDisabled
	}
	if c.session.IsRecording {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	if c.session.IsPlaying || c.session.IsTranscribing || c.acquiring {
		c.mu.Unlock()
		return ErrBusy
	}
	c.acquiring = true
	c.session.IsRecording = true
	gen := c.gen
	s := c.session
	c.mu.Unlock()
	c.observer.State(s)

	err := c.recorder.Start(ctx)

	c.mu.Lock()
	c.acquiring = false
	if err != nil || gen != c.gen {
		c.session.IsRecording = false
		s = c.session
		c.mu.Unlock()
		c.observer.State(s)

		if err != nil {
			c.logger.Error("failed to start recording", "error", err)
			c.observer.Notice(Notice{
				Title:       "Error",
				Description: "Failed to start recording. Please check microphone permissions.",
				Level:       NoticeError,
			})
			c.resumePending()
			return err
		}
		c.afterReset(true)
		c.resumePending()
		return ErrSessionReset
	}
	c.mu.Unlock()

	c.observer.Notice(Notice{Title: "Recording Started", Description: "Speak your answer in Kannada", Level: NoticeInfo})
	return nil
}

// StopAnswer stops recording, transcribes the clip and stores the extracted
// answer. On success the session advances and the next prompt is scheduled,
// or the section is reported complete. On failure the question index and the
// form are left unchanged.
func (c *Controller) StopAnswer(ctx context.Context) (*Outcome, error) {
	c.mu.Lock()
	if c.acquiring {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if !c.session.IsRecording {
		c.mu.Unlock()
		return nil, ErrNotRecording
	}
	question, err := c.currentLocked()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.session.IsRecording = false
	c.session.IsTranscribing = true
	gen := c.gen
	pageIndex, index := c.session.PageIndex, c.session.QuestionIndex
	s := c.session
	c.mu.Unlock()
	c.observer.State(s)

	result, err := c.transcribe(ctx)

	c.mu.Lock()
	c.session.IsTranscribing = false
	if err != nil {
		s = c.session
		c.mu.Unlock()
		c.observer.State(s)

		c.logger.Error("failed to process voice input", "field", question.FieldKey, "error", err)
		c.observer.Notice(Notice{Title: "Error", Description: "Failed to process voice input", Level: NoticeError})
		c.resumePending()
		return nil, err
	}
	if gen != c.gen {
		s = c.session
		c.mu.Unlock()
		c.observer.State(s)
		c.logger.Info("dropping transcription for reset session", "field", question.FieldKey)
		c.resumePending()
		return nil, ErrSessionReset
	}
	c.pendingPlay = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	outcome := &Outcome{
		Page:          pageIndex + 1,
		Field:         question.FieldKey,
		Transcription: result,
		NextQuestion:  index,
	}
	if answer, ok := c.extractor.Extract(result.Text, question.FieldKey); ok {
		c.form[question.FieldKey] = answer.Value
		outcome.Answer = &answer
	}

	if next := index + 1; next < c.session.QuestionCount {
		c.session.QuestionIndex = next
		outcome.NextQuestion = next
		c.scheduleLocked(c.advanceDelay)
	} else {
		outcome.SectionComplete = true
	}
	s = c.session
	c.mu.Unlock()

	c.logger.Info("voice answer processed",
		"field", question.FieldKey,
		"provider", result.Provider,
		"matched", outcome.Answer != nil,
		"section_complete", outcome.SectionComplete)

	c.observer.State(s)
	c.observer.Notice(Notice{Title: "Success", Description: fmt.Sprintf("Transcription: %s", result.Text), Level: NoticeInfo})
	if outcome.SectionComplete {
		c.observer.Notice(Notice{Title: "Section Complete", Description: "All questions answered for this section!", Level: NoticeInfo})
	}
	return outcome, nil
}

// transcribe releases the microphone before any network call.
func (c *Controller) transcribe(ctx context.Context) (speech.Transcription, error) {
	clip, err := c.recorder.Stop(ctx)
	if err != nil {
		return speech.Transcription{}, fmt.Errorf("failed to stop recording: %w", err)
	}
	result, err := c.stt.Transcribe(ctx, clip)
	if err != nil {
		return speech.Transcription{}, fmt.Errorf("transcription failed: %w", err)
	}
	return result, nil
}

// SetField stores a manually entered answer.
func (c *Controller) SetField(field string, value any) error {
	if _, err := c.q.Field(field); err != nil {
		return err
	}
	c.mu.Lock()
	c.form[field] = value
	c.mu.Unlock()
	return nil
}

// Close discards the session and releases the microphone if held.
func (c *Controller) Close() {
	c.mu.Lock()
	wasRecording := c.resetLocked()
	c.session.VoiceModeEnabled = false
	c.mu.Unlock()

	c.afterReset(wasRecording)
	c.cancel()
}
