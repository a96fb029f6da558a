package voice

import (
	"time"

	"github.com/neurosense/assessment-service/internal/extractor"
	"github.com/neurosense/assessment-service/internal/speech"
)

const (
	DefaultAutoPlayDelay = 500 * time.Millisecond
	DefaultAdvanceDelay  = time.Second
)

// Session is a snapshot of the voice state for the active page.
// IsRecording and IsPlaying are never both true.
type Session struct {
	PageIndex        int  `json:"page_index"`
	QuestionIndex    int  `json:"question_index"`
	QuestionCount    int  `json:"question_count"`
	IsRecording      bool `json:"is_recording"`
	IsPlaying        bool `json:"is_playing"`
	IsTranscribing   bool `json:"is_transcribing"`
	VoiceModeEnabled bool `json:"voice_mode_enabled"`
}

// Controls reports which triggers are currently enabled.
type Controls struct {
	CanReplay      bool `json:"can_replay"`
	CanStartAnswer bool `json:"can_start_answer"`
	CanStopAnswer  bool `json:"can_stop_answer"`
}

func (s Session) Controls() Controls {
	idle := s.VoiceModeEnabled && !s.IsPlaying && !s.IsRecording && !s.IsTranscribing
	return Controls{
		CanReplay:      idle,
		CanStartAnswer: idle,
		CanStopAnswer:  s.IsRecording,
	}
}

type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a user-visible toast.
type Notice struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Level       NoticeLevel `json:"level"`
}

// Observer receives notices and state changes. Calls are made without the
// controller lock held.
type Observer interface {
	Notice(n Notice)
	State(s Session)
}

type nopObserver struct{}

func (nopObserver) Notice(Notice) {}
func (nopObserver) State(Session) {}

// Outcome is the result of one answered question.
type Outcome struct {
	Page            int                  `json:"page"`
	Field           string               `json:"field"`
	Transcription   speech.Transcription `json:"transcription"`
	Answer          *extractor.Answer    `json:"answer,omitempty"`
	NextQuestion    int                  `json:"next_question"`
	SectionComplete bool                 `json:"section_complete"`
}

type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler uses time.AfterFunc.
func RealScheduler() Scheduler {
	return realScheduler{}
}
