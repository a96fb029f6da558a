package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/neurosense/assessment-service/internal/audio"
	"github.com/neurosense/assessment-service/internal/events"
	"github.com/neurosense/assessment-service/internal/questionnaire"
	"github.com/neurosense/assessment-service/internal/speech"
	"github.com/neurosense/assessment-service/internal/voice"
)

type silentSpeaker struct{}

func (silentSpeaker) Speak(context.Context, string) error { return nil }

type stubRecorder struct {
	mu     sync.Mutex
	active bool
}

func (r *stubRecorder) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = true
	return nil
}

func (r *stubRecorder) Stop(context.Context) (audio.Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	return audio.Payload{Data: []byte("clip"), MIMEType: audio.MIMEWebM}, nil
}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

// neverScheduler keeps scheduled prompts from playing so tests drive the
// session explicitly.
type neverScheduler struct{}

func (neverScheduler) AfterFunc(time.Duration, func()) voice.Timer { return idleTimer{} }

func newVoiceTestSession(t *testing.T, env *testEnv, stt speech.Transcriber, callerID, patientID string) *VoiceSession {
	t.Helper()
	svc := NewVoiceService(questionnaire.Default(), stt, env.assessmentService(), env.publisher, env.logger,
		VoiceConfig{Lang: questionnaire.LangKannada})

	session, err := svc.NewSession(context.Background(), env.user(t, callerID), &VoiceSessionRequest{
		PatientID: patientID,
		Speaker:   silentSpeaker{},
		Recorder:  &stubRecorder{},
		Scheduler: neverScheduler{},
	})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func TestVoiceSession_SectionCompletePublishesAndSubmits(t *testing.T) {
	env := newTestEnv(t)
	stt := &MockTranscriber{}
	for _, text := range []string{"ಹೌದು", "no", "I feel dizzy and shaky", "more irritable lately"} {
		stt.On("Transcribe", mock.Anything, mock.Anything).Return(speech.Transcription{Text: text, Provider: "mock"}, nil).Once()
	}

	session := newVoiceTestSession(t, env, stt, "patient-1", "")
	assert.Equal(t, "patient-1", session.PatientID())
	ctx := context.Background()

	session.EnableVoiceMode()
	require.NoError(t, session.ChangePage(3))

	var last *voice.Outcome
	for i := 0; i < 4; i++ {
		require.NoError(t, session.StartAnswer(ctx))
		outcome, err := session.StopAnswer(ctx)
		require.NoError(t, err)
		last = outcome
		if i < 3 {
			assert.False(t, outcome.SectionComplete)
			assert.Empty(t, env.publisher.EventsOfType(events.EventVoiceSectionCompleted))
		}
	}
	require.True(t, last.SectionComplete)
	assert.Equal(t, 4, last.Page)

	published := env.publisher.EventsOfType(events.EventVoiceSectionCompleted)
	require.Len(t, published, 1)
	data := published[0].Data.(events.VoiceSectionCompletedEvent)
	assert.Equal(t, session.ID(), data.SessionID)
	assert.Equal(t, 4, data.Page)

	form := session.Form()
	assert.Equal(t, "yes", form["memoryComplaints"])
	assert.Equal(t, "no", form["speechIssues"])
	assert.Equal(t, []string{"Tremors or shaking", "Dizziness"}, form["neurologicalSymptoms"])
	assert.Equal(t, "more irritable lately", form["moodChanges"])

	assessment, err := session.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "patient-1", assessment.PatientID)
	assert.Equal(t, "yes", assessment.FormState["memoryComplaints"])
	assert.Len(t, env.publisher.EventsOfType(events.EventAssessmentSubmitted), 1)
	stt.AssertExpectations(t)
}

func TestVoiceService_NewSessionAccess(t *testing.T) {
	env := newTestEnv(t)
	svc := NewVoiceService(questionnaire.Default(), &MockTranscriber{}, env.assessmentService(), env.publisher, env.logger, VoiceConfig{})
	req := &VoiceSessionRequest{Speaker: silentSpeaker{}, Recorder: &stubRecorder{}, Scheduler: neverScheduler{}}

	_, err := svc.NewSession(context.Background(), nil, req)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// A patient always answers for themselves.
	req.PatientID = "patient-2"
	session, err := svc.NewSession(context.Background(), env.user(t, "patient-1"), req)
	require.NoError(t, err)
	defer session.Close()
	assert.Equal(t, "patient-1", session.PatientID())

	_, err = svc.NewSession(context.Background(), env.user(t, "doctor-1"), &VoiceSessionRequest{})
	assert.Error(t, err)
}

func TestVoiceSession_SubmitWithoutPatient(t *testing.T) {
	env := newTestEnv(t)
	session := newVoiceTestSession(t, env, &MockTranscriber{}, "doctor-1", "")

	_, err := session.Submit(context.Background())
	assert.True(t, IsBusinessRule(err))
}
