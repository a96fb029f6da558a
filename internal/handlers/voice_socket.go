package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/neurosense/assessment-service/internal/audio"
	"github.com/neurosense/assessment-service/internal/capture"
	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/questionnaire"
	"github.com/neurosense/assessment-service/internal/services"
	"github.com/neurosense/assessment-service/internal/speech"
	"github.com/neurosense/assessment-service/internal/utils"
	"github.com/neurosense/assessment-service/internal/voice"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = socketPongWait * 9 / 10
	maxSocketMessage = 8 << 20

	// captureDrainWait bounds the wait for capture_stopped after stop_capture.
	captureDrainWait = 3 * time.Second

	commandQueueSize = 32
)

// Client to server.
const (
	msgHello          = "hello"
	msgEnableVoice    = "enable_voice"
	msgDisableVoice   = "disable_voice"
	msgChangePage     = "change_page"
	msgReplay         = "replay"
	msgStartAnswer    = "start_answer"
	msgStopAnswer     = "stop_answer"
	msgSetField       = "set_field"
	msgSubmit         = "submit"
	msgAudioChunk     = "audio_chunk"
	msgCaptureStarted = "capture_started"
	msgCaptureError   = "capture_error"
	msgCaptureStopped = "capture_stopped"
	msgPlaybackEnded  = "playback_ended"
)

// Server to client.
const (
	msgState           = "state"
	msgSpeak           = "speak"
	msgPlay            = "play"
	msgCancel          = "cancel"
	msgStartCapture    = "start_capture"
	msgStopCapture     = "stop_capture"
	msgNotice          = "notice"
	msgAnswer          = "answer"
	msgSectionComplete = "section_complete"
	msgSubmitted       = "submitted"
	msgError           = "error"
)

var errSocketClosed = errors.New("voice socket closed")

type socketMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type helloPayload struct {
	Voices []speech.Voice `json:"voices"`
	Lang   string         `json:"lang"`
}

type changePagePayload struct {
	Page int `json:"page"`
}

type setFieldPayload struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

type audioChunkPayload struct {
	Data string `json:"data"`
}

type captureErrorPayload struct {
	Error string `json:"error"`
	Name  string `json:"name,omitempty"`
}

type playbackEndedPayload struct {
	Error string `json:"error,omitempty"`
}

type statePayload struct {
	Session  voice.Session  `json:"session"`
	Controls voice.Controls `json:"controls"`
}

type speakPayload struct {
	Text  string  `json:"text"`
	Lang  string  `json:"lang"`
	Voice string  `json:"voice,omitempty"`
	Rate  float64 `json:"rate"`
}

type playPayload struct {
	Audio    string `json:"audio"`
	MIMEType string `json:"mime_type"`
}

type startCapturePayload struct {
	Constraints audio.Constraints `json:"constraints"`
}

type answerPayload struct {
	Page         int    `json:"page"`
	Field        string `json:"field"`
	Value        any    `json:"value,omitempty"`
	Matched      bool   `json:"matched"`
	Text         string `json:"text"`
	Provider     string `json:"provider"`
	NextQuestion int    `json:"next_question"`
}

type sectionCompletePayload struct {
	Page int `json:"page"`
}

type submittedPayload struct {
	Assessment *models.Assessment `json:"assessment"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// VoiceHandler upgrades /voice/ws and runs one voice session per connection.
// The browser is the session's microphone and, unless a synthesizer is
// configured, its speech engine.
type VoiceHandler struct {
	BaseHandler
	voiceService services.VoiceService
	synth        speech.Synthesizer
	speechLang   string
	upgrader     websocket.Upgrader
}

// NewVoiceHandler builds the socket handler. A nil synth means prompts are
// spoken by the client's own engine in speechLang.
func NewVoiceHandler(
	voiceService services.VoiceService,
	synth speech.Synthesizer,
	speechLang string,
	logger utils.Logger,
) *VoiceHandler {
	return &VoiceHandler{
		BaseHandler:  NewBaseHandler(logger),
		voiceService: voiceService,
		synth:        synth,
		speechLang:   speechLang,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeWS
// @Summary Voice assessment session
// @Tags voice
// @Param patient_id query string false "Patient the answers belong to (doctors only)"
// @Param lang query string false "Prompt language"
// @Router /voice/ws [get]
func (h *VoiceHandler) ServeWS(c *gin.Context) {
	caller := currentUser(c)

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.LogWarn(c, "WebSocket upgrade failed", "error", err)
		return
	}

	logger := utils.ToSlogLogger(h.logger).With("component", "voice_socket", "user_id", caller.ID)
	conn := newSocketConn(ws, logger)

	var speaker speech.Speaker
	if h.synth != nil {
		speaker = speech.NewRemoteSpeaker(h.synth, conn, logger)
	} else {
		speaker = speech.NewLocalSpeaker(conn, h.speechLang, logger)
	}

	session, err := h.voiceService.NewSession(c.Request.Context(), caller, &services.VoiceSessionRequest{
		PatientID: c.Query("patient_id"),
		Lang:      c.Query("lang"),
		Speaker:   speaker,
		Recorder:  capture.NewRecorder(conn, audio.DefaultConstraints(), logger),
		Observer:  conn,
	})
	if err != nil {
		h.LogWarn(c, "Voice session rejected", "error", err)
		conn.sendError("", err)
		conn.closeWith(websocket.ClosePolicyViolation, err.Error())
		return
	}

	h.LogRequest(c, "Voice session connected", "session_id", session.ID(), "patient_id", session.PatientID())
	conn.run(session)
}

// socketConn adapts one WebSocket to speech.Engine, speech.Sink,
// capture.Device and voice.Observer. Requests to the client carry a fresh
// id that the client echoes in its reply.
type socketConn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex

	// commands run one at a time, in arrival order, on processCommands.
	commands chan socketMessage

	mu      sync.Mutex
	session *services.VoiceSession
	pending map[string]chan socketMessage
	voices  []speech.Voice
	track   *socketTrack
}

func newSocketConn(ws *websocket.Conn, logger *slog.Logger) *socketConn {
	ctx, cancel := context.WithCancel(context.Background())
	return &socketConn{
		ws:       ws,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		commands: make(chan socketMessage, commandQueueSize),
		pending:  make(map[string]chan socketMessage),
	}
}

func (c *socketConn) send(msgType, id string, payload any) error {
	msg := socketMessage{Type: msgType, ID: id}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", msgType, err)
		}
		msg.Payload = raw
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(socketWriteWait))
	if err := c.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write %s: %w", msgType, err)
	}
	return nil
}

func (c *socketConn) sendError(id string, err error) {
	if sendErr := c.send(msgError, id, errorPayload{Code: errorCode(err), Message: err.Error()}); sendErr != nil {
		c.logger.Debug("error not delivered", "error", sendErr)
	}
}

// request sends msgType and blocks until the client replies with the same id.
func (c *socketConn) request(ctx context.Context, msgType string, payload any) (socketMessage, error) {
	id := uuid.NewString()
	reply := make(chan socketMessage, 1)

	c.mu.Lock()
	c.pending[id] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.send(msgType, id, payload); err != nil {
		return socketMessage{}, err
	}

	select {
	case msg := <-reply:
		return msg, nil
	case <-ctx.Done():
		c.withdraw(msgType, id)
		return socketMessage{}, ctx.Err()
	case <-c.ctx.Done():
		return socketMessage{}, errSocketClosed
	}
}

// withdraw cancels an outstanding request. A capture the client already
// started for it is stopped, since no recorder will ever own the track.
func (c *socketConn) withdraw(msgType, id string) {
	c.mu.Lock()
	delete(c.pending, id)
	var orphan *socketTrack
	if msgType == msgStartCapture && c.track != nil && c.track.id == id {
		orphan = c.track
		c.track = nil
	}
	c.mu.Unlock()

	_ = c.send(msgCancel, id, nil)
	if orphan != nil {
		_ = c.send(msgStopCapture, id, nil)
		orphan.close()
	}
}

func (c *socketConn) resolve(msg socketMessage) {
	c.mu.Lock()
	reply, ok := c.pending[msg.ID]
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("reply for unknown request", "type", msg.Type, "id", msg.ID)
		return
	}
	select {
	case reply <- msg:
	default:
	}
}

// ===== speech.Engine =====

func (c *socketConn) Voices(context.Context) ([]speech.Voice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]speech.Voice(nil), c.voices...), nil
}

func (c *socketConn) Say(ctx context.Context, text string, u speech.Utterance) error {
	msg, err := c.request(ctx, msgSpeak, speakPayload{Text: text, Lang: u.Lang, Voice: u.Voice, Rate: u.Rate})
	if err != nil {
		return err
	}
	return playbackError(msg)
}

// ===== speech.Sink =====

func (c *socketConn) Play(ctx context.Context, clip audio.Payload) error {
	msg, err := c.request(ctx, msgPlay, playPayload{Audio: clip.Base64(), MIMEType: clip.MIMEType})
	if err != nil {
		return err
	}
	return playbackError(msg)
}

func playbackError(msg socketMessage) error {
	var p playbackEndedPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid playback_ended payload: %w", err)
		}
	}
	if p.Error != "" {
		return fmt.Errorf("client playback failed: %s", p.Error)
	}
	return nil
}

// ===== capture.Device =====

func (c *socketConn) Acquire(ctx context.Context, constraints audio.Constraints) (capture.Track, error) {
	msg, err := c.request(ctx, msgStartCapture, startCapturePayload{Constraints: constraints})
	if err != nil {
		return nil, err
	}

	if msg.Type == msgCaptureError {
		var p captureErrorPayload
		_ = json.Unmarshal(msg.Payload, &p)
		return nil, captureError(p)
	}

	c.mu.Lock()
	track := c.track
	c.mu.Unlock()
	if track == nil || track.id != msg.ID {
		return nil, capture.ErrDeviceUnavailable
	}
	return track, nil
}

// captureError maps getUserMedia DOMException names.
func captureError(p captureErrorPayload) error {
	switch p.Name {
	case "NotAllowedError", "SecurityError":
		return capture.ErrPermissionDenied
	case "NotFoundError", "NotReadableError", "OverconstrainedError":
		return capture.ErrDeviceUnavailable
	}
	if p.Error == "" {
		return capture.ErrDeviceUnavailable
	}
	return fmt.Errorf("client capture failed: %s", p.Error)
}

// beginCapture registers the track before the reply is delivered so that
// chunks following capture_started are never dropped.
func (c *socketConn) beginCapture(msg socketMessage) {
	format := audio.Format{MIMEType: audio.MIMEWebM}
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &format); err != nil {
			c.logger.Warn("invalid capture_started payload", "error", err)
		}
	}

	c.mu.Lock()
	_, awaited := c.pending[msg.ID]
	var previous *socketTrack
	if awaited {
		previous = c.track
		c.track = newSocketTrack(c, msg.ID, format)
	}
	c.mu.Unlock()

	if previous != nil {
		previous.close()
	}
	if !awaited {
		// The request was withdrawn before the client started capturing.
		_ = c.send(msgStopCapture, msg.ID, nil)
		return
	}
	c.resolve(msg)
}

func (c *socketConn) pushChunk(msg socketMessage) {
	var p audioChunkPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		c.logger.Warn("invalid audio_chunk payload", "error", err)
		return
	}
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		c.logger.Warn("invalid audio_chunk data", "error", err)
		return
	}

	c.mu.Lock()
	track := c.track
	c.mu.Unlock()
	if track == nil || (msg.ID != "" && msg.ID != track.id) {
		return
	}
	track.push(data)
}

func (c *socketConn) endCapture(id string) {
	c.mu.Lock()
	track := c.track
	if track != nil && (id == "" || id == track.id) {
		c.track = nil
	} else {
		track = nil
	}
	c.mu.Unlock()

	if track != nil {
		track.close()
	}
}

// socketTrack receives audio_chunk messages for one capture.
type socketTrack struct {
	conn   *socketConn
	id     string
	format audio.Format
	chunks chan []byte

	stopOnce sync.Once
	mu       sync.Mutex
	closed   bool
}

func newSocketTrack(conn *socketConn, id string, format audio.Format) *socketTrack {
	return &socketTrack{
		conn:   conn,
		id:     id,
		format: format,
		chunks: make(chan []byte, 64),
	}
}

func (t *socketTrack) Chunks() <-chan []byte { return t.chunks }
func (t *socketTrack) Format() audio.Format  { return t.format }

// Stop asks the client to flush and stop. Chunks closes on capture_stopped
// or after captureDrainWait.
func (t *socketTrack) Stop() {
	t.stopOnce.Do(func() {
		if err := t.conn.send(msgStopCapture, t.id, nil); err != nil {
			t.conn.endCapture(t.id)
			t.close()
			return
		}
		time.AfterFunc(captureDrainWait, func() {
			t.conn.endCapture(t.id)
			t.close()
		})
	})
}

func (t *socketTrack) push(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.chunks <- data
}

func (t *socketTrack) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.chunks)
	}
}

// ===== voice.Observer =====

func (c *socketConn) Notice(n voice.Notice) {
	if err := c.send(msgNotice, "", n); err != nil {
		c.logger.Debug("notice not delivered", "error", err)
	}
}

func (c *socketConn) State(s voice.Session) {
	if err := c.send(msgState, "", statePayload{Session: s, Controls: s.Controls()}); err != nil {
		c.logger.Debug("state not delivered", "error", err)
	}
}

// ===== connection loop =====

func (c *socketConn) run(session *services.VoiceSession) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	defer c.shutdown()

	c.ws.SetReadLimit(maxSocketMessage)
	_ = c.ws.SetReadDeadline(time.Now().Add(socketPongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(socketPongWait))
	})
	go c.keepAlive()
	go c.processCommands(session)

	c.State(session.Snapshot())

	for {
		var msg socketMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("voice socket closed unexpectedly", "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(socketPongWait))
		c.dispatch(session, msg)
	}
}

func (c *socketConn) keepAlive() {
	ticker := time.NewTicker(socketPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(socketWriteWait)); err != nil {
				return
			}
		}
	}
}

// dispatch handles replies inline and queues commands for processCommands,
// since commands block on replies that only this loop can deliver.
func (c *socketConn) dispatch(session *services.VoiceSession, msg socketMessage) {
	switch msg.Type {
	case msgHello:
		var p helloPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.sendError(msg.ID, fmt.Errorf("%w: %v", errInvalidPayload, err))
			return
		}
		c.mu.Lock()
		c.voices = p.Voices
		c.mu.Unlock()
		c.logger.Debug("client voices received", "count", len(p.Voices), "lang", p.Lang)
	case msgPlaybackEnded, msgCaptureError:
		c.resolve(msg)
	case msgCaptureStarted:
		c.beginCapture(msg)
	case msgAudioChunk:
		c.pushChunk(msg)
	case msgCaptureStopped:
		c.endCapture(msg.ID)
	case msgEnableVoice, msgDisableVoice, msgChangePage, msgReplay,
		msgStartAnswer, msgStopAnswer, msgSetField, msgSubmit:
		select {
		case c.commands <- msg:
		default:
			c.sendError(msg.ID, voice.ErrBusy)
		}
	default:
		c.sendError(msg.ID, fmt.Errorf("%w: %q", errUnknownMessage, msg.Type))
	}
}

var (
	errInvalidPayload = errors.New("invalid payload")
	errUnknownMessage = errors.New("unknown message type")
)

func (c *socketConn) processCommands(session *services.VoiceSession) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg := <-c.commands:
			c.command(session, msg)
		}
	}
}

func (c *socketConn) command(session *services.VoiceSession, msg socketMessage) {
	ctx := c.ctx
	var err error

	switch msg.Type {
	case msgEnableVoice:
		session.EnableVoiceMode()
	case msgDisableVoice:
		session.DisableVoiceMode()
	case msgChangePage:
		var p changePagePayload
		if err = decodePayload(msg.Payload, &p); err == nil {
			err = session.ChangePage(p.Page)
		}
	case msgReplay:
		err = session.ReplayQuestion(ctx)
	case msgStartAnswer:
		err = session.StartAnswer(ctx)
	case msgStopAnswer:
		var outcome *voice.Outcome
		if outcome, err = session.StopAnswer(ctx); err == nil {
			c.sendOutcome(msg.ID, outcome)
		}
	case msgSetField:
		var p setFieldPayload
		if err = decodePayload(msg.Payload, &p); err == nil {
			err = session.SetField(p.Field, p.Value)
		}
	case msgSubmit:
		var assessment *models.Assessment
		if assessment, err = session.Submit(ctx); err == nil {
			err = c.send(msgSubmitted, msg.ID, submittedPayload{Assessment: assessment})
		}
	}

	if err != nil {
		c.logger.Debug("voice command failed", "type", msg.Type, "error", err)
		c.sendError(msg.ID, err)
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", errInvalidPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	return nil
}

func (c *socketConn) sendOutcome(id string, outcome *voice.Outcome) {
	p := answerPayload{
		Page:         outcome.Page,
		Field:        outcome.Field,
		Text:         outcome.Transcription.Text,
		Provider:     outcome.Transcription.Provider,
		NextQuestion: outcome.NextQuestion,
	}
	if outcome.Answer != nil {
		p.Value = outcome.Answer.Value
		p.Matched = true
	}
	if err := c.send(msgAnswer, id, p); err != nil {
		c.logger.Debug("answer not delivered", "error", err)
		return
	}
	if outcome.SectionComplete {
		_ = c.send(msgSectionComplete, id, sectionCompletePayload{Page: outcome.Page})
	}
}

func (c *socketConn) closeWith(code int, reason string) {
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(socketWriteWait))
	c.writeMu.Unlock()
	c.cancel()
	_ = c.ws.Close()
}

func (c *socketConn) shutdown() {
	c.cancel()

	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session != nil {
		session.Close()
	}
	c.endCapture("")
	_ = c.ws.Close()
}

// errorCode is the machine-readable code sent in error messages.
func errorCode(err error) string {
	switch {
	case errors.Is(err, voice.ErrBusy):
		return "busy"
	case errors.Is(err, voice.ErrAlreadyRecording), errors.Is(err, capture.ErrAlreadyRecording):
		return "already_recording"
	case errors.Is(err, voice.ErrNotRecording), errors.Is(err, capture.ErrNotRecording):
		return "not_recording"
	case errors.Is(err, voice.ErrVoiceModeDisabled):
		return "voice_mode_disabled"
	case errors.Is(err, voice.ErrSessionReset):
		return "session_reset"
	case errors.Is(err, capture.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, capture.ErrDeviceUnavailable):
		return "device_unavailable"
	case errors.Is(err, capture.ErrEmptyRecording):
		return "empty_recording"
	case errors.Is(err, speech.ErrNotConfigured):
		return "stt_not_configured"
	case errors.Is(err, speech.ErrEmptyPrompt):
		return "empty_prompt"
	case errors.Is(err, questionnaire.ErrPageNotFound), errors.Is(err, questionnaire.ErrFieldNotFound),
		errors.Is(err, errInvalidPayload), errors.Is(err, errUnknownMessage):
		return "invalid_request"
	case services.IsValidation(err):
		return "validation_failed"
	case services.IsBusinessRule(err):
		return "business_rule"
	case services.IsForbidden(err), services.IsUnauthorized(err):
		return "forbidden"
	case services.IsNotFound(err):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, errSocketClosed):
		return "cancelled"
	default:
		return "internal_error"
	}
}
