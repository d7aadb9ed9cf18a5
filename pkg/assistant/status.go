package assistant

// State is the loop's phase.
type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateListening State = "listening"
	StateAnalyzing State = "analyzing"
	StateSpeaking  State = "speaking"
)

// Status text shown on the page.
const (
	MessageIdle      = "Tap to start"
	MessageStarting  = "Starting..."
	MessageListening = "Listening..."
	MessageAnalyzing = "Analyzing..."
	MessageSpeaking  = "Speaking..."
)

// Fixed utterances.
const (
	StartingPhrase      = "Starting assistant"
	NoDescriptionPhrase = "I can't make out anything right now."
	AnalysisErrorPhrase = "Sorry, I couldn't analyze the scene."
	CameraErrorPhrase   = "I can't access the camera."
)

// Utterance kinds for metrics.
const (
	kindAnnounce    = "announce"
	kindDescription = "description"
	kindFallback    = "fallback"
	kindError       = "error"
)

// Status is a snapshot of the assistant. The loop owns the live copy;
// everyone else gets values.
type Status struct {
	Active      bool   `json:"active"`
	State       State  `json:"state"`
	Message     string `json:"message"`
	LastError   string `json:"last_error,omitempty"`
	Description string `json:"description,omitempty"`
	Voice       string `json:"voice,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	Cycles      int    `json:"cycles"`
}

// DefaultStatus is the idle status before anything happened.
func DefaultStatus() Status {
	return Status{State: StateIdle, Message: MessageIdle}
}

// StatusSink receives every status change. PublishStatus is called from
// the loop goroutine and must not block.
type StatusSink interface {
	PublishStatus(Status)
}

// SinkFunc adapts a function to StatusSink.
type SinkFunc func(Status)

// PublishStatus calls f.
func (f SinkFunc) PublishStatus(s Status) { f(s) }
