package lesson

// Status is the closed set of lesson lifecycle states. Transitions happen
// only through Lesson.TransitionTo; workers never write the field directly.
type Status string

const (
	StatusPending      Status = "pending"
	StatusUploading    Status = "uploading"
	StatusTranscribing Status = "transcribing"
	StatusAnalyzing    Status = "analyzing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// transitions is the full adjacency of the pipeline state machine.
// Terminal states have no outgoing edges; reprocess is a separate,
// explicitly user-initiated reset handled by ResetForReprocess.
var transitions = map[Status][]Status{
	StatusPending:      {StatusUploading},
	StatusUploading:    {StatusTranscribing, StatusFailed},
	StatusTranscribing: {StatusAnalyzing, StatusFailed},
	StatusAnalyzing:    {StatusCompleted, StatusFailed},
	StatusCompleted:    {},
	StatusFailed:       {},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

type MediaType string

const (
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

func (m MediaType) IsValid() bool {
	return m == MediaAudio || m == MediaVideo
}
