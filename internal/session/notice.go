package session

import "fmt"

// NoticeKind classifies non-fatal diagnostic events.
type NoticeKind int

const (
	NoticeInitialized NoticeKind = iota + 1
	NoticeMasksReinitialized
	NoticeMissingMaskSource
	NoticeMotionFallback
	NoticeFeedbackApplied
	NoticeFeedbackQueued
	NoticeReset
	NoticeFinalized
)

var noticeNames = map[NoticeKind]string{
	NoticeInitialized:        "initialized",
	NoticeMasksReinitialized: "masks_reinitialized",
	NoticeMissingMaskSource:  "missing_mask_source",
	NoticeMotionFallback:     "motion_fallback",
	NoticeFeedbackApplied:    "feedback_applied",
	NoticeFeedbackQueued:     "feedback_queued",
	NoticeReset:              "reset",
	NoticeFinalized:          "finalized",
}

func (k NoticeKind) String() string {
	if name, ok := noticeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NoticeKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k NoticeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Notice is a diagnostic event. Notices never indicate lost state.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// maxPendingNotices bounds notices raised outside frames that nobody drains.
const maxPendingNotices = 64
