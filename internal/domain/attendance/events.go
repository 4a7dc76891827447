package attendance

// Live feed of accepted attendance changes, published after commit.
const (
	EventTopic = "attendance"

	EventCheckedIn  = "attendance.checked_in"
	EventCheckedOut = "attendance.checked_out"
	EventMarked     = "attendance.marked"
)

// FeedEvent is the payload of every attendance feed event.
type FeedEvent struct {
	AttendanceID string `json:"attendance_id"`
	GuardID      string `json:"guard_id"`
	ShiftID      string `json:"shift_id,omitempty"`
	CheckpointID string `json:"checkpoint_id,omitempty"`
	Status       string `json:"status"`
	At           string `json:"at"`
}
