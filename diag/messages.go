package diag

// Message types sent to attached inspector clients.
const (
	MsgSnapshot    = "snapshot"
	MsgStateChange = "state_change"
	MsgFrame       = "frame"
)

// WSMessage is the envelope for every diagnostics message.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// StateChangePayload reports one session lifecycle transition.
type StateChangePayload struct {
	Session uint64 `json:"session"`
	State   string `json:"state"`
	Time    int64  `json:"time"`
}

// FramePayload reports one submitted frame.
type FramePayload struct {
	Session     uint64 `json:"session"`
	DisplayTime int64  `json:"display_time"`
	Layers      int    `json:"layers"`
	Frame       uint64 `json:"frame"`
}

// SnapshotPayload is sent to a freshly attached client so it does not
// have to reconstruct history from deltas.
type SnapshotPayload struct {
	Session    uint64 `json:"session"`
	State      string `json:"state"`
	FrameCount uint64 `json:"frame_count"`
}
