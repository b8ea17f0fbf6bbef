package sessiondb

import "sync"

// Reasons carried by SessionDeleted events
const (
	ReasonLogout          = "logout"
	ReasonAdminTerminated = "adminTerminated"
	ReasonKeyDeleted      = "keyDeleted"
)

// SessionDeleted tells a device that its session row has been removed.
type SessionDeleted struct {
	SessionID int64  `json:"sessionID"`
	Reason    string `json:"reason"`
}

// Notifier delivers session deletion events to watchers. One buffered channel
// per watching device, keyed by session id, so each watcher sees its events
// in order. Publish never blocks: if a watcher's buffer is full the event is
// dropped, and the device finds out on its next heartbeat instead.
type Notifier struct {
	lock     sync.Mutex
	watchers map[int64][]chan SessionDeleted
}

func NewNotifier() *Notifier {
	return &Notifier{
		watchers: map[int64][]chan SessionDeleted{},
	}
}

// Subscribe registers interest in deletions of sessionID.
// The returned cancel function must be called exactly once, after which the
// channel receives no further events.
func (n *Notifier) Subscribe(sessionID int64) (<-chan SessionDeleted, func()) {
	ch := make(chan SessionDeleted, 4)
	n.lock.Lock()
	n.watchers[sessionID] = append(n.watchers[sessionID], ch)
	n.lock.Unlock()

	cancel := func() {
		n.lock.Lock()
		defer n.lock.Unlock()
		chans := n.watchers[sessionID]
		for i, c := range chans {
			if c == ch {
				n.watchers[sessionID] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
		if len(n.watchers[sessionID]) == 0 {
			delete(n.watchers, sessionID)
		}
	}
	return ch, cancel
}

// Watching reports whether anyone is subscribed to sessionID.
func (n *Notifier) Watching(sessionID int64) bool {
	n.lock.Lock()
	defer n.lock.Unlock()
	return len(n.watchers[sessionID]) > 0
}

func (n *Notifier) Publish(ev SessionDeleted) {
	n.lock.Lock()
	chans := make([]chan SessionDeleted, len(n.watchers[ev.SessionID]))
	copy(chans, n.watchers[ev.SessionID])
	n.lock.Unlock()

	for _, c := range chans {
		select {
		case c <- ev:
		default:
		}
	}
}
