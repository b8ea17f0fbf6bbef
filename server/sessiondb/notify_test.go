package sessiondb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotifierSubscribePublish(t *testing.T) {
	n := NewNotifier()
	ch1, cancel1 := n.Subscribe(7)
	ch2, cancel2 := n.Subscribe(7)
	chOther, cancelOther := n.Subscribe(8)
	defer cancelOther()

	n.Publish(SessionDeleted{SessionID: 7, Reason: ReasonLogout})
	ev := <-ch1
	require.Equal(t, int64(7), ev.SessionID)
	require.Equal(t, ReasonLogout, ev.Reason)
	ev = <-ch2
	require.Equal(t, int64(7), ev.SessionID)
	require.Empty(t, chOther)

	// After cancel, no further events arrive on ch1
	cancel1()
	n.Publish(SessionDeleted{SessionID: 7, Reason: ReasonAdminTerminated})
	require.Empty(t, ch1)
	require.Equal(t, ReasonAdminTerminated, (<-ch2).Reason)
	cancel2()
}

func TestNotifierNeverBlocks(t *testing.T) {
	n := NewNotifier()
	_, cancel := n.Subscribe(1)
	defer cancel()

	// Nobody is draining the channel. Publish must drop, not block.
	for i := 0; i < 100; i++ {
		n.Publish(SessionDeleted{SessionID: 1, Reason: ReasonLogout})
	}
}
