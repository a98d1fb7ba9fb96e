package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxedmini/pi-kiosk/internal/model"
)

type fakeLists struct {
	lists map[string][]model.Page
}

func (f *fakeLists) Effective(hostname string) ([]model.Page, error) {
	return f.lists[hostname], nil
}

type sentCmd struct {
	hostname string
	cmd      Command
}

type recSender struct {
	sent []sentCmd
}

func (r *recSender) SendControl(hostname string, cmd Command) {
	r.sent = append(r.sent, sentCmd{hostname: hostname, cmd: cmd})
}

// timerSeam captures armed countdowns so tests can fire them by hand.
type timerSeam struct {
	durations []time.Duration
	fns       []func()
}

func (ts *timerSeam) after(d time.Duration, f func()) *time.Timer {
	ts.durations = append(ts.durations, d)
	ts.fns = append(ts.fns, f)
	return time.NewTimer(time.Hour)
}

func (ts *timerSeam) fireLast() {
	ts.fns[len(ts.fns)-1]()
}

func pagesOf(ids ...int) []model.Page {
	out := make([]model.Page, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Page{ID: id, Duration: 10 * id})
	}
	return out
}

func newTestEngine(lists map[string][]model.Page) (*Engine, *recSender, *timerSeam) {
	sender := &recSender{}
	seam := &timerSeam{}
	e := NewEngine(&fakeLists{lists: lists}, sender)
	e.after = seam.after
	return e, sender, seam
}

func TestResyncStartsPlayingAtZero(t *testing.T) {
	e, _, seam := newTestEngine(map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2, 3),
	})

	pages := e.Resync("kiosk-1")
	require.Len(t, pages, 3)

	state, index, known := e.Snapshot("kiosk-1")
	assert.True(t, known)
	assert.Equal(t, StatePlaying, state)
	assert.Equal(t, 0, index)

	require.Len(t, seam.durations, 1)
	assert.Equal(t, 10*time.Second, seam.durations[0], "countdown matches the current page duration")
}

func TestNextWrapsAround(t *testing.T) {
	e, sender, _ := newTestEngine(map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2, 3),
	})
	e.Resync("kiosk-1")

	for i := 0; i < 3; i++ {
		e.Apply("kiosk-1", Command{Action: ActionNext})
	}

	_, index, _ := e.Snapshot("kiosk-1")
	assert.Equal(t, 0, index, "three nexts over three pages wrap to the start")
	assert.Len(t, sender.sent, 3)
	for _, s := range sender.sent {
		assert.Equal(t, ActionNext, s.cmd.Action)
	}
}

func TestPrevWrapsBackward(t *testing.T) {
	e, _, _ := newTestEngine(map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2, 3),
	})
	e.Resync("kiosk-1")

	e.Apply("kiosk-1", Command{Action: ActionPrev})
	_, index, _ := e.Snapshot("kiosk-1")
	assert.Equal(t, 2, index)
}

func TestPauseStopsTimerResumeRearms(t *testing.T) {
	e, sender, seam := newTestEngine(map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2),
	})
	e.Resync("kiosk-1")
	e.Apply("kiosk-1", Command{Action: ActionNext})

	e.Apply("kiosk-1", Command{Action: ActionPause})
	state, index, _ := e.Snapshot("kiosk-1")
	assert.Equal(t, StatePaused, state)
	assert.Equal(t, 1, index, "pause preserves the current index")

	armed := len(seam.fns)
	e.Apply("kiosk-1", Command{Action: ActionResume})
	state, index, _ = e.Snapshot("kiosk-1")
	assert.Equal(t, StatePlaying, state)
	assert.Equal(t, 1, index)
	assert.Len(t, seam.fns, armed+1, "resume re-arms the countdown")

	actions := make([]string, 0, len(sender.sent))
	for _, s := range sender.sent {
		actions = append(actions, s.cmd.Action)
	}
	assert.Equal(t, []string{ActionNext, ActionPause, ActionResume}, actions)
}

func TestTickIgnoredWhilePaused(t *testing.T) {
	e, _, seam := newTestEngine(map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2),
	})
	e.Resync("kiosk-1")
	e.Apply("kiosk-1", Command{Action: ActionPause})

	// A countdown that raced the pause fires into a paused display.
	seam.fns[0]()

	_, index, _ := e.Snapshot("kiosk-1")
	assert.Equal(t, 0, index)
}

func TestTimerTickAdvancesAndNotifies(t *testing.T) {
	e, sender, seam := newTestEngine(map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2, 3),
	})
	e.Resync("kiosk-1")

	seam.fireLast()

	_, index, _ := e.Snapshot("kiosk-1")
	assert.Equal(t, 1, index)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, ActionNext, sender.sent[0].cmd.Action)
	assert.Equal(t, 20*time.Second, seam.durations[len(seam.durations)-1],
		"re-armed countdown uses the new page's duration")
}

func TestGotoJumpsWithoutUnpausing(t *testing.T) {
	e, _, _ := newTestEngine(map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2, 3),
	})
	e.Resync("kiosk-1")
	e.Apply("kiosk-1", Command{Action: ActionPause})

	target := 3
	e.Apply("kiosk-1", Command{Action: ActionGoto, PageID: &target})

	state, index, _ := e.Snapshot("kiosk-1")
	assert.Equal(t, StatePaused, state, "goto changes the page, not the paused state")
	assert.Equal(t, 2, index)
}

func TestGotoOutsideEffectiveListIsNoOp(t *testing.T) {
	e, sender, _ := newTestEngine(map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2, 3),
	})
	e.Resync("kiosk-1")
	sender.sent = nil

	target := 99
	e.Apply("kiosk-1", Command{Action: ActionGoto, PageID: &target})

	_, index, _ := e.Snapshot("kiosk-1")
	assert.Equal(t, 0, index)
	assert.Empty(t, sender.sent, "a goto the display cannot honor is not forwarded")
}

func TestGotoWhileDisconnectedAppliesOnResync(t *testing.T) {
	e, _, _ := newTestEngine(map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2, 3),
	})
	e.Resync("kiosk-1")
	e.Drop("kiosk-1")

	target := 2
	e.Apply("kiosk-1", Command{Action: ActionGoto, PageID: &target})

	e.Resync("kiosk-1")
	_, index, _ := e.Snapshot("kiosk-1")
	assert.Equal(t, 1, index, "offline goto lands when the display reconnects")
}

func TestApplyUnknownTargetIsNoOp(t *testing.T) {
	e, sender, _ := newTestEngine(map[string][]model.Page{})

	e.Apply("ghost", Command{Action: ActionNext})
	assert.Empty(t, sender.sent)
}

func TestBroadcastAppliesPerDisplay(t *testing.T) {
	e, _, _ := newTestEngine(map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2, 3),
		"kiosk-2": pagesOf(4, 5),
	})
	e.Resync("kiosk-1")
	e.Resync("kiosk-2")
	e.Apply("kiosk-2", Command{Action: ActionNext})

	e.Apply("", Command{Action: ActionNext})

	_, i1, _ := e.Snapshot("kiosk-1")
	_, i2, _ := e.Snapshot("kiosk-2")
	assert.Equal(t, 1, i1)
	assert.Equal(t, 0, i2, "each display advances from its own index")
}

func TestRefreshEffectiveClampsIndex(t *testing.T) {
	lists := map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2, 3, 4),
	}
	e, _, _ := newTestEngine(lists)
	e.Resync("kiosk-1")
	for i := 0; i < 3; i++ {
		e.Apply("kiosk-1", Command{Action: ActionNext})
	}

	lists["kiosk-1"] = pagesOf(1, 2)
	e.RefreshEffective()

	_, index, _ := e.Snapshot("kiosk-1")
	assert.Equal(t, 1, index, "index 3 clamps modulo the new length 2")
}

func TestRefreshEffectiveEmptyList(t *testing.T) {
	lists := map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2),
	}
	e, _, _ := newTestEngine(lists)
	e.Resync("kiosk-1")

	lists["kiosk-1"] = nil
	e.RefreshEffective()

	state, index, known := e.Snapshot("kiosk-1")
	assert.True(t, known)
	assert.Equal(t, StateEmpty, state)
	assert.Equal(t, 0, index)
}

func TestDropKeepsEntryForgetRemovesIt(t *testing.T) {
	e, _, _ := newTestEngine(map[string][]model.Page{
		"kiosk-1": pagesOf(1, 2),
	})
	e.Resync("kiosk-1")

	e.Drop("kiosk-1")
	_, _, known := e.Snapshot("kiosk-1")
	assert.True(t, known)

	e.Forget("kiosk-1")
	_, _, known = e.Snapshot("kiosk-1")
	assert.False(t, known)
}
