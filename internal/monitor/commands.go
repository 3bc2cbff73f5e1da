package monitor

// Every public operation on Monitor is a small RPC over cmdCh: the
// caller builds a command carrying its own result channel, sends it,
// and blocks on the result. Because cmdCh is drained by exactly one
// goroutine (loop), these RPCs linearize automatically — no mutex
// needed for log/cache/checkpoints.

type subscribeCmd struct {
	fn     Subscriber
	result chan uint64
}

type unsubscribeCmd struct {
	id   uint64
	done chan struct{}
}

type startCmd struct {
	prepopulate bool
	onReady     func(ReadyStats)
	result      chan startResult
}

type startResult struct {
	started bool
	err     error
}

type pauseCmd struct {
	result chan pauseResult
}

type pauseResult struct {
	changes []Change
	err     error
}

type destroyCmd struct {
	done chan struct{}
}

type createCheckpointCmd struct {
	label  string
	cycle  *int
	result chan Checkpoint
}

type allChangesCmd struct {
	result chan []Change
}

type checkpointsCmd struct {
	result chan []Checkpoint
}

type changesSinceCmd struct {
	ts     int64
	result chan []Change
}

type statsCmd struct {
	result chan Stats
}

type flushCmd struct {
	result chan []Change
}

type tagCmd struct {
	startNS, endNS int64
	tool           string
	args           TagArgs
	done           chan struct{}
}

type revertCheckpointCmd struct {
	index  int
	result chan *RevertResult
}

type revertOriginalCmd struct {
	result chan *RevertResult
}

// readResultCmd delivers an async fsread.Read outcome back onto the
// loop. watchGen pins it to the watch generation active when the read
// was dispatched, so results that complete after a pause/destroy are
// silently dropped.
type readResultCmd struct {
	path     string // absolute path
	relPath  string // root-relative path
	watchGen uint64
	content  []byte
	device   uint64
	inode    uint64
	err      error
}

type prepopulateDoneCmd struct {
	watchGen uint64
	files    []prepopulatedFile
	stats    ReadyStats
	onReady  func(ReadyStats)
}

func (m *Monitor) dispatch(cmd any) {
	switch c := cmd.(type) {
	case subscribeCmd:
		m.nextSubID++
		id := m.nextSubID
		m.subscribers = append(m.subscribers, subscription{id: id, fn: c.fn})
		c.result <- id

	case unsubscribeCmd:
		for i, s := range m.subscribers {
			if s.id == c.id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				break
			}
		}
		close(c.done)

	case startCmd:
		c.result <- m.handleStart(c.prepopulate, c.onReady)

	case pauseCmd:
		c.result <- m.handlePause()

	case destroyCmd:
		m.handleDestroy()
		close(c.done)

	case createCheckpointCmd:
		cp := Checkpoint{Timestamp: m.nextTimestamp(), ChangeCount: len(m.log), Label: c.label, Cycle: c.cycle}
		m.checkpoints = append(m.checkpoints, cp)
		m.emit(Event{Type: EventCheckpoint, Root: m.root, Checkpoint: &cp})
		c.result <- cp

	case allChangesCmd:
		c.result <- cloneChanges(m.log)

	case checkpointsCmd:
		c.result <- cloneCheckpoints(m.checkpoints)

	case changesSinceCmd:
		c.result <- m.changesSince(c.ts)

	case statsCmd:
		c.result <- m.computeStats()

	case flushCmd:
		m.handleFlush(c.result)

	case tagCmd:
		m.tagChangesInRange(c.startNS, c.endNS, c.tool, c.args)
		close(c.done)

	case revertCheckpointCmd:
		c.result <- m.revertToCheckpoint(c.index)

	case revertOriginalCmd:
		c.result <- m.revertToOriginal()

	case readResultCmd:
		m.handleReadResult(c)

	case prepopulateDoneCmd:
		m.handlePrepopulateDone(c)
	}
}

func cloneChanges(src []Change) []Change {
	out := make([]Change, len(src))
	copy(out, src)
	return out
}
