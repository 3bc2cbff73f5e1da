package monitor

// Public synchronous wrappers. Each sends a command over cmdCh and
// blocks for the loop's reply; see commands.go for why that's safe to
// call from any goroutine without further locking.

func (m *Monitor) Root() string { return m.root }

func (m *Monitor) Start(prepopulate bool, onReady func(ReadyStats)) error {
	result := make(chan startResult, 1)
	m.cmdCh <- startCmd{prepopulate: prepopulate, onReady: onReady, result: result}
	return (<-result).err
}

// Pause halts the watch, draining every path already detected, and
// returns the changes observed during this watch interval.
func (m *Monitor) Pause() ([]Change, error) {
	result := make(chan pauseResult, 1)
	m.cmdCh <- pauseCmd{result: result}
	r := <-result
	return r.changes, r.err
}

// Resume is Start with prepopulate disabled: the cache already holds
// whatever state the prior watch interval left it in.
func (m *Monitor) Resume() error {
	return m.Start(false, nil)
}

func (m *Monitor) Destroy() {
	done := make(chan struct{})
	m.cmdCh <- destroyCmd{done: done}
	<-done
}

func (m *Monitor) CreateCheckpoint(label string, cycle *int) Checkpoint {
	result := make(chan Checkpoint, 1)
	m.cmdCh <- createCheckpointCmd{label: label, cycle: cycle, result: result}
	return <-result
}

func (m *Monitor) AllChanges() []Change {
	result := make(chan []Change, 1)
	m.cmdCh <- allChangesCmd{result: result}
	return <-result
}

func (m *Monitor) GetCheckpoints() []Checkpoint {
	result := make(chan []Checkpoint, 1)
	m.cmdCh <- checkpointsCmd{result: result}
	return <-result
}

func (m *Monitor) ChangesSince(ts int64) []Change {
	result := make(chan []Change, 1)
	m.cmdCh <- changesSinceCmd{ts: ts, result: result}
	return <-result
}

func (m *Monitor) Stats() Stats {
	result := make(chan Stats, 1)
	m.cmdCh <- statsCmd{result: result}
	return <-result
}

// FlushPendingAndGet forces any debounced-but-not-yet-processed paths
// through the processor and returns the resulting full log.
func (m *Monitor) FlushPendingAndGet() []Change {
	result := make(chan []Change, 1)
	m.cmdCh <- flushCmd{result: result}
	return <-result
}

func (m *Monitor) TagChangesInRange(startNS, endNS int64, tool string, args TagArgs) {
	done := make(chan struct{})
	m.cmdCh <- tagCmd{startNS: startNS, endNS: endNS, tool: tool, args: args, done: done}
	<-done
}

// RevertToCheckpoint reverts to the state at checkpoints[index-1]
// (1-based). Returns nil if index is out of range, if index names the
// final checkpoint, or if there is nothing to revert.
func (m *Monitor) RevertToCheckpoint(index int) *RevertResult {
	result := make(chan *RevertResult, 1)
	m.cmdCh <- revertCheckpointCmd{index: index, result: result}
	return <-result
}

func (m *Monitor) RevertToOriginal() *RevertResult {
	result := make(chan *RevertResult, 1)
	m.cmdCh <- revertOriginalCmd{result: result}
	return <-result
}
