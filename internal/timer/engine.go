package timer

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"
)

// Mode identifies which half of a pomodoro cycle is running.
type Mode string

const (
	ModeStudy Mode = "STUDY"
	ModeBreak Mode = "BREAK"
)

// RunState is the lifecycle state of a user's timer.
type RunState string

const (
	RunStopped RunState = "STOPPED"
	RunStarted RunState = "STARTED"
	RunPaused  RunState = "PAUSED"
)

// ErrNoActiveSession is returned when pause/stop/switch is called for a user
// with no live timer.
var ErrNoActiveSession = errors.New("no active timer for user")

// Status is a snapshot of one user's live timer.
type Status struct {
	UserID           string   `json:"user_id"`
	Mode             Mode     `json:"mode"`
	RunState         RunState `json:"run_state"`
	StudyMinutes     int      `json:"study_minutes"`
	BreakMinutes     int      `json:"break_minutes"`
	CurrentDuration  int      `json:"current_duration_seconds"`
	RemainingSeconds int      `json:"remaining_seconds"`
	CycleCount       int      `json:"cycle_count"`
	StudySeconds     int      `json:"study_seconds"`
	RestSeconds      int      `json:"rest_seconds"`
}

type userTimer struct {
	mode            Mode
	runState        RunState
	studyMinutes    int
	breakMinutes    int
	currentDuration int
	frozenRemaining int
	cycleCount      int
	studySeconds    int
	restSeconds     int
	segmentStart    time.Time
}

const shardCount = 32

type shard struct {
	mu     sync.Mutex
	timers map[string]*userTimer
}

// Engine tracks live pomodoro timers keyed by user. State is sharded so
// operations on unrelated users never contend on the same lock; everything
// for one user happens under its shard mutex.
type Engine struct {
	shards [shardCount]shard
	clock  Clock
}

func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	e := &Engine{clock: clock}
	for i := range e.shards {
		e.shards[i].timers = make(map[string]*userTimer)
	}
	return e
}

func (e *Engine) shardFor(userID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &e.shards[h.Sum32()%shardCount]
}

// Start creates the user's timer, or supersedes a live one. A second start on
// a running timer silently wins; accumulated totals and the cycle count from
// the superseded run are kept so completed work is not lost.
func (e *Engine) Start(userID string, studyMinutes, breakMinutes int, mode Mode) Status {
	if mode != ModeBreak {
		mode = ModeStudy
	}
	now := e.clock.Now()

	sh := e.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	t, ok := sh.timers[userID]
	if !ok {
		t = &userTimer{}
		sh.timers[userID] = t
	} else {
		t.fold(now)
	}

	t.mode = mode
	t.runState = RunStarted
	t.studyMinutes = studyMinutes
	t.breakMinutes = breakMinutes
	t.currentDuration = t.configuredDuration()
	t.segmentStart = now

	return t.snapshot(userID, now)
}

// Pause freezes the remaining time and folds the running segment into the
// accumulated counter for the current mode.
func (e *Engine) Pause(userID string) (Status, error) {
	sh := e.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	t, ok := sh.timers[userID]
	if !ok {
		return Status{}, ErrNoActiveSession
	}
	now := e.clock.Now()
	t.frozenRemaining = t.remaining(now)
	t.fold(now)
	t.runState = RunPaused
	return t.snapshot(userID, now), nil
}

// Stop folds the final segment, removes the timer and returns the
// accumulated totals for persistence.
func (e *Engine) Stop(userID string) (Status, error) {
	sh := e.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	t, ok := sh.timers[userID]
	if !ok {
		return Status{}, ErrNoActiveSession
	}
	now := e.clock.Now()
	t.fold(now)
	t.runState = RunStopped
	delete(sh.timers, userID)
	return t.snapshot(userID, now), nil
}

// SwitchMode toggles STUDY and BREAK, starting the new mode's configured
// duration. The cycle count increments only on the BREAK to STUDY edge.
func (e *Engine) SwitchMode(userID string) (Status, error) {
	sh := e.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	t, ok := sh.timers[userID]
	if !ok {
		return Status{}, ErrNoActiveSession
	}
	now := e.clock.Now()
	t.fold(now)

	if t.mode == ModeStudy {
		t.mode = ModeBreak
	} else {
		t.mode = ModeStudy
		t.cycleCount++
	}
	t.currentDuration = t.configuredDuration()
	t.segmentStart = now
	t.runState = RunStarted
	return t.snapshot(userID, now), nil
}

// Status returns a read-only snapshot with the remaining time computed.
func (e *Engine) Status(userID string) (Status, error) {
	sh := e.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	t, ok := sh.timers[userID]
	if !ok {
		return Status{}, ErrNoActiveSession
	}
	return t.snapshot(userID, e.clock.Now()), nil
}

// ActiveCount reports the number of live timers across all shards.
func (e *Engine) ActiveCount() int {
	count := 0
	for i := range e.shards {
		sh := &e.shards[i]
		sh.mu.Lock()
		count += len(sh.timers)
		sh.mu.Unlock()
	}
	return count
}

// fold attributes the elapsed running segment to the current mode's
// accumulator and restarts the segment. No-op unless the timer is running.
func (t *userTimer) fold(now time.Time) {
	if t.runState != RunStarted {
		return
	}
	elapsed := int(now.Sub(t.segmentStart) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	if t.mode == ModeBreak {
		t.restSeconds += elapsed
	} else {
		t.studySeconds += elapsed
	}
	t.segmentStart = now
}

func (t *userTimer) configuredDuration() int {
	if t.mode == ModeBreak {
		return t.breakMinutes * 60
	}
	return t.studyMinutes * 60
}

func (t *userTimer) remaining(now time.Time) int {
	switch t.runState {
	case RunStarted:
		elapsed := int(now.Sub(t.segmentStart) / time.Second)
		if r := t.currentDuration - elapsed; r > 0 {
			return r
		}
		return 0
	case RunPaused:
		return t.frozenRemaining
	default:
		return 0
	}
}

func (t *userTimer) snapshot(userID string, now time.Time) Status {
	return Status{
		UserID:           userID,
		Mode:             t.mode,
		RunState:         t.runState,
		StudyMinutes:     t.studyMinutes,
		BreakMinutes:     t.breakMinutes,
		CurrentDuration:  t.currentDuration,
		RemainingSeconds: t.remaining(now),
		CycleCount:       t.cycleCount,
		StudySeconds:     t.studySeconds,
		RestSeconds:      t.restSeconds,
	}
}
