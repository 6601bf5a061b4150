package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var ErrInvalidTransition = errors.New("invalid session transition")

type Phase int

const (
	PhaseWaiting Phase = iota
	PhasePlaying
	PhasePaused
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseGameOver:
		return "gameover"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Result summarizes a finished round. Submit is true only for positive scores.
type Result struct {
	Score        int
	AppliedTotal int
	Slices       int
	SpamSlices   int
	Expired      int
	Spawned      int
	Submit       bool
}

// Hooks are invoked on the session's goroutine. Any may be nil.
type Hooks struct {
	OnSlice    func(Block)
	OnGameOver func(Result)
	OnChange   func()
}

// View is a copy of the session state for renderers.
type View struct {
	Phase       Phase
	Score       int
	LastDelta   int
	TimeLeft    int
	Multiplier  int
	Difficulty  string
	Blocks      []Block
	Folders     []Folder
	Pointer     Point
	PointerDown bool
	Trail       []Point
}

// Session owns one play-through and every timer that drives it. All methods
// must be called from the scheduler's goroutine.
type Session struct {
	cfg     Config
	sched   Scheduler
	rng     *rand.Rand
	spawner *Spawner
	folders *FolderGenerator
	hooks   Hooks

	phase        Phase
	score        int
	lastDelta    int
	timeLeft     int
	multiplier   int
	baseInterval time.Duration
	pausedAt     time.Time

	blocks      []Block
	pointer     Point
	pointerDown bool
	trail       []Point

	spawnTimer     Timer
	countdownTimer Timer
	expiryTimer    Timer
	exitTimer      Timer
	flagTimer      Timer

	stats Result
}

func NewSession(cfg Config, sched Scheduler, rng *rand.Rand, hooks Hooks) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Session{
		cfg:        cfg,
		sched:      sched,
		rng:        rng,
		spawner:    NewSpawner(cfg, rng),
		folders:    NewFolderGenerator(cfg.MaxFolders, cfg.Viewport, cfg.Margins, rng),
		hooks:      hooks,
		phase:      PhaseWaiting,
		timeLeft:   cfg.roundSeconds(),
		multiplier: 1,
	}
	s.folders.GenerateRandom(cfg.InitialFolders)
	return s
}

/* ======================
   Transitions
   ====================== */

// Start begins a round from waiting or game-over.
func (s *Session) Start() error {
	if s.phase == PhasePlaying || s.phase == PhasePaused {
		return transitionError(s.phase, PhasePlaying)
	}
	s.cancelTimers()

	s.phase = PhasePlaying
	s.score = 0
	s.lastDelta = 0
	s.timeLeft = s.cfg.roundSeconds()
	s.multiplier = 1
	s.baseInterval = s.cfg.BaseSpawnInterval
	if s.cfg.SpawnJitter > 0 {
		s.baseInterval += time.Duration(s.rng.Int63n(int64(s.cfg.SpawnJitter)))
	}
	s.blocks = nil
	s.trail = nil
	s.pointerDown = false
	s.stats = Result{}

	s.folders.Clear()
	s.folders.GenerateRandom(s.cfg.RoundFolders)

	s.blocks = append(s.blocks, s.spawner.NewBlock(s.sched.Now()))
	s.stats.Spawned++

	s.startRecurring()
	s.blocksChanged()
	return nil
}

// Pause freezes the round: countdown, spawner and expiry sweep all stop, and
// block ages do not advance until Resume.
func (s *Session) Pause() error {
	if s.phase != PhasePlaying {
		return transitionError(s.phase, PhasePaused)
	}
	s.phase = PhasePaused
	s.pausedAt = s.sched.Now()
	s.cancelTimers()
	s.pointerDown = false
	s.trail = nil
	s.changed()
	return nil
}

func (s *Session) Resume() error {
	if s.phase != PhasePaused {
		return transitionError(s.phase, PhasePlaying)
	}
	shift := s.sched.Now().Sub(s.pausedAt)
	for i := range s.blocks {
		s.blocks[i].SpawnedAt = s.blocks[i].SpawnedAt.Add(shift)
		if s.blocks[i].Exiting {
			s.blocks[i].ExitingAt = s.blocks[i].ExitingAt.Add(shift)
		}
	}
	s.phase = PhasePlaying
	s.startRecurring()
	s.blocksChanged()
	return nil
}

// Stop abandons the round from any phase. The score is discarded and no
// Result is emitted.
func (s *Session) Stop() {
	s.cancelTimers()
	s.phase = PhaseWaiting
	s.blocks = nil
	s.trail = nil
	s.pointerDown = false
	s.changed()
}

// SpawnNow adds one block regardless of the cap.
func (s *Session) SpawnNow() error {
	if s.phase != PhasePlaying {
		return fmt.Errorf("spawn while %s: %w", s.phase, ErrInvalidTransition)
	}
	s.blocks = append(s.blocks, s.spawner.NewBlock(s.sched.Now()))
	s.stats.Spawned++
	s.blocksChanged()
	return nil
}

func (s *Session) end() {
	s.cancelTimers()
	s.phase = PhaseGameOver
	s.blocks = nil
	s.trail = nil
	s.pointerDown = false

	result := s.stats
	result.Score = s.score
	result.Submit = s.score > 0
	s.changed()
	if s.hooks.OnGameOver != nil {
		s.hooks.OnGameOver(result)
	}
}

func transitionError(from, to Phase) error {
	return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
}

/* ======================
   Timers
   ====================== */

func (s *Session) startRecurring() {
	s.restartSpawnTimer()
	stopTimer(&s.countdownTimer)
	s.countdownTimer = s.sched.Every(time.Second, s.countdownTick)
	stopTimer(&s.expiryTimer)
	s.expiryTimer = s.sched.Every(s.cfg.ExpirySweep, s.expirySweep)
}

func (s *Session) restartSpawnTimer() {
	stopTimer(&s.spawnTimer)
	s.spawnTimer = s.sched.Every(s.spawnInterval(), s.spawnTick)
}

func (s *Session) spawnInterval() time.Duration {
	multiplier := s.multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	return s.baseInterval / time.Duration(multiplier)
}

func (s *Session) cancelTimers() {
	stopTimer(&s.spawnTimer)
	stopTimer(&s.countdownTimer)
	stopTimer(&s.expiryTimer)
	stopTimer(&s.exitTimer)
	stopTimer(&s.flagTimer)
}

func stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (s *Session) countdownTick() {
	if s.phase != PhasePlaying {
		return
	}
	next := s.timeLeft - 1
	s.updateMultiplier(next)
	if next <= 0 {
		s.timeLeft = 0
		s.end()
		return
	}
	s.timeLeft = next
	s.changed()
}

func (s *Session) updateMultiplier(secondsLeft int) {
	if secondsLeft < 0 {
		secondsLeft = 0
	}
	next := s.cfg.Ramp.Multiplier(secondsLeft)
	if next == s.multiplier {
		return
	}
	s.multiplier = next
	if s.spawnTimer != nil {
		s.restartSpawnTimer()
	}
}

func (s *Session) spawnTick() {
	if s.phase != PhasePlaying {
		return
	}
	blocks, spawned := s.spawner.Fill(s.blocks, s.sched.Now())
	s.blocks = blocks
	if spawned {
		s.stats.Spawned++
		s.blocksChanged()
	}
}

/* ======================
   Lifecycle pruning
   ====================== */

func (s *Session) expirySweep() {
	if s.phase != PhasePlaying {
		return
	}
	now := s.sched.Now()
	expired := false
	for i, b := range s.blocks {
		if !b.Live() || !s.spawner.Expires(b.Category) {
			continue
		}
		if now.Sub(b.SpawnedAt) >= s.cfg.ExpiryAge {
			s.blocks[i] = b.markExiting(now)
			s.stats.Expired++
			expired = true
		}
	}
	if expired {
		s.blocksChanged()
	}
}

// blocksChanged arms the deferred cleanups and notifies the renderer.
func (s *Session) blocksChanged() {
	s.armExitRemoval()
	s.armFlagClear()
	s.changed()
}

func (s *Session) armExitRemoval() {
	if s.exitTimer != nil {
		return
	}
	var earliest time.Time
	found := false
	for _, b := range s.blocks {
		if b.Exiting && (!found || b.ExitingAt.Before(earliest)) {
			earliest = b.ExitingAt
			found = true
		}
	}
	if !found {
		return
	}
	s.exitTimer = s.sched.After(s.delayUntil(earliest.Add(s.cfg.ExitDelay)), s.removeExited)
}

func (s *Session) removeExited() {
	s.exitTimer = nil
	now := s.sched.Now()
	kept := make([]Block, 0, len(s.blocks))
	removed := false
	for _, b := range s.blocks {
		if b.Exiting && !now.Before(b.ExitingAt.Add(s.cfg.ExitDelay)) {
			removed = true
			continue
		}
		kept = append(kept, b)
	}
	s.blocks = kept
	s.armExitRemoval()
	if removed {
		s.changed()
	}
}

func (s *Session) armFlagClear() {
	if s.flagTimer != nil {
		return
	}
	var earliest time.Time
	found := false
	for _, b := range s.blocks {
		if b.JustSpawned && (!found || b.SpawnedAt.Before(earliest)) {
			earliest = b.SpawnedAt
			found = true
		}
	}
	if !found {
		return
	}
	s.flagTimer = s.sched.After(s.delayUntil(earliest.Add(s.cfg.SpawnFlagDelay)), s.clearSpawnFlags)
}

func (s *Session) clearSpawnFlags() {
	s.flagTimer = nil
	now := s.sched.Now()
	cleared := false
	for i, b := range s.blocks {
		if b.JustSpawned && !now.Before(b.SpawnedAt.Add(s.cfg.SpawnFlagDelay)) {
			s.blocks[i].JustSpawned = false
			cleared = true
		}
	}
	s.armFlagClear()
	if cleared {
		s.changed()
	}
}

func (s *Session) delayUntil(deadline time.Time) time.Duration {
	delay := deadline.Sub(s.sched.Now())
	if delay < 0 {
		return 0
	}
	return delay
}

/* ======================
   Pointer input
   ====================== */

func (s *Session) PointerDown(p Point) {
	if s.phase != PhasePlaying {
		return
	}
	s.pointer = p
	s.pointerDown = true
	s.trail = []Point{p}
	s.resolveHits()
}

func (s *Session) PointerMove(p Point) {
	if s.phase != PhasePlaying {
		return
	}
	s.pointer = p
	if !s.pointerDown {
		return
	}
	s.trail = append(s.trail, p)
	if limit := s.cfg.TrailLength; limit > 0 && len(s.trail) > limit {
		s.trail = append([]Point(nil), s.trail[len(s.trail)-limit:]...)
	}
	s.resolveHits()
	s.changed()
}

func (s *Session) PointerUp() {
	s.pointerDown = false
	s.trail = nil
}

// resolveHits scores every live block under the current pointer position.
// Marking a block sliced and exiting together keeps the hit idempotent.
func (s *Session) resolveHits() {
	now := s.sched.Now()
	hit := false
	for i, b := range s.blocks {
		if !b.Live() || !b.Contains(s.pointer) {
			continue
		}
		b.Sliced = true
		b = b.markExiting(now)
		s.blocks[i] = b
		s.apply(b.Points)
		s.stats.Slices++
		if b.Category == CategorySpam {
			s.stats.SpamSlices++
		}
		hit = true
		if s.hooks.OnSlice != nil {
			s.hooks.OnSlice(b)
		}
	}
	if hit {
		s.blocksChanged()
	}
}

func (s *Session) apply(delta int) {
	s.score += delta
	s.lastDelta = delta
	s.stats.AppliedTotal += delta
}

/* ======================
   Accessors
   ====================== */

func (s *Session) Phase() Phase { return s.phase }
func (s *Session) Score() int { return s.score }
func (s *Session) TimeLeft() int { return s.timeLeft }
func (s *Session) Multiplier() int { return s.multiplier }
func (s *Session) Config() Config { return s.cfg }
func (s *Session) Blocks() []Block { return append([]Block(nil), s.blocks...) }
func (s *Session) Folders() []Folder { return s.folders.Folders() }

// Resize moves the spawn area; existing blocks stay where they are.
func (s *Session) Resize(v Viewport) {
	s.cfg.Viewport = v
	s.spawner.SetViewport(v)
	s.folders.SetViewport(v)
}

func (s *Session) View() View {
	return View{
		Phase:       s.phase,
		Score:       s.score,
		LastDelta:   s.lastDelta,
		TimeLeft:    s.timeLeft,
		Multiplier:  s.multiplier,
		Difficulty:  Difficulty(s.multiplier),
		Blocks:      s.Blocks(),
		Folders:     s.folders.Folders(),
		Pointer:     s.pointer,
		PointerDown: s.pointerDown,
		Trail:       append([]Point(nil), s.trail...),
	}
}

func (s *Session) changed() {
	if s.hooks.OnChange != nil {
		s.hooks.OnChange()
	}
}

// FormatClock renders seconds as M:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
