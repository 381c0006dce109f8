// Package schedule is the polling trigger scheduler: it folds a changing
// flow catalog into a stable set of scheduling units, evaluates eligible
// polling triggers at a fixed 1Hz rate, and emits newly constructed
// executions onto an outbound queue when a trigger fires.
package schedule

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/cadence/condition"
	"github.com/teranos/cadence/db"
	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/execution"
	"github.com/teranos/cadence/flow"
	"github.com/teranos/cadence/internal/util"
	"github.com/teranos/cadence/logger"
	"github.com/teranos/cadence/metrics"
	"github.com/teranos/cadence/trigger"
)

// ExecutionQueue is the outbound side of the scheduler (§6). Emit may
// block on transport and may fail; a failure here after a successful
// trigger-record save propagates as an evaluation failure, not a crash.
type ExecutionQueue interface {
	Emit(ctx context.Context, e execution.Execution) error
}

// Config configures the tick loop and evaluation pool.
type Config struct {
	// Interval is the fixed tick period. Default 1 second.
	Interval time.Duration

	// MaxConcurrentEvals bounds the evaluation pool's concurrency. Default 10.
	MaxConcurrentEvals int

	// DispatchRate throttles how many evaluations the pool admits per
	// second; DispatchBurst is the token bucket's burst size. Zero means
	// unlimited (rate.Inf).
	DispatchRate  rate.Limit
	DispatchBurst int
}

// DefaultConfig returns the scheduler's default tuning.
func DefaultConfig() Config {
	return Config{
		Interval:           time.Second,
		MaxConcurrentEvals: 10,
		DispatchRate:       rate.Inf,
		DispatchBurst:      1,
	}
}

// Scheduler is the polling trigger scheduler core (§2-§5). All exported
// methods are safe for concurrent use.
type Scheduler struct {
	flowListener       flow.Listener
	conditionEvaluator condition.Evaluator
	triggerStore       trigger.Store
	executionStore     execution.Store
	runContextFactory  flow.RunContextFactory
	queue              ExecutionQueue
	clock              Clock
	metrics            metrics.Registry
	pool               *Pool
	interval           time.Duration
	log                *zap.SugaredLogger
	fatalExit          func()

	mu                sync.Mutex
	lastEvaluate      map[trigger.UID]time.Time
	evaluateRunning   map[trigger.UID]time.Time
	lastLoggedRunning int
	lastMemPercent    float64
	closing           bool

	ctx        context.Context
	cancel     context.CancelFunc
	driverDone chan struct{}
	wg         sync.WaitGroup
}

// Deps bundles the scheduler's external collaborators (§6).
type Deps struct {
	FlowListener       flow.Listener
	ConditionEvaluator condition.Evaluator
	TriggerStore       trigger.Store
	ExecutionStore     execution.Store
	RunContextFactory  flow.RunContextFactory
	Queue              ExecutionQueue
	Clock              Clock
	Metrics            metrics.Registry
	Log                *zap.SugaredLogger
}

// New builds a Scheduler. Clock defaults to RealClock and Metrics to
// metrics.NoopRegistry when left nil.
func New(deps Deps, cfg Config) *Scheduler {
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NoopRegistry{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxConcurrentEvals <= 0 {
		cfg.MaxConcurrentEvals = 10
	}
	if cfg.DispatchRate == 0 {
		cfg.DispatchRate = rate.Inf
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		flowListener:       deps.FlowListener,
		conditionEvaluator: deps.ConditionEvaluator,
		triggerStore:       deps.TriggerStore,
		executionStore:     deps.ExecutionStore,
		runContextFactory:  deps.RunContextFactory,
		queue:              deps.Queue,
		clock:              deps.Clock,
		metrics:            deps.Metrics,
		pool:               NewPool(cfg.MaxConcurrentEvals, cfg.DispatchRate, cfg.DispatchBurst),
		interval:           cfg.Interval,
		log:                deps.Log,
		fatalExit:          func() { os.Exit(1) },

		lastEvaluate:    make(map[trigger.UID]time.Time),
		evaluateRunning: make(map[trigger.UID]time.Time),

		ctx:        ctx,
		cancel:     cancel,
		driverDone: make(chan struct{}),
	}
}

// Start launches the fixed-rate tick driver and its watchdog (§4.K).
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runDriver()
	go s.watchdog()
	s.infow("scheduler started", "interval", s.interval)
}

// Close stops the driver. In-flight evaluations are allowed to run to
// completion; their result handlers may observe a closed outbound queue.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.infow("scheduler stopped")
}

func (s *Scheduler) runDriver() {
	defer s.wg.Done()
	defer close(s.driverDone)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runTickIsolated()
		}
	}
}

// runTickIsolated runs one tick, recovering a panic inside the selection
// phase so the driver is never halted by one (§4.G).
func (s *Scheduler) runTickIsolated() {
	defer func() {
		if r := recover(); r != nil {
			s.errorw("tick panicked, isolating failure", "panic", r)
		}
	}()
	s.Tick(s.ctx)
}

func (s *Scheduler) watchdog() {
	<-s.driverDone

	s.mu.Lock()
	closing := s.closing
	s.mu.Unlock()

	if closing {
		return
	}

	s.errorw("scheduler driver exited unexpectedly, tearing down")
	s.cancel()
	if s.fatalExit != nil {
		s.fatalExit()
	}
}

// WaitIdle blocks until every evaluation dispatched so far has returned.
// Production code never calls this — in-flight evaluations outlive
// Close() by design (§4.K) — but tests use it to observe a Tick's full
// effect deterministically instead of polling.
func (s *Scheduler) WaitIdle() {
	s.pool.Wait()
}

// Tick runs one full selection phase synchronously: list flows, filter
// eligible triggers, and dispatch the eligible ones into the evaluation
// pool. Exported so tests can drive the scheduler deterministically
// without waiting on the real ticker.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now().Truncate(time.Second)

	flows, err := s.flowListener.Flows(ctx)
	if err != nil {
		s.warnw("failed to list flows, skipping tick", "error", err)
		return
	}

	for _, f := range flows {
		if len(f.Triggers) == 0 {
			continue // boundary 9: a flow with zero triggers is silently skipped
		}
		for _, decl := range f.Triggers {
			s.considerTrigger(ctx, f, decl, now)
		}
	}

	s.logActivity()
}

func (s *Scheduler) considerTrigger(ctx context.Context, f flow.Flow, decl flow.TriggerDeclaration, now time.Time) {
	polling, ok := flow.AsPolling(decl) // gate 1
	if !ok {
		return
	}
	if !s.conditionEvaluator.IsValid(ctx, decl, f) { // gate 2
		return
	}

	uid := trigger.UID{Namespace: f.Namespace, FlowID: f.ID, TriggerID: decl.ID()}

	if !s.admitIntervalAndRunningGates(uid, polling.Interval(), now) { // gates 3 & 4
		return
	}

	admitted, err := s.checkPriorExecutionGate(ctx, uid, polling, now) // gate 5
	if err != nil {
		if db.IsDatabaseClosed(err) {
			// Expected during shutdown: Close() stops the driver but an
			// in-flight tick may still be reading from a store whose
			// connection just closed underneath it.
			s.debugw("prior-execution gate lookup failed, database closed", "uid", uid.String())
		} else {
			s.warnw("prior-execution gate lookup failed", "uid", uid.String(), "error", err)
		}
		return
	}
	if !admitted {
		return
	}

	s.mu.Lock()
	s.evaluateRunning[uid] = now
	runningCount := len(s.evaluateRunning)
	s.mu.Unlock()
	s.metrics.Gauge(metrics.MetricEvaluateRunningCount, float64(runningCount), "uid", uid.String())

	tc := trigger.Context{
		Namespace:    f.Namespace,
		FlowID:       f.ID,
		FlowRevision: f.Revision,
		TriggerID:    decl.ID(),
		Date:         now,
	}

	runCtx, err := s.runContextFactory.Of(ctx, f, decl)
	if err != nil {
		s.releaseRunningSlot(uid)
		s.warnw("run context construction failed, releasing slot", "uid", uid.String(), "error", err)
		return
	}

	task := evalTask{uid: uid, flowRevision: f.Revision, decl: polling, runCtx: runCtx, tc: tc}
	if err := s.pool.Submit(ctx, func() { s.runEvaluation(task) }); err != nil {
		s.releaseRunningSlot(uid)
		s.warnw("failed to dispatch evaluation, releasing slot", "uid", uid.String(), "error", err)
	}
}

// admitIntervalAndRunningGates evaluates gates 3 and 4 under the coarse
// lock. Gate 3's admission updates lastEvaluate regardless of whether
// gate 4 subsequently fails — the interval gate tracks admission
// attempts, not overall eligibility.
func (s *Scheduler) admitIntervalAndRunningGates(uid trigger.UID, interval time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastEvaluate[uid]; ok {
		if !last.Add(interval).Before(now) { // NOT (last+interval < now)
			return false
		}
	}
	s.lastEvaluate[uid] = now

	if _, running := s.evaluateRunning[uid]; running {
		return false
	}

	return true
}

// checkPriorExecutionGate is gate 5. When no trigger record exists yet,
// it synthesizes a fallback in-memory record with
// date = min(nextDate(nil), now) per §4.B, which always admits because
// its executionId is nil.
func (s *Scheduler) checkPriorExecutionGate(ctx context.Context, uid trigger.UID, decl flow.PollingTriggerDeclaration, now time.Time) (bool, error) {
	last, err := s.triggerStore.FindLast(ctx, uid)
	if err != nil {
		return false, errors.Wrapf(err, "find last trigger record for %s", uid)
	}

	if last == nil {
		synthDate := decl.NextDate(nil)
		if now.Before(synthDate) {
			synthDate = now
		}
		last = &trigger.Record{
			Namespace: uid.Namespace,
			FlowID:    uid.FlowID,
			TriggerID: uid.TriggerID,
			Date:      synthDate,
		}
	}

	if last.ExecutionID == nil {
		return true, nil
	}

	exec, err := s.executionStore.FindByID(ctx, *last.ExecutionID)
	if err != nil {
		return false, errors.Wrapf(err, "find execution %s for trigger %s", *last.ExecutionID, uid)
	}
	if exec == nil {
		s.warnw("execution not found, schedule blocked", "uid", uid.String(), "execution_id", *last.ExecutionID)
		return false, nil
	}

	return exec.State.Terminal(), nil
}

func (s *Scheduler) releaseRunningSlot(uid trigger.UID) {
	s.mu.Lock()
	delete(s.evaluateRunning, uid)
	runningCount := len(s.evaluateRunning)
	s.mu.Unlock()
	s.metrics.Gauge(metrics.MetricEvaluateRunningCount, float64(runningCount), "uid", uid.String())
}

type evalTask struct {
	uid          trigger.UID
	flowRevision int
	decl         flow.PollingTriggerDeclaration
	runCtx       flow.RunContext
	tc           trigger.Context
}

func (s *Scheduler) runEvaluation(task evalTask) {
	start := time.Now()
	exec, err := task.decl.Evaluate(s.ctx, task.runCtx, task.tc)
	duration := time.Since(start)

	s.metrics.Timer(metrics.MetricEvaluateDuration, "uid", task.uid.String()).Record(duration)
	s.handleResult(task, exec, err)
}

// handleResult is the result handler (§4.I). It always releases the
// running slot first, regardless of outcome.
func (s *Scheduler) handleResult(task evalTask, exec *execution.Execution, evalErr error) {
	s.mu.Lock()
	if _, ok := s.evaluateRunning[task.uid]; !ok {
		s.mu.Unlock()
		s.errorw("internal invariant violated: releasing an already-released slot", "uid", task.uid.String())
		return
	}
	delete(s.evaluateRunning, task.uid)
	runningCount := len(s.evaluateRunning)
	s.mu.Unlock()
	s.metrics.Gauge(metrics.MetricEvaluateRunningCount, float64(runningCount), "uid", task.uid.String())

	if evalErr != nil {
		s.warnw("trigger evaluate failed",
			"namespace", task.uid.Namespace, "flow_id", task.uid.FlowID, "trigger_id", task.uid.TriggerID,
			"date", task.tc.Date, "error", evalErr)
		return
	}

	if exec == nil {
		s.debugw("trigger evaluate returned no execution",
			"namespace", task.uid.Namespace, "flow_id", task.uid.FlowID, "trigger_id", task.uid.TriggerID)
		return
	}

	s.metrics.Counter(metrics.MetricTriggerCount, "uid", task.uid.String()).Inc()
	s.infow("trigger fired",
		"execution_id", exec.ID, "namespace", task.uid.Namespace, "flow_id", task.uid.FlowID,
		"trigger_id", task.uid.TriggerID, "date", task.tc.Date)

	record := trigger.Record{
		Namespace:    task.uid.Namespace,
		FlowID:       task.uid.FlowID,
		FlowRevision: task.flowRevision,
		TriggerID:    task.uid.TriggerID,
		Date:         task.tc.Date,
		ExecutionID:  util.Ptr(exec.ID),
	}

	// Persist before emit: a crash here loses the execution but gate 5
	// will block re-admission until the execution store catches up.
	if err := s.triggerStore.Save(s.ctx, record); err != nil {
		s.errorw("failed to persist trigger record, execution not emitted",
			"uid", task.uid.String(), "execution_id", exec.ID, "error", err)
		return
	}

	if err := s.queue.Emit(s.ctx, *exec); err != nil {
		s.errorw("failed to emit execution after persisting trigger record",
			"uid", task.uid.String(), "execution_id", exec.ID, "error", err)
		return
	}
}

func (s *Scheduler) logActivity() {
	if s.log == nil {
		return
	}

	s.mu.Lock()
	runningCount := len(s.evaluateRunning)
	changed := runningCount != s.lastLoggedRunning
	s.lastLoggedRunning = runningCount
	s.mu.Unlock()

	if !changed {
		return
	}

	sm := collectSystemMetrics()
	s.infow("tick activity",
		"evaluations_running", runningCount,
		"cpu_percent", sm.CPUPercent,
		"mem_used_gb", sm.MemoryUsedGB,
		"mem_total_gb", sm.MemoryTotalGB,
		"mem_percent", sm.MemoryPercent)

	if util.AbsFloat64(sm.MemoryPercent-s.lastMemPercent) >= memPercentJumpThreshold {
		s.warnw("memory use jumped since last sample",
			"mem_percent", sm.MemoryPercent,
			"previous_mem_percent", s.lastMemPercent)
	}
	s.lastMemPercent = sm.MemoryPercent
}

// memPercentJumpThreshold is the minimum swing in host memory use, in
// percentage points, that warrants a warning between two activity samples.
const memPercentJumpThreshold = 15.0

func (s *Scheduler) infow(msg string, kv ...interface{}) {
	if s.log != nil {
		logger.AddSchedulerSymbol(s.log).Infow(msg, kv...)
	}
}

func (s *Scheduler) debugw(msg string, kv ...interface{}) {
	if s.log != nil {
		logger.AddSchedulerSymbol(s.log).Debugw(msg, kv...)
	}
}

func (s *Scheduler) warnw(msg string, kv ...interface{}) {
	if s.log != nil {
		logger.AddSchedulerSymbol(s.log).Warnw(msg, kv...)
	}
}

func (s *Scheduler) errorw(msg string, kv ...interface{}) {
	if s.log != nil {
		logger.AddSchedulerSymbol(s.log).Errorw(msg, kv...)
	}
}
