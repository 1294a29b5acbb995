package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/stackfsm"
)

// Metrics is a point-in-time copy of the counters kept by MetricsObserver
type Metrics struct {
	StateVisits      map[string]int
	StateResumes     map[string]int
	TransitionCounts map[string]int
	KindCounts       map[stackfsm.TransitionKind]int
	AlwaysCount      int
	DiscardedEvents  map[string]int
	ErrorCount       int
	MaxDepth         int
}

// MetricsObserver collects metrics about state machine execution. The mutex
// lets a reporter read counters while the owning goroutine drives the machine.
type MetricsObserver[S, K comparable] struct {
	stackfsm.BaseObserver[S, K]

	mutex            sync.RWMutex
	stateVisits      map[string]int
	stateResumes     map[string]int
	transitionCounts map[string]int
	kindCounts       map[stackfsm.TransitionKind]int
	alwaysCount      int
	discardedEvents  map[string]int
	errorCount       int
	maxDepth         int
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver[S, K comparable]() *MetricsObserver[S, K] {
	return &MetricsObserver[S, K]{
		stateVisits:      make(map[string]int),
		stateResumes:     make(map[string]int),
		transitionCounts: make(map[string]int),
		kindCounts:       make(map[stackfsm.TransitionKind]int),
		discardedEvents:  make(map[string]int),
	}
}

// OnStateEnter records state entry metrics
func (o *MetricsObserver[S, K]) OnStateEnter(state S, depth int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.stateVisits[fmt.Sprint(state)]++
	if depth > o.maxDepth {
		o.maxDepth = depth
	}
}

// OnStateResume records resumes after a pop
func (o *MetricsObserver[S, K]) OnStateResume(state S, depth int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.stateResumes[fmt.Sprint(state)]++
}

// OnTransition records transition metrics
func (o *MetricsObserver[S, K]) OnTransition(info stackfsm.TransitionInfo[S, K]) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.transitionCounts[fmt.Sprintf("%v->%v", info.From, info.To)]++
	o.kindCounts[info.Kind]++
	if info.Always() {
		o.alwaysCount++
	}
}

// OnEventDiscarded records events that matched nothing
func (o *MetricsObserver[S, K]) OnEventDiscarded(state S, event stackfsm.Event[K]) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.discardedEvents[fmt.Sprint(event.Kind())]++
}

// OnError records errors
func (o *MetricsObserver[S, K]) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.errorCount++
}

// Snapshot returns a copy of the collected metrics
func (o *MetricsObserver[S, K]) Snapshot() Metrics {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return Metrics{
		StateVisits:      copyCounts(o.stateVisits),
		StateResumes:     copyCounts(o.stateResumes),
		TransitionCounts: copyCounts(o.transitionCounts),
		KindCounts:       copyCounts(o.kindCounts),
		AlwaysCount:      o.alwaysCount,
		DiscardedEvents:  copyCounts(o.discardedEvents),
		ErrorCount:       o.errorCount,
		MaxDepth:         o.maxDepth,
	}
}

// Reset clears all collected metrics
func (o *MetricsObserver[S, K]) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.stateVisits = make(map[string]int)
	o.stateResumes = make(map[string]int)
	o.transitionCounts = make(map[string]int)
	o.kindCounts = make(map[stackfsm.TransitionKind]int)
	o.alwaysCount = 0
	o.discardedEvents = make(map[string]int)
	o.errorCount = 0
	o.maxDepth = 0
}

func copyCounts[T comparable](in map[T]int) map[T]int {
	out := make(map[T]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
