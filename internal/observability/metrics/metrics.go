// Package metrics aggregates in-memory counters for the video service and
// exposes them in Prometheus text format.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"lumen-live/internal/models"
)

type requestLabel struct {
	method string
	path   string
	status string
}

type lifecycleLabel struct {
	state   string
	outcome string
}

// Recorder aggregates in-memory metrics for HTTP requests, channel lifecycle
// events, live state publishes, and control commands. It coordinates
// concurrent writers via a mutex while exposing a thread-safe gauge for
// currently live videos.
type Recorder struct {
	mu              sync.RWMutex
	requestCount    map[requestLabel]uint64
	requestDuration map[requestLabel]time.Duration
	lifecycleEvents map[lifecycleLabel]uint64
	publishedStates map[string]uint64
	controlCommands map[string]uint64
	controlFailures map[string]uint64
	liveVideos      atomic.Int64
}

var defaultRecorder = New()

// New constructs an empty Recorder with initialized backing maps.
func New() *Recorder {
	return &Recorder{
		requestCount:    make(map[requestLabel]uint64),
		requestDuration: make(map[requestLabel]time.Duration),
		lifecycleEvents: make(map[lifecycleLabel]uint64),
		publishedStates: make(map[string]uint64),
		controlCommands: make(map[string]uint64),
		controlFailures: make(map[string]uint64),
	}
}

// Default returns the singleton Recorder shared by packages that do not
// require a custom instrumentation pipeline.
func Default() *Recorder {
	return defaultRecorder
}

// ObserveRequest accumulates request count and cumulative duration by HTTP
// method, normalized path, and status code.
func (r *Recorder) ObserveRequest(method, path string, status int, duration time.Duration) {
	label := requestLabel{
		method: strings.ToUpper(method),
		path:   normalizePath(path),
		status: fmt.Sprintf("%d", status),
	}
	r.mu.Lock()
	r.requestCount[label]++
	r.requestDuration[label] += duration
	r.mu.Unlock()
}

// ObserveLifecycleEvent records the outcome of one webhook delivery keyed by
// the raw channel state it carried.
func (r *Recorder) ObserveLifecycleEvent(rawState, outcome string) {
	label := lifecycleLabel{
		state:   normalizeName(rawState),
		outcome: normalizeName(outcome),
	}
	r.mu.Lock()
	r.lifecycleEvents[label]++
	r.mu.Unlock()
}

// LiveStatePublished records a successful state publish and maintains the
// live video gauge.
func (r *Recorder) LiveStatePublished(status models.LiveState) {
	normalized := normalizeName(string(status))
	r.mu.Lock()
	r.publishedStates[normalized]++
	r.mu.Unlock()

	switch status {
	case models.LiveStateLive:
		r.liveVideos.Add(1)
	case models.LiveStateStopped:
		r.decrementGauge(&r.liveVideos)
	}
}

// ObserveControlCommand records a start/stop command attempt.
func (r *Recorder) ObserveControlCommand(command string) {
	normalized := normalizeName(command)
	r.mu.Lock()
	r.controlCommands[normalized]++
	r.mu.Unlock()
}

// ObserveControlFailure records a failed start/stop command. The caller also
// records the attempt separately.
func (r *Recorder) ObserveControlFailure(command string) {
	normalized := normalizeName(command)
	r.mu.Lock()
	r.controlFailures[normalized]++
	r.mu.Unlock()
}

// LiveVideos exposes the current gauge of videos marked live.
func (r *Recorder) LiveVideos() int64 {
	return r.liveVideos.Load()
}

// LifecycleEventCount returns the counter for one (state, outcome) pair, for tests.
func (r *Recorder) LifecycleEventCount(rawState, outcome string) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lifecycleEvents[lifecycleLabel{state: normalizeName(rawState), outcome: normalizeName(outcome)}]
}

// ControlCommandCounts returns copies of the command attempt and failure counters.
func (r *Recorder) ControlCommandCounts() (attempts map[string]uint64, failures map[string]uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	attempts = make(map[string]uint64, len(r.controlCommands))
	for k, v := range r.controlCommands {
		attempts[k] = v
	}
	failures = make(map[string]uint64, len(r.controlFailures))
	for k, v := range r.controlFailures {
		failures[k] = v
	}
	return attempts, failures
}

// Reset clears all counters and gauges. It is intended for test setups.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.requestCount = make(map[requestLabel]uint64)
	r.requestDuration = make(map[requestLabel]time.Duration)
	r.lifecycleEvents = make(map[lifecycleLabel]uint64)
	r.publishedStates = make(map[string]uint64)
	r.controlCommands = make(map[string]uint64)
	r.controlFailures = make(map[string]uint64)
	r.mu.Unlock()
	r.liveVideos.Store(0)
}

func (r *Recorder) decrementGauge(gauge *atomic.Int64) {
	for {
		current := gauge.Load()
		if current <= 0 {
			return
		}
		if gauge.CompareAndSwap(current, current-1) {
			return
		}
	}
}

func normalizeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

// normalizePath collapses per-resource path segments so metrics cardinality
// stays bounded.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/api/videos/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/api/videos/")
	if rest == "" {
		return "/api/videos/:id"
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) == 2 && parts[1] != "" {
		return "/api/videos/:id/" + parts[1]
	}
	return "/api/videos/:id"
}

// Handler serves the recorder state in Prometheus text exposition format.
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		r.write(w)
	})
}

func (r *Recorder) write(w http.ResponseWriter) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requestLabels := r.sortedRequestLabels()

	fmt.Fprintln(w, "# HELP lumen_http_requests_total Total number of HTTP requests processed by the API")
	fmt.Fprintln(w, "# TYPE lumen_http_requests_total counter")
	for _, label := range requestLabels {
		fmt.Fprintf(w, "lumen_http_requests_total{method=%q,path=%q,status=%q} %d\n", label.method, label.path, label.status, r.requestCount[label])
	}

	fmt.Fprintln(w, "# HELP lumen_http_request_duration_seconds_sum Cumulative duration of HTTP requests in seconds")
	fmt.Fprintln(w, "# TYPE lumen_http_request_duration_seconds_sum counter")
	for _, label := range requestLabels {
		fmt.Fprintf(w, "lumen_http_request_duration_seconds_sum{method=%q,path=%q,status=%q} %f\n", label.method, label.path, label.status, r.requestDuration[label].Seconds())
	}

	fmt.Fprintln(w, "# HELP lumen_lifecycle_events_total Channel lifecycle webhook deliveries by raw state and outcome")
	fmt.Fprintln(w, "# TYPE lumen_lifecycle_events_total counter")
	for _, label := range r.sortedLifecycleLabels() {
		fmt.Fprintf(w, "lumen_lifecycle_events_total{state=%q,outcome=%q} %d\n", label.state, label.outcome, r.lifecycleEvents[label])
	}

	fmt.Fprintln(w, "# HELP lumen_live_states_published_total Normalized live states written to the video store")
	fmt.Fprintln(w, "# TYPE lumen_live_states_published_total counter")
	for _, status := range sortedKeys(r.publishedStates) {
		fmt.Fprintf(w, "lumen_live_states_published_total{status=%q} %d\n", status, r.publishedStates[status])
	}

	fmt.Fprintln(w, "# HELP lumen_control_commands_total Start/stop channel commands by action")
	fmt.Fprintln(w, "# TYPE lumen_control_commands_total counter")
	for _, command := range sortedKeys(r.controlCommands) {
		fmt.Fprintf(w, "lumen_control_commands_total{command=%q} %d\n", command, r.controlCommands[command])
	}

	fmt.Fprintln(w, "# HELP lumen_control_failures_total Failed start/stop channel commands by action")
	fmt.Fprintln(w, "# TYPE lumen_control_failures_total counter")
	for _, command := range sortedKeys(r.controlFailures) {
		fmt.Fprintf(w, "lumen_control_failures_total{command=%q} %d\n", command, r.controlFailures[command])
	}

	fmt.Fprintln(w, "# HELP lumen_live_videos Current number of videos marked as live")
	fmt.Fprintln(w, "# TYPE lumen_live_videos gauge")
	fmt.Fprintf(w, "lumen_live_videos %d\n", r.liveVideos.Load())
}

func (r *Recorder) sortedRequestLabels() []requestLabel {
	labels := make([]requestLabel, 0, len(r.requestCount))
	for label := range r.requestCount {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].path != labels[j].path {
			return labels[i].path < labels[j].path
		}
		if labels[i].method != labels[j].method {
			return labels[i].method < labels[j].method
		}
		return labels[i].status < labels[j].status
	})
	return labels
}

func (r *Recorder) sortedLifecycleLabels() []lifecycleLabel {
	labels := make([]lifecycleLabel, 0, len(r.lifecycleEvents))
	for label := range r.lifecycleEvents {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].state != labels[j].state {
			return labels[i].state < labels[j].state
		}
		return labels[i].outcome < labels[j].outcome
	})
	return labels
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
