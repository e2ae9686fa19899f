// Package diag publishes pipeline events to an append-only diagnostic log
// used for offline tuning of recognition thresholds. It is not part of the
// functional contract: running with no observers changes nothing but the log.
package diag

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-receipt-recognizer/internal/logger"
)

// EventType classifies a pipeline event.
type EventType string

const (
	EventPassStarted   EventType = "pass_started"
	EventPassCompleted EventType = "pass_completed"
	EventPassFailed    EventType = "pass_failed"
	EventVariantFailed EventType = "variant_failed"
	EventSelection     EventType = "selection"
	EventPreflight     EventType = "preflight"
)

// Event is one diagnostic record.
type Event struct {
	Type      EventType              `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Observer receives diagnostic events.
type Observer interface {
	OnEvent(event Event)
	Name() string
}

// Subject is the publishing side of the event log.
type Subject interface {
	Subscribe(observer Observer)
	Publish(eventType EventType, fields map[string]interface{})
}

// Publisher implements Subject. Publishing is synchronous so the log stays
// append-ordered; a panicking observer is isolated and logged.
type Publisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewPublisher creates a publisher with no observers.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Subscribe adds an observer.
func (p *Publisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Publish delivers an event to every observer.
func (p *Publisher) Publish(eventType EventType, fields map[string]interface{}) {
	event := Event{Type: eventType, Timestamp: time.Now(), Fields: fields}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithField("observer", obs.Name()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(event)
		}(observer)
	}
}

// LoggingObserver mirrors events into the structured application log.
type LoggingObserver struct {
	log *logrus.Logger
}

// NewLoggingObserver creates a logging observer.
func NewLoggingObserver(log *logrus.Logger) *LoggingObserver {
	return &LoggingObserver{log: log}
}

func (o *LoggingObserver) OnEvent(event Event) {
	entry := o.log.WithField("event_type", event.Type)
	for k, v := range event.Fields {
		entry = entry.WithField(k, v)
	}
	switch event.Type {
	case EventPassFailed, EventVariantFailed:
		entry.Warn("Recognition pass event")
	default:
		entry.Debug("Recognition pass event")
	}
}

func (o *LoggingObserver) Name() string { return "logging_observer" }

// FileObserver appends events as JSON lines to a debug log file, matching
// the offline-tuning workflow. Write failures are swallowed: diagnostics
// must never affect results.
type FileObserver struct {
	mu   sync.Mutex
	path string
}

// NewFileObserver creates a file observer appending to path.
func NewFileObserver(path string) *FileObserver {
	return &FileObserver{path: path}
}

func (o *FileObserver) OnEvent(event Event) {
	line, err := json.Marshal(event)
	if err != nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	f, err := os.OpenFile(o.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(append(line, '\n'))
}

func (o *FileObserver) Name() string { return "file_observer" }

// MetricsObserver keeps in-process pass counters.
type MetricsObserver struct {
	mu              sync.RWMutex
	passesStarted   int64
	passesCompleted int64
	passesFailed    int64
}

// NewMetricsObserver creates a metrics observer.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (o *MetricsObserver) OnEvent(event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch event.Type {
	case EventPassStarted:
		o.passesStarted++
	case EventPassCompleted:
		o.passesCompleted++
	case EventPassFailed, EventVariantFailed:
		o.passesFailed++
	}
}

func (o *MetricsObserver) Name() string { return "metrics_observer" }

// Metrics returns the current counters.
func (o *MetricsObserver) Metrics() map[string]int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return map[string]int64{
		"passes_started":   o.passesStarted,
		"passes_completed": o.passesCompleted,
		"passes_failed":    o.passesFailed,
	}
}
