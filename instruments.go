package threadpool

import "github.com/ygrebnov/threadpool/metrics"

// Instrument names recorded by a ThreadPool.
const (
	MetricTasksSubmitted = "threadpool_tasks_submitted_total"
	MetricTasksCompleted = "threadpool_tasks_completed_total"
	MetricTasksPanicked  = "threadpool_tasks_panicked_total"
	MetricTasksRejected  = "threadpool_tasks_rejected_total"
	MetricQueueDepth     = "threadpool_queue_depth"
	MetricTasksInflight  = "threadpool_tasks_inflight"
	MetricTaskDuration   = "threadpool_task_duration_seconds"
)

type instruments struct {
	submitted metrics.Counter
	completed metrics.Counter
	panicked  metrics.Counter
	rejected  metrics.Counter
	depth     metrics.UpDownCounter
	inflight  metrics.UpDownCounter
	duration  metrics.Histogram
}

func newInstruments(p metrics.Provider, name string) *instruments {
	var attrs metrics.InstrumentOption
	if name != "" {
		attrs = metrics.WithAttributes(map[string]string{"pool": name})
	}

	return &instruments{
		submitted: p.Counter(MetricTasksSubmitted, attrs,
			metrics.WithDescription("tasks accepted by Execute"), metrics.WithUnit("1")),
		completed: p.Counter(MetricTasksCompleted, attrs,
			metrics.WithDescription("tasks that ran to completion, including panicked ones"), metrics.WithUnit("1")),
		panicked: p.Counter(MetricTasksPanicked, attrs,
			metrics.WithDescription("tasks that panicked"), metrics.WithUnit("1")),
		rejected: p.Counter(MetricTasksRejected, attrs,
			metrics.WithDescription("tasks rejected by Execute"), metrics.WithUnit("1")),
		depth: p.UpDownCounter(MetricQueueDepth, attrs,
			metrics.WithDescription("tasks waiting in the work channel"), metrics.WithUnit("1")),
		inflight: p.UpDownCounter(MetricTasksInflight, attrs,
			metrics.WithDescription("tasks currently executing"), metrics.WithUnit("1")),
		duration: p.Histogram(MetricTaskDuration, attrs,
			metrics.WithDescription("task execution time"), metrics.WithUnit("seconds")),
	}
}
