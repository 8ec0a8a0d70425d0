package tasks

// TaskSchedulerInterface defines the interface for background task
// processing. The scheduler runs a single worker on purpose: scan and
// enrichment tasks share one credential pool and one remote quota, so they
// must never run concurrently.
// Example usage:
//
//	scheduler := NewScheduler()
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewScanTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	Cancel(taskType TaskType) bool
}
