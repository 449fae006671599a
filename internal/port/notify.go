package port

import "discpress/internal/domain"

// Notifier is the outbound notification boundary. Implementations
// deliver user-facing success/failure messages; cancelled jobs are
// never reported as failures.
type Notifier interface {
	JobSucceeded(wf domain.Workflow, job domain.Job)
	JobFailed(wf domain.Workflow, job domain.Job)
}
