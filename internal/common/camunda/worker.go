// internal/common/camunda/worker.go
package camunda

import (
	"fmt"
	"time"

	"cypher-catalog/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// WorkerSpec describes one job worker subscription.
type WorkerSpec struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

// OpenWorker subscribes handler to spec.TaskType.
func OpenWorker(client zbc.Client, spec WorkerSpec, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	maxJobs := spec.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = 5
	}

	jobWorker := client.NewJobWorker().
		JobType(spec.TaskType).
		Handler(handler).
		MaxJobsActive(maxJobs).
		Timeout(spec.Timeout).
		Name(fmt.Sprintf("%s-worker", spec.TaskType)).
		Open()

	log.Info("worker registered with Camunda", map[string]interface{}{
		"taskType":      spec.TaskType,
		"maxJobsActive": maxJobs,
		"timeout":       spec.Timeout.String(),
	})
	return jobWorker
}
