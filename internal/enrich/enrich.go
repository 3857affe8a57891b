// Package enrich derives tags for newly submitted tasks in the background.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"

	"worklog/internal/ai"
	"worklog/internal/jobs"
	"worklog/internal/worklog"

	"go.uber.org/zap"
)

// Enricher handles TAG_ENRICH jobs. Its errors never reach the user who
// submitted the task; they only end up in logs and the job row.
type Enricher struct {
	Tasks *worklog.Service
	AI    ai.Completer
	Log   *zap.Logger
}

func (e *Enricher) Handle(ctx context.Context, job *jobs.Job) error {
	var p jobs.TagEnrichPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("bad payload: %w", err)
	}
	if p.TaskID == "" {
		return fmt.Errorf("bad payload: missing task_id")
	}
	return e.Enrich(ctx, p.TaskID, p.Content)
}

// Enrich asks the completer for tags and patches the task when at least one
// usable tag comes back. A failed call or an empty parse leaves the task's
// tags empty for good.
func (e *Enricher) Enrich(ctx context.Context, taskID, content string) error {
	log := e.Log.With(zap.String("task_id", taskID))

	raw, err := e.AI.Complete(ctx, ai.TagRequest(content))
	if err != nil {
		log.Warn("tag enrichment failed", zap.Error(err))
		return fmt.Errorf("tag completion: %w", err)
	}

	tags := worklog.ParseTags(raw)
	if len(tags) == 0 {
		log.Info("tag enrichment produced no tags", zap.String("raw", raw))
		return nil
	}

	updated, err := e.Tasks.SetTaskTags(ctx, taskID, tags)
	if err != nil {
		log.Error("tag patch failed", zap.Error(err))
		return err
	}
	if !updated {
		log.Info("task gone before enrichment finished")
		return nil
	}

	log.Debug("task enriched", zap.Strings("tags", tags))
	return nil
}
