package memory

import (
	"context"
	"slices"

	"hrpay/internal/platform/apperr"
	"hrpay/internal/platform/jobs"
)

type Jobs struct{ repo }

func (j Jobs) StartRun(_ context.Context, jobType string) (string, error) {
	defer j.lock()()
	run := jobs.Run{ID: newID(), JobType: jobType, Status: jobs.StatusRunning, StartedAt: j.now()}
	j.s.data.runs = append(j.s.data.runs, run)
	return run.ID, nil
}

func (j Jobs) FinishRun(_ context.Context, runID, status string, details []byte) error {
	defer j.lock()()
	for i := range j.s.data.runs {
		if j.s.data.runs[i].ID == runID {
			completed := j.now()
			j.s.data.runs[i].Status = status
			j.s.data.runs[i].Details = slices.Clone(details)
			j.s.data.runs[i].CompletedAt = &completed
			return nil
		}
	}
	return apperr.NotFound("job run")
}

func (j Jobs) ListRuns(_ context.Context, filter jobs.RunFilter, limit, offset int) ([]jobs.Run, error) {
	defer j.lock()()
	var out []jobs.Run
	for i := len(j.s.data.runs) - 1; i >= 0; i-- {
		run := j.s.data.runs[i]
		if (filter.JobType != "" && run.JobType != filter.JobType) || (filter.Status != "" && run.Status != filter.Status) {
			continue
		}
		out = append(out, run)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
