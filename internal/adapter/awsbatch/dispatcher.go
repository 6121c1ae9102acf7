// Package awsbatch implements the compute dispatch port as AWS Batch job
// submissions.
package awsbatch

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	batchtypes "github.com/aws/aws-sdk-go-v2/service/batch/types"
	"github.com/google/uuid"

	"github.com/forgeworks/agentdispatch/internal/domain/assignment"
	"github.com/forgeworks/agentdispatch/internal/domain/dispatch"
	"github.com/forgeworks/agentdispatch/internal/domain/issue"
)

// SubmitJobAPI is the subset of the Batch client the dispatcher uses.
type SubmitJobAPI interface {
	SubmitJob(ctx context.Context, in *batch.SubmitJobInput, optFns ...func(*batch.Options)) (*batch.SubmitJobOutput, error)
}

// Config holds the fixed Batch targeting parameters.
type Config struct {
	JobQueue      string
	JobDefinition string
}

// Dispatcher submits one Batch job per dispatched issue event. The attempt
// timeout is derived from the assignment's timeout in minutes.
type Dispatcher struct {
	client SubmitJobAPI
	cfg    Config

	// newSuffix is swappable for deterministic job names in tests.
	newSuffix func() string
}

// New creates a Batch dispatcher.
func New(client SubmitJobAPI, cfg Config) *Dispatcher {
	return &Dispatcher{
		client:    client,
		cfg:       cfg,
		newSuffix: func() string { return uuid.NewString()[:8] },
	}
}

func (d *Dispatcher) Platform() assignment.Platform { return assignment.PlatformBatch }

func (d *Dispatcher) Dispatch(ctx context.Context, ev *issue.Event, as assignment.Assignment) (*dispatch.Deployment, error) {
	jobName := fmt.Sprintf("agent-%s-issue-%d-%s", as.Agent, ev.Number, d.newSuffix())

	out, err := d.client.SubmitJob(ctx, &batch.SubmitJobInput{
		JobName:       aws.String(jobName),
		JobQueue:      aws.String(d.cfg.JobQueue),
		JobDefinition: aws.String(d.cfg.JobDefinition),
		Parameters:    dispatch.JobParameters(ev, as),
		Timeout: &batchtypes.JobTimeout{
			AttemptDurationSeconds: aws.Int32(int32(as.TimeoutMinutes * 60)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("batch submit job %s: %w", jobName, err)
	}

	return &dispatch.Deployment{
		Platform:  assignment.PlatformBatch,
		Reference: aws.ToString(out.JobId),
		InvokedAt: time.Now().UTC(),
	}, nil
}
