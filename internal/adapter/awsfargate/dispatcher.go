// Package awsfargate implements the compute dispatch port as ECS Fargate
// task launches.
package awsfargate

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"

	"github.com/forgeworks/agentdispatch/internal/domain/assignment"
	"github.com/forgeworks/agentdispatch/internal/domain/dispatch"
	"github.com/forgeworks/agentdispatch/internal/domain/issue"
)

// RunTaskAPI is the subset of the ECS client the dispatcher uses.
type RunTaskAPI interface {
	RunTask(ctx context.Context, in *ecs.RunTaskInput, optFns ...func(*ecs.Options)) (*ecs.RunTaskOutput, error)
}

// Config holds the fixed ECS targeting parameters. The per-role CPU and
// memory come from the assignment, not from here.
type Config struct {
	Cluster        string
	TaskDefinition string
	Container      string
	Subnets        []string
	SecurityGroups []string
	AssignPublicIP bool
}

// Dispatcher launches one Fargate task per dispatched issue event with the
// payload carried as container environment variable overrides.
type Dispatcher struct {
	client RunTaskAPI
	cfg    Config
}

// New creates a Fargate dispatcher.
func New(client RunTaskAPI, cfg Config) *Dispatcher {
	return &Dispatcher{client: client, cfg: cfg}
}

func (d *Dispatcher) Platform() assignment.Platform { return assignment.PlatformFargate }

func (d *Dispatcher) Dispatch(ctx context.Context, ev *issue.Event, as assignment.Assignment) (*dispatch.Deployment, error) {
	assignIP := ecstypes.AssignPublicIpDisabled
	if d.cfg.AssignPublicIP {
		assignIP = ecstypes.AssignPublicIpEnabled
	}

	out, err := d.client.RunTask(ctx, &ecs.RunTaskInput{
		Cluster:        aws.String(d.cfg.Cluster),
		TaskDefinition: aws.String(d.cfg.TaskDefinition),
		LaunchType:     ecstypes.LaunchTypeFargate,
		Count:          aws.Int32(1),
		NetworkConfiguration: &ecstypes.NetworkConfiguration{
			AwsvpcConfiguration: &ecstypes.AwsVpcConfiguration{
				Subnets:        d.cfg.Subnets,
				SecurityGroups: d.cfg.SecurityGroups,
				AssignPublicIp: assignIP,
			},
		},
		Overrides: &ecstypes.TaskOverride{
			Cpu:    aws.String(strconv.Itoa(as.CPUUnits)),
			Memory: aws.String(strconv.Itoa(as.MemoryMB)),
			ContainerOverrides: []ecstypes.ContainerOverride{{
				Name:        aws.String(d.cfg.Container),
				Environment: envPairs(ev, as),
				Cpu:         aws.Int32(int32(as.CPUUnits)),
				Memory:      aws.Int32(int32(as.MemoryMB)),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ecs run task on %s: %w", d.cfg.Cluster, err)
	}
	if len(out.Failures) > 0 {
		f := out.Failures[0]
		return nil, fmt.Errorf("ecs run task on %s: %s: %s",
			d.cfg.Cluster, aws.ToString(f.Reason), aws.ToString(f.Detail))
	}

	ref := d.cfg.TaskDefinition
	if len(out.Tasks) > 0 {
		ref = aws.ToString(out.Tasks[0].TaskArn)
	}

	return &dispatch.Deployment{
		Platform:  assignment.PlatformFargate,
		Reference: ref,
		InvokedAt: time.Now().UTC(),
	}, nil
}

// envPairs converts the dispatch env vars to sorted ECS key/value pairs so
// the override list is deterministic.
func envPairs(ev *issue.Event, as assignment.Assignment) []ecstypes.KeyValuePair {
	env := dispatch.EnvVars(ev, as)
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]ecstypes.KeyValuePair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, ecstypes.KeyValuePair{
			Name:  aws.String(k),
			Value: aws.String(env[k]),
		})
	}
	return pairs
}
