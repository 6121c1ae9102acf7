// Package awslambda implements the compute dispatch port as asynchronous
// AWS Lambda invocations.
package awslambda

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/forgeworks/agentdispatch/internal/domain/assignment"
	"github.com/forgeworks/agentdispatch/internal/domain/dispatch"
	"github.com/forgeworks/agentdispatch/internal/domain/issue"
)

// InvokeAPI is the subset of the Lambda client the dispatcher uses.
type InvokeAPI interface {
	Invoke(ctx context.Context, in *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Dispatcher invokes a fixed Lambda function with the dispatch payload.
// Invocations are fire-and-forget (InvocationType Event).
type Dispatcher struct {
	client       InvokeAPI
	functionName string
}

// New creates a Lambda dispatcher targeting the given function.
func New(client InvokeAPI, functionName string) *Dispatcher {
	return &Dispatcher{client: client, functionName: functionName}
}

func (d *Dispatcher) Platform() assignment.Platform { return assignment.PlatformLambda }

func (d *Dispatcher) Dispatch(ctx context.Context, ev *issue.Event, as assignment.Assignment) (*dispatch.Deployment, error) {
	payload, err := dispatch.NewPayload(ev, as).JSON()
	if err != nil {
		return nil, err
	}

	_, err = d.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(d.functionName),
		InvocationType: lambdatypes.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("lambda invoke %s: %w", d.functionName, err)
	}

	return &dispatch.Deployment{
		Platform:  assignment.PlatformLambda,
		Reference: d.functionName,
		InvokedAt: time.Now().UTC(),
	}, nil
}
