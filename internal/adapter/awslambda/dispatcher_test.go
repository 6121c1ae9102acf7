package awslambda

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/forgeworks/agentdispatch/internal/domain/assignment"
	"github.com/forgeworks/agentdispatch/internal/domain/issue"
)

type fakeInvoker struct {
	inputs []*lambda.InvokeInput
	err    error
}

func (f *fakeInvoker) Invoke(_ context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &lambda.InvokeOutput{StatusCode: 202}, nil
}

func testEvent() *issue.Event {
	return &issue.Event{
		Action:     issue.ActionOpened,
		Number:     42,
		Title:      "Update README",
		Labels:     []string{"documentation"},
		Repository: "octo/widgets",
		Sender:     "alice",
	}
}

func testAssignment() assignment.Assignment {
	return assignment.Assignment{
		Agent: "docs", Type: "documentation", Image: "agents/docs:latest",
		Platform: assignment.PlatformLambda, Priority: assignment.PriorityLow,
		TimeoutMinutes: 15, MemoryMB: 512, CPUUnits: 256,
	}
}

func TestDispatch(t *testing.T) {
	client := &fakeInvoker{}
	d := New(client, "agent-runner")

	dep, err := d.Dispatch(context.Background(), testEvent(), testAssignment())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(client.inputs) != 1 {
		t.Fatalf("invoked %d times, want 1", len(client.inputs))
	}
	in := client.inputs[0]
	if aws.ToString(in.FunctionName) != "agent-runner" {
		t.Errorf("function = %q", aws.ToString(in.FunctionName))
	}
	// Fire-and-forget: the agent run must not block the webhook response.
	if in.InvocationType != lambdatypes.InvocationTypeEvent {
		t.Errorf("invocation type = %q, want Event", in.InvocationType)
	}

	var payload struct {
		Repository  string `json:"repository"`
		IssueNumber int    `json:"issue_number"`
		Agent       struct {
			Agent string `json:"agent"`
		} `json:"agent"`
	}
	if err := json.Unmarshal(in.Payload, &payload); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if payload.Repository != "octo/widgets" || payload.IssueNumber != 42 || payload.Agent.Agent != "docs" {
		t.Errorf("payload = %+v", payload)
	}

	if dep.Platform != assignment.PlatformLambda || dep.Reference != "agent-runner" {
		t.Errorf("deployment = %+v", dep)
	}
	if dep.InvokedAt.IsZero() {
		t.Error("invoked_at not set")
	}
}

func TestDispatch_InvokeError(t *testing.T) {
	client := &fakeInvoker{err: errors.New("throttled")}
	d := New(client, "agent-runner")

	if _, err := d.Dispatch(context.Background(), testEvent(), testAssignment()); err == nil {
		t.Fatal("expected error")
	}
	if len(client.inputs) != 1 {
		t.Fatalf("invoked %d times, want 1 (no retry)", len(client.inputs))
	}
}
