package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agentdispatch"

// StartDispatchSpan starts a span for one platform dispatch.
func StartDispatchSpan(ctx context.Context, repo string, issueNumber int, role, platform string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dispatch",
		trace.WithAttributes(
			attribute.String("issue.repository", repo),
			attribute.Int("issue.number", issueNumber),
			attribute.String("agent.role", role),
			attribute.String("compute.platform", platform),
		),
	)
}

// StartNotifySpan starts a span for the issue tracker write-back.
func StartNotifySpan(ctx context.Context, repo string, issueNumber int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "notify",
		trace.WithAttributes(
			attribute.String("issue.repository", repo),
			attribute.Int("issue.number", issueNumber),
		),
	)
}
