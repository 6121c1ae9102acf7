// Package service contains the application services.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	otelx "github.com/forgeworks/agentdispatch/internal/adapter/otel"
	"github.com/forgeworks/agentdispatch/internal/domain/assignment"
	"github.com/forgeworks/agentdispatch/internal/domain/classify"
	"github.com/forgeworks/agentdispatch/internal/domain/dispatch"
	"github.com/forgeworks/agentdispatch/internal/domain/issue"
	"github.com/forgeworks/agentdispatch/internal/port/compute"
	"github.com/forgeworks/agentdispatch/internal/port/dispatchstore"
	"github.com/forgeworks/agentdispatch/internal/port/messagequeue"
	"github.com/forgeworks/agentdispatch/internal/port/tracker"
	"github.com/forgeworks/agentdispatch/internal/resilience"
)

// DuplicateObserver counts repeated deliveries for the same issue. It only
// observes; duplicates are still dispatched.
type DuplicateObserver interface {
	Observe(key string) int64
}

// Deps wires the dispatch pipeline. Table and Registry are required; the
// rest are optional and skipped when nil.
type Deps struct {
	Table    *assignment.Table
	Registry *compute.Registry
	Tracker  tracker.Tracker
	Breaker  *resilience.Breaker
	Store    dispatchstore.Store
	Queue    messagequeue.Publisher
	Seen     DuplicateObserver
	Metrics  *otelx.Metrics
}

// DispatchService processes issue events: classify, route, dispatch, notify.
// Each event is handled in one stateless pass; there is no retry, no
// deduplication, and no coordination between concurrent events.
type DispatchService struct {
	deps Deps
}

// NewDispatchService creates the pipeline. It fails fast when the
// assignment table does not cover every role the classifier can produce,
// so the router lookup can never miss at runtime.
func NewDispatchService(deps Deps) (*DispatchService, error) {
	if deps.Table == nil {
		return nil, fmt.Errorf("dispatch service: assignment table is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("dispatch service: compute registry is required")
	}
	for _, role := range classify.Roles() {
		if _, ok := deps.Table.Lookup(role); !ok {
			return nil, fmt.Errorf("dispatch service: assignment table missing role %q", role)
		}
	}
	return &DispatchService{deps: deps}, nil
}

// ParseGitHubIssueEvent parses a GitHub "issues" webhook payload into an
// issue event.
func ParseGitHubIssueEvent(data []byte, deliveryID string) (*issue.Event, error) {
	var raw struct {
		Action string `json:"action"`
		Issue  struct {
			Number int    `json:"number"`
			Title  string `json:"title"`
			Body   string `json:"body"`
			Labels []struct {
				Name string `json:"name"`
			} `json:"labels"`
		} `json:"issue"`
		Repository struct {
			FullName string `json:"full_name"`
		} `json:"repository"`
		Sender struct {
			Login string `json:"login"`
		} `json:"sender"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse github issue event: %w", err)
	}
	if raw.Repository.FullName == "" {
		return nil, fmt.Errorf("parse github issue event: missing repository")
	}

	labels := make([]string, 0, len(raw.Issue.Labels))
	for _, l := range raw.Issue.Labels {
		labels = append(labels, l.Name)
	}

	return &issue.Event{
		Action:     raw.Action,
		Number:     raw.Issue.Number,
		Title:      raw.Issue.Title,
		Body:       raw.Issue.Body,
		Labels:     labels,
		Repository: raw.Repository.FullName,
		Sender:     raw.Sender.Login,
		DeliveryID: deliveryID,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// Process runs the full pipeline for one issue event. Every path returns a
// structured result; nothing raises to the caller.
func (s *DispatchService) Process(ctx context.Context, ev *issue.Event) *dispatch.Result {
	m := s.deps.Metrics
	if m != nil {
		m.EventsReceived.Add(ctx, 1)
	}

	if !ev.Accepted() {
		slog.Info("issue event ignored", "repo", ev.Repository, "issue", ev.Number, "action", ev.Action)
		if m != nil {
			m.EventsIgnored.Add(ctx, 1)
		}
		return &dispatch.Result{
			Status:      dispatch.StatusIgnored,
			IssueNumber: ev.Number,
			Repository:  ev.Repository,
			Reason:      fmt.Sprintf("action %q does not trigger dispatch", ev.Action),
		}
	}

	role := classify.Classify(ev)
	as, ok := s.deps.Table.Lookup(role)
	if !ok {
		// Unreachable: the constructor verifies table coverage.
		res := &dispatch.Result{
			Status:      dispatch.StatusFailed,
			IssueNumber: ev.Number,
			Repository:  ev.Repository,
			Error:       fmt.Sprintf("no assignment for role %q", role),
		}
		s.record(ctx, ev, res)
		return res
	}

	if s.deps.Seen != nil {
		if n := s.deps.Seen.Observe(ev.Key()); n > 0 {
			slog.Warn("duplicate delivery observed",
				"repo", ev.Repository,
				"issue", ev.Number,
				"delivery_id", ev.DeliveryID,
				"prior_deliveries", n,
			)
			if m != nil {
				m.DuplicateDeliveries.Add(ctx, 1)
			}
		}
	}

	res := &dispatch.Result{
		ID:            uuid.NewString(),
		IssueNumber:   ev.Number,
		Repository:    ev.Repository,
		AgentAssigned: as.Agent,
		ComputeType:   as.Platform,
	}

	ctx, span := otelx.StartDispatchSpan(ctx, ev.Repository, ev.Number, role, string(as.Platform))
	defer span.End()

	d, ok := s.deps.Registry.Get(as.Platform)
	if !ok {
		res.Status = dispatch.StatusFailed
		res.Error = fmt.Sprintf("no dispatcher registered for platform %q", as.Platform)
		slog.Error("dispatch failed", "repo", ev.Repository, "issue", ev.Number, "error", res.Error)
		if m != nil {
			m.DispatchFailed.Add(ctx, 1)
		}
		s.record(ctx, ev, res)
		s.publish(ctx, role, res)
		return res
	}

	start := time.Now()
	deployment, err := d.Dispatch(ctx, ev, as)
	if err != nil {
		res.Status = dispatch.StatusFailed
		res.Error = err.Error()
		slog.Error("dispatch failed",
			"repo", ev.Repository,
			"issue", ev.Number,
			"agent", as.Agent,
			"platform", as.Platform,
			"error", err,
		)
		if m != nil {
			m.DispatchFailed.Add(ctx, 1)
		}
		s.record(ctx, ev, res)
		s.publish(ctx, role, res)
		return res
	}

	res.Status = dispatch.StatusSuccess
	res.Deployment = deployment
	slog.Info("issue dispatched",
		"repo", ev.Repository,
		"issue", ev.Number,
		"agent", as.Agent,
		"platform", as.Platform,
		"reference", deployment.Reference,
	)
	if m != nil {
		m.Dispatched.Add(ctx, 1)
		m.DispatchDuration.Record(ctx, time.Since(start).Seconds())
	}

	res.Notify = s.notify(ctx, ev, role, as, deployment)

	s.record(ctx, ev, res)
	s.publish(ctx, role, res)
	return res
}

// notify posts the assignment comment and labels back to the issue. Both
// writes run concurrently and are breaker-guarded; failure is advisory and
// never changes the dispatch status.
func (s *DispatchService) notify(ctx context.Context, ev *issue.Event, role string, as assignment.Assignment, dep *dispatch.Deployment) *dispatch.NotifyStatus {
	if s.deps.Tracker == nil {
		return nil
	}

	ctx, span := otelx.StartNotifySpan(ctx, ev.Repository, ev.Number)
	defer span.End()

	comment := assignmentComment(role, as, dep)
	labels := tracker.Labels(role)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.guard(func() error {
			return s.deps.Tracker.AddComment(gctx, ev.Repository, ev.Number, comment)
		})
	})
	g.Go(func() error {
		return s.guard(func() error {
			return s.deps.Tracker.AddLabels(gctx, ev.Repository, ev.Number, labels)
		})
	})

	if err := g.Wait(); err != nil {
		slog.Warn("issue notification failed",
			"repo", ev.Repository,
			"issue", ev.Number,
			"error", err,
		)
		if s.deps.Metrics != nil {
			s.deps.Metrics.NotifyFailures.Add(ctx, 1)
		}
		return &dispatch.NotifyStatus{OK: false, Error: err.Error()}
	}
	return &dispatch.NotifyStatus{OK: true}
}

// guard runs fn through the notifier circuit breaker when one is configured.
func (s *DispatchService) guard(fn func() error) error {
	if s.deps.Breaker == nil {
		return fn()
	}
	return s.deps.Breaker.Execute(fn)
}

// record appends the outcome to the audit store. Failures are logged, never
// surfaced: the audit log is an observer of the pipeline, not a step in it.
func (s *DispatchService) record(ctx context.Context, ev *issue.Event, res *dispatch.Result) {
	if s.deps.Store == nil {
		return
	}

	rec := &dispatchstore.Record{
		ID:          res.ID,
		Repository:  ev.Repository,
		IssueNumber: ev.Number,
		Action:      ev.Action,
		Status:      string(res.Status),
		Agent:       res.AgentAssigned,
		Platform:    string(res.ComputeType),
		Error:       res.Error,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if res.Deployment != nil {
		rec.Reference = res.Deployment.Reference
	}

	if err := s.deps.Store.Append(ctx, rec); err != nil {
		slog.Warn("dispatch audit append failed", "repo", ev.Repository, "issue", ev.Number, "error", err)
	}
}

// publish fans the result out on the queue. Failures are logged, advisory.
func (s *DispatchService) publish(ctx context.Context, role string, res *dispatch.Result) {
	if s.deps.Queue == nil {
		return
	}

	data, err := json.Marshal(res)
	if err != nil {
		slog.Warn("dispatch result marshal failed", "error", err)
		return
	}

	subject := "dispatch.result." + role
	if err := s.deps.Queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("dispatch result publish failed", "subject", subject, "error", err)
	}
}

// assignmentComment formats the comment posted back to the issue.
func assignmentComment(role string, as assignment.Assignment, dep *dispatch.Deployment) string {
	return fmt.Sprintf(
		"Assigned to the **%s** agent (%s on %s, priority %d).\n\nDeployment reference: `%s`",
		role, as.Type, as.Platform, as.Priority, dep.Reference,
	)
}
