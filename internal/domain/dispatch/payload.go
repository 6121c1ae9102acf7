package dispatch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/forgeworks/agentdispatch/internal/domain/assignment"
	"github.com/forgeworks/agentdispatch/internal/domain/issue"
)

// AgentConfig is the assignment subset delivered to the invoked agent.
type AgentConfig struct {
	Agent          string `json:"agent"`
	Type           string `json:"type"`
	Image          string `json:"image"`
	Priority       int    `json:"priority"`
	TimeoutMinutes int    `json:"timeout_minutes"`
	MemoryMB       int    `json:"memory_mb"`
	CPUUnits       int    `json:"cpu_units"`
}

// Payload is the JSON document delivered to every compute platform. All
// three backends carry the same issue fields, differing only in transport
// (invoke payload, container env vars, job parameters).
type Payload struct {
	Repository  string      `json:"repository"`
	IssueNumber int         `json:"issue_number"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	Labels      []string    `json:"labels"`
	Sender      string      `json:"sender"`
	Agent       AgentConfig `json:"agent"`
}

// NewPayload builds the dispatch payload for an event and its assignment.
func NewPayload(ev *issue.Event, as assignment.Assignment) Payload {
	return Payload{
		Repository:  ev.Repository,
		IssueNumber: ev.Number,
		Title:       ev.Title,
		Body:        ev.Body,
		Labels:      ev.Labels,
		Sender:      ev.Sender,
		Agent: AgentConfig{
			Agent:          as.Agent,
			Type:           as.Type,
			Image:          as.Image,
			Priority:       int(as.Priority),
			TimeoutMinutes: as.TimeoutMinutes,
			MemoryMB:       as.MemoryMB,
			CPUUnits:       as.CPUUnits,
		},
	}
}

// JSON serializes the payload for Lambda invocation.
func (p Payload) JSON() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal dispatch payload: %w", err)
	}
	return data, nil
}

// EnvVars returns the payload as container environment variables for
// Fargate task overrides.
func EnvVars(ev *issue.Event, as assignment.Assignment) map[string]string {
	return map[string]string{
		"REPOSITORY":     ev.Repository,
		"ISSUE_NUMBER":   strconv.Itoa(ev.Number),
		"ISSUE_TITLE":    ev.Title,
		"ISSUE_BODY":     ev.Body,
		"ISSUE_LABELS":   strings.Join(ev.Labels, ","),
		"ISSUE_SENDER":   ev.Sender,
		"AGENT_NAME":     as.Agent,
		"AGENT_TYPE":     as.Type,
		"AGENT_PRIORITY": strconv.Itoa(int(as.Priority)),
	}
}

// JobParameters returns the payload as Batch job parameters.
func JobParameters(ev *issue.Event, as assignment.Assignment) map[string]string {
	return map[string]string{
		"repository":   ev.Repository,
		"issue_number": strconv.Itoa(ev.Number),
		"issue_title":  ev.Title,
		"issue_labels": strings.Join(ev.Labels, ","),
		"agent":        as.Agent,
		"agent_type":   as.Type,
		"priority":     strconv.Itoa(int(as.Priority)),
	}
}
