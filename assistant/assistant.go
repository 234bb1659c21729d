// Package assistant runs the conversation loop: it routes each utterance to
// recall, activity logging, or task scheduling, and drives the per-session
// confirmation state machine for proposed tasks.
package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hearthside/keeper/chatlog"
	"github.com/hearthside/keeper/classify"
	"github.com/hearthside/keeper/compose"
	"github.com/hearthside/keeper/core"
	"github.com/hearthside/keeper/dialogue"
	"github.com/hearthside/keeper/intent"
	"github.com/hearthside/keeper/memory"
	"github.com/hearthside/keeper/recall"
	"github.com/hearthside/keeper/schedule"
	"github.com/hearthside/keeper/timerange"
)

// Result actions. Close tells the client to end the voice session.
const (
	ActionReply = "reply"
	ActionClose = "close"
)

// recallThreshold is the distance cutoff for conversational recall. Looser
// than the ranking default so confidence classification sees weak matches
// too instead of an empty list.
const recallThreshold = 2.0

const (
	scheduleClosedReply = "Great, your plan is all set. Have a wonderful day!"
	listeningReply      = "I'm listening. You can tell me what you did, ask me about past activities, or add a task to your schedule. Is there anything else for today?"
)

// Result is the assistant's answer to one utterance.
type Result struct {
	Action         string    `json:"action"`
	Reply          string    `json:"reply"`
	Intent         string    `json:"intent,omitempty"`
	IsConfirmation bool      `json:"is_confirmation,omitempty"`
	Task           *TaskInfo `json:"task,omitempty"`
}

// TaskInfo describes the task a Result refers to.
type TaskInfo struct {
	Name       string `json:"name"`
	Time       string `json:"time"`
	DateOffset int    `json:"date_offset"`
	DayPhrase  string `json:"day_phrase"`
	TaskID     string `json:"task_id,omitempty"`
}

// Engine ties the memory store, recall ranking, and schedule persistence
// together behind a single conversational entry point.
type Engine struct {
	memory   *memory.Store
	recaller *recall.Engine
	schedule schedule.Store
	chat     chatlog.Logger
	dialogue dialogue.Backend
	clock    core.Clock

	mu       sync.Mutex
	pending  map[string]*core.PendingProposal
	sessions map[string]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithDialogue installs a free-form conversation fallback.
func WithDialogue(d dialogue.Backend) Option {
	return func(e *Engine) { e.dialogue = d }
}

// WithChatLog installs a transcript backend.
func WithChatLog(l chatlog.Logger) Option {
	return func(e *Engine) { e.chat = l }
}

// WithClock overrides the time source.
func WithClock(c core.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine over the given memory store and schedule store.
func New(store *memory.Store, sched schedule.Store, opts ...Option) *Engine {
	e := &Engine{
		memory:   store,
		schedule: sched,
		chat:     chatlog.Discard{},
		clock:    core.UTCNow,
		pending:  make(map[string]*core.PendingProposal),
		sessions: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.recaller = recall.NewEngine(store, e.clock)
	return e
}

// HandleUtterance processes one utterance from ownerID's session and returns
// the spoken reply. Utterances within a session are serialized so the
// confirmation state machine sees them in order.
func (e *Engine) HandleUtterance(ctx context.Context, ownerID, sessionID, text string) (Result, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	res, err := e.process(ctx, ownerID, sessionID, text)
	if err != nil {
		return Result{}, err
	}
	e.logMessage(ctx, ownerID, sessionID, "user", text, res.Intent)
	e.logMessage(ctx, ownerID, sessionID, "bot", res.Reply, res.Intent)
	return res, nil
}

func (e *Engine) process(ctx context.Context, ownerID, sessionID, text string) (Result, error) {
	lower := strings.ToLower(strings.TrimSpace(text))

	// A pending proposal intercepts yes/no answers. Negative wins when both
	// match ("no, that's not correct" contains "correct").
	if p := e.pendingFor(sessionID); p != nil {
		switch {
		case intent.Negative(lower):
			e.clearPending(sessionID)
			return Result{
				Action: ActionReply,
				Reply:  "Okay, I'll discard that. What would you like to add instead?",
				Intent: "task_discarded",
			}, nil
		case intent.Affirmative(lower):
			return e.confirmPending(ctx, sessionID, p), nil
		}
	}

	if intent.IsRecallQuery(lower) {
		return e.Recall(ctx, ownerID, lower)
	}

	if intent.IsActivityLog(lower) {
		if _, err := e.Remember(ctx, ownerID, text); err != nil {
			return Result{}, err
		}
		return Result{
			Action: ActionReply,
			Reply:  "Okay, I've saved that to your memory.",
			Intent: "activity_log",
		}, nil
	}

	if intent.HasTaskTrigger(lower) {
		parsed := intent.ParseTask(lower)
		if parsed.IsTermination {
			return Result{Action: ActionClose, Reply: scheduleClosedReply, Intent: "termination"}, nil
		}
		if parsed.IsTaskRequest {
			return e.proposeTask(ctx, ownerID, sessionID, text, parsed), nil
		}
	}

	if intent.IsClosing(lower) {
		return Result{Action: ActionClose, Reply: scheduleClosedReply, Intent: "termination"}, nil
	}

	if strings.Contains(lower, "schedule") || strings.Contains(lower, "tasks") {
		n, err := e.schedule.CountRemaining(ctx, ownerID, e.clock())
		if err != nil {
			log.Printf("[ASSISTANT] Schedule lookup failed: %v", err)
		} else {
			return Result{
				Action: ActionReply,
				Reply:  fmt.Sprintf("You have %d tasks remaining for today. Is there anything else you'd like to add or ask?", n),
				Intent: "schedule_info",
			}, nil
		}
	}

	if e.dialogue != nil {
		reply, err := e.dialogue.Reply(ctx, sessionID, text)
		if err != nil {
			log.Printf("[ASSISTANT] Dialogue fallback failed: %v", err)
		} else if reply != "" {
			return Result{Action: ActionReply, Reply: reply, Intent: "chat"}, nil
		}
	}

	return Result{Action: ActionReply, Reply: listeningReply, Intent: "prompt"}, nil
}

// proposeTask installs a new pending proposal for the session. An existing
// proposal is treated as implicitly confirmed: the caller moved on to the
// next task, so the previous one is persisted best-effort rather than lost.
func (e *Engine) proposeTask(ctx context.Context, ownerID, sessionID, text string, parsed core.TaskIntent) Result {
	if old := e.pendingFor(sessionID); old != nil {
		if _, err := e.persistProposal(ctx, old); err != nil {
			log.Printf("[ASSISTANT] Auto-confirming superseded task failed: %v", err)
		}
	}

	p := &core.PendingProposal{
		SessionID:  sessionID,
		OwnerID:    ownerID,
		TaskName:   parsed.TaskName,
		TimeOfDay:  parsed.TimeOfDay,
		DateOffset: parsed.DateOffset,
		CreatedAt:  e.clock(),
	}
	e.setPending(sessionID, p)

	return Result{
		Action: ActionReply,
		Reply: fmt.Sprintf("I heard you say: '%s'. I heard '%s' at %s for %s. Is that correct? Say yes or no.",
			text, p.TaskName, p.TimeOfDay, p.DayPhrase()),
		Intent:         "task_creation",
		IsConfirmation: true,
		Task: &TaskInfo{
			Name: p.TaskName, Time: p.TimeOfDay,
			DateOffset: p.DateOffset, DayPhrase: p.DayPhrase(),
		},
	}
}

// confirmPending persists the proposal. The proposal is cleared whether or
// not persistence succeeds: a failed save must not trap the session in a
// confirmation loop.
func (e *Engine) confirmPending(ctx context.Context, sessionID string, p *core.PendingProposal) Result {
	e.clearPending(sessionID)

	task, err := e.persistProposal(ctx, p)
	if err != nil {
		log.Printf("[ASSISTANT] Saving confirmed task failed: %v", err)
		return Result{
			Action: ActionReply,
			Reply:  "I had trouble saving that task. Please try again.",
			Intent: "error",
		}
	}

	return Result{
		Action: ActionReply,
		Reply: fmt.Sprintf("Great! I've added '%s' to your schedule for %s at %s. Anything else?",
			p.TaskName, p.DayPhrase(), p.TimeOfDay),
		Intent: "task_saved",
		Task: &TaskInfo{
			Name: p.TaskName, Time: p.TimeOfDay,
			DateOffset: p.DateOffset, DayPhrase: p.DayPhrase(),
			TaskID: task.ID,
		},
	}
}

// Confirm resolves the session's pending proposal directly, for clients
// that answer with a button instead of speech.
func (e *Engine) Confirm(ctx context.Context, sessionID string, accept bool) (Result, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	p := e.pendingFor(sessionID)
	if p == nil {
		return Result{
			Action: ActionReply,
			Reply:  "I don't have anything waiting for confirmation.",
			Intent: "error",
		}, nil
	}
	if !accept {
		e.clearPending(sessionID)
		return Result{
			Action: ActionReply,
			Reply:  "Okay, I'll discard that. What would you like to add instead?",
			Intent: "task_discarded",
		}, nil
	}
	return e.confirmPending(ctx, sessionID, p), nil
}

// Recall answers a question about past events from the memory store.
func (e *Engine) Recall(ctx context.Context, ownerID, text string) (Result, error) {
	category := classify.Text(text)
	recency := timerange.IsRecencyQuery(text)
	var tr *core.TimeRange
	if !recency {
		tr = timerange.Resolve(text, e.clock())
	}

	matches, err := e.recaller.Recall(ctx, recall.Params{
		Query:          text,
		OwnerID:        ownerID,
		TimeRange:      tr,
		CategoryFilter: category,
		RecencyMode:    recency,
		Threshold:      recallThreshold,
	})
	if err != nil {
		return Result{}, fmt.Errorf("recall: %w", err)
	}

	level, kept := recall.ClassifyConfidence(matches, recency)
	askConfirmation := category == core.CategoryMedication &&
		(level == core.UncertaintyHigh || level == core.UncertaintyMedium)

	return Result{
		Action: ActionReply,
		Reply:  compose.RecallReply(kept, level, askConfirmation, e.clock()),
		Intent: "recall",
	}, nil
}

// Remember stores an utterance as an episodic memory and returns its ID.
func (e *Engine) Remember(ctx context.Context, ownerID, text string) (int, error) {
	return e.memory.Remember(ctx, text, memory.RememberOptions{OwnerID: ownerID})
}

func (e *Engine) persistProposal(ctx context.Context, p *core.PendingProposal) (core.ScheduledTask, error) {
	now := e.clock()
	task := core.ScheduledTask{
		ID:           uuid.NewString(),
		TaskName:     p.TaskName,
		Time:         p.TimeOfDay,
		Type:         "common",
		ScheduledAt:  now,
		GraceMinutes: 30,
	}
	date := now.AddDate(0, 0, p.DateOffset)
	if err := e.schedule.AddTask(ctx, p.OwnerID, date, task); err != nil {
		return core.ScheduledTask{}, fmt.Errorf("add task: %w", err)
	}
	return task, nil
}

func (e *Engine) logMessage(ctx context.Context, ownerID, sessionID, sender, text, intentName string) {
	if err := e.chat.SaveMessage(ctx, ownerID, sessionID, sender, text, intentName); err != nil {
		log.Printf("[ASSISTANT] Chat log write failed: %v", err)
	}
}

func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessions[sessionID] == nil {
		e.sessions[sessionID] = &sync.Mutex{}
	}
	return e.sessions[sessionID]
}

func (e *Engine) pendingFor(sessionID string) *core.PendingProposal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending[sessionID]
}

func (e *Engine) setPending(sessionID string, p *core.PendingProposal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending[sessionID] = p
}

func (e *Engine) clearPending(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, sessionID)
}
