package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-routing/internal/agent"
	"github.com/spec-kit/ticket-routing/internal/config"
	"github.com/spec-kit/ticket-routing/internal/domain"
	"github.com/spec-kit/ticket-routing/internal/events"
	"github.com/spec-kit/ticket-routing/internal/match"
	"github.com/spec-kit/ticket-routing/internal/observability"
	"github.com/spec-kit/ticket-routing/internal/repository"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

type cmdKind int

const (
	cmdCancel cmdKind = iota
	cmdCallEnded
)

type command struct {
	kind       cmdKind
	rawOutcome string
}

// run is one live workflow execution. Stage mutations happen only on the
// run's own goroutine; readers take snapshots under mu.
type run struct {
	id       string
	ticketID string
	owner    string

	mu        sync.Mutex
	stage     Stage
	outputs   map[string]any
	errs      []string
	startedAt time.Time
	updatedAt time.Time

	cmdMu    sync.Mutex
	closed   bool
	commands chan command
}

func (r *run) setStage(stage Stage) {
	r.mu.Lock()
	r.stage = stage
	r.updatedAt = time.Now()
	r.mu.Unlock()
}

func (r *run) record(key string, value any) {
	r.mu.Lock()
	r.outputs[key] = value
	r.updatedAt = time.Now()
	r.mu.Unlock()
}

func (r *run) recordError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err.Error())
	r.updatedAt = time.Now()
	r.mu.Unlock()
}

func (r *run) currentStage() Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stage
}

func (r *run) snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	outputs := make(map[string]any, len(r.outputs))
	for k, v := range r.outputs {
		outputs[k] = v
	}
	errs := append([]string(nil), r.errs...)

	return Snapshot{
		WorkflowID: r.id,
		TicketID:   r.ticketID,
		Stage:      r.stage,
		IsTerminal: r.stage.Terminal(),
		Outputs:    outputs,
		Errors:     errs,
		StartedAt:  r.startedAt,
		UpdatedAt:  r.updatedAt,
	}
}

// submit enqueues a command unless the run already finished or the queue is
// saturated.
func (r *run) submit(cmd command) error {
	r.cmdMu.Lock()
	defer r.cmdMu.Unlock()
	if r.closed {
		return apperrors.NewStateError("workflow already finished", map[string]any{"workflow_id": r.id})
	}
	select {
	case r.commands <- cmd:
		return nil
	default:
		return apperrors.NewStateError("workflow command queue full", map[string]any{"workflow_id": r.id})
	}
}

// closeCommands marks the run finished and discards anything still queued.
func (r *run) closeCommands() {
	r.cmdMu.Lock()
	r.closed = true
	r.cmdMu.Unlock()
	for {
		select {
		case <-r.commands:
		default:
			return
		}
	}
}

// Engine drives workflow runs, one goroutine per run, at most one live run
// per ticket.
type Engine struct {
	cfg          config.WorkflowConfig
	tickets      repository.TicketStore
	directory    repository.WorkerDirectory
	preprocessor agent.Port
	knowledge    agent.Port
	assigner     agent.Port
	conversation agent.Port
	guard        *RedirectLoopGuard
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger

	mu       sync.Mutex
	runs     map[string]*run
	byTicket map[string]string
}

// EngineDeps bundles the engine's collaborators.
type EngineDeps struct {
	Tickets      repository.TicketStore
	Directory    repository.WorkerDirectory
	Preprocessor agent.Port
	Knowledge    agent.Port
	Assigner     agent.Port
	Conversation agent.Port
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

func NewEngine(cfg config.WorkflowConfig, deps EngineDeps) *Engine {
	return &Engine{
		cfg:          cfg,
		tickets:      deps.Tickets,
		directory:    deps.Directory,
		preprocessor: deps.Preprocessor,
		knowledge:    deps.Knowledge,
		assigner:     deps.Assigner,
		conversation: deps.Conversation,
		guard:        NewRedirectLoopGuard(cfg.MaxRedirects),
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		runs:         make(map[string]*run),
		byTicket:     make(map[string]string),
	}
}

// Start validates the ticket and launches a run for it. A ticket can have at
// most one live run.
func (e *Engine) Start(ctx context.Context, ticketID string) (string, error) {
	if strings.TrimSpace(ticketID) == "" {
		return "", apperrors.NewValidationError("ticket id required", nil)
	}

	ticket, err := e.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if ticket.Status == domain.TicketStatusResolved || ticket.Status == domain.TicketStatusClosed {
		return "", apperrors.NewValidationError("ticket already closed", map[string]any{
			"ticket_id": ticketID,
			"status":    string(ticket.Status),
		})
	}
	if strings.TrimSpace(ticket.Subject) == "" || strings.TrimSpace(ticket.Description) == "" {
		return "", apperrors.NewValidationError("ticket subject and description required", map[string]any{
			"ticket_id": ticketID,
		})
	}
	if ticket.Priority != "" && !domain.ValidPriority(ticket.Priority) {
		return "", apperrors.NewValidationError("unknown ticket priority", map[string]any{
			"ticket_id": ticketID,
			"priority":  string(ticket.Priority),
		})
	}

	queueSize := e.cfg.CommandQueueSize
	if queueSize <= 0 {
		queueSize = 8
	}

	newRun := &run{
		id:        uuid.NewString(),
		ticketID:  ticket.ID,
		owner:     ticket.Owner,
		stage:     StageInitiated,
		outputs:   make(map[string]any),
		startedAt: time.Now(),
		updatedAt: time.Now(),
		commands:  make(chan command, queueSize),
	}

	e.mu.Lock()
	if activeID, exists := e.byTicket[ticket.ID]; exists {
		e.mu.Unlock()
		return "", apperrors.NewStateError("workflow already active for ticket", map[string]any{
			"ticket_id":   ticket.ID,
			"workflow_id": activeID,
		})
	}
	e.runs[newRun.id] = newRun
	e.byTicket[ticket.ID] = newRun.id
	e.mu.Unlock()

	e.publish(events.EventWorkflowStarted, newRun, nil)
	e.logger.Info("workflow started",
		zap.String("workflow_id", newRun.id),
		zap.String("ticket_id", ticket.ID))

	go e.execute(newRun, ticket)
	return newRun.id, nil
}

// GetStatus returns a snapshot of the run, terminal runs included.
func (e *Engine) GetStatus(workflowID string) (Snapshot, error) {
	e.mu.Lock()
	current, ok := e.runs[workflowID]
	e.mu.Unlock()
	if !ok {
		return Snapshot{}, apperrors.NewNotFound("workflow", map[string]any{"workflow_id": workflowID})
	}
	return current.snapshot(), nil
}

// ListRuns snapshots every run the engine still tracks, newest first.
// Terminal runs are included.
func (e *Engine) ListRuns() []Snapshot {
	e.mu.Lock()
	tracked := make([]*run, 0, len(e.runs))
	for _, current := range e.runs {
		tracked = append(tracked, current)
	}
	e.mu.Unlock()

	snapshots := make([]Snapshot, 0, len(tracked))
	for _, current := range tracked {
		snapshots = append(snapshots, current.snapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].StartedAt.After(snapshots[j].StartedAt)
	})
	return snapshots
}

// Cancel requests cooperative cancellation. Only the ticket owner or an
// admin may cancel.
func (e *Engine) Cancel(workflowID, requester string, isAdmin bool) error {
	e.mu.Lock()
	current, ok := e.runs[workflowID]
	e.mu.Unlock()
	if !ok {
		return apperrors.NewNotFound("workflow", map[string]any{"workflow_id": workflowID})
	}
	if !isAdmin && requester != current.owner {
		return apperrors.NewForbidden("only the ticket owner or an admin may cancel")
	}
	if current.currentStage().Terminal() {
		return apperrors.NewStateError("workflow already finished", map[string]any{
			"workflow_id": workflowID,
			"stage":       string(current.currentStage()),
		})
	}
	return current.submit(command{kind: cmdCancel})
}

// NotifyCallEnded feeds the raw conversation outcome into a run waiting in
// the call stage. Outside that stage the notification is dropped with a
// warning; the session may have raced a cancel.
func (e *Engine) NotifyCallEnded(workflowID, rawOutcome string) error {
	e.mu.Lock()
	current, ok := e.runs[workflowID]
	e.mu.Unlock()
	if !ok {
		return apperrors.NewNotFound("workflow", map[string]any{"workflow_id": workflowID})
	}
	if current.currentStage() != StageCallActive {
		e.logger.Warn("call ended notification outside call stage, ignoring",
			zap.String("workflow_id", workflowID),
			zap.String("stage", string(current.currentStage())))
		return nil
	}
	return current.submit(command{kind: cmdCallEnded, rawOutcome: rawOutcome})
}

// execute runs the stage loop. Stage transitions, agent calls, and ticket
// persistence all happen here, on the run's goroutine.
func (e *Engine) execute(r *run, ticket *domain.Ticket) {
	defer e.finish(r)

	if e.cancelled(r) {
		return
	}

	// preprocessing
	e.transition(r, StagePreprocessing)
	triage, err := e.callAgent(e.preprocessor, map[string]any{
		"subject":     ticket.Subject,
		"description": ticket.Description,
	})
	if err != nil {
		e.fail(r, err)
		return
	}
	if e.cancelled(r) {
		return // in-flight result is discarded on cancel
	}
	r.record("preprocessing", triage)
	if category, _ := triage["category"].(string); category != "" && ticket.Category == "" {
		ticket.Category = category
	}
	if priority, _ := triage["priority"].(string); priority != "" && ticket.Priority == "" {
		ticket.Priority = domain.TicketPriority(priority)
	}
	if err := e.persist(r, ticket); err != nil {
		e.fail(r, err)
		return
	}

	// knowledge lookup: a confident in-scope answer completes the ticket
	// without ever involving the directory
	e.transition(r, StageKnowledgeLookup)
	answer, err := e.callAgent(e.knowledge, map[string]any{
		"subject":     ticket.Subject,
		"description": ticket.Description,
		"category":    ticket.Category,
	})
	if err != nil {
		e.fail(r, err)
		return
	}
	if e.cancelled(r) {
		return
	}
	r.record("knowledge", answer)
	scope, _ := answer["scope_status"].(string)
	confidence, _ := answer["confidence"].(float64)
	if scope == agent.ScopeWithin && confidence >= e.cfg.ConfidenceThreshold {
		text, _ := answer["answer"].(string)
		now := time.Now()
		ticket.Response = &text
		ticket.ResponseAt = &now
		ticket.Status = domain.TicketStatusResolved
		if err := e.persist(r, ticket); err != nil {
			e.fail(r, err)
			return
		}
		e.complete(r, ticket, "answered from knowledge base")
		return
	}

	// initial assignment
	e.transition(r, StageAssigning)
	keywords, _ := triage["keywords"].(string)
	sel, err := e.findWorker(r, match.Criteria{
		RoleHint:          ticket.Category,
		ExpertiseKeywords: keywords,
	})
	if err != nil {
		e.fail(r, err)
		return
	}
	if e.cancelled(r) {
		return
	}
	if sel == nil {
		e.needsReview(r, ticket, "no suitable assignee found")
		return
	}
	if err := e.assign(r, ticket, sel); err != nil {
		e.fail(r, err)
		return
	}
	worker := sel.worker
	if e.cancelled(r) {
		return
	}

	// conversation loop: start a call, wait for its outcome, redirect if
	// asked and the guard allows it
	for {
		// enter the call stage before the session spins up so an outcome
		// arriving mid-start is queued rather than dropped
		e.transition(r, StageCallActive)
		sessionOut, err := e.callAgent(e.conversation, map[string]any{
			"action":      "start_call",
			"workflow_id": r.id,
			"ticket":      ticket,
			"worker":      worker,
			"is_redirect": ticket.RedirectCount > 0,
		})
		if err != nil {
			e.fail(r, err)
			return
		}
		sessionID, _ := sessionOut["session_id"].(string)
		r.record("session_id", sessionID)

		ticket.CallStatus = domain.CallStatusActive
		if err := e.persist(r, ticket); err != nil {
			e.fail(r, err)
			return
		}

		rawOutcome, ok := e.awaitCallEnded(r)
		if !ok {
			return // cancelled while waiting
		}

		e.transition(r, StageCallEnded)
		callOut, err := e.callAgent(e.conversation, map[string]any{
			"action":      "end_call",
			"workflow_id": r.id,
			"session_id":  sessionID,
			"raw_outcome": rawOutcome,
		})
		if err != nil {
			e.fail(r, err)
			return
		}

		e.transition(r, StageRedirectEvaluation)
		solution, _ := callOut["solution"].(string)
		redirectRequested, _ := callOut["redirect_requested"].(bool)
		ticket.CallStatus = domain.CallStatusCompleted
		if solution != "" {
			ticket.ConversationSummary = &solution
		}

		if !redirectRequested {
			now := time.Now()
			done := domain.AssignmentStatusCompleted
			ticket.EmployeeSolution = &solution
			ticket.AssignmentStatus = &done
			ticket.Status = domain.TicketStatusResolved
			ticket.UpdatedAt = now
			if err := e.persist(r, ticket); err != nil {
				e.fail(r, err)
				return
			}
			e.complete(r, ticket, "resolved by assignee")
			return
		}

		ticket.RedirectRequested = true
		if err := e.guard.Validate(ticket); err != nil {
			r.recordError(err)
			e.needsReview(r, ticket, "redirect limit reached")
			return
		}

		// search for an alternate, excluding everyone who already held
		// the ticket
		e.transition(r, StageSearching)
		criteria := redirectCriteria(callOut)
		criteria.ExcludeUsernames = excludedUsernames(ticket)
		next, err := e.findWorker(r, criteria)
		if err != nil {
			e.fail(r, err)
			return
		}
		if next == nil {
			e.needsReview(r, ticket, "no suitable alternate found")
			return
		}

		e.transition(r, StageReselecting)
		previous := ""
		if ticket.AssignedTo != nil {
			previous = *ticket.AssignedTo
		}
		reason := redirectReason(criteria, solution)
		e.guard.Apply(ticket, previous, next.worker, reason)
		if err := e.persist(r, ticket); err != nil {
			e.fail(r, err)
			return
		}
		e.metrics.RecordRedirect()
		e.publish(events.EventTicketRedirected, r, events.TicketRedirectedPayload{
			FromUsername:  previous,
			ToUsername:    next.worker.Username,
			RedirectCount: ticket.RedirectCount,
			Reason:        reason,
		})
		e.logger.Info("ticket redirected",
			zap.String("workflow_id", r.id),
			zap.String("from", previous),
			zap.String("to", next.worker.Username),
			zap.Int("redirect_count", ticket.RedirectCount))

		worker = next.worker
	}
}

// awaitCallEnded blocks until the call outcome or a cancel arrives.
func (e *Engine) awaitCallEnded(r *run) (string, bool) {
	for {
		cmd := <-r.commands
		switch cmd.kind {
		case cmdCancel:
			e.cancel(r)
			return "", false
		case cmdCallEnded:
			return cmd.rawOutcome, true
		}
	}
}

// cancelled drains any pending cancel between stages.
func (e *Engine) cancelled(r *run) bool {
	for {
		select {
		case cmd := <-r.commands:
			if cmd.kind == cmdCancel {
				e.cancel(r)
				return true
			}
			// stray call-ended commands outside the call stage are dropped
		default:
			return false
		}
	}
}

// callAgent invokes a port under the agent deadline. A response carrying a
// non-success "status" key counts as a failed call even when the port
// returned no Go error.
func (e *Engine) callAgent(port agent.Port, input map[string]any) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.AgentTimeout())
	defer cancel()
	out, err := port.Execute(ctx, input)
	if err != nil {
		return nil, err
	}
	if status, ok := out["status"].(string); ok && status != "success" {
		cause := fmt.Errorf("reported status %q", status)
		if detail, _ := out["result"].(string); detail != "" {
			cause = fmt.Errorf("reported status %q: %s", status, detail)
		}
		return nil, apperrors.NewAgentError(port.Name(), cause)
	}
	return out, nil
}

// selection is a resolved assignment candidate with its ranking evidence.
type selection struct {
	worker  *domain.Employee
	score   int
	reasons []string
}

// findWorker runs the assigner and resolves the recommendation to a
// directory record. A nil selection with nil error means no candidate
// matched.
func (e *Engine) findWorker(r *run, criteria match.Criteria) (*selection, error) {
	out, err := e.callAgent(e.assigner, map[string]any{
		"identity_hint":      criteria.IdentityHint,
		"role_hint":          criteria.RoleHint,
		"expertise_keywords": criteria.ExpertiseKeywords,
		"exclude_usernames":  criteria.ExcludeUsernames,
	})
	if err != nil {
		return nil, err
	}
	r.record("assignment", out)

	username, _ := out["recommended_assignment"].(string)
	if username == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.AgentTimeout())
	defer cancel()
	worker, err := e.directory.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.NewAgentError("assigner", err)
	}
	score, _ := out["score"].(int)
	reasons, _ := out["reasons"].([]string)
	return &selection{worker: worker, score: score, reasons: reasons}, nil
}

func (e *Engine) assign(r *run, ticket *domain.Ticket, sel *selection) error {
	now := time.Now()
	assignee := sel.worker.Username
	status := domain.AssignmentStatusAssigned
	ticket.AssignedTo = &assignee
	ticket.AssignmentStatus = &status
	ticket.AssignmentDate = &now
	ticket.Status = domain.TicketStatusAssigned
	ticket.UpdatedAt = now
	if err := e.persist(r, ticket); err != nil {
		return err
	}

	e.publish(events.EventTicketAssigned, r, events.TicketAssignedPayload{
		AssigneeUsername: sel.worker.Username,
		Score:            sel.score,
		Reasoning:        strings.Join(sel.reasons, "; "),
	})
	e.logger.Info("ticket assigned",
		zap.String("workflow_id", r.id),
		zap.String("assignee", sel.worker.Username),
		zap.Int("score", sel.score))
	return nil
}

// persist writes the ticket checkpoint for the current stage. A storage
// failure is terminal; the run must never advance past state that did not
// land.
func (e *Engine) persist(r *run, ticket *domain.Ticket) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.AgentTimeout())
	defer cancel()
	if err := e.tickets.Update(ctx, ticket); err != nil {
		e.logger.Error("ticket update failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return fmt.Errorf("ticket update failed: %w", err)
	}
	return nil
}

func (e *Engine) transition(r *run, stage Stage) {
	r.setStage(stage)
	e.metrics.RecordStage(string(stage))
	e.logger.Debug("stage transition",
		zap.String("workflow_id", r.id),
		zap.String("stage", string(stage)))
}

func (e *Engine) complete(r *run, ticket *domain.Ticket, note string) {
	r.record("completion_note", note)
	e.transition(r, StageCompleted)
	response := ""
	if ticket.Response != nil {
		response = *ticket.Response
	} else if ticket.EmployeeSolution != nil {
		response = *ticket.EmployeeSolution
	}
	e.publish(events.EventWorkflowCompleted, r, events.WorkflowCompletedPayload{
		Stage:    string(StageCompleted),
		Response: response,
	})
	e.logger.Info("workflow completed",
		zap.String("workflow_id", r.id),
		zap.String("note", note))
}

func (e *Engine) needsReview(r *run, ticket *domain.Ticket, reason string) {
	r.record("review_reason", reason)
	ticket.Status = domain.TicketStatusNeedsReview
	ticket.UpdatedAt = time.Now()
	if err := e.persist(r, ticket); err != nil {
		e.fail(r, err)
		return
	}
	e.transition(r, StageNeedsReview)
	e.publish(events.EventTicketNeedsReview, r, events.NeedsReviewPayload{Reason: reason})
	e.logger.Warn("workflow needs review",
		zap.String("workflow_id", r.id),
		zap.String("reason", reason))
}

func (e *Engine) fail(r *run, err error) {
	r.recordError(err)
	e.transition(r, StageFailed)
	e.publish(events.EventWorkflowFailed, r, map[string]any{"error": err.Error()})
	e.logger.Error("workflow failed",
		zap.String("workflow_id", r.id), zap.Error(err))
}

func (e *Engine) cancel(r *run) {
	e.transition(r, StageCancelled)
	e.logger.Info("workflow cancelled", zap.String("workflow_id", r.id))
}

// finish releases the ticket slot and discards queued commands. The run
// itself stays queryable.
func (e *Engine) finish(r *run) {
	if !r.currentStage().Terminal() {
		r.setStage(StageFailed)
	}
	r.closeCommands()
	e.mu.Lock()
	delete(e.byTicket, r.ticketID)
	e.mu.Unlock()
}

func (e *Engine) publish(eventType events.EventType, r *run, payload any) {
	_ = e.dispatcher.Publish(context.Background(), events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		WorkflowID: r.id,
		TicketID:   r.ticketID,
		Timestamp:  time.Now(),
		Payload:    payload,
	})
}

// redirectCriteria lifts the parsed outcome hints into matcher criteria.
func redirectCriteria(callOut map[string]any) match.Criteria {
	if c, ok := callOut["redirect_criteria"].(*match.Criteria); ok && c != nil {
		return *c
	}
	return match.Criteria{}
}

// excludedUsernames is every previous holder of the ticket plus the current
// assignee. A redirect may never return the ticket to someone who already
// had it.
func excludedUsernames(ticket *domain.Ticket) []string {
	seen := make(map[string]struct{}, len(ticket.RedirectHistory)+1)
	var out []string
	for _, username := range ticket.RedirectHistory {
		if _, dup := seen[username]; dup {
			continue
		}
		seen[username] = struct{}{}
		out = append(out, username)
	}
	if ticket.AssignedTo != nil {
		if _, dup := seen[*ticket.AssignedTo]; !dup {
			out = append(out, *ticket.AssignedTo)
		}
	}
	return out
}

func redirectReason(criteria match.Criteria, solution string) string {
	switch {
	case criteria.ExpertiseKeywords != "":
		return "needs expertise: " + criteria.ExpertiseKeywords
	case criteria.RoleHint != "":
		return "needs role: " + criteria.RoleHint
	case criteria.IdentityHint != "":
		return "requested handoff to " + criteria.IdentityHint
	case solution != "":
		return solution
	}
	return "redirect requested"
}
