// Package workflow drives a project through its review stages:
// creator → engineer → second review → third review → archive.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"prefect-admin/internal/models"
	"prefect-admin/internal/store"
)

// Actor is the user performing an operation.
type Actor struct {
	UserID   uint
	UserName string
	Role     models.UserRole
}

type Result struct {
	ProjectID       uint                 `json:"projectId"`
	PrefectID       uint                 `json:"prefectId"`
	From            models.PrefectStatus `json:"fromStatus"`
	To              models.PrefectStatus `json:"toStatus"`
	ShowInvoiceSeal bool                 `json:"showInvoiceSeal"`
	OpinionID       uint                 `json:"opinionId"`
	Message         string               `json:"message"`
}

type BatchRequest struct {
	ProjectIDs    []uint
	Actor         Actor
	Opinion       string
	CurrentStatus models.PrefectStatus
	TargetStatus  models.PrefectStatus
}

type BatchResult struct {
	Results []Result `json:"results"`
	Message string   `json:"message"`
}

type Engine struct {
	store *store.Store
	now   func() time.Time
	log   *slog.Logger
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func NewEngine(s *store.Store, opts ...Option) *Engine {
	e := &Engine{store: s, now: time.Now, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) SendToEngineer(ctx context.Context, projectID uint, actor Actor, opinion string) (*Result, error) {
	return e.transition(ctx, OpSendToEngineer, projectID, actor, opinion, "")
}

func (e *Engine) EngineerSubmit(ctx context.Context, projectID uint, actor Actor, opinion string) (*Result, error) {
	return e.transition(ctx, OpEngineerSubmit, projectID, actor, opinion, "")
}

// SecondReview passes the project to third review or rejects it back to
// the engineer, depending on target.
func (e *Engine) SecondReview(ctx context.Context, projectID uint, actor Actor, opinion string, target models.PrefectStatus) (*Result, error) {
	return e.transition(ctx, OpSecondReview, projectID, actor, opinion, target)
}

// ThirdReview passes the project to the archive queue or rejects it back
// to the engineer, depending on target.
func (e *Engine) ThirdReview(ctx context.Context, projectID uint, actor Actor, opinion string, target models.PrefectStatus) (*Result, error) {
	return e.transition(ctx, OpThirdReview, projectID, actor, opinion, target)
}

func (e *Engine) Archive(ctx context.Context, projectID uint, actor Actor, opinion string) (*Result, error) {
	return e.transition(ctx, OpArchive, projectID, actor, opinion, "")
}

func (e *Engine) BatchSecondReview(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	return e.batch(ctx, OpSecondReview, req)
}

func (e *Engine) BatchThirdReview(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	return e.batch(ctx, OpThirdReview, req)
}

// OpinionHistory returns every opinion recorded for a project, newest first.
func (e *Engine) OpinionHistory(ctx context.Context, projectID uint) ([]models.PrefectOpinion, error) {
	if _, err := e.loadPrefect(ctx, e.store, projectID); err != nil {
		return nil, err
	}
	out, err := e.store.ListOpinionsByProject(ctx, projectID)
	if err != nil {
		return nil, persistence("list opinions", err)
	}
	return out, nil
}

// NodeOpinions returns the opinions written while the project was at node.
func (e *Engine) NodeOpinions(ctx context.Context, projectID uint, node models.PrefectStatus) ([]models.PrefectOpinion, error) {
	if !node.Valid() {
		return nil, fmt.Errorf("%w: unknown node %q", ErrInvalidTransition, node)
	}
	out, err := e.store.ListOpinionsByNode(ctx, projectID, node)
	if err != nil {
		return nil, persistence("list node opinions", err)
	}
	return out, nil
}

func (e *Engine) ListToArchive(ctx context.Context, pageNum, pageSize int, actor Actor) (store.Page[store.ProjectRow], error) {
	if actor.Role != models.RoleArchiver {
		return store.Page[store.ProjectRow]{}, fmt.Errorf("%w: only %s may view the archive queue", ErrUnauthorized, models.RoleArchiver)
	}
	page, err := e.store.ListToArchive(ctx, pageNum, pageSize)
	if err != nil {
		return page, persistence("list to-archive", err)
	}
	return page, nil
}

// plan is a validated transition waiting to be written.
type plan struct {
	op      Operation
	prefect *models.ProjectPrefect
	from    models.PrefectStatus
	to      models.PrefectStatus
}

func (e *Engine) transition(ctx context.Context, op Operation, projectID uint, actor Actor, opinion string, target models.PrefectStatus) (*Result, error) {
	if err := checkRole(op, actor); err != nil {
		e.logFailure(ctx, op, projectID, err)
		return nil, err
	}

	var res *Result
	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		p, err := e.validate(ctx, tx, op, projectID, opinion, target, "")
		if err != nil {
			return err
		}
		res, err = e.apply(ctx, tx, p, actor, opinion)
		return err
	})
	if err = classify(err); err != nil {
		e.logFailure(ctx, op, projectID, err)
		return nil, err
	}

	e.log.InfoContext(ctx, "prefect transition",
		"op", op.String(),
		"project_id", projectID,
		"from", res.From,
		"to", res.To,
		"operator_id", actor.UserID,
	)
	return res, nil
}

// batch validates every project first and then applies all transitions
// in one transaction, so a single bad id leaves every project untouched.
func (e *Engine) batch(ctx context.Context, op Operation, req BatchRequest) (*BatchResult, error) {
	if err := checkRole(op, req.Actor); err != nil {
		e.logFailure(ctx, op, 0, err)
		return nil, err
	}
	if len(req.ProjectIDs) == 0 {
		return nil, fmt.Errorf("%w: empty project list", ErrInvalidTransition)
	}
	if !req.CurrentStatus.Valid() || !rules[op].accepts(req.CurrentStatus) {
		err := fmt.Errorf("%w: %s needs a current status it can move from, got %q", ErrInvalidTransition, op, req.CurrentStatus)
		e.logFailure(ctx, op, 0, err)
		return nil, err
	}

	out := &BatchResult{Results: make([]Result, 0, len(req.ProjectIDs))}
	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		plans := make([]plan, 0, len(req.ProjectIDs))
		for _, id := range req.ProjectIDs {
			p, err := e.validate(ctx, tx, op, id, req.Opinion, req.TargetStatus, req.CurrentStatus)
			if err != nil {
				return err
			}
			plans = append(plans, p)
		}
		for _, p := range plans {
			res, err := e.apply(ctx, tx, p, req.Actor, req.Opinion)
			if err != nil {
				return err
			}
			out.Results = append(out.Results, *res)
		}
		return nil
	})
	if err = classify(err); err != nil {
		e.logFailure(ctx, op, 0, err)
		return nil, err
	}

	out.Message = fmt.Sprintf("%d projects: %s", len(out.Results), successMessage(op, req.TargetStatus))
	e.log.InfoContext(ctx, "prefect batch transition",
		"op", op.String(),
		"count", len(out.Results),
		"to", req.TargetStatus,
		"operator_id", req.Actor.UserID,
	)
	return out, nil
}

func checkRole(op Operation, actor Actor) error {
	r := rules[op]
	if actor.Role != r.role {
		return fmt.Errorf("%w: %s requires role %s, got %q", ErrUnauthorized, op, r.role, actor.Role)
	}
	return nil
}

// validate runs the existence, state, target and opinion checks in that
// order. expect, when set, must equal the project's current status.
func (e *Engine) validate(ctx context.Context, tx *store.Store, op Operation, projectID uint, opinion string, target, expect models.PrefectStatus) (plan, error) {
	r := rules[op]

	prefect, err := e.loadPrefect(ctx, tx, projectID)
	if err != nil {
		return plan{}, err
	}

	from := prefect.CurrentStatus
	if !r.accepts(from) || (expect != "" && from != expect) {
		return plan{}, fmt.Errorf("%w: project %d is %s, %s is not allowed", ErrInvalidTransition, projectID, from.Name(), op)
	}

	to, ok := r.resolveTarget(target)
	if !ok {
		return plan{}, fmt.Errorf("%w: %s cannot move project %d to %q", ErrInvalidTransition, op, projectID, target)
	}

	if opinionRequired(from) && strings.TrimSpace(opinion) == "" {
		return plan{}, fmt.Errorf("%w: project %d is at %s", ErrMissingOpinion, projectID, from.Name())
	}

	return plan{op: op, prefect: prefect, from: from, to: to}, nil
}

// apply writes the process record, the project mirror and the opinion.
// The opinion's node is the state before the move.
func (e *Engine) apply(ctx context.Context, tx *store.Store, p plan, actor Actor, opinion string) (*Result, error) {
	now := e.now()

	moved, err := tx.TransitionPrefect(ctx, store.Transition{
		ProjectID:    p.prefect.ProjectID,
		From:         p.from,
		To:           p.to,
		OperatorID:   actor.UserID,
		OperatorName: actor.UserName,
		At:           now,
	})
	if err != nil {
		return nil, persistence("update prefect", err)
	}
	if !moved {
		return nil, fmt.Errorf("%w: project %d left %s concurrently", ErrInvalidTransition, p.prefect.ProjectID, p.from.Name())
	}

	if err := tx.SetPrefectStatus(ctx, p.prefect.ProjectID, p.to, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: project %d", ErrNotFound, p.prefect.ProjectID)
		}
		return nil, persistence("update project status", err)
	}

	op := models.PrefectOpinion{
		CreatedAt:      now,
		ProjectID:      p.prefect.ProjectID,
		PrefectID:      p.prefect.ID,
		NodeCode:       p.from,
		NodeName:       rules[p.op].nodeName,
		OpinionContent: strings.TrimSpace(opinion),
		OperatorID:     actor.UserID,
		OperatorName:   actor.UserName,
		OperatorRole:   actor.Role,
	}
	if err := tx.InsertOpinion(ctx, &op); err != nil {
		return nil, persistence("insert opinion", err)
	}

	return &Result{
		ProjectID:       p.prefect.ProjectID,
		PrefectID:       p.prefect.ID,
		From:            p.from,
		To:              p.to,
		ShowInvoiceSeal: p.to.ShowsInvoiceSeal(),
		OpinionID:       op.ID,
		Message:         successMessage(p.op, p.to),
	}, nil
}

func (e *Engine) loadPrefect(ctx context.Context, s *store.Store, projectID uint) (*models.ProjectPrefect, error) {
	prefect, err := s.GetPrefectByProjectID(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, projectID)
	}
	if err != nil {
		return nil, persistence("load prefect", err)
	}
	return prefect, nil
}

func (e *Engine) logFailure(ctx context.Context, op Operation, projectID uint, err error) {
	level := slog.LevelWarn
	if errors.Is(err, ErrPersistence) {
		level = slog.LevelError
	}
	e.log.Log(ctx, level, "prefect transition rejected",
		"op", op.String(),
		"project_id", projectID,
		"kind", Kind(err),
		"error", err,
	)
}

// classify turns an unrecognised error, such as a failed commit, into a
// persistence failure.
func classify(err error) error {
	if err != nil && Kind(err) == "internal" {
		return persistence("commit", err)
	}
	return err
}

// Kind names the error class of err for logs and responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrMissingOpinion):
		return "missing_opinion"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	}
	return "internal"
}
