package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/idempotency"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/metrics"
)

// DefaultTimeout bounds a transition when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Engine is the single entry point screen adapters call.
type Engine struct {
	uowFactory ports.UnitOfWorkFactory
	graph      *GraphStore
	contracts  *ContractResolver
	controller *Controller
	executor   *Executor
	validator  services.TransitionValidator
	metrics    *metrics.Metrics
	logger     *slog.Logger
	timeout    time.Duration
}

// Config bundles the engine's collaborators.
type Config struct {
	UnitOfWorkFactory ports.UnitOfWorkFactory
	Templates         ports.TemplateRepository
	Contracts         ports.ContractRepository
	Registry          *screen.Registry
	Metrics           *metrics.Metrics
	Logger            *slog.Logger
	Timeout           time.Duration
}

func New(cfg Config) (*Engine, error) {
	if cfg.UnitOfWorkFactory == nil {
		return nil, errs.NewValueIsRequiredError("unit of work factory")
	}
	if cfg.Templates == nil {
		return nil, errs.NewValueIsRequiredError("template repository")
	}
	if cfg.Logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}
	if cfg.Registry == nil {
		cfg.Registry = screen.NewRegistry()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	validator := services.NewTransitionValidator(cfg.Registry)
	return &Engine{
		uowFactory: cfg.UnitOfWorkFactory,
		graph:      NewGraphStore(cfg.Templates, cfg.Logger),
		contracts:  NewContractResolver(cfg.Contracts, cfg.Registry),
		controller: NewController(cfg.UnitOfWorkFactory, cfg.Logger),
		executor:   NewExecutor(validator, NewSideEffects(), NewRecorder()),
		validator:  validator,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With("component", "engine"),
		timeout:    cfg.Timeout,
	}, nil
}

// Graph exposes the template cache for publishing and order creation.
func (e *Engine) Graph() *GraphStore {
	return e.graph
}

// Contracts exposes the contract resolver to adapters and queries.
func (e *Engine) Contracts() *ContractResolver {
	return e.contracts
}

// Transition executes req exactly once per idempotency key.
func (e *Engine) Transition(ctx context.Context, req TransitionRequest) (res TransitionResult, err error) {
	started := time.Now()
	defer func() {
		e.observe(req, res, err, time.Since(started))
	}()

	if err = req.Validate(); err != nil {
		return TransitionResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err = e.transition(ctx, req)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, errs.ErrTimeout) {
		err = errs.NewTimeoutError(err)
	}
	return res, err
}

func (e *Engine) transition(ctx context.Context, req TransitionRequest) (TransitionResult, error) {
	key, fp := req.key(), req.Fingerprint()

	if res, ok, err := e.controller.Replay(ctx, key, fp); ok || err != nil {
		return res, err
	}

	contract, err := e.contracts.ResolveContract(ctx, req.TenantID, req.Screen)
	if err != nil {
		return TransitionResult{}, err
	}

	current, err := e.uowFactory.Create().OrderRepository().Get(ctx, req.TenantID, req.OrderID)
	if err != nil {
		return TransitionResult{}, err
	}
	tpl, err := e.graph.ResolveTemplate(ctx, req.TenantID, current.Template())
	if err != nil {
		return TransitionResult{}, err
	}

	return e.controller.Execute(ctx, key, fp, req.ExpectedVersion,
		func(ctx context.Context, uow ports.UnitOfWork, locked *order.Order) (idempotency.Result, error) {
			return e.executor.ExecuteTransition(ctx, uow, locked, tpl, contract, req)
		})
}

// Preview runs the validator against the current state without changing
// anything.
func (e *Engine) Preview(ctx context.Context, req TransitionRequest) (services.ValidationResult, error) {
	contract, current, tpl, err := e.snapshot(ctx, req.TenantID, req.OrderID, req.Screen)
	if err != nil {
		return services.ValidationResult{}, err
	}
	artifacts, err := e.uowFactory.Create().ArtifactRepository().ListByOrder(ctx, req.TenantID, req.OrderID)
	if err != nil {
		return services.ValidationResult{}, err
	}

	return e.validator.Validate(services.ValidationInput{
		Template:   tpl,
		Contract:   contract,
		Order:      current,
		FromStatus: req.FromStatus,
		ToStatus:   req.ToStatus,
		Actor:      req.Actor,
		Input:      req.Input,
		Artifacts:  services.NewArtifactSet(artifacts),
	})
}

// AllowedTransition is one outgoing edge of the order's current status and
// whether the screen could take it right now.
type AllowedTransition struct {
	To      workflow.StatusCode
	Allowed bool
	Code    errs.Code
	Reason  string
}

// AllowedTransitions evaluates every outgoing edge of the order's current
// status for the given screen and actor.
func (e *Engine) AllowedTransitions(
	ctx context.Context,
	tenantID, orderID kernel.UUID,
	key screen.Key,
	actor kernel.Actor,
) (*order.Order, []AllowedTransition, error) {
	contract, current, tpl, err := e.snapshot(ctx, tenantID, orderID, key)
	if err != nil {
		return nil, nil, err
	}
	artifacts, err := e.uowFactory.Create().ArtifactRepository().ListByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, nil, err
	}
	have := services.NewArtifactSet(artifacts)

	outgoing := tpl.Outgoing(current.Status())
	if !contract.IsMultiDestination() {
		outgoing = filterTarget(outgoing, contract.FixedTarget)
	}

	out := make([]AllowedTransition, 0, len(outgoing))
	for _, edge := range outgoing {
		_, validateErr := e.validator.Validate(services.ValidationInput{
			Template:  tpl,
			Contract:  contract,
			Order:     current,
			ToStatus:  edge.To,
			Actor:     actor,
			Artifacts: have,
		})
		at := AllowedTransition{To: edge.To, Allowed: validateErr == nil}
		if validateErr != nil {
			at.Code = errs.CodeOf(validateErr)
			at.Reason = reasonOf(validateErr)
		}
		out = append(out, at)
	}
	return current, out, nil
}

func (e *Engine) snapshot(
	ctx context.Context,
	tenantID, orderID kernel.UUID,
	key screen.Key,
) (screen.Contract, *order.Order, workflow.Template, error) {
	contract, err := e.contracts.ResolveContract(ctx, tenantID, key)
	if err != nil {
		return screen.Contract{}, nil, workflow.Template{}, err
	}
	current, err := e.uowFactory.Create().OrderRepository().Get(ctx, tenantID, orderID)
	if err != nil {
		return screen.Contract{}, nil, workflow.Template{}, err
	}
	tpl, err := e.graph.ResolveTemplate(ctx, tenantID, current.Template())
	if err != nil {
		return screen.Contract{}, nil, workflow.Template{}, err
	}
	return contract, current, tpl, nil
}

func (e *Engine) observe(req TransitionRequest, res TransitionResult, err error, elapsed time.Duration) {
	outcome, code := metrics.OutcomeAccepted, ""
	switch {
	case err == nil && res.Replayed:
		outcome = metrics.OutcomeReplayed
	case err == nil:
	case errs.IsTransient(err):
		outcome, code = metrics.OutcomeFailed, string(errs.CodeOf(err))
		e.logger.Error("transition failed",
			"tenant_id", req.TenantID.String(), "order_id", req.OrderID.String(),
			"screen", req.Screen.String(), "to", req.ToStatus.String(), "error", err)
	default:
		outcome, code = metrics.OutcomeRejected, string(errs.CodeOf(err))
	}
	e.metrics.ObserveTransition(req.Screen.String(), outcome, code, elapsed)
}

func filterTarget(edges []workflow.Transition, target workflow.StatusCode) []workflow.Transition {
	var out []workflow.Transition
	for _, e := range edges {
		if e.To == target {
			out = append(out, e)
		}
	}
	return out
}

func reasonOf(err error) string {
	var (
		unmet   *errs.PreConditionNotMetError
		illegal *errs.IllegalTransitionError
		missing *errs.MissingArtifactError
	)
	switch {
	case errors.As(err, &unmet):
		return unmet.Reason
	case errors.As(err, &illegal) && illegal.Reason != "":
		return illegal.Reason
	case errors.As(err, &missing):
		return "missing artifact " + missing.Kind
	default:
		return err.Error()
	}
}
