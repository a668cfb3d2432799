// Package security decides which role may perform which action.
// Rules are CEL boolean expressions over the variables role and action,
// so deployments can tighten or relax them without code changes.
package security

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
)

// Action is a guarded operation.
type Action string

const (
	ActionViewPrices     Action = "product.view_prices"
	ActionManageProducts Action = "product.manage"
	ActionWriteLedger    Action = "ledger.write"
	ActionDeleteEntry    Action = "ledger.delete"
	ActionWriteOpname    Action = "opname.write"
	ActionDeleteOpname   Action = "opname.delete"
	ActionViewAssetValue Action = "report.asset_value"
	ActionViewAudit      Action = "audit.view"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// DefaultRules: staff record stock movements and counts, admins also see
// prices, manage products and delete history.
func DefaultRules() map[Action]string {
	const adminOnly = `role == "admin"`
	const anyStaff = `role in ["admin", "staff"]`
	return map[Action]string{
		ActionViewPrices:     adminOnly,
		ActionManageProducts: adminOnly,
		ActionWriteLedger:    anyStaff,
		ActionDeleteEntry:    adminOnly,
		ActionWriteOpname:    anyStaff,
		ActionDeleteOpname:   adminOnly,
		ActionViewAssetValue: adminOnly,
		ActionViewAudit:      adminOnly,
	}
}

// Policy evaluates compiled rules. Actions without a rule are denied.
type Policy struct {
	programs map[Action]cel.Program
}

// NewPolicy compiles every rule once.
func NewPolicy(rules map[Action]string) (*Policy, error) {
	env, err := cel.NewEnv(
		cel.Variable("role", cel.StringType),
		cel.Variable("action", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	programs := make(map[Action]cel.Program, len(rules))
	for action, expr := range rules {
		ast, iss := env.Compile(expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile rule %s: %w", action, iss.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program rule %s: %w", action, err)
		}
		programs[action] = prg
	}

	return &Policy{programs: programs}, nil
}

// MustDefaultPolicy compiles DefaultRules and panics on error.
func MustDefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultRules())
	if err != nil {
		panic(err)
	}
	return p
}

// Allowed reports whether role may perform action.
// Evaluation errors and non-boolean results deny.
func (p *Policy) Allowed(role string, action Action) bool {
	prg, ok := p.programs[action]
	if !ok {
		return false
	}
	out, _, err := prg.Eval(map[string]any{
		"role":   role,
		"action": string(action),
	})
	if err != nil {
		return false
	}
	allowed, ok := out.Value().(bool)
	return ok && allowed
}

// Can reports whether the actor in ctx may perform action.
func (p *Policy) Can(ctx context.Context, action Action) bool {
	actor := appctx.GetActor(ctx)
	if actor == nil {
		return false
	}
	return p.Allowed(actor.Role, action)
}

// Require returns UNAUTHORIZED without an actor and FORBIDDEN when the
// actor's role is not allowed.
func (p *Policy) Require(ctx context.Context, action Action) error {
	actor := appctx.GetActor(ctx)
	if actor == nil {
		return apperror.NewUnauthorized("actor required")
	}
	if !p.Allowed(actor.Role, action) {
		return apperror.NewForbidden(fmt.Sprintf("role %s may not perform %s", actor.Role, action)).
			WithDetail("action", string(action)).
			WithDetail("role", actor.Role)
	}
	return nil
}
