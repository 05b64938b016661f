package headerchain

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/geanlabs/zkheaders/config"
	"github.com/geanlabs/zkheaders/types"
)

// Rule identifies which proof rule produced a proof.
type Rule uint8

const (
	RuleBase Rule = iota
	RuleStep
)

func (r Rule) String() string {
	switch r {
	case RuleBase:
		return "base"
	case RuleStep:
		return "step"
	default:
		return fmt.Sprintf("rule(%d)", uint8(r))
	}
}

// Config holds the parameters for compiling a Program.
type Config struct {
	Params config.Params
	Logger *slog.Logger
}

// Program is the compiled rule set. Both rules are compiled once; every proof
// they produce verifies against the same VerifyingKey. A Program holds no
// mutable state and may prove concurrently.
type Program struct {
	params config.Params
	logger *slog.Logger

	base *compiledRule
	step *compiledRule
	vk   *VerifyingKey
}

type compiledRule struct {
	rule Rule
	ccs  constraint.ConstraintSystem
	pk   groth16.ProvingKey
}

// Compile builds the constraint systems of both rules and runs the proving
// setup. The step rule verifies its predecessor proof in-circuit, which makes
// it by far the larger of the two.
func Compile(cfg Config) (*Program, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base, baseVK, err := compileRule(cfg.Params, RuleBase, NewBaseCircuit(cfg.Params), logger)
	if err != nil {
		return nil, err
	}
	step, stepVK, err := compileRule(cfg.Params, RuleStep, NewStepCircuit(cfg.Params), logger)
	if err != nil {
		return nil, err
	}
	vk, err := newVerifyingKey(cfg.Params, baseVK, stepVK)
	if err != nil {
		return nil, err
	}

	return &Program{
		params: cfg.Params,
		logger: logger,
		base:   base,
		step:   step,
		vk:     vk,
	}, nil
}

func compileRule(p config.Params, rule Rule, circuit frontend.Circuit, logger *slog.Logger) (*compiledRule, groth16.VerifyingKey, error) {
	start := time.Now()
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, nil, fmt.Errorf("compile %s: %w", rule, err)
	}
	if err := checkLayout(p, rule, ccs); err != nil {
		return nil, nil, fmt.Errorf("compile %w", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, fmt.Errorf("setup %s: %w", rule, err)
	}
	logger.Info("compiled rule",
		"rule", rule,
		"constraints", ccs.GetNbConstraints(),
		"elapsed", time.Since(start),
	)
	return &compiledRule{rule: rule, ccs: ccs, pk: pk}, vk, nil
}

func (p *Program) Params() config.Params { return p.params }

// VerifyingKey returns the key shared by all proofs of this program.
func (p *Program) VerifyingKey() *VerifyingKey { return p.vk }

// Base proves that h is the genesis header.
func (p *Program) Base(h types.Header) (*Proof, error) {
	if err := checkShape(p.params, h); err != nil {
		return nil, err
	}
	raw, err := p.prove(p.base, h, baseAssignment(p.params, h, p.vk.digest))
	if err != nil {
		return nil, err
	}
	return &Proof{Rule: RuleBase, PublicInput: h.Copy(), raw: raw}, nil
}

// Step proves h as the successor of prev's header. The step rule verifies
// prev inside the circuit. Every predecessor proof passed, aux included, must
// also pass VerifyEmbedded; only prev feeds the linkage, quorum and rotation
// checks.
func (p *Program) Step(h types.Header, prev *Proof, aux ...*Proof) (*Proof, error) {
	if prev == nil {
		return nil, ErrMissingPredecessor
	}
	if err := checkShape(p.params, h); err != nil {
		return nil, err
	}
	for i, pr := range append([]*Proof{prev}, aux...) {
		if !p.vk.VerifyEmbedded(pr) {
			return nil, fmt.Errorf("%w: argument %d", ErrInvalidPredecessor, i)
		}
	}

	assignment, err := stepAssignment(p.vk, h, prev)
	if err != nil {
		return nil, err
	}
	raw, err := p.prove(p.step, h, assignment)
	if err != nil {
		return nil, err
	}
	return &Proof{Rule: RuleStep, PublicInput: h.Copy(), raw: raw}, nil
}

func (p *Program) prove(r *compiledRule, h types.Header, assignment frontend.Circuit) (groth16.Proof, error) {
	start := time.Now()
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("%s witness: %w", r.rule, err)
	}
	raw, err := groth16.Prove(r.ccs, r.pk, w, proverOptions())
	if err != nil {
		p.logger.Debug("rule rejected header", "rule", r.rule, "num", h.NumUint64(), "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsatisfied, r.rule, err)
	}
	p.logger.Debug("proved header",
		"rule", r.rule,
		"num", h.NumUint64(),
		"hash", types.Short(h.Hash()),
		"elapsed", time.Since(start),
	)
	return raw, nil
}

// Check solves the constraints of the rule that would prove h without
// producing a proof: base when prev is nil, step over prev otherwise.
func (p *Program) Check(h types.Header, prev *Proof) error {
	if err := checkShape(p.params, h); err != nil {
		return err
	}
	r, assignment := p.base, frontend.Circuit(baseAssignment(p.params, h, p.vk.digest))
	if prev != nil {
		if err := checkShape(p.params, prev.PublicInput); err != nil {
			return err
		}
		a, err := stepAssignment(p.vk, h, prev)
		if err != nil {
			return err
		}
		r, assignment = p.step, a
	}
	return p.solve(r, assignment)
}

func (p *Program) solve(r *compiledRule, assignment frontend.Circuit) error {
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return fmt.Errorf("%s witness: %w", r.rule, err)
	}
	if err := r.ccs.IsSolved(w); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnsatisfied, r.rule, err)
	}
	return nil
}
