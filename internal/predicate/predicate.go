// Package predicate evaluates operator-supplied goal and restart triggers against
// simulation state. Conditions address the JSON rendering of the state with gjson
// paths such as "position.1" or "fields.speed".
package predicate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/replay-search/pkg/config"
	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
	"github.com/tidwall/gjson"
)

// ErrPredicate is returned when a predicate cannot be evaluated
var ErrPredicate = errors.New("predicate error")

// View is one sampled state shared by every predicate evaluated at a check instant
type View struct {
	state *models.SimulationState
	doc   []byte
}

// NewView renders state for evaluation
func NewView(state *models.SimulationState) (*View, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: no state", ErrPredicate)
	}
	doc, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("%w: render state: %v", ErrPredicate, err)
	}
	return &View{state: state, doc: doc}, nil
}

// State returns the underlying state
func (v *View) State() *models.SimulationState {
	return v.state
}

// Number returns the numeric value at path. Booleans read as 0 or 1.
func (v *View) Number(path string) (float64, error) {
	r := gjson.GetBytes(v.doc, path)
	if !r.Exists() {
		return 0, fmt.Errorf("%w: path %q not present in state", ErrPredicate, path)
	}
	switch r.Type {
	case gjson.Number:
		return r.Num, nil
	case gjson.True:
		return 1, nil
	case gjson.False:
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: path %q is not numeric (%s)", ErrPredicate, path, r.Type)
	}
}

// Predicate is a named boolean test over a state view
type Predicate interface {
	Name() string
	Eval(v *View) (bool, error)
}

type funcPredicate struct {
	name string
	fn   func(*models.SimulationState) (bool, error)
}

// Func wraps a Go function as a predicate
func Func(name string, fn func(*models.SimulationState) (bool, error)) Predicate {
	return &funcPredicate{name: name, fn: fn}
}

func (p *funcPredicate) Name() string { return p.name }

func (p *funcPredicate) Eval(v *View) (bool, error) {
	ok, err := p.fn(v.State())
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrPredicate, p.name, err)
	}
	return ok, nil
}

type condition struct {
	path  string
	op    string
	value float64
}

func (c condition) eval(v *View) (bool, error) {
	x, err := v.Number(c.path)
	if err != nil {
		return false, err
	}
	switch c.op {
	case "<":
		return x < c.value, nil
	case "<=":
		return x <= c.value, nil
	case ">":
		return x > c.value, nil
	case ">=":
		return x >= c.value, nil
	case "==":
		return x == c.value, nil
	case "!=":
		return x != c.value, nil
	default:
		return false, fmt.Errorf("%w: unknown operator %q", ErrPredicate, c.op)
	}
}

func (c condition) String() string {
	return fmt.Sprintf("%s %s %g", c.path, c.op, c.value)
}

// Conditions holds when every All condition holds and, if Any is non-empty, at least
// one Any condition holds.
type Conditions struct {
	name string
	all  []condition
	any  []condition
}

// Compile builds a predicate from its configuration. i is its position, used to name
// unnamed predicates.
func Compile(p config.Predicate, i int) (*Conditions, error) {
	out := &Conditions{name: p.Label(i)}
	for _, c := range p.All {
		cc, err := compileCondition(c)
		if err != nil {
			return nil, fmt.Errorf("predicate %s: %w", out.name, err)
		}
		out.all = append(out.all, cc)
	}
	for _, c := range p.Any {
		cc, err := compileCondition(c)
		if err != nil {
			return nil, fmt.Errorf("predicate %s: %w", out.name, err)
		}
		out.any = append(out.any, cc)
	}
	if len(out.all) == 0 && len(out.any) == 0 {
		return nil, fmt.Errorf("predicate %s: no conditions", out.name)
	}
	return out, nil
}

// CompileAll compiles a list of predicates in order
func CompileAll(ps []config.Predicate) ([]Predicate, error) {
	out := make([]Predicate, 0, len(ps))
	for i, p := range ps {
		c, err := Compile(p, i)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func compileCondition(c config.Condition) (condition, error) {
	switch c.Op {
	case "<", "<=", ">", ">=", "==", "!=":
	default:
		return condition{}, fmt.Errorf("unknown operator %q", c.Op)
	}
	if c.Path == "" {
		return condition{}, fmt.Errorf("condition path cannot be empty")
	}
	return condition{path: c.Path, op: c.Op, value: c.Value}, nil
}

// Name returns the predicate name
func (p *Conditions) Name() string {
	return p.name
}

// Eval evaluates the predicate. Every condition is evaluated so a bad path is reported
// even when an earlier condition already decided the result.
func (p *Conditions) Eval(v *View) (bool, error) {
	result := true
	for _, c := range p.all {
		ok, err := c.eval(v)
		if err != nil {
			return false, fmt.Errorf("%s: %w", p.name, err)
		}
		result = result && ok
	}
	if len(p.any) > 0 {
		anyOK := false
		for _, c := range p.any {
			ok, err := c.eval(v)
			if err != nil {
				return false, fmt.Errorf("%s: %w", p.name, err)
			}
			anyOK = anyOK || ok
		}
		result = result && anyOK
	}
	return result, nil
}
