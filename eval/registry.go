package eval

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"

	verr "github.com/nihei9/scoreformula/error"
	"github.com/nihei9/scoreformula/token"
	"github.com/nihei9/scoreformula/value"
)

// Function is a named function formulas can call. MaxArgs is negative for variadic functions.
type Function struct {
	Name        string
	MinArgs     int
	MaxArgs     int
	Description string

	// Deterministic is false for functions that may return different values for the same arguments.
	Deterministic bool

	Call func(args []value.Value) (value.Value, error)
}

func (f *Function) accepts(n int) bool {
	if n < f.MinArgs {
		return false
	}
	return f.MaxArgs < 0 || n <= f.MaxArgs
}

// Signature returns a description of the accepted arguments such as `ROUND(x[, x])` or `MAX(x, ...)`.
func (f *Function) Signature() string {
	var params []string
	for i := 0; i < f.MinArgs; i++ {
		params = append(params, "x")
	}
	switch {
	case f.MaxArgs < 0:
		params = append(params, "...")
	case f.MaxArgs > f.MinArgs:
		opt := strings.Repeat(", x", f.MaxArgs-f.MinArgs)
		if f.MinArgs == 0 {
			opt = opt[2:]
		}
		return fmt.Sprintf("%v(%v[%v])", f.Name, strings.Join(params, ", "), opt)
	}
	return fmt.Sprintf("%v(%v)", f.Name, strings.Join(params, ", "))
}

// Fail returns an error for a function to report a failure. The evaluator adds the position of the call.
func Fail(cause error, format string, a ...interface{}) error {
	return &verr.FormulaError{
		Cause:  cause,
		Detail: fmt.Sprintf(format, a...),
		Offset: -1,
	}
}

// NumberFunction adapts a function over numbers. Every argument must convert to a number, and a result that
// isn't finite fails with ErrDomain.
func NumberFunction(name string, min, max int, desc string, fn func(args []float64) (float64, error)) *Function {
	return &Function{
		Name:          name,
		MinArgs:       min,
		MaxArgs:       max,
		Description:   desc,
		Deterministic: true,
		Call: func(args []value.Value) (value.Value, error) {
			nums := make([]float64, len(args))
			for i, a := range args {
				f, err := a.ToNumber()
				if err != nil {
					return value.Null, Fail(ErrTypeMismatch, "argument #%v of %v: %v", i+1, name, err)
				}
				nums[i] = f
			}
			f, err := fn(nums)
			if err != nil {
				return value.Null, err
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return value.Null, Fail(ErrDomain, "%v%v is not finite", name, formatArgs(nums))
			}
			return value.Number(f), nil
		},
	}
}

func formatArgs(args []float64) string {
	s := make([]string, len(args))
	for i, a := range args {
		s[i] = value.FormatNumber(a)
	}
	return "(" + strings.Join(s, ", ") + ")"
}

type registryConfig struct {
	random func() float64
}

type RegistryOption func(config *registryConfig)

// RandomSource sets the source of RANDOM. It must return numbers in [0, 1) and be safe for concurrent use.
func RandomSource(fn func() float64) RegistryOption {
	return func(config *registryConfig) {
		config.random = fn
	}
}

// Registry maps uppercased names to functions. Functions are registered while the registry is set up, and
// calls fail for every name that isn't registered.
type Registry struct {
	mu     sync.RWMutex
	funcs  *treemap.Map
	random func() float64
}

// NewRegistry returns a registry without functions.
func NewRegistry(opts ...RegistryOption) *Registry {
	config := &registryConfig{
		random: rand.Float64,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &Registry{
		funcs:  treemap.NewWithStringComparator(),
		random: config.random,
	}
}

// DefaultRegistry returns a new registry holding the built-in functions.
func DefaultRegistry(opts ...RegistryOption) *Registry {
	r := NewRegistry(opts...)
	for _, f := range builtins(r.random) {
		if err := r.Register(f); err != nil {
			panic(fmt.Sprintf("invalid built-in function %v: %v", f.Name, err))
		}
	}
	return r
}

var funcNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (r *Registry) Register(f *Function) error {
	if f == nil || f.Call == nil {
		return fmt.Errorf("%w: a function needs an implementation", ErrInvalidFunction)
	}
	if !funcNamePattern.MatchString(f.Name) || token.IsReserved(f.Name) {
		return fmt.Errorf("%w: invalid name %q", ErrInvalidFunction, f.Name)
	}
	if f.MinArgs < 0 || (f.MaxArgs >= 0 && f.MaxArgs < f.MinArgs) {
		return fmt.Errorf("%w: %v has invalid arity %v..%v", ErrInvalidFunction, f.Name, f.MinArgs, f.MaxArgs)
	}
	name := strings.ToUpper(f.Name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.funcs.Get(name); ok {
		return fmt.Errorf("%w: %v", ErrDuplicateFunction, name)
	}
	c := *f
	c.Name = name
	r.funcs.Put(name, &c)
	return nil
}

// Lookup finds a function by name in any case.
func (r *Registry) Lookup(name string) (*Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs.Get(strings.ToUpper(name))
	if !ok {
		return nil, false
	}
	return f.(*Function), true
}

// Arity returns the bounds of the argument count of a function.
func (r *Registry) Arity(name string) (int, int, bool) {
	f, ok := r.Lookup(name)
	if !ok {
		return 0, 0, false
	}
	return f.MinArgs, f.MaxArgs, true
}

// Names returns the names of the registered functions in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := r.funcs.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.(string)
	}
	return names
}

// Functions returns the registered functions ordered by name.
func (r *Registry) Functions() []*Function {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vals := r.funcs.Values()
	funcs := make([]*Function, len(vals))
	for i, v := range vals {
		funcs[i] = v.(*Function)
	}
	return funcs
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.funcs.Size()
}
