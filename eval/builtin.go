package eval

import (
	"math"

	"github.com/nihei9/scoreformula/value"
)

const (
	maxFactorial    = 170
	maxCombinatoric = 1000
	maxRoundPlaces  = 15

	// Integers up to 2^53 are exact in a float64.
	maxExactInteger = 1 << 53
)

func unary(fn func(x float64) float64) func(args []float64) (float64, error) {
	return func(args []float64) (float64, error) {
		return fn(args[0]), nil
	}
}

func builtins(random func() float64) []*Function {
	return []*Function{
		NumberFunction("ABS", 1, 1, "absolute value", unary(math.Abs)),
		NumberFunction("SQRT", 1, 1, "square root", func(args []float64) (float64, error) {
			if args[0] < 0 {
				return 0, Fail(ErrDomain, "SQRT of a negative number %v", value.FormatNumber(args[0]))
			}
			return math.Sqrt(args[0]), nil
		}),
		NumberFunction("ROUND", 1, 2, "round half away from zero, to an optional number of decimal places", round),
		NumberFunction("FLOOR", 1, 1, "largest integer not greater than x", unary(math.Floor)),
		NumberFunction("CEIL", 1, 1, "smallest integer not less than x", unary(math.Ceil)),
		NumberFunction("TRUNC", 1, 1, "integer part of x", unary(math.Trunc)),
		NumberFunction("SIGN", 1, 1, "-1, 0, or 1 by the sign of x", unary(sign)),

		NumberFunction("SIN", 1, 1, "sine of x radians", unary(math.Sin)),
		NumberFunction("COS", 1, 1, "cosine of x radians", unary(math.Cos)),
		NumberFunction("TAN", 1, 1, "tangent of x radians", unary(math.Tan)),
		NumberFunction("ASIN", 1, 1, "arcsine in radians", inRange("ASIN", -1, 1, math.Asin)),
		NumberFunction("ACOS", 1, 1, "arccosine in radians", inRange("ACOS", -1, 1, math.Acos)),
		NumberFunction("ATAN", 1, 1, "arctangent in radians", unary(math.Atan)),
		NumberFunction("ATAN2", 2, 2, "arctangent of y / x in radians", func(args []float64) (float64, error) {
			return math.Atan2(args[0], args[1]), nil
		}),
		NumberFunction("SINH", 1, 1, "hyperbolic sine", unary(math.Sinh)),
		NumberFunction("COSH", 1, 1, "hyperbolic cosine", unary(math.Cosh)),
		NumberFunction("TANH", 1, 1, "hyperbolic tangent", unary(math.Tanh)),
		NumberFunction("ASINH", 1, 1, "inverse hyperbolic sine", unary(math.Asinh)),
		NumberFunction("ACOSH", 1, 1, "inverse hyperbolic cosine", inRange("ACOSH", 1, math.Inf(1), math.Acosh)),
		NumberFunction("ATANH", 1, 1, "inverse hyperbolic tangent", func(args []float64) (float64, error) {
			if args[0] <= -1 || args[0] >= 1 {
				return 0, Fail(ErrDomain, "ATANH is defined on (-1, 1); got %v", value.FormatNumber(args[0]))
			}
			return math.Atanh(args[0]), nil
		}),

		NumberFunction("EXP", 1, 1, "e raised to x", unary(math.Exp)),
		NumberFunction("LOG", 1, 2, "natural logarithm, or logarithm to an optional base", logarithm),
		NumberFunction("LOG10", 1, 1, "base-10 logarithm", positive("LOG10", math.Log10)),
		NumberFunction("LOG2", 1, 1, "base-2 logarithm", positive("LOG2", math.Log2)),
		NumberFunction("POW", 2, 2, "x raised to y", func(args []float64) (float64, error) {
			return power(args[0], args[1])
		}),
		NumberFunction("HYPOT", 2, 2, "sqrt(x*x + y*y)", func(args []float64) (float64, error) {
			return math.Hypot(args[0], args[1]), nil
		}),

		NumberFunction("MIN", 1, -1, "smallest argument", func(args []float64) (float64, error) {
			m := args[0]
			for _, a := range args[1:] {
				m = math.Min(m, a)
			}
			return m, nil
		}),
		NumberFunction("MAX", 1, -1, "largest argument", func(args []float64) (float64, error) {
			m := args[0]
			for _, a := range args[1:] {
				m = math.Max(m, a)
			}
			return m, nil
		}),
		NumberFunction("SUM", 1, -1, "sum of the arguments", func(args []float64) (float64, error) {
			return sum(args), nil
		}),
		NumberFunction("AVG", 1, -1, "arithmetic mean of the arguments", func(args []float64) (float64, error) {
			return sum(args) / float64(len(args)), nil
		}),
		{
			Name:          "COUNT",
			MinArgs:       0,
			MaxArgs:       -1,
			Description:   "number of arguments that aren't null",
			Deterministic: true,
			Call: func(args []value.Value) (value.Value, error) {
				n := 0
				for _, a := range args {
					if !a.IsNull() {
						n++
					}
				}
				return value.Number(float64(n)), nil
			},
		},

		NumberFunction("FACTORIAL", 1, 1, "n! for an integer n in 0..170", factorial),
		NumberFunction("COMBINATION", 2, 2, "number of k-subsets of n elements, n <= 1000", combination),
		NumberFunction("PERMUTATION", 2, 2, "number of ordered k-subsets of n elements, n <= 1000", permutation),
		NumberFunction("RADIANS", 1, 1, "degrees to radians", unary(func(x float64) float64 {
			return x * math.Pi / 180
		})),
		NumberFunction("DEGREES", 1, 1, "radians to degrees", unary(func(x float64) float64 {
			return x * 180 / math.Pi
		})),
		NumberFunction("GCD", 1, -1, "greatest common divisor of integers", func(args []float64) (float64, error) {
			return foldIntegers("GCD", args, gcd)
		}),
		NumberFunction("LCM", 1, -1, "least common multiple of integers", func(args []float64) (float64, error) {
			return foldIntegers("LCM", args, lcm)
		}),
		NumberFunction("CLAMP", 3, 3, "x limited to [lo, hi]", func(args []float64) (float64, error) {
			x, lo, hi := args[0], args[1], args[2]
			if lo > hi {
				return 0, Fail(ErrDomain, "CLAMP bounds are reversed: %v > %v", value.FormatNumber(lo), value.FormatNumber(hi))
			}
			return math.Max(lo, math.Min(hi, x)), nil
		}),
		{
			Name:          "RANDOM",
			MinArgs:       0,
			MaxArgs:       0,
			Description:   "uniformly distributed number in [0, 1)",
			Deterministic: false,
			Call: func(_ []value.Value) (value.Value, error) {
				return value.Number(random()), nil
			},
		},
	}
}

func round(args []float64) (float64, error) {
	places := 0.0
	if len(args) > 1 {
		places = args[1]
	}
	if places != math.Trunc(places) || math.Abs(places) > maxRoundPlaces {
		return 0, Fail(ErrDomain, "ROUND places must be an integer in -%v..%v; got %v", maxRoundPlaces, maxRoundPlaces, value.FormatNumber(places))
	}
	if places == 0 {
		return math.Round(args[0]), nil
	}
	p := math.Pow(10, math.Abs(places))
	if places < 0 {
		return math.Round(args[0]/p) * p, nil
	}
	return math.Round(args[0]*p) / p, nil
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func inRange(name string, lo, hi float64, fn func(x float64) float64) func(args []float64) (float64, error) {
	return func(args []float64) (float64, error) {
		if args[0] < lo || args[0] > hi {
			return 0, Fail(ErrDomain, "%v is defined on [%v, %v]; got %v", name, lo, hi, value.FormatNumber(args[0]))
		}
		return fn(args[0]), nil
	}
}

func positive(name string, fn func(x float64) float64) func(args []float64) (float64, error) {
	return func(args []float64) (float64, error) {
		if args[0] <= 0 {
			return 0, Fail(ErrDomain, "%v of a non-positive number %v", name, value.FormatNumber(args[0]))
		}
		return fn(args[0]), nil
	}
}

func logarithm(args []float64) (float64, error) {
	if args[0] <= 0 {
		return 0, Fail(ErrDomain, "LOG of a non-positive number %v", value.FormatNumber(args[0]))
	}
	if len(args) == 1 {
		return math.Log(args[0]), nil
	}
	base := args[1]
	if base <= 0 || base == 1 {
		return 0, Fail(ErrDomain, "LOG base must be positive and not 1; got %v", value.FormatNumber(base))
	}
	return math.Log(args[0]) / math.Log(base), nil
}

// power is x^y except that 0^0 is undefined.
func power(x, y float64) (float64, error) {
	if x == 0 && y == 0 {
		return 0, Fail(ErrDomain, "0 ^ 0 is undefined")
	}
	return math.Pow(x, y), nil
}

func sum(args []float64) float64 {
	s := 0.0
	for _, a := range args {
		s += a
	}
	return s
}

func isInteger(x float64) bool {
	return x == math.Trunc(x) && math.Abs(x) <= maxExactInteger
}

func factorial(args []float64) (float64, error) {
	n := args[0]
	if !isInteger(n) || n < 0 || n > maxFactorial {
		return 0, Fail(ErrDomain, "FACTORIAL takes an integer in 0..%v; got %v", maxFactorial, value.FormatNumber(n))
	}
	f := 1.0
	for i := 2.0; i <= n; i++ {
		f *= i
	}
	return f, nil
}

func combinatoricArgs(name string, args []float64) (float64, float64, error) {
	n, k := args[0], args[1]
	if !isInteger(n) || !isInteger(k) || n < 0 || k < 0 {
		return 0, 0, Fail(ErrDomain, "%v takes non-negative integers; got %v", name, formatArgs(args))
	}
	if n > maxCombinatoric {
		return 0, 0, Fail(ErrDomain, "%v takes n <= %v; got %v", name, maxCombinatoric, value.FormatNumber(n))
	}
	if k > n {
		return 0, 0, Fail(ErrDomain, "%v takes k <= n; got %v", name, formatArgs(args))
	}
	return n, k, nil
}

func combination(args []float64) (float64, error) {
	n, k, err := combinatoricArgs("COMBINATION", args)
	if err != nil {
		return 0, err
	}
	if k > n-k {
		k = n - k
	}
	c := 1.0
	for i := 1.0; i <= k; i++ {
		c = c * (n - k + i) / i
	}
	return math.Round(c), nil
}

func permutation(args []float64) (float64, error) {
	n, k, err := combinatoricArgs("PERMUTATION", args)
	if err != nil {
		return 0, err
	}
	p := 1.0
	for i := n - k + 1; i <= n; i++ {
		p *= i
	}
	return p, nil
}

func foldIntegers(name string, args []float64, fn func(a, b float64) float64) (float64, error) {
	for _, a := range args {
		if !isInteger(a) {
			return 0, Fail(ErrDomain, "%v takes integers; got %v", name, formatArgs(args))
		}
	}
	acc := math.Abs(args[0])
	for _, a := range args[1:] {
		acc = fn(acc, math.Abs(a))
	}
	return acc, nil
}

func gcd(a, b float64) float64 {
	for b != 0 {
		a, b = b, math.Mod(a, b)
	}
	return a
}

func lcm(a, b float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}
