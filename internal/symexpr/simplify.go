package symexpr

import (
	"math"
	"sort"
)

// normalize rewrites an expression into the engine's canonical form:
// products are expanded over sums, like terms are collected, constants are
// folded, and function calls with fully-numeric arguments are evaluated
// when an implementation is registered.
func (en *Engine) normalize(e Expr) Expr {
	switch e.k {
	case kindNum, kindSym:
		return e
	case kindAdd:
		args := make([]Expr, len(e.args))
		for i, a := range e.args {
			args[i] = en.normalize(a)
		}
		return en.normAdd(args)
	case kindMul:
		args := make([]Expr, len(e.args))
		for i, a := range e.args {
			args[i] = en.normalize(a)
		}
		return en.normMul(args)
	case kindPow:
		return en.normPow(en.normalize(e.args[0]), en.normalize(e.args[1]))
	case kindCall:
		args := make([]Expr, len(e.args))
		for i, a := range e.args {
			args[i] = en.normalize(a)
		}
		return en.normCall(e.name, args)
	}
	return e
}

// normAdd flattens nested sums and collects like terms. Inputs must already
// be normalized.
func (en *Engine) normAdd(args []Expr) Expr {
	var flat []Expr
	for _, a := range args {
		if a.k == kindAdd {
			flat = append(flat, a.args...)
		} else {
			flat = append(flat, a)
		}
	}

	constant := 0.0
	coeffs := map[string]float64{}
	rests := map[string]Expr{}
	for _, t := range flat {
		coeff, rest := splitCoeff(t)
		if n, ok := rest.IsNum(); ok {
			constant += coeff * n
			continue
		}
		key := rest.String()
		coeffs[key] += coeff
		rests[key] = rest
	}

	keys := make([]string, 0, len(coeffs))
	for k := range coeffs {
		if coeffs[k] != 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	terms := make([]Expr, 0, len(keys)+1)
	for _, k := range keys {
		terms = append(terms, withCoeff(coeffs[k], rests[k]))
	}
	if constant != 0 || len(terms) == 0 {
		terms = append(terms, Num(constant))
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return add(terms...)
}

// normMul flattens nested products, distributes over any sum factor, folds
// the numeric coefficient and merges repeated bases into powers. Inputs must
// already be normalized.
func (en *Engine) normMul(args []Expr) Expr {
	var flat []Expr
	for _, a := range args {
		if a.k == kindMul {
			flat = append(flat, a.args...)
		} else {
			flat = append(flat, a)
		}
	}

	// Distribute over sums so polynomial identities cancel structurally.
	for i, f := range flat {
		if f.k != kindAdd {
			continue
		}
		others := make([]Expr, 0, len(flat)-1)
		others = append(others, flat[:i]...)
		others = append(others, flat[i+1:]...)
		terms := make([]Expr, 0, len(f.args))
		for _, summand := range f.args {
			product := make([]Expr, 0, len(others)+1)
			product = append(product, others...)
			product = append(product, summand)
			terms = append(terms, en.normMul(product))
		}
		return en.normAdd(terms)
	}

	coeff := 1.0
	type entry struct {
		base Expr
		exps []Expr
	}
	order := []string{}
	bases := map[string]*entry{}
	for _, f := range flat {
		if n, ok := f.IsNum(); ok {
			coeff *= n
			continue
		}
		base, exp := f, Num(1)
		if f.k == kindPow {
			base, exp = f.args[0], f.args[1]
		}
		key := base.String()
		ent, ok := bases[key]
		if !ok {
			ent = &entry{base: base}
			bases[key] = ent
			order = append(order, key)
		}
		ent.exps = append(ent.exps, exp)
	}
	if coeff == 0 {
		return Num(0)
	}

	sort.Strings(order)
	factors := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		ent := bases[key]
		expSum := en.normAdd(ent.exps)
		f := en.normPow(ent.base, expSum)
		if n, ok := f.IsNum(); ok {
			coeff *= n
			continue
		}
		factors = append(factors, f)
	}

	if len(factors) == 0 {
		return Num(coeff)
	}
	if coeff != 1 {
		factors = append([]Expr{Num(coeff)}, factors...)
	}
	if len(factors) == 1 {
		return factors[0]
	}
	return mul(factors...)
}

// smallPowLimit bounds the integer exponents for which a power of a sum is
// expanded into a product; larger exponents stay symbolic.
const smallPowLimit = 8

// normPow simplifies a power. Inputs must already be normalized.
func (en *Engine) normPow(base, exp Expr) Expr {
	if n, ok := exp.IsNum(); ok {
		if n == 0 {
			return Num(1)
		}
		if n == 1 {
			return base
		}
		// Expanding keeps polynomial identities structurally equal, which is
		// what constraint comparison relies on.
		if base.k == kindAdd && n == math.Trunc(n) && n > 1 && n <= smallPowLimit {
			factors := make([]Expr, int(n))
			for i := range factors {
				factors[i] = base
			}
			return en.normMul(factors)
		}
	}
	if b, ok := base.IsNum(); ok {
		if b == 1 {
			return Num(1)
		}
		if n, ok := exp.IsNum(); ok {
			if b == 0 && n > 0 {
				return Num(0)
			}
			v := math.Pow(b, n)
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				return Num(v)
			}
		}
	}
	if base.k == kindPow {
		return en.normPow(base.args[0], en.normMul([]Expr{base.args[1], exp}))
	}
	return pow(base, exp)
}

// normCall folds a call whose arguments are all numeric, provided an
// implementation is registered and succeeds; otherwise the call stays
// symbolic. Inputs must already be normalized.
func (en *Engine) normCall(name string, args []Expr) Expr {
	fn, ok := en.funcs[name]
	if ok {
		nums := make([]float64, len(args))
		allNum := true
		for i, a := range args {
			n, isNum := a.IsNum()
			if !isNum {
				allNum = false
				break
			}
			nums[i] = n
		}
		if allNum {
			if v, err := fn(nums); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
				return Num(v)
			}
		}
	}
	return call(name, args...)
}
