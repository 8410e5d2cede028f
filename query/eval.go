package query

import (
	"errors"
	"fmt"

	"github.com/vegasq/csvcat/qerr"
	"github.com/vegasq/csvcat/value"
)

// Predicate decides whether a row matches a WHERE clause.
type Predicate interface {
	Eval(row value.Row) (bool, error)
}

// matchAll is the predicate of a query without WHERE.
type matchAll struct{}

func (matchAll) Eval(value.Row) (bool, error) { return true, nil }

// Compile binds expr to schema and type-checks it.
//
// Every column reference must name a schema column (SchemaError otherwise).
// Both sides of a comparison must have the same type after literal
// resolution: an Int64 literal compared with a Float64 operand is widened,
// a string literal compared with a DateTime operand is parsed as a
// DateTime. Any other pairing, or ordering Boolean operands, is a
// TypeMismatchError. A nil expr matches every row.
func Compile(expr Expression, schema value.Schema) (Predicate, error) {
	if expr == nil {
		return matchAll{}, nil
	}
	return compile(expr, schema)
}

func compile(expr Expression, schema value.Schema) (Predicate, error) {
	switch e := expr.(type) {
	case *BinaryExpr:
		left, err := compile(e.Left, schema)
		if err != nil {
			return nil, err
		}
		right, err := compile(e.Right, schema)
		if err != nil {
			return nil, err
		}
		if e.Operator == TokenAnd {
			return &andPredicate{left: left, right: right}, nil
		}
		return &orPredicate{left: left, right: right}, nil

	case *NotExpr:
		inner, err := compile(e.Expr, schema)
		if err != nil {
			return nil, err
		}
		return &notPredicate{inner: inner}, nil

	case *IsNullExpr:
		idx, err := resolveColumn(e.Column, schema)
		if err != nil {
			return nil, err
		}
		return &isNullPredicate{index: idx, negated: e.Negated}, nil

	case *ComparisonExpr:
		return compileComparison(e, schema)

	default:
		return nil, fmt.Errorf("unsupported expression %T", expr)
	}
}

func resolveColumn(ref *ColumnRef, schema value.Schema) (int, error) {
	idx, ok := schema.Index(ref.Name)
	if !ok {
		err := qerr.UnknownColumn(ref.Name, schema.Names())
		err.Pos = ref.Pos
		return -1, err
	}
	return idx, nil
}

// operand is a bound comparison side: a column position or a constant.
type operand struct {
	column int // -1 for a literal
	lit    value.Value
	typ    value.ColumnType
}

func (o operand) get(row value.Row) value.Value {
	if o.column >= 0 {
		return row[o.column]
	}
	return o.lit
}

func (o operand) isLiteral() bool { return o.column < 0 }

func bindOperand(op Operand, schema value.Schema) (operand, error) {
	switch o := op.(type) {
	case *ColumnRef:
		idx, err := resolveColumn(o, schema)
		if err != nil {
			return operand{}, err
		}
		return operand{column: idx, typ: schema.Column(idx).Type}, nil
	case *Literal:
		typ, ok := o.Value.Kind().ColumnType()
		if !ok {
			return operand{}, qerr.Parse(o.Pos, o.String(), "NULL literal in comparison")
		}
		return operand{column: -1, lit: o.Value, typ: typ}, nil
	default:
		return operand{}, fmt.Errorf("unsupported operand %T", op)
	}
}

// maxExactInt bounds the integers a float64 holds exactly.
const maxExactInt = 1 << 53

// coerceLiteral converts a literal to target. Conversions that would change
// the literal's value are type mismatches.
func coerceLiteral(o operand, target value.ColumnType) (operand, bool, error) {
	switch {
	case o.typ == value.Int64 && target == value.Float64:
		n := o.lit.AsInt()
		if n > maxExactInt || n < -maxExactInt {
			return o, false, qerr.TypeMismatch(target.String(), o.typ.String(),
				"integer %d has no exact Float64 value", n)
		}
		o.lit = value.Float(float64(n))
	case o.typ == value.String && target == value.DateTime:
		ts, ok := value.ParseTime(o.lit.AsString())
		if !ok {
			return o, false, qerr.TypeMismatch(target.String(), o.typ.String(),
				"cannot interpret %q as DateTime", o.lit.AsString())
		}
		o.lit = value.Time(ts)
	default:
		return o, false, nil
	}
	o.typ = target
	return o, true, nil
}

func compileComparison(e *ComparisonExpr, schema value.Schema) (Predicate, error) {
	left, err := bindOperand(e.Left, schema)
	if err != nil {
		return nil, err
	}
	right, err := bindOperand(e.Right, schema)
	if err != nil {
		return nil, err
	}

	if left.typ != right.typ {
		var coerced bool
		if right.isLiteral() {
			right, coerced, err = coerceLiteral(right, left.typ)
		}
		if err == nil && !coerced && left.isLiteral() {
			left, coerced, err = coerceLiteral(left, right.typ)
		}
		if err != nil {
			return nil, withPos(err, e.Pos)
		}
		if !coerced {
			return nil, withPos(qerr.TypeMismatch(left.typ.String(), right.typ.String(),
				"cannot compare %s (%s) with %s (%s)", e.Left, left.typ, e.Right, right.typ), e.Pos)
		}
	}

	if left.typ == value.Boolean && e.Operator != TokenEqual && e.Operator != TokenNotEqual {
		return nil, withPos(qerr.TypeMismatch(left.typ.String(), right.typ.String(),
			"operator %s is not defined for Boolean", e.Operator), e.Pos)
	}

	return &comparisonPredicate{left: left, op: e.Operator, right: right}, nil
}

func withPos(err error, pos int) error {
	var qe *qerr.Error
	if errors.As(err, &qe) {
		qe.Pos = pos
	}
	return err
}

type andPredicate struct{ left, right Predicate }

// Eval short-circuits: right is not evaluated when left is false.
func (p *andPredicate) Eval(row value.Row) (bool, error) {
	ok, err := p.left.Eval(row)
	if err != nil || !ok {
		return false, err
	}
	return p.right.Eval(row)
}

type orPredicate struct{ left, right Predicate }

// Eval short-circuits: right is not evaluated when left is true.
func (p *orPredicate) Eval(row value.Row) (bool, error) {
	ok, err := p.left.Eval(row)
	if err != nil || ok {
		return ok, err
	}
	return p.right.Eval(row)
}

type notPredicate struct{ inner Predicate }

func (p *notPredicate) Eval(row value.Row) (bool, error) {
	ok, err := p.inner.Eval(row)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type isNullPredicate struct {
	index   int
	negated bool
}

func (p *isNullPredicate) Eval(row value.Row) (bool, error) {
	return row[p.index].IsNull() != p.negated, nil
}

type comparisonPredicate struct {
	left  operand
	op    TokenType
	right operand
}

// Eval compares both sides. A Null on either side never matches.
func (p *comparisonPredicate) Eval(row value.Row) (bool, error) {
	l, r := p.left.get(row), p.right.get(row)
	if l.IsNull() || r.IsNull() {
		return false, nil
	}

	c, err := value.Compare(l, r)
	if err != nil {
		return false, err
	}

	switch p.op {
	case TokenEqual:
		return c == 0, nil
	case TokenNotEqual:
		return c != 0, nil
	case TokenLess:
		return c < 0, nil
	case TokenGreater:
		return c > 0, nil
	case TokenLessEqual:
		return c <= 0, nil
	case TokenGreaterEqual:
		return c >= 0, nil
	default:
		return false, fmt.Errorf("unsupported operator %s", p.op)
	}
}
