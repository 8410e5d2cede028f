package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/csvcat/qerr"
	"github.com/vegasq/csvcat/value"
)

var ordersSchema = value.NewSchema(
	value.Column{Name: "userId", Type: value.String},
	value.Column{Name: "id", Type: value.Int64},
	value.Column{Name: "amount", Type: value.Float64},
	value.Column{Name: "dateTime", Type: value.DateTime},
	value.Column{Name: "paid", Type: value.Boolean},
)

func orderRow(user string, id int64, amount float64, ts string, paid bool) value.Row {
	t, _ := value.ParseTime(ts)
	return value.Row{value.Str(user), value.Int(id), value.Float(amount), value.Time(t), value.Bool(paid)}
}

func compileWhere(t *testing.T, where string) (Predicate, error) {
	t.Helper()
	q, err := Parse("SELECT * FROM 'orders.csv' WHERE " + where)
	require.NoError(t, err)
	return Compile(q.Filter, ordersSchema)
}

func TestCompile_Evaluates(t *testing.T) {
	row := orderRow("101", 2, 26.0, "2023-02-14 12:36:00", true)

	tests := []struct {
		where string
		want  bool
	}{
		{"id = 2", true},
		{"id <> 2", false},
		{"id < 3", true},
		{"id >= 3", false},
		{"2 = id", true},
		{"amount = 26", true},
		{"amount > 25.5", true},
		{"amount <= 25.99", false},
		{"userId = '101'", true},
		{"userId > '100'", true},
		{"userId = '10'", false},
		{"dateTime > '2023-02-14 12:35:00'", true},
		{"dateTime < '2023-02-14'", false},
		{"dateTime = '2023-02-14T12:36:00Z'", true},
		{"paid = TRUE", true},
		{"paid <> true", false},
		{"id = 2 AND userId = '101'", true},
		{"id = 1 OR userId = '101'", true},
		{"NOT id = 2", false},
		{"NOT (id = 1 OR id = 3)", true},
		{"id = id", true},
		{"userId IS NULL", false},
		{"userId IS NOT NULL", true},
		{"1 = 1.0", true},
		{"amount < 9007199254740992", true},
		{"amount > -9007199254740992", true},
	}

	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			pred, err := compileWhere(t, tt.where)
			require.NoError(t, err)
			got, err := pred.Eval(row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_TypeErrors(t *testing.T) {
	tests := []struct {
		where string
		kind  error
	}{
		{"userId = 101", qerr.ErrTypeMismatch},
		{"id = '2'", qerr.ErrTypeMismatch},
		{"id = 2.0", qerr.ErrTypeMismatch},
		{"amount = id", qerr.ErrTypeMismatch},
		{"paid = 1", qerr.ErrTypeMismatch},
		{"paid = 'true'", qerr.ErrTypeMismatch},
		{"paid < TRUE", qerr.ErrTypeMismatch},
		{"dateTime > 'soon'", qerr.ErrTypeMismatch},
		{"dateTime > 20230214", qerr.ErrTypeMismatch},
		{"amount = 9007199254740993", qerr.ErrTypeMismatch},
		{"-9007199254740993 < amount", qerr.ErrTypeMismatch},
		{"total = 1", qerr.ErrSchema},
		{"id = 1 AND Amount > 2", qerr.ErrSchema},
		{"missing IS NULL", qerr.ErrSchema},
	}

	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			pred, err := compileWhere(t, tt.where)
			assert.Nil(t, pred)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestCompile_MismatchCarriesTypes(t *testing.T) {
	_, err := compileWhere(t, "userId = 101")
	var qe *qerr.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "String", qe.Expected)
	assert.Equal(t, "Int64", qe.Actual)
	assert.Equal(t, 33, qe.Pos)
	assert.Contains(t, err.Error(), "cannot compare userId (String) with 101 (Int64)")
}

func TestCompile_NullNeverMatches(t *testing.T) {
	row := value.Row{value.Str("101"), value.Null(), value.Null(), value.Null(), value.Null()}

	for _, where := range []string{"id = 1", "id <> 1", "id < 1", "amount >= 0", "dateTime > '2000-01-01'", "paid = TRUE", "paid <> TRUE"} {
		pred, err := compileWhere(t, where)
		require.NoError(t, err)
		got, err := pred.Eval(row)
		require.NoError(t, err)
		assert.False(t, got, where)
	}

	pred, err := compileWhere(t, "id IS NULL AND NOT paid = TRUE")
	require.NoError(t, err)
	got, err := pred.Eval(row)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestCompile_NilMatchesAll(t *testing.T) {
	pred, err := Compile(nil, ordersSchema)
	require.NoError(t, err)
	ok, err := pred.Eval(nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

// countingPredicate records how often it is evaluated.
type countingPredicate struct {
	result bool
	calls  int
}

func (c *countingPredicate) Eval(value.Row) (bool, error) {
	c.calls++
	return c.result, nil
}

func TestPredicate_ShortCircuit(t *testing.T) {
	left := &countingPredicate{result: false}
	right := &countingPredicate{result: true}

	ok, err := (&andPredicate{left: left, right: right}).Eval(nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, right.calls, "AND skips right when left is false")

	left.result = true
	ok, err = (&orPredicate{left: left, right: right}).Eval(nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, right.calls, "OR skips right when left is true")

	left.result = false
	ok, err = (&orPredicate{left: left, right: right}).Eval(nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, right.calls)
}

func TestCompile_DoesNotMutateQuery(t *testing.T) {
	q, err := Parse("SELECT * FROM 'orders.csv' WHERE amount > 26 AND dateTime < '2023-03-01'")
	require.NoError(t, err)
	before := q.String()

	_, err = Compile(q.Filter, ordersSchema)
	require.NoError(t, err)
	assert.Equal(t, before, q.String())

	cmp := q.Filter.(*BinaryExpr).Left.(*ComparisonExpr)
	assert.Equal(t, value.KindInt64, cmp.Right.(*Literal).Value.Kind())
}

func TestCompile_DateTimeLiteralUTC(t *testing.T) {
	pred, err := compileWhere(t, "dateTime = '2023-02-14 12:36:00'")
	require.NoError(t, err)

	ts := time.Date(2023, 2, 14, 12, 36, 0, 0, time.UTC)
	row := value.Row{value.Str("x"), value.Int(1), value.Float(1), value.Time(ts), value.Bool(false)}
	ok, err := pred.Eval(row)
	require.NoError(t, err)
	assert.True(t, ok)
}
