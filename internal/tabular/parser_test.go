package tabular

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{name: "plain", line: "a,b,c", want: []string{"a", "b", "c"}},
		{name: "trims values", line: " a , b ,c ", want: []string{"a", "b", "c"}},
		{name: "comma inside quotes", line: `2020,"TRUMP, DONALD J.",REPUBLICAN`, want: []string{"2020", "TRUMP, DONALD J.", "REPUBLICAN"}},
		{name: "quotes stripped mid value", line: `ab"c,d"e,f`, want: []string{"abc,de", "f"}},
		{name: "empty cells", line: ",,", want: []string{"", "", ""}},
		{name: "unterminated quote swallows rest", line: `a,"b,c`, want: []string{"a", "b,c"}},
		{name: "empty line", line: "", want: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLine(tt.line))
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("header and records", func(t *testing.T) {
		res, err := Parse("\"state\",votes\r\nOHIO,100\r\n\r\nVERMONT,200\n", Options{})
		require.NoError(t, err)

		assert.Equal(t, []string{"state", "votes"}, res.Headers)
		require.Len(t, res.Records, 2)
		assert.Equal(t, "OHIO", res.Records[0]["state"])
		assert.Equal(t, "200", res.Records[1]["votes"])
		assert.Equal(t, Stats{Lines: 2, Parsed: 2, Dropped: 0}, res.Stats)
	})

	t.Run("strict drops mismatched rows in order", func(t *testing.T) {
		res, err := Parse("a,b\n1,2\n3\n4,5,6\n7,8\n", Options{})
		require.NoError(t, err)

		require.Len(t, res.Records, 2)
		assert.Equal(t, "1", res.Records[0]["a"])
		assert.Equal(t, "7", res.Records[1]["a"])
		assert.Equal(t, 2, res.Stats.Dropped)
	})

	t.Run("lenient pads and truncates", func(t *testing.T) {
		res, err := Parse("a,b\n1\n4,5,6\n", Options{Lenient: true})
		require.NoError(t, err)

		require.Len(t, res.Records, 2)
		assert.Equal(t, Record{"a": "1", "b": ""}, res.Records[0])
		assert.Equal(t, Record{"a": "4", "b": "5"}, res.Records[1])
		assert.Zero(t, res.Stats.Dropped)
	})

	t.Run("no header", func(t *testing.T) {
		_, err := Parse("\n  \n", Options{})
		assert.ErrorIs(t, err, ErrNoHeader)
	})

	t.Run("header only", func(t *testing.T) {
		res, err := Parse("a,b\n", Options{})
		require.NoError(t, err)
		assert.Empty(t, res.Records)
		assert.Zero(t, res.Stats.Lines)
	})
}

func TestParse_RowConservation(t *testing.T) {
	inputs := []string{
		"a,b\n1,2\n3,4\n",
		"a,b\n1\n2,3,4\n\n5,6\n   \n",
		"a,b,c\n\"x,y\",z,w\nonly\n\"q\",r\n",
		"h\n1\n2\n3\n,\n",
	}

	for _, in := range inputs {
		for _, lenient := range []bool{false, true} {
			res, err := Parse(in, Options{Lenient: lenient})
			require.NoError(t, err)

			nonBlank := 0
			for _, l := range strings.Split(in, "\n") {
				if strings.TrimSpace(l) != "" {
					nonBlank++
				}
			}
			nonBlank-- // header

			assert.Equal(t, nonBlank, res.Stats.Lines, "input %q", in)
			assert.Equal(t, res.Stats.Lines, res.Stats.Parsed+res.Stats.Dropped, "input %q", in)
			assert.Len(t, res.Records, res.Stats.Parsed)
		}
	}
}

func TestParseReader(t *testing.T) {
	t.Run("reads all input", func(t *testing.T) {
		res, err := ParseReader(context.Background(), strings.NewReader("a\n1\n2\n"), Options{})
		require.NoError(t, err)
		assert.Len(t, res.Records, 2)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := ParseReader(ctx, strings.NewReader("a\n1\n"), Options{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRecordAccessors(t *testing.T) {
	rec := Record{
		"votes":  " 1200 ",
		"bad":    "abc",
		"prefix": "12 votes",
		"range":  "220.5",
		"nan":    "NaN",
		"blank":  "  ",
	}

	tests := []struct {
		name      string
		field     string
		wantInt   int
		wantFloat float64
	}{
		{name: "integer", field: "votes", wantInt: 1200, wantFloat: 1200},
		{name: "non numeric", field: "bad", wantInt: 0, wantFloat: 0},
		{name: "numeric prefix", field: "prefix", wantInt: 12, wantFloat: 12},
		{name: "decimal", field: "range", wantInt: 220, wantFloat: 220.5},
		{name: "nan", field: "nan", wantInt: 0, wantFloat: 0},
		{name: "blank", field: "blank", wantInt: 0, wantFloat: 0},
		{name: "missing", field: "nope", wantInt: 0, wantFloat: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantInt, rec.Int(tt.field))
			assert.Equal(t, tt.wantFloat, rec.Float(tt.field))
		})
	}

	assert.Equal(t, "1200", rec.Field("votes", "x"))
	assert.Equal(t, "x", rec.Field("blank", "x"))
	assert.Equal(t, "Unknown", rec.Field("nope", "Unknown"))
	assert.True(t, rec.Has("bad"))
	assert.False(t, rec.Has("blank"))
}
