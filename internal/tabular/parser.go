package tabular

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader is returned when the input contains no non-blank line
var ErrNoHeader = errors.New("tabular: input has no header line")

// Options controls how rows that disagree with the header are handled
type Options struct {
	// Lenient keeps rows whose field count differs from the header, padding
	// missing cells with "" and ignoring extra ones. The default drops them.
	Lenient bool
}

// Stats accounts for every non-blank line after the header:
// Parsed + Dropped == Lines.
type Stats struct {
	Lines   int `json:"lines"`
	Parsed  int `json:"parsed"`
	Dropped int `json:"dropped"`
}

// Result is a fully materialized parse
type Result struct {
	Headers []string
	Records []Record
	Stats   Stats
}

// SplitLine splits one line on commas outside double quotes. A double quote
// toggles the quoted state and is not kept; every value is trimmed.
func SplitLine(line string) []string {
	values := make([]string, 0, 16)
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			values = append(values, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	return append(values, strings.TrimSpace(current.String()))
}

// Parse turns newline separated text into records keyed by the header row.
// Malformed rows never fail the parse; they are counted in Stats.Dropped.
func Parse(text string, opts Options) (*Result, error) {
	return parse(context.Background(), text, opts)
}

// ParseReader reads r to EOF and parses it, checking ctx between lines
func ParseReader(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return parse(ctx, string(data), opts)
}

func parse(ctx context.Context, text string, opts Options) (*Result, error) {
	lines := strings.Split(text, "\n")

	res := &Result{}
	headerSeen := false

	for i, line := range lines {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !headerSeen {
			for _, h := range SplitLine(strings.TrimPrefix(line, "\ufeff")) {
				res.Headers = append(res.Headers, strings.ReplaceAll(h, `"`, ""))
			}
			headerSeen = true
			continue
		}

		res.Stats.Lines++
		values := SplitLine(line)
		if len(values) != len(res.Headers) && !opts.Lenient {
			res.Stats.Dropped++
			continue
		}

		rec := make(Record, len(res.Headers))
		for j, h := range res.Headers {
			if j < len(values) {
				rec[h] = values[j]
			} else {
				rec[h] = ""
			}
		}
		res.Records = append(res.Records, rec)
		res.Stats.Parsed++
	}

	if !headerSeen {
		return nil, ErrNoHeader
	}
	return res, nil
}
