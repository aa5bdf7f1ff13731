package digest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var (
	// ErrInconsistentStats means a chunk's total is not the sum of its label counts.
	ErrInconsistentStats = errors.New("stats total does not match label counts")
	// ErrNoQuotes means every quote in a chunk was blank.
	ErrNoQuotes = errors.New("no non-blank quotes")
)

// ParseError reports generative output that is not a valid ChunkSummary. Raw keeps the offending
// text for diagnostics.
type ParseError struct {
	Raw   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed chunk summary (len=%d): %v", len(e.Raw), e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ChunkResult is the outcome of parsing one chunk answer: exactly one of Summary (when Err is
// nil) or Err is meaningful.
type ChunkResult struct {
	Summary ChunkSummary
	Err     *ParseError
}

// OK reports whether the parse succeeded.
func (r ChunkResult) OK() bool { return r.Err == nil }

// ParseChunkSummary decodes raw strictly: a single JSON object, no unknown fields, no trailing
// data, and every field present and within bounds. Nothing is repaired.
func ParseChunkSummary(raw string) ChunkResult {
	fail := func(err error) ChunkResult {
		return ChunkResult{Err: &ParseError{Raw: raw, Cause: err}}
	}

	s := strings.TrimSpace(raw)
	if s == "" {
		return fail(io.ErrUnexpectedEOF)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.DisallowUnknownFields()
	var out ChunkSummary
	if err := dec.Decode(&out); err != nil {
		return fail(fmt.Errorf("decode: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fail(errors.New("trailing data after JSON object"))
	}
	if err := validate.Struct(out); err != nil {
		return fail(fmt.Errorf("validate: %w", err))
	}
	if st := out.Stats; st.Total != st.Positive+st.Neutral+st.Negative {
		return fail(fmt.Errorf("%w: total %d != %d+%d+%d", ErrInconsistentStats, st.Total, st.Positive, st.Neutral, st.Negative))
	}

	out.Pros = trimAll(out.Pros)
	out.Cons = trimAll(out.Cons)
	out.Quotes = trimAll(out.Quotes)
	if len(out.Quotes) == 0 {
		return fail(ErrNoQuotes)
	}
	return ChunkResult{Summary: out}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
