package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// infinityToken is how an unbounded Ratio appears on the wire.
const infinityToken = "Infinity"

// Ratio is a non-negative ratio that may be unbounded (x/0 with x >= 0).
// JSON has no infinity, so the unbounded case is encoded as the string "Infinity".
type Ratio struct {
	Value     float64
	Unbounded bool
}

// Bounded returns a finite Ratio.
func Bounded(v float64) Ratio { return Ratio{Value: v} }

// Unbounded returns the infinite Ratio.
func Unbounded() Ratio { return Ratio{Unbounded: true} }

// Float64 returns the ratio as a float, +Inf when unbounded.
func (r Ratio) Float64() float64 {
	if r.Unbounded {
		return math.Inf(1)
	}
	return r.Value
}

func (r Ratio) String() string {
	if r.Unbounded {
		return infinityToken
	}
	return fmt.Sprintf("%.2f", r.Value)
}

// MarshalJSON implements json.Marshaler.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.Unbounded {
		return json.Marshal(infinityToken)
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts a number or the "Infinity" token.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != infinityToken {
			return fmt.Errorf("invalid ratio token %q", s)
		}
		*r = Unbounded()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid ratio: %w", err)
	}
	*r = Bounded(v)
	return nil
}
