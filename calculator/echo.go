package calculator

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bundaberg-joey/amiscreen"
)

// EchoCalculator is a self-contained demo Calculator used by cmd/ami-screen
// when no real simulation backend is configured: it reads an 8-byte
// little-endian float64 under the "index" key and returns its square as the
// "target" key, so the CLI's example run produces a deterministic,
// inspectable result sink without any external dependency.
type EchoCalculator struct {
	IndexKey  string
	TargetKey string
}

// NewEchoCalculator returns an EchoCalculator using the conventional
// "index"/"target" keys.
func NewEchoCalculator() *EchoCalculator {
	return &EchoCalculator{IndexKey: "index", TargetKey: "target"}
}

func (c *EchoCalculator) Calculate(params ami.SerializedOpaque) (ami.SerializedOpaque, error) {
	raw, ok := params[c.IndexKey]
	if !ok || len(raw) < 8 {
		return nil, fmt.Errorf("calculator: missing or truncated %q payload", c.IndexKey)
	}
	bits := binary.LittleEndian.Uint64(raw)
	x := math.Float64frombits(bits)

	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, math.Float64bits(x*x))
	return ami.SerializedOpaque{c.TargetKey: out}, nil
}

func (c *EchoCalculator) Schema() ami.Schema {
	return ami.Schema{
		Features: []ami.Field{{Name: c.IndexKey, Type: "float64"}},
		Targets:  []ami.Field{{Name: c.TargetKey, Type: "float64"}},
	}
}
