package runner

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bundaberg-joey/amiscreen"
)

// TargetDecoder converts a calculator's raw truth-job result into the
// concrete Target value the data manager stores. Spec §6 is explicit that
// "the core enforces no schema check beyond name opacity" — the scheduler
// and data manager never interpret SerializedOpaque bytes themselves, so
// this conversion is supplied at wiring time (factory.Builder.Build derives
// it from the target schema's first field), the same way the
// Python source's FeatureStore implementations knew their own backing
// column's dtype.
type TargetDecoder func(ami.SerializedOpaque) (ami.Target, error)

// Float64TargetDecoder returns a TargetDecoder reading an 8-byte
// little-endian float64 from key — the convention the bundled
// EchoCalculator and IndexFeatureStore both use.
func Float64TargetDecoder(key string) TargetDecoder {
	return func(result ami.SerializedOpaque) (ami.Target, error) {
		raw, ok := result[key]
		if !ok || len(raw) < 8 {
			return nil, fmt.Errorf("runner: missing or truncated %q target field", key)
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(raw)), nil
	}
}
