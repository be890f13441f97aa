package datamanager

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/bundaberg-joey/amiscreen"
	"github.com/bundaberg-joey/amiscreen/state"
)

// TruthProvider supplies the opaque calculator parameters for a candidate,
// and is where state.Select is actually invoked — per spec §4.5.2,
// "parameters(i)" and "next()" together constitute selection.
type TruthProvider interface {
	Parameters(i int, sm *state.StateMachine) (ami.Option[ami.SerializedOpaque], error)
	Len() int
	Schema() ami.Schema
}

// FilePathTruthProvider reads one candidate's opaque calculator parameters
// by treating its catalogue entry as a file path whose contents become the
// sole entry of the SerializedOpaque payload, mirroring the Python source's
// FileStreamerTruthProvider (which reads a CIF file per candidate for its
// RASPA calculator).
type FilePathTruthProvider struct {
	paths      []string
	payloadKey string
	schema     ami.Schema
}

// NewFilePathTruthProvider reads the candidate catalogue from path: one
// payload file path per line, blank lines rejected (spec §6). payloadKey
// names the single key populated in the SerializedOpaque handed to the
// calculator (e.g. "cif_content").
func NewFilePathTruthProvider(path, payloadKey string, schema ami.Schema) (*FilePathTruthProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datamanager: opening candidate list %q: %w", path, err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil, fmt.Errorf("datamanager: candidate list %q: blank line at %d", path, lineNo)
		}
		if _, err := os.Stat(line); err != nil {
			return nil, fmt.Errorf("datamanager: candidate list %q line %d: %w", path, lineNo, err)
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("datamanager: reading candidate list %q: %w", path, err)
	}

	return &FilePathTruthProvider{paths: paths, payloadKey: payloadKey, schema: schema}, nil
}

func (p *FilePathTruthProvider) Len() int { return len(p.paths) }

func (p *FilePathTruthProvider) Schema() ami.Schema { return p.schema }

// Parameters returns the payload file's contents, or None if i is out of
// range. On a hit it performs the state.Select transition, per the spec's
// "parameters(i)" contract.
func (p *FilePathTruthProvider) Parameters(i int, sm *state.StateMachine) (ami.Option[ami.SerializedOpaque], error) {
	if i < 0 || i >= len(p.paths) {
		return ami.None[ami.SerializedOpaque](), nil
	}
	if err := sm.Select(i); err != nil {
		return ami.None[ami.SerializedOpaque](), err
	}
	data, err := os.ReadFile(p.paths[i])
	if err != nil {
		return ami.None[ami.SerializedOpaque](), fmt.Errorf("datamanager: reading payload for index %d: %w", i, err)
	}
	return ami.Some(ami.SerializedOpaque{p.payloadKey: data}), nil
}

// FloatListTruthProvider reads a candidate catalogue of one float64 value
// per line, encoding each as the sole entry of the SerializedOpaque payload
// it hands to a calculator. It exists so the engine can run standalone
// against calculator.EchoCalculator, without a real simulation backend or
// an on-disk payload per candidate (FilePathTruthProvider's job).
type FloatListTruthProvider struct {
	values     []float64
	payloadKey string
	schema     ami.Schema
}

// NewFloatListTruthProvider reads path as newline-separated float64 values.
func NewFloatListTruthProvider(path, payloadKey string, schema ami.Schema) (*FloatListTruthProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datamanager: opening candidate list %q: %w", path, err)
	}
	defer f.Close()

	var values []float64
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil, fmt.Errorf("datamanager: candidate list %q: blank line at %d", path, lineNo)
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("datamanager: candidate list %q line %d: %w", path, lineNo, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("datamanager: reading candidate list %q: %w", path, err)
	}

	return &FloatListTruthProvider{values: values, payloadKey: payloadKey, schema: schema}, nil
}

func (p *FloatListTruthProvider) Len() int { return len(p.values) }

func (p *FloatListTruthProvider) Schema() ami.Schema { return p.schema }

// Parameters encodes the candidate's value as an 8-byte little-endian
// float64 under payloadKey, performing the state.Select transition as a
// side effect, same as FilePathTruthProvider.
func (p *FloatListTruthProvider) Parameters(i int, sm *state.StateMachine) (ami.Option[ami.SerializedOpaque], error) {
	if i < 0 || i >= len(p.values) {
		return ami.None[ami.SerializedOpaque](), nil
	}
	if err := sm.Select(i); err != nil {
		return ami.None[ami.SerializedOpaque](), err
	}
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, math.Float64bits(p.values[i]))
	return ami.Some(ami.SerializedOpaque{p.payloadKey: raw}), nil
}
