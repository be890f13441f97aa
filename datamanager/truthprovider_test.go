package datamanager

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/bundaberg-joey/amiscreen"
	"github.com/bundaberg-joey/amiscreen/state"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFilePathTruthProvider(t *testing.T) {
	Convey("Given a candidate list of two payload files", t, func() {
		dir := t.TempDir()
		a := filepath.Join(dir, "a.txt")
		b := filepath.Join(dir, "b.txt")
		So(os.WriteFile(a, []byte("payload-a"), 0o644), ShouldBeNil)
		So(os.WriteFile(b, []byte("payload-b"), 0o644), ShouldBeNil)

		listPath := filepath.Join(dir, "candidates.txt")
		So(os.WriteFile(listPath, []byte(a+"\n"+b+"\n"), 0o644), ShouldBeNil)

		tp, err := NewFilePathTruthProvider(listPath, "cif_content", ami.Schema{})
		So(err, ShouldBeNil)
		So(tp.Len(), ShouldEqual, 2)

		sm := state.New(2)

		Convey("Parameters reads the referenced file and selects the index", func() {
			opt, err := tp.Parameters(0, sm)
			So(err, ShouldBeNil)
			payload, ok := opt.Get()
			So(ok, ShouldBeTrue)
			So(string(payload["cif_content"]), ShouldEqual, "payload-a")
			So(sm.IsAvailable(0), ShouldBeFalse)
		})

		Convey("Parameters on an out-of-range index returns None", func() {
			opt, err := tp.Parameters(5, sm)
			So(err, ShouldBeNil)
			_, ok := opt.Get()
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a candidate list with a blank line", t, func() {
		dir := t.TempDir()
		listPath := filepath.Join(dir, "candidates.txt")
		So(os.WriteFile(listPath, []byte("\n"), 0o644), ShouldBeNil)

		Convey("NewFilePathTruthProvider rejects it", func() {
			_, err := NewFilePathTruthProvider(listPath, "cif_content", ami.Schema{})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFloatListTruthProvider(t *testing.T) {
	Convey("Given a candidate list of two float values", t, func() {
		dir := t.TempDir()
		listPath := filepath.Join(dir, "candidates.txt")
		So(os.WriteFile(listPath, []byte("1.5\n-2.25\n"), 0o644), ShouldBeNil)

		tp, err := NewFloatListTruthProvider(listPath, "index", ami.Schema{})
		So(err, ShouldBeNil)
		So(tp.Len(), ShouldEqual, 2)

		sm := state.New(2)

		Convey("Parameters encodes the value as a little-endian float64 payload", func() {
			opt, err := tp.Parameters(1, sm)
			So(err, ShouldBeNil)
			payload, ok := opt.Get()
			So(ok, ShouldBeTrue)
			bits := binary.LittleEndian.Uint64(payload["index"])
			So(math.Float64frombits(bits), ShouldEqual, -2.25)
		})
	})

	Convey("Given a candidate list with a non-numeric line", t, func() {
		dir := t.TempDir()
		listPath := filepath.Join(dir, "candidates.txt")
		So(os.WriteFile(listPath, []byte("not-a-number\n"), 0o644), ShouldBeNil)

		Convey("NewFloatListTruthProvider returns an error", func() {
			_, err := NewFloatListTruthProvider(listPath, "index", ami.Schema{})
			So(err, ShouldNotBeNil)
		})
	})
}
