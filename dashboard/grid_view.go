package dashboard

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/bundaberg-joey/amiscreen/server/fastview"
	channerics "github.com/niceyeti/channerics/channels"
)

const cellDim = 40

// CandidateGrid renders one colored square per candidate in a single row,
// updating each cell's fill and tooltip as its status changes.
type CandidateGrid struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

// NewCandidateGrid builds the view from a stream of full-candidate-set
// snapshots, the same channerics.Convert wiring the teacher's
// value_function_view.go uses for its own cell-stream-to-ele-update
// conversion.
func NewCandidateGrid(done <-chan struct{}, cells <-chan []CandidateCell) *CandidateGrid {
	id := "candidategrid"
	if strings.Contains(id, "-") {
		fmt.Println("WARNING: hyphenated ids interfere with html/template's `template` directive")
	}

	cg := &CandidateGrid{id: template.HTMLEscapeString(id)}
	cg.updates = channerics.Convert(done, cells, cg.onUpdate)
	return cg
}

func (cg *CandidateGrid) Updates() <-chan []fastview.EleUpdate {
	return cg.updates
}

func (cg *CandidateGrid) onUpdate(cells []CandidateCell) (ops []fastview.EleUpdate) {
	for _, cell := range cells {
		ops = append(ops, fastview.EleUpdate{
			EleId: fmt.Sprintf("candidate-%d-rect", cell.Index),
			Ops: []fastview.Op{
				{Key: "fill", Value: cell.Fill},
			},
		})
		ops = append(ops, fastview.EleUpdate{
			EleId: fmt.Sprintf("candidate-%d-text", cell.Index),
			Ops: []fastview.Op{
				{Key: "textContent", Value: string(cell.Status)},
			},
		})
	}
	return
}

// Parse renders the initial grid: cell positions are fixed up front from
// however many candidates the first template render is given, one <rect>
// plus a hidden <title> per candidate.
func (cg *CandidateGrid) Parse(t *template.Template) (name string, err error) {
	name = cg.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div style="padding:20px;">
			<svg id="` + cg.id + `" xmlns="http://www.w3.org/2000/svg"
				width="{{ mult ` + fmt.Sprintf("%d", cellDim) + ` (len .) }}px"
				height="` + fmt.Sprintf("%d", cellDim) + `px"
				style="shape-rendering: crispEdges; stroke: black; stroke-width: 1;">
				{{ range $i, $cell := . }}
					<g transform="translate({{ mult $i ` + fmt.Sprintf("%d", cellDim) + ` }} 0)">
						<rect id="candidate-{{ $cell.Index }}-rect"
							width="` + fmt.Sprintf("%d", cellDim) + `" height="` + fmt.Sprintf("%d", cellDim) + `"
							fill="{{ $cell.Fill }}" />
						<title id="candidate-{{ $cell.Index }}-text">{{ $cell.Status }}</title>
					</g>
				{{ end }}
			</svg>
		</div>
		{{ end }}`)
	return
}
