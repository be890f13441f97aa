package dashboard

import (
	"context"
	"html/template"
	"time"

	"github.com/bundaberg-joey/amiscreen/server/fastview"
	channerics "github.com/niceyeti/channerics/channels"
)

// View is the dashboard's single page: the container for the candidate
// grid, its channel wiring, and the websocket bootstrap script. Grounded on
// the teacher's root_view.RootView, reduced to the one view this domain
// needs instead of a multi-view composition.
type View struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewView builds the page and the views it contains from a stream of
// candidate-set snapshots.
func NewView(ctx context.Context, cellUpdates <-chan []CandidateCell) (*View, error) {
	views, err := fastview.NewViewBuilder[[]CandidateCell, []CandidateCell]().
		WithContext(ctx).
		WithModel(cellUpdates, func(c []CandidateCell) []CandidateCell { return c }).
		WithView(func(done <-chan struct{}, cells <-chan []CandidateCell) fastview.ViewComponent {
			return NewCandidateGrid(done, cells)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return &View{
		views:   views,
		updates: fanIn(ctx.Done(), views),
	}, nil
}

// Updates returns the page's aggregated, batched ele-update channel.
func (v *View) Updates() <-chan []fastview.EleUpdate {
	return v.updates
}

// Parse builds the main page's template: the func-map every child view
// relies on, the websocket bootstrap script, and each view's own markup.
func (v *View) Parse(parent *template.Template) (name string, err error) {
	rt := parent.Funcs(template.FuncMap{
		"add":  func(i, j int) int { return i + j },
		"sub":  func(i, j int) int { return i - j },
		"mult": func(i, j int) int { return i * j },
		"div":  func(i, j int) int { return i / j },
	})

	var bodySpec string
	for _, vc := range v.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			return "", parseErr
		}
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<title>amiscreen dashboard</title>
			<link rel="icon" href="data:,">
			<script>
				const ws = new WebSocket("ws://" + window.location.host + "/ws");
				ws.onerror = function (event) { console.log('WebSocket error: ', event); };
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data);
					for (const update of items) {
						const ele = document.getElementById(update.EleId);
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value);
							}
						}
					}
				};
			</script>
		</head>
		<body>
		` + bodySpec + `
		</body>
	</html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}

// fanIn aggregates the views' ele-update channels into a single channel and
// throttles its output, overwriting redundant updates for the same element
// within a batch window — identical to the teacher's root_view.fanIn.
func fanIn(done <-chan struct{}, views []fastview.ViewComponent) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(done, channerics.Merge(done, inputs...), 20*time.Millisecond)
}

func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		data := map[string]fastview.EleUpdate{}
		last := time.Now()
		for updates := range channerics.OrDone(done, source) {
			for _, update := range updates {
				data[update.EleId] = update
			}

			if time.Since(last) > rate && len(updates) > 0 {
				select {
				case output <- valuesOf(data):
					data = map[string]fastview.EleUpdate{}
					last = time.Now()
				case <-done:
					return
				}
			}
		}
	}()

	return output
}

func valuesOf[K comparable, V any](m map[K]V) (vals []V) {
	for _, v := range m {
		vals = append(vals, v)
	}
	return
}
