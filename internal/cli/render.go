package cli

import (
	"context"
	"fmt"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/config"
	"github.com/glorpus-work/zpkg/pkg/orchestrator"
)

// ErrOperationsFailed is returned by batch commands when at least one
// package operation failed. Every result has been printed by then.
var ErrOperationsFailed = fmt.Errorf("one or more operations failed")

type resultView struct {
	Ref      string `json:"ref"`
	Action   string `json:"action"`
	Status   string `json:"status"`
	Package  string `json:"package,omitempty"`
	Version  string `json:"version,omitempty"`
	Hash     string `json:"hash,omitempty"`
	Previous string `json:"previous,omitempty"`
	Changed  bool   `json:"changed"`
	Error    string `json:"error,omitempty"`
}

func newResultView(r orchestrator.Result) resultView {
	v := resultView{
		Ref:      r.Ref,
		Action:   string(r.Action),
		Status:   r.Kind(),
		Previous: r.Previous,
		Changed:  r.Changed,
	}
	if r.Package != nil {
		v.Package = r.Package.Name()
		v.Version = r.Package.Status.CurrentVersion
		v.Hash = r.Package.Status.CurrentHash
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	return v
}

// renderResults prints one line per result in request order.
func renderResults(cfg *config.Config, results []orchestrator.Result) error {
	views := make([]resultView, len(results))
	failed := 0
	for i, r := range results {
		views[i] = newResultView(r)
		if !r.OK() {
			failed++
		}
	}

	if isJSON(cfg) {
		if err := printJSON(views); err != nil {
			return err
		}
	} else {
		tw := newTabWriter()
		_, _ = fmt.Fprintln(tw, "PACKAGE\tACTION\tSTATUS\tVERSION\tDETAIL")
		for _, v := range views {
			name := v.Package
			if name == "" {
				name = v.Ref
			}
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, v.Action, v.Status, v.Version, detail(v))
		}
		_ = tw.Flush()
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrOperationsFailed, failed, len(results))
	}
	return nil
}

func detail(v resultView) string {
	switch {
	case v.Error != "":
		return v.Error
	case !v.Changed:
		return "unchanged"
	case v.Previous != "" && v.Previous != v.Version:
		return "from " + v.Previous
	}
	return ""
}

// withProgress streams orchestrator events to the log while fn runs.
func withProgress(ctx context.Context, o *orchestrator.Orchestrator, fn func()) {
	ctx, cancel := context.WithCancel(ctx)
	events := make(chan orchestrator.Event)
	o.Hooks = orchestrator.ChannelHooks(ctx, events)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case e := <-events:
				fields := logger.Fields{"package": e.ID, "phase": e.Phase}
				if e.Msg != "" {
					fields["detail"] = e.Msg
				}
				logger.Debug("Progress", fields)
			case <-ctx.Done():
				return
			}
		}
	}()

	fn()
	cancel()
	<-done
}
