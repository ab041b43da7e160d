// Package session holds the view state of the dashboard.
//
// A [View] is everything the rendering layer shows for one prediction: the
// request echo, the normalized result, the decision graph, the insights and
// the relative delivery date. Views are plain data and are never mutated
// after construction; a new prediction produces a new View that replaces the
// current one wholesale.
//
// # Usage
//
//	var h session.Holder
//	h.Replace(view)
//	if v := h.Current(); v != nil {
//	    render(v)
//	}
//
// Only the single current view is kept, in memory.
package session

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/imartinezt/logistica-front/pkg/decision"
	"github.com/imartinezt/logistica-front/pkg/graph"
	"github.com/imartinezt/logistica-front/pkg/prediction"
	"github.com/imartinezt/logistica-front/pkg/summary"
)

// ErrNoView is returned when no view has been produced yet.
var ErrNoView = errors.New("no view")

// View is the complete display state of one prediction.
type View struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Request prediction.Request `json:"request"`
	// Result is nil when the raw result could not be normalized; the view
	// then degrades to the request echo plus the fallback graph.
	Result *prediction.Result `json:"result,omitempty"`

	Topology     decision.Topology `json:"topology"`
	Graph        graph.Graph       `json:"graph"`
	Insights     []summary.Insight `json:"insights"`
	RelativeDate string            `json:"relative_date"`

	// Fallback is set when Graph is the minimal fallback graph.
	Fallback bool `json:"fallback"`
	// ErrorCode and Error describe the recoverable failure behind a
	// fallback, if any.
	ErrorCode string   `json:"error_code,omitempty"`
	Error     string   `json:"error,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// NewID returns a fresh view identifier.
func NewID() string {
	return uuid.NewString()
}

// Degraded reports whether the view could not show the full result.
func (v *View) Degraded() bool {
	return v.Result == nil || v.Fallback
}

// InsightTexts returns the printable insight lines.
func (v *View) InsightTexts() []string {
	out := make([]string, len(v.Insights))
	for i, in := range v.Insights {
		out[i] = in.Text
	}
	return out
}

// Holder keeps the current view. The zero value holds no view and is ready
// to use. A Holder is safe for concurrent use: readers always see either the
// previous or the next view, never a mix.
type Holder struct {
	current atomic.Pointer[View]
}

// Current returns the current view, or nil when none was set.
func (h *Holder) Current() *View {
	return h.current.Load()
}

// Get returns the current view, or ErrNoView.
func (h *Holder) Get() (*View, error) {
	if v := h.current.Load(); v != nil {
		return v, nil
	}
	return nil, ErrNoView
}

// Replace installs v as the current view and returns the previous one.
func (h *Holder) Replace(v *View) *View {
	return h.current.Swap(v)
}

// Clear drops the current view.
func (h *Holder) Clear() {
	h.current.Store(nil)
}
