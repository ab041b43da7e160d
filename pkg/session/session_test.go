package session

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/imartinezt/logistica-front/pkg/decision"
	"github.com/imartinezt/logistica-front/pkg/prediction"
	"github.com/imartinezt/logistica-front/pkg/summary"
)

func TestHolderReplace(t *testing.T) {
	var h Holder
	if h.Current() != nil {
		t.Fatal("zero Holder should be empty")
	}
	if _, err := h.Get(); !errors.Is(err, ErrNoView) {
		t.Fatalf("Get() error = %v, want ErrNoView", err)
	}

	first := &View{ID: NewID()}
	if prev := h.Replace(first); prev != nil {
		t.Errorf("first Replace returned %v", prev)
	}
	second := &View{ID: NewID()}
	if prev := h.Replace(second); prev != first {
		t.Error("Replace should return the previous view")
	}
	if got, err := h.Get(); err != nil || got != second {
		t.Errorf("Get() = %v, %v", got, err)
	}

	h.Clear()
	if h.Current() != nil {
		t.Error("Clear should drop the view")
	}
}

func TestHolderConcurrent(t *testing.T) {
	var h Holder
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.Replace(&View{ID: NewID()})
		}()
		go func() {
			defer wg.Done()
			if v := h.Current(); v != nil && v.ID == "" {
				t.Error("observed a partially built view")
			}
		}()
	}
	wg.Wait()
}

func TestNewIDUnique(t *testing.T) {
	if NewID() == NewID() {
		t.Error("ids should differ")
	}
}

func TestViewDegraded(t *testing.T) {
	if !(&View{}).Degraded() {
		t.Error("view without result is degraded")
	}
	if !(&View{Result: &prediction.Result{}, Fallback: true}).Degraded() {
		t.Error("fallback view is degraded")
	}
	if (&View{Result: &prediction.Result{}}).Degraded() {
		t.Error("full view is not degraded")
	}
}

func TestViewJSON(t *testing.T) {
	v := &View{
		ID:           "abc",
		Topology:     decision.TopologyHubRouted,
		Insights:     []summary.Insight{{Family: summary.FamilyCost, Class: "economy", Text: "Costo económico"}},
		RelativeDate: "TOMORROW",
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if raw["topology"] != "hub-routed" {
		t.Errorf("topology = %v", raw["topology"])
	}
	ins := raw["insights"].([]any)[0].(map[string]any)
	if ins["family"] != "cost" {
		t.Errorf("insight family = %v", ins["family"])
	}
	if _, ok := raw["result"]; ok {
		t.Error("nil result should be omitted")
	}
	if got := v.InsightTexts(); len(got) != 1 || got[0] != "Costo económico" {
		t.Errorf("InsightTexts() = %v", got)
	}
}
