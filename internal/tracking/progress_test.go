package tracking

import (
	"testing"
	"time"

	"github.com/KhangTranManh/tech-store-sub000/internal/models"
)

func TestProjectProgressEmptyShowsFullTemplate(t *testing.T) {
	nodes := ProjectProgress(nil)
	if len(nodes) != len(CanonicalMilestones) {
		t.Fatalf("expected %d template nodes, got %d", len(CanonicalMilestones), len(nodes))
	}
	if nodes[0].State != ProgressStateCurrent || nodes[0].Label != MilestoneOrderPlaced {
		t.Fatalf("unexpected first node: %+v", nodes[0])
	}
	for i := 1; i < len(nodes); i++ {
		if nodes[i].State != ProgressStateUpcoming || !nodes[i].Synthetic {
			t.Fatalf("unexpected node %d: %+v", i, nodes[i])
		}
	}
}

func TestProjectProgressSkipsEmittedMilestones(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	nodes := ProjectProgress([]models.TrackingEvent{
		evt(1, MilestoneOrderPlaced, base),
		evt(2, MilestoneShipped, base.Add(time.Hour)),
	})

	want := []struct {
		label     string
		state     string
		synthetic bool
	}{
		{MilestoneOrderPlaced, ProgressStateCompleted, false},
		{MilestoneShipped, ProgressStateCompleted, false},
		{MilestoneOrderProcessed, ProgressStateCurrent, true},
		{MilestoneInTransit, ProgressStateUpcoming, true},
		{MilestoneOutForDelivery, ProgressStateUpcoming, true},
		{MilestoneDelivered, ProgressStateUpcoming, true},
	}
	if len(nodes) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(nodes))
	}
	for i, w := range want {
		if nodes[i].Label != w.label || nodes[i].State != w.state || nodes[i].Synthetic != w.synthetic {
			t.Fatalf("node %d mismatch: want %+v, got %+v", i, w, nodes[i])
		}
	}
}

func TestProjectProgressCustomLabelKeptVerbatim(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	nodes := ProjectProgress([]models.TrackingEvent{
		evt(1, MilestoneShipped, base),
		evt(2, "Customs Clearance", base.Add(time.Hour)),
	})
	if nodes[1].Label != "Customs Clearance" || nodes[1].State != ProgressStateCompleted || nodes[1].Synthetic {
		t.Fatalf("custom label node mismatch: %+v", nodes[1])
	}
	// 自定义标签不吞掉模板节点，Shipped 之外的模板仍然补齐
	var sawInTransit bool
	for _, node := range nodes {
		if node.Label == MilestoneInTransit && node.Synthetic {
			sawInTransit = true
		}
	}
	if !sawInTransit {
		t.Fatalf("expected synthetic In Transit node after custom label")
	}
}

func TestProjectProgressDeliveredIsTerminal(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	nodes := ProjectProgress([]models.TrackingEvent{
		evt(1, MilestoneOrderPlaced, base),
		evt(2, MilestoneDelivered, base.Add(time.Hour)),
	})
	if len(nodes) != 2 {
		t.Fatalf("expected no synthetic nodes after delivery, got %d nodes", len(nodes))
	}
	for _, node := range nodes {
		if node.Synthetic || node.State != ProgressStateCompleted {
			t.Fatalf("unexpected node after delivery: %+v", node)
		}
	}
}

func TestProjectProgressOutOfOrderEventsSortedByTimestamp(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	nodes := ProjectProgress([]models.TrackingEvent{
		evt(2, MilestoneShipped, base.Add(time.Hour)),
		evt(1, MilestoneOrderPlaced, base),
	})
	if nodes[0].Label != MilestoneOrderPlaced || nodes[1].Label != MilestoneShipped {
		t.Fatalf("expected chronological order, got %s then %s", nodes[0].Label, nodes[1].Label)
	}
}
