package tracking

import (
	"testing"
	"time"

	"github.com/KhangTranManh/tech-store-sub000/internal/models"
)

func TestProjectTimelineEmptyReturnsPlaceholder(t *testing.T) {
	nodes := ProjectTimeline(nil, "No tracking updates yet")
	if len(nodes) != 1 {
		t.Fatalf("expected 1 placeholder node, got %d", len(nodes))
	}
	if !nodes[0].Placeholder || nodes[0].Status != "No tracking updates yet" {
		t.Fatalf("unexpected placeholder node: %+v", nodes[0])
	}
	if nodes[0].Completed || nodes[0].Active {
		t.Fatalf("placeholder must not be completed or active")
	}
}

func TestProjectTimelineLastNodeActive(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	nodes := ProjectTimeline([]models.TrackingEvent{
		evt(2, MilestoneShipped, base.Add(time.Hour)),
		evt(1, MilestoneOrderPlaced, base),
	}, "")
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].Status != MilestoneOrderPlaced || !nodes[0].Completed || nodes[0].Active {
		t.Fatalf("unexpected first node: %+v", nodes[0])
	}
	if nodes[1].Status != MilestoneShipped || nodes[1].Completed || !nodes[1].Active {
		t.Fatalf("unexpected last node: %+v", nodes[1])
	}
}

func TestProjectTimelineDeliveredMarksAllCompleted(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	nodes := ProjectTimeline([]models.TrackingEvent{
		evt(1, MilestoneOrderPlaced, base),
		evt(2, MilestoneShipped, base.Add(time.Hour)),
		evt(3, MilestoneDelivered, base.Add(2*time.Hour)),
	}, "")
	for i, node := range nodes {
		if !node.Completed {
			t.Fatalf("node %d not completed after delivery: %+v", i, node)
		}
		if node.Active {
			t.Fatalf("node %d active after delivery: %+v", i, node)
		}
	}
}

func TestProjectTimelineTieKeepsInsertionOrder(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	nodes := ProjectTimeline([]models.TrackingEvent{
		evt(2, MilestoneOrderProcessed, ts),
		evt(1, MilestoneOrderPlaced, ts),
	}, "")
	if nodes[0].Status != MilestoneOrderPlaced || nodes[1].Status != MilestoneOrderProcessed {
		t.Fatalf("expected insertion order on timestamp tie, got %s then %s", nodes[0].Status, nodes[1].Status)
	}
}
