package entity

import "testing"

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from    POStatus
		to      POStatus
		allowed bool
	}{
		{POStatusDraft, POStatusSent, true},
		{POStatusDraft, POStatusCancelled, true},
		{POStatusDraft, POStatusConfirmed, false},
		{POStatusDraft, POStatusReceived, false},
		{POStatusSent, POStatusConfirmed, true},
		{POStatusSent, POStatusInTransit, false},
		{POStatusConfirmed, POStatusInTransit, true},
		{POStatusConfirmed, POStatusSent, false},
		{POStatusInTransit, POStatusReceived, true},
		{POStatusInTransit, POStatusFulfilled, true},
		{POStatusInTransit, POStatusDelivered, true},
		{POStatusInTransit, POStatusDraft, false},
		// 终态没有出边
		{POStatusReceived, POStatusCancelled, false},
		{POStatusFulfilled, POStatusDraft, false},
		{POStatusDelivered, POStatusSent, false},
		{POStatusCancelled, POStatusDraft, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.allowed {
			t.Errorf("%s → %s: expected %v, got %v", c.from, c.to, c.allowed, got)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []POStatus{POStatusReceived, POStatusFulfilled, POStatusDelivered, POStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	open := []POStatus{POStatusDraft, POStatusSent, POStatusConfirmed, POStatusInTransit}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestTerminalAllowed(t *testing.T) {
	if !POTypeInbound.TerminalAllowed(POStatusReceived) {
		t.Error("inbound should allow received")
	}
	if POTypeInbound.TerminalAllowed(POStatusFulfilled) {
		t.Error("inbound should not allow fulfilled")
	}
	if !POTypeOutbound.TerminalAllowed(POStatusFulfilled) {
		t.Error("outbound should allow fulfilled")
	}
	if POTypeOutbound.TerminalAllowed(POStatusReceived) {
		t.Error("outbound should not allow received")
	}
	// delivered 双向开放
	if !POTypeInbound.TerminalAllowed(POStatusDelivered) || !POTypeOutbound.TerminalAllowed(POStatusDelivered) {
		t.Error("delivered should be allowed for both directions")
	}
}

func TestSettlesInventory(t *testing.T) {
	for _, s := range []POStatus{POStatusReceived, POStatusFulfilled, POStatusDelivered} {
		if !s.SettlesInventory() {
			t.Errorf("%s should settle inventory", s)
		}
	}
	if POStatusCancelled.SettlesInventory() {
		t.Error("cancelled should not settle inventory")
	}
}

func TestRecalcTotals(t *testing.T) {
	po := &PurchaseOrder{
		Tax:      5,
		Shipping: 10,
		Items: []POItem{
			{LineTotal: 100},
			{LineTotal: 23.5},
		},
	}
	po.RecalcTotals()
	if po.Subtotal != 123.5 {
		t.Fatalf("expected subtotal 123.5, got %v", po.Subtotal)
	}
	if po.Total != 138.5 {
		t.Fatalf("expected total 138.5, got %v", po.Total)
	}
}
