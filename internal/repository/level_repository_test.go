package repository

import (
	"testing"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestCapabilitiesFromFlags(t *testing.T) {
	flags := []bool{true, false, false, true, false, true, true, false}
	set := capabilitiesFromFlags(flags)

	for i, c := range levelCapabilityColumns {
		if set.Has(c) != flags[i] {
			t.Errorf("%s: Has = %v, want %v", c, set.Has(c), flags[i])
		}
	}
	if set.Has(domain.CapCloseTicket) {
		t.Error("close should not be granted")
	}
}

func TestSplitMessages(t *testing.T) {
	replies, notes := SplitMessages([]domain.TicketMessage{
		{ID: "1", MessageType: domain.MessageTypeReply},
		{ID: "2", MessageType: domain.MessageTypeNote},
		{ID: "3", MessageType: domain.MessageTypeReply},
	})
	if len(replies) != 2 || len(notes) != 1 || notes[0].ID != "2" {
		t.Errorf("replies=%v notes=%v", replies, notes)
	}
}
