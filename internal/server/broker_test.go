package server

import (
	"encoding/json"
	"testing"

	"github.com/technomatra/missions/internal/missions"
)

func TestBrokerDeliversByTopic(t *testing.T) {
	b := NewBroker()
	admin := b.Subscribe(missions.AdminTopic)
	other := b.Subscribe("other")

	b.Publish(missions.AdminTopic, missions.Event{Type: "item_toggled", Username: "alice", TaskID: 2})

	select {
	case data := <-admin:
		var e missions.Event
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		if e.Type != "item_toggled" || e.Username != "alice" || e.TaskID != 2 {
			t.Errorf("event = %+v", e)
		}
	default:
		t.Fatal("admin subscriber got nothing")
	}

	select {
	case <-other:
		t.Error("event leaked to another topic")
	default:
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(missions.AdminTopic)

	for range cap(ch) + 5 {
		b.Publish(missions.AdminTopic, missions.Event{Type: "wrong_attempt"})
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered %d events, want %d", len(ch), cap(ch))
	}

	b.Unsubscribe(missions.AdminTopic, ch)
	b.Publish(missions.AdminTopic, missions.Event{Type: "wrong_attempt"})
	if len(b.subs) != 0 {
		t.Errorf("topics left after unsubscribe: %d", len(b.subs))
	}
}
