package notify

import "testing"

func TestBus_DeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	var got []Notification
	unsub := bus.Subscribe(func(n Notification) { got = append(got, n) })

	bus.Error("Failed to add comment.")
	bus.Toast("Link copied to clipboard!")

	if len(got) != 2 {
		t.Fatalf("delivered %d notifications, want 2", len(got))
	}
	if got[0].Level != LevelError || got[0].Message != "Failed to add comment." {
		t.Errorf("first = %+v", got[0])
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Error("notification missing id or timestamp")
	}
	if got[0].Duration != DefaultToastDuration {
		t.Errorf("duration = %v, want default %v", got[0].Duration, DefaultToastDuration)
	}
	if got[0].ID == got[1].ID {
		t.Error("notifications share an id")
	}

	unsub()
	bus.Toast("after unsubscribe")
	if len(got) != 2 {
		t.Error("handler fired after unsubscribe")
	}
}

func TestBus_BlockingHasNoAutoDismiss(t *testing.T) {
	bus := NewBus()
	bus.Blocking("invalid credentials")

	last := bus.Last()
	if last == nil || last.Level != LevelBlocking {
		t.Fatalf("last = %+v", last)
	}
	if last.Duration != 0 {
		t.Errorf("blocking notification has duration %v, want 0", last.Duration)
	}
}
