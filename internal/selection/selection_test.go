package selection

import "testing"

func TestFireSkipsSender(t *testing.T) {
	c := New()
	var got []string
	a := c.AddListener(func(e Event) { got = append(got, "a:"+e.ItemIDs[0]) })
	b := c.AddListener(func(e Event) { got = append(got, "b:"+e.ItemIDs[0]) })
	c.AddListener(func(e Event) { got = append(got, "c:"+e.ItemIDs[0]) })

	a.Fire(Event{ItemIDs: []string{"x"}})
	if len(got) != 2 || got[0] != "b:x" || got[1] != "c:x" {
		t.Fatalf("unexpected deliveries: %v", got)
	}

	got = nil
	b.Dispose()
	b.Dispose()
	a.Fire(Event{ItemIDs: []string{"y"}})
	if len(got) != 1 || got[0] != "c:y" || c.Len() != 2 {
		t.Fatalf("expected disposed listener to be skipped: %v", got)
	}
}

func TestFireFromCallbackDoesNotDeadlock(t *testing.T) {
	c := New()
	var b *Listener
	hits := 0
	a := c.AddListener(func(e Event) { hits++ })
	b = c.AddListener(func(e Event) {
		if len(e.ItemIDs) > 0 && e.ItemIDs[0] == "ping" {
			b.Fire(Event{ItemIDs: []string{"pong"}})
		}
	})
	c.AddListener(func(e Event) {})
	a.Fire(Event{ItemIDs: []string{"ping"}})
	if hits != 1 {
		t.Fatalf("expected echo back to a, got %d", hits)
	}
}
