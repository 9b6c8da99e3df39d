package hub

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/BioHazard786/roomdrop/internal/signaling"
)

func announceOf(m Member) signaling.Message {
	return signaling.MustMessage(signaling.TypePeerJoined, signaling.PeerJoined{PeerID: m.ID()})
}

func TestRegistry_JoinAnnouncesToExistingMembers(t *testing.T) {
	r := NewRegistry()
	a, b, c := newFakeMember("a"), newFakeMember("b"), newFakeMember("c")

	r.Join(a, "room", announceOf(a))
	r.Join(b, "room", announceOf(b))
	r.Join(c, "room", announceOf(c))

	if got := len(a.ofType(signaling.TypePeerJoined)); got != 2 {
		t.Fatalf("a saw %d announcements, want 2", got)
	}
	if got := len(b.ofType(signaling.TypePeerJoined)); got != 1 {
		t.Fatalf("b saw %d announcements, want 1", got)
	}
	if got := len(c.messages()); got != 0 {
		t.Fatalf("joiner should not be told about itself or earlier members, got %d", got)
	}
	if got := r.Members("room"); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("members = %v", got)
	}
}

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	a, b := newFakeMember("a"), newFakeMember("b")

	r.Join(a, "room", announceOf(a))
	if !r.Join(b, "room", announceOf(b)) {
		t.Fatal("first join should report a change")
	}
	if r.Join(b, "room", announceOf(b)) {
		t.Fatal("second join should be a no-op")
	}

	if got := len(a.ofType(signaling.TypePeerJoined)); got != 1 {
		t.Fatalf("a saw %d announcements, want 1", got)
	}
	if got := r.Members("room"); len(got) != 2 {
		t.Fatalf("members = %v", got)
	}
}

func TestRegistry_RoomsAreIsolated(t *testing.T) {
	r := NewRegistry()
	a, b, x := newFakeMember("a"), newFakeMember("b"), newFakeMember("x")

	r.Join(a, "one", announceOf(a))
	r.Join(b, "one", announceOf(b))
	r.Join(x, "two", announceOf(x))

	msg := signaling.MustMessage(signaling.TypeSignal, signaling.SignalEnvelope{RoomID: "one", Kind: signaling.KindGeneric})
	if n := r.Broadcast("one", "a", msg); n != 1 {
		t.Fatalf("broadcast reached %d members, want 1", n)
	}
	if len(x.messages()) != 0 {
		t.Fatal("member of another room received a message")
	}
	if len(a.ofType(signaling.TypeSignal)) != 0 {
		t.Fatal("sender received its own broadcast")
	}
	if len(b.ofType(signaling.TypeSignal)) != 1 {
		t.Fatal("b missed the broadcast")
	}
}

func TestRegistry_UnicastRequiresMembership(t *testing.T) {
	r := NewRegistry()
	a, b, x := newFakeMember("a"), newFakeMember("b"), newFakeMember("x")
	r.Join(a, "one", announceOf(a))
	r.Join(b, "one", announceOf(b))
	r.Join(x, "two", announceOf(x))

	msg := signaling.MustMessage(signaling.TypeSignal, signaling.SignalEnvelope{RoomID: "one", Kind: signaling.KindOffer})
	if !r.Unicast("one", "b", msg) {
		t.Fatal("unicast to member failed")
	}
	if r.Unicast("one", "x", msg) {
		t.Fatal("unicast reached a member of another room")
	}
	if r.Unicast("missing", "b", msg) {
		t.Fatal("unicast to unknown room succeeded")
	}
	if len(x.messages()) != 0 {
		t.Fatal("x received a message")
	}
}

func TestRegistry_LeaveAllDeletesEmptyRooms(t *testing.T) {
	r := NewRegistry()
	a, b := newFakeMember("a"), newFakeMember("b")
	r.Join(a, "one", announceOf(a))
	r.Join(a, "two", announceOf(a))
	r.Join(b, "two", announceOf(b))

	left := r.LeaveAll("a")
	if !slices.Equal(left, []string{"one", "two"}) {
		t.Fatalf("left = %v", left)
	}
	if r.RoomCount() != 1 {
		t.Fatalf("room count = %d, want 1", r.RoomCount())
	}
	if got := r.Members("two"); !slices.Equal(got, []string{"b"}) {
		t.Fatalf("members of two = %v", got)
	}
	if got := r.LeaveAll("a"); len(got) != 0 {
		t.Fatalf("second LeaveAll = %v", got)
	}

	r.LeaveAll("b")
	if r.RoomCount() != 0 {
		t.Fatalf("room count = %d, want 0", r.RoomCount())
	}
}

func TestRegistry_ConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := newFakeMember(fmt.Sprintf("m%d", i))
			room := fmt.Sprintf("room-%d", i%4)
			for j := 0; j < 50; j++ {
				r.Join(m, room, announceOf(m))
				r.Broadcast(room, m.ID(), announceOf(m))
				r.LeaveAll(m.ID())
			}
		}(i)
	}
	wg.Wait()

	if r.RoomCount() != 0 {
		t.Fatalf("rooms left behind: %d", r.RoomCount())
	}
}
