package chat

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newID() ConnectionID {
	return ConnectionID(uuid.NewString())
}

func TestRegistry_Add_ListByRoom_Keeps_Join_Order(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	carol, bob, dave := newID(), newID(), newID()

	// When participants join two rooms
	_, err := registry.Add(carol, "Carol", "Lobby")
	req.NoError(err)
	_, err = registry.Add(bob, "Bob", " lobby ")
	req.NoError(err)
	_, err = registry.Add(dave, "Dave", "Kitchen")
	req.NoError(err)

	// Then the lobby lists its members in join order, whatever the casing
	members := registry.ListByRoom("LOBBY")
	req.Len(members, 2)
	req.Equal(carol, members[0].ConnectionID)
	req.Equal(bob, members[1].ConnectionID)
	req.Equal("lobby", members[1].RoomKey)
	req.Equal("lobby", members[1].Room)

	req.Len(registry.ListByRoom("kitchen"), 1)
	req.Empty(registry.ListByRoom("attic"))
	req.Equal(3, registry.Len())
}

func TestRegistry_Add_Normalizes_But_Keeps_Display_Values(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	p, err := registry.Add(newID(), "  Alice ", " Room1 ")

	req.NoError(err)
	req.Equal("Alice", p.Name)
	req.Equal("Room1", p.Room)
	req.Equal("alice", p.NameKey)
	req.Equal("room1", p.RoomKey)
}

func TestRegistry_Add_Duplicate_Name_In_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := newID()

	// Given Alice is in room1
	_, err := registry.Add(first, "Alice", "room1")
	req.NoError(err)

	// When another connection takes the same name with different casing
	second := newID()
	_, err = registry.Add(second, " ALICE", "Room1")

	// Then it is rejected without side effects
	req.ErrorIs(err, ErrDuplicateName)
	_, ok := registry.Get(second)
	req.False(ok)
	req.Len(registry.ListByRoom("room1"), 1)

	// And the same name is fine in another room
	_, err = registry.Add(second, "Alice", "room2")
	req.NoError(err)
}

func TestRegistry_Add_Same_Connection_Twice(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := newID()

	_, err := registry.Add(id, "Alice", "room1")
	req.NoError(err)

	_, err = registry.Add(id, "Bob", "room2")
	req.ErrorIs(err, ErrConnectionRegistered)
	req.Empty(registry.ListByRoom("room2"))
}

func TestRegistry_Remove(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice, bob := newID(), newID()
	_, err := registry.Add(alice, "Alice", "room1")
	req.NoError(err)
	_, err = registry.Add(bob, "Bob", "room1")
	req.NoError(err)

	// When Alice leaves
	p, ok := registry.Remove(alice)

	// Then she is returned once and her name is free again
	req.True(ok)
	req.Equal("Alice", p.Name)
	_, ok = registry.Remove(alice)
	req.False(ok)

	members := registry.ListByRoom("room1")
	req.Len(members, 1)
	req.Equal(bob, members[0].ConnectionID)

	_, err = registry.Add(newID(), "alice", "room1")
	req.NoError(err)
}

func TestRegistry_Remove_Unknown_Connection(t *testing.T) {
	registry := NewRegistry()

	_, ok := registry.Remove(newID())

	require.False(t, ok)
}

func TestRegistry_Room_Disappears_With_Last_Member(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := newID()
	_, err := registry.Add(id, "Alice", "room1")
	req.NoError(err)
	req.Contains(registry.roomSizes(), "room1")

	registry.Remove(id)

	req.NotContains(registry.roomSizes(), "room1")
	req.Nil(registry.ListByRoom("room1"))
}

func TestRegistry_ListByRoom_Is_A_Snapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	_, err := registry.Add(newID(), "Alice", "room1")
	req.NoError(err)

	snapshot := registry.ListByRoom("room1")
	_, err = registry.Add(newID(), "Bob", "room1")
	req.NoError(err)

	req.Len(snapshot, 1)
	req.Len(registry.ListByRoom("room1"), 2)
}

func TestRegistry_Concurrent_Duplicate_Joins_Have_One_Winner(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	const racers = 64

	var (
		wg         sync.WaitGroup
		successes  atomic.Int32
		duplicates atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := registry.Add(newID(), "Alice", "Room1")
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrDuplicateName):
				duplicates.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	req.Equal(int32(1), successes.Load())
	req.Equal(int32(racers-1), duplicates.Load())
	req.Len(registry.ListByRoom("room1"), 1)
}

func TestRegistry_Concurrent_Adds_And_Removes_Lose_Nothing(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	const workers = 32

	ids := make([]ConnectionID, workers)
	for i := range ids {
		ids[i] = newID()
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id ConnectionID) {
			defer wg.Done()
			_, err := registry.Add(id, fmt.Sprintf("user-%d", i), "busy")
			assert.NoError(t, err)
			if i%2 == 0 {
				_, ok := registry.Remove(id)
				assert.True(t, ok)
			}
		}(i, id)
	}
	wg.Wait()

	req.Len(registry.ListByRoom("busy"), workers/2)
	req.Equal(workers/2, registry.Len())
}
