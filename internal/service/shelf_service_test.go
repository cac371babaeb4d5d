package service

import (
	"context"
	"fmt"
	"testing"

	"winecellar/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func newShelfFixture() (*cellarState, ShelfService) {
	state := newCellarState()
	cellarRepo := &mockCellarRepository{state: state}
	shelfRepo := &mockShelfRepository{state: state}
	gate := NewOwnershipGate(cellarRepo, shelfRepo)
	return state, NewShelfService(shelfRepo, gate)
}

func TestProperty_ShelfCapacityIsBounded(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("capacities outside 1..200 are rejected", prop.ForAll(
		func(capacity int) bool {
			state, svc := newShelfFixture()
			ctx := context.Background()
			userID, _ := state.addUserWithShelf(10)

			shelf, err := svc.Create(ctx, userID, "Rack", capacity)

			if capacity >= 1 && capacity <= 200 {
				return err == nil && shelf.Capacity == capacity
			}
			return err == ErrInvalidCapacity
		},
		gen.IntRange(-10, 300),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_UnnamedShelvesGetSequentialNames(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("an empty name defaults to Shelf N", prop.ForAll(
		func(extra int) bool {
			state, svc := newShelfFixture()
			ctx := context.Background()
			userID, _ := state.addUserWithShelf(10)

			for i := 0; i < extra; i++ {
				// Already one shelf from the fixture, so the next default
				// name is Shelf <existing+1>
				expected := fmt.Sprintf("Shelf %d", i+2)
				shelf, err := svc.Create(ctx, userID, "", 10)
				if err != nil {
					t.Logf("FAIL: create failed: %v", err)
					return false
				}
				if shelf.Name != expected {
					t.Logf("FAIL: expected %q, got %q", expected, shelf.Name)
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ListReportsCapacityLeft(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("shelf summaries report capacity minus stored quantity", prop.ForAll(
		func(capacity int, used int) bool {
			if used > capacity {
				capacity, used = used, capacity
			}

			state, svc := newShelfFixture()
			ctx := context.Background()
			userID, shelfID := state.addUserWithShelf(capacity)

			stockRepo := &mockStockRepository{state: state}
			if used > 0 {
				if _, err := stockRepo.Place(ctx, shelfID, state.addBottle(), used, nil); err != nil {
					t.Logf("FAIL: placement failed: %v", err)
					return false
				}
			}

			summaries, err := svc.List(ctx, userID)
			if err != nil || len(summaries) != 1 {
				t.Logf("FAIL: expected one summary, err %v", err)
				return false
			}

			return summaries[0].CapacityLeft == capacity-used
		},
		gen.IntRange(1, 100),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_DeleteIfEmptyProtectsStockedShelves(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a shelf holding bottles cannot be deleted, an empty one can", prop.ForAll(
		func(quantity int) bool {
			state, svc := newShelfFixture()
			ctx := context.Background()
			userID, shelfID := state.addUserWithShelf(200)

			stockRepo := &mockStockRepository{state: state}
			if _, err := stockRepo.Place(ctx, shelfID, state.addBottle(), quantity, nil); err != nil {
				t.Logf("FAIL: placement failed: %v", err)
				return false
			}

			if err := svc.DeleteIfEmpty(ctx, userID, shelfID); err != repository.ErrShelfNotEmpty {
				t.Logf("FAIL: expected ErrShelfNotEmpty, got %v", err)
				return false
			}

			// Drain the shelf, then deletion must succeed
			for id, lot := range state.lots {
				if lot.ShelfID == shelfID {
					delete(state.lots, id)
				}
			}
			if err := svc.DeleteIfEmpty(ctx, userID, shelfID); err != nil {
				t.Logf("FAIL: expected deletion to succeed, got %v", err)
				return false
			}

			_, ok := state.shelves[shelfID]
			return !ok
		},
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ForeignShelfDeletionDenied(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("deleting another user's shelf fails even when empty", prop.ForAll(
		func(capacity int) bool {
			state, svc := newShelfFixture()
			ctx := context.Background()
			_, shelfID := state.addUserWithShelf(capacity)
			intruderID, _ := state.addUserWithShelf(capacity)

			err := svc.DeleteIfEmpty(ctx, intruderID, shelfID)
			if err != repository.ErrShelfNotFound {
				t.Logf("FAIL: expected ErrShelfNotFound, got %v", err)
				return false
			}

			_, ok := state.shelves[shelfID]
			return ok
		},
		gen.IntRange(1, 200),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
