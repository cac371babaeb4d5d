package service

import (
	"context"
	"sort"
	"time"

	"winecellar/internal/domain"
	"winecellar/internal/repository"

	"github.com/google/uuid"
)

// In-memory stand-ins for the SQL repositories. They share one state struct
// so ownership resolution behaves like the real schema: shelf -> cellar ->
// user.
type cellarState struct {
	cellars map[uuid.UUID]*domain.Cellar // keyed by user ID
	shelves map[uuid.UUID]*domain.Shelf
	lots    map[uuid.UUID]*domain.Lot
	bottles map[uuid.UUID]*domain.Bottle
	records []*domain.RemovalRecord
}

func newCellarState() *cellarState {
	return &cellarState{
		cellars: make(map[uuid.UUID]*domain.Cellar),
		shelves: make(map[uuid.UUID]*domain.Shelf),
		lots:    make(map[uuid.UUID]*domain.Lot),
		bottles: make(map[uuid.UUID]*domain.Bottle),
	}
}

func (s *cellarState) addUserWithShelf(capacity int) (userID, shelfID uuid.UUID) {
	userID = uuid.New()
	cellar := &domain.Cellar{ID: uuid.New(), UserID: userID, Name: "cellar", CreatedAt: time.Now()}
	s.cellars[userID] = cellar
	shelf := &domain.Shelf{ID: uuid.New(), CellarID: cellar.ID, Name: "Shelf 1", Capacity: capacity, CreatedAt: time.Now()}
	s.shelves[shelf.ID] = shelf
	return userID, shelf.ID
}

func (s *cellarState) addBottle() uuid.UUID {
	b := &domain.Bottle{ID: uuid.New(), Domain: "Domaine Test", Name: "Cuvee", WineType: "red", Vintage: 2018, Region: "Bordeaux", Price: 12.5, CreatedAt: time.Now()}
	s.bottles[b.ID] = b
	return b.ID
}

func (s *cellarState) shelfUsed(shelfID uuid.UUID) int {
	used := 0
	for _, lot := range s.lots {
		if lot.ShelfID == shelfID {
			used += lot.Quantity
		}
	}
	return used
}

type mockCellarRepository struct {
	state *cellarState
}

func (m *mockCellarRepository) Create(ctx context.Context, cellar *domain.Cellar) error {
	m.state.cellars[cellar.UserID] = cellar
	return nil
}

func (m *mockCellarRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cellar, error) {
	cellar, ok := m.state.cellars[userID]
	if !ok {
		return nil, repository.ErrCellarNotFound
	}
	return cellar, nil
}

func (m *mockCellarRepository) IsShelfOwnedBy(ctx context.Context, shelfID, userID uuid.UUID) (bool, error) {
	shelf, ok := m.state.shelves[shelfID]
	if !ok {
		return false, nil
	}
	cellar, ok := m.state.cellars[userID]
	if !ok {
		return false, nil
	}
	return shelf.CellarID == cellar.ID, nil
}

type mockShelfRepository struct {
	state *cellarState
}

func (m *mockShelfRepository) Create(ctx context.Context, shelf *domain.Shelf) error {
	m.state.shelves[shelf.ID] = shelf
	return nil
}

func (m *mockShelfRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Shelf, error) {
	shelf, ok := m.state.shelves[id]
	if !ok {
		return nil, repository.ErrShelfNotFound
	}
	return shelf, nil
}

func (m *mockShelfRepository) ListForCellar(ctx context.Context, cellarID uuid.UUID) ([]*domain.Shelf, error) {
	shelves := []*domain.Shelf{}
	for _, shelf := range m.state.shelves {
		if shelf.CellarID == cellarID {
			shelves = append(shelves, shelf)
		}
	}
	sort.Slice(shelves, func(i, j int) bool { return shelves[i].CreatedAt.Before(shelves[j].CreatedAt) })
	return shelves, nil
}

func (m *mockShelfRepository) CapacityLeft(ctx context.Context, shelfID uuid.UUID) (int, error) {
	shelf, ok := m.state.shelves[shelfID]
	if !ok {
		return 0, repository.ErrShelfNotFound
	}
	return shelf.Capacity - m.state.shelfUsed(shelfID), nil
}

func (m *mockShelfRepository) DeleteIfEmpty(ctx context.Context, shelfID, cellarID uuid.UUID) error {
	shelf, ok := m.state.shelves[shelfID]
	if !ok || shelf.CellarID != cellarID {
		return repository.ErrShelfNotFound
	}
	if m.state.shelfUsed(shelfID) != 0 {
		return repository.ErrShelfNotEmpty
	}
	delete(m.state.shelves, shelfID)
	return nil
}

type mockBottleRepository struct {
	state *cellarState
}

func (m *mockBottleRepository) Create(ctx context.Context, bottle *domain.Bottle) error {
	m.state.bottles[bottle.ID] = bottle
	return nil
}

func (m *mockBottleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Bottle, error) {
	bottle, ok := m.state.bottles[id]
	if !ok {
		return nil, repository.ErrBottleNotFound
	}
	return bottle, nil
}

func (m *mockBottleRepository) ListRefs(ctx context.Context) ([]*domain.BottleRef, error) {
	refs := []*domain.BottleRef{}
	for _, b := range m.state.bottles {
		refs = append(refs, &domain.BottleRef{ID: b.ID, Name: b.Name, Vintage: b.Vintage, Domain: b.Domain})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

type mockStockRepository struct {
	state *cellarState
}

func (m *mockStockRepository) Place(ctx context.Context, shelfID, bottleID uuid.UUID, quantity int, slot *int) (*domain.Lot, error) {
	if quantity <= 0 {
		return nil, repository.ErrInvalidQuantity
	}
	shelf, ok := m.state.shelves[shelfID]
	if !ok {
		return nil, repository.ErrShelfNotFound
	}
	if m.state.shelfUsed(shelfID)+quantity > shelf.Capacity {
		return nil, repository.ErrCapacityExceeded
	}

	target := m.resolveSlot(shelf, slot)

	if target != nil {
		for _, lot := range m.state.lots {
			if lot.ShelfID == shelfID && lot.BottleID == bottleID && lot.Slot != nil && *lot.Slot == *target {
				lot.Quantity += quantity
				lot.UpdatedAt = time.Now()
				return lot, nil
			}
		}
	}

	lot := &domain.Lot{
		ID:        uuid.New(),
		ShelfID:   shelfID,
		BottleID:  bottleID,
		Quantity:  quantity,
		Slot:      target,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.state.lots[lot.ID] = lot
	return lot, nil
}

func (m *mockStockRepository) resolveSlot(shelf *domain.Shelf, slot *int) *int {
	if slot != nil && *slot >= 1 && *slot <= shelf.Capacity {
		return slot
	}
	taken := make(map[int]bool)
	for _, lot := range m.state.lots {
		if lot.ShelfID == shelf.ID && lot.Slot != nil {
			taken[*lot.Slot] = true
		}
	}
	for candidate := 1; candidate <= shelf.Capacity; candidate++ {
		if !taken[candidate] {
			c := candidate
			return &c
		}
	}
	c := shelf.Capacity
	return &c
}

func (m *mockStockRepository) Reslot(ctx context.Context, lotID uuid.UUID, slot *int) (*domain.Lot, error) {
	lot, ok := m.state.lots[lotID]
	if !ok {
		return nil, repository.ErrLotNotFound
	}
	shelf := m.state.shelves[lot.ShelfID]
	lot.Slot = m.resolveSlot(shelf, slot)
	lot.UpdatedAt = time.Now()
	return lot, nil
}

func (m *mockStockRepository) Consume(ctx context.Context, lotID, userID uuid.UUID, quantity int, motif string) (*domain.RemovalRecord, error) {
	lot, ok := m.state.lots[lotID]
	if !ok {
		return nil, repository.ErrLotNotFound
	}
	if quantity < 1 || quantity > lot.Quantity {
		return nil, repository.ErrInvalidQuantity
	}

	record := &domain.RemovalRecord{
		ID:        uuid.New(),
		LotID:     lot.ID,
		UserID:    userID,
		BottleID:  lot.BottleID,
		ShelfID:   lot.ShelfID,
		Quantity:  quantity,
		Motif:     motif,
		RemovedAt: time.Now(),
	}
	m.state.records = append(m.state.records, record)

	if lot.Quantity == quantity {
		delete(m.state.lots, lotID)
	} else {
		lot.Quantity -= quantity
	}
	return record, nil
}

func (m *mockStockRepository) FindLot(ctx context.Context, lotID uuid.UUID) (*domain.Lot, error) {
	lot, ok := m.state.lots[lotID]
	if !ok {
		return nil, repository.ErrLotNotFound
	}
	return lot, nil
}

func (m *mockStockRepository) ListForOwner(ctx context.Context, userID uuid.UUID) ([]*domain.StockEntry, error) {
	return m.listEntries(userID, false), nil
}

func (m *mockStockRepository) ListUnassignedForOwner(ctx context.Context, userID uuid.UUID) ([]*domain.StockEntry, error) {
	return m.listEntries(userID, true), nil
}

func (m *mockStockRepository) listEntries(userID uuid.UUID, unassignedOnly bool) []*domain.StockEntry {
	cellar, ok := m.state.cellars[userID]
	if !ok {
		return []*domain.StockEntry{}
	}
	entries := []*domain.StockEntry{}
	for _, lot := range m.state.lots {
		shelf, ok := m.state.shelves[lot.ShelfID]
		if !ok || shelf.CellarID != cellar.ID {
			continue
		}
		if unassignedOnly && lot.Slot != nil {
			continue
		}
		entry := &domain.StockEntry{
			LotID:         lot.ID,
			ShelfID:       shelf.ID,
			ShelfName:     shelf.Name,
			ShelfCapacity: shelf.Capacity,
			Slot:          lot.Slot,
			Quantity:      lot.Quantity,
		}
		if bottle, ok := m.state.bottles[lot.BottleID]; ok {
			entry.Bottle = *bottle
		}
		entries = append(entries, entry)
	}
	return entries
}

type mockArchiveRepository struct {
	state *cellarState
}

func (m *mockArchiveRepository) Append(ctx context.Context, q repository.Querier, record *domain.RemovalRecord) error {
	m.state.records = append(m.state.records, record)
	return nil
}

func (m *mockArchiveRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.HistoryEntry, error) {
	entries := []*domain.HistoryEntry{}
	for i := len(m.state.records) - 1; i >= 0; i-- {
		record := m.state.records[i]
		if record.UserID != userID {
			continue
		}
		entry := &domain.HistoryEntry{
			RemovedAt: record.RemovedAt,
			Quantity:  record.Quantity,
			Motif:     record.Motif,
			ShelfName: "(shelf deleted)",
		}
		if shelf, ok := m.state.shelves[record.ShelfID]; ok {
			entry.ShelfName = shelf.Name
		}
		if bottle, ok := m.state.bottles[record.BottleID]; ok {
			entry.Bottle = *bottle
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type mockReviewRepository struct {
	reviews []*domain.Review
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	m.reviews = append(m.reviews, review)
	return nil
}

func (m *mockReviewRepository) ListForBottle(ctx context.Context, bottleID uuid.UUID) ([]*domain.BottleReview, error) {
	out := []*domain.BottleReview{}
	for _, review := range m.reviews {
		if review.BottleID == bottleID {
			out = append(out, &domain.BottleReview{Review: *review, AuthorName: "Test Author"})
		}
	}
	return out, nil
}

func (m *mockReviewRepository) AverageForBottle(ctx context.Context, bottleID uuid.UUID) (*float64, error) {
	sum, count := 0.0, 0
	for _, review := range m.reviews {
		if review.BottleID == bottleID && review.Score != nil {
			sum += *review.Score
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}
	avg := sum / float64(count)
	return &avg, nil
}

func (m *mockReviewRepository) Community(ctx context.Context, search string) ([]*domain.CommunityReview, error) {
	out := []*domain.CommunityReview{}
	for i := len(m.reviews) - 1; i >= 0; i-- {
		out = append(out, &domain.CommunityReview{Review: *m.reviews[i], AuthorName: "Test Author"})
	}
	return out, nil
}

func newStockFixture() (*cellarState, StockService, OwnershipGate) {
	state := newCellarState()
	cellarRepo := &mockCellarRepository{state: state}
	shelfRepo := &mockShelfRepository{state: state}
	gate := NewOwnershipGate(cellarRepo, shelfRepo)
	stockRepo := &mockStockRepository{state: state}
	archiveRepo := &mockArchiveRepository{state: state}
	bottleRepo := &mockBottleRepository{state: state}
	svc := NewStockService(stockRepo, archiveRepo, bottleRepo, gate)
	return state, svc, gate
}
