package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lucasmnd/hkroster/core/model"
)

// MemoryRooms is an in-memory RoomStore keyed by room number.
type MemoryRooms struct {
	mu    sync.RWMutex
	rooms map[string]model.Room
}

// NewMemoryRooms creates an empty room store.
func NewMemoryRooms() *MemoryRooms {
	return &MemoryRooms{rooms: map[string]model.Room{}}
}

// Put inserts or replaces a room record.
func (s *MemoryRooms) Put(r model.Room) {
	s.mu.Lock()
	s.rooms[r.Number] = r
	s.mu.Unlock()
}

func (s *MemoryRooms) Rooms(context.Context) ([]model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(model.Room) bool { return true }), nil
}

func (s *MemoryRooms) RoomsByStatus(_ context.Context, status model.RoomStatus) ([]model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r model.Room) bool { return r.Status == status }), nil
}

func (s *MemoryRooms) RoomsCheckingOut(_ context.Context, date time.Time) ([]model.Room, error) {
	day := model.DateKey(date)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r model.Room) bool {
		return !r.CheckOut.IsZero() && model.DateKey(r.CheckOut) == day
	}), nil
}

func (s *MemoryRooms) AssignedRooms(context.Context) ([]model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r model.Room) bool { return r.Assigned() }), nil
}

func (s *MemoryRooms) SetAssignment(_ context.Context, number, staffID, team string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[number]
	if !ok {
		return fmt.Errorf("room %s: not found", number)
	}
	r.AssignedStaff = staffID
	r.AssignedTeam = team
	s.rooms[number] = r
	return nil
}

// collect gathers rooms matching the filter sorted by number. Callers must
// hold the read lock.
func (s *MemoryRooms) collect(keep func(model.Room) bool) []model.Room {
	res := make([]model.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		if keep(r) {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Number < res[j].Number })
	return res
}

// MemoryStaff is an in-memory StaffStore keyed by staff id.
type MemoryStaff struct {
	mu    sync.RWMutex
	staff map[string]model.Staff
}

// NewMemoryStaff creates an empty staff store.
func NewMemoryStaff() *MemoryStaff {
	return &MemoryStaff{staff: map[string]model.Staff{}}
}

// Put inserts or replaces a staff record.
func (s *MemoryStaff) Put(m model.Staff) {
	s.mu.Lock()
	s.staff[m.ID] = m
	s.mu.Unlock()
}

func (s *MemoryStaff) Staff(_ context.Context, id string) (model.Staff, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.staff[id]
	return m, ok, nil
}

func (s *MemoryStaff) ByRole(_ context.Context, role string) ([]model.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Staff, 0, len(s.staff))
	for _, m := range s.staff {
		if m.Role == role {
			res = append(res, m)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *MemoryStaff) SetTeam(_ context.Context, id, team string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.staff[id]
	if !ok {
		return fmt.Errorf("staff %s: not found", id)
	}
	m.Team = team
	s.staff[id] = m
	return nil
}

// MemoryShifts is an in-memory ShiftStore keyed by (staff, date).
type MemoryShifts struct {
	mu     sync.RWMutex
	shifts map[string]model.Shift
}

// NewMemoryShifts creates an empty shift store.
func NewMemoryShifts() *MemoryShifts {
	return &MemoryShifts{shifts: map[string]model.Shift{}}
}

func shiftKey(staffID string, date time.Time) string {
	return model.DateKey(date) + "/" + staffID
}

func (s *MemoryShifts) ForDate(_ context.Context, date time.Time) ([]model.Shift, error) {
	day := model.DateOf(date)
	return s.Range(context.Background(), day, day)
}

func (s *MemoryShifts) Range(_ context.Context, start, end time.Time) ([]model.Shift, error) {
	from, to := model.DateOf(start), model.DateOf(end)
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Shift, 0, len(s.shifts))
	for _, sh := range s.shifts {
		d := model.DateOf(sh.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		res = append(res, sh)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.Before(res[j].Date)
		}
		return res[i].StaffID < res[j].StaffID
	})
	return res, nil
}

func (s *MemoryShifts) Upsert(_ context.Context, sh model.Shift) error {
	if sh.StaffID == "" {
		return fmt.Errorf("shift staff id must not be empty")
	}
	sh.Date = model.DateOf(sh.Date)
	s.mu.Lock()
	s.shifts[shiftKey(sh.StaffID, sh.Date)] = sh
	s.mu.Unlock()
	return nil
}

func (s *MemoryShifts) DeleteRange(_ context.Context, start, end time.Time) error {
	from, to := model.DateOf(start), model.DateOf(end)
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, sh := range s.shifts {
		d := model.DateOf(sh.Date)
		if !d.Before(from) && !d.After(to) {
			delete(s.shifts, k)
		}
	}
	return nil
}

// MemoryAvailability is an in-memory AvailabilityStore.
type MemoryAvailability struct {
	mu        sync.RWMutex
	overrides map[string]model.AvailabilityOverride
}

// NewMemoryAvailability creates an empty availability store.
func NewMemoryAvailability() *MemoryAvailability {
	return &MemoryAvailability{overrides: map[string]model.AvailabilityOverride{}}
}

// Put inserts or replaces an override.
func (s *MemoryAvailability) Put(o model.AvailabilityOverride) {
	o.Date = model.DateOf(o.Date)
	s.mu.Lock()
	s.overrides[shiftKey(o.StaffID, o.Date)] = o
	s.mu.Unlock()
}

func (s *MemoryAvailability) Override(_ context.Context, staffID string, date time.Time) (model.AvailabilityOverride, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[shiftKey(staffID, model.DateOf(date))]
	return o, ok, nil
}
