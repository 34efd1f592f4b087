package family

import (
	"cmp"
	"context"
	"slices"

	"famhelpdesk/internal/membership/models"
	"famhelpdesk/internal/storage"
	id "famhelpdesk/pkg/domain"
	"famhelpdesk/pkg/platform/sentinel"
)

type membershipKey struct {
	familyID id.FamilyID
	userID   id.UserID
}

// InMemoryStore keeps families and family memberships in maps guarded by the
// shared MemoryDB. Values are copied on the way in and out.
type InMemoryStore struct {
	db          *storage.MemoryDB
	families    map[id.FamilyID]*models.Family
	memberships map[membershipKey]*models.FamilyMembership
}

func NewInMemoryStore(db *storage.MemoryDB) *InMemoryStore {
	return &InMemoryStore{
		db:          db,
		families:    make(map[id.FamilyID]*models.Family),
		memberships: make(map[membershipKey]*models.FamilyMembership),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, f *models.Family) error {
	return s.db.Write(ctx, func(u storage.Undo) error {
		if _, ok := s.families[f.ID]; ok {
			return sentinel.ErrAlreadyUsed
		}
		stored := *f
		s.families[f.ID] = &stored
		u.Add(func() { delete(s.families, f.ID) })
		return nil
	})
}

func (s *InMemoryStore) FindByID(ctx context.Context, familyID id.FamilyID) (*models.Family, error) {
	var out *models.Family
	s.db.Read(ctx, func() {
		if f, ok := s.families[familyID]; ok {
			c := *f
			out = &c
		}
	})
	if out == nil {
		return nil, sentinel.ErrNotFound
	}
	return out, nil
}

// List returns all families, oldest first.
func (s *InMemoryStore) List(ctx context.Context) ([]*models.Family, error) {
	var out []*models.Family
	s.db.Read(ctx, func() {
		out = make([]*models.Family, 0, len(s.families))
		for _, f := range s.families {
			c := *f
			out = append(out, &c)
		}
	})
	sortFamilies(out)
	return out, nil
}

// Execute loads a family, validates it and applies mutate atomically.
func (s *InMemoryStore) Execute(ctx context.Context, familyID id.FamilyID, validate func(*models.Family) error, mutate func(*models.Family)) (*models.Family, error) {
	var out *models.Family
	err := s.db.Write(ctx, func(u storage.Undo) error {
		f, ok := s.families[familyID]
		if !ok {
			return sentinel.ErrNotFound
		}
		working := *f
		if err := validate(&working); err != nil {
			return err
		}
		mutate(&working)
		prev := f
		s.families[familyID] = &working
		u.Add(func() { s.families[familyID] = prev })
		c := working
		out = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *InMemoryStore) FindMembership(ctx context.Context, familyID id.FamilyID, userID id.UserID) (*models.FamilyMembership, error) {
	var out *models.FamilyMembership
	s.db.Read(ctx, func() {
		if m, ok := s.memberships[membershipKey{familyID, userID}]; ok {
			c := *m
			out = &c
		}
	})
	if out == nil {
		return nil, sentinel.ErrNotFound
	}
	return out, nil
}

// ExecuteMembership runs validate and mutate against the (family, user) row.
// When no row exists validate receives nil and mutate a fresh row, which is
// then inserted. The family must exist.
func (s *InMemoryStore) ExecuteMembership(
	ctx context.Context,
	familyID id.FamilyID,
	userID id.UserID,
	validate func(*models.FamilyMembership) error,
	mutate func(*models.FamilyMembership),
) (*models.FamilyMembership, error) {
	var out *models.FamilyMembership
	err := s.db.Write(ctx, func(u storage.Undo) error {
		if _, ok := s.families[familyID]; !ok {
			return sentinel.ErrNotFound
		}
		key := membershipKey{familyID, userID}
		existing, found := s.memberships[key]

		var current *models.FamilyMembership
		working := models.NewFamilyMembership(familyID, userID)
		if found {
			c := *existing
			current = &c
			*working = *existing
		}
		if err := validate(current); err != nil {
			return err
		}
		mutate(working)

		s.memberships[key] = working
		if found {
			u.Add(func() { s.memberships[key] = existing })
		} else {
			u.Add(func() { delete(s.memberships, key) })
		}
		c := *working
		out = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListMemberships returns the family's rows with the given status in request
// order.
func (s *InMemoryStore) ListMemberships(ctx context.Context, familyID id.FamilyID, status models.Status) ([]*models.FamilyMembership, error) {
	var out []*models.FamilyMembership
	s.db.Read(ctx, func() {
		for _, m := range s.memberships {
			if m.FamilyID == familyID && m.Status == status {
				c := *m
				out = append(out, &c)
			}
		}
	})
	slices.SortFunc(out, func(a, b *models.FamilyMembership) int {
		if c := a.RequestedAt.Compare(b.RequestedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID.String(), b.UserID.String())
	})
	return out, nil
}

func (s *InMemoryStore) ListAdmins(ctx context.Context, familyID id.FamilyID) ([]id.UserID, error) {
	members, err := s.ListMemberships(ctx, familyID, models.StatusMember)
	if err != nil {
		return nil, err
	}
	var out []id.UserID
	for _, m := range members {
		if m.IsAdmin {
			out = append(out, m.UserID)
		}
	}
	return out, nil
}

// ListByUser returns the user's MEMBER and AWAITING memberships joined with
// their families.
func (s *InMemoryStore) ListByUser(ctx context.Context, userID id.UserID) ([]models.MyFamily, error) {
	var out []models.MyFamily
	s.db.Read(ctx, func() {
		for _, m := range s.memberships {
			if m.UserID != userID || m.Status == models.StatusDeclined {
				continue
			}
			f, ok := s.families[m.FamilyID]
			if !ok {
				continue
			}
			fc, mc := *f, *m
			out = append(out, models.MyFamily{Family: &fc, Membership: &mc})
		}
	})
	slices.SortFunc(out, func(a, b models.MyFamily) int {
		return compareFamilies(a.Family, b.Family)
	})
	return out, nil
}

func sortFamilies(families []*models.Family) {
	slices.SortFunc(families, compareFamilies)
}

func compareFamilies(a, b *models.Family) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}
