package group

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
	groupID id.GroupID
	userID  id.UserID
}

// InMemoryStore keeps groups and group memberships in maps guarded by the
// shared MemoryDB.
type InMemoryStore struct {
	db          *storage.MemoryDB
	groups      map[id.GroupID]*models.Group
	memberships map[membershipKey]*models.GroupMembership
}

func NewInMemoryStore(db *storage.MemoryDB) *InMemoryStore {
	return &InMemoryStore{
		db:          db,
		groups:      make(map[id.GroupID]*models.Group),
		memberships: make(map[membershipKey]*models.GroupMembership),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, g *models.Group) error {
	return s.db.Write(ctx, func(u storage.Undo) error {
		if _, ok := s.groups[g.ID]; ok {
			return sentinel.ErrAlreadyUsed
		}
		stored := *g
		s.groups[g.ID] = &stored
		u.Add(func() { delete(s.groups, g.ID) })
		return nil
	})
}

// lookup returns the stored group when it belongs to familyID. Callers hold
// the lock.
func (s *InMemoryStore) lookup(familyID id.FamilyID, groupID id.GroupID) (*models.Group, bool) {
	g, ok := s.groups[groupID]
	if !ok || g.FamilyID != familyID {
		return nil, false
	}
	return g, true
}

func (s *InMemoryStore) FindByID(ctx context.Context, familyID id.FamilyID, groupID id.GroupID) (*models.Group, error) {
	var out *models.Group
	s.db.Read(ctx, func() {
		if g, ok := s.lookup(familyID, groupID); ok {
			c := *g
			out = &c
		}
	})
	if out == nil {
		return nil, sentinel.ErrNotFound
	}
	return out, nil
}

func (s *InMemoryStore) ListByFamily(ctx context.Context, familyID id.FamilyID) ([]*models.Group, error) {
	var out []*models.Group
	s.db.Read(ctx, func() {
		for _, g := range s.groups {
			if g.FamilyID == familyID {
				c := *g
				out = append(out, &c)
			}
		}
	})
	slices.SortFunc(out, compareGroups)
	return out, nil
}

func (s *InMemoryStore) Execute(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, validate func(*models.Group) error, mutate func(*models.Group)) (*models.Group, error) {
	var out *models.Group
	err := s.db.Write(ctx, func(u storage.Undo) error {
		g, ok := s.lookup(familyID, groupID)
		if !ok {
			return sentinel.ErrNotFound
		}
		working := *g
		if err := validate(&working); err != nil {
			return err
		}
		mutate(&working)
		s.groups[groupID] = &working
		u.Add(func() { s.groups[groupID] = g })
		c := working
		out = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the group together with all of its memberships.
func (s *InMemoryStore) Delete(ctx context.Context, familyID id.FamilyID, groupID id.GroupID) error {
	return s.db.Write(ctx, func(u storage.Undo) error {
		g, ok := s.lookup(familyID, groupID)
		if !ok {
			return sentinel.ErrNotFound
		}
		delete(s.groups, groupID)
		u.Add(func() { s.groups[groupID] = g })
		for key, m := range s.memberships {
			if key.groupID == groupID {
				delete(s.memberships, key)
				u.Add(func() { s.memberships[key] = m })
			}
		}
		return nil
	})
}

func (s *InMemoryStore) FindMembership(ctx context.Context, groupID id.GroupID, userID id.UserID) (*models.GroupMembership, error) {
	var out *models.GroupMembership
	s.db.Read(ctx, func() {
		if m, ok := s.memberships[membershipKey{groupID, userID}]; ok {
			c := *m
			out = &c
		}
	})
	if out == nil {
		return nil, sentinel.ErrNotFound
	}
	return out, nil
}

// ExecuteMembership runs validate and mutate against the (group, user) row,
// inserting it when absent. validate receives nil for a missing row.
func (s *InMemoryStore) ExecuteMembership(
	ctx context.Context,
	familyID id.FamilyID,
	groupID id.GroupID,
	userID id.UserID,
	validate func(*models.GroupMembership) error,
	mutate func(*models.GroupMembership),
) (*models.GroupMembership, error) {
	var out *models.GroupMembership
	err := s.db.Write(ctx, func(u storage.Undo) error {
		if _, ok := s.lookup(familyID, groupID); !ok {
			return sentinel.ErrNotFound
		}
		key := membershipKey{groupID, userID}
		existing, found := s.memberships[key]

		var current *models.GroupMembership
		working := models.NewGroupMembership(familyID, groupID, userID)
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

// DeleteMembership removes the row when validate accepts it and returns
// what was removed.
func (s *InMemoryStore) DeleteMembership(ctx context.Context, groupID id.GroupID, userID id.UserID, validate func(*models.GroupMembership) error) (*models.GroupMembership, error) {
	var out *models.GroupMembership
	err := s.db.Write(ctx, func(u storage.Undo) error {
		key := membershipKey{groupID, userID}
		m, ok := s.memberships[key]
		if !ok {
			return sentinel.ErrNotFound
		}
		current := *m
		if err := validate(&current); err != nil {
			return err
		}
		delete(s.memberships, key)
		u.Add(func() { s.memberships[key] = m })
		c := *m
		out = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *InMemoryStore) ListMemberships(ctx context.Context, groupID id.GroupID, status models.Status) ([]*models.GroupMembership, error) {
	var out []*models.GroupMembership
	s.db.Read(ctx, func() {
		for _, m := range s.memberships {
			if m.GroupID == groupID && m.Status == status {
				c := *m
				out = append(out, &c)
			}
		}
	})
	slices.SortFunc(out, func(a, b *models.GroupMembership) int {
		if c := a.RequestedAt.Compare(b.RequestedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID.String(), b.UserID.String())
	})
	return out, nil
}

func (s *InMemoryStore) ListAdmins(ctx context.Context, groupID id.GroupID) ([]id.UserID, error) {
	members, err := s.ListMemberships(ctx, groupID, models.StatusMember)
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

// ListByUser returns the user's MEMBER and AWAITING group memberships joined
// with their groups.
func (s *InMemoryStore) ListByUser(ctx context.Context, userID id.UserID) ([]models.MyGroup, error) {
	var out []models.MyGroup
	s.db.Read(ctx, func() {
		for _, m := range s.memberships {
			if m.UserID != userID || m.Status == models.StatusDeclined {
				continue
			}
			g, ok := s.groups[m.GroupID]
			if !ok {
				continue
			}
			gc, mc := *g, *m
			out = append(out, models.MyGroup{Group: &gc, Membership: &mc})
		}
	})
	slices.SortFunc(out, func(a, b models.MyGroup) int {
		return compareGroups(a.Group, b.Group)
	})
	return out, nil
}

func compareGroups(a, b *models.Group) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}
