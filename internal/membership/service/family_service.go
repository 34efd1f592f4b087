package service

import (
	"context"

	"famhelpdesk/internal/consistency"
	"famhelpdesk/internal/membership/models"
	notificationModels "famhelpdesk/internal/notification/models"
	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	audit "famhelpdesk/pkg/platform/audit"
	"famhelpdesk/pkg/requestcontext"
)

// CreateFamily registers a family and makes the creator its first admin
// member.
func (s *Service) CreateFamily(ctx context.Context, name, description string, userID id.UserID) (*models.MyFamily, error) {
	now := requestcontext.Now(ctx)
	f, err := models.NewFamily(id.NewFamilyID(), name, description, userID, now)
	if err != nil {
		return nil, err
	}

	var out *models.MyFamily
	err = s.mutate(ctx, "create_family", func(ctx context.Context) (consistency.Mutation, error) {
		if err := s.families.Create(ctx, f); err != nil {
			return consistency.Mutation{}, translate(err, "family not found", "failed to create family")
		}
		m, err := s.families.ExecuteMembership(ctx, f.ID, userID,
			func(*models.FamilyMembership) error { return nil },
			func(m *models.FamilyMembership) { m.ApplyGrant(true, now) },
		)
		if err != nil {
			return consistency.Mutation{}, translate(err, "family not found", "failed to create family membership")
		}
		if err := s.emit(ctx, audit.Event{
			FamilyID:   f.ID,
			EntityType: audit.EntityFamily,
			EntityID:   f.ID.String(),
			Action:     audit.ActionCreate,
			ActorID:    userID,
			After:      snapshot(f),
		}); err != nil {
			return consistency.Mutation{}, err
		}
		if err := s.emit(ctx, audit.Event{
			FamilyID:   f.ID,
			EntityType: audit.EntityMember,
			EntityID:   userID.String(),
			Action:     audit.ActionCreate,
			ActorID:    userID,
			After:      snapshot(m),
		}); err != nil {
			return consistency.Mutation{}, err
		}
		notified, err := s.notify(ctx, notificationModels.WelcomeToFamily(userID, f.ID, f.Name))
		if err != nil {
			return consistency.Mutation{}, err
		}
		out = &models.MyFamily{Family: f, Membership: m}
		return consistency.Mutation{
			Kind:     consistency.CreateFamily,
			FamilyID: f.ID,
			UserID:   userID,
			Notified: notified,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetFamily(ctx context.Context, familyID id.FamilyID) (*models.Family, consistency.Stamp, error) {
	deps := []consistency.Key{consistency.Family(familyID)}
	return consistency.Read(ctx, s.reads, "family:"+familyID.String(), deps, func(ctx context.Context) (*models.Family, error) {
		return s.requireFamily(ctx, familyID)
	})
}

// ListFamilies returns every family, oldest first, so users can find one to
// request.
func (s *Service) ListFamilies(ctx context.Context) ([]*models.Family, consistency.Stamp, error) {
	deps := []consistency.Key{consistency.Families()}
	return consistency.Read(ctx, s.reads, "families", deps, func(ctx context.Context) ([]*models.Family, error) {
		families, err := s.families.List(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list families")
		}
		return nonNil(families), nil
	})
}

// UpdateFamily changes a family's name or description. Family admins only.
func (s *Service) UpdateFamily(ctx context.Context, familyID id.FamilyID, name, description *string, userID id.UserID) (*models.Family, error) {
	now := requestcontext.Now(ctx)
	var out *models.Family
	err := s.mutate(ctx, "update_family", func(ctx context.Context) (consistency.Mutation, error) {
		if err := s.requireFamilyAdmin(ctx, familyID, userID); err != nil {
			return consistency.Mutation{}, err
		}
		var before models.Family
		updated, err := s.families.Execute(ctx, familyID,
			func(f *models.Family) error {
				before = *f
				draft := *f
				return draft.ApplyUpdate(name, description, now)
			},
			func(f *models.Family) { _ = f.ApplyUpdate(name, description, now) },
		)
		if err != nil {
			return consistency.Mutation{}, translate(err, "family not found", "failed to update family")
		}
		if err := s.emit(ctx, audit.Event{
			FamilyID:   familyID,
			EntityType: audit.EntityFamily,
			EntityID:   familyID.String(),
			Action:     audit.ActionUpdate,
			ActorID:    userID,
			Before:     snapshot(&before),
			After:      snapshot(updated),
		}); err != nil {
			return consistency.Mutation{}, err
		}
		members, err := s.familyListeners(ctx, familyID)
		if err != nil {
			return consistency.Mutation{}, err
		}
		out = updated
		return consistency.Mutation{Kind: consistency.UpdateFamily, FamilyID: familyID, UserID: userID, Members: members}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListMyFamilies returns the user's MEMBER and AWAITING memberships joined
// with their families.
func (s *Service) ListMyFamilies(ctx context.Context, userID id.UserID) ([]models.MyFamily, consistency.Stamp, error) {
	deps := []consistency.Key{consistency.UserFamilies(userID)}
	return consistency.Read(ctx, s.reads, "my-families:"+userID.String(), deps, func(ctx context.Context) ([]models.MyFamily, error) {
		out, err := s.families.ListByUser(ctx, userID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list families")
		}
		return nonNil(out), nil
	})
}

// ListFamilyMembers returns the family's MEMBER rows. Visible to members.
func (s *Service) ListFamilyMembers(ctx context.Context, familyID id.FamilyID, userID id.UserID) ([]*models.FamilyMembership, consistency.Stamp, error) {
	if _, err := s.requireFamilyMember(ctx, familyID, userID); err != nil {
		return nil, "", err
	}
	return s.listFamilyMemberships(ctx, familyID, models.StatusMember, consistency.FamilyMembers(familyID))
}

// ListFamilyRequests returns the family's AWAITING rows. Visible to admins.
func (s *Service) ListFamilyRequests(ctx context.Context, familyID id.FamilyID, userID id.UserID) ([]*models.FamilyMembership, consistency.Stamp, error) {
	if err := s.requireFamilyAdmin(ctx, familyID, userID); err != nil {
		return nil, "", err
	}
	return s.listFamilyMemberships(ctx, familyID, models.StatusAwaiting, consistency.FamilyRequests(familyID))
}

func (s *Service) listFamilyMemberships(ctx context.Context, familyID id.FamilyID, status models.Status, dep consistency.Key) ([]*models.FamilyMembership, consistency.Stamp, error) {
	cacheKey := string(dep) + ":" + status.String()
	return consistency.Read(ctx, s.reads, cacheKey, []consistency.Key{dep}, func(ctx context.Context) ([]*models.FamilyMembership, error) {
		rows, err := s.families.ListMemberships(ctx, familyID, status)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list family memberships")
		}
		return nonNil(rows), nil
	})
}

// RequestFamilyMembership moves the user's row to AWAITING, creating it when
// absent, and notifies the family admins.
func (s *Service) RequestFamilyMembership(ctx context.Context, familyID id.FamilyID, userID id.UserID) (*models.FamilyMembership, error) {
	now := requestcontext.Now(ctx)
	var out *models.FamilyMembership
	err := s.mutate(ctx, "request_family_membership", func(ctx context.Context) (consistency.Mutation, error) {
		var before *models.FamilyMembership
		m, err := s.families.ExecuteMembership(ctx, familyID, userID,
			func(current *models.FamilyMembership) error {
				before = current
				if current == nil {
					return models.CanRequestFrom("")
				}
				return current.CanRequest()
			},
			func(m *models.FamilyMembership) { m.ApplyRequest(now) },
		)
		if err != nil {
			return consistency.Mutation{}, translate(err, "family not found", "failed to request family membership")
		}
		if err := s.emit(ctx, memberEvent(familyID, userID, userID, before, m)); err != nil {
			return consistency.Mutation{}, err
		}
		admins, err := s.families.ListAdmins(ctx, familyID)
		if err != nil {
			return consistency.Mutation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list family admins")
		}
		notified, err := s.notify(ctx, notificationModels.FamilyMembershipRequested(admins, userID, familyID))
		if err != nil {
			return consistency.Mutation{}, err
		}
		out = m
		return consistency.Mutation{
			Kind:     consistency.RequestFamilyMembership,
			FamilyID: familyID,
			UserID:   userID,
			Notified: notified,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReviewFamilyMembership approves or declines an AWAITING row. The reviewer
// must be a family admin; a row that is no longer AWAITING fails with
// invalid_transition, so of two concurrent reviews exactly one wins.
func (s *Service) ReviewFamilyMembership(ctx context.Context, familyID id.FamilyID, targetUserID id.UserID, approve bool, reviewerID id.UserID) (*models.FamilyMembership, error) {
	now := requestcontext.Now(ctx)
	var out *models.FamilyMembership
	err := s.mutate(ctx, "review_family_membership", func(ctx context.Context) (consistency.Mutation, error) {
		if err := s.requireFamilyAdmin(ctx, familyID, reviewerID); err != nil {
			return consistency.Mutation{}, err
		}
		var before *models.FamilyMembership
		m, err := s.families.ExecuteMembership(ctx, familyID, targetUserID,
			func(current *models.FamilyMembership) error {
				if current == nil {
					return dErrors.New(dErrors.CodeNotFound, "membership request not found")
				}
				before = current
				return current.CanReview()
			},
			func(m *models.FamilyMembership) { m.ApplyReview(approve, now) },
		)
		if err != nil {
			return consistency.Mutation{}, translate(err, "family not found", "failed to review family membership")
		}
		if err := s.emit(ctx, memberEvent(familyID, targetUserID, reviewerID, before, m)); err != nil {
			return consistency.Mutation{}, err
		}
		notified, err := s.notify(ctx, notificationModels.FamilyMembershipReviewed(targetUserID, familyID, approve))
		if err != nil {
			return consistency.Mutation{}, err
		}
		out = m
		return consistency.Mutation{
			Kind:     consistency.ReviewFamilyMembership,
			FamilyID: familyID,
			UserID:   targetUserID,
			Notified: notified,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// memberEvent records a membership row change. A nil before means the row
// was created.
func memberEvent[T any](familyID id.FamilyID, subject, actor id.UserID, before, after *T) audit.Event {
	action := audit.ActionUpdate
	if before == nil {
		action = audit.ActionCreate
	}
	if after == nil {
		action = audit.ActionDelete
	}
	return audit.Event{
		FamilyID:   familyID,
		EntityType: audit.EntityMember,
		EntityID:   subject.String(),
		Action:     action,
		ActorID:    actor,
		Before:     snapshot(before),
		After:      snapshot(after),
	}
}
