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

// CreateGroup adds a group to a family. The creator must be a family member
// and becomes the group's first admin.
func (s *Service) CreateGroup(ctx context.Context, familyID id.FamilyID, name, description string, userID id.UserID) (*models.MyGroup, error) {
	now := requestcontext.Now(ctx)
	g, err := models.NewGroup(id.NewGroupID(), familyID, name, description, userID, now)
	if err != nil {
		return nil, err
	}

	var out *models.MyGroup
	err = s.mutate(ctx, "create_group", func(ctx context.Context) (consistency.Mutation, error) {
		if _, err := s.requireFamilyMember(ctx, familyID, userID); err != nil {
			return consistency.Mutation{}, err
		}
		if err := s.groups.Create(ctx, g); err != nil {
			return consistency.Mutation{}, translate(err, "group not found", "failed to create group")
		}
		m, err := s.groups.ExecuteMembership(ctx, familyID, g.ID, userID,
			func(*models.GroupMembership) error { return nil },
			func(m *models.GroupMembership) { m.ApplyGrant(true, now) },
		)
		if err != nil {
			return consistency.Mutation{}, translate(err, "group not found", "failed to create group membership")
		}
		if err := s.emit(ctx, audit.Event{
			FamilyID:   familyID,
			EntityType: audit.EntityGroup,
			EntityID:   g.ID.String(),
			Action:     audit.ActionCreate,
			ActorID:    userID,
			After:      snapshot(g),
		}); err != nil {
			return consistency.Mutation{}, err
		}
		if err := s.emit(ctx, memberEvent[models.GroupMembership](familyID, userID, userID, nil, m)); err != nil {
			return consistency.Mutation{}, err
		}
		out = &models.MyGroup{Group: g, Membership: m}
		return consistency.Mutation{Kind: consistency.CreateGroup, FamilyID: familyID, GroupID: g.ID, UserID: userID}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListGroups returns a family's groups. Requires family membership.
func (s *Service) ListGroups(ctx context.Context, familyID id.FamilyID, userID id.UserID) ([]*models.Group, consistency.Stamp, error) {
	if _, err := s.requireFamilyMember(ctx, familyID, userID); err != nil {
		return nil, "", err
	}
	deps := []consistency.Key{consistency.FamilyGroups(familyID)}
	return consistency.Read(ctx, s.reads, "groups:"+familyID.String(), deps, func(ctx context.Context) ([]*models.Group, error) {
		groups, err := s.groups.ListByFamily(ctx, familyID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list groups")
		}
		return nonNil(groups), nil
	})
}

func (s *Service) ListMyGroups(ctx context.Context, userID id.UserID) ([]models.MyGroup, consistency.Stamp, error) {
	deps := []consistency.Key{consistency.UserGroups(userID)}
	return consistency.Read(ctx, s.reads, "my-groups:"+userID.String(), deps, func(ctx context.Context) ([]models.MyGroup, error) {
		out, err := s.groups.ListByUser(ctx, userID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list groups")
		}
		return nonNil(out), nil
	})
}

// UpdateGroup changes a group's name or description. Group admins only.
func (s *Service) UpdateGroup(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, name, description *string, userID id.UserID) (*models.Group, error) {
	now := requestcontext.Now(ctx)
	var out *models.Group
	err := s.mutate(ctx, "update_group", func(ctx context.Context) (consistency.Mutation, error) {
		if _, err := s.requireGroupAdmin(ctx, familyID, groupID, userID); err != nil {
			return consistency.Mutation{}, err
		}
		var before models.Group
		updated, err := s.groups.Execute(ctx, familyID, groupID,
			func(g *models.Group) error {
				before = *g
				draft := *g
				return draft.ApplyUpdate(name, description, now)
			},
			func(g *models.Group) { _ = g.ApplyUpdate(name, description, now) },
		)
		if err != nil {
			return consistency.Mutation{}, translate(err, "group not found", "failed to update group")
		}
		if err := s.emit(ctx, audit.Event{
			FamilyID:   familyID,
			EntityType: audit.EntityGroup,
			EntityID:   groupID.String(),
			Action:     audit.ActionUpdate,
			ActorID:    userID,
			Before:     snapshot(&before),
			After:      snapshot(updated),
		}); err != nil {
			return consistency.Mutation{}, err
		}
		members, err := s.groupListeners(ctx, groupID)
		if err != nil {
			return consistency.Mutation{}, err
		}
		out = updated
		return consistency.Mutation{Kind: consistency.UpdateGroup, FamilyID: familyID, GroupID: groupID, UserID: userID, Members: members}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteGroup removes a group together with all of its memberships.
func (s *Service) DeleteGroup(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, userID id.UserID) error {
	return s.mutate(ctx, "delete_group", func(ctx context.Context) (consistency.Mutation, error) {
		g, err := s.requireGroupAdmin(ctx, familyID, groupID, userID)
		if err != nil {
			return consistency.Mutation{}, err
		}
		members, err := s.groupListeners(ctx, groupID)
		if err != nil {
			return consistency.Mutation{}, err
		}
		if err := s.groups.Delete(ctx, familyID, groupID); err != nil {
			return consistency.Mutation{}, translate(err, "group not found", "failed to delete group")
		}
		if err := s.emit(ctx, audit.Event{
			FamilyID:   familyID,
			EntityType: audit.EntityGroup,
			EntityID:   groupID.String(),
			Action:     audit.ActionDelete,
			ActorID:    userID,
			Before:     snapshot(g),
		}); err != nil {
			return consistency.Mutation{}, err
		}
		return consistency.Mutation{Kind: consistency.DeleteGroup, FamilyID: familyID, GroupID: groupID, UserID: userID, Members: members}, nil
	})
}

// ListGroupMembers returns the group's MEMBER rows. Visible to family members.
func (s *Service) ListGroupMembers(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, userID id.UserID) ([]*models.GroupMembership, consistency.Stamp, error) {
	if _, err := s.requireFamilyMember(ctx, familyID, userID); err != nil {
		return nil, "", err
	}
	if _, err := s.requireGroup(ctx, familyID, groupID); err != nil {
		return nil, "", err
	}
	return s.listGroupMemberships(ctx, groupID, models.StatusMember, consistency.GroupMembers(groupID))
}

// ListGroupRequests returns the group's AWAITING rows. Visible to group admins.
func (s *Service) ListGroupRequests(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, userID id.UserID) ([]*models.GroupMembership, consistency.Stamp, error) {
	if _, err := s.requireGroupAdmin(ctx, familyID, groupID, userID); err != nil {
		return nil, "", err
	}
	return s.listGroupMemberships(ctx, groupID, models.StatusAwaiting, consistency.GroupRequests(groupID))
}

func (s *Service) listGroupMemberships(ctx context.Context, groupID id.GroupID, status models.Status, dep consistency.Key) ([]*models.GroupMembership, consistency.Stamp, error) {
	cacheKey := string(dep) + ":" + status.String()
	return consistency.Read(ctx, s.reads, cacheKey, []consistency.Key{dep}, func(ctx context.Context) ([]*models.GroupMembership, error) {
		rows, err := s.groups.ListMemberships(ctx, groupID, status)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list group memberships")
		}
		return nonNil(rows), nil
	})
}

// RequestGroupMembership moves the user's group row to AWAITING. Only family
// members may request; group admins are notified.
func (s *Service) RequestGroupMembership(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, userID id.UserID) (*models.GroupMembership, error) {
	now := requestcontext.Now(ctx)
	var out *models.GroupMembership
	err := s.mutate(ctx, "request_group_membership", func(ctx context.Context) (consistency.Mutation, error) {
		if _, err := s.requireGroup(ctx, familyID, groupID); err != nil {
			return consistency.Mutation{}, err
		}
		if _, err := s.requireFamilyMember(ctx, familyID, userID); err != nil {
			return consistency.Mutation{}, err
		}
		var before *models.GroupMembership
		m, err := s.groups.ExecuteMembership(ctx, familyID, groupID, userID,
			func(current *models.GroupMembership) error {
				before = current
				if current == nil {
					return models.CanRequestFrom("")
				}
				return current.CanRequest()
			},
			func(m *models.GroupMembership) { m.ApplyRequest(now) },
		)
		if err != nil {
			return consistency.Mutation{}, translate(err, "group not found", "failed to request group membership")
		}
		if err := s.emit(ctx, memberEvent(familyID, userID, userID, before, m)); err != nil {
			return consistency.Mutation{}, err
		}
		admins, err := s.groups.ListAdmins(ctx, groupID)
		if err != nil {
			return consistency.Mutation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list group admins")
		}
		notified, err := s.notify(ctx, notificationModels.GroupMembershipRequested(admins, userID, familyID, groupID))
		if err != nil {
			return consistency.Mutation{}, err
		}
		out = m
		return consistency.Mutation{
			Kind:     consistency.RequestGroupMembership,
			FamilyID: familyID,
			GroupID:  groupID,
			UserID:   userID,
			Notified: notified,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReviewGroupMembership approves or declines an AWAITING group row. The
// reviewer must be a group admin.
func (s *Service) ReviewGroupMembership(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, targetUserID id.UserID, approve bool, reviewerID id.UserID) (*models.GroupMembership, error) {
	now := requestcontext.Now(ctx)
	var out *models.GroupMembership
	err := s.mutate(ctx, "review_group_membership", func(ctx context.Context) (consistency.Mutation, error) {
		if _, err := s.requireGroupAdmin(ctx, familyID, groupID, reviewerID); err != nil {
			return consistency.Mutation{}, err
		}
		var before *models.GroupMembership
		m, err := s.groups.ExecuteMembership(ctx, familyID, groupID, targetUserID,
			func(current *models.GroupMembership) error {
				if current == nil {
					return dErrors.New(dErrors.CodeNotFound, "membership request not found")
				}
				before = current
				return current.CanReview()
			},
			func(m *models.GroupMembership) { m.ApplyReview(approve, now) },
		)
		if err != nil {
			return consistency.Mutation{}, translate(err, "group not found", "failed to review group membership")
		}
		if err := s.emit(ctx, memberEvent(familyID, targetUserID, reviewerID, before, m)); err != nil {
			return consistency.Mutation{}, err
		}
		notified, err := s.notify(ctx, notificationModels.GroupMembershipReviewed(targetUserID, familyID, groupID, approve))
		if err != nil {
			return consistency.Mutation{}, err
		}
		out = m
		return consistency.Mutation{
			Kind:     consistency.ReviewGroupMembership,
			FamilyID: familyID,
			GroupID:  groupID,
			UserID:   targetUserID,
			Notified: notified,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddGroupMemberDirect grants MEMBER status without a request. The admin
// must administer the group and the target must already be a family member.
// The target is told unless they added themselves.
func (s *Service) AddGroupMemberDirect(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, targetUserID id.UserID, makeAdmin bool, adminID id.UserID) (*models.GroupMembership, error) {
	now := requestcontext.Now(ctx)
	var out *models.GroupMembership
	err := s.mutate(ctx, "add_group_member", func(ctx context.Context) (consistency.Mutation, error) {
		g, err := s.requireGroupAdmin(ctx, familyID, groupID, adminID)
		if err != nil {
			return consistency.Mutation{}, err
		}
		target, err := s.familyMembership(ctx, familyID, targetUserID)
		if err != nil {
			return consistency.Mutation{}, err
		}
		if target == nil || !target.IsMember() {
			return consistency.Mutation{}, dErrors.New(dErrors.CodeValidation, "target user is not a member of the family")
		}
		var before *models.GroupMembership
		m, err := s.groups.ExecuteMembership(ctx, familyID, groupID, targetUserID,
			func(current *models.GroupMembership) error {
				before = current
				return nil
			},
			func(m *models.GroupMembership) { m.ApplyGrant(makeAdmin, now) },
		)
		if err != nil {
			return consistency.Mutation{}, translate(err, "group not found", "failed to add group member")
		}
		if err := s.emit(ctx, memberEvent(familyID, targetUserID, adminID, before, m)); err != nil {
			return consistency.Mutation{}, err
		}
		var notified []id.UserID
		if targetUserID != adminID {
			notified, err = s.notify(ctx, notificationModels.AddedToGroup(targetUserID, familyID, groupID, g.Name))
			if err != nil {
				return consistency.Mutation{}, err
			}
		}
		out = m
		return consistency.Mutation{
			Kind:     consistency.AddGroupMember,
			FamilyID: familyID,
			GroupID:  groupID,
			UserID:   targetUserID,
			Notified: notified,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateGroupMemberRole sets a member's admin flag. The target row must be
// MEMBER; a row already at the requested value is returned without a write.
func (s *Service) UpdateGroupMemberRole(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, targetUserID id.UserID, isAdmin bool, adminID id.UserID) (*models.GroupMembership, error) {
	now := requestcontext.Now(ctx)
	var out *models.GroupMembership
	err := s.mutate(ctx, "update_group_member_role", func(ctx context.Context) (consistency.Mutation, error) {
		if _, err := s.requireGroupAdmin(ctx, familyID, groupID, adminID); err != nil {
			return consistency.Mutation{}, err
		}
		var before *models.GroupMembership
		m, err := s.groups.ExecuteMembership(ctx, familyID, groupID, targetUserID,
			func(current *models.GroupMembership) error {
				if current == nil {
					return dErrors.New(dErrors.CodeNotFound, "group membership not found")
				}
				if err := current.CanChangeRole(); err != nil {
					return err
				}
				if current.IsAdmin == isAdmin {
					out = current
					return errUnchanged
				}
				before = current
				return nil
			},
			func(m *models.GroupMembership) { m.ApplyRole(isAdmin, now) },
		)
		if err != nil {
			return consistency.Mutation{}, translate(err, "group not found", "failed to update member role")
		}
		if err := s.emit(ctx, memberEvent(familyID, targetUserID, adminID, before, m)); err != nil {
			return consistency.Mutation{}, err
		}
		out = m
		return consistency.Mutation{Kind: consistency.UpdateGroupMemberRole, FamilyID: familyID, GroupID: groupID, UserID: targetUserID}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveGroupMember deletes an active group membership. Group admins may
// remove anyone; every user may remove themselves. AWAITING and DECLINED
// rows fail with invalid_transition.
func (s *Service) RemoveGroupMember(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, targetUserID, actorID id.UserID) (*models.GroupMembership, error) {
	var out *models.GroupMembership
	err := s.mutate(ctx, "remove_group_member", func(ctx context.Context) (consistency.Mutation, error) {
		if actorID == targetUserID {
			if _, err := s.requireGroup(ctx, familyID, groupID); err != nil {
				return consistency.Mutation{}, err
			}
		} else if _, err := s.requireGroupAdmin(ctx, familyID, groupID, actorID); err != nil {
			return consistency.Mutation{}, err
		}
		removed, err := s.groups.DeleteMembership(ctx, groupID, targetUserID,
			func(m *models.GroupMembership) error { return m.CanRemove() },
		)
		if err != nil {
			return consistency.Mutation{}, translate(err, "group membership not found", "failed to remove group member")
		}
		if err := s.emit(ctx, memberEvent[models.GroupMembership](familyID, targetUserID, actorID, removed, nil)); err != nil {
			return consistency.Mutation{}, err
		}
		out = removed
		return consistency.Mutation{Kind: consistency.RemoveGroupMember, FamilyID: familyID, GroupID: groupID, UserID: targetUserID}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
