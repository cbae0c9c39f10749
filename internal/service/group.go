package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mypeople/backend/internal/apperror"
	"github.com/mypeople/backend/internal/model"
	"github.com/mypeople/backend/internal/repository"
)

// Validation constants.
const (
	MaxGroupNameLength = 100
)

// GroupService is the ownership and membership authority for groups.
//
// THE TWO RULES IT ENFORCES:
//  1. Only the author mutates. Every write — rename, cover image, member
//     additions, deletion — requires principal == group.AuthorID. Membership
//     grants read access, never write access.
//  2. Only followers get in. A candidate member must already follow the
//     inviting author (the trust gate); everyone else is skipped, reported
//     but never inserted.
type GroupService struct {
	groups repository.GroupRepository
	rels   repository.RelationshipRepository
	logger *slog.Logger
}

func NewGroupService(
	groups repository.GroupRepository,
	rels repository.RelationshipRepository,
	logger *slog.Logger,
) *GroupService {
	return &GroupService{groups: groups, rels: rels, logger: logger}
}

// authorizeMutation is the single write gate: the principal must be the
// group's author. Membership does not matter here.
func authorizeMutation(group *model.Group, principal *model.User) error {
	if group.AuthorID != principal.ID {
		return apperror.Forbidden(
			fmt.Sprintf("group with id %s does not belong to %s", group.ID, principal.ID))
	}
	return nil
}

// Create makes a new group authored by the principal. The author is not
// added as a member — eligibility for membership always goes through the
// trust gate, and authorship alone already grants every right the author
// needs.
func (s *GroupService) Create(ctx context.Context, principal *model.User, name, coverImageURL string) (*model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "group name is required")
	}
	if len(name) > MaxGroupNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("group name must be %d characters or less", MaxGroupNameLength))
	}

	group := &model.Group{
		Name:          name,
		AuthorID:      principal.ID,
		CoverImageURL: strings.TrimSpace(coverImageURL),
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}

	s.logger.Info("group created",
		slog.String("groupID", group.ID),
		slog.String("authorID", principal.ID),
	)
	return group, nil
}

// Get returns a group with its member snapshot.
//
// READ RULE: the author or a member may read; anyone else gets Forbidden.
// (An earlier draft of the API let any authenticated user fetch any group by
// id; that was an oversight, not an open-read policy, and the stricter rule
// is pinned by tests.)
func (s *GroupService) Get(ctx context.Context, groupID string, principal *model.User) (*model.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if group.AuthorID != principal.ID {
		isMember, err := s.rels.IsMember(ctx, group.ID, principal.ID)
		if err != nil {
			return nil, fmt.Errorf("checking membership in group %s: %w", groupID, err)
		}
		if !isMember {
			return nil, apperror.Forbidden(
				fmt.Sprintf("group with id %s does not belong to %s", group.ID, principal.ID))
		}
	}

	members, err := s.rels.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("listing members of group %s: %w", groupID, err)
	}
	group.Members = members
	return group, nil
}

// List returns the principal's groups under the given filter: groups they
// authored, or groups they hold a membership edge in.
func (s *GroupService) List(ctx context.Context, principal *model.User, filter repository.GroupFilter) ([]model.Group, error) {
	var (
		groups []model.Group
		err    error
	)
	switch filter {
	case repository.GroupFilterMembership:
		groups, err = s.groups.ListByMember(ctx, principal.ID)
	default:
		groups, err = s.groups.ListByAuthor(ctx, principal.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	return groups, nil
}

// Update renames the group. Author only.
func (s *GroupService) Update(ctx context.Context, groupID string, principal *model.User, name string) (*model.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := authorizeMutation(group, principal); err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		if len(name) > MaxGroupNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("group name must be %d characters or less", MaxGroupNameLength))
		}
		group.Name = name
	}

	if err := s.groups.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("updating group %s: %w", groupID, err)
	}

	s.logger.Info("group updated", slog.String("groupID", group.ID))
	return group, nil
}

// UpdateCoverImage sets the group's cover reference. Author only.
func (s *GroupService) UpdateCoverImage(ctx context.Context, groupID string, principal *model.User, imageURL string) (*model.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := authorizeMutation(group, principal); err != nil {
		return nil, err
	}

	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, apperror.ValidationFailed("cover_image_url", "an image reference is required")
	}

	group.CoverImageURL = imageURL
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("updating cover image of group %s: %w", groupID, err)
	}

	s.logger.Info("group cover image updated", slog.String("groupID", group.ID))
	return group, nil
}

// AddMembers runs the trust gate for a batch of candidate user ids and
// returns the group with its post-insertion member list plus a report of
// what happened to each candidate.
//
// Author only. Unknown ids and candidates who don't follow the author are
// skipped — reported, not erred — and already-members are no-ops. The
// eligibility checks and the inserts run in one repository transaction, so a
// concurrent unfollow can't slip between the check and the insert.
func (s *GroupService) AddMembers(ctx context.Context, groupID string, principal *model.User, userIDs []string) (*model.Group, *model.MemberReport, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	if err := authorizeMutation(group, principal); err != nil {
		return nil, nil, err
	}

	report, err := s.rels.AddEligibleMembers(ctx, group.ID, principal.ID, userIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("adding members to group %s: %w", groupID, err)
	}

	members, err := s.rels.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing members of group %s: %w", groupID, err)
	}
	group.Members = members

	s.logger.Info("group members added",
		slog.String("groupID", group.ID),
		slog.Int("added", len(report.Added)),
		slog.Int("skippedNotFound", len(report.SkippedNotFound)),
		slog.Int("skippedNotFollower", len(report.SkippedNotFollower)),
	)
	return group, report, nil
}

// Delete removes the group and cascades to its events and membership edges.
// Author only. Follow edges of former members are untouched.
func (s *GroupService) Delete(ctx context.Context, groupID string, principal *model.User) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if err := authorizeMutation(group, principal); err != nil {
		return err
	}

	if err := s.groups.Delete(ctx, group.ID); err != nil {
		return fmt.Errorf("deleting group %s: %w", groupID, err)
	}

	s.logger.Info("group deleted",
		slog.String("groupID", group.ID),
		slog.String("authorID", principal.ID),
	)
	return nil
}
