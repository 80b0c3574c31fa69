package services

import (
	"context"
	"errors"

	"ainews/internal/ids"
	"ainews/internal/models"
	"ainews/internal/ratelimit"
	"ainews/internal/store"
	"ainews/internal/utils"
)

type VoteService struct {
	store  store.Store
	limits *ratelimit.Set
	cache  *utils.Cache
}

func NewVoteService(st store.Store, limits *ratelimit.Set, cache *utils.Cache) *VoteService {
	return &VoteService{store: st, limits: limits, cache: cache}
}

// Vote records user's upvote: points +1 on the story and karma +1 for its
// submitter, if any. A second vote fails with ALREADY_VOTED_ERROR.
func (s *VoteService) Vote(ctx context.Context, user *models.User, storyID string) error {
	if err := checkLimit(ctx, s.limits, ratelimit.Vote, user.ID); err != nil {
		return err
	}

	err := s.store.Tx(ctx, func(tx store.Store) error {
		story, err := tx.GetStory(ctx, storyID)
		if err != nil {
			return err
		}
		if _, err := tx.GetVote(ctx, user.ID, storyID); err == nil {
			return errAlreadyVoted
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		vote := &models.Vote{ID: ids.NewVoteID(), UserID: user.ID, StoryID: storyID}
		if err := tx.CreateVote(ctx, vote); err != nil {
			return err
		}
		if err := tx.AdjustStoryPoints(ctx, storyID, 1); err != nil {
			return err
		}
		if story.SubmittedBy != nil {
			return tx.AdjustKarma(ctx, *story.SubmittedBy, 1)
		}
		return nil
	})
	if err != nil {
		// 并发重复投票被唯一索引拦下
		if errors.Is(err, store.ErrConflict) {
			return errAlreadyVoted
		}
		return AsActionError("vote", err)
	}

	s.cache.DeletePrefix(listCachePrefix)
	return nil
}

// Unvote removes user's vote and reverses its effect. Submitters cannot
// unvote their own story. Without an existing vote nothing changes.
func (s *VoteService) Unvote(ctx context.Context, user *models.User, storyID string) error {
	if err := checkLimit(ctx, s.limits, ratelimit.Unvote, user.ID); err != nil {
		return err
	}

	err := s.store.Tx(ctx, func(tx store.Store) error {
		story, err := tx.GetStory(ctx, storyID)
		if err != nil {
			return err
		}
		if story.SubmittedBy != nil && *story.SubmittedBy == user.ID {
			return errSelfUnvote
		}

		deleted, err := tx.DeleteVote(ctx, user.ID, storyID)
		if err != nil || !deleted {
			return err
		}
		if err := tx.AdjustStoryPoints(ctx, storyID, -1); err != nil {
			return err
		}
		if story.SubmittedBy != nil {
			return tx.AdjustKarma(ctx, *story.SubmittedBy, -1)
		}
		return nil
	})
	if err != nil {
		return AsActionError("unvote", err)
	}

	s.cache.DeletePrefix(listCachePrefix)
	return nil
}

// HasVoted reports whether user has an active vote on the story.
func (s *VoteService) HasVoted(ctx context.Context, userID, storyID string) (bool, error) {
	_, err := s.store.GetVote(ctx, userID, storyID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
