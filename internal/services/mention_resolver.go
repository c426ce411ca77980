package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
)

// mentionPattern matches the token forms users can type after an @:
// a full email address, a first_last pair, or a single word.
var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}|[a-zA-Z0-9]+_[a-zA-Z0-9]+|[a-zA-Z0-9]+)`)

// MentionResolver maps @tokens inside message text to board member ids
type MentionResolver interface {
	// Resolve returns the ids of board members mentioned in text, in
	// order of first appearance, without duplicates. Tokens that match
	// no member are dropped.
	Resolve(ctx context.Context, boardID uuid.UUID, text string) ([]uuid.UUID, error)
}

type mentionResolver struct {
	boardRepo repository.BoardRepository
}

// NewMentionResolver creates a resolver backed by board membership
func NewMentionResolver(boardRepo repository.BoardRepository) MentionResolver {
	return &mentionResolver{boardRepo: boardRepo}
}

func (r *mentionResolver) Resolve(ctx context.Context, boardID uuid.UUID, text string) ([]uuid.UUID, error) {
	if !strings.Contains(text, "@") {
		return nil, nil
	}

	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	members, err := r.boardRepo.ListMembers(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board members: %w", err)
	}

	var resolved []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, match := range matches {
		member := matchMember(members, strings.ToLower(match[1]))
		if member == nil || seen[member.UserID] {
			continue
		}
		seen[member.UserID] = true
		resolved = append(resolved, member.UserID)
	}
	return resolved, nil
}

// matchMember finds the first member whose mention text or email equals the
// token. Members are ordered by join date, so ambiguous tokens resolve to
// the longest-standing member.
func matchMember(members []*models.BoardMember, token string) *models.BoardMember {
	for _, m := range members {
		if m.MentionText() == token || strings.ToLower(m.Email) == token {
			return m
		}
	}
	return nil
}
