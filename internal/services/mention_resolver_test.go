package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mosaicpm/mosaic/backend/internal/models"
)

func member(userID uuid.UUID, firstName, lastName, email string) *models.BoardMember {
	return &models.BoardMember{
		UserID:    userID,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
	}
}

func TestResolveMentionsByName(t *testing.T) {
	boardID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	boardRepo := new(mockBoardRepository)
	boardRepo.On("ListMembers", mock.Anything, boardID).Return([]*models.BoardMember{
		member(alice, "Alice", "Smith", "alice@example.com"),
		member(bob, "Bob", "Jones", "bob@example.com"),
	}, nil)

	resolver := NewMentionResolver(boardRepo)

	ids, err := resolver.Resolve(context.Background(), boardID, "hey @alice_smith can you review this?")
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice}, ids)
}

func TestResolveMentionsByEmail(t *testing.T) {
	boardID := uuid.New()
	bob := uuid.New()

	boardRepo := new(mockBoardRepository)
	boardRepo.On("ListMembers", mock.Anything, boardID).Return([]*models.BoardMember{
		member(bob, "Bob", "Jones", "bob@example.com"),
	}, nil)

	resolver := NewMentionResolver(boardRepo)

	ids, err := resolver.Resolve(context.Background(), boardID, "ping @bob@example.com about the deploy")
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob}, ids)
}

func TestResolveMentionsCaseInsensitive(t *testing.T) {
	boardID := uuid.New()
	alice := uuid.New()

	boardRepo := new(mockBoardRepository)
	boardRepo.On("ListMembers", mock.Anything, boardID).Return([]*models.BoardMember{
		member(alice, "Alice", "Smith", "alice@example.com"),
	}, nil)

	resolver := NewMentionResolver(boardRepo)

	ids, err := resolver.Resolve(context.Background(), boardID, "@Alice_Smith please take a look")
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice}, ids)
}

func TestResolveMentionsDeduplicates(t *testing.T) {
	boardID := uuid.New()
	alice := uuid.New()

	boardRepo := new(mockBoardRepository)
	boardRepo.On("ListMembers", mock.Anything, boardID).Return([]*models.BoardMember{
		member(alice, "Alice", "Smith", "alice@example.com"),
	}, nil)

	resolver := NewMentionResolver(boardRepo)

	ids, err := resolver.Resolve(context.Background(), boardID, "@alice_smith and again @alice@example.com")
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice}, ids)
}

func TestResolveMentionsDropsUnknownTokens(t *testing.T) {
	boardID := uuid.New()

	boardRepo := new(mockBoardRepository)
	boardRepo.On("ListMembers", mock.Anything, boardID).Return([]*models.BoardMember{
		member(uuid.New(), "Alice", "Smith", "alice@example.com"),
	}, nil)

	resolver := NewMentionResolver(boardRepo)

	ids, err := resolver.Resolve(context.Background(), boardID, "@nobody_here and @stranger@example.com")
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestResolveMentionsNoTokensSkipsLookup(t *testing.T) {
	boardRepo := new(mockBoardRepository)
	resolver := NewMentionResolver(boardRepo)

	ids, err := resolver.Resolve(context.Background(), uuid.New(), "no mentions in this text")
	assert.NoError(t, err)
	assert.Empty(t, ids)
	boardRepo.AssertNotCalled(t, "ListMembers", mock.Anything, mock.Anything)
}

func TestResolveMentionsFirstMatchWins(t *testing.T) {
	boardID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	// Two members whose concatenations collide; the longest-standing
	// member (listed first) wins.
	boardRepo := new(mockBoardRepository)
	boardRepo.On("ListMembers", mock.Anything, boardID).Return([]*models.BoardMember{
		member(first, "Sam", "Lee", "sam.lee@example.com"),
		member(second, "Sam", "Lee", "sam.lee2@example.com"),
	}, nil)

	resolver := NewMentionResolver(boardRepo)

	ids, err := resolver.Resolve(context.Background(), boardID, "cc @sam_lee")
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first}, ids)
}
