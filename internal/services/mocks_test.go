package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
)

type mockThreadRepository struct {
	mock.Mock
}

func (m *mockThreadRepository) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return m.Called(ctx, fn).Error(0)
}

func (m *mockThreadRepository) EnsureThread(ctx context.Context, boardID uuid.UUID) (*models.MessageThread, error) {
	args := m.Called(ctx, boardID)
	thread, _ := args.Get(0).(*models.MessageThread)
	return thread, args.Error(1)
}

func (m *mockThreadRepository) GetThreadByBoard(ctx context.Context, boardID uuid.UUID) (*models.MessageThread, error) {
	args := m.Called(ctx, boardID)
	thread, _ := args.Get(0).(*models.MessageThread)
	return thread, args.Error(1)
}

func (m *mockThreadRepository) GetThreadByID(ctx context.Context, id uuid.UUID) (*models.MessageThread, error) {
	args := m.Called(ctx, id)
	thread, _ := args.Get(0).(*models.MessageThread)
	return thread, args.Error(1)
}

func (m *mockThreadRepository) AppendMessage(ctx context.Context, message *models.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *mockThreadRepository) GetMessageByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	args := m.Called(ctx, id)
	message, _ := args.Get(0).(*models.Message)
	return message, args.Error(1)
}

func (m *mockThreadRepository) ListMessages(ctx context.Context, threadID uuid.UUID, page repository.MessagePage) ([]*models.MessageWithSender, error) {
	args := m.Called(ctx, threadID, page)
	messages, _ := args.Get(0).([]*models.MessageWithSender)
	return messages, args.Error(1)
}

func (m *mockThreadRepository) ListAllMessages(ctx context.Context, threadID uuid.UUID) ([]*models.MessageWithSender, error) {
	args := m.Called(ctx, threadID)
	messages, _ := args.Get(0).([]*models.MessageWithSender)
	return messages, args.Error(1)
}

func (m *mockThreadRepository) SearchMessages(ctx context.Context, threadID uuid.UUID, query string, offset, limit int) ([]*models.MessageWithSender, error) {
	args := m.Called(ctx, threadID, query, offset, limit)
	messages, _ := args.Get(0).([]*models.MessageWithSender)
	return messages, args.Error(1)
}

func (m *mockThreadRepository) UpdateMessage(ctx context.Context, message *models.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *mockThreadRepository) SoftDeleteMessage(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockThreadRepository) ResetUnread(ctx context.Context, threadID uuid.UUID) error {
	return m.Called(ctx, threadID).Error(0)
}

type mockBoardRepository struct {
	mock.Mock
}

func (m *mockBoardRepository) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return m.Called(ctx, fn).Error(0)
}

func (m *mockBoardRepository) Create(ctx context.Context, board *models.Board) error {
	return m.Called(ctx, board).Error(0)
}

func (m *mockBoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	args := m.Called(ctx, id)
	board, _ := args.Get(0).(*models.Board)
	return board, args.Error(1)
}

func (m *mockBoardRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]*models.Board, error) {
	args := m.Called(ctx, orgID, offset, limit)
	boards, _ := args.Get(0).([]*models.Board)
	return boards, args.Error(1)
}

func (m *mockBoardRepository) Update(ctx context.Context, board *models.Board) error {
	return m.Called(ctx, board).Error(0)
}

func (m *mockBoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBoardRepository) AddMember(ctx context.Context, boardID, userID uuid.UUID, role models.BoardRole) error {
	return m.Called(ctx, boardID, userID, role).Error(0)
}

func (m *mockBoardRepository) RemoveMember(ctx context.Context, boardID, userID uuid.UUID) error {
	return m.Called(ctx, boardID, userID).Error(0)
}

func (m *mockBoardRepository) IsMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, boardID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockBoardRepository) ListMembers(ctx context.Context, boardID uuid.UUID) ([]*models.BoardMember, error) {
	args := m.Called(ctx, boardID)
	members, _ := args.Get(0).([]*models.BoardMember)
	return members, args.Error(1)
}

type mockOrganizationRepository struct {
	mock.Mock
}

func (m *mockOrganizationRepository) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return m.Called(ctx, fn).Error(0)
}

func (m *mockOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *mockOrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, id)
	org, _ := args.Get(0).(*models.Organization)
	return org, args.Error(1)
}

func (m *mockOrganizationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	args := m.Called(ctx, userID)
	orgs, _ := args.Get(0).([]*models.Organization)
	return orgs, args.Error(1)
}

func (m *mockOrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *mockOrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrganizationRepository) AddMember(ctx context.Context, member *models.OrganizationMember) error {
	return m.Called(ctx, member).Error(0)
}

func (m *mockOrganizationRepository) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error {
	return m.Called(ctx, orgID, userID).Error(0)
}

func (m *mockOrganizationRepository) GetMember(ctx context.Context, orgID, userID uuid.UUID) (*models.OrganizationMember, error) {
	args := m.Called(ctx, orgID, userID)
	member, _ := args.Get(0).(*models.OrganizationMember)
	return member, args.Error(1)
}

func (m *mockOrganizationRepository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.OrganizationMember, error) {
	args := m.Called(ctx, orgID)
	members, _ := args.Get(0).([]*models.OrganizationMember)
	return members, args.Error(1)
}

type mockInvitationRepository struct {
	mock.Mock
}

func (m *mockInvitationRepository) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return m.Called(ctx, fn).Error(0)
}

func (m *mockInvitationRepository) Upsert(ctx context.Context, invitation *models.Invitation) error {
	return m.Called(ctx, invitation).Error(0)
}

func (m *mockInvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	args := m.Called(ctx, id)
	invitation, _ := args.Get(0).(*models.Invitation)
	return invitation, args.Error(1)
}

func (m *mockInvitationRepository) GetByToken(ctx context.Context, token string) (*models.InvitationWithInviter, error) {
	args := m.Called(ctx, token)
	invitation, _ := args.Get(0).(*models.InvitationWithInviter)
	return invitation, args.Error(1)
}

func (m *mockInvitationRepository) GetByOrgEmail(ctx context.Context, orgID uuid.UUID, email string) (*models.Invitation, error) {
	args := m.Called(ctx, orgID, email)
	invitation, _ := args.Get(0).(*models.Invitation)
	return invitation, args.Error(1)
}

func (m *mockInvitationRepository) ListPending(ctx context.Context, orgID uuid.UUID) ([]*models.InvitationWithInviter, error) {
	args := m.Called(ctx, orgID)
	invitations, _ := args.Get(0).([]*models.InvitationWithInviter)
	return invitations, args.Error(1)
}

func (m *mockInvitationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus, acceptedAt *time.Time) error {
	return m.Called(ctx, id, status, acceptedAt).Error(0)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return m.Called(ctx, fn).Error(0)
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepository) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	args := m.Called(ctx, offset, limit)
	users, _ := args.Get(0).([]*models.User)
	return users, args.Error(1)
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// recordingBroker captures published events so tests can assert the
// publish-after-persist contract without opening sockets
type recordingBroker struct {
	events []publishedEvent
}

type publishedEvent struct {
	Room    string
	Event   string
	Payload interface{}
}

func (b *recordingBroker) Publish(room, event string, payload interface{}) error {
	b.events = append(b.events, publishedEvent{Room: room, Event: event, Payload: payload})
	return nil
}
