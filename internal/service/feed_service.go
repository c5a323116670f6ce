package service

import (
	"context"
	"sort"
	"time"

	"social-hub/internal/model"
	"social-hub/internal/repository"

	"go.uber.org/zap"
)

// PresenceChecker 批量查询在线状态
type PresenceChecker interface {
	OnlineMany(ctx context.Context, userIDs []uint) (map[uint]bool, error)
}

// FeedService 好友列表与会话摘要，只读
type FeedService struct {
	settings
	friends       *repository.FriendRepository
	users         *repository.UserRepository
	conversations *repository.ConversationRepository
	presence      PresenceChecker
}

// NewFeedService presence 为 nil 时摘要中不带在线状态
func NewFeedService(
	friends *repository.FriendRepository,
	users *repository.UserRepository,
	conversations *repository.ConversationRepository,
	presence PresenceChecker,
	opts ...Option,
) *FeedService {
	return &FeedService{
		settings:      newSettings("feed_service", opts),
		friends:       friends,
		users:         users,
		conversations: conversations,
		presence:      presence,
	}
}

// FriendSummary 好友及其会话摘要
type FriendSummary struct {
	FriendID        uint       `json:"friendId"`
	DisplayName     string     `json:"displayName"`
	Email           string     `json:"email"`
	PhotoURL        string     `json:"photoURL"`
	ConversationID  *uint      `json:"conversationId,omitempty"`
	LastMessage     string     `json:"lastMessage"`
	LastMessageTime *time.Time `json:"lastMessageTime"`
	UnreadCount     int64      `json:"unreadCount"`
	Online          *bool      `json:"online,omitempty"`
}

// rank 排序分组：有消息的会话、尚无消息的会话、没有会话
func (f *FriendSummary) rank() int {
	switch {
	case f.ConversationID == nil:
		return 2
	case f.LastMessageTime == nil:
		return 1
	default:
		return 0
	}
}

// ListFriendsWithConversationSummary 每位好友一条摘要
// 有会话的按最后消息时间倒序，没有会话的排在最后并按好友ID升序
func (s *FeedService) ListFriendsWithConversationSummary(ctx context.Context, userID uint) ([]FriendSummary, error) {
	friendIDs, err := s.friends.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) == 0 {
		return []FriendSummary{}, nil
	}

	// 已软删除的好友不出现在列表中
	friends, err := s.users.GetByIDs(ctx, friendIDs)
	if err != nil {
		return nil, err
	}

	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byPeer := make(map[uint]*model.Conversation, len(convs))
	convIDs := make([]uint, 0, len(convs))
	for _, c := range convs {
		byPeer[c.Peer(userID)] = c
		convIDs = append(convIDs, c.ID)
	}

	unread, err := s.conversations.UnreadCounts(ctx, userID, convIDs)
	if err != nil {
		return nil, err
	}

	online := s.onlineStates(ctx, friendIDs)

	summaries := make([]FriendSummary, 0, len(friends))
	for _, friend := range friends {
		sum := FriendSummary{
			FriendID:    friend.ID,
			DisplayName: friend.DisplayName,
			Email:       friend.Email,
			PhotoURL:    friend.PhotoURL,
		}
		if conv, ok := byPeer[friend.ID]; ok {
			id := conv.ID
			sum.ConversationID = &id
			sum.LastMessage = conv.LastMessage
			sum.LastMessageTime = conv.LastMessageAt
			sum.UnreadCount = unread[conv.ID]
		}
		if online != nil {
			state := online[friend.ID]
			sum.Online = &state
		}
		summaries = append(summaries, sum)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := &summaries[i], &summaries[j]
		if ra, rb := a.rank(), b.rank(); ra != rb {
			return ra < rb
		}
		if a.rank() == 0 && !a.LastMessageTime.Equal(*b.LastMessageTime) {
			return a.LastMessageTime.After(*b.LastMessageTime)
		}
		return a.FriendID < b.FriendID
	})
	return summaries, nil
}

// onlineStates 在线状态查询失败不影响好友列表
func (s *FeedService) onlineStates(ctx context.Context, ids []uint) map[uint]bool {
	if s.presence == nil {
		return nil
	}
	states, err := s.presence.OnlineMany(ctx, ids)
	if err != nil {
		s.log.Warn("获取在线状态失败", zap.Error(err))
		return nil
	}
	return states
}
