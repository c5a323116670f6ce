package service

import (
	"context"
	"testing"
	"time"

	"social-hub/config"
	"social-hub/internal/model"
	"social-hub/internal/repository"
	"social-hub/internal/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// engine 测试用的完整服务组合
type engine struct {
	db       *gorm.DB
	clock    *testutil.Clock
	users    *UserService
	friends  *FriendService
	posts    *PostService
	feed     *FeedService
	messages *MessageService

	postRepo *repository.PostRepository
	convRepo *repository.ConversationRepository
}

type engineOpts struct {
	maxRetries int
	presence   PresenceChecker
	notifier   Notifier
	log        *zap.Logger
}

func newEngine(t *testing.T, eo engineOpts) *engine {
	t.Helper()
	db := testutil.NewDB(t)
	clock := testutil.NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.Second)
	opts := []Option{WithClock(clock.Now)}
	if eo.log != nil {
		opts = append(opts, WithLogger(eo.log))
	}

	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	convRepo := repository.NewConversationRepository(db)
	postRepo := repository.NewPostRepository(db)

	return &engine{
		db:       db,
		clock:    clock,
		users:    NewUserService(userRepo, opts...),
		friends:  NewFriendService(friendRepo, userRepo, opts...),
		posts:    NewPostService(postRepo, userRepo, config.EngineConfig{MaxRetries: eo.maxRetries}, opts...),
		feed:     NewFeedService(friendRepo, userRepo, convRepo, eo.presence, opts...),
		messages: NewMessageService(convRepo, eo.notifier, opts...),
		postRepo: postRepo,
		convRepo: convRepo,
	}
}

// provision 创建用户，返回其内部ID
func (e *engine) provision(t *testing.T, externalID string) uint {
	t.Helper()
	u, err := e.users.Provision(context.Background(), ProvisionInput{
		ExternalID:  externalID,
		DisplayName: "user " + externalID,
		Email:       externalID + "@example.com",
		PhotoURL:    "https://img.example.com/" + externalID,
	})
	require.NoError(t, err)
	return u.ID
}

// befriend 发起并接受好友请求，返回会话ID
func (e *engine) befriend(t *testing.T, a, b uint) uint {
	t.Helper()
	ctx := context.Background()
	req, err := e.friends.SendFriendRequest(ctx, a, b)
	require.NoError(t, err)
	res, err := e.friends.AcceptFriendRequest(ctx, req.ID, b)
	require.NoError(t, err)
	require.NotNil(t, res.ConversationID)
	return *res.ConversationID
}

// createPost 发布帖子，返回帖子ID
func (e *engine) createPost(t *testing.T, author uint, content string) uint {
	t.Helper()
	v, err := e.posts.CreatePost(context.Background(), author, content)
	require.NoError(t, err)
	return v.ID
}

func (e *engine) countFriendships(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.Friendship{}).Count(&n).Error)
	return n
}
