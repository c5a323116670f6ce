package repository

import (
	"context"
	"testing"
	"time"

	"social-hub/internal/model"
	"social-hub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUsers(t *testing.T, db *gorm.DB, externalIDs ...string) []*model.User {
	t.Helper()
	users := make([]*model.User, 0, len(externalIDs))
	for _, ext := range externalIDs {
		u := &model.User{ExternalID: ext, DisplayName: ext}
		require.NoError(t, db.Create(u).Error)
		users = append(users, u)
	}
	return users
}

func TestUserRepository_UpsertAndSoftDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u, err := repo.Upsert(ctx, &model.User{ExternalID: "ext-1", DisplayName: "Alice"})
	require.NoError(t, err)

	again, err := repo.Upsert(ctx, &model.User{ExternalID: "ext-1", DisplayName: "Alice B"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Alice B", again.DisplayName)

	require.NoError(t, repo.SoftDelete(ctx, u.ID))
	_, err = repo.GetByExternalID(ctx, "ext-1")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.ErrorIs(t, repo.SoftDelete(ctx, u.ID), ErrRecordNotFound)

	// 软删除的行仍然存在
	var count int64
	require.NoError(t, db.Unscoped().Model(&model.User{}).Where("id = ?", u.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUserRepository_UpsertLeavesDeletedUserUntouched(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u, err := repo.Upsert(ctx, &model.User{ExternalID: "ext-gone", DisplayName: "Before", Email: "before@example.com"})
	require.NoError(t, err)
	require.NoError(t, repo.SoftDelete(ctx, u.ID))

	_, err = repo.Upsert(ctx, &model.User{ExternalID: "ext-gone", DisplayName: "After", Email: "after@example.com"})
	assert.ErrorIs(t, err, ErrRecordNotFound)

	var stored model.User
	require.NoError(t, db.Unscoped().Where("id = ?", u.ID).Take(&stored).Error)
	assert.Equal(t, "Before", stored.DisplayName)
	assert.Equal(t, "before@example.com", stored.Email)
	assert.True(t, stored.DeletedAt.Valid)
}

func TestFriendRepository_DuplicatePendingRequest(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFriendRepository(db)
	ctx := context.Background()
	users := seedUsers(t, db, "a", "b")

	first := &model.FriendRequest{FromUserID: users[0].ID, ToUserID: users[1].ID}
	require.NoError(t, repo.CreateRequest(ctx, first))

	dup := &model.FriendRequest{FromUserID: users[0].ID, ToUserID: users[1].ID}
	assert.ErrorIs(t, repo.CreateRequest(ctx, dup), ErrDuplicate)

	// 反方向是另一个有序对
	reverse := &model.FriendRequest{FromUserID: users[1].ID, ToUserID: users[0].ID}
	require.NoError(t, repo.CreateRequest(ctx, reverse))

	// 处理后可以重新发起
	require.NoError(t, repo.DeclineRequest(ctx, first, time.Now().UTC()))
	again := &model.FriendRequest{FromUserID: users[0].ID, ToUserID: users[1].ID}
	require.NoError(t, repo.CreateRequest(ctx, again))

	incoming, err := repo.ListIncoming(ctx, users[1].ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, again.ID, incoming[0].ID)
}

func TestFriendRepository_AcceptIsSingleShot(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFriendRepository(db)
	convs := NewConversationRepository(db)
	ctx := context.Background()
	users := seedUsers(t, db, "a", "b")

	req := &model.FriendRequest{FromUserID: users[0].ID, ToUserID: users[1].ID}
	require.NoError(t, repo.CreateRequest(ctx, req))

	conv, err := repo.AcceptRequest(ctx, req, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, conv.HasParticipant(users[0].ID))
	assert.True(t, conv.HasParticipant(users[1].ID))

	_, err = repo.AcceptRequest(ctx, req, time.Now().UTC())
	assert.ErrorIs(t, err, ErrStateChanged)

	stored, err := repo.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendRequestAccepted, stored.Status)
	assert.Nil(t, stored.PendingKey)
	assert.NotNil(t, stored.RespondedAt)

	ok, err := repo.AreFriends(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.AreFriends(ctx, users[1].ID, users[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := convs.CountByPair(ctx, users[1].ID, users[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestFriendRepository_AcceptReusesExistingConversation(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFriendRepository(db)
	ctx := context.Background()
	users := seedUsers(t, db, "a", "b")

	low, high := model.OrderedPair(users[0].ID, users[1].ID)
	existing := &model.Conversation{UserLow: low, UserHigh: high}
	require.NoError(t, db.Create(existing).Error)

	req := &model.FriendRequest{FromUserID: users[1].ID, ToUserID: users[0].ID}
	require.NoError(t, repo.CreateRequest(ctx, req))

	conv, err := repo.AcceptRequest(ctx, req, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, existing.ID, conv.ID)
}

func TestFriendRepository_AcceptInsertsEdgesInPairOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFriendRepository(db)
	ctx := context.Background()
	users := seedUsers(t, db, "a", "b")
	low, high := model.OrderedPair(users[0].ID, users[1].ID)

	// 请求方向与 (low, high) 相反
	req := &model.FriendRequest{FromUserID: high, ToUserID: low}
	require.NoError(t, repo.CreateRequest(ctx, req))
	_, err := repo.AcceptRequest(ctx, req, time.Now().UTC())
	require.NoError(t, err)

	var edges []model.Friendship
	require.NoError(t, db.Order("id ASC").Find(&edges).Error)
	require.Len(t, edges, 2)
	assert.Equal(t, low, edges[0].UserID)
	assert.Equal(t, high, edges[0].FriendID)
	assert.Equal(t, high, edges[1].UserID)
	assert.Equal(t, low, edges[1].FriendID)
}

func TestConversationRepository_LastMessageNeverRegresses(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()
	users := seedUsers(t, db, "a", "b")

	conv := &model.Conversation{UserLow: users[0].ID, UserHigh: users[1].ID}
	require.NoError(t, db.Create(conv).Error)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	newer := &model.Message{ConversationID: conv.ID, SenderID: users[0].ID, Content: "newer", CreatedAt: base.Add(time.Minute)}
	older := &model.Message{ConversationID: conv.ID, SenderID: users[1].ID, Content: "older", CreatedAt: base}
	require.NoError(t, repo.AppendMessage(ctx, newer))
	require.NoError(t, repo.AppendMessage(ctx, older))

	got, err := repo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "newer", got.LastMessage)
	require.NotNil(t, got.LastMessageAt)
	assert.True(t, got.LastMessageAt.Equal(newer.CreatedAt))
}

func TestConversationRepository_UnreadCountsAndMarkRead(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()
	users := seedUsers(t, db, "a", "b", "c")
	a, b, c := users[0].ID, users[1].ID, users[2].ID

	ab := &model.Conversation{UserLow: a, UserHigh: b}
	ac := &model.Conversation{UserLow: a, UserHigh: c}
	require.NoError(t, db.Create(ab).Error)
	require.NoError(t, db.Create(ac).Error)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	send := func(convID, sender uint, content string) {
		at = at.Add(time.Second)
		require.NoError(t, repo.AppendMessage(ctx, &model.Message{
			ConversationID: convID, SenderID: sender, Content: content, CreatedAt: at,
		}))
	}
	send(ab.ID, b, "1")
	send(ab.ID, b, "2")
	send(ab.ID, a, "mine")
	send(ac.ID, c, "3")

	counts, err := repo.UnreadCounts(ctx, a, []uint{ab.ID, ac.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{ab.ID: 2, ac.ID: 1}, counts)

	n, err := repo.MarkRead(ctx, ab.ID, a)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	counts, err = repo.UnreadCounts(ctx, a, []uint{ab.ID, ac.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{ac.ID: 1}, counts)

	// b 视角：a 发送的一条仍未读
	counts, err = repo.UnreadCounts(ctx, b, []uint{ab.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{ab.ID: 1}, counts)

	msgs, err := repo.ListMessages(ctx, ab.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "mine", msgs[0].Content)
}

func TestPostRepository_VersionConflict(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	users := seedUsers(t, db, "a")

	post := model.NewPost(users[0].ID, "hello", nil)
	require.NoError(t, repo.Create(ctx, post))

	first, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)

	_, _, err = first.ToggleLike(model.LikeTarget{Kind: model.TargetPost}, 1)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateThread(ctx, first))
	assert.EqualValues(t, 1, first.Version)

	_, _, err = second.ToggleLike(model.LikeTarget{Kind: model.TargetPost}, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.UpdateThread(ctx, second), ErrVersionConflict)

	stored, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IDSet{1}, stored.Likes)
}

func TestPostRepository_CreateShareRollsBackOnConflict(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	users := seedUsers(t, db, "a", "b")

	source := model.NewPost(users[0].ID, "hello", nil)
	require.NoError(t, repo.Create(ctx, source))

	stale, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)

	fresh, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	fresh.AppendComment(model.NewComment(users[1].ID, "hi", time.Now().UTC()))
	require.NoError(t, repo.UpdateThread(ctx, fresh))

	_, err = repo.CreateShare(ctx, stale, model.NewPost(users[1].ID, "shared a post", &source.ID), time.Now().UTC())
	assert.ErrorIs(t, err, ErrVersionConflict)

	n, err := repo.CountDerivatives(ctx, source.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	current, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	share, err := repo.CreateShare(ctx, current, model.NewPost(users[1].ID, "shared a post", &source.ID), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, users[1].ID, share.UserID)

	n, err = repo.CountDerivatives(ctx, source.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stored, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, stored.Shares, 1)
	assert.Equal(t, share.SharePostID, stored.Shares[0].SharePostID)
	require.Len(t, stored.Comments, 1)
}

func TestPostRepository_Delete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	users := seedUsers(t, db, "a")

	post := model.NewPost(users[0].ID, "hello", nil)
	require.NoError(t, repo.Create(ctx, post))

	require.NoError(t, repo.Delete(ctx, post.ID))
	_, err := repo.GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, post.ID), ErrRecordNotFound)
}
