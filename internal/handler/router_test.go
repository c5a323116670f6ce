package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social-hub/config"
	"social-hub/internal/repository"
	"social-hub/internal/service"
	"social-hub/internal/testutil"
	"social-hub/pkg/jwt"
	"social-hub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Retryable bool            `json:"retryable"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	jwt    *jwt.JWTService
}

func newTestServer(t *testing.T, health map[string]HealthChecker) *testServer {
	t.Helper()
	db := testutil.NewDB(t)

	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	convRepo := repository.NewConversationRepository(db)
	postRepo := repository.NewPostRepository(db)

	jwtSvc := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", Issuer: "social-hub", ExpireTime: time.Hour})
	users := service.NewUserService(userRepo)

	router := NewRouter(Deps{
		JWT:      jwtSvc,
		Users:    users,
		Friends:  service.NewFriendService(friendRepo, userRepo),
		Feed:     service.NewFeedService(friendRepo, userRepo, convRepo, nil),
		Posts:    service.NewPostService(postRepo, userRepo, config.EngineConfig{}),
		Messages: service.NewMessageService(convRepo, nil),
		Health:   health,
	})
	return &testServer{t: t, router: router, jwt: jwtSvc}
}

func (s *testServer) token(subject string) string {
	s.t.Helper()
	token, err := s.jwt.GenerateToken(subject, nil)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) call(method, path, token string, body interface{}) envelope {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(s.t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestAuthAndIdentity(t *testing.T) {
	s := newTestServer(t, nil)

	env := s.call(http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, response.CodeUnauthorized, env.Code)

	env = s.call(http.MethodGet, "/api/v1/users/me", "not-a-token", nil)
	assert.Equal(t, response.CodeUnauthorized, env.Code)

	alice := s.token("ext-alice")
	env = s.call(http.MethodGet, "/api/v1/users/me", alice, nil)
	assert.Equal(t, response.CodeNotFound, env.Code)

	// 空请求体也可以完成注册
	env = s.call(http.MethodPut, "/api/v1/users/me", alice, nil)
	require.Equal(t, response.CodeSuccess, env.Code)
	me := decode[response.UserInfo](t, env)
	assert.Equal(t, "ext-alice", me.DisplayName)

	env = s.call(http.MethodPut, "/api/v1/users/me", alice, gin.H{"firstName": "Alice", "lastName": "Liddell"})
	require.Equal(t, response.CodeSuccess, env.Code)
	again := decode[response.UserInfo](t, env)
	assert.Equal(t, me.ID, again.ID)
	assert.Equal(t, "Alice Liddell", again.DisplayName)

	env = s.call(http.MethodDelete, "/api/v1/users/me", alice, nil)
	require.Equal(t, response.CodeSuccess, env.Code)
	env = s.call(http.MethodGet, "/api/v1/users/me", alice, nil)
	assert.Equal(t, response.CodeNotFound, env.Code)
}

func TestFriendMessagingAndPostFlow(t *testing.T) {
	s := newTestServer(t, nil)
	alice, bob := s.token("ext-alice"), s.token("ext-bob")

	a := decode[response.UserInfo](t, s.call(http.MethodPut, "/api/v1/users/me", alice, gin.H{"displayName": "Alice"}))
	b := decode[response.UserInfo](t, s.call(http.MethodPut, "/api/v1/users/me", bob, gin.H{"displayName": "Bob"}))

	env := s.call(http.MethodPost, "/api/v1/friend-requests", alice, gin.H{"to_user_id": a.ID})
	assert.Equal(t, response.CodeBadRequest, env.Code)

	env = s.call(http.MethodPost, "/api/v1/friend-requests", alice, gin.H{"to_user_id": b.ID})
	require.Equal(t, response.CodeSuccess, env.Code)
	req := decode[response.FriendRequestInfo](t, env)
	assert.Equal(t, "pending", req.Status)

	env = s.call(http.MethodPost, "/api/v1/friend-requests", alice, gin.H{"to_user_id": b.ID})
	assert.Equal(t, response.CodeConflict, env.Code)

	incoming := decode[[]response.FriendRequestInfo](t, s.call(http.MethodGet, "/api/v1/friend-requests/incoming", bob, nil))
	require.Len(t, incoming, 1)

	env = s.call(http.MethodPost, fmt.Sprintf("/api/v1/friend-requests/%d/accept", req.ID), alice, nil)
	assert.Equal(t, response.CodeForbidden, env.Code)

	env = s.call(http.MethodPost, fmt.Sprintf("/api/v1/friend-requests/%d/accept", req.ID), bob, nil)
	require.Equal(t, response.CodeSuccess, env.Code)
	accepted := decode[service.RespondResult](t, env)
	assert.True(t, accepted.Success)
	require.NotNil(t, accepted.ConversationID)

	env = s.call(http.MethodPost, fmt.Sprintf("/api/v1/friend-requests/%d/decline", req.ID), bob, nil)
	assert.Equal(t, response.CodeConflict, env.Code)

	convPath := fmt.Sprintf("/api/v1/conversations/%d", *accepted.ConversationID)
	env = s.call(http.MethodPost, convPath+"/messages", bob, gin.H{"content": "hi alice"})
	require.Equal(t, response.CodeSuccess, env.Code)
	env = s.call(http.MethodPost, convPath+"/messages", bob, gin.H{"content": "  "})
	assert.Equal(t, response.CodeBadRequest, env.Code)

	friends := decode[[]service.FriendSummary](t, s.call(http.MethodGet, "/api/v1/friends", alice, nil))
	require.Len(t, friends, 1)
	assert.Equal(t, b.ID, friends[0].FriendID)
	assert.Equal(t, "hi alice", friends[0].LastMessage)
	assert.EqualValues(t, 1, friends[0].UnreadCount)

	env = s.call(http.MethodPut, convPath+"/read", alice, nil)
	require.Equal(t, response.CodeSuccess, env.Code)
	friends = decode[[]service.FriendSummary](t, s.call(http.MethodGet, "/api/v1/friends", alice, nil))
	assert.Zero(t, friends[0].UnreadCount)

	// 帖子互动
	env = s.call(http.MethodPost, "/api/v1/posts", alice, gin.H{"content": "hello world"})
	require.Equal(t, response.CodeSuccess, env.Code)
	post := decode[service.PostView](t, env)
	postPath := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	liked := decode[service.LikeResult](t, s.call(http.MethodPost, postPath+"/like", bob, nil))
	assert.Equal(t, service.LikeResult{Liked: true, LikesCount: 1}, liked)

	comment := decode[service.CommentView](t, s.call(http.MethodPost, postPath+"/comments", bob, gin.H{"content": "nice"}))
	commentPath := postPath + "/comments/" + comment.ID
	reply := decode[service.CommentView](t, s.call(http.MethodPost, commentPath+"/replies", alice, gin.H{"content": "thanks"}))

	liked = decode[service.LikeResult](t, s.call(http.MethodPost, commentPath+"/replies/"+reply.ID+"/like", bob, nil))
	assert.True(t, liked.Liked)
	env = s.call(http.MethodPost, postPath+"/comments/missing/like", bob, nil)
	assert.Equal(t, response.CodeNotFound, env.Code)

	shared := decode[service.ShareResult](t, s.call(http.MethodPost, postPath+"/share", bob, nil))
	assert.Equal(t, 1, shared.SharesCount)

	view := decode[service.PostView](t, s.call(http.MethodGet, postPath, bob, nil))
	assert.True(t, view.IsLiked)
	assert.Equal(t, 1, view.CommentsCount)
	assert.Equal(t, 1, view.SharesCount)

	env = s.call(http.MethodGet, "/api/v1/posts/abc", bob, nil)
	assert.Equal(t, response.CodeBadRequest, env.Code)

	env = s.call(http.MethodDelete, postPath, bob, nil)
	assert.Equal(t, response.CodeForbidden, env.Code)
	env = s.call(http.MethodDelete, postPath, alice, nil)
	require.Equal(t, response.CodeSuccess, env.Code)
	env = s.call(http.MethodGet, postPath, alice, nil)
	assert.Equal(t, response.CodeNotFound, env.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, map[string]HealthChecker{
		"db": func(context.Context) error { return nil },
	})
	env := s.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, response.CodeSuccess, env.Code)

	s = newTestServer(t, map[string]HealthChecker{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	env = s.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, response.CodeServiceUnavailable, env.Code)
	assert.True(t, env.Retryable)
	deps := decode[map[string]string](t, env)
	assert.Equal(t, "ok", deps["db"])
	assert.Equal(t, "connection refused", deps["redis"])
}
