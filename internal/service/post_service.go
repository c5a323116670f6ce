package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"social-hub/config"
	"social-hub/internal/model"
	"social-hub/internal/repository"

	"go.uber.org/zap"
)

// DefaultShareContent 分享时未填写内容的默认文案
const DefaultShareContent = "shared a post"

// PostService 帖子互动引擎
// 帖子线程的所有写入都走同一条路径：读取文档与版本号，在内存中修改，按版本号条件写回，冲突则重试
type PostService struct {
	settings
	posts        *repository.PostRepository
	users        *repository.UserRepository
	maxRetries   int
	shareContent string
}

// NewPostService 创建帖子服务
// config.Load 已拒绝小于 1 的 MaxRetries；零值 EngineConfig 视为未配置，使用 DefaultMaxRetries
func NewPostService(posts *repository.PostRepository, users *repository.UserRepository, cfg config.EngineConfig, opts ...Option) *PostService {
	s := &PostService{
		settings:     newSettings("post_service", opts),
		posts:        posts,
		users:        users,
		maxRetries:   cfg.MaxRetries,
		shareContent: strings.TrimSpace(cfg.ShareContent),
	}
	if s.maxRetries <= 0 {
		s.maxRetries = DefaultMaxRetries
	}
	if s.shareContent == "" {
		s.shareContent = DefaultShareContent
	}
	return s
}

// CreatePost 发布帖子
func (s *PostService) CreatePost(ctx context.Context, author uint, content string) (*PostView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	post := model.NewPost(author, content, nil)
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	s.log.Info("帖子已发布", zap.Uint("post_id", post.ID), zap.Uint("author", author))
	return s.view(ctx, post, author)
}

// GetPost 读取帖子及完整线程
func (s *PostService) GetPost(ctx context.Context, postID, viewer uint) (*PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound("get post", err)
	}
	return s.view(ctx, post, viewer)
}

// ToggleLike 切换用户对帖子、评论或回复的点赞
func (s *PostService) ToggleLike(ctx context.Context, target model.LikeTarget, user uint) (*LikeResult, error) {
	var result LikeResult
	err := withOptimisticRetry(ctx, s.log, "toggle like", s.maxRetries, func() error {
		post, err := s.posts.GetByID(ctx, target.PostID)
		if err != nil {
			return notFound("toggle like", err)
		}

		liked, count, err := post.ToggleLike(target, user)
		if err != nil {
			return threadNotFound(err)
		}
		if err := s.posts.UpdateThread(ctx, post); err != nil {
			return err
		}

		result = LikeResult{Liked: liked, LikesCount: count}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AddComment 追加评论
func (s *PostService) AddComment(ctx context.Context, postID, author uint, content string) (*CommentView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	var comment model.Comment
	err := withOptimisticRetry(ctx, s.log, "add comment", s.maxRetries, func() error {
		post, err := s.posts.GetByID(ctx, postID)
		if err != nil {
			return notFound("add comment", err)
		}

		comment = model.NewComment(author, content, s.timestamp())
		post.AppendComment(comment)
		return s.posts.UpdateThread(ctx, post)
	})
	if err != nil {
		return nil, err
	}

	authors, err := s.authors(ctx, []uint{author})
	if err != nil {
		return nil, err
	}
	v := commentView(&comment, authors, author)
	return &v, nil
}

// AddReply 向评论追加回复，评论必须属于该帖子
func (s *PostService) AddReply(ctx context.Context, postID uint, commentID string, author uint, content string) (*CommentView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	var reply model.Reply
	err := withOptimisticRetry(ctx, s.log, "add reply", s.maxRetries, func() error {
		post, err := s.posts.GetByID(ctx, postID)
		if err != nil {
			return notFound("add reply", err)
		}

		reply = model.NewReply(author, content, s.timestamp())
		if err := post.AppendReply(commentID, reply); err != nil {
			return threadNotFound(err)
		}
		return s.posts.UpdateThread(ctx, post)
	})
	if err != nil {
		return nil, err
	}

	authors, err := s.authors(ctx, []uint{author})
	if err != nil {
		return nil, err
	}
	v := replyView(&reply, authors, author)
	return &v, nil
}

// SharePost 分享帖子：生成指向原帖的新帖子，并向原帖追加一条分享记录
// 同一用户多次分享会产生多条记录与多个分享帖
func (s *PostService) SharePost(ctx context.Context, postID, user uint, content *string) (*ShareResult, error) {
	text := s.shareContent
	if content != nil && strings.TrimSpace(*content) != "" {
		text = strings.TrimSpace(*content)
	}

	var result ShareResult
	err := withOptimisticRetry(ctx, s.log, "share post", s.maxRetries, func() error {
		source, err := s.posts.GetByID(ctx, postID)
		if err != nil {
			return notFound("share post", err)
		}

		sharePost := model.NewPost(user, text, &source.ID)
		if _, err := s.posts.CreateShare(ctx, source, sharePost, s.timestamp()); err != nil {
			return err
		}

		result = ShareResult{ShareID: sharePost.ID, SharesCount: len(source.Shares)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("帖子已分享",
		zap.Uint("post_id", postID),
		zap.Uint("share_post_id", result.ShareID),
		zap.Uint("user", user),
	)
	return &result, nil
}

// DeletePost 删除帖子，嵌入的评论、回复、点赞与分享记录一并删除
func (s *PostService) DeletePost(ctx context.Context, postID, actor uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return notFound("delete post", err)
	}
	if post.AuthorID != actor {
		return fmt.Errorf("delete post %d: %w", postID, ErrForbidden)
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return notFound("delete post", err)
	}

	s.log.Info("帖子已删除",
		zap.Uint("post_id", postID),
		zap.Int("comments", len(post.Comments)),
	)
	return nil
}

func (s *PostService) view(ctx context.Context, post *model.Post, viewer uint) (*PostView, error) {
	authors, err := s.authors(ctx, threadAuthorIDs(post))
	if err != nil {
		return nil, err
	}
	return postView(post, authors, viewer), nil
}

func (s *PostService) authors(ctx context.Context, ids []uint) (authorViews, error) {
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(authorViews, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

// threadNotFound 帖子线程内定位失败统一视为 NotFound
func threadNotFound(err error) error {
	switch {
	case errors.Is(err, model.ErrCommentNotFound),
		errors.Is(err, model.ErrReplyNotFound):
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	case errors.Is(err, model.ErrUnknownTarget):
		return fmt.Errorf("%v: %w", err, ErrInvalidArgument)
	default:
		return err
	}
}
