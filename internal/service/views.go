package service

import (
	"time"

	"social-hub/internal/model"
)

// AuthorView 作者展示字段
type AuthorView struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// CommentView 评论或回复的投影
type CommentView struct {
	ID         string        `json:"id"`
	Author     AuthorView    `json:"author"`
	Content    string        `json:"content"`
	Likes      model.IDSet   `json:"likes"`
	LikesCount int           `json:"likesCount"`
	IsLiked    bool          `json:"isLiked"`
	CreatedAt  time.Time     `json:"createdAt"`
	Replies    []CommentView `json:"replies,omitempty"`
}

// PostView 帖子的投影，isLiked 针对查看者计算
type PostView struct {
	ID             uint          `json:"id"`
	Author         AuthorView    `json:"author"`
	Content        string        `json:"content"`
	Likes          model.IDSet   `json:"likes"`
	LikesCount     int           `json:"likesCount"`
	IsLiked        bool          `json:"isLiked"`
	Comments       []CommentView `json:"comments"`
	CommentsCount  int           `json:"commentsCount"`
	SharesCount    int           `json:"sharesCount"`
	OriginalPostID *uint         `json:"originalPostId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// LikeResult 点赞切换结果
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// ShareResult 分享结果，ShareID 为新生成的分享帖ID
type ShareResult struct {
	ShareID     uint `json:"shareId"`
	SharesCount int  `json:"sharesCount"`
}

// authorViews 作者ID -> 展示字段；已删除的用户只保留ID
type authorViews map[uint]*model.User

func (a authorViews) get(id uint) AuthorView {
	if u, ok := a[id]; ok {
		return AuthorView{ID: u.ID, DisplayName: u.DisplayName, PhotoURL: u.PhotoURL}
	}
	return AuthorView{ID: id}
}

func replyView(r *model.Reply, authors authorViews, viewer uint) CommentView {
	return CommentView{
		ID:         r.ID,
		Author:     authors.get(r.AuthorID),
		Content:    r.Content,
		Likes:      r.Likes,
		LikesCount: r.Likes.Len(),
		IsLiked:    r.Likes.Contains(viewer),
		CreatedAt:  r.CreatedAt,
	}
}

func commentView(c *model.Comment, authors authorViews, viewer uint) CommentView {
	v := CommentView{
		ID:         c.ID,
		Author:     authors.get(c.AuthorID),
		Content:    c.Content,
		Likes:      c.Likes,
		LikesCount: c.Likes.Len(),
		IsLiked:    c.Likes.Contains(viewer),
		CreatedAt:  c.CreatedAt,
	}
	for i := range c.Replies {
		v.Replies = append(v.Replies, replyView(&c.Replies[i], authors, viewer))
	}
	return v
}

func postView(p *model.Post, authors authorViews, viewer uint) *PostView {
	v := &PostView{
		ID:             p.ID,
		Author:         authors.get(p.AuthorID),
		Content:        p.Content,
		Likes:          p.Likes,
		LikesCount:     p.Likes.Len(),
		IsLiked:        p.Likes.Contains(viewer),
		Comments:       make([]CommentView, 0, len(p.Comments)),
		CommentsCount:  len(p.Comments),
		SharesCount:    len(p.Shares),
		OriginalPostID: p.OriginalPostID,
		CreatedAt:      p.CreatedAt,
	}
	for i := range p.Comments {
		v.Comments = append(v.Comments, commentView(&p.Comments[i], authors, viewer))
	}
	return v
}

// threadAuthorIDs 帖子线程中出现的所有作者ID
func threadAuthorIDs(p *model.Post) []uint {
	ids := model.NewIDSet(p.AuthorID)
	for i := range p.Comments {
		c := &p.Comments[i]
		ids, _ = ids.Add(c.AuthorID)
		for j := range c.Replies {
			ids, _ = ids.Add(c.Replies[j].AuthorID)
		}
	}
	return ids
}
