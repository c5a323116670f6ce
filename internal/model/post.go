package model

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/google/uuid"
)

// 帖子线程内的定位错误
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrReplyNotFound   = errors.New("reply not found")
	ErrUnknownTarget   = errors.New("unknown like target")
)

// TargetKind 点赞目标类型
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
	TargetReply   TargetKind = "reply"
)

// LikeTarget 点赞目标：帖子、帖子下的评论或评论下的回复
type LikeTarget struct {
	Kind      TargetKind
	PostID    uint
	CommentID string
	ReplyID   string
}

// Post 帖子
// 评论、回复、点赞与分享记录都嵌入在帖子文档中，所有修改都经由帖子的 Version 做乐观并发控制
type Post struct {
	ID             uint        `gorm:"primaryKey"`
	AuthorID       uint        `gorm:"not null;index;comment:作者ID"`
	Content        string      `gorm:"type:text;not null;comment:帖子内容"`
	Likes          IDSet       `gorm:"comment:点赞用户集合"`
	Comments       CommentList `gorm:"comment:评论线程"`
	Shares         ShareList   `gorm:"comment:分享记录"`
	OriginalPostID *uint       `gorm:"index;comment:被分享的原帖ID"`
	Version        int64       `gorm:"not null;default:0;comment:文档版本号"`
	CreatedAt      time.Time   `gorm:"index;comment:创建时间"`
	UpdatedAt      time.Time   `gorm:"comment:更新时间"`
}

func (Post) TableName() string { return "post" }

// Comment 帖子下的评论，ID 在所属帖子内稳定
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  uint      `json:"authorId"`
	Content   string    `json:"content"`
	Likes     IDSet     `json:"likes"`
	Replies   []Reply   `json:"replies"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reply 评论下的回复
type Reply struct {
	ID        string    `json:"id"`
	AuthorID  uint      `json:"authorId"`
	Content   string    `json:"content"`
	Likes     IDSet     `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// Share 分享记录，SharePostID 指向分享时生成的新帖子
type Share struct {
	ID          string    `json:"id"`
	UserID      uint      `json:"userId"`
	SharePostID uint      `json:"sharePostId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CommentList 评论线程的JSON列
type CommentList []Comment

func (l CommentList) Value() (driver.Value, error) {
	if l == nil {
		return jsonValue([]Comment{})
	}
	return jsonValue([]Comment(l))
}

func (l *CommentList) Scan(src interface{}) error {
	*l = CommentList{}
	return jsonScan(src, (*[]Comment)(l))
}

// ShareList 分享记录的JSON列
type ShareList []Share

func (l ShareList) Value() (driver.Value, error) {
	if l == nil {
		return jsonValue([]Share{})
	}
	return jsonValue([]Share(l))
}

func (l *ShareList) Scan(src interface{}) error {
	*l = ShareList{}
	return jsonScan(src, (*[]Share)(l))
}

// NewPost 创建空线程的帖子
func NewPost(authorID uint, content string, originalPostID *uint) *Post {
	return &Post{
		AuthorID:       authorID,
		Content:        content,
		Likes:          IDSet{},
		Comments:       CommentList{},
		Shares:         ShareList{},
		OriginalPostID: originalPostID,
	}
}

// NewComment 创建评论，点赞与回复初始为空
func NewComment(authorID uint, content string, at time.Time) Comment {
	return Comment{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		Likes:     IDSet{},
		Replies:   []Reply{},
		CreatedAt: at,
	}
}

// NewReply 创建回复
func NewReply(authorID uint, content string, at time.Time) Reply {
	return Reply{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		Likes:     IDSet{},
		CreatedAt: at,
	}
}

// NewShare 创建分享记录
func NewShare(userID, sharePostID uint, at time.Time) Share {
	return Share{
		ID:          uuid.NewString(),
		UserID:      userID,
		SharePostID: sharePostID,
		CreatedAt:   at,
	}
}

// FindComment 按ID定位评论，返回指向线程内元素的指针
func (p *Post) FindComment(commentID string) (*Comment, error) {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i], nil
		}
	}
	return nil, ErrCommentNotFound
}

// FindReply 按ID定位回复
func (c *Comment) FindReply(replyID string) (*Reply, error) {
	for i := range c.Replies {
		if c.Replies[i].ID == replyID {
			return &c.Replies[i], nil
		}
	}
	return nil, ErrReplyNotFound
}

// AppendComment 追加评论
func (p *Post) AppendComment(c Comment) {
	p.Comments = append(p.Comments, c)
}

// AppendReply 向指定评论追加回复
func (p *Post) AppendReply(commentID string, r Reply) error {
	c, err := p.FindComment(commentID)
	if err != nil {
		return err
	}
	c.Replies = append(c.Replies, r)
	return nil
}

// AppendShare 追加分享记录
func (p *Post) AppendShare(s Share) {
	p.Shares = append(p.Shares, s)
}

// likesOf 返回目标点赞集合的指针
func (p *Post) likesOf(target LikeTarget) (*IDSet, error) {
	switch target.Kind {
	case TargetPost:
		return &p.Likes, nil
	case TargetComment:
		c, err := p.FindComment(target.CommentID)
		if err != nil {
			return nil, err
		}
		return &c.Likes, nil
	case TargetReply:
		c, err := p.FindComment(target.CommentID)
		if err != nil {
			return nil, err
		}
		r, err := c.FindReply(target.ReplyID)
		if err != nil {
			return nil, err
		}
		return &r.Likes, nil
	default:
		return nil, ErrUnknownTarget
	}
}

// ToggleLike 翻转用户对目标的点赞状态，返回翻转后的状态与点赞数
func (p *Post) ToggleLike(target LikeTarget, userID uint) (liked bool, count int, err error) {
	likes, err := p.likesOf(target)
	if err != nil {
		return false, 0, err
	}
	*likes, liked = likes.Toggle(userID)
	return liked, likes.Len(), nil
}

// ContainsNode 判断评论或回复ID是否仍在帖子线程中
func (p *Post) ContainsNode(id string) bool {
	for i := range p.Comments {
		c := &p.Comments[i]
		if c.ID == id {
			return true
		}
		if _, err := c.FindReply(id); err == nil {
			return true
		}
	}
	return false
}
