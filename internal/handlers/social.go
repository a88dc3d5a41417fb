package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/services"
)

func (h *Handler) mySocialProfile(c *gin.Context) {
	p, err := h.socialSvc.ProfileFor(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"profile": p})
}

type socialProfileReq struct {
	DisplayName       *string        `json:"display_name"`
	Bio               *string        `json:"bio"`
	ProfileImageURL   *string        `json:"profile_image_url"`
	IsPublic          *bool          `json:"is_public"`
	AllowFollowers    *bool          `json:"allow_followers"`
	AllowStyleSharing *bool          `json:"allow_style_sharing"`
	StyleTags         datatypes.JSON `json:"style_tags"`
	FavoriteBrands    datatypes.JSON `json:"favorite_brands"`
}

func (h *Handler) updateSocialProfile(c *gin.Context) {
	var req socialProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid profile payload")
		return
	}
	p, err := h.socialSvc.UpdateProfile(c.Request.Context(), currentUserID(c), services.SocialProfileUpdate{
		DisplayName:       req.DisplayName,
		Bio:               req.Bio,
		ProfileImageURL:   req.ProfileImageURL,
		IsPublic:          req.IsPublic,
		AllowFollowers:    req.AllowFollowers,
		AllowStyleSharing: req.AllowStyleSharing,
		StyleTags:         req.StyleTags,
		FavoriteBrands:    req.FavoriteBrands,
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"profile": p})
}

// viewSocialProfile 查看他人资料；私密资料只有互相关注的人可见。
func (h *Handler) viewSocialProfile(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	p, err := h.socialSvc.ViewProfile(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"profile": p})
}

type followReq struct {
	UserID uint64 `json:"user_id" binding:"required"`
}

func (h *Handler) follow(c *gin.Context) {
	var req followReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id is required")
		return
	}
	uid := currentUserID(c)
	conn, err := h.socialSvc.Follow(c.Request.Context(), uid, req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusCreated, map[string]any{"connection": conn})
}

func (h *Handler) unfollow(c *gin.Context) {
	var req followReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id is required")
		return
	}
	uid := currentUserID(c)
	if err := h.socialSvc.Unfollow(c.Request.Context(), uid, req.UserID); err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"message": "unfollowed"})
}

func (h *Handler) followers(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	profiles, total, err := h.socialSvc.Followers(c.Request.Context(), currentUserID(c), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(profiles, page, perPage, total))
}

func (h *Handler) following(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	profiles, total, err := h.socialSvc.Following(c.Request.Context(), currentUserID(c), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(profiles, page, perPage, total))
}

type postReq struct {
	Title           string         `json:"title"`
	Caption         string         `json:"caption"`
	PostType        string         `json:"post_type"`
	ImageURLs       datatypes.JSON `json:"image_urls"`
	OutfitID        *uint64        `json:"outfit_id"`
	WardrobeItemIDs datatypes.JSON `json:"wardrobe_item_ids"`
	StyleTags       datatypes.JSON `json:"style_tags"`
	Occasion        string         `json:"occasion"`
	Season          string         `json:"season"`
	IsPublic        *bool          `json:"is_public"`
	AllowComments   *bool          `json:"allow_comments"`
	AllowSharing    *bool          `json:"allow_sharing"`
}

func (r postReq) toInput() services.PostInput {
	return services.PostInput{
		Title:           r.Title,
		Caption:         r.Caption,
		PostType:        r.PostType,
		ImageURLs:       r.ImageURLs,
		OutfitID:        r.OutfitID,
		WardrobeItemIDs: r.WardrobeItemIDs,
		StyleTags:       r.StyleTags,
		Occasion:        r.Occasion,
		Season:          r.Season,
		IsPublic:        r.IsPublic,
		AllowComments:   r.AllowComments,
		AllowSharing:    r.AllowSharing,
	}
}

func (h *Handler) createPost(c *gin.Context) {
	var req postReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid post payload")
		return
	}
	post, err := h.postSvc.Create(c.Request.Context(), currentUserID(c), req.toInput())
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusCreated, map[string]any{"post": post})
}

func (h *Handler) getPost(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	post, err := h.postSvc.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"post": post})
}

func (h *Handler) updatePost(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req postReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid post payload")
		return
	}
	post, err := h.postSvc.Update(c.Request.Context(), currentUserID(c), id, req.toInput())
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"post": post})
}

func (h *Handler) deletePost(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.postSvc.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"message": "post deleted"})
}

func (h *Handler) userPosts(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	posts, total, err := h.postSvc.ListByUser(c.Request.Context(), currentUserID(c), id, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(posts, page, perPage, total))
}

// feed 返回关注对象（含自己）的帖子，按时间倒序。
func (h *Handler) feed(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	uid := currentUserID(c)
	followingIDs, err := h.socialSvc.FollowingIDs(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	posts, total, err := h.postSvc.Feed(c.Request.Context(), uid, followingIDs, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(posts, page, perPage, total))
}

// explore 返回全站公开帖子，按互动热度排序。
func (h *Handler) explore(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	posts, total, err := h.postSvc.Explore(c.Request.Context(), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(posts, page, perPage, total))
}

func (h *Handler) addComment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req struct {
		Content  string  `json:"content" binding:"required"`
		ParentID *uint64 `json:"parent_comment_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content is required")
		return
	}
	comment, err := h.postSvc.AddComment(c.Request.Context(), currentUserID(c), id, req.ParentID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusCreated, map[string]any{"comment": comment})
}

func (h *Handler) listComments(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	comments, total, err := h.postSvc.Comments(c.Request.Context(), currentUserID(c), id, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(comments, page, perPage, total))
}

func (h *Handler) listReplies(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	replies, total, err := h.postSvc.Replies(c.Request.Context(), id, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(replies, page, perPage, total))
}

// likePost 点赞是幂等的：重复点赞返回 200 且 liked=false。
func (h *Handler) likePost(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req struct {
		LikeType string `json:"like_type"`
	}
	_ = c.ShouldBindJSON(&req)
	created, err := h.postSvc.LikePost(c.Request.Context(), currentUserID(c), id, req.LikeType)
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.respond(c, status, map[string]any{"liked": created})
}

func (h *Handler) unlikePost(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.postSvc.UnlikePost(c.Request.Context(), currentUserID(c), id); err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"message": "like removed"})
}

func (h *Handler) likeComment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	created, err := h.postSvc.LikeComment(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.respond(c, status, map[string]any{"liked": created})
}

func (h *Handler) unlikeComment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.postSvc.UnlikeComment(c.Request.Context(), currentUserID(c), id); err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"message": "like removed"})
}

func (h *Handler) listNotifications(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	unreadOnly := c.Query("unread") == "true"
	items, total, err := h.notificationSvc.List(c.Request.Context(), currentUserID(c), unreadOnly, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(items, page, perPage, total))
}

func (h *Handler) unreadCount(c *gin.Context) {
	n, err := h.notificationSvc.UnreadCount(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"unread_count": n})
}

func (h *Handler) markNotificationRead(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.notificationSvc.MarkRead(c.Request.Context(), currentUserID(c), id); err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"message": "notification read"})
}

func (h *Handler) markAllNotificationsRead(c *gin.Context) {
	n, err := h.notificationSvc.MarkAllRead(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"marked": n})
}
