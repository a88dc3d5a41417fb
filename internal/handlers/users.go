package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/perf"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/services"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

type registerReq struct {
	Username         string         `json:"username" binding:"required"`
	Email            string         `json:"email" binding:"required"`
	Password         string         `json:"password" binding:"required"`
	FirstName        string         `json:"first_name"`
	LastName         string         `json:"last_name"`
	AgeRange         string         `json:"age_range"`
	StylePreference  string         `json:"style_preference"`
	ColorPreferences datatypes.JSON `json:"color_preferences"`
	SizeInfo         datatypes.JSON `json:"size_info"`
}

// register 注册并直接签发令牌，省去新用户的二次登录。
func (h *Handler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username, email and password are required")
		return
	}
	u, err := h.userSvc.Register(c.Request.Context(), services.RegisterInput{
		Username:         req.Username,
		Email:            req.Email,
		Password:         req.Password,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		AgeRange:         req.AgeRange,
		StylePreference:  req.StylePreference,
		ColorPreferences: req.ColorPreferences,
		SizeInfo:         req.SizeInfo,
	})
	if err != nil {
		fail(c, err)
		return
	}
	token, expiresAt, jti, err := h.tokenSvc.Issue(u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	_, _ = h.sessionSvc.Create(c.Request.Context(), u.ID, jti, expiresAt, nil, c.ClientIP())
	h.auditSvc.Write(c.Request.Context(), "info", "user_registered", &u.ID, "account created", c.ClientIP())
	h.respond(c, http.StatusCreated, map[string]any{
		"message":    "Welcome! " + tagline,
		"user":       u,
		"token":      token,
		"expires_at": expiresAt,
	})
}

type loginReq struct {
	Login         string         `json:"login"`
	Username      string         `json:"username"`
	Password      string         `json:"password" binding:"required"`
	TwoFactorCode string         `json:"two_factor_code"`
	DeviceInfo    datatypes.JSON `json:"device_info"`
}

// login 支持用户名或邮箱登录；开启两步验证的账号必须带 TOTP 码。
func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "login and password are required")
		return
	}
	login := req.Login
	if login == "" {
		login = req.Username
	}
	u, err := h.userSvc.Authenticate(c.Request.Context(), login, req.Password)
	if err != nil {
		h.auditSvc.Write(c.Request.Context(), "warning", "login_failed", nil, "bad credentials for "+login, c.ClientIP())
		fail(c, err)
		return
	}
	if u.TwoFactorEnabled {
		// 未携带 TOTP 码时不算失败，提示走第二步登录
		if req.TwoFactorCode == "" {
			h.respond(c, http.StatusOK, map[string]any{
				"requires_2fa": true,
				"message":      "two-factor code required, resubmit via /api/auth/login/2fa",
			})
			return
		}
		if err := h.securitySvc.VerifyLogin(u, req.TwoFactorCode); err != nil {
			h.auditSvc.Write(c.Request.Context(), "warning", "login_2fa_failed", &u.ID, "totp rejected", c.ClientIP())
			fail(c, err)
			return
		}
	}
	token, expiresAt, jti, err := h.tokenSvc.Issue(u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	_, _ = h.sessionSvc.Create(c.Request.Context(), u.ID, jti, expiresAt, req.DeviceInfo, c.ClientIP())
	_ = h.userSvc.TouchLastLogin(c.Request.Context(), u.ID)
	h.auditSvc.Write(c.Request.Context(), "info", "login_success", &u.ID, "token issued", c.ClientIP())
	h.respond(c, http.StatusOK, map[string]any{
		"message":    tagline,
		"user":       u,
		"token":      token,
		"expires_at": expiresAt,
	})
}

// verifyToken 供其它服务核验令牌：签名有效且对应会话未被撤销。
func (h *Handler) verifyToken(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		var req struct {
			Token string `json:"token"`
		}
		_ = c.ShouldBindJSON(&req)
		token = req.Token
	}
	uid, jti, err := h.tokenSvc.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "unauthorized", "tagline": tagline})
		return
	}
	if _, err := h.sessionSvc.Validate(c.Request.Context(), jti); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "unauthorized", "tagline": tagline})
		return
	}
	if _, err := h.userSvc.FindByID(c.Request.Context(), uid); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "unauthorized", "tagline": tagline})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user_id": uid})
}

// refreshToken 用仍然有效的旧令牌换发新令牌：旧会话撤销、新会话落库。
func (h *Handler) refreshToken(c *gin.Context) {
	uid := currentUserID(c)
	if _, jti, err := h.tokenSvc.Verify(bearerToken(c)); err == nil {
		_ = h.sessionSvc.RevokeByJTI(c.Request.Context(), uid, jti)
	}
	token, expiresAt, jti, err := h.tokenSvc.Issue(uid)
	if err != nil {
		fail(c, err)
		return
	}
	_, _ = h.sessionSvc.Create(c.Request.Context(), uid, jti, expiresAt, nil, c.ClientIP())
	h.respond(c, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt,
	})
}

// logout 撤销当前令牌对应的会话记录。
func (h *Handler) logout(c *gin.Context) {
	uid := currentUserID(c)
	_, jti, err := h.tokenSvc.Verify(bearerToken(c))
	if err == nil {
		_ = h.sessionSvc.RevokeByJTI(c.Request.Context(), uid, jti)
	}
	h.auditSvc.Write(c.Request.Context(), "info", "logout", &uid, "session revoked", c.ClientIP())
	h.respond(c, http.StatusOK, map[string]any{"message": "logged out"})
}

func (h *Handler) getProfile(c *gin.Context) {
	u, err := h.userSvc.FindByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"user": u})
}

type profileReq struct {
	FirstName          *string        `json:"first_name"`
	LastName           *string        `json:"last_name"`
	AgeRange           *string        `json:"age_range"`
	StylePreference    *string        `json:"style_preference"`
	ColorPreferences   datatypes.JSON `json:"color_preferences"`
	SizeInfo           datatypes.JSON `json:"size_info"`
	PrivacyLevel       *string        `json:"privacy_level"`
	AllowSocialSharing *bool          `json:"allow_social_sharing"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid profile payload")
		return
	}
	uid := currentUserID(c)
	u, err := h.userSvc.UpdateProfile(c.Request.Context(), uid, services.ProfileUpdate{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		AgeRange:           req.AgeRange,
		StylePreference:    req.StylePreference,
		ColorPreferences:   req.ColorPreferences,
		SizeInfo:           req.SizeInfo,
		PrivacyLevel:       req.PrivacyLevel,
		AllowSocialSharing: req.AllowSocialSharing,
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"user": u})
}

// deactivateAccount 停用账号并终止其全部会话。
func (h *Handler) deactivateAccount(c *gin.Context) {
	uid := currentUserID(c)
	if err := h.userSvc.Deactivate(c.Request.Context(), uid); err != nil {
		fail(c, err)
		return
	}
	h.auditSvc.Write(c.Request.Context(), "warning", "account_deactivated", &uid, "self-service deactivation", c.ClientIP())
	h.respond(c, http.StatusOK, map[string]any{"message": "account deactivated"})
}

func (h *Handler) getPreferences(c *gin.Context) {
	p, err := h.userSvc.Preferences(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"preferences": p})
}

type preferencesReq struct {
	OccasionPreferences   datatypes.JSON `json:"occasion_preferences"`
	WeatherSensitivity    *string        `json:"weather_sensitivity"`
	ComfortPriority       *int           `json:"comfort_priority"`
	TrendFollowing        *int           `json:"trend_following"`
	BudgetRange           *string        `json:"budget_range"`
	ConversationStyle     *string        `json:"conversation_style"`
	NotificationFrequency *string        `json:"notification_frequency"`
}

func (h *Handler) updatePreferences(c *gin.Context) {
	var req preferencesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid preferences payload")
		return
	}
	p, err := h.userSvc.UpdatePreferences(c.Request.Context(), currentUserID(c), services.PreferenceUpdate{
		OccasionPreferences:   req.OccasionPreferences,
		WeatherSensitivity:    req.WeatherSensitivity,
		ComfortPriority:       req.ComfortPriority,
		TrendFollowing:        req.TrendFollowing,
		BudgetRange:           req.BudgetRange,
		ConversationStyle:     req.ConversationStyle,
		NotificationFrequency: req.NotificationFrequency,
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"preferences": p})
}

// dashboardHeavyKeys 在移动端投影下剔除的重字段；full=true 跳过投影。
var dashboardHeavyKeys = []string{
	"additional_images", "image_urls", "style_tags", "occasion_tags",
	"season_tags", "accessory_ids", "wardrobe_item_ids", "vision_attributes",
	"shipping_address", "device_info", "signals",
}

// dashboard 聚合五个域的首屏数据，命中进程内缓存时打上 cached 标记。
func (h *Handler) dashboard(c *gin.Context) {
	d, cached, err := h.dashboardSvc.Build(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	if cached {
		markCached(c)
	}
	var view any = d
	if c.Query("full") != "true" {
		view = perf.StripKeys(d, dashboardHeavyKeys...)
	}
	h.respond(c, http.StatusOK, map[string]any{"dashboard": view})
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.sessionSvc.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"sessions": sessions, "count": len(sessions)})
}

func (h *Handler) revokeSession(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.sessionSvc.Revoke(c.Request.Context(), currentUserID(c), id); err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"message": "session revoked"})
}

func (h *Handler) currentUser(c *gin.Context) (*storage.User, bool) {
	u, err := h.userSvc.FindByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return u, true
}

// twoFactorSetup 生成待激活的 TOTP 密钥与 otpauth 二维码。
func (h *Handler) twoFactorSetup(c *gin.Context) {
	u, ok := h.currentUser(c)
	if !ok {
		return
	}
	setup, err := h.securitySvc.Setup(c.Request.Context(), u)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"two_factor": setup})
}

func (h *Handler) twoFactorEnable(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	u, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.securitySvc.Enable(c.Request.Context(), u, req.Code); err != nil {
		fail(c, err)
		return
	}
	h.auditSvc.Write(c.Request.Context(), "info", "2fa_enabled", &u.ID, "totp activated", c.ClientIP())
	h.respond(c, http.StatusOK, map[string]any{"message": "two-factor enabled"})
}

func (h *Handler) twoFactorDisable(c *gin.Context) {
	u, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.securitySvc.Disable(c.Request.Context(), u); err != nil {
		fail(c, err)
		return
	}
	h.auditSvc.Write(c.Request.Context(), "warning", "2fa_disabled", &u.ID, "totp removed", c.ClientIP())
	h.respond(c, http.StatusOK, map[string]any{"message": "two-factor disabled"})
}

// auditTrail 返回当前用户最近的安全事件。
func (h *Handler) auditTrail(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	logs, err := h.auditSvc.Recent(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"events": logs, "count": len(logs)})
}
