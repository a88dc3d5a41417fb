package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/services"
)

type wardrobeItemReq struct {
	Name             string         `json:"name"`
	Category         string         `json:"category"`
	Subcategory      string         `json:"subcategory"`
	Brand            string         `json:"brand"`
	ColorPrimary     string         `json:"color_primary"`
	ColorSecondary   string         `json:"color_secondary"`
	Size             string         `json:"size"`
	FitType          string         `json:"fit_type"`
	StyleTags        datatypes.JSON `json:"style_tags"`
	OccasionTags     datatypes.JSON `json:"occasion_tags"`
	SeasonTags       datatypes.JSON `json:"season_tags"`
	ImageURL         string         `json:"image_url"`
	AdditionalImages datatypes.JSON `json:"additional_images"`
	Favorite         *bool          `json:"favorite"`
}

func (r wardrobeItemReq) toInput() services.WardrobeItemInput {
	return services.WardrobeItemInput{
		Name:             r.Name,
		Category:         r.Category,
		Subcategory:      r.Subcategory,
		Brand:            r.Brand,
		ColorPrimary:     r.ColorPrimary,
		ColorSecondary:   r.ColorSecondary,
		Size:             r.Size,
		FitType:          r.FitType,
		StyleTags:        r.StyleTags,
		OccasionTags:     r.OccasionTags,
		SeasonTags:       r.SeasonTags,
		ImageURL:         r.ImageURL,
		AdditionalImages: r.AdditionalImages,
		Favorite:         r.Favorite,
	}
}

func (h *Handler) createWardrobeItem(c *gin.Context) {
	var req wardrobeItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid wardrobe item payload")
		return
	}
	uid := currentUserID(c)
	item, err := h.wardrobeSvc.Create(c.Request.Context(), uid, req.toInput())
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusCreated, map[string]any{"item": item})
}

func (h *Handler) listWardrobe(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	f := services.WardrobeFilter{
		Category:     c.Query("category"),
		ColorPrimary: c.Query("color"),
		FavoriteOnly: c.Query("favorites") == "true",
		Query:        c.Query("q"),
	}
	items, total, err := h.wardrobeSvc.List(c.Request.Context(), currentUserID(c), f, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(items, page, perPage, total))
}

func (h *Handler) wardrobeStats(c *gin.Context) {
	stats, err := h.wardrobeSvc.Stats(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"stats": stats})
}

func (h *Handler) getWardrobeItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	item, err := h.wardrobeSvc.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"item": item})
}

func (h *Handler) updateWardrobeItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req wardrobeItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid wardrobe item payload")
		return
	}
	uid := currentUserID(c)
	item, err := h.wardrobeSvc.Update(c.Request.Context(), uid, id, req.toInput())
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"item": item})
}

func (h *Handler) deleteWardrobeItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	uid := currentUserID(c)
	if err := h.wardrobeSvc.Delete(c.Request.Context(), uid, id); err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"message": "item deleted"})
}

// markItemWorn 记录一次穿着，累加 wear_count 并刷新 last_worn。
func (h *Handler) markItemWorn(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	uid := currentUserID(c)
	item, err := h.wardrobeSvc.MarkWorn(c.Request.Context(), uid, id)
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"item": item})
}

// analyzeItem 触发视觉分析并把结果回写到单品。
func (h *Handler) analyzeItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	uid := currentUserID(c)
	item, result, err := h.visionSvc.AnalyzeItem(c.Request.Context(), uid, id)
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"item": item, "analysis": result})
}

type outfitReq struct {
	Name         string         `json:"name"`
	TopID        *uint64        `json:"top_id"`
	BottomID     *uint64        `json:"bottom_id"`
	DressID      *uint64        `json:"dress_id"`
	OuterwearID  *uint64        `json:"outerwear_id"`
	ShoesID      *uint64        `json:"shoes_id"`
	AccessoryIDs datatypes.JSON `json:"accessory_ids"`
	Occasion     string         `json:"occasion"`
	Season       string         `json:"season"`
	StyleTheme   string         `json:"style_theme"`
	UserRating   *int           `json:"user_rating"`
	Favorite     *bool          `json:"favorite"`
}

func (r outfitReq) toInput() services.OutfitInput {
	return services.OutfitInput{
		Name:         r.Name,
		TopID:        r.TopID,
		BottomID:     r.BottomID,
		DressID:      r.DressID,
		OuterwearID:  r.OuterwearID,
		ShoesID:      r.ShoesID,
		AccessoryIDs: r.AccessoryIDs,
		Occasion:     r.Occasion,
		Season:       r.Season,
		StyleTheme:   r.StyleTheme,
		UserRating:   r.UserRating,
		Favorite:     r.Favorite,
	}
}

func (h *Handler) createOutfit(c *gin.Context) {
	var req outfitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid outfit payload")
		return
	}
	uid := currentUserID(c)
	outfit, err := h.outfitSvc.Create(c.Request.Context(), uid, req.toInput())
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusCreated, map[string]any{"outfit": outfit})
}

func (h *Handler) listOutfits(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	f := services.OutfitFilter{
		Occasion:     c.Query("occasion"),
		Season:       c.Query("season"),
		FavoriteOnly: c.Query("favorites") == "true",
	}
	outfits, total, err := h.outfitSvc.List(c.Request.Context(), currentUserID(c), f, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, listPayload(outfits, page, perPage, total))
}

func (h *Handler) getOutfit(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	outfit, err := h.outfitSvc.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"outfit": outfit})
}

func (h *Handler) updateOutfit(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req outfitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid outfit payload")
		return
	}
	uid := currentUserID(c)
	outfit, err := h.outfitSvc.Update(c.Request.Context(), uid, id, req.toInput())
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"outfit": outfit})
}

func (h *Handler) deleteOutfit(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	uid := currentUserID(c)
	if err := h.outfitSvc.Delete(c.Request.Context(), uid, id); err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"message": "outfit deleted"})
}

// markOutfitWorn 记录整套穿着并级联到每件单品。
func (h *Handler) markOutfitWorn(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	uid := currentUserID(c)
	outfit, err := h.outfitSvc.MarkWorn(c.Request.Context(), uid, id)
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"outfit": outfit})
}

func (h *Handler) getStyleProfile(c *gin.Context) {
	p, err := h.styleProfileSvc.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, map[string]any{"style_profile": p})
}

// updateStyleProfile 合并八个维度的画像参数，传 null 删除对应维度。
func (h *Handler) updateStyleProfile(c *gin.Context) {
	var params map[string]any
	if err := c.ShouldBindJSON(&params); err != nil {
		badRequest(c, "invalid style profile payload")
		return
	}
	uid := currentUserID(c)
	p, err := h.styleProfileSvc.Update(c.Request.Context(), uid, params)
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboardSvc.Invalidate(uid)
	h.respond(c, http.StatusOK, map[string]any{"style_profile": p})
}
