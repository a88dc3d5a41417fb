package storage

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 本文件定义五个工作流共用的全部 GORM 模型，集中管理数据结构。
// 结构化子对象（标签数组、地址、CV 分析等）存为 JSON 列，读取时解析为原生对象。

// ---- 身份（ws1）----

type User struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"size:80;uniqueIndex" json:"username"`
	Email    string `gorm:"size:190;uniqueIndex" json:"email"`
	Password string `gorm:"size:255" json:"-"` // 已哈希的口令

	FirstName string `gorm:"size:50" json:"first_name,omitempty"`
	LastName  string `gorm:"size:50" json:"last_name,omitempty"`
	AgeRange  string `gorm:"size:20" json:"age_range,omitempty"` // 13-17, 18-22, 23-25

	// 快速风格偏好，注册时即可用于推荐
	StylePreference  string         `gorm:"size:50" json:"style_preference,omitempty"` // casual, professional, trendy, classic
	ColorPreferences datatypes.JSON `json:"color_preferences,omitempty"`
	SizeInfo         datatypes.JSON `json:"size_info,omitempty"`

	IsActive   bool `gorm:"index;default:true" json:"is_active"`
	IsVerified bool `gorm:"index" json:"is_verified"`

	PrivacyLevel       string `gorm:"size:20;default:private" json:"privacy_level"` // public, friends, private
	AllowSocialSharing bool   `json:"allow_social_sharing"`
	MarketingConsent   bool   `json:"-"`

	// TOTP 两步验证
	TwoFactorEnabled       bool   `gorm:"index" json:"two_factor_enabled"`
	TwoFactorSecret        string `gorm:"size:128" json:"-"`
	TwoFactorPendingSecret string `gorm:"size:128" json:"-"`

	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Session 记录设备与 IP 供审计；可被持有者枚举与撤销。
// 撤销会话不使已签发令牌失效，但停用账号会终止全部会话。
type Session struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint64         `gorm:"index" json:"user_id"`
	Token      string         `gorm:"size:190;uniqueIndex" json:"-"`
	DeviceInfo datatypes.JSON `json:"device_info,omitempty"`
	IPAddress  string         `gorm:"size:64" json:"ip_address,omitempty"`
	ExpiresAt  time.Time      `gorm:"index" json:"expires_at"`
	IsActive   bool           `gorm:"index;default:true" json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Preference 与用户一一对应，注册时创建默认值。
type Preference struct {
	ID                    uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                uint64         `gorm:"uniqueIndex" json:"user_id"`
	OccasionPreferences   datatypes.JSON `json:"occasion_preferences,omitempty"`
	WeatherSensitivity    string         `gorm:"size:20;default:medium" json:"weather_sensitivity"`
	ComfortPriority       int            `gorm:"default:7" json:"comfort_priority"`
	TrendFollowing        int            `gorm:"default:6" json:"trend_following"`
	BudgetRange           string         `gorm:"size:20;default:medium" json:"budget_range"`
	ConversationStyle     string         `gorm:"size:20;default:friendly" json:"conversation_style"`
	NotificationFrequency string         `gorm:"size:20;default:daily" json:"notification_frequency"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// ---- 衣橱（ws3）----

type WardrobeItem struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint64 `gorm:"index" json:"user_id"`

	Name           string `gorm:"size:200" json:"name"`
	Category       string `gorm:"size:100;index" json:"category"`
	Subcategory    string `gorm:"size:100" json:"subcategory,omitempty"`
	Brand          string `gorm:"size:100" json:"brand,omitempty"`
	ColorPrimary   string `gorm:"size:50;index" json:"color_primary"`
	ColorSecondary string `gorm:"size:50" json:"color_secondary,omitempty"`
	Size           string `gorm:"size:20" json:"size,omitempty"`
	FitType        string `gorm:"size:50" json:"fit_type,omitempty"` // slim, regular, loose, oversized

	StyleTags    datatypes.JSON `json:"style_tags,omitempty"`
	OccasionTags datatypes.JSON `json:"occasion_tags,omitempty"`
	SeasonTags   datatypes.JSON `json:"season_tags,omitempty"`

	ImageURL         string         `gorm:"size:500" json:"image_url,omitempty"`
	AdditionalImages datatypes.JSON `json:"additional_images,omitempty"`

	// 视觉分析结果（可空；由 vision 生产者写入）
	CVAnalysis   datatypes.JSON `json:"cv_analysis,omitempty"`
	CVConfidence float64        `json:"cv_confidence,omitempty"`

	WearCount int        `gorm:"default:0" json:"wear_count"`
	LastWorn  *time.Time `json:"last_worn,omitempty"`
	Favorite  bool       `gorm:"index" json:"favorite"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OutfitComposition 以角色引用衣橱单品，组合为一套穿搭。
type OutfitComposition struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint64 `gorm:"index" json:"user_id"`

	Name         string         `gorm:"size:200" json:"name"`
	TopID        *uint64        `gorm:"index" json:"top_id,omitempty"`
	BottomID     *uint64        `gorm:"index" json:"bottom_id,omitempty"`
	DressID      *uint64        `gorm:"index" json:"dress_id,omitempty"`
	OuterwearID  *uint64        `gorm:"index" json:"outerwear_id,omitempty"`
	ShoesID      *uint64        `gorm:"index" json:"shoes_id,omitempty"`
	AccessoryIDs datatypes.JSON `json:"accessory_ids,omitempty"`

	Occasion   string `gorm:"size:100" json:"occasion,omitempty"`
	Season     string `gorm:"size:50" json:"season,omitempty"`
	StyleTheme string `gorm:"size:100" json:"style_theme,omitempty"`

	UserRating    int     `json:"user_rating,omitempty"` // 1-5 星
	StyleScore    float64 `json:"style_score,omitempty"`
	ColorScore    float64 `json:"color_score,omitempty"`
	OccasionScore float64 `json:"occasion_score,omitempty"`
	OverallScore  float64 `json:"overall_score,omitempty"`

	WornCount int        `gorm:"default:0" json:"worn_count"`
	LastWorn  *time.Time `json:"last_worn,omitempty"`
	Favorite  bool       `json:"favorite"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StyleProfile 每用户至多一份；CompletionPct 为派生的完善度。
type StyleProfile struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint64         `gorm:"uniqueIndex" json:"user_id"`
	Parameters    datatypes.JSON `json:"parameters,omitempty"`
	CompletionPct float64        `json:"completion_pct"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ---- 社交（ws4）----

type SocialProfile struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint64 `gorm:"uniqueIndex" json:"user_id"`
	DisplayName     string `gorm:"size:100" json:"display_name"`
	Bio             string `gorm:"type:text" json:"bio,omitempty"`
	ProfileImageURL string `gorm:"size:500" json:"profile_image_url,omitempty"`

	IsPublic          bool `gorm:"default:true" json:"is_public"`
	AllowFollowers    bool `gorm:"default:true" json:"allow_followers"`
	AllowStyleSharing bool `gorm:"default:true" json:"allow_style_sharing"`

	StyleTags      datatypes.JSON `json:"style_tags,omitempty"`
	FavoriteBrands datatypes.JSON `json:"favorite_brands,omitempty"`

	// 反规范化计数：与来源关系同事务更新
	FollowersCount int `gorm:"default:0" json:"followers_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	PostsCount     int `gorm:"default:0" json:"posts_count"`
	LikesReceived  int `gorm:"default:0" json:"likes_received"`

	LastActive *time.Time `json:"last_active,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Connection 为有向关注边；有序对唯一，防止并发重复插入。
type Connection struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID  uint64 `gorm:"uniqueIndex:ux_follow_pair;index" json:"follower_id"`
	FollowingID uint64 `gorm:"uniqueIndex:ux_follow_pair;index" json:"following_id"`
	Status      string `gorm:"size:20;index;default:active" json:"status"` // active, pending, blocked

	StyleCompatibilityScore float64   `json:"style_compatibility_score,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

type Post struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint64 `gorm:"index" json:"user_id"`

	Title    string `gorm:"size:200" json:"title,omitempty"`
	Caption  string `gorm:"type:text" json:"caption,omitempty"`
	PostType string `gorm:"size:30;default:outfit" json:"post_type"` // outfit, style_tip, inspiration, review

	ImageURLs       datatypes.JSON `json:"image_urls,omitempty"`
	OutfitID        *uint64        `json:"outfit_id,omitempty"`
	WardrobeItemIDs datatypes.JSON `json:"wardrobe_item_ids,omitempty"`

	StyleTags datatypes.JSON `json:"style_tags,omitempty"`
	Occasion  string         `gorm:"size:50" json:"occasion,omitempty"`
	Season    string         `gorm:"size:20" json:"season,omitempty"`

	LikesCount    int `gorm:"default:0" json:"likes_count"`
	CommentsCount int `gorm:"default:0" json:"comments_count"`
	SharesCount   int `gorm:"default:0" json:"shares_count"`
	SavesCount    int `gorm:"default:0" json:"saves_count"`
	ViewsCount    int `gorm:"default:0" json:"views_count"`

	IsPublic      bool   `gorm:"index;default:true" json:"is_public"`
	AllowComments bool   `gorm:"default:true" json:"allow_comments"`
	AllowSharing  bool   `gorm:"default:true" json:"allow_sharing"`
	Status        string `gorm:"size:20;index;default:published" json:"status"` // draft, published, archived

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment 支持一级回复（parent_comment_id 指向顶层评论）。
type Comment struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID          uint64  `gorm:"index" json:"post_id"`
	UserID          uint64  `gorm:"index" json:"user_id"`
	ParentCommentID *uint64 `gorm:"index" json:"parent_comment_id,omitempty"`

	Content string `gorm:"type:text" json:"content"`

	LikesCount   int `gorm:"default:0" json:"likes_count"`
	RepliesCount int `gorm:"default:0" json:"replies_count"`

	IsEdited  bool      `json:"is_edited"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Like 指向帖子或评论二选一；(user,post) 与 (user,comment) 分别唯一。
// MySQL 唯一索引允许多个 NULL，因此可空列不会互相冲突。
type Like struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"uniqueIndex:ux_like_post;uniqueIndex:ux_like_comment;index" json:"user_id"`
	PostID    *uint64   `gorm:"uniqueIndex:ux_like_post;index" json:"post_id,omitempty"`
	CommentID *uint64   `gorm:"uniqueIndex:ux_like_comment;index" json:"comment_id,omitempty"`
	LikeType  string    `gorm:"size:20;default:like" json:"like_type"` // like, love, fire, style_goals
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID       uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   uint64  `gorm:"index" json:"user_id"` // 接收者
	SenderID *uint64 `json:"sender_id,omitempty"`

	Type      string `gorm:"size:30;index" json:"type"` // follow, like, comment, order_update, ...
	Title     string `gorm:"size:200" json:"title"`
	Message   string `gorm:"type:text" json:"message"`
	ActionURL string `gorm:"size:500" json:"action_url,omitempty"`

	RelatedContentID   *uint64 `json:"related_content_id,omitempty"`
	RelatedContentType string  `gorm:"size:30" json:"related_content_type,omitempty"`
	Priority           string  `gorm:"size:20;default:normal" json:"priority"`

	IsRead    bool       `gorm:"index" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

// ---- 电商（ws5）----

type Market struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string `gorm:"size:5;uniqueIndex" json:"code"` // 'US', 'IN'
	Name           string `gorm:"size:50" json:"name"`
	Currency       string `gorm:"size:5" json:"currency"`
	CurrencySymbol string `gorm:"size:5" json:"currency_symbol"`

	TaxRate               decimal.Decimal `gorm:"type:decimal(6,4);default:0" json:"tax_rate"`
	ShippingBaseCost      decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"shipping_base_cost"`
	FreeShippingThreshold decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"free_shipping_threshold"`

	PaymentMethods  datatypes.JSON `json:"payment_methods,omitempty"`
	ShippingOptions datatypes.JSON `json:"shipping_options,omitempty"`

	IsActive  bool      `gorm:"index;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Merchant struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	MarketID uint64 `gorm:"index" json:"market_id"`
	Name     string `gorm:"size:100" json:"name"`
	Code     string `gorm:"size:50;uniqueIndex" json:"code"` // 'zara', 'myntra'

	WebsiteURL  string `gorm:"size:200" json:"website_url,omitempty"`
	LogoURL     string `gorm:"size:200" json:"logo_url,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	IntegrationType           string `gorm:"size:50" json:"integration_type"` // api, affiliate, feed
	APIEndpoint               string `gorm:"size:200" json:"-"`
	SupportsRealTimeInventory bool   `json:"supports_real_time_inventory"`

	CommissionRate decimal.Decimal `gorm:"type:decimal(6,4);default:0" json:"commission_rate"`

	IsActive  bool      `gorm:"index;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	MerchantID uint64 `gorm:"uniqueIndex:ux_merchant_sku;index" json:"merchant_id"`
	SKU        string `gorm:"size:100;uniqueIndex:ux_merchant_sku" json:"sku"`

	Name        string `gorm:"size:200" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Brand       string `gorm:"size:100;index" json:"brand,omitempty"`

	Category    string         `gorm:"size:100;index" json:"category,omitempty"`
	Subcategory string         `gorm:"size:100" json:"subcategory,omitempty"`
	Tags        datatypes.JSON `json:"tags,omitempty"`

	OriginalPrice decimal.Decimal     `gorm:"type:decimal(10,2)" json:"original_price"`
	SalePrice     decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"sale_price,omitempty"`
	Currency      string              `gorm:"size:5" json:"currency"`

	Colors    datatypes.JSON `json:"colors,omitempty"`
	Sizes     datatypes.JSON `json:"sizes,omitempty"`
	Materials datatypes.JSON `json:"materials,omitempty"`

	PrimaryImageURL  string         `gorm:"size:300" json:"primary_image_url,omitempty"`
	AdditionalImages datatypes.JSON `json:"additional_images,omitempty"`

	StockQuantity     int  `gorm:"default:0" json:"stock_quantity"`
	IsInStock         bool `gorm:"index;default:true" json:"is_in_stock"`
	LowStockThreshold int  `gorm:"default:5" json:"low_stock_threshold"`

	StyleTags    datatypes.JSON `json:"style_tags,omitempty"`
	OccasionTags datatypes.JSON `json:"occasion_tags,omitempty"`
	SeasonTags   datatypes.JSON `json:"season_tags,omitempty"`

	ProductURL string `gorm:"size:300" json:"product_url,omitempty"`

	IsActive  bool      `gorm:"index;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CurrentPrice 返回生效价格：促销价优先，否则原价。
func (p *Product) CurrentPrice() decimal.Decimal {
	if p.SalePrice.Valid && p.SalePrice.Decimal.IsPositive() {
		return p.SalePrice.Decimal
	}
	return p.OriginalPrice
}

// Cart 每 (user, market) 至多一个 active 状态的购物车。
type Cart struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   uint64 `gorm:"index:ix_cart_owner" json:"user_id"`
	MarketID uint64 `gorm:"index:ix_cart_owner;index" json:"market_id"`
	Status   string `gorm:"size:20;index:ix_cart_owner;default:active" json:"status"` // active, abandoned, converted

	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"tax_amount"`
	ShippingCost   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"shipping_cost"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"total_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartItem 的 UnitPrice 为加入时的快照，商品后续调价不影响购物车。
type CartItem struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    uint64 `gorm:"index" json:"cart_id"`
	ProductID uint64 `gorm:"index" json:"product_id"`

	Quantity      int    `gorm:"default:1" json:"quantity"`
	SelectedColor string `gorm:"size:50" json:"selected_color,omitempty"`
	SelectedSize  string `gorm:"size:20" json:"selected_size,omitempty"`

	UnitPrice       decimal.Decimal `gorm:"type:decimal(10,2)" json:"unit_price"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_price"`
	DiscountApplied decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"discount_applied"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ShippingAddress struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint64 `gorm:"index" json:"user_id"`

	Label     string `gorm:"size:100" json:"label,omitempty"` // 'Home', 'Work'
	FirstName string `gorm:"size:100" json:"first_name"`
	LastName  string `gorm:"size:100" json:"last_name"`

	AddressLine1 string `gorm:"size:300" json:"address_line_1"`
	AddressLine2 string `gorm:"size:300" json:"address_line_2,omitempty"`
	City         string `gorm:"size:100" json:"city"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	Country      string `gorm:"size:100" json:"country"`

	Phone string `gorm:"size:20" json:"phone,omitempty"`
	Email string `gorm:"size:200" json:"email,omitempty"`

	IsDefault            bool   `gorm:"index" json:"is_default"`
	DeliveryInstructions string `gorm:"type:text" json:"delivery_instructions,omitempty"`

	UsageCount int        `gorm:"default:0" json:"usage_count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ShippingMethod struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	MarketID uint64 `gorm:"index" json:"market_id"`

	Name        string `gorm:"size:100" json:"name"` // 'Standard', 'Express'
	Code        string `gorm:"size:50;index" json:"code"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	BaseCost              decimal.Decimal     `gorm:"type:decimal(10,2)" json:"base_cost"`
	FreeShippingThreshold decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"free_shipping_threshold,omitempty"`

	MinDeliveryDays int    `json:"min_delivery_days"`
	MaxDeliveryDays int    `json:"max_delivery_days"`
	Carrier         string `gorm:"size:100" json:"carrier,omitempty"`

	IsActive  bool      `gorm:"index;default:true" json:"is_active"`
	IsExpress bool      `json:"is_express"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Coupon struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Code string `gorm:"size:50;uniqueIndex" json:"code"`

	Name        string `gorm:"size:200" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	DiscountType  string          `gorm:"size:20" json:"discount_type"` // percentage, fixed_amount
	DiscountValue decimal.Decimal `gorm:"type:decimal(10,2)" json:"discount_value"`

	MinimumOrderAmount    decimal.Decimal     `gorm:"type:decimal(10,2);default:0" json:"minimum_order_amount"`
	MaximumDiscountAmount decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"maximum_discount_amount,omitempty"`

	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`

	UsageLimit        *int `json:"usage_limit,omitempty"`
	UsageLimitPerUser int  `gorm:"default:1" json:"usage_limit_per_user"`
	CurrentUsageCount int  `gorm:"default:0" json:"current_usage_count"`

	ApplicableMarkets    datatypes.JSON `json:"applicable_markets,omitempty"`
	ApplicableCategories datatypes.JSON `json:"applicable_categories,omitempty"`
	ApplicableBrands     datatypes.JSON `json:"applicable_brands,omitempty"`

	IsActive  bool      `gorm:"index;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CouponRedemption 支撑总量与每用户用量限制的审计。
type CouponRedemption struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CouponID  uint64    `gorm:"index" json:"coupon_id"`
	UserID    uint64    `gorm:"index" json:"user_id"`
	OrderID   *uint64   `gorm:"index" json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Order struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string `gorm:"size:50;uniqueIndex" json:"order_number"`
	UserID      uint64 `gorm:"index" json:"user_id"`
	MarketID    uint64 `gorm:"index" json:"market_id"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2)" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"tax_amount"`
	ShippingCost   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"shipping_cost"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_amount"`

	Status        string `gorm:"size:30;index;default:pending" json:"status"`         // pending, confirmed, processing, shipped, delivered, cancelled, returned
	PaymentStatus string `gorm:"size:30;index;default:pending" json:"payment_status"` // pending, paid, failed, refunded

	ShippingAddress datatypes.JSON `json:"shipping_address,omitempty"`
	BillingAddress  datatypes.JSON `json:"billing_address,omitempty"`
	ShippingMethod  string         `gorm:"size:50" json:"shipping_method,omitempty"`
	TrackingNumber  string         `gorm:"size:100" json:"tracking_number,omitempty"`

	PaymentMethod    string `gorm:"size:50" json:"payment_method,omitempty"`
	PaymentReference string `gorm:"size:100" json:"payment_reference,omitempty"`
	CouponCode       string `gorm:"size:50" json:"coupon_code,omitempty"`

	OrderDate     time.Time  `json:"order_date"`
	ShippedDate   *time.Time `json:"shipped_date,omitempty"`
	DeliveredDate *time.Time `json:"delivered_date,omitempty"`
	Notes         string     `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem 在结账瞬间对 CartItem 做快照。
type OrderItem struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint64 `gorm:"index" json:"order_id"`
	ProductID uint64 `gorm:"index" json:"product_id"`

	ProductName   string `gorm:"size:200" json:"product_name"`
	Quantity      int    `json:"quantity"`
	SelectedColor string `gorm:"size:50" json:"selected_color,omitempty"`
	SelectedSize  string `gorm:"size:20" json:"selected_size,omitempty"`

	UnitPrice       decimal.Decimal `gorm:"type:decimal(10,2)" json:"unit_price"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_price"`
	DiscountApplied decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"discount_applied"`

	Status    string    `gorm:"size:30;default:pending" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ---- 支付与金融（ws5，边界实体）----

type PaymentGateway struct {
	ID                  uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                string         `gorm:"size:100" json:"name"`
	Code                string         `gorm:"size:50;uniqueIndex" json:"code"`
	SupportedMethods    datatypes.JSON `json:"supported_methods,omitempty"`
	SupportedCurrencies datatypes.JSON `json:"supported_currencies,omitempty"`
	IsActive            bool           `gorm:"index;default:true" json:"is_active"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// PaymentMethod 仅保存网关返回的不透明令牌，不落任何卡号明文。
type PaymentMethod struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint64 `gorm:"index" json:"user_id"`

	MethodType  string `gorm:"size:30" json:"method_type"` // card, upi, wallet
	Token       string `gorm:"size:190" json:"-"`
	Label       string `gorm:"size:100" json:"label,omitempty"`
	LastFour    string `gorm:"size:4" json:"last_four,omitempty"`
	ExpiryMonth int    `json:"expiry_month,omitempty"`
	ExpiryYear  int    `json:"expiry_year,omitempty"`

	IsDefault bool      `json:"is_default"`
	IsActive  bool      `gorm:"index;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaymentTransaction 的 Reference 即幂等键；重试不会产生第二笔扣款。
type PaymentTransaction struct {
	ID      uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID *uint64 `gorm:"index" json:"order_id,omitempty"`
	UserID  uint64  `gorm:"index" json:"user_id"`

	Amount   decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	Currency string          `gorm:"size:5" json:"currency"`

	Status        string  `gorm:"size:20;index" json:"status"` // authorized, declined, error, refunded
	Reference     string  `gorm:"size:190;uniqueIndex" json:"reference"`
	GatewayCode   string  `gorm:"size:50" json:"gateway_code,omitempty"`
	FailureReason string  `gorm:"size:255" json:"failure_reason,omitempty"`
	RiskScore     float64 `json:"risk_score,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

type CurrencyExchange struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	FromCurrency string          `gorm:"size:5;index:ix_fx_pair" json:"from_currency"`
	ToCurrency   string          `gorm:"size:5;index:ix_fx_pair" json:"to_currency"`
	Rate         decimal.Decimal `gorm:"type:decimal(16,8)" json:"rate"`
	FetchedAt    time.Time       `json:"fetched_at"`
	ValidUntil   time.Time       `gorm:"index" json:"valid_until"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Subscription struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64     `gorm:"index" json:"user_id"`
	Plan      string     `gorm:"size:50" json:"plan"`
	Status    string     `gorm:"size:20;index;default:active" json:"status"` // active, cancelled, expired
	StartedAt time.Time  `json:"started_at"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	AutoRenew bool       `json:"auto_renew"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type FraudRecord struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64         `gorm:"index" json:"user_id"`
	OrderID   *uint64        `gorm:"index" json:"order_id,omitempty"`
	RiskScore float64        `json:"risk_score"`
	Decision  string         `gorm:"size:20;index" json:"decision"` // approve, review, decline
	Signals   datatypes.JSON `json:"signals,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

// ---- 审计 ----

type AuditLog struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp   time.Time `gorm:"index" json:"timestamp"`
	Service     string    `gorm:"size:50;index" json:"service"`
	Level       string    `gorm:"size:16;index" json:"level"`
	Event       string    `gorm:"size:64;index" json:"event"`
	UserID      *uint64   `gorm:"index" json:"user_id,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	IPAddress   string    `gorm:"size:64" json:"ip_address,omitempty"`
	RequestID   string    `gorm:"size:64;index" json:"request_id,omitempty"`
}

// autoMigrate 执行数据库自动迁移。
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{}, &Session{}, &Preference{},
		&WardrobeItem{}, &OutfitComposition{}, &StyleProfile{},
		&SocialProfile{}, &Connection{}, &Post{}, &Comment{}, &Like{}, &Notification{},
		&Market{}, &Merchant{}, &Product{},
		&Cart{}, &CartItem{}, &ShippingAddress{}, &ShippingMethod{},
		&Coupon{}, &CouponRedemption{}, &Order{}, &OrderItem{},
		&PaymentGateway{}, &PaymentMethod{}, &PaymentTransaction{},
		&CurrencyExchange{}, &Subscription{}, &FraudRecord{},
		&AuditLog{},
	)
}
