package services

// 用户服务：注册、登录、资料与偏好维护、账号停用。

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// UserService 提供账号生命周期与资料维护。
type UserService struct{ db *gorm.DB }

func NewUserService(db *gorm.DB) *UserService { return &UserService{db: db} }

// RegisterInput 为注册请求的业务字段。
type RegisterInput struct {
	Username         string
	Email            string
	Password         string
	FirstName        string
	LastName         string
	AgeRange         string
	StylePreference  string
	ColorPreferences datatypes.JSON
	SizeInfo         datatypes.JSON
}

// Register 创建用户与默认偏好。用户名/邮箱冲突返回 ErrConflict。
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*storage.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalid)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalid)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalid)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&storage.User{}).
		Where("username = ? OR email = ?", in.Username, in.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: username or email already registered", ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &storage.User{
		Username:         in.Username,
		Email:            in.Email,
		Password:         string(hash),
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		AgeRange:         in.AgeRange,
		StylePreference:  in.StylePreference,
		ColorPreferences: in.ColorPreferences,
		SizeInfo:         in.SizeInfo,
		IsActive:         true,
		PrivacyLevel:     "private",
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		// 偏好行与用户同生命周期创建，字段级默认值由列定义给出
		return tx.Create(&storage.Preference{UserID: u.ID}).Error
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate 按用户名或邮箱定位用户并校验口令。
// 不区分“用户不存在”与“口令错误”，统一返回 ErrUnauthorized。
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*storage.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, fmt.Errorf("%w: login and password are required", ErrInvalid)
	}
	var u storage.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&u).Error
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: account deactivated", ErrForbidden)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrUnauthorized
	}
	return &u, nil
}

// TouchLastLogin 更新最近登录时间。
func (s *UserService) TouchLastLogin(ctx context.Context, userID uint64) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&storage.User{}).
		Where("id = ?", userID).Update("last_login", &now).Error
}

// FindByID 返回用户；不存在或已停用返回 ErrNotFound。
func (s *UserService) FindByID(ctx context.Context, id uint64) (*storage.User, error) {
	var u storage.User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&u).Error; err != nil {
		return nil, ErrNotFound
	}
	return &u, nil
}

// ProfileUpdate 列出允许自助修改的资料字段，nil 表示不修改。
type ProfileUpdate struct {
	FirstName          *string
	LastName           *string
	AgeRange           *string
	StylePreference    *string
	ColorPreferences   datatypes.JSON
	SizeInfo           datatypes.JSON
	PrivacyLevel       *string
	AllowSocialSharing *bool
}

// UpdateProfile 更新当前用户的资料字段。
func (s *UserService) UpdateProfile(ctx context.Context, userID uint64, upd ProfileUpdate) (*storage.User, error) {
	u, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.AgeRange != nil {
		u.AgeRange = *upd.AgeRange
	}
	if upd.StylePreference != nil {
		u.StylePreference = *upd.StylePreference
	}
	if upd.ColorPreferences != nil {
		u.ColorPreferences = upd.ColorPreferences
	}
	if upd.SizeInfo != nil {
		u.SizeInfo = upd.SizeInfo
	}
	if upd.PrivacyLevel != nil {
		switch *upd.PrivacyLevel {
		case "public", "friends", "private":
			u.PrivacyLevel = *upd.PrivacyLevel
		default:
			return nil, fmt.Errorf("%w: privacy_level must be public, friends or private", ErrInvalid)
		}
	}
	if upd.AllowSocialSharing != nil {
		u.AllowSocialSharing = *upd.AllowSocialSharing
	}
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// Preferences 返回用户偏好；缺行时按默认值补建。
func (s *UserService) Preferences(ctx context.Context, userID uint64) (*storage.Preference, error) {
	var p storage.Preference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	p = storage.Preference{UserID: userID}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// PreferenceUpdate 的字段与 Preference 一一对应，nil 表示不修改。
type PreferenceUpdate struct {
	OccasionPreferences   datatypes.JSON
	WeatherSensitivity    *string
	ComfortPriority       *int
	TrendFollowing        *int
	BudgetRange           *string
	ConversationStyle     *string
	NotificationFrequency *string
}

// UpdatePreferences 更新用户偏好；打分字段范围 1-10。
func (s *UserService) UpdatePreferences(ctx context.Context, userID uint64, upd PreferenceUpdate) (*storage.Preference, error) {
	p, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.OccasionPreferences != nil {
		p.OccasionPreferences = upd.OccasionPreferences
	}
	if upd.WeatherSensitivity != nil {
		p.WeatherSensitivity = *upd.WeatherSensitivity
	}
	if upd.ComfortPriority != nil {
		if *upd.ComfortPriority < 1 || *upd.ComfortPriority > 10 {
			return nil, fmt.Errorf("%w: comfort_priority must be between 1 and 10", ErrInvalid)
		}
		p.ComfortPriority = *upd.ComfortPriority
	}
	if upd.TrendFollowing != nil {
		if *upd.TrendFollowing < 1 || *upd.TrendFollowing > 10 {
			return nil, fmt.Errorf("%w: trend_following must be between 1 and 10", ErrInvalid)
		}
		p.TrendFollowing = *upd.TrendFollowing
	}
	if upd.BudgetRange != nil {
		p.BudgetRange = *upd.BudgetRange
	}
	if upd.ConversationStyle != nil {
		p.ConversationStyle = *upd.ConversationStyle
	}
	if upd.NotificationFrequency != nil {
		p.NotificationFrequency = *upd.NotificationFrequency
	}
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate 软停用账号并终止其全部会话。
func (s *UserService) Deactivate(ctx context.Context, userID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&storage.User{}).
			Where("id = ? AND is_active = ?", userID, true).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&storage.Session{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Update("is_active", false).Error
	})
}
