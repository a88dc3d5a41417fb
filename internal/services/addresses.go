package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// AddressService 管理收货地址。每用户至多一个默认地址。
type AddressService struct{ db *gorm.DB }

func NewAddressService(db *gorm.DB) *AddressService { return &AddressService{db: db} }

// AddressInput 为创建/修改地址的业务字段。
type AddressInput struct {
	Label                string
	FirstName            string
	LastName             string
	AddressLine1         string
	AddressLine2         string
	City                 string
	State                string
	PostalCode           string
	Country              string
	Phone                string
	Email                string
	IsDefault            *bool
	DeliveryInstructions string
}

func (in AddressInput) validate() error {
	if in.FirstName == "" || in.LastName == "" || in.AddressLine1 == "" ||
		in.City == "" || in.PostalCode == "" || in.Country == "" {
		return fmt.Errorf("%w: first_name, last_name, address_line_1, city, postal_code and country are required", ErrInvalid)
	}
	return nil
}

// Create 新增地址；首个地址自动成为默认。
func (s *AddressService) Create(ctx context.Context, userID uint64, in AddressInput) (*storage.ShippingAddress, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	addr := &storage.ShippingAddress{
		UserID:               userID,
		Label:                in.Label,
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		AddressLine1:         in.AddressLine1,
		AddressLine2:         in.AddressLine2,
		City:                 in.City,
		State:                in.State,
		PostalCode:           in.PostalCode,
		Country:              in.Country,
		Phone:                in.Phone,
		Email:                in.Email,
		DeliveryInstructions: in.DeliveryInstructions,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&storage.ShippingAddress{}).
			Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		addr.IsDefault = count == 0 || (in.IsDefault != nil && *in.IsDefault)
		if addr.IsDefault && count > 0 {
			if err := tx.Model(&storage.ShippingAddress{}).
				Where("user_id = ?", userID).Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(addr).Error
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// List 返回用户地址，默认地址在前、常用在前。
func (s *AddressService) List(ctx context.Context, userID uint64) ([]storage.ShippingAddress, error) {
	var out []storage.ShippingAddress
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("is_default DESC, usage_count DESC, created_at DESC").Find(&out).Error
	return out, err
}

// Get 返回本人名下的地址。
func (s *AddressService) Get(ctx context.Context, userID, addressID uint64) (*storage.ShippingAddress, error) {
	var addr storage.ShippingAddress
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).First(&addr).Error; err != nil {
		return nil, ErrNotFound
	}
	return &addr, nil
}

// Update 修改地址字段。
func (s *AddressService) Update(ctx context.Context, userID, addressID uint64, in AddressInput) (*storage.ShippingAddress, error) {
	addr, err := s.Get(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if in.Label != "" {
		addr.Label = in.Label
	}
	if in.FirstName != "" {
		addr.FirstName = in.FirstName
	}
	if in.LastName != "" {
		addr.LastName = in.LastName
	}
	if in.AddressLine1 != "" {
		addr.AddressLine1 = in.AddressLine1
	}
	if in.AddressLine2 != "" {
		addr.AddressLine2 = in.AddressLine2
	}
	if in.City != "" {
		addr.City = in.City
	}
	if in.State != "" {
		addr.State = in.State
	}
	if in.PostalCode != "" {
		addr.PostalCode = in.PostalCode
	}
	if in.Country != "" {
		addr.Country = in.Country
	}
	if in.Phone != "" {
		addr.Phone = in.Phone
	}
	if in.Email != "" {
		addr.Email = in.Email
	}
	if in.DeliveryInstructions != "" {
		addr.DeliveryInstructions = in.DeliveryInstructions
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.IsDefault != nil && *in.IsDefault && !addr.IsDefault {
			if err := tx.Model(&storage.ShippingAddress{}).
				Where("user_id = ?", userID).Update("is_default", false).Error; err != nil {
				return err
			}
			addr.IsDefault = true
		}
		return tx.Save(addr).Error
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// Delete 删除地址；删除默认地址后由最常用地址接任默认。
func (s *AddressService) Delete(ctx context.Context, userID, addressID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var addr storage.ShippingAddress
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&addr).Error; err != nil {
			return ErrNotFound
		}
		if err := tx.Delete(&addr).Error; err != nil {
			return err
		}
		if !addr.IsDefault {
			return nil
		}
		var next storage.ShippingAddress
		err := tx.Where("user_id = ?", userID).
			Order("usage_count DESC, created_at DESC").First(&next).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_default", true).Error
	})
}

// TouchAddressUsage 在下单事务内累加地址使用统计。
func TouchAddressUsage(tx *gorm.DB, addressID uint64) error {
	now := time.Now()
	return tx.Model(&storage.ShippingAddress{}).Where("id = ?", addressID).
		Updates(map[string]any{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": &now,
		}).Error
}
