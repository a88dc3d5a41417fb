package services

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// 服务层的哨兵错误。处理器据此映射 HTTP 状态码：
// NotFound→404、Forbidden→403、Conflict→409、Invalid→400、
// Unauthorized→401、State→409（状态机非法迁移）。
var (
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("access denied")
	ErrConflict     = errors.New("resource conflict")
	ErrInvalid      = errors.New("invalid request")
	ErrUnauthorized = errors.New("authentication required")
	ErrState        = errors.New("invalid state transition")
)

// isDuplicateKey 判断写入是否撞了唯一索引（MySQL 1062）。
// 只有这类错误才能按“已存在”收敛，其余数据库错误必须上抛。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
