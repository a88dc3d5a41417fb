package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	require.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	require.True(t, isDuplicateKey(fmt.Errorf("create like: %w", &mysql.MySQLError{Number: 1062})))
	require.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))

	// 其他数据库错误不得被吞成"已存在"
	require.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"}))
	require.False(t, isDuplicateKey(errors.New("connection reset")))
	require.False(t, isDuplicateKey(nil))
}
