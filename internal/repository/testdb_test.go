package repository

import (
	"testing"

	"credit-risk-monitor/internal/repository/repotest"

	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	return repotest.NewDB(t)
}
