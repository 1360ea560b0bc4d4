package entity

import "time"

// Company is a monitored entity identified by its ticker.
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Ticker    string    `gorm:"uniqueIndex;not null" json:"ticker"`
	Name      string    `gorm:"not null" json:"name"`
	Sector    string    `json:"sector"`
	Industry  string    `json:"industry"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Company model.
func (Company) TableName() string {
	return "companies"
}
