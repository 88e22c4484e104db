package repository

import (
	"gorm.io/gorm"

	"github.com/disfruleg/disfruleg-pos/pkg/pagination"
)

// ProductCatalogOrder lists regular products before special ones, then by name.
func ProductCatalogOrder(db *gorm.DB) *gorm.DB {
	return db.Order("is_special ASC").Order("name ASC").Order("id ASC")
}

// ByName orders by name with id as a stable tie breaker.
func ByName(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC").Order("id ASC")
}

// Paginate applies offset and limit from validated params.
func Paginate(params *pagination.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		params.Validate()
		return db.Offset(params.Offset()).Limit(params.PerPage)
	}
}
