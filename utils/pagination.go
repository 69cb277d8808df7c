package utils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ParsePagination reads the page/page_size query params with sane defaults.
func ParsePagination(c *fiber.Ctx) (pageSize, page, offset int, err error) {
	pageSize = c.QueryInt("page_size", 20)
	if pageSize <= 0 {
		return 0, 0, 0, fiber.NewError(fiber.StatusBadRequest, "Invalid page_size parameter")
	}
	page = c.QueryInt("page", 1)
	if page <= 0 {
		return 0, 0, 0, fiber.NewError(fiber.StatusBadRequest, "Invalid page parameter")
	}
	return pageSize, page, (page - 1) * pageSize, nil
}

// PaginationMeta builds the standard list-endpoint meta block.
func PaginationMeta(page, pageSize int, total int64) fiber.Map {
	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	return fiber.Map{
		"current_page": page,
		"page_size":    pageSize,
		"total":        total,
		"total_pages":  totalPages,
	}
}

// CleanQueryParam trims a filter value, treating literal "null" from the
// frontend as absent.
func CleanQueryParam(param string) string {
	param = strings.TrimSpace(param)
	if param == "" || strings.ToLower(param) == "null" {
		return ""
	}
	return param
}
