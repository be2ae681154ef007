package dto

// AllCategories is the pseudo category that matches every product.
const AllCategories = "Todos"

type BrowseFilter struct {
	Category string
	Search   string
}
