package domain

// Category is a top-level provider category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var categories = []Category{
	{ID: "100001", Name: "Electronics"},
	{ID: "100002", Name: "Fashion"},
	{ID: "100003", Name: "Home & Garden"},
	{ID: "100004", Name: "Sports & Outdoor"},
	{ID: "100005", Name: "Beauty & Health"},
	{ID: "100006", Name: "Automotive"},
	{ID: "100007", Name: "Toys & Hobbies"},
	{ID: "100008", Name: "Jewelry & Accessories"},
	{ID: "100009", Name: "Shoes & Bags"},
	{ID: "100010", Name: "Computer & Office"},
	{ID: "1421", Name: "Electronics & Gadgets"},
	{ID: "1509", Name: "Women's Fashion"},
	{ID: "1525", Name: "Men's Fashion"},
	{ID: "1526", Name: "Musical Instruments"},
}

// Categories returns a copy of the fixed category list.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}
