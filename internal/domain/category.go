package domain

// Category groups tickets by topic.
type Category struct {
	ID       string
	Name     string
	IsActive bool
}
