package content

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength = 200
)

// Categories, in the order the dashboard lays them out.
const (
	CategoryBooks         = "books"
	CategoryEbooks        = "ebooks"
	CategoryProjects      = "projects"
	CategoryUsers         = "users"
	CategoryTeams         = "teams"
	CategoryAnnouncements = "announcements"
	CategoryActivities    = "activities"
	CategoryInitiatives   = "initiatives"
)

// Categories lists every dashboard category in declaration order.
var Categories = []string{
	CategoryBooks,
	CategoryEbooks,
	CategoryProjects,
	CategoryUsers,
	CategoryTeams,
	CategoryAnnouncements,
	CategoryActivities,
	CategoryInitiatives,
}

// CategoryColors assigns a fixed colour to every category, including ones that are currently empty.
var CategoryColors = map[string]string{
	CategoryBooks:         "#2980b9",
	CategoryEbooks:        "#8e44ad",
	CategoryProjects:      "#27ae60",
	CategoryUsers:         "#e74c3c",
	CategoryTeams:         "#16a085",
	CategoryAnnouncements: "#F9B232",
	CategoryActivities:    "#d35400",
	CategoryInitiatives:   "#7f8c8d",
}

var categoryLabels = map[string]string{
	CategoryBooks:         "Books",
	CategoryEbooks:        "E-books",
	CategoryProjects:      "Projects",
	CategoryUsers:         "Members",
	CategoryTeams:         "Team members",
	CategoryAnnouncements: "Announcements",
	CategoryActivities:    "Activities",
	CategoryInitiatives:   "Initiatives",
}

// Label returns the display name of a category.
func Label(category string) string {
	if l, ok := categoryLabels[category]; ok {
		return l
	}
	return category
}

// Item statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Domain errors
var (
	ErrEmptyTitle      = errors.New("content title cannot be empty")
	ErrTitleTooLong    = errors.New("content title cannot exceed 200 characters")
	ErrInvalidCategory = errors.New("content category is not recognised")
	ErrUsersNotContent = errors.New("members are not stored as content items")
	ErrInvalidStatus   = errors.New("content status must be one of: draft, published")
)

// Item is a piece of society content: a book, a project, an announcement and so on.
type Item struct {
	ID        string
	Category  string
	Title     string
	Summary   string
	Status    string // draft, published
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if the Item has valid data.
// PRE: Item struct is populated
// POST: Returns nil if valid, error otherwise
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return ErrEmptyTitle
	}
	if len(i.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if i.Category == CategoryUsers {
		return ErrUsersNotContent
	}
	if !IsCategory(i.Category) {
		return ErrInvalidCategory
	}
	if i.Status != StatusDraft && i.Status != StatusPublished {
		return ErrInvalidStatus
	}
	return nil
}

// IsPublished reports whether the item counts towards the dashboard.
func (i *Item) IsPublished() bool {
	return i.Status == StatusPublished
}

// IsCategory reports whether category is one of the declared categories.
func IsCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
