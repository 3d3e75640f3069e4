package domain

import "time"

// DateLayout is the calendar-date format used for DateFound.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusClaimed  Status = "claimed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusApproved, StatusClaimed}

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryBooks       Category = "Books"
	CategorySports      Category = "Sports"
	CategoryKeys        Category = "Keys"
	CategoryBags        Category = "Bags"
	CategoryOther       Category = "Other"
)

// Categories lists the accepted categories in display order.
var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryBooks,
	CategorySports,
	CategoryKeys,
	CategoryBags,
	CategoryOther,
}

type Item struct {
	ID            string
	Title         string
	Category      Category
	Description   string
	Location      string
	DateFound     time.Time
	PhotoURL      string
	PhotoKey      string
	FinderName    string
	FinderContact string
	Status        Status
	Claim         *Claim
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Claim holds the claimant details. It is set only on claimed items.
type Claim struct {
	Name    string
	Contact string
	Message string
}

// NewItem is the data a report submission persists. The store assigns the
// identifier and timestamps.
type NewItem struct {
	Title         string
	Category      Category
	Description   string
	Location      string
	DateFound     time.Time
	PhotoURL      string
	PhotoKey      string
	FinderName    string
	FinderContact string
}

type Stats struct {
	Total    int
	Pending  int
	Approved int
	Claimed  int
}

type Admin struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
