package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Author represents authors table
type Author struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:150;not null;uniqueIndex" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	PhotoURL    string         `gorm:"size:255" json:"photoUrl"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Author) TableName() string {
	return "authors"
}

// Genre represents genres table
type Genre struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Genre) TableName() string {
	return "genres"
}

// Book represents books table. IsAvailable is owned by the borrowal
// lifecycle; catalog edits never write it.
type Book struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	Name        string                      `gorm:"size:200;not null;index" json:"name"`
	ISBN        string                      `gorm:"column:isbn;size:20;not null;index" json:"isbn"`
	AuthorID    *uint                       `gorm:"index" json:"authorId"`
	GenreID     *uint                       `gorm:"index" json:"genreId"`
	IsAvailable bool                        `gorm:"not null" json:"isAvailable"`
	Summary     string                      `gorm:"type:text" json:"summary"`
	PhotoURL    string                      `gorm:"size:255" json:"photoUrl"`
	PageURLs    datatypes.JSONSlice[string] `gorm:"column:page_urls" json:"pageUrls"`
	Position    string                      `gorm:"size:50" json:"position"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt              `gorm:"index" json:"-"`

	// Relations
	Author *Author `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Genre  *Genre  `gorm:"foreignKey:GenreID" json:"genre,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

// BookResponse DTO
type BookResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	ISBN        string    `json:"isbn"`
	AuthorID    *uint     `json:"authorId"`
	AuthorName  string    `json:"authorName,omitempty"`
	GenreID     *uint     `json:"genreId"`
	GenreName   string    `json:"genreName,omitempty"`
	IsAvailable bool      `json:"isAvailable"`
	Summary     string    `json:"summary"`
	PhotoURL    string    `json:"photoUrl"`
	PageURLs    []string  `json:"pageUrls"`
	Position    string    `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (b *Book) ToResponse() *BookResponse {
	resp := &BookResponse{
		ID:          b.ID,
		Name:        b.Name,
		ISBN:        b.ISBN,
		AuthorID:    b.AuthorID,
		GenreID:     b.GenreID,
		IsAvailable: b.IsAvailable,
		Summary:     b.Summary,
		PhotoURL:    b.PhotoURL,
		PageURLs:    []string(b.PageURLs),
		Position:    b.Position,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if resp.PageURLs == nil {
		resp.PageURLs = []string{}
	}
	if b.Author != nil {
		resp.AuthorName = b.Author.Name
	}
	if b.Genre != nil {
		resp.GenreName = b.Genre.Name
	}
	return resp
}

// Review represents reviews table. Deleting only flips IsDeleted.
type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BookID     uint      `gorm:"not null;index:idx_reviews_book_user" json:"bookId"`
	ReviewedBy uint      `gorm:"not null;index:idx_reviews_book_user" json:"reviewedBy"`
	Review     string    `gorm:"type:text;not null" json:"review"`
	Rating     *int      `json:"rating"`
	ReviewedAt time.Time `gorm:"not null" json:"reviewedAt"`
	IsDeleted  bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// Relations
	Book     *Book `gorm:"foreignKey:BookID" json:"-"`
	Reviewer *User `gorm:"foreignKey:ReviewedBy" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

// ReviewResponse DTO
type ReviewResponse struct {
	ID           uint      `json:"id"`
	BookID       uint      `json:"bookId"`
	BookName     string    `json:"bookName,omitempty"`
	ReviewedBy   uint      `json:"reviewedBy"`
	ReviewerName string    `json:"reviewerName,omitempty"`
	Review       string    `json:"review"`
	Rating       *int      `json:"rating"`
	ReviewedAt   time.Time `json:"reviewedAt"`
}

func (r *Review) ToResponse() *ReviewResponse {
	resp := &ReviewResponse{
		ID:         r.ID,
		BookID:     r.BookID,
		ReviewedBy: r.ReviewedBy,
		Review:     r.Review,
		Rating:     r.Rating,
		ReviewedAt: r.ReviewedAt,
	}
	if r.Book != nil {
		resp.BookName = r.Book.Name
	}
	if r.Reviewer != nil {
		resp.ReviewerName = r.Reviewer.Name
	}
	return resp
}
