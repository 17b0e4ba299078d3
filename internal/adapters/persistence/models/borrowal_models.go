package models

import (
	"time"

	"gorm.io/datatypes"

	"libraryhub/internal/core/domain"
)

// Borrowal represents borrowals table.
//
// ActiveBookID mirrors BookID while the borrowal is pending or accepted and
// is NULL otherwise. Its unique index keeps a book in at most one active
// borrowal on every supported database.
type Borrowal struct {
	ID                uint                  `gorm:"primaryKey" json:"id"`
	BookID            uint                  `gorm:"not null;index" json:"bookId"`
	MemberID          uint                  `gorm:"not null;index" json:"memberId"`
	ActiveBookID      *uint                 `gorm:"uniqueIndex:uq_borrowals_active_book" json:"-"`
	RequestDate       *time.Time            `json:"requestDate"`
	BorrowedDate      *time.Time            `json:"borrowedDate"`
	DueDate           *time.Time            `gorm:"index" json:"dueDate"`
	ReturnedDate      *time.Time            `json:"returnedDate"`
	Status            domain.BorrowalStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Overdue           bool                  `gorm:"not null;default:false" json:"overdue"`
	OverdueNotifiedAt *time.Time            `gorm:"index" json:"-"`
	Note              string                `gorm:"type:text" json:"note"`
	CreatedAt         time.Time             `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time             `gorm:"autoUpdateTime" json:"updatedAt"`

	// Relations
	Member *User `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Book   *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (Borrowal) TableName() string {
	return "borrowals"
}

// SyncActiveBook keeps ActiveBookID consistent with Status
func (b *Borrowal) SyncActiveBook() {
	if b.Status.IsActive() {
		id := b.BookID
		b.ActiveBookID = &id
		return
	}
	b.ActiveBookID = nil
}

// BorrowalResponse DTO. Member and book fields come from the joined rows.
type BorrowalResponse struct {
	ID           uint                  `json:"id"`
	BookID       uint                  `json:"bookId"`
	BookName     string                `json:"bookName,omitempty"`
	BookISBN     string                `json:"bookIsbn,omitempty"`
	MemberID     uint                  `json:"memberId"`
	MemberName   string                `json:"memberName,omitempty"`
	MemberEmail  string                `json:"memberEmail,omitempty"`
	RequestDate  *time.Time            `json:"requestDate"`
	BorrowedDate *time.Time            `json:"borrowedDate"`
	DueDate      *time.Time            `json:"dueDate"`
	ReturnedDate *time.Time            `json:"returnedDate"`
	Status       domain.BorrowalStatus `json:"status"`
	Overdue      bool                  `json:"overdue"`
	Note         string                `json:"note,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

func (b *Borrowal) ToResponse() *BorrowalResponse {
	resp := &BorrowalResponse{
		ID:           b.ID,
		BookID:       b.BookID,
		MemberID:     b.MemberID,
		RequestDate:  b.RequestDate,
		BorrowedDate: b.BorrowedDate,
		DueDate:      b.DueDate,
		ReturnedDate: b.ReturnedDate,
		Status:       b.Status,
		Overdue:      b.Overdue,
		Note:         b.Note,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	if b.Book != nil {
		resp.BookName = b.Book.Name
		resp.BookISBN = b.Book.ISBN
	}
	if b.Member != nil {
		resp.MemberName = b.Member.Name
		resp.MemberEmail = b.Member.Email
	}
	return resp
}

// BorrowalHistory is an append-only audit row. It survives deletion of
// the borrowal it describes, so there is no foreign key.
type BorrowalHistory struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	BorrowalID  uint           `gorm:"not null;index" json:"borrowalId"`
	BookID      uint           `gorm:"not null;index" json:"bookId"`
	Action      string         `gorm:"size:30;not null" json:"action"`
	FromStatus  string         `gorm:"size:20" json:"fromStatus,omitempty"`
	ToStatus    string         `gorm:"size:20" json:"toStatus,omitempty"`
	Changes     datatypes.JSON `json:"changes,omitempty"`
	PerformedBy uint           `gorm:"not null" json:"performedBy"`
	IPAddress   string         `gorm:"size:50" json:"ipAddress"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}

func (BorrowalHistory) TableName() string {
	return "borrowal_histories"
}

// History actions
const (
	HistoryCreate       = "CREATE"
	HistoryUpdate       = "UPDATE"
	HistoryStatusChange = "STATUS_CHANGE"
	HistoryDelete       = "DELETE"
	HistoryOverdue      = "OVERDUE"
)
