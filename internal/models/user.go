package models

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleTeacher UserRole = "teacher"
	UserRoleAdmin   UserRole = "admin"
)

type User struct {
	BaseModel
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Name         string   `json:"name"`
	Role         UserRole `gorm:"not null" json:"role"`
}

// Student and Teacher carry the numeric domain identifiers used by the
// upstream business features (rooms, payments, content). UserID points at
// the canonical account.
type Student struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
}

type Teacher struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
}

func (Teacher) TableName() string {
	return "teachers"
}

// Follower maps a teacher to the students following them. Read-only from
// the notification core's perspective.
type Follower struct {
	StudentID uint `gorm:"primaryKey" json:"student_id"`
	TeacherID uint `gorm:"primaryKey;index" json:"teacher_id"`
}

func (Follower) TableName() string {
	return "follower"
}
