package models

import (
	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationRoomCreated       NotificationType = "ROOM_CREATED"
	NotificationRoomEnrollment    NotificationType = "ROOM_ENROLLMENT"
	NotificationRoomStarting      NotificationType = "ROOM_STARTING"
	NotificationPaymentSuccess    NotificationType = "PAYMENT_SUCCESS"
	NotificationPaymentFailed     NotificationType = "PAYMENT_FAILED"
	NotificationReelCreated       NotificationType = "REEL_CREATED"
	NotificationArticleCreated    NotificationType = "ARTICLE_CREATED"
	NotificationShortVideoCreated NotificationType = "SHORT_VIDEO_CREATED"
	NotificationCourseCreated     NotificationType = "COURSE_CREATED"
)

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "UNREAD"
	NotificationRead   NotificationStatus = "READ"
)

// Notification is the persisted record. UserID is trusted as given; it is
// not validated against user existence at write time. After creation only
// Status is ever mutated, and every mutation or delete is scoped by both
// id and user_id.
type Notification struct {
	BaseModel
	UserID  string             `gorm:"not null;index" json:"user_id"`
	Type    NotificationType   `gorm:"not null" json:"type"`
	Title   string             `gorm:"not null" json:"title"`
	Message string             `json:"message"`
	Data    datatypes.JSON     `gorm:"type:jsonb" json:"data,omitempty"` // {"room_id": "...", "amount": ...}
	Status  NotificationStatus `gorm:"not null;default:UNREAD" json:"status"`
}
