package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tutorlink_backend/internal/logger"
	"tutorlink_backend/internal/models"
	"tutorlink_backend/internal/repositories"

	"gorm.io/datatypes"
)

const (
	defaultListLimit = 20
	snippetLength    = 40
)

// Deliverer is the real-time push collaborator (implemented by ws.Router).
type Deliverer interface {
	DeliverToUser(accountID string, n *models.Notification)
	Broadcast(n *models.Notification)
	PushUnreadCount(accountID string, count int64)
}

type NotificationService interface {
	// Primitive: persist then push. Persistence and delivery errors
	// propagate to the caller.
	CreateNotification(userID string, notificationType models.NotificationType, title, message string, data map[string]any) (*models.Notification, error)
	TestNotification(userID string) (*models.Notification, error)

	// Domain events
	SendRoomCreatedNotification(roomID uint, roomTitle, teacherName string, studentIDs []uint) error
	SendRoomEnrollmentNotification(roomID uint, roomTitle, studentName string, teacherID uint) error
	SendRoomStartingNotification(roomID uint, roomTitle string, startTime time.Time, studentIDs []uint, teacherID uint) error
	SendPaymentSuccessNotification(studentID uint, amount float64, roomTitle string) error
	SendPaymentFailedNotification(studentID uint, amount float64, roomTitle string) error
	SendReelCreatedNotification(teacherID uint, teacherName string, reelID uint, reelDescription string) error
	SendArticleCreatedNotification(teacherID uint, teacherName string, articleID uint, content string) error
	SendShortVideoCreatedNotification(teacherID uint, teacherName string, videoID uint, description string) error
	SendCourseCreatedNotification(teacherID uint, teacherName string, courseID uint, courseTitle string) error

	// Platform-wide announcement: push-only, no per-user rows.
	BroadcastAnnouncement(title, message string, data map[string]any) error

	// Query and mutation surface for the HTTP layer
	GetUserNotifications(userID string, limit, offset int) ([]models.Notification, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(notificationID, userID string) error
	MarkAllAsRead(userID string) error
	DeleteNotification(notificationID, userID string) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	deliverer        Deliverer
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	deliverer Deliverer,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		deliverer:        deliverer,
	}
}

// ---------------- Primitive ----------------

func (s *notificationService) CreateNotification(userID string, notificationType models.NotificationType, title, message string, data map[string]any) (*models.Notification, error) {
	var dataJSON datatypes.JSON
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal notification data: %w", err)
		}
		dataJSON = datatypes.JSON(jsonData)
	}

	notification := &models.Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
		Data:    dataJSON,
		Status:  models.NotificationUnread,
	}

	if err := s.notificationRepo.CreateNotification(notification); err != nil {
		return nil, err
	}

	// Persisted first, then pushed: a recipient that is offline simply
	// picks the row up later through the listing query.
	s.deliverer.DeliverToUser(userID, notification)

	return notification, nil
}

func (s *notificationService) TestNotification(userID string) (*models.Notification, error) {
	return s.CreateNotification(
		userID,
		models.NotificationArticleCreated,
		"Test Notification",
		"This is a test notification to check if the system works.",
		map[string]any{"test": true, "timestamp": time.Now().Format(time.RFC3339)},
	)
}

// ---------------- Domain events ----------------

func (s *notificationService) SendRoomCreatedNotification(roomID uint, roomTitle, teacherName string, studentIDs []uint) error {
	var errs []error
	for _, studentID := range studentIDs {
		if err := s.notifyStudent(studentID,
			models.NotificationRoomCreated,
			"New Conversation Room Available",
			fmt.Sprintf("A new room \"%s\" by %s is now available for enrollment.", roomTitle, teacherName),
			map[string]any{"roomId": roomID, "roomTitle": roomTitle, "teacherName": teacherName},
		); err != nil {
			logger.WithError(err).Error("room created notification failed", "student_id", studentID)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *notificationService) SendRoomEnrollmentNotification(roomID uint, roomTitle, studentName string, teacherID uint) error {
	return s.notifyTeacher(teacherID,
		models.NotificationRoomEnrollment,
		"New Student Enrollment",
		fmt.Sprintf("%s has enrolled in your room \"%s\".", studentName, roomTitle),
		map[string]any{"roomId": roomID, "roomTitle": roomTitle, "studentName": studentName},
	)
}

func (s *notificationService) SendRoomStartingNotification(roomID uint, roomTitle string, startTime time.Time, studentIDs []uint, teacherID uint) error {
	message := fmt.Sprintf("Your conversation room \"%s\" starts in 15 minutes.", roomTitle)
	data := map[string]any{"roomId": roomID, "roomTitle": roomTitle, "startTime": startTime}

	var errs []error
	for _, studentID := range studentIDs {
		if err := s.notifyStudent(studentID, models.NotificationRoomStarting, "Room Starting Soon", message, data); err != nil {
			logger.WithError(err).Error("room starting notification failed", "student_id", studentID)
			errs = append(errs, err)
		}
	}

	// The owning teacher always gets the reminder too.
	if err := s.notifyTeacher(teacherID, models.NotificationRoomStarting, "Room Starting Soon", message, data); err != nil {
		logger.WithError(err).Error("room starting notification failed", "teacher_id", teacherID)
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (s *notificationService) SendPaymentSuccessNotification(studentID uint, amount float64, roomTitle string) error {
	return s.notifyStudent(studentID,
		models.NotificationPaymentSuccess,
		"Payment Successful",
		fmt.Sprintf("Payment of $%s for \"%s\" was successful.", formatAmount(amount), roomTitle),
		map[string]any{"amount": amount, "roomTitle": roomTitle},
	)
}

func (s *notificationService) SendPaymentFailedNotification(studentID uint, amount float64, roomTitle string) error {
	return s.notifyStudent(studentID,
		models.NotificationPaymentFailed,
		"Payment Failed",
		fmt.Sprintf("Payment of $%s for \"%s\" failed. Please try again.", formatAmount(amount), roomTitle),
		map[string]any{"amount": amount, "roomTitle": roomTitle},
	)
}

func (s *notificationService) SendReelCreatedNotification(teacherID uint, teacherName string, reelID uint, reelDescription string) error {
	return s.notifyFollowers(teacherID,
		models.NotificationReelCreated,
		"New Reel Available",
		fmt.Sprintf("%s just posted a new reel: \"%s\"", teacherName, reelDescription),
		map[string]any{"teacherId": teacherID, "teacherName": teacherName, "reelId": reelID, "reelDescription": reelDescription},
	)
}

func (s *notificationService) SendArticleCreatedNotification(teacherID uint, teacherName string, articleID uint, content string) error {
	return s.notifyFollowers(teacherID,
		models.NotificationArticleCreated,
		"New Article Available",
		fmt.Sprintf("%s just published a new article: \"%s...\"", teacherName, snippet(content)),
		map[string]any{"teacherId": teacherID, "teacherName": teacherName, "articleId": articleID},
	)
}

func (s *notificationService) SendShortVideoCreatedNotification(teacherID uint, teacherName string, videoID uint, description string) error {
	return s.notifyFollowers(teacherID,
		models.NotificationShortVideoCreated,
		"New Short Video Available",
		fmt.Sprintf("%s just uploaded a new short video: \"%s...\"", teacherName, snippet(description)),
		map[string]any{"teacherId": teacherID, "teacherName": teacherName, "videoId": videoID},
	)
}

func (s *notificationService) SendCourseCreatedNotification(teacherID uint, teacherName string, courseID uint, courseTitle string) error {
	return s.notifyFollowers(teacherID,
		models.NotificationCourseCreated,
		"New Course Available",
		fmt.Sprintf("%s just created a new course: \"%s\"", teacherName, courseTitle),
		map[string]any{"teacherId": teacherID, "teacherName": teacherName, "courseId": courseID},
	)
}

func (s *notificationService) BroadcastAnnouncement(title, message string, data map[string]any) error {
	var dataJSON datatypes.JSON
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal announcement data: %w", err)
		}
		dataJSON = datatypes.JSON(jsonData)
	}

	s.deliverer.Broadcast(&models.Notification{
		BaseModel: models.BaseModel{CreatedAt: time.Now()},
		Title:     title,
		Message:   message,
		Data:      dataJSON,
	})
	return nil
}

// ---------------- Query and mutation surface ----------------

func (s *notificationService) GetUserNotifications(userID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.FindUserNotifications(userID, limit, offset)
}

func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	return s.notificationRepo.GetUnreadCount(userID)
}

func (s *notificationService) MarkAsRead(notificationID, userID string) error {
	if err := s.notificationRepo.MarkAsRead(notificationID, userID); err != nil {
		return err
	}
	s.pushUnreadCount(userID)
	return nil
}

func (s *notificationService) MarkAllAsRead(userID string) error {
	if err := s.notificationRepo.MarkAllAsRead(userID); err != nil {
		return err
	}
	s.pushUnreadCount(userID)
	return nil
}

func (s *notificationService) DeleteNotification(notificationID, userID string) error {
	return s.notificationRepo.DeleteNotification(notificationID, userID)
}

// ---------------- Helpers ----------------

// notifyStudent resolves the student's account and creates the
// notification. An unknown or unlinked student id is unreachable, not an
// error: skip silently.
func (s *notificationService) notifyStudent(studentID uint, notificationType models.NotificationType, title, message string, data map[string]any) error {
	accountID, err := s.userRepo.FindAccountIDByStudentID(studentID)
	if err != nil {
		return err
	}
	if accountID == "" {
		logger.Debug("student not linked to an account, skipping", "student_id", studentID)
		return nil
	}

	_, err = s.CreateNotification(accountID, notificationType, title, message, data)
	return err
}

func (s *notificationService) notifyTeacher(teacherID uint, notificationType models.NotificationType, title, message string, data map[string]any) error {
	accountID, err := s.userRepo.FindAccountIDByTeacherID(teacherID)
	if err != nil {
		return err
	}
	if accountID == "" {
		logger.Debug("teacher not linked to an account, skipping", "teacher_id", teacherID)
		return nil
	}

	_, err = s.CreateNotification(accountID, notificationType, title, message, data)
	return err
}

// notifyFollowers fans one content event out to every student following the
// teacher. A failed follower query means an empty audience, not a failed
// event. Per-recipient failures are isolated: one bad recipient never
// suppresses the rest.
func (s *notificationService) notifyFollowers(teacherID uint, notificationType models.NotificationType, title, message string, data map[string]any) error {
	studentIDs, err := s.userRepo.FindFollowerStudentIDs(teacherID)
	if err != nil {
		logger.WithError(err).Error("failed to resolve followers, skipping fan-out", "teacher_id", teacherID)
		return nil
	}

	if len(studentIDs) == 0 {
		logger.Debug("teacher has no followers", "teacher_id", teacherID)
		return nil
	}

	var errs []error
	for _, studentID := range studentIDs {
		if err := s.notifyStudent(studentID, notificationType, title, message, data); err != nil {
			logger.WithError(err).Error("follower notification failed", "teacher_id", teacherID, "student_id", studentID)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *notificationService) pushUnreadCount(userID string) {
	count, err := s.notificationRepo.GetUnreadCount(userID)
	if err != nil {
		logger.WithError(err).Warn("failed to refresh unread count", "user_id", userID)
		return
	}
	s.deliverer.PushUnreadCount(userID, count)
}

// snippet is a hard cut at 40 characters, no word-boundary awareness.
func snippet(s string) string {
	runes := []rune(s)
	if len(runes) > snippetLength {
		runes = runes[:snippetLength]
	}
	return string(runes)
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
