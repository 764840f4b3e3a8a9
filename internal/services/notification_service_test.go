package services

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"tutorlink_backend/internal/models"
	"tutorlink_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotificationRepo keeps created rows in memory and lets tests inject
// failures per recipient.
type fakeNotificationRepo struct {
	rows        []*models.Notification
	failForUser string
	countErr    error
	counts      map[string]int64

	lastLimit  int
	lastOffset int
}

func (f *fakeNotificationRepo) CreateNotification(n *models.Notification) error {
	if f.failForUser != "" && n.UserID == f.failForUser {
		return errors.New("insert failed")
	}
	f.rows = append(f.rows, n)
	return nil
}

func (f *fakeNotificationRepo) FindUserNotifications(userID string, limit, offset int) ([]models.Notification, error) {
	f.lastLimit = limit
	f.lastOffset = offset

	var out []models.Notification
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) GetUnreadCount(userID string) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	if f.counts != nil {
		return f.counts[userID], nil
	}
	var count int64
	for _, n := range f.rows {
		if n.UserID == userID && n.Status == models.NotificationUnread {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkAsRead(notificationID, userID string) error {
	for _, n := range f.rows {
		if n.ID == notificationID && n.UserID == userID {
			n.Status = models.NotificationRead
		}
	}
	return nil
}

func (f *fakeNotificationRepo) MarkAllAsRead(userID string) error {
	for _, n := range f.rows {
		if n.UserID == userID {
			n.Status = models.NotificationRead
		}
	}
	return nil
}

func (f *fakeNotificationRepo) DeleteNotification(notificationID, userID string) error {
	kept := f.rows[:0]
	for _, n := range f.rows {
		if !(n.ID == notificationID && n.UserID == userID) {
			kept = append(kept, n)
		}
	}
	f.rows = kept
	return nil
}

// fakeUserRepo resolves identities from in-memory maps. Missing mappings
// behave like the real repository: empty result, nil error.
type fakeUserRepo struct {
	students    map[uint]string
	teachers    map[uint]string
	followers   map[uint][]uint
	followerErr error
}

func (f *fakeUserRepo) Create(*models.User) error                  { return nil }
func (f *fakeUserRepo) FindByID(string) (*models.User, error)      { return nil, repositories.ErrUserNotFound }
func (f *fakeUserRepo) FindByEmail(string) (*models.User, error)   { return nil, repositories.ErrUserNotFound }
func (f *fakeUserRepo) FindStudentIDByUserID(string) (*uint, error) { return nil, nil }
func (f *fakeUserRepo) FindTeacherIDByUserID(string) (*uint, error) { return nil, nil }

func (f *fakeUserRepo) FindAccountIDByStudentID(studentID uint) (string, error) {
	return f.students[studentID], nil
}

func (f *fakeUserRepo) FindAccountIDByTeacherID(teacherID uint) (string, error) {
	return f.teachers[teacherID], nil
}

func (f *fakeUserRepo) FindFollowerStudentIDs(teacherID uint) ([]uint, error) {
	if f.followerErr != nil {
		return nil, f.followerErr
	}
	return f.followers[teacherID], nil
}

type push struct {
	accountID string
	n         *models.Notification
}

type fakeDeliverer struct {
	pushes       []push
	broadcasts   []*models.Notification
	unreadPushes map[string]int64
}

func (f *fakeDeliverer) DeliverToUser(accountID string, n *models.Notification) {
	f.pushes = append(f.pushes, push{accountID: accountID, n: n})
}

func (f *fakeDeliverer) Broadcast(n *models.Notification) {
	f.broadcasts = append(f.broadcasts, n)
}

func (f *fakeDeliverer) PushUnreadCount(accountID string, count int64) {
	if f.unreadPushes == nil {
		f.unreadPushes = make(map[string]int64)
	}
	f.unreadPushes[accountID] = count
}

func newTestService(nRepo *fakeNotificationRepo, uRepo *fakeUserRepo, d *fakeDeliverer) NotificationService {
	return NewNotificationService(nRepo, uRepo, d)
}

func TestCreateNotification(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	deliverer := &fakeDeliverer{}
	svc := newTestService(nRepo, &fakeUserRepo{}, deliverer)

	n, err := svc.CreateNotification("user-1", models.NotificationRoomCreated, "Title", "Message", map[string]any{"roomId": 7})
	require.NoError(t, err)

	require.Len(t, nRepo.rows, 1)
	assert.Equal(t, "user-1", n.UserID)
	assert.Equal(t, models.NotificationUnread, n.Status, "new notifications must start unread")

	var data map[string]any
	require.NoError(t, json.Unmarshal(n.Data, &data))
	assert.Equal(t, float64(7), data["roomId"])

	require.Len(t, deliverer.pushes, 1)
	assert.Equal(t, "user-1", deliverer.pushes[0].accountID)
	assert.Same(t, n, deliverer.pushes[0].n)
}

func TestCreateNotification_NilData(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	svc := newTestService(nRepo, &fakeUserRepo{}, &fakeDeliverer{})

	n, err := svc.CreateNotification("user-1", models.NotificationCourseCreated, "Title", "Message", nil)
	require.NoError(t, err)
	assert.Nil(t, n.Data)
}

func TestCreateNotification_PersistFailureSkipsPush(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{failForUser: "user-1"}
	deliverer := &fakeDeliverer{}
	svc := newTestService(nRepo, &fakeUserRepo{}, deliverer)

	_, err := svc.CreateNotification("user-1", models.NotificationRoomCreated, "Title", "Message", nil)
	require.Error(t, err)
	assert.Empty(t, deliverer.pushes, "a row that was never persisted must not be pushed")
}

func TestSendRoomCreatedNotification(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	uRepo := &fakeUserRepo{students: map[uint]string{1: "acc-1", 2: "acc-2"}}
	deliverer := &fakeDeliverer{}
	svc := newTestService(nRepo, uRepo, deliverer)

	err := svc.SendRoomCreatedNotification(10, "Spanish B2", "Maria", []uint{1, 2})
	require.NoError(t, err)

	require.Len(t, nRepo.rows, 2)
	assert.Equal(t, models.NotificationRoomCreated, nRepo.rows[0].Type)
	assert.Equal(t, `A new room "Spanish B2" by Maria is now available for enrollment.`, nRepo.rows[0].Message)
	assert.Len(t, deliverer.pushes, 2)
}

func TestSendRoomCreatedNotification_UnmappedStudentIsSkipped(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	uRepo := &fakeUserRepo{students: map[uint]string{1: "acc-1"}}
	svc := newTestService(nRepo, uRepo, &fakeDeliverer{})

	// Student 99 has no account row: it is silently skipped, not an error.
	err := svc.SendRoomCreatedNotification(10, "Spanish B2", "Maria", []uint{1, 99})
	require.NoError(t, err)

	require.Len(t, nRepo.rows, 1)
	assert.Equal(t, "acc-1", nRepo.rows[0].UserID)
}

func TestSendRoomCreatedNotification_IsolatesRecipientFailures(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{failForUser: "acc-2"}
	uRepo := &fakeUserRepo{students: map[uint]string{1: "acc-1", 2: "acc-2", 3: "acc-3"}}
	svc := newTestService(nRepo, uRepo, &fakeDeliverer{})

	err := svc.SendRoomCreatedNotification(10, "Spanish B2", "Maria", []uint{1, 2, 3})
	require.Error(t, err, "the failed recipient still surfaces")

	// The recipients after the failure were still notified.
	require.Len(t, nRepo.rows, 2)
	assert.Equal(t, "acc-1", nRepo.rows[0].UserID)
	assert.Equal(t, "acc-3", nRepo.rows[1].UserID)
}

func TestSendRoomStartingNotification_NotifiesStudentsAndOwningTeacher(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	uRepo := &fakeUserRepo{
		students: map[uint]string{1: "acc-1", 2: "acc-2"},
		teachers: map[uint]string{5: "acc-t5"},
	}
	deliverer := &fakeDeliverer{}
	svc := newTestService(nRepo, uRepo, deliverer)

	start := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)
	err := svc.SendRoomStartingNotification(10, "Spanish B2", start, []uint{1, 2}, 5)
	require.NoError(t, err)

	require.Len(t, nRepo.rows, 3)

	var recipients []string
	for _, n := range nRepo.rows {
		recipients = append(recipients, n.UserID)
		assert.Equal(t, models.NotificationRoomStarting, n.Type)
		assert.Equal(t, `Your conversation room "Spanish B2" starts in 15 minutes.`, n.Message)
	}
	assert.ElementsMatch(t, []string{"acc-1", "acc-2", "acc-t5"}, recipients)
	assert.Len(t, deliverer.pushes, 3)
}

func TestSendRoomStartingNotification_UnmappedTeacherIsSkipped(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	uRepo := &fakeUserRepo{students: map[uint]string{1: "acc-1"}}
	svc := newTestService(nRepo, uRepo, &fakeDeliverer{})

	// Teacher 99 has no account row: the students are still notified and
	// the missing teacher is not an error.
	err := svc.SendRoomStartingNotification(10, "Spanish B2", time.Now(), []uint{1}, 99)
	require.NoError(t, err)

	require.Len(t, nRepo.rows, 1)
	assert.Equal(t, "acc-1", nRepo.rows[0].UserID)
}

func TestSendRoomEnrollmentNotification(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	uRepo := &fakeUserRepo{teachers: map[uint]string{5: "acc-t5"}}
	svc := newTestService(nRepo, uRepo, &fakeDeliverer{})

	err := svc.SendRoomEnrollmentNotification(10, "Spanish B2", "Alex", 5)
	require.NoError(t, err)

	require.Len(t, nRepo.rows, 1)
	assert.Equal(t, "acc-t5", nRepo.rows[0].UserID)
	assert.Equal(t, models.NotificationRoomEnrollment, nRepo.rows[0].Type)
	assert.Equal(t, `Alex has enrolled in your room "Spanish B2".`, nRepo.rows[0].Message)
}

func TestSendPaymentNotifications(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	uRepo := &fakeUserRepo{students: map[uint]string{1: "acc-1"}}
	svc := newTestService(nRepo, uRepo, &fakeDeliverer{})

	require.NoError(t, svc.SendPaymentSuccessNotification(1, 49.5, "Spanish B2"))
	require.NoError(t, svc.SendPaymentFailedNotification(1, 100, "Spanish B2"))

	require.Len(t, nRepo.rows, 2)
	assert.Equal(t, `Payment of $49.5 for "Spanish B2" was successful.`, nRepo.rows[0].Message)
	assert.Equal(t, `Payment of $100 for "Spanish B2" failed. Please try again.`, nRepo.rows[1].Message)
}

func TestSendPaymentFailedNotification_UnmappedStudent(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	deliverer := &fakeDeliverer{}
	svc := newTestService(nRepo, &fakeUserRepo{}, deliverer)

	err := svc.SendPaymentFailedNotification(5, 100, "Spanish B2")
	require.NoError(t, err)
	assert.Empty(t, nRepo.rows)
	assert.Empty(t, deliverer.pushes)
}

func TestSendArticleCreatedNotification_FansOutToFollowers(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	uRepo := &fakeUserRepo{
		students:  map[uint]string{1: "acc-1", 2: "acc-2"},
		teachers:  map[uint]string{7: "acc-t7"},
		followers: map[uint][]uint{7: {1, 2}},
	}
	deliverer := &fakeDeliverer{}
	svc := newTestService(nRepo, uRepo, deliverer)

	content := strings.Repeat("x", 60)
	err := svc.SendArticleCreatedNotification(7, "Maria", 42, content)
	require.NoError(t, err)

	require.Len(t, nRepo.rows, 2)
	for _, n := range nRepo.rows {
		assert.Equal(t, models.NotificationArticleCreated, n.Type)
		assert.Equal(t, `Maria just published a new article: "`+strings.Repeat("x", 40)+`..."`, n.Message)
	}
	assert.Len(t, deliverer.pushes, 2)
}

func TestSendShortVideoCreatedNotification_TruncatesOnRunes(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	uRepo := &fakeUserRepo{
		students:  map[uint]string{1: "acc-1"},
		followers: map[uint][]uint{7: {1}},
	}
	svc := newTestService(nRepo, uRepo, &fakeDeliverer{})

	description := strings.Repeat("日", 50)
	err := svc.SendShortVideoCreatedNotification(7, "Maria", 3, description)
	require.NoError(t, err)

	require.Len(t, nRepo.rows, 1)
	assert.Equal(t, `Maria just uploaded a new short video: "`+strings.Repeat("日", 40)+`..."`, nRepo.rows[0].Message)
}

func TestNotifyFollowers_QueryFailureMeansEmptyAudience(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	uRepo := &fakeUserRepo{followerErr: errors.New("db down")}
	svc := newTestService(nRepo, uRepo, &fakeDeliverer{})

	err := svc.SendCourseCreatedNotification(7, "Maria", 9, "Spanish B2")
	require.NoError(t, err, "a failed follower query is logged, not propagated")
	assert.Empty(t, nRepo.rows)
}

func TestBroadcastAnnouncement(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	deliverer := &fakeDeliverer{}
	svc := newTestService(nRepo, &fakeUserRepo{}, deliverer)

	err := svc.BroadcastAnnouncement("Maintenance", "Back at noon.", map[string]any{"window": "12:00"})
	require.NoError(t, err)

	assert.Empty(t, nRepo.rows, "announcements are push-only")
	require.Len(t, deliverer.broadcasts, 1)
	assert.Equal(t, "Maintenance", deliverer.broadcasts[0].Title)
	assert.False(t, deliverer.broadcasts[0].CreatedAt.IsZero())
}

func TestGetUserNotifications_DefaultsPagination(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{}
	svc := newTestService(nRepo, &fakeUserRepo{}, &fakeDeliverer{})

	_, err := svc.GetUserNotifications("user-1", 0, -3)
	require.NoError(t, err)
	assert.Equal(t, defaultListLimit, nRepo.lastLimit)
	assert.Equal(t, 0, nRepo.lastOffset)
}

func TestMarkAsRead_PushesFreshUnreadCount(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{counts: map[string]int64{"user-1": 3}}
	deliverer := &fakeDeliverer{}
	svc := newTestService(nRepo, &fakeUserRepo{}, deliverer)

	require.NoError(t, svc.MarkAsRead("n-1", "user-1"))
	assert.Equal(t, int64(3), deliverer.unreadPushes["user-1"])
}

func TestMarkAllAsRead_CountFailureDoesNotFailTheCall(t *testing.T) {
	t.Parallel()

	nRepo := &fakeNotificationRepo{countErr: errors.New("db down")}
	deliverer := &fakeDeliverer{}
	svc := newTestService(nRepo, &fakeUserRepo{}, deliverer)

	require.NoError(t, svc.MarkAllAsRead("user-1"))
	assert.Empty(t, deliverer.unreadPushes)
}

func TestSnippet(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", snippet("short"))
	assert.Equal(t, strings.Repeat("a", 40), snippet(strings.Repeat("a", 45)))
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "49.5", formatAmount(49.5))
	assert.Equal(t, "100", formatAmount(100))
	assert.Equal(t, "0.99", formatAmount(0.99))
}
