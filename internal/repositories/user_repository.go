package repositories

import (
	"errors"
	"strings"

	"tutorlink_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepository is the lookup collaborator for the notification core:
// it resolves domain identifiers (numeric student/teacher ids) to account
// identifiers and reads the follower relation. A missing mapping is
// reported as an empty result, not an error.
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)

	FindAccountIDByStudentID(studentID uint) (string, error)
	FindAccountIDByTeacherID(teacherID uint) (string, error)
	FindFollowerStudentIDs(teacherID uint) ([]uint, error)

	FindStudentIDByUserID(userID string) (*uint, error)
	FindTeacherIDByUserID(userID string) (*uint, error)
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(user *models.User) error {
	err := r.db.Create(user).Error
	if err != nil && strings.Contains(err.Error(), "duplicate") {
		return ErrUserAlreadyExists
	}
	return err
}

func (r *UserRepositoryImpl) FindByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindAccountIDByStudentID returns "" without error when the student id is
// unknown or not linked to an account.
func (r *UserRepositoryImpl) FindAccountIDByStudentID(studentID uint) (string, error) {
	var student models.Student
	err := r.db.First(&student, "id = ?", studentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return student.UserID, nil
}

// FindAccountIDByTeacherID returns "" without error when the teacher id is
// unknown or not linked to an account.
func (r *UserRepositoryImpl) FindAccountIDByTeacherID(teacherID uint) (string, error) {
	var teacher models.Teacher
	err := r.db.First(&teacher, "id = ?", teacherID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return teacher.UserID, nil
}

func (r *UserRepositoryImpl) FindFollowerStudentIDs(teacherID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Follower{}).
		Where("teacher_id = ?", teacherID).
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *UserRepositoryImpl) FindStudentIDByUserID(userID string) (*uint, error) {
	var student models.Student
	err := r.db.First(&student, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &student.ID, nil
}

func (r *UserRepositoryImpl) FindTeacherIDByUserID(userID string) (*uint, error) {
	var teacher models.Teacher
	err := r.db.First(&teacher, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &teacher.ID, nil
}
