package services

import (
	"time"

	"tutorlink_backend/internal/auth"
	"tutorlink_backend/internal/models"
	"tutorlink_backend/internal/repositories"
	"tutorlink_backend/pkg/apperrors"
)

type RegisterRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Role     models.UserRole `json:"role" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService interface {
	Register(req *RegisterRequest) error
	Login(req *LoginRequest) (*LoginResponse, error)
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (s *authService) Register(req *RegisterRequest) error {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return apperrors.NewBadRequestError(err.Error())
	}
	if req.Role != models.UserRoleStudent && req.Role != models.UserRoleTeacher {
		return apperrors.ErrInvalidUserRole
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Name:         req.Name,
		Role:         req.Role,
	}

	if err := s.userRepo.Create(user); err != nil {
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			return apperrors.ErrEmailAlreadyExists
		}
		return apperrors.InternalError(err)
	}

	return nil
}

// Login verifies credentials and issues a token. The role-specific domain
// identifiers are resolved here, once, and embedded in the claims; nothing
// re-derives them per request.
func (s *authService) Login(req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	var studentID, teacherID *uint
	switch user.Role {
	case models.UserRoleStudent:
		if studentID, err = s.userRepo.FindStudentIDByUserID(user.ID); err != nil {
			return nil, apperrors.InternalError(err)
		}
	case models.UserRoleTeacher:
		if teacherID, err = s.userRepo.FindTeacherIDByUserID(user.ID); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	token, err := auth.GenerateToken(s.jwtSecret, s.tokenTTL, user.ID, user.Role, studentID, teacherID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &LoginResponse{Token: token, User: user}, nil
}
