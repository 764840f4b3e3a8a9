package auth

import (
	"errors"
	"fmt"
	"time"

	"tutorlink_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims carries the authenticated identity. The canonical account id is
// resolved once at login and embedded here; nothing re-derives it per
// request. StudentID/TeacherID are the role-specific domain identifiers,
// present only when the account is linked to a student or teacher row.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string          `json:"user_id"`
	Role      models.UserRole `json:"role"`
	StudentID *uint           `json:"student_id,omitempty"`
	TeacherID *uint           `json:"teacher_id,omitempty"`
}

// GenerateToken signs an HS256 token for the given identity.
func GenerateToken(secret string, ttl time.Duration, userID string, role models.UserRole, studentID, teacherID *uint) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "tutorlink",
		},
		UserID:    userID,
		Role:      role,
		StudentID: studentID,
		TeacherID: teacherID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature and expiry and returns the claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
