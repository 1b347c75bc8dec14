package user

import (
	"errors"
	"time"
)

// CreatedAtLayout is the textual form of UserDTO.CreatedAt: an ISO-8601 local
// date-time without zone. Fractional seconds appear only when non-zero.
const CreatedAtLayout = "2006-01-02T15:04:05.999999999"

var ErrCreatedAtNotSet = errors.New("user created_at is not set")

// UserDTO is the client-facing view of a User. Field names and order are part
// of the API contract.
type UserDTO struct {
	ID          *int64  `json:"id"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       *string `json:"email"`
	Description *string `json:"description"`
	Program     *string `json:"program"`
	CreatedAt   *string `json:"createdAt"`
}

// ToDTO copies u into a fresh UserDTO. A nil user yields a nil DTO and no error.
// A user with a zero CreatedAt yields ErrCreatedAtNotSet.
func ToDTO(u *User) (*UserDTO, error) {
	if u == nil {
		return nil, nil
	}
	if u.CreatedAt.IsZero() {
		return nil, ErrCreatedAtNotSet
	}

	createdAt := FormatCreatedAt(u.CreatedAt)

	return &UserDTO{
		ID:          ptr(u.ID),
		FirstName:   ptr(u.FirstName),
		LastName:    ptr(u.LastName),
		Email:       ptr(u.Email),
		Description: clone(u.Description),
		Program:     clone(u.Program),
		CreatedAt:   &createdAt,
	}, nil
}

// ToDTOs projects every user, stopping at the first failure.
func ToDTOs(users []User) ([]UserDTO, error) {
	dtos := make([]UserDTO, 0, len(users))
	for i := range users {
		dto, err := ToDTO(&users[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *dto)
	}

	return dtos, nil
}

// FormatCreatedAt renders t in UTC using CreatedAtLayout.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}

func ptr[T any](v T) *T {
	return &v
}

func clone(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
