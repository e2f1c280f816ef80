package user

import (
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"math"
	"strings"
	"time"
)

type Role string

const (
	RoleUser    Role = "USER"
	RoleTrainer Role = "TRAINER"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleTrainer
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUserEmailDuplicate = fmt.Errorf("%w: email is not unique", ErrUserExists)
	ErrInvalidCredentials = errors.New("email or password is invalid")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidProfile     = errors.New("invalid profile data")
	ErrInvalidPassword    = errors.New("invalid password")
)

const (
	EventCreated        = "user.created"
	EventNewLogin       = "user.login"
	EventProfileUpdated = "user.profile_updated"
)

type Authorizer interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type Device struct {
	Browser   string
	OS        string
	IPAddress string
	Model     string
}

// User is the profile record: identity, role and the body data the BMI
// tracker reads. Height is nil until the profile is completed.
type User struct {
	domain.Aggregate `diff:"-"`
	UserID           string    `diff:"-"`
	Email            string    `diff:"email"`
	Name             string    `diff:"name"`
	PasswordHash     string    `diff:"password_hash"`
	Role             Role      `diff:"role"`
	Height           *float64  `diff:"height"`
	Weight           *float64  `diff:"weight"`
	Age              *int      `diff:"age"`
	Gender           string    `diff:"gender"`
	Goals            string    `diff:"goals"`
	BenchPress       *float64  `diff:"bench_press"`
	Squat            *float64  `diff:"squat"`
	Deadlift         *float64  `diff:"deadlift"`
	CreatedAt        time.Time `diff:"-"`
	UpdatedAt        time.Time `diff:"updated_at"`
}

func NewUser(
	userID string,
	name string,
	email,
	password string,
	hasher Authorizer,
) (*User, error) {
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &User{
		Aggregate:    domain.Aggregate{},
		UserID:       userID,
		Email:        NormalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	u.PushEvent(CreatedEvent{
		At:     u.CreatedAt,
		UserID: u.UserID,
		Email:  u.Email,
		Name:   u.Name,
	})
	return u, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) Authorize(a Authorizer, password string, dev Device) error {
	if err := a.Compare(u.PasswordHash, password); err != nil {
		return ErrInvalidCredentials
	}

	u.PushEvent(LoginEvent{
		At:     time.Now().UTC(),
		UserID: u.UserID,
		Role:   u.Role,
		Device: dev,
	})
	return nil
}

// ProfileUpdate is a partial edit. Nil fields are left untouched.
type ProfileUpdate struct {
	Name   *string
	Height *float64
	Weight *float64
	Age    *int
	Gender *string
	Goals  *string
	// Personal bests in kilograms.
	BenchPress *float64
	Squat      *float64
	Deadlift   *float64
	// ClearHeight drops the height. It conflicts with a new Height.
	ClearHeight bool
}

func (u *User) UpdateProfile(upd ProfileUpdate) error {
	if upd.Height != nil && !bmi.ValidHeight(*upd.Height) {
		return fmt.Errorf("%w: height must be between %v and %v cm", ErrInvalidProfile, bmi.MinHeightCm, bmi.MaxHeightCm)
	}
	if upd.Weight != nil && !bmi.ValidWeight(*upd.Weight) {
		return fmt.Errorf("%w: weight must be positive and below %v kg", ErrInvalidProfile, bmi.MaxWeightKg)
	}
	lifts := []struct {
		name  string
		value *float64
	}{
		{"bench press", upd.BenchPress},
		{"squat", upd.Squat},
		{"deadlift", upd.Deadlift},
	}
	for _, lift := range lifts {
		if lift.value != nil && !positive(*lift.value) {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidProfile, lift.name)
		}
	}
	if upd.Age != nil && (*upd.Age <= 0 || *upd.Age >= 150) {
		return fmt.Errorf("%w: age out of range", ErrInvalidProfile)
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidProfile)
	}
	if upd.ClearHeight && upd.Height != nil {
		return fmt.Errorf("%w: height is both set and cleared", ErrInvalidProfile)
	}

	if upd.Name != nil {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Height != nil {
		h := *upd.Height
		u.Height = &h
	}
	if upd.ClearHeight {
		u.Height = nil
	}
	if upd.Weight != nil {
		w := *upd.Weight
		u.Weight = &w
	}
	if upd.Age != nil {
		a := *upd.Age
		u.Age = &a
	}
	if upd.Gender != nil {
		u.Gender = *upd.Gender
	}
	if upd.Goals != nil {
		u.Goals = *upd.Goals
	}
	if upd.BenchPress != nil {
		u.BenchPress = copyFloat(upd.BenchPress)
	}
	if upd.Squat != nil {
		u.Squat = copyFloat(upd.Squat)
	}
	if upd.Deadlift != nil {
		u.Deadlift = copyFloat(upd.Deadlift)
	}
	u.UpdatedAt = time.Now().UTC()

	u.PushEvent(ProfileUpdatedEvent{
		At:     u.UpdatedAt,
		UserID: u.UserID,
	})
	return nil
}

// RecordWeight keeps the profile's latest-weight snapshot in step with the
// ledger.
func (u *User) RecordWeight(weightKg float64) {
	w := weightKg
	u.Weight = &w
	u.UpdatedAt = time.Now().UTC()
}

// BMI derives the current BMI from the profile's height and weight. It
// reports false while either is missing.
func (u *User) BMI() (bmi.Point, bool) {
	if u.Height == nil || u.Weight == nil {
		return bmi.Point{}, false
	}
	p, err := bmi.NewPoint(*u.Weight, *u.Height, u.UpdatedAt)
	if err != nil {
		return bmi.Point{}, false
	}
	return p, true
}

func copyFloat(p *float64) *float64 {
	v := *p
	return &v
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

type CreatedEvent struct {
	At     time.Time
	UserID string
	Email  string
	Name   string
}

func (e CreatedEvent) Type() string {
	return EventCreated
}

func (e CreatedEvent) PublishedAt() time.Time {
	return e.At
}

type LoginEvent struct {
	At     time.Time
	UserID string
	Role   Role
	Device Device
}

func (e LoginEvent) Type() string {
	return EventNewLogin
}

func (e LoginEvent) PublishedAt() time.Time {
	return e.At
}

type ProfileUpdatedEvent struct {
	At     time.Time
	UserID string
}

func (e ProfileUpdatedEvent) Type() string {
	return EventProfileUpdated
}

func (e ProfileUpdatedEvent) PublishedAt() time.Time {
	return e.At
}
