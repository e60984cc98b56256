package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/rollcall/core"
)

// Roles
const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
)

// Capabilities
const (
	CapMarkAttendance Capability = 1 << iota
	CapCreateUsers
	CapViewReports
)

var (
	AllRoles = []Role{RoleAdmin, RoleTeacher}

	roleCapabilities = map[Role]Capability{
		RoleAdmin:   CapMarkAttendance | CapCreateUsers,
		RoleTeacher: CapViewReports,
	}

	passwordHashCost = bcrypt.DefaultCost
)

type Role string

func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Capabilities returns the capability set granted to the role; none for unknown roles.
func (r Role) Capabilities() Capability {
	return roleCapabilities[r]
}

// Capability is a bit set; a role may hold any union of them.
type Capability uint8

func (c Capability) Has(other Capability) bool {
	return other != 0 && c&other == other
}

type User struct {
	Username     string `json:"username"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	PasswordHash []byte `json:"-"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), passwordHashCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum_"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,role"`
	Name     string `json:"name" validate:"omitempty,max=64"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.Role = Role(core.CleanString(string(nu.Role), true /* lower */))

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username)
}

// DefaultUsers are the accounts available on a fresh store.
func DefaultUsers(conf core.SeedConfig) ([]User, error) {
	admin := User{Username: "admin", Name: "System Admin", Role: RoleAdmin}
	if err := admin.SetPassword(conf.AdminPassword); err != nil {
		return nil, err
	}
	teacher := User{Username: "teacher", Name: "Ms. Smith", Role: RoleTeacher}
	if err := teacher.SetPassword(conf.TeacherPassword); err != nil {
		return nil, err
	}
	return []User{admin, teacher}, nil
}
