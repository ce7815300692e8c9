package services

import (
	"errors"
	"strings"

	"nokshibox/internal/domain"
	"nokshibox/internal/repos"
	"nokshibox/internal/validate"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	Users    *repos.UserRepo
	Sessions *repos.SessionRepo
	Cost     int

	// dummyHash is compared against when the email is unknown, at the same
	// cost as real hashes so both failures take equally long.
	dummyHash []byte
}

func NewAuthService(users *repos.UserRepo, sessions *repos.SessionRepo, cost int) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("nokshibox-dummy-password"), cost)
	return &AuthService{Users: users, Sessions: sessions, Cost: cost, dummyHash: dummy}
}

// SignupInput is the registration form. Photo is filled in by the caller
// after the upload has been stored.
type SignupInput struct {
	Email      string `form:"email" validate:"required,email,max=254"`
	FullName   string `form:"full_name" validate:"required,max=100"`
	MobileNo   string `form:"mobile_no" validate:"required,mobile"`
	Role       string `form:"role" validate:"required,oneof=buyer seller"`
	Password1  string `form:"password1" validate:"required,password"`
	Password2  string `form:"password2" validate:"required,eqfield=Password1"`
	Answer1    string `form:"answer1" validate:"max=72"`
	Answer2    string `form:"answer2" validate:"max=72"`
	SocialLink string `form:"social_link" validate:"omitempty,weburl,max=200"`
	Photo      string `form:"-"`
}

func (in *SignupInput) normalize() {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.MobileNo = strings.TrimSpace(in.MobileNo)
	in.Role = strings.TrimSpace(in.Role)
	in.SocialLink = strings.TrimSpace(in.SocialLink)
}

// CheckSignup validates the form and that the email is still free.
func (s *AuthService) CheckSignup(in SignupInput) validate.Errors {
	in.normalize()
	errs := validate.Struct(in)
	if _, ok := errs["email"]; !ok {
		if _, err := s.Users.ByEmail(in.Email); err == nil {
			errs.Add("email", "User with this Email already exists.")
		}
	}
	return errs
}

func (s *AuthService) Signup(in SignupInput) (*domain.User, error) {
	in.normalize()
	if err := s.CheckSignup(in).OrNil(); err != nil {
		return nil, err
	}
	role, _ := domain.ParseRole(in.Role)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password1), s.Cost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:    in.Email,
		Hash:     string(hash),
		Role:     role,
		FullName: in.FullName,
		MobileNo: in.MobileNo,
		Photo:    in.Photo,
	}
	if role == domain.RoleSeller {
		u.SocialLink = in.SocialLink
	}
	if u.Answer1Hash, err = hashAnswer(in.Answer1, s.Cost); err != nil {
		return nil, err
	}
	if u.Answer2Hash, err = hashAnswer(in.Answer2, s.Cost); err != nil {
		return nil, err
	}
	u.ProfileCompleted = u.HasAnswers()

	if err := s.Users.Create(u); err != nil {
		if errors.Is(err, repos.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) authenticate(email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(strings.TrimSpace(email))
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrBadCreds
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	return u, nil
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.authenticate(email, password)
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// AdminLogin signs in staff only. A correct password on a non-staff account
// fails exactly like a wrong password.
func (s *AuthService) AdminLogin(sid, email, password string) (*domain.User, error) {
	u, err := s.authenticate(email, password)
	if err != nil {
		return nil, err
	}
	if !u.IsStaff {
		return nil, ErrBadCreds
	}
	if err := s.Sessions.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Sessions.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Sessions.SessionUser(sid)
}

// CreateStaff creates a staff account, or promotes and re-passwords an
// existing one with the same email.
func (s *AuthService) CreateStaff(email, fullName, password string) (*domain.User, error) {
	email, ok := validate.Email(email)
	if !ok {
		return nil, validate.Errors{"email": "Enter a valid email address."}
	}
	if !validate.Password(password) {
		return nil, validate.Errors{"password": "Password must be 8-72 characters and contain a letter and a digit."}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return nil, err
	}
	if u, err := s.Users.ByEmail(email); err == nil {
		if err := s.Users.SetPassword(u.ID, string(hash)); err != nil {
			return nil, err
		}
		if err := s.Users.SetStaff(u.ID, true); err != nil {
			return nil, err
		}
		return s.Users.ByID(u.ID)
	} else if !errors.Is(err, repos.ErrNotFound) {
		return nil, err
	}
	if fullName = strings.TrimSpace(fullName); fullName == "" {
		fullName = "Administrator"
	}
	u := &domain.User{
		Email:    email,
		Hash:     string(hash),
		Role:     domain.RoleBuyer,
		FullName: fullName,
		MobileNo: "",
		IsStaff:  true,
	}
	if err := s.Users.Create(u); err != nil {
		return nil, err
	}
	return u, nil
}

// hashAnswer stores security answers the way passwords are stored, after
// trimming and case folding. An empty answer stays empty.
func hashAnswer(a string, cost int) (string, error) {
	a = normalizeAnswer(a)
	if a == "" {
		return "", nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(a), cost)
	return string(h), err
}

func answerMatches(hash, a string) bool {
	a = normalizeAnswer(a)
	if hash == "" || a == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(a)) == nil
}

func normalizeAnswer(a string) string {
	return strings.ToLower(strings.Join(strings.Fields(a), " "))
}
