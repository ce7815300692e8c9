package services

import (
	"errors"
	"fmt"
	"html"

	"nokshibox/internal/domain"
	"nokshibox/internal/mail"
	"nokshibox/internal/repos"
	"nokshibox/internal/validate"

	"golang.org/x/crypto/bcrypt"
)

// ResetService runs the two-step security-question reset. Step one ties the
// browser session to a user; step two checks the answers and consumes it.
type ResetService struct {
	Users    *repos.UserRepo
	Sessions *repos.SessionRepo
	Mail     mail.Mailer
	Cost     int
}

func NewResetService(users *repos.UserRepo, sessions *repos.SessionRepo, m mail.Mailer, cost int) *ResetService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &ResetService{Users: users, Sessions: sessions, Mail: m, Cost: cost}
}

// Request opens a challenge for sid. Unknown emails return ErrNotFound and
// leave no session state behind.
func (s *ResetService) Request(sid, email string) error {
	email, ok := validate.Email(email)
	if !ok {
		return ErrNotFound
	}
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return err
	}
	return s.Sessions.SetResetChallenge(sid, u.ID)
}

// Pending returns the user whose reset sid is working on.
func (s *ResetService) Pending(sid string) (*domain.User, error) {
	if sid == "" {
		return nil, ErrNoChallenge
	}
	id, err := s.Sessions.ResetChallenge(sid)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrNoChallenge
		}
		return nil, err
	}
	u, err := s.Users.ByID(id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			_ = s.Sessions.ClearResetChallenge(sid)
			return nil, ErrNoChallenge
		}
		return nil, err
	}
	return u, nil
}

type VerifyInput struct {
	Answer1         string `form:"answer1"`
	Answer2         string `form:"answer2"`
	NewPassword     string `form:"new_password"`
	ConfirmPassword string `form:"confirm_password"`
}

// Verify checks answers, then the password pair. The challenge survives every
// failure and is cleared only after the new password is stored.
func (s *ResetService) Verify(sid string, in VerifyInput) error {
	u, err := s.Pending(sid)
	if err != nil {
		return err
	}
	if !answerMatches(u.Answer1Hash, in.Answer1) || !answerMatches(u.Answer2Hash, in.Answer2) {
		return ErrWrongAnswers
	}
	if in.NewPassword != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if !validate.Password(in.NewPassword) {
		return validate.Errors{"new_password": "Password must be 8-72 characters and contain a letter and a digit."}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.Cost)
	if err != nil {
		return err
	}
	if err := s.Users.SetPassword(u.ID, string(hash)); err != nil {
		return err
	}
	if err := s.Sessions.ClearResetChallenge(sid); err != nil {
		return err
	}
	if s.Mail != nil {
		// The password is already changed; a failed notice is not a failed reset.
		_ = s.Mail.Send(mail.Message{
			To:      u.Email,
			Subject: "Your nokshibox password was changed",
			Body: fmt.Sprintf("<p>Hi %s,</p><p>Your password was just reset using your security questions. "+
				"If this wasn't you, contact support right away.</p>", html.EscapeString(u.FullName)),
		})
	}
	return nil
}
