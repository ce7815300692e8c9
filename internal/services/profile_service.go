package services

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"nokshibox/internal/domain"
	"nokshibox/internal/mail"
	"nokshibox/internal/repos"
	"nokshibox/internal/validate"

	"golang.org/x/crypto/bcrypt"
)

type ProfileService struct {
	Users *repos.UserRepo
	Prods *repos.ProductRepo
	Mail  mail.Mailer
	Cost  int
}

func NewProfileService(users *repos.UserRepo, prods *repos.ProductRepo, m mail.Mailer, cost int) *ProfileService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &ProfileService{Users: users, Prods: prods, Mail: m, Cost: cost}
}

type ProfileView struct {
	User     *domain.User
	Products []domain.Product
	IsOwner  bool
}

// View loads a public profile. Sellers come with their listings.
func (s *ProfileService) View(viewer domain.Actor, id int64) (ProfileView, error) {
	u, err := s.Users.ByID(id)
	if err != nil {
		return ProfileView{}, err
	}
	pv := ProfileView{User: u, IsOwner: viewer.Authenticated() && viewer.UserID() == u.ID}
	if u.IsSeller() {
		if pv.Products, err = s.Prods.List(repos.ProductFilter{SellerID: u.ID}); err != nil {
			return ProfileView{}, err
		}
	}
	return pv, nil
}

// EditInput is the self-service profile form. Blank answers keep the stored
// ones; a blank new password keeps the current password.
type EditInput struct {
	FullName    string `form:"full_name" validate:"required,max=100"`
	MobileNo    string `form:"mobile_no" validate:"required,mobile"`
	SocialLink  string `form:"social_link" validate:"omitempty,weburl,max=200"`
	Answer1     string `form:"security_answer_1" validate:"max=72"`
	Answer2     string `form:"security_answer_2" validate:"max=72"`
	NewPassword string `form:"new_password" validate:"omitempty,password"`
	Photo       string `form:"-"`
}

func (in *EditInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.MobileNo = strings.TrimSpace(in.MobileNo)
	in.SocialLink = strings.TrimSpace(in.SocialLink)
}

func (s *ProfileService) CheckEdit(in EditInput) validate.Errors {
	in.normalize()
	return validate.Struct(in)
}

// Edit always updates the actor's own record. The returned string is the
// replaced photo path, if any, so the caller can drop the old file.
func (s *ProfileService) Edit(actor domain.Actor, in EditInput) (*domain.User, string, error) {
	if !actor.Authenticated() {
		return nil, "", ErrNotFound
	}
	in.normalize()
	if err := validate.Struct(in).OrNil(); err != nil {
		return nil, "", err
	}
	u, err := s.Users.ByID(actor.UserID())
	if err != nil {
		return nil, "", err
	}

	u.FullName = in.FullName
	u.MobileNo = in.MobileNo
	if u.IsSeller() {
		u.SocialLink = in.SocialLink
	}
	var oldPhoto string
	if in.Photo != "" {
		oldPhoto, u.Photo = u.Photo, in.Photo
	}
	if strings.TrimSpace(in.Answer1) != "" {
		if u.Answer1Hash, err = hashAnswer(in.Answer1, s.Cost); err != nil {
			return nil, "", err
		}
	}
	if strings.TrimSpace(in.Answer2) != "" {
		if u.Answer2Hash, err = hashAnswer(in.Answer2, s.Cost); err != nil {
			return nil, "", err
		}
	}
	u.ProfileCompleted = u.HasAnswers()
	if in.NewPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.Cost)
		if err != nil {
			return nil, "", err
		}
		u.Hash = string(hash)
	}

	if err := s.Users.UpdateProfile(u); err != nil {
		return nil, "", err
	}
	return u, oldPhoto, nil
}

type ContactInput struct {
	Message string `form:"message" validate:"required,max=1000"`
}

// ContactSeller mails a signed-in user's message to a seller, with the
// sender as Reply-To.
func (s *ProfileService) ContactSeller(actor domain.Actor, sellerID int64, in ContactInput) error {
	if !actor.Authenticated() {
		return ErrNotFound
	}
	in.Message = strings.TrimSpace(in.Message)
	if err := validate.Struct(in).OrNil(); err != nil {
		return err
	}
	seller, err := s.Users.ByID(sellerID)
	if err != nil {
		return err
	}
	if !seller.IsSeller() || seller.ID == actor.UserID() {
		return ErrNotFound
	}
	if s.Mail == nil {
		return errors.New("mail not configured")
	}
	body := fmt.Sprintf("<p>%s (%s) sent you a message on nokshibox:</p><blockquote>%s</blockquote>",
		html.EscapeString(actor.User.FullName), html.EscapeString(actor.User.Email),
		strings.ReplaceAll(html.EscapeString(in.Message), "\n", "<br>"))
	return s.Mail.Send(mail.Message{
		To:      seller.Email,
		ReplyTo: actor.User.Email,
		Subject: "New message from " + actor.User.FullName,
		Body:    body,
	})
}
