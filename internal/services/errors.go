package services

import (
	"errors"

	"nokshibox/internal/repos"
)

var (
	ErrBadCreds         = errors.New("invalid email or password")
	ErrNotFound         = repos.ErrNotFound
	ErrEmailTaken       = errors.New("email already registered")
	ErrNotSeller        = errors.New("seller account required")
	ErrNoChallenge      = errors.New("no password reset in progress")
	ErrWrongAnswers     = errors.New("incorrect security answers")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrCategoryExists   = errors.New("category already exists")
)
