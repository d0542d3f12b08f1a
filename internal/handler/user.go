package handler

import (
	"errors"
	"regexp"

	"github.com/goevery/notifier/internal/ierr"
)

type UserIdValidator struct {
	userIdRegex *regexp.Regexp
}

func NewUserIdValidator() *UserIdValidator {
	return &UserIdValidator{
		userIdRegex: regexp.MustCompile(`^[\w.@|:-]{1,128}$`),
	}
}

func (v *UserIdValidator) Validate(userId string) error {
	valid := v.userIdRegex.MatchString(userId)
	if !valid {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid userId"))
	}

	return nil
}
