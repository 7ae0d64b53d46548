// Package auth carries the authentication flows of the Inkwell UI: sign-in,
// sign-up, logout, and email verification. It owns no credential state of
// its own -- the session store tracks who is signed in, and the backend's
// HTTP-only cookies carry the actual session.
package auth

import (
	"net/mail"
	"strings"
)

// SignInRequest holds the data submitted by the sign-in form.
type SignInRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Redirect string `form:"redirect"`
}

// SignUpRequest holds the data submitted by the sign-up form.
type SignUpRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Confirm  string `form:"confirm"`
}

// validateSignIn checks the sign-in form client-side. Returns "" when the
// request may go to the network.
func validateSignIn(req *SignInRequest) string {
	if strings.TrimSpace(req.Email) == "" {
		return "email is required"
	}
	if !validEmail(req.Email) {
		return "enter a valid email address"
	}
	if req.Password == "" {
		return "password is required"
	}
	return ""
}

// validateSignUp checks the sign-up form field by field. A non-empty map
// blocks submission; these errors render inline and never reach the network.
func validateSignUp(req *SignUpRequest) map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(req.Email) == "" {
		errs["email"] = "email is required"
	} else if !validEmail(req.Email) {
		errs["email"] = "enter a valid email address"
	}
	if req.Password == "" {
		errs["password"] = "password is required"
	} else if len(req.Password) < 8 {
		errs["password"] = "password must be at least 8 characters"
	} else if len(req.Password) > 128 {
		errs["password"] = "password must be at most 128 characters"
	}
	if req.Confirm != req.Password {
		errs["confirm"] = "passwords do not match"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// validEmail reports whether addr parses as a bare RFC 5322 address.
func validEmail(addr string) bool {
	parsed, err := mail.ParseAddress(strings.TrimSpace(addr))
	return err == nil && parsed.Address == strings.TrimSpace(addr)
}
