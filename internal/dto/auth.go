package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AdminSignupRequest registers an admin account.
type AdminSignupRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=255"`
	Username string `json:"username" validate:"required,min=3,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

// AdminLoginRequest authenticates an admin by username.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

// CollegeSignupRequest registers a college account.
type CollegeSignupRequest struct {
	Name             string  `json:"name" validate:"required,min=3,max=255"`
	Password         string  `json:"password" validate:"required,min=6"`
	YearOfGraduation FlexInt `json:"yearOfGraduation" validate:"required,gte=2000,lte=2100"`
	PhoneNumber      string  `json:"phoneNumber" validate:"required,min=10,max=32"`
	Email            string  `json:"email" validate:"required,email,max=255"`
	CollegeName      string  `json:"collegeName" validate:"required,min=3,max=255"`
}

// CollegeLoginRequest authenticates a college by email.
type CollegeLoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// SchoolSignupRequest registers a student. An empty referral code registers
// the student as DIRECT.
type SchoolSignupRequest struct {
	Name            string `json:"name" validate:"required,min=3,max=255"`
	SchoolName      string `json:"schoolName" validate:"required,min=3,max=255"`
	Password        string `json:"password" validate:"required,min=6"`
	PhoneNumber     string `json:"phoneNumber" validate:"required,min=10,max=32"`
	Standard        string `json:"standard" validate:"required,min=1,max=32"`
	Address         string `json:"address" validate:"required,min=3"`
	ReferralCode    string `json:"referralCode" validate:"omitempty,max=16,alphanum"`
	FeedbackDetails string `json:"feedbackDetails" validate:"omitempty,min=3"`
}

// SchoolLoginRequest authenticates a student; Identifier is the phone number.
type SchoolLoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=32"`
	Password   string `json:"password" validate:"required"`
}

// Normalize trims the free-text fields before validation.
func (r *AdminSignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Username = strings.TrimSpace(r.Username)
}

// Normalize trims the username.
func (r *AdminLoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

// Normalize trims the free-text fields and lower-cases the email.
func (r *CollegeSignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.CollegeName = strings.TrimSpace(r.CollegeName)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
}

// Normalize lower-cases the email.
func (r *CollegeLoginRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
}

// Normalize trims the free-text fields. The referral code is left to the
// caller, which also maps an empty code to DIRECT.
func (r *SchoolSignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.SchoolName = strings.TrimSpace(r.SchoolName)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.Standard = strings.TrimSpace(r.Standard)
	r.Address = strings.TrimSpace(r.Address)
	r.FeedbackDetails = strings.TrimSpace(r.FeedbackDetails)
}

// Normalize trims the phone number.
func (r *SchoolLoginRequest) Normalize() {
	r.Identifier = strings.TrimSpace(r.Identifier)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AuthResponse is returned by every signup and login endpoint.
type AuthResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    interface{} `json:"user"`
}

// FlexInt accepts both JSON numbers and numeric strings, as sent by HTML forms.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}
