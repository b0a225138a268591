package auth

import "errors"

var (
	// ErrMissingFields indicates required registration fields were absent.
	ErrMissingFields = errors.New("please fill in all fields")
	// ErrPasswordMismatch indicates password and confirm password differ.
	ErrPasswordMismatch = errors.New("password and confirm password do not match")
	// ErrEmailExists indicates the email is already registered.
	ErrEmailExists = errors.New("email already exists, please try another email")
	// ErrUserNotFound indicates no account matches the identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrWrongPassword indicates the supplied password does not match the stored hash.
	ErrWrongPassword = errors.New("password is not correct")
	// ErrInvalidToken covers any bad, expired, or mismatched token uniformly.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidOTP indicates the supplied code does not match the outstanding challenge.
	ErrInvalidOTP = errors.New("invalid OTP")
	// ErrOTPRequired indicates the code was missing from the request.
	ErrOTPRequired = errors.New("OTP is required")
	// ErrNoPendingVerification indicates no verification challenge is outstanding.
	ErrNoPendingVerification = errors.New("no pending verification")
	// ErrNoResetRequest indicates no password reset is in flight for the account.
	ErrNoResetRequest = errors.New("password reset token is invalid")
	// ErrPasswordRequired indicates old or new password was missing.
	ErrPasswordRequired = errors.New("old password and new password are required")
	// ErrSamePassword indicates old and new password are identical.
	ErrSamePassword = errors.New("old password and new password cannot be same")
)
