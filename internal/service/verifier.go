package service

import "os"

// CodeVerifier checks an email or SMS verification code for an
// identifier.  Real delivery and code storage belong to the
// notification service; the core only needs a yes/no answer.
type CodeVerifier interface {
	Verify(identifier, code string) bool
}

// StaticVerifier is the development stub: it accepts a single
// configured code for every identifier.  OTP_DEV_CODE overrides the
// default.
type StaticVerifier struct {
	Code string
}

// NewStaticVerifier builds the stub from the environment.
func NewStaticVerifier() StaticVerifier {
	code := os.Getenv("OTP_DEV_CODE")
	if code == "" {
		code = "000000"
	}
	return StaticVerifier{Code: code}
}

// Verify reports whether the submitted code matches.
func (v StaticVerifier) Verify(_, code string) bool {
	return code != "" && code == v.Code
}
