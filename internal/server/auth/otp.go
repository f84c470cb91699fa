package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const otpIssuer = "giftdesk"

// NewOTPSecret generates a base32 TOTP secret for an employee.
func NewOTPSecret(accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      otpIssuer,
		AccountName: accountName,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate otp secret: %w", err)
	}
	return key.Secret(), nil
}

// OTP issues and checks six-digit codes whose validity window is Period.
// Each code belongs to a step (unix time / Period); a step can be consumed
// at most once, which the caller enforces by persisting the last step.
type OTP struct {
	Period time.Duration
}

func (o OTP) seconds() int64 {
	s := int64(o.Period / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}

func (o OTP) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(o.seconds()),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Step returns the step number containing t.
func (o OTP) Step(t time.Time) int64 {
	return t.Unix() / o.seconds()
}

// Code returns the code for the step containing now and the instant the
// step ends.
func (o OTP) Code(secret string, now time.Time) (code string, expiresAt time.Time, err error) {
	step := o.Step(now)
	code, err = o.codeAt(secret, step)
	if err != nil {
		return "", time.Time{}, err
	}
	return code, o.stepEnd(step), nil
}

// Used reports whether the code for the step containing now has already
// been consumed, given the last consumed step.
func (o OTP) Used(now time.Time, lastStep int64) bool {
	return o.Step(now) <= lastStep
}

// NextCodeAt returns when the step after the one containing now begins.
func (o OTP) NextCodeAt(now time.Time) time.Time {
	return o.stepEnd(o.Step(now))
}

func (o OTP) stepEnd(step int64) time.Time {
	return time.Unix((step+1)*o.seconds(), 0).UTC()
}

func (o OTP) codeAt(secret string, step int64) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, time.Unix(step*o.seconds(), 0).UTC(), o.opts())
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}
	return code, nil
}

// Match checks code against the current and the previous step, ignoring
// steps at or below lastStep. It returns the matched step.
func (o OTP) Match(secret, code string, now time.Time, lastStep int64) (int64, bool, error) {
	current := o.Step(now)
	for _, step := range []int64{current, current - 1} {
		if step <= lastStep {
			continue
		}
		want, err := o.codeAt(secret, step)
		if err != nil {
			return 0, false, err
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			return step, true, nil
		}
	}
	return 0, false, nil
}
