package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tunebox/apiserver/internal/apperr"
	"github.com/tunebox/apiserver/internal/auth"
	"github.com/tunebox/apiserver/internal/sms"
	"github.com/tunebox/apiserver/internal/store"
	"github.com/tunebox/apiserver/types"
)

// UserRepository defines persistence operations for end-user accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByPhone(ctx context.Context, phone string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	SetPassword(ctx context.Context, id int, hash string, changedAt time.Time) error
	SetOTP(ctx context.Context, id int, code string, expiry time.Time) error
	ConsumeOTP(ctx context.Context, phone, code string, now time.Time) (types.User, error)
	ConsumeOTPForReset(ctx context.Context, phone, code string, now time.Time) (types.User, error)
	Deactivate(ctx context.Context, id int) error
	List(ctx context.Context, filter store.ListFilter, offset, limit int) ([]types.User, int, error)
}

// ReportRepository defines persistence operations for user reports.
type ReportRepository interface {
	Create(ctx context.Context, report types.UserReport) (types.UserReport, error)
	List(ctx context.Context, offset, limit int) ([]types.UserReport, int, error)
}

// UserAuthService encapsulates the end-user vertical: password, social and
// phone-OTP login, the OTP-based password reset and profile management.
type UserAuthService struct {
	repo    UserRepository
	reports ReportRepository
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenService
	sender  sms.Sender
	clock   auth.Clock
}

func NewUserAuthService(repo UserRepository, reports ReportRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, sender sms.Sender, clock auth.Clock) *UserAuthService {
	if clock == nil {
		clock = auth.SystemClock()
	}
	return &UserAuthService{repo: repo, reports: reports, hasher: hasher, tokens: tokens, sender: sender, clock: clock}
}

// RegisterUserInput carries the fields accepted at registration.
type RegisterUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	Language string `json:"language"`
	Password string `json:"password"`
}

func (s *UserAuthService) Register(ctx context.Context, input RegisterUserInput) (types.User, error) {
	if strings.TrimSpace(input.Email) == "" {
		return types.User{}, apperr.Validation("email is required")
	}
	if len(input.Password) < 8 {
		return types.User{}, apperr.Validation("password must be at least 8 characters")
	}

	if _, err := s.repo.GetByEmail(ctx, input.Email); err == nil {
		return types.User{}, apperr.Conflict("an account with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}
	if strings.TrimSpace(input.Phone) != "" {
		if _, err := s.repo.GetByPhone(ctx, input.Phone); err == nil {
			return types.User{}, apperr.Conflict("an account with this phone number already exists")
		} else if !errors.Is(err, store.ErrNotFound) {
			return types.User{}, err
		}
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Country:      input.Country,
		Language:     input.Language,
		Active:       true,
		PasswordHash: hash,
	})
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same rejection.
func (s *UserAuthService) Login(ctx context.Context, email, password string) (types.User, string, error) {
	if email == "" || password == "" {
		return types.User{}, "", apperr.Validation("please provide email and password")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, "", apperr.Unauthorized("incorrect email or password")
		}
		return types.User{}, "", err
	}
	if user.PasswordHash == "" || !s.hasher.Verify(password, user.PasswordHash) {
		return types.User{}, "", apperr.Unauthorized("incorrect email or password")
	}
	if !user.Active {
		return types.User{}, "", apperr.Forbidden("your account has been deactivated")
	}

	return s.stampLogin(ctx, user)
}

// SocialLoginInput carries the identity asserted by the social provider.
type SocialLoginInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	DeviceID string `json:"device_id"`
	FCMToken string `json:"fcm_token"`
	Country  string `json:"country"`
	Language string `json:"language"`
}

// SocialLogin upserts the account for a provider-asserted email and logs
// it in. First sight of an email creates the account.
func (s *UserAuthService) SocialLogin(ctx context.Context, input SocialLoginInput) (types.User, string, error) {
	if strings.TrimSpace(input.Email) == "" {
		return types.User{}, "", apperr.Validation("email is required")
	}

	user, err := s.repo.GetByEmail(ctx, input.Email)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.repo.Create(ctx, types.User{
			Name:     input.Name,
			Email:    input.Email,
			Country:  input.Country,
			Language: input.Language,
			DeviceID: input.DeviceID,
			FCMToken: input.FCMToken,
			Verified: true,
			Active:   true,
		})
	}
	if err != nil {
		return types.User{}, "", err
	}
	if !user.Active {
		return types.User{}, "", apperr.Forbidden("your account has been deactivated")
	}

	if input.DeviceID != "" {
		user.DeviceID = input.DeviceID
	}
	if input.FCMToken != "" {
		user.FCMToken = input.FCMToken
	}
	return s.stampLogin(ctx, user)
}

// PhoneLoginInput carries the phone identity and device metadata.
type PhoneLoginInput struct {
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	Language string `json:"language"`
	DeviceID string `json:"device_id"`
	FCMToken string `json:"fcm_token"`
}

// PhoneLogin starts an OTP login for the phone number, creating the
// account on first sight. The code is delivered by SMS; delivery failure
// is surfaced so the client does not wait for a code that never left.
func (s *UserAuthService) PhoneLogin(ctx context.Context, input PhoneLoginInput) error {
	if strings.TrimSpace(input.Phone) == "" {
		return apperr.Validation("phone number is required")
	}

	user, err := s.repo.GetByPhone(ctx, input.Phone)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.repo.Create(ctx, types.User{
			Phone:    input.Phone,
			Country:  input.Country,
			Language: input.Language,
			DeviceID: input.DeviceID,
			FCMToken: input.FCMToken,
			Active:   true,
		})
	}
	if err != nil {
		return err
	}
	if !user.Active {
		return apperr.Forbidden("your account has been deactivated")
	}

	return s.issueOTP(ctx, user)
}

// VerifyOTP redeems a login code for a signed token. The code is cleared
// atomically with the match, so it works at most once.
func (s *UserAuthService) VerifyOTP(ctx context.Context, phone, code string) (types.User, string, error) {
	if phone == "" || code == "" {
		return types.User{}, "", apperr.Validation("please provide phone and otp")
	}

	user, err := s.repo.ConsumeOTP(ctx, phone, code, s.clock.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, "", apperr.Validation("otp is invalid or has expired")
		}
		return types.User{}, "", err
	}
	return s.stampLogin(ctx, user)
}

// ResendOTP issues a fresh code, superseding any pending one.
func (s *UserAuthService) ResendOTP(ctx context.Context, phone string) error {
	user, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("there is no account with that phone number")
		}
		return err
	}
	return s.issueOTP(ctx, user)
}

// ForgotPassword starts the OTP-based password reset for the phone number.
func (s *UserAuthService) ForgotPassword(ctx context.Context, phone string) error {
	user, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("there is no account with that phone number")
		}
		return err
	}
	return s.issueOTP(ctx, user)
}

// VerifyOTPForReset redeems a reset code without touching the verified
// flag. A successful redemption admits the follow-up ResetPassword call.
func (s *UserAuthService) VerifyOTPForReset(ctx context.Context, phone, code string) error {
	if phone == "" || code == "" {
		return apperr.Validation("please provide phone and otp")
	}
	if _, err := s.repo.ConsumeOTPForReset(ctx, phone, code, s.clock.Now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Validation("otp is invalid or has expired")
		}
		return err
	}
	return nil
}

// ResetPassword replaces the password after an OTP reset verification.
func (s *UserAuthService) ResetPassword(ctx context.Context, phone, newPassword string) error {
	if len(newPassword) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}
	user, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("there is no account with that phone number")
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.repo.SetPassword(ctx, user.ID, hash, passwordStamp(s.clock))
}

func (s *UserAuthService) Get(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("user not found")
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdateUserProfileInput carries the mutable profile fields.
type UpdateUserProfileInput struct {
	Name     string `json:"name"`
	Country  string `json:"country"`
	Language string `json:"language"`
	DeviceID string `json:"device_id"`
	FCMToken string `json:"fcm_token"`
}

func (s *UserAuthService) UpdateProfile(ctx context.Context, id int, input UpdateUserProfileInput) (types.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Country != "" {
		user.Country = input.Country
	}
	if input.Language != "" {
		user.Language = input.Language
	}
	if input.DeviceID != "" {
		user.DeviceID = input.DeviceID
	}
	if input.FCMToken != "" {
		user.FCMToken = input.FCMToken
	}
	return s.repo.Update(ctx, user)
}

// UpdatePassword verifies the current password before replacing it.
func (s *UserAuthService) UpdatePassword(ctx context.Context, id int, current, next string) error {
	if len(next) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" || !s.hasher.Verify(current, user.PasswordHash) {
		return apperr.Unauthorized("your current password is wrong")
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.repo.SetPassword(ctx, id, hash, passwordStamp(s.clock))
}

// ReportUser files a report against another account.
func (s *UserAuthService) ReportUser(ctx context.Context, reporterID int, report types.UserReport) (types.UserReport, error) {
	report.ReporterID = reporterID
	if report.ReportedUserID == reporterID {
		return types.UserReport{}, apperr.Validation("you cannot report yourself")
	}
	if !types.ValidReportCategory(report.Category) {
		return types.UserReport{}, apperr.Validation("invalid report category: %s", report.Category)
	}
	if _, err := s.repo.GetByID(ctx, report.ReportedUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.UserReport{}, apperr.NotFound("reported user not found")
		}
		return types.UserReport{}, err
	}
	return s.reports.Create(ctx, report)
}

func (s *UserAuthService) ListReports(ctx context.Context, offset, limit int) ([]types.UserReport, int, error) {
	return s.reports.List(ctx, offset, limit)
}

func (s *UserAuthService) List(ctx context.Context, filter store.ListFilter, offset, limit int) ([]types.User, int, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *UserAuthService) Deactivate(ctx context.Context, id int) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}
	return nil
}

// FindPrincipal adapts user accounts to the guard's principal lookup.
// Users carry no role, so RoleID stays zero.
func (s *UserAuthService) FindPrincipal(ctx context.Context, id int) (auth.Principal, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return auth.Principal{}, auth.ErrPrincipalNotFound
		}
		return auth.Principal{}, err
	}
	return auth.Principal{
		ID:                user.ID,
		Email:             user.Email,
		Phone:             user.Phone,
		Active:            user.Active,
		PasswordChangedAt: user.PasswordChangedAt,
	}, nil
}

// issueOTP stores a fresh code and delivers it by SMS.
func (s *UserAuthService) issueOTP(ctx context.Context, user types.User) error {
	code, err := auth.GenerateOTP()
	if err != nil {
		return err
	}
	if err := s.repo.SetOTP(ctx, user.ID, code, s.clock.Now().Add(auth.OTPTTL)); err != nil {
		return err
	}
	if err := s.sender.Send(ctx, sms.Message{
		Phone: user.Phone,
		Body:  fmt.Sprintf("Your verification code is %s. It expires in 15 minutes.", code),
	}); err != nil {
		return apperr.Internal("failed to send the verification code, please try again")
	}
	return nil
}

// stampLogin records the login instant and issues the access token.
func (s *UserAuthService) stampLogin(ctx context.Context, user types.User) (types.User, string, error) {
	user.LoginAt = s.clock.Now().Unix()
	user, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, "", err
	}
	token, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return types.User{}, "", err
	}
	return user, token, nil
}
