package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tunebox/apiserver/internal/apperr"
	"github.com/tunebox/apiserver/internal/auth"
	"github.com/tunebox/apiserver/internal/sms"
	"github.com/tunebox/apiserver/internal/store"
	"github.com/tunebox/apiserver/types"
)

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]types.User{}, nextID: 1}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email && user.Email != "" {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) GetByPhone(_ context.Context, phone string) (types.User, error) {
	for _, user := range r.users {
		if user.Phone == phone && user.Phone != "" {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	// Update covers profile fields only; keep stored auth state.
	stored := r.users[user.ID]
	user.PasswordHash = stored.PasswordHash
	user.PasswordChangedAt = stored.PasswordChangedAt
	user.OTP = stored.OTP
	user.OTPExpiry = stored.OTPExpiry
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) SetPassword(_ context.Context, id int, hash string, changedAt time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = hash
	user.PasswordChangedAt = &changedAt
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) SetOTP(_ context.Context, id int, code string, expiry time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.OTP = &code
	user.OTPExpiry = &expiry
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) consume(phone, code string, now time.Time, markVerified bool) (types.User, error) {
	for id, user := range r.users {
		if user.Phone != phone || user.OTP == nil || *user.OTP != code {
			continue
		}
		if user.OTPExpiry == nil || !user.OTPExpiry.After(now) {
			continue
		}
		if markVerified {
			user.Verified = true
		}
		user.OTP = nil
		user.OTPExpiry = nil
		r.users[id] = user
		return user, nil
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) ConsumeOTP(_ context.Context, phone, code string, now time.Time) (types.User, error) {
	return r.consume(phone, code, now, true)
}

func (r *fakeUserRepo) ConsumeOTPForReset(_ context.Context, phone, code string, now time.Time) (types.User, error) {
	return r.consume(phone, code, now, false)
}

func (r *fakeUserRepo) Deactivate(_ context.Context, id int) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.Active = false
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, _ store.ListFilter, _, _ int) ([]types.User, int, error) {
	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, len(users), nil
}

type fakeReportRepo struct {
	reports []types.UserReport
}

func (r *fakeReportRepo) Create(_ context.Context, report types.UserReport) (types.UserReport, error) {
	report.ID = len(r.reports) + 1
	r.reports = append(r.reports, report)
	return report, nil
}

func (r *fakeReportRepo) List(_ context.Context, _, _ int) ([]types.UserReport, int, error) {
	return r.reports, len(r.reports), nil
}

type fakeSender struct {
	sent []sms.Message
	fail bool
}

func (s *fakeSender) Send(_ context.Context, msg sms.Message) error {
	if s.fail {
		return errors.New("gateway down")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func userServiceFixture(t *testing.T) (*UserAuthService, *fakeUserRepo, *fakeReportRepo, *fakeSender, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	repo := newFakeUserRepo()
	reports := &fakeReportRepo{}
	sender := &fakeSender{}
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService([]byte("secret"), time.Hour, clock)
	return NewUserAuthService(repo, reports, hasher, tokens, sender, clock), repo, reports, sender, clock
}

func TestUserRegisterAndLogin(t *testing.T) {
	svc, _, _, _, _ := userServiceFixture(t)

	user, err := svc.Register(context.Background(), RegisterUserInput{
		Name: "U", Email: "u@example.com", Password: "long-enough-pw",
	})
	require.NoError(t, err)
	assert.True(t, user.Active)

	got, token, err := svc.Login(context.Background(), "u@example.com", "long-enough-pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, token)
	assert.NotZero(t, got.LoginAt)
}

func TestUserLoginCollapsesRejections(t *testing.T) {
	svc, _, _, _, _ := userServiceFixture(t)

	_, err := svc.Register(context.Background(), RegisterUserInput{
		Email: "u@example.com", Password: "long-enough-pw",
	})
	require.NoError(t, err)

	_, _, errUnknown := svc.Login(context.Background(), "ghost@example.com", "whatever-pw")
	_, _, errWrongPw := svc.Login(context.Background(), "u@example.com", "wrong-password")

	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(errUnknown))
	assert.Equal(t, apperr.MessageOf(errUnknown), apperr.MessageOf(errWrongPw))
}

func TestUserLoginPasswordlessAccount(t *testing.T) {
	svc, repo, _, _, _ := userServiceFixture(t)

	// Phone-created accounts have no password; a password login against
	// them must not succeed on an empty hash.
	_, err := repo.Create(context.Background(), types.User{Email: "p@example.com", Active: true})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "p@example.com", "")
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	_, _, err = svc.Login(context.Background(), "p@example.com", "anything")
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
}

func TestSocialLoginUpserts(t *testing.T) {
	svc, repo, _, _, _ := userServiceFixture(t)

	user, token, err := svc.SocialLogin(context.Background(), SocialLoginInput{
		Name: "S", Email: "s@example.com", DeviceID: "dev-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, user.Verified)
	assert.Len(t, repo.users, 1)

	again, _, err := svc.SocialLogin(context.Background(), SocialLoginInput{
		Email: "s@example.com", DeviceID: "dev-2",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "dev-2", again.DeviceID)
	assert.Len(t, repo.users, 1)
}

func TestPhoneLoginCreatesAccountAndSendsOTP(t *testing.T) {
	svc, repo, _, sender, _ := userServiceFixture(t)

	err := svc.PhoneLogin(context.Background(), PhoneLoginInput{Phone: "+15550001"})
	require.NoError(t, err)

	require.Len(t, repo.users, 1)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "+15550001", sender.sent[0].Phone)
	assert.Contains(t, sender.sent[0].Body, *repo.users[1].OTP)
}

func TestPhoneLoginSMSFailureSurfaces(t *testing.T) {
	svc, _, _, sender, _ := userServiceFixture(t)
	sender.fail = true

	err := svc.PhoneLogin(context.Background(), PhoneLoginInput{Phone: "+15550001"})
	assert.Equal(t, http.StatusInternalServerError, apperr.StatusOf(err))
}

func TestVerifyOTP(t *testing.T) {
	svc, repo, _, _, _ := userServiceFixture(t)

	require.NoError(t, svc.PhoneLogin(context.Background(), PhoneLoginInput{Phone: "+15550001"}))
	code := *repo.users[1].OTP

	user, token, err := svc.VerifyOTP(context.Background(), "+15550001", code)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, user.Verified)
	assert.Nil(t, repo.users[1].OTP)

	// The code was cleared on redemption.
	_, _, err = svc.VerifyOTP(context.Background(), "+15550001", code)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestVerifyOTPExpired(t *testing.T) {
	svc, repo, _, _, clock := userServiceFixture(t)

	require.NoError(t, svc.PhoneLogin(context.Background(), PhoneLoginInput{Phone: "+15550001"}))
	code := *repo.users[1].OTP

	clock.Advance(auth.OTPTTL + time.Minute)
	_, _, err := svc.VerifyOTP(context.Background(), "+15550001", code)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestVerifyOTPWrongCode(t *testing.T) {
	svc, repo, _, _, _ := userServiceFixture(t)

	require.NoError(t, svc.PhoneLogin(context.Background(), PhoneLoginInput{Phone: "+15550001"}))
	code := *repo.users[1].OTP
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, _, err := svc.VerifyOTP(context.Background(), "+15550001", wrong)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	// A failed attempt does not burn the pending code.
	_, _, err = svc.VerifyOTP(context.Background(), "+15550001", code)
	assert.NoError(t, err)
}

func TestResendOTPUnknownPhone(t *testing.T) {
	svc, _, _, _, _ := userServiceFixture(t)

	err := svc.ResendOTP(context.Background(), "+15559999")
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestOTPPasswordReset(t *testing.T) {
	svc, repo, _, _, _ := userServiceFixture(t)

	user, err := svc.Register(context.Background(), RegisterUserInput{
		Email: "u@example.com", Phone: "+15550001", Password: "original-pass-1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), "+15550001"))
	code := *repo.users[user.ID].OTP

	require.NoError(t, svc.VerifyOTPForReset(context.Background(), "+15550001", code))
	assert.False(t, repo.users[user.ID].Verified, "reset must not mark the phone verified")

	require.NoError(t, svc.ResetPassword(context.Background(), "+15550001", "replacement-pass"))

	_, _, err = svc.Login(context.Background(), "u@example.com", "replacement-pass")
	require.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "u@example.com", "original-pass-1")
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
}

func TestReportUser(t *testing.T) {
	svc, repo, reports, _, _ := userServiceFixture(t)

	reporter, err := repo.Create(context.Background(), types.User{Name: "R", Active: true})
	require.NoError(t, err)
	reported, err := repo.Create(context.Background(), types.User{Name: "X", Active: true})
	require.NoError(t, err)

	_, err = svc.ReportUser(context.Background(), reporter.ID, types.UserReport{
		ReportedUserID: reporter.ID, Category: types.ReportCategorySpam,
	})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	_, err = svc.ReportUser(context.Background(), reporter.ID, types.UserReport{
		ReportedUserID: reported.ID, Category: "nonsense",
	})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	_, err = svc.ReportUser(context.Background(), reporter.ID, types.UserReport{
		ReportedUserID: 999, Category: types.ReportCategorySpam,
	})
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))

	report, err := svc.ReportUser(context.Background(), reporter.ID, types.UserReport{
		ReportedUserID: reported.ID,
		Category:       types.ReportCategoryHarassment,
		Description:    "details",
	})
	require.NoError(t, err)
	assert.Equal(t, reporter.ID, report.ReporterID)
	assert.Len(t, reports.reports, 1)
}

func TestUserRegisterDuplicatePhone(t *testing.T) {
	svc, _, _, _, _ := userServiceFixture(t)

	_, err := svc.Register(context.Background(), RegisterUserInput{
		Email: "a@example.com", Phone: "+15550001", Password: "long-enough-pw",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterUserInput{
		Email: "b@example.com", Phone: "+15550001", Password: "long-enough-pw",
	})
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))
}
