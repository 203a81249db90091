package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/margamflow/internal/account/entity"
	"github.com/shandysiswandi/margamflow/internal/pkg/clock"
	"github.com/shandysiswandi/margamflow/internal/pkg/config"
	"github.com/shandysiswandi/margamflow/internal/pkg/goerror"
	"github.com/shandysiswandi/margamflow/internal/pkg/goroutine"
	"github.com/shandysiswandi/margamflow/internal/pkg/hash"
	"github.com/shandysiswandi/margamflow/internal/pkg/instrument"
	"github.com/shandysiswandi/margamflow/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var testNow = time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)

type fakeRepo struct {
	mu       sync.Mutex
	accounts map[string]entity.Account
	err      error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: make(map[string]entity.Account)}
}

func (f *fakeRepo) GetAccount(_ context.Context, username string) (*entity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	acc, ok := f.accounts[username]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &acc, nil
}

func (f *fakeRepo) ExistsUsername(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return false, f.err
	}
	_, ok := f.accounts[username]
	return ok, nil
}

func (f *fakeRepo) CreateAccount(_ context.Context, in entity.NewAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	if _, ok := f.accounts[in.Username]; ok {
		return goerror.ErrConflict
	}
	f.accounts[in.Username] = entity.Account{
		Username:     in.Username,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		PasswordSalt: in.PasswordSalt,
		CreatedAt:    in.CreatedAt,
		UpdatedAt:    in.CreatedAt,
	}
	return nil
}

func (f *fakeRepo) UpdatePassword(_ context.Context, in entity.UpdatePassword) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, ok := f.accounts[in.Username]
	if !ok {
		return goerror.ErrNotFound
	}
	acc.PasswordHash, acc.PasswordSalt, acc.UpdatedAt = in.Hash, in.Salt, in.UpdatedAt
	f.accounts[in.Username] = acc
	return nil
}

func (f *fakeRepo) UpdateRecovery(_ context.Context, in entity.UpdateRecovery) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, ok := f.accounts[in.Username]
	if !ok {
		return goerror.ErrNotFound
	}
	acc.RecoverySalt, acc.RecoveryAnswers, acc.UpdatedAt = in.Salt, in.Answers, in.UpdatedAt
	f.accounts[in.Username] = acc
	return nil
}

func (f *fakeRepo) get(t *testing.T, username string) entity.Account {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, ok := f.accounts[username]
	require.True(t, ok, "account %q missing", username)
	return acc
}

type fixture struct {
	uc     *Usecase
	repo   *fakeRepo
	hasher *hash.PBKDF2
	spans  *tracetest.SpanRecorder
}

func newFixture(t *testing.T, cfgYAML string) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(cfgYAML))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	repo := newFakeRepo()
	hasher := hash.NewPBKDF2(hash.WithIterations(64))
	spans := tracetest.NewSpanRecorder()
	ins := instrument.NewFromProviders(
		sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
		metricnoop.NewMeterProvider(),
	)

	return &fixture{
		uc: New(Dependency{
			RepoDB:     repo,
			Validator:  v,
			Config:     cfg,
			Hasher:     hasher,
			Clock:      clock.NewFixed(testNow),
			Instrument: ins,
			Goroutine:  goroutine.NewManager(3),
		}),
		repo:   repo,
		hasher: hasher,
		spans:  spans,
	}
}

func (fx *fixture) signUp(t *testing.T, username, password string) {
	t.Helper()
	require.NoError(t, fx.uc.SignUp(context.Background(), SignUpInput{
		Username:        username,
		Password:        password,
		ConfirmPassword: password,
	}))
}

func (fx *fixture) setupRecovery(t *testing.T, username, password string, answers [3]string) {
	t.Helper()
	require.NoError(t, fx.uc.SetupRecovery(context.Background(), SetupRecoveryInput{
		Username: username,
		Password: password,
		Answers:  answers,
	}))
}

func assertCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	var ge *goerror.Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, code, ge.Code(), ge.String())
}

func TestNew_ClampsMinCorrect(t *testing.T) {
	tests := []struct {
		cfg  string
		want int
	}{
		{cfg: "", want: 2},
		{cfg: "modules:\n  account:\n    min_correct_recovery_answers: 0\n", want: 1},
		{cfg: "modules:\n  account:\n    min_correct_recovery_answers: 3\n", want: 3},
		{cfg: "modules:\n  account:\n    min_correct_recovery_answers: 9\n", want: 3},
	}

	for _, tt := range tests {
		fx := newFixture(t, tt.cfg)
		assert.Equal(t, tt.want, fx.uc.MinCorrectRecoveryAnswers())
	}
}

func TestUsecase_CheckUsername(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()
	fx.signUp(t, "arif", "correct-password")

	out, err := fx.uc.CheckUsername(ctx, CheckUsernameInput{Username: " arif "})
	require.NoError(t, err)
	assert.False(t, out.Available)

	out, err = fx.uc.CheckUsername(ctx, CheckUsernameInput{Username: "maya"})
	require.NoError(t, err)
	assert.True(t, out.Available)

	_, err = fx.uc.CheckUsername(ctx, CheckUsernameInput{Username: "ab"})
	assertCode(t, err, goerror.CodeInvalidInput)

	fx.repo.err = errors.New("db down")
	_, err = fx.uc.CheckUsername(ctx, CheckUsernameInput{Username: "maya"})
	assertCode(t, err, goerror.CodeInternal)
}

func TestUsecase_SignUp(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()

	err := fx.uc.SignUp(ctx, SignUpInput{
		Username:        " arif ",
		Password:        "correct-password",
		ConfirmPassword: "correct-password",
		Name:            "Arif",
		Email:           "arif@example.com",
	})
	require.NoError(t, err)

	acc := fx.repo.get(t, "arif")
	assert.Equal(t, "Arif", acc.Name)
	assert.Equal(t, "arif@example.com", acc.Email)
	assert.Equal(t, testNow, acc.CreatedAt)
	assert.NotEqual(t, "correct-password", acc.PasswordHash)
	assert.False(t, acc.HasRecovery())

	ok, err := fx.hasher.Verify("correct-password", acc.PasswordHash, acc.PasswordSalt)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUsecase_SignUp_Errors(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()
	fx.signUp(t, "arif", "correct-password")

	tests := []struct {
		name string
		in   SignUpInput
		code goerror.Code
	}{
		{
			name: "mismatched confirmation",
			in:   SignUpInput{Username: "maya", Password: "correct-password", ConfirmPassword: "other-password"},
			code: goerror.CodeInvalidInput,
		},
		{
			name: "short password",
			in:   SignUpInput{Username: "maya", Password: "short", ConfirmPassword: "short"},
			code: goerror.CodeInvalidInput,
		},
		{
			name: "bad email",
			in:   SignUpInput{Username: "maya", Password: "correct-password", ConfirmPassword: "correct-password", Email: "x"},
			code: goerror.CodeInvalidInput,
		},
		{
			name: "taken",
			in:   SignUpInput{Username: "arif", Password: "correct-password", ConfirmPassword: "correct-password"},
			code: goerror.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCode(t, fx.uc.SignUp(ctx, tt.in), tt.code)
		})
	}
}

func TestUsecase_SignUp_KDFUnavailable(t *testing.T) {
	fx := newFixture(t, "")
	fx.uc.hasher = hash.NewPBKDF2(hash.WithPRF("whirlpool"))

	err := fx.uc.SignUp(context.Background(), SignUpInput{
		Username: "arif", Password: "correct-password", ConfirmPassword: "correct-password",
	})
	assertCode(t, err, goerror.CodeInternal)
	assert.ErrorIs(t, err, hash.ErrKDFUnavailable)
}

func TestUsecase_Login(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()
	require.NoError(t, fx.uc.SignUp(ctx, SignUpInput{
		Username: "arif", Password: "correct-password", ConfirmPassword: "correct-password", Name: "Arif",
	}))

	out, err := fx.uc.Login(ctx, LoginInput{Username: "arif", Password: "correct-password"})
	require.NoError(t, err)
	assert.Equal(t, &LoginOutput{Username: "arif", Name: "Arif"}, out)

	_, err = fx.uc.Login(ctx, LoginInput{Username: "arif", Password: "wrong-password"})
	assertCode(t, err, goerror.CodeUnauthorized)

	_, err = fx.uc.Login(ctx, LoginInput{Username: "ghost", Password: "correct-password"})
	assertCode(t, err, goerror.CodeUnauthorized)

	_, err = fx.uc.Login(ctx, LoginInput{Username: "arif"})
	assertCode(t, err, goerror.CodeInvalidInput)
}

func TestUsecase_Login_CorruptRecord(t *testing.T) {
	fx := newFixture(t, "")
	fx.repo.accounts["arif"] = entity.Account{Username: "arif", PasswordHash: "x", PasswordSalt: "not-base64!!"}

	_, err := fx.uc.Login(context.Background(), LoginInput{Username: "arif", Password: "correct-password"})
	assertCode(t, err, goerror.CodeForbidden)
}

func TestUsecase_SetupRecovery(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()
	fx.signUp(t, "arif", "correct-password")

	err := fx.uc.SetupRecovery(ctx, SetupRecoveryInput{
		Username: "arif", Password: "wrong-password", Answers: [3]string{"a", "b", "c"},
	})
	assertCode(t, err, goerror.CodeUnauthorized)

	err = fx.uc.SetupRecovery(ctx, SetupRecoveryInput{
		Username: "arif", Password: "correct-password", Answers: [3]string{"a", "", "c"},
	})
	assertCode(t, err, goerror.CodeInvalidInput)

	err = fx.uc.SetupRecovery(ctx, SetupRecoveryInput{
		Username: "ghost", Password: "correct-password", Answers: [3]string{"a", "b", "c"},
	})
	assertCode(t, err, goerror.CodeNotFound)

	fx.setupRecovery(t, "arif", "correct-password", [3]string{"Rex", "Blue", "Colombo"})

	acc := fx.repo.get(t, "arif")
	require.True(t, acc.HasRecovery())
	assert.NotEqual(t, acc.PasswordSalt, acc.RecoverySalt)
	for i, answer := range []string{"Rex", "Blue", "Colombo"} {
		ok, err := fx.hasher.Verify(answer, acc.RecoveryAnswers[i], acc.RecoverySalt)
		require.NoError(t, err)
		assert.True(t, ok, "answer %d", i)
	}
}

func TestUsecase_VerifyRecovery(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()
	fx.signUp(t, "arif", "correct-password")

	_, err := fx.uc.VerifyRecovery(ctx, VerifyRecoveryInput{Username: "arif", Answers: [3]string{"a", "b", "c"}})
	assertCode(t, err, goerror.CodeForbidden)

	fx.setupRecovery(t, "arif", "correct-password", [3]string{"Rex", "Blue", "Colombo"})

	tests := []struct {
		name        string
		answers     [3]string
		wantCorrect int
		wantPassed  bool
	}{
		{name: "all correct", answers: [3]string{"Rex", "Blue", "Colombo"}, wantCorrect: 3, wantPassed: true},
		{name: "two correct", answers: [3]string{"Rex", "Red", "Colombo"}, wantCorrect: 2, wantPassed: true},
		{name: "one correct", answers: [3]string{"Max", "Red", "Colombo"}, wantCorrect: 1, wantPassed: false},
		{name: "none correct", answers: [3]string{"Max", "Red", "Kandy"}, wantCorrect: 0, wantPassed: false},
		{name: "case sensitive", answers: [3]string{"rex", "blue", "colombo"}, wantCorrect: 0, wantPassed: false},
		{name: "order matters", answers: [3]string{"Blue", "Rex", "Colombo"}, wantCorrect: 1, wantPassed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := fx.uc.VerifyRecovery(ctx, VerifyRecoveryInput{Username: "arif", Answers: tt.answers})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCorrect, out.Correct)
			assert.Equal(t, 2, out.Required)
			assert.Equal(t, tt.wantPassed, out.Passed)
		})
	}

	_, err = fx.uc.VerifyRecovery(ctx, VerifyRecoveryInput{Username: "ghost", Answers: [3]string{"a", "b", "c"}})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestUsecase_VerifyRecovery_StrictThreshold(t *testing.T) {
	fx := newFixture(t, "modules:\n  account:\n    min_correct_recovery_answers: 3\n")
	fx.signUp(t, "arif", "correct-password")
	fx.setupRecovery(t, "arif", "correct-password", [3]string{"Rex", "Blue", "Colombo"})

	out, err := fx.uc.VerifyRecovery(context.Background(), VerifyRecoveryInput{
		Username: "arif", Answers: [3]string{"Rex", "Red", "Colombo"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Correct)
	assert.False(t, out.Passed)
}

func TestUsecase_ResetPassword(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()
	fx.signUp(t, "arif", "correct-password")
	fx.setupRecovery(t, "arif", "correct-password", [3]string{"Rex", "Blue", "Colombo"})
	before := fx.repo.get(t, "arif")

	err := fx.uc.ResetPassword(ctx, ResetPasswordInput{
		Username: "arif", Answers: [3]string{"Max", "Red", "Colombo"}, NewPassword: "brand-new-password",
	})
	assertCode(t, err, goerror.CodeUnauthorized)
	assert.Contains(t, err.Error(), "at least 2 answers must be correct")

	err = fx.uc.ResetPassword(ctx, ResetPasswordInput{
		Username: "arif", Answers: [3]string{"Rex", "Red", "Colombo"}, NewPassword: "short",
	})
	assertCode(t, err, goerror.CodeInvalidInput)

	require.NoError(t, fx.uc.ResetPassword(ctx, ResetPasswordInput{
		Username: "arif", Answers: [3]string{"Rex", "Red", "Colombo"}, NewPassword: "brand-new-password",
	}))

	after := fx.repo.get(t, "arif")
	assert.NotEqual(t, before.PasswordSalt, after.PasswordSalt, "reset must re-salt")
	assert.Equal(t, before.RecoverySalt, after.RecoverySalt)
	assert.Equal(t, before.RecoveryAnswers, after.RecoveryAnswers)

	_, err = fx.uc.Login(ctx, LoginInput{Username: "arif", Password: "correct-password"})
	assertCode(t, err, goerror.CodeUnauthorized)

	out, err := fx.uc.Login(ctx, LoginInput{Username: "arif", Password: "brand-new-password"})
	require.NoError(t, err)
	assert.Equal(t, "arif", out.Username)

	res, err := fx.uc.VerifyRecovery(ctx, VerifyRecoveryInput{Username: "arif", Answers: [3]string{"Rex", "Blue", "Colombo"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Correct)
}

func TestUsecase_ResetPassword_RepairsCorruptPassword(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()
	fx.signUp(t, "arif", "correct-password")
	fx.setupRecovery(t, "arif", "correct-password", [3]string{"Rex", "Blue", "Colombo"})

	acc := fx.repo.accounts["arif"]
	acc.PasswordSalt = "not-base64!!"
	fx.repo.accounts["arif"] = acc

	_, err := fx.uc.Login(ctx, LoginInput{Username: "arif", Password: "correct-password"})
	assertCode(t, err, goerror.CodeForbidden)

	require.NoError(t, fx.uc.ResetPassword(ctx, ResetPasswordInput{
		Username: "arif", Answers: [3]string{"Rex", "Blue", "Colombo"}, NewPassword: "brand-new-password",
	}))

	_, err = fx.uc.Login(ctx, LoginInput{Username: "arif", Password: "brand-new-password"})
	assert.NoError(t, err)
}

func TestUsecase_ResetPassword_NoRecovery(t *testing.T) {
	fx := newFixture(t, "")
	fx.signUp(t, "arif", "correct-password")

	err := fx.uc.ResetPassword(context.Background(), ResetPasswordInput{
		Username: "arif", Answers: [3]string{"a", "b", "c"}, NewPassword: "brand-new-password",
	})
	assertCode(t, err, goerror.CodeForbidden)
}

func TestUsecase_Recovery_CorruptAnswerCountsAsWrong(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()
	fx.signUp(t, "arif", "correct-password")
	fx.setupRecovery(t, "arif", "correct-password", [3]string{"Rex", "Blue", "Colombo"})

	acc := fx.repo.get(t, "arif")
	acc.RecoveryAnswers[2] = "%%%corrupt"
	fx.repo.accounts["arif"] = acc

	out, err := fx.uc.VerifyRecovery(ctx, VerifyRecoveryInput{Username: "arif", Answers: [3]string{"Rex", "Blue", "Kandy"}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Correct)
	assert.True(t, out.Passed)

	out, err = fx.uc.VerifyRecovery(ctx, VerifyRecoveryInput{Username: "arif", Answers: [3]string{"Rex", "Red", "Colombo"}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Correct)
	assert.False(t, out.Passed)

	require.NoError(t, fx.uc.ResetPassword(ctx, ResetPasswordInput{
		Username: "arif", Answers: [3]string{"Rex", "Blue", "Kandy"}, NewPassword: "brand-new-password",
	}))

	_, err = fx.uc.Login(ctx, LoginInput{Username: "arif", Password: "brand-new-password"})
	assert.NoError(t, err)
}

func TestUsecase_Recovery_KDFUnavailableStillFails(t *testing.T) {
	fx := newFixture(t, "")
	fx.signUp(t, "arif", "correct-password")
	fx.setupRecovery(t, "arif", "correct-password", [3]string{"Rex", "Blue", "Colombo"})
	fx.uc.hasher = hash.NewPBKDF2(hash.WithPRF("whirlpool"))

	_, err := fx.uc.VerifyRecovery(context.Background(), VerifyRecoveryInput{
		Username: "arif", Answers: [3]string{"Rex", "Blue", "Colombo"},
	})
	assertCode(t, err, goerror.CodeInternal)
	assert.ErrorIs(t, err, hash.ErrKDFUnavailable)
}

func TestUsecase_Spans(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()
	fx.signUp(t, "arif", "correct-password")
	_, err := fx.uc.Login(ctx, LoginInput{Username: "arif", Password: "correct-password"})
	require.NoError(t, err)

	names := make([]string, 0, 2)
	for _, span := range fx.spans.Ended() {
		assert.Equal(t, "account.usecase", span.InstrumentationScope().Name)
		names = append(names, span.Name())
	}
	assert.Equal(t, []string{"SignUp", "Login"}, names)
}
