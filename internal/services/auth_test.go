package services

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kreaker/cnc-backend/internal/apierr"
	"github.com/kreaker/cnc-backend/internal/types"
)

type fakeUserRepo struct {
	users  map[string]*types.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*types.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	f.nextID++
	user.ID = f.nextID
	copied := *user
	f.users[user.Username] = &copied
	return user, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	return user, nil
}

func (f *fakeUserRepo) UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	_, ok := f.users[username]
	return ok, nil
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	for _, user := range f.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func newAuthServiceForTest(users *fakeUserRepo) AuthService {
	return NewAuthService(nil, newTestLogger(), users, "test-secret", time.Hour)
}

func TestRegisterUserNormalizesAndHashes(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthServiceForTest(users)

	user := &types.User{
		Username: "  Operator ",
		Email:    "OP@Example.COM",
		Password: "hunter22",
	}
	if err := svc.RegisterUser(context.Background(), user); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	stored := users.users["operator"]
	if stored == nil {
		t.Fatal("username was not lower-cased and trimmed")
	}
	if stored.Email != "op@example.com" {
		t.Fatalf("email not normalized: %q", stored.Email)
	}
	if stored.Password == "hunter22" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("hunter22")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !stored.Enabled {
		t.Fatal("new users must be enabled")
	}
}

func TestRegisterUserRejectsDuplicates(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthServiceForTest(users)
	ctx := context.Background()

	first := &types.User{Username: "operator", Email: "op@example.com", Password: "pw"}
	if err := svc.RegisterUser(ctx, first); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	dupUsername := &types.User{Username: "operator", Email: "other@example.com", Password: "pw"}
	if err := svc.RegisterUser(ctx, dupUsername); apierr.CodeOf(err) != "username_taken" {
		t.Fatalf("expected username_taken, got %v", err)
	}

	dupEmail := &types.User{Username: "operator2", Email: "op@example.com", Password: "pw"}
	if err := svc.RegisterUser(ctx, dupEmail); apierr.CodeOf(err) != "email_taken" {
		t.Fatalf("expected email_taken, got %v", err)
	}
}

func TestLoginIssuesValidatableToken(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthServiceForTest(users)
	ctx := context.Background()

	if err := svc.RegisterUser(ctx, &types.User{Username: "operator", Email: "op@example.com", Password: "hunter22"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	token, user, err := svc.LoginUser(ctx, "Operator", "hunter22")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if user.Username != "operator" {
		t.Fatalf("unexpected user %+v", user)
	}

	subject, err := svc.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if subject != "operator" {
		t.Fatalf("expected subject operator, got %q", subject)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthServiceForTest(users)
	ctx := context.Background()

	if err := svc.RegisterUser(ctx, &types.User{Username: "operator", Email: "op@example.com", Password: "hunter22"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	if _, _, err := svc.LoginUser(ctx, "operator", "wrong"); apierr.CodeOf(err) != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials for bad password, got %v", err)
	}
	if _, _, err := svc.LoginUser(ctx, "nobody", "hunter22"); apierr.CodeOf(err) != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials for unknown user, got %v", err)
	}

	users.users["operator"].Enabled = false
	if _, _, err := svc.LoginUser(ctx, "operator", "hunter22"); apierr.CodeOf(err) != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials for disabled user, got %v", err)
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthServiceForTest(users)
	other := NewAuthService(nil, newTestLogger(), users, "other-secret", time.Hour)
	ctx := context.Background()

	if err := svc.RegisterUser(ctx, &types.User{Username: "operator", Email: "op@example.com", Password: "pw"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	token, _, err := other.LoginUser(ctx, "operator", "pw")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	if _, err := svc.ValidateToken(ctx, token); apierr.CodeOf(err) != "invalid_token" {
		t.Fatalf("expected invalid_token, got %v", err)
	}
}

func TestSeedUserIsIdempotent(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthServiceForTest(users)
	ctx := context.Background()

	if err := svc.SeedUser(ctx, "admin", "admin@example.com", "pw", "Admin"); err != nil {
		t.Fatalf("SeedUser: %v", err)
	}
	if err := svc.SeedUser(ctx, "admin", "admin@example.com", "pw", "Admin"); err != nil {
		t.Fatalf("SeedUser second run: %v", err)
	}
	if len(users.users) != 1 {
		t.Fatalf("expected a single seeded user, got %d", len(users.users))
	}
}
