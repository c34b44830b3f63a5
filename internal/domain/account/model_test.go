package account_test

import (
	"testing"
	"time"

	"campus/internal/domain/account"
)

// TestAccount_Validate tests validation of Account.
func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		account account.Account
		wantErr error
	}{
		{"valid admin", account.Account{Email: "admin@college.edu", Role: account.RoleAdmin}, nil},
		{"valid tutor", account.Account{Email: "tutor@college.edu", Role: account.RoleTutor, Sections: []string{"CSE-A"}}, nil},
		{"valid student", account.Account{Email: "stu@college.edu", Role: account.RoleStudent, StudentID: "stu-1"}, nil},
		{"student without link", account.Account{Email: "stu@college.edu", Role: account.RoleStudent}, account.ErrMissingStudent},
		{"empty email", account.Account{Role: account.RoleAdmin}, account.ErrEmptyEmail},
		{"email without at", account.Account{Email: "admin", Role: account.RoleAdmin}, account.ErrInvalidEmail},
		{"unknown role", account.Account{Email: "x@college.edu", Role: "coach"}, account.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.account.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestAccount_Password tests hashing and verification.
func TestAccount_Password(t *testing.T) {
	var a account.Account
	if err := a.SetPassword("short"); err != account.ErrPasswordTooShort {
		t.Errorf("SetPassword(short) = %v, want ErrPasswordTooShort", err)
	}
	if err := a.SetPassword(""); err != account.ErrEmptyPassword {
		t.Errorf("SetPassword(empty) = %v, want ErrEmptyPassword", err)
	}
	if err := a.SetPassword("correct horse battery"); err != nil {
		t.Fatalf("SetPassword() unexpected error: %v", err)
	}
	if err := a.CheckPassword("correct horse battery"); err != nil {
		t.Errorf("CheckPassword(correct) = %v", err)
	}
	if err := a.CheckPassword("wrong horse battery"); err != account.ErrWrongPassword {
		t.Errorf("CheckPassword(wrong) = %v, want ErrWrongPassword", err)
	}
}

// TestAccount_Lockout tests lockout after repeated failures.
func TestAccount_Lockout(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	var a account.Account
	for i := 0; i < account.MaxFailedLogins-1; i++ {
		a.RecordFailedLogin(now)
	}
	if a.IsLocked(now) {
		t.Fatal("locked before reaching the limit")
	}
	a.RecordFailedLogin(now)
	if !a.IsLocked(now) {
		t.Fatal("expected lock after reaching the limit")
	}
	if a.IsLocked(now.Add(account.LockoutDuration)) {
		t.Error("lock should expire after LockoutDuration")
	}
	a.ResetFailedLogins()
	if a.FailedLogins != 0 || a.IsLocked(now) {
		t.Error("ResetFailedLogins() did not clear state")
	}
}

// TestAccount_ActorID tests identity resolution per role.
func TestAccount_ActorID(t *testing.T) {
	s := account.Account{ID: "acc-1", Role: account.RoleStudent, StudentID: "stu-1"}
	if s.ActorID() != "stu-1" {
		t.Errorf("student ActorID() = %q", s.ActorID())
	}
	tu := account.Account{ID: "acc-2", Role: account.RoleTutor}
	if tu.ActorID() != "acc-2" || !tu.IsStaff() || tu.IsAdmin() {
		t.Errorf("tutor ActorID()/IsStaff()/IsAdmin() unexpected")
	}
}
