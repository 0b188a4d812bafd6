package service

import (
	"context"
	"errors"
	"testing"

	"zalama/internal/domain"
	"zalama/internal/models"
	"zalama/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

func ptrUint(v uint) *uint { return &v }

func TestSyncCreateWithAuth(t *testing.T) {
	employees := newMemEmployees(models.Employee{ID: 3, Prenom: "Fatou", Nom: "Bah", Email: " Fatou.Bah@Example.com ", Telephone: "622123456", Actif: true})
	users := newMemUsers()
	s, e := &fakeSMS{}, &fakeEmail{}
	svc := NewEmployeeSyncService(employees, users, testChannels(s, e, nil), quietLogger())

	rep, err := svc.Sync(context.Background(), SyncRequest{Action: SyncCreateWithAuth, EmployeeID: 3})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if rep.Created != 1 || rep.Total != 1 {
		t.Fatalf("report = %+v", rep)
	}
	out := rep.Outcomes[0]
	if out.Email != "fatou.bah@example.com" || !out.CredentialsSent {
		t.Errorf("outcome = %+v", out)
	}
	u, err := users.GetByEmail(context.Background(), "fatou.bah@example.com")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if u.Role != domain.RoleEmployee || !u.Actif {
		t.Errorf("user = %+v", u)
	}
	emp, _ := employees.GetByID(context.Background(), 3)
	if emp.UserID == nil || *emp.UserID != u.ID {
		t.Error("employee not linked")
	}
	if len(e.sent) != 1 || len(s.sent) != 1 {
		t.Errorf("credentials delivered by email=%d sms=%d", len(e.sent), len(s.sent))
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("wrong")) == nil {
		t.Error("password hash accepts anything")
	}

	if _, err := svc.Sync(context.Background(), SyncRequest{Action: SyncCreateWithAuth, EmployeeID: 3}); !errors.Is(err, ErrAlreadyLinked) {
		t.Errorf("second creation: %v", err)
	}
}

func TestSyncCreateWithoutCredentials(t *testing.T) {
	employees := newMemEmployees(models.Employee{ID: 3, Email: "a@example.com"})
	e := &fakeEmail{}
	svc := NewEmployeeSyncService(employees, newMemUsers(), testChannels(&fakeSMS{}, e, nil), quietLogger())
	no := false
	rep, err := svc.Sync(context.Background(), SyncRequest{Action: SyncCreateWithAuth, EmployeeID: 3, SendCredentials: &no})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Outcomes[0].CredentialsSent || len(e.sent) != 0 {
		t.Error("credentials sent although disabled")
	}
}

func TestSyncExisting(t *testing.T) {
	employees := newMemEmployees(
		models.Employee{ID: 3, Email: "known@example.com"},
		models.Employee{ID: 4, Email: "nobody@example.com"},
		models.Employee{ID: 5, Email: "linked@example.com", UserID: ptrUint(9)},
	)
	users := newMemUsers(models.User{ID: 7, Email: "known@example.com", Role: domain.RoleEmployee, Actif: true})
	svc := NewEmployeeSyncService(employees, users, nil, quietLogger())
	ctx := context.Background()

	rep, err := svc.Sync(ctx, SyncRequest{Action: SyncExisting, EmployeeID: 3})
	if err != nil || rep.Linked != 1 || rep.Outcomes[0].UserID != 7 {
		t.Fatalf("rep=%+v err=%v", rep, err)
	}
	if _, err := svc.Sync(ctx, SyncRequest{Action: SyncExisting, EmployeeID: 4}); !errors.Is(err, ErrNoAccount) {
		t.Errorf("no account: %v", err)
	}
	rep, err = svc.Sync(ctx, SyncRequest{Action: SyncExisting, EmployeeID: 5})
	if err != nil || rep.Outcomes[0].Result != "already_linked" {
		t.Errorf("already linked: %+v %v", rep, err)
	}
	if _, err := svc.Sync(ctx, SyncRequest{Action: "purge"}); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("unknown action: %v", err)
	}
	if _, err := svc.Sync(ctx, SyncRequest{Action: SyncExisting, EmployeeID: 77}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("missing employee: %v", err)
	}
}

func TestSyncAll(t *testing.T) {
	employees := newMemEmployees(
		models.Employee{ID: 1, Email: "known@example.com"},
		models.Employee{ID: 2, Email: "new@example.com"},
		models.Employee{ID: 3},
		models.Employee{ID: 4, Email: "done@example.com", UserID: ptrUint(8)},
	)
	users := newMemUsers(models.User{ID: 7, Email: "known@example.com"})
	svc := NewEmployeeSyncService(employees, users, nil, quietLogger())

	rep, err := svc.Sync(context.Background(), SyncRequest{Action: SyncAll})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Total != 3 || rep.Linked != 1 || rep.Created != 1 || rep.Failed != 1 {
		t.Fatalf("report = %+v", rep)
	}
}

type brokenLinks struct {
	*memEmployees
}

func (brokenLinks) LinkUser(context.Context, uint, uint) error { return errors.New("connection reset") }

func TestSyncCreateDropsAccountWhenLinkFails(t *testing.T) {
	ctx := context.Background()
	employees := newMemEmployees(models.Employee{ID: 3, Nom: "Bah", Email: "fatou@example.com", Actif: true})
	users := newMemUsers()

	broken := NewEmployeeSyncService(brokenLinks{employees}, users, nil, quietLogger())
	rep, err := broken.Sync(ctx, SyncRequest{Action: SyncCreateWithAuth, EmployeeID: 3})
	if err == nil && rep.Failed != 1 {
		t.Fatalf("link failure not reported: %+v", rep)
	}
	if _, err := users.GetByEmail(ctx, "fatou@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("orphan account left behind: %v", err)
	}

	svc := NewEmployeeSyncService(employees, users, nil, quietLogger())
	rep, err = svc.Sync(ctx, SyncRequest{Action: SyncCreateWithAuth, EmployeeID: 3})
	if err != nil || rep.Created != 1 {
		t.Fatalf("retry: rep=%+v err=%v", rep, err)
	}
}
