package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zalama/config"
	"zalama/internal/domain"
	"zalama/internal/models"
	"zalama/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	SyncCreateWithAuth = "create_with_auth"
	SyncExisting       = "sync_existing"
	SyncAll            = "sync_all"
)

type EmployeeAccounts interface {
	GetByID(ctx context.Context, id uint) (*models.Employee, error)
	ListWithoutAccount(ctx context.Context) ([]models.Employee, error)
	LinkUser(ctx context.Context, employeeID, userID uint) error
}

// AccountStore is a UserStore that can also drop an account it just created.
type AccountStore interface {
	UserStore
	Delete(ctx context.Context, id uint) error
}

type SyncRequest struct {
	Action     string `json:"action" binding:"required"`
	EmployeeID uint   `json:"employe_id"`
	// SendCredentials mails or texts the generated password to the employee.
	SendCredentials *bool `json:"send_credentials"`
}

// SyncOutcome describes what happened to one employee.
type SyncOutcome struct {
	EmployeeID      uint   `json:"employe_id"`
	UserID          uint   `json:"user_id,omitempty"`
	Email           string `json:"email,omitempty"`
	Result          string `json:"result"` // created, linked, already_linked, failed
	CredentialsSent bool   `json:"credentials_sent"`
	Error           string `json:"error,omitempty"`
}

type SyncReport struct {
	Action   string        `json:"action"`
	Total    int           `json:"total"`
	Created  int           `json:"created"`
	Linked   int           `json:"linked"`
	Failed   int           `json:"failed"`
	Outcomes []SyncOutcome `json:"details"`
}

// EmployeeSyncService creates or links the authentication accounts of employee records.
type EmployeeSyncService struct {
	employees EmployeeAccounts
	users     AccountStore
	channels  *Channels
	log       *logrus.Logger
}

func NewEmployeeSyncService(employees EmployeeAccounts, users AccountStore, channels *Channels, log *logrus.Logger) *EmployeeSyncService {
	return &EmployeeSyncService{employees: employees, users: users, channels: channels, log: log}
}

func (s *EmployeeSyncService) Sync(ctx context.Context, req SyncRequest) (*SyncReport, error) {
	sendCreds := req.SendCredentials == nil || *req.SendCredentials
	switch req.Action {
	case SyncCreateWithAuth, SyncExisting:
		if req.EmployeeID == 0 {
			return nil, ErrEmployeeNotFound
		}
		e, err := s.employees.GetByID(ctx, req.EmployeeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrEmployeeNotFound
			}
			return nil, err
		}
		if e.UserID != nil {
			if req.Action == SyncCreateWithAuth {
				return nil, ErrAlreadyLinked
			}
			return s.report(req.Action, SyncOutcome{EmployeeID: e.ID, UserID: *e.UserID, Email: e.Email, Result: "already_linked"}), nil
		}
		var out SyncOutcome
		if req.Action == SyncCreateWithAuth {
			out, err = s.createAccount(ctx, e, sendCreds)
		} else {
			out, err = s.linkExisting(ctx, e)
		}
		if err != nil {
			return nil, err
		}
		return s.report(req.Action, out), nil
	case SyncAll:
		list, err := s.employees.ListWithoutAccount(ctx)
		if err != nil {
			return nil, err
		}
		outcomes := make([]SyncOutcome, 0, len(list))
		for i := range list {
			e := &list[i]
			out, err := s.linkExisting(ctx, e)
			if errors.Is(err, ErrNoAccount) {
				out, err = s.createAccount(ctx, e, sendCreds)
			}
			if err != nil {
				out = SyncOutcome{EmployeeID: e.ID, Email: e.Email, Result: "failed", Error: err.Error()}
			}
			outcomes = append(outcomes, out)
		}
		return s.report(req.Action, outcomes...), nil
	default:
		return nil, ErrUnknownAction
	}
}

func (s *EmployeeSyncService) report(action string, outcomes ...SyncOutcome) *SyncReport {
	r := &SyncReport{Action: action, Total: len(outcomes), Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Result {
		case "created":
			r.Created++
		case "linked":
			r.Linked++
		case "failed":
			r.Failed++
		}
	}
	return r
}

func (s *EmployeeSyncService) createAccount(ctx context.Context, e *models.Employee, sendCreds bool) (SyncOutcome, error) {
	addr := strings.ToLower(strings.TrimSpace(e.Email))
	if addr == "" {
		return SyncOutcome{}, fmt.Errorf("employee %d has no email", e.ID)
	}
	password := generatePassword()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return SyncOutcome{}, err
	}
	u := &models.User{
		Email:        addr,
		Telephone:    e.Telephone,
		DisplayName:  e.FullName(),
		PasswordHash: string(hash),
		Role:         domain.RoleEmployee,
		Actif:        true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return SyncOutcome{}, ErrEmailExists
		}
		return SyncOutcome{}, err
	}
	if err := s.employees.LinkUser(ctx, e.ID, u.ID); err != nil {
		// the account must not outlive a failed link, or a retry would find the email taken
		if derr := s.users.Delete(ctx, u.ID); derr != nil {
			config.LogError(s.log, "employee_sync_service", "createAccount", "drop unlinked account", logrus.Fields{"user_id": u.ID, "employe_id": e.ID}, derr)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return SyncOutcome{}, ErrAlreadyLinked
		}
		return SyncOutcome{}, err
	}
	out := SyncOutcome{EmployeeID: e.ID, UserID: u.ID, Email: addr, Result: "created"}
	if sendCreds {
		out.CredentialsSent = s.sendCredentials(ctx, e, addr, password)
	}
	s.log.WithFields(logrus.Fields{"employe_id": e.ID, "user_id": u.ID}).Info("employee account created")
	return out, nil
}

func (s *EmployeeSyncService) linkExisting(ctx context.Context, e *models.Employee) (SyncOutcome, error) {
	addr := strings.ToLower(strings.TrimSpace(e.Email))
	if addr == "" {
		return SyncOutcome{}, ErrNoAccount
	}
	u, err := s.users.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SyncOutcome{}, ErrNoAccount
		}
		return SyncOutcome{}, err
	}
	if err := s.employees.LinkUser(ctx, e.ID, u.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SyncOutcome{}, ErrAlreadyLinked
		}
		return SyncOutcome{}, err
	}
	return SyncOutcome{EmployeeID: e.ID, UserID: u.ID, Email: addr, Result: "linked"}, nil
}

// sendCredentials reports whether at least one channel delivered the temporary password.
func (s *EmployeeSyncService) sendCredentials(ctx context.Context, e *models.Employee, addr, password string) bool {
	if s.channels == nil {
		return false
	}
	msg, err := credentialsTemplate.Render(map[string]interface{}{
		"Name":     e.FullName(),
		"Email":    addr,
		"Password": password,
	})
	if err != nil {
		return false
	}
	meta := delivery{Template: "account_credentials"}
	sent := s.channels.SendEmail(ctx, addr, msg.Subject, msg.HTML, meta) == nil
	if e.Telephone != "" && s.channels.SendSMS(ctx, e.Telephone, msg.SMS, meta) == nil {
		sent = true
	}
	return sent
}

func generatePassword() string {
	return "Zl" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10] + "!"
}
