package rpc

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/buildtrack/buildtrack/internal/estimate"
	"github.com/buildtrack/buildtrack/internal/repository"
	"github.com/buildtrack/buildtrack/internal/supervisor"
	"github.com/buildtrack/buildtrack/pkg/types"
)

// Switcher moves the database to another storage directory.
// *supervisor.Supervisor implements it.
type Switcher interface {
	Switch(ctx context.Context, dir string) error
	Dir() string
	State() supervisor.State
}

// BackendReporter names the backend currently serving requests.
type BackendReporter interface {
	Backend() types.Backend
}

// ServiceConfig wires a Service. Switcher, Backend and SaveDBPath are
// optional; without a Switcher a settings update only writes the
// settings document.
type ServiceConfig struct {
	Repository *repository.Repository
	Switcher   Switcher
	Backend    BackendReporter
	Session    *Session

	// SaveDBPath persists a new storage directory in the bootstrap file.
	SaveDBPath func(dbPath string) error

	Logger zerolog.Logger
}

// Service implements the operation set on top of the repository.
type Service struct {
	repo     *repository.Repository
	switcher Switcher
	backend  BackendReporter
	session  *Session
	saveDB   func(string) error
	logger   zerolog.Logger
}

// NewService creates a service. A missing session is created.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Session == nil {
		cfg.Session = NewSession()
	}
	return &Service{
		repo:     cfg.Repository,
		switcher: cfg.Switcher,
		backend:  cfg.Backend,
		session:  cfg.Session,
		saveDB:   cfg.SaveDBPath,
		logger:   cfg.Logger,
	}
}

// Session returns the session the auth operations act on.
func (s *Service) Session() *Session {
	return s.session
}

// Register installs every operation on reg.
func (s *Service) Register(reg *Registry) {
	s.registerProjects(reg)

	registerEntity(reg, entity[types.WorkerInput, types.WorkerPatch, types.Worker]{
		name:   "worker",
		ref:    func(in *types.WorkerInput) *types.ID { return &in.ProjectID },
		list:   s.repo.ListWorkers,
		create: s.repo.CreateWorker,
		update: s.repo.UpdateWorker,
		remove: s.repo.DeleteWorker,
	})
	registerEntity(reg, entity[types.MaterialInput, types.MaterialPatch, types.Material]{
		name:   "material",
		ref:    func(in *types.MaterialInput) *types.ID { return &in.ProjectID },
		list:   s.repo.ListMaterials,
		create: s.repo.CreateMaterial,
		update: s.repo.UpdateMaterial,
		remove: s.repo.DeleteMaterial,
	})
	registerEntity(reg, entity[types.EquipmentInput, types.EquipmentPatch, types.Equipment]{
		name:   "equipment",
		ref:    func(in *types.EquipmentInput) *types.ID { return &in.ProjectID },
		list:   s.repo.ListEquipment,
		create: s.repo.CreateEquipment,
		update: s.repo.UpdateEquipment,
		remove: s.repo.DeleteEquipment,
	})
	registerEntity(reg, entity[types.ExpenseInput, types.ExpensePatch, types.Expense]{
		name:   "expense",
		ref:    func(in *types.ExpenseInput) *types.ID { return &in.ProjectID },
		list:   s.repo.ListExpenses,
		create: s.repo.CreateExpense,
		update: s.repo.UpdateExpense,
		remove: s.repo.DeleteExpense,
	})

	reg.Register("finance.summary", s.financeSummary)
	reg.Register("finance.budget", s.financeBudget)

	reg.Register("auth.login", s.login)
	reg.Register("auth.logout", s.logout)
	reg.Register("auth.current", s.current)

	reg.Register("settings.get", s.settingsGet)
	reg.Register("settings.update", s.settingsUpdate)
	reg.Register("settings.status", s.settingsStatus)

	reg.Register("calculator.wage", s.calculatorWage)
	reg.Register("calculator.area", s.calculatorArea)
}

func (s *Service) registerProjects(reg *Registry) {
	reg.Register("project.list", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return s.repo.ListProjects(ctx)
	})
	reg.Register("project.get", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var p idPayload
		if err := bind(payload, &p); err != nil {
			return nil, err
		}
		id, err := p.parse()
		if err != nil {
			return nil, err
		}
		project, err := s.repo.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
		return optional(project), nil
	})
	reg.Register("project.create", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var in types.ProjectInput
		if err := bind(payload, &in); err != nil {
			return nil, err
		}
		return s.repo.CreateProject(ctx, in)
	})
	reg.Register("project.update", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var p updatePayload[types.ProjectPatch]
		if err := bind(payload, &p); err != nil {
			return nil, err
		}
		id, err := types.ParseID(p.ID)
		if err != nil {
			return nil, err
		}
		project, err := s.repo.UpdateProject(ctx, id, p.Updates)
		if err != nil {
			return nil, err
		}
		return optional(project), nil
	})
	reg.Register("project.delete", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var p struct {
			ID      string `json:"id"`
			Cascade bool   `json:"cascade"`
		}
		if err := bind(payload, &p); err != nil {
			return nil, err
		}
		id, err := types.ParseID(p.ID)
		if err != nil {
			return nil, err
		}
		return s.repo.DeleteProject(ctx, id, p.Cascade)
	})
}

// entity describes the four operations every project child supports.
type entity[In, P, T any] struct {
	name   string
	ref    func(*In) *types.ID
	list   func(context.Context, types.ID) ([]T, error)
	create func(context.Context, In) (*T, error)
	update func(context.Context, types.ID, P) (*T, error)
	remove func(context.Context, types.ID) (int64, error)
}

type deleteResult struct {
	Deleted int64 `json:"deleted"`
}

func registerEntity[In, P, T any](reg *Registry, e entity[In, P, T]) {
	reg.Register(e.name+".list", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var p projectRef
		if err := bind(payload, &p); err != nil {
			return nil, err
		}
		id, err := p.parse()
		if err != nil {
			return nil, err
		}
		return e.list(ctx, id)
	})
	reg.Register(e.name+".create", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var in In
		if err := bind(payload, &in); err != nil {
			return nil, err
		}
		if err := canonicalRef(e.ref(&in)); err != nil {
			return nil, err
		}
		return e.create(ctx, in)
	})
	reg.Register(e.name+".update", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var p updatePayload[P]
		if err := bind(payload, &p); err != nil {
			return nil, err
		}
		id, err := types.ParseID(p.ID)
		if err != nil {
			return nil, err
		}
		v, err := e.update(ctx, id, p.Updates)
		if err != nil {
			return nil, err
		}
		return optional(v), nil
	})
	reg.Register(e.name+".delete", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var p idPayload
		if err := bind(payload, &p); err != nil {
			return nil, err
		}
		id, err := p.parse()
		if err != nil {
			return nil, err
		}
		n, err := e.remove(ctx, id)
		if err != nil {
			return nil, err
		}
		return deleteResult{Deleted: n}, nil
	})
}

func (s *Service) financeSummary(ctx context.Context, payload json.RawMessage) (any, error) {
	var p projectRef
	if err := bind(payload, &p); err != nil {
		return nil, err
	}
	id, err := p.parse()
	if err != nil {
		return nil, err
	}
	return s.repo.FinancialSummary(ctx, id)
}

func (s *Service) financeBudget(ctx context.Context, payload json.RawMessage) (any, error) {
	var p projectRef
	if err := bind(payload, &p); err != nil {
		return nil, err
	}
	id, err := p.parse()
	if err != nil {
		return nil, err
	}
	report, err := s.repo.BudgetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return optional(report), nil
}

func (s *Service) login(ctx context.Context, payload json.RawMessage) (any, error) {
	var p struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := bind(payload, &p); err != nil {
		return nil, err
	}
	u, err := s.repo.Authenticate(ctx, p.Username, p.Password)
	if err != nil {
		return nil, err
	}
	s.session.SetUser(*u)
	s.logger.Info().Str("username", u.Username).Msg("signed in")
	return u, nil
}

func (s *Service) logout(ctx context.Context, _ json.RawMessage) (any, error) {
	s.session.Clear()
	return nil, nil
}

func (s *Service) current(ctx context.Context, _ json.RawMessage) (any, error) {
	return optional(s.session.User()), nil
}

func (s *Service) settingsGet(ctx context.Context, _ json.RawMessage) (any, error) {
	return s.repo.AppConfig(ctx)
}

// settingsUpdate writes the settings document. A new storage directory
// first moves the database there and persists it in the bootstrap file,
// so the document is written to the database that will serve it. A failed
// switch leaves everything as it was.
func (s *Service) settingsUpdate(ctx context.Context, payload json.RawMessage) (any, error) {
	var patch types.AppConfigPatch
	if err := bind(payload, &patch); err != nil {
		return nil, err
	}

	if dir, ok := s.pendingSwitch(patch); ok {
		if err := s.switcher.Switch(ctx, dir); err != nil {
			return nil, err
		}
		if s.saveDB != nil {
			if err := s.saveDB(dir); err != nil {
				s.logger.Error().Err(err).Str("dir", dir).Msg("failed to persist storage directory")
				return nil, err
			}
		}
		patch.DBPath = &dir
	}

	return s.repo.UpdateAppConfig(ctx, patch)
}

func (s *Service) pendingSwitch(patch types.AppConfigPatch) (string, bool) {
	if s.switcher == nil || patch.DBPath == nil || *patch.DBPath == "" {
		return "", false
	}
	dir := filepath.Clean(*patch.DBPath)
	return dir, dir != s.switcher.Dir()
}

type status struct {
	State   supervisor.State `json:"state"`
	Dir     string           `json:"dir"`
	Backend types.Backend    `json:"backend"`
}

func (s *Service) settingsStatus(ctx context.Context, _ json.RawMessage) (any, error) {
	var st status
	if s.switcher != nil {
		st.State = s.switcher.State()
		st.Dir = s.switcher.Dir()
	}
	if s.backend != nil {
		st.Backend = s.backend.Backend()
	}
	return st, nil
}

func (s *Service) calculatorWage(ctx context.Context, payload json.RawMessage) (any, error) {
	var in estimate.WageInput
	if err := bind(payload, &in); err != nil {
		return nil, err
	}
	return estimate.Wage(in)
}

func (s *Service) calculatorArea(ctx context.Context, payload json.RawMessage) (any, error) {
	var in estimate.AreaInput
	if err := bind(payload, &in); err != nil {
		return nil, err
	}
	return estimate.Area(in)
}
