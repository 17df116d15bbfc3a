package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"hospital-api/docs"
	"hospital-api/internal/config"
	"hospital-api/internal/database"
	"hospital-api/internal/handler"
	"hospital-api/internal/metrics"
	"hospital-api/internal/middleware"
	"hospital-api/internal/model"
	"hospital-api/internal/repository"
	"hospital-api/internal/router"
	"hospital-api/internal/service"
)

type App struct {
	server       *http.Server
	logger       *slog.Logger
	cleanupFuncs []func(ctx context.Context)
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}

	logger.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, database.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	handler.ExposeErrorDetail(cfg.IsDevelopment())

	userRepo := repository.NewUserRepository()
	roleRepo := repository.NewRoleRepository()
	sessionRepo := repository.NewSessionRepository()
	auditRepo := repository.NewAuditRepository()
	patientRepo := repository.NewPatientRepository()
	staffRepo := repository.NewStaffRepository()
	departmentRepo := repository.NewDepartmentRepository()
	diseaseRepo := repository.NewDiseaseRepository()
	medicationRepo := repository.NewMedicationRepository()
	visitRepo := repository.NewVisitRepository()
	diagnosisRepo := repository.NewDiagnosisRepository()
	prescriptionRepo := repository.NewPrescriptionRepository()
	labTestRepo := repository.NewLabTestRepository()

	auditService := service.NewAuditService(db, auditRepo)
	sessions := service.NewSessionManager(db, sessionRepo, cfg.SessionTTL, m)
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	authService := service.NewAuthService(service.AuthDeps{
		DB:          db,
		Users:       userRepo,
		Roles:       roleRepo,
		Staff:       staffRepo,
		Departments: departmentRepo,
		Audit:       auditService,
		Hasher:      service.NewPasswordHasher(cfg.BcryptCost),
		Sessions:    sessions,
		Tokens:      tokens,
		Lockout:     service.NewLockoutPolicy(cfg.LockoutMaxAttempts, cfg.LockoutDuration, cfg.LockoutResetOnExpiry),
		Notifier:    service.NewLogNotifier(logger.With("component", "notifier")),
		Metrics:     m,
		Logger:      logger.With("component", "auth"),
	}, service.AuthOptions{
		ResetTokenTTL:    cfg.PasswordResetTTL,
		ExposeResetToken: cfg.ExposeResetToken,
	})

	m.RegisterGaugeFunc("hospital_active_sessions", "Sessions that have not expired", func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := sessions.CountActive(ctx)
		if err != nil {
			logger.Warn("count active sessions", "error", err)
			return 0
		}
		return float64(n)
	})

	handlers := router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Audit:  handler.NewAuditHandler(auditService),
		Health: handler.NewHealthHandler(db),
		Docs:   handler.NewDocsHandler(cfg.OpenAPISpecPath, docs.OpenAPI),
		Users:  handler.NewUserHandler(service.NewUserService(db, userRepo, roleRepo, sessions, auditService)),

		Patients: handler.NewResourceHandler[model.Patient, model.PatientInput](
			service.NewPatientService(db, patientRepo, auditService), "Patient"),
		Staff: handler.NewResourceHandler[model.Staff, model.StaffInput](
			service.NewStaffService(db, staffRepo, departmentRepo, auditService), "Staff member"),
		Departments: handler.NewResourceHandler[model.Department, model.DepartmentInput](
			service.NewDepartmentService(db, departmentRepo, auditService), "Department"),
		Diseases: handler.NewResourceHandler[model.Disease, model.DiseaseInput](
			service.NewDiseaseService(db, diseaseRepo, auditService), "Disease"),
		Medications: handler.NewResourceHandler[model.Medication, model.MedicationInput](
			service.NewMedicationService(db, medicationRepo, auditService), "Medication"),
		Visits: handler.NewResourceHandler[model.Visit, model.VisitInput](
			service.NewVisitService(db, visitRepo, patientRepo, staffRepo, auditService), "Visit"),
		Diagnoses: handler.NewResourceHandler[model.Diagnosis, model.DiagnosisInput](
			service.NewDiagnosisService(db, diagnosisRepo, visitRepo, diseaseRepo, staffRepo, auditService), "Diagnosis"),
		Prescriptions: handler.NewResourceHandler[model.Prescription, model.PrescriptionInput](
			service.NewPrescriptionService(db, prescriptionRepo, visitRepo, medicationRepo, staffRepo, auditService), "Prescription"),
		LabTests: handler.NewResourceHandler[model.LabTest, model.LabTestInput](
			service.NewLabTestService(db, labTestRepo, visitRepo, staffRepo, auditService), "Lab test"),
	}

	appRouter := router.New(router.Options{
		CORSOrigins:      cfg.CORSOrigins,
		RateLimitRPM:     cfg.RateLimitRPM,
		AuthRateLimitRPM: cfg.AuthRateLimitRPM,
		TrustedProxies:   trustedProxies,
		RequestTimeout:   cfg.RequestTimeout,
		Logger:           logger,
		Metrics:          m,
	}, middleware.NewAuthMiddleware(tokens, sessions), handlers)

	a := &App{
		server: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           appRouter,
			ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
			WriteTimeout:      cfg.ServerWriteTimeout,
			IdleTimeout:       cfg.ServerIdleTimeout,
		},
		logger: logger,
	}

	if cfg.SessionSweepSchedule != "" {
		sweeper, err := service.NewSessionSweeper(sessions, cfg.SessionSweepSchedule, logger.With("component", "session-sweeper"))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to schedule session sweeper: %w", err)
		}
		sweeper.Start()
		a.cleanupFuncs = append(a.cleanupFuncs, sweeper.Stop)
	}

	// Runs last so in-flight sweeps and requests finish first.
	a.cleanupFuncs = append(a.cleanupFuncs, func(context.Context) { db.Close() })

	return a, nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case <-stop:
	case err := <-serveErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("graceful shutdown failed: %w", err))
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup(ctx)
	}

	a.logger.Info("server stopped")
	return runErr
}
