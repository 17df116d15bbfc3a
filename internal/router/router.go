package router

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"

	"hospital-api/internal/handler"
	"hospital-api/internal/metrics"
	"hospital-api/internal/middleware"
	"hospital-api/internal/model"
)

// Resource is the set of handlers one CRUD entity exposes.
type Resource interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

// VisitResource is a Resource whose collection lives under a visit.
type VisitResource interface {
	Resource
	ListByVisit(w http.ResponseWriter, r *http.Request)
}

// UserAdmin is the administrator's user-account surface.
type UserAdmin interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
}

type Options struct {
	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int
	TrustedProxies   []netip.Prefix
	RequestTimeout   time.Duration
	Logger           *slog.Logger
	Metrics          *metrics.Metrics
}

type Handlers struct {
	Auth   *handler.AuthHandler
	Audit  *handler.AuditHandler
	Health *handler.HealthHandler
	Docs   *handler.DocsHandler
	Users  UserAdmin

	Patients    Resource
	Staff       Resource
	Departments Resource
	Diseases    Resource
	Medications Resource
	Visits      Resource

	Diagnoses     VisitResource
	Prescriptions VisitResource
	LabTests      VisitResource
}

func New(opts Options, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(opts.RateLimitRPM, opts.AuthRateLimitRPM)

	r.Use(middleware.TrustedProxies(opts.TrustedProxies))
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging(opts.Logger))
	r.Use(opts.Metrics.Middleware)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(opts.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	// Registered before any sub-router so they inherit both.
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}
	r.Get("/openapi.yaml", h.Docs.OpenAPI)
	r.Get("/swagger", h.Docs.SwaggerUI)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(opts.RequestTimeout))

		api.Get("/health", h.Health.Check)

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.Post("/forgot-password", h.Auth.ForgotPassword)
			auth.Post("/reset-password", h.Auth.ResetPassword)
			auth.With(authMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
			auth.With(authMiddleware.RequireAuth).Post("/change-password", h.Auth.ChangePassword)
		})

		api.Group(func(protected chi.Router) {
			protected.Use(authMiddleware.RequireAuth)

			collection(protected, "/patients", h.Patients)
			collection(protected, "/staff", h.Staff)
			collection(protected, "/departments", h.Departments)
			collection(protected, "/diseases", h.Diseases)
			collection(protected, "/medications", h.Medications)
			collection(protected, "/visits", h.Visits)

			visitScoped(protected, "/diagnoses", h.Diagnoses)
			visitScoped(protected, "/prescriptions", h.Prescriptions)
			visitScoped(protected, "/lab-tests", h.LabTests)

			protected.Group(func(admin chi.Router) {
				admin.Use(authMiddleware.RequireStaffRoles(model.StaffRoleAdministrator))

				admin.Get("/audit-logs", h.Audit.List)
				admin.Get("/users", h.Users.List)
				admin.Get("/users/{id}", h.Users.Get)
				admin.Patch("/users/{id}", h.Users.Update)
			})
		})
	})

	return r
}

func collection(r chi.Router, path string, res Resource) {
	r.Get(path, res.List)
	r.Post(path, res.Create)
	item(r, path, res)
}

func item(r chi.Router, path string, res Resource) {
	r.Get(path+"/{id}", res.Get)
	r.Put(path+"/{id}", res.Update)
	r.Delete(path+"/{id}", res.Delete)
}

// visitScoped lists under /visits/{id}/<path> and keeps single-record
// routes at the top level.
func visitScoped(r chi.Router, path string, res VisitResource) {
	r.Get("/visits/{id}"+path, res.ListByVisit)
	r.Post(path, res.Create)
	item(r, path, res)
}
