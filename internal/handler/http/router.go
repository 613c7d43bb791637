package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/checkin-backend-go/internal/config"
	"github.com/cmlabs-hris/checkin-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Auth              AuthHandler
	Attendance        AttendanceHandler
	AttendanceRequest AttendanceRequestHandler
	Employee          EmployeeHandler
	Location          LocationHandler
	Shift             ShiftHandler
	Company           CompanyHandler
}

func NewRouter(cfg *config.Config, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
		Level:       cfg.SlogLevel(),
	})).With(
		slog.String("app", cfg.Telemetry.ServiceName),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.FrontendURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(otelhttp.NewMiddleware("checkin-api"))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.SlogLevel(),
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Storage.BasePath))))

	r.Route("/api/v1", func(r chi.Router) {
		// The stream authenticates with its own query token and must outlive the request timeout.
		r.Get("/attendance/stream", h.Attendance.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(cfg.Attendance.RequestTimeout))
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Post("/auth/login", h.Auth.Login)
			r.Post("/auth/login/employee", h.Auth.EmployeeLogin)
			r.Post("/auth/login/device-code", h.Auth.DeviceCodeLogin)

			// Requires authentication
			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
				r.Use(middleware.AuthRequired(JWTService))

				r.Post("/auth/logout", h.Auth.Logout)
				r.Get("/auth/me", h.Auth.Me)
				r.Get("/auth/sse-token", h.Auth.SSEToken)

				r.Route("/attendance", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireEmployee)
						r.Get("/next-action", h.Attendance.NextAction)
						r.Post("/scan", h.Attendance.Scan)
						r.Get("/my", h.Attendance.GetMyRecords)
					})

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireAdmin)
						r.Get("/", h.Attendance.List)
						r.Get("/{id}", h.Attendance.Get)
					})
				})

				r.Route("/attendance-requests", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireEmployee)
						r.Post("/", h.AttendanceRequest.Submit)
						r.Get("/my", h.AttendanceRequest.GetMyRequests)
					})

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireAdmin)
						r.Get("/", h.AttendanceRequest.List)
						r.Post("/{id}/approve", h.AttendanceRequest.Approve)
						r.Post("/{id}/reject", h.AttendanceRequest.Reject)
					})
				})

				r.Route("/employees", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireEmployee)
						r.Get("/me", h.Employee.GetMyProfile)
						r.Put("/me/face", h.Employee.EnrollMyFace)
					})

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireAdmin)
						r.Get("/", h.Employee.ListEmployees)
						r.Post("/", h.Employee.CreateEmployee)
						r.Get("/{id}", h.Employee.GetEmployee)
						r.Put("/{id}", h.Employee.UpdateEmployee)
						r.Delete("/{id}", h.Employee.DeleteEmployee)
						r.Post("/{id}/device-code", h.Employee.RegenerateDeviceCode)
						r.Put("/{id}/face", h.Employee.EnrollFace)
						r.Delete("/{id}/face", h.Employee.RemoveFace)
					})
				})

				r.Route("/locations", func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Get("/", h.Location.List)
					r.Post("/", h.Location.Create)
					r.Get("/{id}", h.Location.Get)
					r.Put("/{id}", h.Location.Update)
					r.Delete("/{id}", h.Location.Delete)
					r.Get("/{id}/qr", h.Location.QRImage)
					r.Get("/{id}/qr/payload", h.Location.QR)
				})

				r.Route("/shifts", func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Get("/", h.Shift.List)
					r.Post("/", h.Shift.Create)
					r.Get("/{id}", h.Shift.Get)
					r.Put("/{id}", h.Shift.Update)
					r.Delete("/{id}", h.Shift.Delete)
				})

				r.Route("/companies", func(r chi.Router) {
					r.Get("/my", h.Company.GetMy)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireSuperAdmin)
						r.Get("/", h.Company.List)
						r.Post("/", h.Company.Create)
					})
				})
			})
		})
	})
	return r
}
