package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/config"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/shift"
	appHTTP "github.com/cmlabs-hris/checkin-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/face"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/telemetry"
	"github.com/cmlabs-hris/checkin-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/checkin-backend-go/internal/service/attendance"
	serviceAuth "github.com/cmlabs-hris/checkin-backend-go/internal/service/auth"
	serviceCompany "github.com/cmlabs-hris/checkin-backend-go/internal/service/company"
	employeeService "github.com/cmlabs-hris/checkin-backend-go/internal/service/employee"
	"github.com/cmlabs-hris/checkin-backend-go/internal/service/file"
	locationService "github.com/cmlabs-hris/checkin-backend-go/internal/service/location"
	shiftService "github.com/cmlabs-hris/checkin-backend-go/internal/service/shift"
	"github.com/cmlabs-hris/checkin-backend-go/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(slog.String("service", cfg.Telemetry.ServiceName)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(cfg.Telemetry.ServiceName)

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Apply(ctx, db); err != nil {
			log.Fatal("Failed to apply migrations: ", err)
		}
	}

	transactor := postgresql.NewTransactor(db)
	userRepo := postgresql.NewUserRepository(db)
	companyRepo := postgresql.NewCompanyRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	locationRepo := postgresql.NewLocationRepository(db)
	recordRepo := postgresql.NewAttendanceRecordRepository(db, cfg.Location())
	requestRepo := postgresql.NewAttendanceRequestRepository(db)

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		log.Fatal("Failed to initialize JWT service: ", err)
	}

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(
			cfg.Storage.BasePath,
			cfg.Storage.BaseURL,
		)
		if err != nil {
			log.Fatal("Failed to initialize local storage: ", err)
		}
	default:
		log.Fatal("Unsupported storage types: ", cfg.Storage.Type)
	}
	fileService := file.NewFileService(fileStorage)

	var extractor face.Extractor
	if cfg.Face.APIURL != "" {
		extractor = face.NewLazyExtractor(face.NewRemoteExtractor(cfg.Face.APIURL, cfg.Face.Timeout).Load)
	} else {
		slog.Warn("FACE_API_URL not set, descriptors must be computed on the device")
	}

	hub := sse.NewHub()

	authService := serviceAuth.NewAuthService(userRepo, employeeRepo, JWTService)
	companyService := serviceCompany.NewCompanyService(transactor, companyRepo, userRepo, shiftRepo)
	employeeSvc := employeeService.NewEmployeeService(employeeRepo, shiftRepo, locationRepo, extractor, cfg.Attendance.MaxImageBytes)
	locationSvc := locationService.NewLocationService(locationRepo, cfg.Attendance.RotatingQRPeriodSecs)
	shiftSvc := shiftService.NewShiftService(shiftRepo)
	attendanceSvc := attendanceService.NewAttendanceService(
		transactor,
		recordRepo,
		employeeRepo,
		locationRepo,
		shiftRepo,
		fileService,
		extractor,
		hub,
		attendanceService.Options{
			Rules: shift.BoundaryRules{
				LateGraceMinutes:  cfg.Attendance.LateGraceMinutes,
				EarlyGraceMinutes: cfg.Attendance.EarlyGraceMinutes,
			},
			UseAccuracyBuffer: cfg.Attendance.FenceAccuracyBuffer,
			RequireFace:       cfg.Attendance.RequireFace,
			Matcher:           face.NewMatcher(cfg.Attendance.FaceMatchThreshold),
			QRPeriod:          cfg.Attendance.RotatingQRPeriodSecs,
			MaxImageBytes:     cfg.Attendance.MaxImageBytes,
			Timezone:          cfg.Location(),
		},
	)
	requestSvc := attendanceService.NewRequestService(
		transactor,
		requestRepo,
		recordRepo,
		employeeRepo,
		fileService,
		hub,
		cfg.Attendance.MaxImageBytes,
	)

	if cfg.SuperAdmin.Email != "" {
		if err := serviceAuth.BootstrapSuperAdmin(ctx, userRepo, cfg.SuperAdmin.Email, cfg.SuperAdmin.Password); err != nil {
			log.Fatal("Failed to bootstrap super admin: ", err)
		}
	}

	scheduler := cron.NewScheduler()
	cron.RegisterTokenJobs(scheduler, JWTService, cfg.JWT.RevocationPurgeInterval)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(cfg, JWTService, appHTTP.Handlers{
		Auth:              appHTTP.NewAuthHandler(authService),
		Attendance:        appHTTP.NewAttendanceHandler(attendanceSvc, JWTService, hub, cfg.Attendance.MaxImageBytes),
		AttendanceRequest: appHTTP.NewAttendanceRequestHandler(requestSvc, cfg.Attendance.MaxImageBytes),
		Employee:          appHTTP.NewEmployeeHandler(employeeSvc),
		Location:          appHTTP.NewLocationHandler(locationSvc),
		Shift:             appHTTP.NewShiftHandler(shiftSvc),
		Company:           appHTTP.NewCompanyHandler(companyService),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("Tracer shutdown error", "error", err)
	}
}
