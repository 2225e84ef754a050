package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"reservations/internal/database"
	"reservations/internal/domain"
	"reservations/internal/middleware"
	"reservations/internal/modules/reservation"
	"reservations/internal/pkg/response"
	"reservations/internal/realtime"
	"reservations/internal/repository"
)

// Deps is everything the HTTP surface needs. DB is nil for the in-memory store.
type Deps struct {
	Service        *reservation.Service
	Hub            *realtime.Hub
	DB             *gorm.DB
	RequestTimeout time.Duration
	CORSOrigins    []string
	AccessLog      bool
}

// NewRouter mounts the reservation API under /api/v1 plus GET /health.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	if d.AccessLog {
		r.Use(gin.Logger())
	}
	r.Use(
		middleware.ErrorLogger(),
		middleware.CORS(d.CORSOrigins),
		middleware.Timeout(d.RequestTimeout),
	)

	r.GET("/health", health(d))

	v1 := r.Group("/api/v1")
	{
		realtime.NewHandler(d.Hub).RegisterRoutes(v1)
		reservation.NewHandler(d.Service).RegisterRoutes(v1)
	}
	return r
}

func health(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d.DB != nil {
			sqlDB, err := d.DB.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				_ = c.Error(err)
				response.Error(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Database unreachable")
				return
			}
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "connections": d.Hub.ConnectionCount()})
	}
}

// OpenStore picks the reservation store for dsn: memory:// selects the
// in-process store, anything else is opened with database.Connect and
// migrated. The gorm handle is nil for the in-memory store.
func OpenStore(ctx context.Context, dsn string) (domain.ReservationStore, *gorm.DB, error) {
	if strings.HasPrefix(dsn, "memory://") {
		log.Printf("store_opened kind=memory")
		return repository.NewMemoryReservationRepository(), nil, nil
	}

	db, err := database.Connect(dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		_ = database.Close(db)
		return nil, nil, err
	}
	return repository.NewReservationRepository(db), db, nil
}
