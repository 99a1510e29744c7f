package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/confagenda/internal/conference"
	"github.com/hrygo/confagenda/internal/profile"
	"github.com/hrygo/confagenda/server/internal/observability"
	"github.com/hrygo/confagenda/server/service/agenda"
	"github.com/hrygo/confagenda/server/service/catalog"
	"github.com/hrygo/confagenda/server/service/favorite"
	"github.com/hrygo/confagenda/store"
)

// UserIDHeader carries the caller-supplied user id used to scope every agenda
// and favorite operation. It is an identifier, not a credential.
const UserIDHeader = "X-User-ID"

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	CatalogService  *catalog.Service
	AgendaService   agenda.Service
	FavoriteService *favorite.Service
	Metrics         *observability.Metrics
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, conf *conference.Conference) *APIV1Service {
	catalogService := catalog.NewService(store, conf)
	agendaService := agenda.NewService(store, catalogService, conf)
	return &APIV1Service{
		Profile:         profile,
		Store:           store,
		CatalogService:  catalogService,
		AgendaService:   agendaService,
		FavoriteService: favorite.NewService(store, agendaService),
		Metrics:         observability.GlobalMetrics(),
	}
}

// RegisterRoutes registers the REST handlers with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	api := echoServer.Group("/api/v1")
	api.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, UserIDHeader, echo.HeaderXRequestID},
	}))
	api.Use(s.requestContext)

	agendas := api.Group("/agendas", requireUser)
	agendas.POST("", s.SaveAgenda)
	agendas.GET("/active", s.GetActiveAgenda)
	agendas.GET("/active/conflicts", s.CheckActiveConflicts)
	agendas.POST("/active/sync", s.SyncFavorites)
	agendas.GET("/active/calendar.ics", s.ExportAgendaICS)
	agendas.GET("/active/feed.atom", s.ExportAgendaFeed)
	agendas.POST("/conflicts", s.CheckConflicts)
	agendas.GET("/:id", s.GetAgenda)
	agendas.PUT("/:id", s.UpdateAgenda)
	agendas.DELETE("/:id", s.DeleteAgenda)
	agendas.GET("/:id/versions", s.ListAgendaVersions)
	agendas.GET("/:id/versions/:versionId", s.GetAgendaVersion)
	agendas.POST("/:id/versions/:versionId/rollback", s.RollbackAgenda)
	agendas.GET("/:id/sessions", s.ListAgendaSessions)
	agendas.POST("/:id/reindex", s.ReindexAgenda)

	favorites := api.Group("/favorites", requireUser)
	favorites.GET("", s.ListFavorites)
	favorites.PUT("/:sessionId", s.AddFavorite)
	favorites.DELETE("/:sessionId", s.RemoveFavorite)

	sessions := api.Group("/sessions")
	sessions.GET("", s.ListSessions)
	sessions.POST("/import", s.ImportSessions)
	sessions.GET("/:id", s.GetSession)

	api.GET("/system/metrics", s.GetMetricsOverview)
}
