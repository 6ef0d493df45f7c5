package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/limbo/caltrack/internal/service"
)

type Server struct {
	mx             *chi.Mux
	profileService service.ProfileServiceI
	catalogService service.CatalogServiceI
	logService     service.LogServiceI
	metricsService service.MetricsServiceI
	statsService   service.StatsServiceI
}

type ServicesList struct {
	ProfileService service.ProfileServiceI
	CatalogService service.CatalogServiceI
	LogService     service.LogServiceI
	MetricsService service.MetricsServiceI
	StatsService   service.StatsServiceI
}

func New(servicesOptions *ServicesList) *Server {
	return &Server{
		mx:             chi.NewMux(),
		profileService: servicesOptions.ProfileService,
		catalogService: servicesOptions.CatalogService,
		logService:     servicesOptions.LogService,
		metricsService: servicesOptions.MetricsService,
		statsService:   servicesOptions.StatsService,
	}
}

func (s *Server) Run(address string) error {
	s.mx.Use(s.RequestIDMiddleware)
	s.mx.Use(s.SettingUpLoggerMiddleware)

	s.mx.Get("/healthz", s.Health)

	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Get("/profiles", s.ListProfiles)
		r.Post("/profiles", s.CreateProfile)
		r.Post("/profiles/select", s.SelectProfile)
		r.Get("/magic_login", s.MagicLogin)

		r.Route("/profiles/{profile}", func(r chi.Router) {
			r.Use(s.ProfileCtxMiddleware)
			r.Get("/", s.GetProfile)
			r.Delete("/", s.DeleteProfile)
			r.Get("/export", s.ExportProfile)
			r.Get("/consistency", s.CheckConsistency)
			r.Put("/weight_goal", s.SetWeightGoal)

			r.Get("/foods", s.ListFoods)
			r.Post("/foods", s.SetFood)
			r.Get("/foods/frequent", s.FrequentFoods)
			r.Get("/foods/{food}", s.GetFood)
			r.Put("/foods/{food}", s.RenameFood)
			r.Delete("/foods/{food}", s.DeleteFood)

			r.Get("/days/{date}", s.GetDay)
			r.Get("/days/{date}/summary", s.DaySummary)
			r.Post("/days/{date}/entries", s.AddEntry)
			r.Put("/days/{date}/entries/{entry}", s.UpdateEntry)
			r.Patch("/days/{date}/entries/{entry}/calories", s.UpdateEntryCalories)
			r.Delete("/days/{date}/entries/{entry}", s.DeleteEntry)

			r.Get("/history", s.History)
			r.Get("/weekly_report", s.WeeklyReport)

			r.Post("/weights", s.LogWeight)
			r.Get("/weights", s.WeightHistory)
			r.Put("/goals/{date}", s.SetDailyGoal)
			r.Get("/goals/{date}", s.EffectiveDailyGoal)
		})
	})

	return http.ListenAndServe(address, s.mx)
}
