package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// API bundles the use cases exposed over HTTP.
type API struct {
	quiz  *app.QuizService
	admin *app.AdminService
	setup *app.SetupService
	ws    *WSHandler
}

func NewAPI(quiz *app.QuizService, admin *app.AdminService, setup *app.SetupService) *API {
	return &API{quiz: quiz, admin: admin, setup: setup, ws: NewWSHandler(quiz)}
}

// Routes builds the chi router. An empty origin list allows any origin.
func (a *API) Routes(corsOrigins []string) http.Handler {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", a.ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", a.login)

		r.Get("/player", a.getPlayer)
		r.Put("/player", a.putPlayer)
		r.Get("/catalog", a.catalog)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", a.startSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", a.getSession)
				r.Delete("/", a.closeSession)
				r.Post("/select", a.selectOption)
			})
		})
		r.Get("/results", a.results)

		r.Route("/admin", func(r chi.Router) {
			r.Use(a.requireAdmin)

			r.Get("/subjects", a.listSubjects)
			r.Post("/subjects", a.addSubject)
			r.Delete("/subjects/{id}", a.deleteSubject)

			r.Get("/levels", a.listLevels)
			r.Post("/levels", a.addLevel)
			r.Delete("/levels/{id}", a.deleteLevel)

			r.Get("/topics", a.listTopics)
			r.Post("/topics", a.addTopic)
			r.Delete("/topics/{id}", a.deleteTopic)

			r.Get("/questions", a.listQuestions)
			r.Post("/questions", a.addQuestion)
			r.Delete("/questions/{id}", a.deleteQuestion)
		})
	})
	return r
}

func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, err := a.admin.IsAdmin(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if !ok {
			writeError(w, domain.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrOptionNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInconsistentScope):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrQuestionLocked),
		errors.Is(err, domain.ErrSessionNotActive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNoPlayer), errors.Is(err, domain.ErrMissingScope):
		return http.StatusPreconditionRequired
	default:
		log.Printf("http internal error: %v", err)
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return nil
}
