package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.admin.Login(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.User{Role: domain.RoleAdmin})
}

type playerBody struct {
	Name string `json:"name"`
}

func (a *API) getPlayer(w http.ResponseWriter, r *http.Request) {
	name, err := a.setup.PlayerName(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playerBody{Name: name})
}

func (a *API) putPlayer(w http.ResponseWriter, r *http.Request) {
	var req playerBody
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	name, err := a.setup.SetPlayerName(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playerBody{Name: name})
}

func (a *API) catalog(w http.ResponseWriter, r *http.Request) {
	cat, err := a.setup.Catalog(r.Context(), scopeFromQuery(r))
	if errors.Is(err, domain.ErrNoPlayer) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// startSession redirects back to the entry page when the descriptor is
// incomplete instead of starting an empty run.
func (a *API) startSession(w http.ResponseWriter, r *http.Request) {
	var descriptor domain.SessionDescriptor
	if err := decode(r, &descriptor); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, err)
		return
	}
	view, err := a.quiz.Start(r.Context(), descriptor)
	if errors.Is(err, domain.ErrMissingScope) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+view.SessionID)
	writeJSON(w, http.StatusCreated, view)
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	view, err := a.quiz.View(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) closeSession(w http.ResponseWriter, r *http.Request) {
	a.quiz.Close(r.Context(), chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

type selectPayload struct {
	Index *int `json:"index"`
}

func (a *API) selectOption(w http.ResponseWriter, r *http.Request) {
	var req selectPayload
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Index == nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	view, err := a.quiz.Select(r.Context(), chi.URLParam(r, "sessionID"), *req.Index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) results(w http.ResponseWriter, r *http.Request) {
	results, err := a.quiz.Results(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type nameRequest struct {
	Name      string `json:"name"`
	SubjectID string `json:"subjectId"`
	LevelID   string `json:"levelId"`
}

func (a *API) listSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := a.admin.Subjects(r.Context())
	respond(w, http.StatusOK, subjects, err)
}

func (a *API) addSubject(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	subject, err := a.admin.AddSubject(r.Context(), req.Name)
	respond(w, http.StatusCreated, subject, err)
}

func (a *API) deleteSubject(w http.ResponseWriter, r *http.Request) {
	respondDeleted(w, a.admin.DeleteSubject(r.Context(), chi.URLParam(r, "id")))
}

func (a *API) listLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := a.admin.Levels(r.Context(), r.URL.Query().Get("subjectId"))
	respond(w, http.StatusOK, levels, err)
}

func (a *API) addLevel(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	level, err := a.admin.AddLevel(r.Context(), req.SubjectID, req.Name)
	respond(w, http.StatusCreated, level, err)
}

func (a *API) deleteLevel(w http.ResponseWriter, r *http.Request) {
	respondDeleted(w, a.admin.DeleteLevel(r.Context(), chi.URLParam(r, "id")))
}

func (a *API) listTopics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topics, err := a.admin.Topics(r.Context(), q.Get("subjectId"), q.Get("levelId"))
	respond(w, http.StatusOK, topics, err)
}

func (a *API) addTopic(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	topic, err := a.admin.AddTopic(r.Context(), req.SubjectID, req.LevelID, req.Name)
	respond(w, http.StatusCreated, topic, err)
}

func (a *API) deleteTopic(w http.ResponseWriter, r *http.Request) {
	respondDeleted(w, a.admin.DeleteTopic(r.Context(), chi.URLParam(r, "id")))
}

func (a *API) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := a.admin.Questions(r.Context(), scopeFromQuery(r))
	respond(w, http.StatusOK, questions, err)
}

func (a *API) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req app.QuestionInput
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	question, err := a.admin.AddQuestion(r.Context(), req)
	respond(w, http.StatusCreated, question, err)
}

func (a *API) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	respondDeleted(w, a.admin.DeleteQuestion(r.Context(), chi.URLParam(r, "id")))
}

func respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, v)
}

func respondDeleted(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func scopeFromQuery(r *http.Request) domain.SessionDescriptor {
	q := r.URL.Query()
	return domain.SessionDescriptor{
		SubjectID: strings.TrimSpace(q.Get("subjectId")),
		LevelID:   strings.TrimSpace(q.Get("levelId")),
		TopicID:   strings.TrimSpace(q.Get("topicId")),
	}
}
