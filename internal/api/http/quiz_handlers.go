package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/assessment"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

func ListCourseQuizzesHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zs, err := svc.ListQuizzesForCourse(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "courseID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, zs)
	}
}

// CreateQuizHandler decodes the body over a quiz carrying the defaults, so
// omitted settings keep their default values.
func CreateQuizHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		z := quiz.NewQuiz()
		if err := json.NewDecoder(r.Body).Decode(&z); err != nil {
			badRequest(w, "bad json: "+err.Error())
			return
		}
		out, err := svc.CreateQuiz(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "courseID"), z)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func GetQuizHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		z, err := svc.GetQuiz(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, z)
	}
}

// UpdateQuizHandler merges the body into the stored quiz; fields absent from
// the body keep their stored values.
func UpdateQuizHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil || !json.Valid(body) {
			badRequest(w, "bad json")
			return
		}
		out, err := svc.UpdateQuiz(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "quizID"),
			func(z *quiz.Quiz) error {
				return json.NewDecoder(bytes.NewReader(body)).Decode(z)
			})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteQuizHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteQuiz(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "quizID")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DebugQuizHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		z, err := svc.DebugQuiz(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"quiz":           z,
			"questionCount":  len(z.Questions),
			"questionPoints": z.QuestionPoints(),
		})
	}
}

func AddQuestionHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			badRequest(w, "bad json: "+err.Error())
			return
		}
		out, err := svc.AddQuestion(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "quizID"), q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func UpdateQuestionHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			badRequest(w, "bad json: "+err.Error())
			return
		}
		out, err := svc.UpdateQuestion(r.Context(), rbac.PrincipalFromContext(r.Context()),
			chi.URLParam(r, "quizID"), chi.URLParam(r, "questionID"), q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteQuestionHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.DeleteQuestion(r.Context(), rbac.PrincipalFromContext(r.Context()),
			chi.URLParam(r, "quizID"), chi.URLParam(r, "questionID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteCourseHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteCourse(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "courseID")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
