package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/assessment"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

// answersBody is the body of update and submit. A missing "answers" key
// decodes to nil, which keeps the saved answers.
type answersBody struct {
	Answers []quiz.Answer `json:"answers"`
}

func StartAttemptHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, created, err := svc.StartAttempt(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, a)
	}
}

func UpdateAttemptHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body answersBody
		if err := decodeBody(r, &body); err != nil {
			badRequest(w, "bad json: "+err.Error())
			return
		}
		a, err := svc.UpdateAttempt(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "attemptID"), body.Answers)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func SubmitAttemptHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body answersBody
		if err := decodeBody(r, &body); err != nil {
			badRequest(w, "bad json: "+err.Error())
			return
		}
		a, err := svc.SubmitAttempt(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "attemptID"), body.Answers)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func GetAttemptHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetAttempt(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func AttemptCountHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.GetAttemptCount(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": n})
	}
}

func LatestAttemptHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetLatestAttempt(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// InProgressAttemptHandler answers with the open attempt or JSON null.
func InProgressAttemptHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetInProgressAttempt(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func ListAttemptsHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAttempts(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	}
}

func ListQuizAttemptsHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListQuizAttempts(r.Context(), rbac.PrincipalFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	}
}

func nonNil(list []quiz.Attempt) []quiz.Attempt {
	if list == nil {
		return []quiz.Attempt{}
	}
	return list
}
