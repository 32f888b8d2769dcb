package web

import (
	"context"
	"net/http"
	"net/url"

	"studydesk/internal/adapters/backend"
	"studydesk/internal/adapters/http/middleware"
	"studydesk/internal/domain/exam"
	"studydesk/internal/domain/note"
	"studydesk/internal/domain/reminder"
)

// examResource serves /exams. The list is sorted by the sortBy query parameter.
var examResource = resource[exam.Exam]{
	path:     "/exams",
	template: "exams.html",
	listKey:  "Exams",
	listQuery: func(r *http.Request) url.Values {
		return url.Values{"sortBy": {exam.SortByOrDefault(r.URL.Query().Get("sortBy"))}}
	},
	newBody: func(r *http.Request) (any, error) {
		return exam.NewCreateInput(
			r.PostFormValue("title"),
			r.PostFormValue("subject"),
			r.PostFormValue("date"),
			r.PostFormValue("priority"),
		)
	},
	decorate: func(r *http.Request, _ []exam.Exam, data map[string]any) {
		data["SortBy"] = exam.SortByOrDefault(r.URL.Query().Get("sortBy"))
		data["SortOptions"] = []string{"date", "priority", "subject", "title"}
	},
	invalid:      "Priority must be a whole number.",
	created:      "Exam created.",
	createFailed: "Failed to create exam.",
	deleted:      "Deleted exam.",
}

// noteResource serves /notes. The backend returns the notes as a tree.
var noteResource = resource[note.Note]{
	path:     "/notes",
	template: "notes.html",
	listKey:  "Notes",
	newBody: func(r *http.Request) (any, error) {
		return note.NewCreateInput(
			r.PostFormValue("title"),
			r.PostFormValue("content"),
			r.PostFormValue("parentNote"),
		), nil
	},
	decorate: func(_ *http.Request, tree []note.Note, data map[string]any) {
		data["Parents"] = note.Flatten(tree)
	},
	created:      "Note added.",
	createFailed: "Failed to add note.",
	deleted:      "Deleted note.",
}

// reminderResource serves /reminders. Creation is validated locally first.
var reminderResource = resource[reminder.Reminder]{
	path:     "/reminders",
	template: "reminders.html",
	listKey:  "Reminders",
	newBody: func(r *http.Request) (any, error) {
		in := reminder.CreateInput{
			Message:  r.PostFormValue("message"),
			RemindAt: r.PostFormValue("remindAt"),
			ExamID:   r.PostFormValue("examId"),
		}
		if err := in.Validate(); err != nil {
			return nil, err
		}
		return in, nil
	},
	related: func(ctx context.Context, b Backend, token string) map[string]any {
		exams, _ := fetchList[exam.Exam](ctx, b, "/exams", nil, token)
		return map[string]any{"Exams": exams}
	},
	invalid:      "All fields required.",
	created:      "Reminder created.",
	createFailed: "Failed to create reminder.",
	deleted:      "Deleted reminder.",
}

// handleDashboard handles GET /
func (a *app) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())

	data := map[string]any{"User": sess.User}
	reminders, err := fetchList[reminder.Reminder](r.Context(), a.backend, "/reminders", nil, sess.Token)
	if err != nil {
		data["Degraded"] = backend.UserMessage(err, "")
	}
	data["Reminders"] = reminders
	a.render(w, r, "dashboard.html", data)
}
