package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Events        *EventHandler
	Activities    *ActivityHandler
	Registrations *RegistrationHandler
	Program       *ProgramHandler
	Middleware    []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if cfg.Events != nil {
		mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Events.List(w, r)
			case http.MethodPost:
				cfg.Events.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/events/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			id, tail, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithEventID(r.Context(), id))

			switch tail {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Events.Get(w, r)
				case http.MethodPut:
					cfg.Events.Update(w, r)
				case http.MethodDelete:
					cfg.Events.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "activities":
				if cfg.Activities == nil {
					http.NotFound(w, r)
					return
				}
				switch r.Method {
				case http.MethodGet:
					cfg.Activities.ListForEvent(w, r)
				case http.MethodPost:
					cfg.Activities.Create(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPost)
				}
			case "program.ics":
				if cfg.Program == nil {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Program.Export(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Activities != nil {
		mux.HandleFunc("/activities/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/activities/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			id, tail, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithActivityID(r.Context(), id))

			switch {
			case tail == "":
				switch r.Method {
				case http.MethodGet:
					cfg.Activities.Get(w, r)
				case http.MethodPut:
					cfg.Activities.Update(w, r)
				case http.MethodDelete:
					cfg.Activities.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case tail == "registrations":
				if cfg.Registrations == nil {
					http.NotFound(w, r)
					return
				}
				switch r.Method {
				case http.MethodGet:
					cfg.Registrations.List(w, r)
				case http.MethodPost:
					cfg.Registrations.Register(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPost)
				}
			case strings.HasPrefix(tail, "registrations/"):
				if cfg.Registrations == nil {
					http.NotFound(w, r)
					return
				}
				userID := strings.TrimPrefix(tail, "registrations/")
				if userID == "" || strings.Contains(userID, "/") {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodDelete {
					methodNotAllowed(w, http.MethodDelete)
					return
				}
				cfg.Registrations.Unregister(w, r, userID)
			default:
				http.NotFound(w, r)
			}
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
