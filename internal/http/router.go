package http

import (
	"net/http"
	"strconv"
	"strings"
)

type RouterConfig struct {
	Courts     *CourtHandler
	Waitlist   *WaitlistHandler
	Blocks     *BlockHandler
	Roster     *RosterHandler
	Metrics    http.Handler
	Middleware []func(http.Handler) http.Handler
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

	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	if cfg.Courts != nil {
		mux.HandleFunc("/courts", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Courts.List(w, r)
		})
		mux.HandleFunc("/courts/selectable", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Courts.Selectable(w, r)
		})
		mux.HandleFunc("/courts/move", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Courts.Move(w, r)
		})
		mux.HandleFunc("/courts/takeover/undo", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Courts.UndoTakeover(w, r)
		})
		mux.HandleFunc("/courts/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/courts/")
			number, action, _ := strings.Cut(rest, "/")
			courtNumber, err := strconv.Atoi(number)
			if err != nil {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithCourtNumber(r.Context(), courtNumber)
			r = r.WithContext(ctx)
			switch action {
			case "assign":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Courts.Assign(w, r)
			case "clear":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Courts.Clear(w, r)
			case "history":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Courts.History(w, r)
			case "warning":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Courts.Warning(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Waitlist != nil {
		mux.HandleFunc("/waitlist", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Waitlist.List(w, r)
			case http.MethodPost:
				cfg.Waitlist.Join(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/waitlist/reorder", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Waitlist.Reorder(w, r)
		})
		mux.HandleFunc("/waitlist/estimate", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Waitlist.Estimate(w, r)
		})
		mux.HandleFunc("/waitlist/offers", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Waitlist.Offers(w, r)
		})
		mux.HandleFunc("/waitlist/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/waitlist/")
			entryID, action, _ := strings.Cut(rest, "/")
			if entryID == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithEntryID(r.Context(), entryID)
			r = r.WithContext(ctx)
			switch action {
			case "":
				if r.Method != http.MethodDelete {
					methodNotAllowed(w, http.MethodDelete)
					return
				}
				cfg.Waitlist.Leave(w, r)
			case "assign":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Waitlist.Assign(w, r)
			case "deferred":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Waitlist.SetDeferred(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Blocks != nil {
		mux.HandleFunc("/blocks", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Blocks.List(w, r)
			case http.MethodPost:
				cfg.Blocks.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/blocks/dry", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Blocks.ClearWet(w, r)
		})
		mux.HandleFunc("/blocks/", func(w http.ResponseWriter, r *http.Request) {
			blockID := strings.TrimPrefix(r.URL.Path, "/blocks/")
			if blockID == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			ctx := ContextWithBlockID(r.Context(), blockID)
			cfg.Blocks.Delete(w, r.WithContext(ctx))
		})
	}

	if cfg.Roster != nil {
		mux.HandleFunc("/roster/members", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Roster.ListMembers(w, r)
			case http.MethodPost:
				cfg.Roster.AddMember(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/roster/conflicts", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Roster.Conflicts(w, r)
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
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
