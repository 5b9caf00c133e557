// Package httpapi is the thin JSON-facade router of SPEC_FULL.md §B: the
// one in-scope sliver of the otherwise out-of-scope HTTP/rendering surface,
// proving the Request Pipeline is reachable over HTTP. It does no HTML
// rendering or content negotiation (spec.md §6: the renderer's concern) —
// every route returns the pipeline's composed data as JSON.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/ferrors"
	"github.com/RCasatta/fbbe/logging"
	"github.com/RCasatta/fbbe/pipeline"
	"github.com/RCasatta/fbbe/requestparser"
)

var log = logging.Logger(logging.SubsystemTags.HTTP)

// Server wires a Pipeline to a gorilla/mux router, grounded on the
// teacher's `apiserver` package, which likewise builds one mux.Router over
// a handful of typed handlers closing over a shared backend.
type Server struct {
	router *mux.Router
	pipe   *pipeline.Pipeline
}

// New builds a Server with every route registered.
func New(pipe *pipeline.Pipeline) *Server {
	s := &Server{router: mux.NewRouter(), pipe: pipe}
	s.router.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	s.router.HandleFunc("/h/{height}", s.handleSearchHeight).Methods(http.MethodGet)
	s.router.PathPrefix("/b/").HandlerFunc(s.handleBlock).Methods(http.MethodGet)
	s.router.PathPrefix("/t/").HandlerFunc(s.handleTx).Methods(http.MethodGet)
	s.router.PathPrefix("/a/").HandlerFunc(s.handleAddress).Methods(http.MethodGet)
	s.router.PathPrefix("/o/").HandlerFunc(s.handleOutput).Methods(http.MethodGet)
	s.router.PathPrefix("/block/").HandlerFunc(s.handleBlock).Methods(http.MethodGet)
	s.router.PathPrefix("/tx/").HandlerFunc(s.handleTx).Methods(http.MethodGet)
	s.router.PathPrefix("/address/").HandlerFunc(s.handleAddress).Methods(http.MethodGet)
	s.router.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	return s
}

// ServeHTTP implements http.Handler, so a Server can be passed directly to
// http.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	page, err := s.pipe.TipPage(r.Context())
	writeResult(w, page, err)
}

func (s *Server) handleSearchHeight(w http.ResponseWriter, r *http.Request) {
	req, err := requestparser.Parse(r.URL.Path, nil)
	if err != nil {
		writeResult(w, nil, err)
		return
	}
	id, err := s.pipe.HashForHeight(r.Context(), req.Height)
	if err != nil {
		writeResult(w, nil, err)
		return
	}
	http.Redirect(w, r, "/b/"+id.String(), http.StatusFound)
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	req, err := requestparser.Parse(r.URL.Path, nil)
	if err != nil {
		writeResult(w, nil, err)
		return
	}
	if req.RedirectCanonical {
		redirectCanonical(w, r, "/b/"+req.BlockID.String())
		return
	}
	page, err := s.pipe.BlockPage(r.Context(), req.BlockID, req.Page)
	writeResult(w, page, err)
}

func (s *Server) handleTx(w http.ResponseWriter, r *http.Request) {
	req, err := requestparser.Parse(r.URL.Path, nil)
	if err != nil {
		writeResult(w, nil, err)
		return
	}
	if req.RedirectCanonical {
		redirectCanonical(w, r, "/t/"+req.TxID.String())
		return
	}
	page, err := s.pipe.TransactionPage(r.Context(), req.TxID, req.Page)
	writeResult(w, page, err)
}

func (s *Server) handleAddress(w http.ResponseWriter, r *http.Request) {
	req, err := requestparser.Parse(r.URL.Path, nil)
	if err != nil {
		writeResult(w, nil, err)
		return
	}
	if req.RedirectCanonical {
		redirectCanonical(w, r, "/a/"+req.Address)
		return
	}
	page, err := s.pipe.AddressPage(r.Context(), req.Address)
	writeResult(w, page, err)
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	req, err := requestparser.Parse(r.URL.Path, nil)
	if err != nil {
		writeResult(w, nil, err)
		return
	}
	height, ok, err := s.pipe.SpendingHeightForOutpoint(r.Context(), chainhash.Outpoint{TxID: req.TxID, Index: req.VOut})
	if err != nil {
		writeResult(w, nil, err)
		return
	}
	if !ok {
		writeResult(w, nil, ferrors.New(ferrors.KindNotFound, nil, "httpapi: output %s:%d is unspent", req.TxID, req.VOut))
		return
	}
	txID, inputIndex, err := s.pipe.ResolveOutput(r.Context(), chainhash.Outpoint{TxID: req.TxID, Index: req.VOut}, height)
	if err != nil {
		writeResult(w, nil, err)
		return
	}
	http.Redirect(w, r, "/t/"+txID.String()+"#input-"+strconv.Itoa(inputIndex), http.StatusFound)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := map[string]string{
		"s":    r.URL.Query().Get("s"),
		"kind": r.URL.Query().Get("kind"),
	}
	req, err := requestparser.Parse("", query)
	if err != nil {
		writeResult(w, nil, err)
		return
	}
	switch req.Kind {
	case requestparser.KindSearchHeight:
		http.Redirect(w, r, "/h/"+strconv.FormatUint(uint64(req.Height), 10), http.StatusFound)
	case requestparser.KindSearchBlock:
		http.Redirect(w, r, "/b/"+req.BlockID.String(), http.StatusFound)
	case requestparser.KindSearchTx:
		http.Redirect(w, r, "/t/"+req.TxID.String(), http.StatusFound)
	case requestparser.KindSearchAddress:
		http.Redirect(w, r, "/a/"+req.Address, http.StatusFound)
	default:
		writeResult(w, nil, ferrors.New(ferrors.KindBadRequest, nil, "httpapi: unresolvable search"))
	}
}

func redirectCanonical(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusFound)
}

// writeResult writes v as JSON on success, or maps err to an HTTP status
// via its ferrors.Kind on failure (spec.md §7's taxonomy, not the renderer's
// content negotiation — this is the JSON facade's own error mapping).
func writeResult(w http.ResponseWriter, v interface{}, err error) {
	if err != nil {
		status := statusFor(err)
		log.Debugf("httpapi: request failed: %v", err)
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		log.Warnf("httpapi: encoding response: %v", encErr)
	}
}

func statusFor(err error) int {
	switch {
	case ferrors.Is(err, ferrors.KindNotFound):
		return http.StatusNotFound
	case ferrors.Is(err, ferrors.KindBadRequest), ferrors.Is(err, ferrors.KindInvalidPage), ferrors.Is(err, ferrors.KindDecode):
		return http.StatusBadRequest
	case ferrors.Is(err, ferrors.KindRestDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
