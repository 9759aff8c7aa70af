package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/engine"
	"github.com/ziadkadry99/docqa/internal/qa"
	"github.com/ziadkadry99/docqa/internal/store"
	"github.com/ziadkadry99/docqa/internal/vectordb"
)

// askRequest is the body of POST /api/ask and of each WebSocket message.
type askRequest struct {
	Question string `json:"question"`
	// Documents is a space-separated list of document numbers; empty means all.
	Documents string `json:"documents"`
}

// askResponse is returned by POST /api/ask and as the final WebSocket frame.
type askResponse struct {
	Answer     string         `json:"answer"`
	AnswerHTML string         `json:"answer_html"`
	Sources    []qa.Source    `json:"sources"`
	Documents  []store.Record `json:"documents"`
	FellBack   bool           `json:"fell_back"`
	Notice     string         `json:"notice,omitempty"`
	Model      string         `json:"model"`
	CostUSD    float64        `json:"cost_usd"`
	DurationMs int64          `json:"duration_ms"`
}

type searchRequest struct {
	Query     string `json:"query"`
	Documents string `json:"documents"`
	K         int    `json:"k"`
}

type searchResponse struct {
	Results   []vectordb.SearchResult `json:"results"`
	Documents []store.Record          `json:"documents"`
	FellBack  bool                    `json:"fell_back"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (d *Dashboard) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := d.engine.Documents()
	if err != nil {
		d.writeError(w, err)
		return
	}
	if docs == nil {
		docs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (d *Dashboard) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		d.writeError(w, fmt.Errorf("%w: reading upload: %v", apperr.ErrInvalidInput, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		d.writeError(w, fmt.Errorf("%w: form field \"file\" is required", apperr.ErrInvalidInput))
		return
	}
	defer file.Close()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}

	res, err := d.engine.Upload(r.Context(), file, name)
	if err != nil {
		d.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (d *Dashboard) handleDelete(w http.ResponseWriter, r *http.Request) {
	res, err := d.engine.Delete(r.Context(), r.URL.Query().Get("numbers"))
	if err != nil {
		d.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (d *Dashboard) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		d.writeError(w, fmt.Errorf("%w: invalid JSON body", apperr.ErrInvalidInput))
		return
	}

	ans, err := d.engine.Ask(r.Context(), req.Question, req.Documents, nil)
	if err != nil {
		d.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.toResponse(ans))
}

func (d *Dashboard) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		d.writeError(w, fmt.Errorf("%w: invalid JSON body", apperr.ErrInvalidInput))
		return
	}
	if req.K <= 0 {
		req.K = 5
	}

	results, sel, err := d.engine.Search(r.Context(), req.Query, req.Documents, req.K)
	if err != nil {
		d.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results, Documents: sel.Records, FellBack: sel.FellBack})
}

func (d *Dashboard) toResponse(ans *engine.Answer) askResponse {
	resp := askResponse{
		Answer:     ans.Answer,
		AnswerHTML: d.md.Render(ans.Answer),
		Sources:    ans.Sources,
		Documents:  ans.Documents,
		FellBack:   ans.FellBack,
		Model:      ans.Model,
		CostUSD:    ans.CostUSD,
		DurationMs: ans.Duration.Milliseconds(),
	}
	if ans.FellBack {
		resp.Notice = "No documents matched the selection; all documents were searched."
	} else if len(ans.Missing) > 0 {
		resp.Notice = "Unknown document numbers ignored: " + store.FormatSelection(ans.Missing)
	}
	return resp
}

func (d *Dashboard) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		d.log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorResponse{Error: apperr.Message(err)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
